package container

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
)

// PdfContainer renders the pages of a PDF document as image entries. Pages
// are addressed by their zero-padded index ("0000", "0001", ...).
//
// The document is held in memory. A fitz.Document is not safe for concurrent
// use and must not outlive a render call that may run next to another, so
// every render constructs and closes its own instance.
type PdfContainer struct {
	document     []byte
	entries      []string
	renderHeight int
}

var _ Container = (*PdfContainer)(nil)

// fullImageJPEGQuality is the encode quality for rendered pages.
const fullImageJPEGQuality = 80

// NewPdfContainer reads the document at path into memory and derives one
// entry per page. renderHeight is the target pixel height for full-page
// renders; zero selects DefaultPDFRenderHeight.
func NewPdfContainer(path string, renderHeight int) (*PdfContainer, error) {
	document, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf %s: %w", path, err)
	}

	doc, err := fitz.NewFromMemory(document)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer doc.Close()

	if renderHeight <= 0 {
		renderHeight = DefaultPDFRenderHeight
	}

	entries := make([]string, doc.NumPage())
	for i := range entries {
		entries[i] = fmt.Sprintf("%04d", i)
	}

	return &PdfContainer{
		document:     document,
		entries:      entries,
		renderHeight: renderHeight,
	}, nil
}

func (c *PdfContainer) Entries() []string { return c.entries }

func (c *PdfContainer) IsDirectory() bool { return false }

func (c *PdfContainer) Image(entry string) (*Image, error) {
	page, err := c.render(entry, c.renderHeight)
	if err != nil {
		return nil, err
	}
	return encodeJPEG(page, fullImageJPEGQuality)
}

func (c *PdfContainer) Thumbnail(entry string) (*Image, error) {
	page, err := c.render(entry, ThumbnailSize)
	if err != nil {
		return nil, err
	}
	thumb := imaging.Fit(page, ThumbnailSize, ThumbnailSize, imaging.Linear)
	return encodeJPEG(thumb, thumbnailJPEGQuality)
}

// render rasterizes one page at a DPI chosen so the output height matches
// targetHeight, binding a fresh rendering engine for the duration of the call.
func (c *PdfContainer) render(entry string, targetHeight int) (image.Image, error) {
	index, err := c.pageIndex(entry)
	if err != nil {
		return nil, err
	}

	doc, err := fitz.NewFromMemory(c.document)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	if index >= doc.NumPage() {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entry)
	}

	bound, err := doc.Bound(index)
	if err != nil {
		return nil, fmt.Errorf("page bounds %s: %w", entry, err)
	}

	// Page bounds come back in points (72 per inch).
	dpi := 72.0
	if bound.Dy() > 0 {
		dpi = 72.0 * float64(targetHeight) / float64(bound.Dy())
	}

	page, err := doc.ImageDPI(index, dpi)
	if err != nil {
		return nil, fmt.Errorf("render page %s: %w", entry, err)
	}
	return page, nil
}

// pageIndex parses a zero-padded page entry. Anything that is not a valid
// page number cannot exist in this container.
func (c *PdfContainer) pageIndex(entry string) (int, error) {
	index, err := strconv.Atoi(entry)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("%w: %s", ErrEntryNotFound, entry)
	}
	return index, nil
}

// encodeJPEG re-encodes a decoded page as JPEG at the given quality.
func encodeJPEG(img image.Image, quality int) (*Image, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	bounds := img.Bounds()
	return &Image{
		Data:   buf.Bytes(),
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}
