package container

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
	"golang.org/x/net/html"
)

// EpubContainer reads the image resources of an EPUB book. Entries are
// manifest item IDs, ordered by the first appearance of each image in the
// spine's HTML content; books whose spine references no images fall back to
// natural ordering of the IDs.
type EpubContainer struct {
	archive  []byte
	entries  []string
	hrefByID map[string]string
	novel    bool
}

var _ Container = (*EpubContainer)(nil)

// epubContainerXML models META-INF/container.xml, which locates the OPF.
type epubContainerXML struct {
	XMLName   xml.Name `xml:"container"`
	RootFiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

// opfPackage models the subset of the OPF package document this container
// needs: metadata properties, the manifest, and the spine.
type opfPackage struct {
	XMLName  xml.Name `xml:"package"`
	Metadata struct {
		Metas []struct {
			Property string `xml:"property,attr"`
			Value    string `xml:",chardata"`
		} `xml:"meta"`
	} `xml:"metadata"`
	Manifest struct {
		Items []opfItem `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

type opfItem struct {
	ID        string `xml:"id,attr"`
	Href      string `xml:"href,attr"`
	MediaType string `xml:"media-type,attr"`
}

// NewEpubContainer reads the book at path into memory, parses its package
// document, and computes the image entry order.
func NewEpubContainer(filePath string) (*EpubContainer, error) {
	archive, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read epub %s: %w", filePath, err)
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("open epub %s: %w", filePath, err)
	}

	opfPath, err := locateOPF(zr)
	if err != nil {
		return nil, err
	}

	opfData, err := readEpubFile(zr, opfPath)
	if err != nil {
		return nil, err
	}

	var pkg opfPackage
	if err := xml.Unmarshal(opfData, &pkg); err != nil {
		return nil, fmt.Errorf("parse opf: %w", err)
	}

	opfDir := path.Dir(opfPath)

	hrefByID := make(map[string]string)
	itemByPath := make(map[string]string)
	var entries []string
	for _, item := range pkg.Manifest.Items {
		if !strings.HasPrefix(item.MediaType, "image/") {
			continue
		}
		p := resolveEpubPath(opfDir, item.Href)
		hrefByID[item.ID] = p
		itemByPath[p] = item.ID
		entries = append(entries, item.ID)
	}

	order := spineImageOrder(zr, &pkg, opfDir, itemByPath)
	if len(order) > 0 {
		sort.SliceStable(entries, func(i, j int) bool {
			return orderOf(order, entries[i]) < orderOf(order, entries[j])
		})
	} else {
		sortEntries(entries)
	}

	return &EpubContainer{
		archive:  archive,
		entries:  entries,
		hrefByID: hrefByID,
		novel:    isNovelLayout(&pkg),
	}, nil
}

func (c *EpubContainer) Entries() []string { return c.entries }

func (c *EpubContainer) IsDirectory() bool { return false }

// IsNovel reports whether the book looks like a reflowable, text-based novel
// rather than a fixed-layout comic. The heuristic reads the rendition:layout
// metadata property: "pre-paginated" means fixed layout, anything else
// (including absence) is treated as a novel.
func (c *EpubContainer) IsNovel() bool { return c.novel }

func (c *EpubContainer) Image(entry string) (*Image, error) {
	data, err := c.read(entry)
	if err != nil {
		return nil, err
	}
	return NewImage(data)
}

func (c *EpubContainer) Thumbnail(entry string) (*Image, error) {
	data, err := c.read(entry)
	if err != nil {
		return nil, err
	}
	return makeThumbnail(data)
}

func (c *EpubContainer) read(entry string) ([]byte, error) {
	href, ok := c.hrefByID[entry]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entry)
	}

	zr, err := zip.NewReader(bytes.NewReader(c.archive), int64(len(c.archive)))
	if err != nil {
		return nil, fmt.Errorf("open epub: %w", err)
	}
	return readEpubFile(zr, href)
}

// locateOPF reads META-INF/container.xml and returns the package document
// path. Books missing container.xml fall back to the first .opf entry.
func locateOPF(zr *zip.Reader) (string, error) {
	data, err := readEpubFile(zr, "META-INF/container.xml")
	if err == nil {
		var c epubContainerXML
		if err := xml.Unmarshal(data, &c); err != nil {
			return "", fmt.Errorf("parse container.xml: %w", err)
		}
		for _, rf := range c.RootFiles {
			if rf.FullPath != "" {
				return rf.FullPath, nil
			}
		}
	}

	for _, f := range zr.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".opf") {
			return f.Name, nil
		}
	}
	return "", fmt.Errorf("%w: no package document found", ErrUnsupportedContainer)
}

func readEpubFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open epub entry %s: %w", name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read epub entry %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
}

// resolveEpubPath joins an OPF-relative href into an archive path.
func resolveEpubPath(dir, href string) string {
	if dir == "." || dir == "" {
		return path.Clean(href)
	}
	return path.Clean(path.Join(dir, href))
}

// spineImageOrder walks the spine's HTML documents and records, for each
// image resource, the first position at which it is referenced by an <img>
// or SVG <image> element. The result is empty when the spine references no
// known image resources.
func spineImageOrder(zr *zip.Reader, pkg *opfPackage, opfDir string, itemByPath map[string]string) map[string]int {
	itemByID := make(map[string]opfItem, len(pkg.Manifest.Items))
	for _, item := range pkg.Manifest.Items {
		itemByID[item.ID] = item
	}

	order := make(map[string]int)
	for _, ref := range pkg.Spine.ItemRefs {
		item, ok := itemByID[ref.IDRef]
		if !ok || !strings.Contains(item.MediaType, "html") {
			continue
		}

		chapterPath := resolveEpubPath(opfDir, item.Href)
		content, err := readEpubFile(zr, chapterPath)
		if err != nil {
			continue
		}

		doc, err := html.Parse(bytes.NewReader(content))
		if err != nil {
			continue
		}

		chapterDir := path.Dir(chapterPath)
		for _, src := range imageReferences(doc) {
			resolved := path.Clean(path.Join(chapterDir, src))
			id, ok := itemByPath[resolved]
			if !ok {
				id, ok = matchByFilename(itemByPath, resolved)
			}
			if !ok {
				continue
			}
			if _, seen := order[id]; !seen {
				order[id] = len(order)
			}
		}
	}
	return order
}

// imageReferences collects the source attributes of every img and image
// element in document order.
func imageReferences(doc *html.Node) []string {
	var refs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "img" || n.Data == "image") {
			if src := imageSourceAttr(n); src != "" {
				refs = append(refs, src)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return refs
}

// imageSourceAttr returns the element's image reference, checking src first,
// then the SVG-style xlink:href and href attributes.
func imageSourceAttr(n *html.Node) string {
	var href string
	for _, attr := range n.Attr {
		switch {
		case attr.Key == "src":
			return attr.Val
		case attr.Key == "xlink:href" || (attr.Namespace == "xlink" && attr.Key == "href"):
			href = attr.Val
		case attr.Key == "href" && href == "":
			href = attr.Val
		}
	}
	return href
}

// matchByFilename falls back to matching an image reference by its base name
// when the resolved path does not line up with the manifest exactly.
func matchByFilename(itemByPath map[string]string, resolved string) (string, bool) {
	base := path.Base(resolved)
	for p, id := range itemByPath {
		if path.Base(p) == base {
			return id, true
		}
	}
	return "", false
}

func orderOf(order map[string]int, id string) int {
	if pos, ok := order[id]; ok {
		return pos
	}
	return int(^uint(0) >> 1)
}

func isNovelLayout(pkg *opfPackage) bool {
	for _, meta := range pkg.Metadata.Metas {
		if meta.Property == "rendition:layout" {
			return strings.TrimSpace(meta.Value) != "pre-paginated"
		}
	}
	return true
}
