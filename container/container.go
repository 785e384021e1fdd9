// Package container abstracts readable page sources — image directories and
// ZIP/RAR/PDF/EPUB archives — behind a single interface that lists entries in
// reading order and decodes them into raster images.
package container

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrEntryNotFound is returned when the requested entry does not exist
	// inside the container.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrUnsupportedContainer is returned when a path does not match any
	// supported container format.
	ErrUnsupportedContainer = errors.New("unsupported container format")
)

// ThumbnailSize is the bounding box, in pixels, for generated thumbnails.
const ThumbnailSize = 300

// Container is a readable source of ordered image entries.
//
// Implementations are safe for concurrent use: every call that touches the
// backing resource opens its own cursor, so multiple goroutines may load
// entries at the same time.
type Container interface {
	// Entries returns the entry names in reading order. The slice is computed
	// once at construction and must not be mutated by callers.
	Entries() []string

	// Image loads the entry at full fidelity.
	Image(entry string) (*Image, error)

	// Thumbnail loads the entry as a small, low-quality preview bounded by
	// ThumbnailSize on both axes.
	Thumbnail(entry string) (*Image, error)

	// IsDirectory reports whether the backing source is a filesystem
	// directory rather than an archive file.
	IsDirectory() bool
}

// IsSupportedFormat reports whether the filename has a supported container
// extension. The check is case-insensitive; directories are detected by
// filesystem type instead and are not covered here.
func IsSupportedFormat(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".pdf") ||
		strings.HasSuffix(name, ".rar") ||
		strings.HasSuffix(name, ".zip") ||
		strings.HasSuffix(name, ".epub")
}

// Options carries construction parameters that individual variants need.
type Options struct {
	// PDFRenderHeight is the target height in pixels for rendered PDF pages.
	// Zero falls back to DefaultPDFRenderHeight.
	PDFRenderHeight int
}

// DefaultPDFRenderHeight is the page render height used when none is configured.
const DefaultPDFRenderHeight = 2000

// Open classifies the path and constructs the matching container variant.
//
// A directory opens as a DirectoryContainer; files are dispatched on their
// extension. Construction errors (unreadable or corrupt sources) propagate
// unchanged so the caller can keep its previous state.
func Open(path string, opts Options) (Container, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return NewDirectoryContainer(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return NewZipContainer(path)
	case ".rar":
		return NewRarContainer(path)
	case ".pdf":
		return NewPdfContainer(path, opts.PDFRenderHeight)
	case ".epub":
		return NewEpubContainer(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContainer, path)
	}
}
