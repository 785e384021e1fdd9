package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zip"
)

// ZipContainer reads image entries from a ZIP archive.
//
// The whole archive is held in memory so that concurrent loads can each open
// a fresh reader over the same bytes without contending on a file handle.
type ZipContainer struct {
	archive []byte
	entries []string
}

var _ Container = (*ZipContainer)(nil)

// NewZipContainer reads the archive at path into memory and records its
// image entries in case-insensitive natural order.
func NewZipContainer(path string) (*ZipContainer, error) {
	archive, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zip archive %s: %w", path, err)
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("open zip archive %s: %w", path, err)
	}

	var entries []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if IsSupportedImageFormat(f.Name) {
			entries = append(entries, f.Name)
		}
	}
	sortEntries(entries)

	return &ZipContainer{archive: archive, entries: entries}, nil
}

func (c *ZipContainer) Entries() []string { return c.entries }

func (c *ZipContainer) IsDirectory() bool { return false }

func (c *ZipContainer) Image(entry string) (*Image, error) {
	data, err := c.read(entry)
	if err != nil {
		return nil, err
	}
	return NewImage(data)
}

func (c *ZipContainer) Thumbnail(entry string) (*Image, error) {
	data, err := c.read(entry)
	if err != nil {
		return nil, err
	}
	return makeThumbnail(data)
}

// read extracts one entry with a reader opened over the in-memory archive.
func (c *ZipContainer) read(entry string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(c.archive), int64(len(c.archive)))
	if err != nil {
		return nil, fmt.Errorf("open zip archive: %w", err)
	}

	f, err := zr.Open(entry)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entry)
		}
		return nil, fmt.Errorf("open zip entry %s: %w", entry, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read zip entry %s: %w", entry, err)
	}
	return data, nil
}
