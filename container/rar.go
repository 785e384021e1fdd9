package container

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nwaples/rardecode/v2"
)

// RarContainer reads image entries from a RAR archive.
//
// RAR only supports strictly sequential, single-pass extraction, so every
// load walks the archive from the first header until it reaches the
// requested entry.
type RarContainer struct {
	path    string
	entries []string
}

var _ Container = (*RarContainer)(nil)

// NewRarContainer walks the archive once to discover its image entries and
// records them in case-insensitive natural order.
func NewRarContainer(path string) (*RarContainer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rar archive %s: %w", path, err)
	}
	defer f.Close()

	rr, err := rardecode.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read rar archive %s: %w", path, err)
	}

	var entries []string
	for {
		hdr, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read rar header in %s: %w", path, err)
		}
		if hdr.IsDir {
			continue
		}
		if IsSupportedImageFormat(hdr.Name) {
			entries = append(entries, hdr.Name)
		}
	}
	sortEntries(entries)

	return &RarContainer{path: path, entries: entries}, nil
}

func (c *RarContainer) Entries() []string { return c.entries }

func (c *RarContainer) IsDirectory() bool { return false }

func (c *RarContainer) Image(entry string) (*Image, error) {
	data, err := c.extract(entry)
	if err != nil {
		return nil, err
	}
	return NewImage(data)
}

func (c *RarContainer) Thumbnail(entry string) (*Image, error) {
	data, err := c.extract(entry)
	if err != nil {
		return nil, err
	}
	return makeThumbnail(data)
}

// extract re-opens the archive and scans headers from the start until the
// entry is found, then reads just that file's body.
func (c *RarContainer) extract(entry string) ([]byte, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("open rar archive %s: %w", c.path, err)
	}
	defer f.Close()

	rr, err := rardecode.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read rar archive %s: %w", c.path, err)
	}

	for {
		hdr, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entry)
		}
		if err != nil {
			return nil, fmt.Errorf("read rar header: %w", err)
		}
		if hdr.IsDir || hdr.Name != entry {
			continue
		}

		data, err := io.ReadAll(rr)
		if err != nil {
			return nil, fmt.Errorf("extract rar entry %s: %w", entry, err)
		}
		return data, nil
	}
}
