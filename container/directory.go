package container

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirectoryContainer reads loose image files from a filesystem directory.
type DirectoryContainer struct {
	path    string
	entries []string
}

var _ Container = (*DirectoryContainer)(nil)

// NewDirectoryContainer scans the directory for supported image files and
// records them in case-insensitive natural order.
func NewDirectoryContainer(path string) (*DirectoryContainer, error) {
	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", path, err)
	}

	var entries []string
	for _, e := range dirEntries {
		if e.IsDir() {
			continue
		}
		if IsSupportedImageFormat(e.Name()) {
			entries = append(entries, e.Name())
		}
	}
	sortEntries(entries)

	return &DirectoryContainer{path: path, entries: entries}, nil
}

func (c *DirectoryContainer) Entries() []string { return c.entries }

func (c *DirectoryContainer) IsDirectory() bool { return true }

func (c *DirectoryContainer) Image(entry string) (*Image, error) {
	data, err := c.read(entry)
	if err != nil {
		return nil, err
	}
	return NewImage(data)
}

func (c *DirectoryContainer) Thumbnail(entry string) (*Image, error) {
	data, err := c.read(entry)
	if err != nil {
		return nil, err
	}
	return makeThumbnail(data)
}

func (c *DirectoryContainer) read(entry string) ([]byte, error) {
	if !c.contains(entry) {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entry)
	}

	data, err := os.ReadFile(filepath.Join(c.path, entry))
	if err != nil {
		return nil, fmt.Errorf("read image file %s: %w", entry, err)
	}
	return data, nil
}

func (c *DirectoryContainer) contains(entry string) bool {
	for _, e := range c.entries {
		if e == entry {
			return true
		}
	}
	return false
}
