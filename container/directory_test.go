package container

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestDirectory(t *testing.T) *DirectoryContainer {
	t.Helper()
	dir := t.TempDir()

	files := map[string][]byte{
		"3.png":      pngData(t, 10, 10),
		"1.png":      pngData(t, 15, 25),
		"20.png":     pngData(t, 10, 10),
		"readme.txt": []byte("skip me"),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}

	c, err := NewDirectoryContainer(dir)
	if err != nil {
		t.Fatalf("NewDirectoryContainer failed: %v", err)
	}
	return c
}

func TestDirectoryContainerEntries(t *testing.T) {
	c := newTestDirectory(t)

	want := []string{"1.png", "3.png", "20.png"}
	got := c.Entries()
	if len(got) != len(want) {
		t.Fatalf("got entries %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entries[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDirectoryContainerImage(t *testing.T) {
	c := newTestDirectory(t)

	img, err := c.Image("1.png")
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if img.Width != 15 || img.Height != 25 {
		t.Errorf("got %dx%d, want 15x25", img.Width, img.Height)
	}
	if !bytes.Equal(img.Data, pngData(t, 15, 25)) {
		t.Error("image bytes differ from the file on disk")
	}
}

func TestDirectoryContainerMissingEntry(t *testing.T) {
	c := newTestDirectory(t)

	if _, err := c.Image("missing.png"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("got error %v, want ErrEntryNotFound", err)
	}
	// Filenames outside the scanned entry list are rejected even when the
	// file exists, so entry names cannot escape the directory.
	if _, err := c.Image("readme.txt"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("got error %v, want ErrEntryNotFound", err)
	}
	if _, err := c.Image("../escape.png"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("got error %v, want ErrEntryNotFound", err)
	}
}
