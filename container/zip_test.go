package container

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
)

func newTestZip(t *testing.T) *ZipContainer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "comic.zip")
	writeZip(t, path, map[string][]byte{
		"10.png":    pngData(t, 10, 10),
		"2.png":     pngData(t, 20, 20),
		"1.png":     pngData(t, 30, 40),
		"cover.jpg": pngData(t, 10, 10),
		"notes.txt": []byte("not an image"),
		"extras/":   nil,
	})

	c, err := NewZipContainer(path)
	if err != nil {
		t.Fatalf("NewZipContainer failed: %v", err)
	}
	return c
}

func TestZipContainerEntries(t *testing.T) {
	c := newTestZip(t)

	want := []string{"1.png", "2.png", "10.png", "cover.jpg"}
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

func TestZipContainerImage(t *testing.T) {
	c := newTestZip(t)

	img, err := c.Image("1.png")
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if img.Width != 30 || img.Height != 40 {
		t.Errorf("got %dx%d, want 30x40", img.Width, img.Height)
	}
	if !bytes.Equal(img.Data, pngData(t, 30, 40)) {
		t.Error("image bytes differ from the archived file")
	}
}

func TestZipContainerThumbnail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comic.zip")
	writeZip(t, path, map[string][]byte{"big.png": pngData(t, 600, 800)})

	c, err := NewZipContainer(path)
	if err != nil {
		t.Fatalf("NewZipContainer failed: %v", err)
	}

	thumb, err := c.Thumbnail("big.png")
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	if thumb.Width != 225 || thumb.Height != 300 {
		t.Errorf("got %dx%d, want 225x300", thumb.Width, thumb.Height)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(thumb.Data))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("thumbnail format = %q, want jpeg", format)
	}
	if cfg.Width != 225 || cfg.Height != 300 {
		t.Errorf("decoded thumbnail is %dx%d, want 225x300", cfg.Width, cfg.Height)
	}
}

func TestZipContainerSmallThumbnailKeepsSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comic.zip")
	writeZip(t, path, map[string][]byte{"small.png": pngData(t, 100, 80)})

	c, err := NewZipContainer(path)
	if err != nil {
		t.Fatalf("NewZipContainer failed: %v", err)
	}

	thumb, err := c.Thumbnail("small.png")
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	if thumb.Width != 100 || thumb.Height != 80 {
		t.Errorf("got %dx%d, want the original 100x80", thumb.Width, thumb.Height)
	}
}

func TestZipContainerMissingEntry(t *testing.T) {
	c := newTestZip(t)

	if _, err := c.Image("missing.png"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Image: got error %v, want ErrEntryNotFound", err)
	}
	if _, err := c.Thumbnail("missing.png"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Thumbnail: got error %v, want ErrEntryNotFound", err)
	}
}

func TestNewZipContainerRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.zip")
	if err := os.WriteFile(path, []byte("definitely not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewZipContainer(path); err == nil {
		t.Fatal("expected an error for a corrupt archive")
	}
}
