package container

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// writeTestPDF builds a minimal two-page PDF with 200x300pt pages, tracking
// object offsets so the cross-reference table is exact.
func writeTestPDF(t *testing.T, path string) {
	t.Helper()

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R 4 0 R] /Count 2 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 300] >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 300] >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, xrefStart)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestPDF(t *testing.T, renderHeight int) *PdfContainer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.pdf")
	writeTestPDF(t, path)

	c, err := NewPdfContainer(path, renderHeight)
	if err != nil {
		t.Fatalf("NewPdfContainer failed: %v", err)
	}
	return c
}

func TestPdfContainerEntries(t *testing.T) {
	c := newTestPDF(t, 0)

	want := []string{"0000", "0001"}
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

func TestPdfContainerImage(t *testing.T) {
	c := newTestPDF(t, 150)

	img, err := c.Image("0000")
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	// Pages are 200x300pt; rendering targets the configured height.
	if img.Height < 149 || img.Height > 151 {
		t.Errorf("rendered height = %d, want ~150", img.Height)
	}
	if img.Width < 99 || img.Width > 101 {
		t.Errorf("rendered width = %d, want ~100", img.Width)
	}
}

func TestPdfContainerThumbnail(t *testing.T) {
	c := newTestPDF(t, 0)

	thumb, err := c.Thumbnail("0001")
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	if thumb.Width > ThumbnailSize || thumb.Height > ThumbnailSize {
		t.Errorf("thumbnail %dx%d exceeds the %dpx bound", thumb.Width, thumb.Height, ThumbnailSize)
	}
}

func TestPdfContainerInvalidEntries(t *testing.T) {
	c := newTestPDF(t, 0)

	for _, entry := range []string{"abc", "-1", "0002", "9999", ""} {
		if _, err := c.Image(entry); !errors.Is(err, ErrEntryNotFound) {
			t.Errorf("Image(%q): got error %v, want ErrEntryNotFound", entry, err)
		}
	}
}

func TestNewPdfContainerRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("definitely not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewPdfContainer(path, 0); err == nil {
		t.Fatal("expected an error for a corrupt document")
	}
}
