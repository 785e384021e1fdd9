package container

import (
	"errors"
	"path/filepath"
	"testing"
)

const epubTestContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

func writeTestEpub(t *testing.T, opf string, extra map[string][]byte) string {
	t.Helper()

	files := map[string][]byte{
		"mimetype":               []byte("application/epub+zip"),
		"META-INF/container.xml": []byte(epubTestContainerXML),
		"OEBPS/content.opf":      []byte(opf),
	}
	for name, data := range extra {
		files[name] = data
	}

	path := filepath.Join(t.TempDir(), "book.epub")
	writeZip(t, path, files)
	return path
}

func TestEpubContainerSpineOrder(t *testing.T) {
	opf := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata>
    <meta property="rendition:layout">pre-paginated</meta>
  </metadata>
  <manifest>
    <item id="cover" href="images/cover.jpg" media-type="image/jpeg"/>
    <item id="page1" href="images/page1.png" media-type="image/png"/>
    <item id="page2" href="images/page2.png" media-type="image/png"/>
    <item id="chap1" href="text/chap1.xhtml" media-type="application/xhtml+xml"/>
    <item id="chap2" href="text/chap2.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="chap1"/>
    <itemref idref="chap2"/>
  </spine>
</package>`

	chap1 := `<html><body><img src="../images/page2.png"/></body></html>`
	chap2 := `<html><body>
  <svg xmlns="http://www.w3.org/2000/svg"><image xlink:href="../images/page1.png"/></svg>
  <img src="../images/cover.jpg"/>
</body></html>`

	path := writeTestEpub(t, opf, map[string][]byte{
		"OEBPS/images/cover.jpg": pngData(t, 10, 10),
		"OEBPS/images/page1.png": pngData(t, 20, 30),
		"OEBPS/images/page2.png": pngData(t, 10, 10),
		"OEBPS/text/chap1.xhtml": []byte(chap1),
		"OEBPS/text/chap2.xhtml": []byte(chap2),
	})

	c, err := NewEpubContainer(path)
	if err != nil {
		t.Fatalf("NewEpubContainer failed: %v", err)
	}

	want := []string{"page2", "page1", "cover"}
	got := c.Entries()
	if len(got) != len(want) {
		t.Fatalf("got entries %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entries[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if c.IsNovel() {
		t.Error("pre-paginated layout should not be classified as a novel")
	}

	img, err := c.Image("page1")
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if img.Width != 20 || img.Height != 30 {
		t.Errorf("got %dx%d, want 20x30", img.Width, img.Height)
	}
}

func TestEpubContainerFallbackOrder(t *testing.T) {
	opf := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata/>
  <manifest>
    <item id="img10" href="10.png" media-type="image/png"/>
    <item id="img2" href="2.png" media-type="image/png"/>
    <item id="chap1" href="chap1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="chap1"/>
  </spine>
</package>`

	path := writeTestEpub(t, opf, map[string][]byte{
		"OEBPS/10.png":      pngData(t, 10, 10),
		"OEBPS/2.png":       pngData(t, 10, 10),
		"OEBPS/chap1.xhtml": []byte(`<html><body><p>text only</p></body></html>`),
	})

	c, err := NewEpubContainer(path)
	if err != nil {
		t.Fatalf("NewEpubContainer failed: %v", err)
	}

	// No image appears in the spine, so IDs sort naturally.
	want := []string{"img2", "img10"}
	got := c.Entries()
	if len(got) != len(want) {
		t.Fatalf("got entries %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entries[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if !c.IsNovel() {
		t.Error("a book without layout metadata defaults to novel")
	}
}

func TestEpubContainerMissingEntry(t *testing.T) {
	opf := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata/>
  <manifest>
    <item id="page" href="page.png" media-type="image/png"/>
  </manifest>
  <spine/>
</package>`

	path := writeTestEpub(t, opf, map[string][]byte{
		"OEBPS/page.png": pngData(t, 10, 10),
	})

	c, err := NewEpubContainer(path)
	if err != nil {
		t.Fatalf("NewEpubContainer failed: %v", err)
	}

	if _, err := c.Image("nope"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("got error %v, want ErrEntryNotFound", err)
	}
	// Entries are manifest IDs, not archive paths.
	if _, err := c.Image("OEBPS/page.png"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("got error %v, want ErrEntryNotFound", err)
	}
}

func TestEpubContainerWithoutPackageDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.epub")
	writeZip(t, path, map[string][]byte{
		"mimetype": []byte("application/epub+zip"),
	})

	if _, err := NewEpubContainer(path); !errors.Is(err, ErrUnsupportedContainer) {
		t.Fatalf("got error %v, want ErrUnsupportedContainer", err)
	}
}
