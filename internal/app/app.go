// Package app holds the mutable application state: the currently open
// container, its image loader, and the rendering settings both were
// constructed with.
package app

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Rookro/RookReader/container"
	"github.com/Rookro/RookReader/loader"
)

// ErrNoContainer is returned when an operation needs an open container but
// none has been opened yet.
var ErrNoContainer = errors.New("no container is open")

// Settings are the rendering parameters applied when a container is opened.
// They are fixed for the lifetime of that container; changing them takes
// effect on the next open.
type Settings struct {
	// EnablePreview switches the preview endpoint on.
	EnablePreview bool
	// MaxImageHeight caps loaded images; zero means unlimited.
	MaxImageHeight uint32
	// ImageResizeMethod names the resampling filter (see loader.ParseFilter).
	ImageResizeMethod string
	// PDFRenderingHeight is the pixel height PDF pages are rendered at.
	PDFRenderingHeight int
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		EnablePreview:      true,
		MaxImageHeight:     0,
		ImageResizeMethod:  "triangle",
		PDFRenderingHeight: container.DefaultPDFRenderHeight,
	}
}

// OpenResult describes a freshly opened container.
type OpenResult struct {
	Entries     []string `json:"entries"`
	IsDirectory bool     `json:"isDirectory"`
	// IsNovel is the EPUB novel heuristic; always false for other variants.
	IsNovel bool `json:"isNovel"`
}

// State is the single open container plus its loader. All methods are safe
// for concurrent use.
type State struct {
	settings Settings

	mu     sync.Mutex
	loader *loader.ImageLoader
	source container.Container
}

// NewState creates an empty State with the given settings.
func NewState(settings Settings) *State {
	return &State{settings: settings}
}

// Settings returns the rendering settings the state was built with.
func (s *State) Settings() Settings {
	return s.settings
}

// Open replaces the current container with the one at path and immediately
// requests a preload of its entire entry range. On failure the previously
// open container stays untouched. The previous loader is drained before its
// container is released.
func (s *State) Open(path string) (*OpenResult, error) {
	source, err := container.Open(path, container.Options{
		PDFRenderHeight: s.settings.PDFRenderingHeight,
	})
	if err != nil {
		return nil, fmt.Errorf("open container %s: %w", path, err)
	}

	next := loader.New(source, loader.ResizePolicy{
		MaxHeight: s.settings.MaxImageHeight,
		Filter:    loader.ParseFilter(s.settings.ImageResizeMethod),
	})

	s.mu.Lock()
	prev := s.loader
	s.loader = next
	s.source = source
	s.mu.Unlock()

	if prev != nil {
		prev.Close()
	}

	entries := source.Entries()
	next.RequestPreload(0, len(entries))

	result := &OpenResult{
		Entries:     entries,
		IsDirectory: source.IsDirectory(),
	}
	if epub, ok := source.(*container.EpubContainer); ok {
		result.IsNovel = epub.IsNovel()
	}
	return result, nil
}

// Loader returns the loader for the open container.
func (s *State) Loader() (*loader.ImageLoader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loader == nil {
		return nil, ErrNoContainer
	}
	return s.loader, nil
}

// Close releases the open container, draining its loader first.
func (s *State) Close() {
	s.mu.Lock()
	prev := s.loader
	s.loader = nil
	s.source = nil
	s.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
}
