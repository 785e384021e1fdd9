// Package loader puts a thread-safe image cache and a background preload
// pipeline on top of any container.Container.
package loader

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/Rookro/RookReader/container"
)

// ImageLoader serves full-resolution images for one container, caching every
// loaded entry for the lifetime of the loader. The cache has no eviction: it
// is bounded by the container's entry count, which is assumed to fit in
// memory as resized images.
//
// All methods are safe for concurrent use.
type ImageLoader struct {
	source container.Container
	policy ResizePolicy

	mu    sync.RWMutex
	cache map[string]*container.Image

	// group collapses concurrent loads of the same entry into one decode.
	group singleflight.Group

	// sem bounds how many preload tasks decode at once.
	sem *semaphore.Weighted
	wg  sync.WaitGroup

	genMu  sync.Mutex
	cancel context.CancelFunc
}

// New creates an ImageLoader over source. The preload pool is sized to half
// the visible CPU count, minimum one worker.
func New(source container.Container, policy ResizePolicy) *ImageLoader {
	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}

	return &ImageLoader{
		source: source,
		policy: policy,
		cache:  make(map[string]*container.Image, len(source.Entries())),
		sem:    semaphore.NewWeighted(int64(workers)),
	}
}

// ImageFromCache returns the cached image for entry, or nil on a miss. It
// never touches the container.
func (l *ImageLoader) ImageFromCache(entry string) *container.Image {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache[entry]
}

// Image returns the image for entry, loading and caching it on a miss. The
// call blocks for the full decode and resize on a miss; cache hits return
// immediately.
func (l *ImageLoader) Image(entry string) (*container.Image, error) {
	if img := l.ImageFromCache(entry); img != nil {
		slog.Debug("Cache hit", "entry", entry)
		return img, nil
	}

	img, err := l.load(entry)
	if err != nil {
		return nil, err
	}
	l.store(entry, img)
	return img, nil
}

// PreviewImage returns an uncached thumbnail for entry. When the full image
// is already cached it returns nil instead, signalling that there is nothing
// cheaper to show than the cached image itself. Previews are never memoized;
// they are disposable and would otherwise pollute the full-image cache.
func (l *ImageLoader) PreviewImage(entry string) (*container.Image, error) {
	if img := l.ImageFromCache(entry); img != nil {
		return nil, nil
	}
	return l.source.Thumbnail(entry)
}

// RequestPreload schedules background loads for count entries starting at
// beginIndex, replacing any previous preload generation. Entries already
// cached are skipped at submission time. The call returns as soon as the
// tasks are submitted; load failures are logged and the entry is simply left
// out of the cache.
func (l *ImageLoader) RequestPreload(beginIndex, count int) {
	entries := l.source.Entries()
	end := beginIndex + count
	if end > len(entries) {
		end = len(entries)
	}
	if beginIndex < 0 || beginIndex >= end {
		return
	}

	ctx := l.nextGeneration()

	for _, entry := range entries[beginIndex:end] {
		if l.ImageFromCache(entry) != nil {
			continue
		}

		l.wg.Add(1)
		go func(entry string) {
			defer l.wg.Done()

			if err := l.sem.Acquire(ctx, 1); err != nil {
				// Generation cancelled before this task started.
				return
			}
			defer l.sem.Release(1)

			if ctx.Err() != nil {
				return
			}

			img, err := l.load(entry)
			if err != nil {
				slog.Warn("Failed to preload image", "entry", entry, "error", err)
				return
			}
			l.store(entry, img)
			slog.Debug("Preloaded", "entry", entry)
		}(entry)
	}
}

// CancelPreload cancels the current preload generation. Tasks that have not
// started skip themselves; a task already inside its decode finishes that
// one entry.
func (l *ImageLoader) CancelPreload() {
	l.genMu.Lock()
	defer l.genMu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
}

// Close cancels preloading and blocks until every outstanding task has
// finished, so the container is not touched after the loader is gone.
func (l *ImageLoader) Close() {
	l.CancelPreload()
	l.wg.Wait()
}

// nextGeneration cancels the previous preload token and installs a fresh
// one. Tasks capture the returned context by value, so replacing the field
// never affects work already scheduled against an older generation.
func (l *ImageLoader) nextGeneration() context.Context {
	l.genMu.Lock()
	defer l.genMu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	return ctx
}

// load fetches entry from the container and applies the resize policy.
// Concurrent loads of the same entry share one result.
func (l *ImageLoader) load(entry string) (*container.Image, error) {
	v, err, _ := l.group.Do(entry, func() (any, error) {
		img, err := l.source.Image(entry)
		if err != nil {
			return nil, err
		}
		return l.policy.Apply(entry, img)
	})
	if err != nil {
		return nil, err
	}
	return v.(*container.Image), nil
}

func (l *ImageLoader) store(entry string, img *container.Image) {
	l.mu.Lock()
	l.cache[entry] = img
	l.mu.Unlock()
}
