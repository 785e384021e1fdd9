package loader

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/Rookro/RookReader/container"
)

// Filter selects the resampling kernel used when images are scaled down.
type Filter int

const (
	// Nearest is nearest-neighbor sampling: fastest, blockiest.
	Nearest Filter = iota
	// Triangle is linear interpolation, the default.
	Triangle
	// CatmullRom is a sharp cubic kernel.
	CatmullRom
	// Gaussian blurs slightly while resizing.
	Gaussian
	// Lanczos3 is a high-quality windowed sinc kernel.
	Lanczos3
)

// ParseFilter maps a configuration name onto a Filter. Unknown names fall
// back to Triangle.
func ParseFilter(name string) Filter {
	switch strings.ToLower(name) {
	case "nearest":
		return Nearest
	case "triangle":
		return Triangle
	case "catmull-rom", "catmullrom":
		return CatmullRom
	case "gaussian":
		return Gaussian
	case "lanczos3", "lanczos":
		return Lanczos3
	default:
		return Triangle
	}
}

func (f Filter) String() string {
	switch f {
	case Nearest:
		return "nearest"
	case CatmullRom:
		return "catmull-rom"
	case Gaussian:
		return "gaussian"
	case Lanczos3:
		return "lanczos3"
	default:
		return "triangle"
	}
}

func (f Filter) resampleFilter() imaging.ResampleFilter {
	switch f {
	case Nearest:
		return imaging.NearestNeighbor
	case CatmullRom:
		return imaging.CatmullRom
	case Gaussian:
		return imaging.Gaussian
	case Lanczos3:
		return imaging.Lanczos
	default:
		return imaging.Linear
	}
}

// resizedJPEGQuality is the encode quality applied after a resize.
const resizedJPEGQuality = 80

// ResizePolicy caps loaded images at a maximum height. It is fixed at loader
// construction and applied uniformly to every loaded image.
type ResizePolicy struct {
	// MaxHeight is the height bound in pixels. Zero means unlimited.
	MaxHeight uint32
	// Filter is the resampling kernel for downscales.
	Filter Filter
}

// Apply scales img down to the policy's height bound, preserving aspect
// ratio and re-encoding as JPEG. Images already within bounds (or an
// unlimited policy) pass through untouched.
func (p ResizePolicy) Apply(entry string, img *container.Image) (*container.Image, error) {
	if p.MaxHeight == 0 || img.Height <= p.MaxHeight {
		return img, nil
	}

	slog.Debug("Resizing image",
		"entry", entry,
		"height", img.Height,
		"max_height", p.MaxHeight,
		"filter", p.Filter.String())

	src, err := imaging.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", entry, err)
	}

	scaled := imaging.Resize(src, 0, int(p.MaxHeight), p.Filter.resampleFilter())

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, scaled, imaging.JPEG, imaging.JPEGQuality(resizedJPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode resized image %s: %w", entry, err)
	}

	bounds := scaled.Bounds()
	return &container.Image{
		Data:   buf.Bytes(),
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}
