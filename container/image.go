package container

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Image is a decoded (or re-encoded) raster image: the encoded bytes plus the
// dimensions they decode to. Treat values as immutable once constructed.
type Image struct {
	Data   []byte `json:"data"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// NewImage constructs an Image from encoded bytes, probing the dimensions
// from the image header.
func NewImage(data []byte) (*Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image size: %w", err)
	}
	return &Image{
		Data:   data,
		Width:  uint32(cfg.Width),
		Height: uint32(cfg.Height),
	}, nil
}

// IsSupportedImageFormat reports whether the filename has an image extension
// the reader can display. The set follows the formats a browser <img> tag
// accepts, minus AVIF, which the decoders here do not handle. The check is
// case-insensitive.
func IsSupportedImageFormat(filename string) bool {
	name := strings.ToLower(filename)
	for _, ext := range []string{
		".apng", ".gif", ".jpg", ".jpeg", ".jpe", ".jif", ".jfif",
		".png", ".svg", ".webp",
	} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// thumbnailJPEGQuality keeps previews small and cheap to encode.
const thumbnailJPEGQuality = 10

// makeThumbnail decodes encoded image bytes and re-encodes them as a
// low-quality JPEG bounded by ThumbnailSize on both axes, preserving aspect
// ratio. Images already inside the bound keep their dimensions.
func makeThumbnail(data []byte) (*Image, error) {
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Fit(src, ThumbnailSize, ThumbnailSize, imaging.Linear)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(thumbnailJPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	bounds := thumb.Bounds()
	return &Image{
		Data:   buf.Bytes(),
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}
