package capture

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

const defaultJPEGQuality = 80

type PhotoOptions struct {
	MaxWidth int // 0 keeps the frame size
	Quality  int // JPEG quality 1-100
}

// Photo is a frozen camera frame, JPEG encoded for transport.
type Photo struct {
	Data   []byte
	Width  int
	Height int
}

// DataURL renders the photo the way the backend stores it in photo_url.
func (p *Photo) DataURL() string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// EncodePhoto downscales img to opts.MaxWidth (keeping the aspect ratio) and
// encodes it as JPEG.
func EncodePhoto(img image.Image, opts PhotoOptions) (*Photo, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("encode photo: empty frame")
	}
	if opts.MaxWidth > 0 && img.Bounds().Dx() > opts.MaxWidth {
		img = imaging.Resize(img, opts.MaxWidth, 0, imaging.Lanczos)
	}
	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = defaultJPEGQuality
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	b := img.Bounds()
	return &Photo{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}
