package smartcrop

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/mburuwhiz/idmaker-sub000/internal/constants"
)

// DefaultQuality is the JPEG quality used to re-encode cropped photos.
const DefaultQuality = constants.PhotoJPEGQuality

// PhotoDecodeError reports photo bytes that could not be decoded.
type PhotoDecodeError struct {
	Err error
}

func (e *PhotoDecodeError) Error() string {
	return fmt.Sprintf("failed to decode photo: %v", e.Err)
}

func (e *PhotoDecodeError) Unwrap() error { return e.Err }

// Decode reads a JPEG, PNG, GIF, BMP, TIFF or WebP photo, applying any EXIF
// orientation.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &PhotoDecodeError{Err: errors.New("no data")}
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &PhotoDecodeError{Err: err}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &PhotoDecodeError{Err: errors.New("image has no pixels")}
	}
	return img, nil
}

// Processed is a photo cropped and scaled to a frame.
type Processed struct {
	JPEG []byte
	Crop Rect
}

// Process decodes a photo, crops it with c and scales the window to exactly
// width x height, re-encoded as JPEG at the given quality.
func Process(data []byte, width, height int, c Cropper, quality int) (*Processed, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidTarget
	}
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = NewDefault()
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	r, err := c.Crop(img, width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to compute crop: %w", err)
	}
	cropped := imaging.Crop(img, r.Image(img.Bounds().Min))
	scaled := imaging.Resize(cropped, width, height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, scaled, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode cropped photo: %w", err)
	}
	return &Processed{JPEG: buf.Bytes(), Crop: r}, nil
}
