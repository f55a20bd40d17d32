// Package smartcrop picks the sub-rectangle of a photo that best fits a
// target frame, and prepares the cropped photo for drawing.
package smartcrop

import (
	"errors"
	"fmt"
	"image"
	"log"
	"math"
)

// ErrInvalidTarget is returned when the target frame has no area.
var ErrInvalidTarget = errors.New("target width and height must be positive")

// Rect is a crop window in the source image's pixel space, relative to its
// bounds origin.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Image returns the rectangle as an image.Rectangle offset by origin.
func (r Rect) Image(origin image.Point) image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height).Add(origin)
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Cropper chooses a crop window of the target aspect ratio.
type Cropper interface {
	Crop(img image.Image, targetWidth, targetHeight int) (Rect, error)
}

// CropComputationError reports a failure of a crop heuristic.
type CropComputationError struct {
	Err error
}

func (e *CropComputationError) Error() string {
	return fmt.Sprintf("crop computation failed: %v", e.Err)
}

func (e *CropComputationError) Unwrap() error { return e.Err }

// CenterCrop returns the largest window of the target aspect ratio centred
// in a srcW x srcH image. Degenerate sources yield an empty Rect.
func CenterCrop(srcW, srcH, targetW, targetH int) Rect {
	if srcW <= 0 || srcH <= 0 || targetW <= 0 || targetH <= 0 {
		return Rect{}
	}
	w, h := windowSize(srcW, srcH, targetW, targetH)
	return Rect{X: (srcW - w) / 2, Y: (srcH - h) / 2, Width: w, Height: h}
}

// windowSize is the size of the largest target-aspect window inside the source.
func windowSize(srcW, srcH, targetW, targetH int) (int, int) {
	srcAspect := float64(srcW) / float64(srcH)
	aspect := float64(targetW) / float64(targetH)

	if srcAspect > aspect {
		h := srcH
		w := clampInt(int(math.Round(float64(h)*aspect)), 1, srcW)
		return w, h
	}
	w := srcW
	h := clampInt(int(math.Round(float64(w)/aspect)), 1, srcH)
	return w, h
}

// Fallback wraps a primary Cropper so that any failure, panic or degenerate
// result falls back to CenterCrop. Its Crop only fails on an invalid target.
type Fallback struct {
	Primary Cropper
}

// NewDefault returns the saliency cropper with center-crop fallback.
func NewDefault() *Fallback {
	return &Fallback{Primary: NewSaliency()}
}

// Crop implements Cropper.
func (f *Fallback) Crop(img image.Image, targetWidth, targetHeight int) (Rect, error) {
	if targetWidth <= 0 || targetHeight <= 0 {
		return Rect{}, ErrInvalidTarget
	}
	b := img.Bounds()
	center := CenterCrop(b.Dx(), b.Dy(), targetWidth, targetHeight)
	if center.Empty() || f.Primary == nil {
		return center, nil
	}

	r, err := f.tryPrimary(img, targetWidth, targetHeight)
	if err == nil && (r.Empty() || r.X < 0 || r.Y < 0 || r.X+r.Width > b.Dx() || r.Y+r.Height > b.Dy()) {
		err = &CropComputationError{Err: fmt.Errorf("window %+v outside %dx%d source", r, b.Dx(), b.Dy())}
	}
	if err != nil {
		log.Printf("WARNING: smart crop failed, using center crop: %v", err)
		return center, nil
	}
	return r, nil
}

func (f *Fallback) tryPrimary(img image.Image, w, h int) (r Rect, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &CropComputationError{Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	return f.Primary.Crop(img, w, h)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
