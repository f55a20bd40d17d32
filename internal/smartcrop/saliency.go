package smartcrop

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	muesli "github.com/muesli/smartcrop"
	"github.com/muesli/smartcrop/options"
)

// Saliency picks the window with the most edge detail, skin tone and
// saturation using the smartcrop analyzer, biased toward rule-of-thirds
// composition. The returned window is always the largest target-aspect
// rectangle in the source, centred on the analyzer's choice, so nothing is
// upsampled; only its position varies.
type Saliency struct {
	analyzer muesli.Analyzer
}

// NewSaliency returns a Saliency cropper.
func NewSaliency() *Saliency {
	return &Saliency{analyzer: muesli.NewAnalyzer(lanczosResizer{})}
}

// lanczosResizer lets the analyzer downscale with imaging. A zero width or
// height keeps the aspect ratio.
type lanczosResizer struct{}

var _ options.Resizer = lanczosResizer{}

func (lanczosResizer) Resize(img image.Image, width, height uint) image.Image {
	return imaging.Resize(img, int(width), int(height), imaging.Lanczos)
}

// Crop implements Cropper.
func (s *Saliency) Crop(img image.Image, targetWidth, targetHeight int) (Rect, error) {
	if targetWidth <= 0 || targetHeight <= 0 {
		return Rect{}, ErrInvalidTarget
	}
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	if srcW <= 0 || srcH <= 0 {
		return Rect{}, &CropComputationError{Err: errors.New("degenerate source image")}
	}

	cw, ch := windowSize(srcW, srcH, targetWidth, targetHeight)
	if cw == srcW && ch == srcH {
		return Rect{Width: cw, Height: ch}, nil
	}

	best, err := s.analyzer.FindBestCrop(img, targetWidth, targetHeight)
	if err != nil {
		return Rect{}, &CropComputationError{Err: err}
	}
	if best.Empty() {
		return Rect{}, &CropComputationError{Err: fmt.Errorf("analyzer returned empty window %v", best)}
	}

	// The analyzer works on a zero-origin copy and may return a window
	// smaller than the largest one; keep only its centre.
	cx := (best.Min.X + best.Max.X) / 2
	cy := (best.Min.Y + best.Max.Y) / 2
	return Rect{
		X:      clampInt(cx-cw/2, 0, srcW-cw),
		Y:      clampInt(cy-ch/2, 0, srcH-ch),
		Width:  cw,
		Height: ch,
	}, nil
}
