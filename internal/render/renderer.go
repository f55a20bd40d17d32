// Package render rasterizes a card template with one record's data and photo
// onto a white CR80 canvas.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/mburuwhiz/idmaker-sub000/internal/design"
	"github.com/mburuwhiz/idmaker-sub000/internal/smartcrop"
	"github.com/mburuwhiz/idmaker-sub000/internal/units"
)

// ErrNoTemplate is returned when RenderCard is called without a template.
var ErrNoTemplate = errors.New("no template")

// Card is a rendered card. The image is owned by the caller and is not
// touched again by the renderer.
type Card struct {
	Image    *image.RGBA
	Warnings []string
}

// Renderer draws cards. It holds no per-render state and is safe for
// concurrent use.
type Renderer struct {
	fonts   *FontRegistry
	cropper smartcrop.Cropper
	quality int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFonts sets the font registry.
func WithFonts(f *FontRegistry) Option {
	return func(r *Renderer) { r.fonts = f }
}

// WithCropper replaces the smart cropper.
func WithCropper(c smartcrop.Cropper) Option {
	return func(r *Renderer) { r.cropper = c }
}

// WithPhotoQuality sets the JPEG quality used when re-encoding cropped photos.
func WithPhotoQuality(q int) Option {
	return func(r *Renderer) { r.quality = q }
}

// New creates a Renderer. Without options it uses the Go fonts, the saliency
// cropper with center-crop fallback and photo quality 95.
func New(opts ...Option) *Renderer {
	r := &Renderer{quality: smartcrop.DefaultQuality}
	for _, o := range opts {
		o(r)
	}
	if r.fonts == nil {
		r.fonts = NewFontRegistry()
	}
	if r.cropper == nil {
		r.cropper = smartcrop.NewDefault()
	}
	return r
}

// Fonts returns the renderer's font registry.
func (r *Renderer) Fonts() *FontRegistry { return r.fonts }

// renderState is the scratch state of one RenderCard call.
type renderState struct {
	rec         design.Record
	photo       []byte
	adj         design.Adjustments
	photos      map[image.Point]image.Image
	warnings    []string
	fontsWarned map[string]bool
}

func (s *renderState) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("WARNING: %s", msg)
	s.warnings = append(s.warnings, msg)
}

// RenderCard draws tmpl for one record. photo may be nil. The template is
// only read. Photo and font problems degrade the card and are reported in
// Card.Warnings rather than failing the render.
func (r *Renderer) RenderCard(ctx context.Context, tmpl *design.Template, rec design.Record, photo []byte, adj design.Adjustments) (*Card, error) {
	if tmpl == nil {
		return nil, ErrNoTemplate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	canvas := image.NewRGBA(image.Rect(0, 0, units.CardWidthPx, units.CardHeightPx))
	dc := gg.NewContextForRGBA(canvas)
	dc.SetColor(color.White)
	dc.Clear()

	st := &renderState{
		rec:         rec,
		photo:       photo,
		adj:         adj.Normalize(),
		photos:      make(map[image.Point]image.Image),
		fontsWarned: make(map[string]bool),
	}
	if len(photo) > 0 && len(tmpl.PhotoFrames()) == 0 {
		st.warn("template has no photo frame, photo not used")
	}

	for i, n := range tmpl.Nodes {
		b := n.Common()
		if b.Hidden || b.Opacity <= 0 {
			continue
		}
		if f, ok := n.(*design.PhotoFrameNode); ok {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r.resolvePhoto(f, i, st)
		}

		if b.Opacity >= 1 {
			r.drawNode(dc, n, i, st)
			continue
		}
		layerImg := image.NewRGBA(canvas.Bounds())
		r.drawNode(gg.NewContextForRGBA(layerImg), n, i, st)
		composite(canvas, layerImg, b.Opacity)
	}

	return &Card{Image: canvas, Warnings: st.warnings}, nil
}

// RenderDocument decodes a serialized template and renders it. Each call works
// on its own freshly decoded node list.
func (r *Renderer) RenderDocument(ctx context.Context, doc []byte, rec design.Record, photo []byte) (*Card, error) {
	tmpl, err := design.Decode(doc)
	if err != nil {
		return nil, err
	}
	return r.RenderCard(ctx, tmpl, rec, photo, design.ResolveAdjustments(rec))
}

func (r *Renderer) drawNode(dc *gg.Context, n design.Node, index int, st *renderState) {
	switch v := n.(type) {
	case *design.TextNode:
		r.drawText(dc, v, index, st)
	case *design.ShapeNode:
		r.drawShape(dc, v, index, st)
	case *design.ImageNode:
		r.drawImage(dc, v, index, st)
	case *design.PhotoFrameNode:
		r.drawPhotoFrame(dc, v, index, st)
	}
}

// resolvePhoto crops the record photo for the frame's visual size. Results
// are shared between frames of the same size.
func (r *Renderer) resolvePhoto(f *design.PhotoFrameNode, index int, st *renderState) {
	if len(st.photo) == 0 {
		st.warn("no photo for frame %d, leaving it empty", index)
		return
	}
	size := image.Pt(roundDim(f.VisualWidth()), roundDim(f.VisualHeight()))
	if _, ok := st.photos[size]; ok {
		return
	}

	processed, err := smartcrop.Process(st.photo, size.X, size.Y, r.cropper, r.quality)
	if err != nil {
		st.warn("failed to place photo in frame %d: %v", index, err)
		st.photos[size] = nil
		return
	}
	img, err := smartcrop.Decode(processed.JPEG)
	if err != nil {
		st.warn("failed to place photo in frame %d: %v", index, err)
		st.photos[size] = nil
		return
	}
	st.photos[size] = img
}

func composite(dst *image.RGBA, layer image.Image, opacity float64) {
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(clamp01(opacity) * 255))})
	xdraw.DrawMask(dst, dst.Bounds(), layer, image.Point{}, mask, image.Point{}, xdraw.Over)
}

func roundDim(v float64) int {
	return max(1, int(math.Round(v)))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
