// Package sheet places rendered cards at the tray slot positions of an A4
// sheet, corrected by a printer calibration profile.
package sheet

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/mburuwhiz/idmaker-sub000/internal/calibration"
	"github.com/mburuwhiz/idmaker-sub000/internal/design"
	"github.com/mburuwhiz/idmaker-sub000/internal/render"
	"github.com/mburuwhiz/idmaker-sub000/internal/units"
)

// Placement is a card's destination rectangle on the sheet in fractional
// pixels.
type Placement struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect rounds the placement to whole pixels.
func (p Placement) Rect() image.Rectangle {
	x := int(math.Round(p.X))
	y := int(math.Round(p.Y))
	return image.Rect(x, y, x+int(math.Round(p.Width)), y+int(math.Round(p.Height)))
}

// Slots returns the corrected placements of slot 1 and slot 2. The slot 2
// offset adds to the global Y offset.
func Slots(p calibration.Profile) (Placement, Placement) {
	w := float64(units.CardWidthPx) * p.ScaleX
	h := float64(units.CardHeightPx) * p.ScaleY
	x := units.MMToPx(units.Slot1XMM + p.OffsetX)

	first := Placement{X: x, Y: units.MMToPx(units.Slot1YMM + p.OffsetY), Width: w, Height: h}
	second := Placement{X: x, Y: units.MMToPx(units.Slot2YMM + p.OffsetY + p.Slot2YOffset), Width: w, Height: h}
	return first, second
}

// Side is one card of a sheet.
type Side struct {
	Record design.Record
	Photo  []byte
	// Adjustments overrides the record's _adjustments when set.
	Adjustments *design.Adjustments
}

func (s Side) adjustments() design.Adjustments {
	if s.Adjustments != nil {
		return s.Adjustments.Normalize()
	}
	return design.ResolveAdjustments(s.Record)
}

// Sheet is a rendered A4 page.
type Sheet struct {
	Image    *image.RGBA
	Warnings []string
}

// Compositor renders both cards of a sheet and places them.
type Compositor struct {
	renderer *render.Renderer
}

// New returns a Compositor drawing cards with r.
func New(r *render.Renderer) *Compositor {
	if r == nil {
		r = render.New()
	}
	return &Compositor{renderer: r}
}

// NewCanvas returns a white A4 canvas.
func NewCanvas() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, units.SheetWidthPx, units.SheetHeightPx))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

// RenderSheet renders first and, when present, second, and places them in
// slot 1 and slot 2. A nil second leaves slot 2 blank. The sheet render is not
// interrupted once started; ctx is checked before each card.
func (c *Compositor) RenderSheet(ctx context.Context, tmpl *design.Template, profile calibration.Profile, first Side, second *Side) (*Sheet, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	card1, err := c.renderer.RenderCard(ctx, tmpl, first.Record, first.Photo, first.adjustments())
	if err != nil {
		return nil, fmt.Errorf("failed to render card 1: %w", err)
	}
	warnings := prefix("card 1", card1.Warnings)

	var card2 *render.Card
	if second != nil {
		card2, err = c.renderer.RenderCard(ctx, tmpl, second.Record, second.Photo, second.adjustments())
		if err != nil {
			return nil, fmt.Errorf("failed to render card 2: %w", err)
		}
		warnings = append(warnings, prefix("card 2", card2.Warnings)...)
	}

	slot1, slot2 := Slots(profile)
	canvas := NewCanvas()
	Place(canvas, card1.Image, slot1)
	if card2 != nil {
		Place(canvas, card2.Image, slot2)
	}
	return &Sheet{Image: canvas, Warnings: warnings}, nil
}

// Place draws card into dst at p, scaling only when the size differs.
func Place(dst *image.RGBA, card image.Image, p Placement) {
	r := p.Rect()
	if r.Dx() == card.Bounds().Dx() && r.Dy() == card.Bounds().Dy() {
		draw.Draw(dst, r, card, card.Bounds().Min, draw.Src)
		return
	}
	draw.CatmullRom.Scale(dst, r, card, card.Bounds(), draw.Src, nil)
}

// RenderTestSheet outlines both slots as a profile would place them, for
// printing on plain paper and measuring against the tray.
func RenderTestSheet(profile calibration.Profile) (*image.RGBA, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	canvas := NewCanvas()
	dc := gg.NewContextForRGBA(canvas)
	dc.SetColor(color.Black)
	dc.SetLineWidth(2)

	slot1, slot2 := Slots(profile)
	for _, s := range []Placement{slot1, slot2} {
		dc.DrawRectangle(s.X, s.Y, s.Width, s.Height)
		dc.Stroke()
	}
	return canvas, nil
}

func prefix(label string, warnings []string) []string {
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, label+": "+w)
	}
	return out
}
