package sheet

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/mburuwhiz/idmaker-sub000/internal/calibration"
	"github.com/mburuwhiz/idmaker-sub000/internal/design"
	"github.com/mburuwhiz/idmaker-sub000/internal/render"
	"github.com/mburuwhiz/idmaker-sub000/internal/units"
)

var (
	white = color.RGBA{255, 255, 255, 255}
	red   = color.RGBA{255, 0, 0, 255}
)

// solidTemplate fills the whole card with red.
func solidTemplate() *design.Template {
	return &design.Template{Nodes: []design.Node{
		&design.ShapeNode{
			Base: design.Base{
				Width: float64(units.CardWidthPx), Height: float64(units.CardHeightPx),
				ScaleX: 1, ScaleY: 1, Opacity: 1, Fill: "#ff0000",
			},
			Shape: design.ShapeRect,
		},
	}}
}

func testProfile() calibration.Profile {
	return calibration.Profile{Name: "test", Slot2YOffset: 5, ScaleX: 1, ScaleY: 1}
}

func round(v float64) int { return int(math.Round(v)) }

func TestSlots(t *testing.T) {
	s1, s2 := Slots(calibration.Profile{OffsetX: 1, OffsetY: -2, Slot2YOffset: 3, ScaleX: 1.1, ScaleY: 0.9})

	if math.Abs(s1.X-units.MMToPx(32.8)) > 1e-9 || math.Abs(s1.Y-units.MMToPx(10.3)) > 1e-9 {
		t.Errorf("unexpected slot 1 origin %+v", s1)
	}
	if s2.X != s1.X {
		t.Errorf("expected slots to share X, got %f and %f", s1.X, s2.X)
	}
	wantY2 := units.MMToPx(12.3 + 54 + 31.5 - 2 + 3)
	if math.Abs(s2.Y-wantY2) > 1e-9 {
		t.Errorf("expected slot 2 Y %f, got %f", wantY2, s2.Y)
	}
	if math.Abs(s1.Width-float64(units.CardWidthPx)*1.1) > 1e-9 || math.Abs(s2.Height-float64(units.CardHeightPx)*0.9) > 1e-9 {
		t.Errorf("unexpected scaled size %fx%f", s1.Width, s2.Height)
	}
}

func TestRenderSheet_SlotPlacement(t *testing.T) {
	c := New(render.New())
	sh, err := c.RenderSheet(context.Background(), solidTemplate(), testProfile(),
		Side{Record: design.Record{"NAME": "A"}}, &Side{Record: design.Record{"NAME": "B"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := sh.Image.Bounds()
	if b.Dx() != units.SheetWidthPx || b.Dy() != units.SheetHeightPx {
		t.Fatalf("expected %dx%d sheet, got %dx%d", units.SheetWidthPx, units.SheetHeightPx, b.Dx(), b.Dy())
	}

	x := round(units.MMToPx(31.8))
	tests := []struct {
		name string
		y    int
	}{
		{"slot 1", round(units.MMToPx(12.3))},
		{"slot 2", round(units.MMToPx(12.3 + 54 + 31.5 + 5))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sh.Image.RGBAAt(x, tt.y); got != red {
				t.Errorf("expected card at (%d,%d), got %v", x, tt.y, got)
			}
			if got := sh.Image.RGBAAt(x-1, tt.y); got != white {
				t.Errorf("expected background left of card, got %v", got)
			}
			if got := sh.Image.RGBAAt(x, tt.y-1); got != white {
				t.Errorf("expected background above card, got %v", got)
			}
			end := image.Pt(x+units.CardWidthPx-1, tt.y+units.CardHeightPx-1)
			if got := sh.Image.RGBAAt(end.X, end.Y); got != red {
				t.Errorf("expected card bottom-right at %v, got %v", end, got)
			}
			if got := sh.Image.RGBAAt(end.X+1, end.Y+1); got != white {
				t.Errorf("expected background past card, got %v", got)
			}
		})
	}
}

func TestRenderSheet_MissingSecondRecord(t *testing.T) {
	c := New(nil)
	ctx := context.Background()
	first := Side{Record: design.Record{"NAME": "A"}}

	both, err := c.RenderSheet(ctx, solidTemplate(), testProfile(), first, &Side{Record: design.Record{"NAME": "B"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	single, err := c.RenderSheet(ctx, solidTemplate(), testProfile(), first, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	slot1, slot2 := Slots(testProfile())
	r1 := slot1.Rect()
	for y := r1.Min.Y; y < r1.Max.Y; y++ {
		a := both.Image.Pix[both.Image.PixOffset(r1.Min.X, y):both.Image.PixOffset(r1.Max.X, y)]
		b := single.Image.Pix[single.Image.PixOffset(r1.Min.X, y):single.Image.PixOffset(r1.Max.X, y)]
		if !bytes.Equal(a, b) {
			t.Fatalf("slot 1 differs at row %d", y)
		}
	}

	r2 := slot2.Rect()
	for y := r2.Min.Y; y < r2.Max.Y; y++ {
		for x := r2.Min.X; x < r2.Max.X; x++ {
			if got := single.Image.RGBAAt(x, y); got != white {
				t.Fatalf("expected blank slot 2, got %v at (%d,%d)", got, x, y)
			}
		}
	}
}

func TestRenderSheet_ScaledPlacement(t *testing.T) {
	p := calibration.Profile{Name: "scaled", ScaleX: 0.5, ScaleY: 0.5}
	sh, err := New(nil).RenderSheet(context.Background(), solidTemplate(), p, Side{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	slot1, _ := Slots(p)
	r := slot1.Rect()
	if r.Dx() != units.CardWidthPx/2 {
		t.Errorf("expected half-width placement, got %d", r.Dx())
	}
	mid := image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
	if got := sh.Image.RGBAAt(mid.X, mid.Y); got != red {
		t.Errorf("expected card at %v, got %v", mid, got)
	}
	if got := sh.Image.RGBAAt(r.Max.X+2, mid.Y); got != white {
		t.Errorf("expected background right of scaled card, got %v", got)
	}
}

func TestRenderSheet_InvalidProfile(t *testing.T) {
	_, err := New(nil).RenderSheet(context.Background(), solidTemplate(), calibration.Profile{ScaleX: 0, ScaleY: 1}, Side{}, nil)
	if err == nil {
		t.Error("expected validation error")
	}
}

func TestRenderTestSheet(t *testing.T) {
	img, err := RenderTestSheet(testProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	slot1, slot2 := Slots(testProfile())
	for _, s := range []Placement{slot1, slot2} {
		r := s.Rect()
		edge := img.RGBAAt((r.Min.X+r.Max.X)/2, r.Min.Y)
		if edge.R > 100 {
			t.Errorf("expected dark outline at top edge of %v, got %v", r, edge)
		}
		if c := img.RGBAAt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2); c != white {
			t.Errorf("expected empty slot interior, got %v", c)
		}
	}
}
