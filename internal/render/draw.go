package render

import (
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/mburuwhiz/idmaker-sub000/internal/design"
	"github.com/mburuwhiz/idmaker-sub000/internal/smartcrop"
)

// paint parses a node colour. ok is false for empty or fully transparent
// colours, and for unparseable ones (with a warning).
func paint(s string, index int, st *renderState) (color.NRGBA, bool) {
	if strings.TrimSpace(s) == "" {
		return color.NRGBA{}, false
	}
	c, err := design.ParseColor(s)
	if err != nil {
		st.warn("node %d: %v", index, err)
		return color.NRGBA{}, false
	}
	return c, c.A > 0
}

func (r *Renderer) drawText(dc *gg.Context, n *design.TextNode, index int, st *renderState) {
	sub := design.Substitute(n.Text, st.rec)
	fill := n.Fill
	if n.Placeholder && !sub.Complete() {
		fill = design.MissingFill
	}
	fillColor, ok := paint(fill, index, st)
	if !ok && fill == "" {
		fillColor, ok = color.NRGBA{A: 255}, true
	}

	face, found := r.fonts.Face(n.Font, n.Font.Size)
	if !found && !st.fontsWarned[n.Font.Family] {
		st.fontsWarned[n.Font.Family] = true
		st.warn("font %q unavailable, using %s", n.Font.Family, FallbackFamily)
	}
	dc.SetFontFace(face)

	var lines []string
	if n.Width > 0 {
		lines = dc.WordWrap(sub.Text, n.Width)
	} else {
		lines = strings.Split(sub.Text, "\n")
	}
	boxW := n.Width
	if boxW <= 0 {
		for _, l := range lines {
			w, _ := dc.MeasureString(l)
			boxW = math.Max(boxW, w)
		}
	}

	ax := 0.0
	switch n.TextAlign {
	case "center":
		ax = 0.5
	case "right":
		ax = 1
	}
	ascent := float64(face.Metrics().Ascent) / 64
	lineH := n.Font.Size * n.LineHeight

	dc.Push()
	defer dc.Pop()
	dc.Translate(n.Left, n.Top)
	dc.Scale(n.ScaleX, n.ScaleY)

	strokeColor, stroked := paint(n.Stroke, index, st)
	stroked = stroked && n.StrokeWidth > 0

	for i, line := range lines {
		x := boxW * ax
		y := ascent + float64(i)*lineH

		if stroked {
			dc.SetColor(strokeColor)
			rad := n.StrokeWidth / 2
			for k := range 8 {
				a := float64(k) * math.Pi / 4
				dc.DrawStringAnchored(line, x+rad*math.Cos(a), y+rad*math.Sin(a), ax, 0)
			}
		}
		if !ok {
			continue
		}
		dc.SetColor(fillColor)
		dc.DrawStringAnchored(line, x, y, ax, 0)

		if n.Underline {
			w, _ := dc.MeasureString(line)
			thick := math.Max(1, n.Font.Size/15)
			dc.DrawRectangle(x-ax*w, y+n.Font.Size*0.1, w, thick)
			dc.Fill()
		}
	}
}

func (r *Renderer) drawShape(dc *gg.Context, n *design.ShapeNode, index int, st *renderState) {
	dc.Push()
	defer dc.Pop()
	dc.Translate(n.Left, n.Top)
	dc.Scale(n.ScaleX, n.ScaleY)

	switch n.Shape {
	case design.ShapeLine:
		c, ok := paint(n.Stroke, index, st)
		if n.Stroke == "" {
			c, ok = color.NRGBA{A: 255}, true
		}
		if !ok {
			return
		}
		width := n.StrokeWidth
		if width <= 0 {
			width = 1
		}
		dc.SetColor(c)
		dc.SetLineWidth(width)
		dc.DrawLine(n.X1, n.Y1, n.X2, n.Y2)
		dc.Stroke()
	default:
		fillRoundedRect(dc, n.Common(), math.Max(n.RX, n.RY), index, st)
	}
}

// fillRoundedRect paints a node's box in local coordinates.
func fillRoundedRect(dc *gg.Context, b *design.Base, radius float64, index int, st *renderState) {
	path := func() {
		if radius > 0 {
			dc.DrawRoundedRectangle(0, 0, b.Width, b.Height, radius)
		} else {
			dc.DrawRectangle(0, 0, b.Width, b.Height)
		}
	}
	if c, ok := paint(b.Fill, index, st); ok {
		path()
		dc.SetColor(c)
		dc.Fill()
	}
	if c, ok := paint(b.Stroke, index, st); ok && b.StrokeWidth > 0 {
		path()
		dc.SetColor(c)
		dc.SetLineWidth(b.StrokeWidth)
		dc.Stroke()
	}
}

func (r *Renderer) drawImage(dc *gg.Context, n *design.ImageNode, index int, st *renderState) {
	data, err := decodeSrc(n.Src)
	if err != nil {
		st.warn("node %d: failed to decode image source: %v", index, err)
		return
	}
	img, err := smartcrop.Decode(data)
	if err != nil {
		st.warn("node %d: %v", index, err)
		return
	}
	w, h := n.VisualWidth(), n.VisualHeight()
	if n.Width <= 0 || n.Height <= 0 {
		b := img.Bounds()
		w, h = float64(b.Dx())*n.ScaleX, float64(b.Dy())*n.ScaleY
	}
	if w <= 0 || h <= 0 {
		return
	}
	card := image.Rect(0, 0, dc.Width(), dc.Height())
	if err := drawScaled(dc, img, n.Left, n.Top, w, h, card); err != nil {
		st.warn("node %d: %v", index, err)
	}
}

// decodeSrc accepts a data URL or a bare base64 payload.
func decodeSrc(src string) ([]byte, error) {
	if strings.HasPrefix(src, "data:") {
		if i := strings.IndexByte(src, ','); i >= 0 {
			src = src[i+1:]
		}
	}
	src = strings.TrimSpace(src)
	data, err := base64.StdEncoding.DecodeString(src)
	if err != nil {
		if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(src, "=")); rawErr == nil {
			return raw, nil
		}
		return nil, err
	}
	return data, nil
}

// drawPhotoFrame draws the resolved photo clipped to the frame's visual
// bounds, or the empty frame background when there is no usable photo. The
// frame label is never drawn.
func (r *Renderer) drawPhotoFrame(dc *gg.Context, f *design.PhotoFrameNode, index int, st *renderState) {
	vw, vh := f.VisualWidth(), f.VisualHeight()
	photo := st.photos[image.Pt(roundDim(vw), roundDim(vh))]
	if photo == nil {
		dc.Push()
		dc.Translate(f.Left, f.Top)
		dc.Scale(f.ScaleX, f.ScaleY)
		fillRoundedRect(dc, f.Common(), f.RX, index, st)
		dc.Pop()
		return
	}

	zoom := st.adj.Zoom
	sw, sh := vw*zoom, vh*zoom
	px := f.Left + (vw-sw)/2 + st.adj.OffsetX
	py := f.Top + (vh-sh)/2 + st.adj.OffsetY

	frame := image.Rect(
		int(math.Round(f.Left)), int(math.Round(f.Top)),
		int(math.Round(f.Left+vw)), int(math.Round(f.Top+vh)),
	)
	if err := drawScaled(dc, photo, px, py, sw, sh, frame); err != nil {
		st.warn("node %d: %v", index, err)
	}
}

// drawScaled draws img stretched to w x h at (x, y), restricted to clip.
// Only the visible part is rasterised, so the cost is bounded by the clip
// area however large the scaled image would be.
func drawScaled(dc *gg.Context, img image.Image, x, y, w, h float64, clip image.Rectangle) error {
	canvas, ok := dc.Image().(*image.RGBA)
	if !ok {
		return fmt.Errorf("unsupported canvas type %T", dc.Image())
	}
	visible := image.Rect(
		int(math.Round(x)), int(math.Round(y)),
		int(math.Round(x+w)), int(math.Round(y+h)),
	).Intersect(clip).Intersect(canvas.Bounds())
	if visible.Empty() {
		return nil
	}

	b := img.Bounds()
	kx, ky := w/float64(b.Dx()), h/float64(b.Dy())
	s2d := f64.Aff3{
		kx, 0, x - kx*float64(b.Min.X),
		0, ky, y - ky*float64(b.Min.Y),
	}
	dst := canvas.SubImage(visible).(*image.RGBA)
	xdraw.CatmullRom.Transform(dst, s2d, img, b, xdraw.Over, nil)
	return nil
}
