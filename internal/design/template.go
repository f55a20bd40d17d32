// Package design holds the card template model: a named, ordered list of
// drawable nodes in card pixel space, plus the per-record data that is merged
// into it at render time.
package design

// Kind identifies a node variant.
type Kind string

// Node kinds.
const (
	KindText       Kind = "text"
	KindShape      Kind = "shape"
	KindImage      Kind = "image"
	KindPhotoFrame Kind = "photoFrame"
)

// ShapeType selects the geometry of a ShapeNode.
type ShapeType string

// Shape types.
const (
	ShapeRect ShapeType = "rect"
	ShapeLine ShapeType = "line"
)

// DefaultPhotoLabel is the design-time caption drawn inside an empty photo frame.
const DefaultPhotoLabel = "PHOTO"

// Template is a card design. Node order is stacking order (first drawn first).
type Template struct {
	Name string
	// Background is an editing-canvas colour only; it is never printed.
	Background string
	Nodes      []Node
}

// Node is one of *TextNode, *ShapeNode, *ImageNode or *PhotoFrameNode.
type Node interface {
	Kind() Kind
	Common() *Base
}

// Base holds the geometry and paint shared by every node kind.
type Base struct {
	Left        float64
	Top         float64
	Width       float64
	Height      float64
	ScaleX      float64
	ScaleY      float64
	Opacity     float64
	Fill        string
	Stroke      string
	StrokeWidth float64
	Hidden      bool
}

// Common returns the shared node fields.
func (b *Base) Common() *Base { return b }

// VisualWidth is the on-card width after scaling.
func (b *Base) VisualWidth() float64 { return b.Width * b.ScaleX }

// VisualHeight is the on-card height after scaling.
func (b *Base) VisualHeight() float64 { return b.Height * b.ScaleY }

// Font describes the typeface of a TextNode.
type Font struct {
	Family string
	Size   float64
	Weight string // "normal", "bold" or a numeric CSS weight
	Style  string // "normal" or "italic"
}

// Bold reports whether the weight selects a bold face.
func (f Font) Bold() bool {
	switch f.Weight {
	case "bold", "bolder", "600", "700", "800", "900":
		return true
	}
	return false
}

// Italic reports whether the style selects an italic face.
func (f Font) Italic() bool {
	return f.Style == "italic" || f.Style == "oblique"
}

// TextNode is a block of text. Text may contain {{FIELD}} tokens.
type TextNode struct {
	Base
	Text       string
	Font       Font
	Underline  bool
	TextAlign  string
	LineHeight float64
	// Placeholder nodes turn red when a token cannot be resolved.
	Placeholder bool
}

// Kind implements Node.
func (*TextNode) Kind() Kind { return KindText }

// ShapeNode is a rectangle or a line.
type ShapeNode struct {
	Base
	Shape  ShapeType
	RX, RY float64
	// Line end points, relative to Left/Top.
	X1, Y1, X2, Y2 float64
}

// Kind implements Node.
func (*ShapeNode) Kind() Kind { return KindShape }

// ImageNode is a static bitmap embedded in the template.
type ImageNode struct {
	Base
	// Src is a data URL or bare base64 payload.
	Src string
}

// Kind implements Node.
func (*ImageNode) Kind() Kind { return KindImage }

// PhotoFrameNode reserves a region for the record's portrait. Fill, Stroke and
// RX describe the empty-frame background; Label is never printed.
type PhotoFrameNode struct {
	Base
	RX    float64
	Label string
}

// Kind implements Node.
func (*PhotoFrameNode) Kind() Kind { return KindPhotoFrame }

// PhotoFrames returns the photo frame nodes in stacking order.
func (t *Template) PhotoFrames() []*PhotoFrameNode {
	var frames []*PhotoFrameNode
	for _, n := range t.Nodes {
		if f, ok := n.(*PhotoFrameNode); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

// Fields returns the distinct {{FIELD}} keys referenced by text nodes, in
// first-seen order.
func (t *Template) Fields() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, n := range t.Nodes {
		tn, ok := n.(*TextNode)
		if !ok {
			continue
		}
		for _, k := range Tokens(tn.Text) {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}
