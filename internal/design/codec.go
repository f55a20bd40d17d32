package design

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Version is the current template document version.
const Version = 1

// Defaults applied when a document omits a value.
const (
	DefaultLineHeight = 1.16
	DefaultFontFamily = "Arial"
	DefaultFontSize   = 24.0

	DefaultFrameFill   = "#f3f4f6"
	DefaultFrameStroke = "#9ca3af"
)

// document is the serialized form. Legacy editor exports use "objects" and
// "backgroundColor" instead of "nodes" and "background".
type document struct {
	Version         int        `json:"version,omitempty"`
	Name            string     `json:"name,omitempty"`
	Background      string     `json:"background,omitempty"`
	BackgroundColor string     `json:"backgroundColor,omitempty"`
	Nodes           []wireNode `json:"nodes,omitempty"`
	Objects         []wireNode `json:"objects,omitempty"`
}

type wireNode struct {
	Kind string `json:"kind,omitempty"`
	Type string `json:"type,omitempty"`

	Left        float64  `json:"left"`
	Top         float64  `json:"top"`
	Width       float64  `json:"width"`
	Height      float64  `json:"height"`
	ScaleX      *float64 `json:"scaleX,omitempty"`
	ScaleY      *float64 `json:"scaleY,omitempty"`
	Opacity     *float64 `json:"opacity,omitempty"`
	Visible     *bool    `json:"visible,omitempty"`
	Fill        any      `json:"fill,omitempty"`
	Stroke      string   `json:"stroke,omitempty"`
	StrokeWidth float64  `json:"strokeWidth,omitempty"`
	OriginX     string   `json:"originX,omitempty"`
	OriginY     string   `json:"originY,omitempty"`

	Text        string     `json:"text,omitempty"`
	FontFamily  string     `json:"fontFamily,omitempty"`
	FontSize    float64    `json:"fontSize,omitempty"`
	FontWeight  flexString `json:"fontWeight,omitempty"`
	FontStyle   string     `json:"fontStyle,omitempty"`
	Underline   bool       `json:"underline,omitempty"`
	TextAlign   string     `json:"textAlign,omitempty"`
	LineHeight  float64    `json:"lineHeight,omitempty"`
	Placeholder bool       `json:"placeholder,omitempty"`

	Shape string  `json:"shape,omitempty"`
	RX    float64 `json:"rx,omitempty"`
	RY    float64 `json:"ry,omitempty"`
	X1    float64 `json:"x1,omitempty"`
	Y1    float64 `json:"y1,omitempty"`
	X2    float64 `json:"x2,omitempty"`
	Y2    float64 `json:"y2,omitempty"`

	Src   string `json:"src,omitempty"`
	Label string `json:"label,omitempty"`

	// Legacy editor flags and group children.
	IsPlaceholder      bool       `json:"isPlaceholder,omitempty"`
	IsPhotoPlaceholder bool       `json:"isPhotoPlaceholder,omitempty"`
	IsPhotoFrame       bool       `json:"isPhotoFrame,omitempty"`
	Objects            []wireNode `json:"objects,omitempty"`
}

// flexString accepts either a JSON string or a JSON number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

// Decode parses a serialized template. The result is a fresh node list that
// shares nothing with any previous decode.
func Decode(data []byte) (*Template, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, &TemplateDecodeError{Node: -1, Err: errors.New("empty document")}
	}

	// Templates are sometimes stored as a JSON string holding the document.
	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, &TemplateDecodeError{Node: -1, Err: err}
		}
		data = []byte(inner)
	}

	var doc document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, &TemplateDecodeError{Node: -1, Err: err}
	}
	if doc.Version > Version {
		return nil, decodeErr(-1, "unsupported template version %d", doc.Version)
	}

	t := &Template{Name: doc.Name, Background: doc.Background}
	if t.Background == "" {
		t.Background = doc.BackgroundColor
	}

	wire := doc.Nodes
	legacy := false
	if len(wire) == 0 && len(doc.Objects) > 0 {
		wire = doc.Objects
		legacy = true
	}

	t.Nodes = make([]Node, 0, len(wire))
	for i := range wire {
		var (
			n   Node
			err error
		)
		if legacy || wire[i].Kind == "" {
			n, err = fromLegacy(i, &wire[i])
		} else {
			n, err = fromWire(i, &wire[i])
		}
		if err != nil {
			return nil, err
		}
		t.Nodes = append(t.Nodes, n)
	}
	return t, nil
}

// DecodeString parses a template stored as text.
func DecodeString(s string) (*Template, error) {
	return Decode([]byte(s))
}

// Encode serializes the template in canonical form.
func (t *Template) Encode() ([]byte, error) {
	doc := document{
		Version:    Version,
		Name:       t.Name,
		Background: t.Background,
		Nodes:      make([]wireNode, 0, len(t.Nodes)),
	}
	for i, n := range t.Nodes {
		w, err := toWire(n)
		if err != nil {
			return nil, fmt.Errorf("failed to encode node %d: %w", i, err)
		}
		doc.Nodes = append(doc.Nodes, w)
	}
	return json.Marshal(doc)
}

func baseFromWire(w *wireNode) Base {
	b := Base{
		Left:        w.Left,
		Top:         w.Top,
		Width:       w.Width,
		Height:      w.Height,
		ScaleX:      1,
		ScaleY:      1,
		Opacity:     1,
		Fill:        fillString(w.Fill),
		Stroke:      w.Stroke,
		StrokeWidth: w.StrokeWidth,
	}
	if w.ScaleX != nil {
		b.ScaleX = *w.ScaleX
	}
	if w.ScaleY != nil {
		b.ScaleY = *w.ScaleY
	}
	if w.Opacity != nil {
		b.Opacity = *w.Opacity
	}
	if w.Visible != nil {
		b.Hidden = !*w.Visible
	}
	return b
}

// fillString keeps only solid fills; gradient and pattern objects are dropped.
func fillString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func fontFromWire(w *wireNode) Font {
	f := Font{
		Family: w.FontFamily,
		Size:   w.FontSize,
		Weight: string(w.FontWeight),
		Style:  w.FontStyle,
	}
	if f.Family == "" {
		f.Family = DefaultFontFamily
	}
	if f.Size <= 0 {
		f.Size = DefaultFontSize
	}
	if f.Weight == "" {
		f.Weight = "normal"
	}
	if f.Style == "" {
		f.Style = "normal"
	}
	return f
}

func textFromWire(w *wireNode, placeholder bool) *TextNode {
	n := &TextNode{
		Base:        baseFromWire(w),
		Text:        w.Text,
		Font:        fontFromWire(w),
		Underline:   w.Underline,
		TextAlign:   w.TextAlign,
		LineHeight:  w.LineHeight,
		Placeholder: placeholder,
	}
	if n.TextAlign == "" {
		n.TextAlign = "left"
	}
	if n.LineHeight <= 0 {
		n.LineHeight = DefaultLineHeight
	}
	return n
}

func fromWire(i int, w *wireNode) (Node, error) {
	switch Kind(w.Kind) {
	case KindText:
		return textFromWire(w, w.Placeholder), nil
	case KindShape:
		n := &ShapeNode{
			Base:  baseFromWire(w),
			Shape: ShapeType(w.Shape),
			RX:    w.RX,
			RY:    w.RY,
			X1:    w.X1,
			Y1:    w.Y1,
			X2:    w.X2,
			Y2:    w.Y2,
		}
		switch n.Shape {
		case ShapeRect, ShapeLine:
		case "":
			n.Shape = ShapeRect
		default:
			return nil, decodeErr(i, "unknown shape %q", w.Shape)
		}
		return n, nil
	case KindImage:
		if w.Src == "" {
			return nil, decodeErr(i, "image node has no src")
		}
		return &ImageNode{Base: baseFromWire(w), Src: w.Src}, nil
	case KindPhotoFrame:
		n := &PhotoFrameNode{Base: baseFromWire(w), RX: w.RX, Label: w.Label}
		frameDefaults(n)
		return n, nil
	default:
		return nil, decodeErr(i, "unknown node kind %q", w.Kind)
	}
}

func toWire(n Node) (wireNode, error) {
	b := n.Common()
	w := wireNode{
		Kind:        string(n.Kind()),
		Left:        b.Left,
		Top:         b.Top,
		Width:       b.Width,
		Height:      b.Height,
		ScaleX:      ptr(b.ScaleX),
		ScaleY:      ptr(b.ScaleY),
		Opacity:     ptr(b.Opacity),
		Stroke:      b.Stroke,
		StrokeWidth: b.StrokeWidth,
	}
	if b.Fill != "" {
		w.Fill = b.Fill
	}
	if b.Hidden {
		visible := false
		w.Visible = &visible
	}

	switch v := n.(type) {
	case *TextNode:
		w.Text = v.Text
		w.FontFamily = v.Font.Family
		w.FontSize = v.Font.Size
		w.FontWeight = flexString(v.Font.Weight)
		w.FontStyle = v.Font.Style
		w.Underline = v.Underline
		w.TextAlign = v.TextAlign
		w.LineHeight = v.LineHeight
		w.Placeholder = v.Placeholder
	case *ShapeNode:
		w.Shape = string(v.Shape)
		w.RX, w.RY = v.RX, v.RY
		w.X1, w.Y1, w.X2, w.Y2 = v.X1, v.Y1, v.X2, v.Y2
	case *ImageNode:
		w.Src = v.Src
	case *PhotoFrameNode:
		w.RX = v.RX
		w.Label = v.Label
	default:
		return wireNode{}, fmt.Errorf("unsupported node type %T", n)
	}
	return w, nil
}

func ptr[T any](v T) *T { return &v }

// fromLegacy maps an editor-native object onto the closed node variant.
func fromLegacy(i int, w *wireNode) (Node, error) {
	typ := strings.ToLower(w.Type)
	switch {
	case w.IsPhotoPlaceholder || w.IsPhotoFrame:
		return legacyPhotoFrame(w), nil
	case typ == "textbox" || typ == "i-text" || typ == "itext" || typ == "text":
		n := textFromWire(w, w.IsPlaceholder)
		legacyOrigin(w, &n.Base)
		return n, nil
	case typ == "rect":
		n := &ShapeNode{Base: baseFromWire(w), Shape: ShapeRect, RX: w.RX, RY: w.RY}
		legacyOrigin(w, &n.Base)
		return n, nil
	case typ == "line":
		// Legacy line points are relative to the centre of the bounding box.
		n := &ShapeNode{
			Base:  baseFromWire(w),
			Shape: ShapeLine,
			X1:    w.X1 + w.Width/2,
			Y1:    w.Y1 + w.Height/2,
			X2:    w.X2 + w.Width/2,
			Y2:    w.Y2 + w.Height/2,
		}
		legacyOrigin(w, &n.Base)
		return n, nil
	case typ == "image":
		if w.Src == "" {
			return nil, decodeErr(i, "image object has no src")
		}
		n := &ImageNode{Base: baseFromWire(w), Src: w.Src}
		legacyOrigin(w, &n.Base)
		return n, nil
	case typ == "":
		return nil, decodeErr(i, "object has neither kind nor type")
	default:
		return nil, decodeErr(i, "unsupported object type %q", w.Type)
	}
}

// legacyPhotoFrame builds a frame from a group of background rectangle and
// label text, taking paint from the rectangle child when present.
func legacyPhotoFrame(w *wireNode) *PhotoFrameNode {
	n := &PhotoFrameNode{Base: baseFromWire(w), RX: w.RX, Label: w.Label}
	for ci := range w.Objects {
		child := &w.Objects[ci]
		switch strings.ToLower(child.Type) {
		case "rect":
			if n.Fill == "" {
				n.Fill = fillString(child.Fill)
			}
			if n.Stroke == "" {
				n.Stroke = child.Stroke
				n.StrokeWidth = child.StrokeWidth
			}
			if n.RX == 0 {
				n.RX = child.RX
			}
		case "text", "textbox", "i-text":
			if n.Label == "" {
				n.Label = child.Text
			}
		}
	}
	frameDefaults(n)
	legacyOrigin(w, &n.Base)
	return n
}

func frameDefaults(n *PhotoFrameNode) {
	if n.Label == "" {
		n.Label = DefaultPhotoLabel
	}
	if n.Fill == "" {
		n.Fill = DefaultFrameFill
	}
	if n.Stroke == "" {
		n.Stroke = DefaultFrameStroke
		if n.StrokeWidth == 0 {
			n.StrokeWidth = 2
		}
	}
}

// legacyOrigin converts centre-anchored legacy positions to top-left.
func legacyOrigin(w *wireNode, b *Base) {
	if w.OriginX == "center" {
		b.Left -= b.VisualWidth() / 2
	}
	if w.OriginY == "center" {
		b.Top -= b.VisualHeight() / 2
	}
}

// ParseFloat is a lenient number parser for record values and query input.
func ParseFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
