package design

import (
	"errors"
	"image/color"
	"math"
	"reflect"
	"testing"
)

const sampleTemplate = `{
  "version": 1,
  "name": "Student 2025",
  "background": "#0f172a",
  "nodes": [
    {"kind": "shape", "shape": "rect", "left": 0, "top": 0, "width": 1016, "height": 120, "fill": "#1e3a8a", "rx": 8, "ry": 8},
    {"kind": "text", "left": 40.125, "top": 150.5, "width": 500, "height": 40, "text": "Name: {{NAME}}", "fontFamily": "Arial", "fontSize": 32, "fontWeight": 700, "placeholder": true, "fill": "#111827"},
    {"kind": "shape", "shape": "line", "left": 40, "top": 220, "width": 400, "height": 0, "x1": 0, "y1": 0, "x2": 400, "y2": 0, "stroke": "#000", "strokeWidth": 2},
    {"kind": "photoFrame", "left": 700.333, "top": 160.25, "width": 200, "height": 250, "scaleX": 1.2, "scaleY": 0.9},
    {"kind": "image", "left": 10, "top": 10, "width": 64, "height": 64, "src": "data:image/png;base64,AAAA", "opacity": 0.5, "visible": false}
  ]
}`

// --- Decode ---

func TestDecode(t *testing.T) {
	tmpl, err := DecodeString(sampleTemplate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tmpl.Name != "Student 2025" {
		t.Errorf("expected name 'Student 2025', got '%s'", tmpl.Name)
	}
	if len(tmpl.Nodes) != 5 {
		t.Fatalf("expected 5 nodes, got %d", len(tmpl.Nodes))
	}

	kinds := []Kind{KindShape, KindText, KindShape, KindPhotoFrame, KindImage}
	for i, want := range kinds {
		if got := tmpl.Nodes[i].Kind(); got != want {
			t.Errorf("node %d: expected kind %s, got %s", i, want, got)
		}
	}

	text := tmpl.Nodes[1].(*TextNode)
	if !text.Placeholder {
		t.Error("expected text node to be a placeholder")
	}
	if !text.Font.Bold() {
		t.Errorf("expected numeric weight 700 to be bold, got %q", text.Font.Weight)
	}
	if text.LineHeight != DefaultLineHeight {
		t.Errorf("expected default line height, got %f", text.LineHeight)
	}

	frame := tmpl.Nodes[3].(*PhotoFrameNode)
	if frame.Label != DefaultPhotoLabel {
		t.Errorf("expected default label, got %q", frame.Label)
	}
	if math.Abs(frame.VisualWidth()-240) > 1e-9 || math.Abs(frame.VisualHeight()-225) > 1e-9 {
		t.Errorf("expected visual size 240x225, got %fx%f", frame.VisualWidth(), frame.VisualHeight())
	}

	img := tmpl.Nodes[4].(*ImageNode)
	if !img.Hidden {
		t.Error("expected image node to be hidden")
	}
	if img.Opacity != 0.5 {
		t.Errorf("expected opacity 0.5, got %f", img.Opacity)
	}
	if text.Opacity != 1 || text.ScaleX != 1 {
		t.Errorf("expected default opacity and scale of 1, got %f and %f", text.Opacity, text.ScaleX)
	}
}

func TestDecode_RoundTripGeometry(t *testing.T) {
	first, err := DecodeString(sampleTemplate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := first.Encode()
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	second, err := Decode(data)
	if err != nil {
		t.Fatalf("failed to decode encoded template: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("template changed across encode/decode:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestDecode_FreshNodes(t *testing.T) {
	a, _ := DecodeString(sampleTemplate)
	b, _ := DecodeString(sampleTemplate)

	a.Nodes[1].Common().Fill = MissingFill
	if b.Nodes[1].Common().Fill == MissingFill {
		t.Error("decoded templates share node state")
	}
}

func TestDecode_WrappedString(t *testing.T) {
	wrapped := `"{\"nodes\":[{\"kind\":\"text\",\"text\":\"hi\"}]}"`
	tmpl, err := DecodeString(wrapped)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tmpl.Nodes) != 1 {
		t.Errorf("expected 1 node, got %d", len(tmpl.Nodes))
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantNode int
	}{
		{"empty", "", -1},
		{"not json", "{nodes", -1},
		{"future version", `{"version": 99}`, -1},
		{"unknown kind", `{"nodes":[{"kind":"text","text":"a"},{"kind":"circle"}]}`, 1},
		{"unknown shape", `{"nodes":[{"kind":"shape","shape":"star"}]}`, 0},
		{"image without src", `{"nodes":[{"kind":"image"}]}`, 0},
		{"legacy unknown type", `{"objects":[{"type":"polygon"}]}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeString(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			var decErr *TemplateDecodeError
			if !errors.As(err, &decErr) {
				t.Fatalf("expected TemplateDecodeError, got %T", err)
			}
			if decErr.Node != tt.wantNode {
				t.Errorf("expected node index %d, got %d", tt.wantNode, decErr.Node)
			}
		})
	}
}

func TestDecode_Legacy(t *testing.T) {
	legacy := `{
	  "backgroundColor": "#ffffff",
	  "objects": [
	    {"type": "textbox", "left": 10, "top": 20, "width": 200, "height": 30, "text": "{{ADM_NO}}", "isPlaceholder": true, "fontWeight": "bold"},
	    {"type": "i-text", "left": 10, "top": 60, "text": "School"},
	    {"type": "rect", "left": 0, "top": 0, "width": 100, "height": 50, "rx": 4, "fill": "#eee"},
	    {"type": "group", "isPhotoPlaceholder": true, "left": 700, "top": 150, "width": 200, "height": 250, "scaleX": 1.5,
	     "objects": [
	       {"type": "rect", "fill": "#cccccc", "stroke": "#333333", "strokeWidth": 1, "rx": 6},
	       {"type": "text", "text": "PHOTO"}
	     ]}
	  ]
	}`
	tmpl, err := DecodeString(legacy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tmpl.Background != "#ffffff" {
		t.Errorf("expected background from backgroundColor, got %q", tmpl.Background)
	}
	if len(tmpl.Nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(tmpl.Nodes))
	}

	tn, ok := tmpl.Nodes[0].(*TextNode)
	if !ok || !tn.Placeholder || !tn.Font.Bold() {
		t.Errorf("expected bold placeholder text node, got %+v", tmpl.Nodes[0])
	}
	if plain := tmpl.Nodes[1].(*TextNode); plain.Placeholder {
		t.Error("expected plain text node not to be a placeholder")
	}

	frame, ok := tmpl.Nodes[3].(*PhotoFrameNode)
	if !ok {
		t.Fatalf("expected photo frame, got %T", tmpl.Nodes[3])
	}
	if frame.Fill != "#cccccc" || frame.Stroke != "#333333" || frame.RX != 6 {
		t.Errorf("expected paint from rect child, got fill=%q stroke=%q rx=%f", frame.Fill, frame.Stroke, frame.RX)
	}
	if frame.VisualWidth() != 300 {
		t.Errorf("expected visual width 300, got %f", frame.VisualWidth())
	}
}

func TestTemplateFields(t *testing.T) {
	tmpl := &Template{Nodes: []Node{
		&TextNode{Text: "{{NAME}} / {{ ADM_NO }}"},
		&ShapeNode{Shape: ShapeRect},
		&TextNode{Text: "Class {{CLASS}} {{NAME}}"},
	}}
	got := tmpl.Fields()
	want := []string{"NAME", "ADM_NO", "CLASS"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

// --- Substitute ---

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		rec            Record
		wantText       string
		wantResolved   int
		wantUnresolved []string
	}{
		{
			name:         "all present",
			text:         "{{NAME}} - {{ADM_NO}}",
			rec:          Record{"name": "Jane Doe", "adm_no": "A123"},
			wantText:     "Jane Doe - A123",
			wantResolved: 2,
		},
		{
			name:           "none present",
			text:           "Name: {{NAME}}",
			rec:            Record{"other": "x"},
			wantText:       "Name: {{NAME}}",
			wantUnresolved: []string{"NAME"},
		},
		{
			name:           "partial",
			text:           "{{NAME}} {{CLASS}}",
			rec:            Record{"NAME": "Jane"},
			wantText:       "Jane {{CLASS}}",
			wantResolved:   1,
			wantUnresolved: []string{"CLASS"},
		},
		{
			name:         "key whitespace and case",
			text:         "{{ADM_NO}}",
			rec:          Record{" adm_no ": "A1"},
			wantText:     "A1",
			wantResolved: 1,
		},
		{
			name:         "token whitespace",
			text:         "{{ Name }}",
			rec:          Record{"NAME": "Jane"},
			wantText:     "Jane",
			wantResolved: 1,
		},
		{
			name:         "number value",
			text:         "{{YEAR}}",
			rec:          Record{"year": 2025.0},
			wantText:     "2025",
			wantResolved: 1,
		},
		{
			name:           "empty value counts as missing",
			text:           "{{NAME}}",
			rec:            Record{"NAME": ""},
			wantText:       "{{NAME}}",
			wantUnresolved: []string{"NAME"},
		},
		{
			name:           "reserved key never matches",
			text:           "{{_adjustments}}",
			rec:            Record{"_adjustments": "x"},
			wantText:       "{{_adjustments}}",
			wantUnresolved: []string{"_adjustments"},
		},
		{
			name:     "no tokens",
			text:     "Valid until 2026",
			rec:      Record{},
			wantText: "Valid until 2026",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Substitute(tt.text, tt.rec)
			if got.Text != tt.wantText {
				t.Errorf("expected text %q, got %q", tt.wantText, got.Text)
			}
			if got.Resolved != tt.wantResolved {
				t.Errorf("expected %d resolved, got %d", tt.wantResolved, got.Resolved)
			}
			if !reflect.DeepEqual(got.Unresolved, tt.wantUnresolved) {
				t.Errorf("expected unresolved %v, got %v", tt.wantUnresolved, got.Unresolved)
			}
		})
	}
}

// --- Adjustments ---

func TestResolveAdjustments(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want Adjustments
	}{
		{"missing", Record{}, Adjustments{Zoom: 1}},
		{"full", Record{AdjustmentsKey: map[string]any{"zoom": 1.5, "offsetX": 10.0, "offsetY": -4.0}}, Adjustments{1.5, 10, -4}},
		{"short keys", Record{AdjustmentsKey: map[string]any{"zoom": "2", "x": 3.0, "y": 4.0}}, Adjustments{2, 3, 4}},
		{"partial", Record{AdjustmentsKey: map[string]any{"offsetY": 7.0}}, Adjustments{1, 0, 7}},
		{"zero zoom", Record{AdjustmentsKey: map[string]any{"zoom": 0.0}}, Adjustments{Zoom: 1}},
		{"negative zoom", Record{AdjustmentsKey: map[string]any{"zoom": -2.0}}, Adjustments{Zoom: 1}},
		{"json string", Record{AdjustmentsKey: `{"zoom":1.25,"offsetX":2}`}, Adjustments{1.25, 2, 0}},
		{"garbage", Record{AdjustmentsKey: 42}, Adjustments{Zoom: 1}},
		{"typed", Record{AdjustmentsKey: Adjustments{Zoom: 3, OffsetX: 1}}, Adjustments{3, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveAdjustments(tt.rec)
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestManualPhoto(t *testing.T) {
	rec := Record{ManualPhotoKey: " /photos/a.jpg "}
	if got := rec.ManualPhoto(); got != "/photos/a.jpg" {
		t.Errorf("expected trimmed path, got %q", got)
	}
	if got := (Record{}).ManualPhoto(); got != "" {
		t.Errorf("expected empty path, got %q", got)
	}
}

// --- ParseColor ---

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#fff", color.NRGBA{255, 255, 255, 255}},
		{"#1e3a8a", color.NRGBA{0x1e, 0x3a, 0x8a, 255}},
		{"#FF000080", color.NRGBA{255, 0, 0, 0x80}},
		{"rgb(10, 20, 30)", color.NRGBA{10, 20, 30, 255}},
		{"rgba(10,20,30,0.5)", color.NRGBA{10, 20, 30, 128}},
		{"red", color.NRGBA{255, 0, 0, 255}},
		{" White ", color.NRGBA{255, 255, 255, 255}},
		{"transparent", color.NRGBA{}},
		{"", color.NRGBA{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	for _, bad := range []string{"#12", "rgb(1,2)", "chartreuse-ish", "#zzzzzz"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
