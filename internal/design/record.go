package design

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Reserved record keys.
const (
	AdjustmentsKey = "_adjustments"
	ManualPhotoKey = "_manualPhoto"
)

// Record is one row of card data: field name to value.
type Record map[string]any

var fold = cases.Fold()

func foldKey(k string) string {
	return fold.String(strings.TrimSpace(k))
}

// Lookup finds a field by trimmed, case-insensitive key and returns its value
// formatted as text. Reserved keys never match.
func (r Record) Lookup(key string) (string, bool) {
	want := foldKey(key)
	if want == "" || strings.HasPrefix(want, "_") {
		return "", false
	}
	if v, ok := r[key]; ok && !strings.HasPrefix(key, "_") {
		return FormatValue(v), true
	}

	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.HasPrefix(strings.TrimSpace(k), "_") {
			continue
		}
		if foldKey(k) == want {
			return FormatValue(r[k]), true
		}
	}
	return "", false
}

// FormatValue renders a record value the way it appears on a card.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// ManualPhoto returns the photo path override, if any.
func (r Record) ManualPhoto() string {
	s, _ := r[ManualPhotoKey].(string)
	return strings.TrimSpace(s)
}

// Adjustments is the manual zoom and pan applied to a cropped photo inside its
// frame. Offsets are card pixels.
type Adjustments struct {
	Zoom    float64 `json:"zoom"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// DefaultAdjustments leaves the cropped photo filling its frame exactly.
var DefaultAdjustments = Adjustments{Zoom: 1}

// Normalize replaces unusable values with defaults.
func (a Adjustments) Normalize() Adjustments {
	if a.Zoom <= 0 || math.IsNaN(a.Zoom) || math.IsInf(a.Zoom, 0) {
		a.Zoom = 1
	}
	if math.IsNaN(a.OffsetX) || math.IsInf(a.OffsetX, 0) {
		a.OffsetX = 0
	}
	if math.IsNaN(a.OffsetY) || math.IsInf(a.OffsetY, 0) {
		a.OffsetY = 0
	}
	return a
}

// ResolveAdjustments merges the record's _adjustments over the defaults.
// Both offsetX/offsetY and the short x/y forms are accepted.
func ResolveAdjustments(r Record) Adjustments {
	adj := DefaultAdjustments
	raw, ok := r[AdjustmentsKey]
	if !ok {
		return adj
	}

	var m map[string]any
	switch v := raw.(type) {
	case map[string]any:
		m = v
	case Record:
		m = v
	case Adjustments:
		return v.Normalize()
	case *Adjustments:
		if v != nil {
			return v.Normalize()
		}
		return adj
	case string:
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return adj
		}
	default:
		return adj
	}

	if f, ok := ParseFloat(m["zoom"]); ok {
		adj.Zoom = f
	}
	if f, ok := ParseFloat(m["x"]); ok {
		adj.OffsetX = f
	}
	if f, ok := ParseFloat(m["y"]); ok {
		adj.OffsetY = f
	}
	if f, ok := ParseFloat(m["offsetX"]); ok {
		adj.OffsetX = f
	}
	if f, ok := ParseFloat(m["offsetY"]); ok {
		adj.OffsetY = f
	}
	return adj.Normalize()
}
