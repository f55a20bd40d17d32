package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/mburuwhiz/idmaker-sub000/internal/design"
)

// FallbackFamily is the family used when a requested family is not registered.
const FallbackFamily = "Go"

type fontStyle int

const (
	styleRegular fontStyle = iota
	styleBold
	styleItalic
	styleBoldItalic
)

func styleOf(f design.Font) fontStyle {
	switch {
	case f.Bold() && f.Italic():
		return styleBoldItalic
	case f.Bold():
		return styleBold
	case f.Italic():
		return styleItalic
	}
	return styleRegular
}

var styleSuffixes = map[string]fontStyle{
	"":            styleRegular,
	"regular":     styleRegular,
	"bold":        styleBold,
	"italic":      styleItalic,
	"oblique":     styleItalic,
	"bolditalic":  styleBoldItalic,
	"boldoblique": styleBoldItalic,
}

// FontRegistry maps family names to parsed TrueType fonts. Parsed fonts are
// immutable and shared; faces are created per render.
type FontRegistry struct {
	mu       sync.RWMutex
	families map[string]map[fontStyle]*truetype.Font
}

// NewFontRegistry returns a registry holding the Go fonts as FallbackFamily.
func NewFontRegistry() *FontRegistry {
	r := &FontRegistry{families: make(map[string]map[fontStyle]*truetype.Font)}
	for style, ttf := range map[fontStyle][]byte{
		styleRegular:    goregular.TTF,
		styleBold:       gobold.TTF,
		styleItalic:     goitalic.TTF,
		styleBoldItalic: gobolditalic.TTF,
	} {
		f, err := truetype.Parse(ttf)
		if err != nil {
			panic(fmt.Sprintf("failed to parse embedded Go font: %v", err))
		}
		r.add(FallbackFamily, style, f)
	}
	return r
}

func familyKey(family string) string {
	return strings.ToLower(strings.TrimSpace(family))
}

func (r *FontRegistry) add(family string, style fontStyle, f *truetype.Font) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := familyKey(family)
	if r.families[key] == nil {
		r.families[key] = make(map[fontStyle]*truetype.Font)
	}
	r.families[key][style] = f
}

// Register parses a TrueType font and adds it under family.
func (r *FontRegistry) Register(family string, bold, italic bool, ttf []byte) error {
	f, err := truetype.Parse(ttf)
	if err != nil {
		return fmt.Errorf("failed to parse font %s: %w", family, err)
	}
	style := styleRegular
	switch {
	case bold && italic:
		style = styleBoldItalic
	case bold:
		style = styleBold
	case italic:
		style = styleItalic
	}
	r.add(family, style, f)
	return nil
}

// LoadDir registers every .ttf file in dir. File names follow
// Family[-Bold|-Italic|-BoldItalic].ttf; unknown suffixes are part of the
// family name.
func (r *FontRegistry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read font directory: %w", err)
	}

	loaded := 0
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".ttf") {
			continue
		}
		base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		family, style := base, styleRegular
		if i := strings.LastIndex(base, "-"); i > 0 {
			if s, ok := styleSuffixes[strings.ToLower(base[i+1:])]; ok {
				family, style = base[:i], s
			}
		}

		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return loaded, fmt.Errorf("failed to read font %s: %w", e.Name(), err)
		}
		f, err := truetype.Parse(data)
		if err != nil {
			return loaded, fmt.Errorf("failed to parse font %s: %w", e.Name(), err)
		}
		r.add(family, style, f)
		loaded++
	}
	return loaded, nil
}

func isDefaultFamily(family string) bool {
	key := familyKey(family)
	return key == "" || key == familyKey(design.DefaultFontFamily)
}

// Has reports whether family is registered.
func (r *FontRegistry) Has(family string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.families[familyKey(family)]
	return ok
}

// Face returns a face for f at size pixels. The second result is false when
// the family is unknown and the fallback family was used instead. The
// template default family, and an empty family, silently use the fallback
// unless a font of that name was registered.
func (r *FontRegistry) Face(f design.Font, size float64) (font.Face, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	style := styleOf(f)
	found := true
	styles, ok := r.families[familyKey(f.Family)]
	if !ok {
		styles = r.families[familyKey(FallbackFamily)]
		found = isDefaultFamily(f.Family)
	}
	tt, ok := styles[style]
	if !ok {
		tt = styles[styleRegular]
	}
	if tt == nil {
		tt = r.families[familyKey(FallbackFamily)][styleRegular]
	}
	return truetype.NewFace(tt, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone}), found
}
