package render

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontStyle represents font style variations.
type FontStyle int

const (
	// FontStyleRegular is the regular/normal font style.
	FontStyleRegular FontStyle = iota
	// FontStyleBold is the bold font style.
	FontStyleBold
	// FontStyleItalic is the italic font style.
	FontStyleItalic
	// FontStyleBoldItalic is the bold and italic font style.
	FontStyleBoldItalic
)

// String returns the string representation of a FontStyle.
func (fs FontStyle) String() string {
	switch fs {
	case FontStyleRegular:
		return "regular"
	case FontStyleBold:
		return "bold"
	case FontStyleItalic:
		return "italic"
	case FontStyleBoldItalic:
		return "bold-italic"
	default:
		return "unknown"
	}
}

// ParseFontStyle parses a string into a FontStyle.
func ParseFontStyle(s string) (FontStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "regular", "normal", "":
		return FontStyleRegular, nil
	case "bold":
		return FontStyleBold, nil
	case "italic":
		return FontStyleItalic, nil
	case "bold-italic", "bolditalic", "bold_italic":
		return FontStyleBoldItalic, nil
	default:
		return FontStyleRegular, fmt.Errorf("unknown font style: %s", s)
	}
}

// Canonical names of the embedded families.
const (
	FamilySans = "GoSans"
	FamilyMono = "GoMono"
)

// maxCachedFaces bounds the face cache. Interactive scaling produces one
// size per step, so the set stays small in practice.
const maxCachedFaces = 64

type faceKey struct {
	family string
	style  FontStyle
	size   float64
}

// FontManager owns font data and rasterizing faces. The Go fonts are
// embedded; CSS generic names ("sans-serif", "monospace") resolve to them.
type FontManager struct {
	data          map[string]map[FontStyle][]byte
	parsed        map[string]map[FontStyle]*opentype.Font
	aliases       map[string]string
	faces         map[faceKey]font.Face
	defaultFamily string
	mu            sync.RWMutex
}

// NewFontManager creates a FontManager with the embedded Go fonts.
func NewFontManager() *FontManager {
	fm := &FontManager{
		data:          make(map[string]map[FontStyle][]byte),
		parsed:        make(map[string]map[FontStyle]*opentype.Font),
		aliases:       make(map[string]string),
		faces:         make(map[faceKey]font.Face),
		defaultFamily: FamilySans,
	}

	fm.data[FamilySans] = map[FontStyle][]byte{
		FontStyleRegular:    goregular.TTF,
		FontStyleBold:       gobold.TTF,
		FontStyleItalic:     goitalic.TTF,
		FontStyleBoldItalic: gobolditalic.TTF,
	}
	fm.data[FamilyMono] = map[FontStyle][]byte{
		FontStyleRegular:    gomono.TTF,
		FontStyleBold:       gomonobold.TTF,
		FontStyleItalic:     gomonoitalic.TTF,
		FontStyleBoldItalic: gomonobolditalic.TTF,
	}
	for _, a := range []string{"sans-serif", "sans", "go", "gosans", "arial", "helvetica", "impact"} {
		fm.aliases[a] = FamilySans
	}
	for _, a := range []string{"monospace", "mono", "gomono", "courier"} {
		fm.aliases[a] = FamilyMono
	}
	return fm
}

// LoadFontFromFile registers a TTF/OTF file under family and style.
func (fm *FontManager) LoadFontFromFile(family string, style FontStyle, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read font file %s: %w", path, err)
	}
	return fm.LoadFontFromData(family, style, data)
}

// LoadFontFromData registers font bytes under family and style. A family
// registered this way shadows an alias of the same name.
func (fm *FontManager) LoadFontFromData(family string, style FontStyle, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse font data: %w", err)
	}

	fm.mu.Lock()
	defer fm.mu.Unlock()
	if fm.data[family] == nil {
		fm.data[family] = make(map[FontStyle][]byte)
		fm.parsed[family] = make(map[FontStyle]*opentype.Font)
	}
	fm.data[family][style] = data
	if fm.parsed[family] == nil {
		fm.parsed[family] = make(map[FontStyle]*opentype.Font)
	}
	fm.parsed[family][style] = f
	delete(fm.aliases, strings.ToLower(family))
	for k := range fm.faces {
		if k.family == family {
			delete(fm.faces, k)
		}
	}
	return nil
}

// RegisterAlias makes alias resolve to an existing family.
func (fm *FontManager) RegisterAlias(alias, family string) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	if _, ok := fm.data[family]; !ok {
		return fmt.Errorf("font family %s not found", family)
	}
	fm.aliases[strings.ToLower(alias)] = family
	return nil
}

// Resolve returns the canonical family for name, falling back to the
// default family for unknown names.
func (fm *FontManager) Resolve(name string) string {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	return fm.resolveLocked(name)
}

func (fm *FontManager) resolveLocked(name string) string {
	name = strings.TrimSpace(name)
	if _, ok := fm.data[name]; ok {
		return name
	}
	if canonical, ok := fm.aliases[strings.ToLower(name)]; ok {
		return canonical
	}
	return fm.defaultFamily
}

// styleFallback returns the styles to try for style, best match first.
func styleFallback(style FontStyle) []FontStyle {
	switch style {
	case FontStyleBoldItalic:
		return []FontStyle{FontStyleBoldItalic, FontStyleBold, FontStyleItalic, FontStyleRegular}
	case FontStyleBold, FontStyleItalic:
		return []FontStyle{style, FontStyleRegular}
	default:
		return []FontStyle{FontStyleRegular, FontStyleBold, FontStyleItalic, FontStyleBoldItalic}
	}
}

// Data returns the raw font bytes for the family and style, applying the
// style fallback chain. The resolved style is returned alongside.
func (fm *FontManager) Data(family string, style FontStyle) ([]byte, FontStyle, error) {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	canonical := fm.resolveLocked(family)
	for _, s := range styleFallback(style) {
		if data, ok := fm.data[canonical][s]; ok {
			return data, s, nil
		}
	}
	return nil, style, fmt.Errorf("font family %s has no usable style", canonical)
}

// Face returns a rasterizing face for spec. Sizes are pixels at 72 DPI.
// Faces are cached; callers must not Close them.
func (fm *FontManager) Face(spec FontSpec) (font.Face, error) {
	if spec.Size <= 0 {
		return nil, fmt.Errorf("font size must be positive, got %g", spec.Size)
	}

	fm.mu.Lock()
	defer fm.mu.Unlock()

	canonical := fm.resolveLocked(spec.Family)
	key := faceKey{family: canonical, style: spec.Style, size: spec.Size}
	if face, ok := fm.faces[key]; ok {
		return face, nil
	}

	f, err := fm.parsedLocked(canonical, spec.Style)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    spec.Size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face for %s: %w", spec, err)
	}

	if len(fm.faces) >= maxCachedFaces {
		for k, old := range fm.faces {
			old.Close()
			delete(fm.faces, k)
		}
	}
	fm.faces[key] = face
	return face, nil
}

// parsedLocked returns the parsed font for family/style. Must hold fm.mu.
func (fm *FontManager) parsedLocked(family string, style FontStyle) (*opentype.Font, error) {
	for _, s := range styleFallback(style) {
		if f, ok := fm.parsed[family][s]; ok {
			return f, nil
		}
		data, ok := fm.data[family][s]
		if !ok {
			continue
		}
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s %s: %w", family, s, err)
		}
		if fm.parsed[family] == nil {
			fm.parsed[family] = make(map[FontStyle]*opentype.Font)
		}
		fm.parsed[family][s] = f
		return f, nil
	}
	return nil, fmt.Errorf("font family %s has no usable style", family)
}

// ListFamilies returns the canonical family names, sorted.
func (fm *FontManager) ListFamilies() []string {
	fm.mu.RLock()
	defer fm.mu.RUnlock()
	families := make([]string, 0, len(fm.data))
	for name := range fm.data {
		families = append(families, name)
	}
	sort.Strings(families)
	return families
}
