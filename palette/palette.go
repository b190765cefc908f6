// Package palette holds the named colour palettes icons are recoloured with,
// and reads them from the palettes.json format:
//
//	{
//	  "palettes": [
//	    {"id": "platinum", "title": "Platinum", "page_colours": "light",
//	     "colours": {"red": "#BF4040", "grey": "3F3F3F"}}
//	  ],
//	  "defaults": {"light": "platinum", "dark": "graphite"}
//	}
package palette

import (
	"bytes"
	"encoding/json"
	"io"
	"regexp"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-vanilla/paths"
)

// Neutral is the swatch used for icons whose colour cannot be determined, and
// the one every icon gets in the "mono" style.
const Neutral = "grey"

var (
	ErrBadColour      = errors.New("palette: colour is not a 6 digit hex string")
	ErrUnknownPalette = errors.New("palette: unknown palette")
	ErrUnknownSwatch  = errors.New("palette: unknown swatch")
)

var hexPattern = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// ParseHex parses "#RRGGBB" or "RRGGBB", in any case.
func ParseHex(s string) (colorful.Color, error) {
	s = strings.TrimSpace(s)
	if !hexPattern.MatchString(s) {
		return colorful.Color{}, errors.Wrapf(ErrBadColour, "%q", s)
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(strings.ToLower(s))
	if err != nil {
		return colorful.Color{}, errors.Wrapf(ErrBadColour, "%q: %v", s, err)
	}
	return c, nil
}

// Palette is a named set of swatch colours.
type Palette struct {
	ID          string
	Title       string
	PageColours string // page theme hint, "light" or "dark"

	Colours map[string]colorful.Color
	// Order lists the swatch keys in the order they were declared.
	Order []string
}

// New builds a palette from key/hex pairs, keeping their order.
func New(id string, pairs ...string) (Palette, error) {
	if len(pairs)%2 != 0 {
		return Palette{}, errors.Errorf("palette %q: odd number of key/colour arguments", id)
	}
	p := Palette{ID: id, Title: id, Colours: make(map[string]colorful.Color, len(pairs)/2)}
	for i := 0; i < len(pairs); i += 2 {
		c, err := ParseHex(pairs[i+1])
		if err != nil {
			return Palette{}, errors.Wrapf(err, "palette %q swatch %q", id, pairs[i])
		}
		p.set(pairs[i], c)
	}
	return p, nil
}

func (p *Palette) set(key string, c colorful.Color) {
	if _, ok := p.Colours[key]; !ok {
		p.Order = append(p.Order, key)
	}
	p.Colours[key] = c
}

// Colour returns the colour of the swatch.
func (p Palette) Colour(key string) (colorful.Color, error) {
	c, ok := p.Colours[key]
	if !ok {
		return colorful.Color{}, errors.Wrapf(ErrUnknownSwatch, "%q in palette %q", key, p.ID)
	}
	return c, nil
}

// Hex returns the swatch colours formatted as "#rrggbb", keyed by swatch.
func (p Palette) Hex() map[string]string {
	out := make(map[string]string, len(p.Colours))
	for k, c := range p.Colours {
		out[k] = c.Hex()
	}
	return out
}

type jsonPalette struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	PageColours string          `json:"page_colours"`
	Colours     json.RawMessage `json:"colours"`
}

// UnmarshalJSON decodes a single palette entry of palettes.json. The colours
// object is walked token by token so that declaration order survives.
func (p *Palette) UnmarshalJSON(b []byte) error {
	var raw jsonPalette
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*p = Palette{
		ID:          raw.ID,
		Title:       raw.Title,
		PageColours: raw.PageColours,
		Colours:     map[string]colorful.Color{},
	}
	if len(raw.Colours) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw.Colours))
	tok, err := dec.Token()
	if err != nil {
		return errors.Wrapf(err, "palette %q colours", p.ID)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.Errorf("palette %q: colours is not an object", p.ID)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return errors.Wrapf(err, "palette %q colours", p.ID)
		}
		key := tok.(string)
		var hex string
		if err := dec.Decode(&hex); err != nil {
			return errors.Wrapf(err, "palette %q swatch %q", p.ID, key)
		}
		c, err := ParseHex(hex)
		if err != nil {
			return errors.Wrapf(err, "palette %q swatch %q", p.ID, key)
		}
		p.set(key, c)
	}
	return nil
}

// MarshalJSON writes the palette in the palettes.json format, with swatches
// in declaration order.
func (p Palette) MarshalJSON() ([]byte, error) {
	var colours bytes.Buffer
	colours.WriteByte('{')
	for i, key := range p.Order {
		if i > 0 {
			colours.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		colours.Write(k)
		colours.WriteString(`:"`)
		colours.WriteString(strings.ToUpper(p.Colours[key].Clamped().Hex()))
		colours.WriteByte('"')
	}
	colours.WriteByte('}')
	return json.Marshal(jsonPalette{
		ID:          p.ID,
		Title:       p.Title,
		PageColours: p.PageColours,
		Colours:     json.RawMessage(colours.Bytes()),
	})
}

// Set is the whole palettes.json document.
type Set struct {
	Palettes []Palette         `json:"palettes"`
	Defaults map[string]string `json:"defaults"`
}

// Decode reads a palettes.json document.
func Decode(r io.Reader) (Set, error) {
	var s Set
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Set{}, errors.Wrap(err, "decoding palette set")
	}
	if len(s.Palettes) == 0 {
		return Set{}, errors.New("decoding palette set: no palettes")
	}
	seen := map[string]bool{}
	for _, p := range s.Palettes {
		if p.ID == "" {
			return Set{}, errors.New("decoding palette set: palette without id")
		}
		if seen[p.ID] {
			return Set{}, errors.Errorf("decoding palette set: duplicate palette %q", p.ID)
		}
		seen[p.ID] = true
	}
	for theme, id := range s.Defaults {
		if !seen[id] {
			return Set{}, errors.Wrapf(ErrUnknownPalette, "default for %q is %q", theme, id)
		}
	}
	return s, nil
}

// Open reads a palettes.json document from a path or URL, as understood by
// paths.NoFindOpen.
func Open(path string) (Set, error) {
	f, err := paths.NoFindOpen(path)
	if err != nil {
		return Set{}, errors.Wrapf(err, "opening palettes %q", path)
	}
	defer f.Close()
	return Decode(f)
}

// ByID returns the palette with the given id.
func (s Set) ByID(id string) (Palette, error) {
	for _, p := range s.Palettes {
		if p.ID == id {
			return p, nil
		}
	}
	return Palette{}, errors.Wrapf(ErrUnknownPalette, "%q", id)
}

// Default returns the default palette for the "light" or "dark" page theme.
// Unknown themes fall back to light, and a set without defaults gives its
// first palette.
func (s Set) Default(theme string) Palette {
	id, ok := s.Defaults[theme]
	if !ok {
		id = s.Defaults["light"]
	}
	if p, err := s.ByID(id); err == nil {
		return p
	}
	return s.Palettes[0]
}
