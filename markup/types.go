package markup

import (
	"fmt"
	"image/color"
)

// Style is the resolved weight variant of a run. Each style maps to one font face.
type Style int

const (
	Plain Style = iota
	Bold
	Italic
	BoldItalic
	Header
	HeaderBold
)

// Styles lists every style in declaration order.
var Styles = []Style{Plain, Bold, Italic, BoldItalic, Header, HeaderBold}

func (s Style) String() string {
	switch s {
	case Plain:
		return "plain"
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case BoldItalic:
		return "bold-italic"
	case Header:
		return "header"
	case HeaderBold:
		return "header-bold"
	default:
		return fmt.Sprintf("style(%d)", int(s))
	}
}

// MarshalText lets styles appear by name in debug JSON and config maps.
func (s Style) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText accepts the names produced by String plus the tag spellings.
func (s *Style) UnmarshalText(b []byte) error {
	v, ok := ParseStyle(string(b))
	if !ok {
		return fmt.Errorf("unknown style %q", string(b))
	}
	*s = v
	return nil
}

// ParseStyle resolves a style name or tag name (b, i, bi, h, hb).
func ParseStyle(name string) (Style, bool) {
	switch name {
	case "plain", "regular", "":
		return Plain, true
	case "bold", "b":
		return Bold, true
	case "italic", "i":
		return Italic, true
	case "bold-italic", "bold_italic", "bi":
		return BoldItalic, true
	case "header", "h":
		return Header, true
	case "header-bold", "header_bold", "hb":
		return HeaderBold, true
	}
	return Plain, false
}

// tag returns the markup tag that selects s, empty for Plain.
func (s Style) tag() string {
	switch s {
	case Bold:
		return "b"
	case Italic:
		return "i"
	case BoldItalic:
		return "bi"
	case Header:
		return "h"
	case HeaderBold:
		return "hb"
	default:
		return ""
	}
}

// Ink is the logical colour of a run: the base text colour or the accent.
type Ink int

const (
	InkBase Ink = iota
	InkRed
)

func (k Ink) String() string {
	if k == InkRed {
		return "red"
	}
	return "base"
}

func (k Ink) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Color uses 0-255 RGB components.
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

var (
	Black = Color{}
	White = Color{R: 255, G: 255, B: 255}
	Red   = Color{R: 255}
)

// ParseColor parses #rgb or #rrggbb.
func ParseColor(value string) (Color, error) {
	v := value
	if len(v) > 0 && v[0] == '#' {
		v = v[1:]
	}
	switch len(v) {
	case 3:
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]})
	case 6:
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	var c Color
	for i, dst := range []*int{&c.R, &c.G, &c.B} {
		n, ok := hexByte(v[i*2 : i*2+2])
		if !ok {
			return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
		}
		*dst = n
	}
	return c, nil
}

func (c Color) Hex() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// RGBA implements color.Color so run colours can be handed straight to image/draw.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: clamp8(c.R), G: clamp8(c.G), B: clamp8(c.B), A: 0xff}.RGBA()
}

func clamp8(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}

func hexByte(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		var d byte
		switch {
		case ch >= '0' && ch <= '9':
			d = ch - '0'
		case ch >= 'a' && ch <= 'f':
			d = ch - 'a' + 10
		case ch >= 'A' && ch <= 'F':
			d = ch - 'A' + 10
		default:
			return 0, false
		}
		n = n*16 + int(d)
	}
	return n, true
}

// Run is a contiguous span of text with one resolved style and colour.
type Run struct {
	Text  string `json:"text"`
	Style Style  `json:"style"`
	Ink   Ink    `json:"ink"`
	Color Color  `json:"color"`
}

// SameLook reports whether two runs render identically apart from their text.
func (r Run) SameLook(o Run) bool {
	return r.Style == o.Style && r.Ink == o.Ink && r.Color == o.Color
}

// Options configures how untagged text and colour tags resolve.
type Options struct {
	DefaultStyle Style
	BaseColor    Color
	AccentColor  Color
}

// DefaultOptions renders untagged text plain black with a pure red accent.
func DefaultOptions() Options {
	return Options{DefaultStyle: Plain, BaseColor: Black, AccentColor: Red}
}

func (o Options) colorFor(k Ink) Color {
	if k == InkRed {
		return o.AccentColor
	}
	return o.BaseColor
}
