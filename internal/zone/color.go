package zone

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrColorParse is returned for any hex string that is not "#rrggbb".
var ErrColorParse = errors.New("malformed hex color")

// ParseError carries the offending input of a failed ParseHex.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %q", ErrColorParse, e.Input)
}

func (e *ParseError) Unwrap() error { return ErrColorParse }

// Color is one 8-bit RGB zone color.
type Color struct {
	R, G, B uint8
}

var (
	Black = Color{}
	White = Color{R: 0xff, G: 0xff, B: 0xff}
)

func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// ParseHex accepts exactly '#' followed by six hex digits, any case.
func ParseHex(s string) (Color, error) {
	if len(s) != 7 || s[0] != '#' {
		return Color{}, &ParseError{Input: s}
	}
	for i := 1; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return Color{}, &ParseError{Input: s}
		}
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, &ParseError{Input: s}
	}
	return fromColorful(c), nil
}

// ParseHexOr returns fallback when s does not parse.
func ParseHexOr(s string, fallback Color) Color {
	c, err := ParseHex(s)
	if err != nil {
		return fallback
	}
	return c
}

// MustParseHex panics on malformed input. Intended for package-level defaults.
func MustParseHex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// Hex renders the canonical lowercase "#rrggbb" form.
func (c Color) Hex() string {
	return c.colorful().Hex()
}

func (c Color) String() string { return c.Hex() }

// Scale multiplies every channel by f, saturating to [0,255].
func (c Color) Scale(f float64) Color {
	return Color{
		R: saturate(float64(c.R) * f),
		G: saturate(float64(c.G) * f),
		B: saturate(float64(c.B) * f),
	}
}

// Add sums two colors channel-wise without wrapping.
func (c Color) Add(o Color) Color {
	return Color{
		R: saturate(float64(c.R) + float64(o.R)),
		G: saturate(float64(c.G) + float64(o.G)),
		B: saturate(float64(c.B) + float64(o.B)),
	}
}

// Mix blends a toward b by alpha in [0,1].
func Mix(a, b Color, alpha float64) Color {
	if alpha <= 0 {
		return a
	}
	if alpha >= 1 {
		return b
	}
	af := 1.0 - alpha
	return Color{
		R: saturate(float64(a.R)*af + float64(b.R)*alpha),
		G: saturate(float64(a.G)*af + float64(b.G)*alpha),
		B: saturate(float64(a.B)*af + float64(b.B)*alpha),
	}
}

// FromHSV converts hue in [0,1), saturation and value in [0,1].
func FromHSV(h, s, v float64) Color {
	h = math.Mod(h, 1)
	if h < 0 {
		h += 1
	}
	return fromColorful(colorful.Hsv(h*360, clamp01(s), clamp01(v)))
}

// HSV returns hue in [0,1), saturation and value in [0,1].
func (c Color) HSV() (h, s, v float64) {
	h, s, v = c.colorful().Hsv()
	return h / 360, s, v
}

// Sum is r+g+b, used by power limiting.
func (c Color) Sum() int {
	return int(c.R) + int(c.G) + int(c.B)
}

// NRGBA satisfies drawers that take image/color values.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func fromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return Color{R: r, G: g, B: b}
}

func saturate(x float64) uint8 {
	if math.IsNaN(x) || x <= 0 {
		return 0
	}
	if x >= 255 {
		return 255
	}
	return uint8(x + 0.5)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
