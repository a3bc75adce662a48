package zone

import (
	"errors"
	"fmt"
)

// DefaultCount is the zone count of the stock four-zone keyboard.
const DefaultCount = 4

var ErrZoneCountMismatch = errors.New("zone count mismatch")

// Frame is one color per zone, in zone order.
type Frame []Color

// NewFrame builds a frame from explicit per-zone colors.
func NewFrame(n int, colors ...Color) (Frame, error) {
	if n < 1 || len(colors) != n {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrZoneCountMismatch, n, len(colors))
	}
	f := make(Frame, n)
	copy(f, colors)
	return f, nil
}

// Broadcast fills all n zones with c.
func Broadcast(c Color, n int) Frame {
	f := make(Frame, n)
	for i := range f {
		f[i] = c
	}
	return f
}

// Blank is an all-black frame.
func Blank(n int) Frame {
	return make(Frame, n)
}

func (f Frame) Len() int { return len(f) }

func (f Frame) Clone() Frame {
	out := make(Frame, len(f))
	copy(out, f)
	return out
}

func (f Frame) Equal(o Frame) bool {
	if len(f) != len(o) {
		return false
	}
	for i := range f {
		if f[i] != o[i] {
			return false
		}
	}
	return true
}

// IsBlank reports whether every zone is off.
func (f Frame) IsBlank() bool {
	for _, c := range f {
		if c != Black {
			return false
		}
	}
	return true
}

// Hex lists the zone colors as "#rrggbb" strings.
func (f Frame) Hex() []string {
	out := make([]string, len(f))
	for i, c := range f {
		out[i] = c.Hex()
	}
	return out
}

// RGB packs the frame as r,g,b byte triplets.
func (f Frame) RGB() []byte {
	out := make([]byte, 0, len(f)*3)
	for _, c := range f {
		out = append(out, c.R, c.G, c.B)
	}
	return out
}
