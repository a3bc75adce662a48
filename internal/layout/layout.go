// Package layout describes the preview drawing of the zoned keyboard as a
// flat list of elements, each tied to the zone it shows.
package layout

import (
	"fmt"

	"github.com/coreman2200/zonefx/internal/zone"
)

// Kind tags what an element draws.
type Kind string

const (
	Key            Kind = "key"
	ZoneBackground Kind = "zone_background"
	Label          Kind = "label"
	Divider        Kind = "divider"
	Outline        Kind = "outline"
)

// NoZone marks elements that belong to the whole device.
const NoZone = -1

type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type Element struct {
	Kind Kind   `json:"kind"`
	Zone int    `json:"zone"`
	Rect Rect   `json:"rect"`
	Text string `json:"text,omitempty"`
}

type Layout struct {
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Zones    int       `json:"zones"`
	Elements []Element `json:"elements"`
}

const (
	canvasW   = 480
	canvasH   = 140
	marginX   = 20
	marginY   = 12
	rowH      = 14
	rowGap    = 1
	keyGap    = 1
	rowUnits  = 15
	boardH    = 90
	labelDrop = 8
)

type keySpec struct {
	units   float64
	special string
}

const (
	splitSpace = "split_space"
	arrowStack = "arrow_stack"
)

func repeat(n int, units float64) []keySpec {
	out := make([]keySpec, n)
	for i := range out {
		out[i] = keySpec{units: units}
	}
	return out
}

func row(parts ...[]keySpec) []keySpec {
	var out []keySpec
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// six rows of fifteen units each
var rows = [][]keySpec{
	repeat(15, 1),
	row(repeat(13, 1), []keySpec{{units: 2}}),
	row([]keySpec{{units: 1.5}}, repeat(12, 1), []keySpec{{units: 1.5}}),
	row([]keySpec{{units: 1.8}}, repeat(11, 1), []keySpec{{units: 2.2}}),
	row([]keySpec{{units: 2.2}}, repeat(10, 1), []keySpec{{units: 2.8}}),
	{
		{units: 1.2}, {units: 1.2},
		{units: 7.2, special: splitSpace},
		{units: 1.2}, {units: 1.2},
		{units: 1}, {units: 1, special: arrowStack}, {units: 1},
	},
}

// Keyboard lays out a compact keyboard split left to right into zones
// equal-width columns. A key belongs to the column its left edge falls in;
// the space bar is split across its two halves, which light zones 2 and 3
// on the default four-zone board.
func Keyboard(zones int) Layout {
	if zones < 1 {
		zones = 1
	}
	boardW := float64(canvasW - 2*marginX)
	unitW := (boardW - (rowUnits-1)*keyGap) / rowUnits
	zoneW := boardW / float64(zones)
	zoneAt := func(x float64) int {
		z := int((x - marginX) / zoneW)
		return clampZone(z, zones)
	}

	l := Layout{Width: canvasW, Height: canvasH, Zones: zones}
	for z := 0; z < zones; z++ {
		l.Elements = append(l.Elements, Element{
			Kind: ZoneBackground,
			Zone: z,
			Rect: Rect{X: marginX + float64(z)*zoneW, Y: marginY, W: zoneW, H: boardH},
		})
	}

	for r, keys := range rows {
		y := float64(marginY + r*(rowH+rowGap))
		x := float64(marginX)
		for _, k := range keys {
			w := unitW*k.units + keyGap*(k.units-1)
			switch k.special {
			case arrowStack:
				z := zoneAt(x)
				half := float64(rowH / 2)
				l.Elements = append(l.Elements,
					Element{Kind: Key, Zone: z, Rect: Rect{X: x, Y: y, W: w, H: half}},
					Element{Kind: Key, Zone: z, Rect: Rect{X: x, Y: y + half, W: w, H: rowH - half}},
				)
			case splitSpace:
				left := zoneAt(x)
				right := zoneAt(x + w/2)
				if zones == zone.DefaultCount {
					left, right = 2, 3
				}
				l.Elements = append(l.Elements,
					Element{Kind: Key, Zone: left, Rect: Rect{X: x, Y: y, W: w / 2, H: rowH}},
					Element{Kind: Key, Zone: right, Rect: Rect{X: x + w/2, Y: y, W: w / 2, H: rowH}},
				)
			default:
				l.Elements = append(l.Elements, Element{Kind: Key, Zone: zoneAt(x), Rect: Rect{X: x, Y: y, W: w, H: rowH}})
			}
			x += w + keyGap
		}
	}

	for z := 1; z < zones; z++ {
		x := marginX + float64(z)*zoneW
		l.Elements = append(l.Elements, Element{Kind: Divider, Zone: NoZone, Rect: Rect{X: x, Y: marginY, H: boardH}})
	}
	for z := 0; z < zones; z++ {
		l.Elements = append(l.Elements, Element{
			Kind: Label,
			Zone: z,
			Rect: Rect{X: marginX + (float64(z)+0.5)*zoneW, Y: marginY + boardH + labelDrop},
			Text: fmt.Sprintf("Z%d", z+1),
		})
	}
	l.Elements = append(l.Elements, Element{
		Kind: Outline,
		Zone: NoZone,
		Rect: Rect{X: marginX - 2, Y: marginY - 2, W: boardW + 4, H: boardH + 4},
	})
	return l
}

func clampZone(z, zones int) int {
	if z < 0 {
		return 0
	}
	if z > zones-1 {
		return zones - 1
	}
	return z
}

// Of returns the elements of kind k.
func (l Layout) Of(k Kind) []Element {
	var out []Element
	for _, e := range l.Elements {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Style is how one element should be drawn for a given frame.
type Style struct {
	Fill    string  `json:"fill,omitempty"`
	Stroke  string  `json:"stroke,omitempty"`
	Width   float64 `json:"width,omitempty"`
	Dimmed  bool    `json:"dimmed,omitempty"`
	Element int     `json:"element"`
}

// litThreshold is the channel sum above which a key is drawn as lit.
const litThreshold = 50

var (
	keyOff     = "#303030"
	strokeLit  = "#ffffff"
	strokeDark = "#606060"
	strokeIdle = "#505050"
	dividerOn  = "#666666"
	outlineOn  = "#888888"
)

// Paint styles every element for frame f. Keys whose zone is outside f
// keep the idle look.
func (l Layout) Paint(f zone.Frame) []Style {
	out := make([]Style, 0, len(l.Elements))
	for i, e := range l.Elements {
		s := Style{Element: i}
		switch e.Kind {
		case Key:
			if e.Zone < 0 || e.Zone >= len(f) {
				s.Fill, s.Stroke, s.Width, s.Dimmed = keyOff, strokeIdle, 1, true
				break
			}
			c := f[e.Zone]
			s.Fill = c.Hex()
			if c.Sum() > litThreshold {
				s.Stroke, s.Width = strokeLit, 2
			} else {
				s.Stroke, s.Width = strokeDark, 1
			}
		case ZoneBackground:
			if e.Zone >= 0 && e.Zone < len(f) {
				s.Fill = f[e.Zone].Scale(0.25).Hex()
			}
		case Divider:
			s.Stroke, s.Width = dividerOn, 1
		case Outline:
			s.Stroke, s.Width = outlineOn, 2
		case Label:
			s.Fill = "#aaaaaa"
		}
		out = append(out, s)
	}
	return out
}
