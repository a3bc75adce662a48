package effects

import (
	"math"

	"github.com/coreman2200/zonefx/internal/zone"
)

// Rainbow hue drift shared by the stepped effects.
const stepHueRate = 0.01

const (
	chaseHueRate    = 0.05
	rippleHuePerRad = 0.1
)

// stepped effects advance one animation step per frame at Speed 1.0.
type stepped struct{ base }

func (s *stepped) step(frame uint64) uint64 {
	return steps(frame, s.cfg.rate("rate", 1))
}

func (s *stepped) hue(frame uint64) float64 {
	return cycle(frame, s.cfg.rate("hue_rate", stepHueRate))
}

// zoneChase lights one zone at a time; neighbours fade by circular distance.
type zoneChase struct{ stepped }

func newZoneChase(zones int) Effect {
	e := &zoneChase{}
	e.init(ZoneChase, zones)
	return e
}

func (e *zoneChase) ComputeFrame(frame uint64) zone.Frame {
	n := e.zones
	active := int(e.step(frame) % uint64(n))
	hue := cycle(frame, e.cfg.rate("hue_rate", chaseHueRate))
	f := make(zone.Frame, n)
	for i := range f {
		d := absInt(i - active)
		if n-d < d {
			d = n - d
		}
		f[i] = e.paint(hue, fade(1-0.5*float64(d)))
	}
	return f
}

// starlight twinkles every zone on its own phase.
type starlight struct{ stepped }

func newStarlight(zones int) Effect {
	e := &starlight{}
	e.init(Starlight, zones)
	return e
}

func (e *starlight) ComputeFrame(frame uint64) zone.Frame {
	s := e.step(frame)
	hue := e.hue(frame)
	f := make(zone.Frame, e.zones)
	for i := range f {
		twinkle := (s + 17*uint64(i)) % 100
		intensity := 0.2 + 0.8*(math.Sin(0.1*float64(twinkle))+1)/2
		f[i] = e.paint(e.zoneHue(i, hue), intensity)
	}
	return f
}

// scanner bounces a head back and forth across the zones.
type scanner struct{ stepped }

func newScanner(zones int) Effect {
	e := &scanner{}
	e.init(Scanner, zones)
	return e
}

func (e *scanner) ComputeFrame(frame uint64) zone.Frame {
	n := e.zones
	pos := 0
	if n > 1 {
		span := uint64(2*n - 2)
		t := int(e.step(frame) % span)
		pos = t
		if t >= n {
			pos = 2*n - 2 - t
		}
	}
	hue := e.hue(frame)
	f := make(zone.Frame, n)
	for i := range f {
		f[i] = e.paint(hue, fade(1-0.7*float64(absInt(i-pos))))
	}
	return f
}

// strobe is on for three steps out of every five.
type strobe struct{ stepped }

func newStrobe(zones int) Effect {
	e := &strobe{}
	e.init(Strobe, zones)
	return e
}

func (e *strobe) ComputeFrame(frame uint64) zone.Frame {
	if e.step(frame)%5 >= 3 {
		return zone.Blank(e.zones)
	}
	return zone.Broadcast(e.paint(e.hue(frame), 1), e.zones)
}

// ripple grows a ring outward from the middle zone.
type ripple struct{ stepped }

func newRipple(zones int) Effect {
	e := &ripple{}
	e.init(Ripple, zones)
	return e
}

func (e *ripple) ComputeFrame(frame uint64) zone.Frame {
	n := e.zones
	center := n / 2
	radius := math.Mod(float64(e.step(frame))*0.5, float64(n+5))
	// rainbow hue follows the ring, shared by every zone
	hue := frac(radius * rippleHuePerRad)
	f := make(zone.Frame, n)
	for i := range f {
		dist := float64(absInt(i - center))
		f[i] = e.paint(hue, fade(1-0.5*math.Abs(dist-radius)))
	}
	return f
}

// raindrop drops a point across the zones, then rests for as many steps.
type raindrop struct{ stepped }

func newRaindrop(zones int) Effect {
	e := &raindrop{}
	e.init(Raindrop, zones)
	return e
}

func (e *raindrop) ComputeFrame(frame uint64) zone.Frame {
	n := e.zones
	drop := int(e.step(frame) % uint64(2*n))
	hue := e.hue(frame)
	f := make(zone.Frame, n)
	for i := range f {
		f[i] = e.paint(hue, fade(1-0.3*float64(absInt(i-drop))))
	}
	return f
}
