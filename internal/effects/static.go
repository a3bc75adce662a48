package effects

import "github.com/coreman2200/zonefx/internal/zone"

// staticColor holds the base color on every zone; in rainbow mode the
// zones spread evenly over the hue wheel.
type staticColor struct{ base }

func newStaticColor(zones int) Effect {
	e := &staticColor{}
	e.init(StaticColor, zones)
	return e
}

func (e *staticColor) ComputeFrame(uint64) zone.Frame {
	f := make(zone.Frame, e.zones)
	for i := range f {
		f[i] = e.paint(e.zoneHue(i, 0), 1)
	}
	return f
}

type staticZoneColors struct{ base }

func newStaticZoneColors(zones int) Effect {
	e := &staticZoneColors{}
	e.init(StaticZoneColors, zones)
	return e
}

// ComputeFrame uses the configured per-zone colors, or the base color on
// every zone when their count does not match.
func (e *staticZoneColors) ComputeFrame(uint64) zone.Frame {
	f, err := zone.NewFrame(e.zones, e.cfg.ZoneColors...)
	if err != nil {
		return zone.Broadcast(e.cfg.BaseColor, e.zones)
	}
	return f
}

type staticRainbow struct{ base }

func newStaticRainbow(zones int) Effect {
	e := &staticRainbow{}
	e.init(StaticRainbow, zones)
	return e
}

func (e *staticRainbow) ComputeFrame(uint64) zone.Frame {
	f := make(zone.Frame, e.zones)
	for i := range f {
		f[i] = zone.FromHSV(e.zoneHue(i, 0), 1, 1)
	}
	return f
}

type staticGradient struct{ base }

func newStaticGradient(zones int) Effect {
	e := &staticGradient{}
	e.init(StaticGradient, zones)
	return e
}

func (e *staticGradient) ComputeFrame(uint64) zone.Frame {
	f := make(zone.Frame, e.zones)
	if e.zones == 1 {
		f[0] = e.cfg.BaseColor
		return f
	}
	for i := range f {
		f[i] = zone.Mix(e.cfg.BaseColor, e.cfg.GradientEnd, float64(i)/float64(e.zones-1))
	}
	return f
}
