package effects

import (
	"github.com/coreman2200/zonefx/internal/press"
	"github.com/coreman2200/zonefx/internal/zone"
)

// reactive lights pressed zones; with invert set it darkens them instead.
type reactive struct {
	base
	src    press.Source
	invert bool
}

func newReactive(zones int, src press.Source) Effect {
	e := &reactive{src: src}
	e.init(Reactive, zones)
	return e
}

func newAntiReactive(zones int, src press.Source) Effect {
	e := &reactive{src: src, invert: true}
	e.init(AntiReactive, zones)
	return e
}

func (e *reactive) ComputeFrame(frame uint64) zone.Frame {
	var pressed press.ZoneSet
	if e.src != nil {
		pressed = e.src.Pressed(frame)
	}
	hue := cycle(frame, e.cfg.rate("hue_rate", stepHueRate))
	f := make(zone.Frame, e.zones)
	for i := range f {
		if pressed.Has(i) != e.invert {
			f[i] = e.paint(e.zoneHue(i, hue), 1)
		}
	}
	return f
}
