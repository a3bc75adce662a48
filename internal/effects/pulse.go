package effects

import (
	"math"

	"github.com/coreman2200/zonefx/internal/zone"
)

// Base rates at Speed 1.0.
const (
	pulseRate     = 0.2
	pulseHueRate  = 0.02
	breathingRate = 0.1
	waveRate      = 0.3
	waveHueRate   = 0.02
)

// pulse swings every zone together through (sin(f*w)+1)/2.
type pulse struct{ base }

func newPulse(zones int) Effect {
	e := &pulse{}
	e.init(Pulse, zones)
	return e
}

func (e *pulse) ComputeFrame(frame uint64) zone.Frame {
	w := e.cfg.rate("rate", pulseRate)
	intensity := (math.Sin(float64(frame)*w) + 1) / 2
	hue := cycle(frame, e.cfg.rate("hue_rate", pulseHueRate))
	return zone.Broadcast(e.paint(hue, intensity), e.zones)
}

// breathing is a slower pulse; in rainbow mode each zone keeps its own hue.
type breathing struct{ base }

func newBreathing(zones int) Effect {
	e := &breathing{}
	e.init(Breathing, zones)
	return e
}

func (e *breathing) ComputeFrame(frame uint64) zone.Frame {
	w := e.cfg.rate("rate", breathingRate)
	intensity := (math.Sin(float64(frame)*w) + 1) / 2
	f := make(zone.Frame, e.zones)
	for i := range f {
		f[i] = e.paint(e.zoneHue(i, 0), intensity)
	}
	return f
}

// wave rolls a sine band across the zones.
type wave struct{ base }

func newWave(zones int) Effect {
	e := &wave{}
	e.init(Wave, zones)
	return e
}

func (e *wave) ComputeFrame(frame uint64) zone.Frame {
	n := float64(e.zones)
	travel := float64(frame) * e.cfg.rate("rate", waveRate)
	hueShift := cycle(frame, e.cfg.rate("hue_rate", waveHueRate)/n)
	f := make(zone.Frame, e.zones)
	for i := range f {
		pos := math.Mod(travel+2*float64(i), 4*n)
		intensity := (math.Sin(pos*0.5) + 1) / 2
		f[i] = e.paint(e.zoneHue(i, hueShift), intensity)
	}
	return f
}
