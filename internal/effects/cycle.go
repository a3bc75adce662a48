package effects

import "github.com/coreman2200/zonefx/internal/zone"

const (
	colorCycleRate   = 0.01
	rainbowZonesRate = 0.05
)

// colorCycle walks one hue around the wheel on every zone. At the
// nominal rate of 0.01 it repeats every 100 frames.
type colorCycle struct{ base }

func newColorCycle(zones int) Effect {
	e := &colorCycle{}
	e.init(ColorCycle, zones)
	return e
}

func (e *colorCycle) ComputeFrame(frame uint64) zone.Frame {
	hue := cycle(frame, e.cfg.rate("hue_rate", colorCycleRate))
	return zone.Broadcast(zone.FromHSV(hue, 1, 1), e.zones)
}

// rainbowZonesCycle spreads the wheel over the zones and rotates it:
// hue_i = ((i + frame*k)/N) mod 1.
type rainbowZonesCycle struct{ base }

func newRainbowZonesCycle(zones int) Effect {
	e := &rainbowZonesCycle{}
	e.init(RainbowZonesCycle, zones)
	return e
}

func (e *rainbowZonesCycle) ComputeFrame(frame uint64) zone.Frame {
	k := e.cfg.rate("hue_rate", rainbowZonesRate)
	shift := cycle(frame, k/float64(e.zones))
	f := make(zone.Frame, e.zones)
	for i := range f {
		f[i] = zone.FromHSV(e.zoneHue(i, shift), 1, 1)
	}
	return f
}
