// Package tests holds wiring check patterns for a freshly installed device.
// They run through the engine like any effect but are kept out of the
// effect menu.
package tests

import (
	"sync/atomic"

	"github.com/coreman2200/zonefx/internal/effects"
	"github.com/coreman2200/zonefx/internal/zone"
)

type Kind string

const (
	ZoneSweep Kind = "zone_sweep"
	RGBTest   Kind = "rgb_channels"
	ZoneOrder Kind = "zone_order"
)

// DefaultHold is how many frames each step is shown.
const DefaultHold = 15

var kinds = []Kind{ZoneSweep, RGBTest, ZoneOrder}

// Registry returns the check patterns keyed by kind.
func Registry() *effects.Registry {
	r := effects.NewRegistry()
	for _, k := range kinds {
		k := k
		r.Register(string(k), func(env effects.Env) effects.Effect { return NewPattern(k, env.Zones) })
	}
	return r
}

// Pattern is a looping check pattern.
type Pattern struct {
	kind    Kind
	zones   int
	hold    uint64
	running atomic.Bool
}

func NewPattern(k Kind, zones int) *Pattern {
	if zones < 1 {
		zones = 1
	}
	return &Pattern{kind: k, zones: zones, hold: DefaultHold}
}

func (p *Pattern) Name() string { return string(p.kind) }

// Configure reads the step length from Params["hold"].
func (p *Pattern) Configure(cfg effects.Config) error {
	if p.running.Load() {
		return effects.ErrRunning
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if h, ok := cfg.Params["hold"]; ok && h >= 1 {
		p.hold = uint64(h)
	}
	return nil
}

func (p *Pattern) Start()          { p.running.Store(true) }
func (p *Pattern) Stop()           { p.running.Store(false) }
func (p *Pattern) IsRunning() bool { return p.running.Load() }

// Steps is the length of one pass of the pattern.
func (p *Pattern) Steps() int {
	switch p.kind {
	case ZoneSweep:
		return p.zones
	case RGBTest:
		return 3
	case ZoneOrder:
		return p.zones
	default:
		return 1
	}
}

func (p *Pattern) ComputeFrame(frame uint64) zone.Frame {
	f := zone.Blank(p.zones)
	step := int((frame / p.hold) % uint64(p.Steps()))
	switch p.kind {
	case ZoneSweep:
		f[step] = zone.White
	case RGBTest:
		c := [3]zone.Color{zone.RGB(255, 0, 0), zone.RGB(0, 255, 0), zone.RGB(0, 0, 255)}[step]
		for i := range f {
			f[i] = c
		}
	case ZoneOrder:
		// zones up to step lit, dimmer toward the start
		for i := 0; i <= step; i++ {
			f[i] = zone.White.Scale(float64(i+1) / float64(step+1))
		}
	}
	return f
}
