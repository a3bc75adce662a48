// Package effects holds the zone lighting effects. Every effect computes a
// frame purely from its local frame counter and configuration.
package effects

import (
	"errors"
	"math"
	"sync/atomic"

	"github.com/coreman2200/zonefx/internal/zone"
)

var ErrRunning = errors.New("effect already running")

// Effect is one running lighting pattern.
type Effect interface {
	Name() string
	// Configure installs cfg; only allowed before Start.
	Configure(cfg Config) error
	Start()
	Stop()
	// ComputeFrame must be deterministic in (frame, config, zone count).
	ComputeFrame(frame uint64) zone.Frame
	IsRunning() bool
}

const (
	StaticColor       = "Static Color"
	Pulse             = "Pulse"
	Breathing         = "Breathing"
	ColorCycle        = "Color Cycle"
	RainbowZonesCycle = "Rainbow Zones Cycle"
	ZoneChase         = "Zone Chase"
	Starlight         = "Starlight"
	Scanner           = "Scanner"
	Strobe            = "Strobe"
	Ripple            = "Ripple"
	Wave              = "Wave"
	Raindrop          = "Raindrop"
	Reactive          = "Reactive"
	AntiReactive      = "Anti-Reactive"
	StaticZoneColors  = "Static Zone Colors"
	StaticRainbow     = "Static Rainbow"
	StaticGradient    = "Static Gradient"
)

// DefaultColor is the fallback base color of each effect, used when a
// configured hex color fails to parse.
func DefaultColor(name string) zone.Color {
	switch name {
	case Pulse:
		return zone.RGB(0xff, 0x00, 0xff)
	case ZoneChase:
		return zone.RGB(0xff, 0xff, 0x00)
	case Scanner:
		return zone.RGB(0xff, 0x00, 0x00)
	case Ripple:
		return zone.RGB(0x00, 0xff, 0xff)
	case Wave:
		return zone.RGB(0x00, 0x64, 0xff)
	case Raindrop:
		return zone.RGB(0x00, 0x80, 0xff)
	default:
		return zone.White
	}
}

type base struct {
	name    string
	zones   int
	cfg     Config
	running atomic.Bool
}

func (b *base) init(name string, zones int) {
	if zones < 1 {
		zones = 1
	}
	b.name = name
	b.zones = zones
	b.cfg = DefaultConfig()
	b.cfg.BaseColor = DefaultColor(name)
}

func (b *base) Name() string { return b.name }

func (b *base) Configure(cfg Config) error {
	if b.running.Load() {
		return ErrRunning
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	b.cfg = cfg.Clone()
	return nil
}

func (b *base) Start()          { b.running.Store(true) }
func (b *base) Stop()           { b.running.Store(false) }
func (b *base) IsRunning() bool { return b.running.Load() }

// Zones is the fixed zone count of this instance.
func (b *base) Zones() int { return b.zones }

// paint picks the color source for one zone: base color scaled by
// intensity, or the hue at full saturation with intensity as value.
func (b *base) paint(hue, intensity float64) zone.Color {
	if b.cfg.RainbowMode {
		return zone.FromHSV(hue, 1, intensity)
	}
	return b.cfg.BaseColor.Scale(intensity)
}

// zoneHue spreads the hue wheel across zones with a common offset.
func (b *base) zoneHue(i int, offset float64) float64 {
	return frac(float64(i)/float64(b.zones) + offset)
}

// cycle is (frame*k) mod 1. When 1/k is a whole number the frame is
// reduced modulo that period first, so the result repeats exactly.
func cycle(frame uint64, k float64) float64 {
	if !(k > 0) || math.IsInf(k, 0) {
		return 0
	}
	p := 1 / k
	if r := math.Round(p); r >= 1 && math.Abs(p-r) <= 1e-9*r && r < math.MaxUint32 {
		return float64(frame%uint64(r)) / r
	}
	return frac(float64(frame) * k)
}

// steps scales the frame counter into discrete animation steps.
func steps(frame uint64, rate float64) uint64 {
	if rate == 1 {
		return frame
	}
	return uint64(float64(frame) * rate)
}

func frac(x float64) float64 {
	return x - math.Floor(x)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func fade(x float64) float64 {
	return math.Max(0, x)
}
