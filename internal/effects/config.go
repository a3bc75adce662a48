package effects

import (
	"errors"
	"fmt"
	"math"

	"github.com/coreman2200/zonefx/internal/zone"
)

var ErrInvalidConfig = errors.New("invalid effect config")

// Config is the immutable input of one effect instance.
type Config struct {
	BaseColor   zone.Color
	RainbowMode bool
	// Speed multiplies every base rate; 1.0 is the nominal speed.
	Speed float64
	// Params override per-effect rate constants, e.g. "rate" or "hue_rate".
	Params map[string]float64
	// ZoneColors feeds Static Zone Colors.
	ZoneColors []zone.Color
	// GradientEnd is the far end of Static Gradient.
	GradientEnd zone.Color
}

func DefaultConfig() Config {
	return Config{BaseColor: zone.White, Speed: 1}
}

func (c Config) Validate() error {
	if math.IsNaN(c.Speed) || math.IsInf(c.Speed, 0) || c.Speed <= 0 {
		return fmt.Errorf("%w: speed %v must be positive", ErrInvalidConfig, c.Speed)
	}
	for k, v := range c.Params {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: param %s is not finite", ErrInvalidConfig, k)
		}
	}
	return nil
}

// Clone deep-copies the config so later caller edits are not observed.
func (c Config) Clone() Config {
	out := c
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	if c.ZoneColors != nil {
		out.ZoneColors = append([]zone.Color(nil), c.ZoneColors...)
	}
	return out
}

// rate returns a positive override from Params, or def, scaled by Speed.
func (c Config) rate(name string, def float64) float64 {
	if v, ok := c.Params[name]; ok && v > 0 {
		def = v
	}
	return def * c.Speed
}

// SpeedFromPercent maps a 1..100 slider onto the 1..10 internal scale,
// where 5 is nominal speed 1.0.
func SpeedFromPercent(p int) float64 {
	internal := int(float64(p)/10.0 + 0.5)
	if internal < 1 {
		internal = 1
	}
	if internal > 10 {
		internal = 10
	}
	return float64(internal) / 5.0
}

// PercentFromSpeed is the inverse of SpeedFromPercent on its range.
func PercentFromSpeed(s float64) int {
	p := int(math.Round(s * 5 * 10))
	if p < 10 {
		p = 10
	}
	if p > 100 {
		p = 100
	}
	return p
}
