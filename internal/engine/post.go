package engine

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/coreman2200/zonefx/internal/zone"
)

// PostConfig tunes the output stage applied after an effect computes a frame.
//   - Brightness: global scale in [0,1]
//   - WhiteCap: per-zone cap on r+g+b as a fraction of full white (0 or >=1 disables)
//   - LEDsPerZone, ChanMilliAmps, BudgetMilliAmps: global current budget
//     (BudgetMilliAmps 0 disables); scaling starts softly at Knee*budget
//   - SoftStart: brightness ramps from zero over this long after startup
//   - TickInterval: time represented by one Apply call
type PostConfig struct {
	Brightness      float64
	WhiteCap        float64
	LEDsPerZone     int
	ChanMilliAmps   float64
	BudgetMilliAmps float64
	Knee            float64
	SoftStart       time.Duration
	TickInterval    time.Duration
}

// Post applies brightness, soft start and the power limiter. It is only
// used under the engine lock.
type Post struct {
	cfg  PostConfig
	ramp *gween.Tween
	gain float64
	dt   float32
}

func NewPost(cfg PostConfig) *Post {
	if cfg.Brightness < 0 || cfg.Brightness > 1 {
		cfg.Brightness = clampUnit(cfg.Brightness)
	}
	if cfg.LEDsPerZone <= 0 {
		cfg.LEDsPerZone = 1
	}
	if cfg.ChanMilliAmps <= 0 {
		cfg.ChanMilliAmps = 20
	}
	if cfg.Knee <= 0 || cfg.Knee >= 1 {
		cfg.Knee = 0.9
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second / 30
	}
	p := &Post{cfg: cfg, gain: 1, dt: float32(cfg.TickInterval.Seconds())}
	if cfg.SoftStart > 0 {
		p.ramp = gween.New(0, 1, float32(cfg.SoftStart.Seconds()), ease.OutQuad)
		p.gain = 0
	}
	return p
}

func (p *Post) SetBrightness(v float64) { p.cfg.Brightness = clampUnit(v) }

func (p *Post) Brightness() float64 { return p.cfg.Brightness }

// Apply returns the processed copy of f.
func (p *Post) Apply(f zone.Frame) zone.Frame {
	if p.ramp != nil {
		g, done := p.ramp.Update(p.dt)
		p.gain = float64(g)
		if done {
			p.ramp = nil
			p.gain = 1
		}
	}
	out := make(zone.Frame, len(f))
	scale := p.cfg.Brightness * p.gain
	for i, c := range f {
		out[i] = c.Scale(scale)
	}
	p.whiteCap(out)
	p.budget(out)
	return out
}

func (p *Post) whiteCap(f zone.Frame) {
	wc := p.cfg.WhiteCap
	if wc <= 0 || wc >= 1 {
		return
	}
	limit := wc * 3 * 255
	for i, c := range f {
		s := float64(c.Sum())
		if s > limit {
			f[i] = scaleDown(c, limit/s)
		}
	}
}

// budget estimates strip current and scales the whole frame under the
// budget, easing in between Knee*budget and budget.
func (p *Post) budget(f zone.Frame) {
	budget := p.cfg.BudgetMilliAmps
	if budget <= 0 {
		return
	}
	perUnit := p.cfg.ChanMilliAmps / 255 * float64(p.cfg.LEDsPerZone)
	var total float64
	for _, c := range f {
		total += float64(c.Sum()) * perUnit
	}
	if total <= 0 {
		return
	}
	ratio := total / budget
	knee := p.cfg.Knee
	if ratio <= knee {
		return
	}
	var s float64
	if ratio <= 1 {
		minS := budget / total
		t := (ratio - knee) / (1 - knee)
		s = 1 - t*(1-minS)
	} else {
		s = budget / total
	}
	if s >= 1 {
		return
	}
	for i, c := range f {
		f[i] = scaleDown(c, s)
	}
}

// scaleDown scales without rounding up, so a budget is never exceeded.
func scaleDown(c zone.Color, s float64) zone.Color {
	return zone.RGB(uint8(float64(c.R)*s), uint8(float64(c.G)*s), uint8(float64(c.B)*s))
}

func clampUnit(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
