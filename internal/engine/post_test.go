package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/coreman2200/zonefx/internal/zone"
)

// estCurrent uses the same model as the limiter.
func estCurrent(f zone.Frame, chanmA float64, perZone int) float64 {
	total := 0.0
	for _, c := range f {
		total += float64(c.Sum()) * chanmA / 255 * float64(perZone)
	}
	return total
}

func TestBudgetClamp(t *testing.T) {
	// 4 zones of 10 LEDs, all white: 4 * 10 * 60mA = 2400mA
	p := NewPost(PostConfig{Brightness: 1, LEDsPerZone: 10, ChanMilliAmps: 20, BudgetMilliAmps: 1200, Knee: 0.9})
	out := p.Apply(zone.Broadcast(zone.White, 4))
	assert.LessOrEqual(t, estCurrent(out, 20, 10), 1200.0)
	assert.Greater(t, estCurrent(out, 20, 10), 1100.0)
}

func TestBudgetUnderKneeUntouched(t *testing.T) {
	p := NewPost(PostConfig{Brightness: 1, LEDsPerZone: 1, BudgetMilliAmps: 1000})
	in := zone.Broadcast(zone.RGB(10, 10, 10), 4)
	assert.Equal(t, in, p.Apply(in))
}

func TestWhiteCap(t *testing.T) {
	p := NewPost(PostConfig{Brightness: 1, WhiteCap: 0.5})
	out := p.Apply(zone.Frame{zone.White, zone.RGB(255, 0, 0)})
	assert.LessOrEqual(t, out[0].Sum(), 383)
	assert.Equal(t, zone.RGB(255, 0, 0), out[1])
}

func TestBrightness(t *testing.T) {
	p := NewPost(PostConfig{Brightness: 0.5})
	assert.Equal(t, zone.Frame{zone.RGB(128, 64, 0)}, p.Apply(zone.Frame{zone.RGB(255, 128, 0)}))
	p.SetBrightness(3)
	assert.Equal(t, 1.0, p.Brightness())
	p.SetBrightness(0)
	assert.True(t, p.Apply(zone.Frame{zone.White}).IsBlank())
}

func TestSoftStartRamps(t *testing.T) {
	p := NewPost(PostConfig{Brightness: 1, SoftStart: 100 * time.Millisecond, TickInterval: 10 * time.Millisecond})
	in := zone.Frame{zone.White}
	prev := -1
	for i := 0; i < 10; i++ {
		v := int(p.Apply(in)[0].R)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
	assert.Equal(t, zone.Frame{zone.White}, p.Apply(in))
	assert.Equal(t, zone.Frame{zone.White}, p.Apply(in))
}

func TestEngineSetBrightness(t *testing.T) {
	fx := newFixture(t, Options{})
	assert.Equal(t, 1.0, fx.eng.Brightness())
	fx.eng.SetBrightness(0.5)
	assert.Equal(t, 0.5, fx.eng.Brightness())
}
