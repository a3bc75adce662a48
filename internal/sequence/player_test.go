package sequence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/zonefx/internal/config"
)

func TestEnvelopeEval(t *testing.T) {
	env := Envelope{Keys: []Keyframe{
		{T: 0, V: 0, Ease: "linear"},
		{T: 10, V: 10, Ease: "linear"},
	}}
	assert.Equal(t, 0.0, env.Eval(-1))
	assert.Equal(t, 0.0, env.Eval(0))
	assert.InDelta(t, 5.0, env.Eval(5), 1e-5)
	assert.Equal(t, 10.0, env.Eval(10))
	assert.Equal(t, 10.0, env.Eval(11))
	assert.Equal(t, 0.0, Envelope{}.Eval(3))
}

func TestEnvelopeEasing(t *testing.T) {
	for _, kind := range []string{"smooth", "cubic"} {
		env := Envelope{Keys: []Keyframe{{T: 0, V: 0, Ease: kind}, {T: 1, V: 1}}}
		assert.InDelta(t, 0.5, env.Eval(0.5), 1e-5, kind)
		assert.Less(t, env.Eval(0.25), 0.25, kind)
		assert.Greater(t, env.Eval(0.75), 0.75, kind)
	}
}

type recorder struct {
	selected   []string
	brightness []float64
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		Select:        func(name string, _ config.EffectSettings) { r.selected = append(r.selected, name) },
		SetBrightness: func(v float64) { r.brightness = append(r.brightness, v) },
	}
}

func clip(effect string, d float64) Clip {
	return Clip{Name: effect, Settings: config.EffectSettings{Name: effect}, DurationS: d}
}

func TestPlayerAdvancesClips(t *testing.T) {
	r := &recorder{}
	p := NewPlayer(r.hooks())
	require.NoError(t, p.Load(Program{Clips: []Clip{clip("Pulse", 2), clip("Strobe", 1)}}))
	p.Start()
	assert.Equal(t, Running, p.State())
	assert.Equal(t, []string{"Pulse"}, r.selected)

	p.Tick(1.5)
	assert.Equal(t, 0, p.Clip())
	p.Tick(0.5)
	assert.Equal(t, 1, p.Clip())
	assert.Equal(t, []string{"Pulse", "Strobe"}, r.selected)

	p.Tick(1)
	assert.Equal(t, Idle, p.State())
	p.Tick(1)
	assert.Len(t, r.selected, 2)
}

func TestPlayerLoops(t *testing.T) {
	r := &recorder{}
	p := NewPlayer(r.hooks())
	require.NoError(t, p.Load(Program{Loop: true, Clips: []Clip{clip("A", 1), clip("B", 1)}}))
	p.Start()
	for i := 0; i < 4; i++ {
		p.Tick(1)
	}
	assert.Equal(t, []string{"A", "B", "A", "B", "A"}, r.selected)
	assert.Equal(t, Running, p.State())
	assert.Equal(t, 0, p.Clip())
}

func TestPlayerPauseResume(t *testing.T) {
	r := &recorder{}
	p := NewPlayer(r.hooks())
	require.NoError(t, p.Load(Program{Clips: []Clip{clip("A", 1), clip("B", 1)}}))
	p.Start()
	p.Pause()
	p.Tick(5)
	assert.Equal(t, 0, p.Clip())
	p.Resume()
	p.Tick(1)
	assert.Equal(t, 1, p.Clip())
}

func TestPlayerSeek(t *testing.T) {
	r := &recorder{}
	p := NewPlayer(r.hooks())
	require.NoError(t, p.Load(Program{Clips: []Clip{clip("A", 2), clip("B", 2)}}))
	p.Start()
	p.Seek(3)
	assert.Equal(t, 1, p.Clip())
	p.Seek(100)
	assert.Equal(t, 1, p.Clip())
	assert.Equal(t, []string{"A", "B", "B"}, r.selected)
}

func TestSeekOnlySwitchesWhileRunning(t *testing.T) {
	r := &recorder{}
	p := NewPlayer(r.hooks())
	require.NoError(t, p.Load(Program{Clips: []Clip{clip("A", 2), clip("B", 2), clip("C", 2)}}))

	p.Seek(3)
	assert.Equal(t, 1, p.Clip())
	assert.Empty(t, r.selected)
	p.Start()
	assert.Equal(t, []string{"B"}, r.selected)

	p.Pause()
	p.Seek(5)
	assert.Equal(t, []string{"B"}, r.selected)
	p.Resume()
	assert.Equal(t, []string{"B", "C"}, r.selected)
	p.Pause()
	p.Resume()
	assert.Equal(t, []string{"B", "C"}, r.selected)
}

func TestPlayerBrightnessEnvelope(t *testing.T) {
	r := &recorder{}
	p := NewPlayer(r.hooks())
	c := clip("A", 2)
	c.Brightness = Envelope{Keys: []Keyframe{{T: 0, V: 0}, {T: 2, V: 1}}}
	require.NoError(t, p.Load(Program{Clips: []Clip{c}}))
	p.Start()
	p.Tick(1)
	p.Tick(1)
	require.Len(t, r.brightness, 3)
	assert.Equal(t, 0.0, r.brightness[0])
	assert.InDelta(t, 0.5, r.brightness[1], 1e-5)
	assert.Equal(t, 1.0, r.brightness[2])
}

func TestLoadRejects(t *testing.T) {
	p := NewPlayer(Hooks{})
	assert.Equal(t, ErrEmptyProgram, p.Load(Program{}))
	assert.Error(t, p.Load(Program{Clips: []Clip{clip("A", 0)}}))
	assert.Error(t, p.Load(Program{Clips: []Clip{{DurationS: 1}}}))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "show.yaml")
	src := `version: seq.v1
loop: true
clips:
  - name: intro
    duration_s: 4
    effect:
      name: Breathing
      base_color: "#ff8000"
    brightness:
      keys:
        - {t: 0, v: 0, ease: smooth}
        - {t: 2, v: 1}
  - duration_s: 8
    effect: {name: Rainbow Zones Cycle, speed: 1.5}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	prog, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, prog.Loop)
	require.Len(t, prog.Clips, 2)
	assert.Equal(t, "Breathing", prog.Clips[0].Settings.Name)
	assert.Equal(t, "#ff8000", prog.Clips[0].Settings.BaseColor)
	assert.Len(t, prog.Clips[0].Brightness.Keys, 2)
	assert.Equal(t, 1.5, prog.Clips[1].Settings.Speed)
	assert.NoError(t, NewPlayer(Hooks{}).Load(prog))
}
