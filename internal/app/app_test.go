package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/zonefx/internal/config"
	"github.com/coreman2200/zonefx/internal/effects"
	"github.com/coreman2200/zonefx/internal/sequence"
	"github.com/coreman2200/zonefx/internal/tests"
	"github.com/coreman2200/zonefx/internal/ws"
	"github.com/coreman2200/zonefx/internal/zone"
)

func testConfig(t *testing.T) (*config.Config, string) {
	t.Helper()
	c := config.Default()
	c.Driver = "none"
	c.FPS = 100
	c.Power.SoftStartMs = 0
	c.Effect = config.EffectSettings{}
	return c, filepath.Join(t.TempDir(), "config.yaml")
}

func start(t *testing.T, c *config.Config, path string) *Core {
	t.Helper()
	core, err := InitCore(context.Background(), c, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = core.Close(context.Background()) })
	return core
}

func TestCoreTicks(t *testing.T) {
	c, path := testConfig(t)
	core := start(t, c, path)
	assert.Equal(t, "none", core.Driver)
	assert.Equal(t, []string{"preview"}, core.Eng.SinkNames())
	require.Eventually(t, func() bool { return core.Eng.FrameCounter() > 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestSelectionIsPersisted(t *testing.T) {
	c, path := testConfig(t)
	core := start(t, c, path)

	cfg := effects.DefaultConfig()
	cfg.BaseColor = zone.RGB(0, 0x80, 0xff)
	require.NoError(t, core.Mgr.Select(context.Background(), effects.Ripple, cfg))

	saved, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, effects.Ripple, saved.Effect.Name)
	assert.Equal(t, "#0080ff", saved.Effect.BaseColor)
	assert.Equal(t, effects.Ripple, core.Config().Effect.Name)
}

func TestNoPersistWhenRestoreOff(t *testing.T) {
	c, path := testConfig(t)
	c.RestoreOnStartup = false
	core := start(t, c, path)
	require.NoError(t, core.Mgr.Select(context.Background(), effects.Strobe, effects.DefaultConfig()))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestRestoresLastSelection(t *testing.T) {
	c, path := testConfig(t)
	c.Effect = config.EffectSettings{Name: effects.Scanner, BaseColor: "#00ff00", Speed: 2}
	core := start(t, c, path)

	name, cfg, ok := core.Mgr.Current()
	require.True(t, ok)
	assert.Equal(t, effects.Scanner, name)
	assert.Equal(t, zone.RGB(0, 255, 0), cfg.BaseColor)
	assert.Equal(t, 2.0, cfg.Speed)
}

func TestRestoreUnknownEffectIsIgnored(t *testing.T) {
	c, path := testConfig(t)
	c.Effect = config.EffectSettings{Name: "Lava Lamp"}
	core := start(t, c, path)
	_, _, ok := core.Mgr.Current()
	assert.False(t, ok)
}

func TestPlaylistStartsAtBoot(t *testing.T) {
	c, path := testConfig(t)
	show := filepath.Join(t.TempDir(), "show.yaml")
	require.NoError(t, os.WriteFile(show, []byte(`clips:
  - duration_s: 60
    effect: {name: Color Cycle}
`), 0644))
	c.Sequence = show
	core := start(t, c, path)

	assert.Equal(t, sequence.Running, core.Seq.State())
	name, _, ok := core.Eng.Active()
	require.True(t, ok)
	assert.Equal(t, effects.ColorCycle, name)
	_, _, ok = core.Mgr.Current()
	assert.False(t, ok)
	// playlist selections are not persisted
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSpeedOnlyReselectsMenuEffects(t *testing.T) {
	c, path := testConfig(t)
	c.Effect = config.EffectSettings{Name: effects.Ripple, Speed: 1}
	show := filepath.Join(t.TempDir(), "show.yaml")
	require.NoError(t, os.WriteFile(show, []byte(`clips:
  - duration_s: 60
    effect: {name: Strobe}
`), 0644))
	c.Sequence = show
	core := start(t, c, path)
	ctx := context.Background()

	name, _, _ := core.Eng.Active()
	require.Equal(t, effects.Strobe, name)

	speed := 80
	err := core.State.ApplyControl(ctx, ws.Control{Speed: &speed})
	assert.ErrorIs(t, err, ws.ErrNotMenuEffect)
	saved, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, effects.Ripple, saved.Effect.Name)
	assert.Equal(t, 1.0, saved.Effect.Speed)

	require.NoError(t, core.State.ApplyControl(ctx, ws.Control{RunTest: string(tests.ZoneSweep)}))
	err = core.State.ApplyControl(ctx, ws.Control{Speed: &speed})
	assert.ErrorIs(t, err, ws.ErrNotMenuEffect)
	name, _, _ = core.Eng.Active()
	assert.Equal(t, "zone_sweep", name)

	// a menu selection takes speed changes again and is persisted
	core.Seq.Stop()
	require.NoError(t, core.State.ApplyControl(ctx, ws.Control{Select: effects.Wave}))
	require.NoError(t, core.State.ApplyControl(ctx, ws.Control{Speed: &speed}))
	saved, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, effects.Wave, saved.Effect.Name)
	assert.Equal(t, effects.SpeedFromPercent(speed), saved.Effect.Speed)
}

func TestCloseBlanks(t *testing.T) {
	c, path := testConfig(t)
	c.Effect = config.EffectSettings{Name: effects.StaticColor, BaseColor: "#ffffff"}
	core, err := InitCore(context.Background(), c, path)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return !core.Eng.LastFrame().IsBlank() }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, core.Close(context.Background()))
	assert.True(t, core.Eng.LastFrame().IsBlank())
}

func TestInitRejectsBadConfig(t *testing.T) {
	c, path := testConfig(t)
	c.Driver = "pwm"
	_, err := InitCore(context.Background(), c, path)
	assert.ErrorIs(t, err, config.ErrInvalid)
}
