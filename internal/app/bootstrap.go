package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/zonefx/internal/config"
	"github.com/coreman2200/zonefx/internal/effects"
	"github.com/coreman2200/zonefx/internal/engine"
	"github.com/coreman2200/zonefx/internal/led"
	"github.com/coreman2200/zonefx/internal/press"
	"github.com/coreman2200/zonefx/internal/sequence"
	"github.com/coreman2200/zonefx/internal/tests"
	"github.com/coreman2200/zonefx/internal/ws"
)

// Core is one running device: engine, managers, playlist and control state.
type Core struct {
	Eng    *engine.Engine
	Mgr    *engine.Manager
	Seq    *sequence.Player
	State  *ws.State
	Driver string

	cfgPath string
	cfgMu   sync.Mutex
	cfg     *config.Config

	closers []io.Closer
	log     zerolog.Logger
	cancel  context.CancelFunc
	done    chan struct{}
}

// InitCore builds the engine from cfg, opens the output, restores the last
// selection and starts the frame loop. Settings are written back to
// cfgPath after every selection when restore_on_startup is set.
func InitCore(ctx context.Context, cfg *config.Config, cfgPath string) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Core{
		cfg:     cfg,
		cfgPath: cfgPath,
		log:     log.With().Str("component", "app").Logger(),
		done:    make(chan struct{}),
	}

	// 1) Engine with the post stage
	post := engine.NewPost(engine.PostConfig{
		Brightness:      cfg.Brightness,
		WhiteCap:        cfg.Power.WhiteCap,
		LEDsPerZone:     cfg.LEDsPerZone,
		ChanMilliAmps:   cfg.Power.ChanMilliAmps,
		BudgetMilliAmps: cfg.Power.BudgetMilliAmps,
		SoftStart:       time.Duration(cfg.Power.SoftStartMs) * time.Millisecond,
		TickInterval:    time.Second / time.Duration(cfg.FPS),
	})
	eng, err := engine.New(engine.Options{
		Zones:       cfg.Zones,
		SinkTimeout: time.Duration(cfg.SinkTimeoutMs) * time.Millisecond,
		Post:        post,
	})
	if err != nil {
		return nil, err
	}
	c.Eng = eng

	// 2) Reactive input
	var src press.Source
	var manual *press.Set
	if cfg.SimulatePresses {
		src = press.NewSimulated(cfg.Zones)
	} else {
		manual = press.NewSet()
		src = manual
	}

	// 3) Managers: the menu one persists, the playlist and checks ones don't
	reg := effects.Builtin()
	c.Mgr = engine.NewManager(eng, reg, src)
	c.Mgr.OnSelect = c.persist
	seqMgr := engine.NewManager(eng, reg, src)

	// 4) Hardware output first, preview second
	ctx, c.cancel = context.WithCancel(ctx)
	if err := c.openOutput(ctx); err != nil {
		c.cancel()
		return nil, err
	}
	c.State = ws.NewState(eng, c.Mgr)
	c.State.Checks = engine.NewManager(eng, tests.Registry(), src)
	c.State.Pressed = manual
	c.State.FPS = cfg.FPS
	c.State.Driver = c.Driver
	eng.AddSink("preview", c.State)
	eng.SetSinkErrorHook(c.State.ReportSinkError)

	// 5) Playlist
	c.Seq = sequence.NewPlayer(sequence.Hooks{
		Select: func(name string, s config.EffectSettings) {
			if err := seqMgr.Select(ctx, name, s.EffectConfig()); err != nil {
				c.log.Warn().Err(err).Str("effect", name).Msg("playlist select")
			}
		},
		SetBrightness: eng.SetBrightness,
	})

	c.restore(ctx)

	// 6) Frame loop and diagnostics
	go c.State.Run(ctx)
	cond := &Conductor{Eng: eng, Seq: c.Seq}
	go func() {
		defer close(c.done)
		cond.Run(ctx, cfg.FPS)
	}()
	return c, nil
}

func (c *Core) openOutput(ctx context.Context) error {
	cfg := c.cfg
	opts := led.Options{
		Port:        cfg.SPI.Port,
		Zones:       cfg.Zones,
		LEDsPerZone: cfg.LEDsPerZone,
		Order:       led.Order{Reverse: cfg.Reverse},
		ColorOrder:  cfg.ColorOrder,
		Freq:        physic.Frequency(cfg.SPI.FreqHz) * physic.Hertz,
	}
	c.Driver = cfg.Driver
	switch cfg.Driver {
	case "spi":
		s, hw, err := led.Open(opts)
		if err != nil {
			return err
		}
		if !hw {
			c.Driver = "console"
		}
		c.addOutput(s.String(), s, s)
	case "console":
		s := led.OpenConsole(opts)
		c.addOutput("console", s, s)
	case "lifx":
		l, err := led.NewLIFX(ctx, cfg.LIFX.Labels, time.Duration(cfg.LIFX.FadeMs)*time.Millisecond)
		if err != nil {
			return err
		}
		c.addOutput("lifx", l, l)
	case "none":
	default:
		return fmt.Errorf("unknown driver %q", cfg.Driver)
	}
	c.log.Info().Str("driver", c.Driver).Msg("output ready")
	return nil
}

func (c *Core) addOutput(name string, s engine.Sink, closer io.Closer) {
	c.Eng.AddSink(name, s)
	c.closers = append(c.closers, closer)
}

// restore reselects the persisted effect, then starts the playlist if one
// is configured.
func (c *Core) restore(ctx context.Context) {
	c.cfgMu.Lock()
	cfg := *c.cfg
	c.cfgMu.Unlock()

	if cfg.RestoreOnStartup && cfg.Effect.Name != "" {
		if err := c.Mgr.Select(ctx, cfg.Effect.Name, cfg.Effect.EffectConfig()); err != nil {
			c.log.Warn().Err(err).Str("effect", cfg.Effect.Name).Msg("restore selection")
		}
	}
	if cfg.Sequence == "" {
		return
	}
	prog, err := sequence.LoadFile(cfg.Sequence)
	if err == nil {
		err = c.Seq.Load(prog)
	}
	if err != nil {
		c.log.Warn().Err(err).Str("path", cfg.Sequence).Msg("playlist not started")
		return
	}
	c.Seq.Start()
}

func (c *Core) persist(name string, ecfg effects.Config) {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	if !c.cfg.RestoreOnStartup || c.cfgPath == "" {
		return
	}
	c.cfg.Effect = config.SettingsFor(name, ecfg)
	if err := config.Save(c.cfgPath, c.cfg); err != nil {
		c.log.Warn().Err(err).Str("path", c.cfgPath).Msg("save settings")
	}
}

// Config returns a copy of the live settings.
func (c *Core) Config() config.Config {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	return *c.cfg
}

// Close stops the frame loop, blanks every output and releases devices.
func (c *Core) Close(ctx context.Context) error {
	c.cancel()
	<-c.done
	c.Eng.Shutdown(ctx)
	var first error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
