// Command fxsim runs effects without hardware and prints each frame.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/zonefx/internal/config"
	"github.com/coreman2200/zonefx/internal/driver/fake"
	"github.com/coreman2200/zonefx/internal/effects"
	"github.com/coreman2200/zonefx/internal/engine"
	"github.com/coreman2200/zonefx/internal/press"
	"github.com/coreman2200/zonefx/internal/sequence"
)

func main() {
	var (
		effect   = flag.String("effect", effects.RainbowZonesCycle, "effect name")
		color    = flag.String("color", "", "base color (#rrggbb)")
		rainbow  = flag.Bool("rainbow", false, "rainbow mode")
		speed    = flag.Int("speed", 50, "speed 1..100")
		zones    = flag.Int("zones", 4, "zone count")
		frames   = flag.Int("frames", 120, "frames to run")
		fps      = flag.Int("fps", 30, "simulated frames per second")
		every    = flag.Int("every", 1, "print every n-th frame")
		program  = flag.String("program", "", "playlist YAML; overrides -effect")
		realtime = flag.Bool("realtime", false, "pace frames at -fps")
		list     = flag.Bool("list", false, "list effects and exit")
	)
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	reg := effects.Builtin()
	if *list {
		for _, n := range reg.List() {
			fmt.Println(n)
		}
		return
	}

	eng, err := engine.New(engine.Options{Zones: *zones})
	if err != nil {
		log.Fatal().Err(err).Msg("engine")
	}
	eng.AddSink("stdout", &fake.Driver{Out: os.Stdout, Every: *every})
	mgr := engine.NewManager(eng, reg, press.NewSimulated(*zones))
	ctx := context.Background()

	var seq *sequence.Player
	if *program != "" {
		prog, err := sequence.LoadFile(*program)
		if err != nil {
			log.Fatal().Err(err).Msg("program")
		}
		seq = sequence.NewPlayer(sequence.Hooks{
			Select: func(name string, s config.EffectSettings) {
				fmt.Printf("[select] %s\n", name)
				if err := mgr.Select(ctx, name, s.EffectConfig()); err != nil {
					log.Error().Err(err).Str("effect", name).Msg("select")
				}
			},
			SetBrightness: eng.SetBrightness,
		})
		if err := seq.Load(prog); err != nil {
			log.Fatal().Err(err).Msg("program")
		}
		seq.Start()
	} else {
		s := config.EffectSettings{
			Name:        *effect,
			BaseColor:   *color,
			RainbowMode: *rainbow,
			Speed:       effects.SpeedFromPercent(*speed),
		}
		if err := mgr.Select(ctx, *effect, s.EffectConfig()); err != nil {
			log.Fatal().Err(err).Msg("select")
		}
	}

	dt := time.Second / time.Duration(max(1, *fps))
	for i := 0; i < *frames; i++ {
		if seq != nil {
			seq.Tick(dt.Seconds())
		}
		eng.Tick(ctx)
		if *realtime {
			time.Sleep(dt)
		}
	}
	eng.Shutdown(ctx)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
