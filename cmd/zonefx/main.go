package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/zonefx/internal/app"
	"github.com/coreman2200/zonefx/internal/config"
	"github.com/coreman2200/zonefx/internal/lock"
)

func main() {
	// ---- Environment first; it names the config file ----
	envCfg, err := config.ParseEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("environment")
	}

	// ---- Flags (set flags win over config.yaml and the environment) ----
	var (
		configPath = flag.String("config", envCfg.ConfigPath, "path to config.yaml")
		addr       = flag.String("addr", ":8080", "HTTP listen address")
		driver     = flag.String("driver", "spi", "output: spi | console | lifx | none")
		zones      = flag.Int("zones", 4, "number of lighting zones")
		fps        = flag.Int("fps", 30, "target frames per second")
		brightness = flag.Float64("brightness", 1, "global brightness 0..1")
		lockPath   = flag.String("lock", filepath.Join(os.TempDir(), "zonefx.lock"), "single-instance lock file")
		logLevel   = flag.String("log-level", "info", "debug | info | warn | error")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Load config.yaml (optional) ----
	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatal().Err(err).Str("path", *configPath).Msg("config")
		}
		log.Warn().Str("path", *configPath).Msg("no config file; using defaults")
	}
	envCfg.Apply(cfg)
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "driver":
			cfg.Driver = *driver
		case "zones":
			cfg.Zones = *zones
		case "fps":
			cfg.FPS = *fps
		case "brightness":
			cfg.Brightness = *brightness
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	// ---- One instance per device ----
	lk, err := lock.Acquire(*lockPath)
	if err != nil {
		log.Fatal().Err(err).Msg("instance lock")
	}
	defer lk.Release()

	// ---- Core ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	core, err := app.InitCore(ctx, cfg, *configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("init")
	}

	// ---- HTTP routes ----
	mux := http.NewServeMux()
	core.State.Routes(mux)
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      withCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("driver", core.Driver).Int("zones", cfg.Zones).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	// ---- Graceful shutdown ----
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	s := <-ch
	log.Info().Str("signal", s.String()).Msg("shutting down")

	shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	_ = srv.Shutdown(shutdownCtx)
	if err := core.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("close outputs")
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
