package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env"
	"gopkg.in/yaml.v3"

	"github.com/coreman2200/zonefx/internal/effects"
	"github.com/coreman2200/zonefx/internal/zone"
)

type PowerCfg struct {
	BudgetMilliAmps float64 `yaml:"budget_ma"`
	ChanMilliAmps   float64 `yaml:"chan_ma,omitempty"`
	WhiteCap        float64 `yaml:"white_cap"`
	SoftStartMs     int     `yaml:"soft_start_ms"`
}

type SPI struct {
	Port   string `yaml:"port,omitempty"` // spireg name, e.g. /dev/spidev0.0
	FreqHz int64  `yaml:"freq_hz,omitempty"`
}

type LIFX struct {
	// Labels[i] is the bulb for zone i.
	Labels []string `yaml:"labels,omitempty"`
	FadeMs int      `yaml:"fade_ms,omitempty"`
}

// EffectSettings is the persisted form of an effect selection.
type EffectSettings struct {
	Name        string             `yaml:"name"`
	BaseColor   string             `yaml:"base_color,omitempty"`
	RainbowMode bool               `yaml:"rainbow_mode,omitempty"`
	Speed       float64            `yaml:"speed,omitempty"`
	Params      map[string]float64 `yaml:"params,omitempty"`
	ZoneColors  []string           `yaml:"zone_colors,omitempty"`
	GradientEnd string             `yaml:"gradient_end,omitempty"`
}

type Config struct {
	Driver      string  `yaml:"driver"` // "spi" | "console" | "lifx" | "none"
	Zones       int     `yaml:"zones"`
	LEDsPerZone int     `yaml:"leds_per_zone"`
	Reverse     bool    `yaml:"reverse,omitempty"`
	ColorOrder  string  `yaml:"color_order"`
	Brightness  float64 `yaml:"brightness"`
	FPS         int     `yaml:"fps"`
	Addr        string  `yaml:"addr"`
	LogLevel    string  `yaml:"log_level"`

	SinkTimeoutMs int `yaml:"sink_timeout_ms,omitempty"`
	// SimulatePresses feeds Reactive effects from a timer instead of the
	// control socket.
	SimulatePresses bool `yaml:"simulate_presses,omitempty"`

	Power PowerCfg `yaml:"power"`
	SPI   SPI      `yaml:"spi,omitempty"`
	LIFX  LIFX     `yaml:"lifx,omitempty"`

	RestoreOnStartup bool           `yaml:"restore_on_startup"`
	Effect           EffectSettings `yaml:"effect"`
	// Sequence is an optional playlist file started at boot.
	Sequence string `yaml:"sequence,omitempty"`
}

func Default() *Config {
	return &Config{
		Driver:      "spi",
		Zones:       zone.DefaultCount,
		LEDsPerZone: 1,
		ColorOrder:  "GRB",
		Brightness:  1,
		FPS:         30,
		Addr:        ":8080",
		LogLevel:    "info",
		Power: PowerCfg{
			WhiteCap:    0.85,
			SoftStartMs: 800,
		},
		RestoreOnStartup: true,
		Effect:           EffectSettings{Name: effects.StaticColor, BaseColor: zone.White.Hex(), Speed: 1},
	}
}

// Load reads path over the defaults. A missing file yields the defaults
// and an error wrapping os.ErrNotExist.
func Load(path string) (*Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return c, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Save writes c atomically.
func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.yaml")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Env holds the environment overrides. Unset numeric fields keep their
// envDefault sentinel and leave the file value alone.
type Env struct {
	ConfigPath string   `env:"ZONEFX_CONFIG" envDefault:"config.yaml"`
	Driver     string   `env:"ZONEFX_DRIVER"`
	Addr       string   `env:"ZONEFX_ADDR"`
	LogLevel   string   `env:"ZONEFX_LOG_LEVEL"`
	SPIPort    string   `env:"ZONEFX_SPI_PORT"`
	Zones      int      `env:"ZONEFX_ZONES" envDefault:"0"`
	FPS        int      `env:"ZONEFX_FPS" envDefault:"0"`
	Brightness float64  `env:"ZONEFX_BRIGHTNESS" envDefault:"-1"`
	LIFXLabels []string `env:"ZONEFX_LIFX_LABELS" envSeparator:","`
}

func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return e, fmt.Errorf("env: %w", err)
	}
	return e, nil
}

// Apply overlays the set fields of e onto c.
func (e Env) Apply(c *Config) {
	if e.Driver != "" {
		c.Driver = e.Driver
	}
	if e.Addr != "" {
		c.Addr = e.Addr
	}
	if e.LogLevel != "" {
		c.LogLevel = e.LogLevel
	}
	if e.SPIPort != "" {
		c.SPI.Port = e.SPIPort
	}
	if e.Zones > 0 {
		c.Zones = e.Zones
	}
	if e.FPS > 0 {
		c.FPS = e.FPS
	}
	if e.Brightness >= 0 {
		c.Brightness = e.Brightness
	}
	if len(e.LIFXLabels) > 0 {
		c.LIFX.Labels = e.LIFXLabels
	}
}

var ErrInvalid = errors.New("invalid config")

// Validate checks the device-level fields.
func (c *Config) Validate() error {
	switch {
	case c.Zones < 1:
		return fmt.Errorf("%w: zones %d", ErrInvalid, c.Zones)
	case c.FPS < 1:
		return fmt.Errorf("%w: fps %d", ErrInvalid, c.FPS)
	case c.Brightness < 0 || c.Brightness > 1:
		return fmt.Errorf("%w: brightness %v outside 0..1", ErrInvalid, c.Brightness)
	}
	switch c.Driver {
	case "spi", "console", "lifx", "none":
	default:
		return fmt.Errorf("%w: driver %q", ErrInvalid, c.Driver)
	}
	return nil
}

// EffectConfig converts the settings into an effect config. Malformed hex
// falls back to the effect's default color, or black for the gradient end.
func (s EffectSettings) EffectConfig() effects.Config {
	cfg := effects.DefaultConfig()
	cfg.BaseColor = zone.ParseHexOr(s.BaseColor, effects.DefaultColor(s.Name))
	cfg.RainbowMode = s.RainbowMode
	if s.Speed > 0 {
		cfg.Speed = s.Speed
	}
	if len(s.Params) > 0 {
		cfg.Params = make(map[string]float64, len(s.Params))
		for k, v := range s.Params {
			cfg.Params[k] = v
		}
	}
	for _, h := range s.ZoneColors {
		cfg.ZoneColors = append(cfg.ZoneColors, zone.ParseHexOr(h, cfg.BaseColor))
	}
	cfg.GradientEnd = zone.ParseHexOr(s.GradientEnd, zone.Black)
	return cfg
}

// SettingsFor is the inverse of EffectConfig.
func SettingsFor(name string, cfg effects.Config) EffectSettings {
	s := EffectSettings{
		Name:        name,
		BaseColor:   cfg.BaseColor.Hex(),
		RainbowMode: cfg.RainbowMode,
		Speed:       cfg.Speed,
		GradientEnd: cfg.GradientEnd.Hex(),
	}
	if len(cfg.Params) > 0 {
		s.Params = make(map[string]float64, len(cfg.Params))
		for k, v := range cfg.Params {
			s.Params[k] = v
		}
	}
	for _, c := range cfg.ZoneColors {
		s.ZoneColors = append(s.ZoneColors, c.Hex())
	}
	return s
}
