package sequence

import (
	"github.com/coreman2200/zonefx/internal/config"
)

// Keyframe is a value at time T (seconds). Ease shapes the segment that
// starts at this keyframe.
type Keyframe struct {
	T    float64 `yaml:"t"`
	V    float64 `yaml:"v"`
	Ease string  `yaml:"ease,omitempty"` // "linear", "smooth", "cubic"
}

// Envelope is a list of keyframes sorted by T.
type Envelope struct {
	Keys []Keyframe `yaml:"keys"`
}

// Clip shows one effect for DurationS seconds.
type Clip struct {
	Name      string                `yaml:"name,omitempty"`
	Settings  config.EffectSettings `yaml:"effect"`
	DurationS float64               `yaml:"duration_s"`
	// Brightness, when it has keys, drives the global brightness over the
	// clip's local time.
	Brightness Envelope `yaml:"brightness,omitempty"`
}

// Program is a playlist of clips.
type Program struct {
	Version string `yaml:"version"` // "seq.v1"
	Loop    bool   `yaml:"loop,omitempty"`
	Clips   []Clip `yaml:"clips"`
}

type PlayerState string

const (
	Idle    PlayerState = "idle"
	Running PlayerState = "running"
	Paused  PlayerState = "paused"
)

// Hooks are the player's way into the engine.
type Hooks struct {
	// Select switches to the clip's effect.
	Select        func(name string, s config.EffectSettings)
	SetBrightness func(v float64)
}
