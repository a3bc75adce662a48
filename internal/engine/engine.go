// Package engine advances the active effect once per tick and fans each
// frame out to the registered sinks.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/zonefx/internal/effects"
	"github.com/coreman2200/zonefx/internal/zone"
)

// DefaultSinkTimeout bounds a single sink write.
const DefaultSinkTimeout = 250 * time.Millisecond

// Sink receives every published frame. Apply must honor ctx's deadline.
type Sink interface {
	Apply(ctx context.Context, f zone.Frame) error
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(ctx context.Context, f zone.Frame) error

func (fn SinkFunc) Apply(ctx context.Context, f zone.Frame) error { return fn(ctx, f) }

// SinkError reports one failed sink write. It never aborts a tick.
type SinkError struct {
	Sink  string
	Frame uint64
	Err   error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s frame %d: %v", e.Sink, e.Frame, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

var ErrClosed = errors.New("engine shut down")

type Options struct {
	Zones       int
	SinkTimeout time.Duration
	Post        *Post
	// OnSinkError is called synchronously from the tick for every failure.
	OnSinkError func(*SinkError)
}

type namedSink struct {
	name string
	sink Sink
}

type slot struct {
	owner  *Manager
	name   string
	cfg    effects.Config
	effect effects.Effect
	start  uint64
}

// Stats are cumulative counters.
type Stats struct {
	Frame      uint64 `json:"frame"`
	Published  uint64 `json:"published"`
	SinkErrors uint64 `json:"sink_errors"`
	Active     string `json:"active,omitempty"`
}

// Engine owns the global frame counter, the active effect slot and the
// sink list. One mutex serializes ticks against effect switches.
type Engine struct {
	mu      sync.Mutex
	zones   int
	frame   uint64
	active  *slot
	sinks   []namedSink
	timeout time.Duration
	post    *Post
	onErr   func(*SinkError)
	closed  bool
	last    zone.Frame
	stats   Stats
	log     zerolog.Logger
}

func New(opts Options) (*Engine, error) {
	if opts.Zones < 1 {
		return nil, fmt.Errorf("zone count %d: %w", opts.Zones, zone.ErrZoneCountMismatch)
	}
	if opts.SinkTimeout <= 0 {
		opts.SinkTimeout = DefaultSinkTimeout
	}
	return &Engine{
		zones:   opts.Zones,
		timeout: opts.SinkTimeout,
		post:    opts.Post,
		onErr:   opts.OnSinkError,
		last:    zone.Blank(opts.Zones),
		log:     log.With().Str("component", "engine").Logger(),
	}, nil
}

func (e *Engine) Zones() int { return e.zones }

// AddSink appends a sink; sinks are published to in the order added.
func (e *Engine) AddSink(name string, s Sink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, namedSink{name: name, sink: s})
}

func (e *Engine) SinkNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.sinks))
	for i, s := range e.sinks {
		out[i] = s.name
	}
	return out
}

// Tick computes one frame from the active effect, if running, publishes it,
// then advances the global counter by exactly one.
func (e *Engine) Tick(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if a := e.active; a != nil && a.effect.IsRunning() {
		f := a.effect.ComputeFrame(e.frame - a.start)
		if e.post != nil {
			f = e.post.Apply(f)
		}
		e.publishLocked(ctx, f)
	}
	e.frame++
}

// FrameCounter is the number of ticks since creation.
func (e *Engine) FrameCounter() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame
}

// LastFrame is a copy of the most recently published frame.
func (e *Engine) LastFrame() zone.Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last.Clone()
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.stats
	s.Frame = e.frame
	if e.active != nil {
		s.Active = e.active.name
	}
	return s
}

// SetSinkErrorHook replaces Options.OnSinkError.
func (e *Engine) SetSinkErrorHook(fn func(*SinkError)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onErr = fn
}

// SetBrightness scales every later frame by v in [0,1].
func (e *Engine) SetBrightness(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.post == nil {
		e.post = NewPost(PostConfig{Brightness: 1})
	}
	e.post.SetBrightness(v)
}

func (e *Engine) Brightness() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.post == nil {
		return 1
	}
	return e.post.Brightness()
}

// install swaps in a started effect: the old one is stopped and one blank
// frame is published before the new one becomes visible.
func (e *Engine) install(ctx context.Context, owner *Manager, name string, cfg effects.Config, next effects.Effect) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.clearLocked(ctx)
	next.Start()
	e.active = &slot{owner: owner, name: name, cfg: cfg, effect: next, start: e.frame}
	e.log.Info().Str("effect", name).Uint64("frame", e.frame).Msg("effect installed")
	return nil
}

// clear stops the active effect, if any, and blanks every sink.
func (e *Engine) clear(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.clearLocked(ctx)
}

func (e *Engine) clearLocked(ctx context.Context) {
	if e.active == nil {
		return
	}
	e.active.effect.Stop()
	e.log.Debug().Str("effect", e.active.name).Msg("effect stopped")
	e.active = nil
	e.publishLocked(ctx, zone.Blank(e.zones))
}

// Active reports the installed effect, whichever manager selected it.
func (e *Engine) Active() (name string, cfg effects.Config, ok bool) {
	return e.current(nil)
}

// current reports the slot; a non-nil owner only matches its own installs.
func (e *Engine) current(owner *Manager) (string, effects.Config, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil || (owner != nil && e.active.owner != owner) {
		return "", effects.Config{}, false
	}
	return e.active.name, e.active.cfg.Clone(), true
}

// Shutdown blanks the sinks and turns later ticks and installs into no-ops.
func (e *Engine) Shutdown(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if e.active == nil {
		e.publishLocked(ctx, zone.Blank(e.zones))
	}
	e.clearLocked(ctx)
	e.closed = true
	e.log.Info().Uint64("frame", e.frame).Msg("engine shut down")
}

func (e *Engine) publishLocked(ctx context.Context, f zone.Frame) {
	e.last = f.Clone()
	e.stats.Published++
	for _, s := range e.sinks {
		sctx, cancel := context.WithTimeout(ctx, e.timeout)
		err := s.sink.Apply(sctx, f.Clone())
		cancel()
		if err == nil {
			continue
		}
		e.stats.SinkErrors++
		serr := &SinkError{Sink: s.name, Frame: e.frame, Err: err}
		e.log.Warn().Err(err).Str("sink", s.name).Uint64("frame", e.frame).Msg("sink write failed")
		if e.onErr != nil {
			e.onErr(serr)
		}
	}
}
