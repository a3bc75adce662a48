package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreman2200/zonefx/internal/effects"
	"github.com/coreman2200/zonefx/internal/press"
)

// None is accepted by Select and clears the active effect.
const None = "None"

var ErrUnknownEffect = errors.New("unknown effect")

// UnknownEffectError names the rejected selection.
type UnknownEffectError struct {
	Name string
}

func (e *UnknownEffectError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnknownEffect, e.Name)
}

func (e *UnknownEffectError) Unwrap() error { return ErrUnknownEffect }

// Manager switches the engine between registered effects.
type Manager struct {
	eng *Engine
	reg *effects.Registry
	env effects.Env

	// OnSelect runs after every successful Select, outside the engine lock.
	OnSelect func(name string, cfg effects.Config)
}

func NewManager(eng *Engine, reg *effects.Registry, pressed press.Source) *Manager {
	if pressed == nil {
		pressed = press.None{}
	}
	return &Manager{
		eng: eng,
		reg: reg,
		env: effects.Env{Zones: eng.Zones(), Pressed: pressed},
	}
}

// Select builds name with cfg and installs it with a fresh local frame
// counter. Unknown names and invalid configs leave the engine untouched.
func (m *Manager) Select(ctx context.Context, name string, cfg effects.Config) error {
	if name == None {
		m.Stop(ctx)
		m.notify(name, cfg)
		return nil
	}
	if _, ok := m.reg.Get(name); !ok {
		return &UnknownEffectError{Name: name}
	}
	next, err := m.reg.Build(name, m.env, cfg)
	if err != nil {
		return err
	}
	if err := m.eng.install(ctx, m, name, cfg.Clone(), next); err != nil {
		return err
	}
	m.notify(name, cfg)
	return nil
}

func (m *Manager) notify(name string, cfg effects.Config) {
	if m.OnSelect != nil {
		m.OnSelect(name, cfg.Clone())
	}
}

// Stop blanks the output and leaves no effect active.
func (m *Manager) Stop(ctx context.Context) {
	m.eng.clear(ctx)
}

// ListAvailable returns effect names in registration order.
func (m *Manager) ListAvailable() []string {
	return m.reg.List()
}

// Current reports the active selection if this manager installed it.
// Selections made by another manager on the same engine report ok=false.
func (m *Manager) Current() (name string, cfg effects.Config, ok bool) {
	return m.eng.current(m)
}
