package effects

import (
	"fmt"

	"github.com/coreman2200/zonefx/internal/press"
)

// Env is what a factory needs to build an effect for a device.
type Env struct {
	Zones   int
	Pressed press.Source
}

type Factory func(env Env) Effect

// Registry maps effect names to factories, remembering registration order.
type Registry struct {
	order []string
	m     map[string]Factory
}

func NewRegistry() *Registry { return &Registry{m: map[string]Factory{}} }

// Register adds or replaces a factory. Replacing keeps the original position.
func (r *Registry) Register(name string, f Factory) {
	if f == nil {
		return
	}
	if _, ok := r.m[name]; !ok {
		r.order = append(r.order, name)
	}
	r.m[name] = f
}

func (r *Registry) Get(name string) (Factory, bool) { f, ok := r.m[name]; return f, ok }

func (r *Registry) List() []string {
	return append([]string(nil), r.order...)
}

// Build constructs and configures a stopped effect. The caller must have
// checked the name with Get.
func (r *Registry) Build(name string, env Env, cfg Config) (Effect, error) {
	f, ok := r.m[name]
	if !ok {
		return nil, fmt.Errorf("effect %q not registered", name)
	}
	if env.Zones < 1 {
		return nil, fmt.Errorf("%w: zone count %d", ErrInvalidConfig, env.Zones)
	}
	e := f(env)
	if err := e.Configure(cfg); err != nil {
		return nil, fmt.Errorf("configure %s: %w", name, err)
	}
	return e, nil
}

// Builtin registers every bundled effect in menu order.
func Builtin() *Registry {
	r := NewRegistry()
	zonesOnly := func(ctor func(int) Effect) Factory {
		return func(env Env) Effect { return ctor(env.Zones) }
	}
	r.Register(StaticColor, zonesOnly(newStaticColor))
	r.Register(Breathing, zonesOnly(newBreathing))
	r.Register(ColorCycle, zonesOnly(newColorCycle))
	r.Register(Wave, zonesOnly(newWave))
	r.Register(Pulse, zonesOnly(newPulse))
	r.Register(ZoneChase, zonesOnly(newZoneChase))
	r.Register(Starlight, zonesOnly(newStarlight))
	r.Register(RainbowZonesCycle, zonesOnly(newRainbowZonesCycle))
	r.Register(Scanner, zonesOnly(newScanner))
	r.Register(Strobe, zonesOnly(newStrobe))
	r.Register(Ripple, zonesOnly(newRipple))
	r.Register(Raindrop, zonesOnly(newRaindrop))
	r.Register(Reactive, func(env Env) Effect { return newReactive(env.Zones, env.Pressed) })
	r.Register(AntiReactive, func(env Env) Effect { return newAntiReactive(env.Zones, env.Pressed) })
	r.Register(StaticZoneColors, zonesOnly(newStaticZoneColors))
	r.Register(StaticRainbow, zonesOnly(newStaticRainbow))
	r.Register(StaticGradient, zonesOnly(newStaticGradient))
	return r
}
