package sequence

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

var ErrEmptyProgram = errors.New("program has no clips")

// Player walks a Program's timeline and calls its Hooks on clip changes.
// It is safe for concurrent use.
type Player struct {
	mu    sync.Mutex
	state PlayerState
	prog  Program
	nowS  float64 // position within program
	idx   int     // current clip index
	hooks Hooks

	// moved is set by a Seek while paused.
	moved bool

	lastBrightness float64
	haveBrightness bool
}

func NewPlayer(h Hooks) *Player {
	return &Player{state: Idle, hooks: h}
}

// LoadFile reads a YAML program.
func LoadFile(path string) (Program, error) {
	var prog Program
	b, err := os.ReadFile(path)
	if err != nil {
		return prog, err
	}
	if err := yaml.Unmarshal(b, &prog); err != nil {
		return prog, fmt.Errorf("program %s: %w", path, err)
	}
	return prog, nil
}

// Load replaces the current program and resets to Idle.
func (p *Player) Load(prog Program) error {
	if len(prog.Clips) == 0 {
		return ErrEmptyProgram
	}
	for i, c := range prog.Clips {
		if !(c.DurationS > 0) {
			return fmt.Errorf("clip %d (%s): duration %v must be positive", i, c.Name, c.DurationS)
		}
		if c.Settings.Name == "" {
			return fmt.Errorf("clip %d (%s): no effect", i, c.Name)
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prog = prog
	p.reset()
	return nil
}

func (p *Player) reset() {
	p.state = Idle
	p.nowS = 0
	p.idx = 0
	p.moved = false
	p.haveBrightness = false
}

func (p *Player) State() PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Clip returns the index of the current clip.
func (p *Player) Clip() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.idx
}

// Start moves to Running and selects the current clip.
func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Running || len(p.prog.Clips) == 0 {
		return
	}
	p.state = Running
	p.moved = false
	p.enter()
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Running {
		p.state = Paused
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Paused {
		p.state = Running
		if p.moved {
			p.moved = false
			p.enter()
		}
	}
}

// Stop resets to the start; the active effect is left as is.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}

// Seek jumps to absolute program time t, clamped into [0, total). Only a
// running player switches effects; a paused one switches on Resume and an
// idle one on Start.
func (p *Player) Seek(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.prog.Clips) == 0 {
		return
	}
	if t < 0 {
		t = 0
	}
	if total := p.totalDuration(); t >= total {
		t = math.Nextafter(total, -1)
	}
	acc := 0.0
	for i, c := range p.prog.Clips {
		if t < acc+c.DurationS {
			p.idx = i
			break
		}
		acc += c.DurationS
	}
	p.nowS = t
	switch p.state {
	case Running:
		p.enter()
	case Paused:
		p.moved = true
	}
}

// Tick advances the timeline by dt seconds.
func (p *Player) Tick(dt float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Running || dt <= 0 {
		return
	}
	p.nowS += dt

	clip, localT := p.currentClipAndLocalT()
	if !clip.Brightness.Empty() {
		p.setBrightness(clip.Brightness.Eval(localT))
	}
	if localT >= clip.DurationS {
		p.advanceClip()
	}
}

func (p *Player) setBrightness(v float64) {
	if p.haveBrightness && v == p.lastBrightness {
		return
	}
	p.lastBrightness, p.haveBrightness = v, true
	if p.hooks.SetBrightness != nil {
		p.hooks.SetBrightness(v)
	}
}

func (p *Player) enter() {
	clip := p.prog.Clips[p.idx]
	if p.hooks.Select != nil {
		p.hooks.Select(clip.Settings.Name, clip.Settings)
	}
	if !clip.Brightness.Empty() {
		p.setBrightness(clip.Brightness.Eval(0))
	}
}

func (p *Player) currentClipAndLocalT() (Clip, float64) {
	acc := 0.0
	for i := 0; i < p.idx; i++ {
		acc += p.prog.Clips[i].DurationS
	}
	return p.prog.Clips[p.idx], p.nowS - acc
}

func (p *Player) totalDuration() float64 {
	total := 0.0
	for _, c := range p.prog.Clips {
		total += c.DurationS
	}
	return total
}

func (p *Player) nextIndex() int {
	ni := p.idx + 1
	if ni >= len(p.prog.Clips) {
		if p.prog.Loop {
			return 0
		}
		return -1
	}
	return ni
}

func (p *Player) advanceClip() {
	next := p.nextIndex()
	if next == -1 {
		p.state = Idle
		return
	}
	if next == 0 {
		p.nowS -= p.totalDuration()
	}
	p.idx = next
	p.enter()
}
