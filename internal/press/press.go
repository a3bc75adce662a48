// Package press supplies the pressed-zone sets consumed by reactive effects.
package press

import (
	"sort"
	"sync"
)

// ZoneSet is the set of currently pressed zones.
type ZoneSet map[int]bool

func (s ZoneSet) Has(zone int) bool { return s[zone] }

// Zones lists members in ascending order.
func (s ZoneSet) Zones() []int {
	out := make([]int, 0, len(s))
	for z, on := range s {
		if on {
			out = append(out, z)
		}
	}
	sort.Ints(out)
	return out
}

// Source reports which zones are pressed at a given effect frame.
type Source interface {
	Pressed(frame uint64) ZoneSet
}

// None never reports a press.
type None struct{}

func (None) Pressed(uint64) ZoneSet { return nil }

// Set is a manually driven source, fed by a control surface.
type Set struct {
	mu      sync.Mutex
	pressed ZoneSet
}

func NewSet() *Set {
	return &Set{pressed: ZoneSet{}}
}

func (s *Set) Press(zone int) {
	s.mu.Lock()
	s.pressed[zone] = true
	s.mu.Unlock()
}

func (s *Set) Release(zone int) {
	s.mu.Lock()
	delete(s.pressed, zone)
	s.mu.Unlock()
}

// Replace swaps the whole pressed set.
func (s *Set) Replace(zones []int) {
	next := ZoneSet{}
	for _, z := range zones {
		next[z] = true
	}
	s.mu.Lock()
	s.pressed = next
	s.mu.Unlock()
}

func (s *Set) Clear() { s.Replace(nil) }

// Pressed returns a snapshot; the frame is ignored.
func (s *Set) Pressed(uint64) ZoneSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(ZoneSet, len(s.pressed))
	for z := range s.pressed {
		out[z] = true
	}
	return out
}

// Simulated derives presses from the frame counter alone: zone i is held
// while (frame + Stride*i) mod Period < Hold.
type Simulated struct {
	Zones  int
	Period uint64
	Hold   uint64
	Stride uint64
}

func NewSimulated(zones int) Simulated {
	return Simulated{Zones: zones, Period: 40, Hold: 5, Stride: 7}
}

func (s Simulated) Pressed(frame uint64) ZoneSet {
	if s.Period == 0 {
		return nil
	}
	out := ZoneSet{}
	for i := 0; i < s.Zones; i++ {
		if (frame+s.Stride*uint64(i))%s.Period < s.Hold {
			out[i] = true
		}
	}
	return out
}
