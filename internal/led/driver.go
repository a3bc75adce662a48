package led

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"

	"github.com/coreman2200/zonefx/internal/zone"
)

// ErrBusy is returned while a previous write is still on the wire.
var ErrBusy = errors.New("led: previous write still in flight")

// Strip drives a physical LED strip through a periph drawer. Each zone
// covers a contiguous run of pixels as laid out by its ZoneMap.
type Strip struct {
	drawer display.Drawer
	zmap   ZoneMap
	order  string
	closer io.Closer

	mu       sync.Mutex
	inflight bool
	img      *image.NRGBA
}

func NewStrip(d display.Drawer, zmap ZoneMap, colorOrder string) *Strip {
	return &Strip{
		drawer: d,
		zmap:   zmap,
		order:  colorOrder,
		img:    image.NewNRGBA(image.Rect(0, 0, zmap.Pixels(), 1)),
	}
}

func (s *Strip) String() string { return s.drawer.String() }

// Apply renders f onto the strip. The device write runs on its own
// goroutine so a stalled port costs at most ctx's deadline.
func (s *Strip) Apply(ctx context.Context, f zone.Frame) error {
	if len(f) != s.zmap.Zones() {
		return fmt.Errorf("led: %w: strip has %d zones, frame %d", zone.ErrZoneCountMismatch, s.zmap.Zones(), len(f))
	}
	s.mu.Lock()
	if s.inflight {
		s.mu.Unlock()
		return ErrBusy
	}
	s.inflight = true
	img := image.NewNRGBA(s.img.Rect)
	s.mu.Unlock()

	for px, z := range s.zmap {
		img.SetNRGBA(px, 0, reorder(f[z], s.order).NRGBA())
	}

	done := make(chan error, 1)
	go func() {
		err := s.drawer.Draw(img.Bounds(), img, image.Point{})
		s.mu.Lock()
		s.inflight = false
		s.img = img
		s.mu.Unlock()
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("led: draw: %w", ctx.Err())
	}
}

// Close blanks the strip and halts the device.
func (s *Strip) Close() error {
	s.mu.Lock()
	busy := s.inflight
	s.mu.Unlock()
	if !busy {
		if err := s.drawer.Draw(s.img.Bounds(), image.NewNRGBA(s.img.Rect), image.Point{}); err != nil {
			log.Debug().Err(err).Msg("blank strip")
		}
	}
	err := s.drawer.Halt()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// reorder maps a true color onto the channel order the strip is wired
// for. The encoder emits G,R,B, so the wire bytes come out in order.
func reorder(c zone.Color, order string) zone.Color {
	if len(order) != 3 || order == "GRB" {
		return c
	}
	pick := func(ch byte) uint8 {
		switch ch {
		case 'R', 'r':
			return c.R
		case 'G', 'g':
			return c.G
		default:
			return c.B
		}
	}
	return zone.RGB(pick(order[1]), pick(order[0]), pick(order[2]))
}
