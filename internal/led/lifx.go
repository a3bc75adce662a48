package led

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pdf/golifx"
	"github.com/pdf/golifx/common"
	"github.com/pdf/golifx/protocol"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/zonefx/internal/zone"
)

const (
	lifxKelvin            = 3500
	lifxDiscoveryInterval = 15 * time.Second
	lifxDiscoveryTimeout  = 5 * time.Second
)

// Bulb is the part of a LIFX light the sink drives.
type Bulb interface {
	SetColor(color common.Color, duration time.Duration) error
}

// LIFX maps each zone onto one LIFX bulb, found by label. Bulbs that are
// not found yet are skipped and retried by the discovery loop.
type LIFX struct {
	labels []string
	fade   time.Duration
	client *golifx.Client
	log    zerolog.Logger

	mu    sync.Mutex
	bulbs []Bulb
	last  []common.Color
	sent  []bool
	busy  []bool
}

// NewLIFX starts a LAN client and resolves labels in the background
// until ctx is done. labels[i] is the bulb for zone i.
func NewLIFX(ctx context.Context, labels []string, fade time.Duration) (*LIFX, error) {
	client, err := golifx.NewClient(&protocol.V2{})
	if err != nil {
		return nil, fmt.Errorf("lifx: client: %w", err)
	}
	if err := client.SetDiscoveryInterval(lifxDiscoveryInterval); err != nil {
		log.Debug().Err(err).Msg("lifx: discovery interval")
	}
	client.SetTimeout(lifxDiscoveryTimeout)
	l := newLIFX(labels, fade)
	l.client = client
	go l.run(ctx)
	return l, nil
}

func newLIFX(labels []string, fade time.Duration) *LIFX {
	return &LIFX{
		labels: labels,
		fade:   fade,
		log:    log.With().Str("component", "lifx").Logger(),
		bulbs:  make([]Bulb, len(labels)),
		last:   make([]common.Color, len(labels)),
		sent:   make([]bool, len(labels)),
		busy:   make([]bool, len(labels)),
	}
}

func (l *LIFX) run(ctx context.Context) {
	ticker := time.NewTicker(lifxDiscoveryInterval)
	defer ticker.Stop()
	l.discover()
	for {
		select {
		case <-ticker.C:
			l.discover()
		case <-ctx.Done():
			return
		}
	}
}

func (l *LIFX) discover() {
	for i, label := range l.labels {
		l.mu.Lock()
		found := l.bulbs[i] != nil
		l.mu.Unlock()
		if found || label == "" {
			continue
		}
		light, err := l.client.GetLightByLabel(label)
		if err != nil {
			l.log.Debug().Err(err).Str("label", label).Msg("bulb not found")
			continue
		}
		l.log.Info().Str("label", label).Int("zone", i).Msg("bulb found")
		l.setBulb(i, light)
	}
}

func (l *LIFX) setBulb(zoneIdx int, b Bulb) {
	l.mu.Lock()
	l.bulbs[zoneIdx] = b
	l.sent[zoneIdx] = false
	l.mu.Unlock()
}

// Apply sends changed zone colors to their bulbs concurrently. A bulb
// with a send still outstanding is skipped and ErrBusy is returned.
func (l *LIFX) Apply(ctx context.Context, f zone.Frame) error {
	type job struct {
		zone  int
		bulb  Bulb
		color common.Color
	}
	var jobs []job
	skipped := 0
	l.mu.Lock()
	for i, b := range l.bulbs {
		if b == nil || i >= len(f) {
			continue
		}
		c := lifxColor(f[i])
		if l.sent[i] && l.last[i] == c {
			continue
		}
		if l.busy[i] {
			skipped++
			continue
		}
		l.busy[i] = true
		jobs = append(jobs, job{zone: i, bulb: b, color: c})
	}
	l.mu.Unlock()
	if len(jobs) == 0 {
		if skipped > 0 {
			return fmt.Errorf("lifx: %w", ErrBusy)
		}
		return nil
	}

	errs := make(chan error, len(jobs))
	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			defer func() {
				l.mu.Lock()
				l.busy[j.zone] = false
				l.mu.Unlock()
			}()
			if err := j.bulb.SetColor(j.color, l.fade); err != nil {
				l.mu.Lock()
				l.bulbs[j.zone] = nil
				l.mu.Unlock()
				errs <- fmt.Errorf("zone %d: %w", j.zone, err)
				return
			}
			l.mu.Lock()
			l.last[j.zone] = j.color
			l.sent[j.zone] = true
			l.mu.Unlock()
		}(j)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("lifx: %w", ctx.Err())
	}
	close(errs)
	if err, ok := <-errs; ok {
		return fmt.Errorf("lifx: %w", err)
	}
	if skipped > 0 {
		return fmt.Errorf("lifx: %w", ErrBusy)
	}
	return nil
}

func (l *LIFX) Close() error {
	if l.client == nil {
		return nil
	}
	return l.client.Close()
}

// lifxColor converts to LIFX 16-bit HSB. Black turns the bulb dark.
func lifxColor(c zone.Color) common.Color {
	if c == zone.Black {
		return common.Color{Kelvin: lifxKelvin}
	}
	h, s, v := c.HSV()
	return common.Color{
		Hue:        uint16(h*0xffff + 0.5),
		Saturation: uint16(s*0xffff + 0.5),
		Brightness: uint16(v*0xffff + 0.5),
		Kelvin:     lifxKelvin,
	}
}
