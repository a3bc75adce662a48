package led

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdf/golifx/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/coreman2200/zonefx/internal/zone"
)

// fakeDrawer keeps the last image drawn; gate, when set, blocks Draw.
type fakeDrawer struct {
	mu     sync.Mutex
	w      int
	last   *image.NRGBA
	draws  int
	halted bool
	gate   chan struct{}
}

func (d *fakeDrawer) String() string          { return "fake" }
func (d *fakeDrawer) ColorModel() color.Model { return color.NRGBAModel }
func (d *fakeDrawer) Bounds() image.Rectangle { return image.Rect(0, 0, d.w, 1) }
func (d *fakeDrawer) Halt() error             { d.mu.Lock(); d.halted = true; d.mu.Unlock(); return nil }
func (d *fakeDrawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if d.gate != nil {
		<-d.gate
	}
	img := image.NewNRGBA(r)
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, 0, src.At(x, 0))
	}
	d.mu.Lock()
	d.last = img
	d.draws++
	d.mu.Unlock()
	return nil
}

func (d *fakeDrawer) pixel(x int) zone.Color {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := d.last.NRGBAAt(x, 0)
	return zone.RGB(c.R, c.G, c.B)
}

func TestBuildZoneMap(t *testing.T) {
	m := BuildZoneMap(3, 2, Order{})
	assert.Equal(t, ZoneMap{0, 0, 1, 1, 2, 2}, m)
	assert.Equal(t, 6, m.Pixels())
	assert.Equal(t, 3, m.Zones())

	r := BuildZoneMap(3, 2, Order{Reverse: true})
	assert.Equal(t, ZoneMap{2, 2, 1, 1, 0, 0}, r)
	assert.Equal(t, []int{4, 5}, r.PixelsOf(0))

	assert.Equal(t, ZoneMap{0}, BuildZoneMap(0, 0, Order{}))
}

func TestStripPaintsZones(t *testing.T) {
	d := &fakeDrawer{w: 8}
	s := NewStrip(d, BuildZoneMap(4, 2, Order{}), "GRB")
	f := zone.Frame{zone.RGB(255, 0, 0), zone.RGB(0, 255, 0), zone.RGB(0, 0, 255), zone.White}
	require.NoError(t, s.Apply(context.Background(), f))

	for px, want := range []zone.Color{f[0], f[0], f[1], f[1], f[2], f[2], f[3], f[3]} {
		assert.Equal(t, want, d.pixel(px), "pixel %d", px)
	}

	err := s.Apply(context.Background(), zone.Blank(3))
	assert.True(t, errors.Is(err, zone.ErrZoneCountMismatch))
}

func TestStripColorOrder(t *testing.T) {
	c := zone.RGB(1, 2, 3)
	assert.Equal(t, c, reorder(c, "GRB"))
	assert.Equal(t, c, reorder(c, ""))
	// encoder emits G,R,B; an RGB strip needs R in the G slot
	assert.Equal(t, zone.RGB(2, 1, 3), reorder(c, "RGB"))
	assert.Equal(t, zone.RGB(1, 3, 2), reorder(c, "BRG"))
}

func TestStripDeadlineAndBusy(t *testing.T) {
	d := &fakeDrawer{w: 4, gate: make(chan struct{})}
	s := NewStrip(d, BuildZoneMap(4, 1, Order{}), "GRB")
	f := zone.Broadcast(zone.White, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	err := s.Apply(ctx, f)
	cancel()
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	assert.Equal(t, ErrBusy, s.Apply(context.Background(), f))

	close(d.gate)
	require.Eventually(t, func() bool {
		return s.Apply(context.Background(), f) == nil
	}, time.Second, 5*time.Millisecond)
}

func TestStripClose(t *testing.T) {
	d := &fakeDrawer{w: 2}
	s := NewStrip(d, BuildZoneMap(2, 1, Order{}), "GRB")
	require.NoError(t, s.Apply(context.Background(), zone.Broadcast(zone.White, 2)))
	require.NoError(t, s.Close())
	assert.True(t, d.halted)
	assert.Equal(t, zone.Black, d.pixel(0))
}

func TestStripOverNRZLED(t *testing.T) {
	buf := bytes.Buffer{}
	d, err := OpenSPI(spitest.NewRecordRaw(&buf), 8, 0)
	require.NoError(t, err)
	assert.Equal(t, "nrzled{recordraw}", d.String())

	s := NewStrip(d, BuildZoneMap(4, 2, Order{}), "GRB")
	require.NoError(t, s.Apply(context.Background(), zone.Broadcast(zone.RGB(0x10, 0x20, 0x30), 4)))
	assert.NotZero(t, buf.Len())
}

// fakeBulb records colors it was sent. A non-nil gate holds each send.
type fakeBulb struct {
	mu    sync.Mutex
	got   []common.Color
	fail  error
	gate  chan struct{}
	calls atomic.Int32
}

func (b *fakeBulb) SetColor(c common.Color, _ time.Duration) error {
	b.calls.Add(1)
	if b.gate != nil {
		<-b.gate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return b.fail
	}
	b.got = append(b.got, c)
	return nil
}

func (b *fakeBulb) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.got)
}

func TestLIFXColor(t *testing.T) {
	assert.Equal(t, common.Color{Kelvin: lifxKelvin}, lifxColor(zone.Black))
	red := lifxColor(zone.RGB(255, 0, 0))
	assert.Equal(t, uint16(0), red.Hue)
	assert.Equal(t, uint16(0xffff), red.Saturation)
	assert.Equal(t, uint16(0xffff), red.Brightness)
	white := lifxColor(zone.White)
	assert.Equal(t, uint16(0), white.Saturation)
}

func TestLIFXSendsChangedZones(t *testing.T) {
	l := newLIFX([]string{"left", "right", "missing"}, 0)
	left, right := &fakeBulb{}, &fakeBulb{}
	l.setBulb(0, left)
	l.setBulb(1, right)

	ctx := context.Background()
	f := zone.Frame{zone.White, zone.Black, zone.White}
	require.NoError(t, l.Apply(ctx, f))
	require.NoError(t, l.Apply(ctx, f))
	assert.Equal(t, 1, left.count())
	assert.Equal(t, 1, right.count())

	f[1] = zone.RGB(0, 0, 255)
	require.NoError(t, l.Apply(ctx, f))
	assert.Equal(t, 1, left.count())
	assert.Equal(t, 2, right.count())
}

func TestLIFXDropsFailingBulb(t *testing.T) {
	l := newLIFX([]string{"a"}, 0)
	boom := errors.New("timeout")
	l.setBulb(0, &fakeBulb{fail: boom})
	err := l.Apply(context.Background(), zone.Frame{zone.White})
	assert.True(t, errors.Is(err, boom))
	assert.NoError(t, l.Apply(context.Background(), zone.Frame{zone.White}))
	assert.NoError(t, l.Close())
}

func TestLIFXSkipsBulbWithSendInFlight(t *testing.T) {
	l := newLIFX([]string{"slow", "fast"}, 0)
	slow := &fakeBulb{gate: make(chan struct{})}
	fast := &fakeBulb{}
	l.setBulb(0, slow)
	l.setBulb(1, fast)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	err := l.Apply(ctx, zone.Frame{zone.White, zone.White})
	cancel()
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	for i := 0; i < 5; i++ {
		c := zone.RGB(uint8(i), 0, 255)
		err := l.Apply(context.Background(), zone.Frame{c, c})
		assert.ErrorIs(t, err, ErrBusy)
	}
	assert.Equal(t, int32(1), slow.calls.Load())
	assert.Equal(t, 6, fast.count())

	close(slow.gate)
	require.Eventually(t, func() bool {
		return l.Apply(context.Background(), zone.Frame{zone.Black, zone.Black}) == nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, slow.count())
}
