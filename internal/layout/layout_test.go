package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/zonefx/internal/zone"
)

func TestKeyboardElements(t *testing.T) {
	l := Keyboard(zone.DefaultCount)
	assert.Equal(t, 4, l.Zones)
	assert.Len(t, l.Of(Key), 78)
	assert.Len(t, l.Of(ZoneBackground), 4)
	assert.Len(t, l.Of(Divider), 3)
	assert.Len(t, l.Of(Label), 4)
	require.Len(t, l.Of(Outline), 1)
	assert.Equal(t, NoZone, l.Of(Outline)[0].Zone)

	for i, lb := range l.Of(Label) {
		assert.Equal(t, i, lb.Zone)
	}
	assert.Equal(t, "Z1", l.Of(Label)[0].Text)
}

func TestKeyboardEveryZoneHasKeys(t *testing.T) {
	for _, n := range []int{1, 3, 4, 7} {
		l := Keyboard(n)
		seen := map[int]bool{}
		for _, k := range l.Of(Key) {
			require.True(t, k.Zone >= 0 && k.Zone < n, "zone %d of %d", k.Zone, n)
			seen[k.Zone] = true
		}
		assert.Len(t, seen, n, "zones=%d", n)
	}
}

func TestKeyboardRowsAreFlush(t *testing.T) {
	l := Keyboard(4)
	right := map[float64]float64{}
	for _, k := range l.Of(Key) {
		if end := k.Rect.X + k.Rect.W; end > right[k.Rect.Y] {
			right[k.Rect.Y] = end
		}
	}
	// the arrow stack adds a half-height row start
	for y, end := range right {
		if y == marginY+5*(rowH+rowGap)+rowH/2 {
			continue
		}
		assert.InDelta(t, canvasW-marginX, end, 1e-9, "row y=%v", y)
	}
}

func TestSpaceBarSplitsZones(t *testing.T) {
	l := Keyboard(4)
	y := float64(marginY + 5*(rowH+rowGap))
	var zones []int
	for _, k := range l.Of(Key) {
		if k.Rect.Y == y && k.Rect.W > 90 {
			zones = append(zones, k.Zone)
		}
	}
	assert.Equal(t, []int{2, 3}, zones)
}

func TestPaint(t *testing.T) {
	l := Keyboard(4)
	f := zone.Frame{zone.White, zone.Black, zone.RGB(255, 0, 0), zone.RGB(10, 10, 10)}
	styles := l.Paint(f)
	require.Len(t, styles, len(l.Elements))

	for i, e := range l.Elements {
		s := styles[i]
		assert.Equal(t, i, s.Element)
		if e.Kind != Key {
			continue
		}
		assert.Equal(t, f[e.Zone].Hex(), s.Fill)
		switch e.Zone {
		case 0, 2:
			assert.Equal(t, strokeLit, s.Stroke)
		default:
			assert.Equal(t, strokeDark, s.Stroke)
		}
	}

	short := l.Paint(zone.Frame{zone.White})
	for i, e := range l.Elements {
		if e.Kind == Key && e.Zone > 0 {
			assert.True(t, short[i].Dimmed)
			assert.Equal(t, keyOff, short[i].Fill)
		}
	}
}
