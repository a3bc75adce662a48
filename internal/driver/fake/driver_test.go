package fake

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/zonefx/internal/zone"
)

func TestDriverPrints(t *testing.T) {
	var buf bytes.Buffer
	d := &Driver{Out: &buf, Every: 2}
	f := zone.Frame{zone.White, zone.Black}
	for i := 0; i < 3; i++ {
		require.NoError(t, d.Apply(context.Background(), f))
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"[frame 0001] avg=(127,127,127) #ffffff #000000",
		"[frame 0003] avg=(127,127,127) #ffffff #000000",
	}, lines)
	assert.Equal(t, 3, d.Count())
}
