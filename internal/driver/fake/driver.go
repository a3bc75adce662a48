package fake

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/coreman2200/zonefx/internal/zone"
)

// Driver prints a compact line per frame, useful for headless runs.
type Driver struct {
	Out io.Writer
	// Every prints only every n-th frame; 0 or 1 prints all.
	Every int

	mu    sync.Mutex
	count int
}

func (d *Driver) Apply(ctx context.Context, f zone.Frame) error {
	d.mu.Lock()
	d.count++
	n := d.count
	d.mu.Unlock()
	if d.Every > 1 && (n-1)%d.Every != 0 {
		return nil
	}

	var r, g, b int
	for _, c := range f {
		r += int(c.R)
		g += int(c.G)
		b += int(c.B)
	}
	z := len(f)
	if z == 0 {
		z = 1
	}
	_, err := fmt.Fprintf(d.Out, "[frame %04d] avg=(%d,%d,%d) %s\n",
		n, r/z, g/z, b/z, strings.Join(f.Hex(), " "))
	return err
}

// Count is the number of frames received.
func (d *Driver) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}
