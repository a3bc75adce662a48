package app

import (
	"context"
	"time"

	"github.com/coreman2200/zonefx/internal/engine"
	"github.com/coreman2200/zonefx/internal/sequence"
)

// Conductor is the periodic driver: each tick advances the playlist, then
// renders and publishes one frame.
type Conductor struct {
	Eng *engine.Engine
	Seq *sequence.Player
}

func (c *Conductor) Run(ctx context.Context, fps int) {
	if fps <= 0 {
		fps = 30
	}
	dt := time.Second / time.Duration(fps)
	ticker := time.NewTicker(dt)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.Seq != nil {
				c.Seq.Tick(dt.Seconds())
			}
			c.Eng.Tick(ctx)
		}
	}
}
