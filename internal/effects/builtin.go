package effects

import (
	"context"
	"fmt"
	"time"

	"tilefx/internal/colors"
	"tilefx/internal/lights"
)

const defaultInterval = time.Second

func init() {
	Register("solid", newSolid)
	Register("cycle", newCycle)
	Register("scroll", newScroll)
}

type base struct {
	flush      colors.Color
	palette    []colors.Color
	interval   time.Duration
	transition time.Duration
}

func newBase(def Definition) base {
	interval := def.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return base{
		flush:      colors.Parse(def.Flush),
		palette:    def.Colors(),
		interval:   interval,
		transition: def.Transition,
	}
}

func (b base) FlushColor() colors.Color {
	return b.flush
}

// paintAll sends one request covering the whole chain, the same way the
// sequencer flushes.
func (b base) paintAll(ctx context.Context, env Env, c colors.Color) {
	if len(env.Tiles) == 0 {
		return
	}
	first := env.Tiles[0]
	err := env.Device.SetTileState(ctx, lights.TileState{
		Index:    first.Index,
		Length:   len(env.Tiles),
		Colors:   colors.Fill(c, first.Pixels()),
		Duration: b.transition,
	})
	if err != nil && env.Logger != nil {
		env.Logger.Debug("set tile state failed", "error", err)
	}
}

// every calls fn with an increasing step until ctx is done.
func (b base) every(ctx context.Context, fn func(step int)) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for step := 0; ; step++ {
		fn(step)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// solid paints the first palette color and holds it.
type solid struct{ base }

func newSolid(def Definition) (Effect, error) {
	return &solid{newBase(def)}, nil
}

func (e *solid) Create(ctx context.Context, env Env) error {
	e.paintAll(ctx, env, e.palette[0])
	<-ctx.Done()
	return ctx.Err()
}

// cycle moves the whole chain through the palette, one color per interval.
type cycle struct{ base }

func newCycle(def Definition) (Effect, error) {
	if len(def.Palette) < 2 {
		return nil, fmt.Errorf("cycle needs at least two palette colors")
	}
	return &cycle{newBase(def)}, nil
}

func (e *cycle) Create(ctx context.Context, env Env) error {
	return e.every(ctx, func(step int) {
		e.paintAll(ctx, env, e.palette[step%len(e.palette)])
	})
}

// scroll draws vertical palette bands across the layout bounds and shifts
// them one column per interval.
type scroll struct {
	base
	band int
}

func newScroll(def Definition) (Effect, error) {
	if len(def.Palette) < 2 {
		return nil, fmt.Errorf("scroll needs at least two palette colors")
	}
	return &scroll{base: newBase(def), band: 2}, nil
}

func (e *scroll) Create(ctx context.Context, env Env) error {
	return e.every(ctx, func(step int) {
		for _, t := range env.Tiles {
			err := env.Device.SetTileState(ctx, lights.TileState{
				Index:    t.Index,
				Length:   1,
				Colors:   e.frame(t, env.Bounds, step),
				Duration: e.transition,
			})
			if err != nil && env.Logger != nil {
				env.Logger.Debug("set tile state failed", "tile", t.Index, "error", err)
			}
		}
	})
}

func (e *scroll) frame(t lights.Tile, b lights.Bounds, step int) []colors.Color {
	out := make([]colors.Color, t.Pixels())
	for py := 0; py < t.Height; py++ {
		for px := 0; px < t.Width; px++ {
			col := t.X + px - b.X + step
			out[py*t.Width+px] = e.palette[(col/e.band)%len(e.palette)]
		}
	}
	return out
}
