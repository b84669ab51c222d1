// Package sequencer takes a freshly bound tile from whatever it is showing
// to a running effect without the operator seeing a stale color.
//
// The order is fixed:
//
//  1. read power
//  2. fade to off, if the tile is lit
//  3. flush to the effect's base color, with no transition
//  4. power on, if the tile was off
//  5. hand over to the effect
//
// Device commands are fire and forget, so each step is followed by a plain
// delay instead of an acknowledgement. A failed command is logged and the
// sequence carries on.
package sequencer

import (
	"context"
	"log/slog"
	"time"

	"tilefx/internal/colors"
	"tilefx/internal/discovery"
	"tilefx/internal/effects"
	"tilefx/internal/lights"
)

// Config holds the step delays.
type Config struct {
	FadeDuration     time.Duration
	FlushSettle      time.Duration
	PowerSettle      time.Duration
	PowerQuerySettle time.Duration
}

type Sequencer struct {
	cfg    Config
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func New(cfg Config, logger *slog.Logger) *Sequencer {
	return &Sequencer{
		cfg:    cfg,
		logger: logger.With("component", "sequencer"),
		sleep:  sleep,
	}
}

// Run drives the tile through the sequence and then blocks in the effect
// until ctx is done. It only returns early if ctx is cancelled during a
// delay.
func (s *Sequencer) Run(ctx context.Context, res *discovery.Resolved, effect effects.Effect) error {
	dev := res.Device

	s.logger.Debug("getting power")
	powered := s.power(ctx, dev)
	if err := s.sleep(ctx, s.cfg.PowerQuerySettle); err != nil {
		return err
	}

	if powered {
		s.logger.Debug("fading out", "duration", s.cfg.FadeDuration)
		s.paint(ctx, dev, res.Tiles, colors.Off, s.cfg.FadeDuration)
		if err := s.sleep(ctx, s.cfg.FadeDuration); err != nil {
			return err
		}
	}

	flush := effect.FlushColor()
	s.logger.Debug("flushing tiles", "color", flush.Hex())
	s.paint(ctx, dev, res.Tiles, flush, 0)
	if err := s.sleep(ctx, s.cfg.FlushSettle); err != nil {
		return err
	}

	if !powered {
		s.logger.Debug("powering on")
		if err := dev.SetPower(ctx, true); err != nil {
			s.logger.Warn("power on failed", "error", err)
		}
		if err := s.sleep(ctx, s.cfg.PowerSettle); err != nil {
			return err
		}
	}

	s.logger.Debug("creating effect")
	return effect.Create(ctx, effects.Env{
		Device: dev,
		Tiles:  res.Tiles,
		Bounds: res.Bounds,
		Logger: s.logger.With("component", "effect"),
	})
}

// power reads the power state. An unreadable state counts as off, which
// keeps the flush ahead of an explicit power-on.
func (s *Sequencer) power(ctx context.Context, dev lights.TileDevice) bool {
	on, err := dev.GetPower(ctx)
	if err != nil {
		s.logger.Warn("could not read power state, assuming off", "error", err)
		return false
	}
	return on
}

// paint sets every tile to c in one request addressed from the first tile.
func (s *Sequencer) paint(ctx context.Context, dev lights.TileDevice, tiles []lights.Tile, c colors.Color, d time.Duration) {
	if len(tiles) == 0 {
		return
	}
	first := tiles[0]
	err := dev.SetTileState(ctx, lights.TileState{
		Index:    first.Index,
		Length:   len(tiles),
		Colors:   colors.Fill(c, first.Pixels()),
		Duration: d,
	})
	if err != nil {
		s.logger.Warn("set tile state failed", "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
