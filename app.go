package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tilefx/internal/config"
	"tilefx/internal/discovery"
	"tilefx/internal/effects"
	"tilefx/internal/lights"
	"tilefx/internal/prompt"
	"tilefx/internal/sequencer"
	"tilefx/internal/store"
)

var errAlreadyRunning = errors.New("another tilefx process is already driving a tile")

// RunOptions are the per-invocation choices from the command line.
type RunOptions struct {
	Effect     string
	ClearCache bool
}

type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	resolver  *discovery.Resolver
	sequencer *sequencer.Sequencer
	selector  prompt.Selector

	device lights.TileDevice
}

// NewApp wires the app against the LAN.
func NewApp(cfg *config.Config, logger *slog.Logger, selector prompt.Selector) (*App, error) {
	cachePath := cfg.CachePath
	if cachePath == "" {
		p, err := store.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("locating cache: %w", err)
		}
		cachePath = p
	}
	lifxCtrl := lights.NewLIFXController(logger, cfg.Discovery.BroadcastHost, cfg.Discovery.Timeout)
	return newApp(cfg, logger, selector, store.New(cachePath), lifxCtrl, lifxCtrl), nil
}

func newApp(cfg *config.Config, logger *slog.Logger, selector prompt.Selector, s *store.Store, d discovery.Discoverer, b discovery.Binder) *App {
	return &App{
		cfg:      cfg,
		logger:   logger,
		store:    s,
		resolver: discovery.NewResolver(s, d, b, selector, logger),
		sequencer: sequencer.New(sequencer.Config{
			FadeDuration:     cfg.FadeDuration(),
			FlushSettle:      cfg.Sequence.FlushSettle,
			PowerSettle:      cfg.Sequence.PowerSettle,
			PowerQuerySettle: cfg.Sequence.PowerQuerySettle,
		}, logger),
		selector: selector,
	}
}

// Run resolves the tile, prepares it and runs the chosen effect until ctx
// is done. The device session is always closed before Run returns.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	defer a.shutdown()

	a.logger.Debug("validating config")
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.logger.Debug("getting effects", "path", a.cfg.EffectsPath)
	set, err := effects.Load(a.cfg.EffectsPath, a.logger)
	if err != nil {
		return err
	}
	if err := set.Check(opts.Effect); err != nil {
		return err
	}

	a.logger.Debug("finding tile")
	res, err := a.resolver.Resolve(ctx, discovery.Options{ClearCache: opts.ClearCache})
	if err != nil {
		return err
	}
	a.device = res.Device
	a.logger.Debug("resolved tile", "mac", res.Info.MAC, "ip", res.Info.IP, "tiles", len(res.Tiles))

	a.logger.Debug("selecting effect")
	name, effect, err := set.Choose(opts.Effect, a.selector)
	if err != nil {
		return err
	}
	a.logger.Info(fmt.Sprintf("Starting %s effect… (press [ctrl+c] to exit)", name), "tile", res.Info.DeviceInfo.Label)

	return a.sequencer.Run(ctx, res, effect)
}

func (a *App) shutdown() {
	if a.device == nil {
		return
	}
	a.logger.Debug("closing UDP connection")
	if err := a.device.Close(); err != nil {
		a.logger.Debug("close failed", "error", err)
	}
	a.device = nil
}
