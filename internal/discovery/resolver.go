package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tilefx/internal/lights"
	"tilefx/internal/prompt"
)

var (
	ErrNoTileFound       = errors.New("no tile found")
	ErrNoTileChosen      = errors.New("no tile chosen")
	ErrTileNotResponding = errors.New("tile not responding")
)

// Cache is the persisted result of the last discovery sweep.
type Cache interface {
	Load() ([]lights.DiscoveredDevice, bool, error)
	Save([]lights.DiscoveredDevice) error
	Invalidate() error
}

type Discoverer interface {
	Discover(ctx context.Context) ([]lights.DiscoveredDevice, error)
}

type Binder interface {
	Bind(ctx context.Context, d lights.DiscoveredDevice) (lights.TileDevice, error)
}

type Options struct {
	// ClearCache drops the snapshot once before the first lookup.
	ClearCache bool
}

// Resolved is a bound tile and the chain layout it reported.
type Resolved struct {
	Info   lights.DiscoveredDevice
	Device lights.TileDevice
	Tiles  []lights.Tile
	Bounds lights.Bounds
}

// Resolver finds the one tile to drive, preferring the cached sweep and
// rediscovering at most once per call.
type Resolver struct {
	cache      Cache
	discoverer Discoverer
	binder     Binder
	selector   prompt.Selector
	logger     *slog.Logger
}

func NewResolver(cache Cache, discoverer Discoverer, binder Binder, selector prompt.Selector, logger *slog.Logger) *Resolver {
	return &Resolver{
		cache:      cache,
		discoverer: discoverer,
		binder:     binder,
		selector:   selector,
		logger:     logger.With("component", "resolver"),
	}
}

func (r *Resolver) Resolve(ctx context.Context, opts Options) (*Resolved, error) {
	chosen, err := r.find(ctx, opts)
	if err != nil {
		return nil, err
	}
	return r.bind(ctx, chosen)
}

func (r *Resolver) find(ctx context.Context, opts Options) (lights.DiscoveredDevice, error) {
	var (
		discovered bool
		cleared    bool
	)

	for {
		if err := ctx.Err(); err != nil {
			return lights.DiscoveredDevice{}, err
		}

		r.logger.Debug("looking for cache")
		cached, ok, err := r.cache.Load()
		if err != nil {
			return lights.DiscoveredDevice{}, err
		}

		switch {
		case !ok:
			r.logger.Info("Discovering LIFX devices…")
			devices, err := r.discoverer.Discover(ctx)
			if err != nil {
				return lights.DiscoveredDevice{}, fmt.Errorf("discovery: %w", err)
			}
			r.logger.Debug("writing cache", "devices", len(devices))
			if err := r.cache.Save(devices); err != nil {
				return lights.DiscoveredDevice{}, fmt.Errorf("write cache: %w", err)
			}
			discovered = true
			cached = devices
		case opts.ClearCache && !cleared:
			r.logger.Info("Clearing device cache…")
			if err := r.cache.Invalidate(); err != nil {
				return lights.DiscoveredDevice{}, fmt.Errorf("clear cache: %w", err)
			}
			cleared = true
			continue
		}

		r.logger.Debug("searching cache for tile", "devices", len(cached))
		tiles := filterTiles(cached)
		switch len(tiles) {
		case 1:
			return tiles[0], nil
		case 0:
		default:
			return r.choose(tiles)
		}

		r.logger.Debug("tile not found in cache")
		if discovered {
			return lights.DiscoveredDevice{}, ErrNoTileFound
		}
		r.logger.Debug("clearing stale cache")
		if err := r.cache.Invalidate(); err != nil {
			return lights.DiscoveredDevice{}, fmt.Errorf("clear cache: %w", err)
		}
		r.logger.Info("Finding tile…")
	}
}

func (r *Resolver) choose(tiles []lights.DiscoveredDevice) (lights.DiscoveredDevice, error) {
	labels := make([]string, len(tiles))
	for i, t := range tiles {
		labels[i] = t.Label()
	}

	selected, err := r.selector.Select("Choose a tile", labels)
	if err != nil {
		r.logger.Debug("tile selection failed", "error", err)
		return lights.DiscoveredDevice{}, ErrNoTileChosen
	}
	for _, t := range tiles {
		if t.Label() == selected {
			return t, nil
		}
	}
	return lights.DiscoveredDevice{}, ErrNoTileChosen
}

func (r *Resolver) bind(ctx context.Context, d lights.DiscoveredDevice) (*Resolved, error) {
	r.logger.Debug("creating device", "mac", d.MAC, "ip", d.IP)
	dev, err := r.binder.Bind(ctx, d)
	if err != nil {
		r.logger.Debug("bind failed", "mac", d.MAC, "error", err)
		return nil, notResponding(ctx)
	}

	r.logger.Debug("getting tiles and bounds", "mac", d.MAC)
	tiles, bounds, err := dev.Tiles(ctx)
	if err != nil {
		r.logger.Debug("tile query failed", "mac", d.MAC, "error", err)
		_ = dev.Close()
		return nil, notResponding(ctx)
	}

	return &Resolved{
		Info:   d,
		Device: dev,
		Tiles:  tiles,
		Bounds: bounds,
	}, nil
}

// notResponding reports an interrupted bind as such rather than as a dead
// tile.
func notResponding(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrTileNotResponding
}

func filterTiles(devices []lights.DiscoveredDevice) []lights.DiscoveredDevice {
	var tiles []lights.DiscoveredDevice
	for _, d := range devices {
		if d.IsTile() {
			tiles = append(tiles, d)
		}
	}
	return tiles
}
