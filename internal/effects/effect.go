// Package effects loads the animations a tile can run.
//
// An effect file is a YAML document in the effects directory naming a
// registered kind plus its parameters:
//
//	kind: cycle
//	flush: B
//	palette: [R, O, Y]
//	interval: 2s
//	transition: 1s
//
// The file name without extension is the effect name. Files that do not
// decode, name an unknown kind, or lack a flush color are skipped.
package effects

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"tilefx/internal/colors"
	"tilefx/internal/lights"
)

// Effect drives a tile once the sequencer has handed it over.
type Effect interface {
	// Create runs the effect until ctx is done.
	Create(ctx context.Context, env Env) error
	// FlushColor is painted, without transition, before Create starts.
	FlushColor() colors.Color
}

// Env is what an effect gets to work with.
type Env struct {
	Device lights.TileDevice
	Tiles  []lights.Tile
	Bounds lights.Bounds
	Logger *slog.Logger
}

// Definition is the decoded content of an effect file.
type Definition struct {
	Kind       string           `yaml:"kind"`
	Flush      string           `yaml:"flush"`
	Palette    []string         `yaml:"palette"`
	Interval   time.Duration    `yaml:"interval"`
	Transition time.Duration    `yaml:"transition"`
	Override   *colors.Override `yaml:"override"`
}

// Colors returns the palette with the override applied. An empty palette
// falls back to the flush color.
func (d Definition) Colors() []colors.Color {
	if len(d.Palette) == 0 {
		return []colors.Color{colors.Parse(d.Flush)}
	}
	return colors.ParseAll(d.Palette, d.Override)
}

// Factory builds an effect from its definition, or rejects it.
type Factory func(def Definition) (Effect, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a kind available to effect files. It panics if the kind is
// registered twice.
func Register(kind string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if f == nil {
		panic("effects: Register factory is nil")
	}
	if _, dup := registry[kind]; dup {
		panic(fmt.Sprintf("effects: Register called twice for kind %q", kind))
	}
	registry[kind] = f
}

// Kinds lists the registered kinds in name order.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func lookup(kind string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[kind]
	return f, ok
}

// Build validates def and instantiates it.
func Build(def Definition) (Effect, error) {
	if def.Kind == "" {
		return nil, fmt.Errorf("missing kind")
	}
	if def.Flush == "" {
		return nil, fmt.Errorf("missing flush color")
	}
	f, ok := lookup(def.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown kind %q (known: %s)", def.Kind, strings.Join(Kinds(), ", "))
	}
	return f(def)
}
