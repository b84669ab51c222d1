// Package mocks holds testify mocks of the collaborators the resolver and
// sequencer depend on.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"tilefx/internal/lights"
)

type Cache struct {
	mock.Mock
}

func (_m *Cache) Load() ([]lights.DiscoveredDevice, bool, error) {
	ret := _m.Called()

	var r0 []lights.DiscoveredDevice
	if rf, ok := ret.Get(0).(func() []lights.DiscoveredDevice); ok {
		r0 = rf()
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]lights.DiscoveredDevice)
	}

	return r0, ret.Bool(1), ret.Error(2)
}

func (_m *Cache) Save(devices []lights.DiscoveredDevice) error {
	ret := _m.Called(devices)
	return ret.Error(0)
}

func (_m *Cache) Invalidate() error {
	ret := _m.Called()
	return ret.Error(0)
}

type Discoverer struct {
	mock.Mock
}

func (_m *Discoverer) Discover(ctx context.Context) ([]lights.DiscoveredDevice, error) {
	ret := _m.Called(ctx)

	var r0 []lights.DiscoveredDevice
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]lights.DiscoveredDevice)
	}

	return r0, ret.Error(1)
}

type Binder struct {
	mock.Mock
}

func (_m *Binder) Bind(ctx context.Context, d lights.DiscoveredDevice) (lights.TileDevice, error) {
	ret := _m.Called(ctx, d)

	var r0 lights.TileDevice
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(lights.TileDevice)
	}

	return r0, ret.Error(1)
}

type Selector struct {
	mock.Mock
}

func (_m *Selector) Select(label string, items []string) (string, error) {
	ret := _m.Called(label, items)
	return ret.String(0), ret.Error(1)
}

type TileDevice struct {
	mock.Mock
}

func (_m *TileDevice) GetPower(ctx context.Context) (bool, error) {
	ret := _m.Called(ctx)
	return ret.Bool(0), ret.Error(1)
}

func (_m *TileDevice) SetPower(ctx context.Context, on bool) error {
	ret := _m.Called(ctx, on)
	return ret.Error(0)
}

func (_m *TileDevice) Tiles(ctx context.Context) ([]lights.Tile, lights.Bounds, error) {
	ret := _m.Called(ctx)

	var r0 []lights.Tile
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]lights.Tile)
	}
	var r1 lights.Bounds
	if ret.Get(1) != nil {
		r1 = ret.Get(1).(lights.Bounds)
	}

	return r0, r1, ret.Error(2)
}

func (_m *TileDevice) SetTileState(ctx context.Context, state lights.TileState) error {
	ret := _m.Called(ctx, state)
	return ret.Error(0)
}

func (_m *TileDevice) Close() error {
	ret := _m.Called()
	return ret.Error(0)
}
