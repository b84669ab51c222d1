package lights

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yhsif.com/lifxlan"
	"go.yhsif.com/lifxlan/light"
	"go.yhsif.com/lifxlan/mock"
	"go.yhsif.com/lifxlan/tile"

	"tilefx/internal/colors"
)

func TestDiscoveredDeviceLabel(t *testing.T) {
	d := DiscoveredDevice{MAC: "d0:73:d5:00:00:01", DeviceInfo: DeviceInfo{Label: "Desk"}}
	assert.Equal(t, "Desk [d0:73:d5:00:00:01]", d.Label())
}

func TestDiscoveredDeviceIsTile(t *testing.T) {
	assert.True(t, DiscoveredDevice{DeviceInfo: DeviceInfo{ProductID: 55}}.IsTile())
	assert.False(t, DiscoveredDevice{DeviceInfo: DeviceInfo{ProductID: 27}}.IsTile())
}

func TestDiscoveredDeviceKeepsUnknownFields(t *testing.T) {
	in := `{
		"mac": "d0:73:d5:00:00:01",
		"ip": "192.168.1.20",
		"signal": -42,
		"deviceInfo": {"label": "Desk", "productId": 55, "hwVersion": 2, "features": {"matrix": true}}
	}`

	var d DiscoveredDevice
	require.NoError(t, json.Unmarshal([]byte(in), &d))
	assert.Equal(t, "192.168.1.20", d.IP)
	assert.Equal(t, 55, d.DeviceInfo.ProductID)
	assert.JSONEq(t, `-42`, string(d.Extra["signal"]))
	assert.JSONEq(t, `{"matrix": true}`, string(d.DeviceInfo.Extra["features"]))

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"mac": "d0:73:d5:00:00:01",
		"ip": "192.168.1.20",
		"signal": -42,
		"deviceInfo": {"label": "Desk", "productId": 55, "hwVersion": 2, "features": {"matrix": true}}
	}`, string(out))
}

func TestDiscoveredDeviceWithoutExtras(t *testing.T) {
	var d DiscoveredDevice
	require.NoError(t, json.Unmarshal([]byte(`{"mac":"m","ip":"i","deviceInfo":{"label":"l","productId":1}}`), &d))
	assert.Nil(t, d.Extra)
	assert.Nil(t, d.DeviceInfo.Extra)
}

func TestBoundsOf(t *testing.T) {
	assert.Equal(t, Bounds{}, BoundsOf(nil))
	assert.Equal(t, Bounds{X: 8, Y: 0, Width: 8, Height: 16}, BoundsOf([]Tile{
		{Index: 0, X: 8, Y: 0, Width: 8, Height: 8},
		{Index: 1, X: 8, Y: 8, Width: 8, Height: 8},
	}))
}

func TestChainLayout(t *testing.T) {
	tests := []struct {
		name   string
		chain  []tile.Tile
		want   []Tile
		bounds Bounds
	}{
		{
			name:  "row",
			chain: []tile.Tile{{Width: 8, Height: 8}, {UserX: 1, Width: 8, Height: 8}},
			want: []Tile{
				{Index: 0, X: 0, Y: 0, Width: 8, Height: 8},
				{Index: 1, X: 8, Y: 0, Width: 8, Height: 8},
			},
			bounds: Bounds{Width: 16, Height: 8},
		},
		{
			name:  "staggered",
			chain: []tile.Tile{{Width: 8, Height: 8}, {UserX: 1, UserY: 0.5, Width: 8, Height: 8}},
			want: []Tile{
				{Index: 0, X: 0, Y: 0, Width: 8, Height: 8},
				{Index: 1, X: 8, Y: 4, Width: 8, Height: 8},
			},
			bounds: Bounds{Width: 16, Height: 12},
		},
		{
			name:  "left of origin",
			chain: []tile.Tile{{Width: 8, Height: 8}, {UserX: -1, Width: 8, Height: 8}},
			want: []Tile{
				{Index: 0, X: 8, Y: 0, Width: 8, Height: 8},
				{Index: 1, X: 0, Y: 0, Width: 8, Height: 8},
			},
			bounds: Bounds{Width: 16, Height: 8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chainLayout(tt.chain)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.bounds, BoundsOf(got))
		})
	}

	assert.Nil(t, chainLayout(nil))
}

const testTimeout = 200 * time.Millisecond

func startTile(t *testing.T, chain ...tile.RawTileDevice) (*mock.Service, *lifxTile) {
	t.Helper()

	var label lifxlan.Label
	require.NoError(t, label.Set("Hall"))

	service, device := mock.StartService(t)
	service.RawStatePayload = &light.RawStatePayload{Label: label}
	service.RawStatePowerPayload = &lifxlan.RawStatePowerPayload{Level: lifxlan.PowerOn}

	raw := &tile.RawStateDeviceChainPayload{TotalCount: uint8(len(chain))}
	copy(raw.TileDevices[:], chain)
	service.RawStateDeviceChainPayload = raw

	c := NewLIFXController(slog.New(slog.NewTextHandler(io.Discard, nil)), "", 0)
	c.queryTimeout = testTimeout
	td, err := c.open(device)
	require.NoError(t, err)
	t.Cleanup(func() { td.Close() })
	return service, td
}

// captureSet64 records every Set64 packet the mock device receives.
func captureSet64(service *mock.Service) <-chan tile.RawSetTileState64Payload {
	sent := make(chan tile.RawSetTileState64Payload, 16)
	service.Handlers[tile.SetTileState64] = func(s *mock.Service, _ net.PacketConn, _ net.Addr, orig *lifxlan.Response) {
		var raw tile.RawSetTileState64Payload
		if err := binary.Read(bytes.NewReader(orig.Payload), binary.LittleEndian, &raw); err != nil {
			s.TB.Log(err)
			return
		}
		sent <- raw
	}
	return sent
}

func panel(x, y float32) tile.RawTileDevice {
	return tile.RawTileDevice{UserX: x, UserY: y, Width: 8, Height: 8}
}

func TestLIFXTileReadsChainFromDevice(t *testing.T) {
	_, td := startTile(t, panel(0, 0), panel(1, 0.5))

	tiles, bounds, err := td.Tiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Tile{
		{Index: 0, X: 0, Y: 0, Width: 8, Height: 8},
		{Index: 1, X: 8, Y: 4, Width: 8, Height: 8},
	}, tiles)
	assert.Equal(t, Bounds{Width: 16, Height: 12}, bounds)
}

func TestLIFXTileEmptyChain(t *testing.T) {
	_, td := startTile(t)

	_, _, err := td.Tiles(context.Background())
	assert.Error(t, err)
}

func TestLIFXTileGetPower(t *testing.T) {
	_, td := startTile(t, panel(0, 0))

	on, err := td.GetPower(context.Background())
	require.NoError(t, err)
	assert.True(t, on)
}

func TestLIFXTileSetTileStateTouchesOnlyAddressedTiles(t *testing.T) {
	service, td := startTile(t, panel(0, 0), panel(1, 0), panel(2, 0))
	sent := captureSet64(service)

	_, _, err := td.Tiles(context.Background())
	require.NoError(t, err)

	red := colors.Parse("R")
	require.NoError(t, td.SetTileState(context.Background(), TileState{
		Index:    1,
		Length:   1,
		Colors:   colors.Fill(red, 64),
		Duration: time.Second,
	}))

	select {
	case raw := <-sent:
		assert.Equal(t, uint8(1), raw.TileIndex)
		assert.Equal(t, uint8(1), raw.Length)
		assert.Equal(t, uint8(8), raw.Width)
		assert.Equal(t, lifxlan.ConvertDuration(time.Second), raw.Duration)
		for i, c := range raw.Colors {
			assert.Equal(t, colors.ToLIFX(red), c, "pixel %d", i)
		}
	case <-time.After(time.Second):
		t.Fatal("no Set64 packet received")
	}

	select {
	case raw := <-sent:
		t.Fatalf("unexpected second packet for tile %d", raw.TileIndex)
	case <-time.After(testTimeout):
	}
}

func TestLIFXTileSetTileStateWholeChain(t *testing.T) {
	service, td := startTile(t, panel(0, 0), panel(1, 0.5))
	sent := captureSet64(service)

	tiles, _, err := td.Tiles(context.Background())
	require.NoError(t, err)

	require.NoError(t, td.SetTileState(context.Background(), TileState{
		Index:  tiles[0].Index,
		Length: len(tiles),
		Colors: colors.Fill(colors.Parse("B"), tiles[0].Pixels()),
	}))

	select {
	case raw := <-sent:
		assert.Equal(t, uint8(0), raw.TileIndex)
		assert.Equal(t, uint8(2), raw.Length)
	case <-time.After(time.Second):
		t.Fatal("no Set64 packet received")
	}
}

func TestLIFXTileSetTileStateRejectsBadRange(t *testing.T) {
	_, td := startTile(t, panel(0, 0), panel(1, 0))
	fill := colors.Fill(colors.Off, 64)

	assert.Error(t, td.SetTileState(context.Background(), TileState{Index: 0, Length: 1, Colors: fill}), "chain not queried")

	_, _, err := td.Tiles(context.Background())
	require.NoError(t, err)

	assert.Error(t, td.SetTileState(context.Background(), TileState{Index: 2, Length: 1, Colors: fill}))
	assert.Error(t, td.SetTileState(context.Background(), TileState{Index: 1, Length: 2, Colors: fill}))
	assert.Error(t, td.SetTileState(context.Background(), TileState{Index: 0, Length: 1, Colors: fill[:3]}))
}

func TestLIFXTileUnresponsive(t *testing.T) {
	service, td := startTile(t, panel(0, 0))
	silent := func(*mock.Service, net.PacketConn, net.Addr, *lifxlan.Response) {}
	service.Handlers[lifxlan.GetPower] = silent
	service.Handlers[light.Get] = silent
	service.Handlers[tile.GetDeviceChain] = silent

	start := time.Now()
	_, err := td.GetPower(context.Background())
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*testTimeout)

	start = time.Now()
	_, _, err = td.Tiles(context.Background())
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*testTimeout)
}
