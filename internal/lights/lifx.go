package lights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"go.yhsif.com/lifxlan"
	"go.yhsif.com/lifxlan/light"
	"go.yhsif.com/lifxlan/tile"

	"tilefx/internal/colors"
)

const (
	lifxPort = 56700

	// Set64 carries one 8x8 panel.
	setTileStateColors = 64

	defaultDiscoveryTimeout = 5 * time.Second
	queryTimeout            = 2 * time.Second
)

// LIFXController talks to LIFX devices over the LAN protocol.
type LIFXController struct {
	logger           *slog.Logger
	broadcastHost    string
	discoveryTimeout time.Duration
	queryTimeout     time.Duration
}

func NewLIFXController(logger *slog.Logger, broadcastHost string, discoveryTimeout time.Duration) *LIFXController {
	if discoveryTimeout <= 0 {
		discoveryTimeout = defaultDiscoveryTimeout
	}
	return &LIFXController{
		logger:           logger.With("component", "lifx"),
		broadcastHost:    broadcastHost,
		discoveryTimeout: discoveryTimeout,
		queryTimeout:     queryTimeout,
	}
}

// Discover runs one broadcast sweep and returns every device that answered
// within the discovery timeout. Per-device metadata is best-effort.
func (c *LIFXController) Discover(ctx context.Context) ([]DiscoveredDevice, error) {
	discoverCtx, cancel := context.WithTimeout(ctx, c.discoveryTimeout)
	defer cancel()

	ch := make(chan lifxlan.Device)
	errCh := make(chan error, 1)
	go func() {
		errCh <- lifxlan.Discover(discoverCtx, ch, c.broadcastHost)
	}()

	seen := make(map[string]bool)
	var result []DiscoveredDevice

	for raw := range ch {
		mac := raw.Target().String()
		if seen[mac] {
			continue
		}
		seen[mac] = true

		d, err := c.describe(ctx, raw)
		if err != nil {
			c.logger.Debug("skipping unresponsive device", "mac", mac, "error", err)
			continue
		}
		c.logger.Debug("discovered device", "mac", d.MAC, "ip", d.IP, "label", d.DeviceInfo.Label, "product", d.DeviceInfo.ProductID)
		result = append(result, d)
	}

	// The sweep always ends on its deadline; only other failures count.
	if err := <-errCh; err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("discover: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *LIFXController) describe(ctx context.Context, raw lifxlan.Device) (DiscoveredDevice, error) {
	conn, err := raw.Dial()
	if err != nil {
		return DiscoveredDevice{}, err
	}
	defer conn.Close()

	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return DiscoveredDevice{}, err
	}

	labelCtx, labelCancel := context.WithTimeout(ctx, c.queryTimeout)
	ld, err := light.Wrap(labelCtx, raw, false)
	labelCancel()
	if err != nil {
		return DiscoveredDevice{}, err
	}

	info := DeviceInfo{Label: ld.Label().String()}
	if info.Label == lifxlan.EmptyLabel {
		info.Label = fmt.Sprintf("LIFX %s", raw.Target())
	}

	versionCtx, versionCancel := context.WithTimeout(ctx, c.queryTimeout)
	err = raw.GetHardwareVersion(versionCtx, conn)
	versionCancel()
	if err != nil {
		return DiscoveredDevice{}, err
	}
	hv := raw.HardwareVersion()
	info.VendorID = int(hv.VendorID)
	info.ProductID = int(hv.ProductID)
	if product := hv.Parse(); product != nil {
		info.ProductName = product.ProductName
	}

	return DiscoveredDevice{
		MAC:        raw.Target().String(),
		IP:         host,
		DeviceInfo: info,
	}, nil
}

// Bind opens a session to the device at d's cached address.
func (c *LIFXController) Bind(ctx context.Context, d DiscoveredDevice) (TileDevice, error) {
	target, err := lifxlan.ParseTarget(d.MAC)
	if err != nil {
		return nil, fmt.Errorf("parse mac %q: %w", d.MAC, err)
	}
	addr := net.JoinHostPort(d.IP, strconv.Itoa(lifxPort))
	td, err := c.open(lifxlan.NewDevice(addr, lifxlan.ServiceUDP, target))
	if err != nil {
		return nil, err
	}
	return td, nil
}

func (c *LIFXController) open(dev lifxlan.Device) (*lifxTile, error) {
	conn, err := dev.Dial()
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", dev.Target(), err)
	}
	c.logger.Debug("bound device", "target", dev.Target())
	return &lifxTile{
		logger:  c.logger.With("target", dev.Target()),
		dev:     dev,
		conn:    conn,
		timeout: c.queryTimeout,
	}, nil
}

type lifxTile struct {
	logger  *slog.Logger
	dev     lifxlan.Device
	conn    net.Conn
	timeout time.Duration

	mu    sync.Mutex
	tiles []Tile
}

// GetPower gives up after the query timeout; lifxlan reads until its
// context ends.
func (t *lifxTile) GetPower(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	power, err := t.dev.GetPower(ctx, t.conn)
	if err != nil {
		return false, fmt.Errorf("get power: %w", err)
	}
	return power.On(), nil
}

func (t *lifxTile) SetPower(ctx context.Context, on bool) error {
	power := lifxlan.PowerOff
	if on {
		power = lifxlan.PowerOn
	}
	if err := t.dev.SetPower(ctx, t.conn, power, false); err != nil {
		return fmt.Errorf("set power: %w", err)
	}
	return nil
}

// Tiles queries the device chain and places every panel on the board the
// way the LIFX app arranged it.
func (t *lifxTile) Tiles(ctx context.Context) ([]Tile, Bounds, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	td, err := tile.Wrap(ctx, t.dev, false)
	if err != nil {
		return nil, Bounds{}, fmt.Errorf("get device chain: %w", err)
	}

	tiles := chainLayout(td.Tiles())
	if len(tiles) == 0 {
		return nil, Bounds{}, fmt.Errorf("device reported an empty chain")
	}

	t.logger.Debug("read device chain", "tiles", len(tiles), "width", td.Width(), "height", td.Height())

	t.mu.Lock()
	t.tiles = tiles
	t.mu.Unlock()

	return tiles, BoundsOf(tiles), nil
}

// SetTileState sends a single Set64 packet. The device applies the same
// colors to every tile from state.Index through state.Index+state.Length-1
// and leaves the rest of the chain alone.
func (t *lifxTile) SetTileState(ctx context.Context, state TileState) error {
	payload, err := t.setPayload(state)
	if err != nil {
		return err
	}
	if _, err := t.dev.Send(ctx, t.conn, 0, tile.SetTileState64, payload); err != nil {
		return fmt.Errorf("set tile state: %w", err)
	}
	return nil
}

func (t *lifxTile) setPayload(state TileState) (*tile.RawSetTileState64Payload, error) {
	t.mu.Lock()
	tiles := t.tiles
	t.mu.Unlock()

	if state.Index < 0 || state.Index >= len(tiles) {
		return nil, fmt.Errorf("set tile state: no tile at index %d", state.Index)
	}
	if state.Length < 1 || state.Index+state.Length > len(tiles) {
		return nil, fmt.Errorf("set tile state: %d tiles from index %d exceeds chain of %d", state.Length, state.Index, len(tiles))
	}
	first := tiles[state.Index]
	if len(state.Colors) < first.Pixels() || first.Pixels() > setTileStateColors {
		return nil, fmt.Errorf("set tile state: tile %d needs %d colors, got %d", first.Index, first.Pixels(), len(state.Colors))
	}

	payload := &tile.RawSetTileState64Payload{
		TileIndex: uint8(state.Index),
		Length:    uint8(state.Length),
		Width:     uint8(first.Width),
		Duration:  lifxlan.ConvertDuration(state.Duration),
	}
	for i, c := range state.Colors[:first.Pixels()] {
		payload.Colors[i] = t.dev.SanitizeColor(colors.ToLIFX(c))
	}
	return payload, nil
}

func (t *lifxTile) Close() error {
	return t.conn.Close()
}

// chainLayout converts the reported chain into panels positioned relative
// to the lower left corner of the board. Index is the chain position.
func chainLayout(chain []tile.Tile) []Tile {
	if len(chain) == 0 {
		return nil
	}

	tiles := make([]Tile, len(chain))
	for i, lt := range chain {
		_, lo, hi := lt.BoardCoordinates()
		tiles[i] = Tile{Index: i, X: lo.X, Y: lo.Y, Width: hi.X - lo.X, Height: hi.Y - lo.Y}
	}

	b := BoundsOf(tiles)
	for i := range tiles {
		tiles[i].X -= b.X
		tiles[i].Y -= b.Y
	}
	return tiles
}
