package lights

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tilefx/internal/colors"
)

// TileProductID is the LIFX product id of the Tile chain.
const TileProductID = 55

// DiscoveredDevice is one entry of a discovery sweep. Fields the sweep
// reports beyond the known ones are kept in Extra and written back as-is.
type DiscoveredDevice struct {
	MAC        string     `json:"mac"`
	IP         string     `json:"ip"`
	DeviceInfo DeviceInfo `json:"deviceInfo"`

	Extra map[string]json.RawMessage `json:"-"`
}

type DeviceInfo struct {
	Label       string `json:"label"`
	VendorID    int    `json:"vendorId,omitempty"`
	ProductID   int    `json:"productId"`
	ProductName string `json:"productName,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Label is how a device is shown when the operator has to pick one.
func (d DiscoveredDevice) Label() string {
	return fmt.Sprintf("%s [%s]", d.DeviceInfo.Label, d.MAC)
}

func (d DiscoveredDevice) IsTile() bool {
	return d.DeviceInfo.ProductID == TileProductID
}

func (d DiscoveredDevice) MarshalJSON() ([]byte, error) {
	type plain DiscoveredDevice
	return marshalWithExtra(plain(d), d.Extra)
}

func (d *DiscoveredDevice) UnmarshalJSON(data []byte) error {
	type plain DiscoveredDevice
	var p plain
	extra, err := unmarshalWithExtra(data, &p, "mac", "ip", "deviceInfo")
	if err != nil {
		return err
	}
	*d = DiscoveredDevice(p)
	d.Extra = extra
	return nil
}

func (i DeviceInfo) MarshalJSON() ([]byte, error) {
	type plain DeviceInfo
	return marshalWithExtra(plain(i), i.Extra)
}

func (i *DeviceInfo) UnmarshalJSON(data []byte) error {
	type plain DeviceInfo
	var p plain
	extra, err := unmarshalWithExtra(data, &p, "label", "vendorId", "productId", "productName")
	if err != nil {
		return err
	}
	*i = DeviceInfo(p)
	i.Extra = extra
	return nil
}

func marshalWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, known := fields[k]; !known {
			fields[k] = raw
		}
	}
	return json.Marshal(fields)
}

func unmarshalWithExtra(data []byte, v any, known ...string) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(fields, k)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fields, nil
}

// Tile is one panel of a tile chain. X and Y place its lower left pixel on
// the board, with Y growing upwards.
type Tile struct {
	Index  int `json:"index"`
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Pixels is the number of addressable pixels on the tile.
func (t Tile) Pixels() int {
	return t.Width * t.Height
}

// Bounds is the layout rectangle spanning every tile.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// BoundsOf returns the smallest rectangle covering tiles.
func BoundsOf(tiles []Tile) Bounds {
	if len(tiles) == 0 {
		return Bounds{}
	}
	minX, minY := tiles[0].X, tiles[0].Y
	maxX, maxY := tiles[0].X+tiles[0].Width, tiles[0].Y+tiles[0].Height
	for _, t := range tiles[1:] {
		minX = min(minX, t.X)
		minY = min(minY, t.Y)
		maxX = max(maxX, t.X+t.Width)
		maxY = max(maxY, t.Y+t.Height)
	}
	return Bounds{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// TileState paints Colors onto Length consecutive tiles starting at Index.
// Colors holds one tile's worth of pixels in row-major order.
type TileState struct {
	Index    int
	Length   int
	Colors   []colors.Color
	Duration time.Duration
}

// TileDevice is a live handle to one tile-class device. Commands are fire
// and forget; a nil error means the packet was sent, not that it landed.
type TileDevice interface {
	GetPower(ctx context.Context) (bool, error)
	SetPower(ctx context.Context, on bool) error
	Tiles(ctx context.Context) ([]Tile, Bounds, error)
	SetTileState(ctx context.Context, state TileState) error
	Close() error
}
