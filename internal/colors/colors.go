package colors

import (
	"fmt"
	"math"
	"strings"

	"go.yhsif.com/lifxlan"
)

// Color is a light color with every channel normalized to [0,1] except
// Kelvin, which is in device-native units.
type Color struct {
	Hue        float64 `json:"hue" yaml:"hue"`
	Saturation float64 `json:"saturation" yaml:"saturation"`
	Brightness float64 `json:"brightness" yaml:"brightness"`
	Kelvin     uint16  `json:"kelvin" yaml:"kelvin"`
}

// Off is the no-light color.
var Off = Color{Hue: 0, Saturation: 1, Brightness: 0, Kelvin: 2500}

// Override replaces the fields it sets on a parsed color.
type Override struct {
	Hue        *float64 `yaml:"hue,omitempty"`
	Saturation *float64 `yaml:"saturation,omitempty"`
	Brightness *float64 `yaml:"brightness,omitempty"`
	Kelvin     *uint16  `yaml:"kelvin,omitempty"`
}

var named = map[byte]Color{
	'W': {Hue: 0, Saturation: 0, Brightness: 1, Kelvin: 4000},             // white
	'F': {Hue: 0, Saturation: 0, Brightness: 1, Kelvin: 9000},             // fluorescent white
	'R': {Hue: 0, Saturation: 1, Brightness: 1, Kelvin: 9000},             // red
	'K': {Hue: 22.0 / 360, Saturation: 1, Brightness: 1, Kelvin: 9000},    // pumpkin
	'O': {Hue: 31.2 / 360, Saturation: 1, Brightness: 1, Kelvin: 9000},    // orange
	'Y': {Hue: 60.235 / 360, Saturation: 1, Brightness: 1, Kelvin: 9000},  // yellow
	'L': {Hue: 67.059 / 360, Saturation: 1, Brightness: 1, Kelvin: 9000},  // lime
	'G': {Hue: 106.632 / 360, Saturation: 1, Brightness: 1, Kelvin: 9000}, // green
	'S': {Hue: 140.0 / 360, Saturation: 1, Brightness: 1, Kelvin: 9000},   // slime
	'C': {Hue: 180.0 / 360, Saturation: 1, Brightness: 1, Kelvin: 9000},   // cyan
	'B': {Hue: 247.294 / 360, Saturation: 1, Brightness: 1, Kelvin: 9000}, // blue
	'M': {Hue: 298.588 / 360, Saturation: 1, Brightness: 1, Kelvin: 9000}, // magenta
	'P': {Hue: 336.048 / 360, Saturation: 1, Brightness: 1, Kelvin: 9000}, // pink
}

// Parse maps the first character of token to a named color. Empty or
// unrecognized tokens yield Off.
func Parse(token string) Color {
	if token == "" {
		return Off
	}
	c, ok := named[strings.ToUpper(token[:1])[0]]
	if !ok {
		return Off
	}
	return c
}

// ParseWith parses token and applies every field set in o.
func ParseWith(token string, o Override) Color {
	return o.Apply(Parse(token))
}

// ParseAll parses each token in order. A nil override leaves colors as parsed.
func ParseAll(tokens []string, o *Override) []Color {
	out := make([]Color, len(tokens))
	for i, t := range tokens {
		out[i] = Parse(t)
		if o != nil {
			out[i] = o.Apply(out[i])
		}
	}
	return out
}

// Apply returns c with the override's set fields replaced.
func (o Override) Apply(c Color) Color {
	if o.Hue != nil {
		c.Hue = *o.Hue
	}
	if o.Saturation != nil {
		c.Saturation = *o.Saturation
	}
	if o.Brightness != nil {
		c.Brightness = *o.Brightness
	}
	if o.Kelvin != nil {
		c.Kelvin = *o.Kelvin
	}
	return c
}

// Fill returns n copies of c.
func Fill(c Color, n int) []Color {
	out := make([]Color, n)
	for i := range out {
		out[i] = c
	}
	return out
}

// ToLIFX converts c to the 16-bit HSBK form used on the wire.
func ToLIFX(c Color) lifxlan.Color {
	return lifxlan.Color{
		Hue:        scale(c.Hue),
		Saturation: scale(c.Saturation),
		Brightness: scale(c.Brightness),
		Kelvin:     c.Kelvin,
	}
}

func scale(v float64) uint16 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return math.MaxUint16
	}
	return uint16(math.Round(v * math.MaxUint16))
}

// Hex renders c as an sRGB hex string, ignoring Kelvin. Used in logs.
func (c Color) Hex() string {
	r, g, b := hsbToRGB(c.Hue*360, c.Saturation, c.Brightness)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hsbToRGB(h, s, v float64) (r, g, b uint8) {
	if s == 0 {
		x := uint8(v * 255)
		return x, x, x
	}

	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	hh := h / 60.0
	i := int(hh)
	ff := hh - float64(i)
	p := v * (1.0 - s)
	q := v * (1.0 - s*ff)
	t := v * (1.0 - s*(1.0-ff))

	var rr, gg, bb float64
	switch i {
	case 0:
		rr, gg, bb = v, t, p
	case 1:
		rr, gg, bb = q, v, p
	case 2:
		rr, gg, bb = p, v, t
	case 3:
		rr, gg, bb = p, q, v
	case 4:
		rr, gg, bb = t, p, v
	default:
		rr, gg, bb = v, p, q
	}

	return uint8(rr * 255), uint8(gg * 255), uint8(bb * 255)
}
