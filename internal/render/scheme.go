// Package render turns grid snapshots into pixels: border detection,
// min/max normalization, color mapping and cell layout.
package render

import "math"

// RGB is one mapped cell color.
type RGB struct {
	R, G, B uint8
}

// Scheme maps a normalized value in [0,1] to a color. Inputs are
// clamped by the caller.
type Scheme func(v float64) RGB

// SchemeByName resolves a catalog scheme name; unknown names fall back
// to grayscale.
func SchemeByName(name string) Scheme {
	switch name {
	case "heat":
		return Heat
	case "ripple":
		return Ripple
	default:
		return Grayscale
	}
}

// SchemeNames lists the selectable schemes in cycle order.
var SchemeNames = []string{"heat", "ripple", "gray"}

// Heat ramps blue through cyan, green and yellow to red across four
// linear segments.
func Heat(v float64) RGB {
	switch {
	case v < 0.25:
		t := v / 0.25
		return RGB{0, channel(t), 255}
	case v < 0.5:
		t := (v - 0.25) / 0.25
		return RGB{0, 255, channel(1 - t)}
	case v < 0.75:
		t := (v - 0.5) / 0.25
		return RGB{channel(t), 255, 0}
	default:
		t := (v - 0.75) / 0.25
		return RGB{255, channel(1 - t), 0}
	}
}

// Ripple ramps dark blue to white. Intensity saturates at v = 2/3 so
// modest disturbances still read clearly.
func Ripple(v float64) RGB {
	intensity := math.Min(1, v*1.5)
	blue := 255 - int(math.Round(155*(1-intensity)))
	return RGB{channel(intensity), channel(intensity), uint8(blue)}
}

// Grayscale is the default fallback scheme.
func Grayscale(v float64) RGB {
	c := channel(v)
	return RGB{c, c, c}
}

func channel(t float64) uint8 {
	return uint8(math.Round(255 * t))
}
