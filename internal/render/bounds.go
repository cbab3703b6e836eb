package render

import (
	"math"

	"github.com/san-kum/gridstream/internal/grid"
)

// Mode selects how raw cell values map into [0,1].
type Mode int

const (
	// ModeDynamic rescales every frame to its observed min/max range.
	ModeDynamic Mode = iota
	// ModeFixed takes raw values as already normalized; out-of-range
	// inputs are absorbed by clamping.
	ModeFixed
)

func (m Mode) String() string {
	if m == ModeFixed {
		return "fixed"
	}
	return "dynamic"
}

// Region is the sub-rectangle of a snapshot that gets normalized and
// painted.
type Region struct {
	X, Y          int
	Width, Height int
}

// Interior locates the drawable region. Grids at least 3x3 are assumed
// to carry a one-cell boundary ring, a padding convention several
// kernels use, and the ring is excluded; smaller grids draw in full.
func Interior(s grid.Snapshot) Region {
	w, h := s.Dims()
	if w >= 3 && h >= 3 {
		return Region{X: 1, Y: 1, Width: w - 2, Height: h - 2}
	}
	return Region{Width: w, Height: h}
}

// Bounds scans the region for finite cells and returns the value
// range. An empty or flat region falls back to [0,1] so normalization
// never divides by zero: the frame renders a deterministic flat color
// instead of erroring.
func Bounds(s grid.Snapshot, reg Region) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	found := false
	for y := reg.Y; y < reg.Y+reg.Height; y++ {
		for x := reg.X; x < reg.X+reg.Width; x++ {
			v := s[y][x]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			found = true
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if !found || lo == hi {
		return 0, 1
	}
	return lo, hi
}

// Normalize maps a raw cell value into [0,1] under the given mode and
// bounds. Non-finite cells normalize to 0.
func Normalize(v, lo, hi float64, mode Mode) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if mode == ModeDynamic {
		v = (v - lo) / (hi - lo)
	}
	return clamp01(v)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Colors maps the drawable region of a snapshot through the scheme,
// one RGB per interior cell. Both the terminal and pixel painters
// build on this.
func Colors(s grid.Snapshot, scheme Scheme, mode Mode) [][]RGB {
	reg := Interior(s)
	lo, hi := Bounds(s, reg)
	out := make([][]RGB, reg.Height)
	for y := 0; y < reg.Height; y++ {
		out[y] = make([]RGB, reg.Width)
		for x := 0; x < reg.Width; x++ {
			v := Normalize(s[reg.Y+y][reg.X+x], lo, hi, mode)
			out[y][x] = scheme(v)
		}
	}
	return out
}
