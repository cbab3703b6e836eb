package sim

import (
	"fmt"

	"github.com/san-kum/gridstream/internal/grid"
)

// Decay is a toy smoothing kernel: each interior cell shrinks toward
// a fraction of its neighborhood average, so injected values bleed
// outward while fading. Useful as a cheap demo and as a borderless
// counterpart to the padded kernels.
type Decay struct {
	g  *grid.Grid
	dt float64
}

func NewDecay(width, height int, dt float64) (*Decay, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("grid must be at least 1x1, got %dx%d", width, height)
	}
	if dt < 0 {
		return nil, fmt.Errorf("time step must be non-negative, got %g", dt)
	}
	return &Decay{g: grid.New(width, height), dt: dt}, nil
}

func (d *Decay) Step(useDiagonals, wrap bool) {
	_ = useDiagonals
	_ = wrap
	next := make([][]float64, d.g.Height)
	for i := range next {
		next[i] = make([]float64, d.g.Width)
		copy(next[i], d.g.Cells[i])
	}
	for i := 1; i < d.g.Height-1; i++ {
		for j := 1; j < d.g.Width-1; j++ {
			sum := 0.0
			for _, n := range d.g.Neighborhood(j, i) {
				sum += n
			}
			next[i][j] = d.g.Cells[i][j]/9 + sum/10
		}
	}
	d.g.Cells = next
}

func (d *Decay) Grid() grid.Snapshot { return d.g.Snapshot() }

func (d *Decay) Metric() float64 { return d.g.InteriorSum() }

func (d *Decay) TimeStep() float64 { return d.dt }

func (d *Decay) SetValue(x, y int, v float64) { d.g.Set(x, y, v) }

func (d *Decay) SetBlock(x1, y1, x2, y2 int, v float64) {
	d.g.SetBlock(x1, y1, x2, y2, v)
}
