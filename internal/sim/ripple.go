package sim

import (
	"fmt"

	"github.com/san-kum/gridstream/internal/grid"
)

// Ripple propagates disturbances outward across the grid. A paired
// flag grid remembers which cells carried a value on the previous
// sweep: a flagged cell extinguishes itself, an unflagged cell picks
// up the value of any positive neighbor, producing expanding rings.
// The working grid keeps a one-cell boundary ring like Heat.
type Ripple struct {
	g     *grid.Grid
	flags *grid.Grid
	dt    float64
}

func NewRipple(width, height int, dt float64) (*Ripple, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("grid must be at least 1x1, got %dx%d", width, height)
	}
	if dt < 0 {
		return nil, fmt.Errorf("time step must be non-negative, got %g", dt)
	}
	return &Ripple{
		g:     grid.New(width+2, height+2),
		flags: grid.New(width+2, height+2),
		dt:    dt,
	}, nil
}

// Step sweeps the interior row-major. The flag grid is updated in
// place during the sweep, which biases propagation along the scan
// direction; that directional texture is part of the effect.
func (r *Ripple) Step(useDiagonals, wrap bool) {
	_ = useDiagonals // the ripple stencil is always the full 3x3 block
	_ = wrap
	next := make([][]float64, r.g.Height)
	for i := range next {
		next[i] = make([]float64, r.g.Width)
		copy(next[i], r.g.Cells[i])
	}
	for i := 1; i < r.g.Height-1; i++ {
		for j := 1; j < r.g.Width-1; j++ {
			if r.flags.Cells[i][j] > 0 {
				r.flags.Cells[i][j] = 0
				next[i][j] = 0
				continue
			}
			v := 0.0
			for _, n := range r.g.Neighborhood(j, i) {
				if n > 0 {
					v = n
				}
			}
			r.flags.Cells[i][j] = v
			next[i][j] = v
		}
	}
	r.g.Cells = next
}

func (r *Ripple) Grid() grid.Snapshot { return r.g.Snapshot() }

func (r *Ripple) Metric() float64 { return r.g.InteriorSum() }

func (r *Ripple) TimeStep() float64 { return r.dt }

// SetValue seeds a disturbance; the flag grid records it so the next
// sweep treats the cell as already visited.
func (r *Ripple) SetValue(x, y int, v float64) {
	r.g.Set(x, y, v)
	r.flags.Set(x, y, v)
}

func (r *Ripple) SetBlock(x1, y1, x2, y2 int, v float64) {
	r.g.SetBlock(x1, y1, x2, y2, v)
	r.flags.SetBlock(x1, y1, x2, y2, v)
}
