package sim

import (
	"fmt"

	"github.com/san-kum/gridstream/internal/grid"
)

// Heat simulates 2D heat diffusion by forward-Euler finite
// differences. The working grid is padded with a one-cell boundary
// ring; user coordinates address the interior.
type Heat struct {
	g     *grid.Grid
	mask  *grid.Mask
	alpha float64
	dt    float64
}

// NewHeat builds a heat kernel over a width x height interior. The
// timestep must satisfy dt <= 1/(4*alpha) or forward Euler diverges.
func NewHeat(width, height int, dt, alpha float64) (*Heat, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("grid must be at least 1x1, got %dx%d", width, height)
	}
	if alpha <= 0 {
		return nil, fmt.Errorf("thermal diffusivity must be positive, got %g", alpha)
	}
	if dt < 0 {
		return nil, fmt.Errorf("time step must be non-negative, got %g", dt)
	}
	if dt > 1/(4*alpha) {
		return nil, fmt.Errorf("time step %g exceeds stability bound %g for diffusivity %g", dt, 1/(4*alpha), alpha)
	}
	return &Heat{
		g:     grid.New(width+2, height+2),
		mask:  grid.NewMask(width+2, height+2),
		alpha: alpha,
		dt:    dt,
	}, nil
}

func (h *Heat) Step(useDiagonals, wrap bool) {
	next := make([][]float64, h.g.Height)
	for i := range next {
		next[i] = make([]float64, h.g.Width)
		copy(next[i], h.g.Cells[i])
	}
	for i := 1; i < h.g.Height-1; i++ {
		for j := 1; j < h.g.Width-1; j++ {
			if h.mask.At(j, i) {
				continue
			}
			next[i][j] = h.cell(i, j, useDiagonals, wrap)
		}
	}
	h.g.Cells = next
}

// cell computes the updated temperature at (row i, col j). Out-of-range
// neighbor indices either wrap periodically over the interior or clamp
// back to it (an insulated Neumann boundary). Obstacle neighbors read
// as the center value so no heat flows across them.
func (h *Heat) cell(i, j int, useDiagonals, wrap bool) float64 {
	c := h.g.Cells[i][j]
	neighbor := func(ii, jj int) float64 {
		if wrap {
			ii = (ii-1+h.g.Height-2)%(h.g.Height-2) + 1
			jj = (jj-1+h.g.Width-2)%(h.g.Width-2) + 1
		} else {
			ii = max(1, min(ii, h.g.Height-2))
			jj = max(1, min(jj, h.g.Width-2))
		}
		if h.mask.At(jj, ii) {
			return c
		}
		return h.g.Cells[ii][jj]
	}

	ortho := neighbor(i-1, j) + neighbor(i+1, j) + neighbor(i, j-1) + neighbor(i, j+1)

	var laplacian float64
	if useDiagonals {
		diag := neighbor(i-1, j-1) + neighbor(i-1, j+1) + neighbor(i+1, j-1) + neighbor(i+1, j+1)
		// 9-point stencil for smoother isotropy.
		laplacian = (4*ortho + diag - 20*c) / 6
	} else {
		laplacian = ortho - 4*c
	}
	return c + h.alpha*h.dt*laplacian
}

func (h *Heat) Grid() grid.Snapshot { return h.g.Snapshot() }

// Metric reports the total heat inside the boundary ring.
func (h *Heat) Metric() float64 { return h.g.InteriorSum() }

func (h *Heat) TimeStep() float64 { return h.dt }

// SetValue places v at interior coordinates, offset past the ring.
func (h *Heat) SetValue(x, y int, v float64) { h.g.Set(x+1, y+1, v) }

func (h *Heat) SetBlock(x1, y1, x2, y2 int, v float64) {
	h.g.SetBlock(x1+1, y1+1, x2+1, y2+1, v)
}

func (h *Heat) SetObstacle(x1, y1, x2, y2 int) {
	h.mask.SetRect(x1+1, y1+1, x2+1, y2+1)
}
