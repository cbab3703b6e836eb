package grid

// Grid is a rectangular field of float64 cells indexed by (x, y) with
// (0, 0) at the top left. Kernels that keep a fixed boundary ring
// simply allocate two extra rows and columns and write only the
// interior.
type Grid struct {
	Width  int
	Height int
	Cells  [][]float64
}

func New(width, height int) *Grid {
	cells := make([][]float64, height)
	for i := range cells {
		cells[i] = make([]float64, width)
	}
	return &Grid{Width: width, Height: height, Cells: cells}
}

func (g *Grid) At(x, y int) float64 {
	return g.Cells[y][x]
}

func (g *Grid) Set(x, y int, v float64) {
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		return
	}
	g.Cells[y][x] = v
}

// SetBlock fills the rectangle spanned by the two corners, clamping to
// the grid bounds and normalizing corner order.
func (g *Grid) SetBlock(x1, y1, x2, y2 int, v float64) {
	x1, x2 = clampPair(x1, x2, g.Width)
	y1, y2 = clampPair(y1, y2, g.Height)
	for i := y1; i <= y2; i++ {
		for j := x1; j <= x2; j++ {
			g.Cells[i][j] = v
		}
	}
}

func clampPair(a, b, n int) (int, int) {
	a = max(0, min(a, n-1))
	b = max(0, min(b, n-1))
	if a > b {
		a, b = b, a
	}
	return a, b
}

// Neighborhood returns the values of the 3x3 block centered on (x, y),
// center included, clipped at the grid edges.
func (g *Grid) Neighborhood(x, y int) []float64 {
	vals := make([]float64, 0, 9)
	for i := y - 1; i <= y+1; i++ {
		for j := x - 1; j <= x+1; j++ {
			if i >= 0 && i < g.Height && j >= 0 && j < g.Width {
				vals = append(vals, g.Cells[i][j])
			}
		}
	}
	return vals
}

// InteriorSum totals the cells inside the boundary ring, the metric
// most kernels report.
func (g *Grid) InteriorSum() float64 {
	total := 0.0
	for i := 1; i < g.Height-1; i++ {
		for j := 1; j < g.Width-1; j++ {
			total += g.Cells[i][j]
		}
	}
	return total
}

// Snapshot copies the current cells into an immutable value safe to
// hand to another goroutine.
func (g *Grid) Snapshot() Snapshot {
	s := make(Snapshot, g.Height)
	for i, row := range g.Cells {
		s[i] = make([]float64, len(row))
		copy(s[i], row)
	}
	return s
}
