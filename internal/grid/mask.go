package grid

// Mask marks cells excluded from kernel updates, used for obstacles.
type Mask struct {
	width  int
	height int
	cells  [][]bool
}

func NewMask(width, height int) *Mask {
	cells := make([][]bool, height)
	for i := range cells {
		cells[i] = make([]bool, width)
	}
	return &Mask{width: width, height: height, cells: cells}
}

func (m *Mask) At(x, y int) bool {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return false
	}
	return m.cells[y][x]
}

// SetRect marks the rectangle spanned by the two corners, clamped to
// the mask bounds.
func (m *Mask) SetRect(x1, y1, x2, y2 int) {
	x1, x2 = clampPair(x1, x2, m.width)
	y1, y2 = clampPair(y1, y2, m.height)
	for i := y1; i <= y2; i++ {
		for j := x1; j <= x2; j++ {
			m.cells[i][j] = true
		}
	}
}
