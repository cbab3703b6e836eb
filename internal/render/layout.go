package render

// Cell size limits in pixels: large grids shrink to the floor, small
// grids stop growing at the cap.
const (
	MinCellSize = 5
	MaxCellSize = 20

	// GridLineThreshold is the cell size above which boundary lines
	// are drawn; below it they would drown out the fill colors.
	GridLineThreshold = 10

	// CanvasFraction of the smaller container dimension becomes the
	// square canvas edge, leaving a margin.
	CanvasFraction = 0.9
)

// Layout positions a region's cells on a canvas.
type Layout struct {
	Cell      int // cell edge in pixels
	OffsetX   int // left inset centering the block
	OffsetY   int
	GridLines bool
}

// Fit computes the cell size for a cols x rows region on a canvas,
// clamped to [MinCellSize, MaxCellSize], and centers the block by
// splitting the leftover space evenly.
func Fit(canvasW, canvasH, cols, rows int) Layout {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	cell := min(canvasW/cols, canvasH/rows)
	cell = max(MinCellSize, min(cell, MaxCellSize))
	return Layout{
		Cell:      cell,
		OffsetX:   (canvasW - cols*cell) / 2,
		OffsetY:   (canvasH - rows*cell) / 2,
		GridLines: cell > GridLineThreshold,
	}
}

// CanvasSize derives the square canvas edge from the container's
// available space.
func CanvasSize(containerW, containerH int) int {
	side := containerW
	if containerH < side {
		side = containerH
	}
	return int(CanvasFraction * float64(side))
}
