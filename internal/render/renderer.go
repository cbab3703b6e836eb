package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/san-kum/gridstream/internal/grid"
)

var (
	background = color.RGBA{16, 16, 16, 255}
	gridLine   = color.RGBA{255, 255, 255, 40}
)

// Renderer paints frames onto a square canvas sized from its
// container. It keeps exactly one current frame: a resize re-renders
// that frame from scratch, never re-fetches.
type Renderer struct {
	scheme Scheme
	mode   Mode
	side   int // canvas edge in pixels
	frame  grid.Snapshot
}

// New builds a renderer for a container of the given dimensions.
func New(scheme Scheme, mode Mode, containerW, containerH int) *Renderer {
	return &Renderer{
		scheme: scheme,
		mode:   mode,
		side:   CanvasSize(containerW, containerH),
	}
}

// SetScheme swaps the color scheme for subsequent renders.
func (r *Renderer) SetScheme(s Scheme) { r.scheme = s }

// SetMode swaps the normalization mode. Stored frame data is never
// altered, only reinterpreted.
func (r *Renderer) SetMode(m Mode) { r.mode = m }

// Resize recomputes the canvas from new container dimensions and
// repaints the current frame, if any.
func (r *Renderer) Resize(containerW, containerH int) *image.RGBA {
	r.side = CanvasSize(containerW, containerH)
	if r.frame == nil {
		return nil
	}
	return r.paint(r.frame)
}

// Render paints a new frame and makes it current.
func (r *Renderer) Render(s grid.Snapshot) *image.RGBA {
	r.frame = s
	return r.paint(s)
}

// Redraw repaints the current frame without new data.
func (r *Renderer) Redraw() *image.RGBA {
	if r.frame == nil {
		return nil
	}
	return r.paint(r.frame)
}

func (r *Renderer) paint(s grid.Snapshot) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.side, r.side))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	reg := Interior(s)
	if reg.Width == 0 || reg.Height == 0 {
		return img
	}
	lo, hi := Bounds(s, reg)
	lay := Fit(r.side, r.side, reg.Width, reg.Height)

	for y := 0; y < reg.Height; y++ {
		for x := 0; x < reg.Width; x++ {
			v := Normalize(s[reg.Y+y][reg.X+x], lo, hi, r.mode)
			c := r.scheme(v)
			px := lay.OffsetX + x*lay.Cell
			py := lay.OffsetY + y*lay.Cell
			// Cells draw 1px short on both axes, leaving a seam.
			rect := image.Rect(px, py, px+lay.Cell-1, py+lay.Cell-1)
			fill := color.RGBA{c.R, c.G, c.B, 255}
			draw.Draw(img, rect, image.NewUniform(fill), image.Point{}, draw.Src)
		}
	}

	if lay.GridLines {
		line := image.NewUniform(gridLine)
		for x := 0; x <= reg.Width; x++ {
			px := lay.OffsetX + x*lay.Cell
			rect := image.Rect(px, lay.OffsetY, px+1, lay.OffsetY+reg.Height*lay.Cell)
			draw.Draw(img, rect, line, image.Point{}, draw.Over)
		}
		for y := 0; y <= reg.Height; y++ {
			py := lay.OffsetY + y*lay.Cell
			rect := image.Rect(lay.OffsetX, py, lay.OffsetX+reg.Width*lay.Cell, py+1)
			draw.Draw(img, rect, line, image.Point{}, draw.Over)
		}
	}
	return img
}
