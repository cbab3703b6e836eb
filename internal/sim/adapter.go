package sim

import (
	"fmt"

	"github.com/san-kum/gridstream/internal/grid"
)

// Adapter is one stepping simulation kernel. A session owns exactly
// one adapter and drives it from a single goroutine, so
// implementations do not need to be safe for concurrent use.
type Adapter interface {
	// Step advances the simulation one timestep. useDiagonals selects
	// the wider neighborhood stencil where the kernel supports it;
	// wrap selects periodic boundaries over the default insulated ones.
	Step(useDiagonals, wrap bool)
	// Grid returns a snapshot of the current field, boundary ring
	// included for kernels that keep one.
	Grid() grid.Snapshot
	// Metric reports a scalar summary of the current state, typically
	// the interior sum.
	Metric() float64
	// TimeStep is the configured timestep in seconds; zero means the
	// runner should not pace between steps.
	TimeStep() float64
}

// ValueSetter is implemented by kernels that accept point and block
// injections as initial conditions.
type ValueSetter interface {
	SetValue(x, y int, v float64)
	SetBlock(x1, y1, x2, y2 int, v float64)
}

// ObstacleSetter is implemented by kernels that support masked-out
// obstacle regions.
type ObstacleSetter interface {
	SetObstacle(x1, y1, x2, y2 int)
}

// Source injects a value at a single cell before the run starts.
type Source struct {
	X     int     `json:"x" yaml:"x"`
	Y     int     `json:"y" yaml:"y"`
	Value float64 `json:"value" yaml:"value"`
}

// Block fills a rectangle of cells before the run starts.
type Block struct {
	X1    int     `json:"x1" yaml:"x1"`
	Y1    int     `json:"y1" yaml:"y1"`
	X2    int     `json:"x2" yaml:"x2"`
	Y2    int     `json:"y2" yaml:"y2"`
	Value float64 `json:"value" yaml:"value"`
}

// Rect marks a rectangular obstacle region.
type Rect struct {
	X1 int `json:"x1" yaml:"x1"`
	Y1 int `json:"y1" yaml:"y1"`
	X2 int `json:"x2" yaml:"x2"`
	Y2 int `json:"y2" yaml:"y2"`
}

// Conditions carries the initial state applied once before stepping
// begins, plus the per-run stencil toggles forwarded to Step. Nil
// toggles fall back to the legacy defaults: diagonals on, wrap off.
type Conditions struct {
	UseDiagonals *bool    `json:"use_diagonals,omitempty" yaml:"use_diagonals,omitempty"`
	Wrap         *bool    `json:"wrap,omitempty" yaml:"wrap,omitempty"`
	Sources      []Source `json:"sources,omitempty" yaml:"sources,omitempty"`
	Blocks       []Block  `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	Obstacles    []Rect   `json:"obstacles,omitempty" yaml:"obstacles,omitempty"`
}

// Toggles resolves the stencil booleans, applying defaults for absent
// values.
func (c Conditions) Toggles() (useDiagonals, wrap bool) {
	useDiagonals, wrap = true, false
	if c.UseDiagonals != nil {
		useDiagonals = *c.UseDiagonals
	}
	if c.Wrap != nil {
		wrap = *c.Wrap
	}
	return useDiagonals, wrap
}

// Apply installs sources, blocks and obstacles on the adapter. A
// condition the kernel does not support is a configuration error so
// the session is rejected before it ever runs.
func Apply(a Adapter, c Conditions) error {
	if len(c.Sources) > 0 || len(c.Blocks) > 0 {
		vs, ok := a.(ValueSetter)
		if !ok {
			return fmt.Errorf("kernel does not accept value injections")
		}
		for _, s := range c.Sources {
			vs.SetValue(s.X, s.Y, s.Value)
		}
		for _, b := range c.Blocks {
			vs.SetBlock(b.X1, b.Y1, b.X2, b.Y2, b.Value)
		}
	}
	if len(c.Obstacles) > 0 {
		os, ok := a.(ObstacleSetter)
		if !ok {
			return fmt.Errorf("kernel does not support obstacles")
		}
		for _, r := range c.Obstacles {
			os.SetObstacle(r.X1, r.Y1, r.X2, r.Y2)
		}
	}
	return nil
}
