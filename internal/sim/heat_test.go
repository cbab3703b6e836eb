package sim

import (
	"math"
	"testing"
)

func TestNewHeatValidation(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		dt, alpha     float64
	}{
		{"zero width", 0, 10, 0.1, 1},
		{"zero height", 10, 0, 0.1, 1},
		{"negative dt", 10, 10, -0.1, 1},
		{"zero alpha", 10, 10, 0.1, 0},
		{"unstable timestep", 10, 10, 0.5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewHeat(tt.width, tt.height, tt.dt, tt.alpha); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestHeatPadding(t *testing.T) {
	h, err := NewHeat(5, 4, 0.1, 1)
	if err != nil {
		t.Fatal(err)
	}
	w, ht := h.Grid().Dims()
	if w != 7 || ht != 6 {
		t.Errorf("expected padded 7x6 grid, got %dx%d", w, ht)
	}

	// User coordinates address the interior, past the boundary ring.
	h.SetValue(0, 0, 5)
	if got := h.Grid()[1][1]; got != 5 {
		t.Errorf("expected 5 at padded (1,1), got %g", got)
	}
}

func TestHeatDiffusesOutward(t *testing.T) {
	h, err := NewHeat(9, 9, 0.2, 1)
	if err != nil {
		t.Fatal(err)
	}
	h.SetValue(4, 4, 100)

	h.Step(false, false)
	s := h.Grid()
	center := s[5][5]
	if center >= 100 {
		t.Errorf("hot cell should cool, got %g", center)
	}
	for _, p := range [][2]int{{4, 5}, {6, 5}, {5, 4}, {5, 6}} {
		if s[p[0]][p[1]] <= 0 {
			t.Errorf("orthogonal neighbor (%d,%d) should warm, got %g", p[0], p[1], s[p[0]][p[1]])
		}
	}
	// Diagonals untouched by the 5-point stencil after one step.
	if s[4][4] != 0 {
		t.Errorf("diagonal neighbor should stay cold without diagonals, got %g", s[4][4])
	}
}

func TestHeatDiagonalStencil(t *testing.T) {
	h, err := NewHeat(9, 9, 0.2, 1)
	if err != nil {
		t.Fatal(err)
	}
	h.SetValue(4, 4, 100)
	h.Step(true, false)
	if got := h.Grid()[4][4]; got <= 0 {
		t.Errorf("diagonal neighbor should warm with 9-point stencil, got %g", got)
	}
}

func TestHeatConservesTotalWithInsulatedBorders(t *testing.T) {
	h, err := NewHeat(10, 10, 0.2, 1)
	if err != nil {
		t.Fatal(err)
	}
	h.SetValue(2, 3, 50)
	h.SetValue(7, 6, 25)

	before := h.Metric()
	for i := 0; i < 20; i++ {
		h.Step(true, false)
	}
	after := h.Metric()
	if math.Abs(before-after) > 1e-6 {
		t.Errorf("insulated grid should conserve heat: before %g, after %g", before, after)
	}
}

func TestHeatWrapCrossesEdges(t *testing.T) {
	probe := func(wrap bool) float64 {
		h, err := NewHeat(8, 8, 0.2, 1)
		if err != nil {
			t.Fatal(err)
		}
		h.SetValue(0, 0, 100)
		h.Step(false, wrap)
		// Interior cell on the opposite vertical edge, padded coords.
		return h.Grid()[8][1]
	}
	if got := probe(false); got != 0 {
		t.Errorf("insulated borders should not leak across, got %g", got)
	}
	if got := probe(true); got <= 0 {
		t.Errorf("periodic borders should carry heat across, got %g", got)
	}
}

func TestHeatObstacleInsulated(t *testing.T) {
	h, err := NewHeat(9, 9, 0.2, 1)
	if err != nil {
		t.Fatal(err)
	}
	h.SetObstacle(4, 4, 4, 4)
	h.SetValue(3, 4, 80)

	for i := 0; i < 5; i++ {
		h.Step(false, false)
	}
	// The obstacle cell never updates.
	if got := h.Grid()[5][5]; got != 0 {
		t.Errorf("obstacle cell should stay untouched, got %g", got)
	}
}

func TestHeatZeroTimeStepFreezes(t *testing.T) {
	h, err := NewHeat(5, 5, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	h.SetValue(2, 2, 10)
	h.Step(true, false)
	if got := h.Grid()[3][3]; got != 10 {
		t.Errorf("dt=0 should leave values unchanged, got %g", got)
	}
	if h.TimeStep() != 0 {
		t.Errorf("expected zero timestep, got %g", h.TimeStep())
	}
}
