package catalog

import "github.com/san-kum/gridstream/internal/sim"

// Builtin returns the compiled-in simulator catalog.
func Builtin() *Catalog {
	c := New()

	c.Register(Entry{
		ID:          "heat",
		Name:        "Heat Dissipation",
		Description: "2D heat diffusion with insulated or periodic boundaries",
		Scheme:      "heat",
		Params: []Param{
			{Name: "width", Type: "int", Default: ptr(60), Min: ptr(1), Max: ptr(500), Description: "interior grid width"},
			{Name: "height", Type: "int", Default: ptr(60), Min: ptr(1), Max: ptr(500), Description: "interior grid height"},
			{Name: "time_step", Type: "float", Default: ptr(0.1), Min: ptr(0), Max: ptr(1), Step: ptr(0.01), Description: "seconds per step"},
			{Name: "thermal_diffusivity", Type: "float", Default: ptr(1), Min: ptr(0.01), Max: ptr(10), Step: ptr(0.01)},
		},
		Construct: func(p map[string]float64) (sim.Adapter, error) {
			return sim.NewHeat(int(p["width"]), int(p["height"]), p["time_step"], p["thermal_diffusivity"])
		},
	})

	c.Register(Entry{
		ID:          "ripple",
		Name:        "Ripples",
		Description: "disturbances propagating outward as expanding rings",
		Scheme:      "ripple",
		Params: []Param{
			{Name: "width", Type: "int", Default: ptr(40), Min: ptr(1), Max: ptr(500), Description: "interior grid width"},
			{Name: "height", Type: "int", Default: ptr(30), Min: ptr(1), Max: ptr(500), Description: "interior grid height"},
			{Name: "time_step", Type: "float", Default: ptr(0.1), Min: ptr(0), Max: ptr(1), Step: ptr(0.01), Description: "seconds per step"},
		},
		Construct: func(p map[string]float64) (sim.Adapter, error) {
			return sim.NewRipple(int(p["width"]), int(p["height"]), p["time_step"])
		},
	})

	c.Register(Entry{
		ID:          "decay",
		Name:        "Decay",
		Description: "smoothing kernel where injected values bleed outward and fade",
		Scheme:      "",
		Params: []Param{
			{Name: "width", Type: "int", Default: ptr(30), Min: ptr(1), Max: ptr(500), Description: "grid width"},
			{Name: "height", Type: "int", Default: ptr(20), Min: ptr(1), Max: ptr(500), Description: "grid height"},
			{Name: "time_step", Type: "float", Default: ptr(0.1), Min: ptr(0), Max: ptr(1), Step: ptr(0.01), Description: "seconds per step"},
		},
		Construct: func(p map[string]float64) (sim.Adapter, error) {
			return sim.NewDecay(int(p["width"]), int(p["height"]), p["time_step"])
		},
	})

	return c
}
