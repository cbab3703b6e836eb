// Package catalog maps simulator identifiers to display metadata,
// parameter schemas and constructors. Kernels register through
// compiled-in closures so adding a simulator never touches the
// session or transport code.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/san-kum/gridstream/internal/sim"
)

var ErrUnknownSimulator = errors.New("unknown simulator")

// Param describes one constructor parameter: its type, bounds and
// optional default. A parameter without a default is required.
type Param struct {
	Name        string   `json:"name" yaml:"name"`
	Type        string   `json:"type" yaml:"type"` // "int" or "float"
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Default     *float64 `json:"default,omitempty" yaml:"default,omitempty"`
	Min         *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Step        *float64 `json:"step,omitempty" yaml:"step,omitempty"`
}

// Entry is one catalog row. Construct receives the coerced parameter
// values keyed by name.
type Entry struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Scheme      string  `json:"scheme" yaml:"scheme"` // default color scheme
	Params      []Param `json:"parameters" yaml:"parameters"`

	Construct func(params map[string]float64) (sim.Adapter, error) `json:"-" yaml:"-"`
}

type Catalog struct {
	entries map[string]*Entry
	order   []string
}

func New() *Catalog {
	return &Catalog{entries: make(map[string]*Entry)}
}

func (c *Catalog) Register(e Entry) {
	if _, ok := c.entries[e.ID]; !ok {
		c.order = append(c.order, e.ID)
	}
	c.entries[e.ID] = &e
}

func (c *Catalog) Get(id string) (*Entry, error) {
	e, ok := c.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSimulator, id)
	}
	return e, nil
}

// List returns entries in registration order.
func (c *Catalog) List() []*Entry {
	out := make([]*Entry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.entries[id])
	}
	return out
}

// New instantiates a fresh adapter for id, coercing and validating the
// raw parameter bag against the entry's schema. Every call constructs
// a new adapter; instances are never shared between sessions.
func (c *Catalog) New(id string, raw map[string]any) (sim.Adapter, error) {
	e, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	params := make(map[string]float64, len(e.Params))
	for _, p := range e.Params {
		v, ok := raw[p.Name]
		if !ok {
			if p.Default == nil {
				return nil, fmt.Errorf("simulator %q: missing required parameter %q", id, p.Name)
			}
			params[p.Name] = *p.Default
			continue
		}
		f, err := coerce(v, p.Type)
		if err != nil {
			return nil, fmt.Errorf("simulator %q: parameter %q: %w", id, p.Name, err)
		}
		if p.Min != nil && f < *p.Min {
			return nil, fmt.Errorf("simulator %q: parameter %q: %g below minimum %g", id, p.Name, f, *p.Min)
		}
		if p.Max != nil && f > *p.Max {
			return nil, fmt.Errorf("simulator %q: parameter %q: %g above maximum %g", id, p.Name, f, *p.Max)
		}
		params[p.Name] = f
	}
	return e.Construct(params)
}

// coerce accepts the numeric representations a JSON or form payload
// may carry: numbers, integers, or numeric strings.
func coerce(v any, typ string) (float64, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		parsed, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid numeric value %q", x)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("value must be finite")
	}
	if typ == "int" && f != math.Trunc(f) {
		return 0, fmt.Errorf("expected integer, got %g", f)
	}
	return f, nil
}

func ptr(f float64) *float64 { return &f }
