package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Override adjusts the display metadata and parameter defaults of a
// registered entry. Constructors stay compiled-in, so a catalog file
// can retune or relabel a simulator but never load arbitrary code.
type Override struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Scheme      string             `yaml:"scheme"`
	Defaults    map[string]float64 `yaml:"defaults"`
}

// LoadOverrides applies a YAML override file keyed by simulator id.
// Unknown ids are an error so a typo does not silently no-op.
func (c *Catalog) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var overrides map[string]Override
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parse catalog overrides: %w", err)
	}
	for id, o := range overrides {
		e, ok := c.entries[id]
		if !ok {
			return fmt.Errorf("%w: %q in overrides file", ErrUnknownSimulator, id)
		}
		if o.Name != "" {
			e.Name = o.Name
		}
		if o.Description != "" {
			e.Description = o.Description
		}
		if o.Scheme != "" {
			e.Scheme = o.Scheme
		}
		for name, def := range o.Defaults {
			found := false
			for i := range e.Params {
				if e.Params[i].Name == name {
					v := def
					e.Params[i].Default = &v
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("simulator %q: override for unknown parameter %q", id, name)
			}
		}
	}
	return nil
}
