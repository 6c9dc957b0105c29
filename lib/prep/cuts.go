package prep

/* cuts.go contains the hot-gas phase-space cuts. The default thresholds
reproduce the cuts used by the example pipelines bit-for-bit, but they are
configuration values, not physical constants: a config file can override any
of them. */

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xphoton/xphoton/lib/fields"
	"github.com/xphoton/xphoton/lib/filters"
)

// Cuts holds the phase-space thresholds selecting X-ray-emitting gas. The
// selection is density < MaxDensity AND MinTemperature < temperature <
// MaxTemperature, with all three comparisons strict.
type Cuts struct {
	// MaxDensity is the mass-density ceiling in g/cm**3. Denser gas is
	// assumed to be star-forming and not X-ray emitting.
	MaxDensity float64 `yaml:"max_density"`
	// MinTemperature is the temperature floor in K below which gas is too
	// cold to emit in the X-ray band.
	MinTemperature float64 `yaml:"min_temperature"`
	// MaxTemperature is the temperature ceiling in K excluding spuriously
	// hot phases.
	MaxTemperature float64 `yaml:"max_temperature"`
}

// DefaultCuts returns the thresholds used by the example pipelines.
func DefaultCuts() Cuts {
	return Cuts{
		MaxDensity:     5e-25,
		MinTemperature: 3481355.78,
		MaxTemperature: 4.5e8,
	}
}

// LoadCuts reads cuts from a YAML file. Keys that the file does not set keep
// their default values.
func LoadCuts(path string) (Cuts, error) {
	c := DefaultCuts()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("The cuts file %s cannot be read: %s",
			path, err.Error())
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("The cuts file %s is not valid YAML: %s",
			path, err.Error())
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("The cuts file %s contains invalid cuts: %s",
			path, err.Error())
	}
	return c, nil
}

// Validate returns an error if the cuts do not describe a non-empty
// phase-space region.
func (c Cuts) Validate() error {
	if c.MaxDensity <= 0 {
		return fmt.Errorf("max_density must be positive, got %g.",
			c.MaxDensity)
	}
	if c.MinTemperature < 0 {
		return fmt.Errorf("min_temperature must be non-negative, got %g.",
			c.MinTemperature)
	}
	if c.MaxTemperature <= c.MinTemperature {
		return fmt.Errorf("max_temperature (%g) must be above "+
			"min_temperature (%g).", c.MaxTemperature, c.MinTemperature)
	}
	return nil
}

// HotGasFilter builds the named 'hot_gas' particle filter over the given
// base category from the cuts.
func (c Cuts) HotGasFilter(category string) *filters.Filter {
	return &filters.Filter{
		Name: "hot_gas",
		Base: category,
		Tree: filters.And(
			filters.LessThan(category, "density", c.MaxDensity),
			filters.GreaterThan(category, "temperature", c.MinTemperature),
			filters.LessThan(category, "temperature", c.MaxTemperature),
		),
		Requires: []fields.Key{
			{Category: category, Name: "density"},
			{Category: category, Name: "temperature"},
		},
	}
}
