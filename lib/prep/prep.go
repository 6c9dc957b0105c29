/*package prep contains the physical preparation fields that xphoton
registers on a dataset before photon generation: the ionized-electron number
density, the bulk metallicity from a multi-species element-mass table, and
the synthetic emission-normalization fields used by the power-law and line
examples. All of them are pure transforms of aligned arrays; malformed input
is reported immediately with the field name and the expected vs actual
length.*/
package prep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/xphoton/xphoton/lib/fields"
	"github.com/xphoton/xphoton/lib/units"
)

// NumSpecies is the number of element columns in the element-mass table.
// Column 0 is helium and columns 1 through 10 are the tracked metals. This
// is a fixed indexing contract shared with the simulation outputs that
// produce the table, not a tunable parameter.
const (
	NumSpecies = 11
	// metalStart is the first metal column. Helium (column 0) is excluded
	// from the metal sum by the contract above.
	metalStart = 1
)

// ElectronNumberDensity computes the ionized-electron number density in
// cm**-3 from the mass density rho (g/cm**3) and the hydrogen and helium
// mass fractions: n_e = rho*(H + 0.5*(1-He))/m_p. The arrays must be
// aligned.
func ElectronNumberDensity(rho, h, he []float64) ([]float64, error) {
	if len(h) != len(rho) {
		return nil, fmt.Errorf("The H_fraction field has %d elements, but "+
			"the density field has %d.", len(h), len(rho))
	}
	if len(he) != len(rho) {
		return nil, fmt.Errorf("The He_fraction field has %d elements, but "+
			"the density field has %d.", len(he), len(rho))
	}

	out := make([]float64, len(rho))
	for i := range rho {
		out[i] = rho[i] * (h[i] + 0.5*(1-he[i])) / units.ProtonMass
	}
	return out, nil
}

// BulkMetallicity computes the metal mass fraction of each particle from an
// element-mass table (one row per particle, NumSpecies columns) and the
// total particle mass: Z = sum(columns 1..10)/mass. The helium column does
// not contribute.
func BulkMetallicity(elementMass *mat.Dense, mass []float64) ([]float64, error) {
	rows, cols := elementMass.Dims()
	if cols != NumSpecies {
		return nil, fmt.Errorf("The element-mass table has %d columns, but "+
			"the species layout fixes %d (helium plus 10 metals).",
			cols, NumSpecies)
	}
	if rows != len(mass) {
		return nil, fmt.Errorf("The element-mass table has %d rows, but the "+
			"mass field has %d elements.", rows, len(mass))
	}

	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		row := elementMass.RawRowView(i)
		sum := 0.0
		for j := metalStart; j < NumSpecies; j++ {
			sum += row[j]
		}
		out[i] = sum / mass[i]
	}
	return out, nil
}

// RegisterGasFields registers the standard preparation fields for a gas
// category: 'El_number_density' (from 'density', 'H_fraction' and
// 'He_fraction') and 'metallicity' (from 'element_mass' and 'mass'). The
// sampling type applies to both.
func RegisterGasFields(
	reg *fields.Registry, category string, sampling fields.Sampling,
) error {
	err := reg.AddField(category, "El_number_density",
		func(ev *fields.Evaluator) (fields.Field, error) {
			rho, err := ev.Float64s(category, "density")
			if err != nil {
				return nil, err
			}
			h, err := ev.Float64s(category, "H_fraction")
			if err != nil {
				return nil, err
			}
			he, err := ev.Float64s(category, "He_fraction")
			if err != nil {
				return nil, err
			}
			ne, err := ElectronNumberDensity(rho, h, he)
			if err != nil {
				return nil, err
			}
			return fields.NewFloat64("El_number_density",
				units.NumberDensity, ne), nil
		}, units.NumberDensity, sampling)
	if err != nil {
		return err
	}

	return reg.AddField(category, "metallicity",
		func(ev *fields.Evaluator) (fields.Field, error) {
			f, err := ev.Get(category, "element_mass")
			if err != nil {
				return nil, err
			}
			table, ok := f.(*fields.Matrix)
			if !ok {
				return nil, fmt.Errorf("The field %s is not an "+
					"element-mass table.",
					fields.Key{Category: category, Name: "element_mass"})
			}
			m, err := ev.Float64s(category, "mass")
			if err != nil {
				return nil, err
			}
			z, err := BulkMetallicity(table.Values(), m)
			if err != nil {
				return nil, err
			}
			return fields.NewFloat64("metallicity",
				units.Dimensionless, z), nil
		}, units.Dimensionless, sampling)
}

// RegisterEmissionNorm registers a synthetic emission-normalization field:
// a fixed constant times the per-particle mass, divided by the proton mass
// when perProton is set. These normalizations are illustrative placeholders
// for the power-law and line examples; the constant carries no physical
// derivation.
func RegisterEmissionNorm(
	reg *fields.Registry, category, name string, k float64, perProton bool,
	unit string, sampling fields.Sampling,
) error {
	return reg.AddField(category, name,
		func(ev *fields.Evaluator) (fields.Field, error) {
			m, err := ev.Float64s(category, "mass")
			if err != nil {
				return nil, err
			}
			out := make([]float64, len(m))
			for i := range m {
				out[i] = k * m[i]
				if perProton {
					out[i] /= units.ProtonMass
				}
			}
			return fields.NewFloat64(name, unit, out), nil
		}, unit, sampling)
}
