/*package pipeline sequences the mock X-ray observation pipeline: photon
generation from a prepared dataset, projection of the photon sample onto a
sky plane, and event-list post-processing. The spectral physics lives behind
the SourceModel and AbsorptionModel interfaces; this package owns the
parameter contracts, the sequencing, and the on-disk sample/event formats,
and ships deterministic expectation models for the power-law and line
examples.*/
package pipeline

import (
	"fmt"
	"math"

	"github.com/xphoton/xphoton/lib/dataset"
	"github.com/xphoton/xphoton/lib/fields"
	"github.com/xphoton/xphoton/lib/units"
)

// ModelOutput is what a source model produces for one population: a photon
// count per cell/particle and the concatenated rest-frame photon energies in
// keV, cell by cell.
type ModelOutput struct {
	NumPhotons []int
	Energies   []float64
}

// Check verifies that the output is aligned with a population of n
// cells/particles.
func (out *ModelOutput) Check(n int) error {
	if len(out.NumPhotons) != n {
		return fmt.Errorf("The source model produced photon counts for %d "+
			"cells, but the population has %d.", len(out.NumPhotons), n)
	}
	total := 0
	for i := range out.NumPhotons {
		if out.NumPhotons[i] < 0 {
			return fmt.Errorf("The source model produced a negative photon "+
				"count, %d, for cell %d.", out.NumPhotons[i], i)
		}
		total += out.NumPhotons[i]
	}
	if len(out.Energies) != total {
		return fmt.Errorf("The source model produced %d photon energies, "+
			"but its counts sum to %d.", len(out.Energies), total)
	}
	return nil
}

// SourceModel turns a prepared cell/particle population into photons. The
// physical spectral models (e.g. APEC thermal emission) are external
// collaborators implementing this interface; pipeline ships deterministic
// expectation models for the power-law and line parameterizations.
type SourceModel interface {
	// Setup is called once per run with the dataset, the source redshift,
	// and the spectral normalization (area*exposure over the luminosity
	// distance shell, in cm**2*s/cm**2).
	Setup(ds *dataset.Dataset, redshift, spectralNorm float64) error
	// Sample produces photons for the given population. The returned
	// output must pass Check against the population's count.
	Sample(ev *fields.Evaluator) (*ModelOutput, error)
}

// AbsorptionModel applies foreground galactic absorption to observed photon
// energies. Implementations outside this module carry the real
// cross-section tables.
type AbsorptionModel interface {
	// Name identifies the model (e.g. "wabs", "tbabs").
	Name() string
	// Transmit returns, for each observed energy in keV, whether the
	// photon survives a neutral hydrogen column of nH (in 10^22 cm**-2).
	Transmit(energies []float64, nH float64) []bool
}

// Instrument convolves a SIMPUT catalog with a telescope response,
// producing a detector-plane event file. The response physics is entirely
// external; this interface is the call contract the pipeline hands its
// outputs to.
type Instrument interface {
	Name() string
	Simulate(simputFile, outFile string, exposure float64,
		skyCenter [2]float64) error
}

// SimputWriter serializes an event list as a SIMPUT mock-source catalog.
// The encoding is external; the pipeline only drives it.
type SimputWriter interface {
	WritePhotonList(prefix, name string, e *EventList) error
}

// H0 is the Hubble constant assumed when converting a redshift to a
// luminosity distance, in km/s/Mpc.
const H0 = 70.0

// LuminosityDistance returns the luminosity distance in cm for a source at
// the given redshift, using the low-redshift approximation d_L = (c*z/H0) *
// (1+z). The mock sources the pipeline handles sit at z of a few percent,
// where this is accurate to the same order as the synthetic data itself.
func LuminosityDistance(z float64) (float64, error) {
	if z <= 0 {
		return 0, fmt.Errorf("The source must sit at a positive redshift "+
			"to have a defined luminosity distance, got z = %g.", z)
	}
	dC := units.CLight * z / (H0 * units.KmS / units.MpcCm)
	return dC * (1 + z), nil
}

// SpectralNorm returns the normalization applied to per-cell emission
// rates: collecting area (cm**2) times exposure (s) over the luminosity
// shell 4*pi*d_L**2.
func SpectralNorm(area, exposure, z float64) (float64, error) {
	if area <= 0 {
		return 0, fmt.Errorf("The collecting area must be positive, got "+
			"%g cm**2.", area)
	}
	if exposure <= 0 {
		return 0, fmt.Errorf("The exposure time must be positive, got "+
			"%g s.", exposure)
	}
	dL, err := LuminosityDistance(z)
	if err != nil {
		return 0, err
	}
	return area * exposure / (4 * math.Pi * dL * dL), nil
}
