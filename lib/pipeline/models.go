package pipeline

/* models.go contains the built-in source models. They are expectation
models: each cell emits its expected photon count, with energies placed at
evenly spaced quantiles of the spectral shape, so runs with the same inputs
produce the same sample. A thermal plasma needs an external spectral table
and so has no built-in model; thermal runs plug their own SourceModel in. */

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/xphoton/xphoton/lib/dataset"
	"github.com/xphoton/xphoton/lib/fields"
	"github.com/xphoton/xphoton/lib/source"
)

// PowerLawExpectation is the built-in model for power-law sources. Each
// cell's normalization field gives its photon rate density at the reference
// energy, in photons/s/keV/cm**2 at the source.
type PowerLawExpectation struct {
	params *source.PowerLaw
	norm   float64
}

// NewPowerLawExpectation builds the model for the given parameterization.
func NewPowerLawExpectation(p *source.PowerLaw) (*PowerLawExpectation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &PowerLawExpectation{params: p}, nil
}

func (m *PowerLawExpectation) Setup(
	ds *dataset.Dataset, redshift, spectralNorm float64,
) error {
	m.norm = spectralNorm
	return nil
}

// bandIntegral returns the integral of (e/e0)^-alpha over the band, the
// factor turning a rate density at e0 into a band-integrated rate.
func (m *PowerLawExpectation) bandIntegral() float64 {
	p := m.params
	if p.Index == 1 {
		return p.E0 * math.Log(p.Emax/p.Emin)
	}
	a := 1 - p.Index
	return math.Pow(p.E0, p.Index) *
		(math.Pow(p.Emax, a) - math.Pow(p.Emin, a)) / a
}

// quantile inverts the power-law CDF over the band at q in [0, 1).
func (m *PowerLawExpectation) quantile(q float64) float64 {
	p := m.params
	if p.Index == 1 {
		return p.Emin * math.Pow(p.Emax/p.Emin, q)
	}
	a := 1 - p.Index
	lo, hi := math.Pow(p.Emin, a), math.Pow(p.Emax, a)
	return math.Pow(lo+q*(hi-lo), 1/a)
}

func (m *PowerLawExpectation) Sample(ev *fields.Evaluator) (*ModelOutput, error) {
	if m.norm == 0 {
		return nil, fmt.Errorf("The power-law model was sampled before Setup.")
	}
	k := m.params.EmissionField
	rate, err := ev.Float64s(k.Category, k.Name)
	if err != nil {
		return nil, err
	}

	integ := m.bandIntegral()
	out := &ModelOutput{NumPhotons: make([]int, len(rate))}
	for i := range rate {
		lam := rate[i] * integ * m.norm
		if lam < 0 {
			return nil, fmt.Errorf("The normalization field %s is negative "+
				"(%g) for cell %d.", k.String(), rate[i], i)
		}
		n := int(math.Round(lam))
		out.NumPhotons[i] = n
		for j := 0; j < n; j++ {
			q := (float64(j) + 0.5) / float64(n)
			out.Energies = append(out.Energies, m.quantile(q))
		}
	}
	return out, nil
}

// LineExpectation is the built-in model for line sources. Each cell's
// emission field gives its photon rate in photons/s/cm**2 at the source.
type LineExpectation struct {
	params *source.Line
	norm   float64
}

// NewLineExpectation builds the model for the given parameterization.
func NewLineExpectation(l *source.Line) (*LineExpectation, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &LineExpectation{params: l}, nil
}

func (m *LineExpectation) Setup(
	ds *dataset.Dataset, redshift, spectralNorm float64,
) error {
	m.norm = spectralNorm
	return nil
}

func (m *LineExpectation) Sample(ev *fields.Evaluator) (*ModelOutput, error) {
	if m.norm == 0 {
		return nil, fmt.Errorf("The line model was sampled before Setup.")
	}
	k := m.params.EmissionField
	rate, err := ev.Float64s(k.Category, k.Name)
	if err != nil {
		return nil, err
	}

	gauss := distuv.Normal{Mu: m.params.E0, Sigma: m.params.Sigma}
	out := &ModelOutput{NumPhotons: make([]int, len(rate))}
	for i := range rate {
		lam := rate[i] * m.norm
		if lam < 0 {
			return nil, fmt.Errorf("The photon-rate field %s is negative "+
				"(%g) for cell %d.", k.String(), rate[i], i)
		}
		n := int(math.Round(lam))
		out.NumPhotons[i] = n
		for j := 0; j < n; j++ {
			if m.params.Sigma == 0 {
				out.Energies = append(out.Energies, m.params.E0)
				continue
			}
			q := (float64(j) + 0.5) / float64(n)
			out.Energies = append(out.Energies, gauss.Quantile(q))
		}
	}
	return out, nil
}

// NewModel returns the built-in model for a parameterization, or an error
// for kinds that need an external model.
func NewModel(p source.Params) (SourceModel, error) {
	switch params := p.(type) {
	case *source.PowerLaw:
		return NewPowerLawExpectation(params)
	case *source.Line:
		return NewLineExpectation(params)
	case *source.Thermal:
		return nil, fmt.Errorf("Thermal emission needs an external spectral " +
			"table; there is no built-in thermal model. Plug in a SourceModel " +
			"that carries one.")
	}
	return nil, fmt.Errorf("The model kind '%s' has no built-in source "+
		"model.", p.Kind())
}

// Type assertions
var (
	_ SourceModel = &PowerLawExpectation{}
	_ SourceModel = &LineExpectation{}
)
