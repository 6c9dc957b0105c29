/*package source contains the source-model parameterizations handed to the
photon generator: thermal, power-law, and line models. These are pure
configuration records. The spectral physics they parameterize lives behind
the pipeline's SourceModel interface, not here.*/
package source

import (
	"fmt"

	"github.com/xphoton/xphoton/lib/fields"
)

// Model kind tags.
const (
	ThermalKind  = "thermal"
	PowerLawKind = "power-law"
	LineKind     = "line"
)

// Params is the interface shared by all source-model parameterizations.
type Params interface {
	// Kind returns the model kind tag.
	Kind() string
	// Band returns the rest-frame energy band (min, max) in keV.
	Band() (emin, emax float64)
	// Validate returns an error if the parameters are not usable.
	Validate() error
}

// Type assertions
var (
	_ Params = &Thermal{}
	_ Params = &PowerLaw{}
	_ Params = &Line{}
)

// DefaultMaxDensity is the default mass-density ceiling (g/cm**3) above
// which cells/particles are excluded from thermal emission.
const DefaultMaxDensity = 5e-25

// Thermal parameterizes a thermal plasma model: an energy band, a channel
// count, a metallicity field, and optionally a map of per-element
// mass-fraction fields allowed to vary from the bulk metallicity.
type Thermal struct {
	Emin, Emax float64
	Nchan      int
	// Zmet names the metallicity field.
	Zmet fields.Key
	// VarElem maps element symbols (e.g. "O", "Fe") to the field carrying
	// that element's mass fraction. Nil means no free elements.
	VarElem map[string]fields.Key
	// TemperatureField and EmissionMeasureField override the defaults
	// (category of Zmet, 'temperature'/'emission_measure') when non-nil.
	TemperatureField, EmissionMeasureField *fields.Key
	// MaxDensity is the density ceiling in g/cm**3. Zero means
	// DefaultMaxDensity; a negative value disables the cut.
	MaxDensity float64
}

// NewThermal creates a thermal model parameterization over the given band,
// channel count, and metallicity field, with the default density ceiling.
func NewThermal(emin, emax float64, nchan int, zmet fields.Key) (*Thermal, error) {
	t := &Thermal{Emin: emin, Emax: emax, Nchan: nchan, Zmet: zmet,
		MaxDensity: DefaultMaxDensity}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Thermal) Kind() string { return ThermalKind }

func (t *Thermal) Band() (float64, float64) { return t.Emin, t.Emax }

func (t *Thermal) Validate() error {
	if err := checkBand(t.Emin, t.Emax); err != nil {
		return err
	}
	if t.Nchan <= 0 {
		return fmt.Errorf("A thermal model needs a positive channel count, "+
			"got %d.", t.Nchan)
	}
	if t.Zmet.Name == "" {
		return fmt.Errorf("A thermal model needs a metallicity field " +
			"reference.")
	}
	for elem, key := range t.VarElem {
		if key.Name == "" {
			return fmt.Errorf("The free element '%s' has an empty field "+
				"reference.", elem)
		}
	}
	return nil
}

// MaxDensityCeiling returns the effective density ceiling and whether the
// cut is enabled at all.
func (t *Thermal) MaxDensityCeiling() (float64, bool) {
	if t.MaxDensity < 0 {
		return 0, false
	}
	if t.MaxDensity == 0 {
		return DefaultMaxDensity, true
	}
	return t.MaxDensity, true
}

// PowerLaw parameterizes a power-law model: a reference energy, a band, the
// field carrying the per-cell normalization (photons/s/keV at the reference
// energy), and the photon index.
type PowerLaw struct {
	// E0 is the reference energy in keV.
	E0         float64
	Emin, Emax float64
	// EmissionField names the normalization field.
	EmissionField fields.Key
	// Index is the photon index alpha.
	Index float64
}

// NewPowerLaw creates a power-law parameterization.
func NewPowerLaw(
	e0, emin, emax float64, emissionField fields.Key, index float64,
) (*PowerLaw, error) {
	p := &PowerLaw{e0, emin, emax, emissionField, index}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *PowerLaw) Kind() string { return PowerLawKind }

func (p *PowerLaw) Band() (float64, float64) { return p.Emin, p.Emax }

func (p *PowerLaw) Validate() error {
	if err := checkBand(p.Emin, p.Emax); err != nil {
		return err
	}
	if p.E0 <= 0 {
		return fmt.Errorf("A power-law model needs a positive reference "+
			"energy, got %g keV.", p.E0)
	}
	if p.EmissionField.Name == "" {
		return fmt.Errorf("A power-law model needs a normalization field " +
			"reference.")
	}
	return nil
}

// Line parameterizes a single emission line: the line-center energy, the
// field carrying the per-cell photon rate, and an optional Gaussian
// broadening width.
type Line struct {
	// E0 is the line-center energy in keV.
	E0 float64
	// EmissionField names the photon-rate field (photons/s).
	EmissionField fields.Key
	// Sigma is the intrinsic line width in keV. Zero means the line is
	// unbroadened.
	Sigma float64
}

// NewLine creates a line parameterization.
func NewLine(e0 float64, emissionField fields.Key, sigma float64) (*Line, error) {
	l := &Line{e0, emissionField, sigma}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Line) Kind() string { return LineKind }

// Band returns a band centered on the line, wide enough to hold any
// plausible broadening.
func (l *Line) Band() (float64, float64) {
	w := 10 * l.Sigma
	if w == 0 {
		w = 0.1 * l.E0
	}
	lo := l.E0 - w
	if lo < 0 {
		lo = 0
	}
	return lo, l.E0 + w
}

func (l *Line) Validate() error {
	if l.E0 <= 0 {
		return fmt.Errorf("A line model needs a positive line-center "+
			"energy, got %g keV.", l.E0)
	}
	if l.Sigma < 0 {
		return fmt.Errorf("A line model's broadening width must be "+
			"non-negative, got %g keV.", l.Sigma)
	}
	if l.EmissionField.Name == "" {
		return fmt.Errorf("A line model needs a photon-rate field " +
			"reference.")
	}
	return nil
}

func checkBand(emin, emax float64) error {
	if emin <= 0 {
		return fmt.Errorf("The lower band edge must be positive, got %g "+
			"keV.", emin)
	}
	if emax <= emin {
		return fmt.Errorf("The energy band is empty: emin = %g keV, "+
			"emax = %g keV.", emin, emax)
	}
	return nil
}
