/*package dataset contains the handle that ties together one snapshot's
fields, its derived-field and particle-filter registries, and its loading
options. A Dataset owns no physics: it is the name-indexed view that the
photon pipeline evaluates fields and filters against.*/
package dataset

import (
	"fmt"

	"github.com/xphoton/xphoton/lib/fields"
	"github.com/xphoton/xphoton/lib/filters"
	"github.com/xphoton/xphoton/lib/units"
)

// Species-field assumptions for datasets whose snapshots don't carry
// hydrogen/helium fraction fields.
const (
	// IonizedSpecies assumes fully ionized primordial gas.
	IonizedSpecies = "ionized"
	// NeutralSpecies assumes neutral primordial gas. The fraction fields it
	// creates are the same as for IonizedSpecies; the label is recorded so
	// downstream spectral models know which ionization state was assumed.
	NeutralSpecies = "neutral"
)

// Primordial hydrogen and helium mass fractions used for assumed species
// fields.
const (
	primordialH  = 0.76
	primordialHe = 0.24
)

// Options are the dataset-loading options: the ID width, an optional named
// field layout to validate the snapshot against, and the ionization state to
// assume when species fields are missing.
type Options struct {
	// LongIDs selects 64-bit particle IDs. Snapshots with more than 2^32
	// particles need this.
	LongIDs bool `yaml:"long_ids"`
	// FieldLayout maps expected field names (within the 'gas' category) to
	// type strings: "f32", "f64", "u32", "u64", "v64", "bool", "mat". If
	// non-empty, New checks the stored fields against it.
	FieldLayout map[string]string `yaml:"field_layout"`
	// DefaultSpecies is "", IonizedSpecies, or NeutralSpecies. When set,
	// missing 'H_fraction'/'He_fraction' fields are filled in with
	// primordial constants under the stated assumption.
	DefaultSpecies string `yaml:"default_species"`
}

// Dataset is an opaque handle over one snapshot's field data.
type Dataset struct {
	name     string
	redshift float64
	opts     Options

	set  *fields.FieldSet
	reg  *fields.Registry
	filt *filters.Registry
	ev   *fields.Evaluator
}

// New creates a Dataset over the given field set. The field layout in opts
// is validated against the set, ID fields are created if missing, and
// assumed species fields are registered according to opts.DefaultSpecies.
func New(name string, set *fields.FieldSet, redshift float64, opts Options) (*Dataset, error) {
	if redshift < 0 {
		return nil, fmt.Errorf("The dataset %s has a negative redshift, %g.",
			name, redshift)
	}

	ds := &Dataset{
		name:     name,
		redshift: redshift,
		opts:     opts,
		set:      set,
		reg:      fields.NewRegistry(),
		filt:     filters.NewRegistry(),
	}

	if err := ds.checkLayout(); err != nil {
		return nil, err
	}
	if err := ds.ensureIDs(); err != nil {
		return nil, err
	}
	if err := ds.ensureSpecies(); err != nil {
		return nil, err
	}

	ds.ev = fields.NewEvaluator(set, ds.reg)
	return ds, nil
}

func (ds *Dataset) checkLayout() error {
	for name, typ := range ds.opts.FieldLayout {
		f, err := ds.set.Get("gas", name)
		if err != nil {
			return fmt.Errorf("The dataset %s declares the field '%s' in "+
				"its layout, but the snapshot does not contain it.",
				ds.name, name)
		}
		if got := typeString(f); got != typ {
			return fmt.Errorf("The dataset %s declares the field '%s' with "+
				"type '%s', but the snapshot stores it as '%s'.",
				ds.name, name, typ, got)
		}
	}
	return nil
}

func typeString(f fields.Field) string {
	switch f.(type) {
	case *fields.Float32:
		return "f32"
	case *fields.Float64:
		return "f64"
	case *fields.Uint32:
		return "u32"
	case *fields.Uint64:
		return "u64"
	case *fields.Vec64:
		return "v64"
	case *fields.Bool:
		return "bool"
	case *fields.Matrix:
		return "mat"
	}
	return "unknown"
}

// ensureIDs creates a sequential particle ID field if the snapshot doesn't
// carry one, with the width chosen by opts.LongIDs.
func (ds *Dataset) ensureIDs() error {
	if ds.set.Has("gas", "particle_ids") {
		return nil
	}
	n := ds.set.Count()
	if ds.opts.LongIDs {
		ids := make([]uint64, n)
		for i := range ids {
			ids[i] = uint64(i)
		}
		return ds.set.Insert("gas",
			fields.NewUint64("particle_ids", units.Dimensionless, ids))
	}
	ids := make([]uint32, n)
	for i := range ids {
		ids[i] = uint32(i)
	}
	return ds.set.Insert("gas",
		fields.NewUint32("particle_ids", units.Dimensionless, ids))
}

// ensureSpecies registers constant H/He fraction fields under the assumed
// ionization state when the snapshot lacks them.
func (ds *Dataset) ensureSpecies() error {
	switch ds.opts.DefaultSpecies {
	case "":
		return nil
	case IonizedSpecies, NeutralSpecies:
	default:
		return fmt.Errorf("The dataset %s was given the species assumption "+
			"'%s', but the only valid values are '%s' and '%s'.",
			ds.name, ds.opts.DefaultSpecies, IonizedSpecies, NeutralSpecies)
	}

	constant := func(name string, value float64) fields.DeriveFunc {
		return func(ev *fields.Evaluator) (fields.Field, error) {
			x := make([]float64, ev.Count())
			for i := range x {
				x[i] = value
			}
			return fields.NewFloat64(name, units.Dimensionless, x), nil
		}
	}

	if !ds.set.Has("gas", "H_fraction") {
		err := ds.reg.AddField("gas", "H_fraction",
			constant("H_fraction", primordialH),
			units.Dimensionless, fields.ParticleSampling)
		if err != nil {
			return err
		}
	}
	if !ds.set.Has("gas", "He_fraction") {
		err := ds.reg.AddField("gas", "He_fraction",
			constant("He_fraction", primordialHe),
			units.Dimensionless, fields.ParticleSampling)
		if err != nil {
			return err
		}
	}
	return nil
}

// Name returns the snapshot name the handle was created with.
func (ds *Dataset) Name() string { return ds.name }

// Redshift returns the dataset's cosmological redshift.
func (ds *Dataset) Redshift() float64 { return ds.redshift }

// Count returns the number of particles/cells.
func (ds *Dataset) Count() int { return ds.set.Count() }

// Options returns the loading options.
func (ds *Dataset) Options() Options { return ds.opts }

// Evaluator returns the lazy field evaluator over the dataset.
func (ds *Dataset) Evaluator() *fields.Evaluator { return ds.ev }

// Registry returns the derived-field registry.
func (ds *Dataset) Registry() *fields.Registry { return ds.reg }

// Filters returns the particle-filter registry.
func (ds *Dataset) Filters() *filters.Registry { return ds.filt }

// Reset drops all memoized derived fields, forcing recomputation on next
// access.
func (ds *Dataset) Reset() { ds.ev.Reset() }

// Point resolves a named point of the dataset: "c" is the center of the
// position bounding box and "max" is the position of the densest
// particle/cell. Explicit coordinates should be passed directly to region
// constructors instead.
func (ds *Dataset) Point(name string) ([3]float64, error) {
	switch name {
	case "c":
		x, err := ds.ev.Vecs("gas", "position")
		if err != nil {
			return [3]float64{}, err
		}
		if len(x) == 0 {
			return [3]float64{}, fmt.Errorf("The dataset %s is empty, so "+
				"'c' is undefined.", ds.name)
		}
		lo, hi := x[0], x[0]
		for i := range x {
			for dim := 0; dim < 3; dim++ {
				if x[i][dim] < lo[dim] {
					lo[dim] = x[i][dim]
				}
				if x[i][dim] > hi[dim] {
					hi[dim] = x[i][dim]
				}
			}
		}
		return [3]float64{(lo[0] + hi[0]) / 2, (lo[1] + hi[1]) / 2,
			(lo[2] + hi[2]) / 2}, nil
	case "max":
		x, err := ds.ev.Vecs("gas", "position")
		if err != nil {
			return [3]float64{}, err
		}
		rho, err := ds.ev.Float64s("gas", "density")
		if err != nil {
			return [3]float64{}, err
		}
		if len(rho) == 0 {
			return [3]float64{}, fmt.Errorf("The dataset %s is empty, so "+
				"'max' is undefined.", ds.name)
		}
		iMax := 0
		for i := range rho {
			if rho[i] > rho[iMax] {
				iMax = i
			}
		}
		return x[iMax], nil
	}
	return [3]float64{}, fmt.Errorf("The named point '%s' is not "+
		"recognized. The valid names are 'c' and 'max'.", name)
}
