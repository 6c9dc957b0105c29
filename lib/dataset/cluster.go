package dataset

/* cluster.go builds the synthetic in-memory gas dataset the examples run
against when no snapshot file is available. The construction is a crude
isothermal cluster: Gaussian positions, a beta-model-ish density profile, and
log-normal temperature scatter. None of it is meant to be physical beyond
"looks like hot cluster gas to the preparation layer". */

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/xphoton/xphoton/lib/fields"
	"github.com/xphoton/xphoton/lib/prep"
	"github.com/xphoton/xphoton/lib/units"
)

// ClusterParams control the synthetic cluster builder. The zero value is not
// usable: start from DefaultClusterParams.
type ClusterParams struct {
	// N is the number of gas particles.
	N int `yaml:"n"`
	// Seed seeds the random source, so the same parameters always build the
	// same dataset.
	Seed uint64 `yaml:"seed"`
	// Redshift of the synthetic snapshot.
	Redshift float64 `yaml:"redshift"`
	// RScale is the Gaussian scale radius of the particle positions in Mpc.
	RScale float64 `yaml:"r_scale"`
	// RCore is the core radius of the density profile in Mpc.
	RCore float64 `yaml:"r_core"`
	// Rho0 is the central gas density in g/cm**3.
	Rho0 float64 `yaml:"rho0"`
	// LogT and LogTScatter give the log10 of the central temperature in K
	// and its Gaussian scatter in dex.
	LogT        float64 `yaml:"log_t"`
	LogTScatter float64 `yaml:"log_t_scatter"`
	// MGas is the total gas mass in g, split evenly across particles.
	MGas float64 `yaml:"m_gas"`
	// Zmet is the metal mass fraction used to fill the element-mass table.
	Zmet float64 `yaml:"z_met"`
	// VScale is the 1D velocity dispersion in cm/s.
	VScale float64 `yaml:"v_scale"`
}

// DefaultClusterParams returns cluster parameters that put most of the gas
// inside the default hot-gas cuts.
func DefaultClusterParams() ClusterParams {
	return ClusterParams{
		N:           20000,
		Seed:        42,
		Redshift:    0.05,
		RScale:      0.5,
		RCore:       0.2,
		Rho0:        1e-26,
		LogT:        7.3,
		LogTScatter: 0.15,
		MGas:        2.0e47,
		Zmet:        0.013,
		VScale:      3.0e7,
	}
}

// SyntheticCluster builds an in-memory gas dataset from the given
// parameters, registers the standard preparation fields on it, and registers
// the default hot-gas filter. The position field is in Mpc; everything else
// is CGS.
func SyntheticCluster(name string, p ClusterParams) (*Dataset, error) {
	if p.N <= 0 {
		return nil, fmt.Errorf("The synthetic cluster needs a positive "+
			"particle count, got %d.", p.N)
	}

	src := rand.NewSource(p.Seed)
	posDist := distuv.Normal{Mu: 0, Sigma: p.RScale, Src: src}
	logTDist := distuv.Normal{Mu: p.LogT, Sigma: p.LogTScatter, Src: src}
	vDist := distuv.Normal{Mu: 0, Sigma: p.VScale, Src: src}
	wDist := distuv.Uniform{Min: 0, Max: 1, Src: src}

	x := make([][3]float64, p.N)
	v := make([][3]float64, p.N)
	rho := make([]float64, p.N)
	temp := make([]float64, p.N)
	mass := make([]float64, p.N)

	mPart := p.MGas / float64(p.N)
	for i := 0; i < p.N; i++ {
		for dim := 0; dim < 3; dim++ {
			x[i][dim] = posDist.Rand()
			v[i][dim] = vDist.Rand()
		}
		r2 := x[i][0]*x[i][0] + x[i][1]*x[i][1] + x[i][2]*x[i][2]
		u := r2 / (p.RCore * p.RCore)
		rho[i] = p.Rho0 * math.Pow(1+u, -1.5)
		temp[i] = math.Pow(10, logTDist.Rand())
		mass[i] = mPart
	}

	// The element-mass table: helium in column 0, the particle's metal mass
	// split across columns 1..10 with random but fixed weights.
	weights := make([]float64, prep.NumSpecies-1)
	wSum := 0.0
	for j := range weights {
		weights[j] = wDist.Rand()
		wSum += weights[j]
	}
	table := mat.NewDense(p.N, prep.NumSpecies, nil)
	for i := 0; i < p.N; i++ {
		table.Set(i, 0, primordialHe*mass[i])
		for j := range weights {
			table.Set(i, j+1, p.Zmet*mass[i]*weights[j]/wSum)
		}
	}

	set := fields.NewFieldSet(p.N)
	insert := func(f fields.Field) error { return set.Insert("gas", f) }
	steps := []error{
		insert(fields.NewVec64("position", units.Mpc, x)),
		insert(fields.NewVec64("velocity", units.CmPerSec, v)),
		insert(fields.NewFloat64("density", units.MassDensity, rho)),
		insert(fields.NewFloat64("temperature", units.Kelvin, temp)),
		insert(fields.NewFloat64("mass", units.Gram, mass)),
		insert(fields.NewMatrix("element_mass", units.Gram, table)),
	}
	for _, err := range steps {
		if err != nil {
			return nil, err
		}
	}

	ds, err := New(name, set, p.Redshift, Options{
		LongIDs:        true,
		DefaultSpecies: IonizedSpecies,
	})
	if err != nil {
		return nil, err
	}

	if err := prep.RegisterGasFields(ds.Registry(), "gas",
		fields.ParticleSampling); err != nil {
		return nil, err
	}
	if err := ds.Filters().Add(prep.DefaultCuts().HotGasFilter("gas")); err != nil {
		return nil, err
	}
	return ds, nil
}
