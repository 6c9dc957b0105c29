package pipeline

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/xphoton/xphoton/lib/dataset"
	"github.com/xphoton/xphoton/lib/fields"
	"github.com/xphoton/xphoton/lib/filters"
	"github.com/xphoton/xphoton/lib/region"
	"github.com/xphoton/xphoton/lib/source"
	"github.com/xphoton/xphoton/lib/units"
)

// fakeModel emits a fixed number of photons per cell at a fixed energy.
type fakeModel struct {
	perCell  int
	energy   float64
	setupErr error

	gotRedshift, gotNorm float64
}

func (m *fakeModel) Setup(ds *dataset.Dataset, redshift, norm float64) error {
	m.gotRedshift, m.gotNorm = redshift, norm
	return m.setupErr
}

func (m *fakeModel) Sample(ev *fields.Evaluator) (*ModelOutput, error) {
	out := &ModelOutput{NumPhotons: make([]int, ev.Count())}
	for i := range out.NumPhotons {
		out.NumPhotons[i] = m.perCell
		for j := 0; j < m.perCell; j++ {
			out.Energies = append(out.Energies, m.energy)
		}
	}
	return out, nil
}

// testDataset builds a five-cell dataset: positions along x at 0, 1, 2, 3,
// and 4 Mpc, densities rising with position.
func testDataset(t *testing.T) *dataset.Dataset {
	n := 5
	set := fields.NewFieldSet(n)

	x := make([][3]float64, n)
	v := make([][3]float64, n)
	rho := make([]float64, n)
	rate := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = [3]float64{float64(i), 0, 0}
		v[i] = [3]float64{0, 0, float64(i) * 1e7}
		rho[i] = 1e-27 * float64(i+1)
		rate[i] = 1.0
	}

	inserts := []fields.Field{
		fields.NewVec64("position", units.Mpc, x),
		fields.NewVec64("velocity", units.CmPerSec, v),
		fields.NewFloat64("density", units.MassDensity, rho),
		fields.NewFloat64("plaw_norm", units.Dimensionless, rate),
	}
	for i := range inserts {
		if err := set.Insert("gas", inserts[i]); err != nil {
			t.Fatalf("Insert failed: %s", err.Error())
		}
	}

	ds, err := dataset.New("test_snap", set, 0.05, dataset.Options{})
	if err != nil {
		t.Fatalf("dataset.New failed: %s", err.Error())
	}
	return ds
}

func testParams(t *testing.T) source.Params {
	p, err := source.NewPowerLaw(1, 0.5, 7,
		fields.Key{Category: "gas", Name: "plaw_norm"}, 1.5)
	if err != nil {
		t.Fatalf("NewPowerLaw failed: %s", err.Error())
	}
	return p
}

func TestMakePhotons(t *testing.T) {
	ds := testDataset(t)
	model := &fakeModel{perCell: 3, energy: 2.0}
	req := &SampleRequest{
		Name:     filepath.Join(t.TempDir(), "run"),
		Region:   &region.All{},
		Redshift: 0.05,
		Area:     1e4,
		Exposure: 1e5,
		Params:   testParams(t),
	}

	photons, cells, err := MakePhotons(ds, req, model, nil)
	if err != nil {
		t.Fatalf("MakePhotons failed: %s", err.Error())
	}
	if cells != 5 || photons != 15 {
		t.Errorf("Expected 5 cells and 15 photons, got %d and %d.",
			cells, photons)
	}

	if model.gotRedshift != 0.05 {
		t.Errorf("Expected the model to see z = 0.05, got %g.",
			model.gotRedshift)
	}
	norm, err := SpectralNorm(req.Area, req.Exposure, req.Redshift)
	if err != nil {
		t.Fatalf("SpectralNorm failed: %s", err.Error())
	}
	if model.gotNorm != norm {
		t.Errorf("Expected the model to see the norm %g, got %g.",
			norm, model.gotNorm)
	}

	s, err := LoadSample(req.Name + SampleExt)
	if err != nil {
		t.Fatalf("LoadSample failed: %s", err.Error())
	}
	if s.Cells() != cells || s.TotalPhotons() != photons {
		t.Errorf("Expected the sample file to hold %d cells and %d photons, "+
			"got %d and %d.", cells, photons, s.Cells(), s.TotalPhotons())
	}
	if s.Redshift != 0.05 || s.Area != 1e4 || s.Exposure != 1e5 {
		t.Errorf("Expected the sample to carry (0.05, 1e4, 1e5), got "+
			"(%g, %g, %g).", s.Redshift, s.Area, s.Exposure)
	}
	if s.RunID == "" {
		t.Errorf("Expected the sample to carry a run ID.")
	}
}

func TestMakePhotonsRegion(t *testing.T) {
	ds := testDataset(t)
	// Only the cells at x = 0 and 1 Mpc fall in the box.
	box, err := region.NewBox([3]float64{-0.5, -0.5, -0.5},
		[3]float64{1.5, 0.5, 0.5}, units.Mpc)
	if err != nil {
		t.Fatalf("NewBox failed: %s", err.Error())
	}
	req := &SampleRequest{
		Name:     filepath.Join(t.TempDir(), "run"),
		Region:   box,
		Redshift: 0.05,
		Area:     1e4,
		Exposure: 1e5,
		Params:   testParams(t),
	}

	photons, cells, err := MakePhotons(ds, req, &fakeModel{perCell: 1, energy: 2}, nil)
	if err != nil {
		t.Fatalf("MakePhotons failed: %s", err.Error())
	}
	if cells != 2 || photons != 2 {
		t.Errorf("Expected 2 cells and 2 photons, got %d and %d.",
			cells, photons)
	}
}

func TestMakePhotonsFilter(t *testing.T) {
	ds := testDataset(t)
	// Densities are 1e-27 * (i+1), so the cut keeps the last two cells.
	err := ds.Filters().Add(&filters.Filter{
		Name:     "dense",
		Base:     "gas",
		Tree:     filters.GreaterThan("gas", "density", 3.5e-27),
		Requires: []fields.Key{{Category: "gas", Name: "density"}},
	})
	if err != nil {
		t.Fatalf("Add failed: %s", err.Error())
	}

	req := &SampleRequest{
		Name:       filepath.Join(t.TempDir(), "run"),
		Region:     &region.All{},
		FilterName: "dense",
		Redshift:   0.05,
		Area:       1e4,
		Exposure:   1e5,
		Params:     testParams(t),
	}
	photons, cells, err := MakePhotons(ds, req, &fakeModel{perCell: 2, energy: 2}, nil)
	if err != nil {
		t.Fatalf("MakePhotons failed: %s", err.Error())
	}
	if cells != 2 || photons != 4 {
		t.Errorf("Expected 2 cells and 4 photons, got %d and %d.",
			cells, photons)
	}
}

func TestMakePhotonsErrors(t *testing.T) {
	ds := testDataset(t)
	dir := t.TempDir()
	base := func() *SampleRequest {
		return &SampleRequest{
			Name:     filepath.Join(dir, "run"),
			Region:   &region.All{},
			Redshift: 0.05,
			Area:     1e4,
			Exposure: 1e5,
			Params:   testParams(t),
		}
	}

	tests := []struct {
		name  string
		req   *SampleRequest
		model SourceModel
	}{
		{"no region", func() *SampleRequest {
			r := base()
			r.Region = nil
			return r
		}(), &fakeModel{perCell: 1, energy: 2}},
		{"no params", func() *SampleRequest {
			r := base()
			r.Params = nil
			return r
		}(), &fakeModel{perCell: 1, energy: 2}},
		{"bad redshift", func() *SampleRequest {
			r := base()
			r.Redshift = 0
			return r
		}(), &fakeModel{perCell: 1, energy: 2}},
		{"unknown filter", func() *SampleRequest {
			r := base()
			r.FilterName = "no_such_filter"
			return r
		}(), &fakeModel{perCell: 1, energy: 2}},
		{"setup failure", base(),
			&fakeModel{perCell: 1, energy: 2,
				setupErr: fmt.Errorf("table missing")}},
	}

	for i := range tests {
		if _, _, err := MakePhotons(ds, tests[i].req, tests[i].model, nil); err == nil {
			t.Errorf("%d) Expected the '%s' request to fail, but got no "+
				"error.", i, tests[i].name)
		}
	}
}
