package pipeline

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/xphoton/xphoton/lib/units"
)

// fakeAbsorber drops every photon below its threshold energy.
type fakeAbsorber struct{ threshold float64 }

func (a *fakeAbsorber) Name() string { return "threshold" }

func (a *fakeAbsorber) Transmit(energies []float64, nH float64) []bool {
	keep := make([]bool, len(energies))
	for i := range energies {
		keep[i] = energies[i] >= a.threshold
	}
	return keep
}

func TestAxis(t *testing.T) {
	tests := []struct {
		name  string
		axis  [3]float64
		valid bool
	}{
		{"x", [3]float64{1, 0, 0}, true},
		{"y", [3]float64{0, 1, 0}, true},
		{"z", [3]float64{0, 0, 1}, true},
		{"w", [3]float64{}, false},
		{"", [3]float64{}, false},
	}

	for i := range tests {
		axis, err := Axis(tests[i].name)
		if tests[i].valid && err != nil {
			t.Errorf("%d) Expected the axis '%s' to resolve, but got error "+
				"'%s'.", i, tests[i].name, err.Error())
		} else if !tests[i].valid && err == nil {
			t.Errorf("%d) Expected the axis '%s' to fail, but got %v.",
				i, tests[i].name, axis)
		}
		if err == nil && axis != tests[i].axis {
			t.Errorf("%d) Expected %v, got %v.", i, tests[i].axis, axis)
		}
	}
}

func TestSkyBasis(t *testing.T) {
	tests := []struct {
		axis, north [3]float64
		valid       bool
	}{
		{[3]float64{0, 0, 1}, [3]float64{}, true},
		{[3]float64{1, 0, 0}, [3]float64{}, true},
		{[3]float64{1, 1, 1}, [3]float64{}, true},
		{[3]float64{1, 0, 0}, [3]float64{0, 0, 1}, true},
		{[3]float64{}, [3]float64{}, false},
		{[3]float64{1, 0, 0}, [3]float64{2, 0, 0}, false},
	}

	for i := range tests {
		n, east, up, err := skyBasis(tests[i].axis, tests[i].north)
		if tests[i].valid && err != nil {
			t.Errorf("%d) Expected a basis, but got error '%s'.",
				i, err.Error())
			continue
		} else if !tests[i].valid {
			if err == nil {
				t.Errorf("%d) Expected an error, but got a basis.", i)
			}
			continue
		}

		vecs := [][3]float64{n, east, up}
		for j := range vecs {
			if norm := math.Sqrt(dot(vecs[j], vecs[j])); math.Abs(norm-1) > 1e-10 {
				t.Errorf("%d) Expected basis vector %d to be unit length, "+
					"got |v| = %g.", i, j, norm)
			}
		}
		if math.Abs(dot(n, east)) > 1e-10 || math.Abs(dot(n, up)) > 1e-10 ||
			math.Abs(dot(east, up)) > 1e-10 {
			t.Errorf("%d) Expected an orthogonal basis, got %v, %v, %v.",
				i, n, east, up)
		}
	}
}

func TestProjectPhotons(t *testing.T) {
	dir := t.TempDir()
	// Two cells straddling the centroid along x, viewed down z, so their
	// events split east/west of the sky center. The second cell moves toward
	// the observer.
	s := &Sample{
		Name:       "proj",
		RunID:      "run-1",
		Redshift:   0.05,
		Area:       1e4,
		Exposure:   1e5,
		Position:   [][3]float64{{-0.1, 0, 0}, {0.1, 0, 0}},
		Velocity:   [][3]float64{{0, 0, 0}, {0, 0, 3e8}},
		NumPhotons: []uint32{1, 1},
		Energies:   []float64{2.0, 2.0},
	}
	req := &ProjectRequest{
		Name: filepath.Join(dir, "proj"),
		Axis: [3]float64{0, 0, 1},
		Sky:  [2]float64{30, 45},
	}

	events, err := ProjectPhotons(s, req, nil)
	if err != nil {
		t.Fatalf("ProjectPhotons failed: %s", err.Error())
	}
	if events != 2 {
		t.Fatalf("Expected 2 events, got %d.", events)
	}

	e, err := LoadEvents(req.Name + EventExt)
	if err != nil {
		t.Fatalf("LoadEvents failed: %s", err.Error())
	}
	if e.RunID != s.RunID {
		t.Errorf("Expected the events to carry the run ID '%s', got '%s'.",
			s.RunID, e.RunID)
	}

	// Viewed down z with up = y, east = x, the cells offset in RA only.
	dL, err := LuminosityDistance(s.Redshift)
	if err != nil {
		t.Fatalf("LuminosityDistance failed: %s", err.Error())
	}
	dA := dL / ((1 + s.Redshift) * (1 + s.Redshift))
	offset := 0.1 * units.MpcCm / dA * 180 / math.Pi
	expRA := []float64{30 + offset, 30 - offset}
	for i := range expRA {
		if math.Abs(e.RA[i]-expRA[i]) > 1e-10 {
			t.Errorf("%d) Expected RA = %g, got %g.", i, expRA[i], e.RA[i])
		}
		if math.Abs(e.Dec[i]-45) > 1e-10 {
			t.Errorf("%d) Expected Dec = 45, got %g.", i, e.Dec[i])
		}
	}

	// The first cell is at rest: pure cosmological redshift. The second
	// moves at 0.01c toward the observer.
	exp0 := 2.0 / 1.05
	exp1 := 2.0 * (1 + 0.01) / 1.05
	if math.Abs(e.Energy[0]-exp0) > 1e-12 {
		t.Errorf("Expected the rest cell's photon at %g keV, got %g.",
			exp0, e.Energy[0])
	}
	if math.Abs(e.Energy[1]-exp1) > 1e-12 {
		t.Errorf("Expected the moving cell's photon at %g keV, got %g.",
			exp1, e.Energy[1])
	}
}

func TestProjectPhotonsAbsorption(t *testing.T) {
	s := &Sample{
		Name:       "abs",
		RunID:      "run-2",
		Redshift:   0.05,
		Area:       1e4,
		Exposure:   1e5,
		Position:   [][3]float64{{0, 0, 0}},
		Velocity:   [][3]float64{{0, 0, 0}},
		NumPhotons: []uint32{4},
		Energies:   []float64{0.3, 0.7, 2.0, 5.0},
	}
	req := &ProjectRequest{
		Name:   filepath.Join(t.TempDir(), "abs"),
		Axis:   [3]float64{0, 0, 1},
		Sky:    [2]float64{30, 45},
		NH:     0.04,
		Absorb: &fakeAbsorber{threshold: 1.0},
	}

	events, err := ProjectPhotons(s, req, nil)
	if err != nil {
		t.Fatalf("ProjectPhotons failed: %s", err.Error())
	}
	// Observed energies are rest energies over 1.05, so 2.0 and 5.0 keV
	// photons survive the 1 keV threshold.
	if events != 2 {
		t.Errorf("Expected 2 surviving events, got %d.", events)
	}

	e, err := LoadEvents(req.Name + EventExt)
	if err != nil {
		t.Fatalf("LoadEvents failed: %s", err.Error())
	}
	for i := range e.Energy {
		if e.Energy[i] < 1.0 {
			t.Errorf("%d) Expected all surviving photons above 1 keV, got "+
				"%g.", i, e.Energy[i])
		}
	}
}

func TestProjectPhotonsErrors(t *testing.T) {
	s := testSample()
	dir := t.TempDir()
	tests := []struct {
		name string
		req  *ProjectRequest
	}{
		{"zero axis", &ProjectRequest{Name: filepath.Join(dir, "a"),
			Axis: [3]float64{}}},
		{"parallel north", &ProjectRequest{Name: filepath.Join(dir, "b"),
			Axis: [3]float64{0, 0, 1}, North: [3]float64{0, 0, -2}}},
	}

	for i := range tests {
		if _, err := ProjectPhotons(s, tests[i].req, nil); err == nil {
			t.Errorf("%d) Expected the '%s' projection to fail, but got no "+
				"error.", i, tests[i].name)
		}
	}

	bad := testSample()
	bad.Energies = bad.Energies[:2]
	req := &ProjectRequest{Name: filepath.Join(dir, "c"),
		Axis: [3]float64{0, 0, 1}}
	if _, err := ProjectPhotons(bad, req, nil); err == nil {
		t.Errorf("Expected an inconsistent sample to fail, but got no error.")
	}
}
