package pipeline

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testEvents() *EventList {
	return &EventList{
		Name:     "post",
		RunID:    "run-3",
		Redshift: 0.05,
		Area:     1e4,
		Exposure: 100,
		Sky:      [2]float64{30, 45},
		RA:       []float64{30.4, 30.4, 29.6, 30.0, 30.0},
		Dec:      []float64{45.0, 45.0, 45.0, 44.6, 45.4},
		Energy:   []float64{0.5, 1.5, 2.5, 3.5, 9.0},
	}
}

func TestSpectrum(t *testing.T) {
	e := testEvents()

	energies, rates, err := e.Spectrum(1, 4, 3)
	if err != nil {
		t.Fatalf("Spectrum failed: %s", err.Error())
	}

	expEnergies := []float64{1.5, 2.5, 3.5}
	expRates := []float64{0.01, 0.01, 0.01}
	for i := range expEnergies {
		if math.Abs(energies[i]-expEnergies[i]) > 1e-10 {
			t.Errorf("%d) Expected the channel midpoint %g keV, got %g.",
				i, expEnergies[i], energies[i])
		}
		if math.Abs(rates[i]-expRates[i]) > 1e-10 {
			t.Errorf("%d) Expected the rate %g counts/s, got %g.",
				i, expRates[i], rates[i])
		}
	}
}

func TestSpectrumEdges(t *testing.T) {
	e := testEvents()
	e.Energy = []float64{1.0, 2.0, 4.0}

	// The lower band edge is inclusive, the upper exclusive, and an event on
	// an interior edge belongs to the bin to its right.
	_, rates, err := e.Spectrum(1, 4, 3)
	if err != nil {
		t.Fatalf("Spectrum failed: %s", err.Error())
	}
	exp := []float64{0.01, 0.01, 0}
	for i := range exp {
		if math.Abs(rates[i]-exp[i]) > 1e-10 {
			t.Errorf("%d) Expected the rate %g counts/s, got %g.",
				i, exp[i], rates[i])
		}
	}
}

func TestSpectrumErrors(t *testing.T) {
	tests := []struct {
		emin, emax float64
		nbins      int
		exposure   float64
	}{
		{0, 4, 3, 100},
		{4, 1, 3, 100},
		{1, 4, 0, 100},
		{1, 4, 3, 0},
	}

	for i := range tests {
		e := testEvents()
		e.Exposure = tests[i].exposure
		_, _, err := e.Spectrum(tests[i].emin, tests[i].emax, tests[i].nbins)
		if err == nil {
			t.Errorf("%d) Expected the spectrum request to fail, but got no "+
				"error.", i)
		}
	}
}

func TestWriteSpectrum(t *testing.T) {
	e := testEvents()
	fname := filepath.Join(t.TempDir(), "spec.dat")
	if err := e.WriteSpectrum(fname, 1, 4, 3); err != nil {
		t.Fatalf("WriteSpectrum failed: %s", err.Error())
	}

	b, err := os.ReadFile(fname)
	if err != nil {
		t.Fatalf("ReadFile failed: %s", err.Error())
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected a header and 3 channels, got %d lines.",
			len(lines))
	}
	if !strings.HasPrefix(lines[0], "#") {
		t.Errorf("Expected a comment header, got '%s'.", lines[0])
	}
}

func TestImage(t *testing.T) {
	e := testEvents()

	counts, err := e.Image(1, 10, 2, 4)
	if err != nil {
		t.Fatalf("Image failed: %s", err.Error())
	}
	if len(counts) != 16 {
		t.Fatalf("Expected 16 pixels, got %d.", len(counts))
	}

	// The 0.5 keV event falls below the band. With the field centered on
	// (30, 45) and 0.5 deg pixels, RA 30.4 lands in column 1 and RA 29.6
	// and 30.0 in column 2 (the RA axis runs right to left); Dec 45.0 and
	// 45.4 land in row 2 and Dec 44.6 in row 1.
	total := 0.0
	for i := range counts {
		total += counts[i]
	}
	if total != 4 {
		t.Errorf("Expected 4 counts in the image, got %g.", total)
	}
	exp := map[int]float64{
		2*4 + 1: 1,
		2*4 + 2: 2,
		1*4 + 2: 1,
	}
	for pix, c := range exp {
		if counts[pix] != c {
			t.Errorf("Expected %g counts in pixel %d, got %g.",
				c, pix, counts[pix])
		}
	}
}

func TestImageOutOfField(t *testing.T) {
	e := testEvents()
	// Shrink the field until every event falls outside it.
	counts, err := e.Image(1, 10, 0.2, 2)
	if err != nil {
		t.Fatalf("Image failed: %s", err.Error())
	}
	total := 0.0
	for i := range counts {
		total += counts[i]
	}
	if total != 0 {
		t.Errorf("Expected an empty image, got %g counts.", total)
	}

	// Events less than one pixel outside the field must not leak into the
	// edge row/column. With the field spanning RA (29, 31) and Dec (44, 46)
	// in 0.5 deg pixels, each of these sits within half a pixel of an edge.
	e = &EventList{
		Name:     "halo",
		Exposure: 100,
		Sky:      [2]float64{30, 45},
		RA:       []float64{31.2, 28.9, 30.0, 30.0},
		Dec:      []float64{45.0, 45.0, 43.8, 46.1},
		Energy:   []float64{2, 2, 2, 2},
	}
	counts, err = e.Image(1, 10, 2, 4)
	if err != nil {
		t.Fatalf("Image failed: %s", err.Error())
	}
	for i := range counts {
		if counts[i] != 0 {
			t.Errorf("Expected no counts from events outside the field, "+
				"got %g in pixel %d.", counts[i], i)
		}
	}
}

func TestImageErrors(t *testing.T) {
	e := testEvents()
	tests := []struct {
		emin, emax, fov float64
		npix            int
	}{
		{0, 10, 2, 4},
		{10, 1, 2, 4},
		{1, 10, 0, 4},
		{1, 10, 2, 0},
	}

	for i := range tests {
		_, err := e.Image(tests[i].emin, tests[i].emax, tests[i].fov,
			tests[i].npix)
		if err == nil {
			t.Errorf("%d) Expected the image request to fail, but got no "+
				"error.", i)
		}
	}
}

// fakeSimput records the hand-off without encoding anything.
type fakeSimput struct {
	prefix, name string
	events       *EventList
}

func (w *fakeSimput) WritePhotonList(prefix, name string, e *EventList) error {
	w.prefix, w.name, w.events = prefix, name, e
	return nil
}

func TestWriteSimput(t *testing.T) {
	e := testEvents()
	w := &fakeSimput{}
	if err := e.WriteSimput(w, "obs_1"); err != nil {
		t.Fatalf("WriteSimput failed: %s", err.Error())
	}
	if w.prefix != "obs_1" || w.name != e.Name || w.events != e {
		t.Errorf("Expected the writer to receive ('obs_1', '%s'), got "+
			"('%s', '%s').", e.Name, w.prefix, w.name)
	}

	if err := e.WriteSimput(nil, "obs_1"); err == nil {
		t.Errorf("Expected a nil writer to fail, but got no error.")
	}
}
