package pipeline

import (
	"math"
	"testing"

	"github.com/xphoton/xphoton/lib/units"
)

func TestLuminosityDistance(t *testing.T) {
	tests := []struct {
		z     float64
		valid bool
	}{
		{0.05, true},
		{1.0, true},
		{0, false},
		{-0.1, false},
	}

	for i := range tests {
		dL, err := LuminosityDistance(tests[i].z)
		if tests[i].valid && err != nil {
			t.Errorf("%d) Expected z = %g to give a distance, but got error "+
				"'%s'.", i, tests[i].z, err.Error())
		} else if !tests[i].valid && err == nil {
			t.Errorf("%d) Expected z = %g to fail, but got no error.",
				i, tests[i].z)
		}
		if err != nil {
			continue
		}

		z := tests[i].z
		exp := units.CLight * z / (H0 * units.KmS / units.MpcCm) * (1 + z)
		if math.Abs(dL-exp)/exp > 1e-10 {
			t.Errorf("%d) Expected d_L = %g cm at z = %g, got %g.",
				i, exp, z, dL)
		}
	}
}

func TestSpectralNorm(t *testing.T) {
	tests := []struct {
		area, exposure, z float64
		valid             bool
	}{
		{1e4, 1e5, 0.05, true},
		{0, 1e5, 0.05, false},
		{1e4, 0, 0.05, false},
		{1e4, 1e5, 0, false},
	}

	for i := range tests {
		norm, err := SpectralNorm(tests[i].area, tests[i].exposure, tests[i].z)
		if tests[i].valid && err != nil {
			t.Errorf("%d) Expected a norm, but got error '%s'.",
				i, err.Error())
		} else if !tests[i].valid && err == nil {
			t.Errorf("%d) Expected an error, but got the norm %g.", i, norm)
		}
		if err != nil {
			continue
		}

		dL, err := LuminosityDistance(tests[i].z)
		if err != nil {
			t.Fatalf("%d) LuminosityDistance failed: %s", i, err.Error())
		}
		exp := tests[i].area * tests[i].exposure / (4 * math.Pi * dL * dL)
		if math.Abs(norm-exp)/exp > 1e-10 {
			t.Errorf("%d) Expected the norm %g, got %g.", i, exp, norm)
		}
	}
}

func TestModelOutputCheck(t *testing.T) {
	tests := []struct {
		counts   []int
		energies []float64
		n        int
		valid    bool
	}{
		{[]int{2, 0, 1}, []float64{1, 2, 3}, 3, true},
		{[]int{}, []float64{}, 0, true},
		{[]int{2, 0, 1}, []float64{1, 2, 3}, 2, false},
		{[]int{2, 0, 1}, []float64{1, 2}, 3, false},
		{[]int{2, -1, 1}, []float64{1, 2}, 3, false},
	}

	for i := range tests {
		out := &ModelOutput{tests[i].counts, tests[i].energies}
		err := out.Check(tests[i].n)
		if tests[i].valid && err != nil {
			t.Errorf("%d) Expected the output to check out, but got error "+
				"'%s'.", i, err.Error())
		} else if !tests[i].valid && err == nil {
			t.Errorf("%d) Expected the output to fail its check, but got "+
				"no error.", i)
		}
	}
}
