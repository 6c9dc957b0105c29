package fields

import (
	"testing"

	"github.com/xphoton/xphoton/lib/eq"
)

func testEvaluator(t *testing.T) (*Evaluator, *int) {
	t.Helper()

	set := NewFieldSet(3)
	mustInsert(t, set, "gas", NewFloat64("density", "g/cm**3",
		[]float64{1, 2, 3}))
	mustInsert(t, set, "gas", NewFloat64("mass", "g", []float64{2, 2, 2}))

	calls := 0
	reg := NewRegistry()
	err := reg.AddField("gas", "volume", func(ev *Evaluator) (Field, error) {
		calls++
		rho, err := ev.Float64s("gas", "density")
		if err != nil {
			return nil, err
		}
		m, err := ev.Float64s("gas", "mass")
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(rho))
		for i := range out {
			out[i] = m[i] / rho[i]
		}
		return NewFloat64("volume", "cm**3", out), nil
	}, "cm**3", CellSampling)
	if err != nil {
		t.Fatalf("AddField failed: %s", err.Error())
	}

	return NewEvaluator(set, reg), &calls
}

func TestLazyEvaluation(t *testing.T) {
	ev, calls := testEvaluator(t)

	if *calls != 0 {
		t.Errorf("Derived field was evaluated before being requested.")
	}

	f, err := ev.Get("gas", "volume")
	if err != nil {
		t.Fatalf("Get failed: %s", err.Error())
	}
	if !eq.Generic(f.Data(), []float64{2, 1, 2.0 / 3.0}) {
		t.Errorf("Expected volumes [2 1 2/3], got %v.", f.Data())
	}
	if *calls != 1 {
		t.Errorf("Expected 1 evaluation after first access, got %d.", *calls)
	}
}

func TestMemoizationAndIdempotence(t *testing.T) {
	ev, calls := testEvaluator(t)

	f1, err := ev.Get("gas", "volume")
	if err != nil {
		t.Fatalf("First Get failed: %s", err.Error())
	}
	f2, err := ev.Get("gas", "volume")
	if err != nil {
		t.Fatalf("Second Get failed: %s", err.Error())
	}

	if *calls != 1 {
		t.Errorf("Expected the derive function to run once, ran %d times.",
			*calls)
	}
	if !eq.Generic(f1.Data(), f2.Data()) {
		t.Errorf("Re-evaluation changed the output: %v vs %v.",
			f1.Data(), f2.Data())
	}

	ev.Reset()
	_, err = ev.Get("gas", "volume")
	if err != nil {
		t.Fatalf("Get after Reset failed: %s", err.Error())
	}
	if *calls != 2 {
		t.Errorf("Expected a recomputation after Reset, got %d total calls.",
			*calls)
	}
}

func TestMissingFieldError(t *testing.T) {
	ev, _ := testEvaluator(t)
	_, err := ev.Get("gas", "entropy")
	if err == nil {
		t.Errorf("Expected an error for an unknown field, got none.")
	}
}

func TestCycleDetection(t *testing.T) {
	set := NewFieldSet(1)
	mustInsert(t, set, "gas", NewFloat64("density", "g/cm**3", []float64{1}))

	reg := NewRegistry()
	get := func(name string) DeriveFunc {
		return func(ev *Evaluator) (Field, error) {
			return ev.Get("gas", name)
		}
	}
	if err := reg.AddField("gas", "a", get("b"), "", CellSampling); err != nil {
		t.Fatalf("AddField failed: %s", err.Error())
	}
	if err := reg.AddField("gas", "b", get("a"), "", CellSampling); err != nil {
		t.Fatalf("AddField failed: %s", err.Error())
	}

	ev := NewEvaluator(set, reg)
	if _, err := ev.Get("gas", "a"); err == nil {
		t.Errorf("Expected a cycle error for mutually dependent fields, " +
			"got none.")
	}
	// The failed derivation must not poison later, well-formed requests.
	if _, err := ev.Get("gas", "density"); err != nil {
		t.Errorf("Stored-field access failed after a cycle error: %s",
			err.Error())
	}
}

func TestShapeInvariant(t *testing.T) {
	set := NewFieldSet(3)
	mustInsert(t, set, "gas", NewFloat64("density", "g/cm**3",
		[]float64{1, 2, 3}))

	reg := NewRegistry()
	err := reg.AddField("gas", "bad", func(ev *Evaluator) (Field, error) {
		return NewFloat64("bad", "", []float64{1}), nil
	}, "", CellSampling)
	if err != nil {
		t.Fatalf("AddField failed: %s", err.Error())
	}

	ev := NewEvaluator(set, reg)
	if _, err := ev.Get("gas", "bad"); err == nil {
		t.Errorf("Expected an error for a derived field with the wrong " +
			"length, got none.")
	}
}

func TestDuplicateRegistration(t *testing.T) {
	reg := NewRegistry()
	fn := func(ev *Evaluator) (Field, error) { return nil, nil }
	if err := reg.AddField("gas", "x", fn, "", CellSampling); err != nil {
		t.Fatalf("First AddField failed: %s", err.Error())
	}
	if err := reg.AddField("gas", "x", fn, "", CellSampling); err == nil {
		t.Errorf("Expected duplicate registration to fail, got no error.")
	}
}
