package fields

/* derive.go contains the derived-field registry and the lazy, memoizing
evaluator. A derived field is declared once as a pure function of other
fields and is computed the first time something asks for it; the result is
cached until the evaluator is reset along with its dataset. */

import (
	"fmt"
	"strings"
)

// Sampling says whether a derived field is defined per grid cell or per
// particle. The distinction matters to downstream consumers which smooth
// particle fields before depositing them; this layer only records it.
type Sampling int

const (
	CellSampling Sampling = iota
	ParticleSampling
)

func (s Sampling) String() string {
	switch s {
	case CellSampling:
		return "cell"
	case ParticleSampling:
		return "particle"
	}
	return fmt.Sprintf("Sampling(%d)", int(s))
}

// DeriveFunc computes a derived field from the other fields of a population.
// It must be pure: same inputs, same output, no mutation of anything it reads
// through ev. The returned field must have one element per particle/cell in
// the population.
type DeriveFunc func(ev *Evaluator) (Field, error)

type derivedEntry struct {
	fn       DeriveFunc
	unit     string
	sampling Sampling
}

// Registry maps field keys to derived-field declarations. A registry is
// built once when a dataset is configured and is read-only afterwards.
type Registry struct {
	derived map[Key]derivedEntry
}

// NewRegistry creates an empty derived-field registry.
func NewRegistry() *Registry {
	return &Registry{map[Key]derivedEntry{}}
}

// AddField registers a derived field under (category, name) with the given
// computing function, unit string, and sampling type. Registering the same
// key twice is an error.
func (r *Registry) AddField(
	category, name string, fn DeriveFunc, unit string, sampling Sampling,
) error {
	key := Key{category, name}
	if _, ok := r.derived[key]; ok {
		return fmt.Errorf("The derived field %s has already been registered.",
			key)
	}
	r.derived[key] = derivedEntry{fn, unit, sampling}
	return nil
}

// Has returns true if a derived field is registered under the given key.
func (r *Registry) Has(category, name string) bool {
	_, ok := r.derived[Key{category, name}]
	return ok
}

// Keys returns the keys of all registered derived fields. The order is
// unspecified.
func (r *Registry) Keys() []Key {
	keys := make([]Key, 0, len(r.derived))
	for key := range r.derived {
		keys = append(keys, key)
	}
	return keys
}

// Evaluator resolves field keys against a FieldSet and a Registry. Stored
// fields are returned directly; derived fields are computed on first access
// and memoized. An Evaluator is not safe for concurrent use.
type Evaluator struct {
	set  *FieldSet
	reg  *Registry
	memo map[Key]Field
	// stack tracks in-progress derivations so that dependency cycles are
	// reported instead of recursing forever.
	stack []Key
}

// NewEvaluator creates an Evaluator over the given field set and registry.
func NewEvaluator(set *FieldSet, reg *Registry) *Evaluator {
	return &Evaluator{set, reg, map[Key]Field{}, nil}
}

// Count returns the number of particles/cells in the underlying set.
func (ev *Evaluator) Count() int { return ev.set.Count() }

// Set returns the underlying stored field set.
func (ev *Evaluator) Set() *FieldSet { return ev.set }

// Registry returns the derived-field registry consulted by the evaluator.
func (ev *Evaluator) Registry() *Registry { return ev.reg }

// Get returns the field with the given key, computing and caching it if it
// is a derived field that hasn't been evaluated yet.
func (ev *Evaluator) Get(category, name string) (Field, error) {
	key := Key{category, name}

	if f, ok := ev.set.fields[key]; ok {
		return f, nil
	}
	if f, ok := ev.memo[key]; ok {
		return f, nil
	}

	entry, ok := ev.reg.derived[key]
	if !ok {
		return nil, fmt.Errorf("The field %s is neither stored in the "+
			"dataset nor registered as a derived field. The stored fields "+
			"are %s and the derived fields are %s.",
			key, ev.set.Keys(), ev.reg.Keys())
	}

	for i := range ev.stack {
		if ev.stack[i] == key {
			return nil, fmt.Errorf("The derived field %s depends on itself "+
				"through the chain %s.", key, chainString(ev.stack[i:], key))
		}
	}

	ev.stack = append(ev.stack, key)
	f, err := entry.fn(ev)
	ev.stack = ev.stack[:len(ev.stack)-1]
	if err != nil {
		return nil, fmt.Errorf("The derived field %s could not be "+
			"computed: %s", key, err.Error())
	}

	if f.Len() != ev.set.Count() {
		return nil, fmt.Errorf("The derived field %s produced %d elements, "+
			"but the population has %d particles/cells.",
			key, f.Len(), ev.set.Count())
	}

	ev.memo[key] = f
	return f, nil
}

// Float64s returns the []float64 data of the field with the given key. It is
// an error if the field has a different element type.
func (ev *Evaluator) Float64s(category, name string) ([]float64, error) {
	f, err := ev.Get(category, name)
	if err != nil {
		return nil, err
	}
	x, ok := f.Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("The field %s does not have []float64 type, "+
			"as expected.", Key{category, name})
	}
	return x, nil
}

// Vecs returns the [][3]float64 data of the field with the given key. It is
// an error if the field has a different element type.
func (ev *Evaluator) Vecs(category, name string) ([][3]float64, error) {
	f, err := ev.Get(category, name)
	if err != nil {
		return nil, err
	}
	x, ok := f.Data().([][3]float64)
	if !ok {
		return nil, fmt.Errorf("The field %s does not have [][3]float64 "+
			"type, as expected.", Key{category, name})
	}
	return x, nil
}

// Reset drops every memoized derived field. It should be called when the
// underlying dataset handle is reset; stored fields and registrations are
// kept.
func (ev *Evaluator) Reset() {
	ev.memo = map[Key]Field{}
}

// Select returns a new Evaluator over the sub-population at the given
// indices. The registry is shared; memoized results are not carried over,
// since a derived field of a sub-population is not a row-selection of the
// full population's field in general.
func (ev *Evaluator) Select(idx []int) *Evaluator {
	return NewEvaluator(ev.set.Select(idx), ev.reg)
}

func chainString(stack []Key, last Key) string {
	names := make([]string, 0, len(stack)+1)
	for i := range stack {
		names = append(names, stack[i].String())
	}
	names = append(names, last.String())
	return strings.Join(names, " -> ")
}
