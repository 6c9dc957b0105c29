/*package fields contains the typed field arrays and the name-indexed field
set that represent one particle or cell population of a simulation snapshot.
Every array in a set is aligned: element i of every field describes the same
particle/cell.*/
package fields

/* This file contains the typed Field wrappers and the FieldSet container.
Lazy derived-field evaluation lives in derive.go. */

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Field is a generic interface around a named, unit-tagged array with one
// entry per particle/cell.
type Field interface {
	// Name returns the name of the field (e.g. 'density', 'temperature').
	Name() string
	// Unit returns the unit string attached to the field.
	Unit() string
	// Len returns the length of the underlying array.
	Len() int
	// Data returns the underlying array as an interface{}.
	Data() interface{}
	// Select returns a new Field containing the elements at the given
	// indices, in order. The indices must be in range: Select is used on
	// masks that were computed against the same set and does not re-check
	// them.
	Select(idx []int) Field
}

// Type assertions
var (
	_ Field = &Float32{}
	_ Field = &Float64{}
	_ Field = &Uint32{}
	_ Field = &Uint64{}
	_ Field = &Vec64{}
	_ Field = &Bool{}
	_ Field = &Matrix{}
)

// Float64 implements the Field interface for []float64 data. See the Field
// interface for documentation of this struct's methods.
type Float64 struct {
	name, unit string
	data       []float64
}

// NewFloat64 creates a field with a given name and unit associated with a
// given array.
func NewFloat64(name, unit string, x []float64) *Float64 {
	return &Float64{name, unit, x}
}

func (x *Float64) Name() string      { return x.name }
func (x *Float64) Unit() string      { return x.unit }
func (x *Float64) Len() int          { return len(x.data) }
func (x *Float64) Data() interface{} { return x.data }

// Values returns the underlying array with its concrete type.
func (x *Float64) Values() []float64 { return x.data }

func (x *Float64) Select(idx []int) Field {
	out := make([]float64, len(idx))
	for i := range idx {
		out[i] = x.data[idx[i]]
	}
	return NewFloat64(x.name, x.unit, out)
}

// Float32 implements the Field interface for []float32 data. See the Field
// interface for documentation of this struct's methods.
type Float32 struct {
	name, unit string
	data       []float32
}

// NewFloat32 creates a field with a given name and unit associated with a
// given array.
func NewFloat32(name, unit string, x []float32) *Float32 {
	return &Float32{name, unit, x}
}

func (x *Float32) Name() string      { return x.name }
func (x *Float32) Unit() string      { return x.unit }
func (x *Float32) Len() int          { return len(x.data) }
func (x *Float32) Data() interface{} { return x.data }

func (x *Float32) Values() []float32 { return x.data }

func (x *Float32) Select(idx []int) Field {
	out := make([]float32, len(idx))
	for i := range idx {
		out[i] = x.data[idx[i]]
	}
	return NewFloat32(x.name, x.unit, out)
}

// Uint32 implements the Field interface for []uint32 data. See the Field
// interface for documentation of this struct's methods.
type Uint32 struct {
	name, unit string
	data       []uint32
}

// NewUint32 creates a field with a given name and unit associated with a
// given array.
func NewUint32(name, unit string, x []uint32) *Uint32 {
	return &Uint32{name, unit, x}
}

func (x *Uint32) Name() string      { return x.name }
func (x *Uint32) Unit() string      { return x.unit }
func (x *Uint32) Len() int          { return len(x.data) }
func (x *Uint32) Data() interface{} { return x.data }

func (x *Uint32) Values() []uint32 { return x.data }

func (x *Uint32) Select(idx []int) Field {
	out := make([]uint32, len(idx))
	for i := range idx {
		out[i] = x.data[idx[i]]
	}
	return NewUint32(x.name, x.unit, out)
}

// Uint64 implements the Field interface for []uint64 data. Snapshots with
// more than 2^32 particles need 64-bit IDs, so dataset loading options decide
// between Uint32 and Uint64 ID fields. See the Field interface for
// documentation of this struct's methods.
type Uint64 struct {
	name, unit string
	data       []uint64
}

// NewUint64 creates a field with a given name and unit associated with a
// given array.
func NewUint64(name, unit string, x []uint64) *Uint64 {
	return &Uint64{name, unit, x}
}

func (x *Uint64) Name() string      { return x.name }
func (x *Uint64) Unit() string      { return x.unit }
func (x *Uint64) Len() int          { return len(x.data) }
func (x *Uint64) Data() interface{} { return x.data }

func (x *Uint64) Values() []uint64 { return x.data }

func (x *Uint64) Select(idx []int) Field {
	out := make([]uint64, len(idx))
	for i := range idx {
		out[i] = x.data[idx[i]]
	}
	return NewUint64(x.name, x.unit, out)
}

// Vec64 implements the Field interface for [][3]float64 data, used for
// positions and velocities. See the Field interface for documentation of this
// struct's methods.
type Vec64 struct {
	name, unit string
	data       [][3]float64
}

// NewVec64 creates a field with a given name and unit associated with a
// given array.
func NewVec64(name, unit string, x [][3]float64) *Vec64 {
	return &Vec64{name, unit, x}
}

func (x *Vec64) Name() string      { return x.name }
func (x *Vec64) Unit() string      { return x.unit }
func (x *Vec64) Len() int          { return len(x.data) }
func (x *Vec64) Data() interface{} { return x.data }

func (x *Vec64) Values() [][3]float64 { return x.data }

func (x *Vec64) Select(idx []int) Field {
	out := make([][3]float64, len(idx))
	for i := range idx {
		out[i] = x.data[idx[i]]
	}
	return NewVec64(x.name, x.unit, out)
}

// Bool implements the Field interface for []bool data. Particle-filter masks
// are stored as Bool fields so that a named sub-population can be referenced
// anywhere a field can.
type Bool struct {
	name string
	data []bool
}

// NewBool creates a boolean field with a given name associated with a given
// array.
func NewBool(name string, x []bool) *Bool {
	return &Bool{name, x}
}

func (x *Bool) Name() string      { return x.name }
func (x *Bool) Unit() string      { return "" }
func (x *Bool) Len() int          { return len(x.data) }
func (x *Bool) Data() interface{} { return x.data }

func (x *Bool) Values() []bool { return x.data }

func (x *Bool) Select(idx []int) Field {
	out := make([]bool, len(idx))
	for i := range idx {
		out[i] = x.data[idx[i]]
	}
	return NewBool(x.name, out)
}

// Matrix implements the Field interface for per-particle matrix data, one row
// per particle. The main use is the element-mass table consumed by the bulk
// metallicity field, where each row holds the masses of the tracked species
// for one particle.
type Matrix struct {
	name, unit string
	data       *mat.Dense
}

// NewMatrix creates a matrix field with a given name and unit associated with
// a given dense matrix. Rows correspond to particles.
func NewMatrix(name, unit string, m *mat.Dense) *Matrix {
	return &Matrix{name, unit, m}
}

func (x *Matrix) Name() string      { return x.name }
func (x *Matrix) Unit() string      { return x.unit }
func (x *Matrix) Data() interface{} { return x.data }

func (x *Matrix) Len() int {
	r, _ := x.data.Dims()
	return r
}

// Cols returns the number of columns in the matrix.
func (x *Matrix) Cols() int {
	_, c := x.data.Dims()
	return c
}

// Values returns the underlying matrix.
func (x *Matrix) Values() *mat.Dense { return x.data }

func (x *Matrix) Select(idx []int) Field {
	_, c := x.data.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i := range idx {
		out.SetRow(i, x.data.RawRowView(idx[i]))
	}
	return NewMatrix(x.name, x.unit, out)
}

// Key identifies a field within a field set: a category (e.g. 'gas', or the
// name of a particle filter) and a field name within that category.
type Key struct {
	Category, Name string
}

func (k Key) String() string { return fmt.Sprintf("(%s, %s)", k.Category, k.Name) }

// FieldSet maps field keys to the Fields of a single population. All fields
// in a set have the same length, one entry per particle/cell.
type FieldSet struct {
	n      int
	fields map[Key]Field
}

// NewFieldSet creates an empty FieldSet for a population with n
// particles/cells.
func NewFieldSet(n int) *FieldSet {
	return &FieldSet{n, map[Key]Field{}}
}

// Count returns the number of particles/cells in the set.
func (s *FieldSet) Count() int { return s.n }

// Insert adds a field under the given category. An error is returned if the
// field's length doesn't match the set's count or if the key is already
// taken.
func (s *FieldSet) Insert(category string, f Field) error {
	key := Key{category, f.Name()}
	if f.Len() != s.n {
		return fmt.Errorf("The field %s has %d elements, but the field set "+
			"holds %d particles/cells. All fields in a set must be aligned.",
			key, f.Len(), s.n)
	}
	if _, ok := s.fields[key]; ok {
		return fmt.Errorf("The field %s has already been inserted into this "+
			"field set.", key)
	}
	s.fields[key] = f
	return nil
}

// Get returns the stored field with the given key. It does not consult the
// derived-field registry: use an Evaluator for that.
func (s *FieldSet) Get(category, name string) (Field, error) {
	f, ok := s.fields[Key{category, name}]
	if !ok {
		return nil, fmt.Errorf("The field %s is not stored in this field "+
			"set. It contains the fields %s.",
			Key{category, name}, s.Keys())
	}
	return f, nil
}

// Has returns true if the set stores a field with the given key.
func (s *FieldSet) Has(category, name string) bool {
	_, ok := s.fields[Key{category, name}]
	return ok
}

// Keys returns the keys of all stored fields. The order is unspecified.
func (s *FieldSet) Keys() []Key {
	keys := make([]Key, 0, len(s.fields))
	for key := range s.fields {
		keys = append(keys, key)
	}
	return keys
}

// Select returns a new FieldSet containing the elements at the given indices
// of every stored field.
func (s *FieldSet) Select(idx []int) *FieldSet {
	out := NewFieldSet(len(idx))
	for key, f := range s.fields {
		out.fields[key] = f.Select(idx)
	}
	return out
}
