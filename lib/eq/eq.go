/*package eq is a simple package for telling whether two arrays are equal to
one another. It exists so that tests across xphoton can compare field data
without each writing its own loops.*/
package eq

// Generic returns true if two arrays are the same type and have the same
// values and false otherwise. Only []bool, []int, []uint32, []uint64,
// []float32, []float64, and [][3]float64 are supported.
func Generic(x, y interface{}) bool {
	switch xx := x.(type) {
	case []bool:
		yy, ok := y.([]bool)
		if !ok {
			return false
		}
		return Bools(xx, yy)
	case []int:
		yy, ok := y.([]int)
		if !ok {
			return false
		}
		return Ints(xx, yy)
	case []uint32:
		yy, ok := y.([]uint32)
		if !ok {
			return false
		}
		return Uint32s(xx, yy)
	case []uint64:
		yy, ok := y.([]uint64)
		if !ok {
			return false
		}
		return Uint64s(xx, yy)
	case []float32:
		yy, ok := y.([]float32)
		if !ok {
			return false
		}
		return Float32s(xx, yy)
	case []float64:
		yy, ok := y.([]float64)
		if !ok {
			return false
		}
		return Float64s(xx, yy)
	case [][3]float64:
		yy, ok := y.([][3]float64)
		if !ok {
			return false
		}
		return Vec64s(xx, yy)
	default:
		return false
	}
}

// Bools returns true if two []bool arrays are the same and false otherwise.
func Bools(x, y []bool) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// Ints returns true if two []int arrays are the same and false otherwise.
func Ints(x, y []int) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// Uint32s returns true if two []uint32 arrays are the same and false
// otherwise.
func Uint32s(x, y []uint32) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// Uint64s returns true if two []uint64 arrays are the same and false
// otherwise.
func Uint64s(x, y []uint64) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// Float32s returns true if two []float32 arrays are the same and false
// otherwise.
func Float32s(x, y []float32) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// Float64s returns true if two []float64 arrays are the same and false
// otherwise.
func Float64s(x, y []float64) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// Vec64s returns true if two [][3]float64 arrays are the same and false
// otherwise.
func Vec64s(x, y [][3]float64) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// Float64sEps returns true if the two []float64 arrays are within eps of one
// another and false otherwise.
func Float64sEps(x, y []float64, eps float64) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i]+eps < y[i] || x[i]-eps > y[i] {
			return false
		}
	}
	return true
}
