/*package region contains the spatial region selectors handed to the photon
generator: an axis-aligned box given by two corners, or a sphere given by a
center and radius. Coordinates are compared in whatever length unit the
dataset's 'position' field carries; regions do not convert units.*/
package region

import (
	"fmt"

	"github.com/xphoton/xphoton/lib/fields"
)

// Region selects a spatial subset of a particle/cell population.
type Region interface {
	// Contains returns true if the point x lies inside the region.
	Contains(x [3]float64) bool
	// String describes the region for logs and error messages.
	String() string
}

// Type assertions
var (
	_ Region = &Box{}
	_ Region = &Sphere{}
	_ Region = &All{}
)

// Box is an axis-aligned box between two corners, inclusive of the lower
// corner and exclusive of the upper one.
type Box struct {
	Lo, Hi [3]float64
	// Unit is the stated length unit of the corner coordinates.
	Unit string
}

// NewBox creates a Box and checks that the corners are ordered along every
// axis.
func NewBox(lo, hi [3]float64, unit string) (*Box, error) {
	for dim := 0; dim < 3; dim++ {
		if lo[dim] >= hi[dim] {
			return nil, fmt.Errorf("The box corner coordinates are not "+
				"ordered along dimension %d: %g >= %g.", dim, lo[dim], hi[dim])
		}
	}
	return &Box{lo, hi, unit}, nil
}

func (b *Box) Contains(x [3]float64) bool {
	for dim := 0; dim < 3; dim++ {
		if x[dim] < b.Lo[dim] || x[dim] >= b.Hi[dim] {
			return false
		}
	}
	return true
}

func (b *Box) String() string {
	return fmt.Sprintf("box(%v, %v, %s)", b.Lo, b.Hi, b.Unit)
}

// Sphere is a sphere around a center, inclusive of the boundary.
type Sphere struct {
	Center [3]float64
	Radius float64
	// Unit is the stated length unit of the center and radius.
	Unit string
}

// NewSphere creates a Sphere and checks that the radius is positive.
func NewSphere(center [3]float64, radius float64, unit string) (*Sphere, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("The sphere radius must be positive, got %g.",
			radius)
	}
	return &Sphere{center, radius, unit}, nil
}

func (s *Sphere) Contains(x [3]float64) bool {
	dr2 := 0.0
	for dim := 0; dim < 3; dim++ {
		d := x[dim] - s.Center[dim]
		dr2 += d * d
	}
	return dr2 <= s.Radius*s.Radius
}

func (s *Sphere) String() string {
	return fmt.Sprintf("sphere(%v, %g, %s)", s.Center, s.Radius, s.Unit)
}

// All selects the whole population.
type All struct{}

func (a *All) Contains(x [3]float64) bool { return true }
func (a *All) String() string             { return "all" }

// Mask evaluates a region against the 'position' field of the given category
// and returns the boolean selection.
func Mask(r Region, ev *fields.Evaluator, category string) ([]bool, error) {
	x, err := ev.Vecs(category, "position")
	if err != nil {
		return nil, fmt.Errorf("The region %s cannot be applied: %s",
			r.String(), err.Error())
	}
	out := make([]bool, len(x))
	for i := range x {
		out[i] = r.Contains(x[i])
	}
	return out, nil
}

// Indices evaluates a region and returns the indices of the selected
// particles in ascending order.
func Indices(r Region, ev *fields.Evaluator, category string) ([]int, error) {
	mask, err := Mask(r, ev, category)
	if err != nil {
		return nil, err
	}
	idx := []int{}
	for i := range mask {
		if mask[i] {
			idx = append(idx, i)
		}
	}
	return idx, nil
}
