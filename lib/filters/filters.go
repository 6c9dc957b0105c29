/*package filters contains particle filters: named boolean selections over a
particle population. A filter's selection criteria are held as a tree of
elementary range predicates combined with AND/OR/NOT nodes, so that the
criteria can be printed and tested in isolation instead of being buried in an
opaque closure.*/
package filters

import (
	"fmt"
	"strings"

	"github.com/xphoton/xphoton/lib/fields"
)

// Node is one node of a predicate tree. Eval writes the node's elementwise
// truth value into out, which has one entry per particle/cell of ev's
// population.
type Node interface {
	Eval(ev *fields.Evaluator, out []bool) error
	String() string
}

// Type assertions
var (
	_ Node = &rangeNode{}
	_ Node = &andNode{}
	_ Node = &orNode{}
	_ Node = &notNode{}
)

// rangeNode is an elementary comparison of one field against one threshold.
type rangeNode struct {
	key fields.Key
	// op is one of "<", "<=", ">", ">=".
	op        string
	threshold float64
}

// LessThan selects particles whose field value is strictly below the
// threshold.
func LessThan(category, name string, threshold float64) Node {
	return &rangeNode{fields.Key{Category: category, Name: name}, "<", threshold}
}

// AtMost selects particles whose field value is below or equal to the
// threshold.
func AtMost(category, name string, threshold float64) Node {
	return &rangeNode{fields.Key{Category: category, Name: name}, "<=", threshold}
}

// GreaterThan selects particles whose field value is strictly above the
// threshold.
func GreaterThan(category, name string, threshold float64) Node {
	return &rangeNode{fields.Key{Category: category, Name: name}, ">", threshold}
}

// AtLeast selects particles whose field value is above or equal to the
// threshold.
func AtLeast(category, name string, threshold float64) Node {
	return &rangeNode{fields.Key{Category: category, Name: name}, ">=", threshold}
}

func (n *rangeNode) Eval(ev *fields.Evaluator, out []bool) error {
	x, err := ev.Float64s(n.key.Category, n.key.Name)
	if err != nil {
		return err
	}
	switch n.op {
	case "<":
		for i := range x {
			out[i] = x[i] < n.threshold
		}
	case "<=":
		for i := range x {
			out[i] = x[i] <= n.threshold
		}
	case ">":
		for i := range x {
			out[i] = x[i] > n.threshold
		}
	case ">=":
		for i := range x {
			out[i] = x[i] >= n.threshold
		}
	default:
		panic(fmt.Sprintf("Internal error: unrecognized range operator, '%s'",
			n.op))
	}
	return nil
}

func (n *rangeNode) String() string {
	return fmt.Sprintf("%s %s %g", n.key, n.op, n.threshold)
}

type andNode struct{ children []Node }

// And selects particles that pass every child predicate.
func And(children ...Node) Node { return &andNode{children} }

func (n *andNode) Eval(ev *fields.Evaluator, out []bool) error {
	for i := range out {
		out[i] = true
	}
	tmp := make([]bool, len(out))
	for _, c := range n.children {
		if err := c.Eval(ev, tmp); err != nil {
			return err
		}
		for i := range out {
			out[i] = out[i] && tmp[i]
		}
	}
	return nil
}

func (n *andNode) String() string { return joinChildren(n.children, " && ") }

type orNode struct{ children []Node }

// Or selects particles that pass at least one child predicate.
func Or(children ...Node) Node { return &orNode{children} }

func (n *orNode) Eval(ev *fields.Evaluator, out []bool) error {
	for i := range out {
		out[i] = false
	}
	tmp := make([]bool, len(out))
	for _, c := range n.children {
		if err := c.Eval(ev, tmp); err != nil {
			return err
		}
		for i := range out {
			out[i] = out[i] || tmp[i]
		}
	}
	return nil
}

func (n *orNode) String() string { return joinChildren(n.children, " || ") }

type notNode struct{ child Node }

// Not selects particles that fail the child predicate.
func Not(child Node) Node { return &notNode{child} }

func (n *notNode) Eval(ev *fields.Evaluator, out []bool) error {
	if err := n.child.Eval(ev, out); err != nil {
		return err
	}
	for i := range out {
		out[i] = !out[i]
	}
	return nil
}

func (n *notNode) String() string { return "!(" + n.child.String() + ")" }

func joinChildren(children []Node, sep string) string {
	parts := make([]string, len(children))
	for i := range children {
		parts[i] = "(" + children[i].String() + ")"
	}
	return strings.Join(parts, sep)
}

// Filter is a named particle filter: a predicate tree over a base category,
// plus the list of fields the predicate needs. The required-field list is
// part of the registration contract so that a caller can check availability
// before evaluation.
type Filter struct {
	Name     string
	Base     string
	Tree     Node
	Requires []fields.Key
}

// Mask evaluates the filter against a population and returns its boolean
// selection, one entry per particle/cell.
func (f *Filter) Mask(ev *fields.Evaluator) ([]bool, error) {
	for _, key := range f.Requires {
		if _, err := ev.Get(key.Category, key.Name); err != nil {
			return nil, fmt.Errorf("The filter '%s' requires the field %s, "+
				"which is not available: %s", f.Name, key, err.Error())
		}
	}
	out := make([]bool, ev.Count())
	if err := f.Tree.Eval(ev, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Indices evaluates the filter and returns the indices of the selected
// particles in ascending order.
func (f *Filter) Indices(ev *fields.Evaluator) ([]int, error) {
	mask, err := f.Mask(ev)
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

// Subset evaluates the filter and returns an evaluator over the selected
// sub-population. Derived fields registered for the base category apply to
// the subset as well.
func (f *Filter) Subset(ev *fields.Evaluator) (*fields.Evaluator, error) {
	idx, err := f.Indices(ev)
	if err != nil {
		return nil, err
	}
	return ev.Select(idx), nil
}

func (f *Filter) String() string {
	return fmt.Sprintf("%s := %s over '%s'", f.Name, f.Tree.String(), f.Base)
}

// Registry maps filter names to their definitions, mirroring the
// registration contract name -> (predicate, base category, required fields).
type Registry struct {
	filters map[string]*Filter
}

// NewRegistry creates an empty filter registry.
func NewRegistry() *Registry {
	return &Registry{map[string]*Filter{}}
}

// Add registers a filter under its name. Registering the same name twice is
// an error.
func (r *Registry) Add(f *Filter) error {
	if _, ok := r.filters[f.Name]; ok {
		return fmt.Errorf("The particle filter '%s' has already been "+
			"registered.", f.Name)
	}
	r.filters[f.Name] = f
	return nil
}

// Replace registers a filter under its name, overwriting any existing
// filter with that name. Used when a config file overrides a filter that a
// dataset builder registered with defaults.
func (r *Registry) Replace(f *Filter) {
	r.filters[f.Name] = f
}

// Get returns the filter registered under the given name.
func (r *Registry) Get(name string) (*Filter, error) {
	f, ok := r.filters[name]
	if !ok {
		return nil, fmt.Errorf("The particle filter '%s' has not been "+
			"registered. The registered filters are %s.", name, r.Names())
	}
	return f, nil
}

// Names returns the names of all registered filters. The order is
// unspecified.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.filters))
	for name := range r.filters {
		names = append(names, name)
	}
	return names
}
