/*
File: memory.go
Description: In-memory implementation of the interfaces.Source contract.
Used by tests and examples to build synthetic scan trees with explicit
identity keys, link aliases, classes and attributes.
*/

package hdf

import (
	"fmt"
	"time"

	"github.com/kleascm/nexus2srs/pkg/interfaces"
)

// MemSource is an in-memory scan tree. Nodes are visited in insertion
// order, which stands in for the traversal order of a real file.
type MemSource struct {
	name    string
	mod     time.Time
	nodes   []interface{} // *MemGroup or *MemDataset
	nextKey uint64
}

// NewMemSource creates an empty in-memory source with the given file stem.
func NewMemSource(name string) *MemSource {
	return &MemSource{
		name: name,
		mod:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// SetModTime overrides the synthetic modification time.
func (m *MemSource) SetModTime(t time.Time) {
	m.mod = t
}

// Name returns the synthetic file stem.
func (m *MemSource) Name() string { return m.name }

// ModTime returns the synthetic modification time.
func (m *MemSource) ModTime() time.Time { return m.mod }

// Close is a no-op for in-memory sources.
func (m *MemSource) Close() error { return nil }

// Walk visits every node in insertion order.
func (m *MemSource) Walk(fn interfaces.WalkFunc) error {
	for _, n := range m.nodes {
		switch o := n.(type) {
		case *MemGroup:
			if err := fn(o.path, o); err != nil {
				return err
			}
		case *MemDataset:
			if err := fn(o.path, o); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddGroup adds a group node with an optional declared class.
func (m *MemSource) AddGroup(p, class string) *MemGroup {
	g := &MemGroup{path: p, class: class}
	m.nodes = append(m.nodes, g)
	return g
}

// AddFloats adds a numeric dataset with the given shape.
func (m *MemSource) AddFloats(p string, shape []int, values []float64) *MemDataset {
	m.nextKey++
	d := &MemDataset{
		path:   p,
		key:    m.nextKey,
		shape:  shape,
		size:   sizeOf(shape),
		kind:   interfaces.KindNumeric,
		floats: values,
	}
	m.nodes = append(m.nodes, d)
	return d
}

// AddScalar adds a single numeric value (scalar dataset, empty shape).
func (m *MemSource) AddScalar(p string, value float64) *MemDataset {
	return m.AddFloats(p, nil, []float64{value})
}

// AddStrings adds a text dataset; a single value makes a scalar.
func (m *MemSource) AddStrings(p string, values ...string) *MemDataset {
	m.nextKey++
	var shape []int
	if len(values) > 1 {
		shape = []int{len(values)}
	}
	d := &MemDataset{
		path:    p,
		key:     m.nextKey,
		shape:   shape,
		size:    len(values),
		kind:    interfaces.KindText,
		strings: values,
	}
	m.nodes = append(m.nodes, d)
	return d
}

// AddAlias adds a second path for an existing dataset, sharing its
// identity key the way a hard link shares a storage object.
func (m *MemSource) AddAlias(p string, target *MemDataset) *MemDataset {
	alias := *target
	alias.path = p
	m.nodes = append(m.nodes, &alias)
	return &alias
}

func sizeOf(shape []int) int {
	size := 1
	for _, d := range shape {
		size *= d
	}
	return size
}

// MemGroup is an in-memory group node.
type MemGroup struct {
	path  string
	class string
}

func (g *MemGroup) Path() string  { return g.path }
func (g *MemGroup) Class() string { return g.class }

// MemDataset is an in-memory dataset node.
type MemDataset struct {
	path    string
	key     uint64
	shape   []int
	size    int
	kind    interfaces.ElementKind
	floats  []float64
	strings []string
	attrs   map[string]string
}

// SetAttr attaches a string attribute, returning the dataset for chaining.
func (d *MemDataset) SetAttr(name, value string) *MemDataset {
	if d.attrs == nil {
		d.attrs = map[string]string{}
	}
	d.attrs[name] = value
	return d
}

func (d *MemDataset) Path() string                 { return d.path }
func (d *MemDataset) Key() uint64                  { return d.key }
func (d *MemDataset) Shape() []int                 { return d.shape }
func (d *MemDataset) Size() int                    { return d.size }
func (d *MemDataset) Kind() interfaces.ElementKind { return d.kind }

func (d *MemDataset) Attr(name string) (string, bool) {
	v, ok := d.attrs[name]
	return v, ok
}

func (d *MemDataset) Floats() ([]float64, error) {
	if d.kind != interfaces.KindNumeric {
		return nil, fmt.Errorf("dataset %s is not numeric", d.path)
	}
	return d.floats, nil
}

func (d *MemDataset) Strings() ([]string, error) {
	if d.kind == interfaces.KindText {
		return d.strings, nil
	}
	out := make([]string, len(d.floats))
	for i, v := range d.floats {
		out[i] = fmt.Sprintf("%v", v)
	}
	return out, nil
}
