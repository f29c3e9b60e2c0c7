/*
File: inventory.go
Description: Tree indexer for the inference engine. Walks a hierarchical scan
file exactly once and produces a flat, identity-deduplicated inventory of
datasets and groups that every later stage consumes instead of re-walking.
*/

package nexus

import (
	"path"
	"strings"

	"github.com/kleascm/nexus2srs/pkg/interfaces"
)

// DatasetEntry is one dataset of the inventory. Name is the resolved label:
// the path basename, except that named-value indirection (a dataset stored
// one level down under a conventional "value" child) resolves to the parent
// name so name matching is not confused by that convention.
type DatasetEntry struct {
	Path    string
	Name    string
	Key     uint64
	Shape   []int
	Size    int
	Kind    interfaces.ElementKind
	Dataset interfaces.Dataset
}

// NDim returns the dimensionality of the dataset.
func (e *DatasetEntry) NDim() int {
	return len(e.Shape)
}

// GroupEntry is one group of the inventory.
type GroupEntry struct {
	Path  string
	Name  string
	Class string
}

// Inventory is the flat result of one full tree traversal, in traversal
// order. Datasets reachable through several paths appear once, keyed by the
// source-supplied identity token.
type Inventory struct {
	Datasets []DatasetEntry
	Groups   []GroupEntry
}

// BuildInventory walks the source once. It fails only when the underlying
// file handle itself is unreadable.
func BuildInventory(src interfaces.Source, schema Schema) (*Inventory, error) {
	inv := &Inventory{}
	seen := make(map[uint64]bool)

	err := src.Walk(func(p string, node interface{}) error {
		switch n := node.(type) {
		case interfaces.Dataset:
			if seen[n.Key()] {
				return nil
			}
			seen[n.Key()] = true
			inv.Datasets = append(inv.Datasets, DatasetEntry{
				Path:    p,
				Name:    resolveName(p, schema),
				Key:     n.Key(),
				Shape:   n.Shape(),
				Size:    n.Size(),
				Kind:    n.Kind(),
				Dataset: n,
			})
		case interfaces.Group:
			inv.Groups = append(inv.Groups, GroupEntry{
				Path:  p,
				Name:  path.Base(p),
				Class: n.Class(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// resolveName maps a dataset path to its label, unwrapping named-value
// indirection.
func resolveName(p string, schema Schema) string {
	name := path.Base(p)
	if name == schema.ValueName {
		if parent := path.Base(path.Dir(p)); parent != "." && parent != "/" {
			return parent
		}
	}
	return name
}

// FindName returns the first dataset with the given resolved name, or nil.
func (inv *Inventory) FindName(name string) *DatasetEntry {
	for i := range inv.Datasets {
		if inv.Datasets[i].Name == name {
			return &inv.Datasets[i]
		}
	}
	return nil
}

// DatasetAt returns the dataset at an exact path, or nil.
func (inv *Inventory) DatasetAt(p string) *DatasetEntry {
	for i := range inv.Datasets {
		if inv.Datasets[i].Path == p {
			return &inv.Datasets[i]
		}
	}
	return nil
}

// GroupByName returns the first group with the given basename, or nil.
func (inv *Inventory) GroupByName(name string) *GroupEntry {
	for i := range inv.Groups {
		if inv.Groups[i].Name == name {
			return &inv.Groups[i]
		}
	}
	return nil
}

// Under returns the datasets below a group path, in traversal order.
func (inv *Inventory) Under(groupPath string) []*DatasetEntry {
	prefix := strings.TrimSuffix(groupPath, "/") + "/"
	var out []*DatasetEntry
	for i := range inv.Datasets {
		if strings.HasPrefix(inv.Datasets[i].Path, prefix) {
			out = append(out, &inv.Datasets[i])
		}
	}
	return out
}

// ChildrenOf returns the direct child datasets of a group path, in
// traversal order.
func (inv *Inventory) ChildrenOf(groupPath string) []*DatasetEntry {
	parent := strings.TrimSuffix(groupPath, "/")
	var out []*DatasetEntry
	for i := range inv.Datasets {
		if path.Dir(inv.Datasets[i].Path) == parent {
			out = append(out, &inv.Datasets[i])
		}
	}
	return out
}
