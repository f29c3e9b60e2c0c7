/*
File: source.go
Description: Hierarchical-file source backed by the pure-Go go-hdf5 reader.
Adapts hdf5.File traversal, dataset reads and attribute reads to the
interfaces.Source contract consumed by the inference engine.
*/

package hdf

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/robert-malhotra/go-hdf5/hdf5"

	"github.com/kleascm/nexus2srs/pkg/interfaces"
)

// classAttr is the group attribute carrying the declared NeXus class.
const classAttr = "NX_class"

// Source is an open HDF5/NeXus file.
type Source struct {
	file *hdf5.File
	name string
	mod  time.Time
}

// Open opens an HDF5 file for reading. Failure here is the single fatal
// error of a conversion; everything downstream degrades gracefully.
func Open(path string) (*Source, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	mod := time.Now()
	if stat, err := os.Stat(path); err == nil {
		mod = stat.ModTime()
	}

	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	return &Source{file: f, name: stem, mod: mod}, nil
}

// Name returns the file stem without extension.
func (s *Source) Name() string {
	return s.name
}

// ModTime returns the on-disk modification time of the file.
func (s *Source) ModTime() time.Time {
	return s.mod
}

// Close closes the underlying HDF5 file.
func (s *Source) Close() error {
	return s.file.Close()
}

// Walk traverses every group and dataset once. Nodes that cannot be opened
// are skipped rather than aborting the traversal.
func (s *Source) Walk(fn interfaces.WalkFunc) error {
	return hdf5.Walk(s.file.Root(), func(path string, obj interface{}, err error) error {
		if err != nil {
			return nil
		}
		switch o := obj.(type) {
		case *hdf5.Group:
			return fn(path, &group{g: o})
		case *hdf5.Dataset:
			return fn(path, newDataset(path, o))
		}
		return nil
	})
}

// group adapts hdf5.Group to interfaces.Group.
type group struct {
	g *hdf5.Group
}

func (g *group) Path() string {
	return g.g.Path()
}

func (g *group) Class() string {
	attr := g.g.Attr(classAttr)
	if attr == nil {
		return ""
	}
	vals, err := attr.ReadString()
	if err != nil || len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// dataset adapts hdf5.Dataset to interfaces.Dataset.
type dataset struct {
	ds    *hdf5.Dataset
	path  string
	key   uint64
	shape []int
	size  int
	kind  interfaces.ElementKind
}

func newDataset(path string, ds *hdf5.Dataset) *dataset {
	dims := ds.Shape()
	shape := make([]int, len(dims))
	for i, d := range dims {
		shape[i] = int(d)
	}

	kind := interfaces.KindText
	if t, err := ds.GoType(); err == nil && t != nil && t.Kind() != reflect.String {
		kind = interfaces.KindNumeric
	}

	return &dataset{
		ds:    ds,
		path:  path,
		key:   pathKey(path),
		shape: shape,
		size:  int(ds.NumElements()),
		kind:  kind,
	}
}

// pathKey hashes the resolved path into an identity token. go-hdf5 does not
// expose object header addresses, so aliases reachable through links get
// distinct keys here; the engine additionally collapses aliases by resolved
// name, which covers the hard-link conventions seen in NeXus scan files.
// TODO: key on the object header address once go-hdf5 exposes it.
func pathKey(path string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(path))
	return h.Sum64()
}

func (d *dataset) Path() string                 { return d.path }
func (d *dataset) Key() uint64                  { return d.key }
func (d *dataset) Shape() []int                 { return d.shape }
func (d *dataset) Size() int                    { return d.size }
func (d *dataset) Kind() interfaces.ElementKind { return d.kind }

func (d *dataset) Attr(name string) (string, bool) {
	attr := d.ds.Attr(name)
	if attr == nil {
		return "", false
	}
	vals, err := attr.ReadString()
	if err != nil || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func (d *dataset) Floats() ([]float64, error) {
	if d.kind != interfaces.KindNumeric {
		return nil, fmt.Errorf("dataset %s is not numeric", d.path)
	}
	return d.ds.ReadFloat64()
}

func (d *dataset) Strings() ([]string, error) {
	if d.kind == interfaces.KindText {
		return d.ds.ReadString()
	}
	vals, err := d.ds.ReadFloat64()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = fmt.Sprintf("%v", v)
	}
	return out, nil
}
