/*
File: interfaces.go
Description: Shared interfaces for nexus2srs. Defines the collaborator contract
between the schema inference engine and the hierarchical-file readers, so the
engine never depends on a concrete HDF5 implementation.
*/

package interfaces

import "time"

// ElementKind describes the element type of a dataset as far as the
// inference engine cares: numbers become scan columns or float metadata,
// text becomes quoted metadata.
type ElementKind int

const (
	KindNumeric ElementKind = iota
	KindText
)

// Dataset is a leaf node of a hierarchical scan file.
//
// Key returns a stable identity token for the underlying storage object.
// The same physical data may be reachable through several paths (links);
// sources that can resolve object identity must return the same Key for
// every alias so the engine can deduplicate.
type Dataset interface {
	Path() string
	Key() uint64
	Shape() []int
	Size() int
	Kind() ElementKind

	// Attr returns the string value of a named attribute, if present.
	Attr(name string) (string, bool)

	// Floats reads the full dataset as a flat float64 slice (row-major).
	// Returns an error for non-numeric content.
	Floats() ([]float64, error)

	// Strings reads the full dataset as a flat string slice.
	Strings() ([]string, error)
}

// Group is an interior node of a hierarchical scan file. Class reports the
// declared node class (the NX_class attribute in NeXus files), or "" when
// the group carries no declaration.
type Group interface {
	Path() string
	Class() string
}

// WalkFunc is called once per node during traversal. node is either a
// Dataset or a Group. Returning an error stops the walk.
type WalkFunc func(path string, node interface{}) error

// Source is an open hierarchical scan file. Walk performs one full
// traversal of the tree; the engine indexes the result once and never
// walks again, since traversal is the expensive operation.
type Source interface {
	// Name returns the file stem (base name without extension), used for
	// run-number fallback and image folder naming.
	Name() string

	// ModTime returns the on-disk modification time, used as the timestamp
	// fallback when the file carries no start time.
	ModTime() time.Time

	Walk(fn WalkFunc) error
	Close() error
}
