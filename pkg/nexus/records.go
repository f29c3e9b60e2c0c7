/*
File: records.go
Description: Record builder for the inference engine. Materializes the
classifier's plan into an ordered scan table and metadata table ready for
serialization, reading dataset values and applying the legacy formatting
rules.
*/

package nexus

import (
	"strconv"

	"github.com/kleascm/nexus2srs/pkg/interfaces"
	"github.com/kleascm/nexus2srs/pkg/logging"
)

// metaDateFormat is the legacy human-readable timestamp written to the
// metadata block.
const metaDateFormat = "Mon Jan 02 15:04:05 2006"

// ScanTable holds the scan columns in plan order. Setting an existing name
// replaces its values in place, so aliases of one dataset collapse to a
// single column.
type ScanTable struct {
	names  []string
	values map[string][]float64
}

// NewScanTable creates an empty scan table.
func NewScanTable() *ScanTable {
	return &ScanTable{values: make(map[string][]float64)}
}

// Set adds a column, or replaces the values of an existing name in place.
func (t *ScanTable) Set(name string, values []float64) {
	if _, ok := t.values[name]; !ok {
		t.names = append(t.names, name)
	}
	t.values[name] = values
}

// Names returns the column names in order.
func (t *ScanTable) Names() []string { return t.names }

// Column returns the values of one column.
func (t *ScanTable) Column(name string) []float64 { return t.values[name] }

// Rows returns the row count, the length of the first column.
func (t *ScanTable) Rows() int {
	if len(t.names) == 0 {
		return 0
	}
	return len(t.values[t.names[0]])
}

// MetaPair is one rendered metadata entry. Quoted entries serialize as
// name='value', unquoted ones as name=value.
type MetaPair struct {
	Name   string
	Value  string
	Quoted bool
}

// MetaTable holds the metadata block: required entries first in insertion
// order, discovered entries after. A discovered entry never overwrites a
// required one; among discovered entries the last writer wins.
type MetaTable struct {
	required   []MetaPair
	discovered []MetaPair
	isRequired map[string]bool
	index      map[string]int // name -> position in discovered
}

// NewMetaTable creates an empty metadata table.
func NewMetaTable() *MetaTable {
	return &MetaTable{
		isRequired: make(map[string]bool),
		index:      make(map[string]int),
	}
}

// SetRequired appends a required entry. Required names are fixed per file,
// so duplicates are not expected and are appended as given.
func (t *MetaTable) SetRequired(name, value string, quoted bool) {
	t.required = append(t.required, MetaPair{Name: name, Value: value, Quoted: quoted})
	t.isRequired[name] = true
}

// Set records a discovered entry. Names claimed by a required entry are
// ignored; repeated discovered names overwrite in place.
func (t *MetaTable) Set(name, value string, quoted bool) {
	if t.isRequired[name] {
		return
	}
	if i, ok := t.index[name]; ok {
		t.discovered[i] = MetaPair{Name: name, Value: value, Quoted: quoted}
		return
	}
	t.index[name] = len(t.discovered)
	t.discovered = append(t.discovered, MetaPair{Name: name, Value: value, Quoted: quoted})
}

// Pairs returns every entry in output order.
func (t *MetaTable) Pairs() []MetaPair {
	out := make([]MetaPair, 0, len(t.required)+len(t.discovered))
	out = append(out, t.required...)
	out = append(out, t.discovered...)
	return out
}

// Get returns the current value of a name, required entries first.
func (t *MetaTable) Get(name string) (string, bool) {
	for _, p := range t.required {
		if p.Name == name {
			return p.Value, true
		}
	}
	if i, ok := t.index[name]; ok {
		return t.discovered[i].Value, true
	}
	return "", false
}

// Builder materializes classification plans into record tables.
type Builder struct {
	log *logging.Logger
}

// NewBuilder creates a record builder.
func NewBuilder(log *logging.Logger) *Builder {
	return &Builder{log: log}
}

// Build reads every planned dataset and assembles the scan table, the
// metadata table and the header lines. Unreadable or incompatible columns
// are dropped with a diagnostic; a file without usable columns still
// produces a valid zero-row result.
func (b *Builder) Build(src interfaces.Source, plan *ScanPlan) (*ScanTable, *MetaTable, []string) {
	scan := NewScanTable()
	rows := -1
	for _, col := range plan.Columns {
		if col.Entry.Kind != interfaces.KindNumeric {
			b.logf("dropping non-numeric column %s", col.Name)
			continue
		}
		values, err := col.Entry.Dataset.Floats()
		if err != nil {
			b.logf("dropping unreadable column %s: %v", col.Name, err)
			continue
		}
		if rows >= 0 && len(values) != rows {
			b.warnf("dropping column %s: %d values where %d expected", col.Name, len(values), rows)
			continue
		}
		if rows < 0 {
			rows = len(values)
		}
		scan.Set(col.Name, values)
	}

	meta := NewMetaTable()
	meta.SetRequired("cmd", plan.Command, true)
	meta.SetRequired("date", plan.Time.Format(metaDateFormat), true)
	for _, tpl := range plan.Templates {
		meta.SetRequired(tpl.Name, tpl.Value, true)
	}

	for _, m := range plan.Meta {
		if m.Entry.Kind == interfaces.KindNumeric {
			values, err := m.Entry.Dataset.Floats()
			if err != nil || len(values) == 0 {
				b.logf("skipping unreadable metadata %s", m.Name)
				continue
			}
			meta.Set(m.Name, FormatFloat(values[0]), false)
			continue
		}
		values, err := m.Entry.Dataset.Strings()
		if err != nil || len(values) == 0 {
			b.logf("skipping unreadable metadata %s", m.Name)
			continue
		}
		meta.Set(m.Name, values[0], true)
	}

	header := plan.HeaderLines
	if len(header) == 0 {
		header = SynthesizeHeader(plan.RunID, plan.Time)
	}
	return scan, meta, header
}

// FormatFloat renders a value the way the legacy files do: shortest
// round-trip representation, exponent form only when shorter.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (b *Builder) logf(format string, args ...interface{}) {
	if b.log != nil {
		b.log.Debug(format, args...)
	}
}

func (b *Builder) warnf(format string, args ...interface{}) {
	if b.log != nil {
		b.log.Warn(format, args...)
	}
}
