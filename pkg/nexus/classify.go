/*
File: classify.go
Description: Schema classifier for the inference engine. Selects one scan
layout strategy in fixed priority order, assigns datasets to the scan table
or the metadata set, and resolves the required header fields and detector
image references.
*/

package nexus

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kleascm/nexus2srs/pkg/interfaces"
	"github.com/kleascm/nexus2srs/pkg/logging"
)

// StrategyKind identifies the scan layout convention a file follows.
type StrategyKind int

const (
	// StrategyScanFields: an explicit ordered field list names the columns.
	StrategyScanFields StrategyKind = iota
	// StrategyMeasurement: a conventional measurement group holds the columns.
	StrategyMeasurement
	// StrategyShape: columns are elected by the most common array shape.
	StrategyShape
)

func (k StrategyKind) String() string {
	switch k {
	case StrategyScanFields:
		return "scan_fields"
	case StrategyMeasurement:
		return "measurement"
	case StrategyShape:
		return "shape"
	default:
		return "unknown"
	}
}

// Column is a dataset selected for the scan table.
type Column struct {
	Name  string
	Entry *DatasetEntry
}

// MetaEntry is a scalar dataset selected for the metadata set.
type MetaEntry struct {
	Name  string
	Entry *DatasetEntry
}

// DetectorRef locates a multi-frame detector dataset plus the file naming
// template of its extracted frames. Discovered during classification,
// consumed once by the image extractor.
type DetectorRef struct {
	Name     string
	Path     string
	Template string
}

// Template is a synthesized metadata pair pointing at detector image files.
type Template struct {
	Name  string
	Value string
}

// ScanPlan is the classifier's verdict: which strategy matched, which
// datasets form the scan table and metadata set, and the resolved required
// fields.
type ScanPlan struct {
	Strategy  StrategyKind
	ScanShape []int // elected canonical shape (shape strategy only)

	Columns    []Column
	Meta       []MetaEntry
	Unresolved []string // declared fields that matched no dataset

	RunID       int
	Command     string
	Time        time.Time
	HeaderLines []string // nil means synthesize
	Templates   []Template
	Detectors   []DetectorRef
}

// Classifier decides the scan layout of an indexed file.
type Classifier struct {
	schema Schema
	log    *logging.Logger
}

// NewClassifier creates a classifier for the given dialect.
func NewClassifier(schema Schema, log *logging.Logger) *Classifier {
	return &Classifier{schema: schema, log: log}
}

// Classify selects exactly one strategy, in fixed priority order, then
// resolves the required fields. Missing optional elements never fail; the
// stated fallbacks apply instead.
func (c *Classifier) Classify(src interfaces.Source, inv *Inventory) *ScanPlan {
	plan := &ScanPlan{}
	claimed := make(map[uint64]bool)

	switch {
	case c.classifyScanFields(inv, plan, claimed):
		plan.Strategy = StrategyScanFields
	case c.classifyMeasurement(inv, plan, claimed):
		plan.Strategy = StrategyMeasurement
	default:
		plan.Strategy = StrategyShape
		c.classifyShape(inv, plan, claimed)
	}
	c.logf("strategy: %s, %d columns, %d metadata fields",
		plan.Strategy, len(plan.Columns), len(plan.Meta))

	c.resolveRequired(src, inv, plan)
	c.findDetectors(inv, plan)
	return plan
}

// classifyScanFields implements the explicit-fields strategy: a scan_fields
// dataset lists the column names in order. Each name is matched first by
// resolved dataset name among arrays, then by the name attributes. A field
// that resolves to neither is dropped with a diagnostic.
func (c *Classifier) classifyScanFields(inv *Inventory, plan *ScanPlan, claimed map[uint64]bool) bool {
	entry := inv.FindName(c.schema.ScanFields)
	if entry == nil {
		return false
	}
	fields, err := entry.Dataset.Strings()
	if err != nil {
		c.logf("unreadable %s dataset, trying next strategy: %v", c.schema.ScanFields, err)
		return false
	}
	claimed[entry.Key] = true

	var arrays []*DatasetEntry
	for i := range inv.Datasets {
		if inv.Datasets[i].Size > 1 {
			arrays = append(arrays, &inv.Datasets[i])
		}
	}

	for _, field := range fields {
		match := c.matchField(field, arrays)
		if match == nil {
			c.logf("scan field %s not available", field)
			plan.Unresolved = append(plan.Unresolved, field)
			continue
		}
		if claimed[match.Key] {
			continue
		}
		claimed[match.Key] = true
		plan.Columns = append(plan.Columns, Column{Name: field, Entry: match})
	}

	c.collectSubtreeMeta(inv, plan, claimed, c.schema.Positioners)
	return true
}

// matchField resolves a declared field name to an array dataset, by
// resolved name first and by the name attributes second.
func (c *Classifier) matchField(field string, arrays []*DatasetEntry) *DatasetEntry {
	for _, e := range arrays {
		if e.Name == field {
			return e
		}
	}
	for _, e := range arrays {
		if v, ok := e.Dataset.Attr(c.schema.NameAttr); ok && v == field {
			return e
		}
		if v, ok := e.Dataset.Attr(c.schema.LegacyNameAttr); ok && v == field {
			return e
		}
	}
	return nil
}

// classifyMeasurement implements the named-measurement-group strategy: the
// direct child arrays of a conventional measurement group become the scan
// table, named by their local key.
func (c *Classifier) classifyMeasurement(inv *Inventory, plan *ScanPlan, claimed map[uint64]bool) bool {
	g := inv.GroupByName(c.schema.Measurement)
	if g == nil {
		return false
	}

	var cols []Column
	for _, e := range inv.ChildrenOf(g.Path) {
		if e.NDim() == 0 || e.NDim() >= 3 {
			continue
		}
		cols = append(cols, Column{Name: e.Name, Entry: e})
	}
	if len(cols) == 0 {
		return false
	}

	for _, col := range cols {
		claimed[col.Entry.Key] = true
	}
	plan.Columns = cols

	c.collectSubtreeMeta(inv, plan, claimed, c.schema.BeforeScan)
	return true
}

// classifyShape implements the generic fallback: elect the most common
// shape among 1D/2D arrays as the canonical scan shape, then take every
// dataset of exactly that shape as a column and every scalar as metadata.
func (c *Classifier) classifyShape(inv *Inventory, plan *ScanPlan, claimed map[uint64]bool) {
	plan.ScanShape = electScanShape(inv)
	if plan.ScanShape == nil {
		c.logf("file contains no scan data (no arrays longer than 1)")
	} else {
		c.logf("scan shape: %v", plan.ScanShape)
	}

	for i := range inv.Datasets {
		e := &inv.Datasets[i]
		if claimed[e.Key] {
			continue
		}
		switch {
		case e.Size == 1:
			claimed[e.Key] = true
			plan.Meta = append(plan.Meta, MetaEntry{Name: e.Name, Entry: e})
		case plan.ScanShape != nil && shapeEqual(e.Shape, plan.ScanShape):
			claimed[e.Key] = true
			plan.Columns = append(plan.Columns, Column{Name: e.Name, Entry: e})
		}
	}
}

// electScanShape returns the most frequently occurring shape among arrays
// of dimensionality 1 or 2 and size > 1, ties broken by first encounter.
// Returns nil when no array qualifies.
func electScanShape(inv *Inventory) []int {
	type bucket struct {
		shape []int
		count int
	}
	counts := make(map[string]*bucket)
	var order []string

	for i := range inv.Datasets {
		e := &inv.Datasets[i]
		if e.Size <= 1 || e.NDim() < 1 || e.NDim() > 2 {
			continue
		}
		k := shapeKey(e.Shape)
		if b, ok := counts[k]; ok {
			b.count++
		} else {
			counts[k] = &bucket{shape: e.Shape, count: 1}
			order = append(order, k)
		}
	}

	var best *bucket
	for _, k := range order {
		if best == nil || counts[k].count > best.count {
			best = counts[k]
		}
	}
	if best == nil {
		return nil
	}
	return best.shape
}

// collectSubtreeMeta adds every unclaimed scalar dataset below the first
// group with the given basename to the metadata set.
func (c *Classifier) collectSubtreeMeta(inv *Inventory, plan *ScanPlan, claimed map[uint64]bool, groupName string) {
	g := inv.GroupByName(groupName)
	if g == nil {
		return
	}
	for _, e := range inv.Under(g.Path) {
		if e.Size != 1 || claimed[e.Key] {
			continue
		}
		claimed[e.Key] = true
		plan.Meta = append(plan.Meta, MetaEntry{Name: e.Name, Entry: e})
	}
}

var runNumberPattern = regexp.MustCompile(`\d{4,}`)

// fallbackTimeLayouts covers the timestamp renderings seen across
// acquisition software generations: colonized or bare zone offsets, Zulu,
// and 0 to 6 fractional digits.
var fallbackTimeLayouts = []string{
	"2006-01-02T15:04:05.999999Z07:00",
	"2006-01-02T15:04:05.999999-0700",
}

// parseTimestamp tries the configured layout first, then the tolerant
// fallbacks. The configured layout's error is the one reported, since it
// names the dialect's expected format.
func parseTimestamp(layout, value string) (time.Time, error) {
	t, err := time.Parse(layout, value)
	if err == nil {
		return t, nil
	}
	for _, l := range fallbackTimeLayouts {
		if t, lerr := time.Parse(l, value); lerr == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// resolveRequired fills the run identifier, command, timestamp and header,
// each with its stated fallback chain.
func (c *Classifier) resolveRequired(src interfaces.Source, inv *Inventory, plan *ScanPlan) {
	// Run identifier: entry identifier dataset, else digits in the file
	// stem, else zero.
	if e := inv.FindName(c.schema.RunID); e != nil {
		if vals, err := e.Dataset.Strings(); err == nil && len(vals) > 0 {
			if n, err := strconv.Atoi(strings.TrimSpace(vals[0])); err == nil {
				plan.RunID = n
			}
		}
	}
	if plan.RunID == 0 {
		if m := runNumberPattern.FindString(src.Name()); m != "" {
			plan.RunID, _ = strconv.Atoi(m)
		}
	}

	// Scan command: conventional dataset, else empty.
	if e := inv.FindName(c.schema.Command); e != nil {
		if vals, err := e.Dataset.Strings(); err == nil && len(vals) > 0 {
			plan.Command = vals[0]
		}
	}

	// Timestamp: conventional dataset, else the file modification time.
	plan.Time = src.ModTime()
	if e := inv.FindName(c.schema.StartTime); e != nil {
		if vals, err := e.Dataset.Strings(); err == nil && len(vals) > 0 {
			if t, err := parseTimestamp(c.schema.TimeFormat, strings.TrimSpace(vals[0])); err == nil {
				plan.Time = t
			} else {
				c.logf("%s not parseable, using file time: %v", c.schema.StartTime, err)
			}
		}
	}

	// Header: verbatim lines when present, synthesized otherwise.
	if e := inv.FindName(c.schema.ScanHeader); e != nil {
		if lines, err := e.Dataset.Strings(); err == nil && len(lines) > 0 {
			plan.HeaderLines = lines
		}
	}
}

// findDetectors discovers image references: the legacy image_data dataset
// contributes a path template (its frames already exist on disk), and every
// detector-class group with a data child contributes a reference for the
// extractor.
func (c *Classifier) findDetectors(inv *Inventory, plan *ScanPlan) {
	if e := inv.FindName(c.schema.ImageData); e != nil {
		if vals, err := e.Dataset.Strings(); err == nil && len(vals) > 0 {
			dir := path.Dir(vals[0])
			name := "detector"
			if parts := strings.Split(dir, "-"); len(parts) > 1 {
				name = parts[1]
			}
			plan.Templates = append(plan.Templates, Template{
				Name:  name + "_path_template",
				Value: dir + "/" + c.schema.FrameTemplate(),
			})
		}
	}

	for i := range inv.Groups {
		g := &inv.Groups[i]
		if g.Class != c.schema.DetectorClass {
			continue
		}
		data := inv.DatasetAt(strings.TrimSuffix(g.Path, "/") + "/" + c.schema.DataChild)
		if data == nil {
			continue
		}
		template := fmt.Sprintf("%d-%s-files/%s", plan.RunID, g.Name, c.schema.FrameTemplate())
		plan.Templates = append(plan.Templates, Template{
			Name:  g.Name + "_path_template",
			Value: template,
		})
		plan.Detectors = append(plan.Detectors, DetectorRef{
			Name:     g.Name,
			Path:     data.Path,
			Template: template,
		})
		c.logf("detector images: %s at %s", g.Name, data.Path)
	}
}

func (c *Classifier) logf(format string, args ...interface{}) {
	if c.log != nil {
		c.log.Debug(format, args...)
	}
}

func shapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func shapeKey(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, "x")
}
