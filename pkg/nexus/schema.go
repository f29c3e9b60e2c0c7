/*
File: schema.go
Description: Schema dialect configuration for the inference engine. Collects
every conventional node name the classifier relies on into one structure so
alternate facility dialects can be supplied without touching the engine.
*/

package nexus

import "fmt"

// Schema names the conventional datasets, groups and attributes of a scan
// file dialect. The zero value is not usable; start from DefaultSchema.
type Schema struct {
	// Classification conventions.
	ScanFields  string // dataset listing scan column names in order
	Measurement string // group holding per-point arrays
	Positioners string // subtree of scalar metadata (explicit-fields layout)
	BeforeScan  string // subtree of scalar metadata (legacy layout)

	// Required-field conventions.
	ScanHeader string // verbatim header lines
	RunID      string // entry identifier
	Command    string // scan command
	StartTime  string // run timestamp

	// Detector conventions.
	ImageData     string // legacy dataset of per-point image file names
	DetectorClass string // declared class of image detector groups
	DataChild     string // frame dataset inside a detector group
	ImageExt      string // extension of extracted frame files

	// Dataset labelling conventions.
	NameAttr       string // attribute carrying an alternate dataset label
	LegacyNameAttr string // older spelling of the same attribute
	ValueName      string // child name used by named-value indirection

	// Formats.
	TimeFormat  string // layout of StartTime values
	ColumnWidth int    // minimum width of serialized columns
	FrameDigits int    // zero-padded width of frame indices
}

// DefaultSchema returns the Diamond/GDA dialect the converter was written
// against.
func DefaultSchema() Schema {
	return Schema{
		ScanFields:  "scan_fields",
		Measurement: "measurement",
		Positioners: "positioners",
		BeforeScan:  "before_scan",

		ScanHeader: "scan_header",
		RunID:      "entry_identifier",
		Command:    "scan_command",
		StartTime:  "start_time",

		ImageData:     "image_data",
		DetectorClass: "NXdetector",
		DataChild:     "data",
		ImageExt:      "tif",

		NameAttr:       "local_name",
		LegacyNameAttr: "gda_field_name",
		ValueName:      "value",

		TimeFormat:  "2006-01-02T15:04:05.000000-0700",
		ColumnWidth: 10,
		FrameDigits: 5,
	}
}

// FrameTemplate returns the per-frame file name template, e.g. "%05d.tif".
func (s Schema) FrameTemplate() string {
	return fmt.Sprintf("%%0%dd.%s", s.FrameDigits, s.ImageExt)
}
