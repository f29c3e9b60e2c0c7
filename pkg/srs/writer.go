/*
File: writer.go
Description: Serializer for the legacy SRS .dat text format. Renders the
header block, the metadata section and the right-justified scan table, and
writes complete files atomically enough that a failed render leaves no
partial output behind.
*/

package srs

import (
	"fmt"
	"os"
	"strings"

	"github.com/kleascm/nexus2srs/pkg/nexus"
)

const (
	// MetaStart opens the metadata section.
	MetaStart = "<MetaDataAtStart>"
	// MetaEnd closes the metadata section.
	MetaEnd = "</MetaDataAtStart>"
	// EndMarker separates the preamble from the scan table.
	EndMarker = " &END"
)

// Render serializes a complete document. Every line is joined with a
// newline and the result ends with one trailing newline, matching the
// files the legacy acquisition software wrote.
func Render(header []string, meta *nexus.MetaTable, scan *nexus.ScanTable, width int) string {
	var lines []string
	lines = append(lines, header...)
	lines = append(lines, MetaStart)
	for _, p := range meta.Pairs() {
		if p.Quoted {
			lines = append(lines, fmt.Sprintf("%s='%s'", p.Name, p.Value))
		} else {
			lines = append(lines, fmt.Sprintf("%s=%s", p.Name, p.Value))
		}
	}
	lines = append(lines, MetaEnd)
	lines = append(lines, EndMarker)

	names := scan.Names()
	lines = append(lines, formatRow(names, width))
	for r := 0; r < scan.Rows(); r++ {
		cells := make([]string, len(names))
		for i, name := range names {
			cells[i] = nexus.FormatFloat(scan.Column(name)[r])
		}
		lines = append(lines, formatRow(cells, width))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// formatRow right-justifies each cell to the column width and joins with
// tabs.
func formatRow(cells []string, width int) string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = fmt.Sprintf("%*s", width, c)
	}
	return strings.Join(out, "\t")
}

// WriteFile renders the document fully in memory and only then touches the
// target path, so a render failure cannot truncate an existing file.
func WriteFile(path string, header []string, meta *nexus.MetaTable, scan *nexus.ScanTable, width int) error {
	text := Render(header, meta, scan, width)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
