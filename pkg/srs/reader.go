/*
File: reader.go
Description: Parser for the legacy SRS .dat text format. Reads a rendered
document back into its header, metadata and scan table parts. Used by
round-trip tests and available to tooling that needs to re-read converted
output.
*/

package srs

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Document is a parsed .dat file.
type Document struct {
	Header  []string
	Meta    map[string]string // quotes stripped
	Columns []string
	Rows    [][]float64
}

// Parse reads a rendered document. It tolerates missing sections so that
// partially valid files still yield what they contain.
func Parse(text string) (*Document, error) {
	doc := &Document{Meta: make(map[string]string)}
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	const (
		inHeader = iota
		inMeta
		inTable
	)
	state := inHeader
	sawColumns := false

	for scanner.Scan() {
		line := scanner.Text()
		switch state {
		case inHeader:
			switch line {
			case MetaStart:
				state = inMeta
			case EndMarker:
				state = inTable
			default:
				doc.Header = append(doc.Header, line)
			}
		case inMeta:
			if line == MetaEnd {
				state = inHeader
				continue
			}
			name, value, ok := strings.Cut(line, "=")
			if !ok {
				continue
			}
			doc.Meta[name] = strings.Trim(value, "'")
		case inTable:
			if strings.TrimSpace(line) == "" {
				continue
			}
			cells := splitRow(line)
			if !sawColumns {
				doc.Columns = cells
				sawColumns = true
				continue
			}
			row := make([]float64, len(cells))
			for i, c := range cells {
				v, err := strconv.ParseFloat(c, 64)
				if err != nil {
					return nil, fmt.Errorf("row %d column %d: %w", len(doc.Rows)+1, i+1, err)
				}
				row[i] = v
			}
			doc.Rows = append(doc.Rows, row)
		}
	}
	return doc, scanner.Err()
}

// ParseFile reads and parses a .dat file from disk.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(string(data))
}

func splitRow(line string) []string {
	parts := strings.Split(line, "\t")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}
