/*
File: records_test.go
Description: Tests for the record builder. Covers metadata ordering and
collision rules, value formatting, column filtering and the header
fallback.
*/

package nexus_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleascm/nexus2srs/pkg/hdf"
	"github.com/kleascm/nexus2srs/pkg/nexus"
)

func build(t *testing.T, src *hdf.MemSource) (*nexus.ScanTable, *nexus.MetaTable, []string) {
	t.Helper()
	schema := nexus.DefaultSchema()
	inv, err := nexus.BuildInventory(src, schema)
	require.NoError(t, err)
	plan := nexus.NewClassifier(schema, nil).Classify(src, inv)
	scan, meta, header := nexus.NewBuilder(nil).Build(src, plan)
	return scan, meta, header
}

func TestBuildScanTablePreservesColumnOrder(t *testing.T) {
	src := hdf.NewMemSource("scan_0001")
	src.AddStrings("/entry/scan_fields", "z", "a", "m")
	src.AddFloats("/entry/z", []int{2}, []float64{1, 2})
	src.AddFloats("/entry/a", []int{2}, []float64{3, 4})
	src.AddFloats("/entry/m", []int{2}, []float64{5, 6})

	scan, _, _ := build(t, src)

	assert.Equal(t, []string{"z", "a", "m"}, scan.Names())
	assert.Equal(t, 2, scan.Rows())
	assert.Equal(t, []float64{3, 4}, scan.Column("a"))
}

func TestBuildDropsMismatchedAndTextColumns(t *testing.T) {
	src := hdf.NewMemSource("scan_0001")
	src.AddStrings("/entry/scan_fields", "x", "labels", "short")
	src.AddFloats("/entry/x", []int{3}, []float64{1, 2, 3})
	src.AddStrings("/entry/labels", "a", "b", "c")
	src.AddFloats("/entry/short", []int{2}, []float64{1, 2})

	scan, _, _ := build(t, src)

	assert.Equal(t, []string{"x"}, scan.Names())
	assert.Equal(t, 3, scan.Rows())
}

func TestBuildMetadataFormatting(t *testing.T) {
	src := hdf.NewMemSource("scan_0001")
	src.AddGroup("/entry/before_scan", "")
	src.AddGroup("/entry/measurement", "")
	src.AddFloats("/entry/measurement/x", []int{2}, []float64{1, 2})
	src.AddScalar("/entry/before_scan/temp", 299.5)
	src.AddScalar("/entry/before_scan/count", 1e7)
	src.AddStrings("/entry/before_scan/mode", "fly")

	_, meta, _ := build(t, src)

	pairs := meta.Pairs()
	byName := map[string]nexus.MetaPair{}
	for _, p := range pairs {
		byName[p.Name] = p
	}

	// Floats are written bare in shortest form, strings quoted.
	assert.Equal(t, "299.5", byName["temp"].Value)
	assert.False(t, byName["temp"].Quoted)
	assert.Equal(t, "1e+07", byName["count"].Value)
	assert.Equal(t, "fly", byName["mode"].Value)
	assert.True(t, byName["mode"].Quoted)

	// Required entries come first.
	assert.Equal(t, "cmd", pairs[0].Name)
	assert.Equal(t, "date", pairs[1].Name)
}

func TestBuildDiscoveredMetadataNeverOverwritesRequired(t *testing.T) {
	src := hdf.NewMemSource("scan_0001")
	src.AddStrings("/entry/scan_command", "scan x 0 1 0.1")
	src.AddGroup("/entry/positioners", "")
	src.AddStrings("/entry/scan_fields", "x")
	src.AddFloats("/entry/x", []int{2}, []float64{1, 2})
	src.AddStrings("/entry/positioners/cmd", "something else")

	_, meta, _ := build(t, src)

	v, ok := meta.Get("cmd")
	require.True(t, ok)
	assert.Equal(t, "scan x 0 1 0.1", v)
}

func TestMetaTableDiscoveredCollisionsLastWriterWins(t *testing.T) {
	meta := nexus.NewMetaTable()
	meta.Set("temp", "1", false)
	meta.Set("gain", "2", false)
	meta.Set("temp", "3", false)

	pairs := meta.Pairs()
	require.Len(t, pairs, 2)
	assert.Equal(t, "temp", pairs[0].Name)
	assert.Equal(t, "3", pairs[0].Value)
	assert.Equal(t, "gain", pairs[1].Name)
}

func TestBuildSynthesizesHeaderWhenAbsent(t *testing.T) {
	src := hdf.NewMemSource("scan_0042")
	src.SetModTime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))

	_, _, header := build(t, src)

	require.Len(t, header, 5)
	assert.Equal(t, " &SRS", header[0])
	assert.Equal(t, " SRSRUN=42,SRSDAT=20240102,SRSTIM=030405,", header[1])
}

func TestBuildKeepsVerbatimHeader(t *testing.T) {
	src := hdf.NewMemSource("scan_0001")
	src.AddStrings("/entry/scan_header", " &SRS", " SRSRUN=7,")

	_, _, header := build(t, src)

	assert.Equal(t, []string{" &SRS", " SRSRUN=7,"}, header)
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "1.5", nexus.FormatFloat(1.5))
	assert.Equal(t, "3", nexus.FormatFloat(3))
	assert.Equal(t, "1e+20", nexus.FormatFloat(1e20))
	assert.Equal(t, "0.1", nexus.FormatFloat(0.1))
}
