/*
File: classify_test.go
Description: Tests for the schema classifier. Covers the three layout
strategies and their priority order, declared-field resolution through
name attributes, scan shape election, required-field fallbacks and
detector discovery.
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

func classify(t *testing.T, src *hdf.MemSource) *nexus.ScanPlan {
	t.Helper()
	schema := nexus.DefaultSchema()
	inv, err := nexus.BuildInventory(src, schema)
	require.NoError(t, err)
	return nexus.NewClassifier(schema, nil).Classify(src, inv)
}

func TestClassifyScanFieldsStrategy(t *testing.T) {
	src := hdf.NewMemSource("scan_0001")
	src.AddStrings("/entry/scan_fields", "x", "det1", "ghost")
	src.AddFloats("/entry/x", []int{3}, []float64{1, 2, 3})
	src.AddFloats("/entry/instrument/d1/value", []int{3}, []float64{9, 8, 7}).
		SetAttr("local_name", "det1")
	src.AddGroup("/entry/positioners", "")
	src.AddScalar("/entry/positioners/temp", 300)

	plan := classify(t, src)

	assert.Equal(t, nexus.StrategyScanFields, plan.Strategy)

	// Declared order is preserved; the unmatched field is dropped.
	require.Len(t, plan.Columns, 2)
	assert.Equal(t, "x", plan.Columns[0].Name)
	assert.Equal(t, "det1", plan.Columns[1].Name)
	assert.Equal(t, []string{"ghost"}, plan.Unresolved)

	require.Len(t, plan.Meta, 1)
	assert.Equal(t, "temp", plan.Meta[0].Name)
}

func TestClassifyScanFieldsMatchesLegacyNameAttribute(t *testing.T) {
	src := hdf.NewMemSource("scan_0001")
	src.AddStrings("/entry/scan_fields", "counter")
	src.AddFloats("/entry/instrument/c/value", []int{2}, []float64{1, 2}).
		SetAttr("gda_field_name", "counter")

	plan := classify(t, src)

	require.Len(t, plan.Columns, 1)
	assert.Equal(t, "counter", plan.Columns[0].Name)
	assert.Empty(t, plan.Unresolved)
}

func TestClassifyMeasurementStrategy(t *testing.T) {
	src := hdf.NewMemSource("scan_0001")
	src.AddGroup("/entry/measurement", "")
	src.AddFloats("/entry/measurement/x", []int{3}, []float64{1, 2, 3})
	src.AddFloats("/entry/measurement/y", []int{3}, []float64{4, 5, 6})
	// Image stacks and scalars are not table columns.
	src.AddFloats("/entry/measurement/cube", []int{2, 2, 2}, make([]float64, 8))
	src.AddScalar("/entry/measurement/gain", 2)
	src.AddGroup("/entry/before_scan", "")
	src.AddScalar("/entry/before_scan/slit", 0.5)

	plan := classify(t, src)

	assert.Equal(t, nexus.StrategyMeasurement, plan.Strategy)
	require.Len(t, plan.Columns, 2)
	assert.Equal(t, "x", plan.Columns[0].Name)
	assert.Equal(t, "y", plan.Columns[1].Name)

	require.Len(t, plan.Meta, 1)
	assert.Equal(t, "slit", plan.Meta[0].Name)
}

func TestClassifyEmptyMeasurementFallsThrough(t *testing.T) {
	src := hdf.NewMemSource("scan_0001")
	src.AddGroup("/entry/measurement", "")
	src.AddFloats("/entry/data/a", []int{4}, []float64{1, 2, 3, 4})

	plan := classify(t, src)

	assert.Equal(t, nexus.StrategyShape, plan.Strategy)
}

func TestClassifyShapeStrategyElectsMostCommonShape(t *testing.T) {
	src := hdf.NewMemSource("scan_0001")
	src.AddFloats("/entry/a", []int{10}, make([]float64, 10))
	src.AddFloats("/entry/b", []int{10}, make([]float64, 10))
	src.AddFloats("/entry/c", []int{3}, make([]float64, 3))
	src.AddFloats("/entry/d", []int{10, 2}, make([]float64, 20))
	src.AddScalar("/entry/temp", 300)

	plan := classify(t, src)

	assert.Equal(t, nexus.StrategyShape, plan.Strategy)
	assert.Equal(t, []int{10}, plan.ScanShape)

	require.Len(t, plan.Columns, 2)
	assert.Equal(t, "a", plan.Columns[0].Name)
	assert.Equal(t, "b", plan.Columns[1].Name)

	require.Len(t, plan.Meta, 1)
	assert.Equal(t, "temp", plan.Meta[0].Name)
}

func TestClassifyShapeStrategyWithoutArrays(t *testing.T) {
	src := hdf.NewMemSource("scan_0001")
	src.AddScalar("/entry/temp", 300)
	src.AddScalar("/entry/gain", 2)

	plan := classify(t, src)

	assert.Equal(t, nexus.StrategyShape, plan.Strategy)
	assert.Nil(t, plan.ScanShape)
	assert.Empty(t, plan.Columns)
	assert.Len(t, plan.Meta, 2)
}

func TestClassifyRequiredFieldsFromDatasets(t *testing.T) {
	src := hdf.NewMemSource("whatever")
	src.AddStrings("/entry/entry_identifier", "12345")
	src.AddStrings("/entry/scan_command", "scan x 0 10 1")
	src.AddStrings("/entry/start_time", "2024-01-02T03:04:05.000000+0000")
	src.AddStrings("/entry/scan_header", " &SRS", " SRSRUN=12345,")

	plan := classify(t, src)

	assert.Equal(t, 12345, plan.RunID)
	assert.Equal(t, "scan x 0 10 1", plan.Command)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), plan.Time.UTC())
	assert.Equal(t, []string{" &SRS", " SRSRUN=12345,"}, plan.HeaderLines)
}

func TestClassifyRequiredFieldFallbacks(t *testing.T) {
	src := hdf.NewMemSource("i22-0042731")
	mod := time.Date(2023, 6, 1, 9, 0, 0, 0, time.UTC)
	src.SetModTime(mod)

	plan := classify(t, src)

	// Run number comes from the file stem, the rest from defaults.
	assert.Equal(t, 42731, plan.RunID)
	assert.Equal(t, "", plan.Command)
	assert.Equal(t, mod, plan.Time)
	assert.Nil(t, plan.HeaderLines)
}

func TestClassifyTimestampOffsetAndFractionVariants(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  time.Time
	}{
		{
			name:  "colonized offset",
			value: "2024-01-02T03:04:05.000000+01:00",
			want:  time.Date(2024, 1, 2, 2, 4, 5, 0, time.UTC),
		},
		{
			name:  "short fraction",
			value: "2024-01-02T03:04:05.184+0000",
			want:  time.Date(2024, 1, 2, 3, 4, 5, 184000000, time.UTC),
		},
		{
			name:  "no fraction zulu",
			value: "2024-01-02T03:04:05Z",
			want:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := hdf.NewMemSource("scan_0001")
			src.AddStrings("/entry/start_time", tc.value)

			plan := classify(t, src)

			assert.True(t, plan.Time.Equal(tc.want),
				"parsed %s as %s, want %s", tc.value, plan.Time, tc.want)
		})
	}
}

func TestClassifyUnparseableTimestampUsesFileTime(t *testing.T) {
	src := hdf.NewMemSource("scan_0001")
	mod := time.Date(2023, 6, 1, 9, 0, 0, 0, time.UTC)
	src.SetModTime(mod)
	src.AddStrings("/entry/start_time", "yesterday, around noon")

	plan := classify(t, src)

	assert.Equal(t, mod, plan.Time)
}

func TestClassifyDiscoversDetectorGroups(t *testing.T) {
	src := hdf.NewMemSource("scan_9001")
	src.AddGroup("/entry/instrument/pilatus", "NXdetector")
	src.AddFloats("/entry/instrument/pilatus/data", []int{2, 4, 4}, make([]float64, 32))
	src.AddGroup("/entry/instrument/bare", "NXdetector") // no data child

	plan := classify(t, src)

	require.Len(t, plan.Detectors, 1)
	det := plan.Detectors[0]
	assert.Equal(t, "pilatus", det.Name)
	assert.Equal(t, "/entry/instrument/pilatus/data", det.Path)
	assert.Equal(t, "9001-pilatus-files/%05d.tif", det.Template)

	require.Len(t, plan.Templates, 1)
	assert.Equal(t, "pilatus_path_template", plan.Templates[0].Name)
	assert.Equal(t, "9001-pilatus-files/%05d.tif", plan.Templates[0].Value)
}

func TestClassifyLegacyImageDataYieldsTemplateOnly(t *testing.T) {
	src := hdf.NewMemSource("scan_0001")
	src.AddStrings("/entry/image_data",
		"1234-pilatus-files/00001.tif", "1234-pilatus-files/00002.tif")

	plan := classify(t, src)

	assert.Empty(t, plan.Detectors)
	require.Len(t, plan.Templates, 1)
	assert.Equal(t, "pilatus_path_template", plan.Templates[0].Name)
	assert.Equal(t, "1234-pilatus-files/%05d.tif", plan.Templates[0].Value)
}

func TestClassifyLegacyImageDataWithoutHyphenatedDir(t *testing.T) {
	src := hdf.NewMemSource("scan_0001")
	src.AddStrings("/entry/image_data", "images/00001.tif", "images/00002.tif")

	plan := classify(t, src)

	require.Len(t, plan.Templates, 1)
	assert.Equal(t, "detector_path_template", plan.Templates[0].Name)
	assert.Equal(t, "images/%05d.tif", plan.Templates[0].Value)
}

func TestClassifyAliasedColumnClaimedOnce(t *testing.T) {
	src := hdf.NewMemSource("scan_0001")
	src.AddStrings("/entry/scan_fields", "x")
	x := src.AddFloats("/entry/instrument/stage/x", []int{3}, []float64{1, 2, 3})
	src.AddAlias("/entry/measurement/x", x)

	plan := classify(t, src)

	require.Len(t, plan.Columns, 1)
	assert.Empty(t, plan.Meta)
}
