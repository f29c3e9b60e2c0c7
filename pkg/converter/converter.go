/*
File: converter.go
Description: Conversion pipeline. Drives one scan file through the tree
indexer, the schema classifier, the record builder and the serializer, and
provides the batch entry points the command layer calls: single file
conversion, directory synchronization into a spool folder, and read-only
inspection.
*/

package converter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kleascm/nexus2srs/pkg/hdf"
	"github.com/kleascm/nexus2srs/pkg/images"
	"github.com/kleascm/nexus2srs/pkg/interfaces"
	"github.com/kleascm/nexus2srs/pkg/logging"
	"github.com/kleascm/nexus2srs/pkg/nexus"
	"github.com/kleascm/nexus2srs/pkg/srs"
)

// SpoolDir is the subdirectory SyncDir writes converted files into.
const SpoolDir = "spool"

// Options configures a Converter.
type Options struct {
	Schema      nexus.Schema
	Logger      *logging.Logger
	WriteImages bool
}

// Converter turns hierarchical scan files into legacy .dat files.
type Converter struct {
	schema    nexus.Schema
	log       *logging.Logger
	tiff      bool
	classify  *nexus.Classifier
	builder   *nexus.Builder
	extractor *images.Extractor
}

// New creates a converter. A zero Schema falls back to the default dialect.
func New(opts Options) *Converter {
	schema := opts.Schema
	if schema.ScanFields == "" {
		schema = nexus.DefaultSchema()
	}
	return &Converter{
		schema:    schema,
		log:       opts.Logger,
		tiff:      opts.WriteImages,
		classify:  nexus.NewClassifier(schema, opts.Logger),
		builder:   nexus.NewBuilder(opts.Logger),
		extractor: images.NewExtractor(opts.Logger),
	}
}

// ConvertFile converts one file on disk. An empty output places the .dat
// next to the input; an output naming an existing directory places it
// inside, named after the input stem.
func (c *Converter) ConvertFile(input, output string) error {
	datPath, err := resolveOutput(input, output)
	if err != nil {
		return err
	}

	src, err := hdf.Open(input)
	if err != nil {
		return err
	}
	defer src.Close()

	return c.Convert(src, datPath)
}

// Convert runs the full pipeline against an open source and writes the
// result to datPath. Image extraction, when enabled, writes detector
// frames into folders beside the .dat file.
func (c *Converter) Convert(src interfaces.Source, datPath string) error {
	inv, err := nexus.BuildInventory(src, c.schema)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", src.Name(), err)
	}

	plan := c.classify.Classify(src, inv)
	scan, meta, header := c.builder.Build(src, plan)

	if err := srs.WriteFile(datPath, header, meta, scan, c.schema.ColumnWidth); err != nil {
		return err
	}
	c.logf("wrote %s: %d columns, %d rows", datPath, len(scan.Names()), scan.Rows())

	if c.tiff && len(plan.Detectors) > 0 {
		n := c.extractor.Extract(inv, plan.Detectors, filepath.Dir(datPath))
		c.logf("extracted %d detector frames", n)
	}
	return nil
}

// Inspect runs the pipeline up to classification without writing anything.
func (c *Converter) Inspect(src interfaces.Source) (*nexus.ScanPlan, error) {
	inv, err := nexus.BuildInventory(src, c.schema)
	if err != nil {
		return nil, fmt.Errorf("indexing %s: %w", src.Name(), err)
	}
	return c.classify.Classify(src, inv), nil
}

// SyncDir converts every scan file of a directory into its spool
// subdirectory, skipping files already converted. Per-file failures are
// logged and counted, not fatal, so one bad file cannot stall a beamline
// sync. Returns the number of files converted and skipped.
func (c *Converter) SyncDir(dir string) (converted, skipped int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("reading %s: %w", dir, err)
	}

	spool := filepath.Join(dir, SpoolDir)
	if err := os.MkdirAll(spool, 0o755); err != nil {
		return 0, 0, fmt.Errorf("creating %s: %w", spool, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".nxs") {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		datPath := filepath.Join(spool, stem+".dat")
		if _, statErr := os.Stat(datPath); statErr == nil {
			skipped++
			continue
		}
		if convErr := c.ConvertFile(filepath.Join(dir, entry.Name()), datPath); convErr != nil {
			c.warnf("skipping %s: %v", entry.Name(), convErr)
			continue
		}
		converted++
	}
	return converted, skipped, nil
}

// resolveOutput applies the output defaulting rules.
func resolveOutput(input, output string) (string, error) {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	switch {
	case output == "":
		return filepath.Join(filepath.Dir(input), stem+".dat"), nil
	default:
		if info, err := os.Stat(output); err == nil && info.IsDir() {
			return filepath.Join(output, stem+".dat"), nil
		}
		return output, nil
	}
}

func (c *Converter) logf(format string, args ...interface{}) {
	if c.log != nil {
		c.log.Info(format, args...)
	}
}

func (c *Converter) warnf(format string, args ...interface{}) {
	if c.log != nil {
		c.log.Warn(format, args...)
	}
}
