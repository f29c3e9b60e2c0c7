/*
File: inspect.go
Description: Inspect command implementation for nxs2dat. Classifies a scan
file without writing output and prints what a conversion would produce:
the matched strategy, the scan columns, the metadata fields and the
detector image references.
*/

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kleascm/nexus2srs/pkg/converter"
	"github.com/kleascm/nexus2srs/pkg/hdf"
)

// RunInspect classifies a file and reports the resulting plan
func RunInspect(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := SetupLogging(); err != nil {
		return err
	}

	src, err := hdf.Open(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	conv := converter.New(converter.Options{
		Schema: BuildSchema(),
		Logger: logger,
	})
	plan, err := conv.Inspect(src)
	if err != nil {
		return err
	}

	fmt.Printf("File:     %s\n", args[0])
	fmt.Printf("Strategy: %s\n", plan.Strategy)
	fmt.Printf("Run:      %d\n", plan.RunID)
	fmt.Printf("Command:  %q\n", plan.Command)
	fmt.Printf("Date:     %s\n", plan.Time.Format("Mon Jan 02 15:04:05 2006"))

	fmt.Printf("\nScan columns (%d):\n", len(plan.Columns))
	for _, col := range plan.Columns {
		fmt.Printf("  %-24s %v  %s\n", col.Name, col.Entry.Shape, col.Entry.Path)
	}
	for _, name := range plan.Unresolved {
		fmt.Printf("  %-24s (declared but not available)\n", name)
	}

	fmt.Printf("\nMetadata fields: %d\n", len(plan.Meta))

	if len(plan.Detectors) > 0 {
		fmt.Printf("\nDetectors (%d):\n", len(plan.Detectors))
		for _, det := range plan.Detectors {
			fmt.Printf("  %-24s %s -> %s\n", det.Name, det.Path, det.Template)
		}
	}
	return nil
}
