/*
File: convert.go
Description: Convert command implementation for nxs2dat. Converts a single
scan file to the legacy .dat format, or synchronizes a whole data directory
into its spool folder when pointed at a directory.
*/

package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kleascm/nexus2srs/pkg/converter"
)

// RunConvert executes conversions. Arguments are scan files, each
// optionally followed by an output file or directory; a data directory
// argument synchronizes the whole directory into its spool folder.
func RunConvert(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := SetupLogging(); err != nil {
		return err
	}

	conv := converter.New(converter.Options{
		Schema:      BuildSchema(),
		Logger:      logger,
		WriteImages: viper.GetBool("tiff"),
	})

	count := 0
	var firstErr error
	for i := 0; i < len(args); {
		input := args[i]
		i++

		info, err := os.Stat(input)
		if err != nil {
			logger.Error("cannot read %s: %v", input, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if info.IsDir() {
			converted, skipped, err := conv.SyncDir(input)
			if err != nil {
				logger.Error("sync of %s failed: %v", input, err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			count += converted
			logger.Debug("synchronized %s: %d converted, %d up to date", input, converted, skipped)
			continue
		}

		output := ""
		if i < len(args) && isOutputArg(args[i]) {
			output = args[i]
			i++
		}
		if err := conv.ConvertFile(input, output); err != nil {
			logger.Error("conversion of %s failed: %v", input, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		count++
	}

	logger.Info("Completed %d conversions", count)
	if count == 0 && firstErr != nil {
		return firstErr
	}
	return nil
}

// isOutputArg reports whether an argument names a conversion output: a
// .dat file or an existing directory, rather than the next input.
func isOutputArg(arg string) bool {
	if strings.EqualFold(filepath.Ext(arg), ".dat") {
		return true
	}
	info, err := os.Stat(arg)
	return err == nil && info.IsDir()
}
