/*
File: main.go
Description: Main command-line interface for nxs2dat. Provides the convert
and inspect commands with configuration management and logging options for
turning NeXus scan files into legacy SRS .dat files.
*/

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kleascm/nexus2srs/cmd/nxs2dat/commands"
)

var (
	// Configuration
	configFile string
	logLevel   string
	logFormat  string
	logDir     string

	// Conversion configuration
	writeTiff bool
)

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:   "nxs2dat",
		Short: "nxs2dat - NeXus to SRS .dat converter",
		Long: `nxs2dat converts NeXus/HDF5 scan files into the legacy SRS .dat text
format. It infers the scan layout from the file itself, so files written by
different acquisition setups convert without per-beamline configuration,
and it can extract detector frames as numbered TIFF files alongside the
converted output.`,
		Version: "1.0.0",
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "custom", "Log format (text, json, custom)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Log output directory (empty = stdout only)")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log_dir", rootCmd.PersistentFlags().Lookup("log-dir"))

	// Add convert command
	convertCmd := &cobra.Command{
		Use:   "convert <input.nxs [output.dat|directory]>... | <directory>",
		Short: "Convert scan files, or synchronize a data directory",
		Long: `Convert NeXus scan files to SRS .dat format. Each input may be followed
by an output file or directory; with no output argument the .dat file is
written next to the input. Pointed at a directory, convert processes every
scan file into the directory's spool folder, skipping files already
converted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: commands.RunConvert,
	}

	convertCmd.Flags().BoolVar(&writeTiff, "tiff", false, "Extract detector frames as TIFF files")
	viper.BindPFlag("tiff", convertCmd.Flags().Lookup("tiff"))

	rootCmd.AddCommand(convertCmd)

	// Add inspect command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "inspect <input.nxs>",
		Short: "Show how a scan file would convert, without writing output",
		Long: `Classify a scan file and report the layout strategy that matched, the
scan columns, the metadata fields and any detector image references. Useful
for checking a file before converting, and for debugging files that convert
unexpectedly.`,
		Args: cobra.ExactArgs(1),
		RunE: commands.RunInspect,
	})

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
