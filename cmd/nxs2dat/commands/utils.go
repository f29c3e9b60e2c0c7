/*
File: utils.go
Description: Shared utilities for the nxs2dat commands. Provides common
configuration loading, logging setup, and schema construction used across
all command implementations.
*/

package commands

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/kleascm/nexus2srs/pkg/logging"
	"github.com/kleascm/nexus2srs/pkg/nexus"
)

// Shared logger instance for all commands
var logger *logging.Logger

// LoadConfig loads configuration from files and environment
func LoadConfig() error {
	// Set config file if specified
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("NEXUS2SRS")
	viper.AutomaticEnv()

	return nil
}

// SetupLogging configures the logging system
func SetupLogging() error {
	config := &logging.LoggerConfig{
		Level:     logging.LogLevel(viper.GetString("log_level")),
		Format:    logging.LogFormat(viper.GetString("log_format")),
		OutputDir: viper.GetString("log_dir"),
		Timestamp: true,
		Colors:    true,
	}

	var err error
	logger, err = logging.NewLogger(config)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	return nil
}

// BuildSchema assembles the dialect configuration, starting from the
// default convention names and applying any overrides from configuration.
func BuildSchema() nexus.Schema {
	schema := nexus.DefaultSchema()

	if v := viper.GetString("schema.scan_fields"); v != "" {
		schema.ScanFields = v
	}
	if v := viper.GetString("schema.measurement"); v != "" {
		schema.Measurement = v
	}
	if v := viper.GetString("schema.positioners"); v != "" {
		schema.Positioners = v
	}
	if v := viper.GetString("schema.before_scan"); v != "" {
		schema.BeforeScan = v
	}
	if v := viper.GetString("schema.time_format"); v != "" {
		schema.TimeFormat = v
	}
	if v := viper.GetInt("schema.column_width"); v > 0 {
		schema.ColumnWidth = v
	}
	return schema
}
