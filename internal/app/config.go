package app

import (
	"io"

	"commoners/internal/planner"
	"commoners/internal/process"
	"commoners/pkg/logging"
)

// Config holds the application configuration
type Config struct {
	// Debug settings
	Debug     bool
	Silent    bool
	LogLevel  string
	LogFormat logging.Format

	// Root is the project directory.
	Root string
	// ConfigPath overrides config file discovery in Root (optional).
	ConfigPath string
	// OutDir overrides the configured output directory (optional).
	OutDir string

	Target   string
	Platform string

	// Build settings
	Scope   planner.Scope
	Publish string
	DryRun  bool

	// Dev settings
	MetricsAddr string
	Watch       bool

	// Launch settings
	Port int

	// Spawner runs every external process. Defaults to process.Exec.
	Spawner process.Spawner
	// Stdout receives tables and other command output.
	Stdout io.Writer
}

// NewConfig creates a new application configuration
func NewConfig(root string, debug bool) *Config {
	return &Config{
		Debug:     debug,
		LogFormat: logging.FormatText,
		Root:      root,
		Scope:     planner.ScopeFromFlags(false, false, nil),
		Watch:     true,
	}
}
