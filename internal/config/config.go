// Package config defines batch run configuration and its loading.
//
// Conventions:
// - Defaults come from New(); Load layers a YAML file and env vars on top.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// InputDir is searched for the first roster CSV.
	InputDir string `koanf:"input_dir"`

	// OutputDir receives the updated roster and the audit file.
	OutputDir string `koanf:"output_dir"`

	// LogicDir holds jersey_numbers.json and equipment_templates.json.
	LogicDir string `koanf:"logic_dir"`

	// WorkerCount sets the number of team allocation workers.
	WorkerCount int `koanf:"worker_count"`

	// Seed drives every random draw. 0 picks a time-based seed.
	Seed int64 `koanf:"seed"`

	// Equipment enables global equipment rules and templates.
	Equipment bool `koanf:"equipment"`

	// Audit enables the jersey audit export.
	Audit bool `koanf:"audit"`

	// SockMax is the highest random sock value.
	SockMax int `koanf:"sock_max"`

	// HelmetValue is forced into the helmet column.
	HelmetValue int `koanf:"helmet_value"`

	// MetricsTextfile, when set, receives the run metrics in Prometheus text format.
	MetricsTextfile string `koanf:"metrics_textfile"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		InputDir:    "input",
		OutputDir:   "output",
		LogicDir:    "logic",
		WorkerCount: runtime.NumCPU(),
		Seed:        0,
		Equipment:   true,
		Audit:       true,
		SockMax:     2,
		HelmetValue: 5,
	}
}
