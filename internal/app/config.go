package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ParPath is a parameter-definition file or a directory of .pdef files.
	ParPath string
	// ValuesPath optionally names a JCAMP-DX acqus file to seed values from.
	ValuesPath string
	// VDListPath optionally names a variable-delay list file; its delays
	// are loaded as the VD array.
	VDListPath string
	// Sets holds NAME=VALUE change requests from the command line.
	Sets []string
	// ProfilePath optionally names a YAML run profile.
	ProfilePath string
	// CheckOnly stops after loading, validation and the cycle check.
	CheckOnly bool

	LogFormat string
	LogLevel  string

	// profileSets holds change requests merged in from the profile; the
	// command line wins on conflicts.
	profileSets map[string]float64
}

// NewConfig validates a Config and applies the profile file, if any.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ParPath == "" {
		return nil, errors.New("a parameter-definition path is required")
	}

	if cfg.ProfilePath != "" {
		profile, err := LoadProfile(cfg.ProfilePath)
		if err != nil {
			return nil, err
		}
		cfg.applyProfile(profile)
	}

	return &cfg, nil
}
