package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is an optional YAML run profile, useful when the same definition
// set is exercised repeatedly against different value files or overrides.
// Command-line flags take precedence over profile entries.
type Profile struct {
	// Values names a JCAMP-DX file to seed the value store from.
	Values string `yaml:"values"`
	// VDList names a variable-delay list file.
	VDList string `yaml:"vdlist"`
	// Set maps parameter names to requested values.
	Set map[string]float64 `yaml:"set"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// LoadProfile reads and decodes a YAML run profile.
func LoadProfile(path string) (*Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return &p, nil
}

// applyProfile fills in configuration the command line left blank.
func (c *Config) applyProfile(p *Profile) {
	if c.ValuesPath == "" {
		c.ValuesPath = p.Values
	}
	if c.VDListPath == "" {
		c.VDListPath = p.VDList
	}
	if c.LogLevel == "" {
		c.LogLevel = p.Log.Level
	}
	if c.LogFormat == "" {
		c.LogFormat = p.Log.Format
	}
	if len(p.Set) > 0 {
		c.profileSets = make(map[string]float64, len(p.Set))
		for name, v := range p.Set {
			c.profileSets[name] = v
		}
	}
}
