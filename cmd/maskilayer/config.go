package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries every knob of the tool. A YAML job file can set any of
// them; flags given on the command line win over file values.
type Config struct {
	Back    string `yaml:"back"`
	Comp    string `yaml:"comp"`
	Out     string `yaml:"out"`
	Smask   string `yaml:"smask"`
	Masks   string `yaml:"masks"`
	IMasks  string `yaml:"imasks"`
	Norm    int    `yaml:"norm"`
	Verbose bool   `yaml:"verbose"`
	Fast    bool   `yaml:"fast"`

	Automask  string  `yaml:"automask"`
	Clusters  int     `yaml:"clusters"`
	Tolerance float64 `yaml:"tolerance"`
	Feather   float64 `yaml:"feather"`
}

func defaultConfig() Config {
	return Config{
		Clusters:  2,
		Tolerance: 0.3,
	}
}

// loadConfig reads a YAML job file on top of the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// mergeConfig folds explicitly set command line flags over file values.
func mergeConfig(file, flags Config, set map[string]bool) Config {
	out := file
	if set["back"] {
		out.Back = flags.Back
	}
	if set["comp"] {
		out.Comp = flags.Comp
	}
	if set["out"] {
		out.Out = flags.Out
	}
	if set["smask"] {
		out.Smask = flags.Smask
	}
	if set["masks"] {
		out.Masks = flags.Masks
	}
	if set["imasks"] {
		out.IMasks = flags.IMasks
	}
	if set["norm"] {
		out.Norm = flags.Norm
	}
	if set["verbose"] {
		out.Verbose = flags.Verbose
	}
	if set["fast"] {
		out.Fast = flags.Fast
	}
	if set["automask"] {
		out.Automask = flags.Automask
	}
	if set["clusters"] {
		out.Clusters = flags.Clusters
	}
	if set["tolerance"] {
		out.Tolerance = flags.Tolerance
	}
	if set["feather"] {
		out.Feather = flags.Feather
	}
	return out
}
