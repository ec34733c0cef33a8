package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RelayFileConfig mirrors relay serve's flags for operators who prefer
// a checked-in file over a long flag line.
type RelayFileConfig struct {
	Addr        string `yaml:"addr"`
	DataDir     string `yaml:"dataDir"`
	JWTSecret   string `yaml:"jwtSecret"`
	MaxFragment int    `yaml:"maxFragment"`
	FragmentTTL int64  `yaml:"fragmentTTL"`
}

// loadRelayConfig reads a YAML config file. Zero-valued fields leave
// the corresponding flag default untouched.
func loadRelayConfig(path string) (RelayFileConfig, error) {
	var cfg RelayFileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
