package main

import (
	"os"

	"github.com/Laisky/errors/v2"
	"gopkg.in/yaml.v3"
)

type sweepConfig struct {
	Scenarios []scenario `yaml:"scenarios"`
}

// loadScenarios reads and validates the YAML scenario file.
func loadScenarios(path string) ([]scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read scenario file %q", path)
	}

	var cfg sweepConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse scenario file %q", path)
	}
	if len(cfg.Scenarios) == 0 {
		return nil, errors.Errorf("no scenarios defined in %q", path)
	}

	seen := make(map[string]bool, len(cfg.Scenarios))
	for i := range cfg.Scenarios {
		sc := &cfg.Scenarios[i]
		if err := sc.validate(); err != nil {
			return nil, errors.Wrapf(err, "scenario %d", i)
		}
		if seen[sc.Name] {
			return nil, errors.Errorf("duplicate scenario name %q", sc.Name)
		}
		seen[sc.Name] = true
	}

	return cfg.Scenarios, nil
}
