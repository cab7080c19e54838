// Package config holds YAML configuration of the tracking and approximation pipelines
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Validator is implemented by every configuration loaded from file
type Validator interface {
	Validate() error
}

// load reads YAML file over already filled defaults and validates result
func load(path string, cfg Validator) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "Can't read config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "Can't parse config %s", path)
	}
	return cfg.Validate()
}

// save writes configuration to YAML file creating parent directories
func save(path string, cfg any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "Can't create config directory for %s", path)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "Can't marshal config")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "Can't write config %s", path)
	}
	return nil
}
