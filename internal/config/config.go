// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config loads the hwsynth configuration file.
//
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/circuitlab/hwsim"
	"github.com/circuitlab/hwsim/drc"
	"github.com/circuitlab/hwsim/synth"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

// FileName is the configuration file looked up in the working directory.
//
const FileName = "hwsim.json"

// Config is the top-level configuration.
//
type Config struct {
	Simulation Simulation   `json:"simulation"`
	Layout     synth.Layout `json:"layout"`
	DRC        drc.Config   `json:"drc"`
	Log        Log          `json:"log"`
}

// Simulation holds simulation settings.
//
type Simulation struct {
	// Passes is the number of relaxation passes after the first one.
	Passes int `json:"passes"`
}

// Log holds logging settings.
//
type Log struct {
	// Verbosity is the logr verbosity: 0 logs warnings, 1 adds tracing.
	Verbosity int `json:"verbosity"`
}

// DefaultConfig returns the configuration used when no file is found.
//
func DefaultConfig() *Config {
	return &Config{
		Simulation: Simulation{Passes: hwsim.DefaultPasses},
		Layout:     synth.DefaultLayout(),
		DRC:        drc.Config{MaxFanout: drc.DefaultMaxFanout},
	}
}

// SearchPaths returns the files Load looks for, in order:
//
//	./hwsim.json
//	./.hwsim.json
//	~/.config/hwsim/config.json
//
func SearchPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, FileName), filepath.Join(cwd, "."+FileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "hwsim", "config.json"))
	}
	return paths
}

// Load loads the first configuration file found in SearchPaths, or returns
// DefaultConfig if there is none.
//
func Load() (*Config, error) {
	for _, p := range SearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return DefaultConfig(), nil
}

// LoadFile loads the configuration file at path. Settings missing from the
// file keep their default value.
//
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config file %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return cfg, nil
}

// Validate checks value ranges.
//
func (c *Config) Validate() error {
	if c.Simulation.Passes < 0 {
		return errors.Errorf("simulation.passes must not be negative, got %d", c.Simulation.Passes)
	}
	if c.DRC.MaxFanout < 0 {
		return errors.Errorf("drc.maxFanout must not be negative, got %d", c.DRC.MaxFanout)
	}
	if c.Layout.MinSpacing <= 0 {
		return errors.Errorf("layout.minSpacing must be strictly positive, got %g", c.Layout.MinSpacing)
	}
	return nil
}

// SynthOptions returns the synthesis options for c.
//
func (c *Config) SynthOptions(log logr.Logger) *synth.Options {
	return &synth.Options{Layout: c.Layout, Passes: c.Simulation.Passes, Log: log}
}
