// Copyright 2026 The Cleanplate Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the optional cleanplate configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"cleanplate.dev/go/infer"
)

// Config holds the settings read from a configuration file.
type Config struct {
	// ArrayFields replaces the attribute names that are always shaped as
	// lists. A nil value keeps the default; an empty list disables the rule.
	ArrayFields []string `yaml:"arrayFields"`

	// Ignore lists extra variable names that are never tracked.
	Ignore []string `yaml:"ignore"`

	// Workers bounds the number of templates analyzed concurrently in
	// batch mode. Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a configuration from YAML. Unknown keys are an error.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("invalid config: workers must not be negative, got %d", c.Workers)
	}
	for _, list := range []struct {
		key   string
		names []string
	}{
		{"arrayFields", c.ArrayFields},
		{"ignore", c.Ignore},
	} {
		for _, name := range list.names {
			if name == "" || strings.Contains(name, ".") {
				return fmt.Errorf("invalid config: %s: %q is not a plain name", list.key, name)
			}
		}
	}
	return nil
}

// InferOptions returns the analysis options described by c.
// A nil Config yields no options.
func (c *Config) InferOptions() []infer.Option {
	if c == nil {
		return nil
	}
	var opts []infer.Option
	if c.ArrayFields != nil {
		opts = append(opts, infer.ArrayFields(c.ArrayFields...))
	}
	if len(c.Ignore) > 0 {
		opts = append(opts, infer.Ignore(c.Ignore...))
	}
	return opts
}
