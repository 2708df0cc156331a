package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a configuration file.
//
// The file format is determined by extension:
//   - .yaml, .yml -> YAML
//   - .json -> JSON
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data, path)
}

// Parse checks data against the schema and decodes it over Default. The
// format is taken from the extension of path and defaults to YAML.
func Parse(data []byte, path string) (*Config, error) {
	isJSON := strings.ToLower(filepath.Ext(path)) == ".json"

	var doc any
	if isJSON {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	// an empty document is the default configuration
	if doc == nil {
		return Default(), nil
	}

	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	config := Default()
	if isJSON {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(config); err != nil {
			return nil, fmt.Errorf("failed to decode JSON config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to decode YAML config: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the decoded configuration beyond what the schema covers
func (c *Config) Validate() error {
	if err := c.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}

	if c.Suite.Workers < 1 {
		return fmt.Errorf("suite.workers must be at least 1: %d", c.Suite.Workers)
	}
	if c.Suite.Timeout < 0 {
		return fmt.Errorf("suite.timeout must not be negative: %s", c.Suite.Timeout)
	}

	for _, f := range c.Report.Formats {
		switch f {
		case FormatJSON, FormatYAML, FormatText:
		default:
			return fmt.Errorf("unsupported report format: %s", f)
		}
	}

	seen := make(map[string]bool, len(c.Cases))
	for i, cs := range c.Cases {
		if err := cs.TestCase().Validate(); err != nil {
			return fmt.Errorf("cases[%d]: %w", i, err)
		}
		if seen[cs.Name] {
			return fmt.Errorf("duplicate test case name: %s", cs.Name)
		}
		seen[cs.Name] = true
	}

	return nil
}

// Save writes the configuration as YAML or JSON by extension
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
