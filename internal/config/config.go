// Copyright 2026 OctoQL, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides configuration management for octoql with support
// for multiple configuration sources and a well-defined precedence order.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. Operation-specific configuration
//  4. Configuration file
//  5. Built-in defaults
//
// The package supports YAML configuration files and provides automatic
// discovery of configuration in standard locations. It's designed to work
// seamlessly with GitHub Enterprise deployments through a configurable
// GraphQL endpoint.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from multiple sources and applies them in
// the correct precedence order. If configPath is provided, it loads from
// that specific file. Otherwise, it searches standard locations:
//   - .octoql.yaml (current directory)
//   - .octoql.yml (current directory)
//   - ~/.octoql/config.yaml
//   - ~/.octoql/config.yml
//
// Environment variables are applied after loading the config file, allowing
// runtime overrides.
//
// Returns an error if the specified config file cannot be loaded, but will
// succeed with defaults if no config file is found in standard locations.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		defaultPaths := []string{
			".octoql.yaml",
			".octoql.yml",
			filepath.Join(os.Getenv("HOME"), ".octoql", "config.yaml"),
			filepath.Join(os.Getenv("HOME"), ".octoql", "config.yml"),
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// loadConfigFile reads and parses a YAML config file
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	if endpoint := os.Getenv("GITHUB_GRAPHQL_ENDPOINT"); endpoint != "" {
		cfg.GitHub.GraphQLEndpoint = endpoint
	}

	if pageSize := os.Getenv("OCTOQL_PAGE_SIZE"); pageSize != "" {
		if size, err := parsePositiveInt(pageSize); err == nil {
			cfg.Defaults.PageSize = size
		}
	}
	if maxItems := os.Getenv("OCTOQL_MAX_ITEMS"); maxItems != "" {
		if n, err := parsePositiveInt(maxItems); err == nil {
			cfg.Defaults.MaxItems = n
		}
	}
	if maxWait := os.Getenv("OCTOQL_RATE_LIMIT_MAX_WAIT"); maxWait != "" {
		if n, err := parsePositiveInt(maxWait); err == nil {
			cfg.RateLimit.MaxWaitSeconds = n
		}
	}
	if level := os.Getenv("OCTOQL_LOG_LEVEL"); level != "" {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(level))
	}
}

// parsePositiveInt parses a string to a positive integer
func parsePositiveInt(s string) (int, error) {
	var i int
	_, err := fmt.Sscanf(s, "%d", &i)
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}

// PageSize returns the effective page size for an operation, taking
// operation-specific overrides into account.
func (c *Config) PageSize(operation string) int {
	if opCfg, ok := c.Operations[operation]; ok && opCfg.PageSize > 0 {
		return opCfg.PageSize
	}
	return c.Defaults.PageSize
}

// MaxPages returns the effective page cap for an operation.
func (c *Config) MaxPages(operation string) int {
	if opCfg, ok := c.Operations[operation]; ok && opCfg.MaxPages > 0 {
		return opCfg.MaxPages
	}
	return c.Defaults.MaxPages
}

// MaxItems returns the effective item cap for an operation.
func (c *Config) MaxItems(operation string) int {
	if opCfg, ok := c.Operations[operation]; ok && opCfg.MaxItems > 0 {
		return opCfg.MaxItems
	}
	return c.Defaults.MaxItems
}

// Validate checks if the configuration contains valid values. It ensures
// page sizes are within GitHub's limits, pagination caps are finite, the
// endpoint is not empty, and other constraints are met. This should be
// called after loading configuration to catch invalid settings early.
func (c *Config) Validate() error {
	if c.Defaults.PageSize <= 0 {
		return fmt.Errorf("default page size must be positive, got: %d", c.Defaults.PageSize)
	}
	if c.Defaults.PageSize > 100 {
		return fmt.Errorf("default page size %d exceeds GitHub API limit of 100", c.Defaults.PageSize)
	}
	if c.Defaults.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive and finite, got: %d", c.Defaults.MaxPages)
	}
	if c.Defaults.MaxItems <= 0 {
		return fmt.Errorf("max items must be positive and finite, got: %d", c.Defaults.MaxItems)
	}
	if c.Defaults.AttemptTimeoutSeconds <= 0 {
		return fmt.Errorf("attempt timeout must be positive, got: %d", c.Defaults.AttemptTimeoutSeconds)
	}
	if c.GitHub.GraphQLEndpoint == "" {
		return fmt.Errorf("GitHub GraphQL endpoint cannot be empty")
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative, got: %d", c.Retry.MaxRetries)
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive, got: %v", c.RateLimit.RequestsPerSecond)
	}
	if c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit burst must be positive, got: %d", c.RateLimit.Burst)
	}
	for name, opCfg := range c.Operations {
		if opCfg.PageSize > 100 {
			return fmt.Errorf("page size %d for operation %q exceeds GitHub API limit of 100", opCfg.PageSize, name)
		}
	}
	return nil
}
