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

// Package config types define the configuration structures used throughout
// octoql. These types represent settings that can be loaded from YAML
// configuration files, environment variables, or command-line flags.
package config

// Config represents the complete configuration for octoql. It consolidates
// settings from various sources and provides a unified interface for
// accessing configuration values throughout the application.
type Config struct {
	GitHub     GitHubConfig        `yaml:"github"`
	Defaults   DefaultsConfig      `yaml:"defaults"`
	Operations map[string]OpConfig `yaml:"operations"`
	Retry      RetryConfig         `yaml:"retry"`
	RateLimit  RateLimitConfig     `yaml:"rate_limit"`
	Log        LogConfig           `yaml:"log"`
}

// GitHubConfig contains GitHub-specific settings including the GraphQL
// endpoint and authentication configuration. This allows easy configuration
// for GitHub Enterprise deployments by specifying a custom endpoint.
type GitHubConfig struct {
	GraphQLEndpoint string `yaml:"graphql_endpoint"`
	TokenEnv        string `yaml:"token_env"`
}

// DefaultsConfig contains default settings that apply to all operations
// unless overridden by operation-specific settings or tool arguments.
// These settings bound the work a single tool invocation can do.
type DefaultsConfig struct {
	PageSize              int `yaml:"page_size"`
	MaxPages              int `yaml:"max_pages"`
	MaxItems              int `yaml:"max_items"`
	AttemptTimeoutSeconds int `yaml:"attempt_timeout_seconds"`
}

// OpConfig contains operation-specific overrides that allow fine-tuning
// pagination for individual tools. This is useful when certain operations
// return large nodes and need smaller pages.
type OpConfig struct {
	PageSize int `yaml:"page_size"`
	MaxPages int `yaml:"max_pages"`
	MaxItems int `yaml:"max_items"`
}

// RetryConfig controls the retry behavior for transient upstream failures.
type RetryConfig struct {
	MaxRetries        int     `yaml:"max_retries"`
	InitialBackoffMS  int     `yaml:"initial_backoff_ms"`
	MaxBackoffMS      int     `yaml:"max_backoff_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
}

// RateLimitConfig controls the shared token bucket that paces outbound
// GraphQL requests, and the adaptive delay driven by GitHub's rate limit
// headers. MaxWaitSeconds is the ceiling beyond which a rate limited
// invocation fails instead of waiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	LowWater          int     `yaml:"low_water"`
	MaxWaitSeconds    int     `yaml:"max_wait_seconds"`
}

// LogConfig controls the structured logger. Logs always go to stderr since
// stdout carries the MCP protocol stream.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults suitable for most
// use cases. These defaults are optimized for public GitHub.com usage but
// can be overridden for GitHub Enterprise or special requirements.
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			GraphQLEndpoint: "https://api.github.com/graphql",
			TokenEnv:        "GITHUB_TOKEN",
		},
		Defaults: DefaultsConfig{
			PageSize:              50,
			MaxPages:              10,
			MaxItems:              500,
			AttemptTimeoutSeconds: 30,
		},
		Operations: make(map[string]OpConfig),
		Retry: RetryConfig{
			MaxRetries:        3,
			InitialBackoffMS:  1000,
			MaxBackoffMS:      30000,
			BackoffMultiplier: 2.0,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			Burst:             5,
			LowWater:          50,
			MaxWaitSeconds:    60,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
