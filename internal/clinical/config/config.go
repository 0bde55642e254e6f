// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads pipeline configuration from YAML, mirroring the
// teacher's internal/config/config.go shape: a flat yaml-tagged struct
// with a Validate method that fails closed on nonsensical values.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderConfig describes one LLM provider entry for the Gateway
// (§6: model identifier, cost-per-token, timeout, credential source).
type ProviderConfig struct {
	// Name identifies the provider (e.g. "anthropic", "openai", "local").
	Name string `yaml:"name"`
	// Model is the model identifier to request from this provider.
	Model string `yaml:"model"`
	// CostPerInputTokenCents is the cost in cents per input token.
	CostPerInputTokenCents float64 `yaml:"cost-per-input-token-cents"`
	// CostPerOutputTokenCents is the cost in cents per output token.
	CostPerOutputTokenCents float64 `yaml:"cost-per-output-token-cents"`
	// TimeoutMs is the per-attempt timeout for this provider.
	TimeoutMs int `yaml:"timeout-ms"`
	// CredentialEnvVar names the environment variable holding this
	// provider's credential; the core never logs its value (§6).
	CredentialEnvVar string `yaml:"credential-env-var"`
}

// Timeout returns TimeoutMs as a time.Duration, defaulting to 20s.
func (p ProviderConfig) Timeout() time.Duration {
	if p.TimeoutMs <= 0 {
		return 20 * time.Second
	}
	return time.Duration(p.TimeoutMs) * time.Millisecond
}

// PipelineDefaults mirrors the Options defaults from spec.md §6.
type PipelineDefaults struct {
	Style                   string `yaml:"style"`
	UseLLM                  bool   `yaml:"use-llm"`
	QualityTarget           int    `yaml:"quality-target"`
	MaxRefinementIterations int    `yaml:"max-refinement-iterations"`
	DeadlineMs              int    `yaml:"deadline-ms"`
	StrictValidation        bool   `yaml:"strict-validation"`
}

// Config is the root pipeline configuration.
type Config struct {
	// Defaults holds the packaged Options defaults.
	Defaults PipelineDefaults `yaml:"defaults"`
	// Providers is the default provider fallback order.
	Providers []ProviderConfig `yaml:"providers"`
	// KnowledgePackDir holds per-pathology knowledge pack YAML files.
	KnowledgePackDir string `yaml:"knowledge-pack-dir"`
	// WatchKnowledgePacks enables fsnotify-based hot reload of the
	// knowledge pack directory (§6-FULL).
	WatchKnowledgePacks bool `yaml:"watch-knowledge-packs"`
	// Debug enables verbose per-stage logging.
	Debug bool `yaml:"debug"`
	// LoggingToFile controls whether logs go to a rotating file.
	LoggingToFile bool `yaml:"logging-to-file"`
	// LogFilePath is the rotating log file path when LoggingToFile is set.
	LogFilePath string `yaml:"log-file-path"`
	// LogsMaxTotalSizeMB bounds the rotating log file size.
	LogsMaxTotalSizeMB int `yaml:"logs-max-total-size-mb"`
	// HealthCheckTTLMs is T_health: how long a failed provider health
	// check is remembered before being retried (§4.3).
	HealthCheckTTLMs int `yaml:"health-check-ttl-ms"`
	// MaxRetries is N_retry: retries per malformed LLM response before
	// falling back to the next provider (§4.3).
	MaxRetries int `yaml:"max-retries"`
}

// Load parses YAML configuration bytes into a validated Config.
func Load(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Defaults.Style == "" {
		c.Defaults.Style = "formal"
	}
	if c.Defaults.QualityTarget == 0 {
		c.Defaults.QualityTarget = 90
	}
	if c.Defaults.MaxRefinementIterations == 0 {
		c.Defaults.MaxRefinementIterations = 2
	}
	if c.Defaults.DeadlineMs == 0 {
		c.Defaults.DeadlineMs = 60000
	}
	if c.HealthCheckTTLMs == 0 {
		c.HealthCheckTTLMs = 60000
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 1
	}
}

// Validate fails closed on nonsensical configuration, per the teacher's
// Config.Validate pattern.
func (c *Config) Validate() error {
	if c.Defaults.QualityTarget < 0 || c.Defaults.QualityTarget > 100 {
		return fmt.Errorf("config: quality-target must be in [0,100], got %d", c.Defaults.QualityTarget)
	}
	if c.Defaults.MaxRefinementIterations < 0 || c.Defaults.MaxRefinementIterations > 5 {
		return fmt.Errorf("config: max-refinement-iterations must be in [0,5], got %d", c.Defaults.MaxRefinementIterations)
	}
	if c.Defaults.DeadlineMs < 1000 || c.Defaults.DeadlineMs > 300000 {
		return fmt.Errorf("config: deadline-ms must be in [1000,300000], got %d", c.Defaults.DeadlineMs)
	}
	for _, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("config: provider entry missing name")
		}
		if p.TimeoutMs < 0 {
			return fmt.Errorf("config: provider %s has negative timeout-ms", p.Name)
		}
	}
	return nil
}

// ProviderOrder returns the configured provider names in order.
func (c *Config) ProviderOrder() []string {
	out := make([]string, 0, len(c.Providers))
	for _, p := range c.Providers {
		out = append(out, p.Name)
	}
	return out
}
