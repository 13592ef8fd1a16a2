// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ModelConfig holds settings for the language-model client.
type ModelConfig struct {
	// Model is the model identifier (e.g. "moonshotai/kimi-k2-instruct").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the model API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint. Empty uses the provider default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Timeout bounds a single model call. A timeout surfaces as a distinct,
	// retry-eligible error, never as a refusal (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxRetries is the number of transport-level retries on rate limiting
	// (default 0: the pipeline never retries; retry policy belongs to callers).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// StoreConfig holds settings for the document registry's persistence.
type StoreConfig struct {
	// DataDir is the directory holding the registry database (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// ServerConfig holds settings for the HTTP surface.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// MaxQuestionLength rejects questions longer than this (default 1000).
	MaxQuestionLength int `json:"max_question_length" yaml:"max_question_length"`

	// ShutdownTimeout bounds graceful shutdown (default 10s).
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// WithDefaults returns a copy with zero values replaced by defaults.
func (c ServerConfig) WithDefaults() ServerConfig {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.MaxQuestionLength <= 0 {
		c.MaxQuestionLength = 1000
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	return c
}

// PipelineConfig groups all configuration for the answer engine.
type PipelineConfig struct {
	Model  ModelConfig  `json:"model" yaml:"model"`
	Store  StoreConfig  `json:"store" yaml:"store"`
	Server ServerConfig `json:"server" yaml:"server"`
}

// WithDefaults returns a copy with zero values replaced by defaults.
func (c PipelineConfig) WithDefaults() PipelineConfig {
	if c.Model.Timeout <= 0 {
		c.Model.Timeout = 60 * time.Second
	}
	if c.Store.DataDir == "" {
		c.Store.DataDir = "data"
	}
	c.Server = c.Server.WithDefaults()
	return c
}
