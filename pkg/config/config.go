// Copyright 2025 Farescout Authors
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

// Package config loads Farescout configuration from YAML files with
// environment variable expansion and sensible zero-config defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	Agent   AgentConfig   `yaml:"agent"`
	History HistoryConfig `yaml:"history"`
	MCP     MCPConfig     `yaml:"mcp"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Metrics bool   `yaml:"metrics"`
}

// Address returns the host:port listen address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LLMConfig configures the language model provider.
type LLMConfig struct {
	Provider    string   `yaml:"provider"`
	Model       string   `yaml:"model"`
	APIKey      string   `yaml:"api_key"`
	BaseURL     string   `yaml:"base_url"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
}

// AgentConfig configures the reasoning loop.
type AgentConfig struct {
	MaxIterations int    `yaml:"max_iterations"`
	Instruction   string `yaml:"instruction"`
}

// HistoryConfig configures the conversation store.
type HistoryConfig struct {
	// MaxTurns caps stored turns per conversation. Zero means unbounded.
	MaxTurns int `yaml:"max_turns"`
}

// MCPConfig configures an optional external flight search server.
// When disabled, the built-in mock source is used.
type MCPConfig struct {
	Enabled   bool              `yaml:"enabled"`
	URL       string            `yaml:"url"`
	Transport string            `yaml:"transport"`
	Command   string            `yaml:"command"`
	Args      []string          `yaml:"args"`
	Env       map[string]string `yaml:"env"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SetDefaults fills unset fields with zero-config defaults.
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "anthropic"
	}
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "openai":
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		default:
			c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stderr"
	}
	if c.MCP.Transport == "" {
		c.MCP.Transport = "http"
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.LLM.Provider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("unsupported llm provider: %q", c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm api key is not set")
	}
	if c.Agent.MaxIterations < 0 {
		return fmt.Errorf("agent max_iterations must not be negative")
	}
	if c.History.MaxTurns < 0 {
		return fmt.Errorf("history max_turns must not be negative")
	}
	if c.MCP.Enabled {
		switch c.MCP.Transport {
		case "http", "sse":
			if c.MCP.URL == "" {
				return fmt.Errorf("mcp url is required for %s transport", c.MCP.Transport)
			}
		case "stdio":
			if c.MCP.Command == "" {
				return fmt.Errorf("mcp command is required for stdio transport")
			}
		default:
			return fmt.Errorf("unsupported mcp transport: %q", c.MCP.Transport)
		}
	}
	return nil
}

// Load reads a YAML config file, expands environment variables in its
// values and applies defaults. An empty path yields the zero-config
// defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if err := LoadDotEnvForConfig(path); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := unmarshalExpanded(data, cfg); err != nil {
			return nil, err
		}
	} else {
		if err := LoadDotEnv(); err != nil {
			return nil, err
		}
	}

	cfg.SetDefaults()
	return cfg, nil
}

// unmarshalExpanded decodes YAML after expanding ${VAR} references in
// every string value.
func unmarshalExpanded(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	expanded := ExpandEnvVarsInData(raw)

	out, err := yaml.Marshal(expanded)
	if err != nil {
		return fmt.Errorf("failed to re-encode config: %w", err)
	}
	if err := yaml.Unmarshal(out, cfg); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}
