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

// Command farescout is the flight search assistant server.
//
// Usage:
//
//	farescout serve --config config.yaml
//	farescout serve --provider anthropic --model claude-sonnet-4-20250514
//	farescout validate config.yaml
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/farescout/farescout/pkg/agent"
	"github.com/farescout/farescout/pkg/classify"
	"github.com/farescout/farescout/pkg/config"
	"github.com/farescout/farescout/pkg/flights"
	"github.com/farescout/farescout/pkg/history"
	"github.com/farescout/farescout/pkg/model"
	"github.com/farescout/farescout/pkg/model/anthropic"
	"github.com/farescout/farescout/pkg/model/openai"
	"github.com/farescout/farescout/pkg/server"
	"github.com/farescout/farescout/pkg/tool"
	"github.com/farescout/farescout/pkg/tool/mcptoolset"
	"github.com/farescout/farescout/pkg/version"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" help:"Start the A2A server."`
	Card     CardCmd     `cmd:"" help:"Print the agent card as JSON."`
	Validate ValidateCmd `cmd:"" help:"Validate a configuration file."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple, verbose, or custom)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(version.Get().String())
	return nil
}

// CardCmd prints the agent card the server would advertise.
type CardCmd struct {
	URL string `help:"Public base URL to embed in the card." default:"http://localhost:8080"`
}

func (c *CardCmd) Run() error {
	card := server.BuildAgentCard(c.URL)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(card)
}

// ValidateCmd validates a configuration file.
type ValidateCmd struct {
	Config string `arg:"" name:"config" help:"Configuration file path." placeholder:"PATH"`
}

func (c *ValidateCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", c.Config, err)
	}
	fmt.Printf("%s: OK\n", c.Config)
	return nil
}

// ServeCmd starts the A2A server.
type ServeCmd struct {
	Provider      string  `help:"LLM provider (anthropic, openai)."`
	Model         string  `help:"Model name."`
	APIKey        string  `name:"api-key" help:"API key (defaults to environment variable)."`
	BaseURL       string  `name:"base-url" help:"Custom API base URL."`
	MaxTokens     int     `name:"max-tokens" help:"Max tokens for generation."`
	Temperature   float64 `help:"Temperature for generation." default:"-1"`
	Instruction   string  `help:"System instruction override for the agent."`
	MaxIterations int     `name:"max-iterations" help:"Max reasoning iterations per turn."`
	MCPURL        string  `name:"mcp-url" help:"MCP flight search server URL (uses built-in mock search when empty)."`

	Host    string `help:"Host to bind." default:""`
	Port    int    `help:"Port to listen on." default:"0"`
	Metrics bool   `help:"Expose Prometheus metrics at /metrics."`
	Watch   bool   `help:"Watch config file for changes and log them."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	c.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Watch && cli.Config != "" {
		changes, err := config.Watch(ctx, cli.Config)
		if err != nil {
			return fmt.Errorf("failed to watch config: %w", err)
		}
		go func() {
			for range changes {
				slog.Info("Config file changed, restart to apply", "path", cli.Config)
			}
		}()
	}

	llm, err := buildLLM(cfg)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer llm.Close()

	source, closeSource, err := buildFlightSource(cfg)
	if err != nil {
		return fmt.Errorf("failed to create flight source: %w", err)
	}
	if closeSource != nil {
		defer closeSource()
	}

	searchTool, err := flights.NewSearchTool(source)
	if err != nil {
		return fmt.Errorf("failed to create search tool: %w", err)
	}

	ag, err := agent.New(agent.Config{
		LLM:           llm,
		Tools:         []tool.CallableTool{searchTool},
		MaxIterations: cfg.Agent.MaxIterations,
		Instruction:   cfg.Agent.Instruction,
	})
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	var storeOpts []history.MemoryStoreOption
	if cfg.History.MaxTurns > 0 {
		storeOpts = append(storeOpts, history.WithMaxTurns(cfg.History.MaxTurns))
	}
	store := history.NewMemoryStore(storeOpts...)

	var execOpts []server.ExecutorOption
	var srvOpts []server.HTTPServerOption
	if cfg.Server.Metrics {
		metrics := server.NewMetrics()
		execOpts = append(execOpts, server.WithMetrics(metrics))
		srvOpts = append(srvOpts, server.WithServerMetrics(metrics))
	}

	executor, err := server.NewExecutor(ag, store, classify.NewPhraseClassifier(), execOpts...)
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}

	srv := server.NewHTTPServer(cfg.Server.Host, cfg.Server.Port, executor, srvOpts...)

	fmt.Printf("\nFarescout server ready!\n")
	fmt.Printf("   Agent Card:  http://%s/.well-known/agent-card.json\n", srv.Address())
	fmt.Printf("   JSON-RPC:    http://%s/\n", srv.Address())
	fmt.Printf("   Health:      http://%s/health\n", srv.Address())
	if cfg.Server.Metrics {
		fmt.Printf("   Metrics:     http://%s/metrics\n", srv.Address())
	}
	fmt.Printf("   Provider:    %s (%s)\n", cfg.LLM.Provider, llm.Name())
	if cfg.MCP.Enabled {
		fmt.Printf("   Flights:     mcp (%s)\n", cfg.MCP.Transport)
	} else {
		fmt.Printf("   Flights:     mock\n")
	}
	fmt.Println("\nPress Ctrl+C to stop")

	return srv.Start(ctx)
}

// applyOverrides applies CLI flags over the loaded config.
func (c *ServeCmd) applyOverrides(cfg *config.Config) {
	if c.Provider != "" {
		cfg.LLM.Provider = c.Provider
	}
	if c.Model != "" {
		cfg.LLM.Model = c.Model
	}
	if c.APIKey != "" {
		cfg.LLM.APIKey = c.APIKey
	}
	if c.BaseURL != "" {
		cfg.LLM.BaseURL = c.BaseURL
	}
	if c.MaxTokens != 0 {
		cfg.LLM.MaxTokens = c.MaxTokens
	}
	if c.Temperature >= 0 {
		t := c.Temperature
		cfg.LLM.Temperature = &t
	}
	if c.Instruction != "" {
		cfg.Agent.Instruction = c.Instruction
	}
	if c.MaxIterations != 0 {
		cfg.Agent.MaxIterations = c.MaxIterations
	}
	if c.MCPURL != "" {
		cfg.MCP.Enabled = true
		cfg.MCP.URL = c.MCPURL
	}
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.Metrics {
		cfg.Server.Metrics = true
	}

	// Provider switch may change which env var supplies the key.
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
}

func buildLLM(cfg *config.Config) (model.LLM, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return openai.New(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			BaseURL:     cfg.LLM.BaseURL,
		})
	case "anthropic":
		return anthropic.New(anthropic.Config{
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			BaseURL:     cfg.LLM.BaseURL,
		})
	default:
		return nil, fmt.Errorf("unsupported provider: %q", cfg.LLM.Provider)
	}
}

func buildFlightSource(cfg *config.Config) (flights.Source, func(), error) {
	if !cfg.MCP.Enabled {
		return flights.NewMockSource(), nil, nil
	}

	toolset, err := mcptoolset.New(mcptoolset.Config{
		Name:      "flight-search",
		URL:       cfg.MCP.URL,
		Transport: cfg.MCP.Transport,
		Command:   cfg.MCP.Command,
		Args:      cfg.MCP.Args,
		Env:       cfg.MCP.Env,
	})
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {
		if err := toolset.Close(); err != nil {
			slog.Warn("Failed to close MCP toolset", "error", err)
		}
	}
	return flights.NewMCPSource(toolset), closeFn, nil
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("farescout"),
		kong.Description("Farescout - Conversational flight search over A2A"),
		kong.UsageOnError(),
	)

	cleanup, err := initLoggerFromCLI(cli.LogLevel, cli.LogFile, cli.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	if err := ctx.Run(&cli); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
