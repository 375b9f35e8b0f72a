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

// Package agent runs the tool-calling reasoning loop for flight search.
//
// Agent.Chat is the single entry point: it takes the user message plus
// prior conversation turns and drives the model until it produces a
// textual answer or the iteration cap is reached. All failures come back
// as errors; nothing escapes the Chat boundary.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/a2aproject/a2a-go/a2a"

	"github.com/farescout/farescout/pkg/history"
	"github.com/farescout/farescout/pkg/model"
	"github.com/farescout/farescout/pkg/tool"
)

// DefaultMaxIterations caps model calls per chat turn.
const DefaultMaxIterations = 5

const defaultInstruction = `You are a helpful flight search assistant. Your job is to help users find flights based on their preferences.

You have access to a flight search tool that can search for flights given:
- origin: The departure city or airport
- destination: The arrival city or airport
- budget: The maximum price in USD (optional)

When a user asks about flights, extract the origin, destination, and budget (if mentioned) from their query,
then use the search_flights tool to find available flights.

Present the results in a clear, user-friendly format. If multiple flights are found, highlight the best options
based on price, duration, or other relevant factors. Always mention prices in USD.

If the user's request is unclear, ask for clarification before searching.`

const exhaustedFallback = "I apologize, but I could not complete your request within the allowed number of steps. Please try again."

// Config configures an Agent.
type Config struct {
	// LLM is the language model (required).
	LLM model.LLM

	// Tools available to the model.
	Tools []tool.CallableTool

	// MaxIterations caps model calls per chat turn (default 5).
	MaxIterations int

	// Instruction overrides the default system instruction.
	Instruction string
}

// Agent is a tool-calling flight search agent.
type Agent struct {
	llm           model.LLM
	tools         map[string]tool.CallableTool
	defs          []tool.Definition
	maxIterations int
	instruction   string
}

// New creates an Agent from the given configuration.
func New(cfg Config) (*Agent, error) {
	if cfg.LLM == nil {
		return nil, fmt.Errorf("LLM is required")
	}

	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	instruction := cfg.Instruction
	if instruction == "" {
		instruction = defaultInstruction
	}

	tools := make(map[string]tool.CallableTool, len(cfg.Tools))
	defs := make([]tool.Definition, 0, len(cfg.Tools))
	for _, t := range cfg.Tools {
		tools[t.Name()] = t
		defs = append(defs, tool.ToDefinition(t))
	}

	return &Agent{
		llm:           cfg.LLM,
		tools:         tools,
		defs:          defs,
		maxIterations: maxIterations,
		instruction:   instruction,
	}, nil
}

// MaxIterations returns the configured iteration cap.
func (a *Agent) MaxIterations() int {
	return a.maxIterations
}

// Chat processes one user message with the given prior turns and returns
// the agent's textual response. Model errors, tool failures, and panics
// all surface as the returned error.
func (a *Agent) Chat(ctx context.Context, message string, turns []history.Turn) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("agent panic: %v", r)
		}
	}()

	messages := a.buildMessages(message, turns)

	var lastText string
	for iteration := 0; iteration < a.maxIterations; iteration++ {
		resp, genErr := a.llm.Generate(ctx, &model.Request{
			Messages:          messages,
			Tools:             a.defs,
			SystemInstruction: a.instruction,
		})
		if genErr != nil {
			return "", fmt.Errorf("model call failed: %w", genErr)
		}

		if !resp.HasToolCalls() {
			return resp.Text(), nil
		}

		if t := resp.Text(); t != "" {
			lastText = t
		}

		assistantMsg, resultMsg := a.runToolCalls(ctx, resp)
		messages = append(messages, assistantMsg, resultMsg)
	}

	slog.Warn("Agent reached iteration limit", "max_iterations", a.maxIterations)
	if lastText != "" {
		return lastText, nil
	}
	return exhaustedFallback, nil
}

// buildMessages maps stored turns and the new user message to model input.
func (a *Agent) buildMessages(message string, turns []history.Turn) []*a2a.Message {
	messages := make([]*a2a.Message, 0, len(turns)+1)
	for _, turn := range turns {
		role := a2a.MessageRoleUser
		if turn.Role == history.RoleAssistant {
			role = a2a.MessageRoleAgent
		}
		messages = append(messages, a2a.NewMessage(role, a2a.TextPart{Text: turn.Content}))
	}
	return append(messages, a2a.NewMessage(a2a.MessageRoleUser, a2a.TextPart{Text: message}))
}

// runToolCalls executes every tool call in the response and builds the
// assistant tool-use message and the paired tool-result message. Tool
// failures become error payloads in the result so the model can react.
func (a *Agent) runToolCalls(ctx context.Context, resp *model.Response) (*a2a.Message, *a2a.Message) {
	assistantMsg := resp.ToMessage()
	if assistantMsg == nil {
		assistantMsg = a2a.NewMessage(a2a.MessageRoleAgent)
	}

	var resultParts []a2a.Part
	for _, tc := range resp.ToolCalls {
		assistantMsg.Parts = append(assistantMsg.Parts, a2a.DataPart{
			Data: map[string]any{
				"type":      "tool_use",
				"id":        tc.ID,
				"name":      tc.Name,
				"arguments": tc.Args,
			},
		})

		resultParts = append(resultParts, a2a.DataPart{
			Data: map[string]any{
				"type":         "tool_result",
				"tool_call_id": tc.ID,
				"content":      a.callTool(ctx, tc),
			},
		})
	}

	return assistantMsg, a2a.NewMessage(a2a.MessageRoleUser, resultParts...)
}

// callTool invokes a single tool and renders its result as JSON text.
func (a *Agent) callTool(ctx context.Context, tc tool.ToolCall) string {
	slog.Debug("Executing tool", "tool", tc.Name, "call_id", tc.ID)

	t, ok := a.tools[tc.Name]
	if !ok {
		slog.Warn("Model requested unknown tool", "tool", tc.Name)
		return marshalResult(map[string]any{
			"success": false,
			"error":   fmt.Sprintf("unknown tool: %s", tc.Name),
		})
	}

	result, err := t.Call(ctx, tc.Args)
	if err != nil {
		slog.Error("Tool execution failed", "tool", tc.Name, "error", err)
		return marshalResult(map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	}

	return marshalResult(result)
}

func marshalResult(result map[string]any) string {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":%q}`, err.Error())
	}
	return string(data)
}
