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

// Package tool defines interfaces for tools the reasoning engine can invoke.
//
// Tools are capabilities exposed to the language model through function
// calling: searching flights, calling external APIs, and so on. Create
// simple tools with functiontool.New; connect external MCP servers with
// mcptoolset.New.
package tool

import "context"

// Tool is the base interface for a callable tool.
type Tool interface {
	// Name returns the unique name of the tool.
	Name() string

	// Description returns a human-readable description of what the tool
	// does. Used by the model to decide when to use this tool.
	Description() string
}

// CallableTool extends Tool with synchronous execution.
type CallableTool interface {
	Tool

	// Call executes the tool with the given arguments. Blocking.
	Call(ctx context.Context, args map[string]any) (map[string]any, error)

	// Schema returns the JSON schema for the tool's parameters.
	// Nil if the tool takes no parameters.
	Schema() map[string]any
}

// Toolset groups related tools and resolves them lazily.
type Toolset interface {
	// Name returns the name of this toolset.
	Name() string

	// Tools returns the available tools, connecting if needed.
	Tools(ctx context.Context) ([]Tool, error)
}

// Definition represents a tool definition for model function calling.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToDefinition converts a tool to a Definition.
func ToDefinition(t Tool) Definition {
	def := Definition{
		Name:        t.Name(),
		Description: t.Description(),
	}
	if ct, ok := t.(CallableTool); ok {
		def.Parameters = ct.Schema()
	}
	return def
}

// ToolCall represents the model's request to invoke a tool.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult represents the outcome of a tool invocation, used when
// building the follow-up model message.
type ToolResult struct {
	ToolCallID string
	Content    string
	Error      string
}
