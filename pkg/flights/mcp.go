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

package flights

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/farescout/farescout/pkg/tool"
)

// SearchToolName is the name of the flight search tool on both the agent
// card and any upstream MCP server.
const SearchToolName = "search_flights"

// MCPSource searches flights through an external MCP server exposing a
// search_flights tool.
type MCPSource struct {
	toolset tool.Toolset
}

// NewMCPSource creates a source backed by the given toolset.
func NewMCPSource(toolset tool.Toolset) *MCPSource {
	return &MCPSource{toolset: toolset}
}

// SearchFlights calls the upstream search_flights tool and decodes its
// result envelope.
func (s *MCPSource) SearchFlights(ctx context.Context, origin, destination string, budget *float64) (*SearchResult, error) {
	tools, err := s.toolset.Tools(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve MCP tools: %w", err)
	}

	var searchTool tool.CallableTool
	for _, t := range tools {
		if ct, ok := t.(tool.CallableTool); ok && ct.Name() == SearchToolName {
			searchTool = ct
			break
		}
	}
	if searchTool == nil {
		return nil, fmt.Errorf("MCP server does not expose %s", SearchToolName)
	}

	args := map[string]any{
		"origin":      origin,
		"destination": destination,
	}
	if budget != nil {
		args["budget"] = *budget
	}

	out, err := searchTool.Call(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", SearchToolName, err)
	}
	if errText, ok := out["error"].(string); ok && errText != "" {
		return nil, fmt.Errorf("%s returned error: %s", SearchToolName, errText)
	}

	result, err := decodeEnvelope(out)
	if err != nil {
		return nil, err
	}
	if result.Source == "" {
		result.Source = "mcp"
	}
	return result, nil
}

// decodeEnvelope handles both a JSON text payload under "result" and a
// structured map matching the envelope shape.
func decodeEnvelope(out map[string]any) (*SearchResult, error) {
	if raw, ok := out["result"].(string); ok {
		var result SearchResult
		if err := json.Unmarshal([]byte(raw), &result); err != nil {
			return nil, fmt.Errorf("failed to decode search result: %w", err)
		}
		return &result, nil
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode search result: %w", err)
	}
	var result SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode search result: %w", err)
	}
	return &result, nil
}

var _ Source = (*MCPSource)(nil)
