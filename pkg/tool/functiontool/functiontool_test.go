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

package functiontool_test

import (
	"context"
	"testing"

	"github.com/farescout/farescout/pkg/tool"
	"github.com/farescout/farescout/pkg/tool/functiontool"
)

type echoArgs struct {
	Name  string `json:"name" jsonschema:"required,description=Name to echo"`
	Count int    `json:"count,omitempty" jsonschema:"description=Repeat count"`
}

func newEchoTool(t *testing.T) tool.CallableTool {
	t.Helper()
	tl, err := functiontool.New(
		functiontool.Config{Name: "echo", Description: "Echoes its arguments."},
		func(ctx context.Context, args echoArgs) (map[string]any, error) {
			return map[string]any{"name": args.Name, "count": args.Count}, nil
		},
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return tl
}

func TestToolMetadata(t *testing.T) {
	tl := newEchoTool(t)

	if tl.Name() != "echo" {
		t.Errorf("Expected name 'echo', got %q", tl.Name())
	}
	if tl.Description() == "" {
		t.Error("Description should not be empty")
	}
}

func TestSchemaGeneration(t *testing.T) {
	tl := newEchoTool(t)
	schema := tl.Schema()

	if schema["type"] != "object" {
		t.Errorf("Expected type 'object', got %v", schema["type"])
	}

	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("Expected properties map, got %T", schema["properties"])
	}
	if _, ok := props["name"]; !ok {
		t.Error("Schema missing 'name' property")
	}
	if _, ok := props["count"]; !ok {
		t.Error("Schema missing 'count' property")
	}

	required, ok := schema["required"].([]any)
	if !ok {
		t.Fatalf("Expected required list, got %T", schema["required"])
	}
	found := false
	for _, r := range required {
		if r == "name" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected 'name' in required, got %v", required)
	}
}

func TestCallDecodesArgs(t *testing.T) {
	tl := newEchoTool(t)

	result, err := tl.Call(context.Background(), map[string]any{
		"name":  "hello",
		"count": 3.0, // JSON numbers arrive as float64
	})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	if result["name"] != "hello" {
		t.Errorf("Expected name 'hello', got %v", result["name"])
	}
	if result["count"] != 3 {
		t.Errorf("Expected count 3, got %v", result["count"])
	}
}

func TestAnonymousArgsStruct(t *testing.T) {
	tl, err := functiontool.New(
		functiontool.Config{Name: "inline", Description: "Inline args."},
		func(ctx context.Context, args struct {
			City string `json:"city" jsonschema:"required,description=City name"`
		}) (map[string]any, error) {
			return map[string]any{"city": args.City}, nil
		},
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	schema := tl.Schema()
	if schema["type"] != "object" {
		t.Errorf("Expected type 'object', got %v", schema["type"])
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("Expected properties map, got %T", schema["properties"])
	}
	if _, ok := props["city"]; !ok {
		t.Error("Schema missing 'city' property")
	}

	result, err := tl.Call(context.Background(), map[string]any{"city": "Boston"})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if result["city"] != "Boston" {
		t.Errorf("Expected city 'Boston', got %v", result["city"])
	}
}

func TestCallOmitsOptionalArgs(t *testing.T) {
	tl := newEchoTool(t)

	result, err := tl.Call(context.Background(), map[string]any{"name": "solo"})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if result["count"] != 0 {
		t.Errorf("Expected zero count, got %v", result["count"])
	}
}
