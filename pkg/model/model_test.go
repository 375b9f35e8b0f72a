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

package model_test

import (
	"testing"

	"github.com/a2aproject/a2a-go/a2a"

	"github.com/farescout/farescout/pkg/model"
	"github.com/farescout/farescout/pkg/tool"
)

func TestResponseText(t *testing.T) {
	resp := &model.Response{
		Content: &model.Content{
			Parts: []a2a.Part{
				a2a.TextPart{Text: "Found "},
				a2a.DataPart{Data: map[string]any{"type": "tool_use"}},
				a2a.TextPart{Text: "5 flights."},
			},
			Role: a2a.MessageRoleAgent,
		},
	}

	if got := resp.Text(); got != "Found 5 flights." {
		t.Errorf("Expected concatenated text blocks, got %q", got)
	}

	var nilResp *model.Response
	if got := nilResp.Text(); got != "" {
		t.Errorf("Nil response should yield empty text, got %q", got)
	}
}

func TestResponseHasToolCalls(t *testing.T) {
	resp := &model.Response{}
	if resp.HasToolCalls() {
		t.Error("Empty response should have no tool calls")
	}

	resp.ToolCalls = []tool.ToolCall{{ID: "call-1", Name: "search_flights"}}
	if !resp.HasToolCalls() {
		t.Error("Response with tool calls should report them")
	}
}

func TestResponseToMessage(t *testing.T) {
	resp := &model.Response{
		Content: &model.Content{
			Parts: []a2a.Part{a2a.TextPart{Text: "Checking availability."}},
			Role:  a2a.MessageRoleAgent,
		},
	}

	msg := resp.ToMessage()
	if msg == nil {
		t.Fatal("Expected a message")
	}
	if msg.Role != a2a.MessageRoleAgent {
		t.Errorf("Expected agent role, got %v", msg.Role)
	}
	if len(msg.Parts) != 1 {
		t.Fatalf("Expected 1 part, got %d", len(msg.Parts))
	}
	if tp, ok := msg.Parts[0].(a2a.TextPart); !ok || tp.Text != "Checking availability." {
		t.Errorf("Part content not carried over: %v", msg.Parts[0])
	}
}

func TestResponseToMessageNilContent(t *testing.T) {
	if msg := (&model.Response{}).ToMessage(); msg != nil {
		t.Errorf("Response without content should convert to nil, got %v", msg)
	}

	var nilResp *model.Response
	if msg := nilResp.ToMessage(); msg != nil {
		t.Errorf("Nil response should convert to nil, got %v", msg)
	}
}
