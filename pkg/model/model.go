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

// Package model defines the language model interface.
//
// Messages are represented as a2a.Message values so conversation content
// flows between the protocol layer and providers without translation.
// Tool use and tool results ride in a2a.DataPart entries.
package model

import (
	"context"

	"github.com/a2aproject/a2a-go/a2a"

	"github.com/farescout/farescout/pkg/tool"
)

// LLM is the interface for language models.
type LLM interface {
	// Name returns the model identifier.
	Name() string

	// Provider returns the provider type (e.g., "anthropic", "openai").
	Provider() Provider

	// Generate produces one complete response for the given request.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Close releases any resources held by the model.
	Close() error
}

// Provider identifies the LLM provider. Used for provider-specific message
// formatting.
type Provider string

const (
	// ProviderAnthropic represents Anthropic models (Claude).
	// Tool results must be paired with tool_use in the same message.
	ProviderAnthropic Provider = "anthropic"

	// ProviderOpenAI represents OpenAI models (GPT).
	ProviderOpenAI Provider = "openai"

	// ProviderUnknown for unrecognized providers.
	ProviderUnknown Provider = "unknown"
)

// Request contains the input for a model call.
type Request struct {
	// Messages is the conversation history.
	Messages []*a2a.Message

	// Tools available for the model to call.
	Tools []tool.Definition

	// Config contains generation configuration.
	Config *GenerateConfig

	// SystemInstruction is prepended to the conversation.
	SystemInstruction string
}

// GenerateConfig contains configuration for generation.
type GenerateConfig struct {
	// Temperature controls randomness (0-2).
	Temperature *float64

	// MaxTokens limits the response length.
	MaxTokens *int

	// TopP controls nucleus sampling.
	TopP *float64

	// StopSequences terminates generation.
	StopSequences []string
}

// Response contains the result of a model call.
type Response struct {
	// Content is the generated content (text and data parts).
	Content *Content

	// ToolCalls requested by the model.
	ToolCalls []tool.ToolCall

	// Usage statistics.
	Usage *Usage

	// FinishReason indicates why generation stopped.
	FinishReason FinishReason
}

// Content represents the content of a response.
type Content struct {
	// Parts contains the content parts (text, data).
	Parts []a2a.Part

	// Role identifies the sender.
	Role a2a.MessageRole
}

// Usage contains token usage statistics.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// FinishReason indicates why generation stopped.
type FinishReason string

const (
	FinishReasonStop      FinishReason = "stop"
	FinishReasonLength    FinishReason = "length"
	FinishReasonToolCalls FinishReason = "tool_calls"
)

// Text extracts the concatenated text blocks from a response. Structured
// parts are skipped, so list-shaped content collapses to its text blocks
// in one place.
func (r *Response) Text() string {
	if r == nil || r.Content == nil {
		return ""
	}

	var text string
	for _, part := range r.Content.Parts {
		if tp, ok := part.(a2a.TextPart); ok {
			text += tp.Text
		}
	}
	return text
}

// HasToolCalls returns whether the response contains tool calls.
func (r *Response) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// ToMessage converts a Response to an a2a.Message.
func (r *Response) ToMessage() *a2a.Message {
	if r == nil || r.Content == nil {
		return nil
	}
	return a2a.NewMessage(r.Content.Role, r.Content.Parts...)
}
