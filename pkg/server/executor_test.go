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

package server

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"

	"github.com/farescout/farescout/pkg/agent"
	"github.com/farescout/farescout/pkg/classify"
	"github.com/farescout/farescout/pkg/history"
	"github.com/farescout/farescout/pkg/model"
)

// scriptedLLM returns queued responses and records requests.
type scriptedLLM struct {
	responses []*model.Response
	err       error
	requests  []*model.Request
}

func (f *scriptedLLM) Name() string             { return "scripted" }
func (f *scriptedLLM) Provider() model.Provider { return model.ProviderUnknown }
func (f *scriptedLLM) Close() error             { return nil }

func (f *scriptedLLM) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func reply(text string) *model.Response {
	return &model.Response{
		Content: &model.Content{
			Parts: []a2a.Part{a2a.TextPart{Text: text}},
			Role:  a2a.MessageRoleAgent,
		},
		FinishReason: model.FinishReasonStop,
	}
}

// recordingQueue captures written events.
type recordingQueue struct {
	events   []a2a.Event
	writeErr error
}

func (q *recordingQueue) Write(ctx context.Context, event a2a.Event) error {
	if q.writeErr != nil {
		return q.writeErr
	}
	q.events = append(q.events, event)
	return nil
}

func newTestExecutor(t *testing.T, llm *scriptedLLM) (*Executor, *history.MemoryStore) {
	t.Helper()
	ag, err := agent.New(agent.Config{LLM: llm})
	if err != nil {
		t.Fatalf("agent.New failed: %v", err)
	}
	store := history.NewMemoryStore()
	exec, err := NewExecutor(ag, store, classify.NewPhraseClassifier())
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}
	return exec, store
}

func newRequest(text string) *a2asrv.RequestContext {
	return &a2asrv.RequestContext{
		TaskID:    a2a.TaskID("task-1"),
		ContextID: "ctx-1",
		Message:   a2a.NewMessage(a2a.MessageRoleUser, a2a.TextPart{Text: text}),
	}
}

func statusEvents(events []a2a.Event) []*a2a.TaskStatusUpdateEvent {
	var out []*a2a.TaskStatusUpdateEvent
	for _, ev := range events {
		if s, ok := ev.(*a2a.TaskStatusUpdateEvent); ok {
			out = append(out, s)
		}
	}
	return out
}

func artifactEvents(events []a2a.Event) []*a2a.TaskArtifactUpdateEvent {
	var out []*a2a.TaskArtifactUpdateEvent
	for _, ev := range events {
		if a, ok := ev.(*a2a.TaskArtifactUpdateEvent); ok {
			out = append(out, a)
		}
	}
	return out
}

func messageText(msg *a2a.Message) string {
	return extractText(msg)
}

func TestExecuteCompletedFlow(t *testing.T) {
	llm := &scriptedLLM{responses: []*model.Response{reply("Found 3 flights. Cheapest is $420.")}}
	exec, store := newTestExecutor(t, llm)
	queue := &recordingQueue{}

	if err := exec.execute(context.Background(), newRequest("NYC to LON"), queue); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	statuses := statusEvents(queue.events)
	artifacts := artifactEvents(queue.events)

	if len(statuses) != 2 {
		t.Fatalf("Expected submitted + completed statuses, got %d", len(statuses))
	}
	if statuses[0].Status.State != a2a.TaskStateSubmitted {
		t.Errorf("First status should be submitted, got %v", statuses[0].Status.State)
	}
	final := statuses[1]
	if final.Status.State != a2a.TaskStateCompleted {
		t.Errorf("Final status should be completed, got %v", final.Status.State)
	}
	if !final.Final {
		t.Error("Completed status must be final")
	}
	if final.Status.Message != nil {
		t.Error("Completed status must carry no message")
	}

	if len(artifacts) != 1 {
		t.Fatalf("Expected exactly one artifact event, got %d", len(artifacts))
	}
	art := artifacts[0]
	if art.Artifact.Name != artifactName {
		t.Errorf("Artifact name = %q, want %q", art.Artifact.Name, artifactName)
	}
	if !art.LastChunk {
		t.Error("Artifact event must mark the last chunk")
	}
	if got := extractTextFromParts(art.Artifact.Parts); got != "Found 3 flights. Cheapest is $420." {
		t.Errorf("Artifact text = %q", got)
	}

	// The artifact must precede the final status.
	lastIdx := len(queue.events) - 1
	if _, ok := queue.events[lastIdx].(*a2a.TaskStatusUpdateEvent); !ok {
		t.Error("Final event must be the completed status")
	}

	turns := store.History(context.Background(), "ctx-1")
	if len(turns) != 2 {
		t.Fatalf("Expected user + assistant turns, got %d", len(turns))
	}
	if turns[1].Role != history.RoleAssistant {
		t.Error("Second turn should be the assistant reply")
	}
}

func TestExecuteInputRequiredFlow(t *testing.T) {
	question := "Could you please provide your departure city?"
	llm := &scriptedLLM{responses: []*model.Response{reply(question)}}
	exec, store := newTestExecutor(t, llm)
	queue := &recordingQueue{}

	if err := exec.execute(context.Background(), newRequest("I want to fly"), queue); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if len(artifactEvents(queue.events)) != 0 {
		t.Error("Clarification turns must not emit artifacts")
	}

	statuses := statusEvents(queue.events)
	if len(statuses) != 2 {
		t.Fatalf("Expected submitted + input-required statuses, got %d", len(statuses))
	}
	final := statuses[1]
	if final.Status.State != a2a.TaskStateInputRequired {
		t.Errorf("Final status should be input-required, got %v", final.Status.State)
	}
	if !final.Final {
		t.Error("Input-required status must be final")
	}
	if final.Status.Message == nil || messageText(final.Status.Message) != question {
		t.Errorf("Status message should carry the question, got %v", final.Status.Message)
	}

	// The clarification still counts as an assistant turn.
	turns := store.History(context.Background(), "ctx-1")
	if len(turns) != 2 || turns[1].Content != question {
		t.Errorf("Expected question recorded as assistant turn, got %v", turns)
	}
}

func TestExecuteFailureFlow(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("connection refused")}
	exec, store := newTestExecutor(t, llm)
	queue := &recordingQueue{}

	if err := exec.execute(context.Background(), newRequest("NYC to LON"), queue); err != nil {
		t.Fatalf("execute must swallow agent errors, got %v", err)
	}

	statuses := statusEvents(queue.events)
	if len(statuses) != 2 {
		t.Fatalf("Expected submitted + failed statuses, got %d", len(statuses))
	}
	final := statuses[1]
	if final.Status.State != a2a.TaskStateFailed {
		t.Errorf("Final status should be failed, got %v", final.Status.State)
	}
	if !final.Final {
		t.Error("Failed status must be final")
	}
	text := messageText(final.Status.Message)
	if !strings.HasPrefix(text, "Error: ") {
		t.Errorf("Failure message should carry the Error prefix, got %q", text)
	}
	if !strings.Contains(text, "connection refused") {
		t.Errorf("Failure message should carry the cause, got %q", text)
	}

	// Failed turns record the question but no assistant reply.
	turns := store.History(context.Background(), "ctx-1")
	if len(turns) != 1 || turns[0].Role != history.RoleUser {
		t.Errorf("Expected only the user turn, got %v", turns)
	}
}

func TestExecuteContinuationSkipsSubmitted(t *testing.T) {
	llm := &scriptedLLM{responses: []*model.Response{reply("done")}}
	exec, _ := newTestExecutor(t, llm)
	queue := &recordingQueue{}

	reqCtx := newRequest("follow-up")
	reqCtx.StoredTask = &a2a.Task{ID: reqCtx.TaskID, ContextID: reqCtx.ContextID}

	if err := exec.execute(context.Background(), reqCtx, queue); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	statuses := statusEvents(queue.events)
	for _, s := range statuses {
		if s.Status.State == a2a.TaskStateSubmitted {
			t.Error("Continuations must not re-announce submission")
		}
	}
}

func TestExecuteConversationCarriesOver(t *testing.T) {
	llm := &scriptedLLM{responses: []*model.Response{
		reply("Which city are you departing from?"),
		reply("Found flights from BOS."),
	}}
	exec, _ := newTestExecutor(t, llm)

	if err := exec.execute(context.Background(), newRequest("I want to fly to Miami"), &recordingQueue{}); err != nil {
		t.Fatalf("first execute failed: %v", err)
	}

	second := &a2asrv.RequestContext{
		TaskID:    a2a.TaskID("task-2"),
		ContextID: "ctx-1",
		Message:   a2a.NewMessage(a2a.MessageRoleUser, a2a.TextPart{Text: "From Boston"}),
	}
	if err := exec.execute(context.Background(), second, &recordingQueue{}); err != nil {
		t.Fatalf("second execute failed: %v", err)
	}

	// The second model call sees both prior turns plus the new message.
	lastReq := llm.requests[len(llm.requests)-1]
	if len(lastReq.Messages) != 3 {
		t.Fatalf("Expected 3 messages on the follow-up, got %d", len(lastReq.Messages))
	}
	if got := extractText(lastReq.Messages[1]); got != "Which city are you departing from?" {
		t.Errorf("Prior assistant turn missing, got %q", got)
	}
}

func TestExecuteNilMessage(t *testing.T) {
	llm := &scriptedLLM{responses: []*model.Response{reply("unused")}}
	exec, _ := newTestExecutor(t, llm)
	queue := &recordingQueue{}

	// New task without a message is a protocol error.
	reqCtx := &a2asrv.RequestContext{TaskID: "task-1", ContextID: "ctx-1"}
	if err := exec.execute(context.Background(), reqCtx, queue); err == nil {
		t.Error("Expected error for new task without message")
	}

	// Continuation without a message fails the task instead.
	reqCtx.StoredTask = &a2a.Task{ID: "task-1", ContextID: "ctx-1"}
	if err := exec.execute(context.Background(), reqCtx, queue); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	statuses := statusEvents(queue.events)
	if len(statuses) != 1 || statuses[0].Status.State != a2a.TaskStateFailed {
		t.Errorf("Expected a single failed status, got %v", statuses)
	}
}

func TestCancelUnsupported(t *testing.T) {
	llm := &scriptedLLM{responses: []*model.Response{reply("unused")}}
	exec, store := newTestExecutor(t, llm)

	err := exec.Cancel(context.Background(), newRequest("cancel me"), nil)
	if !errors.Is(err, ErrCancelNotSupported) {
		t.Errorf("Expected ErrCancelNotSupported, got %v", err)
	}
	if len(store.History(context.Background(), "ctx-1")) != 0 {
		t.Error("Cancel must not touch conversation state")
	}
}

func extractTextFromParts(parts []a2a.Part) string {
	var sb strings.Builder
	for _, p := range parts {
		if tp, ok := p.(a2a.TextPart); ok {
			sb.WriteString(tp.Text)
		}
	}
	return sb.String()
}
