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
	"fmt"
	"log/slog"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"
	"github.com/a2aproject/a2a-go/a2asrv/eventqueue"
	"github.com/google/uuid"

	"github.com/farescout/farescout/pkg/agent"
	"github.com/farescout/farescout/pkg/classify"
	"github.com/farescout/farescout/pkg/history"
)

const (
	// artifactName identifies the artifact carrying the assistant's answer.
	artifactName        = "flight_search_result"
	artifactDescription = "Flight search results"
)

// ErrCancelNotSupported is returned by Cancel for every task.
var ErrCancelNotSupported = errors.New("task cancellation is not supported")

// eventWriter is the slice of eventqueue.Queue the executor needs.
type eventWriter interface {
	Write(ctx context.Context, event a2a.Event) error
}

// Executor drives a single flight-search turn through the task
// lifecycle. It implements a2asrv.AgentExecutor: each Execute call
// takes the task from submitted to exactly one terminal state and
// never returns an error for agent-level failures, which surface as
// failed status events instead.
type Executor struct {
	agent      *agent.Agent
	store      history.Store
	classifier classify.Classifier
	metrics    *Metrics
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithMetrics attaches request metrics to the executor.
func WithMetrics(m *Metrics) ExecutorOption {
	return func(e *Executor) {
		e.metrics = m
	}
}

// NewExecutor creates an executor for the given agent.
func NewExecutor(ag *agent.Agent, store history.Store, classifier classify.Classifier, opts ...ExecutorOption) (*Executor, error) {
	if ag == nil {
		return nil, fmt.Errorf("agent is required")
	}
	if store == nil {
		return nil, fmt.Errorf("history store is required")
	}
	if classifier == nil {
		classifier = classify.NewPhraseClassifier()
	}
	e := &Executor{
		agent:      ag,
		store:      store,
		classifier: classifier,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Execute processes one user message for the task in reqCtx.
func (e *Executor) Execute(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue) error {
	return e.execute(ctx, reqCtx, queue)
}

func (e *Executor) execute(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventWriter) error {
	taskID := string(reqCtx.TaskID)
	contextID := reqCtx.ContextID

	if reqCtx.Message == nil {
		if reqCtx.StoredTask == nil {
			return fmt.Errorf("no message provided for task %s", taskID)
		}
		e.writeEvent(ctx, queue, e.failedEvent(reqCtx, errors.New("no message provided")))
		return nil
	}

	// Announce task creation before doing any work.
	if reqCtx.StoredTask == nil {
		submitted := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateSubmitted, nil)
		e.writeEvent(ctx, queue, submitted)
	}

	invocationID := uuid.NewString()

	text := extractText(reqCtx.Message)
	if text == "" {
		slog.Warn("Received message without text parts", "taskID", taskID, "contextID", contextID)
	}
	slog.Info("Processing flight search request",
		"taskID", taskID, "contextID", contextID, "invocationID", invocationID)

	// Prior turns are captured before this message is recorded so the
	// agent does not see the new question twice.
	turns := e.store.History(ctx, contextID)

	// The user turn is recorded unconditionally so a later retry
	// in the same conversation still sees the question.
	e.store.Append(ctx, contextID, history.RoleUser, text)

	if e.metrics != nil {
		e.metrics.RequestsTotal.Inc()
	}

	start := time.Now()
	reply, err := e.agent.Chat(ctx, text, turns)
	if e.metrics != nil {
		e.metrics.ChatDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		slog.Error("Agent invocation failed", "taskID", taskID, "invocationID", invocationID, "error", err)
		if e.metrics != nil {
			e.metrics.FailuresTotal.Inc()
		}
		e.writeEvent(ctx, queue, e.failedEvent(reqCtx, err))
		return nil
	}

	e.store.Append(ctx, contextID, history.RoleAssistant, reply)

	if e.classifier.NeedsInput(reply) {
		slog.Info("Assistant requested clarification", "taskID", taskID, "invocationID", invocationID)
		if e.metrics != nil {
			e.metrics.InputRequiredTotal.Inc()
		}
		msg := a2a.NewMessageForTask(a2a.MessageRoleAgent, reqCtx, a2a.TextPart{Text: reply})
		ev := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateInputRequired, msg)
		ev.Final = true
		e.writeEvent(ctx, queue, ev)
		return nil
	}

	artifact := a2a.NewArtifactEvent(reqCtx, a2a.TextPart{Text: reply})
	artifact.Artifact.Name = artifactName
	artifact.Artifact.Description = artifactDescription
	artifact.LastChunk = true
	e.writeEvent(ctx, queue, artifact)

	completed := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateCompleted, nil)
	completed.Final = true
	e.writeEvent(ctx, queue, completed)

	if e.metrics != nil {
		e.metrics.CompletedTotal.Inc()
	}
	slog.Info("Task completed", "taskID", taskID, "invocationID", invocationID)
	return nil
}

// Cancel rejects cancellation: a turn either finishes or fails on its
// own, and the task store is never mutated from here.
func (e *Executor) Cancel(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue) error {
	slog.Warn("Cancellation requested but not supported", "taskID", string(reqCtx.TaskID))
	return ErrCancelNotSupported
}

func (e *Executor) failedEvent(reqCtx *a2asrv.RequestContext, cause error) *a2a.TaskStatusUpdateEvent {
	msg := a2a.NewMessageForTask(
		a2a.MessageRoleAgent,
		reqCtx,
		a2a.TextPart{Text: "Error: " + cause.Error()},
	)
	ev := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateFailed, msg)
	ev.Final = true
	return ev
}

// writeEvent pushes an event to the queue. Write failures are logged
// and swallowed; the turn's outcome is already decided by then.
func (e *Executor) writeEvent(ctx context.Context, queue eventWriter, event a2a.Event) {
	if err := queue.Write(ctx, event); err != nil {
		slog.Error("Failed to write task event", "error", err)
	}
}

var _ a2asrv.AgentExecutor = (*Executor)(nil)
