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

// Package history stores per-conversation turn history.
//
// Conversations are keyed by the task's context ID so follow-up messages
// on the same task see prior turns. The store is an injected dependency of
// the server executor; state lives for the process lifetime only.
package history

import (
	"context"
	"sync"
)

// Roles for conversation turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single conversation turn.
type Turn struct {
	Role    string
	Content string
}

// Store keeps conversation history keyed by context ID.
type Store interface {
	// History returns a copy of the turns for a context. Unknown contexts
	// yield an empty slice, never an error.
	History(ctx context.Context, contextID string) []Turn

	// Append records a turn at the end of a context's history.
	Append(ctx context.Context, contextID, role, content string)
}

// MemoryStore is an in-memory Store safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	turns    map[string][]Turn
	maxTurns int
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithMaxTurns caps the number of retained turns per context. Zero means
// unbounded. When trimming, turns are dropped in pairs from the front so
// the window still starts at a user turn.
func WithMaxTurns(max int) MemoryStoreOption {
	return func(s *MemoryStore) { s.maxTurns = max }
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		turns: make(map[string][]Turn),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// History returns a copy of the turns for a context.
func (s *MemoryStore) History(ctx context.Context, contextID string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.turns[contextID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Append records a turn at the end of a context's history.
func (s *MemoryStore) Append(ctx context.Context, contextID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.turns[contextID], Turn{Role: role, Content: content})

	if s.maxTurns > 0 && len(turns) > s.maxTurns {
		drop := len(turns) - s.maxTurns
		if drop%2 != 0 {
			drop++
		}
		if drop > len(turns) {
			drop = len(turns)
		}
		turns = turns[drop:]
	}

	s.turns[contextID] = turns
}

var _ Store = (*MemoryStore)(nil)
