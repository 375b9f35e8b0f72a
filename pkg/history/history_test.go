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

package history_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farescout/farescout/pkg/history"
)

func TestAppendAndHistory(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore()

	store.Append(ctx, "ctx-1", history.RoleUser, "find me a flight to London")
	store.Append(ctx, "ctx-1", history.RoleAssistant, "Here are 3 options.")

	turns := store.History(ctx, "ctx-1")
	require.Len(t, turns, 2)
	assert.Equal(t, history.Turn{Role: history.RoleUser, Content: "find me a flight to London"}, turns[0])
	assert.Equal(t, history.Turn{Role: history.RoleAssistant, Content: "Here are 3 options."}, turns[1])
}

func TestUnknownContextIsEmpty(t *testing.T) {
	store := history.NewMemoryStore()

	turns := store.History(context.Background(), "never-seen")
	assert.NotNil(t, turns)
	assert.Empty(t, turns)
}

func TestContextIsolation(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore()

	store.Append(ctx, "ctx-a", history.RoleUser, "NYC to LON")
	store.Append(ctx, "ctx-b", history.RoleUser, "SFO to SEA")

	assert.Len(t, store.History(ctx, "ctx-a"), 1)
	assert.Len(t, store.History(ctx, "ctx-b"), 1)
	assert.Equal(t, "NYC to LON", store.History(ctx, "ctx-a")[0].Content)
}

func TestHistoryReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore()
	store.Append(ctx, "ctx-1", history.RoleUser, "original")

	turns := store.History(ctx, "ctx-1")
	turns[0].Content = "mutated"

	assert.Equal(t, "original", store.History(ctx, "ctx-1")[0].Content)
}

func TestMaxTurnsTrimsInPairs(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore(history.WithMaxTurns(4))

	for i := 0; i < 3; i++ {
		store.Append(ctx, "ctx-1", history.RoleUser, "question")
		store.Append(ctx, "ctx-1", history.RoleAssistant, "answer")
	}

	turns := store.History(ctx, "ctx-1")
	require.Len(t, turns, 4)
	// The window must still start at a user turn.
	assert.Equal(t, history.RoleUser, turns[0].Role)
	assert.Equal(t, history.RoleAssistant, turns[len(turns)-1].Role)
}

func TestConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Append(ctx, "ctx-1", history.RoleUser, "msg")
			store.History(ctx, "ctx-1")
		}()
	}
	wg.Wait()

	assert.Len(t, store.History(ctx, "ctx-1"), 50)
}
