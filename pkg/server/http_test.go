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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a2aproject/a2a-go/a2a"

	"github.com/farescout/farescout/pkg/model"
)

func newTestServer(t *testing.T, opts ...HTTPServerOption) *HTTPServer {
	t.Helper()
	llm := &scriptedLLM{responses: []*model.Response{reply("ok")}}
	exec, _ := newTestExecutor(t, llm)
	return NewHTTPServer("127.0.0.1", 0, exec, opts...)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.setupRoutes()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Bad JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body)
	}
}

func TestAgentCardEndpoint(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.setupRoutes()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.well-known/agent-card.json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var card a2a.AgentCard
	if err := json.Unmarshal(rec.Body.Bytes(), &card); err != nil {
		t.Fatalf("Bad card JSON: %v", err)
	}
	if card.Name != AgentName {
		t.Errorf("Card name = %q, want %q", card.Name, AgentName)
	}
	if len(card.Skills) == 0 || card.Skills[0].ID != "search_flights" {
		t.Errorf("Card should advertise the search_flights skill, got %+v", card.Skills)
	}
}

func TestRootRejectsGet(t *testing.T) {
	srv := newTestServer(t)
	mux := srv.setupRoutes()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET /, got %d", rec.Code)
	}
}

func TestMetricsEndpointOptIn(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.setupRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Metrics should be disabled by default, got %d", rec.Code)
	}

	srvWithMetrics := newTestServer(t, WithServerMetrics(NewMetrics()))
	rec = httptest.NewRecorder()
	srvWithMetrics.setupRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from /metrics, got %d", rec.Code)
	}
}
