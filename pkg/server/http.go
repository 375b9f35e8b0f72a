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
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"
	"golang.org/x/sync/errgroup"
)

// HTTPServer exposes a single flight-search agent over A2A JSON-RPC.
// The protocol handlers come from a2a-go; the server adds the
// well-known agent card, a health check and optional metrics.
type HTTPServer struct {
	host   string
	port   int
	server *http.Server

	taskStore a2asrv.TaskStore
	metrics   *Metrics

	jsonRPCHandler http.Handler
	cardHandler    http.Handler
	card           *a2a.AgentCard
}

// HTTPServerOption configures the HTTP server.
type HTTPServerOption func(*HTTPServer)

// WithTaskStore sets the task store for task storage.
// If not set, a2a-go uses its internal in-memory store.
func WithTaskStore(store a2asrv.TaskStore) HTTPServerOption {
	return func(s *HTTPServer) {
		s.taskStore = store
	}
}

// WithServerMetrics enables the /metrics endpoint.
func WithServerMetrics(m *Metrics) HTTPServerOption {
	return func(s *HTTPServer) {
		s.metrics = m
	}
}

// NewHTTPServer creates an HTTP server wrapping the given executor.
func NewHTTPServer(host string, port int, executor *Executor, opts ...HTTPServerOption) *HTTPServer {
	s := &HTTPServer{
		host: host,
		port: port,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.card = BuildAgentCard("http://" + s.Address())

	var handlerOpts []a2asrv.RequestHandlerOption
	if s.taskStore != nil {
		handlerOpts = append(handlerOpts, a2asrv.WithTaskStore(s.taskStore))
	}
	requestHandler := a2asrv.NewHandler(executor, handlerOpts...)

	s.jsonRPCHandler = a2asrv.NewJSONRPCHandler(requestHandler)
	s.cardHandler = a2asrv.NewStaticAgentCardHandler(s.card)

	return s
}

// Address returns the listen address.
func (s *HTTPServer) Address() string {
	return fmt.Sprintf("%s:%d", s.host, s.port)
}

// Card returns the agent card the server advertises.
func (s *HTTPServer) Card() *a2a.AgentCard {
	return s.card
}

// setupRoutes configures the HTTP routes.
//   - POST /                             → JSON-RPC (a2a-go native)
//   - GET  /.well-known/agent-card.json  → Agent card (a2a-go native)
//   - GET  /health                       → Health check
//   - GET  /metrics                      → Prometheus metrics (optional)
func (s *HTTPServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle(a2asrv.WellKnownAgentCardPath, s.cardHandler)

	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
		slog.Info("Metrics endpoint enabled", "path", "/metrics")
	}

	return mux
}

func (s *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.jsonRPCHandler.ServeHTTP(w, r)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Start runs the server until ctx is canceled or the listener fails.
func (s *HTTPServer) Start(ctx context.Context) error {
	handler := s.loggingMiddleware(s.setupRoutes())

	s.server = &http.Server{
		Addr:         s.Address(),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	slog.Info("HTTP server starting", "address", s.Address())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// Fires on outer cancellation or when the listener fails.
		<-gctx.Done()
		return s.Shutdown(context.Background())
	})
	return g.Wait()
}

// Shutdown gracefully shuts down the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	slog.Info("HTTP server shutting down")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP shutdown error: %w", err)
	}
	return nil
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}
