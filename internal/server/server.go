// ABOUTME: Transport router binding HTTP verbs and paths to the protocol stack.
// ABOUTME: Owns the mux, the middleware chain, and the JSON helpers shared by handlers.

package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tripquote/gateway/internal/auth"
	"github.com/tripquote/gateway/internal/config"
	"github.com/tripquote/gateway/internal/lab"
	"github.com/tripquote/gateway/internal/rpc"
	"github.com/tripquote/gateway/internal/session"
	"github.com/tripquote/gateway/internal/tools"
)

// MaxRequestBodySize is the maximum allowed size for request bodies (1MB).
const MaxRequestBodySize = 1 << 20

// serverVersion is reported in the initialize handshake and by the CLI.
const serverVersion = "1.0.0"

// Server wires the auth guard, session registry, dispatcher, and tool
// registry behind the HTTP surface.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	guard      *auth.Guard
	sessions   *session.Registry
	registry   *tools.Registry
	dispatcher *rpc.Dispatcher
}

// New builds a fully wired server from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	registry := tools.NewRegistry(logger, tools.WithObserver(observeToolCall))

	return &Server{
		cfg:        cfg,
		logger:     logger,
		guard:      auth.NewGuard(cfg.Auth.APIKey),
		sessions:   session.NewRegistry(logger),
		registry:   registry,
		dispatcher: rpc.NewDispatcher(registry, logger, "tripquote-gateway", serverVersion),
	}, nil
}

// Handler returns the complete HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/lab/analyze", s.handleLabAnalyze)
	mux.Handle("/mcp", s.guard.Middleware(http.HandlerFunc(s.handleMCP)))
	mux.Handle("/sse", s.guard.Middleware(http.HandlerFunc(s.handleSSE)))
	mux.Handle("/messages", s.guard.Middleware(http.HandlerFunc(s.handleMessages)))

	if s.cfg.Metrics.Enabled {
		mux.Handle(s.cfg.Metrics.Path, promhttp.Handler())
	}

	return s.recoverMiddleware(s.instrumentMiddleware(mux))
}

// Shutdown tears down every live SSE session.
func (s *Server) Shutdown() {
	s.sessions.CloseAll()
}

// handleHealth handles GET /health. No auth: load balancers and humans alike
// hit this.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

// readRPCBody enforces the content type and body size limits shared by both
// JSON-RPC entry points. A non-nil error has already been written to w.
func (s *Server) readRPCBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		s.writeError(w, http.StatusBadRequest, "Content-Type must be application/json")
		return nil, false
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}
	if len(body) > MaxRequestBodySize {
		s.writeError(w, http.StatusBadRequest, "request body too large")
		return nil, false
	}
	return body, true
}

// handleMCP handles POST /mcp: one JSON-RPC envelope in, one response out on
// the same connection. Protocol-level failures still travel as HTTP 200.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, ok := s.readRPCBody(w, r)
	if !ok {
		return
	}

	var req rpc.Request
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeJSON(w, http.StatusOK, rpc.NewError(nil, rpc.CodeParseError, "invalid JSON"))
		return
	}

	resp := s.dispatcher.Dispatch(r.Context(), req)
	if resp == nil {
		// Valid notification: nothing to reply with beyond a transport ack.
		s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// labAnalyzeRequest is the JSON request body for POST /lab/analyze.
type labAnalyzeRequest struct {
	Text string `json:"text"`
}

// handleLabAnalyze handles POST /lab/analyze, delegating to the text
// analysis collaborator. Deliberately unguarded: the lab page drives it.
func (s *Server) handleLabAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req labAnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBodySize)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == "" {
		s.writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	s.writeJSON(w, http.StatusOK, lab.Analyze(req.Text))
}

// writeJSON writes a JSON response with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

// writeError writes a short JSON error body.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
