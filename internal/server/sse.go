// ABOUTME: SSE session establishment and the paired POST delivery endpoint.
// ABOUTME: Results for a paired POST travel over the owning session's channel, never the POST response.

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tripquote/gateway/internal/rpc"
)

// handleSSE handles GET /sse. It opens a session, tells the client where to
// POST, and then owns the stream until the client goes away: message events
// from paired POSTs, comment heartbeats in between.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.logger.Error("streaming not supported")
		s.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sess := s.sessions.Open()
	observeSessionOpened()
	defer func() {
		s.sessions.Close(sess.ID)
		observeSessionClosed()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	endpoint := fmt.Sprintf("%s/messages?sessionId=%s", s.cfg.Server.PublicURL, sess.ID)
	writeSSEEvent(w, "endpoint", endpoint)
	writeSSEEvent(w, "session", sess.ID)
	flusher.Flush()

	s.logger.Info("sse stream opened", "session_id", sess.ID)

	heartbeat := time.NewTicker(s.cfg.SSE.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("sse stream closed by client", "session_id", sess.ID)
			return

		case <-heartbeat.C:
			// Comment-only frame: keeps idle proxies from reaping the stream.
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()

		case msg, open := <-sess.Ch:
			if !open {
				return
			}
			writeSSEEvent(w, "message", string(msg))
			flusher.Flush()
		}
	}
}

// handleMessages handles POST /messages?sessionId=...; the dispatched result
// goes out as an SSE message event on the matching session while the POST
// itself gets a lightweight acknowledgment.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		s.writeError(w, http.StatusBadRequest, "sessionId query parameter is required")
		return
	}

	sess, err := s.sessions.Lookup(sessionID)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "unknown session")
		return
	}

	body, ok := s.readRPCBody(w, r)
	if !ok {
		return
	}

	var req rpc.Request
	if err := json.Unmarshal(body, &req); err != nil {
		// Nothing to correlate on the stream; the parse error answers the
		// POST directly, still as a protocol-level (HTTP 200) failure.
		s.writeJSON(w, http.StatusOK, rpc.NewError(nil, rpc.CodeParseError, "invalid JSON"))
		return
	}

	resp := s.dispatcher.Dispatch(r.Context(), req)
	if resp == nil {
		s.writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to encode rpc response", "error", err, "session_id", sessionID)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := sess.Send(r.Context(), data); err != nil {
		s.logger.Warn("session delivery failed", "session_id", sessionID, "error", err)
		s.writeError(w, http.StatusBadRequest, "unknown session")
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}

// writeSSEEvent writes a single SSE event frame.
func writeSSEEvent(w http.ResponseWriter, event, data string) {
	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", data)
}
