// ABOUTME: In-memory registry of live SSE sessions and their outbound channels.
// ABOUTME: All map access is mutex-guarded; Close is idempotent and safe against racing sends.

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound indicates the session identifier is unknown or already closed.
var ErrSessionNotFound = errors.New("unknown session")

// ErrSessionClosed indicates a send raced with the session shutting down.
var ErrSessionClosed = errors.New("session closed")

// outboundBuffer is the per-session channel capacity. Deliveries block once it
// fills, bounded by the sender's context.
const outboundBuffer = 16

// Session owns one SSE connection's outbound delivery channel. Exactly one
// goroutine (the SSE handler) reads from Ch; any request handler may call Send.
type Session struct {
	ID        string
	Ch        chan []byte
	CreatedAt time.Time

	closeMu sync.Mutex
	closed  bool
}

// Send hands a message to the session's outbound channel. Returns
// ErrSessionClosed if the session shut down, or the context error if the
// buffer stays full past the caller's deadline.
func (s *Session) Send(ctx context.Context, data []byte) error {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return ErrSessionClosed
	}
	// Hold the lock across the send so close cannot race it.
	select {
	case s.Ch <- data:
		s.closeMu.Unlock()
		return nil
	case <-ctx.Done():
		s.closeMu.Unlock()
		return ctx.Err()
	}
}

// close marks the session dead and closes the channel exactly once.
func (s *Session) close() {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.Ch)
}

// Registry maps session identifiers to live sessions. It is the only shared
// mutable state in the server; nothing persists across restarts.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	logger   *slog.Logger
}

// NewRegistry creates an empty session registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// Open creates a new live session with an identifier unique among live
// sessions. The identifier combines a nanosecond timestamp with a UUID so
// collisions are negligible even across rapid reconnects.
func (r *Registry) Open() *Session {
	s := &Session{
		ID:        fmt.Sprintf("%x-%s", time.Now().UnixNano(), uuid.New().String()),
		Ch:        make(chan []byte, outboundBuffer),
		CreatedAt: time.Now(),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.logger.Debug("session opened", "session_id", s.ID)
	return s
}

// Lookup returns the live session for the identifier, or ErrSessionNotFound.
func (r *Registry) Lookup(id string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close removes the session and closes its channel. Closing an unknown or
// already-closed session is a no-op.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return
	}
	s.close()
	r.logger.Debug("session closed", "session_id", id)
}

// CloseAll tears down every live session, used at shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
