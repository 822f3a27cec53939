// ABOUTME: Tests for the session registry lifecycle and concurrency discipline.
// ABOUTME: Covers unique IDs, idempotent close, and send-after-close behavior.

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestOpenAssignsUniqueIDs(t *testing.T) {
	r := NewRegistry(nil)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := r.Open()
		if seen[s.ID] {
			t.Fatalf("duplicate session ID %q", s.ID)
		}
		seen[s.ID] = true
	}

	if got := r.Count(); got != 100 {
		t.Errorf("Count() = %d, want 100", got)
	}
}

func TestLookup(t *testing.T) {
	r := NewRegistry(nil)
	s := r.Open()

	got, err := r.Lookup(s.ID)
	if err != nil {
		t.Fatalf("Lookup(%q) returned error: %v", s.ID, err)
	}
	if got != s {
		t.Error("Lookup returned a different session")
	}

	if _, err := r.Lookup("never-issued"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Lookup of unknown ID = %v, want ErrSessionNotFound", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	r := NewRegistry(nil)
	s := r.Open()

	r.Close(s.ID)
	r.Close(s.ID)          // second close of same session
	r.Close("never-lived") // unknown session

	if _, err := r.Lookup(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Lookup after close = %v, want ErrSessionNotFound", err)
	}
}

func TestSendAfterClose(t *testing.T) {
	r := NewRegistry(nil)
	s := r.Open()
	r.Close(s.ID)

	err := s.Send(context.Background(), []byte("late"))
	if !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Send after close = %v, want ErrSessionClosed", err)
	}
}

func TestSendDeliversToReader(t *testing.T) {
	r := NewRegistry(nil)
	s := r.Open()

	if err := s.Send(context.Background(), []byte("hello")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case msg := <-s.Ch:
		if string(msg) != "hello" {
			t.Errorf("received %q, want %q", msg, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestSendHonorsContext(t *testing.T) {
	r := NewRegistry(nil)
	s := r.Open()

	// Fill the buffer so the next send blocks.
	for i := 0; i < outboundBuffer; i++ {
		if err := s.Send(context.Background(), []byte("fill")); err != nil {
			t.Fatalf("Send %d failed: %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Send(ctx, []byte("overflow")); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Send on full buffer = %v, want DeadlineExceeded", err)
	}
}

func TestConcurrentOpenCloseLookup(t *testing.T) {
	r := NewRegistry(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := r.Open()
			r.Lookup(s.ID)
			r.Close(s.ID)
			r.Close(s.ID)
		}()
	}
	wg.Wait()

	if got := r.Count(); got != 0 {
		t.Errorf("Count() after teardown = %d, want 0", got)
	}
}

func TestCloseAll(t *testing.T) {
	r := NewRegistry(nil)
	a := r.Open()
	b := r.Open()

	r.CloseAll()

	for _, s := range []*Session{a, b} {
		if err := s.Send(context.Background(), []byte("x")); !errors.Is(err, ErrSessionClosed) {
			t.Errorf("Send after CloseAll = %v, want ErrSessionClosed", err)
		}
	}
}
