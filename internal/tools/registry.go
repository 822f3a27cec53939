// ABOUTME: Static tool catalog and dispatch table for the quoting tools.
// ABOUTME: Schemas document the contract for listing; enforcement lives in each handler.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Definition describes one tool for tools/list. InputSchema is documentation
// only; each handler validates its own arguments.
type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// Handler executes one tool against already-decoded raw arguments.
type Handler func(ctx context.Context, args json.RawMessage) Result

// tool pairs a definition with its handler.
type tool struct {
	Definition Definition
	Handler    Handler
}

// Registry is the fixed catalog of tools. It is immutable after construction,
// so lookups need no locking.
type Registry struct {
	logger  *slog.Logger
	now     func() time.Time
	observe func(name string, isError bool)
	tools   map[string]*tool
	order   []string
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the clock used for date policy, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithObserver installs a callback invoked after every tool execution,
// used by the server for metrics.
func WithObserver(observe func(name string, isError bool)) Option {
	return func(r *Registry) { r.observe = observe }
}

// NewRegistry builds the catalog with every tool registered.
func NewRegistry(logger *slog.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		logger: logger,
		now:    time.Now,
		tools:  make(map[string]*tool),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.register(Definition{
		Name:        "search_flights",
		Description: "Search round-trip flights between two cities or airport codes and return a priced quote.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"from":{"type":"string","description":"Origin city or 3-letter airport code"},"to":{"type":"string","description":"Destination city or 3-letter airport code"},"departDate":{"type":"string","format":"date"},"returnDate":{"type":"string","format":"date"},"passengers":{"type":"integer","minimum":1}},"required":["from","to","departDate","returnDate","passengers"]}`),
	}, r.searchFlights)

	r.register(Definition{
		Name:        "search_hotels",
		Description: "Search hotels in a city for a date range and return a priced quote.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"city":{"type":"string"},"checkInDate":{"type":"string","format":"date"},"checkOutDate":{"type":"string","format":"date"},"rooms":{"type":"integer","minimum":1},"guests":{"type":"integer","minimum":1}},"required":["city","checkInDate","checkOutDate","rooms"]}`),
	}, r.searchHotels)

	r.register(Definition{
		Name:        "create_itinerary",
		Description: "Build a combined flight and hotel itinerary with a grand total. When details are missing, responds with a structured prompt listing exactly which fields are still needed; date-policy problems are reported the same way, always re-asking for departDate and checkInDate.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"from":{"type":"string"},"to":{"type":"string"},"departDate":{"type":"string","format":"date"},"returnDate":{"type":"string","format":"date"},"passengers":{"type":"integer","minimum":1},"city":{"type":"string"},"checkInDate":{"type":"string","format":"date"},"checkOutDate":{"type":"string","format":"date"},"rooms":{"type":"integer","minimum":1},"guests":{"type":"integer","minimum":1}},"required":["from","to","departDate","returnDate","passengers","city","checkInDate","checkOutDate","rooms"]}`),
	}, r.createItinerary)

	r.register(Definition{
		Name:        "analyze_text",
		Description: "Run heuristic injection analysis over arbitrary untrusted text and return matched indicators with a risk score.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`),
	}, r.analyzeText)

	r.register(Definition{
		Name:        "simulate_action",
		Description: "Contrast what a naive agent would do with a piece of untrusted text against the safe handling, given the tools available on this server.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`),
	}, r.simulateAction)

	return r
}

func (r *Registry) register(def Definition, h Handler) {
	r.tools[def.Name] = &tool{Definition: def, Handler: h}
	r.order = append(r.order, def.Name)
}

// List returns every tool definition in registration order.
func (r *Registry) List() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition)
	}
	return defs
}

// Names returns the registered tool names in order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Invoke runs the named tool. It never returns an error and never panics
// upward: an unknown tool or a handler panic becomes an error-flagged result
// the caller reads in-band.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (res Result) {
	// Registered first so it runs last and sees the final result, even when
	// the recover below replaced it.
	defer func() {
		if r.observe != nil {
			r.observe(name, res.IsError)
		}
	}()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool handler panicked", "tool_name", name, "panic", rec)
			res = ErrorResult(fmt.Sprintf("tool %q failed: internal error", name))
		}
	}()

	t, ok := r.tools[name]
	if !ok {
		return ErrorResult(fmt.Sprintf("unknown tool %q", name))
	}

	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	return t.Handler(ctx, args)
}
