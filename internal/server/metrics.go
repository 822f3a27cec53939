// ABOUTME: Prometheus collectors for the HTTP surface, tool calls, and SSE sessions.
// ABOUTME: All metric names share the tripquote_ prefix; nothing outside this package touches prometheus.

package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripquote_http_requests_total",
			Help: "HTTP requests by path, method, and status code.",
		},
		[]string{"path", "method", "code"},
	)

	toolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripquote_tool_calls_total",
			Help: "Tool invocations by tool name and outcome.",
		},
		[]string{"tool", "outcome"},
	)

	sseSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripquote_sse_sessions_active",
			Help: "Currently open SSE sessions.",
		},
	)
)

// observeToolCall is wired into the tool registry as its observer.
func observeToolCall(name string, isError bool) {
	outcome := "ok"
	if isError {
		outcome = "error"
	}
	toolCallsTotal.WithLabelValues(name, outcome).Inc()
}

func observeSessionOpened() { sseSessionsActive.Inc() }
func observeSessionClosed() { sseSessionsActive.Dec() }
