// ABOUTME: Handlers for the lab tools that analyze untrusted text.
// ABOUTME: Thin wrappers over internal/lab, wrapped in the standard result shape.

package tools

import (
	"context"
	"encoding/json"

	"github.com/tripquote/gateway/internal/lab"
)

type labArgs struct {
	Text string `json:"text"`
}

func (r *Registry) analyzeText(_ context.Context, raw json.RawMessage) Result {
	var args labArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return ErrorResult("invalid arguments: " + err.Error())
	}
	if args.Text == "" {
		return ErrorResult("missing required fields: text")
	}
	return JSONResult(lab.Analyze(args.Text))
}

func (r *Registry) simulateAction(_ context.Context, raw json.RawMessage) Result {
	var args labArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return ErrorResult("invalid arguments: " + err.Error())
	}
	if args.Text == "" {
		return ErrorResult("missing required fields: text")
	}
	return JSONResult(lab.Simulate(args.Text, r.Names()))
}
