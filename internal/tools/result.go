// ABOUTME: Tool result types shared by every tool handler.
// ABOUTME: Failures are values; handlers never surface errors to the transport layer.

package tools

import (
	"encoding/json"
	"fmt"
)

// Content is one block of a tool result, mirroring the wire shape
// {type, text}.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Result is what every tool invocation produces. A domain failure is a Result
// with IsError set, not an error: the caller always receives well-formed
// content it can read in-band.
type Result struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}

// MissingField names one required argument the caller still owes, with a hint
// for how to fill it.
type MissingField struct {
	Field string `json:"field"`
	Hint  string `json:"hint"`
}

// Elicitation is the structured "more information needed" payload. It is
// delivered as a successful result so a conversational caller can correct the
// input without treating it as a failure.
type Elicitation struct {
	NeedsInput    bool           `json:"needsInput"`
	Message       string         `json:"message"`
	MissingFields []MissingField `json:"missingFields"`
}

// JSONResult marshals v into a single indented text block.
func JSONResult(v any) Result {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ErrorResult(fmt.Sprintf("failed to encode result: %v", err))
	}
	return Result{Content: []Content{{Type: "text", Text: string(data)}}}
}

// ErrorResult wraps a domain failure message as an error-flagged result.
func ErrorResult(msg string) Result {
	return Result{
		Content: []Content{{Type: "text", Text: msg}},
		IsError: true,
	}
}

// ElicitationResult builds the structured prompt asking for the given fields.
func ElicitationResult(message string, missing []MissingField) Result {
	return JSONResult(Elicitation{
		NeedsInput:    true,
		Message:       message,
		MissingFields: missing,
	})
}
