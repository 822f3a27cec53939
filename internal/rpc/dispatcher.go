// ABOUTME: JSON-RPC method dispatcher routing the fixed MCP method table to the tool registry.
// ABOUTME: Tool failures come back as success envelopes with error-flagged content, never protocol errors.

package rpc

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tripquote/gateway/internal/tools"
)

// protocolVersion is the MCP protocol revision advertised in the handshake.
const protocolVersion = "2024-11-05"

// callParams are the params object for tools/call.
type callParams struct {
	Name      json.RawMessage `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Dispatcher validates envelopes and routes recognized methods.
type Dispatcher struct {
	registry      *tools.Registry
	logger        *slog.Logger
	serverName    string
	serverVersion string
}

// NewDispatcher creates a dispatcher over the given tool registry.
func NewDispatcher(registry *tools.Registry, logger *slog.Logger, serverName, serverVersion string) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry:      registry,
		logger:        logger,
		serverName:    serverName,
		serverVersion: serverVersion,
	}
}

// Dispatch processes one envelope and returns the response to deliver, or nil
// for a valid notification. Identifiers echo back verbatim, null included.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) *Response {
	if req.JSONRPC != Version {
		if req.IsNotification() {
			return nil
		}
		return NewError(req.ID, CodeInvalidRequest, "jsonrpc version must be \"2.0\"")
	}

	method, ok := methodString(req.Method)
	if !ok {
		if req.IsNotification() {
			return nil
		}
		return NewError(req.ID, CodeInvalidRequest, "method must be a string")
	}

	if req.IsNotification() {
		d.logger.Debug("notification accepted", "method", method)
		return nil
	}

	d.logger.Debug("rpc request", "method", method)

	switch method {
	case "initialize":
		return NewResult(req.ID, map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]any{
				"tools": map[string]any{},
			},
			"serverInfo": map[string]any{
				"name":    d.serverName,
				"version": d.serverVersion,
			},
		})

	case "tools/list":
		return NewResult(req.ID, map[string]any{"tools": d.registry.List()})

	case "tools/call":
		return d.dispatchToolCall(ctx, req)

	// Lenient clients probe these even though the server advertises no
	// prompts or resources; an empty collection keeps them happy.
	case "prompts/list":
		return NewResult(req.ID, map[string]any{"prompts": []any{}})
	case "resources/list":
		return NewResult(req.ID, map[string]any{"resources": []any{}})

	default:
		return NewError(req.ID, CodeMethodNotFound, "method not found: "+method)
	}
}

// dispatchToolCall validates tools/call params and invokes the registry.
func (d *Dispatcher) dispatchToolCall(ctx context.Context, req Request) *Response {
	if len(req.Params) == 0 {
		return NewError(req.ID, CodeInvalidParams, "params object is required")
	}

	var params callParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewError(req.ID, CodeInvalidParams, "params must be an object")
	}

	name, ok := methodString(params.Name)
	if !ok || name == "" {
		return NewError(req.ID, CodeInvalidParams, "tool name must be a non-empty string")
	}

	args := params.Arguments
	if len(args) > 0 && string(args) != "null" && !isJSONObject(args) {
		return NewError(req.ID, CodeInvalidParams, "arguments must be an object")
	}

	requestID := uuid.New().String()
	d.logger.Debug("tools/call", "tool_name", name, "request_id", requestID)

	result := d.registry.Invoke(ctx, name, args)

	d.logger.Debug("tools/call complete",
		"tool_name", name,
		"request_id", requestID,
		"is_error", result.IsError,
	)
	return NewResult(req.ID, result)
}

// methodString unquotes a raw JSON value expected to be a string.
func methodString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// isJSONObject reports whether raw starts an object, ruling out arrays and
// primitives without a full decode.
func isJSONObject(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}
