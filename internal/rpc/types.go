// ABOUTME: JSON-RPC 2.0 envelope types and standard error codes.
// ABOUTME: IDs stay raw so they echo back verbatim, including null.

package rpc

import "encoding/json"

// Version is the only protocol version tag accepted or emitted.
const Version = "2.0"

// Request is a JSON-RPC 2.0 request envelope. Method stays raw until the
// dispatcher has confirmed it is a JSON string.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  json.RawMessage `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the envelope carries no identifier. A
// notification must never produce a reply.
func (r Request) IsNotification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

// Response is a JSON-RPC 2.0 response envelope. Exactly one of Result or
// Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Standard JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// NewResult builds a success envelope echoing the request identifier.
func NewResult(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: Version, ID: normalizeID(id), Result: result}
}

// NewError builds an error envelope echoing the request identifier.
func NewError(id json.RawMessage, code int, message string) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      normalizeID(id),
		Error:   &Error{Code: code, Message: message},
	}
}

// normalizeID keeps absent IDs serializable as null.
func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}
