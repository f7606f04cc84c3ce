// Package jsonrpc implements the JSON-RPC 2.0 framing shared by the A2A and
// MCP protocol clients, with HTTP POST and WebSocket transports.
package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Version is the JSON-RPC protocol version.
const Version = "2.0"

// Sentinel errors wrapping transport-level failures so callers can classify
// them without inspecting error strings.
var (
	// ErrTransport indicates the endpoint could not be reached or answered
	// outside the protocol (network error, non-2xx status).
	ErrTransport = errors.New("jsonrpc: transport failure")
	// ErrDecode indicates the endpoint answered with undecodable JSON-RPC.
	ErrDecode = errors.New("jsonrpc: malformed response")
)

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Message is a JSON-RPC 2.0 request or response.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  any             `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// NewRequest builds a request message.
func NewRequest(id any, method string, params any) *Message {
	return &Message{
		JSONRPC: Version,
		ID:      id,
		Method:  method,
		Params:  params,
	}
}
