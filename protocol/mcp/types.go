// Package mcp implements the Model Context Protocol client used to treat
// MCP tool servers as agents: initialize negotiates the protocol version,
// tools/list enumerates capabilities and tools/call executes one.
package mcp

import (
	"encoding/json"
	"errors"
	"strings"
)

// ProtocolVersion is the protocol revision this client speaks.
const ProtocolVersion = "2024-11-05"

// SupportedVersions lists the server revisions the bridge accepts.
var SupportedVersions = []string{ProtocolVersion}

// Sentinel errors returned by the client. Callers classify them into the
// bridge error taxonomy.
var (
	// ErrUnavailable indicates the endpoint could not be reached or
	// answered with a non-success status.
	ErrUnavailable = errors.New("mcp: endpoint unavailable")
	// ErrMalformed indicates the endpoint answered with an undecodable or
	// incomplete payload.
	ErrMalformed = errors.New("mcp: malformed response")
	// ErrUnsupportedVersion indicates the server negotiated a protocol
	// revision the bridge does not speak.
	ErrUnsupportedVersion = errors.New("mcp: unsupported protocol version")
)

// ClientInfo identifies this client during initialize.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ServerInfo identifies the server in the initialize result.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializeParams is the initialize request payload.
type InitializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ClientInfo      ClientInfo     `json:"clientInfo"`
}

// InitializeResult is the initialize response payload.
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities,omitempty"`
	ServerInfo      ServerInfo     `json:"serverInfo"`
	Instructions    string         `json:"instructions,omitempty"`
}

// Tool is one tool definition from tools/list.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// ToolsListResult is the tools/list response payload.
type ToolsListResult struct {
	Tools []Tool `json:"tools"`
}

// CallParams is the tools/call request payload.
type CallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ContentItem is one typed content block in a tool result.
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// CallResult is the tools/call response payload. IsError marks a failure
// the tool itself reported, as opposed to a JSON-RPC error.
type CallResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// Text concatenates the text content items of the result.
func (r *CallResult) Text() string {
	var segs []string
	for _, item := range r.Content {
		if item.Type == "text" {
			segs = append(segs, item.Text)
		}
	}
	return strings.Join(segs, "\n")
}

func versionSupported(v string) bool {
	for _, s := range SupportedVersions {
		if s == v {
			return true
		}
	}
	return false
}
