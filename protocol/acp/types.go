// Package acp implements the Agent Communication Protocol client: agent
// manifests are listed from GET /agents and queries run through POST /runs.
package acp

import "errors"

// Sentinel errors returned by the client. Callers classify them into the
// bridge error taxonomy.
var (
	// ErrUnavailable indicates the endpoint could not be reached or
	// answered with a non-success status.
	ErrUnavailable = errors.New("acp: endpoint unavailable")
	// ErrMalformed indicates the endpoint answered with an undecodable or
	// incomplete payload.
	ErrMalformed = errors.New("acp: malformed response")
)

// Run lifecycle states.
const (
	RunStatusCreated    = "created"
	RunStatusInProgress = "in-progress"
	RunStatusAwaiting   = "awaiting"
	RunStatusCompleted  = "completed"
	RunStatusFailed     = "failed"
	RunStatusCancelled  = "cancelled"
)

// AgentManifest describes one agent hosted by an ACP server.
type AgentManifest struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// AgentsResponse is the GET /agents payload.
type AgentsResponse struct {
	Agents []AgentManifest `json:"agents"`
	// Version is the optional protocol version declared by the server.
	Version string `json:"version,omitempty"`
}

// MessagePart is one typed content part.
type MessagePart struct {
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
}

// Message is a role-tagged list of parts.
type Message struct {
	Role  string        `json:"role"`
	Parts []MessagePart `json:"parts"`
}

// TextMessage builds a user message with one text/plain part.
func TextMessage(role, content string) Message {
	return Message{
		Role:  role,
		Parts: []MessagePart{{Content: content, ContentType: "text/plain"}},
	}
}

// RunRequest is the POST /runs payload.
type RunRequest struct {
	AgentName string    `json:"agent_name"`
	Input     []Message `json:"input"`
	Mode      string    `json:"mode,omitempty"`
}

// Run is the run envelope returned by the server.
type Run struct {
	RunID     string    `json:"run_id"`
	AgentName string    `json:"agent_name"`
	Status    string    `json:"status"`
	Output    []Message `json:"output,omitempty"`
	Error     *RunError `json:"error,omitempty"`
}

// RunError is the structured error a failed run carries.
type RunError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Text concatenates the content of all output parts.
func (r *Run) Text() string {
	var out string
	for _, msg := range r.Output {
		for _, part := range msg.Parts {
			out += part.Content
		}
	}
	return out
}
