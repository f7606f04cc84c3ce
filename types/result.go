package types

import (
	"encoding/json"
	"time"
)

// ExecutionResult is the outcome of executing a query against an agent.
// Failures are carried inside the result as a classified Error; the gateway
// never surfaces a protocol failure as a bare Go error.
type ExecutionResult struct {
	// Success is true when the agent produced a usable response.
	Success bool `json:"success"`

	// Content is the canonical text extracted from the protocol envelope.
	Content string `json:"content"`

	// RawPayload is the verbatim response body, retained for debugging.
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`

	// Duration is the wall-clock time of the call.
	Duration time.Duration `json:"duration"`

	// AgentID and Protocol identify the agent that handled the query.
	AgentID  string   `json:"agent_id"`
	Protocol Protocol `json:"protocol"`

	// Error classifies the failure. Nil when Success is true.
	Error *Error `json:"error,omitempty"`
}

// Failed builds a failure result around a classified error.
func Failed(agentID string, protocol Protocol, duration time.Duration, err *Error) *ExecutionResult {
	return &ExecutionResult{
		Success:  false,
		Duration: duration,
		AgentID:  agentID,
		Protocol: protocol,
		Error:    err,
	}
}
