// Package a2a implements the Agent-to-Agent protocol client: discovery
// through the well-known agent card and messaging through JSON-RPC
// message/send, with SSE streaming via message/stream.
package a2a

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// WellKnownPath is where agent cards are published.
const WellKnownPath = "/.well-known/agent.json"

// Part kinds carried in messages, tasks, and artifacts.
const (
	PartKindText = "text"
	PartKindFile = "file"
	PartKindData = "data"
)

// Task states that end a task.
const (
	TaskStateCompleted = "completed"
	TaskStateFailed    = "failed"
	TaskStateCanceled  = "canceled"
	TaskStateRejected  = "rejected"
)

// Sentinel errors returned by the client.
var (
	// ErrUnavailable indicates the endpoint could not be reached.
	ErrUnavailable = errors.New("a2a: endpoint unavailable")
	// ErrMalformed indicates an undecodable or incomplete payload.
	ErrMalformed = errors.New("a2a: malformed response")
)

// AgentCard is the agent's self-description served at the well-known path.
type AgentCard struct {
	Name            string            `json:"name"`
	Description     string            `json:"description,omitempty"`
	URL             string            `json:"url,omitempty"`
	Version         string            `json:"version,omitempty"`
	ProtocolVersion string            `json:"protocolVersion,omitempty"`
	Capabilities    CardCapabilities  `json:"capabilities,omitempty"`
	Skills          []Skill           `json:"skills"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// CardCapabilities flags optional protocol features.
type CardCapabilities struct {
	Streaming         bool `json:"streaming,omitempty"`
	PushNotifications bool `json:"pushNotifications,omitempty"`
}

// Skill is one declared skill on an agent card.
type Skill struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// Validate checks the card carries the fields discovery depends on.
func (c *AgentCard) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: card missing name", ErrMalformed)
	}
	for i, skill := range c.Skills {
		if strings.TrimSpace(skill.Name) == "" {
			return fmt.Errorf("%w: skill %d missing name", ErrMalformed, i)
		}
	}
	return nil
}

// Part is one typed content segment.
type Part struct {
	Kind string `json:"kind"`
	Text string `json:"text,omitempty"`
	// Data carries structured content for kind "data".
	Data json.RawMessage `json:"data,omitempty"`
}

// Message is a role-tagged list of parts.
type Message struct {
	Role      string `json:"role"`
	Parts     []Part `json:"parts"`
	MessageID string `json:"messageId,omitempty"`
	Kind      string `json:"kind,omitempty"`
}

// SendParams is the params object for message/send and message/stream.
type SendParams struct {
	Message Message `json:"message"`
}

// TaskStatus reports a task's state.
type TaskStatus struct {
	State   string   `json:"state"`
	Message *Message `json:"message,omitempty"`
}

// Artifact is one output artifact on a task.
type Artifact struct {
	ArtifactID string `json:"artifactId,omitempty"`
	Name       string `json:"name,omitempty"`
	Parts      []Part `json:"parts"`
}

// Task is the task-shaped result envelope.
type Task struct {
	ID        string     `json:"id,omitempty"`
	Kind      string     `json:"kind,omitempty"`
	Status    TaskStatus `json:"status"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
	History   []Message  `json:"history,omitempty"`
}

// CollectText extracts canonical text from any result shape the protocol
// produces: a message, a task with artifacts, or a bare array of parts.
// The second return reports whether the shape was recognized at all.
func CollectText(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	// bare array of parts
	var parts []Part
	if err := json.Unmarshal(raw, &parts); err == nil {
		if text, ok := textFromParts(parts); ok {
			return text, true
		}
	}

	var probe struct {
		Kind      string     `json:"kind"`
		Parts     []Part     `json:"parts"`
		Status    TaskStatus `json:"status"`
		Artifacts []Artifact `json:"artifacts"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", false
	}

	// message-shaped result
	if len(probe.Parts) > 0 {
		if text, ok := textFromParts(probe.Parts); ok {
			return text, true
		}
	}

	// task-shaped result
	var segments []string
	for _, artifact := range probe.Artifacts {
		if text, ok := textFromParts(artifact.Parts); ok {
			segments = append(segments, text)
		}
	}
	if probe.Status.Message != nil {
		if text, ok := textFromParts(probe.Status.Message.Parts); ok {
			segments = append(segments, text)
		}
	}
	if len(segments) > 0 {
		return strings.Join(segments, "\n"), true
	}

	// recognized but empty task
	if probe.Kind == "task" || probe.Status.State != "" {
		return "", true
	}
	return "", false
}

// TerminalFailure reports whether a task-shaped result ended in a
// non-success state, with the state name.
func TerminalFailure(raw json.RawMessage) (string, bool) {
	var probe struct {
		Status TaskStatus `json:"status"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", false
	}
	switch probe.Status.State {
	case TaskStateFailed, TaskStateCanceled, TaskStateRejected:
		return probe.Status.State, true
	}
	return "", false
}

func textFromParts(parts []Part) (string, bool) {
	var segs []string
	seen := false
	for _, p := range parts {
		if p.Kind == PartKindText {
			seen = true
			segs = append(segs, p.Text)
		}
	}
	if !seen {
		return "", false
	}
	return strings.Join(segs, ""), true
}
