package types

import (
	"fmt"
	"strings"
	"time"
)

// Protocol identifies the wire protocol an agent speaks.
type Protocol string

const (
	// ProtocolACP is the Agent Communication Protocol (REST, /agents + /runs).
	ProtocolACP Protocol = "acp"
	// ProtocolA2A is the Agent-to-Agent protocol (agent card + JSON-RPC).
	ProtocolA2A Protocol = "a2a"
	// ProtocolMCP is the Model Context Protocol (JSON-RPC tools).
	ProtocolMCP Protocol = "mcp"
	// ProtocolCustom is the plain HTTP dialect (/info + /chat).
	ProtocolCustom Protocol = "custom"
)

// ParseProtocol converts a string into a Protocol, case-insensitively.
func ParseProtocol(s string) (Protocol, error) {
	switch Protocol(strings.ToLower(strings.TrimSpace(s))) {
	case ProtocolACP:
		return ProtocolACP, nil
	case ProtocolA2A:
		return ProtocolA2A, nil
	case ProtocolMCP:
		return ProtocolMCP, nil
	case ProtocolCustom:
		return ProtocolCustom, nil
	default:
		return "", fmt.Errorf("unknown protocol %q", s)
	}
}

// Valid reports whether p is one of the supported protocols.
func (p Protocol) Valid() bool {
	switch p {
	case ProtocolACP, ProtocolA2A, ProtocolMCP, ProtocolCustom:
		return true
	}
	return false
}

// HealthState represents the health of an agent in the registry.
type HealthState string

const (
	// HealthDiscovered is the initial state before the first probe result.
	HealthDiscovered HealthState = "discovered"
	// HealthHealthy indicates the latest probe succeeded.
	HealthHealthy HealthState = "healthy"
	// HealthDegraded indicates one consecutive probe failure.
	HealthDegraded HealthState = "degraded"
	// HealthUnhealthy indicates two or more consecutive probe failures.
	// Agents evict after staying unhealthy for a configured number of cycles.
	HealthUnhealthy HealthState = "unhealthy"
)

// Rank orders health states for routing: healthier ranks higher.
func (h HealthState) Rank() int {
	switch h {
	case HealthHealthy:
		return 3
	case HealthDegraded:
		return 2
	case HealthDiscovered:
		return 1
	default:
		return 0
	}
}

// Agent is the canonical record for a discovered agent, independent of the
// protocol it was discovered through. Records stored in the registry are
// immutable; updates replace the whole record.
type Agent struct {
	// AgentID uniquely identifies the agent across refresh cycles.
	AgentID string `json:"agent_id"`

	// Name is the agent's human-readable display name.
	Name string `json:"name"`

	// Description summarizes what the agent does.
	Description string `json:"description,omitempty"`

	// Protocol selects the discovery adapter and execution invoker.
	Protocol Protocol `json:"protocol"`

	// Endpoint is the agent's base URL.
	Endpoint string `json:"endpoint"`

	// Capabilities is the normalized capability list.
	Capabilities []Capability `json:"capabilities"`

	// Status is the current health state.
	Status HealthState `json:"status"`

	// DiscoveredAt is when the agent first appeared. Preserved across
	// refreshes; resets only if the agent is evicted and rediscovered.
	DiscoveredAt time.Time `json:"discovered_at"`

	// LastHealthCheck is when the agent was last probed.
	LastHealthCheck time.Time `json:"last_health_check"`

	// Metadata carries protocol-specific extras (declared version, card URL).
	Metadata map[string]string `json:"metadata,omitempty"`

	// ConsecutiveFailures counts probe failures since the last success.
	ConsecutiveFailures int `json:"consecutive_failures,omitempty"`

	// UnhealthyCycles counts refresh cycles spent in the unhealthy state.
	UnhealthyCycles int `json:"unhealthy_cycles,omitempty"`
}

// Clone returns a deep copy of the agent.
func (a *Agent) Clone() *Agent {
	if a == nil {
		return nil
	}
	cp := *a
	if a.Capabilities != nil {
		cp.Capabilities = make([]Capability, len(a.Capabilities))
		for i := range a.Capabilities {
			cp.Capabilities[i] = *a.Capabilities[i].Clone()
		}
	}
	if a.Metadata != nil {
		cp.Metadata = make(map[string]string, len(a.Metadata))
		for k, v := range a.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// HasTag reports whether any capability carries the given tag.
// The tag is expected in normalized (lowercase) form.
func (a *Agent) HasTag(tag string) bool {
	for i := range a.Capabilities {
		for _, t := range a.Capabilities[i].Tags {
			if t == tag {
				return true
			}
		}
	}
	return false
}

// TagSet returns the union of all capability tags.
func (a *Agent) TagSet() map[string]struct{} {
	set := make(map[string]struct{})
	for i := range a.Capabilities {
		for _, t := range a.Capabilities[i].Tags {
			set[t] = struct{}{}
		}
	}
	return set
}
