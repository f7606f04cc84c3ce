package api

import (
	"time"

	"github.com/BaSui01/agentbridge/types"
)

// RouteRequest asks the bridge to select an agent for a free-text query.
type RouteRequest struct {
	// Query is the free-text query to route.
	Query string `json:"query"`
	// Protocol restricts candidates to one protocol: acp, a2a, mcp, custom.
	Protocol string `json:"protocol,omitempty"`
	// Agent names the target agent directly, bypassing selection.
	Agent string `json:"agent,omitempty"`
	// Context carries caller metadata handed to the agent on execution.
	Context map[string]string `json:"context,omitempty"`
}

// ProcessResponse pairs the routing decision with the execution outcome.
// Result is nil when no capable agent was found.
type ProcessResponse struct {
	Decision *types.RoutingDecision `json:"decision"`
	Result   *types.ExecutionResult `json:"result,omitempty"`
}

// ListAgentsResponse is the agent listing payload.
type ListAgentsResponse struct {
	Agents []*types.Agent `json:"agents"`
	Total  int            `json:"total"`
}

// CapabilityGroup maps one capability tag to the agents declaring it.
type CapabilityGroup struct {
	Tag    string   `json:"tag"`
	Agents []string `json:"agents"`
}

// CapabilitiesResponse is the capability index payload.
type CapabilitiesResponse struct {
	Capabilities []CapabilityGroup `json:"capabilities"`
	Total        int               `json:"total"`
}

// RefreshResponse reports the registry state after a forced discovery cycle.
type RefreshResponse struct {
	Agents   int           `json:"agents"`
	Revision uint64        `json:"revision"`
	Elapsed  time.Duration `json:"elapsed"`
}
