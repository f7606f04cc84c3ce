package routing

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/BaSui01/agentbridge/registry"
	"github.com/BaSui01/agentbridge/types"
)

// Registry query primitives exposed to reasoner backends.
const (
	ToolListAgents            = "list_agents"
	ToolAgentsByProtocol      = "get_agents_by_protocol"
	ToolAgentsByCapabilityTag = "get_agents_by_capability_tag"
)

// ToolDefinition describes one query primitive in a backend-neutral form;
// each reasoner translates it into its SDK's tool schema.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// agentSummary is the compact record shape tool results carry. The full
// record stays in the recorder for validation.
type agentSummary struct {
	AgentID     string   `json:"agent_id"`
	Name        string   `json:"name"`
	Protocol    string   `json:"protocol"`
	Status      string   `json:"status"`
	Endpoint    string   `json:"endpoint"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Toolset is the read-only registry surface handed to a reasoner for one
// decision. Every record it returns is logged in a recorder; the validation
// gate accepts only agents the recorder saw. A Toolset is built per decision
// and discarded with it.
type Toolset struct {
	registry *registry.Registry

	mu   sync.Mutex
	seen map[string]*types.Agent
}

// NewToolset creates a toolset over the registry with an empty recorder.
func NewToolset(reg *registry.Registry) *Toolset {
	return &Toolset{
		registry: reg,
		seen:     make(map[string]*types.Agent),
	}
}

// Definitions lists the query primitives for prompt construction.
func (t *Toolset) Definitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        ToolListAgents,
			Description: "List every registered agent with its id, protocol, health status, and capability tags.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        ToolAgentsByProtocol,
			Description: "List registered agents speaking the given protocol.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"protocol": map[string]any{
						"type":        "string",
						"enum":        []string{"acp", "a2a", "mcp", "custom"},
						"description": "Protocol to filter by.",
					},
				},
				"required": []string{"protocol"},
			},
		},
		{
			Name:        ToolAgentsByCapabilityTag,
			Description: "List registered agents declaring the given capability tag. Tags are lowercase single words.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"tag": map[string]any{
						"type":        "string",
						"description": "Capability tag to filter by, e.g. \"math\".",
					},
				},
				"required": []string{"tag"},
			},
		},
	}
}

// Call dispatches one tool invocation and returns the JSON-encoded result.
// Unknown tools and undecodable arguments return errors for the backend to
// relay to the model.
func (t *Toolset) Call(name string, args json.RawMessage) (string, error) {
	switch name {
	case ToolListAgents:
		return t.render(t.registry.List())

	case ToolAgentsByProtocol:
		var params struct {
			Protocol string `json:"protocol"`
		}
		if err := unmarshalArgs(args, &params); err != nil {
			return "", err
		}
		proto := types.Protocol(params.Protocol)
		if !proto.Valid() {
			return "", fmt.Errorf("unknown protocol %q", params.Protocol)
		}
		return t.render(t.registry.ListByProtocol(proto))

	case ToolAgentsByCapabilityTag:
		var params struct {
			Tag string `json:"tag"`
		}
		if err := unmarshalArgs(args, &params); err != nil {
			return "", err
		}
		if params.Tag == "" {
			return "", fmt.Errorf("tag must not be empty")
		}
		return t.render(t.registry.ListByCapabilityTag(params.Tag))

	default:
		return "", fmt.Errorf("unknown tool %q", name)
	}
}

// Seen returns the record as it was when a tool (or the catalog) returned
// it during this decision.
func (t *Toolset) Seen(agentID string) (*types.Agent, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	agent, ok := t.seen[agentID]
	return agent, ok
}

// SeenCount returns how many distinct agents the recorder holds.
func (t *Toolset) SeenCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}

// observe logs records into the recorder. The first sighting wins so the
// validation gate compares against what the model actually saw.
func (t *Toolset) observe(agents ...*types.Agent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, agent := range agents {
		if agent == nil {
			continue
		}
		if _, ok := t.seen[agent.AgentID]; !ok {
			t.seen[agent.AgentID] = agent
		}
	}
}

func (t *Toolset) render(agents []*types.Agent) (string, error) {
	t.observe(agents...)

	summaries := make([]agentSummary, 0, len(agents))
	for _, ag := range agents {
		summaries = append(summaries, summarize(ag))
	}
	data, err := json.Marshal(summaries)
	if err != nil {
		return "", fmt.Errorf("encode tool result: %w", err)
	}
	return string(data), nil
}

func summarize(ag *types.Agent) agentSummary {
	tags := make([]string, 0)
	for _, c := range ag.Capabilities {
		tags = append(tags, c.Tags...)
	}
	return agentSummary{
		AgentID:     ag.AgentID,
		Name:        ag.Name,
		Protocol:    string(ag.Protocol),
		Status:      string(ag.Status),
		Endpoint:    ag.Endpoint,
		Description: ag.Description,
		Tags:        dedupeSorted(tags),
	}
}

func unmarshalArgs(args json.RawMessage, dest any) error {
	if len(args) == 0 {
		return fmt.Errorf("missing tool arguments")
	}
	if err := json.Unmarshal(args, dest); err != nil {
		return fmt.Errorf("decode tool arguments: %w", err)
	}
	return nil
}
