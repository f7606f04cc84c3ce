package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BaSui01/agentbridge/types"
)

// systemPrompt frames the selection task for every reasoner backend.
const systemPrompt = `You are a routing assistant for a multi-protocol agent bridge.
Given a user query and a catalog of registered agents, select the single agent
best able to answer the query. You may call the provided tools to inspect the
registry. You must select an agent_id exactly as it appears in the catalog or
in a tool result; never invent one.

Answer with a JSON object only, no prose around it:
{"agent_id": "<id>", "confidence": <0.0-1.0>, "reasoning": "<one sentence>"}

If no registered agent can handle the query, use an empty agent_id.`

// Proposal is a reasoner's answer: the selected agent, the backend's own
// confidence, and a short justification. The engine validates every proposal
// before trusting it.
type Proposal struct {
	AgentID    string  `json:"agent_id"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// ProposeRequest carries one selection task to a reasoner backend.
type ProposeRequest struct {
	// Query is the user's query text.
	Query string
	// Protocol is the caller's protocol preference, if any.
	Protocol *types.Protocol
	// Catalog is the rendered agent catalog for the prompt.
	Catalog string
	// Hint carries the corrective message after a rejected proposal.
	Hint string
	// Tools is the per-decision registry toolset. Backends expose its
	// definitions to the model and dispatch tool calls through it.
	Tools *Toolset
}

// Reasoner proposes an agent for a query. Implementations wrap one LLM
// provider; they never mutate the registry.
type Reasoner interface {
	// Propose runs one bounded reasoning pass. An error means the backend
	// was unreachable or produced nothing usable; the engine falls back to
	// deterministic routing either way.
	Propose(ctx context.Context, req ProposeRequest) (*Proposal, error)
	// Name identifies the backend in logs.
	Name() string
}

// userPrompt renders the task message sent to the model.
func userPrompt(req ProposeRequest) string {
	var b strings.Builder
	b.WriteString("Query: ")
	b.WriteString(req.Query)
	b.WriteString("\n")
	if req.Protocol != nil {
		fmt.Fprintf(&b, "Preferred protocol: %s\n", *req.Protocol)
	}
	b.WriteString("\nRegistered agents:\n")
	b.WriteString(req.Catalog)
	if req.Hint != "" {
		b.WriteString("\n")
		b.WriteString(req.Hint)
	}
	return b.String()
}

// parseProposal decodes the model's final JSON answer. Models wrap JSON in
// code fences often enough that the fences are stripped first.
func parseProposal(content string) (*Proposal, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	if start := strings.Index(content, "{"); start > 0 {
		content = content[start:]
	}
	if end := strings.LastIndex(content, "}"); end >= 0 && end < len(content)-1 {
		content = content[:end+1]
	}

	var p Proposal
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return nil, fmt.Errorf("parse proposal: %w", err)
	}
	p.Confidence = types.ClampConfidence(p.Confidence)
	return &p, nil
}
