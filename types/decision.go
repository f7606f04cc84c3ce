package types

import "time"

// RouteMethod records which path produced a routing decision.
type RouteMethod string

const (
	// RouteMethodExplicit means the caller named a healthy agent directly.
	RouteMethodExplicit RouteMethod = "explicit"
	// RouteMethodReasoner means the LLM backend proposed the agent and the
	// proposal passed validation.
	RouteMethodReasoner RouteMethod = "reasoner"
	// RouteMethodFallback means deterministic keyword matching selected the agent.
	RouteMethodFallback RouteMethod = "fallback"
	// RouteMethodNone means no capable agent was found.
	RouteMethodNone RouteMethod = "none"
)

// RoutingDecision is the outcome of one routing pass.
type RoutingDecision struct {
	// DecisionID uniquely identifies the decision.
	DecisionID string `json:"decision_id"`

	// SelectedAgent is the chosen agent, re-fetched from the registry at
	// decision time. Nil when no capable agent exists.
	SelectedAgent *Agent `json:"selected_agent"`

	// Confidence is the selection confidence, always within [0, 1].
	Confidence float64 `json:"confidence"`

	// Reasoning is a human-readable justification for the selection.
	Reasoning string `json:"reasoning"`

	// Alternatives lists other candidates that were considered.
	Alternatives []Alternative `json:"alternatives,omitempty"`

	// Method records which routing path produced this decision.
	Method RouteMethod `json:"method"`

	// Timestamp is when the decision was made.
	Timestamp time.Time `json:"timestamp"`

	// Elapsed is how long the routing pass took.
	Elapsed time.Duration `json:"elapsed"`
}

// Alternative is a non-selected routing candidate.
type Alternative struct {
	AgentID string  `json:"agent_id"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason,omitempty"`
}

// ClampConfidence forces a confidence value into [0, 1]. NaN clamps to 0.
func ClampConfidence(c float64) float64 {
	if c != c || c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
