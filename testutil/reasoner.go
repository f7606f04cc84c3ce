package testutil

import (
	"context"
	"sync"

	"github.com/BaSui01/agentbridge/routing"
)

// Reasoner is a scripted routing reasoner. Every Propose call answers with
// the configured agent, or Err when set. Safe for concurrent use.
type Reasoner struct {
	// AgentID is proposed on every call. Empty means "no capable agent".
	AgentID string
	// Confidence reported with each proposal. Zero defaults to 0.9.
	Confidence float64
	// Err is returned instead of a proposal when set.
	Err error

	mu    sync.Mutex
	calls int
}

// Propose implements routing.Reasoner.
func (r *Reasoner) Propose(ctx context.Context, req routing.ProposeRequest) (*routing.Proposal, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	confidence := r.Confidence
	if confidence == 0 {
		confidence = 0.9
	}
	return &routing.Proposal{
		AgentID:    r.AgentID,
		Confidence: confidence,
		Reasoning:  "scripted",
	}, nil
}

// Name implements routing.Reasoner.
func (r *Reasoner) Name() string { return "scripted" }

// Calls reports how many proposals were requested.
func (r *Reasoner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
