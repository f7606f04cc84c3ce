// Package routing selects an agent for a free-text query. The engine tries
// an explicit agent preference first, then a cached decision, then the LLM
// reasoner, and finally deterministic keyword matching. Every reasoner
// proposal passes a validation gate before it is trusted: the proposed agent
// must be one the reasoner actually saw during the decision and must still
// be registered at the same endpoint.
package routing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/config"
	"github.com/BaSui01/agentbridge/discovery"
	"github.com/BaSui01/agentbridge/internal/cache"
	"github.com/BaSui01/agentbridge/internal/metrics"
	"github.com/BaSui01/agentbridge/registry"
	"github.com/BaSui01/agentbridge/types"
)

// Request is one routing question.
type Request struct {
	// Query is the free-text query to route.
	Query string `json:"query"`
	// Protocol restricts candidates to one protocol when set.
	Protocol *types.Protocol `json:"protocol,omitempty"`
	// Agent names the target agent directly, bypassing selection when the
	// agent is registered and healthy.
	Agent string `json:"agent,omitempty"`
	// Context carries caller metadata passed through to execution.
	Context map[string]string `json:"context,omitempty"`
}

// Engine routes queries against the live registry.
type Engine struct {
	registry  *registry.Registry
	reasoner  Reasoner
	store     cache.Store
	collector *metrics.Collector
	config    config.RoutingConfig
	logger    *zap.Logger
	counter   tokenCounter
}

// NewEngine builds a routing engine. reasoner may be nil (fallback-only
// routing) and store may be nil (no decision cache).
func NewEngine(reg *registry.Registry, reasoner Reasoner, store cache.Store, collector *metrics.Collector, cfg config.RoutingConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		registry:  reg,
		reasoner:  reasoner,
		store:     store,
		collector: collector,
		config:    cfg,
		logger:    logger.Named("routing"),
	}
}

// Route produces a routing decision for req. An error is returned only for
// invalid requests; "no capable agent" is a valid decision with a nil
// SelectedAgent and method none.
func (e *Engine) Route(ctx context.Context, req Request) (*types.RoutingDecision, error) {
	if strings.TrimSpace(req.Query) == "" && req.Agent == "" {
		return nil, types.NewRoutingError(types.ErrRoutingNoCandidate, "query must not be empty")
	}

	started := time.Now()

	if req.Agent != "" {
		decision, err := e.routeExplicit(req, started)
		if err != nil {
			return nil, err
		}
		e.collector.RecordDecision(decision.Method, decision.Elapsed)
		return decision, nil
	}

	cacheKey := e.cacheKey(req)
	if decision, ok := e.cachedDecision(ctx, cacheKey); ok {
		e.collector.RecordCacheHit()
		decision.Elapsed = time.Since(started)
		e.collector.RecordDecision(decision.Method, decision.Elapsed)
		return decision, nil
	}
	e.collector.RecordCacheMiss()

	decision := e.routeReasoner(ctx, req)
	if decision == nil {
		decision = e.routeFallback(req)
	}

	decision.DecisionID = uuid.NewString()
	decision.Timestamp = time.Now().UTC()
	decision.Elapsed = time.Since(started)

	e.storeDecision(ctx, cacheKey, decision)
	e.collector.RecordDecision(decision.Method, decision.Elapsed)
	e.logDecision(req, decision)
	return decision, nil
}

// routeExplicit honors a caller-named agent. Unknown agents are an error,
// and anything short of healthy too, so callers get a clear signal instead
// of a silent reroute.
func (e *Engine) routeExplicit(req Request, started time.Time) (*types.RoutingDecision, error) {
	agent, ok := e.registry.Get(req.Agent)
	if !ok {
		return nil, types.NewError(types.ErrAgentNotFound,
			fmt.Sprintf("agent %q is not registered", req.Agent)).WithAgent(req.Agent)
	}
	if agent.Status != types.HealthHealthy {
		return nil, types.NewRoutingError(types.ErrRoutingNoCandidate,
			fmt.Sprintf("agent %q is %s", req.Agent, agent.Status)).WithAgent(req.Agent)
	}
	return &types.RoutingDecision{
		DecisionID:    uuid.NewString(),
		SelectedAgent: agent,
		Confidence:    1.0,
		Reasoning:     "caller named the agent explicitly",
		Method:        types.RouteMethodExplicit,
		Timestamp:     time.Now().UTC(),
		Elapsed:       time.Since(started),
	}, nil
}

// routeReasoner runs the LLM backend with the validation gate. It returns
// nil whenever the fallback path should take over: no reasoner configured,
// backend error, or a proposal rejected twice.
func (e *Engine) routeReasoner(ctx context.Context, req Request) *types.RoutingDecision {
	if e.reasoner == nil {
		return nil
	}
	candidates := e.candidates(req.Protocol)
	if len(candidates) == 0 {
		return nil
	}

	timeout := e.config.Reasoner.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tools := NewToolset(e.registry)
	catalog, included := buildCatalog(candidates, e.config.Reasoner.CatalogTokenBudget, &e.counter)
	tools.observe(included...)

	propose := ProposeRequest{
		Query:    req.Query,
		Protocol: req.Protocol,
		Catalog:  catalog,
		Tools:    tools,
	}

	for attempt := 0; attempt < 2; attempt++ {
		proposal, err := e.reasoner.Propose(ctx, propose)
		if err != nil {
			e.logger.Warn("reasoner unavailable, falling back",
				zap.String("backend", e.reasoner.Name()),
				zap.Error(err))
			return nil
		}
		if proposal.AgentID == "" {
			// The model decided no agent fits. Let the deterministic
			// pass confirm before giving up.
			return nil
		}

		agent, rejection := e.validate(tools, proposal, req.Protocol)
		if rejection == "" {
			return &types.RoutingDecision{
				SelectedAgent: agent,
				Confidence:    types.ClampConfidence(proposal.Confidence),
				Reasoning:     proposal.Reasoning,
				Method:        types.RouteMethodReasoner,
			}
		}

		e.collector.RecordValidationRejection()
		e.logger.Warn("reasoner proposal rejected",
			zap.String("backend", e.reasoner.Name()),
			zap.String("proposed_agent", proposal.AgentID),
			zap.String("rejection", rejection),
			zap.Int("attempt", attempt+1))
		propose.Hint = fmt.Sprintf(
			"Your previous answer %q was rejected: %s. Select an agent_id exactly as listed, or use an empty agent_id.",
			proposal.AgentID, rejection)
	}
	return nil
}

// validate is the anti-hallucination gate. A proposal passes only when the
// decision recorder saw the agent, the agent is still registered, and the
// live endpoint matches the one the model was shown.
func (e *Engine) validate(tools *Toolset, proposal *Proposal, preferred *types.Protocol) (*types.Agent, string) {
	seen, ok := tools.Seen(proposal.AgentID)
	if !ok {
		return nil, "agent was not in the catalog or any tool result"
	}
	live, ok := e.registry.Get(proposal.AgentID)
	if !ok {
		return nil, "agent is no longer registered"
	}
	if live.Endpoint != seen.Endpoint {
		return nil, "agent endpoint changed during the decision"
	}
	if live.Status == types.HealthUnhealthy {
		return nil, fmt.Sprintf("agent is %s", live.Status)
	}
	if preferred != nil && live.Protocol != *preferred {
		return nil, fmt.Sprintf("agent speaks %s, caller requires %s", live.Protocol, *preferred)
	}
	return live, ""
}

// routeFallback matches query tokens against capability tags. It always
// produces a decision; with no match the decision has method none.
func (e *Engine) routeFallback(req Request) *types.RoutingDecision {
	tokens := discovery.Tokenize(req.Query)
	scored := rankByKeywords(e.candidates(req.Protocol), tokens, req.Protocol)

	if len(scored) == 0 {
		return &types.RoutingDecision{
			Confidence: 0.0,
			Reasoning:  "no capable agent: no registered capability matches the query",
			Method:     types.RouteMethodNone,
		}
	}

	best := scored[0]
	confidence := 0.0
	if len(tokens) > 0 {
		confidence = types.ClampConfidence(float64(best.matched) / float64(len(tokens)))
	}

	alternatives := make([]types.Alternative, 0, len(scored)-1)
	for _, cand := range scored[1:] {
		if len(alternatives) == maxAlternatives {
			break
		}
		score := 0.0
		if len(tokens) > 0 {
			score = types.ClampConfidence(float64(cand.matched) / float64(len(tokens)))
		}
		alternatives = append(alternatives, types.Alternative{
			AgentID: cand.agent.AgentID,
			Score:   score,
			Reason:  fmt.Sprintf("%d matching capability tags", cand.matched),
		})
	}

	return &types.RoutingDecision{
		SelectedAgent: best.agent,
		Confidence:    confidence,
		Reasoning: fmt.Sprintf("keyword fallback: %d of %d query terms match capability tags",
			best.matched, len(tokens)),
		Alternatives: alternatives,
		Method:       types.RouteMethodFallback,
	}
}

// maxAlternatives bounds the alternatives list in a decision.
const maxAlternatives = 3

// candidates returns routable agents, honoring the protocol preference.
// Unhealthy and evicted agents never route.
func (e *Engine) candidates(preferred *types.Protocol) []*types.Agent {
	var agents []*types.Agent
	if preferred != nil {
		agents = e.registry.ListByProtocol(*preferred)
	} else {
		agents = e.registry.List()
	}
	routable := agents[:0]
	for _, ag := range agents {
		if ag.Status.Rank() > 0 {
			routable = append(routable, ag)
		}
	}
	return routable
}

// cacheKey hashes the query, the preferences, and the registry revision.
// Any registry change bumps the revision, so stale decisions miss instead
// of routing to agents that moved or left.
func (e *Engine) cacheKey(req Request) string {
	h := sha256.New()
	fmt.Fprintf(h, "q=%s;", req.Query)
	if req.Protocol != nil {
		fmt.Fprintf(h, "p=%s;", *req.Protocol)
	}
	fmt.Fprintf(h, "rev=%d", e.registry.Revision())
	return "decision:" + hex.EncodeToString(h.Sum(nil))
}

func (e *Engine) cachedDecision(ctx context.Context, key string) (*types.RoutingDecision, bool) {
	if e.store == nil {
		return nil, false
	}
	var decision types.RoutingDecision
	if err := cache.GetJSON(ctx, e.store, key, &decision); err != nil {
		if !cache.IsMiss(err) {
			e.logger.Warn("decision cache read failed", zap.Error(err))
		}
		return nil, false
	}
	// Re-stamp: the cached selection is reused, the identity is not.
	decision.DecisionID = uuid.NewString()
	decision.Timestamp = time.Now().UTC()
	return &decision, true
}

func (e *Engine) storeDecision(ctx context.Context, key string, decision *types.RoutingDecision) {
	if e.store == nil || decision.Method == types.RouteMethodNone {
		return
	}
	if err := cache.SetJSON(ctx, e.store, key, decision, e.config.Cache.TTL); err != nil {
		e.logger.Warn("decision cache write failed", zap.Error(err))
	}
}

func (e *Engine) logDecision(req Request, decision *types.RoutingDecision) {
	fields := []zap.Field{
		zap.String("decision_id", decision.DecisionID),
		zap.String("method", string(decision.Method)),
		zap.Float64("confidence", decision.Confidence),
		zap.Duration("elapsed", decision.Elapsed),
	}
	if decision.SelectedAgent != nil {
		fields = append(fields,
			zap.String("agent_id", decision.SelectedAgent.AgentID),
			zap.String("protocol", string(decision.SelectedAgent.Protocol)))
	}
	if decision.Method == types.RouteMethodNone {
		e.logger.Info("no capable agent for query", fields...)
		return
	}
	e.logger.Info("query routed", fields...)
}
