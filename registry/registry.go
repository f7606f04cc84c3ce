// Package registry provides the concurrency-safe agent registry.
//
// Records are immutable once stored: every update builds a new record and
// swaps the pointer, so readers never observe a partially written agent and
// never block on writers. The registry is an explicitly owned instance;
// construct one and hand it to the components that need it.
package registry

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/types"
)

// EventType identifies a registry event.
type EventType string

const (
	// EventAgentRegistered fires when an agent appears for the first time.
	EventAgentRegistered EventType = "agent_registered"
	// EventAgentUpdated fires when an existing agent is refreshed.
	EventAgentUpdated EventType = "agent_updated"
	// EventAgentRecovered fires when a degraded or unhealthy agent turns healthy.
	EventAgentRecovered EventType = "agent_recovered"
	// EventAgentDegraded fires on the first consecutive probe failure.
	EventAgentDegraded EventType = "agent_degraded"
	// EventAgentUnhealthy fires when failures continue past degraded.
	EventAgentUnhealthy EventType = "agent_unhealthy"
	// EventAgentEvicted fires when an unhealthy agent is removed.
	EventAgentEvicted EventType = "agent_evicted"
)

// Event describes a registry state change.
type Event struct {
	Type      EventType         `json:"type"`
	AgentID   string            `json:"agent_id"`
	Status    types.HealthState `json:"status,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// EventHandler receives registry events. Handlers run synchronously on the
// mutating goroutine and must not block.
type EventHandler func(event Event)

// Config holds registry configuration.
type Config struct {
	// EvictAfter is the number of consecutive unhealthy cycles before an
	// agent is evicted.
	EvictAfter int `json:"evict_after"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{EvictAfter: 3}
}

// Registry is an in-memory agent registry safe for concurrent use. Lookups
// are lock-free; mutations come from the discovery refresher, one record at
// a time.
type Registry struct {
	// agents maps agent_id to an immutable *types.Agent.
	agents sync.Map

	// size tracks the number of stored agents.
	size atomic.Int64

	// revision increments on every mutation. Consumers use it to detect
	// staleness, e.g. the routing decision cache keys on it.
	revision atomic.Uint64

	handlerMu sync.RWMutex
	handlers  map[string]EventHandler
	handlerID atomic.Uint64

	config *Config
	logger *zap.Logger
}

// New creates a registry.
func New(config *Config, logger *zap.Logger) *Registry {
	if config == nil {
		config = DefaultConfig()
	}
	if config.EvictAfter < 1 {
		config.EvictAfter = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		config:   config,
		handlers: make(map[string]EventHandler),
		logger:   logger.With(zap.String("component", "registry")),
	}
}

// Upsert stores an agent record, replacing any existing record wholesale.
// The agent arrives from a successful probe, so its status becomes healthy
// and failure counters reset. DiscoveredAt of an existing record is
// preserved; partial mutation never happens.
func (r *Registry) Upsert(agent *types.Agent) error {
	if agent == nil {
		return fmt.Errorf("agent is nil")
	}
	if agent.AgentID == "" {
		return fmt.Errorf("agent id is empty")
	}
	if agent.Name == "" {
		return fmt.Errorf("agent name is empty")
	}
	if agent.Endpoint == "" {
		return fmt.Errorf("agent endpoint is empty")
	}
	if !agent.Protocol.Valid() {
		return fmt.Errorf("unknown protocol %q", agent.Protocol)
	}

	now := time.Now()
	record := agent.Clone()
	record.Status = types.HealthHealthy
	record.ConsecutiveFailures = 0
	record.UnhealthyCycles = 0
	record.LastHealthCheck = now
	if record.Capabilities == nil {
		record.Capabilities = []types.Capability{}
	}

	prev, existed := r.load(record.AgentID)
	if existed {
		record.DiscoveredAt = prev.DiscoveredAt
	} else if record.DiscoveredAt.IsZero() {
		record.DiscoveredAt = now
	}

	r.agents.Store(record.AgentID, record)
	r.revision.Add(1)
	if !existed {
		r.size.Add(1)
	}

	switch {
	case !existed:
		r.logger.Info("agent registered",
			zap.String("agent_id", record.AgentID),
			zap.String("protocol", string(record.Protocol)),
			zap.Int("capabilities", len(record.Capabilities)),
		)
		r.emit(Event{Type: EventAgentRegistered, AgentID: record.AgentID, Status: record.Status, Timestamp: now})
	case prev.Status != types.HealthHealthy:
		r.logger.Info("agent recovered",
			zap.String("agent_id", record.AgentID),
			zap.String("previous_status", string(prev.Status)),
		)
		r.emit(Event{Type: EventAgentRecovered, AgentID: record.AgentID, Status: record.Status, Timestamp: now})
	default:
		r.emit(Event{Type: EventAgentUpdated, AgentID: record.AgentID, Status: record.Status, Timestamp: now})
	}

	return nil
}

// Get returns a deep copy of the agent with the given id.
func (r *Registry) Get(agentID string) (*types.Agent, bool) {
	rec, ok := r.load(agentID)
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// List returns deep copies of all live agents, ordered by agent id.
func (r *Registry) List() []*types.Agent {
	var out []*types.Agent
	r.agents.Range(func(_, value any) bool {
		out = append(out, value.(*types.Agent).Clone())
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out
}

// ListByProtocol returns all agents speaking the given protocol.
func (r *Registry) ListByProtocol(p types.Protocol) []*types.Agent {
	var out []*types.Agent
	r.agents.Range(func(_, value any) bool {
		rec := value.(*types.Agent)
		if rec.Protocol == p {
			out = append(out, rec.Clone())
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out
}

// ListByCapabilityTag returns all agents with a capability carrying the tag.
// The tag is matched in normalized (lowercase) form.
func (r *Registry) ListByCapabilityTag(tag string) []*types.Agent {
	var out []*types.Agent
	r.agents.Range(func(_, value any) bool {
		rec := value.(*types.Agent)
		if rec.HasTag(tag) {
			out = append(out, rec.Clone())
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out
}

// Remove deletes an agent outright. Returns false when the id is unknown.
func (r *Registry) Remove(agentID string) bool {
	if _, ok := r.load(agentID); !ok {
		return false
	}
	r.agents.Delete(agentID)
	r.size.Add(-1)
	r.revision.Add(1)
	r.logger.Info("agent removed", zap.String("agent_id", agentID))
	return true
}

// Len returns the number of live agents.
func (r *Registry) Len() int {
	return int(r.size.Load())
}

// Revision returns the mutation counter.
func (r *Registry) Revision() uint64 {
	return r.revision.Load()
}

// CapabilityTags returns the sorted union of all capability tags.
func (r *Registry) CapabilityTags() []string {
	set := make(map[string]struct{})
	r.agents.Range(func(_, value any) bool {
		for tag := range value.(*types.Agent).TagSet() {
			set[tag] = struct{}{}
		}
		return true
	})
	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// CountByStatus returns the number of agents in each health state.
func (r *Registry) CountByStatus() map[types.HealthState]int {
	counts := make(map[types.HealthState]int)
	r.agents.Range(func(_, value any) bool {
		counts[value.(*types.Agent).Status]++
		return true
	})
	return counts
}

// OnEvent registers an event handler and returns a subscription id.
func (r *Registry) OnEvent(handler EventHandler) string {
	id := fmt.Sprintf("sub-%d", r.handlerID.Add(1))
	r.handlerMu.Lock()
	r.handlers[id] = handler
	r.handlerMu.Unlock()
	return id
}

// Unsubscribe removes an event handler.
func (r *Registry) Unsubscribe(id string) {
	r.handlerMu.Lock()
	delete(r.handlers, id)
	r.handlerMu.Unlock()
}

func (r *Registry) emit(event Event) {
	r.handlerMu.RLock()
	handlers := make([]EventHandler, 0, len(r.handlers))
	for _, h := range r.handlers {
		handlers = append(handlers, h)
	}
	r.handlerMu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

func (r *Registry) load(agentID string) (*types.Agent, bool) {
	value, ok := r.agents.Load(agentID)
	if !ok {
		return nil, false
	}
	return value.(*types.Agent), true
}
