package registry

import (
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/types"
)

// MarkProbeFailure records a failed probe for an agent and advances its
// health state: healthy degrades on the first failure, degraded turns
// unhealthy on the next, and an agent that stays unhealthy for EvictAfter
// consecutive cycles is evicted. Returns true when the agent was evicted.
//
// A success is recorded through Upsert, which returns the agent to healthy
// from any state. MarkProbeFailure is called by the single refresher
// goroutine; the read-modify-write below relies on that.
func (r *Registry) MarkProbeFailure(agentID string) bool {
	prev, ok := r.load(agentID)
	if !ok {
		return false
	}

	now := time.Now()
	record := prev.Clone()
	record.ConsecutiveFailures = prev.ConsecutiveFailures + 1
	record.LastHealthCheck = now

	var event EventType
	switch prev.Status {
	case types.HealthHealthy, types.HealthDiscovered:
		record.Status = types.HealthDegraded
		event = EventAgentDegraded
	case types.HealthDegraded:
		record.Status = types.HealthUnhealthy
		record.UnhealthyCycles = 1
		event = EventAgentUnhealthy
	case types.HealthUnhealthy:
		record.Status = types.HealthUnhealthy
		record.UnhealthyCycles = prev.UnhealthyCycles + 1
		event = EventAgentUnhealthy
	}

	if record.Status == types.HealthUnhealthy && record.UnhealthyCycles >= r.config.EvictAfter {
		r.agents.Delete(agentID)
		r.size.Add(-1)
		r.revision.Add(1)
		r.logger.Warn("agent evicted after repeated failures",
			zap.String("agent_id", agentID),
			zap.Int("unhealthy_cycles", record.UnhealthyCycles),
		)
		r.emit(Event{Type: EventAgentEvicted, AgentID: agentID, Status: record.Status, Timestamp: now})
		return true
	}

	r.agents.Store(agentID, record)
	r.revision.Add(1)
	r.logger.Debug("agent probe failed",
		zap.String("agent_id", agentID),
		zap.String("status", string(record.Status)),
		zap.Int("consecutive_failures", record.ConsecutiveFailures),
	)
	r.emit(Event{Type: event, AgentID: agentID, Status: record.Status, Timestamp: now})
	return false
}
