package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentbridge/types"
)

func mustStatus(t *testing.T, r *Registry, id string) types.HealthState {
	t.Helper()
	ag, ok := r.Get(id)
	require.True(t, ok, "agent %s should exist", id)
	return ag.Status
}

func TestMarkProbeFailure_StateMachine(t *testing.T) {
	r := New(&Config{EvictAfter: 3}, nil)
	require.NoError(t, r.Upsert(newTestAgent("custom-bot", types.ProtocolCustom, "chat")))

	// healthy -> degraded
	assert.False(t, r.MarkProbeFailure("custom-bot"))
	assert.Equal(t, types.HealthDegraded, mustStatus(t, r, "custom-bot"))

	// degraded -> unhealthy (cycle 1)
	assert.False(t, r.MarkProbeFailure("custom-bot"))
	assert.Equal(t, types.HealthUnhealthy, mustStatus(t, r, "custom-bot"))

	// unhealthy cycles 2 and 3; eviction on the third
	assert.False(t, r.MarkProbeFailure("custom-bot"))
	assert.True(t, r.MarkProbeFailure("custom-bot"))

	_, ok := r.Get("custom-bot")
	assert.False(t, ok, "evicted agent must disappear from reads")
	assert.Zero(t, r.Len())
	assert.Empty(t, r.ListByCapabilityTag("chat"))
}

func TestMarkProbeFailure_RecoveryResetsCounters(t *testing.T) {
	r := New(&Config{EvictAfter: 3}, nil)
	require.NoError(t, r.Upsert(newTestAgent("acp-hello", types.ProtocolACP, "greeting")))

	r.MarkProbeFailure("acp-hello")
	r.MarkProbeFailure("acp-hello")
	assert.Equal(t, types.HealthUnhealthy, mustStatus(t, r, "acp-hello"))

	// success returns the agent to healthy and zeroes the counters
	require.NoError(t, r.Upsert(newTestAgent("acp-hello", types.ProtocolACP, "greeting")))
	ag, _ := r.Get("acp-hello")
	assert.Equal(t, types.HealthHealthy, ag.Status)
	assert.Zero(t, ag.ConsecutiveFailures)
	assert.Zero(t, ag.UnhealthyCycles)

	// the eviction clock restarts from degraded
	assert.False(t, r.MarkProbeFailure("acp-hello"))
	assert.Equal(t, types.HealthDegraded, mustStatus(t, r, "acp-hello"))
}

func TestMarkProbeFailure_UnknownAgent(t *testing.T) {
	r := New(nil, nil)
	assert.False(t, r.MarkProbeFailure("ghost"))
}

func TestMarkProbeFailure_EvictAfterOne(t *testing.T) {
	r := New(&Config{EvictAfter: 1}, nil)
	require.NoError(t, r.Upsert(newTestAgent("mcp-weather", types.ProtocolMCP, "weather")))

	assert.False(t, r.MarkProbeFailure("mcp-weather")) // degraded
	assert.True(t, r.MarkProbeFailure("mcp-weather"))  // unhealthy cycle 1 == EvictAfter
	assert.Zero(t, r.Len())
}

func TestRegistry_CountByStatus(t *testing.T) {
	r := New(nil, nil)
	require.NoError(t, r.Upsert(newTestAgent("a", types.ProtocolACP, "x")))
	require.NoError(t, r.Upsert(newTestAgent("b", types.ProtocolA2A, "y")))
	r.MarkProbeFailure("b")

	counts := r.CountByStatus()
	assert.Equal(t, 1, counts[types.HealthHealthy])
	assert.Equal(t, 1, counts[types.HealthDegraded])
}
