package registry

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/types"
)

func newTestAgent(id string, protocol types.Protocol, tags ...string) *types.Agent {
	return &types.Agent{
		AgentID:  id,
		Name:     "Agent " + id,
		Protocol: protocol,
		Endpoint: fmt.Sprintf("http://%s:8000", id),
		Capabilities: []types.Capability{
			{Name: "main", Description: "primary capability", Tags: tags},
		},
	}
}

func TestRegistry_UpsertAndGet(t *testing.T) {
	r := New(nil, zap.NewNop())

	err := r.Upsert(newTestAgent("a2a-math", types.ProtocolA2A, "arithmetic", "math"))
	require.NoError(t, err)

	got, ok := r.Get("a2a-math")
	require.True(t, ok)
	assert.Equal(t, "a2a-math", got.AgentID)
	assert.Equal(t, types.HealthHealthy, got.Status)
	assert.False(t, got.DiscoveredAt.IsZero())
	assert.False(t, got.LastHealthCheck.IsZero())
	assert.Equal(t, 1, r.Len())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_UpsertValidation(t *testing.T) {
	r := New(nil, nil)

	cases := []struct {
		name  string
		agent *types.Agent
	}{
		{"nil agent", nil},
		{"empty id", &types.Agent{Name: "x", Endpoint: "http://x", Protocol: types.ProtocolACP}},
		{"empty name", &types.Agent{AgentID: "x", Endpoint: "http://x", Protocol: types.ProtocolACP}},
		{"empty endpoint", &types.Agent{AgentID: "x", Name: "x", Protocol: types.ProtocolACP}},
		{"bad protocol", &types.Agent{AgentID: "x", Name: "x", Endpoint: "http://x", Protocol: "grpc"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, r.Upsert(tc.agent))
		})
	}
	assert.Zero(t, r.Len())
}

func TestRegistry_UpsertPreservesDiscoveredAt(t *testing.T) {
	r := New(nil, nil)

	require.NoError(t, r.Upsert(newTestAgent("acp-hello", types.ProtocolACP, "greeting")))
	first, _ := r.Get("acp-hello")

	time.Sleep(5 * time.Millisecond)
	updated := newTestAgent("acp-hello", types.ProtocolACP, "greeting", "hello")
	require.NoError(t, r.Upsert(updated))

	second, _ := r.Get("acp-hello")
	assert.Equal(t, first.DiscoveredAt, second.DiscoveredAt)
	assert.True(t, second.LastHealthCheck.After(first.LastHealthCheck) ||
		second.LastHealthCheck.Equal(first.LastHealthCheck))
	assert.True(t, second.HasTag("hello"))
}

func TestRegistry_ReadsAreIsolated(t *testing.T) {
	r := New(nil, nil)
	require.NoError(t, r.Upsert(newTestAgent("mcp-weather", types.ProtocolMCP, "weather")))

	got, _ := r.Get("mcp-weather")
	got.Name = "mutated"
	got.Capabilities[0].Tags[0] = "mutated"

	again, _ := r.Get("mcp-weather")
	assert.Equal(t, "Agent mcp-weather", again.Name)
	assert.Equal(t, "weather", again.Capabilities[0].Tags[0])
}

func TestRegistry_ListFilters(t *testing.T) {
	r := New(nil, nil)
	require.NoError(t, r.Upsert(newTestAgent("a2a-math", types.ProtocolA2A, "arithmetic", "math")))
	require.NoError(t, r.Upsert(newTestAgent("acp-hello", types.ProtocolACP, "greeting")))
	require.NoError(t, r.Upsert(newTestAgent("mcp-weather", types.ProtocolMCP, "weather", "forecast")))

	all := r.List()
	require.Len(t, all, 3)
	// ordered by agent id
	assert.Equal(t, "a2a-math", all[0].AgentID)
	assert.Equal(t, "acp-hello", all[1].AgentID)
	assert.Equal(t, "mcp-weather", all[2].AgentID)

	byProto := r.ListByProtocol(types.ProtocolA2A)
	require.Len(t, byProto, 1)
	assert.Equal(t, "a2a-math", byProto[0].AgentID)

	byTag := r.ListByCapabilityTag("math")
	require.Len(t, byTag, 1)
	assert.Equal(t, "a2a-math", byTag[0].AgentID)

	assert.Empty(t, r.ListByCapabilityTag("music"))
	assert.Equal(t, []string{"arithmetic", "forecast", "greeting", "math", "weather"}, r.CapabilityTags())
}

func TestRegistry_RemoveAndRevision(t *testing.T) {
	r := New(nil, nil)
	rev0 := r.Revision()

	require.NoError(t, r.Upsert(newTestAgent("custom-bot", types.ProtocolCustom, "chat")))
	assert.Greater(t, r.Revision(), rev0)

	assert.True(t, r.Remove("custom-bot"))
	assert.False(t, r.Remove("custom-bot"))
	assert.Zero(t, r.Len())
}

func TestRegistry_Events(t *testing.T) {
	r := New(&Config{EvictAfter: 1}, nil)

	var mu sync.Mutex
	var seen []EventType
	sub := r.OnEvent(func(e Event) {
		mu.Lock()
		seen = append(seen, e.Type)
		mu.Unlock()
	})
	defer r.Unsubscribe(sub)

	require.NoError(t, r.Upsert(newTestAgent("acp-hello", types.ProtocolACP, "greeting")))
	r.MarkProbeFailure("acp-hello") // degraded
	require.NoError(t, r.Upsert(newTestAgent("acp-hello", types.ProtocolACP, "greeting")))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []EventType{EventAgentRegistered, EventAgentDegraded, EventAgentRecovered}, seen)
}

func TestRegistry_ConcurrentReadsDuringWrites(t *testing.T) {
	r := New(nil, nil)
	require.NoError(t, r.Upsert(newTestAgent("a2a-math", types.ProtocolA2A, "math")))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// readers
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if ag, ok := r.Get("a2a-math"); ok {
					// records are replaced atomically, never torn
					assert.NotEmpty(t, ag.AgentID)
					assert.NotEmpty(t, ag.Endpoint)
					assert.True(t, ag.Status == types.HealthHealthy ||
						ag.Status == types.HealthDegraded ||
						ag.Status == types.HealthUnhealthy)
				}
				for _, ag := range r.List() {
					assert.NotEmpty(t, ag.AgentID)
				}
			}
		}()
	}

	// single writer, mirroring the refresher
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if i%3 == 0 {
				r.MarkProbeFailure("a2a-math")
			} else {
				_ = r.Upsert(newTestAgent("a2a-math", types.ProtocolA2A, "math"))
			}
		}
		close(stop)
	}()

	wg.Wait()
}
