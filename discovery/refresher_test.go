package discovery

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentbridge/config"
	"github.com/BaSui01/agentbridge/registry"
	"github.com/BaSui01/agentbridge/types"
)

// adapterFunc lets tests stub a probe with a bare function.
type adapterFunc func(ctx context.Context, seed Seed) (*types.Agent, error)

func (f adapterFunc) Probe(ctx context.Context, seed Seed) (*types.Agent, error) {
	return f(ctx, seed)
}

type failingSource struct{ err error }

func (s failingSource) Seeds(context.Context) ([]Seed, error) { return nil, s.err }

func customSeeds(ids ...string) []Seed {
	seeds := make([]Seed, 0, len(ids))
	for _, id := range ids {
		seeds = append(seeds, Seed{ID: id, Protocol: types.ProtocolCustom, URL: "http://agents.test/" + id})
	}
	return seeds
}

func probedAgent(seed Seed) *types.Agent {
	return &types.Agent{
		AgentID:  seed.ID,
		Name:     seed.ID,
		Protocol: seed.Protocol,
		Endpoint: seed.URL,
	}
}

func fastConfig() config.DiscoveryConfig {
	return config.DiscoveryConfig{
		Interval:     50 * time.Millisecond,
		ProbeTimeout: time.Second,
		MaxAttempts:  1,
		RetryDelay:   time.Millisecond,
		Workers:      2,
	}
}

func TestRefresher_RefreshNowUpsertsHealthyAgents(t *testing.T) {
	reg := registry.New(nil, nil)
	adapters := AdapterSet{
		types.ProtocolCustom: adapterFunc(func(_ context.Context, seed Seed) (*types.Agent, error) {
			return probedAgent(seed), nil
		}),
	}
	r := NewRefresher(NewStaticSource(customSeeds("bot-a", "bot-b")), adapters, reg, fastConfig(), nil, nil)
	defer r.Close()

	require.NoError(t, r.RefreshNow(context.Background()))

	assert.Equal(t, 2, reg.Len())
	for _, id := range []string{"bot-a", "bot-b"} {
		ag, ok := reg.Get(id)
		require.True(t, ok, "agent %s should be registered", id)
		assert.Equal(t, types.HealthHealthy, ag.Status)
	}
}

func TestRefresher_FailuresDegradeAndEvict(t *testing.T) {
	reg := registry.New(&registry.Config{EvictAfter: 2}, nil)

	var up atomic.Bool
	up.Store(true)
	adapters := AdapterSet{
		types.ProtocolCustom: adapterFunc(func(_ context.Context, seed Seed) (*types.Agent, error) {
			if up.Load() {
				return probedAgent(seed), nil
			}
			return nil, types.NewDiscoveryError(types.ErrDiscoveryUnreachable, "connection refused").
				WithAgent(seed.ID)
		}),
	}
	r := NewRefresher(NewStaticSource(customSeeds("flaky")), adapters, reg, fastConfig(), nil, nil)
	defer r.Close()

	ctx := context.Background()
	require.NoError(t, r.RefreshNow(ctx))
	ag, ok := reg.Get("flaky")
	require.True(t, ok)
	assert.Equal(t, types.HealthHealthy, ag.Status)

	up.Store(false)

	require.NoError(t, r.RefreshNow(ctx))
	ag, _ = reg.Get("flaky")
	assert.Equal(t, types.HealthDegraded, ag.Status)

	require.NoError(t, r.RefreshNow(ctx))
	ag, _ = reg.Get("flaky")
	assert.Equal(t, types.HealthUnhealthy, ag.Status)

	require.NoError(t, r.RefreshNow(ctx))
	_, ok = reg.Get("flaky")
	assert.False(t, ok, "agent should be evicted after EvictAfter unhealthy cycles")
	assert.Zero(t, reg.Len())
}

func TestRefresher_RetriesTransientFailures(t *testing.T) {
	reg := registry.New(nil, nil)

	var attempts atomic.Int32
	adapters := AdapterSet{
		types.ProtocolCustom: adapterFunc(func(_ context.Context, seed Seed) (*types.Agent, error) {
			if attempts.Add(1) < 3 {
				return nil, types.NewDiscoveryError(types.ErrDiscoveryUnreachable, "transient")
			}
			return probedAgent(seed), nil
		}),
	}
	cfg := fastConfig()
	cfg.MaxAttempts = 3
	r := NewRefresher(NewStaticSource(customSeeds("sometimes")), adapters, reg, cfg, nil, nil)
	defer r.Close()

	require.NoError(t, r.RefreshNow(context.Background()))

	assert.Equal(t, int32(3), attempts.Load())
	ag, ok := reg.Get("sometimes")
	require.True(t, ok)
	assert.Equal(t, types.HealthHealthy, ag.Status)
}

func TestRefresher_NonRetryableFailsWithoutRetry(t *testing.T) {
	reg := registry.New(nil, nil)

	var attempts atomic.Int32
	adapters := AdapterSet{
		types.ProtocolCustom: adapterFunc(func(_ context.Context, _ Seed) (*types.Agent, error) {
			attempts.Add(1)
			return nil, types.NewDiscoveryError(types.ErrDiscoveryMalformed, "bad descriptor")
		}),
	}
	cfg := fastConfig()
	cfg.MaxAttempts = 3
	r := NewRefresher(NewStaticSource(customSeeds("broken")), adapters, reg, cfg, nil, nil)
	defer r.Close()

	require.NoError(t, r.RefreshNow(context.Background()))

	assert.Equal(t, int32(1), attempts.Load(), "malformed responses are not retried")
	assert.Zero(t, reg.Len(), "never-discovered agents stay out of the registry")
}

func TestRefresher_UnknownProtocolSeed(t *testing.T) {
	reg := registry.New(nil, nil)
	r := NewRefresher(
		NewStaticSource([]Seed{{ID: "weird", Protocol: types.Protocol("smtp"), URL: "http://x"}}),
		AdapterSet{}, reg, fastConfig(), nil, nil)
	defer r.Close()

	require.NoError(t, r.RefreshNow(context.Background()))
	assert.Zero(t, reg.Len())
}

func TestRefresher_SourceErrorPropagates(t *testing.T) {
	boom := errors.New("seed store down")
	r := NewRefresher(failingSource{err: boom}, AdapterSet{}, registry.New(nil, nil), fastConfig(), nil, nil)
	defer r.Close()

	err := r.RefreshNow(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestRefresher_StartRunsPeriodicCycles(t *testing.T) {
	reg := registry.New(nil, nil)

	var cycles atomic.Int32
	adapters := AdapterSet{
		types.ProtocolCustom: adapterFunc(func(_ context.Context, seed Seed) (*types.Agent, error) {
			cycles.Add(1)
			return probedAgent(seed), nil
		}),
	}
	cfg := fastConfig()
	cfg.Interval = 20 * time.Millisecond
	r := NewRefresher(NewStaticSource(customSeeds("steady")), adapters, reg, cfg, nil, nil)
	defer r.Close()

	require.NoError(t, r.Start(context.Background()))
	assert.Error(t, r.Start(context.Background()), "second Start must be rejected")

	assert.Eventually(t, func() bool { return cycles.Load() >= 2 }, 2*time.Second, 5*time.Millisecond,
		"background loop should probe repeatedly")

	r.Stop()
	settled := cycles.Load()
	time.Sleep(3 * cfg.Interval)
	assert.Equal(t, settled, cycles.Load(), "no probes after Stop")

	_, ok := reg.Get("steady")
	assert.True(t, ok)
}

func TestRefresher_StopBeforeStartIsNoop(t *testing.T) {
	r := NewRefresher(NewStaticSource(nil), AdapterSet{}, registry.New(nil, nil), fastConfig(), nil, nil)
	r.Stop()
	r.Close()
}
