package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/config"
	"github.com/BaSui01/agentbridge/internal/metrics"
	"github.com/BaSui01/agentbridge/internal/pool"
	"github.com/BaSui01/agentbridge/registry"
	"github.com/BaSui01/agentbridge/types"
)

// Refresher owns the periodic discovery cycle: it pulls seeds, fans probes
// out on a bounded worker pool, retries transient failures, upserts
// successes and marks failures against the registry. One cycle runs at a
// time; RefreshNow serializes with the background loop.
type Refresher struct {
	source   EndpointSource
	adapters AdapterSet
	registry *registry.Registry
	config   config.DiscoveryConfig
	pool     *pool.Pool
	metrics  *metrics.Collector
	logger   *zap.Logger

	cycleMu sync.Mutex

	runMu   sync.Mutex
	running bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewRefresher creates a refresher. Nil metrics disables instrumentation;
// nil logger disables logging.
func NewRefresher(source EndpointSource, adapters AdapterSet, reg *registry.Registry, cfg config.DiscoveryConfig, collector *metrics.Collector, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}

	return &Refresher{
		source:   source,
		adapters: adapters,
		registry: reg,
		config:   cfg,
		pool: pool.New(pool.Config{
			MaxWorkers: cfg.Workers,
			QueueSize:  cfg.Workers * 4,
		}),
		metrics: collector,
		logger:  logger.With(zap.String("component", "refresher")),
	}
}

// Start launches the background loop. The first cycle runs immediately so
// the registry fills at startup.
func (r *Refresher) Start(ctx context.Context) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	if r.running {
		return errors.New("refresher already running")
	}
	r.running = true
	r.done = make(chan struct{})
	r.wg.Add(1)
	go r.loop(ctx)

	r.logger.Info("refresher started",
		zap.Duration("interval", r.config.Interval),
		zap.Int("workers", r.config.Workers))
	return nil
}

// Stop halts the background loop and waits for the in-flight cycle.
func (r *Refresher) Stop() {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	if !r.running {
		return
	}
	close(r.done)
	r.wg.Wait()
	r.running = false
	r.logger.Info("refresher stopped")
}

// Close stops the loop and releases the worker pool. The refresher cannot
// be restarted afterwards.
func (r *Refresher) Close() {
	r.Stop()
	r.pool.Close()
}

// RefreshNow runs one discovery cycle immediately.
func (r *Refresher) RefreshNow(ctx context.Context) error {
	return r.runCycle(ctx)
}

func (r *Refresher) loop(ctx context.Context) {
	defer r.wg.Done()

	if err := r.runCycle(ctx); err != nil {
		r.logger.Warn("initial refresh cycle failed", zap.Error(err))
	}

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.runCycle(ctx); err != nil {
				r.logger.Warn("refresh cycle failed", zap.Error(err))
			}
		case <-ctx.Done():
			return
		case <-r.done:
			return
		}
	}
}

func (r *Refresher) runCycle(ctx context.Context) error {
	r.cycleMu.Lock()
	defer r.cycleMu.Unlock()

	seeds, err := r.source.Seeds(ctx)
	if err != nil {
		return fmt.Errorf("load seeds: %w", err)
	}

	start := time.Now()
	var wg sync.WaitGroup
	for _, seed := range seeds {
		seed := seed
		wg.Add(1)
		submitErr := r.pool.Submit(ctx, func(taskCtx context.Context) error {
			defer wg.Done()
			r.probeSeed(taskCtx, seed)
			return nil
		})
		if submitErr != nil {
			wg.Done()
			r.logger.Warn("probe submission failed",
				zap.String("agent_id", seed.ID), zap.Error(submitErr))
		}
	}
	wg.Wait()

	r.metrics.SetRegistryAgents(r.registry.CountByStatus())
	r.logger.Info("refresh cycle complete",
		zap.Int("seeds", len(seeds)),
		zap.Int("agents", r.registry.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// probeSeed probes one seed with retries for transient failures and
// records the final outcome against the registry.
func (r *Refresher) probeSeed(ctx context.Context, seed Seed) {
	start := time.Now()
	adapter, err := r.adapters.ForProtocol(seed.Protocol)
	if err != nil {
		r.recordFailure(seed, err, start)
		return
	}

	attempts := r.config.MaxAttempts
	var agent *types.Agent
	var lastErr error
	for attempt := 1; ; attempt++ {
		probeCtx, cancel := context.WithTimeout(ctx, r.config.ProbeTimeout)
		agent, lastErr = adapter.Probe(probeCtx, seed)
		cancel()

		if lastErr == nil || attempt >= attempts || !types.IsRetryable(lastErr) {
			break
		}
		select {
		case <-ctx.Done():
			// Shutdown mid-retry. Leave the record untouched rather than
			// charging the agent with a failure it did not earn.
			return
		case <-time.After(r.config.RetryDelay):
		}
	}

	if lastErr != nil {
		r.recordFailure(seed, lastErr, start)
		return
	}

	if err := r.registry.Upsert(agent); err != nil {
		r.recordFailure(seed, types.NewDiscoveryError(types.ErrDiscoveryMalformed, err.Error()).WithCause(err), start)
		return
	}
	r.metrics.RecordProbe(seed.Protocol, "success", time.Since(start))
}

func (r *Refresher) recordFailure(seed Seed, err error, start time.Time) {
	outcome := probeOutcome(err)
	r.metrics.RecordProbe(seed.Protocol, outcome, time.Since(start))

	evicted := r.registry.MarkProbeFailure(seed.ID)
	if evicted {
		r.metrics.RecordEviction()
	}
	r.logger.Warn("probe failed",
		zap.String("agent_id", seed.ID),
		zap.String("protocol", string(seed.Protocol)),
		zap.String("outcome", outcome),
		zap.Bool("evicted", evicted),
		zap.Error(err))
}

func probeOutcome(err error) string {
	switch types.GetErrorCode(err) {
	case types.ErrDiscoveryTimeout:
		return "timeout"
	case types.ErrDiscoveryMalformed:
		return "malformed"
	case types.ErrDiscoveryUnsupportedVersion:
		return "unsupported_version"
	case types.ErrDiscoveryUnreachable:
		return "unreachable"
	default:
		return "error"
	}
}
