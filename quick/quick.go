// Package quick assembles a fully wired bridge in one call, for programs
// that embed discovery and routing directly instead of running the HTTP
// server. New builds the registry, discovery refresher, routing engine, and
// execution gateway from one config and hands them back behind a single
// Bridge handle.
//
// Usage:
//
//	import "github.com/BaSui01/agentbridge/quick"
//
//	b, err := quick.New(quick.WithSeeds(discovery.Seed{
//		ID:       "a2a-math",
//		Protocol: types.ProtocolA2A,
//		URL:      "http://localhost:9100",
//	}))
//	if err := b.Start(ctx); err != nil { ... }
//	decision, result, err := b.Process(ctx, "what is 17 * 23?")
//
// The root agentbridge package re-exports New and every option, so both
// import paths build the same Bridge.
package quick

import (
	"context"
	"fmt"
	"net/http"

	"github.com/BaSui01/agentbridge/config"
	"github.com/BaSui01/agentbridge/discovery"
	"github.com/BaSui01/agentbridge/gateway"
	"github.com/BaSui01/agentbridge/internal/cache"
	"github.com/BaSui01/agentbridge/internal/tlsutil"
	"github.com/BaSui01/agentbridge/registry"
	"github.com/BaSui01/agentbridge/routing"
	"github.com/BaSui01/agentbridge/types"

	"go.uber.org/zap"
)

// Option configures the bridge created by New.
type Option func(*options)

type options struct {
	cfg        *config.Config
	logger     *zap.Logger
	reasoner   routing.Reasoner
	seeds      []discovery.Seed
	httpClient *http.Client
	noLoop     bool
}

// WithConfig supplies a full configuration. Defaults to config.DefaultConfig().
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets a custom zap logger. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithReasoner sets a pre-built reasoner, overriding the provider configured
// under routing.reasoner. Pass nil to force keyword fallback routing.
func WithReasoner(r routing.Reasoner) Option {
	return func(o *options) { o.reasoner = r }
}

// WithSeeds replaces the configured discovery seeds with an explicit list.
func WithSeeds(seeds ...discovery.Seed) Option {
	return func(o *options) { o.seeds = seeds }
}

// WithHTTPClient sets one HTTP client for probes, reasoner calls, and
// execution. Defaults to hardened TLS clients with per-concern timeouts.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithoutDiscoveryLoop disables the periodic refresh loop. Start runs a
// single blocking discovery cycle instead; call RefreshNow to re-probe.
func WithoutDiscoveryLoop() Option {
	return func(o *options) { o.noLoop = true }
}

// Bridge bundles the registry, discovery refresher, routing engine, and
// execution gateway behind one handle. Construct it with New, fill the
// registry with Start or RefreshNow, then Route, Process, or Execute.
type Bridge struct {
	cfg       *config.Config
	logger    *zap.Logger
	registry  *registry.Registry
	source    *discovery.StaticSource
	refresher *discovery.Refresher
	engine    *routing.Engine
	gateway   *gateway.Gateway
	store     cache.Store
	noLoop    bool
}

// New wires a Bridge from the given options. The registry starts empty;
// call Start (or RefreshNow) to probe the seeds and fill it.
func New(opts ...Option) (*Bridge, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	cfg := o.cfg
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	reg := registry.New(&registry.Config{EvictAfter: cfg.Discovery.EvictAfter}, logger)

	probeClient := o.httpClient
	reasonerClient := o.httpClient
	executeClient := o.httpClient
	if o.httpClient == nil {
		probeClient = tlsutil.SecureHTTPClient(cfg.Discovery.ProbeTimeout)
		reasonerClient = tlsutil.SecureHTTPClient(cfg.Routing.Reasoner.Timeout)
		// Per-call deadlines come from the gateway.
		executeClient = tlsutil.SecureHTTPClient(0)
	}

	var source *discovery.StaticSource
	if o.seeds != nil {
		for i, seed := range o.seeds {
			if err := seed.Validate(); err != nil {
				return nil, fmt.Errorf("seed %d: %w", i, err)
			}
		}
		source = discovery.NewStaticSource(o.seeds)
	} else {
		var err error
		source, err = discovery.SourceFromConfig(cfg.Discovery)
		if err != nil {
			return nil, err
		}
	}

	adapters := discovery.NewAdapterSet(probeClient, logger)
	refresher := discovery.NewRefresher(source, adapters, reg, cfg.Discovery, nil, logger)

	store, err := cache.FromConfig(cfg.Routing.Cache, cfg.Redis, logger)
	if err != nil {
		return nil, fmt.Errorf("decision cache: %w", err)
	}

	reasoner := o.reasoner
	if reasoner == nil {
		reasoner, err = routing.NewReasonerFromConfig(cfg.Routing.Reasoner, reasonerClient, logger)
		if err != nil {
			return nil, fmt.Errorf("reasoner: %w", err)
		}
	}

	return &Bridge{
		cfg:       cfg,
		logger:    logger,
		registry:  reg,
		source:    source,
		refresher: refresher,
		engine:    routing.NewEngine(reg, reasoner, store, nil, cfg.Routing, logger),
		gateway:   gateway.New(executeClient, nil, cfg.Execution, logger),
		store:     store,
		noLoop:    o.noLoop,
	}, nil
}

// Start begins discovery. The refresher probes immediately and then on every
// interval until ctx is canceled or Close is called. With
// WithoutDiscoveryLoop it runs one blocking cycle and returns.
func (b *Bridge) Start(ctx context.Context) error {
	if b.noLoop {
		return b.refresher.RefreshNow(ctx)
	}
	return b.refresher.Start(ctx)
}

// RefreshNow runs one discovery cycle and waits for it to finish. It only
// errors when the seed source fails; per-seed probe failures land in the
// registry as health records.
func (b *Bridge) RefreshNow(ctx context.Context) error {
	return b.refresher.RefreshNow(ctx)
}

// Route picks an agent for the query without executing it.
func (b *Bridge) Route(ctx context.Context, query string) (*types.RoutingDecision, error) {
	return b.engine.Route(ctx, routing.Request{Query: query})
}

// RouteRequest routes with full control over the protocol filter, explicit
// agent target, and caller metadata.
func (b *Bridge) RouteRequest(ctx context.Context, req routing.Request) (*types.RoutingDecision, error) {
	return b.engine.Route(ctx, req)
}

// Process routes the query and executes it against the selected agent. The
// result is nil when routing selects no agent. Execution failures come back
// inside the result, not as the returned error.
func (b *Bridge) Process(ctx context.Context, query string) (*types.RoutingDecision, *types.ExecutionResult, error) {
	decision, err := b.engine.Route(ctx, routing.Request{Query: query})
	if err != nil {
		return nil, nil, err
	}
	if decision.SelectedAgent == nil {
		return decision, nil, nil
	}
	return decision, b.gateway.Execute(ctx, decision.SelectedAgent, query, nil), nil
}

// Execute sends the query to one agent by ID, bypassing routing.
func (b *Bridge) Execute(ctx context.Context, agentID, query string) (*types.ExecutionResult, error) {
	agent, ok := b.registry.Get(agentID)
	if !ok {
		return nil, types.NewError(types.ErrAgentNotFound,
			fmt.Sprintf("agent %q not found", agentID)).WithAgent(agentID)
	}
	return b.gateway.Execute(ctx, agent, query, nil), nil
}

// ExecuteStream behaves like Execute but delivers partial content through
// onChunk as it arrives.
func (b *Bridge) ExecuteStream(ctx context.Context, agentID, query string, onChunk func(string)) (*types.ExecutionResult, error) {
	agent, ok := b.registry.Get(agentID)
	if !ok {
		return nil, types.NewError(types.ErrAgentNotFound,
			fmt.Sprintf("agent %q not found", agentID)).WithAgent(agentID)
	}
	return b.gateway.ExecuteStream(ctx, agent, query, nil, onChunk), nil
}

// ReplaceSeeds swaps the discovery seed list. The next cycle probes the new
// endpoints; records from removed seeds age out through the health states.
func (b *Bridge) ReplaceSeeds(seeds ...discovery.Seed) error {
	for i, seed := range seeds {
		if err := seed.Validate(); err != nil {
			return fmt.Errorf("seed %d: %w", i, err)
		}
	}
	b.source.Replace(seeds)
	return nil
}

// Registry exposes the live agent registry for listing and lookups.
func (b *Bridge) Registry() *registry.Registry {
	return b.registry
}

// Close stops the discovery loop and releases the decision cache backend.
func (b *Bridge) Close() error {
	b.refresher.Close()
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}
