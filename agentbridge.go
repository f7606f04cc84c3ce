// Package agentbridge discovers remote agents over heterogeneous protocols,
// normalizes their capabilities into one registry, and routes free-text
// queries to the best live agent.
//
// Usage:
//
//	import "github.com/BaSui01/agentbridge"
//
//	b, err := agentbridge.New(agentbridge.WithSeeds(discovery.Seed{
//		ID:       "a2a-math",
//		Protocol: types.ProtocolA2A,
//		URL:      "http://localhost:9100",
//	}))
//	if err := b.Start(ctx); err != nil { ... }
//	decision, result, err := b.Process(ctx, "what is 17 * 23?")
//
// This is a thin wrapper around [quick.New]; both produce identical results.
// Use this package when you prefer the shorter import path. Programs that
// want the full HTTP surface run cmd/agentbridge instead.
package agentbridge

import (
	"github.com/BaSui01/agentbridge/quick"
)

// Bridge bundles the registry, discovery refresher, routing engine, and
// execution gateway behind one handle.
type Bridge = quick.Bridge

// Option configures the bridge created by [New].
type Option = quick.Option

// New wires a [Bridge] from the given options. With no options it uses
// config.DefaultConfig, which carries no seeds; pass [WithSeeds] or
// [WithConfig] to give discovery something to probe.
func New(opts ...Option) (*Bridge, error) {
	return quick.New(opts...)
}

// Re-export the options so callers never need to import quick/.

// WithConfig supplies a full configuration.
var WithConfig = quick.WithConfig

// WithLogger sets a custom zap logger.
var WithLogger = quick.WithLogger

// WithReasoner sets a pre-built routing reasoner.
var WithReasoner = quick.WithReasoner

// WithSeeds replaces the configured discovery seeds.
var WithSeeds = quick.WithSeeds

// WithHTTPClient sets one HTTP client for all outbound calls.
var WithHTTPClient = quick.WithHTTPClient

// WithoutDiscoveryLoop makes Start run one blocking cycle instead of the loop.
var WithoutDiscoveryLoop = quick.WithoutDiscoveryLoop
