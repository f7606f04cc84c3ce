package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/types"
)

// Adapter probes one protocol's endpoints for agent descriptors. Probe
// returns a canonical agent whose capabilities are already normalized;
// failures are *types.Error values carrying a discovery classification.
type Adapter interface {
	Probe(ctx context.Context, seed Seed) (*types.Agent, error)
}

// AdapterSet is the tagged dispatch table: one adapter per protocol.
// Adding a protocol means adding one adapter here and one invoker in the
// gateway; nothing else changes.
type AdapterSet map[types.Protocol]Adapter

// NewAdapterSet wires the default adapters for all supported protocols.
func NewAdapterSet(httpClient *http.Client, logger *zap.Logger) AdapterSet {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return AdapterSet{
		types.ProtocolACP:    NewACPAdapter(httpClient, logger),
		types.ProtocolA2A:    NewA2AAdapter(httpClient, logger),
		types.ProtocolMCP:    NewMCPAdapter(httpClient, logger),
		types.ProtocolCustom: NewCustomAdapter(httpClient, logger),
	}
}

// ForProtocol returns the adapter registered for the protocol.
func (s AdapterSet) ForProtocol(p types.Protocol) (Adapter, error) {
	adapter, ok := s[p]
	if !ok {
		return nil, types.NewDiscoveryError(types.ErrDiscoveryMalformed,
			fmt.Sprintf("no adapter registered for protocol %q", p))
	}
	return adapter, nil
}

// classifyProbeError maps protocol-client sentinels and context state onto
// the discovery error taxonomy. sentinelUnavailable / sentinelMalformed /
// sentinelVersion are the probing package's sentinels; version may be nil
// for protocols without negotiation.
func classifyProbeError(seed Seed, err error, sentinelUnavailable, sentinelMalformed, sentinelVersion error) *types.Error {
	var coded *types.Error
	if errors.As(err, &coded) {
		return coded
	}

	var code types.ErrorCode
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = types.ErrDiscoveryTimeout
	case sentinelVersion != nil && errors.Is(err, sentinelVersion):
		code = types.ErrDiscoveryUnsupportedVersion
	case errors.Is(err, sentinelMalformed):
		code = types.ErrDiscoveryMalformed
	case errors.Is(err, sentinelUnavailable):
		code = types.ErrDiscoveryUnreachable
	default:
		code = types.ErrDiscoveryUnreachable
	}

	return types.NewDiscoveryError(code, err.Error()).
		WithProtocol(seed.Protocol).
		WithAgent(seed.ID).
		WithCause(err)
}

// newAgent assembles the canonical record shared by all adapters.
func newAgent(seed Seed, name, description string, caps []types.Capability, metadata map[string]string) *types.Agent {
	if name == "" {
		name = seed.Name
	}
	if name == "" {
		name = seed.ID
	}
	return &types.Agent{
		AgentID:      seed.ID,
		Name:         name,
		Description:  description,
		Protocol:     seed.Protocol,
		Endpoint:     seed.URL,
		Capabilities: Normalize(caps),
		Status:       types.HealthDiscovered,
		Metadata:     metadata,
	}
}
