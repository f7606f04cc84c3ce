package discovery

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/protocol/a2a"
	"github.com/BaSui01/agentbridge/types"
)

// A2AAdapter probes A2A agents through their published agent card.
type A2AAdapter struct {
	client *a2a.Client
	logger *zap.Logger
}

// NewA2AAdapter creates the A2A discovery adapter.
func NewA2AAdapter(httpClient *http.Client, logger *zap.Logger) *A2AAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &A2AAdapter{
		client: a2a.NewClient(httpClient, logger),
		logger: logger.With(zap.String("component", "a2a_adapter")),
	}
}

// Probe fetches the agent card; skills map one-to-one to capabilities.
// Declared skill tags are kept; skills without tags get heuristic ones.
func (a *A2AAdapter) Probe(ctx context.Context, seed Seed) (*types.Agent, error) {
	card, err := a.client.Discover(ctx, seed.URL)
	if err != nil {
		return nil, classifyProbeError(seed, err, a2a.ErrUnavailable, a2a.ErrMalformed, nil)
	}

	caps := make([]types.Capability, 0, len(card.Skills))
	for _, skill := range card.Skills {
		tags := skill.Tags
		if len(tags) == 0 {
			tags = ExtractTags(skill.Name, skill.Description)
		}
		caps = append(caps, types.Capability{
			Name:        skill.Name,
			Description: skill.Description,
			Tags:        tags,
			Examples:    append([]string(nil), skill.Examples...),
		})
	}

	metadata := map[string]string{}
	if card.Version != "" {
		metadata["card_version"] = card.Version
	}
	if card.ProtocolVersion != "" {
		metadata["protocol_version"] = card.ProtocolVersion
	}
	if card.Capabilities.Streaming {
		metadata["streaming"] = "true"
	}
	return newAgent(seed, card.Name, card.Description, caps, metadata), nil
}
