package discovery

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/protocol/custom"
	"github.com/BaSui01/agentbridge/types"
)

// CustomAdapter probes agents speaking the bridge's plain HTTP dialect.
type CustomAdapter struct {
	client *custom.Client
	logger *zap.Logger
}

// NewCustomAdapter creates the custom-protocol discovery adapter.
func NewCustomAdapter(httpClient *http.Client, logger *zap.Logger) *CustomAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomAdapter{
		client: custom.NewClient(httpClient, logger),
		logger: logger.With(zap.String("component", "custom_adapter")),
	}
}

// Probe fetches /info. Declared capability tags are kept; capabilities
// without tags get heuristic ones.
func (a *CustomAdapter) Probe(ctx context.Context, seed Seed) (*types.Agent, error) {
	info, err := a.client.Info(ctx, seed.URL)
	if err != nil {
		return nil, classifyProbeError(seed, err, custom.ErrUnavailable, custom.ErrMalformed, nil)
	}

	caps := make([]types.Capability, 0, len(info.Capabilities))
	for _, ci := range info.Capabilities {
		tags := ci.Tags
		if len(tags) == 0 {
			tags = ExtractTags(ci.Name, ci.Description)
		}
		caps = append(caps, types.Capability{
			Name:        ci.Name,
			Description: ci.Description,
			Tags:        tags,
		})
	}

	metadata := map[string]string{}
	if info.Version != "" {
		metadata["agent_version"] = info.Version
	}
	return newAgent(seed, info.Name, info.Description, caps, metadata), nil
}
