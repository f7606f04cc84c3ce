package discovery

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/protocol/acp"
	"github.com/BaSui01/agentbridge/types"
)

// acpMaxMajor is the highest ACP major version the bridge understands.
const acpMaxMajor = 1

// ACPAdapter probes ACP servers. The server is the agent; every manifest it
// lists becomes one capability.
type ACPAdapter struct {
	client *acp.Client
	logger *zap.Logger
}

// NewACPAdapter creates the ACP discovery adapter.
func NewACPAdapter(httpClient *http.Client, logger *zap.Logger) *ACPAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ACPAdapter{
		client: acp.NewClient(httpClient, logger),
		logger: logger.With(zap.String("component", "acp_adapter")),
	}
}

// Probe lists the server's agents and folds them into one canonical record.
func (a *ACPAdapter) Probe(ctx context.Context, seed Seed) (*types.Agent, error) {
	resp, err := a.client.ListAgents(ctx, seed.URL)
	if err != nil {
		return nil, classifyProbeError(seed, err, acp.ErrUnavailable, acp.ErrMalformed, nil)
	}
	if resp.Version != "" && !acpVersionSupported(resp.Version) {
		return nil, types.NewDiscoveryError(types.ErrDiscoveryUnsupportedVersion,
			fmt.Sprintf("acp server declares version %q", resp.Version)).
			WithProtocol(seed.Protocol).
			WithAgent(seed.ID)
	}

	caps := make([]types.Capability, 0, len(resp.Agents))
	for _, manifest := range resp.Agents {
		caps = append(caps, types.Capability{
			Name:        manifest.Name,
			Description: manifest.Description,
			Tags:        ExtractTags(manifest.Name, manifest.Description),
		})
	}

	name, description := "", ""
	if len(resp.Agents) == 1 {
		name = resp.Agents[0].Name
		description = resp.Agents[0].Description
	}

	metadata := map[string]string{}
	if resp.Version != "" {
		metadata["acp_version"] = resp.Version
	}
	return newAgent(seed, name, description, caps, metadata), nil
}

// acpVersionSupported accepts any version whose major component parses and
// does not exceed acpMaxMajor.
func acpVersionSupported(version string) bool {
	major, _, _ := strings.Cut(strings.TrimPrefix(version, "v"), ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return false
	}
	return n <= acpMaxMajor
}
