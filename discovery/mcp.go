package discovery

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/protocol/mcp"
	"github.com/BaSui01/agentbridge/types"
)

// MCPAdapter probes MCP tool servers: initialize gates on protocol version,
// then tools/list supplies the capability inventory.
type MCPAdapter struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewMCPAdapter creates the MCP discovery adapter.
func NewMCPAdapter(httpClient *http.Client, logger *zap.Logger) *MCPAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MCPAdapter{
		httpClient: httpClient,
		logger:     logger.With(zap.String("component", "mcp_adapter")),
	}
}

// Probe initializes a session and lists tools. Each tool becomes a
// capability with its input schema retained for the routing toolset.
func (a *MCPAdapter) Probe(ctx context.Context, seed Seed) (*types.Agent, error) {
	client, err := mcp.NewClient(seed.URL, a.httpClient, a.logger)
	if err != nil {
		return nil, classifyProbeError(seed, err, mcp.ErrUnavailable, mcp.ErrMalformed, mcp.ErrUnsupportedVersion)
	}
	defer client.Close()

	init, err := client.Initialize(ctx)
	if err != nil {
		return nil, classifyProbeError(seed, err, mcp.ErrUnavailable, mcp.ErrMalformed, mcp.ErrUnsupportedVersion)
	}

	tools, err := client.ListTools(ctx)
	if err != nil {
		return nil, classifyProbeError(seed, err, mcp.ErrUnavailable, mcp.ErrMalformed, mcp.ErrUnsupportedVersion)
	}

	caps := make([]types.Capability, 0, len(tools))
	for _, tool := range tools {
		caps = append(caps, types.Capability{
			Name:        tool.Name,
			Description: tool.Description,
			Tags:        ExtractTags(tool.Name, tool.Description),
			InputSchema: tool.InputSchema,
		})
	}

	metadata := map[string]string{
		"protocol_version": init.ProtocolVersion,
	}
	if init.ServerInfo.Version != "" {
		metadata["server_version"] = init.ServerInfo.Version
	}
	return newAgent(seed, init.ServerInfo.Name, init.Instructions, caps, metadata), nil
}
