package gateway

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/protocol/mcp"
	"github.com/BaSui01/agentbridge/types"
)

// mcpInvoker calls one MCP tool per query. Capabilities mirror the server's
// tools, so the selected capability names the tool. Each call opens a fresh
// session: initialize, call, close.
type mcpInvoker struct {
	httpClient *http.Client
	logger     *zap.Logger
}

func newMCPInvoker(httpClient *http.Client, logger *zap.Logger) *mcpInvoker {
	return &mcpInvoker{httpClient: httpClient, logger: logger}
}

func (i *mcpInvoker) invoke(ctx context.Context, agent *types.Agent, query string, _ map[string]string) (string, []byte, error) {
	tool := selectCapability(agent, query)
	if tool == "" {
		return "", nil, types.NewExecutionError(types.ErrExecutionNonSuccess,
			"agent declares no callable tool")
	}

	client, err := mcp.NewClient(agent.Endpoint, i.httpClient, i.logger)
	if err != nil {
		return "", nil, err
	}
	defer client.Close()

	if _, err := client.Initialize(ctx); err != nil {
		return "", nil, err
	}

	result, raw, err := client.CallTool(ctx, tool, map[string]any{"query": query})
	if err != nil {
		return "", raw, err
	}
	if result.IsError {
		msg := result.Text()
		if msg == "" {
			msg = fmt.Sprintf("tool %q reported an error", tool)
		}
		return "", raw, types.NewExecutionError(types.ErrExecutionNonSuccess, msg)
	}
	return result.Text(), raw, nil
}
