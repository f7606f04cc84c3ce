package gateway

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/protocol/acp"
	"github.com/BaSui01/agentbridge/types"
)

// acpInvoker runs queries as synchronous ACP runs. The capability selected
// for the query names the ACP agent to run.
type acpInvoker struct {
	client *acp.Client
}

func newACPInvoker(httpClient *http.Client, logger *zap.Logger) *acpInvoker {
	return &acpInvoker{client: acp.NewClient(httpClient, logger)}
}

func (i *acpInvoker) invoke(ctx context.Context, agent *types.Agent, query string, _ map[string]string) (string, []byte, error) {
	name := selectCapability(agent, query)
	if name == "" {
		return "", nil, types.NewExecutionError(types.ErrExecutionNonSuccess,
			"agent declares no runnable capability")
	}

	input := []acp.Message{acp.TextMessage("user", query)}
	run, raw, err := i.client.RunSync(ctx, agent.Endpoint, name, input)
	if err != nil {
		return "", raw, err
	}

	if run.Status != acp.RunStatusCompleted {
		msg := fmt.Sprintf("run ended in status %q", run.Status)
		if run.Error != nil && run.Error.Message != "" {
			msg = fmt.Sprintf("%s: %s", msg, run.Error.Message)
		}
		return "", raw, types.NewExecutionError(types.ErrExecutionNonSuccess, msg)
	}
	return run.Text(), raw, nil
}
