package gateway

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/protocol/a2a"
	"github.com/BaSui01/agentbridge/types"
)

// a2aInvoker sends queries as A2A messages. It is the one invoker with real
// incremental delivery, over the protocol's SSE stream.
type a2aInvoker struct {
	client *a2a.Client
}

func newA2AInvoker(httpClient *http.Client, logger *zap.Logger) *a2aInvoker {
	return &a2aInvoker{client: a2a.NewClient(httpClient, logger)}
}

func (i *a2aInvoker) invoke(ctx context.Context, agent *types.Agent, query string, _ map[string]string) (string, []byte, error) {
	raw, err := i.client.SendMessage(ctx, agent.Endpoint, query)
	if err != nil {
		return "", raw, err
	}
	return extractA2A(raw)
}

func (i *a2aInvoker) invokeStream(ctx context.Context, agent *types.Agent, query string, _ map[string]string, onChunk func(string)) (string, []byte, error) {
	raw, err := i.client.StreamMessage(ctx, agent.Endpoint, query, onChunk)
	if err != nil {
		return "", raw, err
	}
	return extractA2A(raw)
}

// extractA2A folds the response envelope to text. Terminal failure states
// are non-success; an envelope with no recognizable message or task shape is
// malformed.
func extractA2A(raw []byte) (string, []byte, error) {
	if msg, failed := a2a.TerminalFailure(raw); failed {
		return "", raw, types.NewExecutionError(types.ErrExecutionNonSuccess, msg)
	}
	text, ok := a2a.CollectText(raw)
	if !ok {
		return "", raw, types.NewExecutionError(types.ErrExecutionMalformed,
			"response carries neither message parts nor task artifacts")
	}
	return text, raw, nil
}
