package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/protocol/custom"
	"github.com/BaSui01/agentbridge/types"
)

// customInvoker posts queries to the chat endpoint of custom REST agents.
// Caller metadata rides along as the request context.
type customInvoker struct {
	client *custom.Client
}

func newCustomInvoker(httpClient *http.Client, logger *zap.Logger) *customInvoker {
	return &customInvoker{client: custom.NewClient(httpClient, logger)}
}

func (i *customInvoker) invoke(ctx context.Context, agent *types.Agent, query string, meta map[string]string) (string, []byte, error) {
	var chatMeta map[string]any
	if len(meta) > 0 {
		chatMeta = make(map[string]any, len(meta))
		for k, v := range meta {
			chatMeta[k] = v
		}
	}

	raw, err := i.client.Chat(ctx, agent.Endpoint, query, chatMeta)
	if err != nil {
		return "", raw, err
	}
	if !json.Valid(raw) {
		return "", raw, types.NewExecutionError(types.ErrExecutionMalformed,
			"chat response is not valid JSON")
	}

	// Unknown but valid JSON stays a success: the raw payload rides along
	// and the content falls back to the placeholder.
	text, _ := custom.ExtractResponse(raw)
	return text, raw, nil
}
