package routing

import (
	"context"
	"fmt"
	"net/http"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/config"
	"github.com/BaSui01/agentbridge/types"
)

// AnthropicReasoner proposes agents through the Anthropic messages API.
type AnthropicReasoner struct {
	client        *anthropic.Client
	model         string
	maxIterations int
	logger        *zap.Logger
}

// NewAnthropicReasoner builds the Anthropic backend from config.
func NewAnthropicReasoner(cfg config.ReasonerConfig, httpClient *http.Client, logger *zap.Logger) (*AnthropicReasoner, error) {
	if cfg.APIKey == "" {
		return nil, types.NewError(types.ErrConfigInvalid, "anthropic reasoner requires an api key")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []anthropic.ClientOption{}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, anthropic.WithHTTPClient(httpClient))
	}

	return &AnthropicReasoner{
		client:        anthropic.NewClient(cfg.APIKey, opts...),
		model:         cfg.Model,
		maxIterations: maxIterations(cfg),
		logger:        logger.Named("reasoner.anthropic"),
	}, nil
}

// Name identifies the backend in logs.
func (r *AnthropicReasoner) Name() string { return "anthropic" }

// Propose runs the tool-use loop until the model answers with JSON or the
// iteration bound is hit.
func (r *AnthropicReasoner) Propose(ctx context.Context, req ProposeRequest) (*Proposal, error) {
	messages := []anthropic.Message{
		anthropic.NewUserTextMessage(userPrompt(req)),
	}

	var tools []anthropic.ToolDefinition
	if req.Tools != nil {
		for _, def := range req.Tools.Definitions() {
			tools = append(tools, anthropic.ToolDefinition{
				Name:        def.Name,
				Description: def.Description,
				InputSchema: def.Parameters,
			})
		}
	}

	temperature := float32(reasonerTemperature)
	for i := 0; i < r.maxIterations; i++ {
		resp, err := r.client.CreateMessages(ctx, anthropic.MessagesRequest{
			Model:       anthropic.Model(r.model),
			System:      systemPrompt,
			Messages:    messages,
			Tools:       tools,
			MaxTokens:   reasonerMaxTokens,
			Temperature: &temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("anthropic messages: %w", err)
		}

		if resp.StopReason != anthropic.MessagesStopReasonToolUse {
			return parseProposal(collectText(resp.Content))
		}

		messages = append(messages, anthropic.Message{
			Role:    anthropic.RoleAssistant,
			Content: resp.Content,
		})
		results := r.dispatchAll(req.Tools, resp.Content)
		if len(results) == 0 {
			return nil, fmt.Errorf("anthropic stopped for tool use without a tool call")
		}
		messages = append(messages, anthropic.Message{
			Role:    anthropic.RoleUser,
			Content: results,
		})
	}
	return nil, fmt.Errorf("no answer after %d tool iterations", r.maxIterations)
}

// dispatchAll runs every tool_use block and packs tool_result blocks for
// the next turn. Failures are relayed as error results so the model can
// correct itself.
func (r *AnthropicReasoner) dispatchAll(tools *Toolset, content []anthropic.MessageContent) []anthropic.MessageContent {
	var results []anthropic.MessageContent
	for _, block := range content {
		if block.Type != anthropic.MessagesContentTypeToolUse || block.MessageContentToolUse == nil {
			continue
		}
		use := block.MessageContentToolUse
		if tools == nil {
			results = append(results, anthropic.NewToolResultMessageContent(use.ID, "no tools available", true))
			continue
		}
		result, err := tools.Call(use.Name, use.Input)
		if err != nil {
			r.logger.Debug("tool call failed",
				zap.String("tool", use.Name),
				zap.Error(err))
			results = append(results, anthropic.NewToolResultMessageContent(use.ID, err.Error(), true))
			continue
		}
		results = append(results, anthropic.NewToolResultMessageContent(use.ID, result, false))
	}
	return results
}

// collectText joins the text blocks of a response.
func collectText(content []anthropic.MessageContent) string {
	var out string
	for _, block := range content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			out += *block.Text
		}
	}
	return out
}
