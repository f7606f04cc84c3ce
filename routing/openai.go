package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/config"
	"github.com/BaSui01/agentbridge/types"
)

// reasonerTemperature keeps selection answers stable across retries.
const reasonerTemperature = 0.1

// reasonerMaxTokens bounds the final JSON answer.
const reasonerMaxTokens = 1024

// OpenAIReasoner proposes agents through the OpenAI chat completions API,
// or any OpenAI-compatible gateway via BaseURL.
type OpenAIReasoner struct {
	client        *openai.Client
	model         string
	maxIterations int
	logger        *zap.Logger
}

// NewOpenAIReasoner builds the OpenAI backend from config.
func NewOpenAIReasoner(cfg config.ReasonerConfig, httpClient *http.Client, logger *zap.Logger) (*OpenAIReasoner, error) {
	if cfg.APIKey == "" {
		return nil, types.NewError(types.ErrConfigInvalid, "openai reasoner requires an api key")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}

	return &OpenAIReasoner{
		client:        openai.NewClientWithConfig(clientCfg),
		model:         cfg.Model,
		maxIterations: maxIterations(cfg),
		logger:        logger.Named("reasoner.openai"),
	}, nil
}

// Name identifies the backend in logs.
func (r *OpenAIReasoner) Name() string { return "openai" }

// Propose runs the tool-calling loop until the model answers with JSON or
// the iteration bound is hit.
func (r *OpenAIReasoner) Propose(ctx context.Context, req ProposeRequest) (*Proposal, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userPrompt(req)},
	}

	var tools []openai.Tool
	if req.Tools != nil {
		for _, def := range req.Tools.Definitions() {
			tools = append(tools, openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        def.Name,
					Description: def.Description,
					Parameters:  def.Parameters,
				},
			})
		}
	}

	for i := 0; i < r.maxIterations; i++ {
		resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       r.model,
			Messages:    messages,
			Tools:       tools,
			Temperature: reasonerTemperature,
			MaxTokens:   reasonerMaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("openai chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("openai returned no choices")
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return parseProposal(msg.Content)
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			result := r.dispatch(req.Tools, call)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}
	return nil, fmt.Errorf("no answer after %d tool iterations", r.maxIterations)
}

// dispatch runs one tool call. Failures are relayed to the model as tool
// output so it can correct itself instead of aborting the decision.
func (r *OpenAIReasoner) dispatch(tools *Toolset, call openai.ToolCall) string {
	if tools == nil {
		return `{"error": "no tools available"}`
	}
	result, err := tools.Call(call.Function.Name, json.RawMessage(call.Function.Arguments))
	if err != nil {
		r.logger.Debug("tool call failed",
			zap.String("tool", call.Function.Name),
			zap.Error(err))
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return result
}

func maxIterations(cfg config.ReasonerConfig) int {
	if cfg.MaxToolIterations > 0 {
		return cfg.MaxToolIterations
	}
	return 5
}
