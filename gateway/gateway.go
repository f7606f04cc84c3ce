// Package gateway executes routed queries against remote agents. One invoker
// per protocol translates the query into the agent's native envelope and
// extracts canonical text from the response. Failures never escape as bare
// errors: every call returns an ExecutionResult with a classified error
// inside.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/config"
	"github.com/BaSui01/agentbridge/discovery"
	"github.com/BaSui01/agentbridge/internal/metrics"
	"github.com/BaSui01/agentbridge/protocol/a2a"
	"github.com/BaSui01/agentbridge/protocol/acp"
	"github.com/BaSui01/agentbridge/protocol/custom"
	"github.com/BaSui01/agentbridge/protocol/mcp"
	"github.com/BaSui01/agentbridge/types"
)

// noContent is returned when an agent answered successfully but produced no
// extractable text.
const noContent = "no content available"

// invoker executes one query against one agent in its native protocol.
// Returned errors are either classified *types.Error values or transport
// errors for Execute to classify.
type invoker interface {
	invoke(ctx context.Context, agent *types.Agent, query string, meta map[string]string) (content string, raw []byte, err error)
}

// streamInvoker is implemented by invokers whose protocol delivers partial
// content.
type streamInvoker interface {
	invokeStream(ctx context.Context, agent *types.Agent, query string, meta map[string]string, onChunk func(string)) (content string, raw []byte, err error)
}

// Gateway dispatches execution to protocol invokers.
type Gateway struct {
	invokers  map[types.Protocol]invoker
	collector *metrics.Collector
	config    config.ExecutionConfig
	logger    *zap.Logger
}

// New builds a gateway with one invoker per supported protocol.
func New(httpClient *http.Client, collector *metrics.Collector, cfg config.ExecutionConfig, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("gateway")
	return &Gateway{
		invokers: map[types.Protocol]invoker{
			types.ProtocolACP:    newACPInvoker(httpClient, logger),
			types.ProtocolA2A:    newA2AInvoker(httpClient, logger),
			types.ProtocolMCP:    newMCPInvoker(httpClient, logger),
			types.ProtocolCustom: newCustomInvoker(httpClient, logger),
		},
		collector: collector,
		config:    cfg,
		logger:    logger,
	}
}

// Execute runs query against agent and always returns a result. The call is
// bounded by the configured execution timeout. No retries: the caller owns
// retry policy.
func (g *Gateway) Execute(ctx context.Context, agent *types.Agent, query string, meta map[string]string) *types.ExecutionResult {
	return g.run(ctx, agent, query, meta, nil)
}

// ExecuteStream behaves like Execute but delivers partial content through
// onChunk as it arrives. Protocols without incremental delivery run one-shot
// and emit the whole content as a single chunk.
func (g *Gateway) ExecuteStream(ctx context.Context, agent *types.Agent, query string, meta map[string]string, onChunk func(string)) *types.ExecutionResult {
	return g.run(ctx, agent, query, meta, onChunk)
}

func (g *Gateway) run(ctx context.Context, agent *types.Agent, query string, meta map[string]string, onChunk func(string)) *types.ExecutionResult {
	started := time.Now()
	if agent == nil {
		return types.Failed("", "", 0,
			types.NewError(types.ErrInternalError, "execute called without an agent"))
	}

	inv, ok := g.invokers[agent.Protocol]
	if !ok {
		return types.Failed(agent.AgentID, agent.Protocol, 0,
			types.NewError(types.ErrInternalError,
				fmt.Sprintf("no invoker for protocol %q", agent.Protocol)))
	}

	timeout := g.config.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		content string
		raw     []byte
		err     error
	)
	if streamer, canStream := inv.(streamInvoker); canStream && onChunk != nil {
		content, raw, err = streamer.invokeStream(ctx, agent, query, meta, onChunk)
	} else {
		content, raw, err = inv.invoke(ctx, agent, query, meta)
		if err == nil && onChunk != nil && content != "" {
			onChunk(content)
		}
	}
	duration := time.Since(started)

	if err != nil {
		classified := g.classify(err, agent)
		g.collector.RecordExecution(agent.Protocol, execOutcome(classified), duration)
		g.logger.Warn("execution failed",
			zap.String("agent_id", agent.AgentID),
			zap.String("protocol", string(agent.Protocol)),
			zap.String("code", string(classified.Code)),
			zap.Duration("duration", duration),
			zap.Error(err))
		result := types.Failed(agent.AgentID, agent.Protocol, duration, classified)
		result.RawPayload = g.capPayload(raw)
		return result
	}

	if content == "" {
		content = noContent
	}
	g.collector.RecordExecution(agent.Protocol, "success", duration)
	g.logger.Debug("execution succeeded",
		zap.String("agent_id", agent.AgentID),
		zap.String("protocol", string(agent.Protocol)),
		zap.Duration("duration", duration),
		zap.Int("content_bytes", len(content)))
	return &types.ExecutionResult{
		Success:    true,
		Content:    content,
		RawPayload: g.capPayload(raw),
		Duration:   duration,
		AgentID:    agent.AgentID,
		Protocol:   agent.Protocol,
	}
}

// classify folds invoker errors into the execution taxonomy. Classified
// errors pass through; timeouts and sentinel transport errors map to their
// codes; anything else counts as a network failure.
func (g *Gateway) classify(err error, agent *types.Agent) *types.Error {
	var typed *types.Error
	if errors.As(err, &typed) {
		return typed
	}

	var code types.ErrorCode
	retryable := false
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code, retryable = types.ErrExecutionTimeout, true
	case errors.Is(err, acp.ErrMalformed),
		errors.Is(err, a2a.ErrMalformed),
		errors.Is(err, mcp.ErrMalformed),
		errors.Is(err, custom.ErrMalformed):
		code = types.ErrExecutionMalformed
	case errors.Is(err, mcp.ErrUnsupportedVersion):
		code = types.ErrExecutionNonSuccess
	default:
		code, retryable = types.ErrExecutionNetwork, true
	}
	return types.NewExecutionError(code, err.Error()).
		WithCause(err).
		WithRetryable(retryable).
		WithProtocol(agent.Protocol).
		WithAgent(agent.AgentID)
}

// capPayload bounds the raw payload retained on results.
func (g *Gateway) capPayload(raw []byte) []byte {
	limit := g.config.MaxResponseBytes
	if limit > 0 && int64(len(raw)) > limit {
		return raw[:limit]
	}
	return raw
}

func execOutcome(err *types.Error) string {
	switch err.Code {
	case types.ErrExecutionTimeout:
		return "timeout"
	case types.ErrExecutionNonSuccess:
		return "non_success"
	case types.ErrExecutionMalformed:
		return "malformed"
	default:
		return "network"
	}
}

// selectCapability picks the capability whose tags best overlap the query
// tokens; ties keep the earlier capability, and nothing matching falls back
// to the first. ACP runs and MCP tool calls both address capabilities by
// name.
func selectCapability(agent *types.Agent, query string) string {
	if len(agent.Capabilities) == 0 {
		return ""
	}
	tokens := discovery.Tokenize(query)
	tokenSet := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		tokenSet[tok] = struct{}{}
	}

	best, bestScore := agent.Capabilities[0].Name, 0
	for _, capability := range agent.Capabilities {
		score := 0
		for _, tag := range capability.Tags {
			if _, ok := tokenSet[tag]; ok {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = capability.Name, score
		}
	}
	return best
}
