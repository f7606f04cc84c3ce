package a2a

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/internal/jsonrpc"
)

const maxResponseBytes = 8 << 20

// Client talks to A2A servers over HTTP.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an A2A client.
func NewClient(httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger.With(zap.String("component", "a2a_client")),
	}
}

// Discover fetches and validates the agent card published at the endpoint.
func (c *Client) Discover(ctx context.Context, endpoint string) (*AgentCard, error) {
	url := strings.TrimRight(endpoint, "/") + WellKnownPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var card AgentCard
	if err := json.Unmarshal(body, &card); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}
	return &card, nil
}

// SendMessage submits a user message via message/send and returns the raw
// JSON-RPC result, which may be a message or a task envelope.
func (c *Client) SendMessage(ctx context.Context, endpoint, text string) (json.RawMessage, error) {
	caller := jsonrpc.NewHTTPCaller(endpoint, c.httpClient, c.logger)
	raw, err := caller.Call(ctx, "message/send", SendParams{Message: userMessage(text)})
	if err != nil {
		return nil, classifyRPCError(err)
	}
	return raw, nil
}

// StreamMessage submits a user message via message/stream and consumes the
// SSE event stream. onText is invoked with the text of each event that
// carries any; the raw result of the final event is returned so callers can
// inspect terminal task state.
func (c *Client) StreamMessage(ctx context.Context, endpoint, text string, onText func(string)) (json.RawMessage, error) {
	payload, err := json.Marshal(jsonrpc.NewRequest(uuid.NewString(), "message/stream", SendParams{Message: userMessage(text)}))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var last json.RawMessage
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return last, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		var msg jsonrpc.Message
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			return last, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if msg.Error != nil {
			return last, msg.Error
		}
		if len(msg.Result) == 0 {
			continue
		}
		last = msg.Result
		if onText != nil {
			if text, ok := CollectText(msg.Result); ok && text != "" {
				onText(text)
			}
		}
	}
	if last == nil {
		return nil, fmt.Errorf("%w: stream carried no events", ErrMalformed)
	}
	return last, nil
}

func userMessage(text string) Message {
	return Message{
		Role:      "user",
		Parts:     []Part{{Kind: PartKindText, Text: text}},
		MessageID: uuid.NewString(),
		Kind:      "message",
	}
}

// classifyRPCError maps transport-level failures onto this package's
// sentinels while letting JSON-RPC application errors pass through.
func classifyRPCError(err error) error {
	var rpcErr *jsonrpc.Error
	switch {
	case errors.As(err, &rpcErr):
		return err
	case errors.Is(err, jsonrpc.ErrDecode):
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	case errors.Is(err, jsonrpc.ErrTransport):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		return err
	}
}
