package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/internal/jsonrpc"
)

// clientName is reported to servers during initialize.
const clientName = "agentbridge"

// Client drives one MCP server over HTTP or websocket, chosen by the
// endpoint scheme. Websocket connections are dialed lazily and reused, so
// callers should Close the client when done.
type Client struct {
	endpoint string
	caller   jsonrpc.Caller
	logger   *zap.Logger
}

// NewClient creates a client for the endpoint.
func NewClient(endpoint string, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "mcp_client"))
	caller, err := jsonrpc.NewCaller(endpoint, httpClient, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return &Client{endpoint: endpoint, caller: caller, logger: logger}, nil
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.caller.Close()
}

// Initialize negotiates the session and verifies the server speaks a
// supported protocol revision.
func (c *Client) Initialize(ctx context.Context) (*InitializeResult, error) {
	params := InitializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    map[string]any{},
		ClientInfo:      ClientInfo{Name: clientName, Version: "1.0.0"},
	}
	raw, err := c.call(ctx, "initialize", params)
	if err != nil {
		return nil, err
	}

	var result InitializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if result.ProtocolVersion == "" {
		return nil, fmt.Errorf("%w: initialize result missing protocolVersion", ErrMalformed)
	}
	if !versionSupported(result.ProtocolVersion) {
		return nil, fmt.Errorf("%w: server negotiated %q", ErrUnsupportedVersion, result.ProtocolVersion)
	}
	return &result, nil
}

// ListTools enumerates the tools the server exposes.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	raw, err := c.call(ctx, "tools/list", struct{}{})
	if err != nil {
		return nil, err
	}

	var result ToolsListResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	for i, tool := range result.Tools {
		if tool.Name == "" {
			return nil, fmt.Errorf("%w: tool %d missing name", ErrMalformed, i)
		}
	}
	return result.Tools, nil
}

// CallTool executes one tool and returns the decoded result alongside the
// raw payload. A result with IsError set is returned without error; the
// caller decides how to surface tool-level failures.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*CallResult, json.RawMessage, error) {
	raw, err := c.call(ctx, "tools/call", CallParams{Name: name, Arguments: args})
	if err != nil {
		return nil, nil, err
	}

	var result CallResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, raw, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return &result, raw, nil
}

func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	raw, err := c.caller.Call(ctx, method, params)
	if err != nil {
		return nil, classifyRPCError(err)
	}
	return raw, nil
}

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
