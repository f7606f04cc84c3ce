package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 8 << 20

// Caller performs JSON-RPC calls against a single endpoint.
type Caller interface {
	// Call sends a request and returns the raw result, or the response
	// error when the peer answered with one.
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)
	// Close releases the underlying connection, if any.
	Close() error
}

// NewCaller selects a transport by the endpoint scheme: ws and wss get a
// WebSocket caller, everything else speaks HTTP POST.
func NewCaller(endpoint string, client *http.Client, logger *zap.Logger) (Caller, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "ws", "wss":
		return NewWSCaller(endpoint, logger), nil
	case "http", "https":
		return NewHTTPCaller(endpoint, client, logger), nil
	default:
		return nil, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
}

// HTTPCaller sends each request as one HTTP POST.
type HTTPCaller struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewHTTPCaller creates an HTTP transport for the endpoint.
func NewHTTPCaller(endpoint string, client *http.Client, logger *zap.Logger) *HTTPCaller {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPCaller{
		endpoint: endpoint,
		client:   client,
		logger:   logger.With(zap.String("component", "jsonrpc_http")),
	}
}

// Call implements Caller.
func (c *HTTPCaller) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(NewRequest(uuid.NewString(), method, params))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %d: %s", ErrTransport, resp.StatusCode, truncate(data, 200))
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if msg.Error != nil {
		return nil, msg.Error
	}
	return msg.Result, nil
}

// Close implements Caller. HTTP holds no connection state.
func (c *HTTPCaller) Close() error { return nil }

// WSCaller multiplexes requests over one WebSocket connection. The
// connection is dialed lazily and redialed after a transport error.
type WSCaller struct {
	url    string
	logger *zap.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSCaller creates a WebSocket transport for the endpoint.
func NewWSCaller(url string, logger *zap.Logger) *WSCaller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSCaller{
		url:    url,
		logger: logger.With(zap.String("component", "jsonrpc_ws")),
	}
}

// Call implements Caller. Requests run one at a time per connection;
// responses are matched by request id, interleaved notifications are skipped.
func (c *WSCaller) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		conn, _, err := websocket.Dial(ctx, c.url, &websocket.DialOptions{
			Subprotocols: []string{"mcp"},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: websocket dial: %w", ErrTransport, err)
		}
		conn.SetReadLimit(maxResponseBytes)
		c.conn = conn
		c.logger.Debug("websocket connected", zap.String("url", c.url))
	}

	id := uuid.NewString()
	body, err := json.Marshal(NewRequest(id, method, params))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	if err := c.conn.Write(ctx, websocket.MessageText, body); err != nil {
		c.drop()
		return nil, fmt.Errorf("%w: websocket write: %w", ErrTransport, err)
	}

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			c.drop()
			return nil, fmt.Errorf("%w: websocket read: %w", ErrTransport, err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		if fmt.Sprint(msg.ID) != id {
			continue
		}
		if msg.Error != nil {
			return nil, msg.Error
		}
		return msg.Result, nil
	}
}

// Close implements Caller.
func (c *WSCaller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close(websocket.StatusNormalClosure, "done")
	c.conn = nil
	return err
}

func (c *WSCaller) drop() {
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusInternalError, "transport error")
		c.conn = nil
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
