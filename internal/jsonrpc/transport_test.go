package jsonrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPCaller_Call(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Message
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, Version, req.JSONRPC)
		assert.Equal(t, "tools/list", req.Method)
		require.NotNil(t, req.ID)

		resp := Message{JSONRPC: Version, ID: req.ID, Result: json.RawMessage(`{"tools":[]}`)}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	caller := NewHTTPCaller(srv.URL, srv.Client(), nil)
	result, err := caller.Call(context.Background(), "tools/list", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tools":[]}`, string(result))
}

func TestHTTPCaller_RPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Message
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := Message{
			JSONRPC: Version,
			ID:      req.ID,
			Error:   &Error{Code: CodeMethodNotFound, Message: "no such method"},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	caller := NewHTTPCaller(srv.URL, srv.Client(), nil)
	_, err := caller.Call(context.Background(), "bogus", nil)
	require.Error(t, err)

	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CodeMethodNotFound, rpcErr.Code)
}

func TestHTTPCaller_HTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	caller := NewHTTPCaller(srv.URL, srv.Client(), nil)
	_, err := caller.Call(context.Background(), "anything", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
}

func TestWSCaller_Call(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{Subprotocols: []string{"mcp"}})
		require.NoError(t, err)
		defer conn.Close(websocket.StatusNormalClosure, "")

		ctx := r.Context()
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var req Message
			require.NoError(t, json.Unmarshal(data, &req))

			// interleave a notification to prove id matching skips it
			note, _ := json.Marshal(Message{JSONRPC: Version, Method: "notifications/progress"})
			_ = conn.Write(ctx, websocket.MessageText, note)

			resp, _ := json.Marshal(Message{JSONRPC: Version, ID: req.ID, Result: json.RawMessage(`"pong"`)})
			if err := conn.Write(ctx, websocket.MessageText, resp); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	caller := NewWSCaller(wsURL, nil)
	defer caller.Close()

	result, err := caller.Call(context.Background(), "ping", nil)
	require.NoError(t, err)
	assert.Equal(t, `"pong"`, string(result))

	// second call reuses the connection
	result, err = caller.Call(context.Background(), "ping", map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, `"pong"`, string(result))
}

func TestNewCaller_SchemeSelection(t *testing.T) {
	c, err := NewCaller("http://host:1234/rpc", nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &HTTPCaller{}, c)

	c, err = NewCaller("wss://host:1234/mcp", nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &WSCaller{}, c)

	_, err = NewCaller("ftp://host/x", nil, nil)
	assert.Error(t, err)
}
