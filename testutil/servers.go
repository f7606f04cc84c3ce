package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentbridge/protocol/mcp"
)

// Remote describes the fake remote agent a test server presents: one
// capability and a canned reply. Protocols that declare tags (A2A skills,
// custom capabilities) advertise Tags verbatim; the others derive tags from
// the name and description words, so put routing keywords there.
type Remote struct {
	// Name is the agent's display name.
	Name string
	// Description summarizes the agent.
	Description string
	// Capability names the advertised capability: the A2A skill, the MCP
	// tool, the custom capability. Defaults to Name. ACP ignores it; there
	// the hosted agent is the capability.
	Capability string
	// Tags are declared on the capability where the protocol carries them.
	Tags []string
	// Reply is the canned execution answer. Defaults to "ok".
	Reply string
}

func (r Remote) withDefaults() Remote {
	if r.Name == "" {
		r.Name = "Fake Agent"
	}
	if r.Capability == "" {
		r.Capability = r.Name
	}
	if r.Reply == "" {
		r.Reply = "ok"
	}
	return r
}

// rpcRequest is the part of a JSON-RPC request the fakes care about. The ID
// stays untyped so it echoes back exactly as sent.
type rpcRequest struct {
	ID     any             `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// NewA2AServer starts a fake A2A agent: the card at the well-known path, and
// JSON-RPC at the root answering message/send with one text part and
// message/stream with a single SSE event. The server stops with the test.
func NewA2AServer(t *testing.T, remote Remote) *httptest.Server {
	t.Helper()
	r := remote.withDefaults()

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/agent.json", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(t, w, map[string]any{
			"name":        r.Name,
			"description": r.Description,
			"version":     "1.0.0",
			"skills": []map[string]any{{
				"name":        r.Capability,
				"description": r.Description,
				"tags":        r.Tags,
			}},
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		var rpc rpcRequest
		decodeJSON(t, req, &rpc)

		result := map[string]any{
			"kind":  "message",
			"role":  "agent",
			"parts": []map[string]any{{"kind": "text", "text": r.Reply}},
		}
		if rpc.Method == "message/stream" {
			w.Header().Set("Content-Type", "text/event-stream")
			event, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": rpc.ID, "result": result})
			require.NoError(t, err)
			fmt.Fprintf(w, "data: %s\n\n", event)
			return
		}
		writeJSON(t, w, map[string]any{"jsonrpc": "2.0", "id": rpc.ID, "result": result})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// NewACPServer starts a fake ACP server hosting one agent manifest. Runs
// complete synchronously with the canned reply.
func NewACPServer(t *testing.T, remote Remote) *httptest.Server {
	t.Helper()
	r := remote.withDefaults()

	mux := http.NewServeMux()
	mux.HandleFunc("/agents", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(t, w, map[string]any{
			"agents":  []map[string]any{{"name": r.Name, "description": r.Description}},
			"version": "1.0.0",
		})
	})
	mux.HandleFunc("/runs", func(w http.ResponseWriter, req *http.Request) {
		var run struct {
			AgentName string `json:"agent_name"`
		}
		decodeJSON(t, req, &run)
		writeJSON(t, w, map[string]any{
			"run_id":     "run-1",
			"agent_name": run.AgentName,
			"status":     "completed",
			"output": []map[string]any{{
				"role":  "agent",
				"parts": []map[string]any{{"content": r.Reply, "content_type": "text/plain"}},
			}},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// NewMCPServer starts a fake MCP tool server: initialize negotiates the
// supported protocol revision, tools/list exposes one tool, tools/call
// answers with the canned reply.
func NewMCPServer(t *testing.T, remote Remote) *httptest.Server {
	t.Helper()
	r := remote.withDefaults()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var rpc rpcRequest
		decodeJSON(t, req, &rpc)

		var result any
		switch rpc.Method {
		case "initialize":
			result = map[string]any{
				"protocolVersion": mcp.ProtocolVersion,
				"serverInfo":      map[string]any{"name": r.Name, "version": "1.0.0"},
				"instructions":    r.Description,
			}
		case "tools/list":
			result = map[string]any{"tools": []map[string]any{{
				"name":        r.Capability,
				"description": r.Description,
				"inputSchema": map[string]any{"type": "object"},
			}}}
		case "tools/call":
			result = map[string]any{
				"content": []map[string]any{{"type": "text", "text": r.Reply}},
				"isError": false,
			}
		default:
			writeJSON(t, w, map[string]any{
				"jsonrpc": "2.0", "id": rpc.ID,
				"error": map[string]any{"code": -32601, "message": "method not found"},
			})
			return
		}
		writeJSON(t, w, map[string]any{"jsonrpc": "2.0", "id": rpc.ID, "result": result})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// NewCustomServer starts a fake agent speaking the bridge's custom dialect:
// GET /info describes it, POST /chat answers {"response": ...}.
func NewCustomServer(t *testing.T, remote Remote) *httptest.Server {
	t.Helper()
	r := remote.withDefaults()

	mux := http.NewServeMux()
	mux.HandleFunc("/info", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(t, w, map[string]any{
			"name":        r.Name,
			"description": r.Description,
			"version":     "1.0.0",
			"capabilities": []map[string]any{{
				"name":        r.Capability,
				"description": r.Description,
				"tags":        r.Tags,
			}},
		})
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(t, w, map[string]any{"response": r.Reply})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func decodeJSON(t *testing.T, req *http.Request, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(req.Body).Decode(dst))
}
