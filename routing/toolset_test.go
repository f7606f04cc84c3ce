package routing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentbridge/types"
)

func TestToolset_ListAgents(t *testing.T) {
	reg := newTestRegistry(t,
		newTestAgent("a2a-math", types.ProtocolA2A, "math"),
		newTestAgent("mcp-files", types.ProtocolMCP, "filesystem"),
	)
	tools := NewToolset(reg)

	out, err := tools.Call(ToolListAgents, nil)
	require.NoError(t, err)

	var summaries []agentSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, "a2a-math", summaries[0].AgentID)
	assert.Equal(t, "healthy", summaries[0].Status)
	assert.Equal(t, []string{"math"}, summaries[0].Tags)

	assert.Equal(t, 2, tools.SeenCount())
	_, ok := tools.Seen("mcp-files")
	assert.True(t, ok)
}

func TestToolset_ByProtocol(t *testing.T) {
	reg := newTestRegistry(t,
		newTestAgent("a2a-math", types.ProtocolA2A, "math"),
		newTestAgent("mcp-files", types.ProtocolMCP, "filesystem"),
	)
	tools := NewToolset(reg)

	out, err := tools.Call(ToolAgentsByProtocol, json.RawMessage(`{"protocol":"mcp"}`))
	require.NoError(t, err)
	var summaries []agentSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "mcp-files", summaries[0].AgentID)

	_, err = tools.Call(ToolAgentsByProtocol, json.RawMessage(`{"protocol":"grpc"}`))
	require.Error(t, err)

	// Only the returned record entered the recorder.
	assert.Equal(t, 1, tools.SeenCount())
}

func TestToolset_ByCapabilityTag(t *testing.T) {
	reg := newTestRegistry(t,
		newTestAgent("a2a-math", types.ProtocolA2A, "math", "arithmetic"),
		newTestAgent("acp-translate", types.ProtocolACP, "translation"),
	)
	tools := NewToolset(reg)

	out, err := tools.Call(ToolAgentsByCapabilityTag, json.RawMessage(`{"tag":"arithmetic"}`))
	require.NoError(t, err)
	var summaries []agentSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "a2a-math", summaries[0].AgentID)

	_, err = tools.Call(ToolAgentsByCapabilityTag, json.RawMessage(`{"tag":""}`))
	require.Error(t, err)
}

func TestToolset_UnknownTool(t *testing.T) {
	tools := NewToolset(newTestRegistry(t))
	_, err := tools.Call("drop_all_agents", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool")
}

// The recorder keeps the first sighting of each agent so validation
// compares against what the model actually saw, not a later state.
func TestToolset_FirstSightingWins(t *testing.T) {
	reg := newTestRegistry(t, newTestAgent("a2a-math", types.ProtocolA2A, "math"))
	tools := NewToolset(reg)

	_, err := tools.Call(ToolListAgents, nil)
	require.NoError(t, err)

	moved := newTestAgent("a2a-math", types.ProtocolA2A, "math")
	moved.Endpoint = "http://moved:1"
	require.NoError(t, reg.Upsert(moved))

	_, err = tools.Call(ToolListAgents, nil)
	require.NoError(t, err)

	seen, ok := tools.Seen("a2a-math")
	require.True(t, ok)
	assert.Equal(t, "http://a2a-math:8000", seen.Endpoint)
}

func TestToolset_Definitions(t *testing.T) {
	tools := NewToolset(newTestRegistry(t))
	defs := tools.Definitions()
	require.Len(t, defs, 3)

	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
		assert.NotEmpty(t, def.Description)
		assert.Equal(t, "object", def.Parameters["type"])
	}
	assert.Equal(t, []string{ToolListAgents, ToolAgentsByProtocol, ToolAgentsByCapabilityTag}, names)
}
