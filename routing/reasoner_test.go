package routing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/agentbridge/types"
)

func TestParseProposal(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    Proposal
	}{
		{
			name:    "plain json",
			content: `{"agent_id":"a2a-math","confidence":0.9,"reasoning":"matches"}`,
			want:    Proposal{AgentID: "a2a-math", Confidence: 0.9, Reasoning: "matches"},
		},
		{
			name:    "fenced json",
			content: "```json\n{\"agent_id\":\"a2a-math\",\"confidence\":0.5,\"reasoning\":\"ok\"}\n```",
			want:    Proposal{AgentID: "a2a-math", Confidence: 0.5, Reasoning: "ok"},
		},
		{
			name:    "prose around json",
			content: "Here is my selection:\n{\"agent_id\":\"mcp-files\",\"confidence\":0.7,\"reasoning\":\"file tools\"} hope that helps",
			want:    Proposal{AgentID: "mcp-files", Confidence: 0.7, Reasoning: "file tools"},
		},
		{
			name:    "confidence above one clamps",
			content: `{"agent_id":"x","confidence":42,"reasoning":"sure"}`,
			want:    Proposal{AgentID: "x", Confidence: 1, Reasoning: "sure"},
		},
		{
			name:    "negative confidence clamps",
			content: `{"agent_id":"x","confidence":-3,"reasoning":"?"}`,
			want:    Proposal{AgentID: "x", Confidence: 0, Reasoning: "?"},
		},
		{
			name:    "empty agent id",
			content: `{"agent_id":"","confidence":0,"reasoning":"nothing fits"}`,
			want:    Proposal{Reasoning: "nothing fits"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseProposal(tc.content)
			require.NoError(t, err)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestParseProposal_Invalid(t *testing.T) {
	for _, content := range []string{"", "not json at all", "{broken"} {
		_, err := parseProposal(content)
		assert.Error(t, err, "content %q", content)
	}
}

func TestParseProposal_ConfidenceAlwaysInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		confidence := rapid.Float64().Draw(t, "confidence")
		content := fmt.Sprintf(`{"agent_id":"x","confidence":%g,"reasoning":"r"}`, confidence)

		p, err := parseProposal(content)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p.Confidence, 0.0)
		assert.LessOrEqual(t, p.Confidence, 1.0)
	})
}

func TestUserPrompt(t *testing.T) {
	preferred := types.ProtocolMCP
	prompt := userPrompt(ProposeRequest{
		Query:    "list files",
		Protocol: &preferred,
		Catalog:  "- mcp-files | protocol=mcp",
		Hint:     "previous answer rejected",
	})
	assert.Contains(t, prompt, "Query: list files")
	assert.Contains(t, prompt, "Preferred protocol: mcp")
	assert.Contains(t, prompt, "- mcp-files")
	assert.Contains(t, prompt, "previous answer rejected")

	bare := userPrompt(ProposeRequest{Query: "x", Catalog: "(no agents registered)"})
	assert.NotContains(t, bare, "Preferred protocol")
}
