package routing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/agentbridge/types"
)

func TestRankByKeywords_Ordering(t *testing.T) {
	discovered := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	twoTags := newTestAgent("two-tags", types.ProtocolA2A, "math", "arithmetic")
	oneTagHealthy := newTestAgent("one-tag-healthy", types.ProtocolMCP, "math")
	oneTagDegraded := newTestAgent("one-tag-degraded", types.ProtocolACP, "math")
	noTags := newTestAgent("no-tags", types.ProtocolCustom, "weather")
	for _, ag := range []*types.Agent{twoTags, oneTagHealthy, oneTagDegraded, noTags} {
		ag.Status = types.HealthHealthy
		ag.DiscoveredAt = discovered
	}
	oneTagDegraded.Status = types.HealthDegraded

	scored := rankByKeywords(
		[]*types.Agent{noTags, oneTagDegraded, oneTagHealthy, twoTags},
		[]string{"math", "arithmetic"},
		nil,
	)

	require.Len(t, scored, 3, "agents with no matching tag are not candidates")
	assert.Equal(t, "two-tags", scored[0].agent.AgentID)
	assert.Equal(t, 2, scored[0].matched)
	assert.Equal(t, "one-tag-healthy", scored[1].agent.AgentID)
	assert.Equal(t, "one-tag-degraded", scored[2].agent.AgentID)
}

func TestRankByKeywords_PreferredProtocolBreaksTies(t *testing.T) {
	discovered := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a2a := newTestAgent("z-agent", types.ProtocolA2A, "math")
	mcp := newTestAgent("a-agent", types.ProtocolMCP, "math")
	for _, ag := range []*types.Agent{a2a, mcp} {
		ag.Status = types.HealthHealthy
		ag.DiscoveredAt = discovered
	}

	preferred := types.ProtocolA2A
	scored := rankByKeywords([]*types.Agent{mcp, a2a}, []string{"math"}, &preferred)
	require.Len(t, scored, 2)
	assert.Equal(t, "z-agent", scored[0].agent.AgentID,
		"preferred protocol outranks the id tiebreak")
}

func TestRankByKeywords_DuplicateTagsCountOnce(t *testing.T) {
	ag := newTestAgent("dup", types.ProtocolA2A, "math")
	ag.Status = types.HealthHealthy
	ag.Capabilities = append(ag.Capabilities, types.Capability{
		Name: "secondary", Tags: []string{"math"},
	})

	scored := rankByKeywords([]*types.Agent{ag}, []string{"math"}, nil)
	require.Len(t, scored, 1)
	assert.Equal(t, 1, scored[0].matched)
}

// The fallback ranking is a total order: the winner must not depend on the
// order candidates arrive in.
func TestRankByKeywords_OrderIndependent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		tagPool := []string{"math", "weather", "files", "translation", "search"}

		n := rapid.IntRange(1, 8).Draw(t, "n")
		ids := rapid.SliceOfNDistinct(rapid.StringMatching(`agent-[a-z]{1,6}`), n, n, rapid.ID[string]).Draw(t, "ids")
		agents := make([]*types.Agent, n)
		for i := range agents {
			tags := rapid.SliceOfNDistinct(rapid.SampledFrom(tagPool), 0, 3, rapid.ID[string]).Draw(t, "tags")
			ag := newTestAgent(ids[i], types.ProtocolA2A, tags...)
			ag.Status = types.HealthHealthy
			ag.DiscoveredAt = base.Add(time.Duration(rapid.IntRange(0, 3).Draw(t, "age")) * time.Hour)
			agents[i] = ag
		}
		tokens := rapid.SliceOfNDistinct(rapid.SampledFrom(tagPool), 1, 3, rapid.ID[string]).Draw(t, "tokens")

		first := rankByKeywords(agents, tokens, nil)

		shuffled := make([]*types.Agent, n)
		copy(shuffled, agents)
		perm := rapid.Permutation(shuffled).Draw(t, "perm")
		second := rankByKeywords(perm, tokens, nil)

		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, first[i].agent.AgentID, second[i].agent.AgentID)
			assert.Equal(t, first[i].matched, second[i].matched)
		}
	})
}
