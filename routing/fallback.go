package routing

import (
	"sort"

	"github.com/BaSui01/agentbridge/types"
)

// scoredAgent pairs a candidate with its keyword-overlap score.
type scoredAgent struct {
	agent   *types.Agent
	matched int
}

// rankByKeywords orders fallback candidates deterministically: more matching
// capability tags first, then healthier agents, then agents speaking the
// preferred protocol, then earlier discovery, then agent ID. Agents with no
// matching tag are not candidates.
func rankByKeywords(agents []*types.Agent, tokens []string, preferred *types.Protocol) []scoredAgent {
	tokenSet := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		tokenSet[tok] = struct{}{}
	}

	scored := make([]scoredAgent, 0, len(agents))
	for _, ag := range agents {
		if matched := matchedTagCount(ag, tokenSet); matched > 0 {
			scored = append(scored, scoredAgent{agent: ag, matched: matched})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.matched != b.matched {
			return a.matched > b.matched
		}
		if ra, rb := a.agent.Status.Rank(), b.agent.Status.Rank(); ra != rb {
			return ra > rb
		}
		if preferred != nil {
			pa, pb := a.agent.Protocol == *preferred, b.agent.Protocol == *preferred
			if pa != pb {
				return pa
			}
		}
		if !a.agent.DiscoveredAt.Equal(b.agent.DiscoveredAt) {
			return a.agent.DiscoveredAt.Before(b.agent.DiscoveredAt)
		}
		return a.agent.AgentID < b.agent.AgentID
	})
	return scored
}

// matchedTagCount counts distinct capability tags of ag present in the query
// token set.
func matchedTagCount(ag *types.Agent, tokens map[string]struct{}) int {
	matched := make(map[string]struct{})
	for _, c := range ag.Capabilities {
		for _, tag := range c.Tags {
			if _, ok := tokens[tag]; ok {
				matched[tag] = struct{}{}
			}
		}
	}
	return len(matched)
}
