package routing

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/BaSui01/agentbridge/types"
)

// tokenCounter counts prompt tokens with the cl100k_base encoding, falling
// back to a length/4 estimate when the encoding cannot be loaded.
type tokenCounter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

func (c *tokenCounter) count(text string) int {
	c.once.Do(func() {
		c.enc, c.err = tiktoken.GetEncoding("cl100k_base")
	})
	if c.err != nil || c.enc == nil {
		return len(text) / 4
	}
	return len(c.enc.Encode(text, nil, nil))
}

// buildCatalog renders one line per agent, healthiest first, until the token
// budget is spent. It returns the rendered catalog and the agents that made
// it in, so the caller can seed the decision recorder with exactly what the
// model saw.
func buildCatalog(agents []*types.Agent, tokenBudget int, counter *tokenCounter) (string, []*types.Agent) {
	if len(agents) == 0 {
		return "(no agents registered)", nil
	}

	ordered := make([]*types.Agent, len(agents))
	copy(ordered, agents)
	sort.Slice(ordered, func(i, j int) bool {
		ri, rj := ordered[i].Status.Rank(), ordered[j].Status.Rank()
		if ri != rj {
			return ri > rj
		}
		return ordered[i].AgentID < ordered[j].AgentID
	})

	var (
		b        strings.Builder
		included []*types.Agent
		spent    int
	)
	for _, ag := range ordered {
		line := catalogLine(ag)
		cost := counter.count(line)
		if tokenBudget > 0 && spent+cost > tokenBudget && len(included) > 0 {
			break
		}
		b.WriteString(line)
		b.WriteByte('\n')
		spent += cost
		included = append(included, ag)
	}
	return strings.TrimRight(b.String(), "\n"), included
}

func catalogLine(ag *types.Agent) string {
	tags := make([]string, 0)
	for _, c := range ag.Capabilities {
		tags = append(tags, c.Tags...)
	}
	desc := ag.Description
	if desc == "" {
		desc = "(no description)"
	}
	return fmt.Sprintf("- %s | protocol=%s status=%s | tags=%s | %s",
		ag.AgentID, ag.Protocol, ag.Status, strings.Join(dedupeSorted(tags), ","), desc)
}

func dedupeSorted(values []string) []string {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
