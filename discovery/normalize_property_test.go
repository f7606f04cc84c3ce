package discovery

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/agentbridge/types"
)

func TestProperty_Normalize_Idempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		caps := drawCapabilities(rt)

		once := Normalize(caps)
		twice := Normalize(once)
		assert.Equal(t, once, twice)
	})
}

func TestProperty_Normalize_TagsCanonical(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		caps := drawCapabilities(rt)

		for _, c := range Normalize(caps) {
			require.NotNil(t, c.Tags)
			assert.True(t, sort.StringsAreSorted(c.Tags), "tags should be sorted: %v", c.Tags)

			seen := make(map[string]struct{}, len(c.Tags))
			for _, tag := range c.Tags {
				assert.Equal(t, strings.ToLower(tag), tag, "tag should be lowercase")
				assert.Equal(t, strings.TrimSpace(tag), tag, "tag should be trimmed")
				assert.NotEmpty(t, tag)
				_, dup := seen[tag]
				assert.False(t, dup, "tag %q appears twice", tag)
				seen[tag] = struct{}{}
			}
		}
	})
}

func TestProperty_Normalize_NamesUniqueAndSorted(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		caps := drawCapabilities(rt)

		out := Normalize(caps)
		names := make([]string, 0, len(out))
		for _, c := range out {
			assert.Equal(t, strings.ToLower(c.Name), c.Name)
			assert.NotEmpty(t, c.Name)
			names = append(names, c.Name)
		}
		assert.True(t, sort.StringsAreSorted(names), "capabilities should be sorted by name: %v", names)

		unique := make(map[string]struct{}, len(names))
		for _, n := range names {
			_, dup := unique[n]
			assert.False(t, dup, "name %q appears twice", n)
			unique[n] = struct{}{}
		}
	})
}

func drawCapabilities(rt *rapid.T) []types.Capability {
	count := rapid.IntRange(0, 12).Draw(rt, "count")
	caps := make([]types.Capability, 0, count)
	for i := 0; i < count; i++ {
		tagCount := rapid.IntRange(0, 5).Draw(rt, "tagCount")
		tags := make([]string, 0, tagCount)
		for j := 0; j < tagCount; j++ {
			tags = append(tags, rapid.StringMatching(`\s{0,2}[A-Za-z]{0,8}\s{0,2}`).Draw(rt, "tag"))
		}
		caps = append(caps, types.Capability{
			Name:        rapid.StringMatching(`\s{0,2}[A-Za-z_]{0,10}\s{0,2}`).Draw(rt, "name"),
			Description: rapid.StringMatching(`[A-Za-z ]{0,40}`).Draw(rt, "description"),
			Tags:        tags,
		})
	}
	return caps
}
