package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentbridge/types"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"lowercases and splits", "What is 2+2 Really", []string{"really"}},
		{"drops stopwords", "what is the weather for tomorrow", []string{"weather", "tomorrow"}},
		{"drops short tokens", "go to NY", []string{}},
		{"keeps underscores", "code_review tool", []string{"code_review", "tool"}},
		{"splits punctuation", "math,arithmetic;calculation", []string{"math", "arithmetic", "calculation"}},
		{"empty input", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestExtractTags(t *testing.T) {
	tags := ExtractTags("Weather Forecast", "Provides weather forecasts for cities")
	assert.Equal(t, []string{"cities", "forecast", "forecasts", "provides", "weather"}, tags)

	assert.Empty(t, ExtractTags("", ""))
}

func TestNormalize(t *testing.T) {
	t.Run("lowercases dedupes sorts tags", func(t *testing.T) {
		out := Normalize([]types.Capability{
			{Name: "Math", Tags: []string{"Math", "ARITHMETIC", "math", " arithmetic "}},
		})
		require.Len(t, out, 1)
		assert.Equal(t, "math", out[0].Name)
		assert.Equal(t, []string{"arithmetic", "math"}, out[0].Tags)
	})

	t.Run("merges duplicate names", func(t *testing.T) {
		out := Normalize([]types.Capability{
			{Name: "search", Description: "short", Tags: []string{"web"}},
			{Name: "Search", Description: "a longer description wins", Tags: []string{"lookup"}},
		})
		require.Len(t, out, 1)
		assert.Equal(t, "a longer description wins", out[0].Description)
		assert.Equal(t, []string{"lookup", "web"}, out[0].Tags)
	})

	t.Run("drops nameless entries", func(t *testing.T) {
		out := Normalize([]types.Capability{
			{Name: "   ", Tags: []string{"ghost"}},
			{Name: "real"},
		})
		require.Len(t, out, 1)
		assert.Equal(t, "real", out[0].Name)
	})

	t.Run("sorts by name", func(t *testing.T) {
		out := Normalize([]types.Capability{
			{Name: "zeta"}, {Name: "alpha"}, {Name: "mid"},
		})
		names := []string{out[0].Name, out[1].Name, out[2].Name}
		assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
	})

	t.Run("idempotent", func(t *testing.T) {
		in := []types.Capability{
			{Name: "Math", Description: "does sums", Tags: []string{"Arithmetic", "MATH"}},
			{Name: "math", Tags: []string{"calculation"}},
			{Name: "weather"},
		}
		once := Normalize(in)
		twice := Normalize(once)
		assert.Equal(t, once, twice)
	})

	t.Run("tags never nil", func(t *testing.T) {
		out := Normalize([]types.Capability{{Name: "bare"}})
		require.Len(t, out, 1)
		assert.NotNil(t, out[0].Tags)
		assert.Empty(t, out[0].Tags)
	})
}
