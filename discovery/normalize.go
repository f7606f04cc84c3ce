package discovery

import (
	"sort"
	"strings"

	"github.com/BaSui01/agentbridge/types"
)

// stopWords are dropped during tokenization so capability tags and query
// tokens carry signal, not filler.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"to": true, "of": true, "in": true, "for": true, "on": true,
	"with": true, "as": true, "at": true, "by": true, "from": true,
	"this": true, "that": true, "it": true, "its": true,
	"what": true, "how": true, "can": true, "you": true, "please": true,
}

// Tokenize lowercases text and splits it on non-alphanumeric runes,
// dropping stopwords and tokens shorter than three runes. Capability tags
// and query tokens share this function so they live in the same space.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_')
	})

	filtered := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) > 2 && !stopWords[w] {
			filtered = append(filtered, w)
		}
	}
	return filtered
}

// ExtractTags derives heuristic tags from a capability's name and
// description: tokenized, deduplicated, sorted.
func ExtractTags(name, description string) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, tok := range append(Tokenize(name), Tokenize(description)...) {
		if !seen[tok] {
			seen[tok] = true
			tags = append(tags, tok)
		}
	}
	sort.Strings(tags)
	return tags
}

// Normalize folds raw capability descriptors into canonical form: tags are
// lowercased, deduplicated and sorted; duplicate capability names merge
// (tag union, longest description wins); nameless entries drop. The result
// is sorted by name. Idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(caps []types.Capability) []types.Capability {
	merged := make(map[string]*types.Capability)
	var order []string

	for _, c := range caps {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" {
			continue
		}

		existing, ok := merged[name]
		if !ok {
			clone := c.Clone()
			clone.Name = name
			clone.Tags = normalizeTags(clone.Tags)
			merged[name] = clone
			order = append(order, name)
			continue
		}

		existing.Tags = normalizeTags(append(existing.Tags, c.Tags...))
		if len(c.Description) > len(existing.Description) {
			existing.Description = c.Description
		}
		if len(existing.InputSchema) == 0 {
			existing.InputSchema = c.InputSchema
		}
		if len(existing.OutputSchema) == 0 {
			existing.OutputSchema = c.OutputSchema
		}
		if len(existing.Examples) == 0 {
			existing.Examples = append([]string(nil), c.Examples...)
		}
	}

	sort.Strings(order)
	out := make([]types.Capability, 0, len(order))
	for _, name := range order {
		out = append(out, *merged[name])
	}
	return out
}

// normalizeTags lowercases, trims, dedupes and sorts. Never returns nil so
// normalized capabilities always carry a comparable tag slice.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
