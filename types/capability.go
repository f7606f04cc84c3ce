package types

import "encoding/json"

// Capability is a normalized capability descriptor. Discovery adapters map
// protocol-native skill, tool, and manifest entries into this shape; the
// normalizer guarantees tags are lowercase, deduplicated, and sorted.
type Capability struct {
	// Name identifies the capability within its agent.
	Name string `json:"name"`

	// Description summarizes what the capability does.
	Description string `json:"description,omitempty"`

	// Tags index the capability for keyword matching. Always lowercase,
	// deduplicated, and sorted after normalization; never nil.
	Tags []string `json:"tags"`

	// InputSchema is the declared input JSON schema, when the protocol
	// provides one (MCP tools do).
	InputSchema json.RawMessage `json:"input_schema,omitempty"`

	// OutputSchema is the declared output JSON schema, when available.
	OutputSchema json.RawMessage `json:"output_schema,omitempty"`

	// Examples are sample invocations declared by the agent.
	Examples []string `json:"examples,omitempty"`
}

// Clone returns a deep copy of the capability.
func (c *Capability) Clone() *Capability {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Tags != nil {
		cp.Tags = append([]string(nil), c.Tags...)
	}
	if c.InputSchema != nil {
		cp.InputSchema = append(json.RawMessage(nil), c.InputSchema...)
	}
	if c.OutputSchema != nil {
		cp.OutputSchema = append(json.RawMessage(nil), c.OutputSchema...)
	}
	if c.Examples != nil {
		cp.Examples = append([]string(nil), c.Examples...)
	}
	return &cp
}
