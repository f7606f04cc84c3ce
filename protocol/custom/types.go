// Package custom implements the bridge's in-house HTTP agent protocol:
// GET /info describes the agent and POST /chat runs a query.
package custom

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors returned by the client. Callers classify them into the
// bridge error taxonomy.
var (
	// ErrUnavailable indicates the endpoint could not be reached or
	// answered with a non-success status.
	ErrUnavailable = errors.New("custom: endpoint unavailable")
	// ErrMalformed indicates the endpoint answered with an undecodable or
	// incomplete payload.
	ErrMalformed = errors.New("custom: malformed response")
)

// CapabilityInfo is one advertised capability in the info payload.
type CapabilityInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// InfoResponse is the GET /info payload.
type InfoResponse struct {
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Version      string           `json:"version,omitempty"`
	Capabilities []CapabilityInfo `json:"capabilities,omitempty"`
}

// Validate checks the fields the bridge depends on.
func (i *InfoResponse) Validate() error {
	if i.Name == "" {
		return fmt.Errorf("%w: info missing name", ErrMalformed)
	}
	return nil
}

// ChatRequest is the POST /chat payload.
type ChatRequest struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// ExtractResponse pulls the reply text out of any chat envelope the
// protocol allows: {"response": ...}, {"result": {"response": ...}}, or a
// bare JSON string. The second return reports whether a shape matched.
func ExtractResponse(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var nested struct {
		Response string `json:"response"`
		Result   *struct {
			Response string `json:"response"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		if nested.Result != nil && nested.Result.Response != "" {
			return nested.Result.Response, true
		}
		if nested.Response != "" {
			return nested.Response, true
		}
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain, true
	}
	return "", false
}
