package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/api"
	"github.com/BaSui01/agentbridge/registry"
	"github.com/BaSui01/agentbridge/types"
)

// AgentsHandler serves read access to the agent registry.
type AgentsHandler struct {
	registry *registry.Registry
	logger   *zap.Logger
}

// NewAgentsHandler creates the registry read handler.
func NewAgentsHandler(reg *registry.Registry, logger *zap.Logger) *AgentsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentsHandler{registry: reg, logger: logger}
}

// HandleList serves GET /v1/agents. Optional query parameters narrow the
// listing: ?protocol= filters by wire protocol, ?tag= by capability tag.
func (h *AgentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, h.logger) {
		return
	}

	var agents []*types.Agent
	switch {
	case r.URL.Query().Get("protocol") != "":
		raw := r.URL.Query().Get("protocol")
		proto, err := types.ParseProtocol(raw)
		if err != nil {
			WriteErrorMessage(w, r, http.StatusBadRequest, types.ErrInvalidRequest,
				fmt.Sprintf("unknown protocol %q", raw), h.logger)
			return
		}
		agents = h.registry.ListByProtocol(proto)
	case r.URL.Query().Get("tag") != "":
		agents = h.registry.ListByCapabilityTag(r.URL.Query().Get("tag"))
	default:
		agents = h.registry.List()
	}

	WriteSuccess(w, r, api.ListAgentsResponse{Agents: agents, Total: len(agents)})
}

// HandleGet serves GET /v1/agents/{id}.
func (h *AgentsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, h.logger) {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/agents/")
	if id == "" || strings.Contains(id, "/") {
		WriteErrorMessage(w, r, http.StatusNotFound, types.ErrAgentNotFound,
			"agent not found", h.logger)
		return
	}
	agent, ok := h.registry.Get(id)
	if !ok {
		WriteErrorMessage(w, r, http.StatusNotFound, types.ErrAgentNotFound,
			fmt.Sprintf("agent %q not found", id), h.logger)
		return
	}
	WriteSuccess(w, r, agent)
}

// HandleCapabilities serves GET /v1/capabilities: every capability tag in
// the registry with the agents that carry it.
func (h *AgentsHandler) HandleCapabilities(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, h.logger) {
		return
	}

	tags := h.registry.CapabilityTags()
	groups := make([]api.CapabilityGroup, 0, len(tags))
	for _, tag := range tags {
		carriers := h.registry.ListByCapabilityTag(tag)
		ids := make([]string, 0, len(carriers))
		for _, a := range carriers {
			ids = append(ids, a.AgentID)
		}
		groups = append(groups, api.CapabilityGroup{Tag: tag, Agents: ids})
	}
	WriteSuccess(w, r, api.CapabilitiesResponse{Capabilities: groups, Total: len(groups)})
}
