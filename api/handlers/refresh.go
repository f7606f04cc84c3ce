package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/api"
	"github.com/BaSui01/agentbridge/registry"
	"github.com/BaSui01/agentbridge/types"
)

// Refresher triggers an immediate discovery sweep.
type Refresher interface {
	RefreshNow(ctx context.Context) error
}

// RefreshHandler serves on-demand discovery refreshes.
type RefreshHandler struct {
	refresher Refresher
	registry  *registry.Registry
	logger    *zap.Logger
}

// NewRefreshHandler creates the refresh handler.
func NewRefreshHandler(refresher Refresher, reg *registry.Registry, logger *zap.Logger) *RefreshHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshHandler{refresher: refresher, registry: reg, logger: logger}
}

// HandleRefresh serves POST /v1/refresh: probe every configured seed now
// instead of waiting for the next scheduled cycle.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost, h.logger) {
		return
	}
	if h.refresher == nil {
		WriteErrorMessage(w, r, http.StatusServiceUnavailable, types.ErrRoutingBackendUnavailable,
			"discovery is not configured", h.logger)
		return
	}

	start := time.Now()
	if err := h.refresher.RefreshNow(r.Context()); err != nil {
		// runCycle only errors when the seed source itself fails;
		// per-seed probe failures land in the registry as health records.
		WriteError(w, r, types.NewDiscoveryError(types.ErrDiscoveryUnreachable, err.Error()).WithCause(err), h.logger)
		return
	}
	WriteSuccess(w, r, api.RefreshResponse{
		Agents:   h.registry.Len(),
		Revision: h.registry.Revision(),
		Elapsed:  time.Since(start),
	})
}
