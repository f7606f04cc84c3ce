package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/api"
	"github.com/BaSui01/agentbridge/gateway"
	"github.com/BaSui01/agentbridge/routing"
	"github.com/BaSui01/agentbridge/types"
)

// RouteHandler serves routing and end-to-end processing.
type RouteHandler struct {
	engine  *routing.Engine
	gateway *gateway.Gateway
	logger  *zap.Logger
}

// NewRouteHandler creates the routing handler.
func NewRouteHandler(engine *routing.Engine, gw *gateway.Gateway, logger *zap.Logger) *RouteHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RouteHandler{engine: engine, gateway: gw, logger: logger}
}

// HandleRoute serves POST /v1/route: select an agent without executing.
func (h *RouteHandler) HandleRoute(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost, h.logger) {
		return
	}
	req, ok := h.decodeRouteRequest(w, r)
	if !ok {
		return
	}

	decision, err := h.engine.Route(r.Context(), *req)
	if err != nil {
		h.writeRouteError(w, r, err)
		return
	}
	WriteSuccess(w, r, decision)
}

// HandleProcess serves POST /v1/process: route the query, then execute it
// against the selected agent. Execution failures are data, not HTTP errors:
// the result carries its own classified error.
func (h *RouteHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost, h.logger) {
		return
	}
	req, ok := h.decodeRouteRequest(w, r)
	if !ok {
		return
	}

	decision, err := h.engine.Route(r.Context(), *req)
	if err != nil {
		h.writeRouteError(w, r, err)
		return
	}

	resp := api.ProcessResponse{Decision: decision}
	if decision.SelectedAgent != nil {
		resp.Result = h.gateway.Execute(r.Context(), decision.SelectedAgent, req.Query, req.Context)
	}
	WriteSuccess(w, r, resp)
}

// decodeRouteRequest decodes and validates the shared route/process payload.
// Errors are written to w; the bool reports success.
func (h *RouteHandler) decodeRouteRequest(w http.ResponseWriter, r *http.Request) (*routing.Request, bool) {
	var body api.RouteRequest
	if err := DecodeJSONBody(w, r, &body, h.logger); err != nil {
		return nil, false
	}
	if body.Query == "" && body.Agent == "" {
		WriteErrorMessage(w, r, http.StatusBadRequest, types.ErrInvalidRequest,
			"query must not be empty", h.logger)
		return nil, false
	}

	req := routing.Request{
		Query:   body.Query,
		Agent:   body.Agent,
		Context: body.Context,
	}
	if body.Protocol != "" {
		proto, err := types.ParseProtocol(body.Protocol)
		if err != nil {
			WriteErrorMessage(w, r, http.StatusBadRequest, types.ErrInvalidRequest,
				fmt.Sprintf("unknown protocol %q", body.Protocol), h.logger)
			return nil, false
		}
		req.Protocol = &proto
	}
	return &req, true
}

func (h *RouteHandler) writeRouteError(w http.ResponseWriter, r *http.Request, err error) {
	var typed *types.Error
	if errors.As(err, &typed) {
		WriteError(w, r, typed, h.logger)
		return
	}
	WriteError(w, r, types.NewError(types.ErrInternalError, err.Error()).WithCause(err), h.logger)
}
