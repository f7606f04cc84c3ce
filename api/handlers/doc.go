/*
Package handlers implements the HTTP request handlers of the AgentBridge API.

Each handler covers one area of the surface:

  - RouteHandler: POST /v1/route and POST /v1/process
  - AgentsHandler: GET /v1/agents, /v1/agents/{id}, /v1/capabilities
  - RefreshHandler: POST /v1/refresh
  - HealthHandler: GET /health, /ready, /version

All handlers write the shared Response envelope (success + data + error +
timestamp + request_id) through WriteSuccess and WriteError, and map the
bridge error taxonomy onto HTTP status codes: invalid requests answer 400,
unknown agents 404, routing with no candidate 422, upstream agent failures
502, and timeouts 504.

Handlers are plain net/http funcs so they compose with any mux; the server
in cmd/agentbridge wires them onto a http.ServeMux behind the middleware
chain.
*/
package handlers
