// Package api defines the request and response payloads of the AgentBridge
// HTTP API.
//
// # API Overview
//
// AgentBridge exposes a small RESTful surface:
//   - POST /v1/route: select an agent for a query
//   - POST /v1/process: select an agent and execute the query against it
//   - GET  /v1/agents: list registered agents (?protocol=, ?tag= filters)
//   - GET  /v1/agents/{id}: one agent record
//   - GET  /v1/capabilities: capability tag index
//   - POST /v1/refresh: force a discovery cycle
//   - GET  /health: liveness and component counts
//   - GET  /metrics: Prometheus metrics (separate listener when configured)
//
// # Base URL
//
// The default base URL for the API is:
//
//	http://localhost:8080
//
// All responses share one envelope: {success, data, error, timestamp,
// request_id}. Error payloads carry the bridge error code taxonomy
// (DISCOVERY_*, ROUTING_*, EXECUTION_*, AGENT_NOT_FOUND, ...).
package api
