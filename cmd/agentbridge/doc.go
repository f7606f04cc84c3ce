/*
Package main is the AgentBridge server binary.

Subcommands: serve (start the bridge), probe (discover one endpoint and
print the normalized agent record), version, and health.

serve loads YAML configuration with AGENTBRIDGE_* environment overrides,
then assembles the bridge: agent registry, discovery refresher, routing
engine with the configured reasoner, execution gateway, and the HTTP API
behind the middleware chain (recovery, request IDs, security headers,
tracing, logging, metrics, CORS, per-IP rate limiting). Prometheus metrics
are served on a separate port. Shutdown is graceful on SIGINT/SIGTERM.

Version, BuildTime, and GitCommit are injected at build time via ldflags.
*/
package main
