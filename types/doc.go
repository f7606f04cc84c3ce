/*
Package types defines the shared data model of the bridge.

types is the lowest-level package with no internal dependencies. The
canonical types that cross package boundaries live here so that the
discovery, registry, routing, and gateway layers agree on one contract:

  - Protocol / HealthState: string enums for agent protocol and health
  - Agent: canonical agent record held by the registry
  - Capability: normalized capability with lowercase, deduped tags
  - RoutingDecision: outcome of a routing pass, confidence clamped to [0,1]
  - ExecutionResult: outcome of a gateway call, raw payload retained
  - Error / ErrorCode: structured errors with the discovery / routing /
    execution taxonomy, HTTP status, and a Retryable marker
*/
package types
