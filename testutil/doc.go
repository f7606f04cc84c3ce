// Package testutil provides the shared test doubles for the bridge: fake
// agent servers that speak just enough ACP, A2A, MCP, and the custom dialect
// to satisfy discovery probes and execution calls, and a scripted reasoner
// for driving routing decisions deterministically.
package testutil
