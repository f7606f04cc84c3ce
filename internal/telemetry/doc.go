// Package telemetry wraps OpenTelemetry SDK initialization for the bridge:
// OTLP gRPC exporters for traces and metrics behind one Init call. When
// telemetry is disabled the providers stay noop and nothing connects out.
package telemetry
