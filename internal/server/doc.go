/*
Package server manages the lifecycle of the bridge HTTP server: non-blocking
start, graceful shutdown, and signal handling.

Manager wraps net/http.Server with a bound listener and an asynchronous
error channel. Start binds the port and serves in the background;
WaitForShutdown blocks until SIGINT/SIGTERM or a server error, then drains
in-flight requests within the configured shutdown timeout.
*/
package server
