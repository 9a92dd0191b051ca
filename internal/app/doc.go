// Package app assembles serve mode: the analysis service, the WebSocket event
// hub and the chi router with its middleware chain, behind an http.Server
// with graceful shutdown.
//
// # Routes
//
//	/ws                   run lifecycle events (analysis:started, :waiting, :completed, :failed)
//	/metrics              Prometheus exposition of the process registry
//	/api/health           liveness
//	/api/version          build information
//	/api/v1/analyses      upload a recording and run one analysis
//
// Middleware order for /api is RequestID, RealIP, OTel, StructuredLogger,
// Recoverer, SecurityHeaders, the optional rate limiter, then Timeout.
// The WebSocket route only runs RequestID and RealIP.
package app
