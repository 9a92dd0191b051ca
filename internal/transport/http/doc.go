// Package http implements the HTTP handlers of serve mode. Handlers stay
// thin: they parse the request, delegate to the analysis service and render
// the result as JSON, or as an RFC 7807 problem on error.
//
// # Endpoints
//
//	POST /api/v1/analyses                      multipart upload, runs one analysis
//	GET  /api/v1/analyses/{runID}/files/{name} downloads a report file
//	GET  /api/health                           liveness and WebSocket client count
//	GET  /api/version                          build information
//
// The router itself, along with /metrics and /ws, is assembled in package app.
package http
