// Package server exposes a running engine over HTTP.
//
// Handlers never touch the engine directly. Each request hands a closure to
// Engine.Do, which runs it on the tick goroutine and returns its result, so
// the engine stays single threaded.
//
// # Endpoints
//
//   - POST /v1/play: play a clip, event or play group
//   - POST /v1/stop: stop an instance, a clip or everything
//   - GET /v1/instances: list live instances, optionally ?clip=
//   - GET /v1/banks: list registered banks
//   - /health, /ready, /version: probes, when a health checker is set
//   - /metrics: Prometheus metrics, when a collector is set
//
// # Errors
//
// Failures return an ErrorResponse whose code is the engine error code:
//
//	{"error": {"code": "not_found", "message": "play \"laser\": clip not found", "request_id": "..."}}
//
// not_found maps to 404, blocked to 409, invalid to 400 and closed to 503.
// A request that waits longer than the write timeout for the tick goroutine
// gets 504.
package server
