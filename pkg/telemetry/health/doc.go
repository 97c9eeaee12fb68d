// Package health provides liveness and readiness endpoints for the Cadence
// HTTP control surface.
//
// Components register named checks. cadence run registers an "engine"
// check built with TickCheck, so a stalled tick loop turns /ready into a
// 503, and a "history" check that pings the history backend.
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("engine", health.TickCheck(eng.LastTick, time.Second))
//	health.Register(mux, checker, version, commit)
package health
