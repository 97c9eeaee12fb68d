// Package engine is the playback orchestrator. It ties the catalog, the
// condition engine, play groups, the voice pool and playback instances
// together behind a single explicitly constructed Engine.
//
// # Lifecycle
//
//	eng, err := engine.New(dev, ld, engine.OptionsFromConfig(cfg))
//	if err != nil {
//		return err
//	}
//	defer eng.Close()
//
//	for _, bank := range banks {
//		eng.RegisterBank(bank)
//	}
//	go eng.Run(ctx, cfg.Engine.TickRate)
//
// # Threading
//
// An Engine is single threaded. Every method except Post, Do, Session and
// LastTick belongs to the goroutine that drives Tick or Run. Other
// goroutines queue work with Post, or with Do when they need an answer:
//
//	err := eng.Do(ctx, func(e *engine.Engine) error {
//		_, err := e.Play(ctx, "explosion")
//		return err
//	})
//
// Async loads complete through the same queue, so their playback starts on
// the tick goroutine.
//
// # Play pipeline
//
// A request is resolved by event name, then clip name, then play group
// name. Play group policy may substitute another member or block the
// request. The entry's conditions and its mixer group's concurrency cap
// gate it. The clip is loaded, a voice acquired, and the instance
// registered by clip and by id before it starts. A failed request returns
// a *PlayError wrapping ErrInvalidRequest, ErrNotFound, ErrBlocked,
// ErrLoadFailure, ErrDevice or ErrClosed and leaves nothing behind.
//
// # Catalog
//
// Banks are indexed in registration order. When two banks use the same
// clip or event name the later one wins, the collision is logged at warn
// level and counted in cadence_catalog_collisions_total.
//
// # Known gaps
//
// Requests carry a position for the voice, but the condition context's
// Position is never set, so the distance condition always allows.
package engine
