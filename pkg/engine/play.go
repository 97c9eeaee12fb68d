package engine

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/trace"

	"mercator-hq/cadence/pkg/catalog"
	"mercator-hq/cadence/pkg/condition"
	"mercator-hq/cadence/pkg/device"
	"mercator-hq/cadence/pkg/history"
	"mercator-hq/cadence/pkg/loader"
	"mercator-hq/cadence/pkg/playback"
	"mercator-hq/cadence/pkg/telemetry/logging"
	"mercator-hq/cadence/pkg/telemetry/tracing"
)

// errStale marks an async load whose entry was unregistered or replaced
// before the load finished.
var errStale = errors.New("entry changed while loading")

// Request describes a play request.
type Request struct {
	// Name is a clip name, an event name or a play group name.
	Name string

	// Position places the voice. Nil plays without an emitter.
	Position *device.Vec3

	// Follow makes the instance track a scene object.
	Follow playback.Follower

	// Parameters replace the entry's parameters when set.
	Parameters *catalog.Parameters

	// OnComplete runs on the tick goroutine when the instance is removed.
	OnComplete func(*playback.Instance)
}

// NewRequest returns a request for name without position.
func NewRequest(name string) Request {
	return Request{Name: name}
}

// RequestAt returns a request for name emitted at pos.
func RequestAt(name string, pos device.Vec3) Request {
	return Request{Name: name, Position: &pos}
}

// RequestFollow returns a request for name that tracks f.
func RequestFollow(name string, f playback.Follower) Request {
	return Request{Name: name, Follow: f}
}

// WithParameters returns a copy of r that plays with p.
func (r Request) WithParameters(p catalog.Parameters) Request {
	r.Parameters = &p
	return r
}

// WithOnComplete returns a copy of r with a completion callback.
func (r Request) WithOnComplete(fn func(*playback.Instance)) Request {
	r.OnComplete = fn
	return r
}

// spawn returns where the voice starts: the explicit position, else the
// follow target's current position.
func (r Request) spawn() *device.Vec3 {
	if r.Position != nil {
		pos := *r.Position
		return &pos
	}
	if r.Follow != nil {
		if pos, ok := r.Follow.Position(); ok {
			return &pos
		}
	}
	return nil
}

// resolved is a request after catalog lookup, play group resolution and
// gating.
type resolved struct {
	entry *catalog.Entry
	bank  *catalog.Bank
}

// Play plays name and returns the new instance. Loading is synchronous.
func (e *Engine) Play(ctx context.Context, name string) (*playback.Instance, error) {
	return e.PlayRequest(ctx, NewRequest(name))
}

// PlayAt plays name emitted at pos.
func (e *Engine) PlayAt(ctx context.Context, name string, pos device.Vec3) (*playback.Instance, error) {
	return e.PlayRequest(ctx, RequestAt(name, pos))
}

// PlayFollow plays name tracking f.
func (e *Engine) PlayFollow(ctx context.Context, name string, f playback.Follower) (*playback.Instance, error) {
	return e.PlayRequest(ctx, RequestFollow(name, f))
}

// PlayAsync is Play with an asynchronous load. done runs on the tick
// goroutine.
func (e *Engine) PlayAsync(name string, done func(*playback.Instance, error)) {
	e.PlayRequestAsync(NewRequest(name), done)
}

// PlayFollowAsync is PlayFollow with an asynchronous load.
func (e *Engine) PlayFollowAsync(name string, f playback.Follower, done func(*playback.Instance, error)) {
	e.PlayRequestAsync(RequestFollow(name, f), done)
}

// PlayRequest runs the play pipeline with a synchronous load.
//
// The request is resolved against the event index, then the clip index,
// then play group names. Play group policy may substitute another member
// or block. The entry's conditions and its mixer group's concurrency cap
// gate the request. The clip is loaded and a voice acquired before the
// instance is registered and started.
//
// On failure the returned error is a *PlayError and no instance, voice or
// index entry is left behind.
func (e *Engine) PlayRequest(ctx context.Context, req Request) (*playback.Instance, error) {
	started := time.Now()
	ctx, span := e.tracer.Start(ctx, "engine.play")
	defer span.End()

	res, err := e.resolve(req)
	if err != nil {
		return nil, e.fail(ctx, span, req, res, started, err)
	}

	clip, err := e.loader.LoadSync(ctx, res.entry.Key())
	if err != nil {
		return nil, e.fail(ctx, span, req, res, started, playErr(req.Name, ErrLoadFailure, err))
	}

	inst, err := e.start(req, res, clip)
	if err != nil {
		return nil, e.fail(ctx, span, req, res, started, err)
	}
	e.succeed(ctx, span, req, res, inst, started)
	return inst, nil
}

// PlayRequestAsync runs the play pipeline with an asynchronous load.
//
// Resolution and gating happen immediately. The load completion is queued
// for the tick goroutine, which checks that the entry is still registered
// before starting playback. A completion for an entry that was unregistered
// or replaced meanwhile is discarded and its clip unloaded. A completion
// that arrives after Close reports ErrClosed from the loader's goroutine.
func (e *Engine) PlayRequestAsync(req Request, done func(*playback.Instance, error)) {
	if done == nil {
		done = func(*playback.Instance, error) {}
	}

	started := time.Now()
	ctx, span := e.tracer.Start(context.Background(), "engine.play_async")

	res, err := e.resolve(req)
	if err != nil {
		err = e.fail(ctx, span, req, res, started, err)
		span.End()
		done(nil, err)
		return
	}

	e.pending++
	e.loader.LoadAsync(res.entry.Key(), func(clip loader.Clip, loadErr error) {
		posted := e.mailbox.post(func() {
			e.pending--
			defer span.End()
			inst, err := e.finishAsync(ctx, span, req, res, clip, loadErr, started)
			done(inst, err)
		})
		if !posted {
			// Closed engine: nothing will drain the mailbox again.
			span.End()
			done(nil, playErr(req.Name, ErrClosed, nil))
		}
	})
}

// PendingLoads returns the number of async loads not yet applied.
func (e *Engine) PendingLoads() int {
	return e.pending
}

func (e *Engine) finishAsync(ctx context.Context, span trace.Span, req Request, res resolved, clip loader.Clip, loadErr error, started time.Time) (*playback.Instance, error) {
	if e.closed {
		return nil, e.fail(ctx, span, req, res, started, playErr(req.Name, ErrClosed, nil))
	}
	if loadErr != nil {
		return nil, e.fail(ctx, span, req, res, started, playErr(req.Name, ErrLoadFailure, loadErr))
	}

	if cur, ok := e.clipIndex[res.entry.ClipName]; !ok || cur.entry != res.entry {
		key := res.entry.Key()
		if !e.keyIndexed(key) {
			e.loader.Unload(key)
		}
		e.metrics.RecordStaleLoad()
		e.logger.WarnContext(e.logContext(ctx, res.entry.ClipName, res.bank.Name()),
			"discarded async load for unregistered clip")
		return nil, e.fail(ctx, span, req, res, started, playErr(req.Name, ErrNotFound, errStale))
	}

	inst, err := e.start(req, res, clip)
	if err != nil {
		return nil, e.fail(ctx, span, req, res, started, err)
	}
	e.succeed(ctx, span, req, res, inst, started)
	return inst, nil
}

func (e *Engine) keyIndexed(key string) bool {
	for _, b := range e.clipIndex {
		if b.entry.Key() == key {
			return true
		}
	}
	return false
}

// resolve runs catalog lookup, play group resolution and gating.
func (e *Engine) resolve(req Request) (resolved, error) {
	if e.closed {
		return resolved{}, playErr(req.Name, ErrClosed, nil)
	}
	if req.Name == "" {
		return resolved{}, playErr(req.Name, ErrInvalidRequest, nil)
	}

	var group, requested string
	b, found := e.lookup(req.Name)
	switch {
	case found:
		// An event alias is never a member, so it lets the group choose.
		group, requested = b.entry.PlayGroup, req.Name
	case e.resolver.Settings().Has(req.Name) && len(e.groupMembers[req.Name]) > 0:
		// A play group name asks the group to choose.
		group = req.Name
	default:
		return resolved{}, playErr(req.Name, ErrNotFound, nil)
	}

	if group != "" {
		clip, ok := e.resolver.Resolve(group, e.groupMembers[group], requested, groupHost{e})
		if !ok {
			return resolved{}, playErr(req.Name, ErrBlocked, nil)
		}
		if !found || clip != b.entry.ClipName {
			b, found = e.clipIndex[clip]
			if !found {
				return resolved{}, playErr(req.Name, ErrNotFound, nil)
			}
		}
	}
	res := resolved{entry: b.entry, bank: b.bank}

	if !condition.Evaluate(b.entry.Operator, b.entry.Conditions, e.conditionContext(b)) {
		e.metrics.RecordConditionDenied(b.entry.ClipName)
		if e.debugLog {
			e.logger.Debug("conditions denied play", "clip", b.entry.ClipName, "requested", req.Name)
		}
		return res, playErr(req.Name, ErrBlocked, nil)
	}

	if g := e.groupOf(b.bank.Name()); g != nil && g.MaxConcurrent > 0 && e.groupPlaying(g) >= g.MaxConcurrent {
		if e.debugLog {
			e.logger.Debug("group concurrency cap reached", "clip", b.entry.ClipName, "group", g.Name)
		}
		return res, playErr(req.Name, ErrBlocked, nil)
	}
	return res, nil
}

func (e *Engine) conditionContext(b binding) *condition.Context {
	last, played := e.lastPlay[b.entry.ClipName]
	return &condition.Context{
		ClipName:            b.entry.ClipName,
		EventName:           b.entry.EventName,
		BankName:            b.bank.Name(),
		PlayGroup:           b.entry.PlayGroup,
		CurrentPlayingCount: e.playingCount(b.entry.ClipName),
		LastPlayTime:        last,
		HasLastPlay:         played,
		Now:                 e.now,
		Listener:            e.listener,
		Host:                conditionHost{e},
	}
}

// parameters returns the request override, else the entry's custom
// parameters, else the bank default, else the engine default.
func (e *Engine) parameters(req Request, res resolved) catalog.Parameters {
	switch {
	case req.Parameters != nil:
		return *req.Parameters
	case res.entry.CustomParameters != nil:
		return *res.entry.CustomParameters
	case res.bank.DefaultParameters() != nil:
		return *res.bank.DefaultParameters()
	default:
		return e.defaults
	}
}

// start acquires a voice, creates and registers the instance, notifies the
// conditions and starts playback.
func (e *Engine) start(req Request, res resolved, clip loader.Clip) (*playback.Instance, error) {
	voice, err := e.pool.Acquire(req.spawn())
	if err != nil {
		return nil, playErr(req.Name, ErrDevice, err)
	}

	e.nextID++
	gain, muted := e.gain(res.bank.Name())
	a := &active{entry: res.entry, bank: res.bank, requested: req.Name, voice: voice}
	a.inst = playback.New(playback.Options{
		ID:         e.nextID,
		ClipName:   res.entry.ClipName,
		BankName:   res.bank.Name(),
		PlayGroup:  res.entry.PlayGroup,
		Voice:      voice,
		Clip:       clip,
		Parameters: e.parameters(req, res),
		Gain:       gain,
		Muted:      muted,
		StartTime:  e.now,
		Follow:     req.Follow,
		OnComplete: func(*playback.Instance) { e.complete(a, req.OnComplete) },
	})

	clipName := res.entry.ClipName
	e.byID[a.inst.ID()] = a
	e.byClip[clipName] = append(e.byClip[clipName], a.inst)
	e.byVoice[voice] = a

	condition.NotifyStart(res.entry.Conditions, e.conditionContext(binding{entry: res.entry, bank: res.bank}))
	a.inst.Play()
	e.lastPlay[clipName] = e.now
	return a.inst, nil
}

// complete removes a finished instance from the indices and returns its
// voice. It runs once per instance from the completion callback.
func (e *Engine) complete(a *active, onComplete func(*playback.Instance)) {
	inst := a.inst
	if e.byID[inst.ID()] != a {
		return
	}

	delete(e.byID, inst.ID())
	clipName := inst.ClipName()
	list := e.byClip[clipName]
	for i, cur := range list {
		if cur == inst {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(e.byClip, clipName)
	} else {
		e.byClip[clipName] = list
	}
	delete(e.byVoice, a.voice)

	if v := inst.Detach(); v != nil {
		if err := e.pool.Release(v); err != nil {
			e.logger.Warn("voice release failed", "instance", inst.ID(), "error", err)
		}
	}

	condition.NotifyStop(a.entry.Conditions, e.conditionContext(binding{entry: a.entry, bank: a.bank}))

	reason := inst.StopReason()
	e.metrics.RecordInstanceStopped(string(reason))
	e.metrics.SetActiveInstances(len(e.byID))
	e.history.Record(history.Event{
		Session:   e.session,
		Kind:      history.KindStop,
		Clip:      clipName,
		Requested: a.requested,
		Bank:      a.bank.Name(),
		Instance:  inst.ID(),
		Outcome:   string(reason),
	})
	if e.debugLog {
		e.logger.Debug("instance removed", "instance", inst.ID(), "clip", clipName, "reason", reason)
	}

	if onComplete != nil {
		onComplete(inst)
	}
}

func (e *Engine) succeed(ctx context.Context, span trace.Span, req Request, res resolved, inst *playback.Instance, started time.Time) {
	latency := time.Since(started)

	tracing.SetPlayAttributes(span, req.Name, res.entry.ClipName, res.bank.Name())
	tracing.SetInstanceAttribute(span, inst.ID())
	tracing.SetResultAttribute(span, ErrorCode(nil))
	tracing.SetStatus(span, nil)

	e.metrics.RecordPlay(res.entry.ClipName, ErrorCode(nil), latency)
	e.metrics.SetActiveInstances(len(e.byID))
	e.history.Record(history.Event{
		Session:   e.session,
		Kind:      history.KindStart,
		Clip:      res.entry.ClipName,
		Requested: req.Name,
		Bank:      res.bank.Name(),
		Instance:  inst.ID(),
	})

	if e.playLog {
		ctx = logging.WithInstance(e.logContext(ctx, res.entry.ClipName, res.bank.Name()), inst.ID())
		e.logger.InfoContext(ctx, "play", "requested", req.Name, "latency", latency)
	}
}

// logContext carries the session and the resolved clip and bank into the
// log records written for a request.
func (e *Engine) logContext(ctx context.Context, clip, bank string) context.Context {
	ctx = logging.WithSession(ctx, e.session)
	if clip != "" {
		ctx = logging.WithClip(ctx, clip)
	}
	if bank != "" {
		ctx = logging.WithBank(ctx, bank)
	}
	return ctx
}

// fail records a failed request and returns err.
func (e *Engine) fail(ctx context.Context, span trace.Span, req Request, res resolved, started time.Time, err error) error {
	code := ErrorCode(err)

	clip, bank := req.Name, ""
	if res.entry != nil {
		clip, bank = res.entry.ClipName, res.bank.Name()
	}

	tracing.SetPlayAttributes(span, req.Name, clip, bank)
	tracing.SetResultAttribute(span, code)
	if !errors.Is(err, ErrBlocked) {
		tracing.SetStatus(span, err)
	}

	e.metrics.RecordPlay(clip, code, time.Since(started))
	e.history.Record(history.Event{
		Session:   e.session,
		Kind:      history.KindDenied,
		Clip:      clip,
		Requested: req.Name,
		Bank:      bank,
		Outcome:   code,
	})

	switch {
	case errors.Is(err, ErrBlocked):
		if e.debugLog {
			e.logger.DebugContext(e.logContext(ctx, clip, bank), "play blocked", "requested", req.Name)
		}
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidRequest):
		e.logger.WarnContext(logging.WithSession(ctx, e.session),
			"play request not resolved", "requested", req.Name, "error", err)
	default:
		e.logger.ErrorContext(e.logContext(ctx, clip, bank), "play failed", "requested", req.Name, "error", err)
	}
	return err
}
