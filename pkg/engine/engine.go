package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"mercator-hq/cadence/pkg/catalog"
	"mercator-hq/cadence/pkg/condition"
	"mercator-hq/cadence/pkg/device"
	"mercator-hq/cadence/pkg/history"
	"mercator-hq/cadence/pkg/loader"
	"mercator-hq/cadence/pkg/playback"
	"mercator-hq/cadence/pkg/playgroup"
	"mercator-hq/cadence/pkg/pool"
	"mercator-hq/cadence/pkg/telemetry/logging"
	"mercator-hq/cadence/pkg/telemetry/metrics"
	"mercator-hq/cadence/pkg/telemetry/tracing"
)

// binding is an index entry: a catalog entry and the bank that owns it.
type binding struct {
	entry *catalog.Entry
	bank  *catalog.Bank
}

// active is the engine's record of a live instance.
type active struct {
	inst      *playback.Instance
	entry     *catalog.Entry
	bank      *catalog.Bank
	voice     device.Voice
	requested string
}

// Engine is the playback orchestrator.
//
// All state is owned by the goroutine that calls Tick (or Run). Methods
// other than Post, Do, Session and LastTick must be called from that
// goroutine. Other goroutines hand work over with Post or Do.
type Engine struct {
	session  string
	logger   *slog.Logger
	debugLog bool
	playLog  bool

	device   device.Device
	loader   loader.Loader
	pool     *pool.Pool
	resolver *playgroup.Resolver
	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	history  *history.Recorder

	defaults catalog.Parameters
	listener device.Vec3

	banks        map[string]*catalog.Bank
	bankOrder    []string
	clipIndex    map[string]binding
	eventIndex   map[string]binding
	groupMembers map[string][]string
	groups       map[string]*catalog.Group
	groupOrder   []string

	nextID   uint64
	now      time.Duration
	lastPlay map[string]time.Duration
	byClip   map[string][]*playback.Instance
	byID     map[uint64]*active
	byVoice  map[device.Voice]*active
	pending  int

	mailbox  *mailbox
	lastTick atomic.Int64
	closed   bool
}

// New creates an engine that plays through dev and loads clips with ld.
// WarmupChannels voices are created up front.
func New(dev device.Device, ld loader.Loader, opts Options) (*Engine, error) {
	if dev == nil {
		return nil, fmt.Errorf("engine: device is required")
	}
	if ld == nil {
		return nil, fmt.Errorf("engine: loader is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	defaults := catalog.DefaultParameters()
	if opts.DefaultParameters != nil {
		defaults = opts.DefaultParameters.Clamp()
	}

	e := &Engine{
		session:      uuid.NewString(),
		logger:       logging.WithContextFields(logger).With("component", "engine"),
		debugLog:     opts.DebugLog,
		playLog:      opts.PlayLog,
		device:       dev,
		loader:       ld,
		resolver:     playgroup.NewResolver(opts.PlayGroups, opts.DebugLog),
		metrics:      opts.Metrics,
		tracer:       opts.Tracer,
		history:      opts.History,
		defaults:     defaults,
		listener:     opts.Listener,
		banks:        make(map[string]*catalog.Bank),
		clipIndex:    make(map[string]binding),
		eventIndex:   make(map[string]binding),
		groupMembers: make(map[string][]string),
		groups:       make(map[string]*catalog.Group),
		lastPlay:     make(map[string]time.Duration),
		byClip:       make(map[string][]*playback.Instance),
		byID:         make(map[uint64]*active),
		byVoice:      make(map[device.Voice]*active),
		mailbox:      newMailbox(),
	}

	e.pool = pool.New(dev, pool.Options{
		Capacity:  opts.MaxChannels,
		OnRecycle: e.handleRecycle,
		Logger:    logger,
		Metrics:   opts.Metrics,
	})

	warmup := min(opts.WarmupChannels, e.pool.Stats().Capacity)
	if warmup > 0 {
		if err := e.pool.Prewarm(warmup); err != nil {
			return nil, fmt.Errorf("engine: prewarm voices: %w", err)
		}
	}

	e.logger.Info("engine started",
		"session", e.session,
		"max_channels", e.pool.Stats().Capacity,
		"warmup_channels", warmup,
	)
	return e, nil
}

// Session returns the id of this engine run. It is safe to call from any
// goroutine.
func (e *Engine) Session() string {
	return e.session
}

// Time returns the engine clock: the sum of all Tick durations.
func (e *Engine) Time() time.Duration {
	return e.now
}

// LastTick returns the wall time of the last completed Tick, or the zero
// time before the first one. It is safe to call from any goroutine.
func (e *Engine) LastTick() time.Time {
	ns := e.lastTick.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// PoolStats returns the voice pool statistics.
func (e *Engine) PoolStats() pool.Stats {
	return e.pool.Stats()
}

// PlayGroups returns the play group registry.
func (e *Engine) PlayGroups() *playgroup.Settings {
	return e.resolver.Settings()
}

// Tick advances the engine by dt. It runs posted work, advances the
// device, then updates every instance in start order so finished ones
// return their voices to the pool.
func (e *Engine) Tick(dt time.Duration) {
	if e.closed {
		return
	}
	e.drain()

	if dt < 0 {
		dt = 0
	}
	e.now += dt

	if adv, ok := e.device.(device.Advancer); ok {
		adv.Advance(dt)
	}
	for _, inst := range e.instances() {
		inst.Update(dt)
	}

	e.metrics.SetActiveInstances(len(e.byID))
	e.lastTick.Store(time.Now().UnixNano())
}

// Run ticks at rate Hz until ctx is done, measuring dt from the wall
// clock. Posted work is also run between ticks as soon as it arrives.
func (e *Engine) Run(ctx context.Context, rate int) error {
	if rate <= 0 {
		rate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.mailbox.wait():
			e.drain()
		case now := <-ticker.C:
			e.Tick(now.Sub(last))
			last = now
		}
	}
}

// Post queues fn to run on the tick goroutine. It is safe to call from any
// goroutine and returns false once the engine is closed.
func (e *Engine) Post(fn func(*Engine)) bool {
	return e.mailbox.post(func() { fn(e) })
}

// Do runs fn on the tick goroutine and waits for its result.
func (e *Engine) Do(ctx context.Context, fn func(*Engine) error) error {
	result := make(chan error, 1)
	if !e.Post(func(e *Engine) { result <- fn(e) }) {
		return ErrClosed
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) drain() {
	for _, fn := range e.mailbox.take() {
		fn()
	}
}

// Close stops every instance, returns all voices, unloads every clip and
// rejects further work. The device, loader and history recorder stay open.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	for _, fn := range e.mailbox.close() {
		fn()
	}

	stopped := len(e.byID)
	e.StopAllImmediate()
	e.pool.Clear()
	e.loader.UnloadAll()
	e.metrics.SetActiveInstances(0)

	e.logger.Info("engine closed",
		"session", e.session,
		"stopped_instances", stopped,
	)
	return nil
}

// instances returns the live instances ordered by id, which is start order.
func (e *Engine) instances() []*playback.Instance {
	out := make([]*playback.Instance, 0, len(e.byID))
	for _, a := range e.byID {
		out = append(out, a.inst)
	}
	slices.SortFunc(out, func(a, b *playback.Instance) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})
	return out
}

// handleRecycle drops the instance whose voice the pool took back.
func (e *Engine) handleRecycle(v device.Voice) {
	a, ok := e.byVoice[v]
	if !ok {
		return
	}
	if e.debugLog {
		e.logger.Debug("voice recycled from playing instance",
			"instance", a.inst.ID(),
			"clip", a.inst.ClipName(),
		)
	}
	a.inst.Recycle()
}

// conditionHost gives conditions a view of the live instances.
type conditionHost struct{ e *Engine }

func (h conditionHost) Instances(clip string) []condition.Instance {
	list := h.e.byClip[clip]
	out := make([]condition.Instance, 0, len(list))
	for _, inst := range list {
		out = append(out, inst)
	}
	return out
}

// groupHost lets the resolver find the playing member of an exclusive
// group. Paused members and members already fading out do not count.
type groupHost struct{ e *Engine }

func (h groupHost) FindPlaying(group string) playgroup.Conflict {
	for _, inst := range h.e.instances() {
		if inst.PlayGroup() == group && inst.IsPlaying() && inst.State() != playback.FadingOut {
			return inst
		}
	}
	return nil
}
