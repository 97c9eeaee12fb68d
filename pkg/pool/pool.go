package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"mercator-hq/cadence/pkg/device"
	"mercator-hq/cadence/pkg/telemetry/metrics"
)

var (
	// ErrInvalidChannelState is returned by Release for a voice that is not
	// lent out by the pool. The voice is closed instead of pooled.
	ErrInvalidChannelState = errors.New("pool: voice is not lent")

	// ErrPoolExhausted describes a soft capacity breach. Acquire never
	// returns it; it is attached to the warning logged on over-allocation.
	ErrPoolExhausted = errors.New("pool: capacity exhausted")
)

// DefaultPriority is the priority a reset voice carries.
const DefaultPriority = 128

// Options configures a Pool.
type Options struct {
	// Capacity is the soft limit on voices. Zero or less means 32.
	Capacity int

	// OnRecycle is called with a lent voice the pool takes back by force,
	// before the voice is reset and handed to a new borrower.
	OnRecycle func(device.Voice)

	Logger  *slog.Logger
	Metrics *metrics.Collector
}

// Stats is a snapshot of the pool.
type Stats struct {
	Idle      int
	Lent      int
	Capacity  int
	Recycles  int
	Overflows int
}

// Pool owns the voices of a device.
//
// Every voice is either idle or lent, never both. Pool is not safe for
// concurrent use; the engine drives it from the tick goroutine.
type Pool struct {
	device    device.Device
	capacity  int
	idle      []device.Voice
	lent      []device.Voice
	onRecycle func(device.Voice)
	logger    *slog.Logger
	metrics   *metrics.Collector

	recycles  int
	overflows int
}

// New creates an empty pool over dev.
func New(dev device.Device, opts Options) *Pool {
	if opts.Capacity <= 0 {
		opts.Capacity = 32
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		device:    dev,
		capacity:  opts.Capacity,
		onRecycle: opts.OnRecycle,
		logger:    logger.With("component", "pool"),
		metrics:   opts.Metrics,
	}
}

// SetOnRecycle replaces the recycle hook.
func (p *Pool) SetOnRecycle(fn func(device.Voice)) {
	p.onRecycle = fn
}

// Total returns the number of voices owned by the pool.
func (p *Pool) Total() int {
	return len(p.idle) + len(p.lent)
}

// Acquire lends a voice, optionally placed at spawn.
//
// An idle voice is reused first. Below capacity a new voice is created.
// At capacity the non-looping lent voice with the smallest playback
// position is recycled; looping voices are never taken. When nothing can be
// recycled a voice is created beyond capacity. The only error is a device
// failure.
func (p *Pool) Acquire(spawn *device.Vec3) (device.Voice, error) {
	var v device.Voice

	switch {
	case len(p.idle) > 0:
		v = p.idle[0]
		p.idle = p.idle[1:]

	case p.Total() < p.capacity:
		created, err := p.device.NewVoice()
		if err != nil {
			return nil, fmt.Errorf("create voice: %w", err)
		}
		v = created

	default:
		v = p.recycle()
		if v == nil {
			created, err := p.device.NewVoice()
			if err != nil {
				return nil, fmt.Errorf("create voice: %w", err)
			}
			v = created
			p.overflows++
			p.metrics.RecordPoolOverflow()
			p.logger.Warn("voice pool over capacity",
				"error", ErrPoolExhausted,
				"capacity", p.capacity,
				"total", p.Total()+1,
			)
		}
	}

	reset(v)
	v.SetEmitter(spawn)
	p.lent = append(p.lent, v)
	p.report()
	return v, nil
}

// recycle takes back the least advanced non-looping lent voice.
func (p *Pool) recycle() device.Voice {
	idx := -1
	for i, v := range p.lent {
		if v.Loop() {
			continue
		}
		if idx < 0 || v.Position() < p.lent[idx].Position() {
			idx = i
		}
	}
	if idx < 0 {
		return nil
	}

	v := p.lent[idx]
	p.lent = slices.Delete(p.lent, idx, idx+1)
	v.Stop()
	v.SetClip(nil)

	p.recycles++
	p.metrics.RecordPoolRecycle()
	p.logger.Debug("recycled voice", "voice", v.ID())

	if p.onRecycle != nil {
		p.onRecycle(v)
	}
	return v
}

// Release returns a lent voice to the idle queue.
//
// A voice the pool did not lend is closed and ErrInvalidChannelState
// returned.
func (p *Pool) Release(v device.Voice) error {
	if v == nil {
		return nil
	}

	idx := slices.Index(p.lent, v)
	if idx < 0 {
		p.metrics.RecordInvalidRelease()
		p.logger.Warn("released voice that was not lent", "voice", v.ID())
		_ = v.Close()
		return ErrInvalidChannelState
	}

	p.lent = slices.Delete(p.lent, idx, idx+1)
	v.Stop()
	reset(v)
	v.SetEmitter(nil)
	p.idle = append(p.idle, v)
	p.report()
	return nil
}

// IsLent reports whether v is currently lent.
func (p *Pool) IsLent(v device.Voice) bool {
	return slices.Contains(p.lent, v)
}

// Prewarm creates up to n idle voices without exceeding capacity.
func (p *Pool) Prewarm(n int) error {
	n = min(n, p.capacity-p.Total())
	for i := 0; i < n; i++ {
		v, err := p.device.NewVoice()
		if err != nil {
			return fmt.Errorf("prewarm voice %d: %w", i, err)
		}
		reset(v)
		p.idle = append(p.idle, v)
	}
	p.report()
	return nil
}

// Clear stops and closes every voice, idle or lent.
func (p *Pool) Clear() {
	for _, v := range p.lent {
		v.Stop()
		_ = v.Close()
	}
	for _, v := range p.idle {
		_ = v.Close()
	}
	p.lent = nil
	p.idle = nil
	p.report()
}

// Stats returns a snapshot of the pool.
func (p *Pool) Stats() Stats {
	return Stats{
		Idle:      len(p.idle),
		Lent:      len(p.lent),
		Capacity:  p.capacity,
		Recycles:  p.recycles,
		Overflows: p.overflows,
	}
}

func (p *Pool) report() {
	p.metrics.UpdatePoolVoices(len(p.idle), len(p.lent))
}

// reset restores the transient parameters of a voice to engine defaults.
func reset(v device.Voice) {
	v.SetClip(nil)
	v.SetVolume(1)
	v.SetPitch(1)
	v.SetLoop(false)
	v.SetPriority(DefaultPriority)
	v.SetIgnorePause(false)
	v.SetSpatial(device.DefaultSpatial())
}
