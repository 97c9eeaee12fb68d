package playback

import (
	"math"
	"time"

	"mercator-hq/cadence/pkg/catalog"
	"mercator-hq/cadence/pkg/device"
)

// Vec3 is a world position.
type Vec3 = device.Vec3

// Infinite is the remaining time reported for looping instances.
const Infinite = time.Duration(math.MaxInt64)

// Options carries the identity and wiring of a new instance.
type Options struct {
	ID        uint64
	ClipName  string
	BankName  string
	PlayGroup string

	Voice      device.Voice
	Clip       device.Clip
	Parameters catalog.Parameters

	// Gain multiplies the parameter volume, typically a mixer group volume.
	// Zero or less is treated as 1 unless Muted is set.
	Gain  float64
	Muted bool

	// StartTime is the engine time the instance starts at.
	StartTime time.Duration

	Follow Follower

	// OnComplete runs exactly once when the instance stops for any reason.
	OnComplete func(*Instance)
}

type fade struct {
	active   bool
	elapsed  time.Duration
	duration time.Duration
	from     float64
	to       float64
	stop     bool
}

// Instance is one in-flight sound bound to one voice.
//
// An instance is driven from a single goroutine. Its parameters are a
// private copy taken at creation, so later catalog edits do not reach it.
type Instance struct {
	id        uint64
	clipName  string
	bankName  string
	playGroup string

	voice  device.Voice
	clip   device.Clip
	params catalog.Parameters
	gain   float64

	follow     Follower
	onComplete func(*Instance)

	state     State
	paused    bool
	fadingIn  bool
	fade      fade
	startTime time.Duration
	done      bool
	reason    StopReason
}

// New creates an instance in the Starting state. Nothing plays until Play.
func New(opts Options) *Instance {
	gain := opts.Gain
	if gain <= 0 {
		gain = 1
	}
	if opts.Muted {
		gain = 0
	}
	return &Instance{
		id:         opts.ID,
		clipName:   opts.ClipName,
		bankName:   opts.BankName,
		playGroup:  opts.PlayGroup,
		voice:      opts.Voice,
		clip:       opts.Clip,
		params:     opts.Parameters.Clamp(),
		gain:       gain,
		follow:     opts.Follow,
		onComplete: opts.OnComplete,
		startTime:  opts.StartTime,
	}
}

func (i *Instance) ID() uint64                     { return i.id }
func (i *Instance) ClipName() string               { return i.clipName }
func (i *Instance) BankName() string               { return i.bankName }
func (i *Instance) PlayGroup() string              { return i.playGroup }
func (i *Instance) Clip() device.Clip              { return i.clip }
func (i *Instance) Parameters() catalog.Parameters { return i.params }
func (i *Instance) StartTime() time.Duration       { return i.startTime }
func (i *Instance) State() State                   { return i.state }
func (i *Instance) IsPaused() bool                 { return i.paused }
func (i *Instance) IsFadingIn() bool               { return i.fadingIn }
func (i *Instance) IsFadingOut() bool              { return i.state == FadingOut }
func (i *Instance) Priority() int                  { return i.params.Priority }
func (i *Instance) Loop() bool                     { return i.params.Loop }

// Voice returns the voice the instance borrows, or nil once detached.
func (i *Instance) Voice() device.Voice { return i.voice }

// Done reports whether the instance has completed.
func (i *Instance) Done() bool { return i.done }

// IsPlaying reports whether the voice is producing sound.
func (i *Instance) IsPlaying() bool {
	return !i.done && i.voice != nil && i.voice.IsPlaying()
}

// SetFollow replaces the follow target. Nil stops following.
func (i *Instance) SetFollow(f Follower) {
	i.follow = f
}

// SetOnComplete replaces the completion callback.
func (i *Instance) SetOnComplete(fn func(*Instance)) {
	i.onComplete = fn
}

// targetVolume is the volume the voice settles at outside of fades.
func (i *Instance) targetVolume() float64 {
	return clamp01(i.params.Volume * i.gain)
}

// Play binds the clip, applies the parameters and starts the voice. With a
// fade-in time the voice starts silent and ramps to its volume.
func (i *Instance) Play() {
	if i.done || i.voice == nil || i.clip == nil || i.state != Starting {
		return
	}

	v := i.voice
	v.SetClip(i.clip)
	v.SetVolume(i.targetVolume())
	v.SetPitch(i.params.Pitch)
	v.SetLoop(i.params.Loop)
	v.SetPriority(i.params.Priority)
	v.SetIgnorePause(i.params.IgnorePause)
	v.SetSpatial(i.params.Spatial())
	i.syncFollow()

	if i.params.FadeIn > 0 {
		v.SetVolume(0)
		i.startFade(0, i.targetVolume(), i.params.FadeIn, false)
	}

	v.Play()
	i.state = Playing
	i.paused = false
}

// Stop stops the instance, fading out over the fade-out time when fadeOut
// is set and the time is positive.
func (i *Instance) Stop(fadeOut bool) {
	if fadeOut {
		i.StopFade(i.params.FadeOut)
		return
	}
	i.StopImmediate()
}

// StopFade fades the instance out over d and then stops it. A
// non-positive d stops immediately. An instance already fading out keeps
// its current fade.
func (i *Instance) StopFade(d time.Duration) {
	if i.done || i.voice == nil {
		return
	}
	if i.state == FadingOut {
		return
	}
	if d <= 0 {
		i.StopImmediate()
		return
	}
	i.startFade(i.voice.Volume(), 0, d, true)
}

// StopImmediate halts the voice and runs the completion callback. Calls
// after the first are no-ops.
func (i *Instance) StopImmediate() {
	i.finish(ReasonStopped)
}

// Recycle detaches the voice and completes the instance with
// ReasonRecycled. The voice is returned untouched since the pool has
// already reset it for its next owner.
func (i *Instance) Recycle() device.Voice {
	v := i.Detach()
	i.finish(ReasonRecycled)
	return v
}

// StopReason returns why the instance finished, or "" while it is live.
func (i *Instance) StopReason() StopReason { return i.reason }

func (i *Instance) finish(reason StopReason) {
	if i.done {
		return
	}
	i.done = true
	i.reason = reason

	if i.voice != nil {
		i.voice.Stop()
		i.voice.SetClip(nil)
	}
	i.fade = fade{}
	i.fadingIn = false
	i.paused = false
	i.state = Stopped

	if i.onComplete != nil {
		i.onComplete(i)
	}
}

// Detach drops the voice without touching it and returns it. The engine
// detaches an instance whose voice the pool recycled.
func (i *Instance) Detach() device.Voice {
	v := i.voice
	i.voice = nil
	return v
}

// Pause pauses a playing instance.
func (i *Instance) Pause() {
	if i.done || i.voice == nil || !i.voice.IsPlaying() {
		return
	}
	i.voice.Pause()
	i.paused = true
}

// Resume resumes a paused instance.
func (i *Instance) Resume() {
	if i.done || i.voice == nil || !i.paused {
		return
	}
	i.voice.Resume()
	i.paused = false
}

// SetVolume changes the parameter volume. While a fade runs the voice keeps
// the fade volume and picks the new value up when the fade ends.
func (i *Instance) SetVolume(v float64) {
	i.params.Volume = clamp01(v)
	if i.done || i.voice == nil || i.fade.active {
		return
	}
	i.voice.SetVolume(i.targetVolume())
}

// SetGain changes the group multiplier applied to the volume.
func (i *Instance) SetGain(gain float64, muted bool) {
	if gain < 0 {
		gain = 0
	}
	if muted {
		gain = 0
	}
	i.gain = gain
	if i.done || i.voice == nil || i.fade.active {
		return
	}
	i.voice.SetVolume(i.targetVolume())
}

// SetPitch changes the pitch, clamped to the valid range.
func (i *Instance) SetPitch(p float64) {
	i.params.Pitch = min(max(p, catalog.MinPitch), catalog.MaxPitch)
	if i.done || i.voice == nil {
		return
	}
	i.voice.SetPitch(i.params.Pitch)
}

// Volume returns the current voice volume.
func (i *Instance) Volume() float64 {
	if i.voice == nil {
		return 0
	}
	return i.voice.Volume()
}

// Elapsed returns the playback position within the clip.
func (i *Instance) Elapsed() time.Duration {
	if i.voice == nil {
		return 0
	}
	return i.voice.Position()
}

// Duration returns the clip length.
func (i *Instance) Duration() time.Duration {
	if i.clip == nil {
		return 0
	}
	return i.clip.Duration()
}

// Progress returns the position as a fraction of the clip length.
func (i *Instance) Progress() float64 {
	length := i.Duration()
	if length <= 0 {
		return 0
	}
	return clamp01(float64(i.Elapsed()) / float64(length))
}

// RemainingTime returns the wall time left at the current pitch, or
// Infinite for looping instances.
func (i *Instance) RemainingTime() time.Duration {
	if i.clip == nil {
		return 0
	}
	if i.params.Loop {
		return Infinite
	}
	left := i.Duration() - i.Elapsed()
	if left <= 0 {
		return 0
	}
	return time.Duration(float64(left) / i.params.Pitch)
}

// Update advances the instance by dt: it follows its target, steps the
// fade, and detects natural completion.
func (i *Instance) Update(dt time.Duration) {
	if i.done || i.voice == nil {
		return
	}

	i.syncFollow()
	i.stepFade(dt)
	if i.done {
		return
	}

	if !i.params.Loop && !i.paused && i.state != FadingOut && !i.voice.IsPlaying() {
		i.finish(ReasonCompleted)
	}
}

func (i *Instance) syncFollow() {
	if i.follow == nil || i.voice == nil {
		return
	}
	pos, ok := i.follow.Position()
	if !ok {
		i.follow = nil
		return
	}
	i.voice.SetEmitter(&pos)
}

func (i *Instance) startFade(from, to float64, d time.Duration, stop bool) {
	i.fade = fade{
		active:   true,
		duration: d,
		from:     from,
		to:       to,
		stop:     stop,
	}
	i.fadingIn = to > from
	if stop {
		i.state = FadingOut
	}
}

func (i *Instance) stepFade(dt time.Duration) {
	if !i.fade.active {
		return
	}

	i.fade.elapsed += dt
	t := 1.0
	if i.fade.duration > 0 {
		t = clamp01(float64(i.fade.elapsed) / float64(i.fade.duration))
	}
	i.voice.SetVolume(clamp01(lerp(i.fade.from, i.fade.to, t)))

	if t < 1 {
		return
	}

	stop := i.fade.stop
	i.fade = fade{}
	i.fadingIn = false
	if stop {
		i.finish(ReasonFaded)
		return
	}
	i.voice.SetVolume(i.targetVolume())
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
