package device

import (
	"math"
	"time"
)

// Vec3 is a point in world space.
type Vec3 struct {
	X, Y, Z float64
}

// Distance returns the Euclidean distance between v and o.
func (v Vec3) Distance(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Clip is an opaque handle to decoded audio data.
//
// The engine only needs a duration and a sample rate for its time and
// position math. Everything else about the data belongs to the loader and
// device that produced it.
type Clip interface {
	Duration() time.Duration
	SampleRate() int
}

// Spatial holds the positional parameters a voice carries. They are passed
// through to the device untouched.
type Spatial struct {
	Blend       float64
	MinDistance float64
	MaxDistance float64
	Doppler     float64
	Spread      float64
}

// DefaultSpatial returns the spatial parameters a freshly reset voice has.
func DefaultSpatial() Spatial {
	return Spatial{
		Blend:       0,
		MinDistance: 1,
		MaxDistance: 500,
		Doppler:     1,
		Spread:      0,
	}
}

// Voice is a single reusable playback channel.
//
// A voice plays one clip at a time. It is owned by a pool while idle and
// lent to exactly one playback instance while active.
type Voice interface {
	// ID is unique within the device that created the voice.
	ID() uint64

	SetClip(c Clip)
	Clip() Clip

	Play()
	Stop()
	Pause()
	Resume()

	// IsPlaying reports whether the voice is producing sound. A paused
	// voice is not playing.
	IsPlaying() bool

	// Position is the elapsed playback time within the current clip.
	Position() time.Duration

	Volume() float64
	SetVolume(v float64)
	Pitch() float64
	SetPitch(p float64)
	Loop() bool
	SetLoop(loop bool)
	Priority() int
	SetPriority(p int)
	SetIgnorePause(ignore bool)
	Spatial() Spatial
	SetSpatial(s Spatial)

	// SetEmitter attaches the voice to a world position. A nil emitter
	// detaches it.
	SetEmitter(pos *Vec3)
	Emitter() *Vec3

	// Close releases the voice. A closed voice must not be reused.
	Close() error
}

// Device creates voices.
type Device interface {
	NewVoice() (Voice, error)
	Close() error
}

// Advancer is implemented by devices whose playback clock is driven by the
// caller instead of real time. The engine calls Advance once per tick.
type Advancer interface {
	Advance(dt time.Duration)
}
