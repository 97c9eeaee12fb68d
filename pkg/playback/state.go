package playback

import "fmt"

// State is the lifecycle state of an instance. Pause is tracked separately
// as an overlay on Playing and FadingOut.
type State int

const (
	Starting State = iota
	Playing
	FadingOut
	Stopped
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Playing:
		return "playing"
	case FadingOut:
		return "fading_out"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Follower is a scene object an instance tracks. The instance holds no
// ownership: once ok is false the target is considered gone and is dropped.
type Follower interface {
	Position() (pos Vec3, ok bool)
}

// FollowFunc adapts a function to Follower.
type FollowFunc func() (Vec3, bool)

// Position implements Follower.
func (f FollowFunc) Position() (Vec3, bool) { return f() }

// StopReason records why an instance was removed.
type StopReason string

const (
	// ReasonCompleted is a non-looping clip that reached its end.
	ReasonCompleted StopReason = "completed"

	// ReasonStopped is an explicit immediate stop.
	ReasonStopped StopReason = "stopped"

	// ReasonFaded is a stop that finished its fade-out.
	ReasonFaded StopReason = "faded"

	// ReasonRecycled is an instance whose voice was taken by the pool.
	ReasonRecycled StopReason = "recycled"
)
