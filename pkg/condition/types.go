package condition

import (
	"fmt"
	"strings"
	"time"

	"mercator-hq/cadence/pkg/device"
)

// Condition gates a play request.
//
// Evaluate decides whether the request may proceed. OnPlayStart and
// OnPlayStop are lifecycle notifications: the engine calls them on every
// condition of an entry, in order, once per successful play and once per
// instance removal, regardless of which condition gated the decision.
//
// Conditions may keep state between calls (a seeded generator, counters).
// They are only ever called from the engine's tick goroutine.
type Condition interface {
	// Name is the registry id the condition was created from.
	Name() string

	// Description is a short human readable summary of the configuration.
	Description() string

	Evaluate(ctx *Context) bool
	OnPlayStart(ctx *Context)
	OnPlayStop(ctx *Context)
}

// Instance is the view of an active playback instance that conditions may
// inspect and stop.
type Instance interface {
	ID() uint64
	ClipName() string
	StartTime() time.Duration
	Priority() int
	IsPlaying() bool
	StopImmediate()
}

// Host is the back-reference to the engine a condition receives.
type Host interface {
	// Instances returns the active instances of a clip in start order.
	Instances(clip string) []Instance
}

// Context carries everything a condition needs to reach a decision. It is
// built for one evaluation pass and discarded afterwards.
type Context struct {
	ClipName  string
	EventName string
	BankName  string
	PlayGroup string

	// CurrentPlayingCount is the number of playing instances of ClipName.
	CurrentPlayingCount int

	// LastPlayTime is the engine time of the last successful play of
	// ClipName. HasLastPlay is false when the clip has never played.
	LastPlayTime time.Duration
	HasLastPlay  bool

	// Now is the current engine time.
	Now time.Duration

	// Listener is the primary listener position.
	Listener device.Vec3

	// Position is the emission position of the request. The engine does not
	// populate it, so position-based conditions see nil and allow.
	Position *device.Vec3

	Host Host
}

// Operator combines the results of a condition list.
type Operator int

const (
	// And requires every condition to allow. Evaluation stops at the first
	// denial.
	And Operator = iota

	// Or requires one condition to allow. Evaluation stops at the first
	// allowance.
	Or
)

// String returns the configuration spelling of the operator.
func (o Operator) String() string {
	switch o {
	case And:
		return "and"
	case Or:
		return "or"
	default:
		return fmt.Sprintf("operator(%d)", int(o))
	}
}

// ParseOperator parses "and" or "or", case-insensitively. An empty string
// is And.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "and":
		return And, nil
	case "or":
		return Or, nil
	default:
		return And, fmt.Errorf("unknown condition operator %q", s)
	}
}
