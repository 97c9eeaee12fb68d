package condition

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"mercator-hq/cadence/pkg/device"
)

// ReferenceType selects the point Distance measures from.
type ReferenceType int

const (
	// ReferenceListener measures from the engine's listener position.
	ReferenceListener ReferenceType = iota

	// ReferencePoint measures from Distance.Point.
	ReferencePoint
)

func (r ReferenceType) String() string {
	if r == ReferencePoint {
		return "point"
	}
	return "listener"
}

// UnmarshalYAML accepts "listener" and "point".
func (r *ReferenceType) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "listener", "":
		*r = ReferenceListener
	case "point":
		*r = ReferencePoint
	default:
		return fmt.Errorf("unknown distance reference %q", s)
	}
	return nil
}

// Distance denies a request whose emission position is farther than
// MaxDistance from the reference. Anything within MinDistance is allowed.
//
// A request without an emission position is always allowed. The engine
// does not attach one, which makes this condition a pass-through until
// callers populate Context.Position themselves.
type Distance struct {
	Reference   ReferenceType `yaml:"reference"`
	Point       device.Vec3   `yaml:"point"`
	MinDistance float64       `yaml:"min_distance"`
	MaxDistance float64       `yaml:"max_distance"`
}

// NewDistance returns a listener-relative distance of 0 to 50 units.
func NewDistance() *Distance {
	return &Distance{Reference: ReferenceListener, MaxDistance: 50}
}

func (d *Distance) Name() string { return DistanceID }

func (d *Distance) Description() string {
	return fmt.Sprintf("distance: %g-%g, reference: %s", d.MinDistance, d.MaxDistance, d.Reference)
}

// Evaluate implements Condition.
func (d *Distance) Evaluate(ctx *Context) bool {
	if ctx.Position == nil {
		return true
	}

	ref := ctx.Listener
	if d.Reference == ReferencePoint {
		ref = d.Point
	}

	dist := ctx.Position.Distance(ref)
	if dist <= d.MinDistance {
		return true
	}
	return dist <= d.MaxDistance
}

func (d *Distance) OnPlayStart(*Context) {}
func (d *Distance) OnPlayStop(*Context)  {}
