package condition

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// OverLimitBehavior selects what ConcurrentLimit does once the limit is
// reached.
type OverLimitBehavior int

const (
	// DontPlay denies the request.
	DontPlay OverLimitBehavior = iota

	// StopOldest force-stops the playing instance of the clip with the
	// earliest start time, then allows.
	StopOldest

	// StopLowestPriority force-stops the least important playing instance
	// of the clip, then allows.
	StopLowestPriority
)

var overLimitNames = map[OverLimitBehavior]string{
	DontPlay:           "dont_play",
	StopOldest:         "stop_oldest",
	StopLowestPriority: "stop_lowest_priority",
}

func (b OverLimitBehavior) String() string {
	if s, ok := overLimitNames[b]; ok {
		return s
	}
	return fmt.Sprintf("over_limit(%d)", int(b))
}

// UnmarshalYAML accepts the snake_case names.
func (b *OverLimitBehavior) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range overLimitNames {
		if name == s {
			*b = k
			return nil
		}
	}
	return fmt.Errorf("unknown over-limit behavior %q", s)
}

// ConcurrentLimit caps the number of simultaneously playing instances of a
// clip.
//
// A Max of zero or less disables the limit. Priority follows the usual
// audio convention where 0 is the most important and 256 the least, so
// StopLowestPriority stops the instance with the largest priority value.
// Ties go to the instance that started first.
type ConcurrentLimit struct {
	Max       int               `yaml:"max"`
	OverLimit OverLimitBehavior `yaml:"over_limit"`
}

// NewConcurrentLimit returns a limit of one with DontPlay.
func NewConcurrentLimit() *ConcurrentLimit {
	return &ConcurrentLimit{Max: 1, OverLimit: DontPlay}
}

func (c *ConcurrentLimit) Name() string { return ConcurrentLimitID }

func (c *ConcurrentLimit) Description() string {
	return fmt.Sprintf("limit: %d, behavior: %s", c.Max, c.OverLimit)
}

// Evaluate implements Condition.
func (c *ConcurrentLimit) Evaluate(ctx *Context) bool {
	if c.Max <= 0 {
		return true
	}
	if ctx.CurrentPlayingCount < c.Max {
		return true
	}

	switch c.OverLimit {
	case DontPlay:
		return false
	case StopOldest:
		if victim := oldest(ctx); victim != nil {
			victim.StopImmediate()
		}
		return true
	case StopLowestPriority:
		if victim := leastImportant(ctx); victim != nil {
			victim.StopImmediate()
		}
		return true
	default:
		return false
	}
}

func (c *ConcurrentLimit) OnPlayStart(*Context) {}
func (c *ConcurrentLimit) OnPlayStop(*Context)  {}

func playing(ctx *Context) []Instance {
	if ctx.Host == nil {
		return nil
	}
	var out []Instance
	for _, inst := range ctx.Host.Instances(ctx.ClipName) {
		if inst == nil || !inst.IsPlaying() {
			continue
		}
		out = append(out, inst)
	}
	return out
}

func oldest(ctx *Context) Instance {
	var victim Instance
	for _, inst := range playing(ctx) {
		if victim == nil || inst.StartTime() < victim.StartTime() {
			victim = inst
		}
	}
	return victim
}

func leastImportant(ctx *Context) Instance {
	var victim Instance
	lowest := 0
	for _, inst := range playing(ctx) {
		importance := 256 - inst.Priority()
		if victim == nil || importance < lowest {
			victim = inst
			lowest = importance
		}
	}
	return victim
}
