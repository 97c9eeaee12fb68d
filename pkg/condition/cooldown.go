package condition

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CooldownBehavior selects what happens to a request made during cooldown.
// Both behaviors deny today; Queue is reserved for deferred replay.
type CooldownBehavior int

const (
	Skip CooldownBehavior = iota
	Queue
)

func (b CooldownBehavior) String() string {
	switch b {
	case Skip:
		return "skip"
	case Queue:
		return "queue"
	default:
		return fmt.Sprintf("cooldown_behavior(%d)", int(b))
	}
}

// UnmarshalYAML accepts "skip" and "queue".
func (b *CooldownBehavior) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "skip", "":
		*b = Skip
	case "queue":
		*b = Queue
	default:
		return fmt.Errorf("unknown cooldown behavior %q", s)
	}
	return nil
}

// Cooldown denies a request made less than Duration after the last
// successful play of the same clip. A clip that has never played is always
// allowed.
type Cooldown struct {
	Duration time.Duration    `yaml:"duration"`
	Behavior CooldownBehavior `yaml:"behavior"`
}

// NewCooldown returns a 100ms Skip cooldown.
func NewCooldown() *Cooldown {
	return &Cooldown{Duration: 100 * time.Millisecond, Behavior: Skip}
}

func (c *Cooldown) Name() string { return CooldownID }

func (c *Cooldown) Description() string {
	return fmt.Sprintf("cooldown: %s, behavior: %s", c.Duration, c.Behavior)
}

// Evaluate implements Condition.
func (c *Cooldown) Evaluate(ctx *Context) bool {
	if c.Duration <= 0 || !ctx.HasLastPlay {
		return true
	}
	return ctx.Now-ctx.LastPlayTime >= c.Duration
}

func (c *Cooldown) OnPlayStart(*Context) {}
func (c *Cooldown) OnPlayStop(*Context)  {}
