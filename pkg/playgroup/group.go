package playgroup

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode selects how a group picks the member that plays.
type Mode int

const (
	// Random picks a member uniformly.
	Random Mode = iota

	// Sequential cycles through members in order.
	Sequential

	// Exclusive allows only one member of the group to play at a time.
	Exclusive
)

func (m Mode) String() string {
	switch m {
	case Random:
		return "random"
	case Sequential:
		return "sequential"
	case Exclusive:
		return "exclusive"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses the configuration spelling. Empty means Random.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "random":
		return Random, nil
	case "sequential":
		return Sequential, nil
	case "exclusive":
		return Exclusive, nil
	default:
		return Random, fmt.Errorf("unknown play group mode %q", s)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Mode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ExclusiveBehavior selects what an exclusive group does when one of its
// members is already playing.
type ExclusiveBehavior int

const (
	// DontPlay blocks the new request.
	DontPlay ExclusiveBehavior = iota

	// StopOld stops the playing member immediately.
	StopOld

	// FadeOutOld fades the playing member out using its fade-out time.
	FadeOutOld
)

func (b ExclusiveBehavior) String() string {
	switch b {
	case DontPlay:
		return "dont_play"
	case StopOld:
		return "stop_old"
	case FadeOutOld:
		return "fade_out_old"
	default:
		return fmt.Sprintf("exclusive_behavior(%d)", int(b))
	}
}

// ParseExclusiveBehavior parses the configuration spelling. Empty means
// DontPlay.
func ParseExclusiveBehavior(s string) (ExclusiveBehavior, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dont_play", "block":
		return DontPlay, nil
	case "stop_old":
		return StopOld, nil
	case "fade_out_old":
		return FadeOutOld, nil
	default:
		return DontPlay, fmt.Errorf("unknown exclusive behavior %q", s)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *ExclusiveBehavior) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseExclusiveBehavior(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Group is a play group: a named selection policy over the catalog entries
// that reference it.
//
// The sequence cursor is mutated by Select and is not safe for concurrent
// use; the engine calls it from its tick goroutine only.
type Group struct {
	Name      string
	Mode      Mode
	Exclusive ExclusiveBehavior

	cursor int
	rng    *rand.Rand
}

// NewGroup creates a group.
func NewGroup(name string, mode Mode, behavior ExclusiveBehavior) *Group {
	return &Group{Name: name, Mode: mode, Exclusive: behavior}
}

// WithSeed makes Random selection reproducible.
func (g *Group) WithSeed(seed uint64) *Group {
	g.rng = rand.New(rand.NewPCG(seed, seed))
	return g
}

// Select picks the member to play. requested is the clip the caller asked
// for and may be empty.
//
// Zero members selects nothing and a single member is returned without
// consulting the mode.
func (g *Group) Select(members []string, requested string) (string, bool) {
	switch len(members) {
	case 0:
		return "", false
	case 1:
		return members[0], true
	}

	switch g.Mode {
	case Random:
		return members[g.intN(len(members))], true

	case Sequential:
		if requested != "" {
			if i := slices.Index(members, requested); i >= 0 {
				g.cursor = i + 1
				return requested, true
			}
		}
		clip := members[g.cursor%len(members)]
		g.cursor++
		return clip, true

	case Exclusive:
		if requested != "" && slices.Contains(members, requested) {
			return requested, true
		}
		return members[0], true

	default:
		return members[0], true
	}
}

// ResetSequence rewinds the sequential cursor.
func (g *Group) ResetSequence() {
	g.cursor = 0
}

// Cursor returns the sequential cursor.
func (g *Group) Cursor() int {
	return g.cursor
}

func (g *Group) intN(n int) int {
	if g.rng != nil {
		return g.rng.IntN(n)
	}
	return rand.IntN(n)
}
