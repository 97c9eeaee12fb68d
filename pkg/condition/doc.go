// Package condition implements the pluggable gating rules evaluated before a
// clip is allowed to play.
//
// # Conditions
//
// A Condition answers one question about a play request through Evaluate and
// receives OnPlayStart/OnPlayStop notifications for every instance it let
// through. Built-in conditions:
//
//   - ConcurrentLimit: caps simultaneous instances of a clip, optionally
//     stopping the oldest or least important one to make room
//   - Cooldown: enforces a minimum time between plays of a clip
//   - Probability: lets a percentage of requests through, with an optional
//     reproducible seed
//   - Distance: denies requests emitted too far from a reference point
//
// # Combining
//
// Evaluate combines a list with And or Or, short-circuiting in both cases.
// An empty list allows.
//
// # Registry
//
// Conditions are created by id through a Registry, which also decodes the
// YAML parameters of a bank definition into the new condition:
//
//	c, err := condition.Default().Create("cooldown", node)
//
// Custom conditions register a Factory under a new id at any time.
package condition
