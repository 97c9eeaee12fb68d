// Package playgroup chooses which member of a play group actually plays.
//
// # Modes
//
//   - Random: uniform pick among members
//   - Sequential: cycles through members; an explicit request for a member
//     plays it and moves the cursor just past it
//   - Exclusive: at most one member plays at a time. A new request either
//     is blocked, stops the playing member, or fades it out
//
// Groups with no members never select and groups with a single member
// always select it.
package playgroup
