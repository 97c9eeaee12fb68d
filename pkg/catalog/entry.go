package catalog

import (
	"mercator-hq/cadence/pkg/condition"
)

// Entry is one playable clip in a bank.
type Entry struct {
	// ClipName identifies the entry. It is unique across registered banks;
	// later registrations win on collision.
	ClipName string

	// AssetPath is the opaque key handed to the loader.
	AssetPath string

	// EventName optionally aliases the clip. Event lookups take precedence
	// over clip lookups.
	EventName string

	// PlayGroup optionally names the play group the entry belongs to.
	PlayGroup string

	// CustomParameters overrides the bank defaults when set.
	CustomParameters *Parameters

	Operator   condition.Operator
	Conditions []condition.Condition
}

// EffectiveParameters resolves the parameters to play the entry with: the
// entry override, else the bank default, else the global default.
func (e *Entry) EffectiveParameters(bankDefault *Parameters) Parameters {
	switch {
	case e.CustomParameters != nil:
		return *e.CustomParameters
	case bankDefault != nil:
		return *bankDefault
	default:
		return DefaultParameters()
	}
}

// HasEvent reports whether the entry has an event alias.
func (e *Entry) HasEvent() bool {
	return e.EventName != ""
}

// Key returns the asset path, falling back to the clip name.
func (e *Entry) Key() string {
	if e.AssetPath != "" {
		return e.AssetPath
	}
	return e.ClipName
}
