package catalog

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// CacheType controls when a bank's clips are loaded and unloaded.
type CacheType int

const (
	// OnDemand loads a clip the first time it plays.
	OnDemand CacheType = iota

	// Preload loads every clip synchronously when the bank registers.
	Preload

	// Persistent preloads like Preload and keeps the clips loaded when
	// unused audio is released.
	Persistent
)

func (c CacheType) String() string {
	switch c {
	case OnDemand:
		return "on_demand"
	case Preload:
		return "preload"
	case Persistent:
		return "persistent"
	default:
		return fmt.Sprintf("cache_type(%d)", int(c))
	}
}

// ParseCacheType parses the configuration spelling. Empty means OnDemand.
func ParseCacheType(s string) (CacheType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "on_demand":
		return OnDemand, nil
	case "preload":
		return Preload, nil
	case "persistent":
		return Persistent, nil
	default:
		return OnDemand, fmt.Errorf("unknown cache type %q", s)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *CacheType) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseCacheType(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (c CacheType) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// Source is the read-only view of a catalog the engine consumes.
type Source interface {
	// Name identifies the source among registered banks.
	Name() string

	// Entries returns the entries in declaration order.
	Entries() []*Entry

	Contains(clipName string) bool
	Count() int

	// DefaultParameters returns the bank-wide parameters, or nil to use the
	// global defaults.
	DefaultParameters() *Parameters

	CacheType() CacheType
}

// Bank is the in-memory Source built from configuration.
type Bank struct {
	name     string
	cache    CacheType
	defaults *Parameters
	entries  []*Entry
	byClip   map[string]*Entry
}

// NewBank creates an empty bank.
func NewBank(name string, cache CacheType, defaults *Parameters) *Bank {
	return &Bank{
		name:     name,
		cache:    cache,
		defaults: defaults,
		byClip:   make(map[string]*Entry),
	}
}

// Add appends an entry. An entry with the same clip name replaces the
// previous one in place.
func (b *Bank) Add(e *Entry) {
	if prev, ok := b.byClip[e.ClipName]; ok {
		for i, cur := range b.entries {
			if cur == prev {
				b.entries[i] = e
				break
			}
		}
	} else {
		b.entries = append(b.entries, e)
	}
	b.byClip[e.ClipName] = e
}

// Remove deletes the entry for clipName and reports whether it existed.
func (b *Bank) Remove(clipName string) bool {
	prev, ok := b.byClip[clipName]
	if !ok {
		return false
	}
	delete(b.byClip, clipName)
	for i, cur := range b.entries {
		if cur == prev {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			break
		}
	}
	return true
}

// Entry returns the entry for clipName.
func (b *Bank) Entry(clipName string) (*Entry, bool) {
	e, ok := b.byClip[clipName]
	return e, ok
}

func (b *Bank) Name() string                   { return b.name }
func (b *Bank) CacheType() CacheType           { return b.cache }
func (b *Bank) DefaultParameters() *Parameters { return b.defaults }
func (b *Bank) Count() int                     { return len(b.entries) }

func (b *Bank) Entries() []*Entry {
	return append([]*Entry(nil), b.entries...)
}

func (b *Bank) Contains(clipName string) bool {
	_, ok := b.byClip[clipName]
	return ok
}
