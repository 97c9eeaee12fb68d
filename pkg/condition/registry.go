package condition

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Built-in condition ids.
const (
	ConcurrentLimitID = "concurrent_limit"
	CooldownID        = "cooldown"
	ProbabilityID     = "probability"
	DistanceID        = "distance"
)

// ErrUnknownCondition is returned by Create for an id nobody registered.
var ErrUnknownCondition = errors.New("unknown condition")

// Factory returns a new condition with default settings. The registry
// decodes configuration parameters into the returned value.
type Factory func() Condition

type registration struct {
	factory     Factory
	displayName string
}

// Registry maps condition ids to factories.
//
// Registration is allowed at any time so extensions can add their own
// condition types next to the built-ins. Registry is safe for concurrent
// use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registration)}
}

// NewBuiltinRegistry returns a registry holding the built-in conditions.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	registerBuiltins(r)
	return r
}

func registerBuiltins(r *Registry) {
	r.Register(ConcurrentLimitID, "Concurrent limit", func() Condition { return NewConcurrentLimit() })
	r.Register(CooldownID, "Cooldown", func() Condition { return NewCooldown() })
	r.Register(ProbabilityID, "Probability", func() Condition { return NewProbability() })
	r.Register(DistanceID, "Distance", func() Condition { return NewDistance() })
}

// Register adds or replaces the factory for id.
func (r *Registry) Register(id, displayName string, f Factory) error {
	if id == "" {
		return errors.New("condition id cannot be empty")
	}
	if f == nil {
		return fmt.Errorf("condition %q: nil factory", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = registration{factory: f, displayName: displayName}
	return nil
}

// Unregister removes id. Unknown ids are ignored.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// IsRegistered reports whether id has a factory.
func (r *Registry) IsRegistered(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[id]
	return ok
}

// DisplayName returns the display name registered for id, or id itself.
func (r *Registry) DisplayName(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[id]; ok && e.displayName != "" {
		return e.displayName
	}
	return id
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Create builds a condition for id and decodes params into it. A nil or
// empty params node keeps the factory defaults.
func (r *Registry) Create(id string, params *yaml.Node) (Condition, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCondition, id)
	}

	c := e.factory()
	if c == nil {
		return nil, fmt.Errorf("condition %q: factory returned nil", id)
	}
	if params != nil && !params.IsZero() {
		if err := params.Decode(c); err != nil {
			return nil, fmt.Errorf("condition %q: decode params: %w", id, err)
		}
	}
	return c, nil
}

var defaultRegistry = NewBuiltinRegistry()

// Default returns the process-wide registry. Built-in conditions are
// registered at package initialisation.
func Default() *Registry {
	return defaultRegistry
}
