package playgroup

import "log/slog"

// Settings holds the configured play groups by name.
type Settings struct {
	groups map[string]*Group
	order  []string
	logger *slog.Logger
}

// NewSettings creates an empty group registry.
func NewSettings() *Settings {
	return &Settings{
		groups: make(map[string]*Group),
		logger: slog.Default().With("component", "playgroup"),
	}
}

// Add registers g. A group with the same name is replaced and a warning
// logged.
func (s *Settings) Add(g *Group) {
	if g == nil || g.Name == "" {
		return
	}
	if _, exists := s.groups[g.Name]; exists {
		s.logger.Warn("duplicate play group replaced", "group", g.Name)
	} else {
		s.order = append(s.order, g.Name)
	}
	s.groups[g.Name] = g
}

// Remove deletes the group called name.
func (s *Settings) Remove(name string) {
	if _, ok := s.groups[name]; !ok {
		return
	}
	delete(s.groups, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Get returns the group called name, or nil.
func (s *Settings) Get(name string) *Group {
	if name == "" {
		return nil
	}
	return s.groups[name]
}

// Has reports whether a group called name exists.
func (s *Settings) Has(name string) bool {
	return s.Get(name) != nil
}

// Names returns group names in registration order.
func (s *Settings) Names() []string {
	return append([]string(nil), s.order...)
}

// Count returns the number of groups.
func (s *Settings) Count() int {
	return len(s.groups)
}

// ResetAllSequences rewinds every group's sequential cursor.
func (s *Settings) ResetAllSequences() {
	for _, g := range s.groups {
		g.ResetSequence()
	}
}
