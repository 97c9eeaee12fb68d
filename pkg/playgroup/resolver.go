package playgroup

import "log/slog"

// Conflict is a playing instance that belongs to an exclusive group.
type Conflict interface {
	ClipName() string
	StopImmediate()

	// Stop stops the instance, fading out over its fade-out time when fade
	// is true.
	Stop(fade bool)
}

// Host lets the resolver find playing members of a group.
type Host interface {
	// FindPlaying returns the first playing instance whose entry belongs to
	// group, or nil.
	FindPlaying(group string) Conflict
}

// Resolver applies play group policy to a request.
type Resolver struct {
	settings *Settings
	logger   *slog.Logger
	debug    bool
}

// NewResolver creates a resolver over settings. debug enables verbose
// logging of substitutions and exclusive conflicts.
func NewResolver(settings *Settings, debug bool) *Resolver {
	if settings == nil {
		settings = NewSettings()
	}
	return &Resolver{
		settings: settings,
		logger:   slog.Default().With("component", "playgroup"),
		debug:    debug,
	}
}

// Settings returns the group registry.
func (r *Resolver) Settings() *Settings {
	return r.settings
}

// Resolve returns the clip that should play for a request of requested, a
// member of groupName whose members are listed in members.
//
// A request outside any configured group, or one whose group has no
// members indexed, resolves to itself. The second result is false when an
// exclusive group blocks the request.
func (r *Resolver) Resolve(groupName string, members []string, requested string, host Host) (string, bool) {
	if groupName == "" {
		return requested, true
	}
	g := r.settings.Get(groupName)
	if g == nil || len(members) == 0 {
		return requested, true
	}

	if g.Mode == Exclusive && host != nil {
		if playing := host.FindPlaying(groupName); playing != nil {
			switch g.Exclusive {
			case DontPlay:
				if r.debug {
					r.logger.Debug("exclusive group blocked request",
						"group", groupName, "clip", requested, "playing", playing.ClipName())
				}
				return "", false
			case StopOld:
				if r.debug {
					r.logger.Debug("exclusive group stopping playing member",
						"group", groupName, "clip", requested, "playing", playing.ClipName())
				}
				playing.StopImmediate()
			case FadeOutOld:
				if r.debug {
					r.logger.Debug("exclusive group fading playing member",
						"group", groupName, "clip", requested, "playing", playing.ClipName())
				}
				playing.Stop(true)
			}
		}
	}

	clip, ok := g.Select(members, requested)
	if ok && r.debug && clip != requested {
		r.logger.Debug("play group substituted clip", "group", groupName, "requested", requested, "selected", clip)
	}
	return clip, ok
}
