package engine

import (
	"log/slog"

	"mercator-hq/cadence/pkg/catalog"
	"mercator-hq/cadence/pkg/config"
	"mercator-hq/cadence/pkg/device"
	"mercator-hq/cadence/pkg/history"
	"mercator-hq/cadence/pkg/playgroup"
	"mercator-hq/cadence/pkg/telemetry/metrics"
	"mercator-hq/cadence/pkg/telemetry/tracing"
)

// Options configures an Engine. Zero values select defaults.
type Options struct {
	// MaxChannels is the voice pool capacity.
	// Default: 32
	MaxChannels int

	// WarmupChannels voices are created when the engine starts.
	WarmupChannels int

	// DefaultParameters apply to entries with neither custom nor bank
	// parameters. Nil means catalog.DefaultParameters().
	DefaultParameters *catalog.Parameters

	// Listener is the primary listener position handed to conditions.
	Listener device.Vec3

	// DebugLog enables verbose logging of the request pipeline.
	DebugLog bool

	// PlayLog logs every successful play at info level.
	PlayLog bool

	// PlayGroups is the play group registry. Nil means an empty one.
	PlayGroups *playgroup.Settings

	Logger  *slog.Logger
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer

	// History receives start, stop and denial events. Nil disables
	// history.
	History *history.Recorder
}

// OptionsFromConfig builds Options from the engine section of cfg and its
// play groups. Telemetry and history are attached by the caller.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxChannels:       cfg.Engine.MaxChannels,
		WarmupChannels:    cfg.Engine.WarmupChannels,
		DefaultParameters: cfg.Engine.DefaultParameters,
		Listener:          cfg.Engine.Listener,
		DebugLog:          cfg.Engine.DebugLog,
		PlayLog:           cfg.Engine.PlayLog,
		PlayGroups:        config.BuildPlayGroups(cfg.PlayGroups),
	}
}
