package config

import (
	"time"

	"gopkg.in/yaml.v3"

	"mercator-hq/cadence/pkg/catalog"
	"mercator-hq/cadence/pkg/device"
	"mercator-hq/cadence/pkg/playgroup"
)

// Config is the root configuration structure for Cadence.
// It contains the engine settings, the asset loader and output device, the
// banks and play groups to register, and the ambient services around the
// engine (history, telemetry, HTTP server, file watching).
type Config struct {
	// Engine contains playback engine settings including channel pool size,
	// load behavior and default clip parameters.
	Engine EngineConfig `yaml:"engine"`

	// Loader contains asset loader configuration.
	Loader LoaderConfig `yaml:"loader"`

	// Device selects and configures the audio output backend.
	Device DeviceConfig `yaml:"device"`

	// Banks lists the catalog banks registered at startup.
	Banks []BankConfig `yaml:"banks"`

	// Groups lists mixer groups that scale, mute or cap banks.
	Groups []GroupConfig `yaml:"groups"`

	// PlayGroups lists play groups referenced by clip entries.
	PlayGroups []PlayGroupConfig `yaml:"play_groups"`

	// History contains play history recording configuration.
	History HistoryConfig `yaml:"history"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Server contains the HTTP control surface configuration.
	Server ServerConfig `yaml:"server"`

	// Watch controls hot reloading of the configuration file.
	Watch WatchConfig `yaml:"watch"`
}

// EngineConfig contains playback engine configuration.
type EngineConfig struct {
	// MaxChannels is the soft capacity of the channel pool. When every
	// channel is busy the pool recycles the least advanced non-looping
	// voice, and over-allocates only when none can be recycled.
	// Default: 32
	MaxChannels int `yaml:"max_channels"`

	// WarmupChannels is the number of voices created at startup.
	// Default: 8
	WarmupChannels int `yaml:"warmup_channels"`

	// DebugLog enables verbose engine logging.
	// Default: false
	DebugLog bool `yaml:"debug_log"`

	// PlayLog logs one line per successful play.
	// Default: false
	PlayLog bool `yaml:"play_log"`

	// DefaultParameters are used for entries whose bank has no defaults.
	// Unset fields keep catalog.DefaultParameters values.
	DefaultParameters *catalog.Parameters `yaml:"default_parameters"`

	// LoadTimeout bounds a single asset load.
	// Default: 10s
	LoadTimeout time.Duration `yaml:"load_timeout"`

	// LoadRetryCount is the number of extra attempts for a failed
	// synchronous load.
	// Default: 2
	LoadRetryCount int `yaml:"load_retry_count"`

	// TickRate is the number of engine ticks per second when the engine is
	// driven by cadence run.
	// Default: 60
	TickRate int `yaml:"tick_rate"`

	// Listener is the primary listener position used by distance
	// conditions.
	Listener device.Vec3 `yaml:"listener"`
}

// LoaderConfig contains asset loader configuration.
type LoaderConfig struct {
	// Root is the directory asset paths are resolved against.
	// Default: "./assets"
	Root string `yaml:"root"`

	// Extensions are tried in order when an asset path has no extension.
	// Default: [".wav", ".ogg", ".mp3", ".flac"]
	Extensions []string `yaml:"extensions"`

	// SampleRate is the rate decoded clips are resampled to. Zero keeps the
	// file's own rate.
	// Default: 0
	SampleRate int `yaml:"sample_rate"`
}

// DeviceConfig contains audio output configuration.
type DeviceConfig struct {
	// Backend selects the output.
	// Options: "headless", "oto"
	// Default: "headless"
	Backend string `yaml:"backend"`

	// SampleRate is the output sample rate.
	// Default: 44100
	SampleRate int `yaml:"sample_rate"`

	// ChannelCount is the number of output channels (1 or 2).
	// Default: 2
	ChannelCount int `yaml:"channel_count"`

	// BufferSize is the output buffer duration. Zero lets the backend choose.
	// Default: 0
	BufferSize time.Duration `yaml:"buffer_size"`
}

// BankConfig defines a catalog bank.
type BankConfig struct {
	// Name identifies the bank. Required and unique.
	Name string `yaml:"name"`

	// CacheType controls loading.
	// Options: "on_demand", "preload", "persistent"
	// Default: "on_demand"
	CacheType catalog.CacheType `yaml:"cache_type"`

	// DefaultParameters apply to clips without their own parameters.
	DefaultParameters *catalog.Parameters `yaml:"default_parameters"`

	// Clips lists the bank entries.
	Clips []ClipConfig `yaml:"clips"`
}

// ClipConfig defines one catalog entry.
type ClipConfig struct {
	// Name is the clip name. Required.
	Name string `yaml:"name"`

	// Asset is the loader key. Defaults to Name.
	Asset string `yaml:"asset"`

	// Event optionally aliases the clip.
	Event string `yaml:"event"`

	// PlayGroup optionally names a play group.
	PlayGroup string `yaml:"play_group"`

	// Parameters override the bank defaults.
	Parameters *catalog.Parameters `yaml:"parameters"`

	// Operator combines Conditions.
	// Options: "and", "or"
	// Default: "and"
	Operator string `yaml:"operator"`

	// Conditions gate plays of the clip.
	Conditions []ConditionConfig `yaml:"conditions"`
}

// ConditionConfig selects a condition from the registry and configures it.
type ConditionConfig struct {
	// Type is the registry id (e.g., "cooldown", "concurrent_limit").
	Type string `yaml:"type"`

	// Params is decoded into the condition created for Type.
	Params yaml.Node `yaml:"params"`
}

// GroupConfig defines a mixer group.
type GroupConfig struct {
	// Name identifies the group. Required and unique.
	Name string `yaml:"name"`

	// Volume scales member instances.
	// Default: 1.0
	Volume *float64 `yaml:"volume"`

	// Mute silences member instances.
	Mute bool `yaml:"mute"`

	// MaxConcurrent caps playing instances across member banks. Zero means
	// unlimited.
	MaxConcurrent int `yaml:"max_concurrent"`

	// Banks lists member bank names.
	Banks []string `yaml:"banks"`
}

// PlayGroupConfig defines a play group.
type PlayGroupConfig struct {
	// Name identifies the group. Required and unique.
	Name string `yaml:"name"`

	// Mode selects the member to play.
	// Options: "random", "sequential", "exclusive"
	// Default: "random"
	Mode playgroup.Mode `yaml:"mode"`

	// ExclusiveBehavior applies to exclusive groups when a member is
	// already playing.
	// Options: "dont_play", "stop_old", "fade_out_old"
	// Default: "dont_play"
	ExclusiveBehavior playgroup.ExclusiveBehavior `yaml:"exclusive_behavior"`
}

// HistoryConfig contains play history configuration.
type HistoryConfig struct {
	// Enabled controls whether play events are recorded.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// Driver selects the database/sql driver for the sqlite backend.
	// "sqlite" is the pure Go modernc.org/sqlite driver, "sqlite3" the cgo
	// github.com/mattn/go-sqlite3 driver.
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the database file for the sqlite backend.
	// Default: "data/history.db"
	Path string `yaml:"path"`

	// Retention is how long records are kept. Zero keeps them forever.
	// Default: 168h
	Retention time.Duration `yaml:"retention"`

	// PruneSchedule is the cron expression for retention pruning.
	// Default: "0 * * * *"
	PruneSchedule string `yaml:"prune_schedule"`

	// BufferSize is the size of the asynchronous record queue.
	// Default: 1024
	BufferSize int `yaml:"buffer_size"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "cadence"
	Namespace string `yaml:"namespace"`

	// LatencyBuckets defines histogram buckets for play latency (seconds).
	// Default: [0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5]
	LatencyBuckets []float64 `yaml:"latency_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio", "parent_based"
	// Default: "parent_based"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "cadence"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the OTLP connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig contains HTTP control surface configuration.
type ServerConfig struct {
	// Enabled starts the HTTP server in cadence run.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8090"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	// Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 5s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// WatchConfig contains configuration file watching settings.
type WatchConfig struct {
	// Enabled reloads banks and play groups when the configuration file
	// changes.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Debounce coalesces bursts of file events.
	// Default: 100ms
	Debounce time.Duration `yaml:"debounce"`
}
