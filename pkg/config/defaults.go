package config

import "time"

// Default values for configuration fields.
const (
	// Engine defaults
	DefaultMaxChannels    = 32
	DefaultWarmupChannels = 8
	DefaultLoadTimeout    = 10 * time.Second
	DefaultLoadRetryCount = 2
	DefaultTickRate       = 60

	// Loader defaults
	DefaultLoaderRoot = "./assets"

	// Device defaults
	DefaultDeviceBackend      = "headless"
	DefaultDeviceSampleRate   = 44100
	DefaultDeviceChannelCount = 2

	// History defaults
	DefaultHistoryBackend       = "memory"
	DefaultHistoryDriver        = "sqlite"
	DefaultHistoryPath          = "data/history.db"
	DefaultHistoryRetention     = 7 * 24 * time.Hour
	DefaultHistoryPruneSchedule = "0 * * * *"
	DefaultHistoryBufferSize    = 1024

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "text"
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "cadence"
	DefaultTracingSampler     = "parent_based"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingServiceName = "cadence"
	DefaultTracingTimeout     = 10 * time.Second

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8090"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 5 * time.Second

	// Watch defaults
	DefaultWatchDebounce = 100 * time.Millisecond
)

// DefaultLoaderExtensions are tried in order for asset paths without an
// extension.
var DefaultLoaderExtensions = []string{".wav", ".ogg", ".mp3", ".flac"}

// DefaultLatencyBuckets are the play latency histogram buckets in seconds.
var DefaultLatencyBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Engine defaults
	if cfg.Engine.MaxChannels == 0 {
		cfg.Engine.MaxChannels = DefaultMaxChannels
	}
	if cfg.Engine.WarmupChannels == 0 {
		cfg.Engine.WarmupChannels = DefaultWarmupChannels
	}
	if cfg.Engine.LoadTimeout == 0 {
		cfg.Engine.LoadTimeout = DefaultLoadTimeout
	}
	if cfg.Engine.LoadRetryCount == 0 {
		cfg.Engine.LoadRetryCount = DefaultLoadRetryCount
	}
	if cfg.Engine.TickRate == 0 {
		cfg.Engine.TickRate = DefaultTickRate
	}

	// Loader defaults
	if cfg.Loader.Root == "" {
		cfg.Loader.Root = DefaultLoaderRoot
	}
	if len(cfg.Loader.Extensions) == 0 {
		cfg.Loader.Extensions = append([]string(nil), DefaultLoaderExtensions...)
	}

	// Device defaults
	if cfg.Device.Backend == "" {
		cfg.Device.Backend = DefaultDeviceBackend
	}
	if cfg.Device.SampleRate == 0 {
		cfg.Device.SampleRate = DefaultDeviceSampleRate
	}
	if cfg.Device.ChannelCount == 0 {
		cfg.Device.ChannelCount = DefaultDeviceChannelCount
	}

	// Group defaults - volume is a pointer so an explicit 0 survives
	for i := range cfg.Groups {
		if cfg.Groups[i].Volume == nil {
			v := 1.0
			cfg.Groups[i].Volume = &v
		}
	}

	// History defaults
	if cfg.History.Backend == "" {
		cfg.History.Backend = DefaultHistoryBackend
	}
	if cfg.History.Driver == "" {
		cfg.History.Driver = DefaultHistoryDriver
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}
	if cfg.History.Retention == 0 {
		cfg.History.Retention = DefaultHistoryRetention
	}
	if cfg.History.PruneSchedule == "" {
		cfg.History.PruneSchedule = DefaultHistoryPruneSchedule
	}
	if cfg.History.BufferSize == 0 {
		cfg.History.BufferSize = DefaultHistoryBufferSize
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.LatencyBuckets) == 0 {
		cfg.Telemetry.Metrics.LatencyBuckets = append([]float64(nil), DefaultLatencyBuckets...)
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Watch defaults
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
}
