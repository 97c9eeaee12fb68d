package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML configuration and applies defaults. It does not
// validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention CADENCE_SECTION_FIELD (e.g., CADENCE_ENGINE_MAX_CHANNELS).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format CADENCE_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Engine overrides
	envInt("CADENCE_ENGINE_MAX_CHANNELS", &cfg.Engine.MaxChannels)
	envInt("CADENCE_ENGINE_WARMUP_CHANNELS", &cfg.Engine.WarmupChannels)
	envBool("CADENCE_ENGINE_DEBUG_LOG", &cfg.Engine.DebugLog)
	envBool("CADENCE_ENGINE_PLAY_LOG", &cfg.Engine.PlayLog)
	envDuration("CADENCE_ENGINE_LOAD_TIMEOUT", &cfg.Engine.LoadTimeout)
	envInt("CADENCE_ENGINE_LOAD_RETRY_COUNT", &cfg.Engine.LoadRetryCount)
	envInt("CADENCE_ENGINE_TICK_RATE", &cfg.Engine.TickRate)

	// Loader overrides
	envString("CADENCE_LOADER_ROOT", &cfg.Loader.Root)

	// Device overrides
	envString("CADENCE_DEVICE_BACKEND", &cfg.Device.Backend)
	envInt("CADENCE_DEVICE_SAMPLE_RATE", &cfg.Device.SampleRate)

	// History overrides
	envBool("CADENCE_HISTORY_ENABLED", &cfg.History.Enabled)
	envString("CADENCE_HISTORY_BACKEND", &cfg.History.Backend)
	envString("CADENCE_HISTORY_DRIVER", &cfg.History.Driver)
	envString("CADENCE_HISTORY_PATH", &cfg.History.Path)
	envDuration("CADENCE_HISTORY_RETENTION", &cfg.History.Retention)
	envString("CADENCE_HISTORY_PRUNE_SCHEDULE", &cfg.History.PruneSchedule)

	// Telemetry overrides
	envString("CADENCE_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("CADENCE_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("CADENCE_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("CADENCE_TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("CADENCE_TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("CADENCE_TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envFloat("CADENCE_TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)

	// Server overrides
	envBool("CADENCE_SERVER_ENABLED", &cfg.Server.Enabled)
	envString("CADENCE_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)

	// Watch overrides
	envBool("CADENCE_WATCH_ENABLED", &cfg.Watch.Enabled)
	envDuration("CADENCE_WATCH_DEBOUNCE", &cfg.Watch.Debounce)
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envFloat(key string, dst *float64) {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
