package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"mercator-hq/cadence/pkg/condition"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "engine.max_channels").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
//
// Condition types are checked against the default condition registry.
func Validate(cfg *Config) error {
	return ValidateWithRegistry(cfg, condition.Default())
}

// ValidateWithRegistry is Validate with an explicit condition registry.
func ValidateWithRegistry(cfg *Config, reg *condition.Registry) error {
	var errs []FieldError

	errs = append(errs, validateEngine(&cfg.Engine)...)
	errs = append(errs, validateDevice(&cfg.Device)...)
	errs = append(errs, validateBanks(cfg.Banks, reg)...)
	errs = append(errs, validateGroups(cfg.Groups)...)
	errs = append(errs, validatePlayGroups(cfg.PlayGroups)...)
	errs = append(errs, validateHistory(&cfg.History)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateServer(&cfg.Server)...)

	if cfg.Watch.Debounce < 0 {
		errs = append(errs, FieldError{
			Field:   "watch.debounce",
			Message: "debounce must be non-negative",
		})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateEngine validates engine configuration.
func validateEngine(cfg *EngineConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxChannels <= 0 {
		errs = append(errs, FieldError{
			Field:   "engine.max_channels",
			Message: "max channels must be positive",
		})
	}
	if cfg.WarmupChannels < 0 {
		errs = append(errs, FieldError{
			Field:   "engine.warmup_channels",
			Message: "warmup channels must be non-negative",
		})
	}
	if cfg.LoadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "engine.load_timeout",
			Message: "load timeout must be positive",
		})
	}
	if cfg.LoadRetryCount < 0 {
		errs = append(errs, FieldError{
			Field:   "engine.load_retry_count",
			Message: "load retry count must be non-negative",
		})
	}
	if cfg.TickRate < 1 || cfg.TickRate > 1000 {
		errs = append(errs, FieldError{
			Field:   "engine.tick_rate",
			Message: fmt.Sprintf("tick rate must be between 1 and 1000, got %d", cfg.TickRate),
		})
	}

	return errs
}

// validateDevice validates device configuration.
func validateDevice(cfg *DeviceConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "headless", "oto":
	default:
		errs = append(errs, FieldError{
			Field:   "device.backend",
			Message: fmt.Sprintf("backend must be one of [headless, oto], got %q", cfg.Backend),
		})
	}
	if cfg.SampleRate <= 0 {
		errs = append(errs, FieldError{
			Field:   "device.sample_rate",
			Message: "sample rate must be positive",
		})
	}
	if cfg.ChannelCount != 1 && cfg.ChannelCount != 2 {
		errs = append(errs, FieldError{
			Field:   "device.channel_count",
			Message: fmt.Sprintf("channel count must be 1 or 2, got %d", cfg.ChannelCount),
		})
	}
	if cfg.BufferSize < 0 {
		errs = append(errs, FieldError{
			Field:   "device.buffer_size",
			Message: "buffer size must be non-negative",
		})
	}

	return errs
}

// validateBanks validates bank definitions and the conditions they reference.
func validateBanks(banks []BankConfig, reg *condition.Registry) []FieldError {
	var errs []FieldError
	seen := make(map[string]bool)

	for i, bank := range banks {
		prefix := fmt.Sprintf("banks[%d]", i)

		if bank.Name == "" {
			errs = append(errs, FieldError{Field: prefix + ".name", Message: "bank name is required"})
		} else if seen[bank.Name] {
			errs = append(errs, FieldError{Field: prefix + ".name", Message: fmt.Sprintf("duplicate bank name %q", bank.Name)})
		}
		seen[bank.Name] = true

		for j, clip := range bank.Clips {
			clipPrefix := fmt.Sprintf("%s.clips[%d]", prefix, j)

			if clip.Name == "" {
				errs = append(errs, FieldError{Field: clipPrefix + ".name", Message: "clip name is required"})
			}
			if _, err := condition.ParseOperator(clip.Operator); err != nil {
				errs = append(errs, FieldError{Field: clipPrefix + ".operator", Message: err.Error()})
			}
			for k, cond := range clip.Conditions {
				field := fmt.Sprintf("%s.conditions[%d].type", clipPrefix, k)
				if cond.Type == "" {
					errs = append(errs, FieldError{Field: field, Message: "condition type is required"})
					continue
				}
				if !reg.IsRegistered(cond.Type) {
					errs = append(errs, FieldError{
						Field:   field,
						Message: fmt.Sprintf("unknown condition type %q (registered: %s)", cond.Type, strings.Join(reg.IDs(), ", ")),
					})
				}
			}
		}
	}

	return errs
}

// validateGroups validates mixer group definitions.
func validateGroups(groups []GroupConfig) []FieldError {
	var errs []FieldError
	seen := make(map[string]bool)

	for i, g := range groups {
		prefix := fmt.Sprintf("groups[%d]", i)

		if g.Name == "" {
			errs = append(errs, FieldError{Field: prefix + ".name", Message: "group name is required"})
		} else if seen[g.Name] {
			errs = append(errs, FieldError{Field: prefix + ".name", Message: fmt.Sprintf("duplicate group name %q", g.Name)})
		}
		seen[g.Name] = true

		if g.Volume != nil && (*g.Volume < 0 || *g.Volume > 1) {
			errs = append(errs, FieldError{Field: prefix + ".volume", Message: "volume must be between 0.0 and 1.0"})
		}
		if g.MaxConcurrent < 0 {
			errs = append(errs, FieldError{Field: prefix + ".max_concurrent", Message: "max concurrent must be non-negative"})
		}
	}

	return errs
}

// validatePlayGroups validates play group definitions.
func validatePlayGroups(groups []PlayGroupConfig) []FieldError {
	var errs []FieldError
	seen := make(map[string]bool)

	for i, g := range groups {
		field := fmt.Sprintf("play_groups[%d].name", i)
		if g.Name == "" {
			errs = append(errs, FieldError{Field: field, Message: "play group name is required"})
			continue
		}
		if seen[g.Name] {
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("duplicate play group name %q", g.Name)})
		}
		seen[g.Name] = true
	}

	return errs
}

// validateHistory validates history configuration.
func validateHistory(cfg *HistoryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "history.backend",
			Message: fmt.Sprintf("backend must be one of [memory, sqlite], got %q", cfg.Backend),
		})
	}

	if cfg.Backend == "sqlite" {
		switch cfg.Driver {
		case "sqlite", "sqlite3":
		default:
			errs = append(errs, FieldError{
				Field:   "history.driver",
				Message: fmt.Sprintf("driver must be one of [sqlite, sqlite3], got %q", cfg.Driver),
			})
		}
		if cfg.Path == "" {
			errs = append(errs, FieldError{Field: "history.path", Message: "path is required for the sqlite backend"})
		}
	}

	if cfg.Retention < 0 {
		errs = append(errs, FieldError{Field: "history.retention", Message: "retention must be non-negative"})
	}
	if cfg.BufferSize < 0 {
		errs = append(errs, FieldError{Field: "history.buffer_size", Message: "buffer size must be non-negative"})
	}
	if cfg.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "history.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("level must be one of [debug, info, warn, error], got %q", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("format must be one of [json, text, console], got %q", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Sampler {
		case "always", "never", "ratio", "parent_based":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("sampler must be one of [always, never, ratio, parent_based], got %q", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "endpoint is required when tracing is enabled",
			})
		}
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}

// validateServer validates HTTP server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled && cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}

	return errs
}
