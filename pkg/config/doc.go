// Package config provides configuration management for Cadence.
//
// This package handles loading, validating, and converting configuration from
// YAML files with environment variable overrides. It describes the playback
// engine, the catalog banks and play groups it serves, and the services
// around it (history, telemetry, HTTP control surface, file watching).
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("cadence.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("cadence.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention CADENCE_SECTION_FIELD.
// For example:
//
//   - CADENCE_ENGINE_MAX_CHANNELS overrides engine.max_channels
//   - CADENCE_HISTORY_BACKEND overrides history.backend
//   - CADENCE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// There is no process-wide configuration. Callers pass the loaded *Config
// to the components that need it.
//
// # Banks and Play Groups
//
// BuildBanks turns the banks section into catalog banks. Each clip's
// conditions are created through a condition.Registry, so any condition type
// registered before loading can be named in YAML:
//
//	banks:
//	  - name: "ui"
//	    cache_type: "preload"
//	    default_parameters:
//	      volume: 0.8
//	    clips:
//	      - name: "click"
//	        asset: "ui/click.wav"
//	        conditions:
//	          - type: "cooldown"
//	            params:
//	              duration: "50ms"
//
// # Validation
//
// All configuration is validated automatically during loading. Validation includes:
//
//   - Required and unique names for banks, groups and play groups
//   - Range validation (e.g., tick rate, sample ratio, group volume)
//   - Registered condition types and valid operators
//   - Cron syntax for the history prune schedule
//
// Validation errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - engine.max_channels: max channels must be positive
//	  - banks[0].clips[1].conditions[0].type: unknown condition type "loudness"
package config
