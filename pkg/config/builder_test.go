package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a new ConfigBuilder with sensible defaults for testing.
// The resulting configuration is valid and can be used immediately.
func NewTestConfig() *ConfigBuilder {
	var cfg Config
	ApplyDefaults(&cfg)
	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithMaxChannels sets the channel pool capacity.
func (b *ConfigBuilder) WithMaxChannels(n int) *ConfigBuilder {
	b.cfg.Engine.MaxChannels = n
	return b
}

// WithLoadTimeout sets the asset load timeout.
func (b *ConfigBuilder) WithLoadTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.Engine.LoadTimeout = d
	return b
}

// WithBank appends a bank.
func (b *ConfigBuilder) WithBank(bank BankConfig) *ConfigBuilder {
	b.cfg.Banks = append(b.cfg.Banks, bank)
	return b
}

// WithGroup appends a mixer group.
func (b *ConfigBuilder) WithGroup(group GroupConfig) *ConfigBuilder {
	b.cfg.Groups = append(b.cfg.Groups, group)
	return b
}

// WithPlayGroup appends a play group.
func (b *ConfigBuilder) WithPlayGroup(group PlayGroupConfig) *ConfigBuilder {
	b.cfg.PlayGroups = append(b.cfg.PlayGroups, group)
	return b
}

// WithHistory sets the history configuration.
func (b *ConfigBuilder) WithHistory(history HistoryConfig) *ConfigBuilder {
	b.cfg.History = history
	return b
}

// WithLogLevel sets the logging level.
func (b *ConfigBuilder) WithLogLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}

// MinimalConfig returns a minimal valid configuration for testing.
func MinimalConfig() *Config {
	return NewTestConfig().Build()
}
