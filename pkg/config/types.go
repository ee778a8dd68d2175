// Package config provides configuration loading and validation for teamsactivity.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure loaded from YAML or TOML.
// Every field is optional; DefaultConfig supplies the Teams defaults.
type Config struct {
	// LogDir is the directory holding logs.txt and old_logs_*.txt.
	// Empty means the platform default Teams directory.
	LogDir string `yaml:"log_dir" toml:"log_dir"`

	// LogPatterns are glob patterns, relative to LogDir, applied in order.
	LogPatterns []string `yaml:"log_patterns" toml:"log_patterns"`

	// Timeout is the machine's auto-lock timeout in minutes. Locks caused by
	// idleness are moved back by this amount.
	Timeout int `yaml:"timeout" toml:"timeout"`

	// TimestampLayout is the Go time layout for the line prefix once the
	// zone name has been stripped.
	TimestampLayout string `yaml:"timestamp_layout" toml:"timestamp_layout"`

	Markers  MarkerConfig    `yaml:"markers" toml:"markers"`
	Logging  LoggingConfig   `yaml:"logging" toml:"logging"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty" toml:"webhooks,omitempty"`
}

// TimeoutDelta returns the shift applied to idle-triggered lock events.
// It is negative: the lock fires after the last real activity.
func (c *Config) TimeoutDelta() time.Duration {
	return -time.Duration(c.Timeout) * time.Minute
}

// MarkerConfig holds the substrings that identify lifecycle and lock events
// in a log line. Matching is case-sensitive.
type MarkerConfig struct {
	Startup  string `yaml:"startup" toml:"startup"`
	Shutdown string `yaml:"shutdown" toml:"shutdown"`
	Killed   string `yaml:"killed" toml:"killed"`
	Locked   string `yaml:"locked" toml:"locked"`
	Unlocked string `yaml:"unlocked" toml:"unlocked"`

	// Idle is looked for on the line preceding a lock to tell timeout locks
	// from manual ones.
	Idle string `yaml:"idle" toml:"idle"`
}

// LoggingConfig controls diagnostic logging on stderr.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // text, json
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnActivity fires only when at least one activity interval was found (default).
	WebhookTriggerOnActivity WebhookTrigger = "on_activity"
	// WebhookTriggerAlways fires after every report.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// Valid reports whether t is one of the known triggers.
func (t WebhookTrigger) Valid() bool {
	switch t {
	case WebhookTriggerOnActivity, WebhookTriggerAlways, WebhookTriggerNever:
		return true
	}
	return false
}

// WebhookConfig defines a webhook endpoint for sending reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty" toml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url" toml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty" toml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_activity" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty" toml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout Duration `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

// Duration is a time.Duration written as a Go duration string ("10s") in
// both YAML and TOML files.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
