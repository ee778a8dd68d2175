package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Load reads and validates a configuration file. Files ending in .toml are
// parsed as TOML, anything else as YAML. An empty path returns the defaults
// with environment overrides applied.
func Load(_ context.Context, path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnvironmentOverrides(); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks a configuration for errors and fills in defaults for
// optional webhook fields.
func Validate(cfg *Config) error {
	if len(cfg.LogPatterns) == 0 {
		return errors.New("log_patterns: at least one pattern is required")
	}
	for i, p := range cfg.LogPatterns {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("log_patterns[%d]: pattern is empty", i)
		}
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("log_patterns[%d]: invalid pattern %q: %w", i, p, err)
		}
	}

	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout: must be >= 0 minutes, got %d", cfg.Timeout)
	}

	if cfg.TimestampLayout == "" {
		return errors.New("timestamp_layout: layout is required")
	}

	if err := validateMarkers(&cfg.Markers); err != nil {
		return fmt.Errorf("markers: %w", err)
	}

	if err := validateLogging(&cfg.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func validateMarkers(m *MarkerConfig) error {
	fields := []struct {
		name  string
		value string
	}{
		{"startup", m.Startup},
		{"shutdown", m.Shutdown},
		{"killed", m.Killed},
		{"locked", m.Locked},
		{"unlocked", m.Unlocked},
		{"idle", m.Idle},
	}

	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%s is required", f.name)
		}
	}

	return nil
}

func validateLogging(l *LoggingConfig) error {
	if l.Level == "" {
		l.Level = DefaultLogLevel
	}
	if _, err := logrus.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}

	switch l.Format {
	case "":
		l.Format = DefaultLogFormat
	case "text", "json":
	default:
		return fmt.Errorf("invalid format %q (must be text or json)", l.Format)
	}

	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	if wh.Trigger == "" {
		wh.Trigger = WebhookTriggerOnActivity
	}
	if !wh.Trigger.Valid() {
		return fmt.Errorf("invalid trigger %q (must be on_activity, always, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = Duration(DefaultWebhookTimeout)
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}

	return s
}
