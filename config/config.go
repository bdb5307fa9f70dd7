// Package config provides unified configuration loading: defaults,
// YAML file, then environment variable overrides, in that priority order.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("BROWSERPILOT").
//	    Load()
package config

import (
	"time"
)

// Config is the complete configuration.
type Config struct {
	// Session configures the history/budget manager.
	Session SessionConfig `yaml:"session" env:"SESSION"`

	// Browser configures the browsing context.
	Browser BrowserConfig `yaml:"browser" env:"BROWSER"`

	// Tools configures the tool-adapter layer.
	Tools ToolsConfig `yaml:"tools" env:"TOOLS"`

	// Log configures logging.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// SessionConfig configures one agent session.
type SessionConfig struct {
	// Model selects the tokenizer; token counts must match the model that
	// consumes the composed context.
	Model string `yaml:"model" env:"MODEL"`
	// MaxTokens is the hard context budget.
	MaxTokens int `yaml:"max_tokens" env:"MAX_TOKENS"`
	// TokenWorkers sizes the token-counting worker pool (0 = inline).
	TokenWorkers int `yaml:"token_workers" env:"TOKEN_WORKERS"`
}

// BrowserConfig configures the browser engine.
type BrowserConfig struct {
	Headless         bool          `yaml:"headless" env:"HEADLESS"`
	Timeout          time.Duration `yaml:"timeout" env:"TIMEOUT"`
	ViewportWidth    int           `yaml:"viewport_width" env:"VIEWPORT_WIDTH"`
	ViewportHeight   int           `yaml:"viewport_height" env:"VIEWPORT_HEIGHT"`
	UserAgent        string        `yaml:"user_agent" env:"USER_AGENT"`
	ProxyURL         string        `yaml:"proxy_url" env:"PROXY_URL"`
	SnapshotMaxChars int           `yaml:"snapshot_max_chars" env:"SNAPSHOT_MAX_CHARS"`
}

// ToolsConfig configures the tool adapters.
type ToolsConfig struct {
	// RatePerSecond limits invocations per tool. Zero disables limiting.
	RatePerSecond float64 `yaml:"rate_per_second" env:"RATE_PER_SECOND"`
	// RateBurst is the limiter's burst size.
	RateBurst int `yaml:"rate_burst" env:"RATE_BURST"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json or console.
	Format string `yaml:"format" env:"FORMAT"`
}

// MetricsConfig configures the metrics endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
	Addr      string `yaml:"addr" env:"ADDR"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			Model:        "gpt-4o",
			MaxTokens:    8192,
			TokenWorkers: 4,
		},
		Browser: BrowserConfig{
			Headless:         true,
			Timeout:          30 * time.Second,
			ViewportWidth:    1920,
			ViewportHeight:   1080,
			SnapshotMaxChars: 3000,
		},
		Tools: ToolsConfig{
			RatePerSecond: 5,
			RateBurst:     20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "browserpilot",
			Addr:      ":9091",
		},
	}
}
