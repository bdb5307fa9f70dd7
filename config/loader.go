package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader loads configuration with the priority: defaults, YAML file,
// environment variables.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a loader with no file and no env prefix.
func NewLoader() *Loader {
	return &Loader{}
}

// WithConfigPath sets the YAML file path. A missing file is not an error;
// defaults and env vars still apply.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix enables environment overrides, e.g. prefix "BROWSERPILOT"
// reads BROWSERPILOT_SESSION_MAX_TOKENS.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load resolves the final configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", l.configPath, err)
		}
	}

	if l.envPrefix != "" {
		if err := applyEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the session manager cannot run with.
func (c *Config) Validate() error {
	if c.Session.MaxTokens <= 0 {
		return fmt.Errorf("session.max_tokens must be positive, got %d", c.Session.MaxTokens)
	}
	if c.Session.TokenWorkers < 0 {
		return fmt.Errorf("session.token_workers must not be negative, got %d", c.Session.TokenWorkers)
	}
	if c.Tools.RatePerSecond < 0 {
		return fmt.Errorf("tools.rate_per_second must not be negative, got %v", c.Tools.RatePerSecond)
	}
	if c.Tools.RatePerSecond > 0 && c.Tools.RateBurst <= 0 {
		return fmt.Errorf("tools.rate_burst must be positive when rate limiting is enabled, got %d", c.Tools.RateBurst)
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// applyEnv walks the struct and overrides fields from environment
// variables named by joining env tags with underscores.
func applyEnv(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("env")
		if tag == "" {
			continue
		}
		key := prefix + "_" + tag

		fv := v.Field(i)
		if fv.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Duration(0)) {
			if err := applyEnv(fv, key); err != nil {
				return err
			}
			continue
		}

		raw, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		if err := setField(fv, raw); err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
	}
	return nil
}

func setField(fv reflect.Value, raw string) error {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Int, reflect.Int64:
		if fv.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return err
			}
			fv.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	default:
		return fmt.Errorf("unsupported field kind %s", fv.Kind())
	}
	return nil
}
