// Package config loads synthesizer and storage settings for the roboplan
// CLI from an optional YAML file and the environment.
//
// Precedence, lowest to highest: built-in defaults, the YAML file,
// environment variables, command-line flags. Flags are applied by the CLI
// after Load returns.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/roach88/roboplan/internal/synth"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvModel   = "ROBOPLAN_MODEL"
	EnvBaseURL = "ROBOPLAN_BASE_URL"
	EnvCatalog = "ROBOPLAN_CATALOG"
	EnvDB      = "ROBOPLAN_DB"
)

// Config holds every setting the CLI needs to build a planner.
type Config struct {
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxTokens int           `yaml:"max_tokens"`

	// Temperature and MaxRetries are pointers so an explicit 0 survives
	// merging. A nil Temperature selects the client default.
	Temperature *float64 `yaml:"temperature"`
	MaxRetries  *int     `yaml:"max_retries"`
	RateLimit   float64  `yaml:"rate_limit"` // requests per second
	Burst       int      `yaml:"burst"`

	Catalog string `yaml:"catalog"` // scene catalog file (.cue, .yaml)
	DB      string `yaml:"db"`      // plan history database
	Offline bool   `yaml:"offline"` // use the heuristic synthesizer
	Strict  bool   `yaml:"strict"`  // reject ungrounded plans
}

// Error reports an invalid or unreadable configuration.
type Error struct {
	Source  string
	Field   string
	Message string
}

func (e *Error) Error() string {
	prefix := ""
	if e.Source != "" {
		prefix = e.Source + ": "
	}
	if e.Field != "" {
		return fmt.Sprintf("%s%s: %s", prefix, e.Field, e.Message)
	}
	return prefix + e.Message
}

// IsConfigError reports whether err is (or wraps) a config Error.
func IsConfigError(err error) bool {
	var cfgErr *Error
	return errors.As(err, &cfgErr)
}

// Default returns the built-in configuration.
func Default() *Config {
	retries := synth.DefaultRetryConfig().MaxRetries
	return &Config{
		Model:      synth.DefaultModel,
		BaseURL:    synth.DefaultBaseURL,
		MaxRetries: &retries,
	}
}

// Load reads the YAML file at path over the defaults and then applies the
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &Error{Source: path, Message: fmt.Sprintf("failed to read config file: %v", err)}
		}
		if err := cfg.merge(data, path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML config data over the defaults without consulting the
// environment. Unknown keys are rejected.
func Parse(data []byte, source string) (*Config, error) {
	cfg := Default()
	if err := cfg.merge(data, source); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) merge(data []byte, source string) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var file Config
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil // empty file
		}
		return &Error{Source: source, Message: fmt.Sprintf("invalid YAML: %v", err)}
	}

	if file.APIKey != "" {
		c.APIKey = file.APIKey
	}
	if file.Model != "" {
		c.Model = file.Model
	}
	if file.BaseURL != "" {
		c.BaseURL = file.BaseURL
	}
	if file.Timeout != 0 {
		c.Timeout = file.Timeout
	}
	if file.Temperature != nil {
		c.Temperature = file.Temperature
	}
	if file.MaxTokens != 0 {
		c.MaxTokens = file.MaxTokens
	}
	if file.MaxRetries != nil {
		c.MaxRetries = file.MaxRetries
	}
	if file.RateLimit != 0 {
		c.RateLimit = file.RateLimit
	}
	if file.Burst != 0 {
		c.Burst = file.Burst
	}
	if file.Catalog != "" {
		c.Catalog = file.Catalog
	}
	if file.DB != "" {
		c.DB = file.DB
	}
	c.Offline = c.Offline || file.Offline
	c.Strict = c.Strict || file.Strict
	return nil
}

// ApplyEnv overrides settings from the environment. getenv is os.Getenv
// outside of tests.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(synth.APIKeyEnv); v != "" {
		c.APIKey = v
	}
	if v := getenv(EnvModel); v != "" {
		c.Model = v
	}
	if v := getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := getenv(EnvCatalog); v != "" {
		c.Catalog = v
	}
	if v := getenv(EnvDB); v != "" {
		c.DB = v
	}
}

// Validate checks numeric settings for range errors.
func (c *Config) Validate() error {
	switch {
	case c.Timeout < 0:
		return &Error{Field: "timeout", Message: "must not be negative"}
	case c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2):
		return &Error{Field: "temperature", Message: "must be within [0, 2]"}
	case c.MaxTokens < 0:
		return &Error{Field: "max_tokens", Message: "must not be negative"}
	case c.MaxRetries != nil && *c.MaxRetries < 0:
		return &Error{Field: "max_retries", Message: "must not be negative"}
	case c.RateLimit < 0:
		return &Error{Field: "rate_limit", Message: "must not be negative"}
	case c.Burst < 0:
		return &Error{Field: "burst", Message: "must not be negative"}
	}
	return nil
}

// ClientOptions maps the config onto synth.ClientOptions.
func (c *Config) ClientOptions(logger *slog.Logger) synth.ClientOptions {
	return synth.ClientOptions{
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		Timeout:     c.Timeout,
		RateLimit:   rate.Limit(c.RateLimit),
		Burst:       c.Burst,
		Logger:      logger,
	}
}

// RetryConfig returns the default retry policy with MaxRetries applied.
func (c *Config) RetryConfig() synth.RetryConfig {
	rc := synth.DefaultRetryConfig()
	if c.MaxRetries != nil {
		rc.MaxRetries = *c.MaxRetries
	}
	return rc
}
