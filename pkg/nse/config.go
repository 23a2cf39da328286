package nse

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"nseopt/pkg/confkit"
)

const (
	DefaultBaseURL        = "https://www.nseindia.com"
	DefaultTimeout        = 30 * time.Second
	DefaultMaxConcurrency = 3
)

// DefaultHeaders mimic the browser session the historical API expects.
var DefaultHeaders = map[string]string{
	"accept":           "application/json, text/plain, */*",
	"referer":          "https://www.nseindia.com/option-chain",
	"user-agent":       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	"x-requested-with": "XMLHttpRequest",
}

// Config describes the upstream session.
type Config struct {
	BaseURL  string `yaml:"base_url"`
	PrimeURL string `yaml:"prime_url"`

	TimeoutRaw string        `yaml:"timeout"`
	Timeout    time.Duration `yaml:"-"`

	MaxConcurrency    int     `yaml:"max_concurrency"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	Retry   RetryConfig       `yaml:"retry"`
	Headers map[string]string `yaml:"headers"`
}

// RetryConfig is the YAML form of RetryPolicy.
type RetryConfig struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialBackoffRaw string  `yaml:"initial_backoff"`
	MaxBackoffRaw     string  `yaml:"max_backoff"`
	Multiplier        float64 `yaml:"multiplier"`

	InitialBackoff time.Duration `yaml:"-"`
	MaxBackoff     time.Duration `yaml:"-"`
}

// DefaultConfig returns the settings used when no file is configured.
func DefaultConfig() *Config {
	cfg := &Config{}
	if err := cfg.normalise(); err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfig reads configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open nse config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	confkit.LoadDotenvOnce()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read nse config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal nse config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(os.ExpandEnv(c.BaseURL)), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.PrimeURL = strings.TrimSpace(os.ExpandEnv(c.PrimeURL))
	c.TimeoutRaw = strings.TrimSpace(os.ExpandEnv(c.TimeoutRaw))

	var err error
	if c.Timeout, err = parseDuration("timeout", c.TimeoutRaw, DefaultTimeout); err != nil {
		return err
	}
	if c.Retry.InitialBackoff, err = parseDuration("retry.initial_backoff", c.Retry.InitialBackoffRaw, defaultInitialBackoff); err != nil {
		return err
	}
	if c.Retry.MaxBackoff, err = parseDuration("retry.max_backoff", c.Retry.MaxBackoffRaw, defaultMaxBackoff); err != nil {
		return err
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = defaultMaxAttempts
	}
	if c.Retry.Multiplier == 0 {
		c.Retry.Multiplier = defaultMultiplier
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}

	headers := make(map[string]string, len(DefaultHeaders)+len(c.Headers))
	for k, v := range DefaultHeaders {
		headers[k] = v
	}
	for k, v := range c.Headers {
		headers[strings.ToLower(strings.TrimSpace(k))] = os.ExpandEnv(v)
	}
	c.Headers = headers
	return nil
}

func parseDuration(field, raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("nse config: invalid %s %q: %w", field, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("nse config: %s must be positive, got %s", field, d)
	}
	return d, nil
}

// Validate ensures the configuration is structurally sound.
func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("nse config: invalid base_url %q: %w", c.BaseURL, err)
	}
	if c.PrimeURL != "" {
		if _, err := url.ParseRequestURI(c.PrimeURL); err != nil {
			return fmt.Errorf("nse config: invalid prime_url %q: %w", c.PrimeURL, err)
		}
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("nse config: max_concurrency must be >= 1, got %d", c.MaxConcurrency)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("nse config: requests_per_second cannot be negative")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("nse config: retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.Multiplier < 1 {
		return fmt.Errorf("nse config: retry.multiplier must be >= 1, got %g", c.Retry.Multiplier)
	}
	return nil
}

// RetryPolicy converts the YAML retry block into a policy with the default predicate.
func (c *Config) RetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    c.Retry.MaxAttempts,
		InitialBackoff: c.Retry.InitialBackoff,
		MaxBackoff:     c.Retry.MaxBackoff,
		Multiplier:     c.Retry.Multiplier,
	}
}
