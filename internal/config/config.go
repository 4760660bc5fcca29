// Package config provides unified configuration loading for the footprint service.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// Known backend names, in default fallback order.
const (
	BackendBrave      = "brave"
	BackendDDGHTML    = "ddg_html"
	BackendDDGLite    = "ddg_lite"
	BackendGoogleNews = "google_news"
)

// CollectGrace is how long a search keeps collecting outcomes past the batch
// deadline. HTTP timeouts must leave room for it.
const CollectGrace = time.Second

// Config holds all configuration for the footprint service.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Search        SearchConfig        `yaml:"search"`
	Providers     ProvidersConfig     `yaml:"providers"`
	Cache         CacheConfig         `yaml:"cache"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	CORSOrigins      []string      `yaml:"cors_origins"`
}

// SearchConfig holds fan-out and fallback chain settings.
type SearchConfig struct {
	Backends         []string      `yaml:"backends"`
	Workers          int           `yaml:"workers"`
	MaxResults       int           `yaml:"max_results"`
	BatchTimeout     time.Duration `yaml:"batch_timeout"`
	BackendTimeout   time.Duration `yaml:"backend_timeout"`
	MaxRetries       int           `yaml:"max_retries"`
	InitialBackoff   time.Duration `yaml:"initial_backoff"`
	MaxBackoff       time.Duration `yaml:"max_backoff"`
	CourtesyDelayMin time.Duration `yaml:"courtesy_delay_min"`
	CourtesyDelayMax time.Duration `yaml:"courtesy_delay_max"`
	RatePerSecond    float64       `yaml:"rate_per_second"`
	UserAgent        string        `yaml:"user_agent"`
}

// ProvidersConfig holds per-backend settings.
type ProvidersConfig struct {
	Brave      BraveConfig      `yaml:"brave"`
	DuckDuckGo DuckDuckGoConfig `yaml:"duckduckgo"`
	GoogleNews GoogleNewsConfig `yaml:"google_news"`
}

// BraveConfig holds Brave Search API settings.
type BraveConfig struct {
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
}

// DuckDuckGoConfig holds DuckDuckGo scrape settings.
type DuckDuckGoConfig struct {
	HTMLEndpoint string `yaml:"html_endpoint"`
	LiteEndpoint string `yaml:"lite_endpoint"`
	Region       string `yaml:"region"`
	SafeSearch   string `yaml:"safe_search"` // off, moderate or strict
}

// GoogleNewsConfig holds Google News RSS settings.
type GoogleNewsConfig struct {
	Endpoint string `yaml:"endpoint"`
	HL       string `yaml:"hl"`
	GL       string `yaml:"gl"`
	CEID     string `yaml:"ceid"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // none, memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Prefix   string `yaml:"prefix"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8000,
			ReadTimeout:      15 * time.Second,
			WriteTimeout:     150 * time.Second,
			IdleTimeout:      120 * time.Second,
			RequestTimeout:   140 * time.Second,
			GracefulShutdown: 10 * time.Second,
			CORSOrigins:      []string{"*"},
		},
		Search: SearchConfig{
			Backends:         []string{BackendBrave, BackendDDGHTML, BackendDDGLite, BackendGoogleNews},
			Workers:          3,
			MaxResults:       4,
			BatchTimeout:     120 * time.Second,
			BackendTimeout:   15 * time.Second,
			MaxRetries:       2,
			InitialBackoff:   1 * time.Second,
			MaxBackoff:       8 * time.Second,
			CourtesyDelayMin: 500 * time.Millisecond,
			CourtesyDelayMax: 1500 * time.Millisecond,
			RatePerSecond:    1,
			UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		},
		Providers: ProvidersConfig{
			Brave: BraveConfig{
				Endpoint: "https://api.search.brave.com/res/v1/web/search",
			},
			DuckDuckGo: DuckDuckGoConfig{
				HTMLEndpoint: "https://html.duckduckgo.com/html/",
				LiteEndpoint: "https://lite.duckduckgo.com/lite/",
				Region:       "wt-wt",
				SafeSearch:   "off",
			},
			GoogleNews: GoogleNewsConfig{
				Endpoint: "https://news.google.com/rss/search",
				HL:       "en-US",
				GL:       "US",
				CEID:     "US:en",
			},
		},
		Cache: CacheConfig{
			Driver:     "none",
			TTL:        10 * time.Minute,
			MaxEntries: 1000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
				Prefix:   "fp:",
			},
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			ServiceName: "footprint",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if len(c.Search.Backends) == 0 {
		return fmt.Errorf("at least one search backend is required")
	}
	seen := make(map[string]bool, len(c.Search.Backends))
	for _, name := range c.Search.Backends {
		if !IsKnownBackend(name) {
			return fmt.Errorf("unknown search backend: %q", name)
		}
		if seen[name] {
			return fmt.Errorf("duplicate search backend: %q", name)
		}
		seen[name] = true
	}

	if c.Search.Workers < 1 || c.Search.Workers > 16 {
		return fmt.Errorf("workers must be between 1 and 16")
	}

	if c.Search.MaxResults < 1 || c.Search.MaxResults > 50 {
		return fmt.Errorf("max_results must be between 1 and 50")
	}

	if c.Search.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}

	if c.Search.BatchTimeout <= 0 || c.Search.BackendTimeout <= 0 {
		return fmt.Errorf("batch_timeout and backend_timeout must be positive")
	}

	if rt := c.Server.RequestTimeout; rt > 0 && rt <= c.Search.BatchTimeout+CollectGrace {
		return fmt.Errorf("request_timeout (%v) must exceed batch_timeout plus %v (%v)",
			rt, CollectGrace, c.Search.BatchTimeout+CollectGrace)
	}
	if wt := c.Server.WriteTimeout; wt > 0 && wt <= c.Search.BatchTimeout+CollectGrace {
		return fmt.Errorf("write_timeout (%v) must exceed batch_timeout plus %v", wt, CollectGrace)
	}

	if c.Search.CourtesyDelayMin < 0 || c.Search.CourtesyDelayMin > c.Search.CourtesyDelayMax {
		return fmt.Errorf("courtesy delay range is invalid: %v..%v", c.Search.CourtesyDelayMin, c.Search.CourtesyDelayMax)
	}

	switch c.Cache.Driver {
	case "none", "memory", "redis":
	default:
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	return nil
}

// IsKnownBackend reports whether name is one of the supported backends.
func IsKnownBackend(name string) bool {
	switch name {
	case BackendBrave, BackendDDGHTML, BackendDDGLite, BackendGoogleNews:
		return true
	}
	return false
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		if opts, err := redis.ParseURL(v); err == nil {
			cfg.Cache.Redis.Addr = opts.Addr
			cfg.Cache.Redis.Password = opts.Password
			cfg.Cache.Redis.DB = opts.DB
		} else {
			// Bare host:port form.
			cfg.Cache.Redis.Addr = v
		}
	}

	if v := os.Getenv("BRAVE_API_KEY"); v != "" {
		cfg.Providers.Brave.APIKey = v
	}

	if v := os.Getenv("SEARCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.Workers = n
		}
	}

	if v := os.Getenv("SEARCH_BACKENDS"); v != "" {
		var backends []string
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				backends = append(backends, name)
			}
		}
		cfg.Search.Backends = backends
	}

	if v := os.Getenv("SEARCH_BATCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Search.BatchTimeout = d
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
