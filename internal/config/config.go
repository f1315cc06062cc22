// Package config loads leadscout settings from flags, environment, an
// optional YAML file and built-in defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration validation errors.
var (
	ErrMissingSerpAPIKey    = errors.New("serpapi_key is required (set SERPAPI_KEY)")
	ErrMissingLLMKey        = errors.New("llm api key is required (set OPENAI_API_KEY or GEMINI_API_KEY)")
	ErrInvalidMode          = errors.New("batch.mode must be 'basic' or 'full'")
	ErrInvalidDelayRange    = errors.New("fetch.min_delay cannot exceed fetch.max_delay")
	ErrInvalidCharRange     = errors.New("fetch.min_chars must be below fetch.max_chars")
	ErrInvalidStorageDriver = errors.New("storage.driver must be one of: none, csv, json, sqlite, postgres")
	ErrMissingStorageDSN    = errors.New("storage.dsn is required for the selected driver")
	ErrInvalidLogFormat     = errors.New("log.format must be 'text' or 'json'")
	ErrInvalidLogLevel      = errors.New("log.level must be one of: debug, info, warn, error")
	ErrInvalidLLMProvider   = errors.New("llm.provider must be 'openai' or 'gemini'")
)

// EnvPrefix is prepended to every configuration key read from the environment.
const EnvPrefix = "LEADSCOUT"

// Config is the complete leadscout configuration.
type Config struct {
	SerpAPIKey string        `mapstructure:"serpapi_key"`
	Batch      BatchConfig   `mapstructure:"batch"`
	Fetch      FetchConfig   `mapstructure:"fetch"`
	Search     SearchConfig  `mapstructure:"search"`
	LLM        LLMConfig     `mapstructure:"llm"`
	Output     OutputConfig  `mapstructure:"output"`
	Storage    StorageConfig `mapstructure:"storage"`
	Metrics    MetricsConfig `mapstructure:"metrics"`
	Log        LogConfig     `mapstructure:"log"`
}

// BatchConfig tunes the per-company loop.
type BatchConfig struct {
	Mode             string        `mapstructure:"mode"`
	MaxRetries       int           `mapstructure:"max_retries"`
	ResultsPerQuery  int           `mapstructure:"results_per_query"`
	ArticlesPerQuery int           `mapstructure:"articles_per_query"`
	Target           int           `mapstructure:"target"`
	QueryDelay       time.Duration `mapstructure:"query_delay"`
	CompanyDelay     time.Duration `mapstructure:"company_delay"`
	EnrichDelay      time.Duration `mapstructure:"enrich_delay"`
	// Flag is written to the Batch_Mode column of appended rows.
	Flag string `mapstructure:"flag"`
}

// FetchConfig tunes article downloads.
type FetchConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	MinDelay      time.Duration `mapstructure:"min_delay"`
	MaxDelay      time.Duration `mapstructure:"max_delay"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	RotateEvery   int           `mapstructure:"rotate_every"`
	Fingerprint   string        `mapstructure:"fingerprint"`
	MinChars      int           `mapstructure:"min_chars"`
	MaxChars      int           `mapstructure:"max_chars"`
	RespectRobots bool          `mapstructure:"respect_robots"`
	ProxyFile     string        `mapstructure:"proxy_file"`
	Proxies       []string      `mapstructure:"proxies"`
}

// SearchConfig tunes the search API client.
type SearchConfig struct {
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	MaxPages      int           `mapstructure:"max_pages"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Language      string        `mapstructure:"language"`
	Country       string        `mapstructure:"country"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	// RedisAddr switches the cache from in-process memory to Redis.
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// LLMConfig selects the completion provider.
type LLMConfig struct {
	Provider     string        `mapstructure:"provider"`
	Model        string        `mapstructure:"model"`
	APIKey       string        `mapstructure:"api_key"`
	GeminiAPIKey string        `mapstructure:"gemini_api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Key returns the API key for the selected provider.
func (c LLMConfig) Key() string {
	if c.Provider == "gemini" {
		return c.GeminiAPIKey
	}
	return c.APIKey
}

// OutputConfig names the CSV files a run writes.
type OutputConfig struct {
	Path          string `mapstructure:"path"`
	DetailedPath  string `mapstructure:"detailed_path"`
	CompaniesPath string `mapstructure:"companies_path"`
	Append        bool   `mapstructure:"append"`
}

// StorageConfig selects the history backend.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// MetricsConfig controls the Prometheus endpoint. Port 0 disables it.
type MetricsConfig struct {
	Port int `mapstructure:"port"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every key with its default so environment
// overrides are picked up on Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("serpapi_key", "")

	v.SetDefault("batch.mode", "basic")
	v.SetDefault("batch.max_retries", 3)
	v.SetDefault("batch.results_per_query", 5)
	v.SetDefault("batch.articles_per_query", 3)
	v.SetDefault("batch.target", 0)
	v.SetDefault("batch.query_delay", 2*time.Second)
	v.SetDefault("batch.company_delay", 2*time.Second)
	v.SetDefault("batch.enrich_delay", 2*time.Second)
	v.SetDefault("batch.flag", "Yes")

	v.SetDefault("fetch.timeout", 15*time.Second)
	v.SetDefault("fetch.min_delay", time.Second)
	v.SetDefault("fetch.max_delay", 2*time.Second)
	v.SetDefault("fetch.rate_per_second", 0)
	v.SetDefault("fetch.rotate_every", 5)
	v.SetDefault("fetch.fingerprint", "chrome")
	v.SetDefault("fetch.min_chars", 200)
	v.SetDefault("fetch.max_chars", 50000)
	v.SetDefault("fetch.respect_robots", false)
	v.SetDefault("fetch.proxy_file", "")
	v.SetDefault("fetch.proxies", []string{})

	v.SetDefault("search.rate_per_second", 1.0)
	v.SetDefault("search.max_pages", 5)
	v.SetDefault("search.timeout", 30*time.Second)
	v.SetDefault("search.language", "en")
	v.SetDefault("search.country", "")
	v.SetDefault("search.cache_ttl", 24*time.Hour)
	v.SetDefault("search.redis_addr", "")
	v.SetDefault("search.redis_password", "")
	v.SetDefault("search.redis_db", 0)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("output.path", "executives.csv")
	v.SetDefault("output.detailed_path", "executives_detailed.csv")
	v.SetDefault("output.companies_path", "companies_seen.csv")
	v.SetDefault("output.append", true)

	v.SetDefault("storage.driver", "none")
	v.SetDefault("storage.dsn", "")

	v.SetDefault("metrics.port", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// New returns a viper instance with defaults and environment bindings.
// Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional names used by the search and LLM vendors.
	_ = v.BindEnv("serpapi_key", EnvPrefix+"_SERPAPI_KEY", "SERPAPI_KEY")
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("llm.gemini_api_key", EnvPrefix+"_LLM_GEMINI_API_KEY", "GEMINI_API_KEY")
	return v
}

// Load reads .env files, then file when set, and decodes v into a Config.
// A missing .env is ignored; a missing config file is an error.
func Load(v *viper.Viper, file string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Batch.Mode = strings.ToLower(strings.TrimSpace(c.Batch.Mode))
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-3.5-turbo"
		if c.LLM.Provider == "gemini" {
			c.LLM.Model = "gemini-2.0-flash"
		}
	}
}

// Validate checks the settings every command relies on. API keys are
// checked separately by ValidateKeys because report and history need none.
func (c *Config) Validate() error {
	if c.Batch.Mode != "basic" && c.Batch.Mode != "full" {
		return ErrInvalidMode
	}
	if c.Fetch.MinDelay > c.Fetch.MaxDelay {
		return ErrInvalidDelayRange
	}
	if c.Fetch.MinChars >= c.Fetch.MaxChars {
		return ErrInvalidCharRange
	}
	switch c.Storage.Driver {
	case "", "none":
	case "csv", "json", "sqlite", "postgres":
		if c.Storage.DSN == "" {
			return ErrMissingStorageDSN
		}
	default:
		return ErrInvalidStorageDriver
	}
	if c.LLM.Provider != "openai" && c.LLM.Provider != "gemini" {
		return ErrInvalidLLMProvider
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return ErrInvalidLogFormat
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ValidateKeys requires credentials for search and, when needLLM is set, the LLM provider.
func (c *Config) ValidateKeys(needLLM bool) error {
	if strings.TrimSpace(c.SerpAPIKey) == "" {
		return ErrMissingSerpAPIKey
	}
	if needLLM && strings.TrimSpace(c.LLM.Key()) == "" {
		return ErrMissingLLMKey
	}
	return nil
}

// ParseLevel maps a log.level value to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, ErrInvalidLogLevel
}
