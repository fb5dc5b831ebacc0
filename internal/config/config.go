package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Dataset sources.
const (
	SourceFile     = "file"
	SourceURL      = "url"
	SourcePostgres = "postgres"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Global configuration structure.
type Global struct {
	// Dataset
	DatasetSource string `mapstructure:"dataset_source" yaml:"dataset_source"`
	DatasetPath   string `mapstructure:"dataset_path" yaml:"dataset_path"`
	DatasetURL    string `mapstructure:"dataset_url" yaml:"dataset_url"`
	SheetName     string `mapstructure:"sheet_name" yaml:"sheet_name"`
	Delimiter     string `mapstructure:"delimiter" yaml:"delimiter"`
	PGDSN         string `mapstructure:"pg_dsn" yaml:"pg_dsn"`

	// Cache
	CacheBackend  string `mapstructure:"cache_backend" yaml:"cache_backend"`
	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db"`
	CacheTTLSec   int    `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec"`

	// Server
	ListenAddr      string `mapstructure:"listen_addr" yaml:"listen_addr"`
	RateLimitPerMin int    `mapstructure:"rate_limit_per_min" yaml:"rate_limit_per_min"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`
	MaxBodyMB        int `mapstructure:"max_body_mb" yaml:"max_body_mb"`

	ViewsDir  string `mapstructure:"views_dir" yaml:"views_dir"`
	ChromeBin string `mapstructure:"chrome_bin" yaml:"chrome_bin"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"dataset_source", "dataset_path", "dataset_url", "sheet_name", "delimiter", "pg_dsn",
	"cache_backend", "redis_addr", "redis_password", "redis_db", "cache_ttl_sec",
	"listen_addr", "rate_limit_per_min",
	"http_timeout_sec", "retry_max_attempts", "retry_base_delay_ms", "retry_max_delay_ms", "max_body_mb",
	"views_dir", "chrome_bin",
}

// secretKeys are masked by `config show`.
var secretKeys = map[string]bool{"pg_dsn": true, "redis_password": true}

// IsSecret reports whether key holds a credential.
func IsSecret(key string) bool { return secretKeys[key] }

// Dir returns ~/.rentdash.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".rentdash"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.rentdash/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
// A .env file in the working directory is applied to the environment first.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("RENTDASH")
	v.AutomaticEnv()

	v.SetDefault("dataset_source", SourceFile)
	v.SetDefault("dataset_path", "houses_to_rent_v2.csv")
	v.SetDefault("dataset_url", "")
	v.SetDefault("sheet_name", "")
	v.SetDefault("delimiter", "")
	v.SetDefault("pg_dsn", "")
	v.SetDefault("cache_backend", CacheMemory)
	v.SetDefault("redis_addr", "127.0.0.1:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("cache_ttl_sec", 0)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("rate_limit_per_min", 100)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("max_body_mb", 64)
	v.SetDefault("views_dir", "")
	v.SetDefault("chrome_bin", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.ViewsDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.ViewsDir = filepath.Join(dir, "views")
	}
	return &c, nil
}

// Validate checks enumerated and numeric settings.
func (c *Global) Validate() error {
	switch c.DatasetSource {
	case SourceFile, SourceURL, SourcePostgres:
	default:
		return fmt.Errorf("dataset_source must be one of file, url, postgres (got %q)", c.DatasetSource)
	}
	switch c.CacheBackend {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("cache_backend must be memory or redis (got %q)", c.CacheBackend)
	}
	if c.DatasetSource == SourceURL && strings.TrimSpace(c.DatasetURL) == "" {
		return fmt.Errorf("dataset_url is required when dataset_source is url")
	}
	if c.DatasetSource == SourcePostgres && strings.TrimSpace(c.PGDSN) == "" {
		return fmt.Errorf("pg_dsn is required when dataset_source is postgres")
	}
	if len([]rune(c.Delimiter)) > 1 && c.Delimiter != `\t` {
		return fmt.Errorf("delimiter must be a single character (got %q)", c.Delimiter)
	}
	if c.RateLimitPerMin < 0 || c.CacheTTLSec < 0 || c.MaxBodyMB < 0 || c.HTTPTimeoutSec < 0 {
		return fmt.Errorf("numeric settings must be non-negative")
	}
	return nil
}

// DelimiterRune returns the configured delimiter, or 0 to detect it.
func (c *Global) DelimiterRune() rune {
	if c.Delimiter == `\t` {
		return '\t'
	}
	r := []rune(c.Delimiter)
	if len(r) == 0 {
		return 0
	}
	return r[0]
}

// CacheTTL is the cache entry lifetime; zero means no expiry.
func (c *Global) CacheTTL() time.Duration { return time.Duration(c.CacheTTLSec) * time.Second }

// Get returns the string form of key, masking secrets when mask is set.
func (c *Global) Get(key string, mask bool) (string, error) {
	var val string
	switch key {
	case "dataset_source":
		val = c.DatasetSource
	case "dataset_path":
		val = c.DatasetPath
	case "dataset_url":
		val = c.DatasetURL
	case "sheet_name":
		val = c.SheetName
	case "delimiter":
		val = c.Delimiter
	case "pg_dsn":
		val = c.PGDSN
	case "cache_backend":
		val = c.CacheBackend
	case "redis_addr":
		val = c.RedisAddr
	case "redis_password":
		val = c.RedisPassword
	case "redis_db":
		val = fmt.Sprint(c.RedisDB)
	case "cache_ttl_sec":
		val = fmt.Sprint(c.CacheTTLSec)
	case "listen_addr":
		val = c.ListenAddr
	case "rate_limit_per_min":
		val = fmt.Sprint(c.RateLimitPerMin)
	case "http_timeout_sec":
		val = fmt.Sprint(c.HTTPTimeoutSec)
	case "retry_max_attempts":
		val = fmt.Sprint(c.RetryMaxAttempts)
	case "retry_base_delay_ms":
		val = fmt.Sprint(c.RetryBaseDelayMs)
	case "retry_max_delay_ms":
		val = fmt.Sprint(c.RetryMaxDelayMs)
	case "max_body_mb":
		val = fmt.Sprint(c.MaxBodyMB)
	case "views_dir":
		val = c.ViewsDir
	case "chrome_bin":
		val = c.ChromeBin
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
	if mask && IsSecret(key) && val != "" {
		return "********", nil
	}
	return val, nil
}

// Set assigns key from its string form.
func (c *Global) Set(key, value string) error {
	atoi := func() (int, error) {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer: %w", key, err)
		}
		return n, nil
	}
	var err error
	switch key {
	case "dataset_source":
		c.DatasetSource = strings.ToLower(value)
	case "dataset_path":
		c.DatasetPath = value
	case "dataset_url":
		c.DatasetURL = value
	case "sheet_name":
		c.SheetName = value
	case "delimiter":
		c.Delimiter = value
	case "pg_dsn":
		c.PGDSN = value
	case "cache_backend":
		c.CacheBackend = strings.ToLower(value)
	case "redis_addr":
		c.RedisAddr = value
	case "redis_password":
		c.RedisPassword = value
	case "redis_db":
		c.RedisDB, err = atoi()
	case "cache_ttl_sec":
		c.CacheTTLSec, err = atoi()
	case "listen_addr":
		c.ListenAddr = value
	case "rate_limit_per_min":
		c.RateLimitPerMin, err = atoi()
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi()
	case "retry_max_attempts":
		c.RetryMaxAttempts, err = atoi()
	case "retry_base_delay_ms":
		c.RetryBaseDelayMs, err = atoi()
	case "retry_max_delay_ms":
		c.RetryMaxDelayMs, err = atoi()
	case "max_body_mb":
		c.MaxBodyMB, err = atoi()
	case "views_dir":
		c.ViewsDir = value
	case "chrome_bin":
		c.ChromeBin = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return err
}
