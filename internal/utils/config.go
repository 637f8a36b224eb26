package utils

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when CONFIG_PATH is not set.
const DefaultConfigPath = "config/config.yaml"

// PostgresConfig describes the token database used by the web front-end.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// Config is the complete application configuration.
type Config struct {
	Doppio struct {
		APIURL    string        `yaml:"api_url"`
		Timeout   time.Duration `yaml:"timeout"`
		APIKeyEnv string        `yaml:"api_key_env"`
		EnvFile   string        `yaml:"env_file"`
	} `yaml:"doppio"`

	Paths struct {
		TemplateDir string `yaml:"template_dir"`
		OutputDir   string `yaml:"output_dir"`
	} `yaml:"paths"`

	PDF struct {
		DefaultFormat   string `yaml:"default_format"`
		PrintBackground *bool  `yaml:"print_background"`
		WaitUntil       string `yaml:"wait_until"`
	} `yaml:"pdf"`

	Batch struct {
		Workers int `yaml:"workers"`
	} `yaml:"batch"`

	Server struct {
		Host        string `yaml:"host"`
		Port        string `yaml:"port"`
		Prefork     bool   `yaml:"prefork"`
		BodyLimitMB int    `yaml:"body_limit_mb"`
	} `yaml:"server"`

	Logger struct {
		File       string `yaml:"file"`
		Level      string `yaml:"level"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logger"`

	Cache struct {
		PDFCacheEnabled bool          `yaml:"pdf_cache_enabled"`
		PDFCacheTTL     time.Duration `yaml:"pdf_cache_ttl"`
		RedisHost       string        `yaml:"redis_host"`
		PDFCacheDB      int           `yaml:"redis_pdf_db"`
		RateLimitDB     int           `yaml:"redis_rate_db"`
	} `yaml:"cache"`

	Auth struct {
		Enabled        bool           `yaml:"enabled"`
		ReloadInterval time.Duration  `yaml:"reload_interval"`
		Postgres       PostgresConfig `yaml:"postgres"`
	} `yaml:"auth"`

	RateLimiter struct {
		Interval          time.Duration `yaml:"interval"`
		UserLimit         int           `yaml:"user_limit"`
		EnableUserLimiter bool          `yaml:"enable_user_limiter"`
	} `yaml:"rate_limiter"`
}

// PrintBackground reports the configured print_background value (default true).
func (c Config) PrintBackground() bool {
	if c.PDF.PrintBackground == nil {
		return true
	}
	return *c.PDF.PrintBackground
}

// BodyLimitBytes returns the request body cap of the web front-end.
func (c Config) BodyLimitBytes() int {
	return c.Server.BodyLimitMB * 1024 * 1024
}

// Defaults returns the built-in configuration used when no file is present.
func Defaults() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Doppio.APIURL == "" {
		cfg.Doppio.APIURL = "https://api.doppio.sh/v1/render/pdf/direct"
	}
	if cfg.Doppio.Timeout == 0 {
		cfg.Doppio.Timeout = 60 * time.Second
	}
	if cfg.Doppio.APIKeyEnv == "" {
		cfg.Doppio.APIKeyEnv = "DOPPIO_API_KEY"
	}
	if cfg.Doppio.EnvFile == "" {
		cfg.Doppio.EnvFile = ".env"
	}
	if cfg.Paths.TemplateDir == "" {
		cfg.Paths.TemplateDir = "src"
	}
	if cfg.Paths.OutputDir == "" {
		cfg.Paths.OutputDir = "output"
	}
	if cfg.PDF.DefaultFormat == "" {
		cfg.PDF.DefaultFormat = "A4"
	}
	if cfg.Batch.Workers == 0 {
		cfg.Batch.Workers = 1
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":5000"
	}
	if cfg.Server.BodyLimitMB == 0 {
		cfg.Server.BodyLimitMB = 16
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Cache.PDFCacheTTL == 0 {
		cfg.Cache.PDFCacheTTL = 24 * time.Hour
	}
	if cfg.Auth.ReloadInterval == 0 {
		cfg.Auth.ReloadInterval = time.Minute
	}
	if cfg.RateLimiter.Interval == 0 {
		cfg.RateLimiter.Interval = time.Minute
	}
}

func validate(cfg Config) error {
	u, err := url.Parse(cfg.Doppio.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("doppio.api_url must be an absolute http(s) URL, got %q", cfg.Doppio.APIURL)
	}
	if cfg.Doppio.Timeout < 0 {
		return errors.New("doppio.timeout must be positive")
	}
	if cfg.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be >= 1, got %d", cfg.Batch.Workers)
	}
	if cfg.Server.BodyLimitMB < 0 {
		return errors.New("server.body_limit_mb must not be negative")
	}
	if cfg.RateLimiter.UserLimit < 0 {
		return errors.New("rate_limiter.user_limit must not be negative")
	}
	if cfg.RateLimiter.Interval < 0 {
		return errors.New("rate_limiter.interval must be positive")
	}
	if cfg.Auth.Enabled && cfg.Auth.Postgres.Host == "" {
		return errors.New("auth.postgres.host is required when auth is enabled")
	}
	return nil
}

// LoadFrom reads the YAML file at path. It panics on unreadable, malformed
// or invalid configuration; the process cannot do anything useful without it.
func LoadFrom(path string) Config {
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("read config %s: %v", path, err))
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		panic(fmt.Sprintf("parse config %s: %v", path, err))
	}
	applyDefaults(&cfg)
	if err := validate(cfg); err != nil {
		panic(fmt.Sprintf("invalid config %s: %v", path, err))
	}
	return cfg
}

// ConfigPath resolves the configuration file to read. An empty result means
// no file was found and defaults apply.
func ConfigPath() string {
	if p := strings.TrimSpace(os.Getenv("CONFIG_PATH")); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return DefaultConfigPath
	}
	return ""
}

// LoadConfig loads the configuration from CONFIG_PATH, the default path, or
// falls back to the built-in defaults.
func LoadConfig() Config {
	path := ConfigPath()
	if path == "" {
		return Defaults()
	}
	return LoadFrom(path)
}
