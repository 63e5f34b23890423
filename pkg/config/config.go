package config

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"time"

	"github.com/spf13/viper"
	"github.com/user/sitesearch/internal/entity"
	"github.com/user/sitesearch/pkg/utils"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"
)

// Config holds the application configuration.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	SQLitePath    string `mapstructure:"SQLITE_PATH"`

	PostgresHost     string `mapstructure:"POSTGRES_HOST"`
	PostgresPort     string `mapstructure:"POSTGRES_PORT"`
	PostgresUser     string `mapstructure:"POSTGRES_USER"`
	PostgresPassword string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDB       string `mapstructure:"POSTGRES_DB"`

	// An empty RedisAddr selects the in-memory visited set and queue.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	UserAgent              string `mapstructure:"USER_AGENT"`
	Referrer               string `mapstructure:"REFERRER"`
	CrawlDelayMS           int    `mapstructure:"CRAWL_DELAY_MS"`
	FetchMode              string `mapstructure:"FETCH_MODE"`
	RespectRobots          bool   `mapstructure:"RESPECT_ROBOTS"`
	PageLoadTimeoutSeconds int    `mapstructure:"PAGE_LOAD_TIMEOUT_SECONDS"`
	MaxConcurrency         int    `mapstructure:"MAX_CONCURRENCY"`

	SitesConfig string              `mapstructure:"SITES_CONFIG"`
	Sites       []entity.SiteConfig `mapstructure:"-"`
}

// Load reads scalar settings from the environment (and an optional .env
// file) and the site list from the YAML file named by SITES_CONFIG.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// A missing .env is fine; the environment alone is enough.
	_ = v.ReadInConfig()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORAGE_DRIVER", DriverSQLite)
	v.SetDefault("SQLITE_PATH", "search.db")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "user")
	v.SetDefault("POSTGRES_PASSWORD", "password")
	v.SetDefault("POSTGRES_DB", "search")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("USER_AGENT", "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:92.0) Gecko/20100101 Firefox/92.0")
	v.SetDefault("REFERRER", "https://www.google.com")
	v.SetDefault("CRAWL_DELAY_MS", 500)
	v.SetDefault("FETCH_MODE", FetchModeHTTP)
	v.SetDefault("RESPECT_ROBOTS", true)
	v.SetDefault("PAGE_LOAD_TIMEOUT_SECONDS", 30)
	v.SetDefault("MAX_CONCURRENCY", 0)
	v.SetDefault("SITES_CONFIG", "config.yaml")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	sites, err := LoadSites(cfg.SitesConfig)
	if err != nil {
		return nil, err
	}
	cfg.Sites = sites

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadSites reads the `sites` list from a YAML file. A missing file yields
// an empty list. URLs are returned without trailing slashes.
func LoadSites(path string) ([]entity.SiteConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sites config %s: %w", path, err)
	}

	var sites []entity.SiteConfig
	if err := v.UnmarshalKey("sites", &sites); err != nil {
		return nil, fmt.Errorf("failed to decode sites: %w", err)
	}
	out := sites[:0]
	for _, s := range sites {
		s.URL = utils.NormalizeSiteURL(s.URL)
		if s.URL == "" {
			continue
		}
		if s.Name == "" {
			s.Name = s.URL
		}
		out = append(out, s)
	}
	return out, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.FetchMode {
	case FetchModeHTTP, FetchModeBrowser:
	default:
		return fmt.Errorf("unsupported FETCH_MODE %q", c.FetchMode)
	}
	if c.CrawlDelayMS < 0 {
		return fmt.Errorf("CRAWL_DELAY_MS must not be negative")
	}
	return nil
}

// Concurrency is MAX_CONCURRENCY, or a quarter of the CPUs (at least one)
// when unset.
func (c *Config) Concurrency() int {
	if c.MaxConcurrency > 0 {
		return c.MaxConcurrency
	}
	return max(1, runtime.NumCPU()/4)
}

func (c *Config) CrawlDelay() time.Duration {
	return time.Duration(c.CrawlDelayMS) * time.Millisecond
}

func (c *Config) PageLoadTimeout() time.Duration {
	return time.Duration(c.PageLoadTimeoutSeconds) * time.Second
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB)
}
