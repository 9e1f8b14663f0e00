package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/yumetolab/yumeji/internal/logging"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Airtable   AirtableConfig    `yaml:"airtable"`
	Cache      CacheConfig       `yaml:"cache"`
	Snapshot   SnapshotConfig    `yaml:"snapshot"`
	Fixtures   FixturesConfig    `yaml:"fixtures"`
	Site       SiteConfig        `yaml:"site"`
	Revalidate RevalidateConfig  `yaml:"revalidate"`
	Valkey     ValkeyConfig      `yaml:"valkey"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Airtable.Validate(); err != nil {
		return err
	}
	return c.Cache.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = logging.FormatJSON
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(logging.FormatJSON, logging.FormatConsole)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// AirtableConfig holds record-store connection settings. BaseID and
// APIKey are normally injected through environment expansion; both
// empty means fixture-only operation, which is valid for development.
type AirtableConfig struct {
	BaseURL        string       `yaml:"base_url"`
	BaseID         string       `yaml:"base_id"`
	APIKey         string       `yaml:"api_key"`
	TimeoutSeconds int          `yaml:"timeout_seconds"`
	Tables         TablesConfig `yaml:"tables"`
}

// TablesConfig overrides the store table names.
type TablesConfig struct {
	Keywords   string `yaml:"keywords"`
	Categories string `yaml:"categories"`
	Guides     string `yaml:"guides"`
	Affiliate  string `yaml:"affiliate"`
}

// Validate validates the store configuration.
func (c *AirtableConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.TimeoutSeconds, validation.Min(0)),
	); err != nil {
		return err
	}
	if (c.BaseID == "") != (c.APIKey == "") {
		return fmt.Errorf("airtable: base_id and api_key must be set together")
	}
	return nil
}

// Timeout returns the per-request timeout.
func (c *AirtableConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheConfig holds cache TTLs in seconds.
type CacheConfig struct {
	CategoryTTLSeconds int `yaml:"category_ttl_seconds"`
	PageTTLSeconds     int `yaml:"page_ttl_seconds"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CategoryTTLSeconds, validation.Min(0)),
		validation.Field(&c.PageTTLSeconds, validation.Min(0)),
	)
}

// CategoryTTL returns the category cache window.
func (c *CacheConfig) CategoryTTL() time.Duration {
	if c.CategoryTTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.CategoryTTLSeconds) * time.Second
}

// PageTTL returns the composed-page cache window.
func (c *CacheConfig) PageTTL() time.Duration {
	if c.PageTTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.PageTTLSeconds) * time.Second
}

// SnapshotConfig holds the optional SQLite snapshot path. Empty
// disables snapshotting.
type SnapshotConfig struct {
	Path string `yaml:"path"`
}

// FixturesConfig holds the optional fixture override file. When set,
// the file replaces the embedded dataset and is hot-reloaded on change.
type FixturesConfig struct {
	Path string `yaml:"path"`
}

// SiteConfig holds the public origin used for generated URLs.
type SiteConfig struct {
	BaseURL      string `yaml:"base_url"`
	PopularLimit int    `yaml:"popular_limit"`
}

// RevalidateConfig guards the cache-invalidation webhook. An empty
// token disables the check (development mode).
type RevalidateConfig struct {
	Token string `yaml:"token"`
}

// ValkeyConfig selects the shared view cache. Empty address keeps the
// in-process cache.
type ValkeyConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: logging.FormatJSON,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Cache: CacheConfig{
			CategoryTTLSeconds: 3600,
			PageTTLSeconds:     3600,
		},
		Site: SiteConfig{
			PopularLimit: 8,
		},
	}
}
