// Package config loads service configuration from config.yaml, .env and the
// environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Application ApplicationConfig `mapstructure:"application"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Extraction  ExtractionConfig  `mapstructure:"extraction"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Database    DatabaseConfig    `mapstructure:"database"`
}

type ApplicationConfig struct {
	Name     string `mapstructure:"name"`
	Version  string `mapstructure:"version"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// Addr returns the listen address for the HTTP server.
func (c *ApplicationConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SlogLevel maps LogLevel onto a slog level. Unknown names mean info.
func (c *ApplicationConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

type StorageConfig struct {
	UploadDir    string `mapstructure:"upload_dir"`
	SniffContent bool   `mapstructure:"sniff_content"`
}

type ExtractionConfig struct {
	TagsFile         string `mapstructure:"tags_file"`
	WatchTags        bool   `mapstructure:"watch_tags"`
	MaxDocumentBytes int64  `mapstructure:"max_document_bytes"`
	NormalizeUnicode bool   `mapstructure:"normalize_unicode"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Size    int           `mapstructure:"size"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Options  string `mapstructure:"options"`
}

// GetConnectStr returns URL when set, otherwise a postgres URL assembled
// from the individual fields. User and password are escaped.
func (c *DatabaseConfig) GetConnectStr() string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	host := c.Host
	if c.Port != "" {
		host = net.JoinHostPort(c.Host, c.Port)
	}
	query := url.Values{"sslmode": {sslmode}}
	if c.Options != "" {
		query.Set("options", c.Options)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     host,
		Path:     "/" + c.DBName,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// Load reads configuration. path names a YAML config file; when empty,
// config.yaml in the working directory is used if present. A .env file in
// the working directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	explicit := path != ""
	if !explicit {
		path = "config.yaml"
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Environment variable mappings
	mappings := []struct {
		key, env string
	}{
		{"application.host", "HOST"},
		{"application.port", "PORT"},
		{"application.log_level", "LOG_LEVEL"},

		// Storage
		{"storage.upload_dir", "UPLOAD_DIR"},
		{"storage.sniff_content", "SLIDETAG_SNIFF_CONTENT"},

		// Extraction
		{"extraction.tags_file", "SLIDETAG_TAGS_FILE"},
		{"extraction.watch_tags", "SLIDETAG_WATCH_TAGS"},
		{"extraction.max_document_bytes", "SLIDETAG_MAX_DOCUMENT_BYTES"},
		{"extraction.normalize_unicode", "SLIDETAG_NORMALIZE_UNICODE"},

		// Cache
		{"cache.enabled", "SLIDETAG_CACHE_ENABLED"},
		{"cache.size", "SLIDETAG_CACHE_SIZE"},
		{"cache.ttl", "SLIDETAG_CACHE_TTL"},

		// Database
		{"database.enabled", "DB_ENABLED"},
		{"database.url", "DB_URL"},
		{"database.host", "PG_HOST"},
		{"database.port", "PG_PORT"},
		{"database.user", "PG_USER"},
		{"database.password", "PG_PASSWORD"},
		{"database.dbname", "PG_DB"},
		{"database.sslmode", "PG_SSLMODE"},
		{"database.options", "PG_OPTIONS"},
	}

	for _, m := range mappings {
		if err := v.BindEnv(m.key, m.env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", m.env, err)
		}
	}

	// Defaults
	v.SetDefault("application.name", "slidetag")
	v.SetDefault("application.host", "")
	v.SetDefault("application.port", 8080)
	v.SetDefault("application.log_level", "info")
	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.sniff_content", false)
	v.SetDefault("extraction.watch_tags", true)
	v.SetDefault("extraction.max_document_bytes", 64<<20)
	v.SetDefault("extraction.normalize_unicode", false)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.size", 128)
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.port", "5432")

	if err := v.ReadInConfig(); err != nil {
		// config.yaml is optional unless asked for by name
		if explicit || !isNotExist(err) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if c.Application.Port < 0 || c.Application.Port > 65535 {
		return fmt.Errorf("config: application.port %d out of range", c.Application.Port)
	}
	if c.Storage.UploadDir == "" {
		return errors.New("config: storage.upload_dir is empty")
	}
	if c.Extraction.MaxDocumentBytes < 0 {
		return errors.New("config: extraction.max_document_bytes is negative")
	}
	if c.Cache.Enabled && c.Cache.Size <= 0 {
		return errors.New("config: cache.size must be positive when the cache is enabled")
	}
	return nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}
