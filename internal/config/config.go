// Package config loads fieldbook settings from an optional config file and
// FIELDBOOK_ environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"fieldbook/internal/kv"
	"fieldbook/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. FIELDBOOK_STORAGE_DRIVER.
const EnvPrefix = "FIELDBOOK"

// Config holds all fieldbook configuration
type Config struct {
	Storage StorageConfig
	Remote  RemoteConfig
	Log     LogConfig
	Server  ServerConfig
	Metrics MetricsConfig
}

// StorageConfig selects the local key-value driver.
type StorageConfig struct {
	Driver      string // memory, fs, sqlite, postgres, s3, redis
	FSRoot      string
	SQLitePath  string
	PostgresDSN string
	S3          S3Config
	Redis       RedisConfig
}

// S3Config holds bucket settings for the s3 driver
type S3Config struct {
	Region          string
	Bucket          string
	Prefix          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	PathStyle       bool
}

// RedisConfig holds connection settings for the redis driver
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RemoteConfig locates the REST table backend. An empty BaseURL means the
// local store is used.
type RemoteConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// ServerConfig configures serve-tables.
type ServerConfig struct {
	Addr   string
	APIKey string
}

// MetricsConfig selects how service operations are measured. Textfile, when
// set, receives the metrics once a command finishes; TraceFile receives one
// JSON line per service operation.
type MetricsConfig struct {
	Exporter  string // prometheus, expvar, none
	Namespace string
	Textfile  string
	TraceFile string
}

// Metrics exporters.
const (
	ExporterPrometheus = "prometheus"
	ExporterExpvar     = "expvar"
	ExporterNone       = "none"
)

// Load reads configuration with the following priority (highest first):
//  1. Environment variables with the FIELDBOOK_ prefix
//  2. The config file: path when given, otherwise fieldbook.{yaml,toml,json}
//     in the working directory or the user config directory
//  3. Built-in defaults
//
// An explicit path that does not exist is an error; a missing searched file
// is not.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fieldbook")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "fieldbook"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Storage: StorageConfig{
			Driver:      v.GetString("storage.driver"),
			FSRoot:      v.GetString("storage.fs_root"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
			S3: S3Config{
				Region:          v.GetString("storage.s3.region"),
				Bucket:          v.GetString("storage.s3.bucket"),
				Prefix:          v.GetString("storage.s3.prefix"),
				Endpoint:        v.GetString("storage.s3.endpoint"),
				AccessKeyID:     v.GetString("storage.s3.access_key_id"),
				SecretAccessKey: v.GetString("storage.s3.secret_access_key"),
				SessionToken:    v.GetString("storage.s3.session_token"),
				PathStyle:       v.GetBool("storage.s3.path_style"),
			},
			Redis: RedisConfig{
				Addr:      v.GetString("storage.redis.addr"),
				Password:  v.GetString("storage.redis.password"),
				DB:        v.GetInt("storage.redis.db"),
				KeyPrefix: v.GetString("storage.redis.key_prefix"),
			},
		},
		Remote: RemoteConfig{
			BaseURL: v.GetString("remote.base_url"),
			APIKey:  v.GetString("remote.api_key"),
			Timeout: v.GetDuration("remote.timeout"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Server: ServerConfig{
			Addr:   v.GetString("server.addr"),
			APIKey: v.GetString("server.api_key"),
		},
		Metrics: MetricsConfig{
			Exporter:  v.GetString("metrics.exporter"),
			Namespace: v.GetString("metrics.namespace"),
			Textfile:  v.GetString("metrics.textfile"),
			TraceFile: v.GetString("metrics.trace_file"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = string(kv.DriverFilesystem)
	}
	if cfg.Storage.FSRoot == "" {
		cfg.Storage.FSRoot = "./fieldbook-data"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "./fieldbook-data/fieldbook.db"
	}
	if cfg.Storage.Redis.Addr == "" {
		cfg.Storage.Redis.Addr = "localhost:6379"
	}
	if cfg.Remote.Timeout == 0 {
		cfg.Remote.Timeout = 15 * time.Second
	}

	defaults := logging.DefaultConfig()
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Format
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = defaults.Output
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8787"
	}
	cfg.Metrics.Exporter = strings.ToLower(strings.TrimSpace(cfg.Metrics.Exporter))
	if cfg.Metrics.Exporter == "" {
		cfg.Metrics.Exporter = ExporterPrometheus
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "fieldbook"
	}
}

func (c *Config) validate() error {
	if !slices.Contains(kv.Drivers, kv.Driver(c.Storage.Driver)) {
		return fmt.Errorf("storage.driver %q is not one of %v", c.Storage.Driver, kv.Drivers)
	}
	switch kv.Driver(c.Storage.Driver) {
	case kv.DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres driver")
		}
	case kv.DriverS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 driver")
		}
	}
	if c.Storage.Redis.DB < 0 {
		return fmt.Errorf("storage.redis.db cannot be negative")
	}

	if c.Remote.Timeout < 0 {
		return fmt.Errorf("remote.timeout cannot be negative")
	}
	if c.Remote.BaseURL != "" {
		u, err := url.ParseRequestURI(c.Remote.BaseURL)
		if err != nil || u.Host == "" {
			return fmt.Errorf("remote.base_url %q is not an absolute URL", c.Remote.BaseURL)
		}
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}

	switch c.Metrics.Exporter {
	case ExporterPrometheus, ExporterExpvar, ExporterNone:
	default:
		return fmt.Errorf("metrics.exporter must be prometheus, expvar or none, got %q", c.Metrics.Exporter)
	}
	return nil
}

// KV converts the storage section into the kv factory configuration.
func (c *Config) KV() kv.Config {
	return kv.Config{
		Driver:      kv.Driver(c.Storage.Driver),
		FSRoot:      c.Storage.FSRoot,
		SQLitePath:  c.Storage.SQLitePath,
		PostgresDSN: c.Storage.PostgresDSN,
		S3: kv.S3Config{
			Region:          c.Storage.S3.Region,
			Bucket:          c.Storage.S3.Bucket,
			Prefix:          c.Storage.S3.Prefix,
			Endpoint:        c.Storage.S3.Endpoint,
			AccessKeyID:     c.Storage.S3.AccessKeyID,
			SecretAccessKey: c.Storage.S3.SecretAccessKey,
			SessionToken:    c.Storage.S3.SessionToken,
			PathStyle:       c.Storage.S3.PathStyle,
		},
		Redis: kv.RedisConfig{
			Addr:      c.Storage.Redis.Addr,
			Password:  c.Storage.Redis.Password,
			DB:        c.Storage.Redis.DB,
			KeyPrefix: c.Storage.Redis.KeyPrefix,
		},
	}
}

// Logging converts the log section into a logger configuration.
func (c *Config) Logging() logging.Config {
	out := logging.DefaultConfig()
	out.Level = c.Log.Level
	out.Format = c.Log.Format
	out.Output = c.Log.Output
	return out
}

// UsesRemote reports whether a remote backend is configured.
func (c *Config) UsesRemote() bool {
	return c.Remote.BaseURL != ""
}
