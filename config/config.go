// Package config provides configuration management for the meetscribe server.
// It supports loading configuration from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultListenAddr         = ":8080"
	DefaultMongoURI           = "mongodb://localhost:27017"
	DefaultMongoDatabase      = "speaker_db"
	DefaultRedisHost          = "localhost"
	DefaultRedisPort          = 6379
	DefaultStoragePath        = "/app/storage"
	DefaultStreamPollInterval = time.Second
	DefaultShutdownTimeout    = 15 * time.Second
)

// MongoConfig holds document store connection settings.
type MongoConfig struct {
	// URI is the MongoDB connection string.
	URI string `yaml:"uri"`

	// Database is the database name holding all collections.
	Database string `yaml:"database"`

	// ConnectTimeout bounds the initial connection and ping.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// RedisConfig holds event bus connection settings.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// Enabled toggles event publishing. When false the server runs without
	// a Redis connection and job events are not published.
	Enabled bool `yaml:"enabled"`
}

// Addr returns the host:port address for the Redis client.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Config is the full server configuration.
type Config struct {
	// ListenAddr is the HTTP listen address (host:port).
	ListenAddr string `yaml:"listen_addr"`

	// StoragePath is the root directory for stored audio files.
	StoragePath string `yaml:"storage_path"`

	// StreamPollInterval is the job progress stream polling interval.
	StreamPollInterval time.Duration `yaml:"stream_poll_interval"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	Mongo MongoConfig `yaml:"mongo"`
	Redis RedisConfig `yaml:"redis"`
	Log   LogConfig   `yaml:"log"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		ListenAddr:         DefaultListenAddr,
		StoragePath:        DefaultStoragePath,
		StreamPollInterval: DefaultStreamPollInterval,
		ShutdownTimeout:    DefaultShutdownTimeout,
		Mongo: MongoConfig{
			URI:            DefaultMongoURI,
			Database:       DefaultMongoDatabase,
			ConnectTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			Host:    DefaultRedisHost,
			Port:    DefaultRedisPort,
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the given YAML file (if path is non-empty),
// then applies environment variable overrides on top of defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config values from environment variables.
// Environment variables:
//   - MEETSCRIBE_LISTEN_ADDR: HTTP listen address
//   - MEETSCRIBE_STORAGE_PATH: audio storage root
//   - MONGODB_URI: MongoDB connection string
//   - MONGODB_DATABASE: database name
//   - REDIS_HOST, REDIS_PORT, REDIS_PASSWORD, REDIS_DB: event bus connection
//   - LOG_LEVEL, LOG_JSON: logging settings
func (c *Config) applyEnv() {
	if v := os.Getenv("MEETSCRIBE_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("MEETSCRIBE_STORAGE_PATH"); v != "" {
		c.StoragePath = v
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		c.Mongo.URI = v
	}
	if v := os.Getenv("MONGODB_DATABASE"); v != "" {
		c.Mongo.Database = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Redis.Port = p
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if d, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = d
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_JSON"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Log.JSON = b
		}
	}
}

// Validate checks that the config has required fields set.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.StoragePath == "" {
		return fmt.Errorf("storage path is required")
	}
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo URI is required")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("mongo database is required")
	}
	if c.StreamPollInterval <= 0 {
		return fmt.Errorf("stream poll interval must be positive")
	}
	if c.Redis.Enabled {
		if c.Redis.Host == "" {
			return fmt.Errorf("redis host is required when redis is enabled")
		}
		if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
			return fmt.Errorf("invalid redis port: %d", c.Redis.Port)
		}
	}
	return nil
}
