// Package config loads layered fedgraph configuration.
//
// Configuration is assembled from four layers, later layers winning:
//
//  1. compiled defaults
//  2. ~/.fedgraph/config.toml (user-global)
//  3. ./.fedgraph/config.toml (per-project)
//  4. FEDGRAPH_* environment variables
//
// Missing files are not errors; malformed files and invalid values are.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrInvalidConfig is returned when a configuration value fails validation.
// The wrapping message names the offending key.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full fedgraph configuration tree.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Mongo   MongoConfig   `toml:"mongo"`
	Cache   CacheConfig   `toml:"cache"`
	Redis   RedisConfig   `toml:"redis"`
	API     APIConfig     `toml:"api"`
	Render  RenderConfig  `toml:"render"`
	Log     LogConfig     `toml:"log"`
}

// StorageConfig selects and parameterizes the graph store backend.
type StorageConfig struct {
	// Backend is "file" or "mongo".
	Backend string `toml:"backend"`

	// Dir is the file store's base directory. Empty means ~/.fedgraph.
	Dir string `toml:"dir"`

	// DefaultGraph is the graph name commands operate on when --graph is
	// not given.
	DefaultGraph string `toml:"default_graph"`
}

// MongoConfig parameterizes the MongoDB store backend.
type MongoConfig struct {
	URI      string   `toml:"uri"`
	Database string   `toml:"database"`
	Timeout  duration `toml:"timeout"`
}

// CacheConfig selects and parameterizes the artifact cache backend.
type CacheConfig struct {
	// Backend is "file", "redis", or "null".
	Backend string `toml:"backend"`

	// Dir is the file cache directory. Empty means the XDG cache dir.
	Dir string `toml:"dir"`

	// TTL bounds entry lifetime; zero means no expiration.
	TTL duration `toml:"ttl"`
}

// RedisConfig parameterizes the Redis cache backend.
type RedisConfig struct {
	// URL is a redis:// connection URL.
	URL string `toml:"url"`
}

// APIConfig parameterizes the HTTP API server.
type APIConfig struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  duration `toml:"read_timeout"`
	WriteTimeout duration `toml:"write_timeout"`
}

// RenderConfig holds rendering defaults.
type RenderConfig struct {
	// Format is the default output format: "dot", "svg", or "png".
	Format string `toml:"format"`

	// Direction is the default graphviz rank direction: "TB" or "LR".
	Direction string `toml:"direction"`
}

// LogConfig holds logging defaults.
type LogConfig struct {
	// Level is "debug", "info", "warn", or "error".
	Level string `toml:"level"`
}

// duration decodes TOML strings like "30s" into a time.Duration.
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// Value returns the wrapped time.Duration.
func (d duration) Value() time.Duration { return time.Duration(d) }

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Backend:      "file",
			DefaultGraph: "default",
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "fedgraph",
			Timeout:  duration(10 * time.Second),
		},
		Cache: CacheConfig{
			Backend: "file",
			TTL:     duration(24 * time.Hour),
		},
		Redis: RedisConfig{
			URL: "redis://localhost:6379/0",
		},
		API: APIConfig{
			Addr:         ":8080",
			ReadTimeout:  duration(15 * time.Second),
			WriteTimeout: duration(30 * time.Second),
		},
		Render: RenderConfig{
			Format:    "svg",
			Direction: "TB",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load assembles the configuration for the working directory cwd.
// An empty cwd means the current directory.
func Load(cwd string) (Config, error) {
	cfg := Default()

	if home, err := os.UserHomeDir(); err == nil {
		if err := mergeFile(&cfg, filepath.Join(home, ".fedgraph", "config.toml")); err != nil {
			return Config{}, err
		}
	}

	if cwd == "" {
		cwd = "."
	}
	if err := mergeFile(&cfg, filepath.Join(cwd, ".fedgraph", "config.toml")); err != nil {
		return Config{}, err
	}

	mergeEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeFile decodes path over cfg. A missing file is not an error.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

// Environment variable names recognized by mergeEnv.
const (
	envStorageBackend = "FEDGRAPH_STORAGE_BACKEND"
	envStorageDir     = "FEDGRAPH_STORAGE_DIR"
	envDefaultGraph   = "FEDGRAPH_DEFAULT_GRAPH"
	envMongoURI       = "FEDGRAPH_MONGO_URI"
	envMongoDatabase  = "FEDGRAPH_MONGO_DATABASE"
	envCacheBackend   = "FEDGRAPH_CACHE_BACKEND"
	envCacheDir       = "FEDGRAPH_CACHE_DIR"
	envCacheTTL       = "FEDGRAPH_CACHE_TTL"
	envRedisURL       = "FEDGRAPH_REDIS_URL"
	envAPIAddr        = "FEDGRAPH_API_ADDR"
	envLogLevel       = "FEDGRAPH_LOG_LEVEL"
)

func mergeEnv(cfg *Config) {
	setString(&cfg.Storage.Backend, envStorageBackend)
	setString(&cfg.Storage.Dir, envStorageDir)
	setString(&cfg.Storage.DefaultGraph, envDefaultGraph)
	setString(&cfg.Mongo.URI, envMongoURI)
	setString(&cfg.Mongo.Database, envMongoDatabase)
	setString(&cfg.Cache.Backend, envCacheBackend)
	setString(&cfg.Cache.Dir, envCacheDir)
	setDuration(&cfg.Cache.TTL, envCacheTTL)
	setString(&cfg.Redis.URL, envRedisURL)
	setString(&cfg.API.Addr, envAPIAddr)
	setString(&cfg.Log.Level, envLogLevel)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setDuration(dst *duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = duration(d)
		return
	}
	// Bare numbers are treated as seconds.
	if secs, err := strconv.Atoi(v); err == nil {
		*dst = duration(time.Duration(secs) * time.Second)
	}
}

// Validate checks every section and returns the first violation found,
// naming the offending key.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case "file", "mongo":
	default:
		return fmt.Errorf("%w: storage.backend must be file or mongo, got %q", ErrInvalidConfig, c.Storage.Backend)
	}
	switch c.Cache.Backend {
	case "file", "redis", "null":
	default:
		return fmt.Errorf("%w: cache.backend must be file, redis, or null, got %q", ErrInvalidConfig, c.Cache.Backend)
	}
	if c.Storage.DefaultGraph == "" {
		return fmt.Errorf("%w: storage.default_graph must not be empty", ErrInvalidConfig)
	}
	if c.Storage.Backend == "mongo" {
		if c.Mongo.URI == "" {
			return fmt.Errorf("%w: mongo.uri must not be empty when storage.backend is mongo", ErrInvalidConfig)
		}
		if c.Mongo.Database == "" {
			return fmt.Errorf("%w: mongo.database must not be empty when storage.backend is mongo", ErrInvalidConfig)
		}
	}
	if c.Cache.Backend == "redis" && c.Redis.URL == "" {
		return fmt.Errorf("%w: redis.url must not be empty when cache.backend is redis", ErrInvalidConfig)
	}
	switch c.Render.Format {
	case "dot", "svg", "png":
	default:
		return fmt.Errorf("%w: render.format must be dot, svg, or png, got %q", ErrInvalidConfig, c.Render.Format)
	}
	switch c.Render.Direction {
	case "TB", "LR":
	default:
		return fmt.Errorf("%w: render.direction must be TB or LR, got %q", ErrInvalidConfig, c.Render.Direction)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level must be debug, info, warn, or error, got %q", ErrInvalidConfig, c.Log.Level)
	}
	return nil
}
