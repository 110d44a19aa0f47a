// Package config loads application settings: an optional YAML file, then
// AUGMENT__ environment variables, then defaults for anything still unset.
//
//	AUGMENT__CACHE__BACKEND=redis
//	AUGMENT__REDIS__ADDR=redis:6379
//	AUGMENT__SERVER__ADDR=:9090
package config

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/matzehuels/augment/pkg/cache"
	"github.com/matzehuels/augment/pkg/errors"
)

// AppName names the config and cache directories.
const AppName = "augment"

// EnvPrefix is the prefix of environment overrides. Nested keys are joined
// with a double underscore.
const EnvPrefix = "AUGMENT__"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

type CacheConfig struct {
	Backend string `koanf:"backend" validate:"oneof=file redis mongo none"`
	Dir     string `koanf:"dir"`
	// Prefix scopes every key, so several datasets can share one backend.
	Prefix string `koanf:"prefix"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0"`
}

type MongoConfig struct {
	URI        string `koanf:"uri"`
	Database   string `koanf:"database"`
	Collection string `koanf:"collection"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	Metrics         bool          `koanf:"metrics"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

type RunnerConfig struct {
	Workers int    `koanf:"workers" validate:"gte=0"`
	Seed    uint64 `koanf:"seed"`
}

// Config is the full settings tree.
type Config struct {
	Log    LogConfig    `koanf:"log"`
	Cache  CacheConfig  `koanf:"cache"`
	Redis  RedisConfig  `koanf:"redis"`
	Mongo  MongoConfig  `koanf:"mongo"`
	Server ServerConfig `koanf:"server"`
	Runner RunnerConfig `koanf:"runner"`
}

// Load reads path, or the default config file when path is empty. A
// missing default file is not an error; a missing explicit one is.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !stderrors.Is(err, fs.ErrNotExist) {
				return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load %s", path)
			}
			if explicit {
				return Config{}, errors.New(errors.ErrCodeFileNotFound, "config file %s not found", path)
			}
		}
	}
	if sv := k.String("schema_version"); sv != "" && sv != "v1" {
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "config schema_version %q not supported (want v1)", sv)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load environment")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps AUGMENT__CACHE__BACKEND to cache.backend.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

func applyDefaults(c *Config) {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendFile
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir, _ = CacheDir()
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Mongo.URI == "" {
		c.Mongo.URI = "mongodb://localhost:27017"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = AppName
	}
	if c.Mongo.Collection == "" {
		c.Mongo.Collection = "replays"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 32 << 20
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the settings after defaults are applied.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid settings")
	}
	if c.Cache.Backend == BackendFile && c.Cache.Dir == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "file cache needs cache.dir: no home directory to default to")
	}
	return nil
}

// OpenCache connects the configured backend, wrapped in a scoped keyer
// when a prefix is set. The Redis backend applies the prefix itself.
func (c Config) OpenCache(ctx context.Context) (cache.Cache, cache.Keyer, error) {
	var keyer cache.Keyer = cache.NewDefaultKeyer()
	if c.Cache.Prefix != "" && c.Cache.Backend != BackendRedis {
		keyer = cache.NewScopedKeyer(keyer, c.Cache.Prefix)
	}

	switch c.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), keyer, nil
	case BackendFile:
		fc, err := cache.NewFileCache(c.Cache.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("open file cache: %w", err)
		}
		return fc, keyer, nil
	case BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Prefix:   c.Cache.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return rc, keyer, nil
	case BackendMongo:
		mc, err := cache.NewMongoCache(ctx, cache.MongoOptions{
			URI:        c.Mongo.URI,
			Database:   c.Mongo.Database,
			Collection: c.Mongo.Collection,
		})
		if err != nil {
			return nil, nil, err
		}
		return mc, keyer, nil
	}
	return nil, nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
}

// DefaultPath is $XDG_CONFIG_HOME/augment/config.yaml, or "" when no home
// directory can be found.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppName, "config.yaml")
}

// CacheDir returns the cache directory using XDG standard (~/.cache/augment/).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}
