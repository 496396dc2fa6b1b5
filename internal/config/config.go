// Package config loads the process configuration: a YAML file checked
// against an embedded CUE schema, then environment overrides.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/possync/internal/engine"
	"github.com/roach88/possync/internal/notify"
	"github.com/roach88/possync/internal/store"
)

//go:embed schema.cue
var schemaSource string

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "possync.yaml"

// Snapshot backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Environment overrides.
const (
	EnvDatabase  = "POSSYNC_DB"
	EnvRedisAddr = "POSSYNC_REDIS_ADDR"
	EnvAMQPURL   = "POSSYNC_AMQP_URL"
)

type Config struct {
	// Database is the SQLite file holding settings, and snapshots when the
	// sqlite backend is selected.
	Database string         `yaml:"database"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Sync     SyncConfig     `yaml:"sync"`
	Notify   NotifyConfig   `yaml:"notify"`
	// ClientID names this client in notifications. Empty means a fresh
	// UUID per process.
	ClientID string `yaml:"client_id"`
	// NodeID is the snowflake node. Nil derives one from the client id.
	NodeID   *int64 `yaml:"node_id"`
	LogLevel string `yaml:"log_level"`
}

type SnapshotConfig struct {
	Backend   string `yaml:"backend"`
	RedisAddr string `yaml:"redis_addr"`
	Prefix    string `yaml:"prefix"`
}

type SyncConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	Debounce     time.Duration `yaml:"debounce"`
}

type NotifyConfig struct {
	// AMQPURL enables the fanout publisher when set.
	AMQPURL  string `yaml:"amqp_url"`
	Exchange string `yaml:"exchange"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Database: "possync.db",
		Snapshot: SnapshotConfig{Backend: BackendSQLite, Prefix: store.DefaultRedisPrefix},
		Sync:     SyncConfig{PollInterval: engine.DefaultPollInterval, Debounce: engine.DefaultDebounce},
		Notify:   NotifyConfig{Exchange: notify.DefaultExchange},
		LogLevel: "info",
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is only an error when required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !required:
		slog.Debug("no config file, using defaults", "path", path)
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := Validate(raw); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: decode: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Check(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks a YAML document against the embedded schema. Unknown
// keys are rejected.
func Validate(raw []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if doc == nil {
		return nil
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue")).
		LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}

	v := schema.Unify(ctx.Encode(doc))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %s", strings.TrimSpace(cueerrors.Details(err, nil)))
	}
	return nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDatabase); ok && v != "" {
		c.Database = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Snapshot.RedisAddr = v
		c.Snapshot.Backend = BackendRedis
	}
	if v, ok := lookup(EnvAMQPURL); ok && v != "" {
		c.Notify.AMQPURL = v
	}
}

// Check reports combinations the schema cannot express.
func (c Config) Check() error {
	if c.Snapshot.Backend == BackendRedis && c.Snapshot.RedisAddr == "" {
		return errors.New("snapshot.backend redis needs snapshot.redis_addr")
	}
	if c.Sync.Debounce < 0 || c.Sync.PollInterval < 0 {
		return errors.New("sync durations must not be negative")
	}
	return nil
}

// Level maps LogLevel onto a slog level. Unknown text reads as info.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
