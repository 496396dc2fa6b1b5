package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/roach88/possync/internal/pos"
)

// DefaultRedisPrefix namespaces every key the store writes.
const DefaultRedisPrefix = "possync:"

// RedisStore keeps snapshots and settings as plain Redis string keys:
// <prefix>snapshot:<collection> and <prefix>settings.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client. An empty prefix selects
// DefaultRedisPrefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// OpenRedis dials addr and checks the connection.
func OpenRedis(ctx context.Context, addr, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return NewRedisStore(client, prefix), nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) snapshotKey(c pos.Collection) string {
	return r.prefix + "snapshot:" + string(c)
}

func (r *RedisStore) settingsKey() string {
	return r.prefix + "settings"
}

// SaveSnapshot writes the five blobs in one MULTI/EXEC.
func (r *RedisStore) SaveSnapshot(ctx context.Context, snap pos.Snapshot) error {
	blobs, err := encodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, c := range pos.Collections {
			pipe.Set(ctx, r.snapshotKey(c), blobs[c], 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (r *RedisStore) LoadSnapshot(ctx context.Context) (pos.Snapshot, bool, error) {
	keys := make([]string, len(pos.Collections))
	for i, c := range pos.Collections {
		keys[i] = r.snapshotKey(c)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return pos.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}

	blobs := make(map[pos.Collection]string)
	for i, v := range vals {
		if s, ok := v.(string); ok {
			blobs[pos.Collections[i]] = s
		}
	}
	if len(blobs) == 0 {
		return pos.Snapshot{}, false, nil
	}
	snap, err := decodeSnapshot(blobs)
	if err != nil {
		return pos.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, true, nil
}

func (r *RedisStore) SaveSettings(ctx context.Context, cfg pos.SyncConfig) error {
	data, err := encodeSettings(cfg)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	if err := r.client.Set(ctx, r.settingsKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (r *RedisStore) LoadSettings(ctx context.Context) (pos.SyncConfig, bool, error) {
	data, err := r.client.Get(ctx, r.settingsKey()).Result()
	if errors.Is(err, redis.Nil) {
		return pos.DefaultSyncConfig(), false, nil
	}
	if err != nil {
		return pos.SyncConfig{}, false, fmt.Errorf("load settings: %w", err)
	}
	cfg, err := decodeSettings(data)
	if err != nil {
		return pos.SyncConfig{}, false, fmt.Errorf("load settings: %w", err)
	}
	return cfg, true, nil
}
