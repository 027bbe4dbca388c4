// Package redis stores the gradebook snapshot as one JSON value under a single
// Redis key. A SET replaces the value atomically, so readers never observe a
// partial snapshot.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/gradebook/internal/models"
	"github.com/mmynk/gradebook/internal/storage"
)

// Ensure RedisStore implements storage.Store
var _ storage.Store = (*RedisStore)(nil)

// DefaultKey is the key that holds the snapshot.
const DefaultKey = "gradebook:snapshot"

// Config holds Redis connection configuration.
type Config struct {
	// Addr is the Redis server address in "host:port" format.
	Addr string

	// Password is the Redis authentication password (empty if no auth).
	Password string

	// DB is the Redis database number (0-15).
	DB int

	// Key holds the snapshot. Defaults to DefaultKey.
	Key string

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration
}

// RedisStore implements storage.Store on a Redis string value.
type RedisStore struct {
	client *redis.Client
	key    string
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config) (*RedisStore, error) {
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return &RedisStore{client: client, key: cfg.Key}, nil
}

// Load fetches and decodes the snapshot value.
func (s *RedisStore) Load(ctx context.Context) (*models.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", s.key, err)
	}

	snap, err := storage.DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", s.key, err)
	}
	return snap, nil
}

// Save replaces the snapshot value. It never expires.
func (s *RedisStore) Save(ctx context.Context, snap *models.Snapshot) error {
	data, err := storage.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", s.key, err)
	}
	return nil
}

// Close closes the client connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
