// Package redis keeps blobs as plain Redis string values.
package redis

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/go-redis/redis"

	"spendlog/internal/storage"
)

// Config holds connection settings for the Redis backend.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type Store struct {
	client *goredis.Client
	prefix string
}

var _ storage.BlobStore = (*Store)(nil)

// New connects and pings the server.
func New(cfg Config) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return &Store{client: client, prefix: cfg.KeyPrefix}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Key returns the Redis key a storage key maps to.
func (s *Store) Key(key string) string {
	return s.prefix + key
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, storage.ErrEmptyKey
	}
	b, err := s.client.WithContext(ctx).Get(s.Key(key)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", s.Key(key), err)
	}
	return b, true, nil
}

func (s *Store) Set(ctx context.Context, key string, blob []byte) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	if err := s.client.WithContext(ctx).Set(s.Key(key), blob, 0).Err(); err != nil {
		slog.ErrorContext(ctx, "Unable to set redis key", "key", s.Key(key), "error", err)
		return fmt.Errorf("redis set %s: %w", s.Key(key), err)
	}
	return nil
}
