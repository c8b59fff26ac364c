// Package backend builds the blob store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"spendlog/internal/config"
	applog "spendlog/internal/log"
	"spendlog/internal/storage/file"
	"spendlog/internal/storage/memory"
	"spendlog/internal/storage/redis"
	"spendlog/internal/storage/sqlite"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return Config{
		Type:          backendType,
		DataDirectory: appConfig.DataDir,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		RedisAddr:     appConfig.RedisAddr,
		RedisPassword: appConfig.RedisPassword,
		RedisDB:       appConfig.RedisDB,
		RedisPrefix:   appConfig.RedisPrefix,
	}, nil
}

// Validate checks the settings the chosen backend needs.
func (c Config) Validate() error {
	switch c.Type {
	case MemoryBackend:
	case FileBackend:
		if c.DataDirectory == "" {
			return fmt.Errorf("data directory is required for file backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case RedisBackend:
		if c.RedisAddr == "" {
			return fmt.Errorf("Redis address is required for redis backend")
		}
	default:
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	return nil
}

type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentStorage)}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		f.logger.InfoContext(ctx, "Initialized memory backend", applog.FieldBackend, config.Type.String())
		return &BackendResult{Store: memory.New(), Type: config.Type}, nil

	case FileBackend:
		store, err := file.New(config.DataDirectory)
		if err != nil {
			return nil, fmt.Errorf("initialize file backend: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized file backend",
			applog.FieldBackend, config.Type.String(), "data_directory", store.Dir())
		return &BackendResult{Store: store, Type: config.Type}, nil

	case SQLiteBackend:
		repo, err := sqlite.NewRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend",
			applog.FieldBackend, config.Type.String(), "db_path", config.SQLiteDBPath)
		return &BackendResult{Store: repo, Type: config.Type, Cleanup: repo.Close}, nil

	case RedisBackend:
		store, err := redis.New(redis.Config{
			Addr:      config.RedisAddr,
			Password:  config.RedisPassword,
			DB:        config.RedisDB,
			KeyPrefix: config.RedisPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize Redis backend: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized Redis backend",
			applog.FieldBackend, config.Type.String(), "addr", config.RedisAddr)
		return &BackendResult{Store: store, Type: config.Type, Cleanup: store.Close}, nil
	}
	return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
}
