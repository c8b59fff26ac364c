package backend

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"spendlog/internal/config"
	applog "spendlog/internal/log"
	"spendlog/internal/storage"
)

func quietFactory() Factory {
	return NewFactory(applog.New(applog.Config{Output: &bytes.Buffer{}}))
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{DataBackend: "file", DataDir: "/tmp/x", RedisDB: 2}
	bc, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if bc.Type != FileBackend || bc.DataDirectory != "/tmp/x" || bc.RedisDB != 2 {
		t.Errorf("unexpected backend config %+v", bc)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestCreateBackendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	configs := []Config{
		{Type: MemoryBackend},
		{Type: FileBackend, DataDirectory: filepath.Join(dir, "files")},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "spendlog.db")},
	}
	for _, cfg := range configs {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			ctx := context.Background()
			res, err := quietFactory().CreateBackend(ctx, cfg)
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			defer res.Close()

			if err := res.Store.Set(ctx, storage.DefaultKey, []byte(`[]`)); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			got, ok, err := res.Store.Get(ctx, storage.DefaultKey)
			if err != nil || !ok || string(got) != `[]` {
				t.Fatalf("Get() = %q, %v, %v", got, ok, err)
			}
		})
	}
}

func TestCreateBackendInvalid(t *testing.T) {
	tests := []Config{
		{Type: "sheets"},
		{Type: FileBackend},
		{Type: SQLiteBackend},
		{Type: RedisBackend},
	}
	for _, cfg := range tests {
		if _, err := quietFactory().CreateBackend(context.Background(), cfg); err == nil {
			t.Errorf("CreateBackend(%+v) should fail", cfg)
		}
	}
}

func TestCreateBackendRedisUnreachable(t *testing.T) {
	_, err := quietFactory().CreateBackend(context.Background(), Config{Type: RedisBackend, RedisAddr: "127.0.0.1:1"})
	if err == nil {
		t.Fatal("expected connection error")
	}
}
