package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"jabberwocky238/houselist/internal/types"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr error
	}{
		{name: "default is memory", cfg: Config{}, want: "*storage.MemoryStore"},
		{name: "memory", cfg: Config{Type: TypeMemory}, want: "*storage.MemoryStore"},
		{
			name: "file",
			cfg:  Config{Type: TypeFile, File: FileConfig{Path: filepath.Join(dir, "state.json")}},
			want: "*storage.FileStore",
		},
		{
			name: "sqlite",
			cfg:  Config{Type: TypeSQLite, SQLite: SQLiteConfig{Path: filepath.Join(dir, "state.db")}},
			want: "*storage.SQLiteStore",
		},
		{name: "unknown", cfg: Config{Type: "redis"}, wantErr: types.ErrUnknownStoreType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			store, err := Open(ctx, tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if c, ok := store.(Closer); ok {
				defer c.Close()
			}

			var got string
			switch store.(type) {
			case *MemoryStore:
				got = "*storage.MemoryStore"
			case *FileStore:
				got = "*storage.FileStore"
			case *SQLiteStore:
				got = "*storage.SQLiteStore"
			}
			if got != tt.want {
				t.Errorf("Open() returned %T, want %s", store, tt.want)
			}

			if err := store.Set(ctx, "search", "Italy"); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if v, _ := store.Get(ctx, "search"); v != "Italy" {
				t.Errorf("Get() = %q, want Italy", v)
			}
		})
	}
}

func TestOpen_ConfigMap(t *testing.T) {
	dir := t.TempDir()
	kubeconfig := filepath.Join(dir, "kubeconfig")
	if err := os.WriteFile(kubeconfig, []byte(testKubeconfig), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The API server is unreachable; Open still succeeds and the
	// watcher keeps retrying until ctx is cancelled.
	store, err := Open(ctx, Config{
		Type:      TypeConfigMap,
		ConfigMap: ConfigMapConfig{Kubeconfig: kubeconfig, Namespace: "default", Name: "houselist"},
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, ok := store.(*ConfigMapStore); !ok {
		t.Errorf("Open() returned %T, want *ConfigMapStore", store)
	}

	_, err = Open(ctx, Config{
		Type:      TypeConfigMap,
		ConfigMap: ConfigMapConfig{Kubeconfig: filepath.Join(dir, "absent"), Namespace: "default", Name: "houselist"},
	})
	if err == nil {
		t.Error("Open() with missing kubeconfig returned nil error")
	}
}
