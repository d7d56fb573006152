package storage

import (
	"context"
	"fmt"
	"log/slog"

	"jabberwocky238/houselist/internal/types"
)

// Store types accepted by Open.
const (
	TypeMemory    = "memory"
	TypeFile      = "file"
	TypeConfigMap = "configmap"
	TypeSQLite    = "sqlite"
)

// Config selects and configures a DurableStore implementation.
type Config struct {
	Type      string          `yaml:"type"`
	File      FileConfig      `yaml:"file"`
	ConfigMap ConfigMapConfig `yaml:"configmap"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
}

type FileConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

type ConfigMapConfig struct {
	// Kubeconfig is used outside a cluster; empty means in-cluster.
	Kubeconfig string `yaml:"kubeconfig"`
	Namespace  string `yaml:"namespace"`
	Name       string `yaml:"name"`
	DataKey    string `yaml:"data_key"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Open builds the store described by cfg. Background watchers (file and
// ConfigMap) run until ctx is cancelled. The returned store may implement
// Closer.
func Open(ctx context.Context, cfg Config) (DurableStore, error) {
	switch cfg.Type {
	case "", TypeMemory:
		return NewMemoryStore(), nil

	case TypeFile:
		fs, err := NewFileStore(ctx, cfg.File.Path)
		if err != nil {
			return nil, err
		}
		if cfg.File.Watch {
			go func() {
				slog.Info("Starting store file watcher", "path", cfg.File.Path)
				if err := fs.Watch(ctx); err != nil && ctx.Err() == nil {
					slog.Error("store file watcher failed", "error", err)
				}
			}()
		}
		return fs, nil

	case TypeConfigMap:
		client, err := NewK8sClient(cfg.ConfigMap.Kubeconfig)
		if err != nil {
			return nil, err
		}
		cms := NewConfigMapStore(client, cfg.ConfigMap.Namespace, cfg.ConfigMap.Name, cfg.ConfigMap.DataKey)
		if err := cms.Sync(ctx); err != nil {
			// Reads fall back to defaults until the watcher catches up.
			slog.Warn("initial configmap sync failed", "error", err)
		}
		go func() {
			slog.Info("Starting ConfigMap watcher",
				"namespace", cfg.ConfigMap.Namespace,
				"name", cfg.ConfigMap.Name,
				"key", cms.dataKey)
			if err := cms.Watch(ctx); err != nil && ctx.Err() == nil {
				slog.Error("ConfigMap watcher failed", "error", err)
			}
		}()
		return cms, nil

	case TypeSQLite:
		return NewSQLiteStore(ctx, cfg.SQLite.Path)

	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownStoreType, cfg.Type)
	}
}
