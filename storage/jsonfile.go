package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"jabberwocky238/houselist/internal/types"

	"github.com/fsnotify/fsnotify"
)

// FileStore is a DurableStore backed by a JSON object file. Every Set is
// written through to the file with an atomic rename; external edits to
// the file are picked up by Watch and applied to the in-memory cache.
type FileStore struct {
	path  string
	cache *MemoryStore

	// mu serializes file writes and reloads so the file and the cache
	// never diverge by more than one in-flight operation.
	mu sync.Mutex
}

// NewFileStore creates a FileStore for the given path and loads any
// existing contents. A missing file yields an empty store.
func NewFileStore(ctx context.Context, path string) (*FileStore, error) {
	fs := &FileStore{
		path:  path,
		cache: NewMemoryStore(),
	}
	entries, err := fs.Load()
	if err != nil {
		return nil, err
	}
	if err := fs.cache.Replace(ctx, entries); err != nil {
		return nil, err
	}
	return fs, nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Get returns the cached value for key.
func (f *FileStore) Get(ctx context.Context, key string) (string, error) {
	return f.cache.Get(ctx, key)
}

// Set persists the store with value under key, then updates the cache.
// The cache is left unchanged when the file cannot be written.
func (f *FileStore) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.cache.List(ctx)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}
	entries[key] = value
	if err := f.writeLocked(entries); err != nil {
		return fmt.Errorf("%w: %w", types.ErrStorageUnavailable, err)
	}
	return f.cache.Set(ctx, key, value)
}

// Load reads the JSON file and returns the parsed entries. If the file
// does not exist it returns an empty map and no error.
func (f *FileStore) Load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("store file not found, starting empty", "path", f.path)
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}

	if len(data) == 0 {
		return map[string]string{}, nil
	}

	entries := map[string]string{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal store file: %w", err)
	}
	return entries, nil
}

// LoadAndApply reads the JSON file and applies the difference to the
// cache using CalculateChanges + PartialReload.
func (f *FileStore) LoadAndApply(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.Load()
	if err != nil {
		return err
	}

	changes := f.cache.CalculateChanges(entries)
	if changes.Empty() {
		return nil
	}
	return f.cache.PartialReload(ctx, changes)
}

// Save writes the current cache contents to the file.
func (f *FileStore) Save(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveLocked(ctx)
}

// saveLocked writes the cache contents. Caller must hold f.mu.
func (f *FileStore) saveLocked(ctx context.Context) error {
	entries, err := f.cache.List(ctx)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}
	return f.writeLocked(entries)
}

// writeLocked performs an atomic write of entries (temp file, then
// rename). Caller must hold f.mu.
func (f *FileStore) writeLocked(entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".houselist-*.json.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}

	slog.Debug("persisted store to file", "path", f.path, "keys", len(entries))
	return nil
}

// Watch uses fsnotify to watch the file for external changes. On each
// write it reloads the file and applies changes to the cache. It blocks
// until the context is cancelled.
func (f *FileStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so we catch atomic rename-based writes.
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", dir, err)
	}

	absPath, _ := filepath.Abs(f.path)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			absEvent, _ := filepath.Abs(event.Name)
			if absEvent != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			// Coalesce rapid writes.
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(100*time.Millisecond, func() {
				if err := f.LoadAndApply(ctx); err != nil {
					slog.Error("reload store file", "path", f.path, "err", err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("fsnotify error", "err", err)
		}
	}
}
