package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"jabberwocky238/houselist/internal/types"

	"gopkg.in/yaml.v3"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"
)

// DefaultConfigMapDataKey is the ConfigMap data key holding the YAML values.
const DefaultConfigMapDataKey = "values.yaml"

// valuesYAML is the top-level structure inside the ConfigMap's data key.
type valuesYAML struct {
	Values map[string]string `yaml:"values"`
}

// ConfigMapStore is a DurableStore that keeps its entries as YAML inside
// one key of a Kubernetes ConfigMap. Reads are served from a cache that
// Sync and Watch keep current; Set writes through to the API server.
//
// Until the ConfigMap has been read once, the cache says nothing about
// what is stored: Get reports types.ErrStorageUnavailable, and Set reads
// the ConfigMap before writing so existing entries are never overwritten.
type ConfigMapStore struct {
	client     kubernetes.Interface
	namespace  string
	name       string
	dataKey    string
	cache      *MemoryStore
	retryDelay time.Duration
	synced     atomic.Bool

	// mu serializes ConfigMap writes against each other and against
	// applying watch events.
	mu sync.Mutex
}

// NewConfigMapStore creates a ConfigMapStore for the named ConfigMap in
// the given namespace. An empty dataKey selects DefaultConfigMapDataKey.
func NewConfigMapStore(client kubernetes.Interface, namespace, name, dataKey string) *ConfigMapStore {
	if dataKey == "" {
		dataKey = DefaultConfigMapDataKey
	}
	return &ConfigMapStore{
		client:     client,
		namespace:  namespace,
		name:       name,
		dataKey:    dataKey,
		cache:      NewMemoryStore(),
		retryDelay: 5 * time.Second,
	}
}

// Get returns the cached value for key. It returns
// types.ErrStorageUnavailable until the ConfigMap has been read.
func (s *ConfigMapStore) Get(ctx context.Context, key string) (string, error) {
	if !s.synced.Load() {
		return "", fmt.Errorf("%w: configmap %s/%s not read yet", types.ErrStorageUnavailable, s.namespace, s.name)
	}
	return s.cache.Get(ctx, key)
}

// Synced reports whether the cache reflects the ConfigMap.
func (s *ConfigMapStore) Synced() bool {
	return s.synced.Load()
}

// Set persists the full set of entries with value under key to the
// ConfigMap, creating it if missing, then updates the cache. The cache is
// left unchanged when the write fails.
func (s *ConfigMapStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.synced.Load() {
		if err := s.syncLocked(ctx); err != nil {
			return err
		}
	}

	entries, err := s.cache.List(ctx)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}
	entries[key] = value
	if err := s.persistLocked(ctx, entries); err != nil {
		return fmt.Errorf("%w: %w", types.ErrStorageUnavailable, err)
	}
	return s.cache.Set(ctx, key, value)
}

// Sync fetches the ConfigMap once and replaces the cache with its
// entries. A missing ConfigMap leaves the cache empty.
func (s *ConfigMapStore) Sync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncLocked(ctx)
}

// syncLocked is Sync. Caller must hold s.mu.
func (s *ConfigMapStore) syncLocked(ctx context.Context) error {
	cm, err := s.client.CoreV1().ConfigMaps(s.namespace).Get(ctx, s.name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			slog.Warn("configmap not found, starting empty", "namespace", s.namespace, "name", s.name)
			s.synced.Store(true)
			return nil
		}
		return fmt.Errorf("%w: get configmap: %w", types.ErrStorageUnavailable, err)
	}
	if _, ok := cm.Data[s.dataKey]; !ok {
		slog.Warn("configmap has no values key, starting empty", "name", s.name, "key", s.dataKey)
		s.applyEntries(ctx, map[string]string{})
		return nil
	}

	// Unparseable contents stay unsynced so Set cannot overwrite them.
	entries, err := parseConfigMap(cm, s.dataKey)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrStorageUnavailable, err)
	}
	s.applyEntries(ctx, entries)
	return nil
}

// Watch starts watching the ConfigMap for external changes. It blocks
// until the context is cancelled, restarting the watch after errors.
func (s *ConfigMapStore) Watch(ctx context.Context) error {
	for {
		if err := s.watchOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("configmap watch error, retrying", "err", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryDelay):
			}
			continue
		}
		// watcher closed cleanly; restart unless cancelled.
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// watchOnce runs a single watch session. It returns when the watch channel
// closes or an error occurs.
func (s *ConfigMapStore) watchOnce(ctx context.Context) error {
	watcher, err := s.client.CoreV1().ConfigMaps(s.namespace).Watch(ctx, metav1.ListOptions{
		FieldSelector: fmt.Sprintf("metadata.name=%s", s.name),
	})
	if err != nil {
		return fmt.Errorf("watch configmap: %w", err)
	}
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.ResultChan():
			if !ok {
				return nil // channel closed, caller will restart
			}
			if event.Type != watch.Added && event.Type != watch.Modified {
				continue
			}
			cm, ok := event.Object.(*corev1.ConfigMap)
			if !ok || cm.Name != s.name {
				continue
			}
			entries, err := parseConfigMap(cm, s.dataKey)
			if err != nil {
				slog.Error("parse configmap", "err", err)
				continue
			}
			s.mu.Lock()
			s.applyEntries(ctx, entries)
			s.mu.Unlock()
		}
	}
}

// applyEntries computes a diff against the cache and applies a partial
// reload when anything changed, then marks the cache synced. Caller must
// hold s.mu.
func (s *ConfigMapStore) applyEntries(ctx context.Context, entries map[string]string) {
	changes := s.cache.CalculateChanges(entries)
	if !changes.Empty() {
		if err := s.cache.PartialReload(ctx, changes); err != nil {
			slog.Error("partial reload from configmap", "err", err)
			return
		}
	}
	s.synced.Store(true)
}

// persistLocked writes entries to the ConfigMap. Caller must hold s.mu.
func (s *ConfigMapStore) persistLocked(ctx context.Context, entries map[string]string) error {
	data, err := yaml.Marshal(&valuesYAML{Values: entries})
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}

	cms := s.client.CoreV1().ConfigMaps(s.namespace)
	cm, err := cms.Get(ctx, s.name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		cm = &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Name: s.name, Namespace: s.namespace},
			Data:       map[string]string{s.dataKey: string(data)},
		}
		if _, err := cms.Create(ctx, cm, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("create configmap: %w", err)
		}
		slog.Info("created configmap", "namespace", s.namespace, "name", s.name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get configmap: %w", err)
	}

	if cm.Data == nil {
		cm.Data = make(map[string]string)
	}
	cm.Data[s.dataKey] = string(data)

	if _, err := cms.Update(ctx, cm, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("update configmap: %w", err)
	}

	slog.Debug("persisted store to configmap", "keys", len(entries))
	return nil
}

// parseConfigMap extracts key/value entries from the given ConfigMap.
func parseConfigMap(cm *corev1.ConfigMap, dataKey string) (map[string]string, error) {
	raw, ok := cm.Data[dataKey]
	if !ok {
		return nil, fmt.Errorf("key %q not found in configmap %s/%s", dataKey, cm.Namespace, cm.Name)
	}

	var cfg valuesYAML
	if err := yaml.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if cfg.Values == nil {
		cfg.Values = map[string]string{}
	}
	return cfg.Values, nil
}
