package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"jabberwocky238/houselist/internal/notify"
	"jabberwocky238/houselist/internal/types"
	"jabberwocky238/houselist/storage"
)

// LoadState is the lifecycle state of a Session's record load.
type LoadState string

const (
	StateIdle    LoadState = "idle"
	StateLoading LoadState = "loading"
	StateReady   LoadState = "ready"
	StateFailed  LoadState = "failed"
)

// ErrSessionClosed is returned by operations on a closed Session.
var ErrSessionClosed = errors.New("session closed")

// SessionConfig names the persisted search term and its default.
type SessionConfig struct {
	SearchKey     string `yaml:"key"`
	DefaultSearch string `yaml:"default"`
}

// DefaultSessionConfig stores the search term under "search" and starts
// with "Italy".
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{SearchKey: "search", DefaultSearch: "Italy"}
}

// Snapshot is one consistent view of a Session: the visible houses are
// always Filter(collection, Search) for the same pair of inputs.
type Snapshot struct {
	State   LoadState      `json:"state"`
	Error   string         `json:"error,omitempty"`
	Search  string         `json:"search"`
	Total   int            `json:"total"`
	Houses  []types.Record `json:"houses"`
	Version uint64         `json:"version"`
}

// Session wires a Source, a Controller and a persisted search term.
// Collection changes and snapshots are taken under one lock, and each
// snapshot reads the search term once, so observers never see the filter
// applied to a mix of old and new inputs.
type Session struct {
	source *Source
	list   *Controller
	search *storage.PersistedValue[string]

	mu      sync.Mutex
	state   LoadState
	loadErr error
	pending *PendingLoad
	loadGen uint64
	closed  bool
	version uint64

	hub *notify.Hub[Snapshot]
}

// NewSession creates a Session reading its search term from store. The
// record load is not started until Start.
func NewSession(ctx context.Context, store storage.DurableStore, source *Source, cfg SessionConfig) *Session {
	def := DefaultSessionConfig()
	if cfg.SearchKey == "" {
		cfg.SearchKey = def.SearchKey
	}

	return &Session{
		source: source,
		list:   NewController(),
		search: storage.NewPersistedString(ctx, store, cfg.SearchKey, cfg.DefaultSearch),
		state:  StateIdle,
		hub:    notify.NewHub[Snapshot](0),
	}
}

// Start issues the record load. It is a no-op unless the session is idle,
// so repeated calls never refetch. The load is abandoned if ctx is
// cancelled before it resolves, returning the session to idle.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state != StateIdle {
		return
	}
	s.beginLoadLocked(ctx)
}

// Retry reissues the load after a failure. It returns types.ErrNotFailed
// unless the last load failed.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.state != StateFailed {
		return fmt.Errorf("retry in state %s: %w", s.state, types.ErrNotFailed)
	}
	s.beginLoadLocked(ctx)
	return nil
}

// Close cancels a pending load. Results arriving afterwards are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.pending != nil {
		s.pending.Cancel()
		s.pending = nil
	}
	slog.Debug("session closed")
}

// Flush retries a search term write that previously failed.
func (s *Session) Flush(ctx context.Context) error {
	return s.search.Flush(ctx)
}

// Snapshot returns the current consistent view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Search returns the current search term.
func (s *Session) Search() string {
	return s.search.Value()
}

// Collection returns the full, unfiltered record collection.
func (s *Session) Collection() []types.Record {
	return s.list.Current()
}

// SetSearch updates and persists the search term. The store write runs
// outside the session lock, so snapshots are not held up by a slow store.
func (s *Session) SetSearch(ctx context.Context, text string) {
	s.search.Set(ctx, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.changedLocked()
}

// Remove deletes the record with the given ID. Unknown IDs are ignored.
func (s *Session) Remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.list.Remove(id) {
		return false
	}
	s.changedLocked()
	return true
}

// Watch returns a channel receiving a Snapshot after every change. The
// channel is closed when ctx is cancelled.
func (s *Session) Watch(ctx context.Context) <-chan Snapshot {
	return s.hub.Watch(ctx)
}

// beginLoadLocked schedules a load. Caller must hold s.mu.
func (s *Session) beginLoadLocked(ctx context.Context) {
	s.loadGen++
	gen := s.loadGen

	s.state = StateLoading
	s.loadErr = nil
	p := s.source.LoadAsync(ctx, func(res LoadResult) {
		s.finishLoad(gen, res)
	})
	s.pending = p
	s.changedLocked()

	go func() {
		<-p.Done()
		if p.Cancelled() {
			s.abandonLoad(gen)
		}
	}()

	slog.Info("loading records", "delay", s.source.Delay())
}

func (s *Session) finishLoad(gen uint64, res LoadResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.loadGen {
		return
	}
	s.pending = nil

	if res.Err != nil {
		s.state = StateFailed
		s.loadErr = res.Err
		slog.Warn("record load failed", "error", res.Err)
	} else {
		s.list.ApplyLoad(res.Records)
		s.state = StateReady
	}
	s.changedLocked()
}

func (s *Session) abandonLoad(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.loadGen || s.state != StateLoading {
		return
	}
	s.pending = nil
	s.state = StateIdle
	slog.Info("record load cancelled")
	s.changedLocked()
}

// changedLocked bumps the version and notifies watchers. Caller must hold s.mu.
func (s *Session) changedLocked() {
	s.version++
	s.hub.Emit(s.snapshotLocked())
}

func (s *Session) snapshotLocked() Snapshot {
	records := s.list.Current()
	search := s.search.Value()

	snap := Snapshot{
		State:   s.state,
		Search:  search,
		Total:   len(records),
		Houses:  Filter(records, search),
		Version: s.version,
	}
	if s.loadErr != nil {
		snap.Error = s.loadErr.Error()
	}
	return snap
}
