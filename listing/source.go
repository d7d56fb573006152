package listing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"jabberwocky238/houselist/internal/types"
)

// DefaultLoadDelay is the simulated network latency of a Source.
const DefaultLoadDelay = 2 * time.Second

// SourceConfig configures a Source.
type SourceConfig struct {
	// Seed is the collection every load resolves with. It is copied.
	Seed []types.Record
	// Delay before a load resolves. Zero resolves on the next timer tick.
	Delay time.Duration
	// FailWith, when set, makes every load fail with a *LoadError
	// wrapping it.
	FailWith error
}

// DefaultSourceConfig returns a config with the sample houses and the
// default delay.
func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		Seed:  DefaultSeed(),
		Delay: DefaultLoadDelay,
	}
}

// LoadError is the failure outcome of a load.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load records: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, types.ErrLoadFailed) hold for every LoadError.
func (e *LoadError) Is(target error) bool { return target == types.ErrLoadFailed }

// LoadResult is handed to a LoadAsync continuation. Exactly one of
// Records and Err is meaningful.
type LoadResult struct {
	Records []types.Record
	Err     error
}

// Source simulates fetching the record collection from a remote backend.
// Loads are not cached: each call waits its own delay and returns an
// independent copy of the seed.
type Source struct {
	seed     []types.Record
	delay    time.Duration
	failWith error
}

// NewSource validates cfg.Seed and returns a Source.
func NewSource(cfg SourceConfig) (*Source, error) {
	if err := types.ValidateRecords(cfg.Seed); err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}
	if cfg.Delay < 0 {
		return nil, fmt.Errorf("negative load delay %s", cfg.Delay)
	}
	return &Source{
		seed:     types.CloneRecords(cfg.Seed),
		delay:    cfg.Delay,
		failWith: cfg.FailWith,
	}, nil
}

// Delay returns the configured latency.
func (s *Source) Delay() time.Duration {
	return s.delay
}

// Load waits for the configured delay and returns the collection. It
// returns ctx.Err() if ctx is cancelled first.
func (s *Source) Load(ctx context.Context) ([]types.Record, error) {
	t := time.NewTimer(s.delay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.C:
	}
	res := s.result()
	return res.Records, res.Err
}

// LoadAsync schedules a load and returns immediately. deliver runs at most
// once, on a timer goroutine, after the delay elapses. It never runs once
// the returned PendingLoad is cancelled or ctx is done.
func (s *Source) LoadAsync(ctx context.Context, deliver func(LoadResult)) *PendingLoad {
	p := &PendingLoad{done: make(chan struct{})}

	// Hold mu until both fields are set; the callbacks may fire at once.
	p.mu.Lock()
	p.timer = time.AfterFunc(s.delay, func() {
		if !p.state.CompareAndSwap(pendingWaiting, pendingFiring) {
			return
		}
		defer p.finish()
		deliver(s.result())
	})
	p.stopCtx = context.AfterFunc(ctx, func() { p.Cancel() })
	p.mu.Unlock()

	slog.Debug("record load scheduled", "delay", s.delay)
	return p
}

func (s *Source) result() LoadResult {
	if s.failWith != nil {
		return LoadResult{Err: &LoadError{Err: s.failWith}}
	}
	return LoadResult{Records: types.CloneRecords(s.seed)}
}

const (
	pendingWaiting int32 = iota
	pendingFiring
	pendingCancelled
)

// PendingLoad is the handle of a scheduled load.
type PendingLoad struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopCtx func() bool

	state atomic.Int32
	done  chan struct{}
	once  sync.Once
}

// Cancel prevents delivery. It reports whether the load was still waiting;
// false means delivery already started or the load was cancelled before.
func (p *PendingLoad) Cancel() bool {
	if !p.state.CompareAndSwap(pendingWaiting, pendingCancelled) {
		return false
	}
	p.mu.Lock()
	p.timer.Stop()
	p.mu.Unlock()
	p.finish()
	return true
}

// Cancelled reports whether Cancel won before delivery.
func (p *PendingLoad) Cancelled() bool {
	return p.state.Load() == pendingCancelled
}

// Done is closed once the load has been delivered or cancelled.
func (p *PendingLoad) Done() <-chan struct{} {
	return p.done
}

func (p *PendingLoad) finish() {
	p.once.Do(func() {
		p.mu.Lock()
		stop := p.stopCtx
		p.mu.Unlock()
		stop()
		close(p.done)
	})
}
