package listing

import (
	"context"
	"errors"
	"testing"
	"time"

	"jabberwocky238/houselist/internal/types"
)

func newTestSource(t *testing.T, delay time.Duration, failWith error) *Source {
	t.Helper()
	src, err := NewSource(SourceConfig{Seed: DefaultSeed(), Delay: delay, FailWith: failWith})
	if err != nil {
		t.Fatalf("NewSource() error = %v", err)
	}
	return src
}

func TestNewSource_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SourceConfig
		wantErr error
	}{
		{name: "default", cfg: DefaultSourceConfig()},
		{name: "empty seed", cfg: SourceConfig{}},
		{
			name:    "duplicate id",
			cfg:     SourceConfig{Seed: []types.Record{{ID: 1}, {ID: 1}}},
			wantErr: types.ErrDuplicateID,
		},
		{
			name:    "negative price",
			cfg:     SourceConfig{Seed: []types.Record{{ID: 1, Price: -1}}},
			wantErr: types.ErrNegativePrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSource(tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewSource() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if _, err := NewSource(SourceConfig{Delay: -time.Second}); err == nil {
		t.Error("NewSource() with negative delay: expected error")
	}
	if DefaultSourceConfig().Delay != 2*time.Second {
		t.Errorf("default delay = %s, want 2s", DefaultSourceConfig().Delay)
	}
}

func TestSource_LoadWaitsForDelay(t *testing.T) {
	src := newTestSource(t, 50*time.Millisecond, nil)

	start := time.Now()
	records, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Load() returned after %s, want at least 50ms", elapsed)
	}
	if len(records) != 5 {
		t.Errorf("Load() returned %d records, want 5", len(records))
	}
}

func TestSource_LoadResultsAreIndependent(t *testing.T) {
	src := newTestSource(t, 0, nil)
	ctx := context.Background()

	a, _ := src.Load(ctx)
	a[0].Country = "changed"
	b, _ := src.Load(ctx)
	if b[0].Country == "changed" {
		t.Error("second Load() observed mutation of the first result")
	}
}

func TestSource_SeedIsCopied(t *testing.T) {
	seed := DefaultSeed()
	src, err := NewSource(SourceConfig{Seed: seed})
	if err != nil {
		t.Fatalf("NewSource() error = %v", err)
	}
	seed[0].Country = "changed"

	got, _ := src.Load(context.Background())
	if got[0].Country != "Switzerland" {
		t.Errorf("Load()[0].Country = %q, caller mutation leaked into source", got[0].Country)
	}
}

func TestSource_LoadCancelled(t *testing.T) {
	src := newTestSource(t, time.Hour, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := src.Load(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Load() error = %v, want DeadlineExceeded", err)
	}
}

func TestSource_LoadFailure(t *testing.T) {
	boom := errors.New("backend unreachable")
	src := newTestSource(t, 0, boom)

	records, err := src.Load(context.Background())
	if records != nil {
		t.Errorf("Load() records = %v, want nil on failure", records)
	}
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("Load() error = %v, want *LoadError", err)
	}
	if !errors.Is(err, types.ErrLoadFailed) {
		t.Error("LoadError does not match types.ErrLoadFailed")
	}
	if !errors.Is(err, boom) {
		t.Error("LoadError does not unwrap to the cause")
	}
}

func TestSource_LoadAsyncDeliversOnce(t *testing.T) {
	src := newTestSource(t, 20*time.Millisecond, nil)

	results := make(chan LoadResult, 2)
	p := src.LoadAsync(context.Background(), func(r LoadResult) { results <- r })

	select {
	case r := <-results:
		if r.Err != nil || len(r.Records) != 5 {
			t.Errorf("delivered %d records, err %v; want 5, nil", len(r.Records), r.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("LoadAsync never delivered")
	}

	<-p.Done()
	if p.Cancel() {
		t.Error("Cancel() after delivery returned true")
	}
	if p.Cancelled() {
		t.Error("Cancelled() = true after delivery")
	}

	select {
	case <-results:
		t.Error("LoadAsync delivered twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSource_LoadAsyncDoesNotBlock(t *testing.T) {
	src := newTestSource(t, time.Hour, nil)

	start := time.Now()
	p := src.LoadAsync(context.Background(), func(LoadResult) {})
	defer p.Cancel()

	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("LoadAsync blocked for %s", elapsed)
	}
}

func TestSource_LoadAsyncCancel(t *testing.T) {
	src := newTestSource(t, 30*time.Millisecond, nil)

	delivered := make(chan struct{}, 1)
	p := src.LoadAsync(context.Background(), func(LoadResult) { delivered <- struct{}{} })

	if !p.Cancel() {
		t.Fatal("Cancel() on waiting load returned false")
	}
	if !p.Cancelled() {
		t.Error("Cancelled() = false after Cancel()")
	}

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("Done() not closed after Cancel()")
	}

	select {
	case <-delivered:
		t.Error("cancelled load was delivered")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSource_LoadAsyncContextCancel(t *testing.T) {
	src := newTestSource(t, 50*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())

	delivered := make(chan struct{}, 1)
	p := src.LoadAsync(ctx, func(LoadResult) { delivered <- struct{}{} })
	cancel()

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("Done() not closed after context cancel")
	}
	if !p.Cancelled() {
		t.Error("Cancelled() = false after context cancel")
	}

	select {
	case <-delivered:
		t.Error("load delivered after context cancel")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSource_EachCallRestartsDelay(t *testing.T) {
	src := newTestSource(t, 10*time.Millisecond, nil)

	results := make(chan LoadResult, 2)
	p1 := src.LoadAsync(context.Background(), func(r LoadResult) { results <- r })
	p2 := src.LoadAsync(context.Background(), func(r LoadResult) { results <- r })
	<-p1.Done()
	<-p2.Done()

	a, b := <-results, <-results
	a.Records[0].Country = "changed"
	if b.Records[0].Country == "changed" {
		t.Error("two loads share one result")
	}
}
