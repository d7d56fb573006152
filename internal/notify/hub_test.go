package notify

import (
	"context"
	"testing"
	"time"
)

func TestHub_EmitToWatchers(t *testing.T) {
	h := NewHub[int](4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := h.Watch(ctx)
	b := h.Watch(ctx)

	h.Emit(7)

	for name, ch := range map[string]<-chan int{"a": a, "b": b} {
		select {
		case v := <-ch:
			if v != 7 {
				t.Errorf("watcher %s got %d, want 7", name, v)
			}
		case <-time.After(time.Second):
			t.Fatalf("watcher %s did not receive value", name)
		}
	}
}

func TestHub_EmitDoesNotBlock(t *testing.T) {
	h := NewHub[int](1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := h.Watch(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.Emit(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full watcher")
	}

	if v := <-ch; v != 0 {
		t.Errorf("first buffered value = %d, want 0", v)
	}
}

func TestHub_WatchClosesOnCancel(t *testing.T) {
	h := NewHub[string](0)
	ctx, cancel := context.WithCancel(context.Background())

	ch := h.Watch(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel, got a value")
		}
	case <-time.After(time.Second):
		t.Fatal("channel was not closed after cancel")
	}

	if n := h.Len(); n != 0 {
		t.Errorf("Len() = %d after cancel, want 0", n)
	}
}

func TestNewHub_BufferSize(t *testing.T) {
	tests := []struct {
		buffer int
		want   int
	}{
		{buffer: 0, want: DefaultBuffer},
		{buffer: -3, want: DefaultBuffer},
		{buffer: 8, want: 8},
	}
	for _, tt := range tests {
		ctx, cancel := context.WithCancel(context.Background())
		ch := NewHub[int](tt.buffer).Watch(ctx)
		if got := cap(ch); got != tt.want {
			t.Errorf("NewHub(%d) watcher capacity = %d, want %d", tt.buffer, got, tt.want)
		}
		cancel()
	}
}
