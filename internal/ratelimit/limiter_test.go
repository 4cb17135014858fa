package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestThrottle_ZeroIntervalNeverBlocks(t *testing.T) {
	th := NewThrottle(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := th.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected no waiting, took %v", elapsed)
	}
	if !th.Allow() {
		t.Error("expected Allow with a zero interval")
	}
}

func TestThrottle_FirstEventImmediate(t *testing.T) {
	th := NewThrottle(time.Hour)

	start := time.Now()
	if err := th.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected first event immediately, took %v", elapsed)
	}
}

func TestThrottle_Allow(t *testing.T) {
	th := NewThrottle(time.Hour)

	if !th.Allow() {
		t.Error("expected first event to be allowed")
	}
	if th.Allow() {
		t.Error("expected second event within the interval to be refused")
	}
}

func TestThrottle_SpacesEvents(t *testing.T) {
	th := NewThrottle(50 * time.Millisecond)
	ctx := context.Background()

	if err := th.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start := time.Now()
	for i := 0; i < 2; i++ {
		if err := th.Wait(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected events at least 50ms apart, two took %v", elapsed)
	}
}

func TestThrottle_ContextCancelled(t *testing.T) {
	th := NewThrottle(time.Hour)
	if err := th.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := th.Wait(ctx); err == nil {
		t.Error("expected an error when the context ends first")
	}
}
