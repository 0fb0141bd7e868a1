package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSafeGoRunsTask(t *testing.T) {
	executed := atomic.Bool{}

	SafeGo(context.Background(), time.Second, "test task", func(ctx context.Context) error {
		executed.Store(true)
		return nil
	})

	time.Sleep(100 * time.Millisecond)
	if !executed.Load() {
		t.Error("SafeGo did not execute function")
	}
}

func TestSafeGoRecoversPanic(t *testing.T) {
	executed := atomic.Bool{}

	SafeGo(context.Background(), time.Second, "test task", func(ctx context.Context) error {
		executed.Store(true)
		panic("test panic")
	})

	time.Sleep(100 * time.Millisecond)
	if !executed.Load() {
		t.Error("function did not execute before panic")
	}
}

func TestSafeGoEnforcesTimeout(t *testing.T) {
	completed := atomic.Bool{}

	SafeGo(context.Background(), 50*time.Millisecond, "test task", func(ctx context.Context) error {
		select {
		case <-time.After(200 * time.Millisecond):
			completed.Store(true)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	time.Sleep(150 * time.Millisecond)
	if completed.Load() {
		t.Error("function should have been canceled by timeout")
	}
}

func TestWorkerPoolProcessesTasks(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 2, "test pool", time.Second)
	defer pool.Shutdown(time.Second)

	executed := atomic.Int32{}
	for i := 0; i < 10; i++ {
		if err := pool.Submit(func(ctx context.Context) error {
			executed.Add(1)
			return nil
		}); err != nil {
			t.Fatalf("failed to submit task: %v", err)
		}
	}

	time.Sleep(200 * time.Millisecond)
	if executed.Load() != 10 {
		t.Errorf("expected 10 executions, got %d", executed.Load())
	}
}

func TestWorkerPoolShutdownDrains(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 2, "test pool", time.Second)

	executed := atomic.Int32{}
	for i := 0; i < 5; i++ {
		if err := pool.Submit(func(ctx context.Context) error {
			time.Sleep(50 * time.Millisecond)
			executed.Add(1)
			return nil
		}); err != nil {
			t.Fatalf("failed to submit task: %v", err)
		}
	}

	if err := pool.Shutdown(time.Second); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}
	if executed.Load() != 5 {
		t.Errorf("expected 5 executions, got %d", executed.Load())
	}

	if err := pool.Submit(func(ctx context.Context) error { return nil }); err == nil {
		t.Error("expected error when submitting after shutdown")
	}
}

func TestBatchCollectsErrors(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	errs := Batch(context.Background(), items, 2, "test batch", time.Second, func(ctx context.Context, item int) error {
		if item%2 == 0 {
			return errors.New("even number error")
		}
		return nil
	})

	if len(errs) != 2 {
		t.Errorf("expected 2 errors, got %d", len(errs))
	}
}
