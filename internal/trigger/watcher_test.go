package trigger

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func startWatch(t *testing.T, marker string, fn Func) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = Watch(ctx, marker, 50*time.Millisecond, testLogger(), fn)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
}

func TestWatch_MarkerCreateRunsOnce(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "recalc.done")
	var runs atomic.Int32
	startWatch(t, marker, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	// A burst of writes collapses into a single run.
	for range 5 {
		if err := os.WriteFile(marker, []byte("done"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return runs.Load() >= 1
	}, "cleanup not triggered by marker")
	time.Sleep(200 * time.Millisecond)
	if n := runs.Load(); n != 1 {
		t.Errorf("runs = %d, want 1 (debounced)", n)
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	var runs atomic.Int32
	startWatch(t, filepath.Join(dir, "recalc.done"), func(context.Context) error {
		runs.Add(1)
		return nil
	})

	_ = os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644)
	time.Sleep(300 * time.Millisecond)
	if n := runs.Load(); n != 0 {
		t.Errorf("runs = %d, want 0", n)
	}
}

func TestWatch_ContinuesAfterFailure(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "recalc.done")
	var runs atomic.Int32
	startWatch(t, marker, func(context.Context) error {
		runs.Add(1)
		return errors.New("collection locked")
	})

	_ = os.WriteFile(marker, []byte("1"), 0o644)
	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return runs.Load() == 1
	}, "first trigger missing")

	_ = os.WriteFile(marker, []byte("2"), 0o644)
	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return runs.Load() == 2
	}, "watcher stopped after a failed run")
}

func TestWatch_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, filepath.Join(t.TempDir(), "m"), 0, testLogger(), func(context.Context) error { return nil })
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop")
	}
}
