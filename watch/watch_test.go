package watch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startWatcher runs w in the background and returns a channel that
// yields Run's result once it stops.
func startWatcher(t *testing.T, ctx context.Context, w *Watcher) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	// Let the watch register before the test writes anything.
	time.Sleep(100 * time.Millisecond)
	return done
}

func waitCall(t *testing.T, calls <-chan struct{}) {
	t.Helper()
	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("callback never ran")
	}
}

func assertQuiet(t *testing.T, calls <-chan struct{}, d time.Duration) {
	t.Helper()
	select {
	case <-calls:
		t.Fatal("unexpected callback")
	case <-time.After(d):
	}
}

func TestNew(t *testing.T) {
	nop := func(context.Context) error { return nil }

	t.Run("resolves the path", func(t *testing.T) {
		w, err := New("domain.yaml", nop)
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(w.Path()))
		assert.Equal(t, DefaultDebounce, w.debounce)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := New("", nop)
		assert.Error(t, err)

		_, err = New("domain.yaml", nil)
		assert.Error(t, err)

		_, err = New("domain.yaml", nop, WithDebounce(0))
		assert.Error(t, err)

		_, err = New("domain.yaml", nop, WithLogger(nil))
		assert.Error(t, err)
	})
}

func TestWatcher(t *testing.T) {
	write := func(t *testing.T, path, body string) {
		t.Helper()
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}

	t.Run("runs the callback on change", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "domain.yaml")
		write(t, path, "name: crm\n")

		calls := make(chan struct{}, 8)
		w, err := New(path, func(context.Context) error {
			calls <- struct{}{}
			return nil
		}, WithDebounce(50*time.Millisecond), WithLogger(quietLogger()))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := startWatcher(t, ctx, w)

		write(t, path, "name: crm\nversion: 1.0.0\n")
		waitCall(t, calls)

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not stop")
		}
	})

	t.Run("coalesces bursts", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "domain.yaml")
		write(t, path, "name: crm\n")

		calls := make(chan struct{}, 8)
		w, err := New(path, func(context.Context) error {
			calls <- struct{}{}
			return nil
		}, WithDebounce(150*time.Millisecond), WithLogger(quietLogger()))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		startWatcher(t, ctx, w)

		for i := 0; i < 3; i++ {
			write(t, path, "name: crm\n")
			time.Sleep(10 * time.Millisecond)
		}
		waitCall(t, calls)
		assertQuiet(t, calls, 300*time.Millisecond)
	})

	t.Run("ignores sibling files", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "domain.yaml")
		write(t, path, "name: crm\n")

		calls := make(chan struct{}, 8)
		w, err := New(path, func(context.Context) error {
			calls <- struct{}{}
			return nil
		}, WithDebounce(50*time.Millisecond), WithLogger(quietLogger()))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		startWatcher(t, ctx, w)

		write(t, filepath.Join(dir, "notes.txt"), "unrelated\n")
		assertQuiet(t, calls, 300*time.Millisecond)
	})

	t.Run("picks up late file creation", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "domain.yaml")

		calls := make(chan struct{}, 8)
		w, err := New(path, func(context.Context) error {
			calls <- struct{}{}
			return nil
		}, WithDebounce(50*time.Millisecond), WithLogger(quietLogger()))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		startWatcher(t, ctx, w)

		write(t, path, "name: crm\n")
		waitCall(t, calls)
	})

	t.Run("keeps running after callback errors", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "domain.yaml")
		write(t, path, "name: crm\n")

		calls := make(chan struct{}, 8)
		fail := true
		w, err := New(path, func(context.Context) error {
			calls <- struct{}{}
			if fail {
				fail = false
				return errors.New("boom")
			}
			return nil
		}, WithDebounce(50*time.Millisecond), WithLogger(quietLogger()))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		startWatcher(t, ctx, w)

		write(t, path, "first\n")
		waitCall(t, calls)

		write(t, path, "second\n")
		waitCall(t, calls)
	})
}
