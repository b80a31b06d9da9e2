// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delay = 100 * time.Millisecond

func startWatcher(t *testing.T, path string, h Handler) *test.Hook {
	t.Helper()
	log, hook := test.NewNullLogger()
	w, err := New(path, delay, log)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, h) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	return hook
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notebook.html")
	require.NoError(t, os.WriteFile(path, []byte("v0"), 0o644))

	var calls atomic.Int32
	startWatcher(t, path, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	for _, v := range []string{"v1", "v2", "v3"} {
		require.NoError(t, os.WriteFile(path, []byte(v), 0o644))
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(3 * delay)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notebook.html")
	require.NoError(t, os.WriteFile(path, []byte("v0"), 0o644))

	var calls atomic.Int32
	startWatcher(t, path, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.html"), []byte("x"), 0o644))
	assert.Never(t, func() bool { return calls.Load() > 0 }, 4*delay, 20*time.Millisecond)
}

func TestWatcher_HandlerErrorIsLogged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notebook.html")
	require.NoError(t, os.WriteFile(path, []byte("v0"), 0o644))

	var calls atomic.Int32
	hook := startWatcher(t, path, func(context.Context) error {
		calls.Add(1)
		return errors.New("ingest failed")
	})

	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message == "handler failed" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 10*time.Millisecond, "watcher keeps running after a failure")
}

func TestNew_MissingDirectory(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := New(filepath.Join(t.TempDir(), "absent", "notebook.html"), 0, log)
	assert.Error(t, err)
}
