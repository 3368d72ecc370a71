package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azhao1981/gitui/internal/uiconfig"
)

func TestWatcher_SignalsOnFileChange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git", "refs"), 0o755))

	w := New(dir, nil, uiconfig.Default())
	defer w.Close()

	// Drain any change fired by the initial watch setup before asserting.
	select {
	case <-w.Changes:
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "tracked.txt"), []byte("x"), 0o644))

	select {
	case <-w.Changes:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change notification after writing a file")
	}
}

func TestShouldIgnoreEvent_LockFilesIgnored(t *testing.T) {
	assert.True(t, shouldIgnoreEvent(fsnotify.Event{Name: "/repo/.git/index.lock", Op: fsnotify.Create}))
	assert.True(t, shouldIgnoreEvent(fsnotify.Event{Name: "/repo/.git/config", Op: fsnotify.Write}))
	assert.True(t, shouldIgnoreEvent(fsnotify.Event{Name: "/repo/.git/logs/HEAD", Op: fsnotify.Write}))
	assert.False(t, shouldIgnoreEvent(fsnotify.Event{Name: "/repo/.git/HEAD", Op: fsnotify.Write}))
	assert.True(t, shouldIgnoreEvent(fsnotify.Event{Name: "/repo/.git/HEAD", Op: fsnotify.Chmod}))
}

func TestDebounceInterval_IsPositive(t *testing.T) {
	cfg := uiconfig.Default()
	assert.Greater(t, cfg.DebounceInterval, time.Duration(0))
	assert.Greater(t, cfg.PollInterval, cfg.DebounceInterval)
}

func TestNew_ZeroConfigFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))

	w := New(dir, nil, uiconfig.Config{})
	defer w.Close()

	assert.Equal(t, uiconfig.Default().DebounceInterval, w.debounce)
	assert.Equal(t, uiconfig.Default().PollInterval, w.poll)
}
