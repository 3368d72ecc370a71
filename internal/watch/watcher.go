// Package watch notifies the application loop when the working tree or
// .git metadata changes, so the UI can refresh without the user pressing a
// manual refresh key. It is grounded on the pack's own fsnotify-based
// watcher (rybkr-gitvista's internal/server/watcher.go): a debounced
// fsnotify watch on .git, with a polling fallback when the watcher itself
// cannot be set up.
package watch

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/azhao1981/gitui/internal/uiconfig"
)

// Watcher emits a tick on Changes whenever the worktree or .git metadata
// (index, HEAD, refs) may have changed. Lost reports that the repository
// could no longer be statted during polling, e.g. because the directory
// was removed out from under the process.
type Watcher struct {
	Changes <-chan struct{}
	Lost    <-chan struct{}

	changes chan struct{}
	lost    chan struct{}
	done    chan struct{}
	logger  *slog.Logger

	debounce time.Duration
	poll     time.Duration
}

// New starts watching repoPath (the worktree root; gitDir is path/.git)
// using cfg's DebounceInterval/PollInterval. A zero cfg falls back to
// uiconfig.Default()'s values. It always returns a usable *Watcher: if
// fsnotify setup fails, it logs one warning and falls back to polling
// rather than returning an error, matching spec's requirement that a
// watcher-init failure degrade instead of aborting startup.
func New(repoPath string, logger *slog.Logger, cfg uiconfig.Config) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := uiconfig.Default()
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = defaults.DebounceInterval
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}

	w := &Watcher{
		changes:  make(chan struct{}, 1),
		lost:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		logger:   logger,
		debounce: cfg.DebounceInterval,
		poll:     cfg.PollInterval,
	}
	w.Changes = w.changes
	w.Lost = w.lost

	gitDir := filepath.Join(repoPath, ".git")

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("filesystem watcher unavailable, falling back to polling", "error", err)
		go w.pollLoop(repoPath)
		return w
	}

	if err := addWatchTree(fsw, repoPath, logger); err != nil {
		logger.Warn("filesystem watcher unavailable, falling back to polling", "error", err)
		fsw.Close()
		go w.pollLoop(repoPath)
		return w
	}
	for _, sub := range []string{"refs/heads", "refs/tags", "refs/remotes"} {
		walkAndWatch(fsw, filepath.Join(gitDir, sub), logger)
	}

	go w.watchLoop(fsw)
	return w
}

// Close releases the watcher's resources. Safe to call more than once.
func (w *Watcher) Close() {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
}

func (w *Watcher) signalChange() {
	select {
	case w.changes <- struct{}{}:
	default:
	}
}

func (w *Watcher) signalLost() {
	select {
	case w.lost <- struct{}{}:
	default:
	}
}

// addWatchTree watches the worktree root, every directory beneath it
// (fsnotify never recurses on its own, so each one is added), and the top
// level of the .git directory. Directories created after New returns are
// not watched.
func addWatchTree(fsw *fsnotify.Watcher, repoPath string, logger *slog.Logger) error {
	gitDir := filepath.Join(repoPath, ".git")
	err := filepath.Walk(repoPath, func(path string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil || !fi.IsDir() {
			return nil
		}
		if path == gitDir {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
	if err != nil {
		return err
	}
	if err := fsw.Add(gitDir); err != nil {
		return err
	}
	return nil
}

// walkAndWatch adds watches on dir and every subdirectory beneath it, so
// that nested branch names (refs/heads/feature/login) are covered. Missing
// directories are silently skipped.
func walkAndWatch(fsw *fsnotify.Watcher, dir string, logger *slog.Logger) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return
	}
	err = filepath.Walk(dir, func(path string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if fi.IsDir() {
			if addErr := fsw.Add(path); addErr != nil {
				logger.Warn("failed to watch directory", "dir", path, "error", addErr)
			}
		}
		return nil
	})
	if err != nil {
		logger.Warn("failed to walk refs directory", "dir", dir, "error", err)
	}
}

func (w *Watcher) watchLoop(fsw *fsnotify.Watcher) {
	defer fsw.Close()

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if shouldIgnoreEvent(event) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.signalChange)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("filesystem watcher error", "error", err)
		}
	}
}

// pollLoop is the degraded path used when fsnotify could not be set up at
// all. It ticks unconditionally; the caller re-reads status on every tick
// regardless, so false positives only cost a redundant status read.
func (w *Watcher) pollLoop(repoPath string) {
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			if _, err := os.Stat(filepath.Join(repoPath, ".git")); err != nil {
				w.signalLost()
				continue
			}
			w.signalChange()
		}
	}
}

func shouldIgnoreEvent(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	path := event.Name

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return true
	}
	if strings.HasSuffix(base, ".lock") {
		return true
	}
	if strings.Contains(path, string(filepath.Separator)+"logs"+string(filepath.Separator)) {
		return true
	}
	if base == "config" {
		return true
	}
	return false
}
