// Package appstate holds the single authoritative in-memory model driving
// the terminal UI: file lists, highlight cursor, multi-select set, diff
// focus, modal stack, pending confirmation, transient flash, the
// outstanding undo record, and the repository handle. The event loop in
// internal/ui owns one State and mutates it through the methods in this
// package; nothing else is permitted to mutate it directly, mirroring the
// single authoritative-state shape of the teacher's ViewManager (which
// alone owns view focus and dispatches every key through one path).
package appstate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/azhao1981/gitui/internal/gitrepo"
	"github.com/azhao1981/gitui/internal/model"
)

// Counts holds the distinct-path tallies shown in the status bar.
type Counts struct {
	Staged   int
	Unstaged int
	Untracked int
}

// State is the application's single source of truth.
type State struct {
	Repo   *gitrepo.Repository
	Logger *slog.Logger

	Staged   []model.FileEntry
	Unstaged []model.FileEntry
	Rows     []model.VisibleRow
	Counts   Counts

	Branch model.BranchIdentity

	HighlightIndex *int
	DiffFocus      *model.FileKey
	DiffContent    model.DiffContent
	DiffScroll     int

	MultiSelect model.MultiSelectSet

	Modal       model.ModalState
	Commit      *model.CommitModal
	BranchModal *model.BranchModal
	Confirm     *model.ConfirmPrompt
	Flash       *model.FlashMessage
	Undo        *model.UndoRecord

	Quit bool
}

// New creates application state for an already-open repository and
// performs the first status read, per spec's initial-state rules.
func New(repo *gitrepo.Repository, logger *slog.Logger) (*State, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &State{
		Repo:        repo,
		Logger:      logger,
		MultiSelect: model.NewMultiSelectSet(),
		DiffContent: model.EmptyDiff,
	}
	if err := s.Refresh(); err != nil {
		return nil, err
	}
	if len(s.Rows) == 0 {
		s.DiffContent = model.CleanDiff
	}
	return s, nil
}

// TargetPaths returns the action target for stage/unstage/discard: the
// multi-select set if non-empty, else the single highlighted row.
func (s *State) TargetPaths() []model.FileKey {
	if len(s.MultiSelect) > 0 {
		return s.MultiSelect.Keys()
	}
	row := s.HighlightedRow()
	if row == nil {
		return nil
	}
	return []model.FileKey{{Section: row.Section, Path: row.Path}}
}

// HighlightedRow returns the currently highlighted VisibleRow, or nil.
func (s *State) HighlightedRow() *model.VisibleRow {
	if s.HighlightIndex == nil {
		return nil
	}
	i := *s.HighlightIndex
	if i < 0 || i >= len(s.Rows) {
		return nil
	}
	return &s.Rows[i]
}

// SetFlash posts a transient banner. timestampNanos is supplied by the
// caller (the event loop) since this package must not call time.Now
// directly to stay trivially testable without wall-clock coupling.
func (s *State) SetFlash(text string, isError bool, timestampNanos int64) {
	s.Flash = &model.FlashMessage{Text: text, IsError: isError, FirstShownAt: timestampNanos}
}

// ClearFlash removes any active flash message.
func (s *State) ClearFlash() {
	s.Flash = nil
}

// failOperation is the shared "transient operation failure" path from
// spec §7: log, flash, and let the caller decide whether to still
// refresh.
func (s *State) failOperation(verb string, err error, timestampNanos int64) {
	s.Logger.Warn("operation failed", "op", verb, "error", err)
	s.SetFlash(fmt.Sprintf("%s failed: %v", verb, err), true, timestampNanos)
}

// redrawFunc lets a caller request an intermediate frame before a
// blocking remote operation runs, e.g. to show the Progress overlay
// before the child process starts.
type redrawFunc func()

// ctxForRemoteOp returns the context remote operations run under. It is
// always context.Background: no wall-clock timeout is imposed on remote
// operations.
func ctxForRemoteOp() context.Context {
	return context.Background()
}
