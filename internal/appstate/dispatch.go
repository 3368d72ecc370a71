package appstate

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/azhao1981/gitui/internal/model"
)

// HandleKey routes a key event per the modal/prompt precedence rules in
// spec §4.3: q always quits; a ConfirmPrompt monopolizes y/Y/anything-else;
// an open Modal monopolizes its own key map plus q/Esc; otherwise the
// top-level dispatch table applies. now is the caller's current time in
// unix nanoseconds, threaded through for flash timestamps.
func (s *State) HandleKey(ev *tcell.EventKey, now int64, redraw redrawFunc) {
	if ev.Key() == tcell.KeyRune && ev.Rune() == 'q' {
		s.Quit = true
		return
	}

	if s.Confirm != nil {
		s.handleConfirmKey(ev, now)
		return
	}

	switch s.Modal.Kind {
	case model.ModalProgress:
		s.handleProgressKey(ev)
		return
	case model.ModalCommit:
		s.handleCommitKey(ev, now)
		return
	case model.ModalBranch:
		s.handleBranchKey(ev, now)
		return
	case model.ModalHelp:
		if ev.Key() == tcell.KeyEsc {
			s.Modal = model.ModalState{}
		}
		return
	}

	s.handleTopLevelKey(ev, now, redraw)
}

func (s *State) handleTopLevelKey(ev *tcell.EventKey, now int64, redraw redrawFunc) {
	switch ev.Key() {
	case tcell.KeyUp:
		s.MoveHighlight(-1)
		return
	case tcell.KeyDown:
		s.MoveHighlight(1)
		return
	case tcell.KeyEnter:
		s.FocusHighlighted()
		return
	case tcell.KeyEsc:
		s.MultiSelect.Clear()
		return
	case tcell.KeyPgUp:
		s.ScrollDiff(-1)
		return
	case tcell.KeyPgDn:
		s.ScrollDiff(1)
		return
	case tcell.KeyCtrlZ:
		s.ApplyUndo(now)
		return
	case tcell.KeyCtrlL:
		if redraw != nil {
			redraw()
		}
		return
	}

	if ev.Key() != tcell.KeyRune {
		return
	}

	switch ev.Rune() {
	case ' ':
		s.ToggleHighlightedSelection()
	case 's':
		s.StageTargets(now)
	case 'u':
		s.UnstageTargets(now)
	case 'd':
		s.RequestDiscardConfirm()
	case 'S':
		s.RequestBulkConfirm(model.ActionStageAll, "Stage all files?")
	case 'U':
		s.RequestBulkConfirm(model.ActionUnstageAll, "Unstage all files?")
	case 'D':
		s.RequestBulkConfirm(model.ActionDiscardAll, "Discard all unstaged changes?")
	case 'c':
		s.OpenCommitModal()
	case 'b':
		s.OpenBranchModal()
	case 'p':
		s.Push(now, redraw)
	case 'P':
		s.RequestBulkConfirm(model.ActionForcePush, "Force-push (with lease)?")
	case 'l':
		s.Pull(now, redraw)
	case 'z':
		s.StashPush(now)
	case 'Z':
		s.StashPop(now)
	case 'r':
		if err := s.Refresh(); err != nil {
			s.failOperation("refresh", err, now)
		}
	case '?':
		s.Modal = model.ModalState{Kind: model.ModalHelp}
	}
}

// MoveHighlight shifts the highlight by delta rows, clamped to the
// visible-row bounds.
func (s *State) MoveHighlight(delta int) {
	if len(s.Rows) == 0 {
		s.HighlightIndex = nil
		return
	}
	i := 0
	if s.HighlightIndex != nil {
		i = *s.HighlightIndex
	}
	i += delta
	if i < 0 {
		i = 0
	}
	if i >= len(s.Rows) {
		i = len(s.Rows) - 1
	}
	s.HighlightIndex = &i
}

// ScrollDiff moves the diff viewport by delta pages. The renderer supplies
// the true max scroll at draw time; here we only prevent going negative,
// leaving the upper clamp to the renderer since it alone knows viewport
// height and line count.
func (s *State) ScrollDiff(delta int) {
	s.DiffScroll += delta
	if s.DiffScroll < 0 {
		s.DiffScroll = 0
	}
}

// ToggleHighlightedSelection toggles the highlighted row's membership in
// the multi-select set.
func (s *State) ToggleHighlightedSelection() {
	row := s.HighlightedRow()
	if row == nil {
		return
	}
	s.MultiSelect.Toggle(model.FileKey{Section: row.Section, Path: row.Path})
}

// StageTargets stages the action target and records the undo.
func (s *State) StageTargets(now int64) {
	targets := s.TargetPaths()
	if len(targets) == 0 {
		return
	}
	paths := keysToPaths(targets)
	for _, p := range paths {
		if err := s.Repo.Stage(p); err != nil {
			s.failOperation("stage", err, now)
			s.refreshAfterAction()
			return
		}
	}
	s.Undo = &model.UndoRecord{Kind: model.UndoStage, Paths: paths}
	s.MultiSelect.Clear()
	s.refreshAfterAction()
}

// UnstageTargets unstages the action target and records the undo.
func (s *State) UnstageTargets(now int64) {
	targets := s.TargetPaths()
	if len(targets) == 0 {
		return
	}
	paths := keysToPaths(targets)
	for _, p := range paths {
		if err := s.Repo.Unstage(p); err != nil {
			s.failOperation("unstage", err, now)
			s.refreshAfterAction()
			return
		}
	}
	s.Undo = &model.UndoRecord{Kind: model.UndoUnstage, Paths: paths}
	s.MultiSelect.Clear()
	s.refreshAfterAction()
}

// ApplyUndo reverses the outstanding UndoRecord (stage<->unstage) over its
// full recorded path set, then clears it so a second Ctrl-Z is a no-op.
func (s *State) ApplyUndo(now int64) {
	if s.Undo == nil {
		return
	}
	record := s.Undo
	s.Undo = nil

	for _, p := range record.Paths {
		var err error
		switch record.Kind {
		case model.UndoStage:
			err = s.Repo.Unstage(p)
		case model.UndoUnstage:
			err = s.Repo.Stage(p)
		}
		if err != nil {
			s.failOperation("undo", err, now)
			break
		}
	}
	s.refreshAfterAction()
}

// RequestDiscardConfirm opens the confirmation prompt for the single `d`
// key, choosing the untracked-specific message when every target is
// untracked.
func (s *State) RequestDiscardConfirm() {
	targets := s.TargetPaths()
	if len(targets) == 0 {
		return
	}
	allUntracked := true
	for _, k := range targets {
		entry := s.findEntry(k)
		if entry == nil || entry.Status != model.StatusUntracked {
			allUntracked = false
			break
		}
	}

	action := model.ActionDiscardSelected
	message := fmt.Sprintf("Discard changes to %d file(s)?", len(targets))
	if allUntracked {
		action = model.ActionDiscardUntrackedSelected
		message = fmt.Sprintf("Delete %d untracked file(s)?", len(targets))
	}

	s.Confirm = &model.ConfirmPrompt{
		Message: message,
		Action:  action,
		Targets: targets,
	}
}

// RequestBulkConfirm opens a confirmation prompt for a bulk action with no
// per-target path list (stage-all/unstage-all/discard-all/force-push).
func (s *State) RequestBulkConfirm(action model.ActionToken, message string) {
	s.Confirm = &model.ConfirmPrompt{Message: message, Action: action}
}

func (s *State) handleConfirmKey(ev *tcell.EventKey, now int64) {
	confirm := s.Confirm
	s.Confirm = nil

	if ev.Key() != tcell.KeyRune || (ev.Rune() != 'y' && ev.Rune() != 'Y') {
		return
	}

	switch confirm.Action {
	case model.ActionStageAll:
		s.runBulk("stage all", s.Repo.StageAll, now, false)
	case model.ActionUnstageAll:
		s.runBulk("unstage all", s.Repo.UnstageAll, now, false)
	case model.ActionDiscardAll:
		s.runBulk("discard all", s.Repo.DiscardAllUnstaged, now, true)
	case model.ActionDiscardSelected:
		s.discardTargets(confirm.Targets, now)
	case model.ActionDiscardUntrackedSelected:
		s.discardUntrackedPaths(keysToPaths(confirm.Targets), now)
	case model.ActionForcePush:
		s.ForcePush(now, nil)
	case model.ActionAbortMergeAfterPull:
		s.runBulk("abort merge", s.Repo.AbortMerge, now, false)
	}
}

func (s *State) runBulk(label string, op func() error, now int64, clearUndo bool) {
	if err := op(); err != nil {
		s.failOperation(label, err, now)
	} else {
		if clearUndo {
			s.Undo = nil
		}
		s.MultiSelect.Clear()
		s.SetFlash(fmt.Sprintf("✓ %s", successLabel(label)), false, now)
	}
	s.refreshAfterAction()
}

func successLabel(label string) string {
	switch label {
	case "stage all":
		return "Staged all files"
	case "unstage all":
		return "Unstaged all files"
	case "discard all":
		return "Discarded all changes"
	case "abort merge":
		return "Merge aborted"
	default:
		return label
	}
}

// discardTargets discards each target per its own section: a staged
// target resets the index entry back to HEAD (DiscardStaged), an
// unstaged, untracked target is removed from disk, and any other
// unstaged target reverts the working tree to the index
// (DiscardUnstaged).
func (s *State) discardTargets(targets []model.FileKey, now int64) {
	for _, k := range targets {
		entry := s.findEntry(k)
		var err error
		switch {
		case k.Section == model.Staged:
			err = s.Repo.DiscardStaged(k.Path)
		case entry != nil && entry.Status == model.StatusUntracked:
			err = s.Repo.DiscardUntracked(k.Path)
		default:
			err = s.Repo.DiscardUnstaged(k.Path)
		}
		if err != nil {
			s.failOperation("discard", err, now)
			s.refreshAfterAction()
			return
		}
	}
	s.Undo = nil
	s.MultiSelect.Clear()
	s.SetFlash(fmt.Sprintf("✓ Discarded %d files", len(targets)), false, now)
	s.refreshAfterAction()
}

func (s *State) discardUntrackedPaths(paths []string, now int64) {
	for _, p := range paths {
		if err := s.Repo.DiscardUntracked(p); err != nil {
			s.failOperation("discard", err, now)
			s.refreshAfterAction()
			return
		}
	}
	s.Undo = nil
	s.MultiSelect.Clear()
	s.SetFlash(fmt.Sprintf("✓ Discarded %d files", len(paths)), false, now)
	s.refreshAfterAction()
}

func (s *State) handleProgressKey(ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyCtrlC || ev.Key() == tcell.KeyEsc {
		s.Modal.Cancelled = true
	}
}

// refreshAfterAction re-reads status after a mutation. A refresh failure
// is only logged; unlike a failed mutation it sets no flash message.
func (s *State) refreshAfterAction() {
	if err := s.Refresh(); err != nil {
		s.Logger.Warn("refresh after action failed", "error", err)
	}
}

func keysToPaths(keys []model.FileKey) []string {
	paths := make([]string, len(keys))
	for i, k := range keys {
		paths[i] = k.Path
	}
	return paths
}
