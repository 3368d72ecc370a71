package appstate

import (
	"github.com/azhao1981/gitui/internal/model"
)

// Push validates preconditions, shows the Progress overlay, runs the
// blocking push, then clears it and flashes the result. Per spec §5 the
// UI is intentionally frozen for the duration of a remote operation — no
// goroutine is spawned — so redraw is called once right before the
// blocking call to paint the Progress overlay first.
func (s *State) Push(now int64, redraw redrawFunc) {
	if s.Branch.IsDetached() {
		s.SetFlash("Cannot push from detached HEAD; create a branch first (b)", true, now)
		return
	}
	hasOrigin, err := s.Repo.HasRemoteOrigin()
	if err != nil {
		s.failOperation("push", err, now)
		return
	}
	if !hasOrigin {
		s.SetFlash("No remote named \"origin\" configured", true, now)
		return
	}

	s.runRemoteOp("Pushing…", "push", now, redraw, func() error {
		return s.Repo.Push(ctxForRemoteOp())
	}, "✓ Pushed", nil)
}

// ForcePush is the confirmed `P` action.
func (s *State) ForcePush(now int64, redraw redrawFunc) {
	if s.Branch.IsDetached() {
		s.SetFlash("Cannot push from detached HEAD; create a branch first (b)", true, now)
		return
	}
	s.runRemoteOp("Force-pushing…", "force-push", now, redraw, func() error {
		return s.Repo.ForcePush(ctxForRemoteOp())
	}, "✓ Force-pushed", nil)
}

// Pull runs a blocking pull, then inspects post-pull status for conflicts
// and raises the abort-merge confirmation if any are present.
func (s *State) Pull(now int64, redraw redrawFunc) {
	s.runRemoteOp("Pulling…", "pull", now, redraw, func() error {
		return s.Repo.Pull(ctxForRemoteOp())
	}, "✓ Pulled", func() {
		s.checkPostPullConflicts()
	})
}

func (s *State) checkPostPullConflicts() {
	for _, e := range s.Unstaged {
		if e.Status == model.StatusConflict {
			s.Confirm = &model.ConfirmPrompt{
				Message: "Pull resulted in conflicts. Abort merge? [y/N]",
				Action:  model.ActionAbortMergeAfterPull,
			}
			return
		}
	}
}

// runRemoteOp is the shared Progress-overlay/blocking-call/flash-result
// shape used by Push, ForcePush, and Pull.
func (s *State) runRemoteOp(label, verb string, now int64, redraw redrawFunc, op func() error, successText string, afterRefresh func()) {
	s.Modal = model.ModalState{Kind: model.ModalProgress, OpLabel: label}
	if redraw != nil {
		redraw()
	}

	err := op()

	s.Modal = model.ModalState{}
	if err != nil {
		s.failOperation(verb, err, now)
	} else {
		s.Undo = nil
		s.SetFlash(successText, false, now)
	}
	s.refreshAfterAction()
	if afterRefresh != nil {
		afterRefresh()
	}
}

// StashPush stashes tracked and untracked changes, clearing the outstanding
// undo record per spec (any mutating operation other than stage/unstage
// clears it).
func (s *State) StashPush(now int64) {
	if err := s.Repo.StashPushIncludingUntracked(); err != nil {
		s.failOperation("stash", err, now)
	} else {
		s.Undo = nil
		s.SetFlash("✓ Stashed changes", false, now)
	}
	s.refreshAfterAction()
}

// StashPop applies and drops the most recent stash.
func (s *State) StashPop(now int64) {
	has, err := s.Repo.HasStashes()
	if err != nil {
		s.failOperation("stash pop", err, now)
		return
	}
	if !has {
		s.SetFlash("No stashes to pop", true, now)
		return
	}
	if err := s.Repo.StashPop(); err != nil {
		s.failOperation("stash pop", err, now)
	} else {
		s.Undo = nil
		s.SetFlash("✓ Restored stashed changes", false, now)
	}
	s.refreshAfterAction()
}
