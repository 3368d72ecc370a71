package appstate

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/azhao1981/gitui/internal/model"
)

// OpenBranchModal loads the local branch list and opens the Branch modal.
func (s *State) OpenBranchModal() {
	branches, err := s.Repo.ListLocalBranches()
	if err != nil {
		s.Logger.Warn("list branches failed", "error", err)
		branches = nil
	}
	current := s.Branch.Name

	s.BranchModal = &model.BranchModal{
		Branches:      branches,
		CurrentBranch: current,
	}
	s.Modal = model.ModalState{Kind: model.ModalBranch}
}

// filteredBranches returns the branches whose name contains the filter as
// a case-insensitive substring.
func filteredBranches(b *model.BranchModal) []string {
	if b.Filter == "" {
		return b.Branches
	}
	needle := strings.ToLower(b.Filter)
	var out []string
	for _, name := range b.Branches {
		if strings.Contains(strings.ToLower(name), needle) {
			out = append(out, name)
		}
	}
	return out
}

// branchRows returns the rendered row list: filtered branches, plus a
// synthetic "Create: <filter>" row when the typed filter is non-empty and
// not an exact existing branch name.
func branchRows(b *model.BranchModal) []string {
	rows := filteredBranches(b)
	if b.Filter == "" {
		return rows
	}
	for _, name := range b.Branches {
		if name == b.Filter {
			return rows
		}
	}
	return append(rows, "Create: "+b.Filter)
}

func (s *State) handleBranchKey(ev *tcell.EventKey, now int64) {
	b := s.BranchModal
	if b == nil {
		s.Modal = model.ModalState{}
		return
	}

	switch ev.Key() {
	case tcell.KeyEsc:
		s.BranchModal = nil
		s.Modal = model.ModalState{}
		return
	case tcell.KeyUp:
		moveBranchHighlight(b, -1)
		return
	case tcell.KeyDown:
		moveBranchHighlight(b, 1)
		return
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		b.Filter = trimLastRune(b.Filter)
		b.HighlightedIdx = 0
		return
	case tcell.KeyEnter:
		s.selectBranchRow(now)
		return
	}

	if ev.Key() == tcell.KeyRune {
		b.Filter += string(ev.Rune())
		b.HighlightedIdx = 0
	}
}

func moveBranchHighlight(b *model.BranchModal, delta int) {
	rows := branchRows(b)
	if len(rows) == 0 {
		b.HighlightedIdx = 0
		return
	}
	i := b.HighlightedIdx + delta
	if i < 0 {
		i = 0
	}
	if i >= len(rows) {
		i = len(rows) - 1
	}
	b.HighlightedIdx = i
}

func (s *State) selectBranchRow(now int64) {
	b := s.BranchModal
	rows := branchRows(b)
	if b.HighlightedIdx < 0 || b.HighlightedIdx >= len(rows) {
		return
	}
	selected := rows[b.HighlightedIdx]

	if selected == b.CurrentBranch {
		s.SetFlash(fmt.Sprintf("Already on branch %s", selected), false, now)
		s.closeBranchModal()
		return
	}

	if strings.HasPrefix(selected, "Create: ") {
		name := strings.TrimPrefix(selected, "Create: ")
		s.attemptBranchSwitch(name, true, now)
		return
	}

	s.attemptBranchSwitch(selected, false, now)
}

func (s *State) attemptBranchSwitch(name string, create bool, now int64) {
	hasChanges, err := s.Repo.HasUncommittedChanges()
	if err != nil {
		s.BranchModal.Error = err.Error()
		return
	}
	if hasChanges {
		s.BranchModal.Error = "Uncommitted changes present; commit or stash first"
		return
	}

	if create {
		err = s.Repo.CreateAndSwitchBranch(name)
	} else {
		err = s.Repo.SwitchBranch(name)
	}
	if err != nil {
		s.BranchModal.Error = err.Error()
		return
	}

	s.Undo = nil
	s.closeBranchModal()
	s.SetFlash(fmt.Sprintf("Switched to branch %s", name), false, now)
	s.refreshAfterAction()
}

func (s *State) closeBranchModal() {
	s.BranchModal = nil
	s.Modal = model.ModalState{}
}
