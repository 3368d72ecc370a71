package appstate

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/azhao1981/gitui/internal/model"
)

// OpenCommitModal opens the Commit modal with an empty form focused on the
// title. Turning amend on later prefills title/body from HEAD's message
// (see ToggleCommitAmend) so the user edits rather than retypes it.
func (s *State) OpenCommitModal() {
	modal := &model.CommitModal{Focus: model.FocusTitle}
	s.Commit = modal
	s.Modal = model.ModalState{Kind: model.ModalCommit}
}

// ToggleCommitAmend flips the amend toggle, prefilling from HEAD's tip
// message the first time it is turned on from an empty form. A failure to
// read HEAD's message (e.g. no commits yet) leaves the form empty rather
// than blocking the toggle.
func (s *State) ToggleCommitAmend() {
	if s.Commit == nil {
		return
	}
	s.Commit.Amend = !s.Commit.Amend
	if s.Commit.Amend && s.Commit.Title == "" && s.Commit.Body == "" {
		if title, body, err := s.Repo.HeadCommitMessage(); err == nil {
			s.Commit.Title = title
			s.Commit.Body = body
		}
	}
}

func (s *State) handleCommitKey(ev *tcell.EventKey, now int64) {
	c := s.Commit
	if c == nil {
		s.Modal = model.ModalState{}
		return
	}

	switch ev.Key() {
	case tcell.KeyEsc:
		s.Commit = nil
		s.Modal = model.ModalState{}
		return
	case tcell.KeyTab:
		c.Focus = nextCommitFocus(c.Focus)
		return
	case tcell.KeyEnter:
		if c.Focus == model.FocusTitle {
			c.Focus = model.FocusBody
			return
		}
		if c.Focus == model.FocusBody {
			c.Body += "\n"
			return
		}
	case tcell.KeyCtrlJ: // Ctrl-Enter arrives as Ctrl-J on most terminals
		s.submitCommit(now)
		return
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		s.commitBackspace(c)
		return
	}

	if ev.Key() == tcell.KeyRune {
		if c.Focus == model.FocusAmendToggle && ev.Rune() == ' ' {
			s.ToggleCommitAmend()
			return
		}
		s.commitInsertRune(c, ev.Rune())
	}
}

func nextCommitFocus(f model.CommitFocus) model.CommitFocus {
	switch f {
	case model.FocusTitle:
		return model.FocusBody
	case model.FocusBody:
		return model.FocusAmendToggle
	default:
		return model.FocusTitle
	}
}

func (s *State) commitInsertRune(c *model.CommitModal, r rune) {
	switch c.Focus {
	case model.FocusTitle:
		c.Title += string(r)
	case model.FocusBody:
		c.Body += string(r)
	}
}

func (s *State) commitBackspace(c *model.CommitModal) {
	switch c.Focus {
	case model.FocusTitle:
		c.Title = trimLastRune(c.Title)
	case model.FocusBody:
		c.Body = trimLastRune(c.Body)
	}
}

func trimLastRune(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return string(r[:len(r)-1])
}

// submitCommit validates and attempts the commit. Validation and command
// failures keep the modal open with an inline error and preserved fields,
// per spec §4.3.
func (s *State) submitCommit(now int64) {
	c := s.Commit
	if c.Title == "" {
		c.Error = "Commit title cannot be empty"
		return
	}
	if len(s.Staged) == 0 && !c.Amend {
		c.Error = "Nothing staged to commit"
		return
	}

	if err := s.Repo.Commit(c.Title, c.Body, c.Amend); err != nil {
		c.Error = err.Error()
		return
	}

	s.Commit = nil
	s.Modal = model.ModalState{}
	s.Undo = nil
	s.SetFlash(fmt.Sprintf("Committed: \"%s\"", c.Title), false, now)
	s.refreshAfterAction()
}
