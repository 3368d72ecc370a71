package appstate

import (
	"fmt"

	"github.com/azhao1981/gitui/internal/model"
)

// Refresh re-reads status from the repository and rebuilds every derived
// field, applying the three preservation rules from spec §4.3: highlight
// by index (clamped), diff focus by identity (recomputed or cleared),
// multi-select by identity (pruned). File lists are wholesale replaced,
// never mutated in place, so preservation logic never has to diff them.
func (s *State) Refresh() error {
	staged, unstaged, err := s.Repo.GetStatus()
	if err != nil {
		return fmt.Errorf("read status: %w", err)
	}

	branch, err := s.Repo.GetBranchIdentity()
	if err != nil {
		return fmt.Errorf("read branch identity: %w", err)
	}

	s.Staged = staged
	s.Unstaged = unstaged
	s.Rows = model.BuildVisibleRows(staged, unstaged)
	s.Branch = branch
	s.Counts = computeCounts(staged, unstaged)

	s.preserveHighlight()
	s.preserveDiffFocus()
	s.pruneMultiSelect()

	return nil
}

func computeCounts(staged, unstaged []model.FileEntry) Counts {
	var c Counts
	c.Staged = len(staged)
	c.Unstaged = len(unstaged)
	for _, e := range staged {
		if e.SubmoduleDualState {
			c.Unstaged++
		}
	}
	for _, e := range unstaged {
		if e.Status == model.StatusUntracked {
			c.Untracked++
		}
	}
	return c
}

func (s *State) preserveHighlight() {
	if len(s.Rows) == 0 {
		s.HighlightIndex = nil
		return
	}
	i := 0
	if s.HighlightIndex != nil {
		i = *s.HighlightIndex
	}
	if i < 0 {
		i = 0
	}
	if i >= len(s.Rows) {
		i = len(s.Rows) - 1
	}
	s.HighlightIndex = &i
}

func (s *State) preserveDiffFocus() {
	if s.DiffFocus == nil {
		return
	}
	entry := s.findEntry(*s.DiffFocus)
	if entry == nil {
		s.DiffFocus = nil
		s.DiffContent = model.EmptyDiff
		return
	}
	s.recomputeDiff(*entry)
}

func (s *State) findEntry(key model.FileKey) *model.FileEntry {
	list := s.Staged
	if key.Section == model.Unstaged {
		list = s.Unstaged
	}
	for i := range list {
		if list[i].Path == key.Path {
			return &list[i]
		}
	}
	return nil
}

// recomputeDiff regenerates DiffContent for entry, surfacing any
// generation failure as an inline diff-panel message per spec §7 rather
// than failing the whole refresh.
func (s *State) recomputeDiff(entry model.FileEntry) {
	diff, err := s.Repo.GetDiff(entry)
	if err != nil {
		s.Logger.Warn("diff generation failed", "path", entry.Path, "error", err)
		s.DiffContent = model.TextDiff([]model.DiffLine{{
			Kind:    model.DiffHeader,
			Content: fmt.Sprintf("diff unavailable: %v", err),
		}})
		return
	}
	s.DiffContent = diff
}

func (s *State) pruneMultiSelect() {
	valid := make(map[model.FileKey]struct{}, len(s.Staged)+len(s.Unstaged))
	for _, e := range s.Staged {
		valid[e.Key()] = struct{}{}
	}
	for _, e := range s.Unstaged {
		valid[e.Key()] = struct{}{}
	}
	s.MultiSelect.Prune(valid)
}

// FocusHighlighted sets diff_focus to the highlighted row, recomputes its
// diff, and resets diff scroll — the Enter-key action from spec §4.3.
func (s *State) FocusHighlighted() {
	row := s.HighlightedRow()
	if row == nil {
		return
	}
	key := model.FileKey{Section: row.Section, Path: row.Path}
	s.DiffFocus = &key
	s.DiffScroll = 0
	entry := s.findEntry(key)
	if entry != nil {
		s.recomputeDiff(*entry)
	}
}
