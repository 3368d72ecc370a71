package appstate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azhao1981/gitui/internal/gitrepo"
	"github.com/azhao1981/gitui/internal/model"
)

func newRuneKey(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func newTestState(t *testing.T) (*State, string) {
	t.Helper()
	dir := t.TempDir()

	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte("original\n"), 0o644))

	repo, err := gitrepo.Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Stage("file.txt"))
	require.NoError(t, repo.Commit("initial commit", "", false))

	state, err := New(repo, nil)
	require.NoError(t, err)

	return state, dir
}

// Scenario 1: write file.txt = "modified\n"; expect one unstaged Modified
// entry, empty staged, counts S=0 U=1 ?=0.
func TestScenario1_ModifiedUnstaged(t *testing.T) {
	s, dir := newTestState(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte("modified\n"), 0o644))
	require.NoError(t, s.Refresh())

	assert.Empty(t, s.Staged)
	require.Len(t, s.Unstaged, 1)
	assert.Equal(t, "file.txt", s.Unstaged[0].Path)
	assert.Equal(t, model.StatusModified, s.Unstaged[0].Status)
	assert.Equal(t, 0, s.Counts.Staged)
	assert.Equal(t, 1, s.Counts.Unstaged)
	assert.Equal(t, 0, s.Counts.Untracked)
}

// Scenario 2: stage file.txt, expect staged Modified / unstaged empty,
// S=1 U=0; then Ctrl-Z, expect unstaged Modified / staged empty.
func TestScenario2_StageThenUndo(t *testing.T) {
	s, dir := newTestState(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte("modified\n"), 0o644))
	require.NoError(t, s.Refresh())

	idx := 0
	s.HighlightIndex = &idx
	s.StageTargets(0)

	require.Len(t, s.Staged, 1)
	assert.Equal(t, model.StatusModified, s.Staged[0].Status)
	assert.Empty(t, s.Unstaged)
	assert.Equal(t, 1, s.Counts.Staged)
	assert.Equal(t, 0, s.Counts.Unstaged)

	s.ApplyUndo(0)

	require.Len(t, s.Unstaged, 1)
	assert.Equal(t, model.StatusModified, s.Unstaged[0].Status)
	assert.Empty(t, s.Staged)

	// second Ctrl-Z is a no-op
	before := s.Staged
	s.ApplyUndo(0)
	assert.Equal(t, before, s.Staged)
}

// Scenario 3: create new.txt = "a\nb\nc\n" (untracked); focus it; expect
// DiffContent::Text with exactly three Added lines a, b, c.
func TestScenario3_UntrackedDiff(t *testing.T) {
	s, dir := newTestState(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("a\nb\nc\n"), 0o644))
	require.NoError(t, s.Refresh())

	idx := 0
	for i, row := range s.Rows {
		if row.Path == "new.txt" {
			idx = i
		}
	}
	s.HighlightIndex = &idx
	s.FocusHighlighted()

	require.Equal(t, model.DiffText, s.DiffContent.Kind)
	var added []string
	for _, line := range s.DiffContent.Lines {
		if line.Kind == model.DiffAdded {
			added = append(added, strings.TrimPrefix(line.Content, "+"))
		}
	}
	require.Len(t, added, 3)
	assert.Equal(t, []string{"a\n", "b\n", "c\n"}, added)
}

// Scenario 4: rename file.txt -> renamed.txt, stage both sides; expect a
// single staged Renamed entry with old_path="file.txt".
func TestScenario4_RenameDetection(t *testing.T) {
	s, dir := newTestState(t)
	require.NoError(t, os.Rename(filepath.Join(dir, "file.txt"), filepath.Join(dir, "renamed.txt")))
	require.NoError(t, s.Repo.Stage("renamed.txt"))
	require.NoError(t, s.Repo.Stage("file.txt"))
	require.NoError(t, s.Refresh())

	require.Len(t, s.Staged, 1)
	assert.Equal(t, model.StatusRenamed, s.Staged[0].Status)
	assert.Equal(t, "renamed.txt", s.Staged[0].Path)
	assert.Equal(t, "file.txt", s.Staged[0].OldPath)
}

// Scenario 5: detached HEAD; pressing push yields an error flash and no
// child process is invoked (verified indirectly: Branch stays detached,
// no panic/err from exec).
func TestScenario5_PushFromDetachedHead(t *testing.T) {
	s, dir := newTestState(t)

	head, err := s.Repo.GetBranchIdentity()
	require.NoError(t, err)
	_ = head

	// Detach HEAD by checking out the current commit hash directly.
	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	ref, err := repo.Head()
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.Checkout(&git.CheckoutOptions{Hash: ref.Hash()}))

	require.NoError(t, s.Refresh())
	require.True(t, s.Branch.IsDetached())

	s.Push(0, nil)

	require.NotNil(t, s.Flash)
	assert.True(t, s.Flash.IsError)
	assert.Contains(t, s.Flash.Text, "detached HEAD")
}

// Scenario 6: multi-select two unstaged files, discard with confirmation.
func TestScenario6_MultiSelectDiscard(t *testing.T) {
	s, dir := newTestState(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b\n"), 0o644))
	require.NoError(t, s.Refresh())
	require.Len(t, s.Unstaged, 2)

	idx := 0
	s.HighlightIndex = &idx
	s.ToggleHighlightedSelection()
	idx = 1
	s.HighlightIndex = &idx
	s.ToggleHighlightedSelection()

	assert.Len(t, s.MultiSelect, 2)

	s.RequestDiscardConfirm()
	require.NotNil(t, s.Confirm)
	assert.Contains(t, s.Confirm.Message, "2 untracked file")

	yKey := newRuneKey('y')
	s.handleConfirmKey(yKey, 0)

	assert.Empty(t, s.MultiSelect)
	require.NotNil(t, s.Flash)
	assert.Contains(t, s.Flash.Text, "Discarded 2 files")
	assert.Empty(t, s.Unstaged)
}
