package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildVisibleRows_StagedBeforeUnstaged(t *testing.T) {
	staged := []FileEntry{
		{Section: Staged, Path: "a.txt", Status: StatusModified},
		{Section: Staged, Path: "b.txt", Status: StatusAdded},
	}
	unstaged := []FileEntry{
		{Section: Unstaged, Path: "c.txt", Status: StatusModified},
	}

	rows := BuildVisibleRows(staged, unstaged)
	require.Len(t, rows, 3)

	assert.Equal(t, Staged, rows[0].Section)
	assert.Equal(t, "a.txt", rows[0].Path)
	assert.Equal(t, Staged, rows[1].Section)
	assert.Equal(t, "b.txt", rows[1].Path)
	assert.Equal(t, Unstaged, rows[2].Section)
	assert.Equal(t, "c.txt", rows[2].Path)
}

func TestBuildVisibleRows_Empty(t *testing.T) {
	rows := BuildVisibleRows(nil, nil)
	assert.Empty(t, rows)
}

func TestMultiSelectSet_ToggleAndPrune(t *testing.T) {
	s := NewMultiSelectSet()
	k1 := FileKey{Section: Staged, Path: "a.txt"}
	k2 := FileKey{Section: Unstaged, Path: "b.txt"}

	s.Toggle(k1)
	s.Toggle(k2)
	assert.Len(t, s, 2)

	s.Toggle(k1)
	assert.Len(t, s, 1)
	_, stillThere := s[k2]
	assert.True(t, stillThere)

	s.Toggle(k1)
	valid := map[FileKey]struct{}{k1: {}}
	s.Prune(valid)
	assert.Len(t, s, 1)
	_, k1There := s[k1]
	assert.True(t, k1There)
}

func TestMultiSelectSet_Clear(t *testing.T) {
	s := NewMultiSelectSet()
	s.Toggle(FileKey{Section: Staged, Path: "a.txt"})
	s.Clear()
	assert.Empty(t, s)
}

func TestBranchIdentity_String(t *testing.T) {
	named := BranchIdentity{Kind: BranchNamed, Name: "main"}
	assert.Equal(t, "main", named.String())
	assert.False(t, named.IsDetached())

	detached := BranchIdentity{Kind: BranchDetached, Short: "abcdef1"}
	assert.Equal(t, "(detached abcdef1)", detached.String())
	assert.True(t, detached.IsDetached())
}

func TestStatusLetter(t *testing.T) {
	cases := map[Status]string{
		StatusAdded:     "A",
		StatusModified:  "M",
		StatusDeleted:   "D",
		StatusRenamed:   "R",
		StatusUntracked: "?",
		StatusConflict:  "U",
	}
	for status, want := range cases {
		assert.Equal(t, want, status.Letter())
	}
}

func TestFileEntry_Key(t *testing.T) {
	e := FileEntry{Section: Unstaged, Path: "foo.go"}
	assert.Equal(t, FileKey{Section: Unstaged, Path: "foo.go"}, e.Key())
}
