package gitrepo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azhao1981/gitui/internal/model"
)

func TestGetDiff_CleanFile(t *testing.T) {
	repo, _ := initRepoWithFile(t, "a.txt", "hello\n")

	diff, err := repo.GetDiff(model.FileEntry{Section: model.Staged, Path: "a.txt", Status: model.StatusModified})
	require.NoError(t, err)
	assert.Equal(t, model.CleanDiff, diff)
}

func TestGetDiff_ModifiedUnstaged(t *testing.T) {
	repo, dir := initRepoWithFile(t, "a.txt", "line1\nline2\nline3\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("line1\nchanged\nline3\n"), 0o644))

	diff, err := repo.GetDiff(model.FileEntry{Section: model.Unstaged, Path: "a.txt", Status: model.StatusModified})
	require.NoError(t, err)
	require.Equal(t, model.DiffText, diff.Kind)

	var sawAdded, sawDeleted, sawHunk bool
	for _, line := range diff.Lines {
		switch line.Kind {
		case model.DiffAdded:
			sawAdded = true
		case model.DiffDeleted:
			sawDeleted = true
		case model.DiffHunk:
			sawHunk = true
		}
	}
	assert.True(t, sawAdded)
	assert.True(t, sawDeleted)
	assert.True(t, sawHunk)
}

func TestGetDiff_UntrackedShowsFullFileAsAdded(t *testing.T) {
	repo, dir := initRepoWithFile(t, "a.txt", "hello\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("one\ntwo\n"), 0o644))

	diff, err := repo.GetDiff(model.FileEntry{Section: model.Unstaged, Path: "new.txt", Status: model.StatusUntracked})
	require.NoError(t, err)
	require.Equal(t, model.DiffText, diff.Kind)

	addedCount := 0
	for _, line := range diff.Lines {
		if line.Kind == model.DiffAdded {
			addedCount++
		}
	}
	assert.Equal(t, 2, addedCount)
}

func TestGetDiff_Binary(t *testing.T) {
	repo, dir := initRepoWithFile(t, "a.txt", "hello\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bin.dat"), []byte{0x00, 0x01, 0x02, 0x03}, 0o644))

	diff, err := repo.GetDiff(model.FileEntry{Section: model.Unstaged, Path: "bin.dat", Status: model.StatusUntracked})
	require.NoError(t, err)
	assert.Equal(t, model.BinaryDiff, diff)
}

func TestGetDiff_Conflict(t *testing.T) {
	repo, _ := initRepoWithFile(t, "a.txt", "hello\n")

	diff, err := repo.GetDiff(model.FileEntry{Section: model.Unstaged, Path: "a.txt", Status: model.StatusConflict})
	require.NoError(t, err)
	assert.Equal(t, model.ConflictDiff, diff)
}

func TestParseHunkNewStart(t *testing.T) {
	assert.Equal(t, 4, parseHunkNewStart("@@ -1,3 +4,5 @@"))
	assert.Equal(t, 1, parseHunkNewStart("@@ -0,0 +1 @@"))
	assert.Equal(t, 0, parseHunkNewStart("not a hunk"))
}
