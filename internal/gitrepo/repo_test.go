package gitrepo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azhao1981/gitui/internal/model"
)

func initRepoWithFile(t *testing.T, name, content string) (*Repository, string) {
	t.Helper()
	dir := t.TempDir()

	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))

	repo, err := Open(dir, nil)
	require.NoError(t, err)

	require.NoError(t, repo.Stage(name))
	require.NoError(t, repo.Commit("initial commit", "", false))

	return repo, dir
}

func TestOpen_NotARepository(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(dir, nil)
	assert.Error(t, err)
}

func TestGetStatus_CleanRepo(t *testing.T) {
	repo, _ := initRepoWithFile(t, "a.txt", "hello\n")

	staged, unstaged, err := repo.GetStatus()
	require.NoError(t, err)
	assert.Empty(t, staged)
	assert.Empty(t, unstaged)
}

func TestGetStatus_ModifiedAndStaged(t *testing.T) {
	repo, dir := initRepoWithFile(t, "a.txt", "hello\n")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello world\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("new file\n"), 0o644))
	require.NoError(t, repo.Stage("b.txt"))

	staged, unstaged, err := repo.GetStatus()
	require.NoError(t, err)

	require.Len(t, staged, 1)
	assert.Equal(t, "b.txt", staged[0].Path)
	assert.Equal(t, model.StatusAdded, staged[0].Status)

	require.Len(t, unstaged, 1)
	assert.Equal(t, "a.txt", unstaged[0].Path)
	assert.Equal(t, model.StatusModified, unstaged[0].Status)
}

func TestGetStatus_Untracked(t *testing.T) {
	repo, dir := initRepoWithFile(t, "a.txt", "hello\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x\n"), 0o644))

	_, unstaged, err := repo.GetStatus()
	require.NoError(t, err)
	require.Len(t, unstaged, 1)
	assert.Equal(t, model.StatusUntracked, unstaged[0].Status)
}

func TestStageUnstageRoundTrip(t *testing.T) {
	repo, dir := initRepoWithFile(t, "a.txt", "hello\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("changed\n"), 0o644))

	require.NoError(t, repo.Stage("a.txt"))
	staged, unstaged, err := repo.GetStatus()
	require.NoError(t, err)
	assert.Len(t, staged, 1)
	assert.Empty(t, unstaged)

	require.NoError(t, repo.Unstage("a.txt"))
	staged, unstaged, err = repo.GetStatus()
	require.NoError(t, err)
	assert.Empty(t, staged)
	assert.Len(t, unstaged, 1)
}

func TestDiscardUnstaged(t *testing.T) {
	repo, dir := initRepoWithFile(t, "a.txt", "hello\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("changed\n"), 0o644))

	require.NoError(t, repo.DiscardUnstaged("a.txt"))

	content, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(content))
}

func TestDiscardUntracked(t *testing.T) {
	repo, dir := initRepoWithFile(t, "a.txt", "hello\n")
	path := filepath.Join(dir, "scratch.txt")
	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o644))

	require.NoError(t, repo.DiscardUntracked("scratch.txt"))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestGetBranchIdentity_Named(t *testing.T) {
	repo, _ := initRepoWithFile(t, "a.txt", "hello\n")

	id, err := repo.GetBranchIdentity()
	require.NoError(t, err)
	assert.False(t, id.IsDetached())
	assert.NotEmpty(t, id.Name)
}

func TestCreateAndSwitchBranch(t *testing.T) {
	repo, _ := initRepoWithFile(t, "a.txt", "hello\n")

	require.NoError(t, repo.CreateAndSwitchBranch("feature/x"))

	branch, err := repo.GetCurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "feature/x", branch)

	branches, err := repo.ListLocalBranches()
	require.NoError(t, err)
	assert.Contains(t, branches, "feature/x")
}

func TestHasUncommittedChanges(t *testing.T) {
	repo, dir := initRepoWithFile(t, "a.txt", "hello\n")

	has, err := repo.HasUncommittedChanges()
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("changed\n"), 0o644))

	has, err = repo.HasUncommittedChanges()
	require.NoError(t, err)
	assert.True(t, has)
}

func TestHasRemoteOrigin_False(t *testing.T) {
	repo, _ := initRepoWithFile(t, "a.txt", "hello\n")

	has, err := repo.HasRemoteOrigin()
	require.NoError(t, err)
	assert.False(t, has)
}

func TestRenameDetection(t *testing.T) {
	repo, dir := initRepoWithFile(t, "old.txt", "same content\n")

	require.NoError(t, os.Rename(filepath.Join(dir, "old.txt"), filepath.Join(dir, "new.txt")))
	require.NoError(t, repo.Stage("new.txt"))
	require.NoError(t, repo.Stage("old.txt"))

	staged, _, err := repo.GetStatus()
	require.NoError(t, err)

	require.Len(t, staged, 1)
	assert.Equal(t, model.StatusRenamed, staged[0].Status)
	assert.Equal(t, "new.txt", staged[0].Path)
	assert.Equal(t, "old.txt", staged[0].OldPath)
}
