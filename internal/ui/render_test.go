package ui

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azhao1981/gitui/internal/appstate"
	"github.com/azhao1981/gitui/internal/gitrepo"
)

func newTestState(t *testing.T) *appstate.State {
	t.Helper()
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hi\n"), 0o644))

	repo, err := gitrepo.Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Stage("a.txt"))
	require.NoError(t, repo.Commit("initial", "", false))

	state, err := appstate.New(repo, nil)
	require.NoError(t, err)
	return state
}

func TestRender_CleanRepoDoesNotPanic(t *testing.T) {
	screen := tcell.NewSimulationScreen("")
	require.NoError(t, screen.Init())
	defer screen.Fini()
	screen.SetSize(80, 24)

	state := newTestState(t)
	Render(screen, state, 80, 24)
	screen.Show()
}

func TestRender_TooSmallShowsPlaceholder(t *testing.T) {
	screen := tcell.NewSimulationScreen("")
	require.NoError(t, screen.Init())
	defer screen.Fini()
	screen.SetSize(10, 5)

	state := newTestState(t)
	Render(screen, state, 10, 5)

	cells, w, h := screen.GetContents()
	found := false
	for _, c := range cells {
		for _, r := range c.Runes {
			if r == 'T' {
				found = true
			}
		}
	}
	assert.True(t, found)
	assert.Equal(t, 10, w)
	assert.Equal(t, 5, h)
}

func TestFileListHeight_CapsAtThird(t *testing.T) {
	assert.Equal(t, 1, fileListHeight(1, 30))
	assert.Equal(t, 10, fileListHeight(50, 30))
	assert.Equal(t, 3, fileListHeight(3, 30))
}

func TestTruncatePath_PreservesFilename(t *testing.T) {
	out := truncatePath("internal/appstate/very/deep/path/file.go", 15)
	assert.LessOrEqual(t, len(out), 15)
	assert.Contains(t, out, "file.go")
}

func TestTruncatePath_LongFilenameTruncatesFromLeft(t *testing.T) {
	out := truncatePath("areallylongfilenamewithnoslash.go", 10)
	assert.Len(t, out, 10)
}

func TestSharedPrefixDepth(t *testing.T) {
	assert.Equal(t, 2, sharedPrefixDepth(
		[]string{"a", "b", "c", "file.go"},
		[]string{"a", "b", "d", "other.go"},
	))
	assert.Equal(t, 0, sharedPrefixDepth(nil, []string{"a", "file.go"}))
}

func TestWrapText_SplitsAtWidth(t *testing.T) {
	out := wrapText("0123456789", 4)
	assert.Equal(t, []string{"0123", "4567", "89"}, out)
}

func TestWrapText_EmptyLineYieldsOneBlankChunk(t *testing.T) {
	assert.Equal(t, []string{""}, wrapText("", 10))
}
