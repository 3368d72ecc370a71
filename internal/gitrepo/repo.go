// Package gitrepo adapts a working tree to the operations the application
// state layer needs: status, diff, staging, committing, branching, and the
// network operations. Reads and index mutation go through go-git; stash and
// push/pull/force-push shell out to the git binary the way the pack's own
// tig client falls back to os/exec for operations go-git doesn't cover
// (UnstageAll, DiscardChanges in internal/git/client.go).
package gitrepo

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/azhao1981/gitui/internal/model"
	"github.com/azhao1981/gitui/internal/uiconfig"
)

// ErrNotARepository is returned by Open when path has no .git directory of
// its own; parent directories are not searched.
var ErrNotARepository = errors.New("not a git repository")

// ErrNoWorktree is returned by Open for a bare repository, which this
// application cannot display a file list or diffs for.
var ErrNoWorktree = errors.New("repository has no working directory")

// Repository wraps an open working tree and the go-git handle onto it.
type Repository struct {
	path             string
	repo             *git.Repository
	logger           *slog.Logger
	diffContextLines int
}

// Open opens the git repository rooted at path, without walking upward
// through parent directories (go-git's plain PlainOpen, not
// DetectDotGit) — a subdirectory invocation with no .git of its own must
// fail rather than silently open an ancestor repository. A nil logger is
// replaced with slog.Default.
func Open(path string, logger *slog.Logger) (*Repository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve repository path: %w", err)
	}

	repo, err := git.PlainOpen(absPath)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotARepository
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		if errors.Is(err, git.ErrIsBareRepository) {
			return nil, ErrNoWorktree
		}
		return nil, fmt.Errorf("open worktree: %w", err)
	}

	return &Repository{
		path:             wt.Filesystem.Root(),
		repo:             repo,
		logger:           logger,
		diffContextLines: uiconfig.Default().DiffContextLines,
	}, nil
}

// Path returns the worktree root.
func (r *Repository) Path() string {
	return r.path
}

// SetDiffContextLines overrides the number of unchanged lines shown around
// each diff hunk. Values less than or equal to zero are ignored.
func (r *Repository) SetDiffContextLines(n int) {
	if n > 0 {
		r.diffContextLines = n
	}
}

func (r *Repository) worktree() (*git.Worktree, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}
	return wt, nil
}

// GetStatus builds the staged and unstaged file lists from go-git's
// worktree status, applying the pack's own status->flag switch
// (internal/git/client.go GetStatus) but emitting model.FileEntry instead
// of the teacher's FileStatus, and layering rename detection (by matching
// staged deletions and additions that share a blob hash), submodule
// collapsing, and per-file +/- line counts on top, none of which plain
// worktree.Status() provides.
func (r *Repository) GetStatus() (staged, unstaged []model.FileEntry, err error) {
	wt, err := r.worktree()
	if err != nil {
		return nil, nil, err
	}

	st, err := wt.Status()
	if err != nil {
		return nil, nil, fmt.Errorf("read status: %w", err)
	}

	submodulePaths, err := r.submodulePaths(wt)
	if err != nil {
		r.logger.Warn("could not enumerate submodules", "error", err)
		submodulePaths = nil
	}

	paths := make([]string, 0, len(st))
	for p := range st {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var stagedAdds, stagedDeletes []string

	for _, p := range paths {
		fs := st[p]
		if _, isSubmodule := submodulePaths[p]; isSubmodule {
			if entry, ok := submoduleEntry(p, fs); ok {
				if entry.Section == model.Staged {
					staged = append(staged, entry)
				} else {
					unstaged = append(unstaged, entry)
				}
			}
			continue
		}

		if fs.Staging == git.UpdatedButUnmerged || fs.Worktree == git.UpdatedButUnmerged {
			unstaged = append(unstaged, model.FileEntry{
				Section: model.Unstaged, Path: p, Status: model.StatusConflict,
			})
			continue
		}

		if fs.Staging != git.Unmodified && fs.Staging != git.Untracked {
			entry := model.FileEntry{Section: model.Staged, Path: p}
			switch fs.Staging {
			case git.Added:
				entry.Status = model.StatusAdded
				stagedAdds = append(stagedAdds, p)
			case git.Deleted:
				entry.Status = model.StatusDeleted
				stagedDeletes = append(stagedDeletes, p)
			case git.Renamed:
				entry.Status = model.StatusRenamed
			default:
				entry.Status = model.StatusModified
			}
			staged = append(staged, entry)
		}

		switch fs.Worktree {
		case git.Untracked:
			unstaged = append(unstaged, model.FileEntry{
				Section: model.Unstaged, Path: p, Status: model.StatusUntracked,
			})
		case git.Modified, git.Deleted:
			status := model.StatusModified
			if fs.Worktree == git.Deleted {
				status = model.StatusDeleted
			}
			unstaged = append(unstaged, model.FileEntry{
				Section: model.Unstaged, Path: p, Status: status,
			})
		}
	}

	staged = r.mergeRenames(staged, stagedAdds, stagedDeletes)

	r.fillDiffStats(staged)
	r.fillDiffStats(unstaged)

	return staged, unstaged, nil
}

// submoduleEntry collapses one path's go-git FileStatus into the single
// FileEntry a submodule is allowed to produce per spec: Added/Modified/
// Deleted only, and — when both the index and worktree sides changed —
// one entry in Staged flagged SubmoduleDualState so the caller's S/U
// counts still reflect both sides.
func submoduleEntry(path string, fs *git.FileStatus) (model.FileEntry, bool) {
	stagedChanged := fs.Staging != git.Unmodified && fs.Staging != git.Untracked
	unstagedChanged := fs.Worktree == git.Modified || fs.Worktree == git.Deleted || fs.Worktree == git.Untracked

	if !stagedChanged && !unstagedChanged {
		return model.FileEntry{}, false
	}

	if stagedChanged && unstagedChanged {
		return model.FileEntry{
			Section:            model.Staged,
			Path:               path,
			Status:             model.StatusModified,
			IsSubmodule:        true,
			SubmoduleDualState: true,
		}, true
	}

	if stagedChanged {
		return model.FileEntry{
			Section:     model.Staged,
			Path:        path,
			Status:      submoduleStatus(fs.Staging),
			IsSubmodule: true,
		}, true
	}

	return model.FileEntry{
		Section:     model.Unstaged,
		Path:        path,
		Status:      submoduleStatus(fs.Worktree),
		IsSubmodule: true,
	}, true
}

// submoduleStatus maps a go-git status code to the three statuses a
// submodule may carry, defaulting anything else (e.g. Untracked, which
// go-git can report for an uninitialized submodule gitlink) to Added.
func submoduleStatus(code git.StatusCode) model.Status {
	switch code {
	case git.Deleted:
		return model.StatusDeleted
	case git.Added, git.Untracked:
		return model.StatusAdded
	default:
		return model.StatusModified
	}
}

// fillDiffStats populates AddedLines/DeletedLines/IsBinary on every
// non-submodule, non-conflict entry in place, by running the same diff
// machinery GetDiff uses for the diff panel.
func (r *Repository) fillDiffStats(entries []model.FileEntry) {
	for i := range entries {
		e := &entries[i]
		if e.IsSubmodule || e.Status == model.StatusConflict {
			continue
		}
		added, deleted, isBinary, err := r.fileStats(*e)
		if err != nil {
			r.logger.Warn("could not compute diff stats", "path", e.Path, "error", err)
			continue
		}
		e.AddedLines, e.DeletedLines, e.IsBinary = added, deleted, isBinary
	}
}

// mergeRenames collapses a staged deletion and a staged addition that
// share an index blob hash into a single StatusRenamed entry.
func (r *Repository) mergeRenames(staged []model.FileEntry, adds, deletes []string) []model.FileEntry {
	if len(adds) == 0 || len(deletes) == 0 {
		return staged
	}

	hashes := make(map[string]plumbing.Hash)
	for _, p := range adds {
		h, err := r.indexBlobHash(p)
		if err == nil {
			hashes[p] = h
		}
	}

	renamed := make(map[string]string) // addPath -> deletePath
	used := make(map[string]bool)
	for _, del := range deletes {
		delHash, err := r.headBlobHash(del)
		if err != nil {
			continue
		}
		for _, add := range adds {
			if used[add] {
				continue
			}
			if h, ok := hashes[add]; ok && h == delHash {
				renamed[add] = del
				used[add] = true
				break
			}
		}
	}
	if len(renamed) == 0 {
		return staged
	}

	result := make([]model.FileEntry, 0, len(staged))
	for _, e := range staged {
		if oldPath, ok := renamed[e.Path]; ok {
			e.Status = model.StatusRenamed
			e.OldPath = oldPath
			result = append(result, e)
			continue
		}
		if isDeletedAndMerged(e.Path, renamed) {
			continue
		}
		result = append(result, e)
	}
	return result
}

func isDeletedAndMerged(path string, renamed map[string]string) bool {
	for _, old := range renamed {
		if old == path {
			return true
		}
	}
	return false
}

func (r *Repository) indexBlobHash(path string) (plumbing.Hash, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	entry, err := idx.Entry(path)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return entry.Hash, nil
}

func (r *Repository) headBlobHash(path string) (plumbing.Hash, error) {
	head, err := r.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return plumbing.ZeroHash, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	entry, err := tree.File(path)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return entry.Hash, nil
}

func (r *Repository) submodulePaths(wt *git.Worktree) (map[string]struct{}, error) {
	subs, err := wt.Submodules()
	if err != nil {
		return nil, err
	}
	result := make(map[string]struct{}, len(subs))
	for _, s := range subs {
		result[s.Config().Path] = struct{}{}
	}
	return result, nil
}

// GetBranchIdentity reports the current HEAD as a named branch or a
// detached short hash per spec.
func (r *Repository) GetBranchIdentity() (model.BranchIdentity, error) {
	head, err := r.repo.Head()
	if err != nil {
		return model.BranchIdentity{}, fmt.Errorf("read HEAD: %w", err)
	}
	if head.Name().IsBranch() {
		return model.BranchIdentity{Kind: model.BranchNamed, Name: head.Name().Short()}, nil
	}
	short := head.Hash().String()
	if len(short) > 7 {
		short = short[:7]
	}
	return model.BranchIdentity{Kind: model.BranchDetached, Short: short}, nil
}

// IsDetachedHead reports whether HEAD currently points directly at a commit.
func (r *Repository) IsDetachedHead() (bool, error) {
	id, err := r.GetBranchIdentity()
	if err != nil {
		return false, err
	}
	return id.IsDetached(), nil
}

// Stage adds path's working tree contents to the index.
func (r *Repository) Stage(path string) error {
	wt, err := r.worktree()
	if err != nil {
		return err
	}
	if _, err := wt.Add(path); err != nil {
		return fmt.Errorf("stage %s: %w", path, err)
	}
	return nil
}

// StageAll adds every untracked and modified path to the index.
func (r *Repository) StageAll() error {
	wt, err := r.worktree()
	if err != nil {
		return err
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("stage all: %w", err)
	}
	return nil
}

// Unstage removes path from the index without touching the working tree,
// via a mixed reset scoped to that single path (go-git's per-file Reset,
// the native equivalent of `git reset -- path`).
func (r *Repository) Unstage(path string) error {
	wt, err := r.worktree()
	if err != nil {
		return err
	}
	if err := wt.Reset(&git.ResetOptions{Mode: git.MixedReset, Files: []string{path}}); err != nil {
		return fmt.Errorf("unstage %s: %w", path, err)
	}
	return nil
}

// UnstageAll resets the whole index to HEAD, leaving the working tree
// untouched.
func (r *Repository) UnstageAll() error {
	wt, err := r.worktree()
	if err != nil {
		return err
	}
	if err := wt.Reset(&git.ResetOptions{Mode: git.MixedReset}); err != nil {
		return fmt.Errorf("unstage all: %w", err)
	}
	return nil
}

// DiscardUnstaged reverts path's working tree contents to what is in the
// index (go-git exposes no per-file "checkout from index", so this shells
// out to the git binary exactly as the teacher's DiscardChanges does).
func (r *Repository) DiscardUnstaged(path string) error {
	return r.runGit("checkout", "--", path)
}

// DiscardStaged resets path's index entry to HEAD (removing it from the
// index if HEAD has no such path), leaving the working tree untouched.
func (r *Repository) DiscardStaged(path string) error {
	return r.runGit("reset", "-q", "HEAD", "--", path)
}

// DiscardUntracked removes an untracked file from the working tree.
func (r *Repository) DiscardUntracked(path string) error {
	full := filepath.Join(r.path, path)
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("remove untracked %s: %w", path, err)
	}
	return nil
}

// DiscardAllUnstaged reverts every unstaged modification to the index and
// removes every untracked file.
func (r *Repository) DiscardAllUnstaged() error {
	if err := r.runGit("checkout", "--", "."); err != nil {
		return err
	}
	return r.runGit("clean", "-fd")
}

// Commit records the staged tree. body may be empty. Amend rewrites HEAD
// instead of creating a new commit; go-git's Worktree.Commit has no amend
// mode, so amend shells out to the git binary.
func (r *Repository) Commit(title, body string, amend bool) error {
	message := title
	if body != "" {
		message = title + "\n\n" + body
	}

	if amend {
		args := []string{"commit", "--amend", "-m", message}
		return r.runGit(args...)
	}

	wt, err := r.worktree()
	if err != nil {
		return err
	}
	sig := r.commitSignature()
	if _, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig}); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// HeadCommitMessage returns HEAD's commit message split into title
// (everything before the first blank line) and body (everything after it) — the
// inverse of how Commit joins title and body back together.
func (r *Repository) HeadCommitMessage() (title, body string, err error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", "", fmt.Errorf("read HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return "", "", fmt.Errorf("read HEAD commit: %w", err)
	}
	msg := strings.TrimRight(commit.Message, "\n")
	parts := strings.SplitN(msg, "\n\n", 2)
	title = parts[0]
	if len(parts) == 2 {
		body = parts[1]
	}
	return title, body, nil
}

// commitSignature builds an author/committer identity from the
// repository's own config, falling back to a generic identity when
// neither a local nor global user.name/user.email is configured. go-git's
// Worktree.Commit requires an explicit signature in some configurations,
// so this is always computed rather than left to CommitOptions' own
// (environment-dependent) config lookup.
func (r *Repository) commitSignature() *object.Signature {
	name, email := "gitui", "gitui@localhost"
	if cfg, err := r.repo.ConfigScoped(config.GlobalScope); err == nil && cfg.User.Name != "" {
		name, email = cfg.User.Name, cfg.User.Email
	}
	return &object.Signature{Name: name, Email: email, When: time.Now()}
}

// ListLocalBranches returns local branch short names, sorted alphabetically.
func (r *Repository) ListLocalBranches() ([]string, error) {
	refs, err := r.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	var names []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// GetCurrentBranch returns the current branch short name, or an error if
// HEAD is detached.
func (r *Repository) GetCurrentBranch() (string, error) {
	id, err := r.GetBranchIdentity()
	if err != nil {
		return "", err
	}
	if id.IsDetached() {
		return "", fmt.Errorf("HEAD is detached")
	}
	return id.Name, nil
}

// SwitchBranch checks out an existing local branch.
func (r *Repository) SwitchBranch(name string) error {
	wt, err := r.worktree()
	if err != nil {
		return err
	}
	err = wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name)})
	if err != nil {
		return fmt.Errorf("switch to %s: %w", name, err)
	}
	return nil
}

// CreateAndSwitchBranch creates a new branch at HEAD and checks it out.
func (r *Repository) CreateAndSwitchBranch(name string) error {
	wt, err := r.worktree()
	if err != nil {
		return err
	}
	err = wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
	})
	if err != nil {
		return fmt.Errorf("create branch %s: %w", name, err)
	}
	return nil
}

// HasUncommittedChanges reports whether the index or working tree differs
// from HEAD.
func (r *Repository) HasUncommittedChanges() (bool, error) {
	wt, err := r.worktree()
	if err != nil {
		return false, err
	}
	st, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("read status: %w", err)
	}
	return !st.IsClean(), nil
}

// HasUpstream reports whether the current branch has a configured
// upstream tracking branch.
func (r *Repository) HasUpstream() (bool, error) {
	branch, err := r.GetCurrentBranch()
	if err != nil {
		return false, nil // detached HEAD: treat as no upstream rather than error
	}
	cfg, err := r.repo.Config()
	if err != nil {
		return false, fmt.Errorf("read config: %w", err)
	}
	b, ok := cfg.Branches[branch]
	return ok && b.Remote != "" && b.Merge != "", nil
}

// HasRemoteOrigin reports whether a remote named "origin" is configured.
func (r *Repository) HasRemoteOrigin() (bool, error) {
	_, err := r.repo.Remote("origin")
	if err != nil {
		if err == git.ErrRemoteNotFound {
			return false, nil
		}
		return false, fmt.Errorf("read remotes: %w", err)
	}
	return true, nil
}

// AbortMerge aborts an in-progress merge, restoring the pre-merge index
// and working tree. Used after a pull leaves conflicts the user declines
// to resolve.
func (r *Repository) AbortMerge() error {
	return r.runGit("merge", "--abort")
}

// StashPushIncludingUntracked stashes all tracked and untracked changes.
// go-git has no stash support, so this shells out (the same escape hatch
// the teacher uses for UnstageAll and DiscardChanges).
func (r *Repository) StashPushIncludingUntracked() error {
	return r.runGit("stash", "push", "--include-untracked")
}

// StashPop applies and drops the most recent stash.
func (r *Repository) StashPop() error {
	return r.runGit("stash", "pop")
}

// HasStashes reports whether the stash list is non-empty.
func (r *Repository) HasStashes() (bool, error) {
	out, err := r.gitOutput("stash", "list")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(out)) != "", nil
}

func (r *Repository) runGit(args ...string) error {
	_, err := r.gitOutput(args...)
	return err
}

func (r *Repository) gitOutput(args ...string) ([]byte, error) {
	cmd := gitCommand(r.path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("git %s: %s", strings.Join(args, " "), msg)
	}
	return out, nil
}
