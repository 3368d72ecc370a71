package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// gitCommand builds a git invocation rooted at dir. Network operations run
// through the git binary rather than go-git's own (experimental, auth-
// limited) transport support, the same escape hatch the teacher's
// ExecuteCommand uses for every operation go-git's high level API doesn't
// cover.
func gitCommand(dir string, args ...string) *exec.Cmd {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	return cmd
}

func (r *Repository) runGitContext(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.path
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		r.logger.Warn("remote git command failed", "args", args, "error", msg)
		return fmt.Errorf("git %s: %s", strings.Join(args, " "), msg)
	}
	return nil
}

// Push pushes the current branch to its upstream, or to origin/<branch>
// with --set-upstream if no upstream is configured yet.
func (r *Repository) Push(ctx context.Context) error {
	hasUpstream, err := r.HasUpstream()
	if err != nil {
		return err
	}
	if hasUpstream {
		return r.runGitContext(ctx, "push")
	}
	branch, err := r.GetCurrentBranch()
	if err != nil {
		return fmt.Errorf("push: %w", err)
	}
	return r.runGitContext(ctx, "push", "--set-upstream", "origin", branch)
}

// ForcePush force-pushes the current branch with lease protection, the
// safer equivalent of a bare --force.
func (r *Repository) ForcePush(ctx context.Context) error {
	return r.runGitContext(ctx, "push", "--force-with-lease")
}

// Pull fetches and merges the upstream branch into the current branch.
func (r *Repository) Pull(ctx context.Context) error {
	return r.runGitContext(ctx, "pull")
}
