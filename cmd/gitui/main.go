package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/azhao1981/gitui/internal/appstate"
	"github.com/azhao1981/gitui/internal/gitrepo"
	"github.com/azhao1981/gitui/internal/ui"
	"github.com/azhao1981/gitui/internal/uiconfig"
	"github.com/azhao1981/gitui/internal/watch"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "gitui",
		Short:   "Terminal UI for reviewing and staging a git working tree",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
		SilenceUsage: true,
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the repository adapter, watcher, application state, and
// terminal together. Logging goes to stderr only: the alternate screen
// buffer tcell takes over stdout would otherwise be corrupted by any
// interleaved log line.
func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg := uiconfig.Default()

	repoPath, err := filepath.Abs(".")
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}

	repo, err := gitrepo.Open(repoPath, logger)
	if err != nil {
		if errors.Is(err, gitrepo.ErrNotARepository) {
			return fmt.Errorf("not a git repository")
		}
		if errors.Is(err, gitrepo.ErrNoWorktree) {
			return fmt.Errorf("repository has no working directory")
		}
		return err
	}
	repo.SetDiffContextLines(cfg.DiffContextLines)

	state, err := appstate.New(repo, logger)
	if err != nil {
		return fmt.Errorf("read initial status: %w", err)
	}

	watcher := watch.New(repoPath, logger, cfg)
	defer watcher.Close()

	terminal, err := ui.NewTerminal(state, watcher, logger, cfg)
	if err != nil {
		return fmt.Errorf("initialize terminal: %w", err)
	}
	defer terminal.Close()

	return terminal.Run()
}
