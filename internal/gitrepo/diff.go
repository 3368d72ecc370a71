package gitrepo

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/azhao1981/gitui/internal/model"
)

// binarySniffLen bounds how much of a file is scanned for a NUL byte
// before it is classified as binary, the same heuristic git itself uses.
const binarySniffLen = 8000

// GetDiff builds the DiffContent for one file entry. Staged entries are
// diffed against HEAD; unstaged entries are diffed against the index (or
// against nothing, for untracked files). Conflicted entries never reach
// the diff machinery below — GetDiff returns model.ConflictDiff for them
// directly.
func (r *Repository) GetDiff(entry model.FileEntry) (model.DiffContent, error) {
	if entry.Status == model.StatusConflict {
		return model.ConflictDiff, nil
	}

	oldContent, oldPresent, err := r.oldSideContent(entry)
	if err != nil {
		return model.DiffContent{}, err
	}
	newContent, newPresent, err := r.newSideContent(entry)
	if err != nil {
		return model.DiffContent{}, err
	}

	if !oldPresent && !newPresent {
		return model.EmptyDiff, nil
	}

	if looksBinary(oldContent) || looksBinary(newContent) {
		return model.BinaryDiff, nil
	}
	if !utf8.Valid(oldContent) || !utf8.Valid(newContent) {
		return model.InvalidUtf8Diff, nil
	}

	if bytes.Equal(oldContent, newContent) {
		return model.CleanDiff, nil
	}

	oldName := entry.Path
	if entry.OldPath != "" {
		oldName = entry.OldPath
	}

	diffText, err := unifiedDiffText(oldName, entry.Path, oldContent, newContent, r.diffContextLines)
	if err != nil {
		return model.DiffContent{}, fmt.Errorf("build diff for %s: %w", entry.Path, err)
	}

	return model.TextDiff(parseUnifiedDiff(diffText)), nil
}

// fileStats derives the +/- line counts and binary flag GetStatus needs
// for entry by running the same diff pipeline GetDiff uses for the diff
// panel, so the two never disagree about what counts as added, deleted,
// or binary.
func (r *Repository) fileStats(entry model.FileEntry) (added, deleted *int, isBinary bool, err error) {
	diff, err := r.GetDiff(entry)
	if err != nil {
		return nil, nil, false, err
	}
	switch diff.Kind {
	case model.DiffBinary:
		return nil, nil, true, nil
	case model.DiffText:
		a, d := 0, 0
		for _, line := range diff.Lines {
			switch line.Kind {
			case model.DiffAdded:
				a++
			case model.DiffDeleted:
				d++
			}
		}
		return &a, &d, false, nil
	default:
		return nil, nil, false, nil
	}
}

// oldSideContent returns the "before" content for entry: HEAD for staged
// entries, the index for unstaged entries. present is false when the path
// does not exist on that side (new file).
func (r *Repository) oldSideContent(entry model.FileEntry) (content []byte, present bool, err error) {
	switch entry.Section {
	case model.Staged:
		oldPath := entry.Path
		if entry.OldPath != "" {
			oldPath = entry.OldPath
		}
		return r.headFileContent(oldPath)
	default: // Unstaged
		if entry.Status == model.StatusUntracked {
			return nil, false, nil
		}
		return r.indexFileContent(entry.Path)
	}
}

// newSideContent returns the "after" content for entry: the index for
// staged entries, the working tree for unstaged entries.
func (r *Repository) newSideContent(entry model.FileEntry) (content []byte, present bool, err error) {
	switch entry.Section {
	case model.Staged:
		if entry.Status == model.StatusDeleted {
			return nil, false, nil
		}
		return r.indexFileContent(entry.Path)
	default: // Unstaged
		if entry.Status == model.StatusDeleted {
			return nil, false, nil
		}
		return r.worktreeFileContent(entry.Path)
	}
}

func (r *Repository) headFileContent(path string) ([]byte, bool, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, false, fmt.Errorf("read HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, false, fmt.Errorf("read HEAD commit: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, false, fmt.Errorf("read HEAD tree: %w", err)
	}
	f, err := tree.File(path)
	if err != nil {
		return nil, false, nil
	}
	text, err := f.Contents()
	if err != nil {
		return nil, false, fmt.Errorf("read HEAD blob %s: %w", path, err)
	}
	return []byte(text), true, nil
}

func (r *Repository) indexFileContent(path string) ([]byte, bool, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, false, fmt.Errorf("read index: %w", err)
	}
	entry, err := idx.Entry(path)
	if err != nil {
		return nil, false, nil
	}
	blob, err := r.repo.BlobObject(entry.Hash)
	if err != nil {
		return nil, false, fmt.Errorf("read index blob %s: %w", path, err)
	}
	reader, err := blob.Reader()
	if err != nil {
		return nil, false, fmt.Errorf("read index blob %s: %w", path, err)
	}
	defer reader.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, false, fmt.Errorf("read index blob %s: %w", path, err)
	}
	return buf.Bytes(), true, nil
}

func (r *Repository) worktreeFileContent(path string) ([]byte, bool, error) {
	wt, err := r.worktree()
	if err != nil {
		return nil, false, err
	}
	f, err := wt.Filesystem.Open(path)
	if err != nil {
		return nil, false, nil
	}
	defer f.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		return nil, false, fmt.Errorf("read working file %s: %w", path, err)
	}
	return buf.Bytes(), true, nil
}

func looksBinary(content []byte) bool {
	n := len(content)
	if n > binarySniffLen {
		n = binarySniffLen
	}
	return bytes.IndexByte(content[:n], 0) >= 0
}

// unifiedDiffText renders a unified diff between two file contents using
// go-difflib, the textual-diff dependency the teacher pulls in transitively
// through go-git (promoted here to a direct import since nothing else in
// go-git exposes blob-to-blob patch text through a stable API).
func unifiedDiffText(oldName, newName string, oldContent, newContent []byte, contextLines int) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(oldContent)),
		B:        difflib.SplitLines(string(newContent)),
		FromFile: "a/" + oldName,
		ToFile:   "b/" + newName,
		Context:  contextLines,
	}
	return difflib.GetUnifiedDiffString(diff)
}

// parseUnifiedDiff turns go-difflib's textual unified diff output into
// model.DiffLine values, tracking new-side line numbers by parsing each
// "@@ -a,b +c,d @@" hunk header.
func parseUnifiedDiff(text string) []model.DiffLine {
	var lines []model.DiffLine
	if text == "" {
		return lines
	}

	newLine := 0
	for _, raw := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		switch {
		case strings.HasPrefix(raw, "--- ") || strings.HasPrefix(raw, "+++ "):
			lines = append(lines, model.DiffLine{Kind: model.DiffHeader, Content: raw})
		case strings.HasPrefix(raw, "@@"):
			newLine = parseHunkNewStart(raw)
			lines = append(lines, model.DiffLine{Kind: model.DiffHunk, Content: raw})
		case strings.HasPrefix(raw, "+"):
			n := newLine
			newLine++
			lines = append(lines, model.DiffLine{Kind: model.DiffAdded, Content: raw, NewLineNumber: &n})
		case strings.HasPrefix(raw, "-"):
			lines = append(lines, model.DiffLine{Kind: model.DiffDeleted, Content: raw})
		default:
			n := newLine
			newLine++
			lines = append(lines, model.DiffLine{Kind: model.DiffContext, Content: raw, NewLineNumber: &n})
		}
	}
	return lines
}

// parseHunkNewStart extracts the starting new-side line number from a
// "@@ -a,b +c,d @@" header, returning 0 if it cannot be parsed.
func parseHunkNewStart(header string) int {
	idx := strings.Index(header, "+")
	if idx < 0 {
		return 0
	}
	rest := header[idx+1:]
	end := strings.IndexAny(rest, ", @")
	if end < 0 {
		end = len(rest)
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0
	}
	return n
}
