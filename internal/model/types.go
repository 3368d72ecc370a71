// Package model holds the value types shared between the repository
// adapter, application state, and renderer: file entries, diff content,
// branch identity, and the small set of UI overlay states (modals,
// confirmation prompts, flash messages, undo records).
package model

import "fmt"

// Section identifies which half of the file list a FileEntry belongs to.
type Section int

const (
	Staged Section = iota
	Unstaged
)

func (s Section) String() string {
	if s == Staged {
		return "Staged"
	}
	return "Unstaged"
}

// Status is the per-file change kind.
type Status int

const (
	StatusAdded Status = iota
	StatusModified
	StatusDeleted
	StatusRenamed
	StatusUntracked
	StatusConflict
)

func (s Status) String() string {
	switch s {
	case StatusAdded:
		return "Added"
	case StatusModified:
		return "Modified"
	case StatusDeleted:
		return "Deleted"
	case StatusRenamed:
		return "Renamed"
	case StatusUntracked:
		return "Untracked"
	case StatusConflict:
		return "Conflict"
	default:
		return "Unknown"
	}
}

// Letter returns the single-character status code used in the marker
// column, e.g. "M" for Modified.
func (s Status) Letter() string {
	switch s {
	case StatusAdded:
		return "A"
	case StatusModified:
		return "M"
	case StatusDeleted:
		return "D"
	case StatusRenamed:
		return "R"
	case StatusUntracked:
		return "?"
	case StatusConflict:
		return "U"
	default:
		return " "
	}
}

// FileEntry is one row representing a path in one section.
//
// Invariant: if IsBinary, AddedLines and DeletedLines are both nil.
// Invariant: Status == StatusConflict implies Section == Unstaged.
// Invariant: Status == StatusUntracked implies Section == Unstaged.
// Invariant: IsSubmodule implies Status is Added, Modified, or Deleted.
type FileEntry struct {
	Section Section
	Path    string
	OldPath string // non-empty only for renames

	Status Status

	AddedLines   *int
	DeletedLines *int

	IsBinary    bool
	IsSubmodule bool

	// SubmoduleDualState is set when this submodule entry stands in for
	// both a staged and an unstaged pointer change. It is always in
	// Staged; the counts that derive S/U must count it toward Unstaged
	// too, per spec's "contributes to both S and U despite having one
	// entry."
	SubmoduleDualState bool
}

// Key returns the (section, path) identity used for diff focus and
// multi-select membership.
func (e FileEntry) Key() FileKey {
	return FileKey{Section: e.Section, Path: e.Path}
}

// FileKey identifies a file entry by section and path. It is the identity
// used to preserve diff focus and multi-select membership across refreshes,
// as distinct from the highlight index which is preserved by position.
type FileKey struct {
	Section Section
	Path    string
}

func (k FileKey) String() string {
	return fmt.Sprintf("%s:%s", k.Section, k.Path)
}

// VisibleRow is the flattened, navigable projection of staged and unstaged
// file lists. Section headers never occupy a VisibleRow; the renderer does
// not draw section headers either.
type VisibleRow struct {
	Section Section
	Path    string
	Index   int // index into the source FileEntry slice for this section
}

// BuildVisibleRows concatenates staged then unstaged entries into the
// flattened navigation list. rows.len() == len(staged) + len(unstaged);
// the first len(staged) rows have Section == Staged, the rest Unstaged.
func BuildVisibleRows(staged, unstaged []FileEntry) []VisibleRow {
	rows := make([]VisibleRow, 0, len(staged)+len(unstaged))
	for i, e := range staged {
		rows = append(rows, VisibleRow{Section: Staged, Path: e.Path, Index: i})
	}
	for i, e := range unstaged {
		rows = append(rows, VisibleRow{Section: Unstaged, Path: e.Path, Index: i})
	}
	return rows
}

// BranchKind discriminates BranchIdentity.
type BranchKind int

const (
	BranchNamed BranchKind = iota
	BranchDetached
)

// BranchIdentity is Branch(name) | Detached(short hash). Detached forbids
// push (see appstate dispatch for the push precondition check).
type BranchIdentity struct {
	Kind  BranchKind
	Name  string // set when Kind == BranchNamed
	Short string // 7-char hex hash, set when Kind == BranchDetached
}

func (b BranchIdentity) String() string {
	if b.Kind == BranchNamed {
		return b.Name
	}
	return fmt.Sprintf("(detached %s)", b.Short)
}

// IsDetached reports whether HEAD refers to a commit rather than a branch.
func (b BranchIdentity) IsDetached() bool {
	return b.Kind == BranchDetached
}

// DiffLineKind tags one rendered diff line.
type DiffLineKind int

const (
	DiffHeader DiffLineKind = iota
	DiffHunk
	DiffContext
	DiffAdded
	DiffDeleted
)

func (k DiffLineKind) String() string {
	switch k {
	case DiffHeader:
		return "Header"
	case DiffHunk:
		return "Hunk"
	case DiffContext:
		return "Context"
	case DiffAdded:
		return "Added"
	case DiffDeleted:
		return "Deleted"
	default:
		return "Unknown"
	}
}

// DiffLine is one displayed line of a unified diff. NewLineNumber is absent
// (nil) for Deleted lines and may be absent for Header/Hunk lines.
type DiffLine struct {
	Kind          DiffLineKind
	Content       string
	NewLineNumber *int
}

// DiffContentKind discriminates DiffContent.
type DiffContentKind int

const (
	DiffEmpty DiffContentKind = iota
	DiffClean
	DiffText
	DiffBinary
	DiffInvalidUtf8
	DiffConflictKind
)

// DiffContent is Empty | Clean | Text(lines) | Binary | InvalidUtf8 |
// Conflict. Conflict is produced whenever the focused file's status is
// Conflict; no textual diff is attempted in that case.
type DiffContent struct {
	Kind  DiffContentKind
	Lines []DiffLine
}

var (
	EmptyDiff    = DiffContent{Kind: DiffEmpty}
	CleanDiff    = DiffContent{Kind: DiffClean}
	BinaryDiff   = DiffContent{Kind: DiffBinary}
	InvalidUtf8Diff = DiffContent{Kind: DiffInvalidUtf8}
	ConflictDiff = DiffContent{Kind: DiffConflictKind}
)

// TextDiff wraps a line slice as a DiffContent.
func TextDiff(lines []DiffLine) DiffContent {
	return DiffContent{Kind: DiffText, Lines: lines}
}

// MultiSelectSet is the unordered set of file identities marked for bulk
// action. It is pruned on every refresh to pairs still present among the
// current FileEntries.
type MultiSelectSet map[FileKey]struct{}

func NewMultiSelectSet() MultiSelectSet {
	return make(MultiSelectSet)
}

func (s MultiSelectSet) Toggle(k FileKey) {
	if _, ok := s[k]; ok {
		delete(s, k)
	} else {
		s[k] = struct{}{}
	}
}

func (s MultiSelectSet) Clear() {
	for k := range s {
		delete(s, k)
	}
}

// Prune removes entries whose key is not present in valid.
func (s MultiSelectSet) Prune(valid map[FileKey]struct{}) {
	for k := range s {
		if _, ok := valid[k]; !ok {
			delete(s, k)
		}
	}
}

func (s MultiSelectSet) Keys() []FileKey {
	keys := make([]FileKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	return keys
}

// UndoKind discriminates UndoRecord.
type UndoKind int

const (
	UndoStage UndoKind = iota
	UndoUnstage
)

// UndoRecord is Stage{paths} | Unstage{paths}. At most one is outstanding
// at a time; it is cleared by any commit/discard/branch-switch/pull/push/
// stash operation, or by consuming it via Ctrl-Z.
type UndoRecord struct {
	Kind  UndoKind
	Paths []string
}

// ActionToken names the operation a ConfirmPrompt is gating.
type ActionToken int

const (
	ActionStageAll ActionToken = iota
	ActionUnstageAll
	ActionDiscardAll
	ActionDiscardSelected
	ActionDiscardUntrackedSelected
	ActionForcePush
	ActionAbortMergeAfterPull
)

// ConfirmPrompt is a pending yes/no decision. At most one is active; while
// active it blocks ordinary key handling.
type ConfirmPrompt struct {
	Message string
	Action  ActionToken
	// Targets carries the (section, path) target set for discard-style
	// prompts so the confirm handler does not need to recompute the
	// action target — which might have changed if the multi-select set
	// is cleared — and so a staged target is routed to DiscardStaged
	// rather than DiscardUnstaged.
	Targets []FileKey
}

// FlashMessage is a transient bottom-line banner. It auto-expires after
// between 2.0s and 3.0s; a ConfirmPrompt, if present, hides it.
type FlashMessage struct {
	Text        string
	IsError     bool
	FirstShownAt int64 // unix nanos; stamped by the caller, not this package
}

// ModalKind discriminates ModalState.
type ModalKind int

const (
	ModalNone ModalKind = iota
	ModalCommit
	ModalBranch
	ModalHelp
	ModalProgress
)

// ModalState is None | Commit | Branch | Help | Progress(op_label).
// Commit/Branch/Help accept keys; Progress blocks all input except the
// cancellation signal.
type ModalState struct {
	Kind      ModalKind
	OpLabel   string // set when Kind == ModalProgress
	Cancelled bool   // best-effort cancellation flag for Progress
}

// CommitFocus discriminates which field of the Commit modal has focus.
type CommitFocus int

const (
	FocusTitle CommitFocus = iota
	FocusBody
	FocusAmendToggle
)

// CommitModal holds the Commit modal's editable state.
type CommitModal struct {
	Title string
	Body  string
	Focus CommitFocus
	Amend bool
	Error string
}

// BranchModal holds the Branch modal's editable state. Branches is kept
// alphabetical; filtering and the synthetic "create" row are computed by
// the renderer/dispatch from Filter rather than stored redundantly here.
type BranchModal struct {
	Filter          string
	Branches        []string
	HighlightedIdx  int
	CurrentBranch   string
	Error           string
}
