// Package colors holds the fixed Catppuccin Mocha palette used by every
// drawing routine in internal/ui. Unlike the teacher's internal/ui/theme.go,
// this palette is not configurable: spec.md's Non-goals explicitly exclude
// configurable themes, so there is no loadFromConfig step here.
package colors

import (
	"github.com/gdamore/tcell/v2"

	"github.com/azhao1981/gitui/internal/model"
)

// Semantic names map to Catppuccin Mocha RGB triples.
var (
	Added    = rgb(0xa6, 0xe3, 0xa1) // green
	Deleted  = rgb(0xf3, 0x8b, 0xa8) // red
	Modified = rgb(0xf9, 0xe2, 0xaf) // yellow
	Renamed  = rgb(0x89, 0xb4, 0xfa) // blue
	Untracked = rgb(0xa6, 0xad, 0xc8) // subtext0
	Conflict = rgb(0xeb, 0xa0, 0xac) // maroon
	Header   = rgb(0x89, 0xdc, 0xeb) // sky
	Hunk     = rgb(0x94, 0xe2, 0xd5) // teal
	Text     = rgb(0xcd, 0xd6, 0xf4) // text
	Surface  = rgb(0x31, 0x32, 0x44) // surface0
	Overlay  = rgb(0x6c, 0x70, 0x86) // overlay0

	Base   = rgb(0x1e, 0x1e, 0x2e)
	Mantle = rgb(0x18, 0x18, 0x25)
	Crust  = rgb(0x11, 0x11, 0x1b)

	Rosewater = rgb(0xf5, 0xe0, 0xdc)
	Flamingo  = rgb(0xf2, 0xcd, 0xcd)
	Mauve     = rgb(0xcb, 0xa6, 0xf7)
	Peach     = rgb(0xfa, 0xb3, 0x87)
	Lavender  = rgb(0xb4, 0xbe, 0xfe)
	Subtext0  = rgb(0xa6, 0xad, 0xc8)
	Subtext1  = rgb(0xba, 0xc2, 0xde)
)

func rgb(r, g, b int32) tcell.Color {
	return tcell.NewRGBColor(r, g, b)
}

// StatusColor returns the semantic color for a FileEntry status, as
// rendered by the file-list marker column. Unrecognized statuses fall back
// to Text so a rendering bug never produces an invisible row.
func StatusColor(status model.Status) tcell.Color {
	switch status {
	case model.StatusAdded:
		return Added
	case model.StatusModified:
		return Modified
	case model.StatusDeleted:
		return Deleted
	case model.StatusRenamed:
		return Renamed
	case model.StatusUntracked:
		return Untracked
	case model.StatusConflict:
		return Conflict
	default:
		return Text
	}
}

// DiffLineColor returns the semantic color for a diff line kind.
func DiffLineColor(kind model.DiffLineKind) tcell.Color {
	switch kind {
	case model.DiffHeader, model.DiffHunk:
		return Hunk
	case model.DiffAdded:
		return Added
	case model.DiffDeleted:
		return Deleted
	default:
		return Text
	}
}

// Style is a small helper mirroring the teacher's Theme.GetStyle: a
// foreground-only style built from one of the semantic colors above.
func Style(fg tcell.Color) tcell.Style {
	return tcell.StyleDefault.Foreground(fg)
}

// StyleBg builds a style with both foreground and background set.
func StyleBg(fg, bg tcell.Color) tcell.Style {
	return tcell.StyleDefault.Foreground(fg).Background(bg)
}
