// Package ui draws application state to the terminal and multiplexes input.
// Render is a pure projection: it never mutates the appstate.State it is
// given, mirroring the teacher's View.Render(screen, x, y, w, h) shape but
// collapsed into one function per region since this application has a
// single fixed layout instead of switchable views.
package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/azhao1981/gitui/internal/appstate"
	"github.com/azhao1981/gitui/internal/colors"
	"github.com/azhao1981/gitui/internal/model"
)

const (
	minWidth  = 30
	minHeight = 10
)

// Render draws the whole frame: status bar, file list, diff panel, then any
// modal overlay on top. For a normal frame it does not call screen.Show;
// the caller does that once per frame. The "Terminal too small"
// placeholder is the exception: drawTooSmall calls screen.Show itself.
func Render(screen tcell.Screen, s *appstate.State, width, height int) {
	screen.Clear()

	if width < minWidth || height < minHeight {
		drawTooSmall(screen, width, height)
		return
	}

	drawStatusBar(screen, s, width)

	listHeight := fileListHeight(len(s.Rows), height)
	drawFileList(screen, s, 1, listHeight, width)

	diffY := 1 + listHeight
	diffHeight := height - diffY - 1
	if diffHeight < 0 {
		diffHeight = 0
	}
	drawDiffPanel(screen, s, diffY, diffHeight, width)

	drawFlash(screen, s, height, width)

	switch s.Modal.Kind {
	case model.ModalCommit:
		drawCommitModal(screen, s, width, height)
	case model.ModalBranch:
		drawBranchModal(screen, s, width, height)
	case model.ModalHelp:
		drawHelpModal(screen, width, height)
	case model.ModalProgress:
		drawProgressModal(screen, s.Modal.OpLabel, width, height)
	}

	if s.Confirm != nil {
		drawConfirmPrompt(screen, s.Confirm.Message, width, height)
	}
}

// fileListHeight implements the dynamic-height-up-to-floor(total_rows/3) rule.
func fileListHeight(rowCount, totalRows int) int {
	cap := totalRows / 3
	if cap < 1 {
		cap = 1
	}
	h := rowCount
	if h > cap {
		h = cap
	}
	if h < 1 {
		h = 1
	}
	return h
}

func drawTooSmall(screen tcell.Screen, width, height int) {
	msg := "Terminal too small"
	hint := fmt.Sprintf("need at least %dx%d", minWidth, minHeight)
	drawCentered(screen, msg, width, height/2, colors.Style(colors.Text).Bold(true))
	drawCentered(screen, hint, width, height/2+1, colors.Style(colors.Overlay))
	screen.Show()
}

func drawCentered(screen tcell.Screen, text string, width, y int, style tcell.Style) {
	x := (width - len(text)) / 2
	if x < 0 {
		x = 0
	}
	drawText(screen, x, y, width-x, style, text)
}

func drawText(screen tcell.Screen, x, y, maxWidth int, style tcell.Style, text string) {
	i := 0
	for _, r := range text {
		if i >= maxWidth {
			break
		}
		screen.SetContent(x+i, y, r, nil, style)
		i++
	}
}

func fillRow(screen tcell.Screen, x, y, width int, style tcell.Style) {
	for i := 0; i < width; i++ {
		screen.SetContent(x+i, y, ' ', nil, style)
	}
}

func drawStatusBar(screen tcell.Screen, s *appstate.State, width int) {
	style := colors.StyleBg(colors.Text, colors.Surface)
	fillRow(screen, 0, 0, width, style)

	left := fmt.Sprintf(" %s  S:%d U:%d ?:%d", s.Branch.String(), s.Counts.Staged, s.Counts.Unstaged, s.Counts.Untracked)
	drawText(screen, 0, 0, width, style.Bold(true), left)

	hints := "? help  q quit"
	if len(hints)+len(left) < width-2 {
		drawText(screen, width-len(hints)-1, 0, len(hints), style.Dim(true), hints)
	}
}

func drawFlash(screen tcell.Screen, s *appstate.State, totalHeight, width int) {
	if s.Flash == nil || s.Confirm != nil {
		return
	}
	style := colors.Style(colors.Added)
	if s.Flash.IsError {
		style = colors.Style(colors.Deleted)
	}
	drawText(screen, 1, totalHeight-1, width-2, style, s.Flash.Text)
}

// drawFileList renders the staged-then-unstaged rows starting at y,
// occupying height rows, with the left-to-right marker/status/path/+-
// layout and degradation order from spec: drop counts, truncate path with
// leading ellipsis, filename only, status symbol alone.
func drawFileList(screen tcell.Screen, s *appstate.State, y, height, width int) {
	fillRegion(screen, y, height, width)

	if len(s.Rows) == 0 {
		drawText(screen, 1, y, width-2, colors.Style(colors.Overlay), "Clean working tree")
		return
	}

	start := 0
	if s.HighlightIndex != nil {
		h := *s.HighlightIndex
		if h >= height {
			start = h - height + 1
		}
	}
	end := start + height
	if end > len(s.Rows) {
		end = len(s.Rows)
	}
	visible := s.Rows[start:end]

	prevSection := model.Section(-1)
	prevSegments := []string{}

	for i, row := range visible {
		rowY := y + i
		entry := entryForRow(s, row)
		if entry == nil {
			continue
		}

		highlighted := s.HighlightIndex != nil && *s.HighlightIndex == start+i
		selected := false
		if _, ok := s.MultiSelect[model.FileKey{Section: row.Section, Path: row.Path}]; ok {
			selected = true
		}

		rowStyle := tcell.StyleDefault
		if highlighted {
			rowStyle = colors.StyleBg(colors.Text, colors.Surface)
		}
		fillRow(screen, 0, rowY, width, rowStyle)

		if row.Section != prevSection {
			prevSection = row.Section
			prevSegments = nil
		}

		segments := strings.Split(row.Path, "/")
		depth := sharedPrefixDepth(prevSegments, segments)
		prevSegments = segments

		marker := markerGlyph(selected, highlighted)
		drawText(screen, 0, rowY, 2, rowStyle, marker)

		statusStyle := rowStyle.Foreground(colors.StatusColor(entry.Status))
		drawText(screen, 2, rowY, 2, statusStyle, entry.Status.Letter()+" ")

		pathCol := 4 + depth*2
		countsText := countsSuffix(entry)
		available := width - pathCol - len(countsText) - 1

		pathText := pathDisplay(entry)
		if available < 8 {
			countsText = ""
			available = width - pathCol - 1
		}
		if len(pathText) > available && available > 0 {
			pathText = truncatePath(pathText, available)
		}
		drawText(screen, pathCol, rowY, width-pathCol, rowStyle, pathText)

		if countsText != "" {
			drawText(screen, width-len(countsText)-1, rowY, len(countsText), rowStyle, countsText)
		}
	}
}

func fillRegion(screen tcell.Screen, y, height, width int) {
	for i := 0; i < height; i++ {
		fillRow(screen, 0, y+i, width, tcell.StyleDefault)
	}
}

func entryForRow(s *appstate.State, row model.VisibleRow) *model.FileEntry {
	list := s.Staged
	if row.Section == model.Unstaged {
		list = s.Unstaged
	}
	if row.Index < 0 || row.Index >= len(list) {
		return nil
	}
	return &list[row.Index]
}

func markerGlyph(selected, highlighted bool) string {
	switch {
	case selected && highlighted:
		return "●>"
	case selected:
		return "●"
	case highlighted:
		return "> "
	default:
		return "  "
	}
}

func countsSuffix(e *model.FileEntry) string {
	if e.IsBinary {
		return "-/-"
	}
	if e.AddedLines == nil && e.DeletedLines == nil {
		return ""
	}
	added, deleted := 0, 0
	if e.AddedLines != nil {
		added = *e.AddedLines
	}
	if e.DeletedLines != nil {
		deleted = *e.DeletedLines
	}
	return fmt.Sprintf("+%d/-%d", added, deleted)
}

func pathDisplay(e *model.FileEntry) string {
	if e.OldPath != "" {
		return e.OldPath + " → " + e.Path
	}
	return e.Path
}

func sharedPrefixDepth(prev, cur []string) int {
	depth := 0
	for depth < len(prev)-1 && depth < len(cur)-1 && prev[depth] == cur[depth] {
		depth++
	}
	if depth > 6 {
		depth = 6
	}
	return depth
}

// truncatePath implements degradation steps 2-3: leading ellipsis keeping
// at least the last path component, falling back to filename only.
func truncatePath(path string, width int) string {
	if width <= 0 {
		return ""
	}
	base := path
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		base = path[idx+1:]
	}
	if len(base) >= width {
		if len(base) > width {
			return base[len(base)-width:]
		}
		return base
	}
	ellipsis := "…/"
	budget := width - len(base)
	if budget <= len(ellipsis) {
		return base
	}
	remaining := path[:len(path)-len(base)]
	if len(remaining) > budget-len(ellipsis) {
		remaining = remaining[len(remaining)-(budget-len(ellipsis)):]
	}
	return ellipsis + remaining + base
}

// drawDiffPanel renders the focused file's diff with a left gutter carrying
// the new-side line number on each logical line's first visual row, wrapped
// to viewport width. Placeholder panels handle the non-Text DiffContent
// kinds.
func drawDiffPanel(screen tcell.Screen, s *appstate.State, y, height, width int) {
	fillRegion(screen, y, height, width)
	if height <= 0 {
		return
	}

	switch s.DiffContent.Kind {
	case model.DiffEmpty:
		drawCentered(screen, "No file focused — press Enter on a row", width, y+height/2, colors.Style(colors.Overlay))
		return
	case model.DiffClean:
		drawCentered(screen, "Working tree clean", width, y+height/2, colors.Style(colors.Overlay))
		return
	case model.DiffBinary:
		drawCentered(screen, "Binary file, diff not shown", width, y+height/2, colors.Style(colors.Overlay))
		return
	case model.DiffInvalidUtf8:
		drawCentered(screen, "File is not valid UTF-8, diff not shown", width, y+height/2, colors.Style(colors.Overlay))
		return
	case model.DiffConflictKind:
		drawCentered(screen, "Merge conflict — resolve manually, no diff shown", width, y+height/2, colors.Style(colors.Conflict))
		return
	}

	gutterWidth := 6
	contentWidth := width - gutterWidth
	if contentWidth < 1 {
		contentWidth = 1
	}

	type visualLine struct {
		gutter  string
		content string
		style   tcell.Style
	}
	var visual []visualLine

	for _, line := range s.DiffContent.Lines {
		style := colors.Style(colors.DiffLineColor(line.Kind))
		if line.Kind == model.DiffHeader || line.Kind == model.DiffHunk {
			style = style.Bold(true)
		}
		gutter := "-"
		if line.NewLineNumber != nil {
			gutter = fmt.Sprintf("%d", *line.NewLineNumber)
		} else if line.Kind == model.DiffDeleted {
			gutter = "-"
		} else {
			gutter = ""
		}

		chunks := wrapText(line.Content, contentWidth)
		if len(chunks) == 0 {
			chunks = []string{""}
		}
		for i, chunk := range chunks {
			g := ""
			if i == 0 {
				g = gutter
			}
			visual = append(visual, visualLine{gutter: g, content: chunk, style: style})
		}
	}

	start := s.DiffScroll * height
	if start > len(visual) {
		start = len(visual)
	}
	end := start + height
	if end > len(visual) {
		end = len(visual)
	}

	for i := start; i < end; i++ {
		rowY := y + (i - start)
		vl := visual[i]
		drawText(screen, 0, rowY, gutterWidth-1, colors.Style(colors.Overlay), vl.gutter)
		drawText(screen, gutterWidth, rowY, contentWidth, vl.style, vl.content)
	}
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return []string{""}
	}
	var out []string
	for len(runes) > 0 {
		n := width
		if n > len(runes) {
			n = len(runes)
		}
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}

func drawConfirmPrompt(screen tcell.Screen, message string, width, height int) {
	boxW := len(message) + 6
	if boxW > width-2 {
		boxW = width - 2
	}
	boxH := 3
	x := (width - boxW) / 2
	y := (height - boxH) / 2
	drawBox(screen, x, y, boxW, boxH, "")
	drawCentered(screen, message+" [y/N]", width, y+1, colors.Style(colors.Modified).Bold(true))
}

func drawProgressModal(screen tcell.Screen, label string, width, height int) {
	boxW := len(label) + 10
	if boxW > width-2 {
		boxW = width - 2
	}
	boxH := 3
	x := (width - boxW) / 2
	y := (height - boxH) / 2
	drawBox(screen, x, y, boxW, boxH, "")
	drawCentered(screen, "⠋ "+label, width, y+1, colors.Style(colors.Hunk))
}

func drawHelpModal(screen tcell.Screen, width, height int) {
	boxW := width - 6
	boxH := height - 4
	if boxW < 20 {
		boxW = width
	}
	if boxH < 6 {
		boxH = height
	}
	x := (width - boxW) / 2
	y := (height - boxH) / 2
	drawBox(screen, x, y, boxW, boxH, "Help")

	categories := []struct {
		title string
		items []string
	}{
		{"Navigation", []string{"↑/↓ move", "PgUp/PgDn scroll diff", "Enter focus diff", "Esc clear selection"}},
		{"Staging", []string{"Space select", "s stage", "u unstage", "S/U stage/unstage all", "Ctrl-Z undo"}},
		{"Changes", []string{"d discard", "D discard all", "c commit", "b branch"}},
		{"Remote", []string{"p push", "P force-push", "l pull", "z stash", "Z pop stash"}},
		{"General", []string{"r refresh", "Ctrl-L redraw", "? this help", "q quit"}},
	}

	row := y + 2
	for _, cat := range categories {
		if row >= y+boxH-1 {
			break
		}
		drawText(screen, x+2, row, boxW-4, colors.Style(colors.Header).Bold(true), cat.title)
		row++
		for _, item := range cat.items {
			if row >= y+boxH-1 {
				break
			}
			drawText(screen, x+4, row, boxW-6, colors.Style(colors.Text), item)
			row++
		}
		row++
	}
}

func drawCommitModal(screen tcell.Screen, s *appstate.State, width, height int) {
	c := s.Commit
	if c == nil {
		return
	}
	boxW := width - 10
	if boxW < 40 {
		boxW = width - 2
	}
	boxH := 10 + len(s.Staged)
	if boxH > height-2 {
		boxH = height - 2
	}
	x := (width - boxW) / 2
	y := (height - boxH) / 2
	title := "Commit"
	if c.Amend {
		title = "Commit (amend)"
	}
	drawBox(screen, x, y, boxW, boxH, title)

	row := y + 2
	drawText(screen, x+2, row, boxW-4, colors.Style(colors.Header), "Staged files:")
	row++
	for _, e := range s.Staged {
		if row >= y+boxH-6 {
			break
		}
		drawText(screen, x+4, row, boxW-6, colors.Style(colors.StatusColor(e.Status)), e.Path)
		row++
	}
	row++

	titleStyle := colors.Style(colors.Text)
	if c.Focus == model.FocusTitle {
		titleStyle = colors.StyleBg(colors.Text, colors.Surface)
	}
	titleLine := c.Title
	if len(titleLine) > 50 {
		titleLine = titleLine[:50] + "│" + titleLine[50:]
	}
	drawText(screen, x+2, row, boxW-4, titleStyle, "Title: "+titleLine)
	row += 2

	bodyStyle := colors.Style(colors.Text)
	if c.Focus == model.FocusBody {
		bodyStyle = colors.StyleBg(colors.Text, colors.Surface)
	}
	drawText(screen, x+2, row, boxW-4, bodyStyle, "Body:")
	row++
	for _, line := range strings.Split(c.Body, "\n") {
		if row >= y+boxH-2 {
			break
		}
		drawText(screen, x+4, row, boxW-6, bodyStyle, line)
		row++
	}

	amendStyle := colors.Style(colors.Overlay)
	if c.Focus == model.FocusAmendToggle {
		amendStyle = colors.StyleBg(colors.Text, colors.Surface)
	}
	amendText := "[ ] amend"
	if c.Amend {
		amendText = "[x] amend"
	}
	drawText(screen, x+2, y+boxH-2, boxW-4, amendStyle, amendText)

	if c.Error != "" {
		drawText(screen, x+2, y+boxH-1, boxW-4, colors.Style(colors.Deleted), c.Error)
	}
}

func drawBranchModal(screen tcell.Screen, s *appstate.State, width, height int) {
	b := s.BranchModal
	if b == nil {
		return
	}
	boxW := width - 10
	if boxW < 30 {
		boxW = width - 2
	}
	boxH := height - 6
	if boxH < 8 {
		boxH = height - 2
	}
	x := (width - boxW) / 2
	y := (height - boxH) / 2
	drawBox(screen, x, y, boxW, boxH, "Branch")

	drawText(screen, x+2, y+2, boxW-4, colors.StyleBg(colors.Text, colors.Surface), "Filter: "+b.Filter)

	rows := branchModalRows(b)
	row := y + 4
	for i, name := range rows {
		if row >= y+boxH-2 {
			break
		}
		style := colors.Style(colors.Text)
		if i == b.HighlightedIdx {
			style = colors.StyleBg(colors.Text, colors.Surface)
		}
		prefix := "  "
		if name == b.CurrentBranch {
			prefix = "* "
		}
		drawText(screen, x+2, row, boxW-4, style, prefix+name)
		row++
	}

	if b.Error != "" {
		drawText(screen, x+2, y+boxH-2, boxW-4, colors.Style(colors.Deleted), b.Error)
	}
}

// branchModalRows mirrors appstate's unexported branchRows so the renderer
// can draw the same list without importing appstate internals.
func branchModalRows(b *model.BranchModal) []string {
	rows := b.Branches
	if b.Filter != "" {
		needle := strings.ToLower(b.Filter)
		filtered := make([]string, 0, len(b.Branches))
		for _, name := range b.Branches {
			if strings.Contains(strings.ToLower(name), needle) {
				filtered = append(filtered, name)
			}
		}
		rows = filtered
		exact := false
		for _, name := range b.Branches {
			if name == b.Filter {
				exact = true
				break
			}
		}
		if !exact {
			rows = append(rows, "Create: "+b.Filter)
		}
	}
	return rows
}

func drawBox(screen tcell.Screen, x, y, width, height int, title string) {
	if width <= 0 || height <= 0 {
		return
	}
	style := colors.Style(colors.Lavender)
	for i := 0; i < height; i++ {
		fillRow(screen, x, y+i, width, colors.StyleBg(colors.Text, colors.Mantle))
	}
	for i := 0; i < width; i++ {
		screen.SetContent(x+i, y, tcell.RuneHLine, nil, style)
		screen.SetContent(x+i, y+height-1, tcell.RuneHLine, nil, style)
	}
	for i := 0; i < height; i++ {
		screen.SetContent(x, y+i, tcell.RuneVLine, nil, style)
		screen.SetContent(x+width-1, y+i, tcell.RuneVLine, nil, style)
	}
	screen.SetContent(x, y, tcell.RuneULCorner, nil, style)
	screen.SetContent(x+width-1, y, tcell.RuneURCorner, nil, style)
	screen.SetContent(x, y+height-1, tcell.RuneLLCorner, nil, style)
	screen.SetContent(x+width-1, y+height-1, tcell.RuneLRCorner, nil, style)

	if title != "" && width > len(title)+2 {
		tx := x + (width-len(title))/2
		drawText(screen, tx, y, len(title), style.Bold(true), title)
	}
}
