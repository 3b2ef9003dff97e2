package fbpad

// Renderer is what a Terminal blits dirty rows to — implemented by Pad
// (pad.go). Terminal never touches pixels directly; it only knows rows,
// columns, cells, and colors, matching the engine/pad separation spec.md
// §9's "Design Notes" calls for (engine → pad → surface, no module-level
// singletons).
type Renderer interface {
	// PutCell draws one glyph cell at the terminal's screen offset.
	PutCell(row, col int, cell Cell, pal *Palette, defaultFG, defaultBG Color)
	// FillSpan draws a run of blank cells as one fast fill.
	FillSpan(row, colStart, colEnd int, bg Color, pal *Palette, defaultBG Color)
	// DrawCursor renders the cursor glyph/block at its current position.
	DrawCursor(row, col int, cell Cell, pal *Palette, defaultFG, defaultBG Color)
}

// SetRenderer attaches the pad this terminal blits to. A nil renderer is
// valid (e.g. a hidden terminal accumulating dirty rows with nothing to
// flush them to yet).
func (t *Terminal) SetRenderer(r Renderer) {
	t.renderer = r
}

// flushDirty repaints every dirty row through the renderer, using the
// bulk blank-span fast path, then draws the cursor once — spec.md
// §4.6.6's lazy_flush. While hpos > 0 the top hpos rows are rendered from
// scrollback instead of the live grid (§4.6.7); any flush while scrolled
// back still walks all rows, since a drain always repaints the full
// mixed view.
func (t *Terminal) flushDirty() {
	if t.renderer == nil {
		return
	}

	rows, cols := t.grid.Rows(), t.grid.Cols()
	if t.hpos > 0 {
		t.flushHistoryView(rows, cols)
		return
	}

	for r := 0; r < rows; r++ {
		if !t.grid.Dirty(r) {
			continue
		}
		t.flushRow(r, t.grid.Row(r), cols)
		t.grid.ClearDirty(r)
	}

	if t.mode.Has(ModeCursorVisible) {
		t.renderer.DrawCursor(t.cursor.Row, t.cursor.Col, t.grid.Cell(t.cursor.Row, t.cursor.Col), t.palette, t.fg, t.bg)
	}
}

// flushRow blits one row, coalescing consecutive blank cells that share a
// background into a single FillSpan call (spec.md §4.4 "Bulk fill fast
// path").
func (t *Terminal) flushRow(row int, cells []Cell, cols int) {
	spanStart := -1
	var spanBg Color

	flushSpan := func(end int) {
		if spanStart >= 0 {
			t.renderer.FillSpan(row, spanStart, end, spanBg, t.palette, t.bg)
			spanStart = -1
		}
	}

	for c := 0; c < cols; c++ {
		cell := cells[c]
		if cell.IsEmpty() {
			bg := cell.Style.Bg()
			if spanStart >= 0 && bg == spanBg {
				continue
			}
			flushSpan(c)
			spanStart = c
			spanBg = bg
			continue
		}
		flushSpan(c)
		t.renderer.PutCell(row, c, cell, t.palette, t.fg, t.bg)
	}
	flushSpan(cols)
}

// flushHistoryView repaints the whole screen as a mix of hpos scrollback
// rows (top) and rows-hpos live rows (bottom), per spec.md §4.6.7.
func (t *Terminal) flushHistoryView(rows, cols int) {
	for r := 0; r < rows && r < t.hpos; r++ {
		line := t.hist.Line(t.hpos - r)
		cells := make([]Cell, cols)
		for c := 0; c < cols; c++ {
			ch := ' '
			if line != nil && c < len(line) {
				ch = line[c]
			}
			cells[c] = Cell{Char: uint32(ch), Style: NewStyle(t.fg, t.bg, false, false)}
		}
		t.flushRow(r, cells, cols)
	}
	for r := t.hpos; r < rows; r++ {
		t.flushRow(r, t.grid.Row(r), cols)
		t.grid.ClearDirty(r)
	}
}
