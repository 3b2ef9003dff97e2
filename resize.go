package fbpad

// Redraw reconfigures the terminal for the pad's current geometry and,
// if all is true, marks every row dirty for a full repaint (spec.md
// §4.6.1 "redraw(all)"). If rows/cols differ from the terminal's current
// size, Resize is applied first.
func (t *Terminal) Redraw(rows, cols int, all bool) {
	if rows != t.grid.Rows() || cols != t.grid.Cols() {
		t.Resize(rows, cols)
	}
	if all {
		for r := 0; r < t.grid.Rows(); r++ {
			t.grid.MarkDirty(r)
		}
	}
}

// Resize implements spec.md §4.6.5: reallocate the grid and scrollback
// ring, reflow by anchoring on the cursor row, then clamp cursor/scroll
// region/wrap-pending to the new geometry, and finally propagate the new
// size to the pty via TIOCSWINSZ (pty.go).
func (t *Terminal) Resize(rows, cols int) {
	if rows <= 0 || cols <= 0 || (rows == t.grid.Rows() && cols == t.grid.Cols()) {
		return
	}

	oldRows := t.grid.Rows()
	dropTop := 0
	if rows < oldRows {
		dropTop = t.cursor.Row - rows + 1
		if dropTop < 0 {
			dropTop = 0
		}
	}

	if dropTop > 0 {
		t.grid.ScrollUp(0, oldRows, dropTop, t.fg, t.bg, func(row []Cell) {
			t.hist.Push(row)
		})
		t.cursor.Row -= dropTop
	}

	t.grid.Resize(rows, cols, t.fg, t.bg)
	t.hist.Resize(cols)

	if t.scrollBottom > rows || t.scrollBottom == oldRows {
		t.scrollBottom = rows
	}
	if t.scrollTop >= rows {
		t.scrollTop = 0
	}
	t.mode = t.mode.Clear(ModeWrapPending)
	t.clampCursor()

	if t.pty != nil {
		t.pty.Resize(rows, cols)
	}
}
