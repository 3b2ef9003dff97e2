package fbpad

import (
	"fmt"
	"io"
)

// Terminal is one VT102/ECMA-48 session: a cell grid, cursor, scroll
// region, parser receive buffer, and scrollback ring (spec.md §3's
// "Terminal state record" and §4.6's C6 component). It owns no OS
// resources directly beyond what pty.go's exec wires in through
// ptyProcess; Terminal itself only ever touches the grid and its buffers,
// so Save/Load can be exercised without a live child.
type Terminal struct {
	fd  int
	pty *ptyProcess

	grid *Grid
	hist *History
	hpos int

	cursor Cursor
	saved  SavedCursor
	mode   Mode

	scrollTop, scrollBottom int

	charsets      [4]Charset
	activeCharset CharsetIndex

	recv []byte
	send []byte

	lazy bool

	fg, bg        Color
	palette       *Palette
	boldBrightens bool

	responder io.Writer
	renderer  Renderer

	sendVTSignals bool
}

// NewTerminal allocates a zeroed terminal sized to rows×cols (spec.md
// §4.6.1 "make()": "allocate, zero, size grid to current pad").
func NewTerminal(rows, cols int, pal *Palette, fg, bg Color) *Terminal {
	t := &Terminal{
		fg:            fg,
		bg:            bg,
		palette:       pal,
		scrollBottom:  rows,
		responder:     io.Discard,
		mode:          modeDefault,
	}
	t.grid = NewGrid(rows, cols, fg, bg)
	t.hist = NewHistory(HistLines, cols)
	return t
}

// Fd returns the pty master file descriptor, or 0 if unstarted/ended
// (spec.md §4.6.1 "fd(t)").
func (t *Terminal) Fd() int {
	return t.fd
}

// Rows and Cols report the terminal's current grid dimensions.
func (t *Terminal) Rows() int { return t.grid.Rows() }
func (t *Terminal) Cols() int { return t.grid.Cols() }

// SetResponder directs DSR/DA/OSC-reply bytes somewhere other than the
// pty (tests use this to capture replies without a real child).
func (t *Terminal) SetResponder(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	t.responder = w
}

// respond writes a terminal response (spec.md §4.6.3 DSR/DA rows).
func (t *Terminal) respond(s string) {
	io.WriteString(t.responder, s)
}

// End closes the pty and zeros all session state, rebinding the terminal
// as empty (spec.md §4.6.1 "end()").
func (t *Terminal) End() {
	if t.pty != nil {
		t.pty.Close()
		t.pty = nil
	}
	t.fd = 0
	t.recv = nil
	t.send = nil
	t.sendVTSignals = false
	t.grid.ClearAll(t.fg, t.bg)
	t.hist.Clear()
	t.cursor = NewCursor()
	t.saved = SavedCursor{}
	t.mode = modeDefault
	t.scrollTop = 0
	t.scrollBottom = t.grid.Rows()
	t.hpos = 0
}

// Save captures any pending pty bytes into the receive buffer so parsing
// can resume byte-exact on the next Load (spec.md §4.6.1). Since parse()
// already leaves unconsumed bytes in t.recv between calls, Save is a
// no-op hook kept for symmetry with the spec's save/load pair and as the
// extension point a future multi-buffer scheduler would use.
func (t *Terminal) Save() {}

// Load is the counterpart hook to Save; visibility is tracked by the
// multiplexer (mux.go), not the terminal itself.
func (t *Terminal) Load(visible bool) {}

// feedFromPty appends freshly read pty bytes to the receive buffer and
// parses as much as is available, in spec.md §4.6.1's "read()" sense.
func (t *Terminal) feedFromPty(b []byte) {
	t.recv = append(t.recv, b...)
	t.parse()
}

// sendToChild writes raw bytes to the child, matching spec.md §4.6.1
// "send(bytes, n)": non-blocking with bounded retry, dropping on
// persistent refusal rather than blocking the scheduler.
func (t *Terminal) sendToChild(b []byte) {
	if t.pty == nil {
		return
	}
	t.pty.Write(b)
}

// Screenshot writes a UTF-8 dump of the visible grid, skipping
// DW_CONTINUATION cells and trimming trailing blanks per row (spec.md
// §4.6.1 "screenshot(t, path)").
func (t *Terminal) Screenshot(w io.Writer) error {
	rows, cols := t.grid.Rows(), t.grid.Cols()
	for r := 0; r < rows; r++ {
		line := make([]rune, 0, cols)
		for c := 0; c < cols; c++ {
			cell := t.grid.Cell(r, c)
			if cell.IsContinuation() {
				continue
			}
			if cell.IsEmpty() {
				line = append(line, ' ')
			} else {
				line = append(line, cell.Rune())
			}
		}
		n := len(line)
		for n > 0 && line[n-1] == ' ' {
			n--
		}
		if _, err := fmt.Fprintln(w, string(line[:n])); err != nil {
			return err
		}
	}
	return nil
}

// Scroll shifts the scrollback view by lines rows; positive moves back
// in history, negative moves toward live (spec.md §4.6.7).
func (t *Terminal) Scroll(lines int) {
	t.hpos += lines
	if t.hpos < 0 {
		t.hpos = 0
	}
	if max := t.hist.Len(); t.hpos > max {
		t.hpos = max
	}
}

// HistoryOffset reports the current scrollback view offset (hpos==0
// means "showing live screen content").
func (t *Terminal) HistoryOffset() int {
	return t.hpos
}

// clampCursor keeps the cursor within the current grid.
func (t *Terminal) clampCursor() {
	rows, cols := t.grid.Rows(), t.grid.Cols()
	if t.cursor.Row >= rows {
		t.cursor.Row = rows - 1
	}
	if t.cursor.Row < 0 {
		t.cursor.Row = 0
	}
	if t.cursor.Col >= cols {
		t.cursor.Col = cols - 1
	}
	if t.cursor.Col < 0 {
		t.cursor.Col = 0
	}
}

// scrollRegionTop/Bottom resolve origin-mode-relative addressing.
func (t *Terminal) scrollRegionTop() int {
	if t.mode.Has(ModeOrigin) {
		return t.scrollTop
	}
	return 0
}

func (t *Terminal) scrollRegionBottom() int {
	if t.mode.Has(ModeOrigin) {
		return t.scrollBottom
	}
	return t.grid.Rows()
}

// gotoRC moves the cursor to a 0-based (row, col), honoring origin mode's
// offset and clearing wrap-pending.
func (t *Terminal) gotoRC(row, col int) {
	base := t.scrollRegionTop()
	t.cursor.Row = base + row
	t.cursor.Col = col
	t.mode = t.mode.Clear(ModeWrapPending)
	t.clampCursor()
}

// lineFeed advances the cursor one row, scrolling the region if it was
// already on the last row (spec.md §4.6.2 GROUND LF/VT/FF, and §4.6.7's
// scroll-into-history feed point).
func (t *Terminal) lineFeed() {
	if t.cursor.Row == t.scrollBottom-1 {
		t.grid.ScrollUp(t.scrollTop, t.scrollBottom, 1, t.fg, t.bg, func(row []Cell) {
			if t.scrollTop == 0 {
				t.hist.Push(row)
			}
		})
	} else if t.cursor.Row < t.grid.Rows()-1 {
		t.cursor.Row++
	}
	t.hpos = 0
	if t.mode.Has(ModeAutoCR) {
		t.cursor.Col = 0
	}
}

// reverseIndex is ESC M: like lineFeed but upward.
func (t *Terminal) reverseIndex() {
	if t.cursor.Row == t.scrollTop {
		t.grid.ScrollDown(t.scrollTop, t.scrollBottom, 1, t.fg, t.bg)
	} else if t.cursor.Row > 0 {
		t.cursor.Row--
	}
	t.hpos = 0
}

// carriageReturn is CR: column = 0.
func (t *Terminal) carriageReturn() {
	t.cursor.Col = 0
	t.mode = t.mode.Clear(ModeWrapPending)
}

// backspace moves the cursor left by one, clipped at column 0.
func (t *Terminal) backspace() {
	if t.cursor.Col > 0 {
		t.cursor.Col--
	}
	t.mode = t.mode.Clear(ModeWrapPending)
}

// tab advances the cursor to the next multiple of 8, clipped to the last
// column (spec.md §4.6.2 HT; no per-terminal tab-stop table is modeled
// beyond the fixed 8-column rule the original uses).
func (t *Terminal) tab() {
	next := (t.cursor.Col/8 + 1) * 8
	if next >= t.grid.Cols() {
		next = t.grid.Cols() - 1
	}
	t.cursor.Col = next
}

// saveCursor implements ESC 7 / DECSC.
func (t *Terminal) saveCursor() {
	t.saved = SavedCursor{
		Row:          t.cursor.Row,
		Col:          t.cursor.Col,
		Template:     t.cursor.Template,
		OriginMode:   t.mode.Has(ModeOrigin),
		CharsetIndex: t.activeCharset,
		Charsets:     t.charsets,
	}
}

// restoreCursor implements ESC 8 / DECRC.
func (t *Terminal) restoreCursor() {
	t.cursor.Row = t.saved.Row
	t.cursor.Col = t.saved.Col
	t.cursor.Template = t.saved.Template
	t.mode = t.mode.With(ModeOrigin, t.saved.OriginMode)
	t.activeCharset = t.saved.CharsetIndex
	t.charsets = t.saved.Charsets
	t.clampCursor()
}

// fullReset implements ESC c / RIS.
func (t *Terminal) fullReset() {
	rows, cols := t.grid.Rows(), t.grid.Cols()
	t.grid = NewGrid(rows, cols, t.fg, t.bg)
	t.cursor = NewCursor()
	t.saved = SavedCursor{}
	t.mode = modeDefault
	t.scrollTop = 0
	t.scrollBottom = rows
	t.charsets = [4]Charset{}
	t.activeCharset = CharsetIndexG0
	t.hpos = 0
}
