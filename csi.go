package fbpad

// parseCSI parses a CSI sequence's parameter/intermediate bytes out of
// rest (everything after "ESC [" or the single-byte 0x9b CSI) and
// dispatches on the final byte. prefixLen is how many bytes of rest's
// caller-side buffer were already consumed (used only to compute the
// total byte count parseOne needs to advance). Returns ok=false if rest
// doesn't yet contain a final byte.
func (t *Terminal) parseCSI(rest []byte, prefixLen int) (int, bool) {
	i := 0
	var private byte
	if i < len(rest) && isCSIPrefix(rest[i]) {
		private = rest[i]
		i++
	}

	params := make([]int, 0, 32)
	cur := -1
	haveDigit := false
	for i < len(rest) {
		b := rest[i]
		switch {
		case b >= '0' && b <= '9':
			if cur < 0 {
				cur = 0
			}
			cur = cur*10 + int(b-'0')
			haveDigit = true
			i++
		case b == ';':
			if len(params) < 32 {
				params = append(params, cur)
			}
			cur = -1
			i++
		default:
			goto intermediates
		}
	}
	return 0, false

intermediates:
	for i < len(rest) && rest[i] >= 0x20 && rest[i] <= 0x2f {
		i++
	}
	if i >= len(rest) {
		return 0, false
	}
	final := rest[i]
	if haveDigit || cur >= 0 {
		if len(params) < 32 {
			params = append(params, cur)
		}
	}
	total := prefixLen + i + 1

	t.dispatchCSI(private, params, final)
	return total, true
}

func isCSIPrefix(b byte) bool {
	return b == '<' || b == '=' || b == '>' || b == '?'
}

// param returns params[idx] or def if missing or given as 0/absent — the
// "parameters default to zero ... maps to 1 for counts" rule (spec.md
// §4.6.3) is applied by callers that want the count semantics; param
// itself just returns the raw value or def.
func param(params []int, idx, def int) int {
	if idx >= len(params) || params[idx] < 0 {
		return def
	}
	return params[idx]
}

// count applies the "0 means 1" counting-parameter rule.
func count(params []int, idx int) int {
	v := param(params, idx, 0)
	if v <= 0 {
		return 1
	}
	return v
}

// dispatchCSI implements the final-byte dispatch table of spec.md
// §4.6.3.
func (t *Terminal) dispatchCSI(private byte, params []int, final byte) {
	switch final {
	case 'H', 'f':
		row := count(params, 0) - 1
		col := count(params, 1) - 1
		t.gotoRC(row, col)
	case 'A':
		t.cursor.Row -= count(params, 0)
		t.clampCursor()
		t.mode = t.mode.Clear(ModeWrapPending)
	case 'B', 'e':
		t.cursor.Row += count(params, 0)
		t.clampCursor()
		t.mode = t.mode.Clear(ModeWrapPending)
	case 'C', 'a':
		t.cursor.Col += count(params, 0)
		t.clampCursor()
		t.mode = t.mode.Clear(ModeWrapPending)
	case 'D':
		t.cursor.Col -= count(params, 0)
		t.clampCursor()
		t.mode = t.mode.Clear(ModeWrapPending)
	case 'G', '`':
		t.cursor.Col = count(params, 0) - 1
		t.clampCursor()
	case 'd':
		t.cursor.Row = count(params, 0) - 1
		t.clampCursor()
	case 'J':
		t.eraseDisplay(param(params, 0, 0))
	case 'K':
		t.eraseLine(param(params, 0, 0))
	case 'L':
		t.grid.ScrollDown(t.cursor.Row, t.scrollBottom, count(params, 0), t.fg, t.bg)
	case 'M':
		t.grid.ScrollUp(t.cursor.Row, t.scrollBottom, count(params, 0), t.fg, t.bg, nil)
	case 'S':
		t.grid.ScrollUp(t.scrollTop, t.scrollBottom, count(params, 0), t.fg, t.bg, nil)
	case 'T':
		t.grid.ScrollDown(t.scrollTop, t.scrollBottom, count(params, 0), t.fg, t.bg)
	case 'P':
		t.grid.DeleteChars(t.cursor.Row, t.cursor.Col, count(params, 0), t.fg, t.bg)
	case 'X':
		n := count(params, 0)
		t.grid.ClearRange(t.cursor.Row, t.cursor.Col, t.cursor.Col+n, t.fg, t.bg)
	case '@':
		t.grid.InsertBlanks(t.cursor.Row, t.cursor.Col, count(params, 0), t.fg, t.bg)
	case 'm':
		t.applySGR(params)
	case 'r':
		top := count(params, 0) - 1
		bot := param(params, 1, t.grid.Rows())
		if bot <= top || bot > t.grid.Rows() {
			bot = t.grid.Rows()
		}
		t.scrollTop, t.scrollBottom = top, bot
		t.gotoRC(0, 0)
	case 'c':
		t.respond("\x1b[?6c")
	case 'h', 'l':
		t.setMode(private == '?', params, final == 'h')
	case 'n':
		switch param(params, 0, 0) {
		case 5:
			t.respond("\x1b[0n")
		case 6:
			row := t.cursor.Row - t.scrollRegionTop() + 1
			t.respond(csiCPR(row, t.cursor.Col+1))
		}
	}
}

func csiCPR(row, col int) string {
	return "\x1b[" + itoa(row) + ";" + itoa(col) + "R"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// eraseDisplay implements ESC[#J. Per spec.md's Design Notes resolution
// of an Open Question (DESIGN.md), it never moves the cursor, matching
// ECMA-48 rather than some xterm variants that home the cursor on 2J.
func (t *Terminal) eraseDisplay(mode int) {
	rows, cols := t.grid.Rows(), t.grid.Cols()
	switch mode {
	case 0:
		t.grid.ClearRange(t.cursor.Row, t.cursor.Col, cols, t.fg, t.bg)
		for r := t.cursor.Row + 1; r < rows; r++ {
			t.grid.ClearRow(r, t.fg, t.bg)
		}
	case 1:
		t.grid.ClearRange(t.cursor.Row, 0, t.cursor.Col+1, t.fg, t.bg)
		for r := 0; r < t.cursor.Row; r++ {
			t.grid.ClearRow(r, t.fg, t.bg)
		}
	case 2:
		t.grid.ClearAll(t.fg, t.bg)
	}
}

// eraseLine implements ESC[#K.
func (t *Terminal) eraseLine(mode int) {
	cols := t.grid.Cols()
	switch mode {
	case 0:
		t.grid.ClearRange(t.cursor.Row, t.cursor.Col, cols, t.fg, t.bg)
	case 1:
		t.grid.ClearRange(t.cursor.Row, 0, t.cursor.Col+1, t.fg, t.bg)
	case 2:
		t.grid.ClearRow(t.cursor.Row, t.fg, t.bg)
	}
}

// setMode implements ESC[#h / ESC[#l, including the `?`-prefixed private
// modes DECCKM-adjacent to this engine's scope (cursor visibility, auto-
// wrap, origin, insert).
func (t *Terminal) setMode(private bool, params []int, on bool) {
	for _, p := range params {
		if p < 0 {
			continue
		}
		var bit Mode
		if private {
			switch p {
			case 25:
				bit = ModeCursorVisible
			case 7:
				bit = ModeAutowrap
			case 6:
				bit = ModeOrigin
			}
		} else if p == 4 {
			bit = ModeInsert
		}
		if bit != 0 {
			t.mode = t.mode.With(bit, on)
		}
	}
}
