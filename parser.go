package fbpad

import "unicode/utf8"

// parse drains t.recv, dispatching one complete control sequence (or one
// printable character) per parseOne call. A sequence that needs more
// bytes than are currently buffered simply isn't consumed — parseOne
// returns ok=false and t.recv is left untouched, so the next feedFromPty
// resumes from the exact same byte position (spec.md §4.6.2's resumable-
// parser contract, and the save/load byte-exactness invariant in §8).
func (t *Terminal) parse() {
	for len(t.recv) > 0 {
		n, ok := t.parseOne(t.recv)
		if !ok {
			break
		}
		if n <= 0 {
			n = 1
		}
		t.recv = t.recv[n:]

		if !t.lazy && len(t.recv) > 15 {
			t.lazy = true
		}
		if !t.lazy {
			t.flushDirty()
		}
	}
	if t.lazy {
		t.flushDirty()
		t.lazy = false
	}
}

// parseOne consumes and dispatches exactly one top-level unit from buf:
// one GROUND byte/rune, or one complete ESC/CSI/OSC sequence.
func (t *Terminal) parseOne(buf []byte) (consumed int, ok bool) {
	b := buf[0]
	switch {
	case b == 0x1b:
		return t.parseEscape(buf)
	case b == 0x9b:
		return t.parseCSI(buf[1:], 1)
	case b == 0x00 || b == 0x07 || b == 0x7f:
		return 1, true
	case b == 0x08:
		t.backspace()
		return 1, true
	case b == 0x09:
		t.tab()
		return 1, true
	case b == 0x0a || b == 0x0b || b == 0x0c:
		t.lineFeed()
		return 1, true
	case b == 0x0d:
		t.carriageReturn()
		return 1, true
	case b < 0x20:
		return 1, true
	default:
		return t.parsePrintable(buf)
	}
}

// parsePrintable decodes one UTF-8 rune (falling back to the raw byte if
// decoding fails, per spec.md §4.6.2's "passed through unchanged"
// clause), applies the active charset's line-drawing remap, and writes it
// (with its double-wide continuation cell, if any).
func (t *Terminal) parsePrintable(buf []byte) (int, bool) {
	b := buf[0]
	if b < 0x80 {
		r := t.charsets[t.activeCharset].translate(b)
		t.putRune(r)
		return 1, true
	}

	r, size := utf8.DecodeRune(buf)
	if r == utf8.RuneError && size <= 1 {
		if !utf8.FullRune(buf) {
			return 0, false
		}
		t.putRune(rune(b))
		return 1, true
	}
	if size > len(buf) {
		return 0, false
	}
	t.putRune(r)
	return size, true
}

// putRune writes one glyph at the cursor, advancing and wrapping per
// spec.md §4.6.2's GROUND printable rule and §3's double-wide invariant.
func (t *Terminal) putRune(r rune) {
	if isZeroWidthRune(r) {
		// Combining marks carry no column of their own (spec.md §4.3); this
		// cell format has no per-cell combining-mark slot, so the mark is
		// dropped rather than clobbering the base glyph it would otherwise
		// overwrite.
		return
	}
	wide := isWideRune(r)
	cols := t.grid.Cols()

	if t.mode.Has(ModeWrapPending) {
		if t.mode.Has(ModeAutowrap) {
			t.cursor.Col = 0
			t.lineFeed()
		}
		t.mode = t.mode.Clear(ModeWrapPending)
	}

	if wide && t.cursor.Col == cols-1 {
		t.writeCell(' ', false)
		t.cursor.Col = 0
		t.lineFeed()
	}

	if t.mode.Has(ModeInsert) {
		t.grid.InsertBlanks(t.cursor.Row, t.cursor.Col, widthOf(wide), t.fg, t.bg)
	}

	t.writeCell(r, false)
	if wide {
		t.cursor.Col++
		t.writeCell(r, true)
	}

	if t.cursor.Col == cols-1 {
		t.mode = t.mode.Set(ModeWrapPending)
	} else {
		t.cursor.Col++
	}
}

func widthOf(wide bool) int {
	if wide {
		return 2
	}
	return 1
}

// writeCell stores one glyph at the current cursor position. continuation
// marks the trailing half of a double-wide glyph.
func (t *Terminal) writeCell(r rune, continuation bool) {
	char := uint32(r)
	if continuation {
		char |= DWContinuation
	}
	t.grid.Set(t.cursor.Row, t.cursor.Col, Cell{Char: char, Style: t.cursor.Template})
}

// parseEscape handles the ESCAPE state: optional intermediates (0x20-0x2f)
// then a final byte (spec.md §4.6.2).
func (t *Terminal) parseEscape(buf []byte) (int, bool) {
	i := 1
	for i < len(buf) && buf[i] >= 0x20 && buf[i] <= 0x2f {
		i++
	}
	if i >= len(buf) {
		return 0, false
	}
	final := buf[i]
	total := i + 1

	switch final {
	case '[':
		n, ok := t.parseCSI(buf[total:], total)
		return n, ok
	case ']':
		return t.parseOSC(buf, total)
	case '%', '(', ')', '*', '+':
		return total, true
	case '7':
		t.saveCursor()
	case '8':
		t.restoreCursor()
	case 'M':
		t.reverseIndex()
	case 'D':
		t.lineFeed()
	case 'E':
		t.cursor.Col = 0
		t.lineFeed()
	case 'c':
		t.fullReset()
	}
	return total, true
}

// parseOSC skips an operating-system command until BEL or ESC \.
func (t *Terminal) parseOSC(buf []byte, start int) (int, bool) {
	for i := start; i < len(buf); i++ {
		if buf[i] == 0x07 {
			return i + 1, true
		}
		if buf[i] == 0x1b && i+1 < len(buf) && buf[i+1] == '\\' {
			return i + 2, true
		}
	}
	return 0, false
}
