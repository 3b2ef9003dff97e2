package fbpad

// History is the fixed-capacity scrollback ring described in spec.md §3
// and §4.6.7: HIST_LINES rows of cols codepoints each (no color — the
// original C stores only the glyph, not its attributes, to keep the ring
// small), addressed by a write cursor that wraps.
type History struct {
	cols int
	rows [][]rune
	hrow int // next slot to write
	n    int // number of valid rows currently stored, capped at len(rows)
}

// HistLines is the default ring depth (aligrudi/fbpad's HIST_LINES).
const HistLines = 2000

// NewHistory allocates a ring sized for cols-wide rows.
func NewHistory(lines, cols int) *History {
	if lines <= 0 {
		lines = HistLines
	}
	h := &History{cols: cols, rows: make([][]rune, lines)}
	for i := range h.rows {
		h.rows[i] = make([]rune, cols)
	}
	return h
}

// Push appends one row of cells to the ring as codepoints, overwriting the
// oldest row once full, then advances hrow (spec.md §4.6.7: "the leaving
// row(s) are copied into the ring at hrow, then hrow = (hrow+1) mod HIST").
func (h *History) Push(cells []Cell) {
	dst := h.rows[h.hrow]
	for c := 0; c < h.cols; c++ {
		if c < len(cells) {
			dst[c] = cells[c].Rune()
		} else {
			dst[c] = ' '
		}
	}
	h.hrow = (h.hrow + 1) % len(h.rows)
	if h.n < len(h.rows) {
		h.n++
	}
}

// Len returns the number of valid rows currently stored.
func (h *History) Len() int {
	return h.n
}

// Line returns history row `back` positions behind the most recently
// pushed row (back=1 is the most recent, back=Len() the oldest). Returns
// nil if back is out of [1, Len()].
func (h *History) Line(back int) []rune {
	if back < 1 || back > h.n {
		return nil
	}
	cap := len(h.rows)
	idx := ((h.hrow-back)%cap + cap) % cap
	return h.rows[idx]
}

// Clear discards all stored rows without reallocating the backing array.
func (h *History) Clear() {
	h.hrow = 0
	h.n = 0
}

// Resize reallocates the ring for a new column width, dropping history —
// matching the original's resize path, which doesn't attempt to reflow
// scrollback text to a new width (spec.md §4.6.5 scopes resize to "the
// cell and scrollback arrays", not a reflow of their contents).
func (h *History) Resize(cols int) {
	h.cols = cols
	for i := range h.rows {
		h.rows[i] = make([]rune, cols)
	}
	h.Clear()
}
