package fbpad

// Tag-list overlay: the 'p' command paints a one-line strip naming every
// tag, marking which have a running terminal and which is current, then
// waits for one more keypress to either jump to a tag or dismiss the
// overlay (SUPPLEMENTED FEATURES #1, conf.c's tag indicator row).

// showTagOverlay paints the overlay row across the top of pads[0] and arms
// overlayActive so the next HandleStdin byte is consumed as a tag pick
// rather than forwarded to the child or treated as a new command.
func (m *Mux) showTagOverlay() {
	m.overlayActive = true
	cols := m.pads[0].CharacterCols()
	if cols <= 0 {
		return
	}
	fg := rgbaColor(m.cfg.Foreground())
	bg := rgbaColor(m.cfg.Background())
	cur := rgbaColor(m.cfg.BorderColor())

	for col := 0; col < cols; col++ {
		idx := col % m.NTags()
		r := rune(' ')
		style := NewStyle(fg, bg, false, false)
		if col < m.NTags() {
			r = m.tags[idx]
			style = NewStyle(fg, bg, m.tagHasTerminal(idx), false)
			if idx == m.ctag {
				style = NewStyle(bg, cur, true, false)
			}
		}
		cell := Cell{Char: uint32(r), Style: style}
		m.pads[0].PutCell(0, col, cell, nil, fg, bg)
	}
}

// tagHasTerminal reports whether either of tag's two slots holds a live
// terminal, used to bold busy tags in the overlay.
func (m *Mux) tagHasTerminal(tag int) bool {
	for _, top := range [...]bool{true, false} {
		i := m.slot(tag, top)
		if m.terms[i] != nil && m.terms[i].Fd() != 0 {
			return true
		}
	}
	return false
}

