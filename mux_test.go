package fbpad

import "testing"

// newTestMux builds a Mux over an in-memory fake surface and a placeholder
// font, skipping NewMux's font-file and signal-bridge setup so addressing,
// layout, and keyboard-dispatch logic can be exercised without real OS
// resources.
func newTestMux(t *testing.T, tags string) *Mux {
	t.Helper()
	const pixRows, pixCols, bpp = 160, 640, 4
	s := &Surface{
		mem:  make([]byte, pixRows*pixCols*bpp),
		rows: pixRows,
		cols: pixCols,
		bpp:  bpp,
	}
	s.fi.LineLength = uint32(pixCols * bpp)
	s.vi.XResVirtual = pixCols
	s.vi.YResVirtual = pixRows

	font := &Font{rows: 16, cols: 8}
	cfg := DefaultConfig()

	runes := []rune(tags)
	m := &Mux{
		cfg:       cfg,
		surface:   s,
		snapshots: NewSnapshotStore(s, 2*len(runes)),
		tags:      runes,
		state:     make([]tagState, len(runes)),
		terms:     make([]*Terminal, 2*len(runes)),
		regular:   font,
	}
	for i := range m.state {
		m.state[i].tops = true
	}
	m.pads[0] = NewPad(s, font, nil, nil, 0, 0, s.Rows(), s.Cols())
	m.pads[1] = NewPad(s, font, nil, nil, 0, 0, 0, 0)
	return m
}

func TestMuxAddressing(t *testing.T) {
	m := newTestMux(t, "123")
	if m.NTags() != 3 {
		t.Fatalf("got %d tags, want 3", m.NTags())
	}
	if m.tagOf(4) != 1 {
		t.Fatalf("tagOf(4) = %d, want 1", m.tagOf(4))
	}
	if !m.topHalf(1) || m.topHalf(4) {
		t.Fatal("topHalf wrong for primary/secondary slots")
	}
	if m.slot(1, true) != 1 || m.slot(1, false) != 4 {
		t.Fatalf("slot() addressing wrong: top=%d bottom=%d", m.slot(1, true), m.slot(1, false))
	}
	if m.current() != 0 {
		t.Fatalf("current() = %d, want 0 (ctag=0, tops=true)", m.current())
	}
	if m.otherInTag(0) != 3 {
		t.Fatalf("otherInTag(0) = %d, want 3", m.otherInTag(0))
	}
}

func TestMuxNextOpen(t *testing.T) {
	m := newTestMux(t, "123")
	if m.nextOpen(0) != -1 {
		t.Fatal("expected no open slots initially")
	}
	m.terms[2] = NewTerminal(10, 80, NewPalette(DefaultPalette16), ColorDefaultFG, ColorDefaultBG)
	m.terms[2].fd = 99 // simulate a live pty without actually forking one
	if got := m.nextOpen(0); got != 2 {
		t.Fatalf("nextOpen(0) = %d, want 2", got)
	}
}

func TestMuxLayoutTagSplitModes(t *testing.T) {
	m := newTestMux(t, "1")
	m.cfg.raw.BorderWidth = 2

	m.state[0].split = SplitNone
	primary, _ := m.layoutTag(0)
	if primary.drows != 160 || primary.dcols != 640 {
		t.Fatalf("SplitNone primary = %+v, want full surface", primary)
	}

	m.state[0].split = SplitHorizontal
	primary, secondary := m.layoutTag(0)
	if primary.roff != 0 || secondary.roff <= primary.drows {
		t.Fatalf("horizontal split rects overlap or misordered: %+v / %+v", primary, secondary)
	}
	if primary.drows%m.regular.Rows() != 0 {
		t.Fatalf("primary height %d not a multiple of font row height", primary.drows)
	}

	m.state[0].split = SplitVertical
	primary, secondary = m.layoutTag(0)
	if primary.coff != 0 || secondary.coff <= primary.dcols {
		t.Fatalf("vertical split rects overlap or misordered: %+v / %+v", primary, secondary)
	}
}

func TestMuxSnapKey(t *testing.T) {
	m := newTestMux(t, "12")
	m.state[0].split = SplitNone
	if m.snapKey(0) != 0 {
		t.Fatalf("single-layout snapKey(0) = %d, want 0 (slot index)", m.snapKey(0))
	}

	m.state[1].split = SplitHorizontal
	primarySlot := m.slot(1, true)
	secondarySlot := m.slot(1, false)
	if m.snapKey(primarySlot) != 1 {
		t.Fatalf("split primary snapKey = %d, want tag 1", m.snapKey(primarySlot))
	}
	if m.snapKey(secondarySlot) != 1+m.NTags() {
		t.Fatalf("split secondary snapKey = %d, want %d", m.snapKey(secondarySlot), 1+m.NTags())
	}
}

func TestMuxShowRespectsTaglock(t *testing.T) {
	m := newTestMux(t, "123")
	m.taglock = true
	m.Show(1)
	if m.ctag != 0 {
		t.Fatalf("taglock should block Show(); ctag = %d, want 0", m.ctag)
	}
	m.taglock = false
	m.Show(1)
	if m.ctag != 1 {
		t.Fatalf("ctag = %d, want 1 after Show(1)", m.ctag)
	}
	if m.ltag != 0 {
		t.Fatalf("ltag = %d, want 0 (previous tag)", m.ltag)
	}
}

func TestMuxHandleStdinConfirmQuit(t *testing.T) {
	m := newTestMux(t, "123")
	m.HandleStdin([]byte{0x1b, 0x11}) // ESC, Ctrl-Q
	if !m.confirmQuit {
		t.Fatal("expected confirmQuit armed after Ctrl-Q command")
	}
	m.HandleStdin([]byte{'n'})
	if m.quit {
		t.Fatal("quit should not fire on a non-matching confirm byte")
	}
	if m.confirmQuit {
		t.Fatal("confirmQuit should clear after one byte regardless of match")
	}

	m.HandleStdin([]byte{0x1b, 0x11})
	m.HandleStdin([]byte{'q'})
	if !m.quit {
		t.Fatal("expected quit after confirm-quit byte matches QuitKey")
	}
}

func TestMuxLockRequiresPassword(t *testing.T) {
	m := newTestMux(t, "123")
	m.cfg.raw.Password = "hunter2"
	m.Lock()
	if !m.locked {
		t.Fatal("expected locked after Lock()")
	}
	m.HandleStdin([]byte("wrong\r"))
	if !m.locked {
		t.Fatal("wrong password should keep the lock engaged")
	}
	m.HandleStdin([]byte("hunter2\r"))
	if m.locked {
		t.Fatal("correct password should clear the lock")
	}
}

func TestMuxDispatchCommandTagSwitch(t *testing.T) {
	m := newTestMux(t, "123")
	m.dispatchCommand('2')
	if m.ctag != 1 {
		t.Fatalf("ctag = %d, want 1 after dispatching tag byte '2'", m.ctag)
	}
}
