package fbpad

import (
	"fmt"
	"image/color"
	"os"

	"golang.org/x/sys/unix"
)

// SplitMode is a tag's layout: one terminal, or two side by side (spec.md
// §3 "split mode {0 = single, 1 = horizontal, 2 = vertical}").
type SplitMode int

const (
	SplitNone SplitMode = iota
	SplitHorizontal
	SplitVertical
)

// tagState is the per-tag bookkeeping of spec.md §3's "Global multiplexer
// state": which of the tag's two slots is primary, its split mode, and
// whether it snapshots on hide.
type tagState struct {
	tops  bool
	split SplitMode
	saved bool
}

// Mux is the C7 multiplexer/scheduler: it owns every terminal slot, the
// poll loop, tag/split bookkeeping, and the lock/confirm-quit states
// (spec.md §2 C7, §4.7). It depends on Surface/Pad/Font/SnapshotStore/
// Config by explicit field, never a package-level singleton (spec.md §9
// Design Notes).
type Mux struct {
	cfg       *Config
	surface   *Surface
	snapshots *SnapshotStore

	tags  []rune
	state []tagState

	terms []*Terminal // len 2*len(tags); nil == unopened slot
	pads  [2]*Pad      // primary / secondary half, reconfigured per show

	regular, italic, bold          *Font
	altRegular, altItalic, altBold *Font
	usingAlt                       bool

	ctag        int
	ltag        int
	hidden      bool
	locked      bool
	taglock     bool
	confirmQuit bool
	cmdmode     bool // next stdin byte is a command-key selector
	overlayActive bool
	pwBuf       []byte

	sig  *signalBridge
	quit bool

	configPath string
}

// NewMux builds the multiplexer over an already-open surface and a loaded
// config, opening the primary (and, if present, alternate) font set. A tag
// string longer than 32 characters is truncated (spec.md §3: "NTAGS ...
// bounded ≤ 32").
func NewMux(cfg *Config, surface *Surface) (*Mux, error) {
	tags := []rune(cfg.Tags())
	if len(tags) > 32 {
		tags = tags[:32]
	}
	if len(tags) == 0 {
		tags = []rune(defaultTags)
	}

	regPath, itPath, boldPath := cfg.FontPaths()
	regular, err := OpenFont(regPath)
	if err != nil {
		return nil, err
	}
	var italic, bold *Font
	if itPath != "" {
		if f, err := OpenFont(itPath); err == nil {
			italic = f
		}
	}
	if boldPath != "" {
		if f, err := OpenFont(boldPath); err == nil {
			bold = f
		}
	}

	m := &Mux{
		cfg:       cfg,
		surface:   surface,
		snapshots: NewSnapshotStore(surface, 2*len(tags)),
		tags:      tags,
		state:     make([]tagState, len(tags)),
		terms:     make([]*Terminal, 2*len(tags)),
		regular:   regular,
		italic:    italic,
		bold:      bold,
	}
	for i := range m.state {
		m.state[i].tops = true
		m.state[i].saved = cfg.IsSavedTag(tags[i])
	}

	altReg, altIt, altBold := cfg.AltFontPaths()
	if altReg != "" {
		if f, err := OpenFont(altReg); err == nil {
			m.altRegular = f
			if altIt != "" {
				m.altItalic, _ = OpenFont(altIt)
			}
			if altBold != "" {
				m.altBold, _ = OpenFont(altBold)
			}
		}
	}

	m.pads[0] = NewPad(surface, regular, italic, bold, 0, 0, surface.Rows(), surface.Cols())
	m.pads[1] = NewPad(surface, regular, italic, bold, 0, 0, 0, 0)

	sig, err := newSignalBridge()
	if err != nil {
		return nil, err
	}
	m.sig = sig
	return m, nil
}

// SetConfigPath records where ReloadConfig (Ctrl-E) should re-read from;
// an empty path makes reload a no-op, matching "no config file" startup.
func (m *Mux) SetConfigPath(path string) { m.configPath = path }

// ReloadConfig implements Ctrl-E (spec.md §4.7.2 "reload config"). It
// replaces the configuration read for border, password, quit key, command
// table, empty-slot background, and terminals opened from then on, then
// forces a redraw. Terminals already open keep the default colors, palette,
// and bold-brightens setting they were created with. Reloading never changes NTAGS or font geometry at runtime: resizing the
// tag array mid-session would orphan open terminal slots, and a font swap
// belongs to the Ctrl-F alt-font toggle instead, so both are left alone.
func (m *Mux) ReloadConfig() {
	if m.configPath == "" {
		return
	}
	cfg, err := LoadConfig(m.configPath)
	if err != nil {
		return
	}
	m.cfg = cfg
	m.pads[0].InvalidateCache()
	m.pads[1].InvalidateCache()
	m.ForceRedraw()
}

// NTags returns the configured tag count.
func (m *Mux) NTags() int { return len(m.tags) }

func (m *Mux) tagOf(i int) int    { return i % m.NTags() }
func (m *Mux) topHalf(i int) bool { return i < m.NTags() }
func (m *Mux) slot(tag int, top bool) int {
	if top {
		return tag
	}
	return tag + m.NTags()
}

// current returns the slot index of the active terminal (spec.md §4.7
// "current()").
func (m *Mux) current() int {
	return m.slot(m.ctag, m.state[m.ctag].tops)
}

// otherInTag returns i's split partner slot.
func (m *Mux) otherInTag(i int) int {
	return m.slot(m.tagOf(i), !m.topHalf(i))
}

// nextOpen linear-searches forward (wrapping) for an open slot other than
// from (spec.md §4.7 "next_open()").
func (m *Mux) nextOpen(from int) int {
	n := len(m.terms)
	for k := 1; k < n; k++ {
		i := (from + k) % n
		if m.terms[i] != nil && m.terms[i].Fd() != 0 {
			return i
		}
	}
	return -1
}

// rect is a pixel subregion of the surface.
type rect struct{ roff, coff, drows, dcols int }

// layoutTag computes the one-or-two pixel rects for a tag's current split
// mode (spec.md §4.7 "Layout per tag"), rounding the split boundary down to
// a whole glyph row/column so neither half's pad mis-sizes its grid.
func (m *Mux) layoutTag(tag int) (primary, secondary rect) {
	rows, cols := m.surface.Rows(), m.surface.Cols()
	b := m.cfg.BorderWidth()
	switch m.state[tag].split {
	case SplitHorizontal:
		fnrows := m.regular.Rows()
		half := rows / 2
		if fnrows > 0 {
			half = (half / fnrows) * fnrows
		}
		primary = rect{0, b, half, cols - 2*b}
		secondary = rect{half + b, b, rows - half - b, cols - 2*b}
	case SplitVertical:
		fncols := m.regular.Cols()
		half := cols / 2
		if fncols > 0 {
			half = (half / fncols) * fncols
		}
		primary = rect{b, 0, rows - 2*b, half}
		secondary = rect{b, half + b, rows - 2*b, cols - half - b}
	default:
		primary = rect{0, 0, rows, cols}
	}
	return
}

func (m *Mux) ensureTerminal(i int) *Terminal {
	if m.terms[i] == nil {
		rows, cols := m.pads[0].CharacterRows(), m.pads[0].CharacterCols()
		if rows <= 0 {
			rows = 24
		}
		if cols <= 0 {
			cols = 80
		}
		fg := rgbaColor(m.cfg.Foreground())
		bg := rgbaColor(m.cfg.Background())
		pal := NewPalette(m.cfg.Palette16())
		t := NewTerminal(rows, cols, pal, fg, bg)
		t.boldBrightens = m.cfg.BoldBrightens()
		m.terms[i] = t
	}
	return m.terms[i]
}

func rgbaColor(c color.RGBA) Color {
	return TrueColor12(c.R, c.G, c.B)
}

// Exec starts a child in slot i if (and only if) it is currently empty
// (spec.md §4.7 "exec(argv, opt_signal): only if current slot is empty").
func (m *Mux) Exec(i int, argv []string, sendVTSignals bool) error {
	if m.terms[i] != nil && m.terms[i].Fd() != 0 {
		return nil
	}
	t := m.ensureTerminal(i)
	return t.Exec(argv, m.cfg.TermName(), m.fbdevEnv(i), sendVTSignals)
}

// fbdevEnv reports the device and pixel geometry of the pad slot i will
// render through (spec.md §6 "FBDEV=<device>:WxH+X+Y reflecting the pad's
// pixel geometry"), falling back to the whole surface before any tag has
// been shown and assigned a pad.
func (m *Mux) fbdevEnv(i int) string {
	pad := m.currentPadFor(i)
	if pad == nil || pad.PixelRows() == 0 {
		return fmt.Sprintf("%s:%dx%d+0+0", m.surface.Device(), m.surface.Cols(), m.surface.Rows())
	}
	return fmt.Sprintf("%s:%dx%d+%d+%d", m.surface.Device(), pad.PixelCols(), pad.PixelRows(), pad.ColOffset(), pad.RowOffset())
}

// ExecCurrent spawns argv in the current slot, as the 'c'/'m'/'e'/';'
// keyboard commands do (spec.md §4.7.2).
func (m *Mux) ExecCurrent(argv []string, sendVTSignals bool) error {
	return m.Exec(m.current(), argv, sendVTSignals)
}

// snapKey computes the C5 index a terminal slot's pixels are snapshotted
// under: the slot index itself for a single-terminal tag, or tag / tag+
// NTags for the primary/secondary half of a split (spec.md §3's snapshot
// index encoding).
func (m *Mux) snapKey(i int) int {
	tag := m.tagOf(i)
	if m.state[tag].split == SplitNone {
		return i
	}
	if m.topHalf(i) == m.state[tag].tops {
		return tag
	}
	return tag + m.NTags()
}

// showSlot loads slot i into pad (restoring from snapshot if one exists and
// the tag is "saved", else doing a full redraw) and attaches pad as i's
// renderer.
func (m *Mux) showSlot(i int, pad *Pad, full bool) {
	t := m.terms[i]
	if t == nil {
		pad.Fill(0, -1, 0, -1, m.cfg.Background())
		return
	}
	t.SetRenderer(pad)
	key := m.snapKey(i)
	if !full && m.state[m.tagOf(i)].saved && m.snapshots.Has(key) {
		m.snapshots.Load(key)
		m.snapshots.Free(key)
		return
	}
	t.Redraw(pad.CharacterRows(), pad.CharacterCols(), true)
	t.flushDirty()
}

// hideSlot detaches i's renderer, snapshotting its pixels first if the tag
// wants that (spec.md §3 "A snapshot is created at the moment a visible
// saved-tag terminal is hidden").
func (m *Mux) hideSlot(i int) {
	t := m.terms[i]
	if t == nil {
		return
	}
	if m.state[m.tagOf(i)].saved {
		m.snapshots.Snap(m.snapKey(i))
	}
	t.SetRenderer(nil)
}

// showCurrentTag lays out and shows the current tag's terminal(s), drawing
// a border around the active half when split (spec.md §4.7 "show(n)").
func (m *Mux) showCurrentTag(full bool) {
	primary, secondary := m.layoutTag(m.ctag)
	m.pads[0].Configure(primary.roff, primary.coff, primary.drows, primary.dcols)

	primarySlot := m.slot(m.ctag, m.state[m.ctag].tops)
	m.showSlot(primarySlot, m.pads[0], full)

	if m.state[m.ctag].split == SplitNone {
		return
	}
	m.pads[1].Configure(secondary.roff, secondary.coff, secondary.drows, secondary.dcols)
	secondarySlot := m.otherInTag(primarySlot)
	m.showSlot(secondarySlot, m.pads[1], full)

	m.pads[1].Border(m.cfg.BorderColor(), m.cfg.BorderWidth())
}

// Show performs a permanent tag switch to n (spec.md §4.7 "show(n)
// (permanent switch)"). If taglock is set and n differs from the current
// tag, the switch is refused.
func (m *Mux) Show(n int) {
	if n < 0 || n >= m.NTags() {
		return
	}
	if m.taglock && n != m.ctag {
		return
	}
	if n == m.ctag {
		return
	}
	for i := range m.terms {
		if m.tagOf(i) == m.ctag {
			m.hideSlot(i)
		}
	}
	m.ltag = m.ctag
	m.ctag = n
	m.showCurrentTag(false)
}

// FlipInTag swaps which of the tag's two slots is primary ('j'/'k' keys,
// spec.md §4.7.2). In a split tag it does nothing, since both halves stay
// visible; in a single-terminal tag it hides the current slot (snapshotting
// it if the tag is saved) and shows the other one.
func (m *Mux) FlipInTag() {
	if m.state[m.ctag].split != SplitNone {
		return
	}
	cur := m.current()
	m.hideSlot(cur)
	m.state[m.ctag].tops = !m.state[m.ctag].tops
	m.showCurrentTag(false)
}

// ShowLastTag implements the 'o' key.
func (m *Mux) ShowLastTag() {
	m.Show(m.ltag)
}

// Split sets the current tag's split mode and re-shows it to establish
// borders (spec.md §4.7 "split(mode)").
func (m *Mux) Split(mode SplitMode) {
	m.state[m.ctag].split = mode
	m.showCurrentTag(true)
}

// CycleOpen implements Tab: jump to the next open terminal's tag.
func (m *Mux) CycleOpen() {
	i := m.nextOpen(m.current())
	if i < 0 {
		return
	}
	m.Show(m.tagOf(i))
}

// ToggleTaglock implements Ctrl-O.
func (m *Mux) ToggleTaglock() { m.taglock = !m.taglock }

// Lock implements Ctrl-L: enter password-prompt mode.
func (m *Mux) Lock() {
	m.locked = true
	m.pwBuf = m.pwBuf[:0]
}

// RequestQuit implements Ctrl-Q: arm confirm-quit, consuming the next byte.
func (m *Mux) RequestQuit() { m.confirmQuit = true }

// ScrollCurrent implements ',' / '.' (scroll back/forward half a page).
func (m *Mux) ScrollCurrent(lines int) {
	if t := m.terms[m.current()]; t != nil {
		t.Scroll(lines)
		t.flushDirty()
	}
}

// ForceRedraw implements 'y': full repaint of everything currently visible.
func (m *Mux) ForceRedraw() {
	m.showCurrentTag(true)
}

// Screenshot implements 's': dump the current terminal's grid as text.
func (m *Mux) Screenshot(path string) error {
	if path == "" {
		return nil
	}
	t := m.terms[m.current()]
	if t == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return t.Screenshot(f)
}

// DebugScreenshot implements 'S': dump the current terminal's grid as a PNG
// rendered with a built-in bitmap font, independent of the live pad's
// fonts — useful for comparing engine state against the framebuffer when
// something on screen looks wrong.
func (m *Mux) DebugScreenshot(path string) error {
	if path == "" {
		return nil
	}
	t := m.terms[m.current()]
	if t == nil {
		return nil
	}
	return t.WriteDebugImage(path)
}

// ToggleAltFont implements Ctrl-F (SUPPLEMENTED FEATURES #4).
func (m *Mux) ToggleAltFont() {
	if m.altRegular == nil {
		return
	}
	m.usingAlt = !m.usingAlt
	if m.usingAlt {
		m.pads[0].regular, m.pads[0].italic, m.pads[0].bold = m.altRegular, m.altItalic, m.altBold
		m.pads[1].regular, m.pads[1].italic, m.pads[1].bold = m.altRegular, m.altItalic, m.altBold
	} else {
		m.pads[0].regular, m.pads[0].italic, m.pads[0].bold = m.regular, m.italic, m.bold
		m.pads[1].regular, m.pads[1].italic, m.pads[1].bold = m.regular, m.italic, m.bold
	}
	m.pads[0].InvalidateCache()
	m.pads[1].InvalidateCache()
	m.ForceRedraw()
}

// --- signal handling (spec.md §4.7 "Signals") ---

// OnVTRelease is called when the self-pipe reports a pending SIGUSR1: hide
// the current tag with snapshotting and leave the surface. Run then
// acknowledges the release to the kernel with VT_RELDISP on stdin.
func (m *Mux) OnVTRelease() {
	m.hidden = true
	for i := range m.terms {
		if m.tagOf(i) == m.ctag {
			m.hideSlot(i)
		}
	}
	m.surface.Leave()
}

// OnVTAcquire is called on SIGUSR2: re-enter the surface and re-show the
// current tag, restoring from snapshot where available.
func (m *Mux) OnVTAcquire() {
	m.hidden = false
	m.surface.Enter()
	m.showCurrentTag(false)
}

// reapChildren handles SIGCHLD by ending any terminal whose child has
// already exited (pty.go's background cmd.Wait() sets this); Read()
// returning false on the next poll pass would also catch a dead pty via
// EOF, but a child that exits without closing its pty slave (rare, but
// possible with orphaned grandchildren holding it open) only surfaces
// here.
func (m *Mux) reapChildren() {
	for i, t := range m.terms {
		if t == nil || t.pty == nil {
			continue
		}
		if t.pty.Exited() {
			m.endSlot(i)
		}
	}
}

// --- keyboard dispatch (spec.md §4.7.2) ---

// HandleStdin processes the bytes in buf, as read from stdin.
func (m *Mux) HandleStdin(buf []byte) {
	for i := 0; i < len(buf); i++ {
		b := buf[i]

		if m.locked {
			m.handleLockedByte(b)
			continue
		}
		if m.overlayActive {
			m.overlayActive = false
			matched := false
			for idx, tagRune := range m.tags {
				if byte(tagRune) == b {
					m.Show(idx)
					matched = true
					break
				}
			}
			if !matched {
				m.ForceRedraw()
			}
			continue
		}
		if m.confirmQuit {
			m.confirmQuit = false
			if b == m.cfg.QuitKey() {
				m.quit = true
			}
			continue
		}
		if m.cmdmode {
			m.cmdmode = false
			m.dispatchCommand(b)
			continue
		}
		if b == 0x1b && i+1 < len(buf) {
			i++
			m.dispatchCommand(buf[i])
			continue
		}
		if b == 0x1b {
			m.cmdmode = true
			continue
		}

		if t := m.terms[m.current()]; t != nil {
			t.sendToChild([]byte{b})
		}
	}
}

func (m *Mux) handleLockedByte(b byte) {
	if b == '\r' || b == '\n' {
		if string(m.pwBuf) == m.cfg.Password() {
			m.locked = false
		}
		m.pwBuf = m.pwBuf[:0]
		return
	}
	if b >= 0x20 {
		m.pwBuf = append(m.pwBuf, b)
	}
}

// dispatchCommand runs the keymapTable entry for b (mux_keymap.go), falling
// through to "switch to this tag" for any byte matching a configured tag
// character (spec.md §4.7.2).
func (m *Mux) dispatchCommand(b byte) {
	if action, ok := keymapTable[b]; ok {
		action(m)
		return
	}
	for idx, tagRune := range m.tags {
		if byte(tagRune) == b {
			m.Show(idx)
			return
		}
	}
}

// --- poll loop (spec.md §4.7 "Poll loop") ---

// Run drives the scheduler until stdin hangs up, an error occurs, or Ctrl-Q
// is confirmed. stdinFd must already be in raw, non-blocking mode
// (cmd/fbpad's responsibility per spec.md §1's scope split).
func (m *Mux) Run(stdinFd int) error {
	defer m.sig.close()
	m.showCurrentTag(true)

	for !m.quit {
		fds := []unix.PollFd{
			{Fd: int32(stdinFd), Events: unix.POLLIN},
			{Fd: int32(m.sig.fd()), Events: unix.POLLIN},
		}
		slotOf := make([]int, 0, len(m.terms))
		for i, t := range m.terms {
			if t != nil && t.Fd() != 0 {
				fds = append(fds, unix.PollFd{Fd: int32(t.Fd()), Events: unix.POLLIN})
				slotOf = append(slotOf, i)
			}
		}

		n, err := unix.Poll(fds, 1000)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}
		if n == 0 {
			continue
		}

		if fds[0].Revents&(unix.POLLHUP|unix.POLLERR) != 0 {
			return nil
		}
		if fds[0].Revents&unix.POLLIN != 0 {
			buf := make([]byte, 16)
			if nr, _ := unix.Read(stdinFd, buf); nr > 0 {
				m.HandleStdin(buf[:nr])
			}
		}

		if fds[1].Revents&unix.POLLIN != 0 {
			usr1, usr2, chld := m.sig.drain()
			if usr1 {
				m.OnVTRelease()
				// VT_RELDISP(1): allow the pending console switch.
				unix.IoctlSetInt(stdinFd, 0x5605, 1)
			}
			if usr2 {
				m.OnVTAcquire()
			}
			if chld {
				m.reapChildren()
			}
		}

		for pi, slot := range slotOf {
			fdEntry := fds[2+pi]
			if fdEntry.Revents == 0 {
				continue
			}
			m.servicePty(slot, fdEntry.Revents)
		}
	}
	return nil
}

// servicePty stands in for the "peep" pattern of spec.md §4.7 "Poll loop":
// each Terminal parses into its own grid, so no renderer is swapped. A slot
// that is on screen blits through its pad at once; a hidden slot has no
// renderer, and its changed rows stay dirty until it is shown again.
func (m *Mux) servicePty(slot int, revents int16) {
	t := m.terms[slot]
	if t == nil {
		return
	}
	if revents&(unix.POLLHUP|unix.POLLERR) != 0 {
		m.endSlot(slot)
		return
	}
	if revents&unix.POLLIN == 0 {
		return
	}
	if !t.Read() {
		m.endSlot(slot)
	}
}

// endSlot tears down a dead terminal and releases any snapshot keyed to it.
func (m *Mux) endSlot(slot int) {
	t := m.terms[slot]
	if t == nil {
		return
	}
	t.End()
	m.snapshots.Free(m.snapKey(slot))
	if slot == m.current() {
		m.showSlot(slot, m.currentPadFor(slot), true)
	}
}

func (m *Mux) currentPadFor(slot int) *Pad {
	if slot == m.slot(m.ctag, m.state[m.ctag].tops) {
		return m.pads[0]
	}
	return m.pads[1]
}

