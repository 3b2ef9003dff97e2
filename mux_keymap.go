package fbpad

// keymapAction is one ESC-prefixed command's handler. Dispatch is
// table-driven rather than a long if/else chain, the same shape conf.c's
// cmdtab gives the original's key commands (SUPPLEMENTED FEATURES #3).
type keymapAction func(m *Mux)

// keymapTable maps a command byte (typed after ESC, spec.md §4.7.2) to its
// handler. Tag-switch bytes are not in this table — dispatchCommand falls
// back to scanning Config.Tags() for anything not listed here.
var keymapTable = map[byte]keymapAction{
	'c':  func(m *Mux) { m.ExecCurrent(m.cfg.Command('c'), false) },
	';':  func(m *Mux) { m.ExecCurrent(m.cfg.Command(';'), true) },
	'm':  func(m *Mux) { m.ExecCurrent(m.cfg.Command('m'), false) },
	'e':  func(m *Mux) { m.ExecCurrent(m.cfg.Command('e'), false) },
	'j':  func(m *Mux) { m.FlipInTag() },
	'k':  func(m *Mux) { m.FlipInTag() },
	'o':  func(m *Mux) { m.ShowLastTag() },
	'p':  func(m *Mux) { m.showTagOverlay() },
	'\t': func(m *Mux) { m.CycleOpen() },
	0x11: func(m *Mux) { m.RequestQuit() }, // Ctrl-Q
	's':  func(m *Mux) { m.Screenshot(m.cfg.ScreenshotPath()) },
	'S':  func(m *Mux) { m.DebugScreenshot(m.cfg.ScreenshotPath() + ".png") },
	'y':  func(m *Mux) { m.ForceRedraw() },
	0x0c: func(m *Mux) { m.Lock() }, // Ctrl-L
	0x0f: func(m *Mux) { m.ToggleTaglock() }, // Ctrl-O
	0x05: func(m *Mux) { m.ReloadConfig() }, // Ctrl-E
	',':  func(m *Mux) { m.ScrollCurrent(m.pads[0].CharacterRows() / 2) },
	'.':  func(m *Mux) { m.ScrollCurrent(-m.pads[0].CharacterRows() / 2) },
	'=':  func(m *Mux) { m.Split(SplitHorizontal) },
	'-':  func(m *Mux) { m.Split(SplitVertical) },
	0x06: func(m *Mux) { m.ToggleAltFont() }, // Ctrl-F
}
