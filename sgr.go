package fbpad

// applySGR implements the Select Graphic Rendition table of spec.md
// §4.6.4, mutating the cursor's pending cell template. Reverse video is
// applied immediately by swapping the template's fg/bg (matching pad.c's
// mode toggle) rather than carried as a per-cell bit, so toggling it
// twice is naturally idempotent.
func (t *Terminal) applySGR(params []int) {
	if len(params) == 0 {
		params = []int{0}
	}
	for i := 0; i < len(params); i++ {
		p := param(params, i, 0)
		switch {
		case p == 0:
			t.cursor.Template = NewStyle(t.fg, t.bg, false, false)
			t.mode = t.mode.Clear(ModeBold | ModeItalic | ModeReverse | ModeColors8)
		case p == 1:
			t.mode = t.mode.Set(ModeBold)
			t.cursor.Template |= styleBoldBit
			if t.mode.Has(ModeColors8) && t.boldBrightens {
				if idx, ok := t.cursor.Template.Fg().PaletteIndex(); ok && idx < 8 {
					t.cursor.Template = t.cursor.Template.WithFg(PaletteColor(Brighten(idx)))
				}
			}
		case p == 3:
			t.mode = t.mode.Set(ModeItalic)
			t.cursor.Template |= styleItalicBit
		case p == 7:
			if !t.mode.Has(ModeReverse) {
				t.mode = t.mode.Set(ModeReverse)
				t.swapTemplateColors()
			}
		case p == 22:
			t.mode = t.mode.Clear(ModeBold)
			t.cursor.Template &^= styleBoldBit
		case p == 23:
			t.mode = t.mode.Clear(ModeItalic)
			t.cursor.Template &^= styleItalicBit
		case p == 27:
			if t.mode.Has(ModeReverse) {
				t.mode = t.mode.Clear(ModeReverse)
				t.swapTemplateColors()
			}
		case p >= 30 && p <= 37:
			t.cursor.Template = t.cursor.Template.WithFg(PaletteColor(uint8(p - 30)))
			t.mode = t.mode.Set(ModeColors8)
		case p == 38:
			n := t.parseExtendedColor(params, &i)
			if n != colorUnset {
				t.cursor.Template = t.cursor.Template.WithFg(n)
				t.mode = t.mode.Clear(ModeColors8)
			}
		case p >= 40 && p <= 47:
			t.cursor.Template = t.cursor.Template.WithBg(PaletteColor(uint8(p - 40)))
		case p == 48:
			n := t.parseExtendedColor(params, &i)
			if n != colorUnset {
				t.cursor.Template = t.cursor.Template.WithBg(n)
			}
		case p >= 90 && p <= 97:
			t.cursor.Template = t.cursor.Template.WithFg(PaletteColor(uint8(p-90) + 8))
		case p >= 100 && p <= 107:
			t.cursor.Template = t.cursor.Template.WithBg(PaletteColor(uint8(p-100) + 8))
		case p == 39:
			t.cursor.Template = t.cursor.Template.WithFg(t.fg)
			t.mode = t.mode.Clear(ModeColors8)
		case p == 49:
			t.cursor.Template = t.cursor.Template.WithBg(t.bg)
		}
	}
}

const colorUnset = Color(0xffff)

// parseExtendedColor consumes the sub-parameters of a 38/48 sequence
// (either ";5;N" for a palette index or ";2;R;G;B" for truecolor),
// advancing *i past whatever it consumes, per spec.md §4.6.4.
func (t *Terminal) parseExtendedColor(params []int, i *int) Color {
	if *i+1 >= len(params) {
		return colorUnset
	}
	switch param(params, *i+1, -1) {
	case 5:
		if *i+2 >= len(params) {
			*i += 1
			return colorUnset
		}
		idx := param(params, *i+2, 0)
		*i += 2
		return PaletteColor(uint8(idx))
	case 2:
		if *i+4 >= len(params) {
			*i += 1
			return colorUnset
		}
		r := param(params, *i+2, 0)
		g := param(params, *i+3, 0)
		b := param(params, *i+4, 0)
		*i += 4
		return TrueColor12(uint8(r), uint8(g), uint8(b))
	}
	*i += 1
	return colorUnset
}

// swapTemplateColors exchanges the pending template's fg and bg, used by
// SGR 7/27 (reverse video on/off).
func (t *Terminal) swapTemplateColors() {
	fg, bg := t.cursor.Template.Fg(), t.cursor.Template.Bg()
	t.cursor.Template = t.cursor.Template.WithFg(bg).WithBg(fg)
}
