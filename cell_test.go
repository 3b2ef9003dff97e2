package fbpad

import "testing"

func TestCellRuneAndContinuation(t *testing.T) {
	c := Cell{Char: uint32('中') | DWContinuation}
	if c.Rune() != '中' {
		t.Fatalf("got %q, want 中", c.Rune())
	}
	if !c.IsContinuation() {
		t.Fatal("expected continuation bit set")
	}
	if c.IsEmpty() {
		t.Fatal("non-zero codepoint should not be empty")
	}
}

func TestCellEmpty(t *testing.T) {
	if !(Cell{}).IsEmpty() {
		t.Fatal("zero-value cell should be empty")
	}
	if (Cell{Char: 'a'}).IsEmpty() {
		t.Fatal("cell with codepoint should not be empty")
	}
}

func TestBlankCellUsesDefaults(t *testing.T) {
	c := blankCell(ColorDefaultFG, ColorDefaultBG)
	if !c.IsEmpty() {
		t.Fatal("blankCell should be empty")
	}
	if c.Style.Fg() != ColorDefaultFG || c.Style.Bg() != ColorDefaultBG {
		t.Fatal("blankCell should carry the given defaults")
	}
}

func TestCellStyleRoundTrip(t *testing.T) {
	s := NewStyle(PaletteColor(3), TrueColor12(0x11, 0x22, 0x33), true, false)
	if s.Fg() != PaletteColor(3) {
		t.Fatalf("fg got %v, want 3", s.Fg())
	}
	if !s.Bg().IsTrueColor() {
		t.Fatal("expected truecolor bg")
	}
	if !s.Bold() || s.Italic() {
		t.Fatal("expected bold set, italic clear")
	}
	if s.Variant() != FontBold {
		t.Fatalf("variant got %v, want FontBold", s.Variant())
	}
}

func TestCellStyleWithFgBg(t *testing.T) {
	s := NewStyle(PaletteColor(1), PaletteColor(2), false, true)
	s2 := s.WithFg(PaletteColor(9)).WithBg(PaletteColor(8))
	if s2.Fg() != PaletteColor(9) || s2.Bg() != PaletteColor(8) {
		t.Fatal("WithFg/WithBg did not replace colors")
	}
	if !s2.Italic() {
		t.Fatal("WithFg/WithBg should not disturb other bits")
	}
}

func TestFontVariantPrecedence(t *testing.T) {
	if NewStyle(0, 0, false, true).Variant() != FontItalic {
		t.Fatal("italic-only should select FontItalic")
	}
	if NewStyle(0, 0, false, false).Variant() != FontRegular {
		t.Fatal("no attrs should select FontRegular")
	}
}
