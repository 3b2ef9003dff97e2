package fbpad

import "testing"

func TestNewGrid(t *testing.T) {
	g := NewGrid(24, 80, ColorDefaultFG, ColorDefaultBG)
	if g.Rows() != 24 || g.Cols() != 80 {
		t.Fatalf("got %dx%d, want 24x80", g.Rows(), g.Cols())
	}
	for r := 0; r < 24; r++ {
		for c := 0; c < 80; c++ {
			if !g.Cell(r, c).IsEmpty() {
				t.Fatalf("cell (%d,%d) not blank on init", r, c)
			}
		}
	}
}

func TestGridSetAndDirty(t *testing.T) {
	g := NewGrid(5, 10, ColorDefaultFG, ColorDefaultBG)
	g.Set(2, 3, Cell{Char: 'x', Style: NewStyle(ColorDefaultFG, ColorDefaultBG, false, false)})
	if g.Cell(2, 3).Rune() != 'x' {
		t.Fatalf("got %q, want x", g.Cell(2, 3).Rune())
	}
	if !g.Dirty(2) {
		t.Fatal("expected row 2 dirty after Set")
	}
	if g.Dirty(0) {
		t.Fatal("row 0 should not be dirty")
	}
	g.ClearDirty(2)
	if g.Dirty(2) {
		t.Fatal("ClearDirty did not clear row 2")
	}
}

func TestGridOutOfBounds(t *testing.T) {
	g := NewGrid(5, 10, ColorDefaultFG, ColorDefaultBG)
	if !g.Cell(-1, 0).IsEmpty() || !g.Cell(0, -1).IsEmpty() || !g.Cell(5, 0).IsEmpty() {
		t.Fatal("out of bounds Cell should return zero value")
	}
	g.Set(-1, 0, Cell{Char: 'a'}) // must not panic
}

func TestGridScrollUpFeedsHistory(t *testing.T) {
	g := NewGrid(3, 4, ColorDefaultFG, ColorDefaultBG)
	g.Set(0, 0, Cell{Char: 'A'})
	g.Set(1, 0, Cell{Char: 'B'})
	g.Set(2, 0, Cell{Char: 'C'})

	var fed []rune
	g.ScrollUp(0, 3, 1, ColorDefaultFG, ColorDefaultBG, func(row []Cell) {
		fed = append(fed, row[0].Rune())
	})

	if len(fed) != 1 || fed[0] != 'A' {
		t.Fatalf("expected scrolled-off row to start with 'A', got %v", fed)
	}
	if g.Cell(0, 0).Rune() != 'B' {
		t.Fatalf("row 0 should now hold B, got %q", g.Cell(0, 0).Rune())
	}
	if !g.Cell(2, 0).IsEmpty() {
		t.Fatal("bottom row should be cleared after scroll")
	}
}

func TestGridScrollDown(t *testing.T) {
	g := NewGrid(3, 4, ColorDefaultFG, ColorDefaultBG)
	g.Set(0, 0, Cell{Char: 'A'})
	g.ScrollDown(0, 3, 1, ColorDefaultFG, ColorDefaultBG)
	if !g.Cell(0, 0).IsEmpty() {
		t.Fatal("top row should be blank after scroll down")
	}
	if g.Cell(1, 0).Rune() != 'A' {
		t.Fatalf("row 1 should hold A, got %q", g.Cell(1, 0).Rune())
	}
}

func TestGridInsertAndDeleteChars(t *testing.T) {
	g := NewGrid(1, 5, ColorDefaultFG, ColorDefaultBG)
	for c := 0; c < 5; c++ {
		g.Set(0, c, Cell{Char: uint32('a' + c)})
	}
	g.InsertBlanks(0, 1, 2, ColorDefaultFG, ColorDefaultBG)
	want := "a\x00\x00bc"
	for c, w := range want {
		if g.Cell(0, c).Rune() != w {
			t.Fatalf("after insert, col %d = %q want %q", c, g.Cell(0, c).Rune(), w)
		}
	}

	g2 := NewGrid(1, 5, ColorDefaultFG, ColorDefaultBG)
	for c := 0; c < 5; c++ {
		g2.Set(0, c, Cell{Char: uint32('a' + c)})
	}
	g2.DeleteChars(0, 1, 2, ColorDefaultFG, ColorDefaultBG)
	want2 := "ade\x00\x00"
	for c, w := range want2 {
		if g2.Cell(0, c).Rune() != w {
			t.Fatalf("after delete, col %d = %q want %q", c, g2.Cell(0, c).Rune(), w)
		}
	}
}

func TestGridResizePreservesTopLeft(t *testing.T) {
	g := NewGrid(2, 2, ColorDefaultFG, ColorDefaultBG)
	g.Set(0, 0, Cell{Char: 'A'})
	g.Resize(4, 4, ColorDefaultFG, ColorDefaultBG)
	if g.Rows() != 4 || g.Cols() != 4 {
		t.Fatalf("got %dx%d, want 4x4", g.Rows(), g.Cols())
	}
	if g.Cell(0, 0).Rune() != 'A' {
		t.Fatal("resize lost top-left content")
	}
	if !g.Cell(3, 3).IsEmpty() {
		t.Fatal("new cells should be blank")
	}
}

func TestPositionOrdering(t *testing.T) {
	a := Position{Row: 1, Col: 5}
	b := Position{Row: 2, Col: 0}
	if !a.Before(b) {
		t.Fatal("expected a before b")
	}
	if b.Before(a) {
		t.Fatal("b should not be before a")
	}
	if !a.Equal(Position{Row: 1, Col: 5}) {
		t.Fatal("expected equal positions to compare equal")
	}
}
