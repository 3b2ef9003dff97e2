package fbpad

import "image/color"

// glyphCacheSlots/Ways size the set-associative glyph cache: 128 slots ×
// 16 ways, slot = codepoint & 127 (spec.md §4.4).
const (
	glyphCacheSlots = 128
	glyphCacheWays  = 16
)

type glyphCacheKey struct {
	cp      rune
	fg, bg  Color
	variant FontVariant
}

type glyphCacheEntry struct {
	valid bool
	key   glyphCacheKey
	block []byte // fnrows*fncols*bytesPerPixel packed pixels
}

// Pad is the C4 rasterizer/blitter: it owns a pixel subregion of a
// Surface, up to three Fonts (regular/italic/bold), and the glyph cache,
// and implements Renderer so Terminal can blit through it without
// knowing about pixels (spec.md §4.4, §9 Design Notes' engine→pad→
// surface direction).
type Pad struct {
	surface *Surface
	regular *Font
	italic  *Font
	bold    *Font

	roff, coff   int
	drows, dcols int

	cache [glyphCacheSlots][glyphCacheWays]glyphCacheEntry
	ways  [glyphCacheSlots]int // round-robin way cursor per slot

	scratchColor uint32
	scratchWidth int
	scratchValid bool
}

// NewPad creates a pad over the given surface subregion, using regular
// as the required font (spec.md §4.4 "init(regular, italic, bold)").
func NewPad(s *Surface, regular, italic, bold *Font, roff, coff, drows, dcols int) *Pad {
	p := &Pad{surface: s, regular: regular, italic: italic, bold: bold}
	p.Configure(roff, coff, drows, dcols)
	return p
}

// Configure moves the pad to a new subregion and invalidates the glyph
// cache (geometry affects glyph placement within each cell).
func (p *Pad) Configure(roff, coff, drows, dcols int) {
	p.roff, p.coff, p.drows, p.dcols = roff, coff, drows, dcols
	p.InvalidateCache()
}

// InvalidateCache clears every cache slot — required whenever fonts, pad
// geometry, or the color palette change (spec.md §4.4).
func (p *Pad) InvalidateCache() {
	for s := range p.cache {
		for w := range p.cache[s] {
			p.cache[s][w] = glyphCacheEntry{}
		}
		p.ways[s] = 0
	}
	p.scratchValid = false
}

// CharacterRows/Cols report the pad's grid size in cells.
func (p *Pad) CharacterRows() int {
	if p.regular == nil || p.regular.Rows() == 0 {
		return 0
	}
	return p.drows / p.regular.Rows()
}

func (p *Pad) CharacterCols() int {
	if p.regular == nil || p.regular.Cols() == 0 {
		return 0
	}
	return p.dcols / p.regular.Cols()
}

func (p *Pad) PixelRows() int { return p.drows }
func (p *Pad) PixelCols() int { return p.dcols }

// RowOffset/ColOffset report the pad's pixel origin within the surface.
func (p *Pad) RowOffset() int { return p.roff }
func (p *Pad) ColOffset() int { return p.coff }

func (p *Pad) fontFor(variant FontVariant) *Font {
	switch variant {
	case FontItalic:
		if p.italic != nil {
			return p.italic
		}
	case FontBold:
		if p.bold != nil {
			return p.bold
		}
	}
	return p.regular
}

// PutCell implements Renderer: draws one character cell, falling back
// italic/bold → regular on a font-lookup miss, and finally to a blank
// bg-filled cell if even regular misses (spec.md §4.6.8).
func (p *Pad) PutCell(row, col int, cell Cell, pal *Palette, defaultFG, defaultBG Color) {
	if cell.IsContinuation() {
		return
	}
	r := cell.Rune()
	fg := p.resolve(cell.Style.Fg(), pal, defaultFG, defaultBG)
	bg := p.resolve(cell.Style.Bg(), pal, defaultFG, defaultBG)

	if r == 0 || r == ' ' || !isPrintable(r) {
		p.fillCell(row, col, bg)
		return
	}

	font := p.fontFor(cell.Style.Variant())
	coverage, ok := font.Lookup(r)
	if !ok && font != p.regular {
		font = p.regular
		coverage, ok = font.Lookup(r)
	}
	if !ok {
		p.fillCell(row, col, bg)
		return
	}

	block := p.glyphBlock(glyphCacheKey{cp: r, fg: cell.Style.Fg(), bg: cell.Style.Bg(), variant: cell.Style.Variant()}, coverage, font, fg, bg)
	p.blit(row, col, font, block)
}

func isPrintable(r rune) bool {
	return r >= 0x20
}

// resolve turns a cell's packed Color into a concrete pixel color,
// resolving the terminal's own default markers (defaultFG/defaultBG) one
// level first so ResolveColor's fallback path never recurses.
func (p *Pad) resolve(c Color, pal *Palette, defaultFG, defaultBG Color) color.RGBA {
	fg := ResolveColor(defaultFG, pal, DefaultForeground, DefaultBackground)
	bg := ResolveColor(defaultBG, pal, DefaultForeground, DefaultBackground)
	return ResolveColor(c, pal, fg, bg)
}

// glyphBlock returns the cached pixel block for key, rasterizing and
// inserting on a miss (spec.md §4.4's set-associative glyph cache).
func (p *Pad) glyphBlock(key glyphCacheKey, coverage []byte, font *Font, fg, bg color.RGBA) []byte {
	slot := int(key.cp) & (glyphCacheSlots - 1)
	for w := 0; w < glyphCacheWays; w++ {
		e := &p.cache[slot][w]
		if e.valid && e.key == key {
			return e.block
		}
	}

	bpp := p.surface.BytesPerPixel()
	block := make([]byte, font.Rows()*font.Cols()*bpp)
	for i, coverageByte := range coverage {
		r := colorMerge(fg.R, bg.R, coverageByte)
		g := colorMerge(fg.G, bg.G, coverageByte)
		b := colorMerge(fg.B, bg.B, coverageByte)
		val := p.surface.Pack(r, g, b)
		putPixelBytes(block[i*bpp:(i+1)*bpp], val)
	}

	way := p.ways[slot]
	p.cache[slot][way] = glyphCacheEntry{valid: true, key: key, block: block}
	p.ways[slot] = (way + 1) % glyphCacheWays
	return block
}

// colorMerge implements spec.md §4.4's "Color mixing": out = bg +
// ((fg-bg) * coverage) >> 8, grounded in pad.c's COLORMERGE macro.
func colorMerge(fg, bg, coverage uint8) uint8 {
	return uint8(int(bg) + ((int(fg)-int(bg))*int(coverage))>>8)
}

// blit writes a cached glyph block into the pad's pixel subregion at
// (row, col) using the glyph's own font dimensions.
func (p *Pad) blit(row, col int, font *Font, block []byte) {
	bpp := p.surface.BytesPerPixel()
	fnrows, fncols := font.Rows(), font.Cols()
	sr := p.roff + row*fnrows
	sc := p.coff + col*fncols
	for r := 0; r < fnrows; r++ {
		dst := p.surface.RowPtr(sr + r)
		if dst == nil {
			continue
		}
		start := sc * bpp
		end := start + fncols*bpp
		if end > len(dst) {
			end = len(dst)
		}
		if start >= end {
			continue
		}
		copy(dst[start:end], block[r*fncols*bpp:r*fncols*bpp+(end-start)])
	}
}

// fillCell paints one character cell solid with bg — the path taken for
// whitespace/unprintable codepoints and font-lookup misses.
func (p *Pad) fillCell(row, col int, bg color.RGBA) {
	val := p.surface.Pack(bg.R, bg.G, bg.B)
	fnrows, fncols := p.regular.Rows(), p.regular.Cols()
	p.surface.fillBox(p.roff+row*fnrows, p.coff+col*fncols, p.roff+(row+1)*fnrows, p.coff+(col+1)*fncols, val)
}

// FillSpan implements Renderer's bulk blank-span path (spec.md §4.4
// "Bulk fill fast path"): a whole run of blank cells is painted with one
// fillBox call instead of one cell draw per column. No scratch row is kept;
// fillBox writes each pixel of the span individually.
func (p *Pad) FillSpan(row, colStart, colEnd int, bg Color, pal *Palette, defaultBG Color) {
	rgba := p.resolve(bg, pal, defaultBG, defaultBG)
	val := p.surface.Pack(rgba.R, rgba.G, rgba.B)
	fnrows, fncols := p.regular.Rows(), p.regular.Cols()
	sr := p.roff + row*fnrows
	sc := p.coff + colStart*fncols
	ec := p.coff + colEnd*fncols
	p.surface.fillBox(sr, sc, sr+fnrows, ec, val)
}

// DrawCursor implements Renderer by painting the cell at the cursor
// reverse-video (swap fg/bg), the simplest block-cursor rendering and the
// one the original's lock-screen/overlay paths also use.
func (p *Pad) DrawCursor(row, col int, cell Cell, pal *Palette, defaultFG, defaultBG Color) {
	swapped := cell
	swapped.Style = cell.Style.WithFg(cell.Style.Bg()).WithBg(cell.Style.Fg())
	p.PutCell(row, col, swapped, pal, defaultFG, defaultBG)
}

// Fill paints a rectangle of the cell grid; -1 for rowEnd/colEnd means
// "to the edge of the subregion" (spec.md §4.4).
func (p *Pad) Fill(rowStart, rowEnd, colStart, colEnd int, c color.RGBA) {
	if rowEnd < 0 {
		rowEnd = p.CharacterRows()
	}
	if colEnd < 0 {
		colEnd = p.CharacterCols()
	}
	val := p.surface.Pack(c.R, c.G, c.B)
	fnrows, fncols := p.regular.Rows(), p.regular.Cols()
	p.surface.fillBox(p.roff+rowStart*fnrows, p.coff+colStart*fncols, p.roff+rowEnd*fnrows, p.coff+colEnd*fncols, val)
}

// Border paints a frame of width pixels around the subregion. Requires
// roff>=width and coff>=width (spec.md §4.4).
func (p *Pad) Border(c color.RGBA, width int) error {
	if p.roff < width || p.coff < width {
		return ErrBorderTooThin
	}
	val := p.surface.Pack(c.R, c.G, c.B)
	sr, sc := p.roff-width, p.coff-width
	er, ec := p.roff+p.drows+width, p.coff+p.dcols+width
	p.surface.fillBox(sr, sc, er, p.coff, val)                 // left
	p.surface.fillBox(sr, p.coff+p.dcols, er, ec, val)         // right
	p.surface.fillBox(sr, sc, p.roff, ec, val)                 // top
	p.surface.fillBox(p.roff+p.drows, sc, er, ec, val)         // bottom
	return nil
}
