package fbpad

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// debugCellW/H size each grid cell in the debug PNG; basicfont.Face7x13's
// glyphs are 7x13, so cells are padded slightly for visual separation.
const (
	debugCellW = 8
	debugCellH = 14
)

// WriteDebugImage rasterizes the terminal's current grid to a PNG at path
// using a built-in bitmap font, independent of whatever Font the live pad
// is using. This is a supplemental debug aid (spec.md's screenshot(t,path)
// stays a plain text dump, §4.6.1) for comparing what the engine thinks the
// grid holds against what the framebuffer actually shows.
func (t *Terminal) WriteDebugImage(path string) error {
	rows, cols := t.grid.Rows(), t.grid.Cols()
	img := image.NewRGBA(image.Rect(0, 0, cols*debugCellW, rows*debugCellH))

	pal := t.palette
	bgDefault := ResolveColor(t.bg, pal, DefaultForeground, DefaultBackground)
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bgDefault}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cell := t.grid.Cell(r, c)
			if cell.IsContinuation() {
				continue
			}
			fg := ResolveColor(cell.Style.Fg(), pal, t.fgRGBA(), t.bgRGBA())
			bg := ResolveColor(cell.Style.Bg(), pal, t.fgRGBA(), t.bgRGBA())
			cellRect := image.Rect(c*debugCellW, r*debugCellH, (c+1)*debugCellW, (r+1)*debugCellH)
			draw.Draw(img, cellRect, &image.Uniform{C: bg}, image.Point{}, draw.Src)

			if cell.IsEmpty() {
				continue
			}
			drawer := &font.Drawer{
				Dst:  img,
				Src:  &image.Uniform{C: fg},
				Face: face,
				Dot:  fixed.P(c*debugCellW, r*debugCellH+11),
			}
			drawer.DrawString(string(cell.Rune()))
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func (t *Terminal) fgRGBA() color.RGBA { return ResolveColor(t.fg, t.palette, DefaultForeground, DefaultBackground) }
func (t *Terminal) bgRGBA() color.RGBA { return ResolveColor(t.bg, t.palette, DefaultForeground, DefaultBackground) }
