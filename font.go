package fbpad

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
)

// Font is the C2 bitmap font store: a sorted codepoint table plus 8-bit
// coverage bitmaps, loaded from either of two on-disk formats (spec.md
// §4.2).
type Font struct {
	rows, cols int
	codepoints []int32
	glyphs     [][]byte // one rows*cols coverage slice per codepoint, same order
}

var (
	tinyfontMagic = [8]byte{'t', 'i', 'n', 'y', 'f', 'o', 'n', 't'}
	psf2Magic     = [4]byte{0x72, 0xb5, 0x4a, 0x86}
)

// OpenFont autodetects and parses a tinyfont or PSF2 file.
func OpenFont(path string) (*Font, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFontOpen, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	magic, err := r.Peek(8)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFontOpen, err)
	}

	switch {
	case string(magic[:8]) == string(tinyfontMagic[:]):
		return parseTinyfont(r)
	case magic[0] == psf2Magic[0] && magic[1] == psf2Magic[1] && magic[2] == psf2Magic[2] && magic[3] == psf2Magic[3]:
		return parsePSF2(r)
	default:
		return nil, fmt.Errorf("%w: unrecognized font format", ErrFontOpen)
	}
}

func parseTinyfont(r *bufio.Reader) (*Font, error) {
	var hdr struct {
		Magic   [8]byte
		Version uint32
		N       uint32
		Rows    uint32
		Cols    uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: tinyfont header: %v", ErrFontOpen, err)
	}
	if hdr.Version != 0 {
		return nil, fmt.Errorf("%w: unsupported tinyfont version %d", ErrFontOpen, hdr.Version)
	}

	n := int(hdr.N)
	f := &Font{rows: int(hdr.Rows), cols: int(hdr.Cols)}
	f.codepoints = make([]int32, n)
	if err := binary.Read(r, binary.LittleEndian, &f.codepoints); err != nil {
		return nil, fmt.Errorf("%w: tinyfont codepoints: %v", ErrFontOpen, err)
	}

	glyphSize := f.rows * f.cols
	f.glyphs = make([][]byte, n)
	for i := 0; i < n; i++ {
		buf := make([]byte, glyphSize)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("%w: tinyfont glyph %d: %v", ErrFontOpen, i, err)
		}
		f.glyphs[i] = buf
	}
	return f, nil
}

func parsePSF2(r *bufio.Reader) (*Font, error) {
	var hdr struct {
		Magic       [4]byte
		Version     uint32
		HeaderSize  uint32
		Flags       uint32
		Length      uint32
		CharSize    uint32
		Height      uint32
		Width       uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: psf2 header: %v", ErrFontOpen, err)
	}

	rowBytes := (int(hdr.Width) + 7) / 8
	n := int(hdr.Length)
	rawGlyphs := make([][]byte, n)
	for i := 0; i < n; i++ {
		buf := make([]byte, hdr.CharSize)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("%w: psf2 glyph %d: %v", ErrFontOpen, i, err)
		}
		rawGlyphs[i] = unpackPSF2Glyph(buf, int(hdr.Height), int(hdr.Width), rowBytes)
	}

	f := &Font{rows: int(hdr.Height), cols: int(hdr.Width)}

	if hdr.Flags&1 == 0 {
		f.codepoints = make([]int32, n)
		for i := range f.codepoints {
			f.codepoints[i] = int32(i)
		}
		f.glyphs = rawGlyphs
		return f, nil
	}

	// Unicode table: for each glyph, a UTF-8 sequence of codepoints it maps
	// to, terminated by 0xFF. We take the first codepoint per glyph (the
	// rest are combining-sequence aliases this engine has no use for), then
	// re-sort codepoint/glyph pairs together (spec.md §4.2).
	type pair struct {
		cp    int32
		glyph []byte
	}
	pairs := make([]pair, 0, n)
	for i := 0; i < n; i++ {
		cp, err := readPSF2UnicodeEntry(r)
		if err != nil {
			return nil, fmt.Errorf("%w: psf2 unicode table: %v", ErrFontOpen, err)
		}
		if cp >= 0 {
			pairs = append(pairs, pair{cp: cp, glyph: rawGlyphs[i]})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].cp < pairs[j].cp })
	f.codepoints = make([]int32, len(pairs))
	f.glyphs = make([][]byte, len(pairs))
	for i, p := range pairs {
		f.codepoints[i] = p.cp
		f.glyphs[i] = p.glyph
	}
	return f, nil
}

// unpackPSF2Glyph expands a 1-bit packed, row-padded-to-bytes glyph into
// an 8-bit coverage bitmap (0 or 255 per pixel) matching the tinyfont
// format's in-memory representation, so Font.Lookup is format-agnostic.
func unpackPSF2Glyph(packed []byte, rows, cols, rowBytes int) []byte {
	out := make([]byte, rows*cols)
	for r := 0; r < rows; r++ {
		row := packed[r*rowBytes : (r+1)*rowBytes]
		for c := 0; c < cols; c++ {
			byteIdx := c / 8
			bitIdx := 7 - uint(c%8)
			if byteIdx < len(row) && row[byteIdx]&(1<<bitIdx) != 0 {
				out[r*cols+c] = 255
			}
		}
	}
	return out
}

// readPSF2UnicodeEntry reads one glyph's UTF-8 codepoint sequence from the
// PSF2 unicode table, returning its first codepoint (or -1 if the
// sequence is empty before the 0xFF terminator).
func readPSF2UnicodeEntry(r *bufio.Reader) (int32, error) {
	first := int32(-1)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if b == 0xff {
			return first, nil
		}
		if first >= 0 {
			continue
		}
		switch {
		case b < 0x80:
			first = int32(b)
		case b&0xe0 == 0xc0:
			b2, err := r.ReadByte()
			if err != nil {
				return 0, err
			}
			first = int32(b&0x1f)<<6 | int32(b2&0x3f)
		case b&0xf0 == 0xe0:
			rest := make([]byte, 2)
			if _, err := io.ReadFull(r, rest); err != nil {
				return 0, err
			}
			first = int32(b&0x0f)<<12 | int32(rest[0]&0x3f)<<6 | int32(rest[1]&0x3f)
		case b&0xf8 == 0xf0:
			rest := make([]byte, 3)
			if _, err := io.ReadFull(r, rest); err != nil {
				return 0, err
			}
			first = int32(b&0x07)<<18 | int32(rest[0]&0x3f)<<12 | int32(rest[1]&0x3f)<<6 | int32(rest[2]&0x3f)
		}
	}
}

func (f *Font) Rows() int { return f.rows }
func (f *Font) Cols() int { return f.cols }

// Lookup binary-searches the sorted codepoint table and returns the
// glyph's coverage bitmap, or ok=false on a miss (spec.md §4.2).
func (f *Font) Lookup(cp rune) (coverage []byte, ok bool) {
	target := int32(cp)
	i := sort.Search(len(f.codepoints), func(i int) bool { return f.codepoints[i] >= target })
	if i < len(f.codepoints) && f.codepoints[i] == target {
		return f.glyphs[i], true
	}
	return nil, false
}
