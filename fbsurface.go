package fbpad

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Framebuffer ioctl numbers from linux/fb.h. golang.org/x/sys/unix has no
// typed wrappers for these (they're not part of its generic termios/
// socket surface), so we carry the raw magic numbers the way every
// fbdev-facing Go program in the wild does.
const (
	fbioGetVScreenInfo = 0x4600
	fbioPutVScreenInfo = 0x4601
	fbioGetFScreenInfo = 0x4602
	fbioPutCmap        = 0x4605

	fbVisualTrueColor = 2
)

// fbBitfield mirrors struct fb_bitfield.
type fbBitfield struct {
	Offset, Length, MSBRight uint32
}

// fbVarScreenInfo mirrors the fields of struct fb_var_screeninfo this
// package actually reads or writes. The kernel ignores trailing fields it
// doesn't recognize from a partially-populated buffer only if we size and
// order the struct exactly like the kernel's; we keep the full layout up
// through the reserved tail to stay ABI-compatible.
type fbVarScreenInfo struct {
	XRes, YRes             uint32
	XResVirtual, YResVirtual uint32
	XOffset, YOffset       uint32
	BitsPerPixel           uint32
	Grayscale              uint32
	Red, Green, Blue, Transp fbBitfield
	Nonstd                 uint32
	Activate               uint32
	Height, Width          uint32
	AccelFlags             uint32
	PixClock               uint32
	LeftMargin, RightMargin uint32
	UpperMargin, LowerMargin uint32
	HSyncLen, VSyncLen     uint32
	Sync                   uint32
	Vmode                  uint32
	Rotate                 uint32
	ColorSpace             uint32
	Reserved               [4]uint32
}

// fbFixScreenInfo mirrors the leading fields of struct fb_fix_screeninfo
// this package needs.
type fbFixScreenInfo struct {
	ID           [16]byte
	SmemStart    uint64
	SmemLen      uint32
	Type         uint32
	TypeAux      uint32
	Visual       uint32
	XPanStep     uint16
	YPanStep     uint16
	YWrapStep    uint16
	LineLength   uint32
	MMIOStart    uint64
	MMIOLen      uint32
	Accel        uint32
	Capabilities uint16
	Reserved     [2]uint16
}

func fbIoctl(fd uintptr, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// Surface is the C1 framebuffer surface: an mmap'd /dev/fb0 region, with
// enter()/leave() re-asserting mode and color map across VT switches
// (spec.md §2's C1 contract).
type Surface struct {
	dev    *os.File
	device string
	mem    []byte
	vi     fbVarScreenInfo
	fi     fbFixScreenInfo
	bpp    int
	rows   int
	cols   int

	savedCmap bool
}

// OpenSurface opens and maps the given framebuffer device (e.g.
// "/dev/fb0"). A non-empty subregion "WxH+X+Y" clips rows()/cols() and
// offsets row_ptr without touching xoffset/yoffset beyond what the
// kernel already reports, mirroring the original's optional subregion
// support.
func OpenSurface(device string, subregion string) (*Surface, error) {
	f, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSurfaceInit, err)
	}
	s := &Surface{dev: f, device: device}

	if err := fbIoctl(f.Fd(), fbioGetVScreenInfo, unsafe.Pointer(&s.vi)); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: get vscreeninfo: %v", ErrSurfaceInit, err)
	}
	if err := fbIoctl(f.Fd(), fbioGetFScreenInfo, unsafe.Pointer(&s.fi)); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: get fscreeninfo: %v", ErrSurfaceInit, err)
	}

	s.bpp = int(s.vi.BitsPerPixel+7) / 8
	s.rows = int(s.vi.YResVirtual)
	s.cols = int(s.vi.XResVirtual)
	if ox, oy, w, h, ok := parseSubregion(subregion); ok {
		s.vi.XOffset += uint32(ox)
		s.vi.YOffset += uint32(oy)
		s.rows = h
		s.cols = w
	}

	length := int(s.vi.XResVirtual) * int(s.vi.YResVirtual) * s.bpp
	mem, err := unix.Mmap(int(f.Fd()), 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: mmap: %v", ErrSurfaceInit, err)
	}
	s.mem = mem

	s.installCmap()
	return s, nil
}

func parseSubregion(spec string) (x, y, w, h int, ok bool) {
	if spec == "" {
		return 0, 0, 0, 0, false
	}
	var signX, signY byte = '+', '+'
	n, _ := fmt.Sscanf(spec, "%dx%d%c%d%c%d", &w, &h, &signX, &x, &signY, &y)
	if n < 2 {
		return 0, 0, 0, 0, false
	}
	if signX == '-' {
		x = -x
	}
	if signY == '-' {
		y = -y
	}
	return x, y, w, h, true
}

func (s *Surface) Close() error {
	unix.Munmap(s.mem)
	return s.dev.Close()
}

// Bytes exposes the raw mapped framebuffer memory, for C5's whole-surface
// snapshot/restore (spec.md §4.5); nothing else in this package reads pixels
// back out of the surface, so this stays a narrow, explicit escape hatch
// rather than a general accessor.
func (s *Surface) Bytes() []byte { return s.mem }

func (s *Surface) Rows() int           { return s.rows }
func (s *Surface) Cols() int           { return s.cols }
func (s *Surface) BytesPerPixel() int  { return s.bpp }

// Device returns the path the surface was opened against (spec.md §6's
// "FBDEV=<device>:WxH+X+Y" export needs the real device, not a placeholder).
func (s *Surface) Device() string { return s.device }

// Pack converts an 8-bit RGB triple to a raw pixel value using the
// reported channel shifts/widths (draw.c: fb_color).
func (s *Surface) Pack(r, g, b uint8) uint32 {
	return packChannel(&s.vi.Red, r) | packChannel(&s.vi.Green, g) | packChannel(&s.vi.Blue, b)
}

func packChannel(bf *fbBitfield, v uint8) uint32 {
	if bf.Length >= 8 {
		return uint32(v) << (bf.Length - 8) << bf.Offset
	}
	return (uint32(v) >> (8 - bf.Length)) << bf.Offset
}

// RowPtr returns the mutable byte slice for one drawable row within the
// surface's subregion, offset by bytes_per_pixel*x and yoffset*line
// (draw.c: fb_put/rowaddr).
func (s *Surface) RowPtr(row int) []byte {
	off := int(s.vi.YOffset+uint32(row)) * int(s.fi.LineLength)
	xoff := int(s.vi.XOffset) * s.bpp
	end := off + xoff + s.cols*s.bpp
	if off+xoff < 0 || end > len(s.mem) {
		return nil
	}
	return s.mem[off+xoff : end]
}

// PutPixel writes one pixel at (row, col) within the surface subregion.
func (s *Surface) PutPixel(row, col int, val uint32) {
	row_ := s.RowPtr(row)
	if row_ == nil || col < 0 || col*s.bpp+s.bpp > len(row_) {
		return
	}
	putPixelBytes(row_[col*s.bpp:col*s.bpp+s.bpp], val)
}

func putPixelBytes(dst []byte, val uint32) {
	switch len(dst) {
	case 1:
		dst[0] = byte(val)
	case 2:
		dst[0], dst[1] = byte(val), byte(val>>8)
	case 3:
		dst[0], dst[1], dst[2] = byte(val), byte(val>>8), byte(val>>16)
	case 4:
		dst[0], dst[1], dst[2], dst[3] = byte(val), byte(val>>8), byte(val>>16), byte(val>>24)
	}
}

// Scroll moves nr rows starting at sr by n rows (positive = down,
// negative = up), filling the vacated band with val (draw.c: fb_scroll).
func (s *Surface) Scroll(sr, nr, n int, val uint32) {
	rowBytes := int(s.fi.LineLength)
	base := int(s.vi.YOffset) * rowBytes
	src := base + sr*rowBytes
	dst := base + (sr+n)*rowBytes
	length := nr * rowBytes
	if src < 0 || dst < 0 || src+length > len(s.mem) || dst+length > len(s.mem) {
		return
	}
	copy(s.mem[dst:dst+length], s.mem[src:src+length])

	if n > 0 {
		s.fillBox(sr, 0, sr+n, s.cols, val)
	} else {
		s.fillBox(sr+nr+n, 0, sr+nr, s.cols, val)
	}
}

func (s *Surface) fillBox(sr, sc, er, ec int, val uint32) {
	for r := sr; r < er; r++ {
		for c := sc; c < ec; c++ {
			s.PutPixel(r, c, val)
		}
	}
}

// installCmap installs a linear per-channel colormap for non-truecolor
// visuals (draw.c: fb_cmap). Truecolor visuals need no palette.
func (s *Surface) installCmap() {
	if s.fi.Visual == fbVisualTrueColor {
		return
	}
	mr := 1 << s.vi.Red.Length
	mg := 1 << s.vi.Green.Length
	mb := 1 << s.vi.Blue.Length
	n := mr
	if mg > n {
		n = mg
	}
	if mb > n {
		n = mb
	}
	red := make([]uint16, n)
	green := make([]uint16, n)
	blue := make([]uint16, n)
	for i := 0; i < mr; i++ {
		red[i] = uint16((i * 0xffff) / (mr - 1))
	}
	for i := 0; i < mg; i++ {
		green[i] = uint16((i * 0xffff) / (mg - 1))
	}
	for i := 0; i < mb; i++ {
		blue[i] = uint16((i * 0xffff) / (mb - 1))
	}
	cmap := struct {
		Start, Len            uint32
		Red, Green, Blue, Tr *uint16
	}{Start: 0, Len: uint32(n), Red: &red[0], Green: &green[0], Blue: &blue[0]}
	fbIoctl(s.dev.Fd(), fbioPutCmap, unsafe.Pointer(&cmap))
	s.savedCmap = true
}

// Enter re-asserts var-screen-info and, for non-truecolor visuals,
// reinstalls the color map — called after a VT_RELDISP acquire (spec.md
// §4.7.1 SIGUSR2 handling).
func (s *Surface) Enter() error {
	if err := fbIoctl(s.dev.Fd(), fbioPutVScreenInfo, unsafe.Pointer(&s.vi)); err != nil {
		return err
	}
	s.installCmap()
	return nil
}

// Leave is a no-op placeholder for symmetry with Enter; the original
// restores the console's previous color map on VT release, which on
// Linux the kernel itself handles once control returns to the text
// console, so there is nothing further for userspace to undo here.
func (s *Surface) Leave() {}
