// Command fbpad runs the multiplexed virtual terminal directly against a
// Linux framebuffer device, with no windowing system involved (spec.md
// §1's scope: this binary owns the OS wiring — raw mode, VT signal
// handshake, argv parsing — and hands everything else to the fbpad
// package).
package main

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"

	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"fbpad"
)

const (
	vtGetMode = 0x5601
	vtSetMode = 0x5602

	kdSetMode  = 0x4b3a
	kdGraphics = 1
	kdText     = 0

	vtAuto    = 0
	vtProcess = 1
)

// vtMode mirrors struct vt_mode from linux/vt.h.
type vtMode struct {
	Mode   byte
	Waitv  byte
	Relsig int16
	Acqsig int16
	Frsig  int16
}

func vtIoctl(fd uintptr, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// vtIoctlArg issues an ioctl whose third argument is a plain scalar (e.g.
// KDSETMODE's KD_TEXT/KD_GRAPHICS) rather than a pointer.
func vtIoctlArg(fd uintptr, req uintptr, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fbpad:", err)
		os.Exit(1)
	}
}

func run() error {
	fbdev := os.Getenv("FRAMEBUFFER")
	if fbdev == "" {
		fbdev = "/dev/fb0"
	}
	configPath := os.Getenv("FBPAD_CONFIG")

	argv, subregion := parseArgs(os.Args[1:])

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	surface, err := fbpad.OpenSurface(fbdev, subregion)
	if err != nil {
		return err
	}
	defer surface.Close()

	mux, err := fbpad.NewMux(cfg, surface)
	if err != nil {
		return err
	}
	mux.SetConfigPath(configPath)

	restoreTerm, err := enterRawMode()
	if err != nil {
		return err
	}
	defer restoreTerm()

	vt, err := acquireVT()
	if err != nil {
		// Not every environment running fbpad owns a VT (a framebuffer
		// behind a remote display, for instance); degrade to running
		// without VT-switch signal handling rather than failing outright.
		vt = nil
	}
	if vt != nil {
		defer vt.release()
	}

	hideCursor()
	defer showCursor()

	if len(argv) > 0 {
		if err := mux.ExecCurrent(argv, false); err != nil {
			return err
		}
	}

	return mux.Run(int(os.Stdin.Fd()))
}

// parseArgs splits a leading "WxH+X+Y" subregion spec (spec.md §4.1's
// optional surface subregion) from the trailing argv to exec as the
// initial command, the two positional forms fbpad's original CLI accepts.
func parseArgs(args []string) (argv []string, subregion string) {
	i := 0
	if i < len(args) && isSubregionSpec(args[i]) {
		subregion = args[i]
		i++
	}
	if i < len(args) && args[i] == "--" {
		i++
	}
	return args[i:], subregion
}

// isSubregionSpec reports whether s parses as fbpad's "WxH+X+Y" optional
// surface subregion argument (spec.md §4.1).
func isSubregionSpec(s string) bool {
	var w, h, x, y int
	n, _ := fmt.Sscanf(s, "%dx%d+%d+%d", &w, &h, &x, &y)
	return n == 4
}

func loadConfig(path string) (*fbpad.Config, error) {
	if path == "" {
		return fbpad.DefaultConfig(), nil
	}
	return fbpad.LoadConfig(path)
}

// enterRawMode puts stdin into raw, non-blocking mode if it's a real
// terminal, returning a restore func. Grounded on kungfusheep-glyph's cmd/layoutpoc/live
// MakeRaw/Restore pairing, guarded by go-isatty the way dcosson/h2's
// client code checks before touching termios.
func enterRawMode() (func(), error) {
	fd := int(os.Stdin.Fd())
	if !isatty.IsTerminal(uintptr(fd)) {
		return func() {}, nil
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		term.Restore(fd, old)
		return nil, err
	}
	return func() {
		unix.SetNonblock(fd, false)
		term.Restore(fd, old)
	}, nil
}

func hideCursor() { os.Stdout.WriteString("\x1b[?25l") }
func showCursor()  { os.Stdout.WriteString("\x1b[?25h") }

// vtHandle owns the console fd fbpad negotiated VT_PROCESS mode on, so
// release() can hand control back to the kernel's default VT switching on
// exit (spec.md §4.7's "Signals" VT_SETMODE contract). The actual
// SIGUSR1/SIGUSR2 delivery is caught by fbpad.Mux's own signal bridge; this
// struct only owns the console fd and the ioctl state tied to it.
type vtHandle struct {
	f *os.File
}

// acquireVT opens the controlling console and asks the kernel to deliver
// SIGUSR1/SIGUSR2 around VT switches instead of silently remapping the
// framebuffer itself (spec.md §9 Design Notes: "fbpad's multiplexer
// acquires VT_PROCESS mode ... to control exactly when the surface is
// released/reacquired").
func acquireVT() (*vtHandle, error) {
	f, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	mode := vtMode{Mode: vtProcess, Relsig: int16(syscall.SIGUSR1), Acqsig: int16(syscall.SIGUSR2)}
	if err := vtIoctl(f.Fd(), vtSetMode, unsafe.Pointer(&mode)); err != nil {
		f.Close()
		return nil, err
	}
	if err := vtIoctlArg(f.Fd(), kdSetMode, kdGraphics); err != nil {
		f.Close()
		return nil, err
	}

	return &vtHandle{f: f}, nil
}

func (v *vtHandle) release() {
	auto := vtMode{Mode: vtAuto}
	vtIoctl(v.f.Fd(), vtSetMode, unsafe.Pointer(&auto))
	vtIoctlArg(v.f.Fd(), kdSetMode, kdText)
	v.f.Close()
}
