// Package fbpad implements a multiplexed VT102/ECMA-48 virtual terminal
// that renders directly to a Linux framebuffer device, with no windowing
// system involved. A single process owns the framebuffer, a set of bitmap
// fonts, and up to two terminal sessions per tag; keyboard commands switch
// between tags, split a tag's screen between two sessions, and lock or
// screenshot the display.
//
// The package is organized around the pipeline a VT102 emulator actually
// runs: bytes from a child's pty are parsed into cursor motion and cell
// writes (Terminal, parser.go, csi.go, sgr.go), cell writes are rasterized
// against a Font's glyph bitmaps into a Surface's pixels (Pad), and a Mux
// schedules which of several Terminals currently owns the one visible Pad.
// None of these layers know about the others' existence beyond the
// Renderer interface Pad implements for Terminal — Terminal never touches
// pixels, and Pad never touches a pty.
package fbpad
