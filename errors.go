package fbpad

import "errors"

// Sentinel errors returned by the init-time and runtime-degrade paths
// described in spec.md §7. Nothing below this layer is propagated to the
// user as a modal error once the main loop is running; callers either
// check these at startup (surface/font open) or ignore them and let the
// documented degrade-gracefully behavior take over (snapshot miss, font
// miss).
var (
	// ErrSurfaceInit is returned by Surface implementations when the
	// framebuffer device cannot be opened, queried, or mapped.
	ErrSurfaceInit = errors.New("fbpad: framebuffer surface initialization failed")

	// ErrFontOpen is returned when a font file cannot be parsed as either
	// supported format (tinyfont or PSF2).
	ErrFontOpen = errors.New("fbpad: font file open failed")

	// ErrGlyphMiss names a font lookup miss. Font.Lookup does not return
	// it; it reports a miss with ok=false, and Pad.PutCell then fills the
	// cell with the background.
	ErrGlyphMiss = errors.New("fbpad: codepoint not found in font")

	// ErrNoSnapshot is returned by SnapshotStore.Load when no snapshot was
	// ever taken for the given index; callers fall back to a full redraw.
	ErrNoSnapshot = errors.New("fbpad: no snapshot for index")

	// ErrBorderTooThin is returned by Pad.Border when the pad's offset is
	// smaller than the requested border width on either axis.
	ErrBorderTooThin = errors.New("fbpad: border width exceeds pad offset")

	// ErrPTYFailed is returned by Terminal.Exec when the pty/fork setup
	// fails before a child is launched.
	ErrPTYFailed = errors.New("fbpad: failed to create pty")
)
