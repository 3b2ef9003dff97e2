package fbpad

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the C8 configuration surface (spec.md §4.8): an opaque runtime
// configuration consumed only through accessor methods by C4/C6/C7, loaded
// from YAML the way dcosson/h2's internal/config.Config is — a typed struct
// unmarshalled with gopkg.in/yaml.v3 — since spec.md scopes the on-disk
// format out but names the shape of the accessor surface explicitly.
type Config struct {
	raw rawConfig

	fg      color.RGBA
	bg      color.RGBA
	palette [16]color.RGBA

	cursorFG, cursorBG       Color
	hasCursorFG, hasCursorBG bool

	borderColor color.RGBA
}

// rawConfig is the literal YAML shape; hex color strings and the command
// table are decoded into Config's resolved fields by resolve().
type rawConfig struct {
	Tags          string            `yaml:"tags"`
	SavedTags     string            `yaml:"saved_tags"`
	Foreground    string            `yaml:"foreground"`
	Background    string            `yaml:"background"`
	Palette16     []string          `yaml:"palette16"`
	CursorFG      string            `yaml:"cursor_fg"`
	CursorBG      string            `yaml:"cursor_bg"`
	BorderColor   string            `yaml:"border_color"`
	BorderWidth   int               `yaml:"border_width"`
	TermName      string            `yaml:"term_name"`
	ScreenshotPath string           `yaml:"screenshot_path"`
	FontRegular   string            `yaml:"font_regular"`
	FontItalic    string            `yaml:"font_italic"`
	FontBold      string            `yaml:"font_bold"`
	FontRegularAlt string           `yaml:"font_regular_alt"`
	FontItalicAlt  string           `yaml:"font_italic_alt"`
	FontBoldAlt    string           `yaml:"font_bold_alt"`
	Password      string            `yaml:"password"`
	QuitKey       string            `yaml:"quit_key"`
	BoldBrightens bool              `yaml:"bold_brightens"`
	Commands      map[string][]string `yaml:"commands"`
}

// defaultTags/defaultSavedTags match the original's conf.h defaults (digits
// 1-9 plus 0, none saved by default).
const (
	defaultTags      = "1234567890"
	defaultQuitKey   = "q"
	defaultTermName  = "fbpad"
	defaultBorderWidth = 2
)

// DefaultConfig returns a Config usable with no on-disk file at all,
// mirroring LoadFrom's "file absent → empty-but-usable" behavior.
func DefaultConfig() *Config {
	c := &Config{raw: rawConfig{
		Tags:        defaultTags,
		TermName:    defaultTermName,
		BorderWidth: defaultBorderWidth,
		QuitKey:     defaultQuitKey,
	}}
	c.resolve()
	return c
}

// LoadConfig reads a YAML config file. A missing file is not an error — it
// resolves to DefaultConfig(), the same "absent config is fine" contract
// dcosson/h2's config.LoadFrom uses.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("fbpad: read config: %w", err)
	}
	c := &Config{}
	if err := yaml.Unmarshal(data, &c.raw); err != nil {
		return nil, fmt.Errorf("fbpad: parse config: %w", err)
	}
	if c.raw.Tags == "" {
		c.raw.Tags = defaultTags
	}
	if c.raw.TermName == "" {
		c.raw.TermName = defaultTermName
	}
	if c.raw.BorderWidth == 0 {
		c.raw.BorderWidth = defaultBorderWidth
	}
	if c.raw.QuitKey == "" {
		c.raw.QuitKey = defaultQuitKey
	}
	c.resolve()
	return c, nil
}

// resolve parses every hex-color / table field once at load time so hot-path
// accessors never touch strings.
func (c *Config) resolve() {
	c.fg = parseHexColor(c.raw.Foreground, DefaultForeground)
	c.bg = parseHexColor(c.raw.Background, DefaultBackground)

	for i := range c.palette {
		if i < len(c.raw.Palette16) {
			c.palette[i] = parseHexColor(c.raw.Palette16[i], DefaultPalette16[i])
		} else {
			c.palette[i] = DefaultPalette16[i]
		}
	}

	if c.raw.CursorFG != "" {
		rgba := parseHexColor(c.raw.CursorFG, color.RGBA{})
		c.cursorFG, c.hasCursorFG = rgbaToColor(rgba), true
	}
	if c.raw.CursorBG != "" {
		rgba := parseHexColor(c.raw.CursorBG, color.RGBA{})
		c.cursorBG, c.hasCursorBG = rgbaToColor(rgba), true
	}
	c.borderColor = parseHexColor(c.raw.BorderColor, color.RGBA{R: 80, G: 80, B: 200, A: 255})
}

func rgbaToColor(rgba color.RGBA) Color {
	return TrueColor12(rgba.R, rgba.G, rgba.B)
}

// parseHexColor accepts "#rrggbb" or "rrggbb"; anything else falls back to
// def, matching spec.md §7's "degrade gracefully" posture for bad config.
func parseHexColor(s string, def color.RGBA) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return def
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return def
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

// Tags returns the configured tag-character string (one character per
// logical workspace, spec.md §3/§4.8). NTAGS is len([]rune(Tags())).
func (c *Config) Tags() string { return c.raw.Tags }

// SavedTags returns the subset of Tags whose terminals get pixel snapshots
// on hide (spec.md §4.8).
func (c *Config) SavedTags() string { return c.raw.SavedTags }

// IsSavedTag reports whether tag is in SavedTags.
func (c *Config) IsSavedTag(tag rune) bool {
	return strings.ContainsRune(c.raw.SavedTags, tag)
}

// Foreground/Background are the default 24-bit text colors.
func (c *Config) Foreground() color.RGBA { return c.fg }
func (c *Config) Background() color.RGBA { return c.bg }

// Palette16 returns the 16 base colors backing the 256-color cube (spec.md
// §4.8).
func (c *Config) Palette16() [16]color.RGBA { return c.palette }

// CursorColors returns the configured cursor fg/bg, or ok=false meaning
// "use swapped cell colors" (spec.md §4.8: "negative = use swapped cell
// colors").
func (c *Config) CursorColors() (fg, bg Color, ok bool) {
	return c.cursorFG, c.cursorBG, c.hasCursorFG && c.hasCursorBG
}

// BorderColor/BorderWidth describe the split-screen divider (spec.md §4.7).
func (c *Config) BorderColor() color.RGBA { return c.borderColor }
func (c *Config) BorderWidth() int        { return c.raw.BorderWidth }

// TermName is the TERM value exported to children (spec.md §6).
func (c *Config) TermName() string { return c.raw.TermName }

// ScreenshotPath is where the 's' command (spec.md §4.7.2) writes its dump.
func (c *Config) ScreenshotPath() string { return c.raw.ScreenshotPath }

// FontPaths returns the primary regular/italic/bold font paths (spec.md
// §4.4 "init(regular, italic, bold)"); italic/bold may be empty.
func (c *Config) FontPaths() (regular, italic, bold string) {
	return c.raw.FontRegular, c.raw.FontItalic, c.raw.FontBold
}

// AltFontPaths returns the alternate font set toggled by Ctrl-F (SUPPLEMENTED
// FEATURES #4).
func (c *Config) AltFontPaths() (regular, italic, bold string) {
	return c.raw.FontRegularAlt, c.raw.FontItalicAlt, c.raw.FontBoldAlt
}

// Password is the lock-screen cleartext password (spec.md §4.7.2).
func (c *Config) Password() string { return c.raw.Password }

// QuitKey is the byte compared against during confirm-quit (spec.md §4.7.2).
func (c *Config) QuitKey() byte {
	if len(c.raw.QuitKey) == 0 {
		return 'q'
	}
	return c.raw.QuitKey[0]
}

// BoldBrightens reports whether bold text with an 8-color foreground
// brightens to the 8-15 range (SUPPLEMENTED FEATURES #2, conf_brighten).
func (c *Config) BoldBrightens() bool { return c.raw.BoldBrightens }

// builtinCommands is the static fallback table conf.c's cmdtab provides when
// no config entry overrides a command key (SUPPLEMENTED FEATURES #3).
var builtinCommands = map[byte][]string{
	'c': {"sh"},
	';': {"sh"},
	'm': {"mail"},
	'e': {"vi"},
}

// Command returns the argv for a command key, preferring the config table
// and falling back to the built-in table (spec.md §4.8 "command key →
// argv", SUPPLEMENTED FEATURES #3).
func (c *Config) Command(key byte) []string {
	if argv, ok := c.raw.Commands[string(key)]; ok {
		return argv
	}
	return builtinCommands[key]
}
