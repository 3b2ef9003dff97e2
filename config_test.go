package fbpad

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.Tags() != defaultTags {
		t.Fatalf("got tags %q, want %q", c.Tags(), defaultTags)
	}
	if c.QuitKey() != 'q' {
		t.Fatalf("got quit key %q, want 'q'", c.QuitKey())
	}
	if c.BorderWidth() != defaultBorderWidth {
		t.Fatalf("got border width %d, want %d", c.BorderWidth(), defaultBorderWidth)
	}
}

func TestLoadConfigMissingFileFallsBackToDefault(t *testing.T) {
	c, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing config file should not error, got %v", err)
	}
	if c.Tags() != defaultTags {
		t.Fatalf("got tags %q, want default", c.Tags())
	}
}

func TestLoadConfigParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fbpad.yaml")
	yaml := `
tags: "abc"
saved_tags: "a"
border_width: 3
quit_key: "x"
bold_brightens: true
foreground: "#ff0000"
commands:
  c: ["bash"]
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Tags() != "abc" {
		t.Fatalf("got tags %q, want abc", c.Tags())
	}
	if !c.IsSavedTag('a') || c.IsSavedTag('b') {
		t.Fatal("saved_tags not applied correctly")
	}
	if c.BorderWidth() != 3 {
		t.Fatalf("got border width %d, want 3", c.BorderWidth())
	}
	if c.QuitKey() != 'x' {
		t.Fatalf("got quit key %q, want x", c.QuitKey())
	}
	if !c.BoldBrightens() {
		t.Fatal("bold_brightens not applied")
	}
	if got := c.Foreground(); got.R != 0xff || got.G != 0 || got.B != 0 {
		t.Fatalf("got foreground %+v, want red", got)
	}
	if argv := c.Command('c'); len(argv) != 1 || argv[0] != "bash" {
		t.Fatalf("got command %v, want [bash]", argv)
	}
}

func TestConfigCommandFallsBackToBuiltin(t *testing.T) {
	c := DefaultConfig()
	argv := c.Command('c')
	if len(argv) != 1 || argv[0] != "sh" {
		t.Fatalf("got %v, want built-in [sh]", argv)
	}
	if c.Command('z') != nil {
		t.Fatal("expected nil argv for unknown command key")
	}
}

func TestParseHexColorFallback(t *testing.T) {
	def := DefaultForeground
	if got := parseHexColor("not-a-color", def); got != def {
		t.Fatalf("got %+v, want fallback %+v", got, def)
	}
	if got := parseHexColor("#00ff00", def); got.G != 0xff {
		t.Fatalf("got %+v, want green channel 0xff", got)
	}
}

func TestCursorColorsDefaultToUnset(t *testing.T) {
	c := DefaultConfig()
	if _, _, ok := c.CursorColors(); ok {
		t.Fatal("expected no cursor color override by default")
	}
}
