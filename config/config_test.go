package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ByLCY/inkpaper/layout"
	"github.com/ByLCY/inkpaper/markup"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	r, ok := cfg.Region(RegionDescription)
	if !ok || r.Y != 100 || r.Height != 200 {
		t.Fatalf("unexpected description region: %+v", r)
	}
	if got := cfg.RegionNames(); strings.Join(got, ",") != "description,header" {
		t.Fatalf("region names = %v", got)
	}
}

func TestLoadTOMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "panel.toml", `
line_spacing = 1.0

[colors]
accent = "#c00"

[regions.footer]
x = 0
y = 280
width = 400
height = 20
align = "center"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Panel.Width != 400 || cfg.LineSpacing != 1.0 {
		t.Fatalf("defaults not kept or override missing: %+v", cfg.Panel)
	}
	footer, ok := cfg.Region("footer")
	if !ok || footer.Align != "center" || footer.Y != 280 {
		t.Fatalf("footer region = %+v, %v", footer, ok)
	}
	if cfg.MarkupOptions("").AccentColor != (markup.Color{R: 0xcc}) {
		t.Fatalf("accent colour not applied")
	}
	if cfg.FontDir != filepath.Dir(path) {
		t.Fatalf("font dir should default to the config directory, got %s", cfg.FontDir)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "panel.yaml", `
panel:
  width: 296
  height: 128
  dpi: 112
regions:
  header:
    x: 0
    y: 0
    width: 296
    height: 20
    style: header
  description:
    x: 0
    y: 24
    width: 296
    height: 104
fonts:
  plain:
    src: basic:7x13
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Panel.Width != 296 || cfg.Panel.DPI != 112 {
		t.Fatalf("panel = %+v", cfg.Panel)
	}
	set, err := cfg.FontSet()
	if err != nil {
		t.Fatalf("FontSet error: %v", err)
	}
	if set.Advance(markup.Plain, 'a') != 7 {
		t.Fatalf("plain face should be the bitmap font")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad.ini": "x = 1",
		"outside.toml": `
[regions.description]
x = 0
y = 250
width = 400
height = 100
`,
		"color.toml": `
[colors]
base = "black"
`,
		"align.toml": `
[regions.header]
x = 0
y = 0
width = 10
height = 10
align = "justify"
`,
		"size.toml": `
[fonts.plain]
src = "go:regular"
size = "big"
`,
		"syntax.yaml": "panel: [",
	}
	for name, content := range cases {
		if _, err := Load(writeFile(t, name, content)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestFontSetConvertsSizes(t *testing.T) {
	cfg := Default()
	cfg.Panel.DPI = 144
	cfg.Fonts = map[string]Font{
		"plain": {Src: "go:regular", Size: "10pt"},
		"bold":  {Src: "go:bold", Size: "20px"},
	}
	set, err := cfg.FontSet()
	if err != nil {
		t.Fatalf("FontSet error: %v", err)
	}
	if got := set.Spec(markup.Plain).Size; math.Abs(got-20) > 1e-9 {
		t.Fatalf("10pt at 144dpi should be 20px, got %v", got)
	}
	if set.Spec(markup.Header).Src != "go:regular" {
		t.Fatalf("missing styles should fall back to plain")
	}
}

func TestLayoutOptions(t *testing.T) {
	cfg := Default()
	cfg.Regions["header"] = Region{Width: 370, Height: 25, Align: "right", Style: "hb"}
	opts, err := cfg.LayoutOptions("header", nil)
	if err != nil {
		t.Fatalf("LayoutOptions error: %v", err)
	}
	if opts.Width != 370 || opts.Align != layout.AlignEnd || opts.Markup.DefaultStyle != markup.HeaderBold {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if _, err := cfg.LayoutOptions("nope", nil); err == nil {
		t.Fatalf("expected error for unknown region")
	}
	if p := cfg.Palette(); len(p) != 3 || p[0] != markup.White || p[2] != markup.Red {
		t.Fatalf("palette = %v", p)
	}
}
