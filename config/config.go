// Package config loads the panel description: size, colours, fonts per style
// and the named regions text is laid out into.
package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/inkpaper/fonts"
	"github.com/ByLCY/inkpaper/layout"
	"github.com/ByLCY/inkpaper/markup"
)

// Config is the root configuration.
type Config struct {
	Panel       Panel             `toml:"panel" yaml:"panel"`
	Colors      Colors            `toml:"colors" yaml:"colors"`
	FontDir     string            `toml:"font_dir" yaml:"font_dir"`
	Fonts       map[string]Font   `toml:"fonts" yaml:"fonts"` // 键为样式名：plain、bold、header ...
	LineSpacing float64           `toml:"line_spacing" yaml:"line_spacing"`
	Fallback    string            `toml:"fallback" yaml:"fallback"`
	ExtraChars  string            `toml:"extra_chars" yaml:"extra_chars"`
	Regions     map[string]Region `toml:"regions" yaml:"regions"`
	Batch       Batch             `toml:"batch" yaml:"batch"`
}

// Panel describes the physical display.
type Panel struct {
	Width        int     `toml:"width" yaml:"width"`
	Height       int     `toml:"height" yaml:"height"`
	DPI          float64 `toml:"dpi" yaml:"dpi"`
	Rotate       int     `toml:"rotate" yaml:"rotate"`               // 预览输出的旋转角度
	PreviewScale int     `toml:"preview_scale" yaml:"preview_scale"` // 预览输出的放大倍数
}

// Colors holds #rrggbb values.
type Colors struct {
	Background string `toml:"background" yaml:"background"`
	Base       string `toml:"base" yaml:"base"`
	Accent     string `toml:"accent" yaml:"accent"`
}

// Font is one style's face; Size accepts px/pt/mm/in ("20px", "15pt").
type Font struct {
	Src  string `toml:"src" yaml:"src"`
	Size string `toml:"size" yaml:"size"`
}

// Region is a rectangle of the panel text is laid out into.
type Region struct {
	X      int    `toml:"x" yaml:"x"`
	Y      int    `toml:"y" yaml:"y"`
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
	Align  string `toml:"align" yaml:"align"`
	Style  string `toml:"style" yaml:"style"` // 未加标签文本的默认样式
}

// Batch configures the CSV batch generator.
type Batch struct {
	Workers int `toml:"workers" yaml:"workers"`
}

// 默认区域名。
const (
	RegionHeader      = "header"
	RegionDescription = "description"
)

// Default 返回 4.2 寸 400x300 三色面板的配置。
func Default() *Config {
	specs := fonts.DefaultSpecs()
	fs := make(map[string]Font, len(specs))
	for style, spec := range specs {
		fs[style.String()] = Font{Src: spec.Src, Size: fmt.Sprintf("%gpx", spec.Size)}
	}
	return &Config{
		Panel:       Panel{Width: 400, Height: 300, DPI: 119},
		Colors:      Colors{Background: "#ffffff", Base: "#000000", Accent: "#ff0000"},
		Fonts:       fs,
		LineSpacing: 1.2,
		Fallback:    "?",
		Regions: map[string]Region{
			RegionHeader:      {X: 15, Y: 10, Width: 370, Height: 25, Style: "header"},
			RegionDescription: {X: 15, Y: 100, Width: 370, Height: 200},
		},
		Batch: Batch{Workers: 4},
	}
}

// Load 按扩展名解析 TOML 或 YAML，覆盖在默认配置之上并校验。
// 相对的 font_dir 以配置文件所在目录为基准。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析 TOML 配置失败: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析 YAML 配置失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的配置格式: %s", path)
	}
	if cfg.FontDir == "" {
		cfg.FontDir = filepath.Dir(path)
	} else if !filepath.IsAbs(cfg.FontDir) {
		cfg.FontDir = filepath.Join(filepath.Dir(path), cfg.FontDir)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查尺寸、颜色、字体与区域的合法性。
func (c *Config) Validate() error {
	if c.Panel.Width <= 0 || c.Panel.Height <= 0 {
		return fmt.Errorf("面板尺寸无效: %dx%d", c.Panel.Width, c.Panel.Height)
	}
	if c.Panel.DPI <= 0 {
		return fmt.Errorf("面板 dpi 必须为正数")
	}
	switch c.Panel.Rotate {
	case 0, 90, 180, 270:
	default:
		return fmt.Errorf("不支持的旋转角度 %d", c.Panel.Rotate)
	}
	for name, v := range map[string]string{"background": c.Colors.Background, "base": c.Colors.Base, "accent": c.Colors.Accent} {
		if _, err := markup.ParseColor(v); err != nil {
			return fmt.Errorf("colors.%s: %w", name, err)
		}
	}
	hasPlain := false
	for name, f := range c.Fonts {
		style, ok := markup.ParseStyle(name)
		if !ok {
			return fmt.Errorf("fonts.%s: 未知的样式", name)
		}
		hasPlain = hasPlain || style == markup.Plain
		if f.Src == "" {
			return fmt.Errorf("fonts.%s: 缺少 src", name)
		}
		if fonts.IsBitmap(f.Src) {
			continue
		}
		if _, err := layout.ParseLength(f.Size); err != nil {
			return fmt.Errorf("fonts.%s.size: %w", name, err)
		}
	}
	if !hasPlain {
		return fmt.Errorf("fonts 缺少 plain 样式")
	}
	if utf8.RuneCountInString(c.Fallback) > 1 {
		return fmt.Errorf("fallback 只能是单个字符: %q", c.Fallback)
	}
	for _, name := range c.RegionNames() {
		r := c.Regions[name]
		if r.Width <= 0 || r.Height <= 0 {
			return fmt.Errorf("区域 %s 尺寸无效", name)
		}
		if r.X < 0 || r.Y < 0 || r.X+r.Width > c.Panel.Width || r.Y+r.Height > c.Panel.Height {
			return fmt.Errorf("区域 %s 超出面板范围", name)
		}
		if _, ok := layout.ParseAlign(r.Align); !ok {
			return fmt.Errorf("区域 %s: 未知的对齐方式 %q", name, r.Align)
		}
		if r.Style != "" {
			if _, ok := markup.ParseStyle(r.Style); !ok {
				return fmt.Errorf("区域 %s: 未知的样式 %q", name, r.Style)
			}
		}
	}
	return nil
}

// RegionNames 按名称排序返回所有区域。
func (c *Config) RegionNames() []string {
	names := make([]string, 0, len(c.Regions))
	for name := range c.Regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Region 查找命名区域。
func (c *Config) Region(name string) (Region, bool) {
	r, ok := c.Regions[name]
	return r, ok
}

// FontSet 按配置加载字体集合，字号换算为面板像素。
func (c *Config) FontSet() (*fonts.Set, error) {
	specs := make(map[markup.Style]fonts.FaceSpec, len(c.Fonts))
	for name, f := range c.Fonts {
		style, ok := markup.ParseStyle(name)
		if !ok {
			return nil, fmt.Errorf("fonts.%s: 未知的样式", name)
		}
		spec := fonts.FaceSpec{Src: f.Src}
		if !fonts.IsBitmap(f.Src) {
			l, err := layout.ParseLength(f.Size)
			if err != nil {
				return nil, fmt.Errorf("fonts.%s.size: %w", name, err)
			}
			spec.Size = l.Pixels(c.Panel.DPI)
		}
		specs[style] = spec
	}
	var fallback rune
	if c.Fallback != "" {
		fallback, _ = utf8.DecodeRuneInString(c.Fallback)
	}
	return fonts.New(specs, fonts.Options{
		BaseDir:     c.FontDir,
		LineSpacing: c.LineSpacing,
		Fallback:    fallback,
		ExtraChars:  c.ExtraChars,
	})
}

// MarkupOptions 返回使用配置颜色的解析选项；style 为空时默认 plain。
func (c *Config) MarkupOptions(style string) markup.Options {
	opts := markup.DefaultOptions()
	if s, ok := markup.ParseStyle(style); ok && style != "" {
		opts.DefaultStyle = s
	}
	if col, err := markup.ParseColor(c.Colors.Base); err == nil {
		opts.BaseColor = col
	}
	if col, err := markup.ParseColor(c.Colors.Accent); err == nil {
		opts.AccentColor = col
	}
	return opts
}

// LayoutOptions 返回命名区域的排版参数。
func (c *Config) LayoutOptions(name string, m layout.Metrics) (layout.Options, error) {
	r, ok := c.Regions[name]
	if !ok {
		return layout.Options{}, fmt.Errorf("未知的区域 %q", name)
	}
	align, _ := layout.ParseAlign(r.Align)
	return layout.Options{
		Metrics: m,
		Width:   r.Width,
		Height:  r.Height,
		Align:   align,
		Markup:  c.MarkupOptions(r.Style),
	}, nil
}

// Background 返回面板背景色。
func (c *Config) Background() markup.Color {
	col, err := markup.ParseColor(c.Colors.Background)
	if err != nil {
		return markup.White
	}
	return col
}

// Palette 返回光栅输出的调色板：背景、正文色、强调色。
func (c *Config) Palette() color.Palette {
	opts := c.MarkupOptions("")
	return color.Palette{c.Background(), opts.BaseColor, opts.AccentColor}
}
