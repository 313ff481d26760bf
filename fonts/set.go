package fonts

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/inkpaper/layout"
	"github.com/ByLCY/inkpaper/markup"
)

// typographic 是 Latin-1 之外默认支持的排版标点。
const typographic = "–—‘’‚“”„…•′″€"

// FaceSpec 描述某个样式使用的字体来源与像素字号。
type FaceSpec struct {
	Src  string
	Size float64 // px；位图字体忽略
}

// Options 配置字体集合的加载方式。
type Options struct {
	BaseDir     string
	LineSpacing float64 // 行高 = ceil(字体高度 * LineSpacing)，<=0 时取 1
	Fallback    rune    // 不支持的字符按该字形测量与绘制，0 时取 '?'
	ExtraChars  string  // 额外声明为支持的字符
}

// Set 是按样式加载的一组字体，实现 layout.Metrics。
//
// 字宽表在加载时一次算好，之后只读，因此度量查询无需加锁；
// opentype 字体面内部带有缓冲区，绘制字形时需要串行化。
type Set struct {
	faces    map[markup.Style]*face
	fallback rune

	drawMu sync.Mutex
}

var _ layout.Metrics = (*Set)(nil)

type face struct {
	spec       FaceSpec
	data       []byte
	face       font.Face
	advances   map[rune]int
	fallback   int
	lineHeight int
	ascent     int
}

// New 加载每个样式的字体。缺少的样式（Plain 除外）回退到 Plain 的字体面。
func New(specs map[markup.Style]FaceSpec, opts Options) (*Set, error) {
	if _, ok := specs[markup.Plain]; !ok {
		return nil, fmt.Errorf("缺少 %s 样式的字体", markup.Plain)
	}
	if opts.LineSpacing <= 0 {
		opts.LineSpacing = 1
	}
	if opts.Fallback == 0 {
		opts.Fallback = '?'
	}
	s := &Set{faces: make(map[markup.Style]*face, len(specs)), fallback: opts.Fallback}
	cache := map[FaceSpec]*face{}
	for _, style := range markup.Styles {
		spec, ok := specs[style]
		if !ok {
			continue
		}
		if f, ok := cache[spec]; ok {
			s.faces[style] = f
			continue
		}
		f, err := loadFace(spec, opts)
		if err != nil {
			return nil, fmt.Errorf("加载 %s 样式字体失败: %w", style, err)
		}
		cache[spec] = f
		s.faces[style] = f
	}
	return s, nil
}

// Basic 返回所有样式都使用 7x13 位图字体的集合，不依赖任何字体文件。
func Basic(lineSpacing float64) *Set {
	s, err := New(map[markup.Style]FaceSpec{markup.Plain: {Src: "basic:7x13"}}, Options{LineSpacing: lineSpacing})
	if err != nil {
		panic(err)
	}
	return s
}

// DefaultSpecs 使用内置 Go 字体，正文 20px，与 400x300 面板的描述区域匹配。
func DefaultSpecs() map[markup.Style]FaceSpec {
	return map[markup.Style]FaceSpec{
		markup.Plain:      {Src: "go:regular", Size: 20},
		markup.Bold:       {Src: "go:bold", Size: 20},
		markup.Italic:     {Src: "go:italic", Size: 20},
		markup.BoldItalic: {Src: "go:bolditalic", Size: 20},
		markup.Header:     {Src: "go:medium", Size: 20},
		markup.HeaderBold: {Src: "go:bold", Size: 20},
	}
}

func loadFace(spec FaceSpec, opts Options) (*face, error) {
	f := &face{spec: spec}
	var supports func(rune) bool

	if IsBitmap(spec.Src) {
		bf, err := bitmapFace(spec.Src)
		if err != nil {
			return nil, err
		}
		f.face = bf
		supports = func(r rune) bool {
			for _, rng := range bf.Ranges {
				if r >= rng.Low && r < rng.High {
					return true
				}
			}
			return false
		}
	} else {
		if spec.Size <= 0 {
			return nil, fmt.Errorf("字体 %s 的字号必须为正数", spec.Src)
		}
		data, err := Load(spec.Src, opts.BaseDir)
		if err != nil {
			return nil, err
		}
		parsed, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("解析字体 %s 失败: %w", spec.Src, err)
		}
		// DPI 72 时 1pt == 1px，Size 直接作为像素字号
		ff, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: spec.Size, DPI: 72, Hinting: font.HintingFull})
		if err != nil {
			return nil, fmt.Errorf("创建字体面 %s 失败: %w", spec.Src, err)
		}
		f.data = data
		f.face = ff
		var buf sfnt.Buffer
		supports = func(r rune) bool {
			idx, err := parsed.GlyphIndex(&buf, r)
			return err == nil && idx != 0
		}
	}

	f.advances = map[rune]int{}
	for _, r := range charset(opts.ExtraChars) {
		if !supports(r) {
			continue
		}
		if adv, ok := f.face.GlyphAdvance(r); ok {
			f.advances[r] = adv.Round()
		}
	}

	m := f.face.Metrics()
	height := m.Height.Ceil()
	f.lineHeight = int(math.Ceil(float64(height) * opts.LineSpacing))
	f.ascent = m.Ascent.Ceil()

	if w, ok := f.advances[opts.Fallback]; ok {
		f.fallback = w
	} else if w, ok := f.advances['?']; ok {
		f.fallback = w
	} else {
		f.fallback = height / 2
	}
	return f, nil
}

func bitmapFace(src string) (*basicfont.Face, error) {
	switch src {
	case "basic:7x13":
		return basicfont.Face7x13, nil
	}
	return nil, fmt.Errorf("未知的位图字体 %s", src)
}

// charset 返回需要预先测量的字符：Latin-1 可打印字符、常用排版标点与额外字符。
func charset(extra string) []rune {
	var out []rune
	for r := rune(0x20); r <= 0x7e; r++ {
		out = append(out, r)
	}
	for r := rune(0xa0); r <= 0xff; r++ {
		out = append(out, r)
	}
	out = append(out, []rune(typographic)...)
	return append(out, []rune(extra)...)
}

func (s *Set) lookup(style markup.Style) *face {
	if f, ok := s.faces[style]; ok {
		return f
	}
	return s.faces[markup.Plain]
}

// LineHeight 实现 layout.Metrics。
func (s *Set) LineHeight(style markup.Style) int { return s.lookup(style).lineHeight }

// Ascent 实现 layout.Metrics。
func (s *Set) Ascent(style markup.Style) int { return s.lookup(style).ascent }

// Advance 实现 layout.Metrics；不支持的字符返回后备字形的宽度。
func (s *Set) Advance(style markup.Style, r rune) int {
	f := s.lookup(style)
	if w, ok := f.advances[r]; ok {
		return w
	}
	return f.fallback
}

// Supports 报告该样式的字体是否直接支持 r。
func (s *Set) Supports(style markup.Style, r rune) bool {
	_, ok := s.lookup(style).advances[r]
	return ok
}

// Spec 返回该样式实际使用的字体描述。
func (s *Set) Spec(style markup.Style) FaceSpec { return s.lookup(style).spec }

// Data 返回该样式字体的 TTF 数据，位图字体返回 nil。
func (s *Set) Data(style markup.Style) []byte { return s.lookup(style).data }

// DrawRun 从 (x, baseline) 开始逐字绘制 text，返回结束时的 x。
// 每个字符按 Advance 步进，与排版时的测量完全一致；不支持的字符绘制为后备字形。
func (s *Set) DrawRun(dst draw.Image, style markup.Style, text string, x, baseline int, src image.Image) int {
	f := s.lookup(style)
	s.drawMu.Lock()
	defer s.drawMu.Unlock()

	d := font.Drawer{Dst: dst, Src: src, Face: f.face}
	for _, r := range text {
		adv, ok := f.advances[r]
		if !ok {
			r, adv = s.fallback, f.fallback
		}
		d.Dot = fixed.P(x, baseline)
		d.DrawString(string(r))
		x += adv
	}
	return x
}
