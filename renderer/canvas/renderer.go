package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/inkpaper/fonts"
	"github.com/ByLCY/inkpaper/layout"
	"github.com/ByLCY/inkpaper/markup"
	"github.com/ByLCY/inkpaper/renderer"
)

// Renderer draws layout results as a vector PDF via github.com/tdewolff/canvas.
//
// 一个面板像素对应 PDF 中 25.4/DPI 毫米。文本段按排版给出的 X 与基线逐段绘制，
// 段内字距由 canvas 负责，因此与光栅输出只保证段的起点一致。
type Renderer struct {
	set  *fonts.Set
	dpi  float64
	meta Meta

	fontMu         sync.Mutex
	fontFamilies   map[markup.Style]*canvas.FontFamily
	fallbackFamily *canvas.FontFamily
}

var _ renderer.Renderer = (*Renderer)(nil)

// Meta 写入 PDF 文档信息。
type Meta struct {
	Title   string
	Subject string
	Creator string
}

// Options configures the canvas renderer.
type Options struct {
	DPI  float64 // 面板像素密度，<=0 时取 96
	Meta Meta
}

// NewRenderer 创建 PDF 预览渲染器，字体取自 set。
func NewRenderer(set *fonts.Set, opts Options) *Renderer {
	if opts.DPI <= 0 {
		opts.DPI = 96
	}
	return &Renderer{
		set:          set,
		dpi:          opts.DPI,
		meta:         opts.Meta,
		fontFamilies: map[markup.Style]*canvas.FontFamily{},
	}
}

// Render renders a single region into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	return r.RenderFrame(renderer.Single(result))
}

// RenderFrame renders the whole panel as one PDF page.
func (r *Renderer) RenderFrame(frame renderer.Frame) ([]byte, error) {
	if r.set == nil {
		return nil, fmt.Errorf("缺少字体集合")
	}
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, fmt.Errorf("面板尺寸无效: %dx%d", frame.Width, frame.Height)
	}
	width, height := r.mm(frame.Width), r.mm(frame.Height)

	var buf bytes.Buffer
	writer := pdf.New(&buf, width, height, nil)
	writer.SetInfo(r.meta.Title, r.meta.Subject, "", "", r.meta.Creator)

	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

	ctx.SetFillColor(colorFromMarkup(frame.Background))
	ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	ctx.DrawPath(0, 0, canvas.Rectangle(width, height))

	for _, b := range frame.Blocks {
		if err := r.drawResult(ctx, b); err != nil {
			return nil, err
		}
	}
	c.RenderTo(writer)

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawResult(ctx *canvas.Context, b renderer.Block) error {
	if b.Result == nil {
		return nil
	}
	for _, ln := range b.Result.Lines {
		baseline := r.mm(b.Y + ln.Y + ln.Baseline)
		for _, seg := range ln.Segments {
			face, err := r.fontFace(seg.Style, seg.Color)
			if err != nil {
				return err
			}
			textLine := canvas.NewTextLine(face, seg.Text, canvas.Left)
			ctx.DrawText(r.mm(b.X+seg.X), baseline, textLine)
		}
	}
	return nil
}

// fontFace 以字体的像素字号换算出 pt 字号；位图字体按行高近似。
func (r *Renderer) fontFace(style markup.Style, col markup.Color) (*canvas.FontFace, error) {
	family, err := r.ensureFontFamily(style)
	if err != nil {
		return nil, err
	}
	sizePx := r.set.Spec(style).Size
	if sizePx <= 0 {
		sizePx = float64(r.set.Ascent(style))
	}
	sizePt := layout.PxToMm(sizePx, r.dpi) * layout.MmToPt
	return family.Face(sizePt, colorFromMarkup(col), canvas.FontRegular, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(style markup.Style) (*canvas.FontFamily, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if family, ok := r.fontFamilies[style]; ok {
		return family, nil
	}
	data := r.set.Data(style)
	if data == nil {
		family, err := r.fallback()
		if err != nil {
			return nil, err
		}
		r.fontFamilies[style] = family
		return family, nil
	}
	family := canvas.NewFontFamily("inkpaper-" + style.String())
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		fallback, fbErr := r.fallback()
		if fbErr != nil {
			return nil, fmt.Errorf("加载 %s 字体失败: %w", style, err)
		}
		family = fallback
	}
	r.fontFamilies[style] = family
	return family, nil
}

// fallback 在位图字体或字体加载失败时使用内置 Go Regular。调用方持有 fontMu。
func (r *Renderer) fallback() (*canvas.FontFamily, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, nil
	}
	data, err := fonts.Load("go:regular", "")
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily("inkpaper-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, err
	}
	r.fallbackFamily = family
	return family, nil
}

func colorFromMarkup(c markup.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// mm 将面板像素换算为毫米。
func (r *Renderer) mm(px int) float64 { return layout.PxToMm(float64(px), r.dpi) }
