// Package raster paints layout results onto a tri-colour paletted image, the
// same way the panel firmware does: one glyph at a time at the computed X.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/ByLCY/inkpaper/fonts"
	"github.com/ByLCY/inkpaper/layout"
	"github.com/ByLCY/inkpaper/markup"
	"github.com/ByLCY/inkpaper/renderer"
)

// Options configures the raster renderer.
type Options struct {
	// Palette 为面板可显示的颜色，为空时使用白/黑/红三色。
	Palette color.Palette
	// Rotate 为预览输出的顺时针旋转角度，只支持 0/90/180/270。
	Rotate int
	// Scale 为预览输出的整数放大倍数（最近邻），<=1 时不放大。
	Scale int
}

// Renderer draws layout results with a fonts.Set.
type Renderer struct {
	fonts   *fonts.Set
	palette color.Palette
	rotate  int
	scale   int
}

var _ renderer.Renderer = (*Renderer)(nil)

// DefaultPalette 是三色墨水屏的调色板，下标 0 为白色背景。
func DefaultPalette() color.Palette {
	return color.Palette{markup.White, markup.Black, markup.Red}
}

// NewRenderer 创建光栅渲染器。
func NewRenderer(set *fonts.Set, opts Options) (*Renderer, error) {
	if set == nil {
		return nil, fmt.Errorf("raster: 缺少字体集合")
	}
	switch opts.Rotate {
	case 0, 90, 180, 270:
	default:
		return nil, fmt.Errorf("raster: 不支持的旋转角度 %d", opts.Rotate)
	}
	p := opts.Palette
	if len(p) == 0 {
		p = DefaultPalette()
	}
	return &Renderer{fonts: set, palette: p, rotate: opts.Rotate, scale: opts.Scale}, nil
}

// Render 将单个区域编码为 PNG。
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	return r.RenderFrame(renderer.Single(result))
}

// RenderFrame 合成整块面板并编码为 PNG。
func (r *Renderer) RenderFrame(frame renderer.Frame) ([]byte, error) {
	img, err := r.Image(frame)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, r.transform(img), imaging.PNG); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// Image 返回未旋转、未缩放的面板图像，与硬件帧缓冲逐像素一致。
func (r *Renderer) Image(frame renderer.Frame) (*image.Paletted, error) {
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, fmt.Errorf("面板尺寸无效: %dx%d", frame.Width, frame.Height)
	}
	img := image.NewPaletted(image.Rect(0, 0, frame.Width, frame.Height), r.palette)
	draw.Draw(img, img.Bounds(), image.NewUniform(frame.Background), image.Point{}, draw.Src)
	for _, b := range frame.Blocks {
		r.Paint(img, b.Result, image.Pt(b.X, b.Y))
	}
	return img, nil
}

// Paint 把 result 绘制到 dst 中以 origin 为左上角的区域。
// 每个文本段从其 X 开始逐字绘制，步进与排版测量一致。
func (r *Renderer) Paint(dst draw.Image, result *layout.Result, origin image.Point) {
	if result == nil {
		return
	}
	for _, ln := range result.Lines {
		baseline := origin.Y + ln.Y + ln.Baseline
		for _, seg := range ln.Segments {
			src := image.NewUniform(seg.Color)
			r.fonts.DrawRun(dst, seg.Style, seg.Text, origin.X+seg.X, baseline, src)
		}
	}
}

func (r *Renderer) transform(img image.Image) image.Image {
	if r.rotate == 0 && r.scale <= 1 {
		return img
	}
	var out image.Image = img
	// imaging 的旋转为逆时针
	switch r.rotate {
	case 90:
		out = imaging.Rotate270(out)
	case 180:
		out = imaging.Rotate180(out)
	case 270:
		out = imaging.Rotate90(out)
	}
	if r.scale > 1 {
		b := out.Bounds()
		out = imaging.Resize(out, b.Dx()*r.scale, b.Dy()*r.scale, imaging.NearestNeighbor)
	}
	return out
}
