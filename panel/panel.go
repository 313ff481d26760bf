// Package panel ties a configuration to its fonts and renderers and composes
// the configured regions into a full-panel frame.
package panel

import (
	"fmt"

	"github.com/ByLCY/inkpaper/config"
	"github.com/ByLCY/inkpaper/fonts"
	"github.com/ByLCY/inkpaper/layout"
	"github.com/ByLCY/inkpaper/renderer"
	canvasrenderer "github.com/ByLCY/inkpaper/renderer/canvas"
	"github.com/ByLCY/inkpaper/renderer/raster"
)

// Panel 是加载好字体的面板配置。
type Panel struct {
	cfg *config.Config
	set *fonts.Set
}

// New 按配置加载字体。
func New(cfg *config.Config) (*Panel, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	set, err := cfg.FontSet()
	if err != nil {
		return nil, fmt.Errorf("加载字体失败: %w", err)
	}
	return &Panel{cfg: cfg, set: set}, nil
}

// WithFonts 使用已有的字体集合，通常用于测试。
func WithFonts(cfg *config.Config, set *fonts.Set) *Panel {
	return &Panel{cfg: cfg, set: set}
}

func (p *Panel) Config() *config.Config { return p.cfg }
func (p *Panel) Fonts() *fonts.Set      { return p.set }

// Options 返回命名区域的排版参数。
func (p *Panel) Options(region string) (layout.Options, error) {
	return p.cfg.LayoutOptions(region, p.set)
}

// Layout 在命名区域内排版 text。
func (p *Panel) Layout(region, text string) (*layout.Result, error) {
	opts, err := p.Options(region)
	if err != nil {
		return nil, err
	}
	return layout.Build(text, opts)
}

// Capacity 估算命名区域的容量。
func (p *Panel) Capacity(region string) (layout.Capacity, error) {
	opts, err := p.Options(region)
	if err != nil {
		return layout.Capacity{}, err
	}
	return opts.Capacity(), nil
}

// Measure 返回 text 在命名区域内的排版度量。
func (p *Panel) Measure(region, text string) (layout.Measurement, error) {
	opts, err := p.Options(region)
	if err != nil {
		return layout.Measurement{}, err
	}
	return layout.Measure(text, opts)
}

// Frame 把各区域的内容排版后放到面板上。content 的键为区域名；
// header 为非空时按页眉行（左、中、右三个字段）排版到 header 区域。
func (p *Panel) Frame(content map[string]string, header []layout.Field) (renderer.Frame, error) {
	frame := renderer.Frame{Width: p.cfg.Panel.Width, Height: p.cfg.Panel.Height, Background: p.cfg.Background()}
	if len(header) > 0 {
		opts, err := p.Options(config.RegionHeader)
		if err != nil {
			return frame, err
		}
		res, err := layout.Row(header, opts)
		if err != nil {
			return frame, err
		}
		r, _ := p.cfg.Region(config.RegionHeader)
		frame.Add(r.X, r.Y, res)
	}
	for _, name := range p.cfg.RegionNames() {
		text, ok := content[name]
		if !ok {
			continue
		}
		res, err := p.Layout(name, text)
		if err != nil {
			return frame, err
		}
		r, _ := p.cfg.Region(name)
		frame.Add(r.X, r.Y, res)
	}
	return frame, nil
}

// Raster 返回按配置调色板与预览变换的 PNG 渲染器。
func (p *Panel) Raster() (*raster.Renderer, error) {
	return raster.NewRenderer(p.set, raster.Options{
		Palette: p.cfg.Palette(),
		Rotate:  p.cfg.Panel.Rotate,
		Scale:   p.cfg.Panel.PreviewScale,
	})
}

// PDF 返回矢量预览渲染器。
func (p *Panel) PDF(title string) *canvasrenderer.Renderer {
	return canvasrenderer.NewRenderer(p.set, canvasrenderer.Options{
		DPI:  p.cfg.Panel.DPI,
		Meta: canvasrenderer.Meta{Title: title, Creator: "inkpaper"},
	})
}

// NarrativeRenderer 返回把叙述排入描述区域并输出整块面板图像的函数，供批量渲染使用。
func (p *Panel) NarrativeRenderer(r renderer.Renderer) func(string) ([]byte, error) {
	return func(text string) ([]byte, error) {
		frame, err := p.Frame(map[string]string{config.RegionDescription: text}, nil)
		if err != nil {
			return nil, err
		}
		return r.RenderFrame(frame)
	}
}
