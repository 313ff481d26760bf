package layout

import "github.com/ByLCY/inkpaper/markup"

// Options 配置一次排版调用：区域尺寸、字体度量与对齐方式。
type Options struct {
	Metrics Metrics
	Width   int
	Height  int
	Align   Align
	Markup  markup.Options // 零值时使用 markup.DefaultOptions()
}

// Metrics 提供按样式区分的字形度量。
// 对相同的输入必须始终返回相同的结果，实现方在加载后不得再修改内部状态。
type Metrics interface {
	// LineHeight 返回该样式一行占用的像素高度（含行距）。
	LineHeight(style markup.Style) int
	// Advance 返回字符的水平步进宽度；不支持的字符返回后备字形的宽度。
	Advance(style markup.Style, r rune) int
	// Ascent 返回基线到行顶部的距离。
	Ascent(style markup.Style) int
}

func (o Options) markupOptions() markup.Options {
	if o.Markup == (markup.Options{}) {
		return markup.DefaultOptions()
	}
	return o.Markup
}
