package layout

import "github.com/ByLCY/inkpaper/markup"

// capacitySample 用于求代表字体的平均字宽。
const capacitySample = "abcdefghijklmnopqrstuvwxyz"

// EstimateCapacity 估算宽 width、高 height 的区域能容纳多少普通字符。
//
// 只使用 Plain 样式的度量：粗体、页眉字体通常更宽，这里有意忽略，
// 估算值是保守的上限参考，而不是精确保证。参数非正或度量退化时返回 0。
func EstimateCapacity(m Metrics, width, height int) Capacity {
	sampleWidth := 0
	n := 0
	for _, r := range capacitySample {
		sampleWidth += m.Advance(markup.Plain, r)
		n++
	}
	lineHeight := m.LineHeight(markup.Plain)

	c := Capacity{LineHeight: lineHeight}
	if sampleWidth > 0 {
		c.AverageAdvance = float64(sampleWidth) / float64(n)
	}
	// floor(width / (sampleWidth/n))，整数运算避免浮点误差
	if width > 0 && sampleWidth > 0 {
		c.CharsPerLine = width * n / sampleWidth
	}
	if height > 0 && lineHeight > 0 {
		c.LinesAvailable = height / lineHeight
	}
	c.TotalCapacity = c.CharsPerLine * c.LinesAvailable
	return c
}

// Capacity 按 Options 中的区域尺寸估算容量。
func (o Options) Capacity() Capacity {
	if o.Metrics == nil {
		return Capacity{}
	}
	return EstimateCapacity(o.Metrics, o.Width, o.Height)
}
