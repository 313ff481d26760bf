package layout

import "github.com/ByLCY/inkpaper/markup"

// stubMetrics 是测试用的等宽度量：正文 8px、粗体 10px、页眉 9/11px。
type stubMetrics struct{}

func (stubMetrics) Advance(style markup.Style, r rune) int {
	switch style {
	case markup.Bold, markup.BoldItalic:
		return 10
	case markup.Header:
		return 9
	case markup.HeaderBold:
		return 11
	default:
		return 8
	}
}

func (stubMetrics) LineHeight(style markup.Style) int {
	if style == markup.Header || style == markup.HeaderBold {
		return 24
	}
	return 20
}

func (stubMetrics) Ascent(style markup.Style) int {
	if style == markup.Header || style == markup.HeaderBold {
		return 18
	}
	return 15
}

func plainRuns(text string) []markup.Run {
	return markup.Parse(text, markup.DefaultOptions())
}
