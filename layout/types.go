package layout

import (
	"strings"

	"github.com/ByLCY/inkpaper/markup"
)

// 该文件定义排版结果与容量估算的数据结构，供排版、渲染与调试 JSON 共用。
// 所有坐标与尺寸均为像素，原点为区域左上角。

// Result 保存裁剪后的行以及截断信息。
type Result struct {
	Lines     []Line `json:"lines"`
	Truncated bool   `json:"truncated"`
	Height    int    `json:"height"`   // 已占用的总高度，始终 <= 区域高度
	Width     int    `json:"width"`    // 最宽一行的宽度
	Overflow  int    `json:"overflow"` // 被裁掉的行数
}

// Line 表示折行后的一行：若干已定位的文本段。
type Line struct {
	Segments   []Segment `json:"segments"`
	Y          int       `json:"y"`        // 行顶部相对区域顶部的偏移
	Width      int       `json:"width"`    // 各段宽度之和（不含对齐偏移）
	Height     int       `json:"height"`   // 行内最高字体的行高
	Baseline   int       `json:"baseline"` // 基线相对行顶部的偏移
	Hyphenated bool      `json:"hyphenated,omitempty"`
}

// Segment 是一行中的一个样式段，X 为相对区域左边的绝对偏移（已包含对齐）。
type Segment struct {
	markup.Run
	X     int `json:"x"`
	Width int `json:"width"`
}

// Text 返回该行的纯文本内容。
func (l Line) Text() string {
	var b strings.Builder
	for _, seg := range l.Segments {
		b.WriteString(seg.Text)
	}
	return b.String()
}

// Capacity 是内容生成前使用的容量估算。
type Capacity struct {
	CharsPerLine   int     `json:"chars_per_line"`
	LinesAvailable int     `json:"lines_available"`
	TotalCapacity  int     `json:"total_capacity"`
	AverageAdvance float64 `json:"average_advance"`
	LineHeight     int     `json:"line_height"`
}

// Measurement 汇总一段叙述文本的排版度量，供生成端判断是否溢出。
type Measurement struct {
	MaxLineWidth    int  `json:"text_width_px"`
	Height          int  `json:"text_height_px"` // 未裁剪时的总高度
	LineCount       int  `json:"line_count"`
	Fits            bool `json:"fits_display"`
	CharCount       int  `json:"char_count"`
	OverflowLines   int  `json:"overflow_lines"`
	MaxLinesThatFit int  `json:"max_lines_that_fit"`
}

// Align 指定行在区域内的水平对齐方式。
type Align int

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
)

// ParseAlign 支持 start/left、center/middle、end/right。
func ParseAlign(v string) (Align, bool) {
	switch v {
	case "", "start", "left":
		return AlignStart, true
	case "center", "middle":
		return AlignCenter, true
	case "end", "right":
		return AlignEnd, true
	}
	return AlignStart, false
}

func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignEnd:
		return "end"
	default:
		return "start"
	}
}

// Field 是页眉行中的一个字段。
type Field struct {
	Markup string
	Align  Align
}
