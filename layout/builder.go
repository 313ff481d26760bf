package layout

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/ByLCY/inkpaper/markup"
)

// Build 串联解析、折行、裁剪与对齐，得到可直接绘制的排版结果。
// 任何输入文本与区域尺寸都会得到可用结果，只有缺少 Metrics 这类配置错误才返回 error。
func Build(text string, opts Options) (*Result, error) {
	if opts.Metrics == nil {
		return nil, fmt.Errorf("layout: 缺少字体度量 Metrics")
	}
	runs := markup.Parse(text, opts.markupOptions())
	lines := Wrap(runs, opts.Metrics, opts.Width)
	res := Clip(lines, opts.Height)
	res.Lines = alignLines(res.Lines, opts.Width, opts.Align)
	return &res, nil
}

// Row 将多个字段排在同一行（页眉），每个字段按自身的对齐方式定位。
// 字段超出一行的部分被丢弃并标记 Truncated；行高超过区域高度时返回空结果。
func Row(fields []Field, opts Options) (*Result, error) {
	if opts.Metrics == nil {
		return nil, fmt.Errorf("layout: 缺少字体度量 Metrics")
	}
	var (
		row       Line
		truncated bool
		overflow  int
	)
	mo := opts.markupOptions()
	for _, f := range fields {
		lines := Wrap(markup.Parse(f.Markup, mo), opts.Metrics, opts.Width)
		if len(lines) == 0 {
			continue
		}
		if len(lines) > 1 {
			truncated = true
			overflow += len(lines) - 1
		}
		first := lines[0]
		offset := alignOffset(opts.Width, first.Width, f.Align)
		for _, seg := range first.Segments {
			seg.X += offset
			row.Segments = append(row.Segments, seg)
			if right := seg.X + seg.Width; right > row.Width {
				row.Width = right
			}
		}
		if first.Height > row.Height {
			row.Height = first.Height
		}
		if first.Baseline > row.Baseline {
			row.Baseline = first.Baseline
		}
	}
	if len(row.Segments) == 0 {
		return &Result{Lines: []Line{}, Truncated: truncated, Overflow: overflow}, nil
	}
	sort.SliceStable(row.Segments, func(i, j int) bool { return row.Segments[i].X < row.Segments[j].X })

	res := Clip([]Line{row}, opts.Height)
	res.Truncated = res.Truncated || truncated
	res.Overflow += overflow
	return &res, nil
}

// Measure 返回文本在区域内的排版度量（不裁剪）。
func Measure(text string, opts Options) (Measurement, error) {
	if opts.Metrics == nil {
		return Measurement{}, fmt.Errorf("layout: 缺少字体度量 Metrics")
	}
	runs := markup.Parse(text, opts.markupOptions())
	lines := Wrap(runs, opts.Metrics, opts.Width)
	clipped := Clip(lines, opts.Height)

	m := Measurement{
		LineCount:       len(lines),
		OverflowLines:   clipped.Overflow,
		MaxLinesThatFit: opts.Capacity().LinesAvailable,
	}
	for _, ln := range lines {
		m.Height += ln.Height
		if ln.Width > m.MaxLineWidth {
			m.MaxLineWidth = ln.Width
		}
	}
	for _, r := range runs {
		m.CharCount += utf8.RuneCountInString(r.Text)
	}
	m.Fits = m.MaxLineWidth <= opts.Width && m.Height <= opts.Height
	return m, nil
}

// alignLines 在排版阶段把对齐方式换算为每个文本段的绝对 X 偏移。
func alignLines(lines []Line, width int, align Align) []Line {
	if align == AlignStart {
		return lines
	}
	out := make([]Line, len(lines))
	for i, ln := range lines {
		offset := alignOffset(width, ln.Width, align)
		segs := make([]Segment, len(ln.Segments))
		for j, seg := range ln.Segments {
			seg.X += offset
			segs[j] = seg
		}
		ln.Segments = segs
		out[i] = ln
	}
	return out
}

func alignOffset(container, width int, align Align) int {
	if container <= width {
		return 0
	}
	switch align {
	case AlignCenter:
		return (container - width) / 2
	case AlignEnd:
		return container - width
	default:
		return 0
	}
}
