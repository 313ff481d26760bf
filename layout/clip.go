package layout

// Clip 自上而下累加行高，只保留完整放得下的行。
// 放不下的行被整体丢弃并标记 Truncated；最后一行保持原样，不追加省略号。
func Clip(lines []Line, maxHeight int) Result {
	res := Result{Lines: make([]Line, 0, len(lines))}
	y := 0
	for i, ln := range lines {
		if y+ln.Height > maxHeight {
			res.Truncated = true
			res.Overflow = len(lines) - i
			break
		}
		ln.Y = y
		res.Lines = append(res.Lines, ln)
		y += ln.Height
		if ln.Width > res.Width {
			res.Width = ln.Width
		}
	}
	res.Height = y
	return res
}
