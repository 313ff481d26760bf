package narrative

import (
	"unicode"

	"github.com/ByLCY/inkpaper/layout"
	"github.com/ByLCY/inkpaper/markup"
)

const ellipsis = "..."

// Truncate 把带标签的叙述裁到最多 maxChars 个可见字符。
//
// 优先在句子边界（". "）处截断，保留尽可能多的完整句子；第一句就超长时硬截断并追加 "..."。
// 截断后重新序列化标签，保证开闭配对。未超长时原样返回。
func Truncate(text string, maxChars int) string {
	opts := markup.DefaultOptions()
	runs := markup.Parse(text, opts)
	plain := []rune(concat(runs))
	if len(plain) <= maxChars {
		return text
	}
	if maxChars <= 0 {
		return ""
	}

	if cut := sentenceCut(plain, maxChars); cut > 0 {
		return markup.Format(cutRuns(runs, cut, ""), opts)
	}
	if maxChars <= len(ellipsis) {
		return markup.Format(cutRuns(runs, maxChars, ""), opts)
	}
	cut := maxChars - len(ellipsis)
	for cut > 0 && unicode.IsSpace(plain[cut-1]) {
		cut--
	}
	return markup.Format(cutRuns(runs, cut, ellipsis), opts)
}

// Fit 把叙述裁到区域估算容量以内。
func Fit(text string, c layout.Capacity) string {
	return Truncate(text, c.TotalCapacity)
}

// sentenceCut 返回不超过 limit 的最后一个句末位置（含句号），没有则返回 0。
func sentenceCut(plain []rune, limit int) int {
	best := 0
	for i := 0; i+1 < len(plain) && i < limit; i++ {
		if plain[i] == '.' && plain[i+1] == ' ' {
			best = i + 1
		}
	}
	return best
}

// cutRuns 保留前 n 个字符，并把 tail 追加到最后一段（沿用其样式）。
func cutRuns(runs []markup.Run, n int, tail string) []markup.Run {
	var out []markup.Run
	for _, r := range runs {
		if n <= 0 {
			break
		}
		rs := []rune(r.Text)
		if len(rs) > n {
			r.Text = string(rs[:n])
		}
		n -= len(rs)
		out = append(out, r)
	}
	if tail != "" {
		if len(out) == 0 {
			out = append(out, markup.Run{Text: tail, Color: markup.Black})
		} else {
			out[len(out)-1].Text += tail
		}
	}
	return out
}

func concat(runs []markup.Run) string {
	var s []rune
	for _, r := range runs {
		s = append(s, []rune(r.Text)...)
	}
	return string(s)
}
