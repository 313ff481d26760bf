package layout

import (
	"unicode"

	"github.com/ByLCY/inkpaper/markup"
)

// 折行引擎：贪心填充，超长单词按宽度断字并补连字符。
// 所有宽度来自 Metrics.Advance 的逐字累加，渲染端按同样方式逐字绘制，保证像素一致。

const hyphen = '-'

// minBreakPrefix 是在当前行剩余空间内断字时至少保留的字符数。
const minBreakPrefix = 2

// cell 是一个已测量的字符及其样式。
type cell struct {
	r     rune
	look  markup.Run // 仅使用 Style/Ink/Color
	width int
}

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenNewline
)

// token 是一个单词（可跨越多个样式段）或一次显式换行。
type token struct {
	kind  tokenKind
	cells []cell
	space *cell      // 单词前折叠后的空白，行首时丢弃
	look  markup.Run // 换行符所在段的样式
}

// Wrap 将样式段按 maxWidth 折成若干行，不限制行数。负宽度按 0 处理。
func Wrap(runs []markup.Run, m Metrics, maxWidth int) []Line {
	if maxWidth < 0 {
		maxWidth = 0
	}
	w := wrapper{m: m, max: maxWidth}
	for _, tok := range tokenize(runs, m) {
		switch tok.kind {
		case tokenNewline:
			w.breakLine(tok.look)
		case tokenWord:
			w.addWord(tok)
		}
	}
	if len(w.cur) > 0 {
		w.flush(false)
	}
	return w.lines
}

func tokenize(runs []markup.Run, m Metrics) []token {
	var (
		tokens  []token
		word    []cell
		pending *cell
	)
	finishWord := func() {
		if len(word) == 0 {
			return
		}
		tokens = append(tokens, token{kind: tokenWord, cells: word, space: pending})
		word = nil
		pending = nil
	}
	for _, run := range runs {
		look := markup.Run{Style: run.Style, Ink: run.Ink, Color: run.Color}
		for _, r := range run.Text {
			switch {
			case r == '\r':
			case r == '\n':
				finishWord()
				pending = nil
				tokens = append(tokens, token{kind: tokenNewline, look: look})
			case unicode.IsSpace(r):
				finishWord()
				if pending == nil {
					pending = &cell{r: ' ', look: look, width: m.Advance(look.Style, ' ')}
				}
			default:
				word = append(word, cell{r: r, look: look, width: m.Advance(look.Style, r)})
			}
		}
	}
	finishWord()
	return tokens
}

type wrapper struct {
	m     Metrics
	max   int
	lines []Line
	cur   []cell
	curW  int
}

func (w *wrapper) addWord(tok token) {
	wordW := cellsWidth(tok.cells)
	spaceW := 0
	if len(w.cur) > 0 && tok.space != nil {
		spaceW = tok.space.width
	}

	// 边界包含：恰好等于 max 时仍留在当前行
	if len(w.cur) > 0 && w.curW+spaceW+wordW <= w.max {
		w.appendSpace(tok.space)
		w.appendCells(tok.cells)
		return
	}
	if wordW <= w.max {
		if len(w.cur) > 0 {
			w.flush(false)
		}
		w.appendCells(tok.cells)
		return
	}

	// 单词本身超过行宽：先尝试利用当前行剩余空间断字
	cells := tok.cells
	if len(w.cur) > 0 {
		k := w.fitPrefix(cells, w.max-w.curW-spaceW)
		if k >= minBreakPrefix {
			w.appendSpace(tok.space)
			w.appendCells(cells[:k])
			w.appendHyphen(cells[k-1])
			w.flush(true)
			cells = cells[k:]
		} else {
			w.flush(false)
		}
	}
	for len(cells) > 0 && cellsWidth(cells) > w.max {
		k := w.fitPrefix(cells, w.max)
		if k == 0 {
			// 连一个字符加连字符都放不下：单字符独占一行，不加连字符
			w.appendCells(cells[:1])
			w.flush(false)
			cells = cells[1:]
			continue
		}
		w.appendCells(cells[:k])
		w.appendHyphen(cells[k-1])
		w.flush(true)
		cells = cells[k:]
	}
	w.appendCells(cells)
}

// breakLine 处理显式换行：当前行（即便为空）立即结束。
func (w *wrapper) breakLine(look markup.Run) {
	if len(w.cur) == 0 {
		w.lines = append(w.lines, Line{
			Height:   w.m.LineHeight(look.Style),
			Baseline: w.m.Ascent(look.Style),
		})
		return
	}
	w.flush(false)
}

// fitPrefix 返回最大的 k，使 cells[:k] 加上连字符的宽度不超过 avail。
func (w *wrapper) fitPrefix(cells []cell, avail int) int {
	width := 0
	best := 0
	for i, c := range cells {
		width += c.width
		if width+w.m.Advance(c.look.Style, hyphen) > avail {
			break
		}
		best = i + 1
	}
	return best
}

func (w *wrapper) appendSpace(sp *cell) {
	if sp == nil || len(w.cur) == 0 {
		return
	}
	w.cur = append(w.cur, *sp)
	w.curW += sp.width
}

func (w *wrapper) appendCells(cells []cell) {
	w.cur = append(w.cur, cells...)
	w.curW += cellsWidth(cells)
}

func (w *wrapper) appendHyphen(after cell) {
	hc := cell{r: hyphen, look: after.look, width: w.m.Advance(after.look.Style, hyphen)}
	w.cur = append(w.cur, hc)
	w.curW += hc.width
}

func (w *wrapper) flush(hyphenated bool) {
	ln := buildLine(w.cur, w.m)
	ln.Hyphenated = hyphenated
	w.lines = append(w.lines, ln)
	w.cur = nil
	w.curW = 0
}

// buildLine 将字符合并为样式段并计算行高与基线。
func buildLine(cells []cell, m Metrics) Line {
	var ln Line
	x := 0
	var text []rune
	flushSeg := func(look markup.Run, width int) {
		if len(text) == 0 {
			return
		}
		run := look
		run.Text = string(text)
		ln.Segments = append(ln.Segments, Segment{Run: run, X: x, Width: width})
		x += width
		text = text[:0]
	}
	segW := 0
	for i, c := range cells {
		if i > 0 && !cells[i-1].look.SameLook(c.look) {
			flushSeg(cells[i-1].look, segW)
			segW = 0
		}
		text = append(text, c.r)
		segW += c.width
		if h := m.LineHeight(c.look.Style); h > ln.Height {
			ln.Height = h
		}
		if a := m.Ascent(c.look.Style); a > ln.Baseline {
			ln.Baseline = a
		}
	}
	if len(cells) > 0 {
		flushSeg(cells[len(cells)-1].look, segW)
	}
	ln.Width = x
	return ln
}

func cellsWidth(cells []cell) int {
	total := 0
	for _, c := range cells {
		total += c.width
	}
	return total
}
