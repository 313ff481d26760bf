package markup

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"golang.org/x/text/unicode/norm"
)

const tagPattern = `</?(?:bi|hb|red|b|i|h)>`

var (
	markupLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Tag", Pattern: tagPattern},
		{Name: "Text", Pattern: `[^<]+`},
		{Name: "Lt", Pattern: `<`},
	})

	tagTokenType = mustTokenType("Tag")
	tagPrefix    = regexp.MustCompile(`^` + tagPattern)
)

// frame is one open tag on the style stack. A tag sets either a weight or a colour.
type frame struct {
	name     string
	style    Style
	hasStyle bool
	ink      Ink
	hasInk   bool
}

type styleStack []frame

func (s *styleStack) open(name string) {
	f := frame{name: name}
	if name == "red" {
		f.ink, f.hasInk = InkRed, true
	} else if st, ok := ParseStyle(name); ok {
		f.style, f.hasStyle = st, true
	}
	*s = append(*s, f)
}

// close removes the innermost open tag with the given name. Tags opened after it
// stay active; a closing tag without an open counterpart is ignored.
func (s *styleStack) close(name string) {
	frames := *s
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].name == name {
			*s = append(frames[:i], frames[i+1:]...)
			return
		}
	}
}

// resolve combines the innermost weight tag with the innermost colour tag.
func (s styleStack) resolve(opts Options) (Style, Ink) {
	style, ink := opts.DefaultStyle, InkBase
	styleSet, inkSet := false, false
	for i := len(s) - 1; i >= 0 && !(styleSet && inkSet); i-- {
		if !styleSet && s[i].hasStyle {
			style, styleSet = s[i].style, true
		}
		if !inkSet && s[i].hasInk {
			ink, inkSet = s[i].ink, true
		}
	}
	return style, ink
}

// Parse converts marked-up text into styled runs.
//
// Parse never fails: tags still open at the end of input are closed implicitly,
// stray closing tags are dropped and anything that does not form a known tag is
// kept as literal text.
func Parse(text string, opts Options) []Run {
	text = norm.NFC.String(text)
	if text == "" {
		return nil
	}
	tokens, err := lexTokens(text)
	if err != nil {
		return []Run{{Text: text, Style: opts.DefaultStyle, Ink: InkBase, Color: opts.BaseColor}}
	}

	var (
		stack styleStack
		runs  []Run
	)
	for _, tok := range tokens {
		if tok.EOF() {
			break
		}
		if tok.Type == tagTokenType {
			name, closing := splitTag(tok.Value)
			if closing {
				stack.close(name)
			} else {
				stack.open(name)
			}
			continue
		}
		style, ink := stack.resolve(opts)
		runs = appendRun(runs, Run{Text: tok.Value, Style: style, Ink: ink, Color: opts.colorFor(ink)})
	}
	return runs
}

// Format serialises runs back to markup. Parsing the output with the same options
// yields the same runs. Plain runs under a non-plain default style have no tag
// and are written untagged.
func Format(runs []Run, opts Options) string {
	var b strings.Builder
	for _, r := range runs {
		if r.Text == "" {
			continue
		}
		weight := ""
		if r.Style != opts.DefaultStyle {
			weight = r.Style.tag()
		}
		if r.Ink == InkRed {
			b.WriteString("<red>")
		}
		if weight != "" {
			b.WriteString("<" + weight + ">")
		}
		writeEscaped(&b, r.Text)
		if weight != "" {
			b.WriteString("</" + weight + ">")
		}
		if r.Ink == InkRed {
			b.WriteString("</red>")
		}
	}
	return b.String()
}

// emptyPair 插入到字面 "<" 之后，使其与后续文字不再构成标签；它本身不产生任何文字。
const emptyPair = "<i></i>"

// writeEscaped writes literal text so that a '<' followed by a tag spelling
// (e.g. a merged "<" + "b>") is not read back as a tag.
func writeEscaped(b *strings.Builder, text string) {
	for {
		i := strings.IndexByte(text, '<')
		if i < 0 {
			b.WriteString(text)
			return
		}
		b.WriteString(text[:i+1])
		text = text[i+1:]
		if tagPrefix.MatchString("<" + text) {
			b.WriteString(emptyPair)
		}
	}
}

// StripTags strips all markup and returns the text a reader would see.
func StripTags(text string) string {
	var b strings.Builder
	for _, r := range Parse(text, DefaultOptions()) {
		b.WriteString(r.Text)
	}
	return b.String()
}

func appendRun(runs []Run, r Run) []Run {
	if r.Text == "" {
		return runs
	}
	if n := len(runs); n > 0 && runs[n-1].SameLook(r) {
		runs[n-1].Text += r.Text
		return runs
	}
	return append(runs, r)
}

func lexTokens(text string) ([]lexer.Token, error) {
	lex, err := markupLexer.Lex("", strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	return lexer.ConsumeAll(lex)
}

// splitTag turns "<b>" into ("b", false) and "</b>" into ("b", true).
func splitTag(raw string) (string, bool) {
	name := strings.TrimSuffix(strings.TrimPrefix(raw, "<"), ">")
	if strings.HasPrefix(name, "/") {
		return name[1:], true
	}
	return name, false
}

func mustTokenType(name string) lexer.TokenType {
	tt, ok := markupLexer.Symbols()[name]
	if !ok {
		panic(fmt.Sprintf("token %s not defined", name))
	}
	return tt
}
