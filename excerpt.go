package htmltree

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// SourceLine is a numbered line of the source, without its line terminator.
type SourceLine struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// SourceContext is an excerpt of the source around a [From, To) range, used to show where a
// diagnostic points to.
type SourceContext struct {
	Lines       []SourceLine `json:"lines"`
	ErrorLine   int          `json:"errorLine"`
	ErrorColumn int          `json:"errorColumn"`
	ErrorLength int          `json:"errorLength"` // in runes, at least 1, clipped to the error line
}

// SourceContextOf returns the lines around the range [from, to) of source, with up to
// `around` lines before and after the line where the range starts.
func SourceContextOf(source string, from, to, around int) *SourceContext {
	pos := PositionOf(source, from)
	lines := strings.Split(source, "\n")

	ctx := &SourceContext{
		ErrorLine:   pos.Line,
		ErrorColumn: pos.Column,
		ErrorLength: 1,
	}

	first := max(1, pos.Line-around)
	last := min(len(lines), pos.Line+around)
	for n := first; n <= last; n++ {
		ctx.Lines = append(ctx.Lines, SourceLine{
			Number: n,
			Text:   strings.TrimSuffix(lines[n-1], "\r"),
		})
	}

	if to > pos.Offset {
		rest := source[pos.Offset:min(to, len(source))]
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			rest = rest[:i]
		}
		ctx.ErrorLength = max(1, utf8.RuneCountInString(rest))
	}
	return ctx
}

// Format writes the excerpt with line numbers, marking the range under the error line.
func (c *SourceContext) Format(w io.Writer) error {
	width := len(fmt.Sprint(c.ErrorLine))
	if len(c.Lines) > 0 {
		width = len(fmt.Sprint(c.Lines[len(c.Lines)-1].Number))
	}
	for _, l := range c.Lines {
		if _, err := fmt.Fprintf(w, "%*d | %s\n", width, l.Number, l.Text); err != nil {
			return err
		}
		if l.Number != c.ErrorLine {
			continue
		}
		marker := strings.Repeat(" ", c.ErrorColumn-1) + strings.Repeat("^", c.ErrorLength)
		if _, err := fmt.Fprintf(w, "%*s | %s\n", width, "", marker); err != nil {
			return err
		}
	}
	return nil
}
