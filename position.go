package htmltree

import "fmt"

// Position is a source location.
type Position struct {
	Offset int `json:"offset"` // Byte offset in the source
	Line   int `json:"line"`   // 1-based line number
	Column int `json:"column"` // 1-based column number (in runes, not bytes)
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// PositionOf converts a byte offset of source into a line and column. Offsets outside the
// source are clamped. Each invalid UTF-8 byte counts as one column.
func PositionOf(source string, offset int) Position {
	offset = max(0, min(offset, len(source)))
	p := Position{Offset: offset, Line: 1, Column: 1}
	for _, r := range source[:offset] {
		if r == '\n' {
			p.Line++
			p.Column = 1
			continue
		}
		p.Column++
	}
	return p
}
