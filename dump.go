package htmltree

import (
	"fmt"
	"io"
	"strings"

	"github.com/dpotapov/go-htmltree/elements"
)

// Dump writes an outline of the tree to w, one node per line, children indented under
// their parent:
//
//	| <ul> [0,4) end=23 close=[18,23)
//	|   <li> [4,8) end=11
//	|     "one" [8,11)
//
// Attributes are listed right under their tag. Implied elements have no range and are
// marked virtual; stray close tags appear where they were kept in the tree.
func Dump(w io.Writer, t *elements.Tree) error {
	for _, c := range t.Children(t.Root()) {
		if err := dumpLevel(w, t, c, 0); err != nil {
			return err
		}
	}
	return nil
}

func dumpLevel(w io.Writer, t *elements.Tree, id elements.ID, level int) error {
	var b strings.Builder
	dumpIndent(&b, level)
	level++

	switch t.Kind(id) {
	case elements.KindOpenTag:
		if t.IsEmpty(id) {
			fmt.Fprintf(&b, "<%s/>", t.Name(id))
		} else {
			fmt.Fprintf(&b, "<%s>", t.Name(id))
		}
		if t.IsVirtual(id) {
			b.WriteString(" virtual")
		} else {
			fmt.Fprintf(&b, " [%d,%d)", t.From(id), t.To(id))
		}
		if end, ok := t.SemanticEnd(id); ok {
			fmt.Fprintf(&b, " end=%d", end)
		}
		if m := t.MatchingTag(id); m != elements.None {
			fmt.Fprintf(&b, " close=[%d,%d)", t.From(m), t.To(m))
		}
		for _, a := range t.Attributes(id) {
			b.WriteByte('\n')
			dumpIndent(&b, level)
			b.WriteString(t.Name(a))
			if t.HasValue(a) {
				b.WriteString("=" + t.Value(a))
			}
			fmt.Fprintf(&b, " [%d,%d)", t.From(a), t.To(a))
		}
	case elements.KindCloseTag:
		fmt.Fprintf(&b, "</%s> [%d,%d)", t.Name(id), t.From(id), t.To(id))
	case elements.KindText:
		fmt.Fprintf(&b, "%q [%d,%d)", t.Text(id), t.From(id), t.To(id))
	default:
		return fmt.Errorf("unexpected %s node %d", t.Kind(id), id)
	}
	b.WriteByte('\n')

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	for _, c := range t.Children(id) {
		if err := dumpLevel(w, t, c, level); err != nil {
			return err
		}
	}
	return nil
}

func dumpIndent(b *strings.Builder, level int) {
	b.WriteString("| ")
	for i := 0; i < level; i++ {
		b.WriteString("  ")
	}
}
