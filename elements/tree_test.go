package elements

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpan(t *testing.T) {
	s, err := NewSpan(10, 15)
	require.NoError(t, err)
	assert.Equal(t, 10, s.From())
	assert.Equal(t, 15, s.To())
	assert.Equal(t, 5, s.Len())

	_, err = NewSpan(0, MaxSpanLength+1)
	require.ErrorIs(t, err, ErrSpanOverflow)

	_, err = NewSpan(5, 4)
	require.ErrorIs(t, err, ErrOutOfBounds)

	c := ClampSpan(3, 3+MaxSpanLength+10)
	assert.Equal(t, 3+MaxSpanLength, c.To())
	assert.Equal(t, 7, ClampSpan(7, 2).To())
}

func TestFactory(t *testing.T) {
	src := `<div id="x"></div>`
	tr := NewTree(src)

	div, err := tr.NewOpenTag(0, 12, 3)
	require.NoError(t, err)
	assert.Equal(t, "div", tr.Name(div))
	assert.Equal(t, KindOpenTag, tr.Kind(div))
	assert.Equal(t, 0, tr.From(div))
	assert.Equal(t, 12, tr.To(div))

	end, err := tr.NewCloseTag(12, 18, 3)
	require.NoError(t, err)
	assert.Equal(t, "div", tr.Name(end))
	assert.Equal(t, "</div>", tr.Text(end))

	attr, err := tr.NewAttribute(5, 2, 8, 3, QuoteDouble)
	require.NoError(t, err)
	assert.Equal(t, "id", tr.Name(attr))
	assert.Equal(t, `"x"`, tr.Value(attr))
	assert.Equal(t, "x", tr.UnquotedValue(attr))
	assert.Equal(t, 11, tr.To(attr))

	_, err = tr.NewOpenTag(0, 5, -1)
	require.ErrorIs(t, err, ErrNegativeNameLength)

	_, err = tr.NewText(10, len(src)+1)
	require.ErrorIs(t, err, ErrOutOfBounds)

	v := tr.NewVirtualOpenTag("tbody")
	assert.Equal(t, -1, tr.From(v))
	assert.Equal(t, -1, tr.To(v))
	assert.Equal(t, "tbody", tr.Name(v))
	assert.True(t, tr.IsVirtual(v))
}

func TestAttributeBounds(t *testing.T) {
	src := `<a href="x">`
	tr := NewTree(src)

	_, err := tr.NewAttribute(3, 4, 8, 10, QuoteDouble)
	require.ErrorIs(t, err, ErrOutOfBounds)

	_, err = tr.NewAttribute(3, 40, -1, 0, QuoteNone)
	require.ErrorIs(t, err, ErrOutOfBounds)

	_, err = tr.NewAttribute(3, 4, 1, 2, QuoteNone)
	require.ErrorIs(t, err, ErrOutOfBounds)

	valueless, err := tr.NewAttribute(3, 4, -1, 0, QuoteDouble)
	require.NoError(t, err)
	assert.False(t, tr.HasValue(valueless))
	assert.Equal(t, QuoteNone, tr.Quote(valueless))
	assert.Equal(t, -1, tr.ValueFrom(valueless))
}

func TestSpanOverflow(t *testing.T) {
	src := "<p>" + strings.Repeat("x", MaxSpanLength+5)
	tr := NewTree(src)

	text, err := tr.NewText(3, len(src))
	require.ErrorIs(t, err, ErrSpanOverflow)
	require.NotEqual(t, None, text)
	assert.Equal(t, 3+MaxSpanLength, tr.To(text))

	p, err := tr.NewOpenTag(0, 3, 1)
	require.NoError(t, err)
	require.ErrorIs(t, tr.SetEndOffset(p, len(src)), ErrSpanOverflow)
	assert.Equal(t, MaxSpanLength, tr.To(p))
}

func TestChildren(t *testing.T) {
	tr := NewTree("<ul><li>a<li>b</ul>")
	root := tr.Root()
	ul, _ := tr.NewOpenTag(0, 4, 2)
	li1, _ := tr.NewOpenTag(4, 8, 2)
	li2, _ := tr.NewOpenTag(9, 13, 2)

	require.True(t, tr.AddChild(root, ul))
	require.True(t, tr.AddChild(ul, li2))
	require.True(t, tr.InsertChildBefore(ul, li2, li1))
	assert.Equal(t, []ID{li1, li2}, tr.Children(ul))
	assert.Equal(t, ul, tr.Parent(li1))

	// anchor that is not a child of the parent
	other, _ := tr.NewText(8, 9)
	assert.False(t, tr.InsertChildBefore(root, li1, other))
	assert.Equal(t, None, tr.Parent(other))

	// moving a node detaches it from its old parent
	require.True(t, tr.AddChild(root, li2))
	assert.Equal(t, []ID{li1}, tr.Children(ul))
	assert.Equal(t, []ID{ul, li2}, tr.Children(root))

	// cycles are refused
	assert.False(t, tr.AddChild(li1, ul))
	assert.False(t, tr.AddChild(ul, ul))

	tr.RemoveChildren(root, []ID{ul, li2, li1})
	assert.Empty(t, tr.Children(root))
	assert.Equal(t, None, tr.Parent(ul))
	assert.Equal(t, []ID{li1}, tr.Children(ul))
}

func TestEmptyTagNeverHasChildren(t *testing.T) {
	tr := NewTree("<br/>x")
	br, err := tr.NewEmptyOpenTag(0, 5, 2)
	require.NoError(t, err)
	x, _ := tr.NewText(5, 6)

	assert.False(t, tr.AddChild(br, x))
	assert.Empty(t, tr.Children(br))
	assert.False(t, tr.HasChildren(br))
	assert.True(t, tr.IsEmpty(br))

	end, _ := tr.NewCloseTag(0, 5, 2)
	require.ErrorIs(t, tr.SetMatchingTag(br, end), ErrEmptyMatch)
}

func TestDetachIdempotent(t *testing.T) {
	tr := NewTree("<b>x</b>")
	b, _ := tr.NewOpenTag(0, 3, 1)
	x, _ := tr.NewText(3, 4)
	tr.AddChild(tr.Root(), b)
	tr.AddChild(b, x)

	tr.DetachFromParent(x)
	assert.Equal(t, None, tr.Parent(x))
	tr.DetachFromParent(x)
	assert.Equal(t, None, tr.Parent(x))
	assert.False(t, tr.HasChildren(b))
}

func TestMatchingTag(t *testing.T) {
	tr := NewTree("<b></b></b>")
	b, _ := tr.NewOpenTag(0, 3, 1)
	end1, _ := tr.NewCloseTag(3, 7, 1)
	end2, _ := tr.NewCloseTag(7, 11, 1)

	require.NoError(t, tr.SetMatchingTag(b, end1))
	assert.Equal(t, end1, tr.MatchingTag(b))
	assert.Equal(t, b, tr.MatchingTag(end1))

	require.ErrorIs(t, tr.SetMatchingTag(b, end2), ErrAlreadyMatched)
	assert.Equal(t, end1, tr.MatchingTag(b))
	assert.Equal(t, None, tr.MatchingTag(end2))

	v := tr.NewVirtualOpenTag("b")
	require.ErrorIs(t, tr.SetMatchingTag(v, end2), ErrVirtualMatch)
}

func TestSemanticEnd(t *testing.T) {
	tr := NewTree("<p>a<p>b")
	p, _ := tr.NewOpenTag(0, 3, 1)

	_, ok := tr.SemanticEnd(p)
	assert.False(t, ok)

	tr.SetSemanticEndOffset(p, 4)
	end, ok := tr.SemanticEnd(p)
	require.True(t, ok)
	assert.Equal(t, 4, end)

	end, ok = tr.SemanticEnd(tr.Root())
	require.True(t, ok)
	assert.Equal(t, 8, end)

	v := tr.NewVirtualOpenTag("body")
	require.NoError(t, tr.SetEndOffset(v, 5))
	assert.Equal(t, -1, tr.To(v))
	tr.SetSemanticEndOffset(v, 8)
	end, ok = tr.SemanticEnd(v)
	require.True(t, ok)
	assert.Equal(t, 8, end)
}

func TestAttributes(t *testing.T) {
	tr := NewTree(`<input disabled value='v'>`)
	in, _ := tr.NewEmptyOpenTag(0, 26, 5)
	a1, _ := tr.NewAttribute(7, 8, -1, 0, QuoteNone)
	a2, _ := tr.NewAttribute(16, 5, 22, 3, QuoteSingle)

	require.NoError(t, tr.AddAttribute(in, a1))
	require.NoError(t, tr.AddAttribute(in, a2))
	assert.Equal(t, []ID{a1, a2}, tr.Attributes(in))
	assert.Equal(t, in, tr.Parent(a1))
	assert.Equal(t, "v", tr.UnquotedValue(a2))

	tr.DetachFromParent(a1)
	assert.Equal(t, []ID{a2}, tr.Attributes(in))
	assert.Equal(t, None, tr.Parent(a1))

	text, _ := tr.NewText(0, 1)
	require.ErrorIs(t, tr.AddAttribute(text, a1), ErrNotContainer)
}

func TestWalk(t *testing.T) {
	tr := NewTree("<a><b></b><c></c></a>")
	a, _ := tr.NewOpenTag(0, 3, 1)
	b, _ := tr.NewOpenTag(3, 6, 1)
	c, _ := tr.NewOpenTag(10, 13, 1)
	tr.AddChild(tr.Root(), a)
	tr.AddChild(a, b)
	tr.AddChild(a, c)

	var names []string
	var depths []int
	tr.Walk(tr.Root(), func(id ID, depth int) bool {
		names = append(names, tr.Name(id))
		depths = append(depths, depth)
		return true
	})
	assert.Equal(t, []string{RootName, "a", "b", "c"}, names)
	assert.Equal(t, []int{0, 1, 2, 2}, depths)

	names = nil
	tr.Walk(tr.Root(), func(id ID, depth int) bool {
		names = append(names, tr.Name(id))
		return id != a
	})
	assert.Equal(t, []string{RootName, "a"}, names)
}

func TestInvalidID(t *testing.T) {
	tr := NewTree("<b>")
	assert.Equal(t, KindRoot, tr.Kind(tr.Root()))

	for _, id := range []ID{None, 1, 42} {
		assert.Equal(t, KindInvalid, tr.Kind(id))
		assert.Equal(t, None, tr.Parent(id))
		assert.False(t, tr.AddChild(tr.Root(), id))
	}
	assert.Equal(t, "invalid", KindInvalid.String())
}
