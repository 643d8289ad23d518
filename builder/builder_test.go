package builder

import (
	"strings"
	"testing"

	"github.com/dpotapov/go-htmltree/elements"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// feed plays the part of a tokenizer and tree constructor for hand-written scenarios.
type feed struct {
	b   *Builder
	src string
}

func newFeed(src string) *feed {
	return &feed{b: New(src, nil), src: src}
}

// lt lexes "<name" at offset and returns the offset right after the name.
func (f *feed) lt(offset int, name string) int {
	f.b.Transition(StateData, StateTagOpen, false, offset)
	f.b.Transition(StateTagOpen, StateTagName, false, offset+1)
	return offset + 1 + len(name)
}

// closeLt lexes "</name" at offset.
func (f *feed) closeLt(offset int, name string) {
	f.b.Transition(StateData, StateTagOpen, false, offset)
	f.b.Transition(StateTagOpen, StateCloseTagOpen, false, offset+1)
	f.b.Transition(StateCloseTagOpen, StateTagName, false, offset+2)
}

// gt lexes the '>' at offset.
func (f *feed) gt(offset int) {
	f.b.Transition(StateTagName, StateData, false, offset)
}

// open lexes a start tag without attributes at offset and pushes it under parent.
func (f *feed) open(offset int, name string, parent elements.ID) elements.ID {
	end := f.lt(offset, name)
	f.b.StartTag(name, nil, false)
	n := f.b.CreateElement("", name, nil, parent)
	f.b.AppendElement(n, parent)
	f.b.ElementPushed("", name, n)
	f.gt(end)
	return n
}

func (f *feed) pop(n elements.ID) {
	f.b.ElementPopped("", f.b.tree.Name(n), n)
}

func (f *feed) eof() {
	f.b.Transition(StateData, StateEOF, false, len(f.src))
}

func semanticEnd(t *testing.T, tr *elements.Tree, id elements.ID) int {
	t.Helper()
	end, ok := tr.SemanticEnd(id)
	require.True(t, ok, "semantic end of <%s> is not set", tr.Name(id))
	return end
}

func TestImplicitClosing(t *testing.T) {
	// <p>a<p>b
	f := newFeed("<p>a<p>b")
	root := f.b.Root()

	p1 := f.open(0, "p", root)
	f.b.AppendCharacters(p1, 3, 4)

	end := f.lt(4, "p")
	f.b.StartTag("p", nil, false)
	f.pop(p1)
	p2 := f.b.CreateElement("", "p", nil, root)
	f.b.AppendElement(p2, root)
	f.b.ElementPushed("", "p", p2)
	f.gt(end)
	f.b.AppendCharacters(p2, 7, 8)

	f.eof()
	f.pop(p2)
	tr := f.b.Finish()

	assert.Equal(t, []elements.ID{p1, p2}, tr.Children(root))
	assert.Equal(t, 4, semanticEnd(t, tr, p1))
	assert.Equal(t, 8, semanticEnd(t, tr, p2))
	assert.Equal(t, 3, tr.To(p1))
	assert.Equal(t, elements.None, tr.MatchingTag(p1))
	assert.Empty(t, f.b.Diagnostics())
}

func TestStrayCloseTag(t *testing.T) {
	// <div></span></div>
	f := newFeed("<div></span></div>")
	root := f.b.Root()

	div := f.open(0, "div", root)

	f.closeLt(5, "span")
	f.b.EndTag("span")
	f.gt(11)

	f.closeLt(12, "div")
	f.b.EndTag("div")
	f.pop(div)
	assert.Equal(t, 12+len("div")+2, semanticEnd(t, f.b.tree, div), "before '>' the end is estimated")
	f.gt(17)

	f.eof()
	tr := f.b.Finish()

	children := tr.Children(div)
	require.Len(t, children, 1)
	span := children[0]
	assert.Equal(t, elements.KindCloseTag, tr.Kind(span))
	assert.Equal(t, "span", tr.Name(span))
	assert.Equal(t, elements.None, tr.MatchingTag(span))
	assert.Equal(t, "</span>", tr.Text(span))

	closeDiv := tr.MatchingTag(div)
	require.NotEqual(t, elements.None, closeDiv)
	assert.Equal(t, div, tr.MatchingTag(closeDiv))
	assert.Equal(t, "</div>", tr.Text(closeDiv))
	assert.Equal(t, 18, semanticEnd(t, tr, div))
}

func TestListItems(t *testing.T) {
	// <ul><li>one<li>two</ul>
	src := "<ul><li>one<li>two</ul>"
	f := newFeed(src)
	root := f.b.Root()

	ul := f.open(0, "ul", root)
	li1 := f.open(4, "li", ul)
	f.b.AppendCharacters(li1, 8, 11)

	end := f.lt(11, "li")
	f.b.StartTag("li", nil, false)
	f.pop(li1)
	li2 := f.b.CreateElement("", "li", nil, ul)
	f.b.AppendElement(li2, ul)
	f.b.ElementPushed("", "li", li2)
	f.gt(end)
	f.b.AppendCharacters(li2, 15, 18)

	f.closeLt(18, "ul")
	f.b.EndTag("ul")
	f.pop(li2)
	f.pop(ul)
	f.gt(22)
	f.eof()
	tr := f.b.Finish()

	assert.Equal(t, []elements.ID{ul}, tr.Children(root))
	assert.Equal(t, []elements.ID{li1, li2}, tr.Children(ul))
	assert.Equal(t, strings.Index(src, "<li>two"), semanticEnd(t, tr, li1))
	assert.Equal(t, 18, semanticEnd(t, tr, li2))
	assert.Equal(t, len(src), semanticEnd(t, tr, ul))

	closeUL := tr.MatchingTag(ul)
	require.NotEqual(t, elements.None, closeUL)
	assert.Equal(t, "</ul>", tr.Text(closeUL))
	assert.Equal(t, elements.None, tr.MatchingTag(li1))
	assert.Equal(t, elements.None, tr.MatchingTag(li2))
}

func TestPendingDrainedOnPush(t *testing.T) {
	// </b><i>x</i>
	f := newFeed("</b><i>x</i>")
	root := f.b.Root()

	f.closeLt(0, "b")
	f.b.EndTag("b")
	f.gt(3)

	i := f.open(4, "i", root)
	children := f.b.tree.Children(i)
	require.Len(t, children, 1)
	assert.Equal(t, "b", f.b.tree.Name(children[0]))
	assert.Empty(t, f.b.pending)
}

func TestPendingOnEmptyPushGoesToParent(t *testing.T) {
	// <div></b><br></div>
	f := newFeed("<div></b><br></div>")
	root := f.b.Root()
	div := f.open(0, "div", root)

	f.closeLt(5, "b")
	f.b.EndTag("b")
	f.gt(8)

	end := f.lt(9, "br")
	f.b.StartTag("br", nil, false)
	br := f.b.CreateElement("", "br", nil, div)
	f.b.AppendElement(br, div)
	f.b.ElementPushed("", "br", br)
	f.pop(br)
	f.gt(end)

	tr := f.b.tree
	assert.True(t, tr.IsEmpty(br))
	assert.Empty(t, tr.Children(br))
	assert.Equal(t, 13, tr.To(br))
	assert.Equal(t, 13, semanticEnd(t, tr, br))

	children := tr.Children(div)
	require.Len(t, children, 2)
	assert.Equal(t, elements.KindCloseTag, tr.Kind(children[0]))
	assert.Equal(t, br, children[1])
}

func TestStrayCloseTagsAtEndOfStack(t *testing.T) {
	// <p>x</a></b>  ... the close tags are still pending when the stack empties
	f := newFeed("<p>x</a></b>")
	root := f.b.Root()
	p := f.open(0, "p", root)
	f.b.AppendCharacters(p, 3, 4)

	f.closeLt(4, "a")
	f.b.EndTag("a")
	f.gt(7)
	f.closeLt(8, "b")
	f.b.EndTag("b")
	f.gt(11)

	f.eof()
	f.pop(p)
	tr := f.b.Finish()

	var names []string
	for _, c := range tr.Children(p) {
		names = append(names, tr.Kind(c).String()+":"+tr.Name(c))
	}
	assert.Equal(t, []string{"text:", "close_tag:a", "close_tag:b"}, names)
	assert.Equal(t, 8, semanticEnd(t, tr, p), "starts at the most recent pending close tag")
	assert.Empty(t, f.b.pending)
}

func TestStructuralMismatchKeepsStack(t *testing.T) {
	f := newFeed("<a><b>")
	root := f.b.Root()
	a := f.open(0, "a", root)
	b := f.open(3, "b", a)

	f.pop(a)
	assert.Equal(t, []elements.ID{root, b}, f.b.stack)
	require.Len(t, f.b.Diagnostics(), 1)
	assert.Equal(t, DiagStructuralMismatch, f.b.Diagnostics()[0].Kind)

	other := f.b.tree.NewVirtualOpenTag("x")
	f.b.ElementPopped("", "x", other)
	assert.Equal(t, []elements.ID{root, b}, f.b.stack)
	assert.Len(t, f.b.Diagnostics(), 2)
}

func TestVirtualElement(t *testing.T) {
	// <table><tr>
	f := newFeed("<table><tr>")
	root := f.b.Root()
	table := f.open(0, "table", root)

	end := f.lt(7, "tr")
	f.b.StartTag("tr", nil, false)
	tbody := f.b.CreateElement("", "tbody", nil, table)
	f.b.AppendElement(tbody, table)
	f.b.ElementPushed("", "tbody", tbody)
	tr := f.b.CreateElement("", "tr", nil, tbody)
	f.b.AppendElement(tr, tbody)
	f.b.ElementPushed("", "tr", tr)
	f.gt(end)

	f.eof()
	f.pop(tr)
	f.pop(tbody)
	f.pop(table)
	tree := f.b.Finish()

	assert.True(t, tree.IsVirtual(tbody))
	assert.Equal(t, -1, tree.From(tbody))
	assert.Equal(t, -1, tree.To(tbody))
	assert.Equal(t, 11, semanticEnd(t, tree, tbody))
	assert.False(t, tree.IsVirtual(tr))
	assert.Equal(t, "<tr>", tree.Text(tr))
}

func TestFosterParenting(t *testing.T) {
	// <table>x<b>
	f := newFeed("<table>x<b>")
	root := f.b.Root()
	table := f.open(0, "table", root)

	f.b.InsertFosterParentedCharacters(7, 8, table, table)

	end := f.lt(8, "b")
	f.b.StartTag("b", nil, false)
	b := f.b.CreateAndInsertFosterParentedElement("", "b", nil, table, table)
	f.b.ElementPushed("", "b", b)
	f.gt(end)

	tr := f.b.tree
	children := tr.Children(root)
	require.Len(t, children, 3)
	assert.Equal(t, elements.KindText, tr.Kind(children[0]))
	assert.Equal(t, "x", tr.Text(children[0]))
	assert.Equal(t, b, children[1])
	assert.Equal(t, table, children[2])

	// a table that is not in the tree falls back to the stack parent
	detached := tr.NewVirtualOpenTag("table")
	holder := tr.NewVirtualOpenTag("div")
	f.b.InsertFosterParentedChild(tr.NewVirtualOpenTag("span"), detached, holder)
	assert.Len(t, tr.Children(holder), 1)
}

func TestAppendChildrenToNewParent(t *testing.T) {
	f := newFeed("<a><b></b><c></c></a>")
	root := f.b.Root()
	tr := f.b.tree
	a := tr.NewVirtualOpenTag("a")
	b := tr.NewVirtualOpenTag("b")
	c := tr.NewVirtualOpenTag("c")
	to := tr.NewVirtualOpenTag("to")
	tr.AddChild(root, a)
	tr.AddChild(a, b)
	tr.AddChild(a, c)

	f.b.AppendChildrenToNewParent(a, to)
	assert.Empty(t, tr.Children(a))
	assert.Equal(t, []elements.ID{b, c}, tr.Children(to))
	assert.Equal(t, to, tr.Parent(b))
}

func TestAppendCharactersMerges(t *testing.T) {
	f := newFeed("abcdef")
	root := f.b.Root()
	f.b.AppendCharacters(root, 0, 2)
	f.b.AppendCharacters(root, 2, 4)
	f.b.AppendCharacters(root, 5, 6)
	tr := f.b.tree

	children := tr.Children(root)
	require.Len(t, children, 2)
	assert.Equal(t, "abcd", tr.Text(children[0]))
	assert.Equal(t, "f", tr.Text(children[1]))
}

func TestLongTextIsSplit(t *testing.T) {
	src := strings.Repeat("x", elements.MaxSpanLength*2+10)
	f := newFeed(src)
	f.b.AppendCharacters(f.b.Root(), 0, len(src))
	tr := f.b.tree

	children := tr.Children(tr.Root())
	require.Len(t, children, 3)
	assert.Equal(t, len(src), tr.To(children[2]))
	assert.Empty(t, f.b.Diagnostics())
}

func TestAttributesFromTransitions(t *testing.T) {
	src := `<a href="x" download class=y>`
	f := newFeed(src)
	root := f.b.Root()

	f.b.Transition(StateData, StateTagOpen, false, 0)
	f.b.Transition(StateTagOpen, StateTagName, false, 1)
	f.b.Transition(StateTagName, StateBeforeAttributeName, false, 2)
	f.b.Transition(StateBeforeAttributeName, StateAttributeName, false, 3)
	f.b.Transition(StateAttributeName, StateBeforeAttributeValue, false, 7)
	f.b.Transition(StateBeforeAttributeValue, StateAttributeValueDoubleQuoted, false, 8)
	f.b.Transition(StateAttributeValueDoubleQuoted, StateAfterAttributeValueQuoted, false, 10)
	f.b.Transition(StateAfterAttributeValueQuoted, StateBeforeAttributeName, false, 11)
	f.b.Transition(StateBeforeAttributeName, StateAttributeName, false, 12)
	f.b.Transition(StateAttributeName, StateAfterAttributeName, false, 20)
	f.b.Transition(StateAfterAttributeName, StateAttributeName, false, 21)
	f.b.Transition(StateAttributeName, StateBeforeAttributeValue, false, 26)
	f.b.Transition(StateBeforeAttributeValue, StateAttributeValueUnquoted, false, 27)

	attrs := []html.Attribute{{Key: "href", Val: "x"}, {Key: "download"}, {Key: "class", Val: "y"}}
	f.b.StartTag("a", attrs, false)
	n := f.b.CreateElement("", "a", attrs, root)
	f.b.AppendElement(n, root)
	f.b.ElementPushed("", "a", n)
	f.b.Transition(StateAttributeValueUnquoted, StateData, false, 28)

	tr := f.b.tree
	assert.Equal(t, 0, tr.From(n))
	assert.Equal(t, len(src), tr.To(n))

	ids := tr.Attributes(n)
	require.Len(t, ids, 3)
	assert.Equal(t, "href", tr.Name(ids[0]))
	assert.Equal(t, `"x"`, tr.Value(ids[0]))
	assert.Equal(t, "x", tr.UnquotedValue(ids[0]))
	assert.Equal(t, elements.QuoteDouble, tr.Quote(ids[0]))
	assert.Equal(t, "download", tr.Name(ids[1]))
	assert.False(t, tr.HasValue(ids[1]))
	assert.Equal(t, "class", tr.Name(ids[2]))
	assert.Equal(t, "y", tr.Value(ids[2]))
	assert.Equal(t, elements.QuoteNone, tr.Quote(ids[2]))
	assert.Empty(t, f.b.Diagnostics())
}

func TestSelfClosingTag(t *testing.T) {
	src := `<x-icon/>`
	f := newFeed(src)
	root := f.b.Root()

	f.b.Transition(StateData, StateTagOpen, false, 0)
	f.b.Transition(StateTagOpen, StateTagName, false, 1)
	f.b.Transition(StateTagName, StateSelfClosingStartTag, false, 7)
	f.b.StartTag("x-icon", nil, true)
	n := f.b.CreateElement("", "x-icon", nil, root)
	f.b.AppendElement(n, root)
	f.b.ElementPushed("", "x-icon", n)
	f.pop(n)
	f.b.Transition(StateSelfClosingStartTag, StateData, false, 8)

	tr := f.b.tree
	assert.True(t, tr.IsEmpty(n))
	assert.Equal(t, src, tr.Text(n))
	assert.Equal(t, len(src), semanticEnd(t, tr, n))

	text, _ := tr.NewText(0, 1)
	assert.False(t, tr.AddChild(n, text))
}

func TestUnterminatedTagAtEOF(t *testing.T) {
	src := `<div cla`
	f := newFeed(src)
	root := f.b.Root()

	f.b.Transition(StateData, StateTagOpen, false, 0)
	f.b.Transition(StateTagOpen, StateTagName, false, 1)
	f.b.Transition(StateTagName, StateBeforeAttributeName, false, 4)
	f.b.Transition(StateBeforeAttributeName, StateAttributeName, false, 5)
	attrs := []html.Attribute{{Key: "cla"}}
	f.b.StartTag("div", attrs, false)
	div := f.b.CreateElement("", "div", attrs, root)
	f.b.AppendElement(div, root)
	f.b.ElementPushed("", "div", div)
	f.b.Transition(StateAttributeName, StateEOF, false, len(src))
	f.pop(div)
	tr := f.b.Finish()

	assert.Equal(t, len(src), tr.To(div))
	assert.Equal(t, len(src), semanticEnd(t, tr, div))
	ids := tr.Attributes(div)
	require.Len(t, ids, 1)
	assert.Equal(t, "cla", tr.Name(ids[0]))
}

func TestFinishPopsLeftovers(t *testing.T) {
	f := newFeed("<b>x")
	root := f.b.Root()
	b := f.open(0, "b", root)
	tr := f.b.Finish()

	assert.Equal(t, 4, semanticEnd(t, tr, b))
	require.Len(t, f.b.Diagnostics(), 1)
	assert.Equal(t, DiagStructuralMismatch, f.b.Diagnostics()[0].Kind)
}

func TestStrayCloseTagKeepsSourceOrder(t *testing.T) {
	// <div></b>x</div>
	f := newFeed("<div></b>x</div>")
	root := f.b.Root()
	div := f.open(0, "div", root)

	f.closeLt(5, "b")
	f.b.EndTag("b")
	f.gt(8)
	f.b.AppendCharacters(div, 9, 10)

	f.closeLt(10, "div")
	f.b.EndTag("div")
	f.pop(div)
	f.gt(15)
	f.eof()
	tr := f.b.Finish()

	children := tr.Children(div)
	require.Len(t, children, 2)
	assert.Equal(t, "</b>", tr.Text(children[0]))
	assert.Equal(t, "x", tr.Text(children[1]))
	assert.Equal(t, 16, semanticEnd(t, tr, div))
}
