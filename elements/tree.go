package elements

import (
	"errors"
	"strings"
)

var (
	// ErrNotContainer is returned when an operation needs an open tag.
	ErrNotContainer = errors.New("node is not an open tag")

	// ErrAlreadyMatched is returned when either side of a tag pair is already matched.
	ErrAlreadyMatched = errors.New("tag is already matched")

	// ErrVirtualMatch is returned when a virtual element is paired with a close tag.
	ErrVirtualMatch = errors.New("virtual element cannot be matched")

	// ErrEmptyMatch is returned when a self-closing or void tag is paired with a close tag.
	ErrEmptyMatch = errors.New("empty tag cannot be matched")
)

// Tree is the result of one parse: an arena of nodes over an immutable source buffer.
// The root always has ID 0.
type Tree struct {
	source string
	nodes  []node
}

// Root returns the ID of the root node.
func (t *Tree) Root() ID { return 0 }

// Source returns the buffer the tree was built from.
func (t *Tree) Source() string { return t.source }

// Len returns the number of nodes allocated in the tree, attributes included.
func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) get(id ID) *node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}

// Kind returns the variant of id, or KindInvalid if id is not a node of t.
func (t *Tree) Kind(id ID) Kind {
	if n := t.get(id); n != nil {
		return n.kind
	}
	return KindInvalid
}

// IsVirtual reports whether id is an element implied by tree construction.
func (t *Tree) IsVirtual(id ID) bool {
	n := t.get(id)
	return n != nil && n.kind == KindOpenTag && n.flavour == flavourVirtual
}

// IsEmpty reports whether id is a self-closing or void open tag.
func (t *Tree) IsEmpty(id ID) bool {
	n := t.get(id)
	return n != nil && n.kind == KindOpenTag && n.flavour == flavourEmpty
}

// From returns the start offset of the node's literal extent, or -1 for virtual elements.
func (t *Tree) From(id ID) int {
	n := t.get(id)
	switch {
	case n == nil, n.kind == KindOpenTag && n.flavour == flavourVirtual:
		return -1
	case n.kind == KindRoot:
		return 0
	}
	return n.span.From()
}

// To returns the end offset (exclusive) of the node's literal extent, or -1 for virtual
// elements. For attributes it is the end of the value if there is one.
func (t *Tree) To(id ID) int {
	n := t.get(id)
	switch {
	case n == nil, n.kind == KindOpenTag && n.flavour == flavourVirtual:
		return -1
	case n.kind == KindRoot:
		return len(t.source)
	case n.kind == KindAttribute && n.hasValue:
		return n.value.To()
	}
	return n.span.To()
}

// Name returns the tag name as written in the source, the attribute name, or an empty
// string for text.
func (t *Tree) Name(id ID) string {
	if n := t.get(id); n != nil {
		return n.name
	}
	return ""
}

// Parent returns the container of id, or None.
func (t *Tree) Parent(id ID) ID {
	if n := t.get(id); n != nil {
		return n.parent
	}
	return None
}

// Children returns the ordered children of id.
func (t *Tree) Children(id ID) []ID {
	n := t.get(id)
	if n == nil {
		return nil
	}
	var ids []ID
	for c := n.first; c != None; c = t.nodes[c].next {
		ids = append(ids, c)
	}
	return ids
}

// FirstChild returns the first child of id, or None.
func (t *Tree) FirstChild(id ID) ID {
	if n := t.get(id); n != nil {
		return n.first
	}
	return None
}

// LastChild returns the last child of id, or None.
func (t *Tree) LastChild(id ID) ID {
	if n := t.get(id); n != nil {
		return n.last
	}
	return None
}

// NextSibling returns the sibling following id, or None.
func (t *Tree) NextSibling(id ID) ID {
	if n := t.get(id); n != nil {
		return n.next
	}
	return None
}

// PrevSibling returns the sibling preceding id, or None.
func (t *Tree) PrevSibling(id ID) ID {
	if n := t.get(id); n != nil {
		return n.prev
	}
	return None
}

// HasChildren reports whether id has at least one child.
func (t *Tree) HasChildren(id ID) bool {
	n := t.get(id)
	return n != nil && n.first != None
}

// Attributes returns the attribute nodes of an open tag in insertion order.
func (t *Tree) Attributes(id ID) []ID {
	n := t.get(id)
	if n == nil || len(n.attrs) == 0 {
		return nil
	}
	return append([]ID(nil), n.attrs...)
}

// SemanticEnd returns the offset where the element's content is understood to end. The
// second result is false while the element is still open. The root ends at the end of the
// source; close tags and text end where their literal extent ends.
func (t *Tree) SemanticEnd(id ID) (int, bool) {
	n := t.get(id)
	switch {
	case n == nil:
		return 0, false
	case n.kind == KindRoot:
		return len(t.source), true
	case n.kind == KindOpenTag:
		if n.semanticEnd < 0 {
			return 0, false
		}
		return int(n.semanticEnd), true
	}
	return t.To(id), true
}

// MatchingTag returns the close tag of an open tag, the open tag of a close tag, or None.
func (t *Tree) MatchingTag(id ID) ID {
	if n := t.get(id); n != nil {
		return n.match
	}
	return None
}

// ValueFrom returns the start of an attribute value (at the opening quote, if any), or -1
// for a valueless attribute.
func (t *Tree) ValueFrom(id ID) int {
	n := t.get(id)
	if n == nil || !n.hasValue {
		return -1
	}
	return n.value.From()
}

// Quote returns the quoting style of an attribute value.
func (t *Tree) Quote(id ID) Quote {
	if n := t.get(id); n != nil {
		return n.quote
	}
	return QuoteNone
}

// HasValue reports whether the attribute has a value part.
func (t *Tree) HasValue(id ID) bool {
	n := t.get(id)
	return n != nil && n.hasValue
}

// Value returns the literal attribute value including quotes.
func (t *Tree) Value(id ID) string {
	n := t.get(id)
	if n == nil || !n.hasValue {
		return ""
	}
	return t.source[n.value.From():n.value.To()]
}

// UnquotedValue returns the attribute value with the surrounding quotes removed. An
// unterminated quoted value loses only its opening quote.
func (t *Tree) UnquotedValue(id ID) string {
	v := t.Value(id)
	var q string
	switch t.Quote(id) {
	case QuoteSingle:
		q = "'"
	case QuoteDouble:
		q = `"`
	default:
		return v
	}
	v = strings.TrimPrefix(v, q)
	return strings.TrimSuffix(v, q)
}

// Text returns the literal source of a node's extent, or an empty string for virtual
// elements.
func (t *Tree) Text(id ID) string {
	from, to := t.From(id), t.To(id)
	if from < 0 || to < from || to > len(t.source) {
		return ""
	}
	return t.source[from:to]
}

// AddChild appends child to parent. It is a no-op, returning false, when parent cannot
// have children (empty tags, close tags, text, attributes) or when the move would make a
// node its own ancestor. A child attached elsewhere is detached first.
func (t *Tree) AddChild(parent, child ID) bool {
	if !t.acceptsChild(parent, child) {
		return false
	}
	t.DetachFromParent(child)
	p, c := &t.nodes[parent], &t.nodes[child]
	last := p.last
	if last != None {
		t.nodes[last].next = child
	} else {
		p.first = child
	}
	p.last = child
	c.parent = parent
	c.prev = last
	return true
}

// InsertChildBefore inserts child into parent immediately before anchor. It is a no-op
// when anchor is not currently a child of parent.
func (t *Tree) InsertChildBefore(parent, anchor, child ID) bool {
	a := t.get(anchor)
	if a == nil || a.parent != parent || anchor == child || !t.acceptsChild(parent, child) {
		return false
	}
	t.DetachFromParent(child)
	p, a, c := &t.nodes[parent], &t.nodes[anchor], &t.nodes[child]
	prev := a.prev
	if prev != None {
		t.nodes[prev].next = child
	} else {
		p.first = child
	}
	a.prev = child
	c.parent = parent
	c.prev = prev
	c.next = anchor
	return true
}

func (t *Tree) acceptsChild(parent, child ID) bool {
	p, c := t.get(parent), t.get(child)
	if p == nil || c == nil || parent == child || !p.canHaveChildren() {
		return false
	}
	switch c.kind {
	case KindRoot, KindAttribute:
		return false
	}
	for a := p.parent; a != None; a = t.nodes[a].parent {
		if a == child {
			return false
		}
	}
	return true
}

// RemoveChild detaches child if it is a child of parent.
func (t *Tree) RemoveChild(parent, child ID) {
	if c := t.get(child); c != nil && c.parent == parent && c.kind != KindAttribute {
		t.unlink(child)
	}
}

// RemoveChildren detaches every node of batch that is a child of parent.
func (t *Tree) RemoveChildren(parent ID, batch []ID) {
	for _, c := range batch {
		t.RemoveChild(parent, c)
	}
}

// DetachFromParent removes id from whatever holds it. It is safe to call on a detached
// node.
func (t *Tree) DetachFromParent(id ID) {
	n := t.get(id)
	if n == nil || n.parent == None {
		return
	}
	if n.kind == KindAttribute {
		p := &t.nodes[n.parent]
		for i, a := range p.attrs {
			if a == id {
				p.attrs = append(p.attrs[:i], p.attrs[i+1:]...)
				break
			}
		}
		n.parent = None
		return
	}
	t.unlink(id)
}

func (t *Tree) unlink(id ID) {
	c := &t.nodes[id]
	p := &t.nodes[c.parent]
	if p.first == id {
		p.first = c.next
	}
	if c.next != None {
		t.nodes[c.next].prev = c.prev
	}
	if p.last == id {
		p.last = c.prev
	}
	if c.prev != None {
		t.nodes[c.prev].next = c.next
	}
	c.parent = None
	c.prev = None
	c.next = None
}

// AddAttribute attaches an attribute node to an open tag.
func (t *Tree) AddAttribute(tag, attr ID) error {
	n, a := t.get(tag), t.get(attr)
	if n == nil || n.kind != KindOpenTag || a == nil || a.kind != KindAttribute {
		return ErrNotContainer
	}
	t.DetachFromParent(attr)
	n.attrs = append(n.attrs, attr)
	a.parent = tag
	return nil
}

// SetEndOffset moves the physical end of a tag or text node. Virtual elements and the root
// ignore it. When the new extent is too long, the span saturates and ErrSpanOverflow is
// returned.
func (t *Tree) SetEndOffset(id ID, end int) error {
	n := t.get(id)
	if n == nil || n.kind == KindRoot || n.kind == KindAttribute || n.flavour == flavourVirtual {
		return nil
	}
	if end > len(t.source) {
		end = len(t.source)
	}
	s, err := NewSpan(n.span.From(), end)
	if err != nil {
		s = ClampSpan(n.span.From(), end)
	}
	n.span = s
	return err
}

// SetSemanticEndOffset records where an open tag's content ends.
func (t *Tree) SetSemanticEndOffset(id ID, off int) {
	n := t.get(id)
	if n == nil || n.kind != KindOpenTag {
		return
	}
	if off < 0 {
		off = 0
	}
	if off > len(t.source) {
		off = len(t.source)
	}
	n.semanticEnd = int32(off)
}

// SetMatchingTag links an open tag with its close tag. Each side can be linked only once
// and virtual elements cannot be linked at all.
func (t *Tree) SetMatchingTag(open, closeTag ID) error {
	o, c := t.get(open), t.get(closeTag)
	if o == nil || o.kind != KindOpenTag || c == nil || c.kind != KindCloseTag {
		return ErrNotContainer
	}
	switch o.flavour {
	case flavourVirtual:
		return ErrVirtualMatch
	case flavourEmpty:
		return ErrEmptyMatch
	}
	if o.match != None || c.match != None {
		return ErrAlreadyMatched
	}
	o.match, c.match = closeTag, open
	return nil
}

// Walk visits id and its descendants depth-first in document order. Returning false from
// fn skips the children of the visited node.
func (t *Tree) Walk(id ID, fn func(id ID, depth int) bool) {
	t.walk(id, 0, fn)
}

func (t *Tree) walk(id ID, depth int, fn func(ID, int) bool) {
	if t.get(id) == nil || !fn(id, depth) {
		return
	}
	for c := t.nodes[id].first; c != None; c = t.nodes[c].next {
		t.walk(c, depth+1, fn)
	}
}
