// Package builder assembles an offset-annotated elements.Tree from the callbacks of an
// HTML5 tree-construction algorithm.
//
// The callbacks alone do not say where a tag ends in the source, nor which literal close
// tag ended an element: end tags are reported before the elements they close are popped,
// and a tag's '>' is seen only after the tree has been updated for it. Builder therefore
// keeps its own stack of open elements and a queue of close tags that were seen but not yet
// matched, and watches raw tokenizer transitions to recover exact offsets.
package builder

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dpotapov/go-htmltree/elements"
	"golang.org/x/net/html"
	a "golang.org/x/net/html/atom"
)

// A Builder is used for exactly one parse of one source buffer.
type Builder struct {
	tree   *elements.Tree
	source string
	logger *slog.Logger

	// stack mirrors the open elements of the tree constructor; stack[0] is the root.
	stack []elements.ID
	// pending holds lexical close tags not yet matched with a popped element, oldest first.
	pending []elements.ID

	// currentOpenTag and currentCloseTag wait for the '>' that ends them.
	currentOpenTag, currentCloseTag elements.ID

	// startTagName is the name of the lexical start tag being processed; createElement
	// calls for any other name are implied elements.
	startTagName string
	selfClosing  bool
	// tagLt is the offset of the '<' of the tag being lexed, -1 between tags.
	tagLt      int
	tagNameEnd int
	attrs      []AttrRecord
	state      State
	offset     int

	diags []Diagnostic
}

// New returns a Builder for source. A nil logger discards log output.
func New(source string, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	t := elements.NewTree(source)
	return &Builder{
		tree:            t,
		source:          source,
		logger:          logger,
		stack:           []elements.ID{t.Root()},
		currentOpenTag:  elements.None,
		currentCloseTag: elements.None,
		tagLt:           -1,
		tagNameEnd:      -1,
	}
}

// Tree returns the tree under construction.
func (b *Builder) Tree() *elements.Tree { return b.tree }

// Diagnostics returns the anomalies recovered from so far.
func (b *Builder) Diagnostics() []Diagnostic { return b.diags }

// Root returns the root node, the bottom of the open element stack.
func (b *Builder) Root() elements.ID { return b.tree.Root() }

func (b *Builder) top() elements.ID {
	return b.stack[len(b.stack)-1]
}

// StartTag announces the lexical start tag the following createElement calls belong to.
func (b *Builder) StartTag(name string, attrs []html.Attribute, selfClosing bool) {
	b.startTagName = name
	b.selfClosing = b.selfClosing || selfClosing
}

// EndTag records a lexical close tag. It waits in the pending queue until the element it
// closes is popped, or until it is found to be stray.
func (b *Builder) EndTag(name string) {
	b.startTagName = ""
	from := b.tagLt
	if from < 0 {
		b.report(DiagInternal, b.offset, fmt.Errorf("end tag %q without '<'", name))
		return
	}
	id, err := b.tree.NewCloseTag(from, b.nameEnd(from, 2, name), b.nameLen(from, 2, name))
	if id == elements.None {
		b.report(DiagInternal, from, fmt.Errorf("close tag %q: %w", name, err))
		return
	}
	if err != nil {
		b.report(DiagSpanOverflow, from, err)
	}
	b.pending = append(b.pending, id)
	b.currentCloseTag = id
}

// nameLen returns the length of the tag name as written in the source. prefix is the
// length of "<" or "</".
func (b *Builder) nameLen(from, prefix int, name string) int {
	if b.tagNameEnd >= from+prefix {
		return b.tagNameEnd - from - prefix
	}
	n := len(name)
	if from+prefix+n > len(b.source) {
		n = len(b.source) - from - prefix
	}
	if n < 0 {
		n = 0
	}
	return n
}

func (b *Builder) nameEnd(from, prefix int, name string) int {
	return from + prefix + b.nameLen(from, prefix, name)
}

// CreateElement creates the node for an element the tree constructor is about to insert.
// The element is real if it corresponds to the lexical start tag being processed and
// virtual otherwise.
func (b *Builder) CreateElement(ns, name string, attrs []html.Attribute, context elements.ID) elements.ID {
	if b.startTagName == "" || !strings.EqualFold(b.startTagName, name) || b.tagLt < 0 {
		return b.virtual(name)
	}
	b.startTagName = ""

	from := b.tagLt
	to := b.nameEnd(from, 1, name)
	nameLen := b.nameLen(from, 1, name)

	var id elements.ID
	var err error
	if (b.selfClosing && !isSection(name)) || (ns == "" && isVoid(name)) {
		id, err = b.tree.NewEmptyOpenTag(from, to, nameLen)
	} else {
		id, err = b.tree.NewOpenTag(from, to, nameLen)
	}
	if id == elements.None {
		b.report(DiagInternal, from, fmt.Errorf("open tag %q: %w", name, err))
		return b.virtual(name)
	}
	if err != nil {
		b.report(DiagSpanOverflow, from, err)
	}
	b.currentOpenTag = id
	b.attachAttributes(id, attrs)
	return id
}

// virtual creates an implied element. Attributes of implied elements (clones made by the
// adoption agency, for instance) have no literal source and are not represented.
func (b *Builder) virtual(name string) elements.ID {
	b.logger.Debug("Implied element", "name", name, "offset", b.offset)
	return b.tree.NewVirtualOpenTag(name)
}

// CreateHTMLElementSetAsRoot creates the html element and makes it the first child of the
// root.
func (b *Builder) CreateHTMLElementSetAsRoot(attrs []html.Attribute) elements.ID {
	id := b.CreateElement("", a.Html.String(), attrs, elements.None)
	b.tree.AddChild(b.Root(), id)
	return id
}

// AddAttributesToElement adds attributes of a repeated html or body start tag to the
// existing element. attrs holds only the attributes n does not have yet; the extents of the
// other attributes of the tag are left out.
func (b *Builder) AddAttributesToElement(n elements.ID, attrs []html.Attribute) {
	if len(attrs) == 0 {
		return
	}
	var records []AttrRecord
	for _, r := range b.closedAttrs() {
		for _, attr := range attrs {
			if sameName(b.source, r, attr) {
				records = append(records, r)
				break
			}
		}
	}
	b.reconcile(n, records, attrs)
}

func (b *Builder) attachAttributes(n elements.ID, attrs []html.Attribute) {
	if len(attrs) == 0 && len(b.attrs) == 0 {
		return
	}
	b.reconcile(n, b.closedAttrs(), attrs)
}

func (b *Builder) reconcile(n elements.ID, records []AttrRecord, attrs []html.Attribute) {
	pairs, discarded := Reconcile(b.source, b.tree.From(n), records, attrs)
	if discarded > 0 {
		b.report(DiagAttributeDesync, b.tagLt, fmt.Errorf("%d attribute(s) of <%s> not reconciled", discarded, b.tree.Name(n)))
	}
	for _, p := range pairs {
		r := p.Record
		valueLen := 0
		if r.ValueFrom >= 0 {
			valueLen = r.ValueEnd - r.ValueFrom
		}
		attr, err := b.tree.NewAttribute(r.NameFrom, r.NameEnd-r.NameFrom, r.ValueFrom, valueLen, r.Quote)
		if err != nil {
			b.report(DiagAttributeDesync, r.NameFrom, fmt.Errorf("attribute %q: %w", p.Reported.Key, err))
			continue
		}
		if err := b.tree.AddAttribute(n, attr); err != nil {
			b.report(DiagAttributeDesync, r.NameFrom, err)
		}
	}
}

// ElementPushed records that n became the current node. Close tags still pending were
// seen before n and match nothing on the stack; they are kept as stray children of n, or
// of the current node if n cannot have children.
func (b *Builder) ElementPushed(ns, name string, n elements.ID) {
	b.stack = append(b.stack, n)
	if b.tree.IsVirtual(n) || len(b.pending) == 0 {
		return
	}
	if b.tree.IsEmpty(n) {
		// keep source order: the close tags precede n
		holder := b.stack[len(b.stack)-2]
		for _, c := range b.pending {
			if !b.tree.InsertChildBefore(b.tree.Parent(n), n, c) {
				b.tree.AddChild(holder, c)
			}
		}
	} else {
		for _, c := range b.pending {
			b.tree.AddChild(n, c)
		}
	}
	b.pending = b.pending[:0]
}

// ElementPopped records that n is no longer open, pairs it with its close tag and decides
// where its content ends.
func (b *Builder) ElementPopped(ns, name string, n elements.ID) {
	b.pop(n)

	matched := false
	if !b.tree.IsVirtual(n) && !b.tree.IsEmpty(n) {
		matched = b.match(n)
	}
	if !matched {
		b.tree.SetSemanticEndOffset(n, b.impliedEnd(n))
	}

	if len(b.stack) == 1 && len(b.pending) > 0 {
		b.adoptAll(n, b.pending)
		b.pending = b.pending[:0]
	}
}

// pop removes n from the stack. If n is not the current node the stack order is kept and
// only n is removed.
func (b *Builder) pop(n elements.ID) {
	i := len(b.stack) - 1
	for ; i > 0; i-- {
		if b.stack[i] == n {
			break
		}
	}
	switch {
	case i == 0:
		b.report(DiagStructuralMismatch, b.offset, fmt.Errorf("popped <%s> is not open", b.tree.Name(n)))
	case i != len(b.stack)-1:
		b.report(DiagStructuralMismatch, b.offset, fmt.Errorf("popped <%s> is not the current node <%s>", b.tree.Name(n), b.tree.Name(b.top())))
		b.stack = append(b.stack[:i], b.stack[i+1:]...)
	default:
		b.stack = b.stack[:i]
	}
}

// match looks for the first pending close tag named like n. Close tags queued before the
// match are stray and become children of n.
func (b *Builder) match(n elements.ID) bool {
	name := b.tree.Name(n)
	for i, c := range b.pending {
		if !strings.EqualFold(b.tree.Name(c), name) {
			continue
		}
		b.adoptAll(n, b.pending[:i])
		b.pending = append(b.pending[:0], b.pending[i+1:]...)

		if err := b.tree.SetMatchingTag(n, c); err != nil {
			b.report(DiagInternal, b.tree.From(c), err)
			return false
		}
		end := b.tree.To(c)
		if c == b.currentCloseTag && b.tagLt >= 0 {
			// '>' not seen yet: stop right after "</name"
			end = b.tree.From(c) + len(b.tree.Name(c)) + 2
		}
		b.tree.SetSemanticEndOffset(n, end)
		return true
	}
	b.logger.Debug("Implicitly closed", "name", name, "pending", len(b.pending))
	return false
}

// adoptAll adopts the stray close tags cs, latest first, so that each one is placed next
// to the end of the children.
func (b *Builder) adoptAll(n elements.ID, cs []elements.ID) {
	for i := len(cs) - 1; i >= 0; i-- {
		b.adopt(n, cs[i])
	}
}

// adopt makes the stray close tag c a child of n, ahead of the first child that starts
// after it in the source. Children are scanned from the end, where stray tags nearly
// always belong.
func (b *Builder) adopt(n, c elements.ID) {
	from := b.tree.From(c)
	before := elements.None
	for k := b.tree.LastChild(n); k != elements.None; k = b.tree.PrevSibling(k) {
		f := b.tree.From(k)
		if f > from {
			before = k
		} else if f >= 0 {
			break
		}
	}
	if before != elements.None && b.tree.InsertChildBefore(n, before, c) {
		return
	}
	b.tree.AddChild(n, c)
}

// impliedEnd picks the closest plausible end for an element without a close tag: the
// latest pending close tag, else the start of the tag being lexed, else the current offset.
func (b *Builder) impliedEnd(n elements.ID) int {
	if len(b.pending) > 0 {
		return b.tree.From(b.pending[len(b.pending)-1])
	}
	if b.tagLt >= 0 && b.tagLt > b.tree.From(n) {
		return b.tagLt
	}
	if to := b.tree.To(n); b.offset < to {
		return to
	}
	return b.offset
}

// AppendElement appends child to parent.
func (b *Builder) AppendElement(child, parent elements.ID) {
	if !b.tree.AddChild(parent, child) {
		b.logger.Debug("Append ignored", "child", b.tree.Name(child), "parent", b.tree.Name(parent))
	}
}

// AppendCharacters appends the text [from, to) to parent, extending the last child when it
// is text ending at from.
func (b *Builder) AppendCharacters(parent elements.ID, from, to int) {
	if to <= from {
		return
	}
	if last := b.tree.LastChild(parent); last != elements.None && b.extendText(last, from, to) {
		return
	}
	for _, t := range b.texts(from, to) {
		b.tree.AddChild(parent, t)
	}
}

func (b *Builder) extendText(t elements.ID, from, to int) bool {
	if b.tree.Kind(t) != elements.KindText || b.tree.To(t) != from || to-b.tree.From(t) > elements.MaxSpanLength {
		return false
	}
	return b.tree.SetEndOffset(t, to) == nil
}

// texts creates text nodes for [from, to), splitting runs too long for a single span.
func (b *Builder) texts(from, to int) []elements.ID {
	var ids []elements.ID
	for from < to {
		end := min(to, from+elements.MaxSpanLength)
		id, err := b.tree.NewText(from, end)
		if err != nil {
			b.report(DiagInternal, from, err)
			break
		}
		ids = append(ids, id)
		from = end
	}
	return ids
}

// DetachFromParent removes n from its parent.
func (b *Builder) DetachFromParent(n elements.ID) {
	b.tree.DetachFromParent(n)
}

// HasChildren reports whether n has children.
func (b *Builder) HasChildren(n elements.ID) bool {
	return b.tree.HasChildren(n)
}

// InsertFosterParentedChild inserts child right before table, or appends it to
// stackParent when table is not in the tree.
func (b *Builder) InsertFosterParentedChild(child, table, stackParent elements.ID) {
	if parent := b.tree.Parent(table); parent != elements.None {
		if b.tree.InsertChildBefore(parent, table, child) {
			return
		}
	}
	b.tree.AddChild(stackParent, child)
}

// InsertFosterParentedCharacters is InsertFosterParentedChild for text.
func (b *Builder) InsertFosterParentedCharacters(from, to int, table, stackParent elements.ID) {
	if to <= from {
		return
	}
	parent := b.tree.Parent(table)
	if parent == elements.None {
		b.AppendCharacters(stackParent, from, to)
		return
	}
	if prev := b.tree.PrevSibling(table); prev != elements.None && b.extendText(prev, from, to) {
		return
	}
	for _, t := range b.texts(from, to) {
		b.tree.InsertChildBefore(parent, table, t)
	}
}

// CreateAndInsertFosterParentedElement creates an element and foster parents it.
func (b *Builder) CreateAndInsertFosterParentedElement(ns, name string, attrs []html.Attribute, table, stackParent elements.ID) elements.ID {
	id := b.CreateElement(ns, name, attrs, stackParent)
	b.InsertFosterParentedChild(id, table, stackParent)
	return id
}

// AppendChildrenToNewParent moves all children of from to the end of to, keeping their
// order.
func (b *Builder) AppendChildrenToNewParent(from, to elements.ID) {
	children := b.tree.Children(from)
	b.tree.RemoveChildren(from, children)
	for _, c := range children {
		b.tree.AddChild(to, c)
	}
}

// Finish closes the parse at the end of the source: a tag cut off by the end of input
// extends to it, and close tags nothing claimed are kept under the root.
func (b *Builder) Finish() *elements.Tree {
	if b.state != StateEOF {
		b.Transition(b.state, StateEOF, false, len(b.source))
	}
	for len(b.stack) > 1 {
		n := b.top()
		b.report(DiagStructuralMismatch, b.offset, fmt.Errorf("<%s> left open", b.tree.Name(n)))
		b.ElementPopped("", b.tree.Name(n), n)
	}
	b.adoptAll(b.Root(), b.pending)
	b.pending = nil
	return b.tree
}

// voidElements never have content; a start tag for them is an empty tag even without "/>".
var voidElements = map[a.Atom]bool{
	a.Area: true, a.Base: true, a.Basefont: true, a.Bgsound: true, a.Br: true, a.Col: true,
	a.Embed: true, a.Frame: true, a.Hr: true, a.Img: true, a.Input: true, a.Keygen: true,
	a.Link: true, a.Meta: true, a.Param: true, a.Source: true, a.Track: true, a.Wbr: true,
}

func isVoid(name string) bool {
	return voidElements[a.Lookup([]byte(strings.ToLower(name)))]
}

// isSection reports whether name is one of the document sections, which stay open even
// when written as "<body/>".
func isSection(name string) bool {
	switch a.Lookup([]byte(strings.ToLower(name))) {
	case a.Html, a.Head, a.Body:
		return true
	}
	return false
}
