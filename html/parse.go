// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package html

import (
	"io"
	"strings"

	"github.com/dpotapov/go-htmltree/builder"
	"github.com/dpotapov/go-htmltree/elements"
	"golang.org/x/net/html"
	a "golang.org/x/net/html/atom"
)

// A parser implements the HTML5 parsing algorithm:
// https://html.spec.whatwg.org/multipage/syntax.html#tree-construction
//
// It does not build nodes itself: every tree mutation is a TreeBuilder callback, and
// the parser keeps just enough about each element to make its own decisions.
type parser struct {
	tb TreeBuilder
	lx *lexer
	// tok is the most recently read token, [from, to) its extent in the source. For text
	// tokens from moves forward as leading whitespace is dealt with.
	tok      html.Token
	from, to int
	// real is set while tok is a start tag of the source that has not produced its element
	// yet. Implied tokens and clones never set it.
	real bool
	// added is the element created for the current start tag.
	added *element
	// Self-closing tags like <hr/> are treated as start tags, except that
	// hasSelfClosingToken is set while they are being processed.
	hasSelfClosingToken bool
	// doc is the bottom of the stack of open elements and stands for the root node.
	doc *element
	// The stack of open elements (section 12.2.4.2) and active formatting
	// elements (section 12.2.4.3).
	oe, afe elementStack
	// Element pointers (section 12.2.4.4).
	head, form *element
	// im is the current insertion mode.
	im insertionMode
	// originalIM is the insertion mode to go back to after completing a text
	// insertion mode.
	originalIM insertionMode
	// fosterParenting is whether new elements should be inserted according to
	// the foster parenting rules (section 12.2.6.1).
	fosterParenting bool
	// state is the tokenizer state the TreeBuilder last heard of.
	state       builder.State
	doctypeSeen bool
}

func (p *parser) top() *element {
	if n := p.oe.top(); n != nil {
		return n
	}
	return p.doc
}

func lookupAtom(name string) a.Atom {
	return a.Lookup([]byte(name))
}

// Stop tags for use in popUntil. These come from section 12.2.4.2.
var (
	defaultScopeStopTags = map[string][]a.Atom{
		"":     {a.Applet, a.Caption, a.Html, a.Table, a.Td, a.Th, a.Marquee, a.Object, a.Template},
		"math": {a.AnnotationXml, a.Mi, a.Mn, a.Mo, a.Ms, a.Mtext},
		"svg":  {a.Desc, a.ForeignObject, a.Title},
	}
)

type scope int

const (
	defaultScope scope = iota
	listItemScope
	buttonScope
	tableScope
	tableRowScope
	tableBodyScope
	selectScope
)

// popUntil pops the stack of open elements at the highest element whose tag
// is in matchTags, provided there is no higher element in the scope's stop
// tags (as defined in section 12.2.4.2). It returns whether or not there was
// such an element. If there was not, popUntil leaves the stack unchanged.
//
// For example, the set of stop tags for table scope is: "html", "table". If
// the stack was:
// ["html", "body", "font", "table", "b", "i", "u"]
// then popUntil(tableScope, "font") would return false, but
// popUntil(tableScope, "i") would return true and the stack would become:
// ["html", "body", "font", "table", "b"]
//
// If an element's tag is in both the stop tags and matchTags, then the stack
// will be popped and the function returns true (provided, of course, there was
// no higher element in the stack that was also in the stop tags). For example,
// popUntil(tableScope, "table") returns true and leaves:
// ["html", "body", "font"]
func (p *parser) popUntil(s scope, matchTags ...a.Atom) bool {
	if i := p.indexOfElementInScope(s, matchTags...); i != -1 {
		p.popTo(i)
		return true
	}
	return false
}

// indexOfElementInScope returns the index in p.oe of the highest element whose
// tag is in matchTags that is in scope. If no matching element is in scope, it
// returns -1. The root at the bottom of the stack is never matched.
func (p *parser) indexOfElementInScope(s scope, matchTags ...a.Atom) int {
	for i := len(p.oe) - 1; i > 0; i-- {
		tagAtom := p.oe[i].atom
		if p.oe[i].ns == "" {
			for _, t := range matchTags {
				if t == tagAtom {
					return i
				}
			}
			switch s {
			case defaultScope:
				// No-op.
			case listItemScope:
				if tagAtom == a.Ol || tagAtom == a.Ul {
					return -1
				}
			case buttonScope:
				if tagAtom == a.Button {
					return -1
				}
			case tableScope:
				if tagAtom == a.Html || tagAtom == a.Table || tagAtom == a.Template {
					return -1
				}
			case selectScope:
				if tagAtom != a.Optgroup && tagAtom != a.Option {
					return -1
				}
			default:
				panic("unreachable")
			}
		}
		switch s {
		case defaultScope, listItemScope, buttonScope:
			for _, t := range defaultScopeStopTags[p.oe[i].ns] {
				if t == tagAtom {
					return -1
				}
			}
		}
	}
	return -1
}

// elementInScope is like popUntil, except that it doesn't modify the stack of
// open elements.
func (p *parser) elementInScope(s scope, matchTags ...a.Atom) bool {
	return p.indexOfElementInScope(s, matchTags...) != -1
}

// clearStackToContext pops elements off the stack of open elements until a
// scope-defined element is found.
func (p *parser) clearStackToContext(s scope) {
	for i := len(p.oe) - 1; i > 0; i-- {
		tagAtom := p.oe[i].atom
		switch s {
		case tableScope:
			if tagAtom == a.Html || tagAtom == a.Table || tagAtom == a.Template {
				p.popTo(i + 1)
				return
			}
		case tableRowScope:
			if tagAtom == a.Html || tagAtom == a.Tr || tagAtom == a.Template {
				p.popTo(i + 1)
				return
			}
		case tableBodyScope:
			if tagAtom == a.Html || tagAtom == a.Tbody || tagAtom == a.Tfoot || tagAtom == a.Thead || tagAtom == a.Template {
				p.popTo(i + 1)
				return
			}
		default:
			panic("unreachable")
		}
	}
	p.popTo(1)
}

// parseGenericRawTextElement implements the generic raw text element parsing
// algorithm defined in 12.2.6.2.
// https://html.spec.whatwg.org/multipage/parsing.html#parsing-elements-that-contain-only-text
func (p *parser) parseGenericRawTextElement() {
	p.addElement()
	p.setOriginalIM()
	p.im = textIM
}

// generateImpliedEndTags pops nodes off the stack of open elements as long as
// the top node has a tag name of dd, dt, li, optgroup, option, p, rb, rp, rt or rtc.
// If exceptions are specified, nodes with that name will not be popped off.
func (p *parser) generateImpliedEndTags(exceptions ...string) {
	var i int
loop:
	for i = len(p.oe) - 1; i > 0; i-- {
		n := p.oe[i]
		if n.ns != "" {
			break
		}
		switch n.atom {
		case a.Dd, a.Dt, a.Li, a.Optgroup, a.Option, a.P, a.Rb, a.Rp, a.Rt, a.Rtc:
			for _, except := range exceptions {
				if n.name == except {
					break loop
				}
			}
			continue
		}
		break
	}

	p.popTo(i + 1)
}

// push makes e the current node.
func (p *parser) push(e *element) {
	p.oe = append(p.oe, e)
	p.tb.ElementPushed(e.ns, e.name, e.id)
}

// pop pops the current node. The root is never popped.
func (p *parser) pop() *element {
	if len(p.oe) <= 1 {
		return nil
	}
	e := p.oe.pop()
	p.tb.ElementPopped(e.ns, e.name, e.id)
	return e
}

// popTo pops elements until the stack has n of them.
func (p *parser) popTo(n int) {
	for len(p.oe) > n && len(p.oe) > 1 {
		p.pop()
	}
}

// removeOpen takes e off the stack of open elements wherever it is.
func (p *parser) removeOpen(e *element) {
	if i := p.oe.index(e); i > 0 {
		p.oe.remove(e)
		p.tb.ElementPopped(e.ns, e.name, e.id)
	}
}

// shouldFosterParent returns whether the next node to be added should be
// foster parented.
func (p *parser) shouldFosterParent() bool {
	if p.fosterParenting {
		switch p.top().atom {
		case a.Table, a.Tbody, a.Tfoot, a.Thead, a.Tr:
			return true
		}
	}
	return false
}

// fosterTarget finds the table that foster parented content goes before, and the element
// below it on the stack. Without a table the content goes to the root.
// Section 12.2.6.1, "foster parenting".
func (p *parser) fosterTarget() (table, stackParent elements.ID) {
	for i := len(p.oe) - 1; i > 0; i-- {
		if p.oe[i].atom == a.Table && p.oe[i].ns == "" {
			return p.oe[i].id, p.oe[i-1].id
		}
	}
	return elements.None, p.oe[0].id
}

// fosterParent moves an existing node according to the foster parenting rules.
func (p *parser) fosterParent(n elements.ID) {
	table, stackParent := p.fosterTarget()
	p.tb.DetachFromParent(n)
	p.tb.InsertFosterParentedChild(n, table, stackParent)
}

// insert creates the node for e where the next node belongs and pushes it.
func (p *parser) insert(e *element) {
	if p.shouldFosterParent() {
		table, stackParent := p.fosterTarget()
		e.id = p.tb.CreateAndInsertFosterParentedElement(e.ns, e.name, e.attrs, table, stackParent)
	} else {
		parent := p.top()
		e.id = p.tb.CreateElement(e.ns, e.name, e.attrs, parent.id)
		p.tb.AppendElement(e.id, parent.id)
	}
	p.push(e)
}

// addText adds the source text [from, to) to the current node, or foster parents it.
func (p *parser) addText(from, to int) {
	if to <= from {
		return
	}
	if p.shouldFosterParent() {
		table, stackParent := p.fosterTarget()
		p.tb.InsertFosterParentedCharacters(from, to, table, stackParent)
		return
	}
	p.tb.AppendCharacters(p.top().id, from, to)
}

// text returns what is left of the current text token.
func (p *parser) text() string {
	return p.lx.src[p.from:p.to]
}

// skipSpace drops the leading whitespace of the current text token and reports whether
// anything is left.
func (p *parser) skipSpace() bool {
	s := p.text()
	p.from += len(s) - len(strings.TrimLeft(s, whitespace))
	return p.from < p.to
}

// splitSpace adds the leading whitespace of the current text token to the current node
// and reports whether anything is left.
func (p *parser) splitSpace() bool {
	from := p.from
	if !p.skipSpace() {
		p.addText(from, p.to)
		return false
	}
	p.addText(from, p.from)
	return true
}

func isAllSpace(s string) bool {
	return strings.Trim(s, whitespace) == ""
}

// leadingNewline returns the length of a line break at the start of s.
func leadingNewline(s string) int {
	switch {
	case strings.HasPrefix(s, "\r\n"):
		return 2
	case strings.HasPrefix(s, "\n"), strings.HasPrefix(s, "\r"):
		return 1
	}
	return 0
}

// announce tells the TreeBuilder that the next element belongs to the start tag of the
// source being processed.
func (p *parser) announce() bool {
	if !p.real || p.tok.Type != html.StartTagToken {
		return false
	}
	p.real = false
	p.tb.StartTag(p.tok.Data, p.tok.Attr, p.hasSelfClosingToken)
	return true
}

// addElement adds a child element based on the current token.
func (p *parser) addElement() {
	p.addElementNS("")
}

func (p *parser) addElementNS(ns string) {
	real := p.announce()
	e := &element{atom: p.tok.DataAtom, name: p.tok.Data, ns: ns, attrs: p.tok.Attr}
	p.insert(e)
	if real {
		p.added = e
	}
}

// addHTML creates the html element under the root.
func (p *parser) addHTML() {
	real := p.announce()
	e := &element{atom: a.Html, name: a.Html.String(), attrs: p.tok.Attr}
	e.id = p.tb.CreateHTMLElementSetAsRoot(p.tok.Attr)
	p.push(e)
	if real {
		p.added = e
	}
}

// addAttributes hands the attributes of a repeated html or body tag to e, skipping those
// e already has.
func (p *parser) addAttributes(e *element) {
	var attrs []html.Attribute
	for _, t := range p.tok.Attr {
		if !hasAttr(e.attrs, t.Key) {
			attrs = append(attrs, t)
		}
	}
	if len(attrs) == 0 {
		return
	}
	p.tb.AddAttributesToElement(e.id, attrs)
	e.attrs = append(e.attrs, attrs...)
}

func hasAttr(attrs []html.Attribute, key string) bool {
	for _, attr := range attrs {
		if attr.Key == key {
			return true
		}
	}
	return false
}

// Section 12.2.4.3.
func (p *parser) addFormattingElement() {
	tagAtom, attr := p.tok.DataAtom, p.tok.Attr
	p.addElement()

	// Implement the Noah's Ark clause, but with three per family instead of two.
	identicalElements := 0
findIdenticalElements:
	for i := len(p.afe) - 1; i >= 0; i-- {
		n := p.afe[i]
		if n.marker {
			break
		}
		if n.ns != "" {
			continue
		}
		if n.atom != tagAtom {
			continue
		}
		if len(n.attrs) != len(attr) {
			continue
		}
	compareAttributes:
		for _, t0 := range n.attrs {
			for _, t1 := range attr {
				if t0.Key == t1.Key && t0.Namespace == t1.Namespace && t0.Val == t1.Val {
					// Found a match for this attribute, continue with the next attribute.
					continue compareAttributes
				}
			}
			// If we get here, there is no attribute that matches a.
			// Therefore the element is not identical to the new one.
			continue findIdenticalElements
		}

		identicalElements++
		if identicalElements >= 3 {
			p.afe.remove(n)
		}
	}

	p.afe = append(p.afe, p.top())
}

// Section 12.2.4.3.
func (p *parser) clearActiveFormattingElements() {
	for len(p.afe) > 0 {
		if n := p.afe.pop(); n.marker {
			return
		}
	}
}

// Section 12.2.4.3.
func (p *parser) reconstructActiveFormattingElements() {
	n := p.afe.top()
	if n == nil {
		return
	}
	if n.marker || p.oe.index(n) != -1 {
		return
	}
	i := len(p.afe) - 1
	for !n.marker && p.oe.index(n) == -1 {
		if i == 0 {
			i = -1
			break
		}
		i--
		n = p.afe[i]
	}
	for {
		i++
		clone := p.afe[i].shallow()
		p.insert(clone)
		p.afe[i] = clone
		if i == len(p.afe)-1 {
			break
		}
	}
}

// Section 12.2.5.
func (p *parser) acknowledgeSelfClosingTag() {
	p.hasSelfClosingToken = false
}

// An insertion mode (section 12.2.4.1) is the state transition function from
// a particular state in the HTML5 parser's state machine. It updates the
// parser's fields depending on parser.tok (where ErrorToken means EOF).
// It returns whether the token was consumed.
type insertionMode func(*parser) bool

// setOriginalIM sets the insertion mode to return to after completing a text
// insertion mode.
// Section 12.2.4.1, "using the rules for".
func (p *parser) setOriginalIM() {
	if p.originalIM != nil {
		panic("html: bad parser state: originalIM was set twice")
	}
	p.originalIM = p.im
}

// Section 12.2.4.1, "reset the insertion mode".
func (p *parser) resetInsertionMode() {
	for i := len(p.oe) - 1; i >= 0; i-- {
		n := p.oe[i]
		if i == 0 {
			p.im = inBodyIM
			if n.atom == 0 {
				// the root of a document
				p.im = afterBodyIM
			}
			return
		}
		if n.ns != "" {
			continue
		}
		switch n.atom {
		case a.Select:
			p.im = inSelectIM
			for j := i - 1; j > 0; j-- {
				if p.oe[j].atom == a.Table && p.oe[j].ns == "" {
					p.im = inSelectInTableIM
					break
				}
			}
		case a.Td, a.Th:
			p.im = inCellIM
		case a.Tr:
			p.im = inRowIM
		case a.Tbody, a.Thead, a.Tfoot:
			p.im = inTableBodyIM
		case a.Caption:
			p.im = inCaptionIM
		case a.Colgroup:
			p.im = inColumnGroupIM
		case a.Table:
			p.im = inTableIM
		case a.Head:
			p.im = inHeadIM
		case a.Body:
			p.im = inBodyIM
		case a.Html:
			if p.head == nil {
				p.im = beforeHeadIM
			} else {
				p.im = afterHeadIM
			}
		default:
			continue
		}
		return
	}
}

const whitespace = " \t\r\n\f"

func inBodyIM(p *parser) bool {
	switch p.tok.Type {
	case html.TextToken:
		from := p.from
		switch n := p.top(); n.atom {
		case a.Pre, a.Listing:
			if n.ns == "" && !p.tb.HasChildren(n.id) {
				// Ignore a newline at the start of a <pre> block.
				from += leadingNewline(p.text())
			}
		}
		if strings.ReplaceAll(p.lx.src[from:p.to], "\x00", "") == "" {
			return true
		}
		p.reconstructActiveFormattingElements()
		p.addText(from, p.to)
	case html.StartTagToken:
		switch p.tok.DataAtom {
		case a.Html:
			if len(p.oe) > 1 && p.oe[1].atom == a.Html {
				p.addAttributes(p.oe[1])
			}
		case a.Base, a.Basefont, a.Bgsound, a.Link, a.Meta, a.Noframes, a.Script, a.Style, a.Template, a.Title:
			return inHeadIM(p)
		case a.Body:
			for _, e := range p.oe[1:] {
				if e.atom == a.Body && e.ns == "" {
					p.addAttributes(e)
					break
				}
			}
		case a.Frameset:
			// Ignore the token.
		case a.Address, a.Article, a.Aside, a.Blockquote, a.Center, a.Details, a.Dialog, a.Dir, a.Div, a.Dl, a.Fieldset, a.Figcaption, a.Figure, a.Footer, a.Header, a.Hgroup, a.Main, a.Menu, a.Nav, a.Ol, a.P, a.Section, a.Summary, a.Ul:
			p.popUntil(buttonScope, a.P)
			p.addElement()
		case a.H1, a.H2, a.H3, a.H4, a.H5, a.H6:
			p.popUntil(buttonScope, a.P)
			switch n := p.top(); n.atom {
			case a.H1, a.H2, a.H3, a.H4, a.H5, a.H6:
				p.pop()
			}
			p.addElement()
		case a.Pre, a.Listing:
			p.popUntil(buttonScope, a.P)
			p.addElement()
		case a.Form:
			if p.form != nil && !p.oe.contains(a.Template) {
				// Ignore the token
				return true
			}
			p.popUntil(buttonScope, a.P)
			p.addElement()
			if !p.oe.contains(a.Template) {
				p.form = p.top()
			}
		case a.Li:
			for i := len(p.oe) - 1; i > 0; i-- {
				node := p.oe[i]
				switch node.atom {
				case a.Li:
					p.popTo(i)
				case a.Address, a.Div, a.P:
					continue
				default:
					if !isSpecialElement(node) {
						continue
					}
				}
				break
			}
			p.popUntil(buttonScope, a.P)
			p.addElement()
		case a.Dd, a.Dt:
			for i := len(p.oe) - 1; i > 0; i-- {
				node := p.oe[i]
				switch node.atom {
				case a.Dd, a.Dt:
					p.popTo(i)
				case a.Address, a.Div, a.P:
					continue
				default:
					if !isSpecialElement(node) {
						continue
					}
				}
				break
			}
			p.popUntil(buttonScope, a.P)
			p.addElement()
		case a.Plaintext:
			p.popUntil(buttonScope, a.P)
			p.addElement()
		case a.Button:
			p.popUntil(defaultScope, a.Button)
			p.reconstructActiveFormattingElements()
			p.addElement()
		case a.A:
			for i := len(p.afe) - 1; i >= 0 && !p.afe[i].marker; i-- {
				if n := p.afe[i]; n.atom == a.A && n.ns == "" {
					p.inBodyEndTagFormatting(a.A, "a")
					p.removeOpen(n)
					p.afe.remove(n)
					break
				}
			}
			p.reconstructActiveFormattingElements()
			p.addFormattingElement()
		case a.B, a.Big, a.Code, a.Em, a.Font, a.I, a.S, a.Small, a.Strike, a.Strong, a.Tt, a.U:
			p.reconstructActiveFormattingElements()
			p.addFormattingElement()
		case a.Nobr:
			p.reconstructActiveFormattingElements()
			if p.elementInScope(defaultScope, a.Nobr) {
				p.inBodyEndTagFormatting(a.Nobr, "nobr")
				p.reconstructActiveFormattingElements()
			}
			p.addFormattingElement()
		case a.Applet, a.Marquee, a.Object:
			p.reconstructActiveFormattingElements()
			p.addElement()
			p.afe = append(p.afe, &scopeMarker)
		case a.Table:
			p.popUntil(buttonScope, a.P)
			p.addElement()
			p.im = inTableIM
		case a.Area, a.Br, a.Embed, a.Img, a.Input, a.Keygen, a.Wbr:
			p.reconstructActiveFormattingElements()
			p.addElement()
			p.pop()
			p.acknowledgeSelfClosingTag()
		case a.Param, a.Source, a.Track:
			p.addElement()
			p.pop()
			p.acknowledgeSelfClosingTag()
		case a.Hr:
			p.popUntil(buttonScope, a.P)
			p.addElement()
			p.pop()
			p.acknowledgeSelfClosingTag()
		case a.Image:
			p.tok.DataAtom = a.Img
			p.tok.Data = a.Img.String()
			return false
		case a.Textarea:
			p.addElement()
			p.setOriginalIM()
			p.im = textIM
		case a.Xmp:
			p.popUntil(buttonScope, a.P)
			p.reconstructActiveFormattingElements()
			p.parseGenericRawTextElement()
		case a.Iframe, a.Noembed:
			p.parseGenericRawTextElement()
		case a.Noscript:
			p.reconstructActiveFormattingElements()
			p.addElement()
			// Don't let the tokenizer go into raw text mode when for <noscript> tag and parse
			// its content as regular HTML.
			p.lx.z.NextIsNotRawText()
		case a.Select:
			p.reconstructActiveFormattingElements()
			p.addElement()
			p.resetInsertionMode()
		case a.Optgroup, a.Option:
			if p.top().atom == a.Option {
				p.pop()
			}
			p.reconstructActiveFormattingElements()
			p.addElement()
		case a.Rb, a.Rtc:
			if p.elementInScope(defaultScope, a.Ruby) {
				p.generateImpliedEndTags()
			}
			p.addElement()
		case a.Rp, a.Rt:
			if p.elementInScope(defaultScope, a.Ruby) {
				p.generateImpliedEndTags("rtc")
			}
			p.addElement()
		case a.Math, a.Svg:
			p.reconstructActiveFormattingElements()
			p.addElementNS(p.tok.Data)
			if p.hasSelfClosingToken {
				p.pop()
				p.acknowledgeSelfClosingTag()
			}
			return true
		case a.Caption, a.Col, a.Colgroup, a.Tbody, a.Td, a.Tfoot, a.Th, a.Thead, a.Tr:
			// Table parts outside of a table get an implied one.
			p.parseImpliedToken(html.StartTagToken, a.Table, a.Table.String())
			return false
		case a.Frame, a.Head:
			// Ignore the token.
		default:
			p.reconstructActiveFormattingElements()
			p.addElement()
		}
	case html.EndTagToken:
		switch p.tok.DataAtom {
		case a.Body:
			if p.elementInScope(defaultScope, a.Body) {
				p.im = afterBodyIM
			}
		case a.Html:
			if p.elementInScope(defaultScope, a.Body) {
				p.parseImpliedToken(html.EndTagToken, a.Body, a.Body.String())
				return false
			}
			return true
		case a.Address, a.Article, a.Aside, a.Blockquote, a.Button, a.Center, a.Details, a.Dialog, a.Dir, a.Div, a.Dl, a.Fieldset, a.Figcaption, a.Figure, a.Footer, a.Header, a.Hgroup, a.Listing, a.Main, a.Menu, a.Nav, a.Ol, a.Pre, a.Section, a.Summary, a.Ul:
			p.popUntil(defaultScope, p.tok.DataAtom)
		case a.Form:
			if p.oe.contains(a.Template) {
				i := p.indexOfElementInScope(defaultScope, a.Form)
				if i == -1 {
					// Ignore the token.
					return true
				}
				p.generateImpliedEndTags()
				if p.oe[i].atom != a.Form {
					// Ignore the token.
					return true
				}
				p.popUntil(defaultScope, a.Form)
			} else {
				node := p.form
				p.form = nil
				i := p.indexOfElementInScope(defaultScope, a.Form)
				if node == nil || i == -1 || p.oe[i] != node {
					// Ignore the token.
					return true
				}
				p.generateImpliedEndTags()
				p.removeOpen(node)
			}
		case a.P:
			if !p.elementInScope(buttonScope, a.P) {
				p.parseImpliedToken(html.StartTagToken, a.P, a.P.String())
			}
			p.popUntil(buttonScope, a.P)
		case a.Li:
			p.popUntil(listItemScope, a.Li)
		case a.Dd, a.Dt:
			p.popUntil(defaultScope, p.tok.DataAtom)
		case a.H1, a.H2, a.H3, a.H4, a.H5, a.H6:
			p.popUntil(defaultScope, a.H1, a.H2, a.H3, a.H4, a.H5, a.H6)
		case a.A, a.B, a.Big, a.Code, a.Em, a.Font, a.I, a.Nobr, a.S, a.Small, a.Strike, a.Strong, a.Tt, a.U:
			p.inBodyEndTagFormatting(p.tok.DataAtom, p.tok.Data)
		case a.Applet, a.Marquee, a.Object:
			if p.popUntil(defaultScope, p.tok.DataAtom) {
				p.clearActiveFormattingElements()
			}
		case a.Template:
			return inHeadIM(p)
		case a.Br:
			p.tok.Type = html.StartTagToken
			p.real = false
			return false
		default:
			p.inBodyEndTagOther(p.tok.DataAtom, p.tok.Data)
		}
	case html.DoctypeToken, html.CommentToken:
		// Ignore the token.
	case html.ErrorToken:
		return true
	}

	return true
}

func (p *parser) inBodyEndTagFormatting(tagAtom a.Atom, tagName string) {
	// This is the "adoption agency" algorithm, described at
	// https://html.spec.whatwg.org/multipage/syntax.html#adoptionAgency

	// Steps 1-2
	if current := p.top(); current.name == tagName && p.afe.index(current) == -1 {
		p.pop()
		return
	}

	// Steps 3-5. The outer loop.
	for i := 0; i < 8; i++ {
		// Step 6. Find the formatting element.
		var formattingElement *element
		for j := len(p.afe) - 1; j >= 0; j-- {
			if p.afe[j].marker {
				break
			}
			if p.afe[j].atom == tagAtom {
				formattingElement = p.afe[j]
				break
			}
		}
		if formattingElement == nil {
			p.inBodyEndTagOther(tagAtom, tagName)
			return
		}

		// Step 7. Ignore the tag if formatting element is not in the stack of open elements.
		feIndex := p.oe.index(formattingElement)
		if feIndex == -1 {
			p.afe.remove(formattingElement)
			return
		}
		// Step 8. Ignore the tag if formatting element is not in the scope.
		if !p.elementInScope(defaultScope, tagAtom) {
			// Ignore the tag.
			return
		}

		// Step 9. This step is omitted because it's just a parse error but no need to return.

		// Steps 10-11. Find the furthest block.
		var furthestBlock *element
		for _, e := range p.oe[feIndex:] {
			if isSpecialElement(e) {
				furthestBlock = e
				break
			}
		}
		if furthestBlock == nil {
			e := p.pop()
			for e != nil && e != formattingElement {
				e = p.pop()
			}
			p.afe.remove(formattingElement)
			return
		}

		// Steps 12-13. Find the common ancestor and bookmark node.
		commonAncestor := p.doc
		if feIndex > 0 {
			commonAncestor = p.oe[feIndex-1]
		}
		bookmark := p.afe.index(formattingElement)

		// Step 14. The inner loop. Find the lastNode to reparent.
		lastNode := furthestBlock
		node := furthestBlock
		x := p.oe.index(node)
		// Step 14.1.
		j := 0
		for {
			// Step 14.2.
			j++
			// Step. 14.3.
			x--
			node = p.oe[x]
			// Step 14.4. Go to the next step if node is formatting element.
			if node == formattingElement {
				break
			}
			// Step 14.5. Remove node from the list of active formatting elements if
			// inner loop counter is greater than three and node is in the list of
			// active formatting elements.
			if ni := p.afe.index(node); j > 3 && ni > -1 {
				p.afe.remove(node)
				// If any element of the list of active formatting elements is removed,
				// we need to take care whether bookmark should be decremented or not.
				// This is because the value of bookmark may exceed the size of the
				// list by removing elements from the list.
				if ni <= bookmark {
					bookmark--
				}
				continue
			}
			// Step 14.6. Continue the next inner loop if node is not in the list of
			// active formatting elements.
			if p.afe.index(node) == -1 {
				p.removeOpen(node)
				continue
			}
			// Step 14.7.
			clone := node.shallow()
			clone.id = p.tb.CreateElement(clone.ns, clone.name, clone.attrs, commonAncestor.id)
			p.afe[p.afe.index(node)] = clone
			p.replaceOpen(node, clone)
			node = clone
			// Step 14.8.
			if lastNode == furthestBlock {
				bookmark = p.afe.index(node) + 1
			}
			// Step 14.9.
			p.tb.DetachFromParent(lastNode.id)
			p.tb.AppendElement(lastNode.id, node.id)
			// Step 14.10.
			lastNode = node
		}

		// Step 15. Reparent lastNode to the common ancestor,
		// or for misnested table nodes, to the foster parent.
		p.tb.DetachFromParent(lastNode.id)
		switch commonAncestor.atom {
		case a.Table, a.Tbody, a.Tfoot, a.Thead, a.Tr:
			p.fosterParent(lastNode.id)
		default:
			p.tb.AppendElement(lastNode.id, commonAncestor.id)
		}

		// Steps 16-18. Reparent nodes from the furthest block's children
		// to a clone of the formatting element.
		clone := formattingElement.shallow()
		clone.id = p.tb.CreateElement(clone.ns, clone.name, clone.attrs, furthestBlock.id)
		p.tb.AppendChildrenToNewParent(furthestBlock.id, clone.id)
		p.tb.AppendElement(clone.id, furthestBlock.id)

		// Step 19. Fix up the list of active formatting elements.
		if oldLoc := p.afe.index(formattingElement); oldLoc != -1 && oldLoc < bookmark {
			// Move the bookmark with the rest of the list.
			bookmark--
		}
		p.afe.remove(formattingElement)
		p.afe.insert(bookmark, clone)

		// Step 20. Fix up the stack of open elements.
		p.removeOpen(formattingElement)
		p.oe.insert(p.oe.index(furthestBlock)+1, clone)
		p.tb.ElementPushed(clone.ns, clone.name, clone.id)
	}
}

// replaceOpen puts clone in the place of node on the stack of open elements.
func (p *parser) replaceOpen(node, clone *element) {
	i := p.oe.index(node)
	if i <= 0 {
		return
	}
	p.oe[i] = clone
	p.tb.ElementPopped(node.ns, node.name, node.id)
	p.tb.ElementPushed(clone.ns, clone.name, clone.id)
}

// inBodyEndTagOther performs the "any other end tag" algorithm for inBodyIM.
// "Any other end tag" handling from 12.2.6.5 The rules for parsing tokens in foreign content
// https://html.spec.whatwg.org/multipage/syntax.html#parsing-main-inforeign
func (p *parser) inBodyEndTagOther(tagAtom a.Atom, tagName string) {
	for i := len(p.oe) - 1; i > 0; i-- {
		// Two element nodes have the same tag if they have the same name. As an
		// optimization, for common HTML tags, each name is assigned a unique,
		// non-zero atom. Uncommon (custom) tags get a zero atom.
		//
		// The if condition here is equivalent to (p.oe[i].name == tagName).
		if (p.oe[i].atom == tagAtom) &&
			((tagAtom != 0) || (p.oe[i].name == tagName)) {
			p.popTo(i)
			break
		}
		if isSpecialElement(p.oe[i]) {
			break
		}
	}
}

// Section 12.2.6.4.8.
func textIM(p *parser) bool {
	switch p.tok.Type {
	case html.ErrorToken:
		p.pop()
	case html.TextToken:
		from := p.from
		if n := p.oe.top(); n.atom == a.Textarea && !p.tb.HasChildren(n.id) {
			// Ignore a newline at the start of a <textarea> block.
			from += leadingNewline(p.text())
		}
		p.addText(from, p.to)
		return true
	case html.EndTagToken:
		p.pop()
	}
	p.im = p.originalIM
	p.originalIM = nil
	return p.tok.Type == html.EndTagToken
}

// Section 12.2.6.4.19.
func afterBodyIM(p *parser) bool {
	switch p.tok.Type {
	case html.ErrorToken:
		// Stop parsing.
		return true
	case html.TextToken:
		if isAllSpace(p.text()) {
			return inBodyIM(p)
		}
	case html.StartTagToken:
		if p.tok.DataAtom == a.Html {
			return inBodyIM(p)
		}
	case html.EndTagToken:
		if p.tok.DataAtom == a.Html {
			p.im = afterAfterBodyIM
			return true
		}
	case html.CommentToken, html.DoctypeToken:
		return true
	}
	p.im = inBodyIM
	return false
}

// Section 12.2.6.5
func parseForeignContent(p *parser) bool {
	switch p.tok.Type {
	case html.TextToken:
		p.addText(p.from, p.to)
	case html.StartTagToken:
		if breaksOutOfForeignContent(p.tok.Data, p.tok.Attr) {
			for i := len(p.oe) - 1; i >= 0; i-- {
				if n := p.oe[i]; n.ns == "" || htmlIntegrationPoint(n) || mathMLTextIntegrationPoint(n) {
					p.popTo(i + 1)
					break
				}
			}
			return false
		}
		current := p.oe.top()
		if current.ns == "svg" {
			// Adjust SVG tag names. The tokenizer lower-cases tag names, but
			// SVG wants e.g. "foreignObject" with a capital second "O".
			if x := svgTagNameAdjustments[p.tok.Data]; x != "" {
				p.tok.DataAtom = lookupAtom(x)
				p.tok.Data = x
			}
		}
		p.addElementNS(current.ns)
		// Don't let the tokenizer go into raw text mode in foreign content
		// (e.g. in an SVG <title> tag).
		p.lx.z.NextIsNotRawText()
		if p.hasSelfClosingToken {
			p.pop()
			p.acknowledgeSelfClosingTag()
		}
	case html.EndTagToken:
		for i := len(p.oe) - 1; i > 0; i-- {
			if p.oe[i].ns == "" {
				return p.im(p)
			}
			if strings.EqualFold(p.oe[i].name, p.tok.Data) {
				p.popTo(i)
				break
			}
		}
		return true
	default:
		// Ignore the token.
	}
	return true
}

// Section 12.2.6.
func (p *parser) inForeignContent() bool {
	if len(p.oe) <= 1 {
		return false
	}
	n := p.oe.top()
	if n.ns == "" {
		return false
	}
	if mathMLTextIntegrationPoint(n) {
		if p.tok.Type == html.StartTagToken && p.tok.DataAtom != a.Mglyph && p.tok.DataAtom != a.Malignmark {
			return false
		}
		if p.tok.Type == html.TextToken {
			return false
		}
	}
	if n.ns == "math" && n.atom == a.AnnotationXml && p.tok.Type == html.StartTagToken && p.tok.DataAtom == a.Svg {
		return false
	}
	if htmlIntegrationPoint(n) && (p.tok.Type == html.StartTagToken || p.tok.Type == html.TextToken) {
		return false
	}
	if p.tok.Type == html.ErrorToken {
		return false
	}
	return true
}

// parseImpliedToken parses a token as though it had appeared in the parser's
// input.
func (p *parser) parseImpliedToken(t html.TokenType, dataAtom a.Atom, data string) {
	realToken, real, selfClosing := p.tok, p.real, p.hasSelfClosingToken
	p.tok = html.Token{
		Type:     t,
		DataAtom: dataAtom,
		Data:     data,
	}
	p.real, p.hasSelfClosingToken = false, false
	p.parseCurrentToken()
	p.tok, p.real, p.hasSelfClosingToken = realToken, real, selfClosing
}

// parseCurrentToken runs the current token through the parsing routines
// until it is consumed.
func (p *parser) parseCurrentToken() {
	if p.tok.Type == html.SelfClosingTagToken {
		p.hasSelfClosingToken = true
		p.tok.Type = html.StartTagToken
	}

	consumed := false
	for !consumed {
		if p.inForeignContent() {
			consumed = parseForeignContent(p)
		} else {
			consumed = p.im(p)
		}
	}

	if p.hasSelfClosingToken {
		// A parse error for HTML elements, which would stay open. The tree keeps them
		// empty, so they are closed right away.
		p.closeSelfClosed()
		p.hasSelfClosingToken = false
	}
}

// closeSelfClosed pops the element created for a self-closing start tag that the
// insertion mode left open.
func (p *parser) closeSelfClosed() {
	e := p.added
	if e == nil || p.top() != e {
		return
	}
	switch e.atom {
	case a.Html, a.Head, a.Body:
		return
	}
	if p.originalIM != nil {
		// raw text or RCDATA element: the content that follows is markup
		p.im = p.originalIM
		p.originalIM = nil
		p.lx.z.NextIsNotRawText()
	}
	switch e.atom {
	case a.Plaintext, a.Script, a.Style, a.Xmp, a.Iframe, a.Noembed, a.Noframes, a.Noscript, a.Title, a.Textarea:
		p.lx.z.NextIsNotRawText()
	}
	p.pop()
	p.afe.remove(e)
	if p.form == e {
		p.form = nil
	}
	switch e.atom {
	case a.Td, a.Th, a.Caption, a.Applet, a.Marquee, a.Object:
		p.clearActiveFormattingElements()
	}
	switch e.atom {
	case a.Table, a.Caption, a.Colgroup, a.Tbody, a.Thead, a.Tfoot, a.Tr, a.Td, a.Th, a.Select:
		p.resetInsertionMode()
	}
}

// tag runs a start or end tag token through the TreeBuilder protocol: the transitions
// leading up to '>' first, then the tree callbacks, then the '>' itself. eof is set for a
// tag cut off by the end of input.
func (p *parser) tag(tok html.Token, t rawTag, closing, eof bool) {
	for _, tr := range t.trans {
		p.tb.Transition(tr.from, tr.to, tr.reconsume, tr.offset)
	}
	p.state = t.last
	if closing {
		p.tb.EndTag(tok.Data)
	}
	p.tok, p.real, p.added = tok, !closing, nil
	p.parseCurrentToken()
	p.real, p.added = false, nil

	if !eof && t.gt >= 0 {
		p.tb.Transition(t.last, builder.StateData, false, t.gt)
		p.state = builder.StateData
	}
}

// doctype reports the first document type declaration to a DoctypeHandler.
func (p *parser) doctype() {
	if p.doctypeSeen {
		return
	}
	p.doctypeSeen = true
	if h, ok := p.tb.(DoctypeHandler); ok {
		d := parseDoctype(p.tok.Data)
		h.Doctype(d)
	}
}

func (p *parser) parse() error {
	// Iterate until EOF. Any other error will cause an early return.
	for {
		// CDATA sections are allowed only in foreign content.
		p.lx.z.AllowCDATA(p.top().ns != "")
		// Read and parse the next token.
		tt := p.lx.next()
		p.from, p.to = p.lx.from, p.lx.to
		switch tt {
		case html.ErrorToken:
			if err := p.lx.z.Err(); err != io.EOF {
				return err
			}
			p.eof()
			return nil
		case html.StartTagToken, html.SelfClosingTagToken:
			p.tag(p.lx.z.Token(), scanTag(p.text(), p.from, false), false, false)
		case html.EndTagToken:
			p.tag(p.lx.z.Token(), scanTag(p.text(), p.from, true), true, false)
		default:
			p.tok = p.lx.z.Token()
			if tt == html.DoctypeToken {
				p.doctype()
			}
			p.parseCurrentToken()
		}
	}
}

// eof finishes the parse: a tag the tokenizer dropped at the end of input is still
// processed, then every open element is popped.
func (p *parser) eof() {
	rest := p.lx.rest()
	closing := startsTag(rest, true)
	if closing || startsTag(rest, false) {
		p.from, p.to = len(p.lx.src)-len(rest), len(p.lx.src)
		t := scanTag(rest, p.from, closing)
		p.tag(t.token(closing), t, closing, true)
	}
	p.tb.Transition(p.state, builder.StateEOF, false, len(p.lx.src))
	p.state = builder.StateEOF

	p.from, p.to = len(p.lx.src), len(p.lx.src)
	p.tok = html.Token{Type: html.ErrorToken}
	p.parseCurrentToken()
	p.popTo(1)
}

// Mode selects how the top level of the source is interpreted.
type Mode int

const (
	// Fragment parses the source as the content of a <body> element. Nothing is implied
	// around it.
	Fragment Mode = iota
	// Document parses a complete document, implying html, head and body elements as
	// needed.
	Document
)

func (m Mode) String() string {
	switch m {
	case Fragment:
		return "fragment"
	case Document:
		return "document"
	}
	return "unknown"
}

// Parse runs HTML5 tree construction over src and reports every step to tb. All elements
// are popped by the time Parse returns. The input is assumed to be UTF-8 encoded.
func Parse(src string, tb TreeBuilder, mode Mode) error {
	p := &parser{
		tb: tb,
		lx: newLexer(src),
		doc: &element{
			id: tb.Root(),
		},
		im:    inBodyIM,
		state: builder.StateData,
	}
	if mode == Document {
		p.im = initialIM
	} else {
		// the root plays the html element of the fragment parsing algorithm
		p.doc.atom = a.Html
		p.doc.name = a.Html.String()
	}
	p.oe = elementStack{p.doc}

	return p.parse()
}
