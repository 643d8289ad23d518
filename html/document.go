// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package html

import (
	"golang.org/x/net/html"
	a "golang.org/x/net/html/atom"
)

// Section 12.2.6.4.1.
func initialIM(p *parser) bool {
	switch p.tok.Type {
	case html.TextToken:
		if !p.skipSpace() {
			// It was all whitespace, so ignore it.
			return true
		}
	case html.CommentToken:
		return true
	case html.DoctypeToken:
		p.im = beforeHTMLIM
		return true
	}
	p.im = beforeHTMLIM
	return false
}

// Section 12.2.6.4.2.
func beforeHTMLIM(p *parser) bool {
	switch p.tok.Type {
	case html.DoctypeToken, html.CommentToken:
		// Ignore the token.
		return true
	case html.TextToken:
		if !p.skipSpace() {
			// It was all whitespace, so ignore it.
			return true
		}
	case html.StartTagToken:
		if p.tok.DataAtom == a.Html {
			p.addHTML()
			p.im = beforeHeadIM
			return true
		}
	case html.EndTagToken:
		switch p.tok.DataAtom {
		case a.Head, a.Body, a.Html, a.Br:
			p.parseImpliedToken(html.StartTagToken, a.Html, a.Html.String())
			return false
		default:
			// Ignore the token.
			return true
		}
	}
	p.parseImpliedToken(html.StartTagToken, a.Html, a.Html.String())
	return false
}

// Section 12.2.6.4.3.
func beforeHeadIM(p *parser) bool {
	switch p.tok.Type {
	case html.TextToken:
		if !p.skipSpace() {
			// It was all whitespace, so ignore it.
			return true
		}
	case html.StartTagToken:
		switch p.tok.DataAtom {
		case a.Head:
			p.addElement()
			p.head = p.top()
			p.im = inHeadIM
			return true
		case a.Html:
			return inBodyIM(p)
		}
	case html.EndTagToken:
		switch p.tok.DataAtom {
		case a.Head, a.Body, a.Html, a.Br:
			p.parseImpliedToken(html.StartTagToken, a.Head, a.Head.String())
			return false
		default:
			// Ignore the token.
			return true
		}
	case html.CommentToken, html.DoctypeToken:
		// Ignore the token.
		return true
	}

	p.parseImpliedToken(html.StartTagToken, a.Head, a.Head.String())
	return false
}

// Section 12.2.6.4.4.
func inHeadIM(p *parser) bool {
	switch p.tok.Type {
	case html.TextToken:
		if !p.splitSpace() {
			return true
		}
	case html.StartTagToken:
		switch p.tok.DataAtom {
		case a.Html:
			return inBodyIM(p)
		case a.Base, a.Basefont, a.Bgsound, a.Link, a.Meta:
			p.addElement()
			p.pop()
			p.acknowledgeSelfClosingTag()
			return true
		case a.Noscript:
			// The content is parsed as markup, not as raw text.
			p.addElement()
			p.lx.z.NextIsNotRawText()
			return true
		case a.Script, a.Title, a.Noframes, a.Style:
			p.parseGenericRawTextElement()
			return true
		case a.Head:
			// Ignore the token.
			return true
		case a.Template:
			p.addElement()
			p.afe = append(p.afe, &scopeMarker)
			p.im = inBodyIM
			return true
		}
	case html.EndTagToken:
		switch p.tok.DataAtom {
		case a.Head:
			if i := p.oe.index(p.head); i > 0 {
				p.popTo(i)
			}
			p.im = afterHeadIM
			return true
		case a.Body, a.Html, a.Br:
			p.parseImpliedToken(html.EndTagToken, a.Head, a.Head.String())
			return false
		case a.Noscript:
			if n := p.top(); n.atom == a.Noscript && n.ns == "" {
				p.pop()
			}
			return true
		case a.Template:
			if !p.oe.contains(a.Template) {
				return true
			}
			p.generateImpliedEndTags()
			p.popUntil(defaultScope, a.Template)
			p.clearActiveFormattingElements()
			p.resetInsertionMode()
			return true
		default:
			// Ignore the token.
			return true
		}
	case html.CommentToken, html.DoctypeToken:
		// Ignore the token.
		return true
	}

	p.parseImpliedToken(html.EndTagToken, a.Head, a.Head.String())
	return false
}

// Section 12.2.6.4.6.
func afterHeadIM(p *parser) bool {
	switch p.tok.Type {
	case html.TextToken:
		if !p.splitSpace() {
			return true
		}
	case html.StartTagToken:
		switch p.tok.DataAtom {
		case a.Html:
			return inBodyIM(p)
		case a.Body, a.Frameset:
			p.addElement()
			p.im = inBodyIM
			return true
		case a.Base, a.Basefont, a.Bgsound, a.Link, a.Meta, a.Noframes, a.Script, a.Style, a.Template, a.Title:
			// The head is put back on the stack for the tree constructor only.
			p.oe = append(p.oe, p.head)
			defer p.oe.remove(p.head)
			return inHeadIM(p)
		case a.Head:
			// Ignore the token.
			return true
		}
	case html.EndTagToken:
		switch p.tok.DataAtom {
		case a.Body, a.Html, a.Br:
			// Drop down to creating an implied <body> tag.
		case a.Template:
			return inHeadIM(p)
		default:
			// Ignore the token.
			return true
		}
	case html.CommentToken, html.DoctypeToken:
		// Ignore the token.
		return true
	}

	p.parseImpliedToken(html.StartTagToken, a.Body, a.Body.String())
	return false
}

// Section 12.2.6.4.22.
func afterAfterBodyIM(p *parser) bool {
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
	case html.CommentToken, html.DoctypeToken:
		return true
	}
	p.im = inBodyIM
	return false
}
