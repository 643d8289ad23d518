package html

import (
	"strings"

	"github.com/dpotapov/go-htmltree/builder"
	"golang.org/x/net/html"
)

// lexer wraps the x/net tokenizer and keeps track of where each token lies in the source.
// Tokens are contiguous, so the extent of a token is the end of the previous one plus the
// length of its raw text.
type lexer struct {
	z        *html.Tokenizer
	src      string
	from, to int
}

func newLexer(src string) *lexer {
	return &lexer{z: html.NewTokenizer(strings.NewReader(src)), src: src}
}

func (l *lexer) next() html.TokenType {
	tt := l.z.Next()
	l.from = l.to
	l.to = l.from + len(l.z.Raw())
	if l.to > len(l.src) {
		l.to = len(l.src)
	}
	return tt
}

// rest returns the source the tokenizer gave up on at the end of input: a tag cut off
// before its '>' is reported as part of the error token.
func (l *lexer) rest() string {
	return l.src[l.from:]
}

type transition struct {
	from, to  builder.State
	reconsume bool
	offset    int
}

// rawTag is a start or end tag as scanned from the source.
type rawTag struct {
	name        string
	attrs       []html.Attribute
	selfClosing bool
	// trans lists the tokenizer transitions up to, but not including, the one consuming '>'.
	trans []transition
	// last is the state the tokenizer is in when it reaches '>', or the end of input.
	last builder.State
	// gt is the offset of the closing '>', or -1 if the tag runs to the end of input.
	gt int
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// scanTag follows the tag states of the HTML tokenizer over raw, a tag that starts with
// '<' at offset base.
func scanTag(raw string, base int, closing bool) rawTag {
	t := rawTag{gt: -1}
	s := builder.StateData
	move := func(to builder.State, reconsume bool, i int) {
		t.trans = append(t.trans, transition{from: s, to: to, reconsume: reconsume, offset: base + i})
		s = to
	}

	move(builder.StateTagOpen, false, 0)
	i := 1
	if closing {
		move(builder.StateCloseTagOpen, false, 1)
		i = 2
	}
	move(builder.StateTagName, false, i)
	nameFrom := i

	var attr *html.Attribute
	var keyFrom, valueFrom int
	endKey := func(i int) {
		if attr != nil {
			attr.Key = strings.ToLower(raw[keyFrom:i])
		}
	}
	endValue := func(i int) {
		if attr != nil {
			attr.Val = raw[valueFrom:i]
		}
	}
	newAttr := func(i int) {
		t.attrs = append(t.attrs, html.Attribute{})
		attr = &t.attrs[len(t.attrs)-1]
		keyFrom = i
	}

	for ; i < len(raw); i++ {
		c := raw[i]
	reconsume:
		switch s {
		case builder.StateTagName:
			switch {
			case isSpace(c):
				t.name = raw[nameFrom:i]
				move(builder.StateBeforeAttributeName, false, i)
			case c == '/':
				t.name = raw[nameFrom:i]
				move(builder.StateSelfClosingStartTag, false, i)
			case c == '>':
				t.name = raw[nameFrom:i]
				return t.close(s, base+i)
			}
		case builder.StateBeforeAttributeName:
			switch {
			case isSpace(c):
			case c == '/':
				move(builder.StateSelfClosingStartTag, false, i)
			case c == '>':
				return t.close(s, base+i)
			default:
				newAttr(i)
				move(builder.StateAttributeName, true, i)
			}
		case builder.StateAttributeName:
			switch {
			case isSpace(c):
				endKey(i)
				move(builder.StateAfterAttributeName, false, i)
			case c == '/':
				endKey(i)
				move(builder.StateSelfClosingStartTag, false, i)
			case c == '=' && i > keyFrom:
				endKey(i)
				move(builder.StateBeforeAttributeValue, false, i)
			case c == '>':
				endKey(i)
				return t.close(s, base+i)
			}
		case builder.StateAfterAttributeName:
			switch {
			case isSpace(c):
			case c == '/':
				move(builder.StateSelfClosingStartTag, false, i)
			case c == '=':
				move(builder.StateBeforeAttributeValue, false, i)
			case c == '>':
				return t.close(s, base+i)
			default:
				newAttr(i)
				move(builder.StateAttributeName, true, i)
			}
		case builder.StateBeforeAttributeValue:
			switch {
			case isSpace(c):
			case c == '"':
				valueFrom = i + 1
				move(builder.StateAttributeValueDoubleQuoted, false, i)
			case c == '\'':
				valueFrom = i + 1
				move(builder.StateAttributeValueSingleQuoted, false, i)
			case c == '>':
				return t.close(s, base+i)
			default:
				valueFrom = i
				move(builder.StateAttributeValueUnquoted, true, i)
			}
		case builder.StateAttributeValueDoubleQuoted:
			if c == '"' {
				endValue(i)
				move(builder.StateAfterAttributeValueQuoted, false, i)
			}
		case builder.StateAttributeValueSingleQuoted:
			if c == '\'' {
				endValue(i)
				move(builder.StateAfterAttributeValueQuoted, false, i)
			}
		case builder.StateAttributeValueUnquoted:
			switch {
			case isSpace(c):
				endValue(i)
				move(builder.StateBeforeAttributeName, false, i)
			case c == '>':
				endValue(i)
				return t.close(s, base+i)
			}
		case builder.StateAfterAttributeValueQuoted:
			switch {
			case isSpace(c):
				move(builder.StateBeforeAttributeName, false, i)
			case c == '/':
				move(builder.StateSelfClosingStartTag, false, i)
			case c == '>':
				return t.close(s, base+i)
			default:
				move(builder.StateBeforeAttributeName, true, i)
				goto reconsume
			}
		case builder.StateSelfClosingStartTag:
			if c == '>' {
				t.selfClosing = true
				return t.close(s, base+i)
			}
			move(builder.StateBeforeAttributeName, true, i)
			goto reconsume
		}
	}

	// cut off by the end of input
	switch s {
	case builder.StateTagName:
		t.name = raw[nameFrom:]
	case builder.StateAttributeName:
		endKey(len(raw))
	case builder.StateAttributeValueDoubleQuoted, builder.StateAttributeValueSingleQuoted, builder.StateAttributeValueUnquoted:
		endValue(len(raw))
	}
	t.last = s
	return t
}

func (t rawTag) close(last builder.State, gt int) rawTag {
	t.last = last
	t.gt = gt
	return t
}

// token returns the tag as a token of the tokenizer. It is used for tags the tokenizer
// dropped at the end of input.
func (t rawTag) token(closing bool) html.Token {
	name := strings.ToLower(t.name)
	tok := html.Token{Type: html.StartTagToken, Data: name, Attr: t.attrs}
	if closing {
		tok.Type = html.EndTagToken
		tok.Attr = nil
	}
	tok.DataAtom = lookupAtom(name)
	return tok
}

// startsTag reports whether raw begins with a start tag, or an end tag if closing.
func startsTag(raw string, closing bool) bool {
	i := 1
	if closing {
		if !strings.HasPrefix(raw, "</") {
			return false
		}
		i = 2
	} else if !strings.HasPrefix(raw, "<") {
		return false
	}
	if len(raw) <= i {
		return false
	}
	c := raw[i]
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}
