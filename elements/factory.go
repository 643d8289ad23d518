package elements

import (
	"errors"
	"fmt"
)

// NewTree creates a tree holding only the root node, which spans the whole source.
func NewTree(source string) *Tree {
	t := &Tree{source: source}
	t.alloc(node{kind: KindRoot, name: RootName})
	return t
}

func (t *Tree) alloc(n node) ID {
	n.parent, n.first, n.last, n.prev, n.next = None, None, None, None, None
	n.match = None
	n.semanticEnd = -1
	t.nodes = append(t.nodes, n)
	return ID(len(t.nodes) - 1)
}

// span validates [from, to) against the source. An overlong extent is saturated and
// reported together with the usable span, every other problem is fatal for the node.
func (t *Tree) span(from, to int) (Span, error) {
	if from < 0 || to < from || to > len(t.source) {
		return Span{}, fmt.Errorf("[%d, %d) in source of %d bytes: %w", from, to, len(t.source), ErrOutOfBounds)
	}
	s, err := NewSpan(from, to)
	if err != nil {
		return ClampSpan(from, to), err
	}
	return s, nil
}

// tag creates an open or close tag whose name starts prefix bytes after from.
func (t *Tree) tag(kind Kind, fl flavour, prefix, from, to, nameLen int) (ID, error) {
	if nameLen < 0 {
		return None, ErrNegativeNameLength
	}
	if from+prefix+nameLen > len(t.source) {
		return None, fmt.Errorf("tag name at %d: %w", from, ErrOutOfBounds)
	}
	if to < from+prefix+nameLen {
		to = from + prefix + nameLen
	}
	s, err := t.span(from, to)
	if err != nil && !errors.Is(err, ErrSpanOverflow) {
		return None, err
	}
	id := t.alloc(node{
		kind:    kind,
		flavour: fl,
		span:    s,
		name:    t.source[from+prefix : from+prefix+nameLen],
	})
	return id, err
}

// NewOpenTag creates an ordinary open tag for the source extent [from, to) whose name
// follows the '<' at from. When the extent is too long the tag is still created with a
// saturated span and ErrSpanOverflow is returned alongside its ID.
func (t *Tree) NewOpenTag(from, to, nameLen int) (ID, error) {
	return t.tag(KindOpenTag, flavourCommon, 1, from, to, nameLen)
}

// NewEmptyOpenTag creates a self-closing or void open tag. See NewOpenTag.
func (t *Tree) NewEmptyOpenTag(from, to, nameLen int) (ID, error) {
	return t.tag(KindOpenTag, flavourEmpty, 1, from, to, nameLen)
}

// NewCloseTag creates a close tag whose name follows the "</" at from. See NewOpenTag.
func (t *Tree) NewCloseTag(from, to, nameLen int) (ID, error) {
	return t.tag(KindCloseTag, flavourCommon, 2, from, to, nameLen)
}

// NewVirtualOpenTag creates an element that has no literal source.
func (t *Tree) NewVirtualOpenTag(name string) ID {
	return t.alloc(node{kind: KindOpenTag, flavour: flavourVirtual, name: name})
}

// NewText creates a character data node for [from, to). See NewOpenTag.
func (t *Tree) NewText(from, to int) (ID, error) {
	s, err := t.span(from, to)
	if err != nil && !errors.Is(err, ErrSpanOverflow) {
		return None, err
	}
	return t.alloc(node{kind: KindText, span: s}), err
}

// NewAttribute creates an attribute node. A negative valueFrom means the attribute has no
// value; otherwise [valueFrom, valueFrom+valueLen) is the literal value including quotes.
// Ranges outside the source are rejected so that no attribute can point past its end.
func (t *Tree) NewAttribute(nameFrom, nameLen, valueFrom, valueLen int, quote Quote) (ID, error) {
	if nameLen < 0 {
		return None, ErrNegativeNameLength
	}
	name, err := t.span(nameFrom, nameFrom+nameLen)
	if err != nil {
		return None, fmt.Errorf("attribute name: %w", err)
	}
	n := node{kind: KindAttribute, span: name, quote: quote, name: t.source[nameFrom : nameFrom+nameLen]}
	if valueFrom >= 0 {
		if valueFrom < nameFrom+nameLen {
			return None, fmt.Errorf("attribute value at %d precedes its name: %w", valueFrom, ErrOutOfBounds)
		}
		v, err := t.span(valueFrom, valueFrom+valueLen)
		if err != nil {
			return None, fmt.Errorf("attribute value: %w", err)
		}
		n.value, n.hasValue = v, true
	} else {
		n.quote = QuoteNone
	}
	return t.alloc(n), nil
}
