// Package elements holds the parse tree model: an arena of nodes addressed by ID, with
// packed source spans that point back into the shared source buffer.
//
// Nodes never own text. Names and values of real nodes are substrings of the source the tree
// was created for; only virtual elements, which have no literal source location, carry an
// owned name.
package elements

import "fmt"

// ID addresses a node within its Tree.
type ID int32

// None is the ID of a missing node (no parent, no match, no sibling).
const None ID = -1

// RootName is the name reported for the root node.
const RootName = "root"

// Kind discriminates node variants.
type Kind uint8

const (
	KindRoot Kind = iota
	KindOpenTag
	KindCloseTag
	KindText
	KindAttribute
	// KindInvalid is reported for IDs that do not address a node of the tree.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindOpenTag:
		return "open_tag"
	case KindCloseTag:
		return "close_tag"
	case KindText:
		return "text"
	case KindAttribute:
		return "attribute"
	case KindInvalid:
		return "invalid"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// flavour refines KindOpenTag.
type flavour uint8

const (
	flavourCommon flavour = iota
	// flavourEmpty is a self-closing or void tag. It never has children or a close tag.
	flavourEmpty
	// flavourVirtual is an element implied by tree construction, without source extent.
	flavourVirtual
)

// Quote is the quoting style of an attribute value.
type Quote uint8

const (
	QuoteNone Quote = iota
	QuoteSingle
	QuoteDouble
)

func (q Quote) String() string {
	switch q {
	case QuoteSingle:
		return "single"
	case QuoteDouble:
		return "double"
	}
	return "none"
}

type node struct {
	kind    Kind
	flavour flavour
	quote   Quote

	// span is the literal extent. For attributes it covers the name only.
	span Span
	name string

	parent, first, last, prev, next ID

	attrs []ID

	// semanticEnd is -1 until the builder decides where the element's content ends.
	semanticEnd int32
	match       ID

	// value is the attribute value extent including quotes, valid when hasValue is set.
	value    Span
	hasValue bool
}

func (n *node) canHaveChildren() bool {
	switch n.kind {
	case KindRoot:
		return true
	case KindOpenTag:
		return n.flavour != flavourEmpty
	}
	return false
}
