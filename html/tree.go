package html

import (
	"github.com/dpotapov/go-htmltree/builder"
	"github.com/dpotapov/go-htmltree/elements"
	"golang.org/x/net/html"
)

// TreeBuilder receives the steps of tree construction. The parser never reads the tree
// back: it identifies nodes by the IDs the TreeBuilder hands out.
//
// Start and end tags of the source are announced (StartTag, EndTag) before the tree
// mutations they cause, and the tokenizer state changes inside a tag are reported through
// Transition with their offsets, the one on the closing '>' coming after the mutations.
type TreeBuilder interface {
	Root() elements.ID
	Transition(from, to builder.State, reconsume bool, offset int)

	StartTag(name string, attrs []html.Attribute, selfClosing bool)
	EndTag(name string)

	CreateElement(ns, name string, attrs []html.Attribute, context elements.ID) elements.ID
	CreateHTMLElementSetAsRoot(attrs []html.Attribute) elements.ID
	AddAttributesToElement(n elements.ID, attrs []html.Attribute)

	ElementPushed(ns, name string, n elements.ID)
	ElementPopped(ns, name string, n elements.ID)

	AppendElement(child, parent elements.ID)
	AppendCharacters(parent elements.ID, from, to int)
	DetachFromParent(n elements.ID)
	HasChildren(n elements.ID) bool
	AppendChildrenToNewParent(from, to elements.ID)

	InsertFosterParentedChild(child, table, stackParent elements.ID)
	InsertFosterParentedCharacters(from, to int, table, stackParent elements.ID)
	CreateAndInsertFosterParentedElement(ns, name string, attrs []html.Attribute, table, stackParent elements.ID) elements.ID
}

// DoctypeHandler is implemented by TreeBuilders that want the document type declaration.
// Only the first one is reported.
type DoctypeHandler interface {
	Doctype(d Doctype)
}

var _ TreeBuilder = (*builder.Builder)(nil)
