package htmltree

import (
	"strconv"

	"github.com/beevik/etree"
	"github.com/dpotapov/go-htmltree/elements"
)

// ToXML renders the tree as an XML document. Every node becomes an element carrying its
// offsets as attributes. For <p id=x>a</b>:
//
//	<tree length="13">
//	  <element name="p" from="0" to="8" end="9">
//	    <attribute name="id" from="3" to="7" quote="none">x</attribute>
//	    <text from="8" to="9">a</text>
//	    <close name="b" from="9" to="13"/>
//	  </element>
//	</tree>
//
// Element names are kept in attributes because HTML tag names are not necessarily valid
// XML names.
func ToXML(t *elements.Tree) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("tree")
	root.CreateAttr("length", strconv.Itoa(len(t.Source())))
	for _, c := range t.Children(t.Root()) {
		appendXML(root, t, c)
	}
	doc.Indent(2)
	return doc
}

func appendXML(parent *etree.Element, t *elements.Tree, id elements.ID) {
	switch t.Kind(id) {
	case elements.KindOpenTag:
		el := parent.CreateElement("element")
		el.CreateAttr("name", t.Name(id))
		if t.IsVirtual(id) {
			el.CreateAttr("virtual", "true")
		} else {
			setRange(el, t.From(id), t.To(id))
		}
		if t.IsEmpty(id) {
			el.CreateAttr("empty", "true")
		}
		if end, ok := t.SemanticEnd(id); ok {
			el.CreateAttr("end", strconv.Itoa(end))
		}
		if m := t.MatchingTag(id); m != elements.None {
			el.CreateAttr("close-from", strconv.Itoa(t.From(m)))
			el.CreateAttr("close-to", strconv.Itoa(t.To(m)))
		}
		for _, a := range t.Attributes(id) {
			attr := el.CreateElement("attribute")
			attr.CreateAttr("name", t.Name(a))
			setRange(attr, t.From(a), t.To(a))
			if t.HasValue(a) {
				attr.CreateAttr("quote", t.Quote(a).String())
				attr.SetText(t.UnquotedValue(a))
			}
		}
		for _, c := range t.Children(id) {
			appendXML(el, t, c)
		}
	case elements.KindCloseTag:
		el := parent.CreateElement("close")
		el.CreateAttr("name", t.Name(id))
		setRange(el, t.From(id), t.To(id))
	case elements.KindText:
		el := parent.CreateElement("text")
		setRange(el, t.From(id), t.To(id))
		el.SetText(t.Text(id))
	}
}

func setRange(el *etree.Element, from, to int) {
	el.CreateAttr("from", strconv.Itoa(from))
	el.CreateAttr("to", strconv.Itoa(to))
}
