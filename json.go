package htmltree

import (
	"github.com/dpotapov/go-htmltree/elements"
	"github.com/dpotapov/go-htmltree/html"
)

// Range is a [From, To) byte range of the source.
type Range struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// JSONNode is the JSON form of a tree node.
type JSONNode struct {
	Kind        string          `json:"kind"`
	Name        string          `json:"name,omitempty"`
	Range       *Range          `json:"range,omitempty"` // nil for virtual elements
	SemanticEnd *int            `json:"semanticEnd,omitempty"`
	Virtual     bool            `json:"virtual,omitempty"`
	Empty       bool            `json:"empty,omitempty"`
	Close       *Range          `json:"close,omitempty"`
	Attributes  []JSONAttribute `json:"attributes,omitempty"`
	Text        string          `json:"text,omitempty"`
	Children    []*JSONNode     `json:"children,omitempty"`
}

// JSONAttribute is the JSON form of an attribute node.
type JSONAttribute struct {
	Name  string `json:"name"`
	Range Range  `json:"range"`
	Value string `json:"value,omitempty"`
	Quote string `json:"quote,omitempty"`
}

// JSONDiagnostic is the JSON form of a builder diagnostic.
type JSONDiagnostic struct {
	Kind     string   `json:"kind"`
	Position Position `json:"position"`
	Message  string   `json:"message"`
}

// JSONResult is the JSON form of a parse result.
type JSONResult struct {
	Root        *JSONNode        `json:"root"`
	Doctype     *html.Doctype    `json:"doctype,omitempty"`
	Diagnostics []JSONDiagnostic `json:"diagnostics,omitempty"`
	Recovered   bool             `json:"recovered,omitempty"`
}

// ToJSON converts a parse result into its JSON form.
func ToJSON(res *Result) *JSONResult {
	t := res.Tree
	out := &JSONResult{
		Root:      jsonNode(t, t.Root()),
		Doctype:   res.Doctype,
		Recovered: res.Recovered,
	}
	for _, d := range res.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, JSONDiagnostic{
			Kind:     d.Kind.String(),
			Position: PositionOf(t.Source(), d.Offset),
			Message:  d.Err.Error(),
		})
	}
	return out
}

func jsonNode(t *elements.Tree, id elements.ID) *JSONNode {
	n := &JSONNode{
		Kind:    t.Kind(id).String(),
		Virtual: t.IsVirtual(id),
		Empty:   t.IsEmpty(id),
	}
	if id != t.Root() {
		n.Name = t.Name(id)
	}
	if !n.Virtual {
		n.Range = &Range{From: t.From(id), To: t.To(id)}
	}
	if t.Kind(id) == elements.KindOpenTag {
		if end, ok := t.SemanticEnd(id); ok {
			n.SemanticEnd = &end
		}
	}
	if m := t.MatchingTag(id); m != elements.None && t.Kind(id) == elements.KindOpenTag {
		n.Close = &Range{From: t.From(m), To: t.To(m)}
	}
	if t.Kind(id) == elements.KindText {
		n.Text = t.Text(id)
	}
	for _, a := range t.Attributes(id) {
		attr := JSONAttribute{
			Name:  t.Name(a),
			Range: Range{From: t.From(a), To: t.To(a)},
		}
		if t.HasValue(a) {
			attr.Value = t.UnquotedValue(a)
			attr.Quote = t.Quote(a).String()
		}
		n.Attributes = append(n.Attributes, attr)
	}
	for _, c := range t.Children(id) {
		n.Children = append(n.Children, jsonNode(t, c))
	}
	return n
}
