package htmltree

import (
	"fmt"

	"github.com/dpotapov/go-htmltree/elements"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// NodeEnv is what a query expression sees of a node.
type NodeEnv struct {
	// Kind is one of "open_tag", "close_tag" and "text".
	Kind        string            `expr:"kind"`
	Name        string            `expr:"name"`
	From        int               `expr:"from"`
	To          int               `expr:"to"`
	SemanticEnd int               `expr:"semanticEnd"` // -1 if not set
	Virtual     bool              `expr:"virtual"`
	Empty       bool              `expr:"empty"`
	Matched     bool              `expr:"matched"`
	Depth       int               `expr:"depth"` // 0 for children of the root
	Text        string            `expr:"text"`
	Attrs       map[string]string `expr:"attrs"` // unquoted values by attribute name
}

// Query is a compiled node filter.
type Query struct {
	raw  string
	prog *vm.Program
}

// Compile compiles a boolean expression over NodeEnv, for example
//
//	kind == "open_tag" && name == "li" && !matched
func Compile(expression string) (*Query, error) {
	prog, err := expr.Compile(expression,
		expr.Env(NodeEnv{}),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile query %q: %w", expression, err)
	}
	return &Query{raw: expression, prog: prog}, nil
}

func (q *Query) String() string { return q.raw }

// Select returns the nodes below the root, in document order, for which the query holds.
func (q *Query) Select(t *elements.Tree) ([]elements.ID, error) {
	var (
		ids []elements.ID
		err error
	)
	t.Walk(t.Root(), func(id elements.ID, depth int) bool {
		if err != nil {
			return false
		}
		if id == t.Root() {
			return true
		}
		var out any
		out, err = expr.Run(q.prog, nodeEnv(t, id, depth-1))
		if err != nil {
			err = fmt.Errorf("run query %q on node %d: %w", q.raw, id, err)
			return false
		}
		if ok, _ := out.(bool); ok {
			ids = append(ids, id)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Select compiles expression and runs it over t.
func Select(t *elements.Tree, expression string) ([]elements.ID, error) {
	q, err := Compile(expression)
	if err != nil {
		return nil, err
	}
	return q.Select(t)
}

func nodeEnv(t *elements.Tree, id elements.ID, depth int) NodeEnv {
	env := NodeEnv{
		Kind:        t.Kind(id).String(),
		Name:        t.Name(id),
		From:        t.From(id),
		To:          t.To(id),
		SemanticEnd: -1,
		Virtual:     t.IsVirtual(id),
		Empty:       t.IsEmpty(id),
		Matched:     t.MatchingTag(id) != elements.None,
		Depth:       depth,
		Attrs:       map[string]string{},
	}
	if end, ok := t.SemanticEnd(id); ok {
		env.SemanticEnd = end
	}
	if t.Kind(id) == elements.KindText {
		env.Text = t.Text(id)
	}
	for _, a := range t.Attributes(id) {
		env.Attrs[t.Name(a)] = t.UnquotedValue(a)
	}
	return env
}
