// Package htmltree parses HTML into an offset-annotated tree: every tag, attribute and text
// run keeps the exact byte range it occupies in the source, and every element knows where
// its content ends, even when the markup is incomplete or misnested.
package htmltree

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dpotapov/go-htmltree/builder"
	"github.com/dpotapov/go-htmltree/elements"
	"github.com/dpotapov/go-htmltree/html"
)

// Mode selects how the top level of the source is interpreted.
type Mode = html.Mode

const (
	// ModeFragment parses the source as the content of a <body> element: top-level nodes
	// hang directly under the root.
	ModeFragment = html.Fragment
	// ModeDocument parses a complete document. Missing html, head and body elements are
	// implied as virtual elements.
	ModeDocument = html.Document
)

// Options configures a parse. The zero value parses a fragment and discards log output.
type Options struct {
	// Mode selects fragment or document parsing.
	Mode Mode

	// Logger configures logging for internal events.
	Logger *slog.Logger

	// MaxDiagnostics limits the number of diagnostics kept in the Result. Zero means no limit.
	MaxDiagnostics int
}

// Result is the outcome of a parse. A tree is always produced.
type Result struct {
	Tree *elements.Tree

	// Doctype is the first document type declaration of the source, if any.
	Doctype *html.Doctype

	// Diagnostics lists the anomalies the builder recovered from, in the order they
	// occurred.
	Diagnostics []builder.Diagnostic

	// Recovered is set when tree construction failed and Tree holds only the root.
	Recovered bool
}

// Err returns the diagnostics joined into a single error, or nil if there are none.
func (r *Result) Err() error {
	errs := make([]error, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		errs[i] = d
	}
	return errors.Join(errs...)
}

// constructTree runs tree construction. Tests replace it to simulate internal failures.
var constructTree = html.Parse

// treeBuilder adds doctype reporting to the builder.
type treeBuilder struct {
	*builder.Builder
	doctype *html.Doctype
}

func (tb *treeBuilder) Doctype(d html.Doctype) {
	tb.doctype = &d
}

// Parse builds the tree for source. It never fails: anomalies are recovered from and
// reported in Result.Diagnostics, and an internal failure yields a tree with just the root.
func Parse(source string, opts Options) (res *Result) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Parse failed", "error", fmt.Errorf("%v", r), "length", len(source))
			res = &Result{Tree: elements.NewTree(source), Recovered: true}
		}
	}()

	tb := &treeBuilder{Builder: builder.New(source, logger)}
	err := constructTree(source, tb, opts.Mode)
	tree := tb.Finish()

	res = &Result{
		Tree:        tree,
		Doctype:     tb.doctype,
		Diagnostics: tb.Diagnostics(),
	}
	if err != nil {
		logger.Error("Tokenize", "error", err)
		res.Diagnostics = append(res.Diagnostics, builder.Diagnostic{
			Kind:   builder.DiagInternal,
			Offset: len(source),
			Err:    fmt.Errorf("tokenize: %w", err),
		})
	}
	if n := opts.MaxDiagnostics; n > 0 && len(res.Diagnostics) > n {
		logger.Debug("Diagnostics truncated", "count", len(res.Diagnostics), "max", n)
		res.Diagnostics = res.Diagnostics[:n]
	}
	return res
}
