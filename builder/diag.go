package builder

import "fmt"

// DiagKind classifies a recovered anomaly.
type DiagKind uint8

const (
	// DiagStructuralMismatch: an element was popped that is not the current node.
	DiagStructuralMismatch DiagKind = iota
	// DiagAttributeDesync: attribute extents and reported attributes disagree.
	DiagAttributeDesync
	// DiagSpanOverflow: an extent did not fit a span and was saturated.
	DiagSpanOverflow
	// DiagInternal: an inconsistency in the callback sequence.
	DiagInternal
)

func (k DiagKind) String() string {
	switch k {
	case DiagStructuralMismatch:
		return "structural-mismatch"
	case DiagAttributeDesync:
		return "attribute-desync"
	case DiagSpanOverflow:
		return "span-overflow"
	case DiagInternal:
		return "internal"
	}
	return fmt.Sprintf("DiagKind(%d)", uint8(k))
}

// Diagnostic is an anomaly the builder recovered from. None of them stops the parse.
type Diagnostic struct {
	Kind   DiagKind
	Offset int
	Err    error
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s at %d: %v", d.Kind, d.Offset, d.Err)
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}

func (b *Builder) report(kind DiagKind, offset int, err error) {
	b.diags = append(b.diags, Diagnostic{Kind: kind, Offset: offset, Err: err})
	b.logger.Debug("Recovered", "kind", kind.String(), "offset", offset, "error", err)
}
