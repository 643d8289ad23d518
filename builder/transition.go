package builder

import (
	"strings"

	"github.com/dpotapov/go-htmltree/elements"
)

// Transition follows the raw tokenizer state machine. offset is the position of the
// character that caused the transition. It is the only source of the '>' positions that
// end tags: the tree callbacks for a tag run before its '>' is consumed.
func (b *Builder) Transition(from, to State, reconsume bool, offset int) {
	b.state = to
	if offset > b.offset {
		b.offset = offset
	}

	// leaving a state
	switch from {
	case StateTagName:
		if to != StateTagName {
			b.tagNameEnd = offset
		}
	case StateAttributeName:
		if r := b.lastAttr(); r != nil && to != StateAttributeName && r.NameEnd < 0 {
			r.NameEnd = offset
		}
	case StateAttributeValueDoubleQuoted, StateAttributeValueSingleQuoted:
		if r := b.lastAttr(); r != nil && to == StateAfterAttributeValueQuoted {
			r.ValueEnd = offset + 1
		}
	case StateAttributeValueUnquoted:
		if r := b.lastAttr(); r != nil && to != StateAttributeValueUnquoted {
			r.ValueEnd = offset
		}
	case StateSelfClosingStartTag:
		if to != StateData && to != StateEOF {
			// "/" not followed by ">" is ignored
			b.selfClosing = false
		}
	}

	// entering a state
	switch to {
	case StateTagOpen:
		b.beginTag(offset)
	case StateAttributeName:
		if from != StateAttributeName {
			b.attrs = append(b.attrs, newAttrRecord(offset))
		}
	case StateBeforeAttributeValue:
		// '=' seen; the value starts at the next transition
	case StateAttributeValueDoubleQuoted:
		b.beginValue(offset, elements.QuoteDouble)
	case StateAttributeValueSingleQuoted:
		b.beginValue(offset, elements.QuoteSingle)
	case StateAttributeValueUnquoted:
		if from != StateAttributeValueUnquoted {
			b.beginValue(offset, elements.QuoteNone)
		}
	case StateSelfClosingStartTag:
		b.selfClosing = true
	case StateData:
		if from.inTag() && b.tagLt >= 0 {
			b.finishTag(offset + 1)
		}
	case StateEOF:
		if b.tagLt >= 0 {
			b.finishTag(offset)
		}
		b.offset = offset
	}
}

func (b *Builder) lastAttr() *AttrRecord {
	if len(b.attrs) == 0 {
		return nil
	}
	return &b.attrs[len(b.attrs)-1]
}

// closedAttrs returns the attribute records with every open extent closed. The last
// attribute of a tag is still open when the tree callbacks run, because the transition
// that ends it is the one consuming '>'; its end is found by scanning the source the way
// the tokenizer will.
func (b *Builder) closedAttrs() []AttrRecord {
	records := make([]AttrRecord, len(b.attrs))
	for i, r := range b.attrs {
		if r.NameEnd < 0 {
			r.NameEnd = b.scan(r.NameFrom, "\t\n\f\r />=", false)
		}
		if r.ValueFrom >= 0 && r.ValueEnd < 0 {
			switch r.Quote {
			case elements.QuoteDouble:
				r.ValueEnd = b.scan(r.ValueFrom+1, `"`, true)
			case elements.QuoteSingle:
				r.ValueEnd = b.scan(r.ValueFrom+1, "'", true)
			default:
				r.ValueEnd = b.scan(r.ValueFrom, "\t\n\f\r >", false)
			}
		}
		records[i] = r
	}
	return records
}

// scan returns the offset of the first byte at or after from that is in stop, or the end
// of the source. With inclusive the stop byte is part of the extent.
func (b *Builder) scan(from int, stop string, inclusive bool) int {
	if from >= len(b.source) {
		return len(b.source)
	}
	i := strings.IndexAny(b.source[from:], stop)
	if i < 0 {
		return len(b.source)
	}
	if inclusive {
		i++
	}
	return from + i
}

func (b *Builder) beginTag(lt int) {
	b.tagLt = lt
	b.tagNameEnd = -1
	b.selfClosing = false
	b.attrs = b.attrs[:0]
	b.currentOpenTag = elements.None
	b.currentCloseTag = elements.None
}

func (b *Builder) beginValue(offset int, q elements.Quote) {
	r := b.lastAttr()
	if r == nil {
		return
	}
	if r.NameEnd < 0 {
		r.NameEnd = offset
	}
	r.ValueFrom, r.ValueEnd, r.Quote = offset, -1, q
}

// finishTag applies the end offset of the tag being lexed to the nodes created for it.
func (b *Builder) finishTag(end int) {
	if id := b.currentOpenTag; id != elements.None {
		b.setEnd(id, end)
		if (b.tree.IsEmpty(id) || !b.isOpen(id)) && b.tree.MatchingTag(id) == elements.None {
			b.tree.SetSemanticEndOffset(id, end)
		}
	}
	if id := b.currentCloseTag; id != elements.None {
		b.setEnd(id, end)
		if m := b.tree.MatchingTag(id); m != elements.None {
			b.tree.SetSemanticEndOffset(m, end)
		}
	}
	b.currentOpenTag, b.currentCloseTag = elements.None, elements.None
	b.tagLt, b.tagNameEnd = -1, -1
	b.selfClosing = false
	b.startTagName = ""
	b.attrs = b.attrs[:0]
	b.offset = end
}

func (b *Builder) setEnd(id elements.ID, end int) {
	if err := b.tree.SetEndOffset(id, end); err != nil {
		b.report(DiagSpanOverflow, b.tree.From(id), err)
	}
}

func (b *Builder) isOpen(id elements.ID) bool {
	for i := len(b.stack) - 1; i > 0; i-- {
		if b.stack[i] == id {
			return true
		}
	}
	return false
}
