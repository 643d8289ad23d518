package builder

import (
	"strings"

	"github.com/dpotapov/go-htmltree/elements"
	"golang.org/x/net/html"
)

// AttrRecord is the raw extent of one attribute as observed through tokenizer
// transitions. Offsets that were never observed are -1.
type AttrRecord struct {
	NameFrom, NameEnd   int
	ValueFrom, ValueEnd int // value extent including quotes
	Quote               elements.Quote
}

func newAttrRecord(nameFrom int) AttrRecord {
	return AttrRecord{NameFrom: nameFrom, NameEnd: -1, ValueFrom: -1, ValueEnd: -1}
}

// end returns the offset just past the attribute, or -1 if the name never ended.
func (r AttrRecord) end() int {
	if r.ValueFrom >= 0 {
		return r.ValueEnd
	}
	return r.NameEnd
}

// Reconciled pairs a raw attribute extent with the attribute the tokenizer reported.
type Reconciled struct {
	Record   AttrRecord
	Reported html.Attribute
}

// Reconcile correlates the attribute extents collected from transitions with the
// attributes reported for the same tag. Pairs are taken positionally; when the names at a
// position disagree (the tokenizer may drop, reorder or rename attributes) an unused
// record with the reported name is preferred. Records that lie before tagFrom, past the
// end of source, or never completed their name are skipped. discarded counts reported
// attributes without a usable record plus records that no attribute claimed.
func Reconcile(source string, tagFrom int, records []AttrRecord, reported []html.Attribute) (pairs []Reconciled, discarded int) {
	used := make([]bool, len(records))
	usable := func(r AttrRecord) bool {
		if r.NameFrom < 0 || r.NameEnd < r.NameFrom {
			return false
		}
		if tagFrom >= 0 && r.NameFrom < tagFrom {
			return false
		}
		end := r.end()
		return end >= r.NameEnd && end <= len(source)
	}

	for i, attr := range reported {
		idx := -1
		switch {
		case i < len(records) && !used[i] && sameName(source, records[i], attr):
			idx = i
		default:
			for j, r := range records {
				if !used[j] && sameName(source, r, attr) {
					idx = j
					break
				}
			}
			if idx == -1 && i < len(records) && !used[i] {
				idx = i
			}
		}
		if idx == -1 {
			discarded++
			continue
		}
		used[idx] = true
		if !usable(records[idx]) {
			discarded++
			continue
		}
		pairs = append(pairs, Reconciled{Record: records[idx], Reported: attr})
	}
	for _, u := range used {
		if !u {
			discarded++
		}
	}
	return pairs, discarded
}

func sameName(source string, r AttrRecord, attr html.Attribute) bool {
	if r.NameFrom < 0 || r.NameEnd < r.NameFrom || r.NameEnd > len(source) {
		return false
	}
	name := source[r.NameFrom:r.NameEnd]
	if strings.EqualFold(name, attr.Key) {
		return true
	}
	return attr.Namespace != "" && strings.EqualFold(name, attr.Namespace+":"+attr.Key)
}
