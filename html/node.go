// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package html

import (
	"github.com/dpotapov/go-htmltree/elements"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// element is the parser's view of a node it handed to the TreeBuilder: enough to make
// scope and insertion mode decisions without reading the tree back.
type element struct {
	id     elements.ID
	atom   atom.Atom
	name   string
	ns     string
	attrs  []html.Attribute
	marker bool
}

// Section 12.2.4.3 says "The markers are inserted when entering applet,
// object, marquee, template, td, th, and caption elements, and are used
// to prevent formatting from "leaking" into applet, object, marquee,
// template, td, th, and caption elements".
var scopeMarker = element{id: elements.None, marker: true}

// elementStack is a stack of elements.
type elementStack []*element

// pop pops the stack. It will panic if s is empty.
func (s *elementStack) pop() *element {
	i := len(*s)
	n := (*s)[i-1]
	*s = (*s)[:i-1]
	return n
}

// top returns the most recently pushed element, or nil if s is empty.
func (s *elementStack) top() *element {
	if i := len(*s); i > 0 {
		return (*s)[i-1]
	}
	return nil
}

// index returns the index of the top-most occurrence of n in the stack, or -1
// if n is not present.
func (s *elementStack) index(n *element) int {
	for i := len(*s) - 1; i >= 0; i-- {
		if (*s)[i] == n {
			return i
		}
	}
	return -1
}

// contains returns whether a is within s.
func (s *elementStack) contains(a atom.Atom) bool {
	for _, n := range *s {
		if n.atom == a && n.ns == "" {
			return true
		}
	}
	return false
}

// insert inserts an element at the given index.
func (s *elementStack) insert(i int, n *element) {
	(*s) = append(*s, nil)
	copy((*s)[i+1:], (*s)[i:])
	(*s)[i] = n
}

// remove removes an element from the stack. It is a no-op if n is not present.
func (s *elementStack) remove(n *element) {
	i := s.index(n)
	if i == -1 {
		return
	}
	copy((*s)[i:], (*s)[i+1:])
	j := len(*s) - 1
	(*s)[j] = nil
	*s = (*s)[:j]
}

// shallow returns an element record with the same name and attributes, not yet backed
// by a tree node.
func (n *element) shallow() *element {
	m := &element{
		id:    elements.None,
		atom:  n.atom,
		name:  n.name,
		ns:    n.ns,
		attrs: make([]html.Attribute, len(n.attrs)),
	}
	copy(m.attrs, n.attrs)
	return m
}
