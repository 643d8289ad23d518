// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package html

import (
	"strings"
)

// Doctype is a parsed document type declaration.
type Doctype struct {
	Name   string `json:"name"`
	Public string `json:"public,omitempty"`
	System string `json:"system,omitempty"`
}

// parseDoctype parses the data from a DoctypeToken into a name,
// public identifier, and system identifier.
func parseDoctype(s string) (d Doctype) {
	// Find the name.
	space := strings.IndexAny(s, whitespace)
	if space == -1 {
		space = len(s)
	}
	d.Name = strings.ToLower(s[:space])
	s = strings.TrimLeft(s[space:], whitespace)

	if len(s) < 6 {
		// It can't start with "PUBLIC" or "SYSTEM".
		// Ignore the rest of the string.
		return d
	}

	key := strings.ToLower(s[:6])
	s = s[6:]
	for key == "public" || key == "system" {
		s = strings.TrimLeft(s, whitespace)
		if s == "" {
			break
		}
		quote := s[0]
		if quote != '"' && quote != '\'' {
			break
		}
		s = s[1:]
		q := strings.IndexRune(s, rune(quote))
		var id string
		if q == -1 {
			id = s
			s = ""
		} else {
			id = s[:q]
			s = s[q+1:]
		}
		if key == "public" {
			d.Public = id
			key = "system"
		} else {
			d.System = id
			key = ""
		}
	}

	return d
}
