// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package html

import (
	"strings"

	"golang.org/x/net/html"
	a "golang.org/x/net/html/atom"
)

func htmlIntegrationPoint(n *element) bool {
	switch n.ns {
	case "math":
		if n.name == "annotation-xml" {
			for _, attr := range n.attrs {
				if attr.Key == "encoding" {
					val := strings.ToLower(attr.Val)
					if val == "text/html" || val == "application/xhtml+xml" {
						return true
					}
				}
			}
		}
	case "svg":
		switch n.name {
		case "desc", "foreignObject", "title":
			return true
		}
	}
	return false
}

func mathMLTextIntegrationPoint(n *element) bool {
	if n.ns != "math" {
		return false
	}
	switch n.name {
	case "mi", "mo", "mn", "ms", "mtext":
		return true
	}
	return false
}

// Section 12.2.6.5.
var breakout = map[string]bool{
	"b":          true,
	"big":        true,
	"blockquote": true,
	"body":       true,
	"br":         true,
	"center":     true,
	"code":       true,
	"dd":         true,
	"div":        true,
	"dl":         true,
	"dt":         true,
	"em":         true,
	"embed":      true,
	"h1":         true,
	"h2":         true,
	"h3":         true,
	"h4":         true,
	"h5":         true,
	"h6":         true,
	"head":       true,
	"hr":         true,
	"i":          true,
	"img":        true,
	"li":         true,
	"listing":    true,
	"menu":       true,
	"meta":       true,
	"nobr":       true,
	"ol":         true,
	"p":          true,
	"pre":        true,
	"ruby":       true,
	"s":          true,
	"small":      true,
	"span":       true,
	"strong":     true,
	"strike":     true,
	"sub":        true,
	"sup":        true,
	"table":      true,
	"tt":         true,
	"u":          true,
	"ul":         true,
	"var":        true,
}

// Section 12.2.6.5.
var svgTagNameAdjustments = map[string]string{
	"altglyph":            "altGlyph",
	"altglyphdef":         "altGlyphDef",
	"altglyphitem":        "altGlyphItem",
	"animatecolor":        "animateColor",
	"animatemotion":       "animateMotion",
	"animatetransform":    "animateTransform",
	"clippath":            "clipPath",
	"feblend":             "feBlend",
	"fecolormatrix":       "feColorMatrix",
	"fecomponenttransfer": "feComponentTransfer",
	"fecomposite":         "feComposite",
	"feconvolvematrix":    "feConvolveMatrix",
	"fediffuselighting":   "feDiffuseLighting",
	"fedisplacementmap":   "feDisplacementMap",
	"fedistantlight":      "feDistantLight",
	"feflood":             "feFlood",
	"fefunca":             "feFuncA",
	"fefuncb":             "feFuncB",
	"fefuncg":             "feFuncG",
	"fefuncr":             "feFuncR",
	"fegaussianblur":      "feGaussianBlur",
	"feimage":             "feImage",
	"femerge":             "feMerge",
	"femergenode":         "feMergeNode",
	"femorphology":        "feMorphology",
	"feoffset":            "feOffset",
	"fepointlight":        "fePointLight",
	"fespecularlighting":  "feSpecularLighting",
	"fespotlight":         "feSpotLight",
	"fetile":              "feTile",
	"feturbulence":        "feTurbulence",
	"foreignobject":       "foreignObject",
	"glyphref":            "glyphRef",
	"lineargradient":      "linearGradient",
	"radialgradient":      "radialGradient",
	"textpath":            "textPath",
}

// Section 12.2.4.2.
var isSpecialElementMap = map[a.Atom]bool{
	a.Address:    true,
	a.Applet:     true,
	a.Area:       true,
	a.Article:    true,
	a.Aside:      true,
	a.Base:       true,
	a.Basefont:   true,
	a.Bgsound:    true,
	a.Blockquote: true,
	a.Body:       true,
	a.Br:         true,
	a.Button:     true,
	a.Caption:    true,
	a.Center:     true,
	a.Col:        true,
	a.Colgroup:   true,
	a.Dd:         true,
	a.Details:    true,
	a.Dir:        true,
	a.Div:        true,
	a.Dl:         true,
	a.Dt:         true,
	a.Embed:      true,
	a.Fieldset:   true,
	a.Figcaption: true,
	a.Figure:     true,
	a.Footer:     true,
	a.Form:       true,
	a.Frame:      true,
	a.Frameset:   true,
	a.H1:         true,
	a.H2:         true,
	a.H3:         true,
	a.H4:         true,
	a.H5:         true,
	a.H6:         true,
	a.Head:       true,
	a.Header:     true,
	a.Hgroup:     true,
	a.Hr:         true,
	a.Html:       true,
	a.Iframe:     true,
	a.Img:        true,
	a.Input:      true,
	a.Keygen:     true,
	a.Li:         true,
	a.Link:       true,
	a.Listing:    true,
	a.Main:       true,
	a.Marquee:    true,
	a.Menu:       true,
	a.Meta:       true,
	a.Nav:        true,
	a.Noembed:    true,
	a.Noframes:   true,
	a.Noscript:   true,
	a.Object:     true,
	a.Ol:         true,
	a.P:          true,
	a.Param:      true,
	a.Plaintext:  true,
	a.Pre:        true,
	a.Script:     true,
	a.Section:    true,
	a.Select:     true,
	a.Source:     true,
	a.Style:      true,
	a.Summary:    true,
	a.Table:      true,
	a.Tbody:      true,
	a.Td:         true,
	a.Template:   true,
	a.Textarea:   true,
	a.Tfoot:      true,
	a.Th:         true,
	a.Thead:      true,
	a.Title:      true,
	a.Tr:         true,
	a.Track:      true,
	a.Ul:         true,
	a.Wbr:        true,
	a.Xmp:        true,
}

func isSpecialElement(n *element) bool {
	switch n.ns {
	case "", "html":
		return n.atom != 0 && isSpecialElementMap[n.atom]
	case "math":
		switch n.name {
		case "mi", "mo", "mn", "ms", "mtext", "annotation-xml":
			return true
		}
	case "svg":
		switch n.name {
		case "foreignObject", "desc", "title":
			return true
		}
	}
	return false
}

// breaksOutOfForeignContent reports whether a start tag ends foreign content.
func breaksOutOfForeignContent(name string, attrs []html.Attribute) bool {
	if breakout[name] {
		return true
	}
	if name != "font" {
		return false
	}
	for _, attr := range attrs {
		switch attr.Key {
		case "color", "face", "size":
			return true
		}
	}
	return false
}
