package alto

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Token is one OCR string element: its pixel position and size on the
// page, and its recognized content.
type Token struct {
	X       int
	Y       int
	Width   int
	Height  int
	Content string
}

// Page is a parsed ALTO page. Geometry attributes fall back to zero when
// missing or unparseable; a single bad page must never kill a batch run
// over millions of scans.
type Page struct {
	Ref        Ref
	Width      int
	Height     int
	Confidence float64 // page-level OCR confidence (PC attribute)
	TextBlocks []*TextBlock

	root     *xmlquery.Node
	words    cell[[]string]
	strings  cell[[]Token]
	wc       cell[[]string]
	cc       cell[[]string]
	graphics cell[[]string]
}

// ParsePage reads one ALTO stream into a Page. The whole tree is walked
// once; TextBlocks are built eagerly, everything else lazily.
func ParsePage(r io.Reader, ref Ref) (*Page, error) {
	doc, err := xmlquery.Parse(DecodeReader(r))
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", ref.PageCode, err)
	}

	p := &Page{Ref: ref, root: doc}
	if pe := xmlquery.FindOne(doc, "//*[local-name()='Page']"); pe != nil {
		p.Width = intOrZero(attr(pe, "WIDTH"))
		p.Height = intOrZero(attr(pe, "HEIGHT"))
		p.Confidence = floatOrZero(attr(pe, "PC"))
	}
	for _, node := range xmlquery.Find(doc, "//*[local-name()='TextBlock']") {
		p.TextBlocks = append(p.TextBlocks, newTextBlock(node, p))
	}
	return p, nil
}

// Words returns the CONTENT of every String element on the page, in
// document order.
func (p *Page) Words() []string {
	return p.words.get(func() []string {
		var words []string
		for _, s := range xmlquery.Find(p.root, "//*[local-name()='String']") {
			words = append(words, attr(s, "CONTENT"))
		}
		return words
	})
}

// OCRStrings returns every String element on the page as a positioned
// token, in document order.
func (p *Page) OCRStrings() []Token {
	return p.strings.get(func() []Token {
		var tokens []Token
		for _, s := range xmlquery.Find(p.root, "//*[local-name()='String']") {
			tokens = append(tokens, tokenOf(s))
		}
		return tokens
	})
}

// WordConfidences returns the WC attribute of every String element that
// carries one. OCR engines may omit WC, so this list is not guaranteed to
// be the same length as Words.
func (p *Page) WordConfidences() []string {
	return p.wc.get(func() []string { return p.collectAttr("WC") })
}

// CharConfidences returns the CC attribute of every String element that
// carries one. Like WordConfidences, independently lengthed from Words.
func (p *Page) CharConfidences() []string {
	return p.cc.get(func() []string { return p.collectAttr("CC") })
}

// Graphics returns the IDs of the page's GraphicalElement entries.
func (p *Page) Graphics() []string {
	return p.graphics.get(func() []string {
		var ids []string
		for _, g := range xmlquery.Find(p.root, "//*[local-name()='GraphicalElement']") {
			ids = append(ids, attr(g, "ID"))
		}
		return ids
	})
}

// Content joins all page words with single spaces.
func (p *Page) Content() string {
	return strings.Join(p.Words(), " ")
}

func (p *Page) collectAttr(name string) []string {
	var values []string
	for _, s := range xmlquery.Find(p.root, "//*[local-name()='String']") {
		if v, ok := attrOK(s, name); ok {
			values = append(values, v)
		}
	}
	return values
}

func tokenOf(s *xmlquery.Node) Token {
	return Token{
		X:       intOrZero(attr(s, "HPOS")),
		Y:       intOrZero(attr(s, "VPOS")),
		Width:   intOrZero(attr(s, "WIDTH")),
		Height:  intOrZero(attr(s, "HEIGHT")),
		Content: attr(s, "CONTENT"),
	}
}

// attr returns the value of the named attribute, matching on the local
// name so namespace prefixes don't matter.
func attr(n *xmlquery.Node, name string) string {
	v, _ := attrOK(n, name)
	return v
}

func attrOK(n *xmlquery.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func intOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func floatOrZero(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
