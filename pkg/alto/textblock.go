package alto

import (
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/gardar/newsprint/pkg/match"
)

// Rect is a bounding rectangle with min/max corner coordinates.
type Rect struct {
	X0, Y0, X1, Y1 int
}

// Width returns the rectangle width in pixels.
func (r Rect) Width() int { return r.X1 - r.X0 }

// Height returns the rectangle height in pixels.
func (r Rect) Height() int { return r.Y1 - r.Y0 }

// TextBlock is the OCR text container for one structural area of a page.
// Tokens are extracted when the page is parsed; derived views are
// memoized on first access.
type TextBlock struct {
	ID   string
	page *Page

	tokens []Token
	wc     []string
	cc     []string

	words cell[[]string]
	bbox  cell[Rect]
}

func newTextBlock(node *xmlquery.Node, page *Page) *TextBlock {
	tb := &TextBlock{ID: attr(node, "ID"), page: page}
	for _, line := range xmlquery.Find(node, "./*[local-name()='TextLine']") {
		for _, s := range xmlquery.Find(line, "./*[local-name()='String']") {
			tb.tokens = append(tb.tokens, tokenOf(s))
			if v, ok := attrOK(s, "WC"); ok {
				tb.wc = append(tb.wc, v)
			}
			if v, ok := attrOK(s, "CC"); ok {
				tb.cc = append(tb.cc, v)
			}
		}
	}
	return tb
}

// Page returns the page this block was parsed from.
func (tb *TextBlock) Page() *Page { return tb.page }

// Tokens returns the block's OCR strings as positioned tokens, in
// document order.
func (tb *TextBlock) Tokens() []Token { return tb.tokens }

// Words returns the token contents of the block, in document order.
func (tb *TextBlock) Words() []string {
	return tb.words.get(func() []string {
		words := make([]string, len(tb.tokens))
		for i, t := range tb.tokens {
			words[i] = t.Content
		}
		return words
	})
}

// WordConfidences returns the WC values present on the block's strings.
// Values stay strings; non-numeric entries are preserved as-is.
func (tb *TextBlock) WordConfidences() []string { return tb.wc }

// CharConfidences returns the CC values present on the block's strings.
func (tb *TextBlock) CharConfidences() []string { return tb.cc }

// Content joins the block's words with single spaces.
func (tb *TextBlock) Content() string {
	return strings.Join(tb.Words(), " ")
}

// BoundingBox returns the tight rectangle around all tokens in the block.
// A block with no tokens degenerates to the full page extent; that is a
// documented fallback, not an error.
func (tb *TextBlock) BoundingBox() Rect {
	return tb.bbox.get(func() Rect {
		if len(tb.tokens) == 0 {
			return Rect{0, 0, tb.page.Width, tb.page.Height}
		}
		box := Rect{
			X0: tb.tokens[0].X,
			Y0: tb.tokens[0].Y,
			X1: tb.tokens[0].X + tb.tokens[0].Width,
			Y1: tb.tokens[0].Y + tb.tokens[0].Height,
		}
		for _, t := range tb.tokens[1:] {
			if t.X < box.X0 {
				box.X0 = t.X
			}
			if t.Y < box.Y0 {
				box.Y0 = t.Y
			}
			if t.X+t.Width > box.X1 {
				box.X1 = t.X + t.Width
			}
			if t.Y+t.Height > box.Y1 {
				box.Y1 = t.Y + t.Height
			}
		}
		return box
	})
}

// ProcessTokens returns the block's tokens with their content run through
// the configured preprocessing stages. Position and size are untouched.
func (tb *TextBlock) ProcessTokens(opts match.Options) []Token {
	processed := make([]Token, len(tb.tokens))
	for i, t := range tb.tokens {
		t.Content = match.Process(t.Content, opts)
		processed[i] = t
	}
	return processed
}
