package mets

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/antchfx/xmlquery"

	"github.com/gardar/newsprint/pkg/alto"
)

// Area is one rectangular region of a page, as described by a physical
// structural-map division. Areas are fully formed at construction: the
// article id and page-part label come from the structural links resolved
// in the same pass that walked the physical map.
type Area struct {
	ID       string
	Type     string
	Category string
	PageCode string

	FileID     string
	Shape      string
	CoordsText string

	X0, Y0, X1, Y1 int

	// ArticleID is "" when no structural link references this area.
	// That is observed and valid, not an error; such areas are excluded
	// from article resolution.
	ArticleID string
	PagePart  string

	doc *Document

	blockOnce sync.Once
	block     *alto.TextBlock
	blockErr  error
}

func newArea(d *Document, pageCode string, div, fptr *xmlquery.Node, articleFor, pageParts map[string]string) *Area {
	a := &Area{
		ID:         attr(div, "ID"),
		Type:       attr(div, "TYPE"),
		Category:   attr(div, "LABEL"),
		PageCode:   pageCode,
		FileID:     attr(fptr, "FILEID"),
		Shape:      attr(fptr, "SHAPE"),
		CoordsText: attr(fptr, "COORDS"),
		doc:        d,
	}
	coords := strings.Split(a.CoordsText, ",")
	vals := make([]int, 4)
	for i := 0; i < len(coords) && i < 4; i++ {
		vals[i], _ = strconv.Atoi(strings.TrimSpace(coords[i]))
	}
	a.X0, a.Y0, a.X1, a.Y1 = vals[0], vals[1], vals[2], vals[3]
	a.ArticleID = articleFor[a.ID]
	a.PagePart = pageParts[a.ID]
	return a
}

// X returns the area's left edge in pixels.
func (a *Area) X() int { return a.X0 }

// Y returns the area's top edge in pixels.
func (a *Area) Y() int { return a.Y0 }

// Width returns the area's width in pixels.
func (a *Area) Width() int { return a.X1 - a.X0 }

// Height returns the area's height in pixels.
func (a *Area) Height() int { return a.Y1 - a.Y0 }

// Equal reports whether two areas describe the same structural division.
// Areas are re-derivable, so two instances with the same id may coexist;
// identity comparison is meaningless.
func (a *Area) Equal(other *Area) bool {
	return other != nil && a.ID == other.ID
}

// Page parses and returns the area's owning page.
func (a *Area) Page() (*alto.Page, error) {
	return a.doc.Page(a.PageCode)
}

// TextBlock resolves the page text block carrying this area's id. A page
// with no matching block yields nil; a page where several blocks share
// the id fails with ErrAmbiguousBlock. The resolution is memoized.
func (a *Area) TextBlock() (*alto.TextBlock, error) {
	a.blockOnce.Do(func() {
		page, err := a.doc.Page(a.PageCode)
		if err != nil {
			a.blockErr = err
			return
		}
		for _, tb := range page.TextBlocks {
			if tb.ID != a.ID {
				continue
			}
			if a.block != nil {
				a.block = nil
				a.blockErr = fmt.Errorf("%w: %s on page %s", ErrAmbiguousBlock, a.ID, a.PageCode)
				return
			}
			a.block = tb
		}
	})
	return a.block, a.blockErr
}

// Content returns the text of the area's block, or "" when the area has
// no block.
func (a *Area) Content() (string, error) {
	tb, err := a.TextBlock()
	if err != nil {
		return "", err
	}
	if tb == nil {
		return "", nil
	}
	return tb.Content(), nil
}

// Tokens returns the positioned tokens of the area's block, or nil when
// the area has no block.
func (a *Area) Tokens() ([]alto.Token, error) {
	tb, err := a.TextBlock()
	if err != nil {
		return nil, err
	}
	if tb == nil {
		return nil, nil
	}
	return tb.Tokens(), nil
}
