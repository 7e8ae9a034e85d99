package mets

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/antchfx/xmlquery"

	"github.com/gardar/newsprint/pkg/alto"
	"github.com/gardar/newsprint/pkg/match"
)

const modsNS = "http://www.loc.gov/mods/v3"

// Part is the shape and coordinate string of one physical-map area, as
// recorded on its file pointer.
type Part struct {
	Shape  string
	Coords string
}

// ArticleText pairs one article area with its resolved text block.
type ArticleText struct {
	Area  *Area
	Block *alto.TextBlock
}

// Document is one parsed METS metadata stream. Scalar metadata and the
// structural maps are derived lazily and memoized; pages are parsed on
// first access and cached for the document's lifetime.
type Document struct {
	Code string
	Type string

	src  Source
	root *xmlquery.Node

	title      cell[string]
	publisher  cell[string]
	place      cell[string]
	date       cell[string]
	identifier cell[string]
	structure  cell[*structure]
	years      cell[[]int]
	pageCodes  cell[[]string]

	pages map[string]*alto.Page

	articlesOnce sync.Once
	articles     map[string][]ArticleText
	articlesErr  error
}

// structure holds every derivation of the three structural sections,
// built together in one pass so the inverse maps cannot drift apart.
type structure struct {
	pageOrder  []string
	areas      map[string][]*Area
	areaByID   map[string]*Area
	partsCoord map[string]Part
	articleIDs []string
	locators   map[string][]string
	articleFor map[string]string
	pageParts  map[string]string
}

// New opens and parses the METS metadata for one document code. A stream
// that cannot be opened or parsed is fatal for this document only.
func New(code string, src Source) (*Document, error) {
	rc, err := src.OpenDocument(code)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	root, err := xmlquery.Parse(alto.DecodeReader(rc))
	if err != nil {
		return nil, fmt.Errorf("document %s: %w: %v", code, ErrMalformed, err)
	}
	return &Document{
		Code:  code,
		Type:  "newspaper",
		src:   src,
		root:  root,
		pages: make(map[string]*alto.Page),
	}, nil
}

// Title returns the MODS title, or "" when absent.
func (d *Document) Title() string {
	return d.title.get(func() string { return d.singleQuery("title") })
}

// Publisher returns the MODS publisher, or "" when absent.
func (d *Document) Publisher() string {
	return d.publisher.get(func() string { return d.singleQuery("publisher") })
}

// Place returns the MODS place term, or "" when absent.
func (d *Document) Place() string {
	return d.place.get(func() string { return d.singleQuery("placeTerm") })
}

// Date returns the MODS issue date text, or "" when absent.
func (d *Document) Date() string {
	return d.date.get(func() string { return d.singleQuery("dateIssued") })
}

// Identifier returns the MODS identifier, or "" when absent.
func (d *Document) Identifier() string {
	return d.identifier.get(func() string { return d.singleQuery("identifier") })
}

// singleQuery returns the text of the first MODS element with the given
// local name. Missing metadata yields "", never an error.
func (d *Document) singleQuery(local string) string {
	q := fmt.Sprintf("//*[local-name()='%s' and namespace-uri()='%s']", local, modsNS)
	n := xmlquery.FindOne(d.root, q)
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.InnerText())
}

func (d *Document) structural() *structure {
	return d.structure.get(d.buildStructure)
}

// buildStructure resolves the physical map, the logical map and the
// structural links in one pass. The links are walked first so that every
// Area can be constructed fully formed, with its article id and page-part
// label already resolved.
func (d *Document) buildStructure() *structure {
	s := &structure{
		areas:      make(map[string][]*Area),
		areaByID:   make(map[string]*Area),
		partsCoord: make(map[string]Part),
		locators:   make(map[string][]string),
		articleFor: make(map[string]string),
		pageParts:  make(map[string]string),
	}

	// structLink: the first locator of each group is the article id, the
	// rest are its area ids in link order. Both directions of the lookup
	// come from this same walk.
	for _, grp := range xmlquery.Find(d.root, "//*[local-name()='structLink']/*[local-name()='smLinkGrp']") {
		var ids []string
		for _, loc := range xmlquery.Find(grp, "./*[local-name()='smLocatorLink']") {
			id := partID.ReplaceAllString(attr(loc, "href"), "")
			ids = append(ids, id)
			s.pageParts[id] = attr(loc, "label")
		}
		if len(ids) == 0 {
			continue
		}
		s.locators[ids[0]] = ids[1:]
		for _, id := range ids[1:] {
			s.articleFor[id] = ids[0]
		}
	}

	// Logical map: the authoritative article id list. Ids appearing only
	// in structLink (physical placeholders) are not articles.
	if logical := xmlquery.FindOne(d.root, "//*[local-name()='structMap' and @TYPE='LOGICAL']"); logical != nil {
		for _, div := range xmlquery.Find(logical, ".//*[local-name()='div' and @TYPE='ARTICLE']") {
			s.articleIDs = append(s.articleIDs, attr(div, "ID"))
		}
	}

	// Physical map: pages in order, each with its area divisions.
	if physical := xmlquery.FindOne(d.root, "//*[local-name()='structMap' and @TYPE='PHYSICAL']"); physical != nil {
		for _, pageDiv := range xmlquery.Find(physical, ".//*[local-name()='div' and @TYPE='page']") {
			pageCode := padCode(attr(pageDiv, "ORDER"))
			s.pageOrder = append(s.pageOrder, pageCode)
			for _, areaDiv := range xmlquery.Find(pageDiv, "./*[local-name()='div']") {
				fptr := xmlquery.FindOne(areaDiv, "./*[local-name()='fptr']")
				if fptr == nil {
					continue
				}
				for _, fp := range xmlquery.Find(fptr, "./*") {
					a := newArea(d, pageCode, areaDiv, fp, s.articleFor, s.pageParts)
					s.areas[pageCode] = append(s.areas[pageCode], a)
					s.areaByID[a.ID] = a
					s.partsCoord[a.ID] = Part{Shape: a.Shape, Coords: a.CoordsText}
				}
			}
		}
	}
	return s
}

// padCode zero-pads a physical-map ORDER value to the four digits page
// codes carry in filenames.
func padCode(order string) string {
	if len(order) >= 4 {
		return order
	}
	return strings.Repeat("0", 4-len(order)) + order
}

// PageCodes returns the document's page codes in numeric order. The
// source listing wins when it has one; otherwise the physical structural
// map's page order is used.
func (d *Document) PageCodes() []string {
	return d.pageCodes.get(func() []string {
		codes := d.src.PageCodes(d.Code)
		if len(codes) == 0 {
			return append([]string(nil), d.structural().pageOrder...)
		}
		codes = append([]string(nil), codes...)
		SortPageCodes(codes)
		return codes
	})
}

// PageCount returns the number of pages the document declares.
func (d *Document) PageCount() int { return len(d.PageCodes()) }

// ArticleIDs returns the ids of the logical map's ARTICLE divisions, in
// document order.
func (d *Document) ArticleIDs() []string { return d.structural().articleIDs }

// Locators returns the article id to area ids map from the structural
// links, each list in link order.
func (d *Document) Locators() map[string][]string { return d.structural().locators }

// ArticleIDLookup returns the inverse of Locators: area id to owning
// article id.
func (d *Document) ArticleIDLookup() map[string]string { return d.structural().articleFor }

// PageParts returns the freeform page/area label for each linked area id.
func (d *Document) PageParts() map[string]string { return d.structural().pageParts }

// PartsCoord returns the shape and coordinate string for each area id in
// the physical map.
func (d *Document) PartsCoord() map[string]Part { return d.structural().partsCoord }

// Areas returns the areas of one page in physical-map order.
func (d *Document) Areas(pageCode string) []*Area {
	return d.structural().areas[pageCode]
}

// AllAreas returns every area keyed by page code.
func (d *Document) AllAreas() map[string][]*Area { return d.structural().areas }

// Page parses the ALTO stream for one page code. Pages are cached for
// the document's lifetime, so repeated area and article resolution does
// not reparse.
func (d *Document) Page(code string) (*alto.Page, error) {
	if p, ok := d.pages[code]; ok {
		return p, nil
	}
	rc, err := d.src.OpenPage(d.Code, code)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	p, err := alto.ParsePage(rc, alto.Ref{
		ArchivePath:  d.src.Path(),
		DocumentCode: d.Code,
		PageCode:     code,
	})
	if err != nil {
		return nil, err
	}
	d.pages[code] = p
	return p, nil
}

// EachPage calls fn for every page in order, stopping on the first error.
func (d *Document) EachPage(fn func(*alto.Page) error) error {
	for _, code := range d.PageCodes() {
		p, err := d.Page(code)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

// TextBlocks returns every text block of every page, in page order.
func (d *Document) TextBlocks() ([]*alto.TextBlock, error) {
	var blocks []*alto.TextBlock
	err := d.EachPage(func(p *alto.Page) error {
		blocks = append(blocks, p.TextBlocks...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// Words returns every word of every page, in page order.
func (d *Document) Words() ([]string, error) {
	var words []string
	err := d.EachPage(func(p *alto.Page) error {
		words = append(words, p.Words()...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return words, nil
}

// WordConfidences returns every WC value of every page, in page order.
func (d *Document) WordConfidences() ([]string, error) {
	var wc []string
	err := d.EachPage(func(p *alto.Page) error {
		wc = append(wc, p.WordConfidences()...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wc, nil
}

// CharConfidences returns every CC value of every page, in page order.
func (d *Document) CharConfidences() ([]string, error) {
	var cc []string
	err := d.EachPage(func(p *alto.Page) error {
		cc = append(cc, p.CharConfidences()...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cc, nil
}

// Articles resolves each article id to its text, pairing every linked
// area with the text block that carries its id. Areas the physical map
// does not know, and areas whose page has no matching block, are skipped.
// The result is memoized.
func (d *Document) Articles() (map[string][]ArticleText, error) {
	d.articlesOnce.Do(func() {
		d.articles, d.articlesErr = d.buildArticles()
	})
	return d.articles, d.articlesErr
}

func (d *Document) buildArticles() (map[string][]ArticleText, error) {
	s := d.structural()
	articles := make(map[string][]ArticleText)
	for _, articleID := range s.articleIDs {
		for _, areaID := range s.locators[articleID] {
			area, ok := s.areaByID[areaID]
			if !ok {
				continue
			}
			block, err := area.TextBlock()
			if err != nil {
				return nil, err
			}
			if block == nil {
				continue
			}
			articles[articleID] = append(articles[articleID], ArticleText{Area: area, Block: block})
		}
	}
	return articles, nil
}

// Match runs the token matcher over every text block of every page and
// concatenates the results in page order.
func (d *Document) Match(opts match.Options, tokens ...string) ([]alto.Result, error) {
	var results []alto.Result
	err := d.EachPage(func(p *alto.Page) error {
		for _, tb := range p.TextBlocks {
			hits, err := tb.Match(opts, tokens...)
			if err != nil {
				return err
			}
			results = append(results, hits...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SortPageCodes sorts page codes in place by their numeric segments, so
// "2" sorts before "10".
func SortPageCodes(codes []string) {
	sort.SliceStable(codes, func(i, j int) bool {
		return lessKeys(SortKey(codes[i]), SortKey(codes[j]))
	})
}

func lessKeys(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
