package mets

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/newsprint/pkg/match"
)

const metsXML = `<?xml version="1.0" encoding="UTF-8"?>
<mets:mets xmlns:mets="http://www.loc.gov/METS/" xmlns:mods="http://www.loc.gov/mods/v3" xmlns:xlink="http://www.w3.org/1999/xlink">
  <mets:dmdSec ID="DMD1">
    <mets:mdWrap><mets:xmlData>
      <mods:mods>
        <mods:titleInfo><mods:title>The Daily Gazette</mods:title></mods:titleInfo>
        <mods:originInfo>
          <mods:publisher>Gazette Press</mods:publisher>
          <mods:place><mods:placeTerm>Glasgow</mods:placeTerm></mods:place>
          <mods:dateIssued>1847 [1846, 47]</mods:dateIssued>
        </mods:originInfo>
        <mods:identifier>0001_18470101</mods:identifier>
      </mods:mods>
    </mets:xmlData></mets:mdWrap>
  </mets:dmdSec>
  <mets:structMap TYPE="PHYSICAL">
    <mets:div TYPE="issue">
      <mets:div TYPE="page" ID="phys1" ORDER="1">
        <mets:div ID="pa0001001" TYPE="Area" LABEL="article">
          <mets:fptr>
            <mets:area FILEID="ALTO0001" SHAPE="RECT" COORDS="1220,5,2893,221"/>
          </mets:fptr>
        </mets:div>
        <mets:div ID="pa0001003" TYPE="Area" LABEL="article">
          <mets:fptr>
            <mets:area FILEID="ALTO0001" SHAPE="RECT" COORDS="2934,14,3709,211"/>
          </mets:fptr>
        </mets:div>
        <mets:div ID="pa0001005" TYPE="Area" LABEL="advert">
          <mets:fptr>
            <mets:area FILEID="ALTO0001" SHAPE="RECT" COORDS="10,10,20,20"/>
          </mets:fptr>
        </mets:div>
      </mets:div>
      <mets:div TYPE="page" ID="phys2" ORDER="2">
        <mets:div ID="pa0002001" TYPE="Area" LABEL="article">
          <mets:fptr>
            <mets:area FILEID="ALTO0002" SHAPE="RECT" COORDS="100,100,400,300"/>
          </mets:fptr>
        </mets:div>
      </mets:div>
    </mets:div>
  </mets:structMap>
  <mets:structMap TYPE="LOGICAL">
    <mets:div TYPE="ISSUE">
      <mets:div TYPE="ARTICLE" ID="art0001"/>
      <mets:div TYPE="ARTICLE" ID="art0002"/>
    </mets:div>
  </mets:structMap>
  <mets:structLink>
    <mets:smLinkGrp>
      <mets:smLocatorLink xlink:href="#art0001" xlink:label="article1" xlink:type="locator"/>
      <mets:smLocatorLink xlink:href="#pa0001001" xlink:label="page1 area1" xlink:type="locator"/>
      <mets:smLocatorLink xlink:href="#pa0001003" xlink:label="page1 area3" xlink:type="locator"/>
    </mets:smLinkGrp>
    <mets:smLinkGrp>
      <mets:smLocatorLink xlink:href="#art0002" xlink:label="article2" xlink:type="locator"/>
      <mets:smLocatorLink xlink:href="#pa0002001" xlink:label="page2 area1" xlink:type="locator"/>
    </mets:smLinkGrp>
  </mets:structLink>
</mets:mets>`

const altoPage1 = `<?xml version="1.0" encoding="UTF-8"?>
<alto xmlns="http://www.loc.gov/standards/alto/ns-v3#">
  <Layout>
    <Page WIDTH="5000" HEIGHT="7000" PC="0.91">
      <PrintSpace>
        <TextBlock ID="pa0001001">
          <TextLine>
            <String CONTENT="Parliament" HPOS="1220" VPOS="5" WIDTH="400" HEIGHT="60"/>
          </TextLine>
        </TextBlock>
        <TextBlock ID="pa0001003">
          <TextLine>
            <String CONTENT="assembly" HPOS="2934" VPOS="14" WIDTH="300" HEIGHT="55"/>
          </TextLine>
        </TextBlock>
      </PrintSpace>
    </Page>
  </Layout>
</alto>`

const altoPage2 = `<?xml version="1.0" encoding="UTF-8"?>
<alto xmlns="http://www.loc.gov/standards/alto/ns-v3#">
  <Layout>
    <Page WIDTH="5000" HEIGHT="7000" PC="0.88">
      <PrintSpace>
        <TextBlock ID="pa0002001">
          <TextLine>
            <String CONTENT="shipping" HPOS="100" VPOS="100" WIDTH="250" HEIGHT="50"/>
          </TextLine>
        </TextBlock>
      </PrintSpace>
    </Page>
  </Layout>
</alto>`

type fakeSource struct {
	docs  map[string]string
	pages map[string]string
	codes []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		docs: map[string]string{"0001_18470101": metsXML},
		pages: map[string]string{
			"0001": altoPage1,
			"0002": altoPage2,
		},
	}
}

func (s *fakeSource) Path() string { return "fixture" }

func (s *fakeSource) OpenDocument(code string) (io.ReadCloser, error) {
	data, ok := s.docs[code]
	if !ok {
		return nil, fmt.Errorf("no document %s", code)
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (s *fakeSource) OpenPage(code, page string) (io.ReadCloser, error) {
	data, ok := s.pages[page]
	if !ok {
		return nil, fmt.Errorf("no page %s", page)
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (s *fakeSource) PageCodes(code string) []string { return s.codes }

func fixtureDocument(t *testing.T) *Document {
	t.Helper()
	d, err := New("0001_18470101", newFakeSource())
	require.NoError(t, err)
	return d
}

func TestNewMalformed(t *testing.T) {
	src := newFakeSource()
	src.docs["0001_18470101"] = "<mets:mets"
	_, err := New("0001_18470101", src)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDocumentMetadata(t *testing.T) {
	d := fixtureDocument(t)
	assert.Equal(t, "The Daily Gazette", d.Title())
	assert.Equal(t, "Gazette Press", d.Publisher())
	assert.Equal(t, "Glasgow", d.Place())
	assert.Equal(t, "1847 [1846, 47]", d.Date())
	assert.Equal(t, "0001_18470101", d.Identifier())
	assert.Equal(t, "newspaper", d.Type)
}

func TestDocumentMissingMetadata(t *testing.T) {
	src := newFakeSource()
	src.docs["0001_18470101"] = `<mets:mets xmlns:mets="http://www.loc.gov/METS/"/>`
	d, err := New("0001_18470101", src)
	require.NoError(t, err)
	assert.Equal(t, "", d.Title())
	assert.Empty(t, d.ArticleIDs())
	assert.Empty(t, d.PageCodes())
}

func TestDocumentPageCodesFromStructure(t *testing.T) {
	d := fixtureDocument(t)
	assert.Equal(t, []string{"0001", "0002"}, d.PageCodes())
	assert.Equal(t, 2, d.PageCount())
}

func TestDocumentPageCodesFromListing(t *testing.T) {
	src := newFakeSource()
	src.codes = []string{"0002", "0001"}
	d, err := New("0001_18470101", src)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001", "0002"}, d.PageCodes())
}

func TestDocumentArticleIDs(t *testing.T) {
	d := fixtureDocument(t)
	assert.Equal(t, []string{"art0001", "art0002"}, d.ArticleIDs())
}

func TestStructLinkInverses(t *testing.T) {
	d := fixtureDocument(t)
	locators := d.Locators()
	lookup := d.ArticleIDLookup()

	assert.Equal(t, []string{"pa0001001", "pa0001003"}, locators["art0001"])
	assert.Equal(t, []string{"pa0002001"}, locators["art0002"])

	for articleID, areaIDs := range locators {
		for _, areaID := range areaIDs {
			assert.Equal(t, articleID, lookup[areaID])
		}
	}
	for areaID, articleID := range lookup {
		assert.Contains(t, locators[articleID], areaID)
	}
}

func TestPartsCoordRoundTrip(t *testing.T) {
	d := fixtureDocument(t)
	parts := d.PartsCoord()
	require.Len(t, parts, 4)
	assert.Equal(t, Part{Shape: "RECT", Coords: "1220,5,2893,221"}, parts["pa0001001"])

	for _, areas := range d.AllAreas() {
		for _, area := range areas {
			assert.Equal(t, Part{Shape: area.Shape, Coords: area.CoordsText}, parts[area.ID])
		}
	}
}

func TestAreas(t *testing.T) {
	d := fixtureDocument(t)
	areas := d.Areas("0001")
	require.Len(t, areas, 3)

	a := areas[0]
	assert.Equal(t, "pa0001001", a.ID)
	assert.Equal(t, "Area", a.Type)
	assert.Equal(t, "article", a.Category)
	assert.Equal(t, "0001", a.PageCode)
	assert.Equal(t, "ALTO0001", a.FileID)
	assert.Equal(t, 1220, a.X0)
	assert.Equal(t, 5, a.Y0)
	assert.Equal(t, 2893, a.X1)
	assert.Equal(t, 221, a.Y1)
	assert.Equal(t, 1673, a.Width())
	assert.Equal(t, 216, a.Height())
	assert.Equal(t, "art0001", a.ArticleID)
	assert.Equal(t, "page1 area1", a.PagePart)
}

func TestAreaUnlinked(t *testing.T) {
	d := fixtureDocument(t)
	areas := d.Areas("0001")
	require.Len(t, areas, 3)
	// pa0001005 appears in the physical map but no structLink group
	// references it. That is valid; it just belongs to no article.
	assert.Equal(t, "", areas[2].ArticleID)
	assert.Equal(t, "", areas[2].PagePart)
}

func TestAreaEqual(t *testing.T) {
	d := fixtureDocument(t)
	other := fixtureDocument(t)
	assert.True(t, d.Areas("0001")[0].Equal(other.Areas("0001")[0]))
	assert.False(t, d.Areas("0001")[0].Equal(d.Areas("0001")[1]))
	assert.False(t, d.Areas("0001")[0].Equal(nil))
}

func TestAreaTextBlock(t *testing.T) {
	d := fixtureDocument(t)
	tb, err := d.Areas("0001")[0].TextBlock()
	require.NoError(t, err)
	require.NotNil(t, tb)
	assert.Equal(t, "pa0001001", tb.ID)
	assert.Equal(t, "Parliament", tb.Content())

	// pa0001005 has no block on its page.
	tb, err = d.Areas("0001")[2].TextBlock()
	require.NoError(t, err)
	assert.Nil(t, tb)
}

func TestAreaTextBlockAmbiguous(t *testing.T) {
	src := newFakeSource()
	src.pages["0001"] = strings.Replace(altoPage1, `ID="pa0001003"`, `ID="pa0001001"`, 1)
	d, err := New("0001_18470101", src)
	require.NoError(t, err)

	_, err = d.Areas("0001")[0].TextBlock()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousBlock)
}

func TestArticles(t *testing.T) {
	d := fixtureDocument(t)
	articles, err := d.Articles()
	require.NoError(t, err)
	require.Len(t, articles, 2)

	art := articles["art0001"]
	require.Len(t, art, 2)
	assert.Equal(t, "pa0001001", art[0].Block.ID)
	assert.Equal(t, "pa0001003", art[1].Block.ID)
	assert.Equal(t, "page1 area1", art[0].Area.PagePart)
	assert.Equal(t, "page1 area3", art[1].Area.PagePart)

	require.Len(t, articles["art0002"], 1)
	assert.Equal(t, "shipping", articles["art0002"][0].Block.Content())
}

func TestDocumentTextBlocks(t *testing.T) {
	d := fixtureDocument(t)
	blocks, err := d.TextBlocks()
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, "pa0001001", blocks[0].ID)
	assert.Equal(t, "pa0002001", blocks[2].ID)
}

func TestDocumentMatch(t *testing.T) {
	d := fixtureDocument(t)
	opts := match.DefaultOptions()
	opts.MinRatio = 80

	results, err := d.Match(opts, "parliment")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Parliament", results[0].Token)
	assert.Equal(t, "pa0001001", results[0].Nav.TextBlockID)
	assert.Equal(t, "fixture", results[0].Nav.ArchivePath)
}

func TestDocumentPageCached(t *testing.T) {
	d := fixtureDocument(t)
	first, err := d.Page("0001")
	require.NoError(t, err)
	second, err := d.Page("0001")
	require.NoError(t, err)
	assert.Same(t, first, second)
}
