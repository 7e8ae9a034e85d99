package alto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageXML = `<?xml version="1.0" encoding="UTF-8"?>
<alto xmlns="http://www.loc.gov/standards/alto/ns-v3#">
  <Layout>
    <Page WIDTH="5000" HEIGHT="7000" PC="0.91">
      <PrintSpace>
        <TextBlock ID="pa0001001">
          <TextLine>
            <String CONTENT="Parliament" WC="0.95" CC="00" HPOS="1220" VPOS="5" WIDTH="400" HEIGHT="60"/>
            <String CONTENT="met" WC="0.88" HPOS="1650" VPOS="5" WIDTH="120" HEIGHT="60"/>
          </TextLine>
          <TextLine>
            <String CONTENT="today" HPOS="1220" VPOS="80" WIDTH="200" HEIGHT="60"/>
          </TextLine>
        </TextBlock>
        <TextBlock ID="pa0001003">
          <TextLine>
            <String CONTENT="assembly" WC="0.90" HPOS="2934" VPOS="14" WIDTH="300" HEIGHT="55"/>
          </TextLine>
        </TextBlock>
        <TextBlock ID="pa0001005"/>
        <GraphicalElement ID="ge0001" HPOS="0" VPOS="0" WIDTH="10" HEIGHT="10"/>
      </PrintSpace>
    </Page>
  </Layout>
</alto>`

func parseFixture(t *testing.T) *Page {
	t.Helper()
	p, err := ParsePage(strings.NewReader(pageXML), Ref{
		ArchivePath:  "fixture",
		DocumentCode: "0001_18470101",
		PageCode:     "0001",
	})
	require.NoError(t, err)
	return p
}

func TestParsePageGeometry(t *testing.T) {
	p := parseFixture(t)
	assert.Equal(t, 5000, p.Width)
	assert.Equal(t, 7000, p.Height)
	assert.InDelta(t, 0.91, p.Confidence, 1e-9)
}

func TestParsePageGeometryFallback(t *testing.T) {
	xml := `<alto><Layout><Page WIDTH="wide" PC="high"><TextBlock ID="b1"/></Page></Layout></alto>`
	p, err := ParsePage(strings.NewReader(xml), Ref{})
	require.NoError(t, err)
	assert.Equal(t, 0, p.Width)
	assert.Equal(t, 0, p.Height)
	assert.Equal(t, 0.0, p.Confidence)
}

func TestPageWords(t *testing.T) {
	p := parseFixture(t)
	assert.Equal(t, []string{"Parliament", "met", "today", "assembly"}, p.Words())
	assert.Equal(t, "Parliament met today assembly", p.Content())
}

func TestPageConfidencesIndependentLengths(t *testing.T) {
	p := parseFixture(t)
	// "today" has no WC and only "Parliament" has a CC, so neither list
	// lines up with the word list.
	assert.Equal(t, []string{"0.95", "0.88", "0.90"}, p.WordConfidences())
	assert.Equal(t, []string{"00"}, p.CharConfidences())
	assert.Len(t, p.Words(), 4)
}

func TestPageOCRStrings(t *testing.T) {
	p := parseFixture(t)
	tokens := p.OCRStrings()
	require.Len(t, tokens, 4)
	assert.Equal(t, Token{X: 1220, Y: 5, Width: 400, Height: 60, Content: "Parliament"}, tokens[0])
}

func TestPageGraphics(t *testing.T) {
	p := parseFixture(t)
	assert.Equal(t, []string{"ge0001"}, p.Graphics())
}

func TestPageTextBlocks(t *testing.T) {
	p := parseFixture(t)
	require.Len(t, p.TextBlocks, 3)
	assert.Equal(t, "pa0001001", p.TextBlocks[0].ID)
	assert.Equal(t, "pa0001003", p.TextBlocks[1].ID)
	assert.Same(t, p, p.TextBlocks[0].Page())
}

func TestDecodeReaderLatin1(t *testing.T) {
	raw := `<?xml version="1.0" encoding="ISO-8859-1"?><alto><Layout><Page WIDTH="10" HEIGHT="10"><TextBlock ID="b1"><TextLine><String CONTENT="caf` + "\xe9" + `" HPOS="1" VPOS="1" WIDTH="1" HEIGHT="1"/></TextLine></TextBlock></Page></Layout></alto>`
	p, err := ParsePage(strings.NewReader(raw), Ref{})
	require.NoError(t, err)
	assert.Equal(t, []string{"café"}, p.Words())
}

func TestTextBlockBoundingBox(t *testing.T) {
	p := parseFixture(t)
	box := p.TextBlocks[0].BoundingBox()
	assert.Equal(t, Rect{X0: 1220, Y0: 5, X1: 1770, Y1: 140}, box)
	assert.Equal(t, 550, box.Width())
	assert.Equal(t, 135, box.Height())

	for _, tok := range p.TextBlocks[0].Tokens() {
		assert.LessOrEqual(t, box.X0, tok.X)
		assert.LessOrEqual(t, box.Y0, tok.Y)
		assert.GreaterOrEqual(t, box.X1, tok.X+tok.Width)
		assert.GreaterOrEqual(t, box.Y1, tok.Y+tok.Height)
	}
}

func TestTextBlockBoundingBoxEmpty(t *testing.T) {
	p := parseFixture(t)
	// A block with no tokens degenerates to the full page extent.
	assert.Equal(t, Rect{X0: 0, Y0: 0, X1: 5000, Y1: 7000}, p.TextBlocks[2].BoundingBox())
}

func TestTextBlockWordsAndConfidences(t *testing.T) {
	p := parseFixture(t)
	tb := p.TextBlocks[0]
	assert.Equal(t, []string{"Parliament", "met", "today"}, tb.Words())
	assert.Equal(t, "Parliament met today", tb.Content())
	assert.Equal(t, []string{"0.95", "0.88"}, tb.WordConfidences())
	assert.Equal(t, []string{"00"}, tb.CharConfidences())
}
