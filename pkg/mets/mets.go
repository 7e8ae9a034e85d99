// Package mets is the object model for METS/MODS document metadata.
//
// A Document resolves three independently encoded XML structures into one
// consistent graph: the physical structural map (pages and their areas),
// the logical structural map (articles) and the structural links tying
// areas to articles. The resolved graph connects newspaper articles to
// the page areas and ALTO text blocks that compose them.
package mets

import (
	"errors"
	"io"
	"sync"

	"github.com/antchfx/xmlquery"
)

// Errors surfaced by document parsing and structural lookups.
var (
	// ErrMalformed marks a METS stream that fails to parse or lacks the
	// required structure. Fatal for that document only.
	ErrMalformed = errors.New("malformed mets document")

	// ErrAmbiguousBlock marks a page where more than one text block
	// carries the same id as an area. Structural corruption, surfaced
	// rather than silently resolved.
	ErrAmbiguousBlock = errors.New("multiple text blocks share area id")
)

// Source supplies the streams a Document needs. The archive package
// implements it; tests supply in-memory fakes.
type Source interface {
	// Path identifies the archive, for navigation records.
	Path() string
	// OpenDocument opens the METS metadata stream for a document code.
	OpenDocument(code string) (io.ReadCloser, error)
	// OpenPage opens the ALTO stream for one page of a document.
	OpenPage(code, page string) (io.ReadCloser, error)
	// PageCodes lists the page codes the source listing holds for a
	// document, in encounter order. May be empty when the source has no
	// listing; the document then falls back to its structural map.
	PageCodes(code string) []string
}

// cell is a compute-once holder for lazily derived values. An empty
// collection is a legitimate cached result; only the Once tracks whether
// the computation ran.
type cell[T any] struct {
	once sync.Once
	v    T
}

func (c *cell[T]) get(compute func() T) T {
	c.once.Do(func() { c.v = compute() })
	return c.v
}

func attr(n *xmlquery.Node, name string) string {
	v, _ := attrOK(n, name)
	return v
}

// attrOK matches on the attribute's local name so xlink: and similar
// prefixes don't matter.
func attrOK(n *xmlquery.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
