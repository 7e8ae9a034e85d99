// Package alto is the object model for ALTO OCR pages.
//
// A Page holds the geometry, word and confidence lists of one scanned page
// and the TextBlocks found on it in document order. TextBlocks expose raw
// positioned tokens and the fuzzy/regex token matcher.
package alto

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"golang.org/x/text/encoding/charmap"
)

// Ref locates a page within its archive. It travels with every match
// result so batch callers can navigate back without re-resolving.
type Ref struct {
	ArchivePath  string
	DocumentCode string
	PageCode     string
}

// DecodeReader sniffs the XML declaration and, for Latin-1 encoded input,
// wraps the stream in an ISO 8859-1 decoder. Everything else is passed
// through untouched.
func DecodeReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	head, _ := br.Peek(256)
	decl := strings.ToLower(string(head))
	if strings.Contains(decl, "iso-8859-1") || strings.Contains(decl, "latin1") {
		return charmap.ISO8859_1.NewDecoder().Reader(br)
	}
	return br
}

// cell is a compute-once holder for lazily derived values. An empty slice
// or map is a legitimate cached result; only the Once tracks whether the
// computation ran.
type cell[T any] struct {
	once sync.Once
	v    T
}

func (c *cell[T]) get(compute func() T) T {
	c.once.Do(func() { c.v = compute() })
	return c.v
}
