// Package archive enumerates the documents and pages of one digitized
// newspaper or book archive by matching filename patterns against the
// archive's listing. Opening an archive reads only the listing; METS and
// ALTO streams are parsed on demand by the mets package.
package archive

import (
	"errors"
	"fmt"
	"image"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/gardar/newsprint/pkg/mets"
)

// Errors surfaced when opening and traversing an archive.
var (
	// ErrNotFound marks a missing path, document, page or image file.
	ErrNotFound = errors.New("not found")

	// ErrMalformed marks a listing where neither the document pattern
	// nor the page pattern of any family matches anything.
	ErrMalformed = errors.New("no archive pattern matched")
)

// Archive is one opened archive: its family, its byte-stream source and
// the code table built from the listing at open time. The table is
// immutable; documents and pages are constructed on demand.
type Archive struct {
	path   string
	family Family
	src    Source

	codes     []string
	docFiles  map[string]string
	pageFiles map[string]map[string]string
	pageCodes map[string][]string
}

// Open opens the archive at path, detecting its family as the first one
// whose document pattern matches at least one listing entry.
func Open(path string) (*Archive, error) {
	src, err := newSource(path)
	if err != nil {
		return nil, err
	}
	for _, family := range families {
		a := index(path, family, src)
		if len(a.codes) > 0 {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMalformed, path)
}

// OpenFamily opens the archive at path as a specific family, skipping
// detection.
func OpenFamily(path, name string) (*Archive, error) {
	family, ok := FamilyByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown archive family %q", name)
	}
	src, err := newSource(path)
	if err != nil {
		return nil, err
	}
	a := index(path, family, src)
	if len(a.codes) == 0 {
		return nil, fmt.Errorf("%w: %s as %s", ErrMalformed, path, name)
	}
	return a, nil
}

// index builds the code table: one metadata file per document code, page
// files grouped under their document code in numeric page order.
func index(p string, family Family, src Source) *Archive {
	a := &Archive{
		path:      p,
		family:    family,
		src:       src,
		docFiles:  make(map[string]string),
		pageFiles: make(map[string]map[string]string),
		pageCodes: make(map[string][]string),
	}
	for _, name := range src.List() {
		if m := family.DocumentPattern.FindStringSubmatch(name); m != nil {
			code := m[1]
			if _, seen := a.docFiles[code]; !seen {
				a.codes = append(a.codes, code)
			}
			a.docFiles[code] = name
			continue
		}
		if m := family.PagePattern.FindStringSubmatch(name); m != nil {
			code, page := m[1], m[2]
			if a.pageFiles[code] == nil {
				a.pageFiles[code] = make(map[string]string)
			}
			if _, seen := a.pageFiles[code][page]; !seen {
				a.pageCodes[code] = append(a.pageCodes[code], page)
			}
			a.pageFiles[code][page] = name
		}
	}
	sort.Strings(a.codes)
	for _, codes := range a.pageCodes {
		mets.SortPageCodes(codes)
	}
	return a
}

// Family returns the archive's detected or pinned family name.
func (a *Archive) Family() string { return a.family.Name }

// DocumentCount returns the number of documents the listing holds.
func (a *Archive) DocumentCount() int { return len(a.codes) }

// DocumentCodes returns the document codes in sorted order.
func (a *Archive) DocumentCodes() []string {
	return append([]string(nil), a.codes...)
}

// Document parses the METS metadata of the document at index i.
func (a *Archive) Document(i int) (*mets.Document, error) {
	if i < 0 || i >= len(a.codes) {
		return nil, fmt.Errorf("document index %d out of range", i)
	}
	return mets.New(a.codes[i], a)
}

// DocumentByCode parses the METS metadata of the named document.
func (a *Archive) DocumentByCode(code string) (*mets.Document, error) {
	if _, ok := a.docFiles[code]; !ok {
		return nil, fmt.Errorf("%w: document %s", ErrNotFound, code)
	}
	return mets.New(code, a)
}

// EachDocument calls fn for every document in code order, stopping on
// the first error. Re-iterating re-derives from the same immutable code
// table; the listing is never re-read.
func (a *Archive) EachDocument(fn func(*mets.Document) error) error {
	for _, code := range a.codes {
		d, err := mets.New(code, a)
		if err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}

// Path identifies the archive for navigation records.
func (a *Archive) Path() string { return a.path }

// OpenDocument opens the METS metadata stream for a document code.
func (a *Archive) OpenDocument(code string) (io.ReadCloser, error) {
	name, ok := a.docFiles[code]
	if !ok {
		return nil, fmt.Errorf("%w: document %s", ErrNotFound, code)
	}
	return a.src.Open(name)
}

// OpenPage opens the ALTO stream for one page of a document.
func (a *Archive) OpenPage(code, page string) (io.ReadCloser, error) {
	name, ok := a.pageFiles[code][page]
	if !ok {
		return nil, fmt.Errorf("%w: page %s of document %s", ErrNotFound, page, code)
	}
	return a.src.Open(name)
}

// PageCodes lists the page codes the listing holds for a document, in
// numeric order.
func (a *Archive) PageCodes(code string) []string {
	return append([]string(nil), a.pageCodes[code]...)
}

var imageExts = []string{".jp2", ".jpg", ".jpeg", ".png", ".tif", ".tiff", ".gif", ".bmp"}

// ImagePath finds the scanned image for one page by probing the listing
// for "<code>_<page>" plus a known image extension. Exactly one
// candidate must exist.
func (a *Archive) ImagePath(code, page string) (string, error) {
	stem := code + "_" + page
	var found []string
	for _, name := range a.src.List() {
		base := path.Base(name)
		ext := strings.ToLower(path.Ext(base))
		if strings.TrimSuffix(base, path.Ext(base)) != stem {
			continue
		}
		for _, known := range imageExts {
			if ext == known {
				found = append(found, name)
				break
			}
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w: image for page %s of document %s", ErrNotFound, page, code)
	case 1:
		return found[0], nil
	}
	return "", fmt.Errorf("multiple images for page %s of document %s: %v", page, code, found)
}

// OpenImage opens and decodes the scanned image for one page. Decoders
// register themselves via the caller's image format imports.
func (a *Archive) OpenImage(code, page string) (image.Image, error) {
	name, err := a.ImagePath(code, page)
	if err != nil {
		return nil, err
	}
	rc, err := a.src.Open(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	img, _, err := image.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return img, nil
}
