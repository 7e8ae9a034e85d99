package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Source resolves member names into byte streams, regardless of whether
// the archive is a flat directory, a ZIP file or remote. Listings use
// slash-separated paths relative to the archive root.
type Source interface {
	List() []string
	Open(name string) (io.ReadCloser, error)
}

// newSource picks a source implementation for a path: an http(s) URL is
// fetched as a ZIP, a directory is walked, anything else is opened as a
// local ZIP file.
func newSource(path string) (Source, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return fetchZip(path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if info.IsDir() {
		return newDirSource(path)
	}
	return newZipSource(path)
}

type dirSource struct {
	root  string
	names []string
}

func newDirSource(root string) (*dirSource, error) {
	s := &dirSource{root: root}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		s.names = append(s.names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", root, err)
	}
	return s, nil
}

func (s *dirSource) List() []string { return s.names }

func (s *dirSource) Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(name)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return f, nil
}

type zipSource struct {
	reader *zip.Reader
	names  []string
	byName map[string]*zip.File
}

func newZipSource(path string) (*zipSource, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return indexZip(&rc.Reader), nil
}

// fetchZip downloads a remote archive into memory and serves members
// from the buffered copy. ZIP needs random access, so streaming is not
// an option.
func fetchZip(url string) (*zipSource, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return indexZip(r), nil
}

func indexZip(r *zip.Reader) *zipSource {
	s := &zipSource{reader: r, byName: make(map[string]*zip.File)}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		s.names = append(s.names, f.Name)
		s.byName[f.Name] = f
	}
	return s
}

func (s *zipSource) List() []string { return s.names }

func (s *zipSource) Open(name string) (io.ReadCloser, error) {
	f, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return f.Open()
}
