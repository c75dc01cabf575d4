// Package archivex reads and writes presentation templates as zip containers
// of named XML entries. It knows nothing about certificates: callers decide
// which entries to rewrite, archivex only guarantees that entry order and
// untouched entries survive a round trip.
package archivex

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"regexp"

	"github.com/eventara/certgen/internal/common"
)

// DefaultCompressionLevel is the deflate level used when repacking unless the
// caller picks another one. flate.DefaultCompression trades size for CPU the
// same way the zip tooling that produced the upload did.
const DefaultCompressionLevel = flate.DefaultCompression

var slideEntryPattern = regexp.MustCompile(`^ppt/slides/slide\d+\.xml$`)

// Entry is one named file inside the archive, in container order.
type Entry struct {
	Name string
	Data []byte
}

// Archive is the unpacked form of a template container. Entries keep the
// order they had in the source file.
type Archive struct {
	entries []Entry
	index   map[string]int
}

// IsSlideEntry reports whether name addresses slide content: the fixed
// directory prefix with a numeric suffix and the xml extension. Everything
// else (layouts, masters, relationships, media) passes through repack
// untouched.
func IsSlideEntry(name string) bool {
	return slideEntryPattern.MatchString(name)
}

// Unpack parses data as a zip container and reads every entry into memory.
// Malformed input fails with common.ErrArchiveCorrupt; the caller must not
// use partial results.
func Unpack(data []byte) (*Archive, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrArchiveCorrupt, err)
	}

	a := &Archive{index: make(map[string]int, len(r.File))}

	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", common.ErrArchiveCorrupt, f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", common.ErrArchiveCorrupt, f.Name, err)
		}

		a.index[f.Name] = len(a.entries)
		a.entries = append(a.entries, Entry{Name: f.Name, Data: content})
	}

	return a, nil
}

// Entries returns the archive entries in container order. The slice is
// shared with the archive; callers mutate content through SetEntry.
func (a *Archive) Entries() []Entry {
	return a.entries
}

// Get returns the content of the named entry, or false if it is absent.
func (a *Archive) Get(name string) ([]byte, bool) {
	i, ok := a.index[name]
	if !ok {
		return nil, false
	}
	return a.entries[i].Data, true
}

// SetEntry replaces the content of an existing entry. Unknown names are
// ignored: substitution never adds entries to the container.
func (a *Archive) SetEntry(name string, data []byte) {
	if i, ok := a.index[name]; ok {
		a.entries[i].Data = data
	}
}

// SlideEntries returns the names of all slide-content entries in order.
func (a *Archive) SlideEntries() []string {
	var names []string
	for _, e := range a.entries {
		if IsSlideEntry(e.Name) {
			names = append(names, e.Name)
		}
	}
	return names
}

// Pack rebuilds the zip container with the given deflate level, preserving
// entry order. Entries that were never rewritten come out with the content
// they went in with.
func (a *Archive) Pack(level int) ([]byte, error) {
	var buf bytes.Buffer

	w := zip.NewWriter(&buf)
	w.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	for _, e := range a.entries {
		fw, err := w.Create(e.Name)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("%w: create %s: %v", common.ErrArchiveCorrupt, e.Name, err)
		}
		if _, err := fw.Write(e.Data); err != nil {
			w.Close()
			return nil, fmt.Errorf("%w: write %s: %v", common.ErrArchiveCorrupt, e.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: finalize: %v", common.ErrArchiveCorrupt, err)
	}

	return buf.Bytes(), nil
}
