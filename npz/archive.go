package npz

import (
	"archive/zip"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/klauspost/compress/flate"

	"github.com/robert-malhotra/go-npy/npy"
)

// Archive reads an NPZ container. Members are parsed lazily: Open decodes
// a member's header on each call and nothing is cached, so two Open calls
// for the same name return independent readers.
type Archive struct {
	zr     *zip.Reader
	closer io.Closer
	byName map[string]*zip.File
}

// NewArchive opens an NPZ container over r.
func NewArchive(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	return newArchive(zr, nil), nil
}

// OpenFile opens the NPZ file at path. Close releases the file handle.
func OpenFile(path string) (*Archive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return newArchive(&rc.Reader, rc), nil
}

func newArchive(zr *zip.Reader, closer io.Closer) *Archive {
	zr.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})
	byName := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		byName[f.Name] = f
	}
	return &Archive{zr: zr, closer: closer, byName: byName}
}

// Keys returns the member names in sorted order, with the ".npy" suffix
// stripped the way numpy's load presents them.
func (a *Archive) Keys() []string {
	keys := make([]string, 0, len(a.zr.File))
	for _, f := range a.zr.File {
		keys = append(keys, strings.TrimSuffix(f.Name, memberSuffix))
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether the archive contains the member name.
func (a *Archive) Has(name string) bool {
	_, ok := a.byName[memberName(name)]
	return ok
}

// Member is an open archive member: an NPY reader plus the decompressor
// it drains. Close it when done.
type Member struct {
	*npy.Reader
	rc io.ReadCloser
}

// Close releases the member's decompressor.
func (m *Member) Close() error {
	return m.rc.Close()
}

// Open decodes the header of the member name and returns a reader over
// its elements. Members decompress as a stream, so the reader supports
// sequential access only.
func (a *Archive) Open(name string) (*Member, error) {
	f, ok := a.byName[memberName(name)]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("member %q: %w", name, err)
	}
	rd, err := npy.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("member %q: %w", name, err)
	}
	return &Member{Reader: rd, rc: rc}, nil
}

// Read decodes the whole member name into dst, a pointer to a slice.
func (a *Archive) Read(name string, dst any) error {
	m, err := a.Open(name)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Reader.Read(dst); err != nil {
		return fmt.Errorf("member %q: %w", name, err)
	}
	return nil
}

// ReadScalar decodes the zero-dimensional member name into dst, a pointer
// to a value.
func (a *Archive) ReadScalar(name string, dst any) error {
	m, err := a.Open(name)
	if err != nil {
		return err
	}
	defer m.Close()
	if len(m.Shape()) != 0 {
		return fmt.Errorf("member %q has shape %v, want a scalar: %w",
			name, m.Shape(), npy.ErrTypeMismatch)
	}
	if err := m.Next(dst); err != nil {
		return fmt.Errorf("member %q: %w", name, err)
	}
	return nil
}

// Close releases the underlying file handle when the archive owns one.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
