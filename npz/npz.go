// Package npz reads and writes NPZ archives: zip containers whose members
// are NPY files, one array per member.
package npz

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"

	"github.com/robert-malhotra/go-npy/npy"
)

// ErrNotFound is returned when an archive has no member under the
// requested name.
var ErrNotFound = errors.New("no such archive member")

// ErrClosed is returned for operations on a closed Writer.
var ErrClosed = errors.New("archive writer closed")

const memberSuffix = ".npy"

// memberName appends the NPY suffix unless the caller already did.
func memberName(name string) string {
	if strings.HasSuffix(name, memberSuffix) {
		return name
	}
	return name + memberSuffix
}

// Writer builds an NPZ archive member by member. Members are deflated by
// default; WithStore keeps them uncompressed the way numpy's savez does.
type Writer struct {
	zw     *zip.Writer
	method uint16
	closed bool
}

// Option configures a Writer.
type Option func(*Writer)

// WithStore writes members uncompressed.
func WithStore() Option {
	return func(w *Writer) {
		w.method = zip.Store
	}
}

// NewWriter starts an NPZ archive on w.
func NewWriter(w io.Writer, opts ...Option) *Writer {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})
	nw := &Writer{zw: zw, method: zip.Deflate}
	for _, opt := range opts {
		opt(nw)
	}
	return nw
}

// Write encodes data, a slice or array, as the member name. The ".npy"
// suffix is applied if name lacks it.
func (w *Writer) Write(name string, data any, opts ...npy.WriterOption) error {
	member, err := w.create(name)
	if err != nil {
		return err
	}
	if err := npy.Write(member, data, opts...); err != nil {
		return fmt.Errorf("member %q: %w", name, err)
	}
	return nil
}

// WriteScalar encodes v as a zero-dimensional member.
func (w *Writer) WriteScalar(name string, v any, opts ...npy.WriterOption) error {
	member, err := w.create(name)
	if err != nil {
		return err
	}
	if err := npy.WriteScalar(member, v, opts...); err != nil {
		return fmt.Errorf("member %q: %w", name, err)
	}
	return nil
}

// Stream opens a streaming writer for the member name. The returned
// writer must be finalized before the next member is started; zip members
// are written strictly in sequence.
func (w *Writer) Stream(name string, dt npy.Dtype, opts ...npy.WriterOption) (*npy.Writer, error) {
	member, err := w.create(name)
	if err != nil {
		return nil, err
	}
	return npy.NewWriter(member, dt, opts...)
}

// Create begins the member name and returns the raw sink for its bytes.
// The caller encodes the NPY content; Write and Stream are the usual
// entry points.
func (w *Writer) Create(name string) (io.Writer, error) {
	return w.create(name)
}

func (w *Writer) create(name string) (io.Writer, error) {
	if w.closed {
		return nil, ErrClosed
	}
	hdr := &zip.FileHeader{Name: memberName(name), Method: w.method}
	member, err := w.zw.CreateHeader(hdr)
	if err != nil {
		return nil, fmt.Errorf("member %q: %w", name, err)
	}
	return member, nil
}

// Close flushes the central directory and completes the archive. It does
// not close the underlying sink.
func (w *Writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true
	return w.zw.Close()
}
