// Package binary provides positioned byte access over seekable sources and
// sinks: random-access element reads and in-place header rewrites.
package binary

import (
	"fmt"
	"io"
)

// Reader reads from an io.ReaderAt at an explicit position. Readers sharing
// an underlying source have independent positions, so element access at one
// index never disturbs access at another.
type Reader struct {
	r   io.ReaderAt
	pos int64
}

// NewReader creates a reader positioned at the start of the source; At
// derives readers for other positions.
func NewReader(r io.ReaderAt) *Reader {
	return &Reader{r: r}
}

// At returns a new reader over the same source positioned at off.
func (r *Reader) At(off int64) *Reader {
	return &Reader{r: r.r, pos: off}
}

// Pos returns the current read position.
func (r *Reader) Pos() int64 {
	return r.pos
}

// ReadFull fills buf from the current position and advances past it.
// A short source surfaces as io.ErrUnexpectedEOF wrapped with the offset
// and the lengths involved.
func (r *Reader) ReadFull(buf []byte) error {
	n, err := r.r.ReadAt(buf, r.pos)
	if err == io.EOF && n == len(buf) {
		err = nil
	}
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("read of %d bytes at offset %d got %d: %w", len(buf), r.pos, n, err)
	}
	r.pos += int64(n)
	return nil
}
