package npy

import (
	"fmt"
	"io"

	"github.com/robert-malhotra/go-npy/internal/binary"
	"github.com/robert-malhotra/go-npy/internal/dtype"
	"github.com/robert-malhotra/go-npy/internal/header"
)

// Reader decodes one NPY file: the header immediately on construction,
// elements on demand. A Reader is a sequential protocol; it must not be
// used from more than one goroutine. Independent Readers over independent
// sources share nothing and are safe concurrently.
type Reader struct {
	meta      header.Meta
	headerLen int64
	itemSize  int
	n         int

	src      io.Reader
	ra       *binary.Reader // non-nil when the source supports ReadAt
	streamed int
	scratch  []byte
	err      error // poisons streaming once set
}

// NewReader reads and validates the header from r. When r also implements
// io.ReaderAt (an os.File or bytes.Reader does), elements can additionally
// be read by flat index; otherwise only sequential access is available.
func NewReader(r io.Reader) (*Reader, error) {
	meta, hlen, err := header.Decode(r)
	if err != nil {
		return nil, err
	}
	rd := &Reader{
		meta:      meta,
		headerLen: hlen,
		itemSize:  meta.Dtype.ItemSize(),
		n:         meta.Len(),
		src:       r,
		scratch:   make([]byte, meta.Dtype.ItemSize()),
	}
	if ra, ok := r.(io.ReaderAt); ok {
		rd.ra = binary.NewReader(ra)
	}
	return rd, nil
}

// Dtype returns the element descriptor.
func (r *Reader) Dtype() Dtype {
	return r.meta.Dtype
}

// Shape returns a copy of the array shape; empty for a 0-d scalar.
func (r *Reader) Shape() []int {
	out := make([]int, len(r.meta.Shape))
	copy(out, r.meta.Shape)
	return out
}

// ColumnMajor reports the storage order flag.
func (r *Reader) ColumnMajor() bool {
	return r.meta.ColumnMajor
}

// Len returns the total element count.
func (r *Reader) Len() int {
	return r.n
}

// Next decodes the next element in storage order into dst, a pointer to a
// compatible Go value. It returns io.EOF once all elements have been
// consumed. Any other error poisons the stream: further Next and Read
// calls return the same error. Index-based access is unaffected.
func (r *Reader) Next(dst any) error {
	if r.err != nil {
		return r.err
	}
	if r.streamed >= r.n {
		return io.EOF
	}
	if err := r.fill(r.scratch); err != nil {
		r.err = err
		return err
	}
	if err := dtype.DecodeValue(r.meta.Dtype, r.scratch, dst); err != nil {
		r.err = fmt.Errorf("element %d: %w", r.streamed, err)
		return r.err
	}
	r.streamed++
	return nil
}

// readChunk bounds how much payload is buffered per fill, so a header
// declaring billions of elements over a short stream fails on the actual
// truncation instead of attempting the full declared allocation.
const readChunk = 1 << 20

// Read decodes all remaining elements into dst, a pointer to a slice,
// which is resized to the remaining count.
func (r *Reader) Read(dst any) error {
	if r.err != nil {
		return r.err
	}
	remaining := r.n - r.streamed
	need := remaining * r.itemSize
	chunkElems := max(1, readChunk/r.itemSize)

	payload := make([]byte, 0, min(need, chunkElems*r.itemSize))
	for len(payload) < need {
		start := len(payload)
		payload = append(payload, make([]byte, min(need-start, chunkElems*r.itemSize))...)
		if err := r.fill(payload[start:]); err != nil {
			r.err = err
			return err
		}
		r.streamed += (len(payload) - start) / r.itemSize
	}
	if err := dtype.DecodeSlice(r.meta.Dtype, payload, remaining, dst); err != nil {
		r.err = err
		return err
	}
	r.streamed = r.n
	return nil
}

// ReadAt decodes the element at flat index i into dst. It requires a
// source with random access and is independent of the sequential stream:
// an error at one index does not affect other indices or streaming.
func (r *Reader) ReadAt(i int, dst any) error {
	if r.ra == nil {
		return ErrNotSeekable
	}
	if i < 0 || i >= r.n {
		return fmt.Errorf("index %d out of range [0, %d)", i, r.n)
	}
	buf := make([]byte, r.itemSize)
	if err := r.ra.At(r.headerLen + int64(i)*int64(r.itemSize)).ReadFull(buf); err != nil {
		return fmt.Errorf("element %d: %v: %w", i, err, ErrTruncated)
	}
	return dtype.DecodeValue(r.meta.Dtype, buf, dst)
}

// fill reads exactly len(buf) payload bytes from the sequential source.
func (r *Reader) fill(buf []byte) error {
	n, err := io.ReadFull(r.src, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fmt.Errorf("payload needs %d bytes at element %d, got %d: %w",
			len(buf), r.streamed, n, ErrTruncated)
	}
	return err
}
