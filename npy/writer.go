package npy

import (
	"bytes"
	"fmt"
	"io"

	"github.com/robert-malhotra/go-npy/internal/binary"
	"github.com/robert-malhotra/go-npy/internal/dtype"
	"github.com/robert-malhotra/go-npy/internal/header"
)

// Writer streams elements to an NPY file when the final count is not known
// up front. The strategy follows the sink's capability:
//
//   - An io.WriteSeeker gets a header immediately, with the outer
//     dimension reserved, and elements appended as they arrive; Finalize
//     rewrites the shape in place. Nothing is buffered.
//   - A plain io.Writer gets nothing until Finalize, which emits the
//     header followed by the buffered payload.
//
// Both strategies produce byte-identical output for the same data.
//
// The protocol is Push* then Finalize; pushing after Finalize or dropping
// the Writer without Finalize (detected by Close) are errors, not no-ops.
// A Writer must not be shared between goroutines.
type Writer struct {
	dt          Dtype
	columnMajor bool
	inner       []int // fixed inner dimensions; outer dim streams
	scalar      bool
	innerCount  int // product of inner

	count     int
	finalized bool
	scratch   []byte

	// seekable strategy
	bw  *binary.Writer
	hdr []byte

	// buffered strategy
	sink io.Writer
	buf  bytes.Buffer

	reserveDigits int // test hook; MaxCountDigits in normal use
}

// NewWriter starts an NPY stream of dt elements on w. The shape is
// (count, inner...) where count is however many elements are pushed
// before Finalize, divided by the product of the inner dimensions.
func NewWriter(w io.Writer, dt Dtype, opts ...WriterOption) (*Writer, error) {
	o := defaultWriterOptions()
	for _, opt := range opts {
		opt(o)
	}
	if len(o.shape) > 0 {
		return nil, fmt.Errorf("WithShape applies to one-shot writes only: %w", ErrBadValue)
	}

	wr := &Writer{
		dt:            dt,
		columnMajor:   o.columnMajor,
		inner:         o.inner,
		scalar:        o.scalar,
		innerCount:    1,
		scratch:       make([]byte, dt.ItemSize()),
		reserveDigits: header.MaxCountDigits,
	}
	for _, d := range o.inner {
		if d < 0 {
			return nil, fmt.Errorf("negative inner dimension %d: %w", d, ErrBadValue)
		}
		wr.innerCount *= d
	}
	if wr.scalar && len(wr.inner) > 0 {
		return nil, fmt.Errorf("a scalar has no inner dimensions: %w", ErrBadValue)
	}

	if ws, ok := w.(io.WriteSeeker); ok {
		bw, err := binary.NewWriter(ws)
		if err != nil {
			return nil, err
		}
		wr.bw = bw
		hdr, err := wr.initialHeader()
		if err != nil {
			return nil, err
		}
		if err := bw.Append(hdr); err != nil {
			return nil, err
		}
		wr.hdr = hdr
		return wr, nil
	}

	wr.sink = w
	return wr, nil
}

// initialHeader renders the header committed before any data: the exact
// header for scalars, a reserved one for streamed shapes.
func (w *Writer) initialHeader() ([]byte, error) {
	if w.scalar {
		return header.Encode(header.Meta{Dtype: w.dt, ColumnMajor: w.columnMajor})
	}
	m := header.Meta{Dtype: w.dt, ColumnMajor: w.columnMajor, Shape: w.placeholderShape()}
	return header.EncodeReserved(m, w.reserveDigits)
}

func (w *Writer) placeholderShape() []int {
	return append([]int{0}, w.inner...)
}

// Push encodes one element and appends it to the stream.
func (w *Writer) Push(v any) error {
	if w.finalized {
		return ErrFinalized
	}
	if err := dtype.EncodeValue(w.dt, w.scratch, v); err != nil {
		return fmt.Errorf("element %d: %w", w.count, err)
	}
	w.count++
	if w.bw != nil {
		return w.bw.Append(w.scratch)
	}
	w.buf.Write(w.scratch)
	return nil
}

// PushAll pushes every element of src, a slice or array.
func (w *Writer) PushAll(src any) error {
	if w.finalized {
		return ErrFinalized
	}
	payload, err := dtype.EncodeSlice(w.dt, src)
	if err != nil {
		return err
	}
	w.count += len(payload) / w.dt.ItemSize()
	if w.bw != nil {
		return w.bw.Append(payload)
	}
	w.buf.Write(payload)
	return nil
}

// Count returns the number of elements pushed so far.
func (w *Writer) Count() int {
	return w.count
}

// Finalize commits the element count into the header and completes the
// stream. No Push may follow. For a seekable sink this rewrites the shape
// in place; for a buffered sink it emits the header and payload now.
func (w *Writer) Finalize() error {
	if w.finalized {
		return ErrFinalized
	}

	shape, err := w.finalShape()
	if err != nil {
		return err
	}
	m := header.Meta{Dtype: w.dt, ColumnMajor: w.columnMajor, Shape: shape}

	if w.bw != nil {
		if !w.scalar {
			if err := header.PatchShape(w.hdr, m); err != nil {
				return err
			}
			if err := w.bw.RewriteAt(0, w.hdr); err != nil {
				return err
			}
		}
		w.finalized = true
		return nil
	}

	hdr, err := w.initialHeader()
	if err != nil {
		return err
	}
	if !w.scalar {
		if err := header.PatchShape(hdr, m); err != nil {
			return err
		}
	}
	if _, err := w.sink.Write(hdr); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := w.sink.Write(w.buf.Bytes()); err != nil {
		return fmt.Errorf("writing %d payload bytes: %w", w.buf.Len(), err)
	}
	w.finalized = true
	return nil
}

// finalShape derives the on-disk shape from the pushed count.
func (w *Writer) finalShape() ([]int, error) {
	if w.scalar {
		if w.count != 1 {
			return nil, fmt.Errorf("scalar write got %d elements: %w", w.count, ErrCountMismatch)
		}
		return nil, nil
	}
	if w.innerCount == 0 {
		if w.count != 0 {
			return nil, fmt.Errorf("%d elements with a zero inner dimension: %w", w.count, ErrCountMismatch)
		}
		return w.placeholderShape(), nil
	}
	if w.count%w.innerCount != 0 {
		return nil, fmt.Errorf("%d elements do not fill inner dimensions %v: %w",
			w.count, w.inner, ErrCountMismatch)
	}
	return append([]int{w.count / w.innerCount}, w.inner...), nil
}

// Close verifies the protocol completed. It does not finalize implicitly:
// an unfinalized Writer is a logic error surfaced as ErrNotFinalized, and
// the sink contents are undefined.
func (w *Writer) Close() error {
	if !w.finalized {
		return ErrNotFinalized
	}
	return nil
}
