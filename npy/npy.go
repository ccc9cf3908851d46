// Package npy reads and writes NPY array files.
package npy

import (
	"fmt"
	"io"
	"reflect"

	"github.com/robert-malhotra/go-npy/internal/dtype"
	"github.com/robert-malhotra/go-npy/internal/header"
)

// Write encodes all of data, a slice or array, as one NPY file on w.
// The element descriptor is derived from the element type unless
// WithDtype overrides it; the shape is (len(data)) unless WithShape or
// WithInnerDims reshapes it. The count is known up front, so the header
// is exact and nothing is buffered or rewritten.
func Write(w io.Writer, data any, opts ...WriterOption) error {
	o := defaultWriterOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.scalar {
		return fmt.Errorf("use WriteScalar for zero-dimensional output: %w", ErrBadValue)
	}

	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return fmt.Errorf("cannot write %T as an array: %w", data, ErrTypeMismatch)
	}
	count := v.Len()

	dt, err := resolveDtype(o, v.Type().Elem())
	if err != nil {
		return err
	}
	shape, err := resolveShape(o, count)
	if err != nil {
		return err
	}

	hdr, err := header.Encode(header.Meta{Dtype: dt, ColumnMajor: o.columnMajor, Shape: shape})
	if err != nil {
		return err
	}
	payload, err := dtype.EncodeSlice(dt, data)
	if err != nil {
		return err
	}
	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("writing %d payload bytes: %w", len(payload), err)
	}
	return nil
}

// WriteScalar encodes v as a zero-dimensional NPY file on w.
func WriteScalar(w io.Writer, v any, opts ...WriterOption) error {
	o := defaultWriterOptions()
	for _, opt := range opts {
		opt(o)
	}
	if len(o.shape) > 0 || len(o.inner) > 0 {
		return fmt.Errorf("a scalar has no dimensions: %w", ErrBadValue)
	}

	dt, err := resolveDtype(o, reflect.TypeOf(v))
	if err != nil {
		return err
	}
	hdr, err := header.Encode(header.Meta{Dtype: dt, ColumnMajor: o.columnMajor})
	if err != nil {
		return err
	}
	buf := make([]byte, dt.ItemSize())
	if err := dtype.EncodeValue(dt, buf, v); err != nil {
		return err
	}
	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("writing scalar payload: %w", err)
	}
	return nil
}

// Read decodes a whole NPY file from r into dst, a pointer to a slice,
// and returns the Reader for shape and descriptor inspection.
func Read(r io.Reader, dst any) (*Reader, error) {
	rd, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	if err := rd.Read(dst); err != nil {
		return nil, err
	}
	return rd, nil
}

// ReadScalar decodes a zero-dimensional NPY file from r into dst, a
// pointer to a value.
func ReadScalar(r io.Reader, dst any) error {
	rd, err := NewReader(r)
	if err != nil {
		return err
	}
	if len(rd.Shape()) != 0 {
		return fmt.Errorf("shape %v is not a scalar: %w", rd.Shape(), ErrTypeMismatch)
	}
	return rd.Next(dst)
}

func resolveDtype(o *writerOptions, elem reflect.Type) (Dtype, error) {
	if o.dtype != nil {
		return *o.dtype, nil
	}
	return DtypeOfType(elem)
}

// resolveShape turns the options and element count into a shape, checking
// that the count fills it exactly.
func resolveShape(o *writerOptions, count int) ([]int, error) {
	if len(o.shape) > 0 {
		if len(o.inner) > 0 {
			return nil, fmt.Errorf("WithShape and WithInnerDims are exclusive: %w", ErrBadValue)
		}
		total := 1
		for _, d := range o.shape {
			if d < 0 {
				return nil, fmt.Errorf("negative dimension %d: %w", d, ErrBadValue)
			}
			total *= d
		}
		if total != count {
			return nil, fmt.Errorf("shape %v holds %d elements, got %d: %w",
				o.shape, total, count, ErrCountMismatch)
		}
		return o.shape, nil
	}

	innerCount := 1
	for _, d := range o.inner {
		if d < 0 {
			return nil, fmt.Errorf("negative inner dimension %d: %w", d, ErrBadValue)
		}
		innerCount *= d
	}
	if innerCount == 0 {
		if count != 0 {
			return nil, fmt.Errorf("%d elements with a zero inner dimension: %w", count, ErrCountMismatch)
		}
		return append([]int{0}, o.inner...), nil
	}
	if count%innerCount != 0 {
		return nil, fmt.Errorf("%d elements do not fill inner dimensions %v: %w",
			count, o.inner, ErrCountMismatch)
	}
	return append([]int{count / innerCount}, o.inner...), nil
}
