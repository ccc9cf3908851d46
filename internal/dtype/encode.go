package dtype

import (
	"fmt"
	"math"
	"reflect"
	"unsafe"

	"github.com/x448/float16"
)

// EncodeValue encodes one element of d from v into buf, which must hold at
// least d.Size bytes. Bytes not covered by a leaf (string padding, record
// padding) are zeroed, so repeated encodes are deterministic.
func EncodeValue(d Dtype, buf []byte, v any) error {
	if len(buf) < d.Size {
		return fmt.Errorf("element needs %d bytes, buffer has %d: %w", d.Size, len(buf), ErrTypeMismatch)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	clear(buf[:d.Size])
	return encodeFrom(d, buf[:d.Size], rv)
}

// EncodeSlice encodes all elements of src, a slice or array, returning the
// contiguous payload bytes.
func EncodeSlice(d Dtype, src any) ([]byte, error) {
	rv := reflect.ValueOf(src)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("source must be a slice or array, got %s: %w", rv.Kind(), ErrTypeMismatch)
	}
	n := rv.Len()
	out := make([]byte, n*d.Size)
	if n == 0 {
		return out, nil
	}

	if rv.Kind() == reflect.Slice && canDirectCopy(d, rv.Type().Elem()) {
		srcBytes := unsafe.Slice((*byte)(rv.Index(0).Addr().UnsafePointer()), n*d.Size)
		copy(out, srcBytes)
		return out, nil
	}

	for i := 0; i < n; i++ {
		if err := encodeFrom(d, out[i*d.Size:(i+1)*d.Size], rv.Index(i)); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return out, nil
}

func encodeFrom(d Dtype, buf []byte, v reflect.Value) error {
	order := byteOrderOf(d)
	switch d.Kind {
	case Bool:
		if v.Kind() != reflect.Bool {
			return mismatchEncode(d, v)
		}
		if v.Bool() {
			buf[0] = 1
		} else {
			buf[0] = 0
		}
		return nil

	case Int:
		switch v.Kind() {
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
			if int(v.Type().Size()) != d.Size {
				return mismatchEncode(d, v)
			}
		default:
			return mismatchEncode(d, v)
		}
		n := v.Int()
		switch d.Size {
		case 1:
			buf[0] = byte(n)
		case 2:
			order.PutUint16(buf, uint16(n))
		case 4:
			order.PutUint32(buf, uint32(n))
		case 8:
			order.PutUint64(buf, uint64(n))
		}
		return nil

	case Uint:
		switch v.Kind() {
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
			if int(v.Type().Size()) != d.Size {
				return mismatchEncode(d, v)
			}
		default:
			return mismatchEncode(d, v)
		}
		n := v.Uint()
		switch d.Size {
		case 1:
			buf[0] = byte(n)
		case 2:
			order.PutUint16(buf, uint16(n))
		case 4:
			order.PutUint32(buf, uint32(n))
		case 8:
			order.PutUint64(buf, n)
		}
		return nil

	case Float:
		switch d.Size {
		case 2:
			if v.Type() == float16Type {
				order.PutUint16(buf, uint16(v.Uint()))
				return nil
			}
			if v.Kind() == reflect.Float32 {
				order.PutUint16(buf, float16.Fromfloat32(float32(v.Float())).Bits())
				return nil
			}
		case 4:
			if v.Kind() == reflect.Float32 {
				order.PutUint32(buf, math.Float32bits(float32(v.Float())))
				return nil
			}
		case 8:
			if v.Kind() == reflect.Float64 {
				order.PutUint64(buf, math.Float64bits(v.Float()))
				return nil
			}
		}
		return mismatchEncode(d, v)

	case Complex:
		switch d.Size {
		case 8:
			if v.Kind() != reflect.Complex64 {
				return mismatchEncode(d, v)
			}
			c := v.Complex()
			order.PutUint32(buf, math.Float32bits(float32(real(c))))
			order.PutUint32(buf[4:], math.Float32bits(float32(imag(c))))
			return nil
		case 16:
			if v.Kind() != reflect.Complex128 {
				return mismatchEncode(d, v)
			}
			c := v.Complex()
			order.PutUint64(buf, math.Float64bits(real(c)))
			order.PutUint64(buf[8:], math.Float64bits(imag(c)))
			return nil
		}
		return mismatchEncode(d, v)

	case Bytes:
		var src []byte
		switch {
		case v.Kind() == reflect.String:
			src = []byte(v.String())
		case v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8:
			src = v.Bytes()
		default:
			return mismatchEncode(d, v)
		}
		if len(src) > d.Size {
			return fmt.Errorf("byte string of length %d exceeds field width %d: %w", len(src), d.Size, ErrTypeMismatch)
		}
		copy(buf, src)
		return nil

	case Unicode:
		if v.Kind() != reflect.String {
			return mismatchEncode(d, v)
		}
		runes := []rune(v.String())
		if len(runes)*4 > d.Size {
			return fmt.Errorf("string of %d code points exceeds field width %d: %w", len(runes), d.Size/4, ErrTypeMismatch)
		}
		for i, r := range runes {
			order.PutUint32(buf[i*4:], uint32(r))
		}
		return nil

	case Struct:
		return encodeStruct(d, buf, v)
	}
	return fmt.Errorf("unsupported kind %s: %w", d.Kind, ErrTypeMismatch)
}

func encodeStruct(d Dtype, buf []byte, v reflect.Value) error {
	if v.Kind() != reflect.Struct {
		return mismatchEncode(d, v)
	}
	idx := exportedFieldIndices(v.Type())
	if len(idx) != len(d.Fields) {
		return fmt.Errorf("record has %d fields, struct %s has %d mappable fields: %w",
			len(d.Fields), v.Type(), len(idx), ErrTypeMismatch)
	}
	for i, f := range d.Fields {
		fv := v.Field(idx[i])
		if err := encodeField(f.Type, f.Shape, buf[f.Offset:f.Offset+f.byteSize()], fv); err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
	}
	return nil
}

func encodeField(ft Dtype, shape []int, buf []byte, v reflect.Value) error {
	if len(shape) == 0 {
		return encodeFrom(ft, buf, v)
	}
	if v.Kind() != reflect.Array || v.Len() != shape[0] {
		return fmt.Errorf("expected [%d] array, got %s: %w", shape[0], v.Type(), ErrTypeMismatch)
	}
	stride := ft.Size
	for _, d := range shape[1:] {
		stride *= d
	}
	for i := 0; i < shape[0]; i++ {
		if err := encodeField(ft, shape[1:], buf[i*stride:(i+1)*stride], v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func mismatchEncode(d Dtype, v reflect.Value) error {
	return fmt.Errorf("cannot encode %s as %s of %d bytes: %w", v.Type(), d.Kind, d.Size, ErrTypeMismatch)
}
