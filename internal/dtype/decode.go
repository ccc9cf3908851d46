package dtype

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"reflect"
	"unsafe"

	"github.com/x448/float16"
)

// Decode errors. ErrTruncated means fewer payload bytes remain than the
// descriptor requires; ErrTypeMismatch means the destination Go shape is
// incompatible with the descriptor.
var (
	ErrTruncated    = errors.New("truncated payload")
	ErrTypeMismatch = errors.New("type mismatch")
)

var float16Type = reflect.TypeOf(float16.Float16(0))

// byteOrderOf returns the concrete order used to reinterpret leaf bytes.
func byteOrderOf(d Dtype) binary.ByteOrder {
	if d.effectiveOrder() == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// DecodeValue decodes one element from raw into dst, which must be a
// pointer to a value of a compatible Go type. raw must hold at least
// d.Size bytes.
func DecodeValue(d Dtype, raw []byte, dst any) error {
	if len(raw) < d.Size {
		return fmt.Errorf("element needs %d bytes, have %d: %w", d.Size, len(raw), ErrTruncated)
	}
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("destination must be a non-nil pointer: %w", ErrTypeMismatch)
	}
	return decodeInto(d, raw[:d.Size], v.Elem())
}

// DecodeSlice decodes n contiguous elements from raw into dst, which must
// be a pointer to a slice. The slice is resized to n.
func DecodeSlice(d Dtype, raw []byte, n int, dst any) error {
	if d.Size > 0 && n > math.MaxInt/d.Size {
		return fmt.Errorf("%d elements of %d bytes overflow: %w", n, d.Size, ErrTruncated)
	}
	if need := n * d.Size; len(raw) < need {
		return fmt.Errorf("%d elements need %d bytes, have %d: %w", n, need, len(raw), ErrTruncated)
	}
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("destination must be a pointer to a slice: %w", ErrTypeMismatch)
	}
	sv := v.Elem()
	if sv.Cap() < n {
		sv.Set(reflect.MakeSlice(sv.Type(), n, n))
	} else {
		sv.SetLen(n)
	}
	if n == 0 {
		return nil
	}

	if canDirectCopy(d, sv.Type().Elem()) {
		dstBytes := unsafe.Slice((*byte)(sv.Index(0).Addr().UnsafePointer()), n*d.Size)
		copy(dstBytes, raw[:n*d.Size])
		return nil
	}

	for i := 0; i < n; i++ {
		if err := decodeInto(d, raw[i*d.Size:(i+1)*d.Size], sv.Index(i)); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// canDirectCopy reports whether elements of d can be copied byte-for-byte
// into values of Go type t: primitive, effectively little-endian (all
// supported targets are), and bit-identical representation.
func canDirectCopy(d Dtype, t reflect.Type) bool {
	if d.effectiveOrder() == BigEndian {
		return false
	}
	switch d.Kind {
	case Int:
		switch t.Kind() {
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return int(t.Size()) == d.Size
		}
	case Uint:
		switch t.Kind() {
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return int(t.Size()) == d.Size
		}
	case Float:
		switch t.Kind() {
		case reflect.Float32, reflect.Float64:
			return int(t.Size()) == d.Size
		case reflect.Uint16:
			return d.Size == 2 && t == float16Type
		}
	case Complex:
		switch t.Kind() {
		case reflect.Complex64, reflect.Complex128:
			return int(t.Size()) == d.Size
		}
	}
	return false
}

func decodeInto(d Dtype, raw []byte, v reflect.Value) error {
	order := byteOrderOf(d)
	switch d.Kind {
	case Bool:
		if v.Kind() != reflect.Bool {
			return mismatch(d, v)
		}
		v.SetBool(raw[0] != 0)
		return nil

	case Int:
		var n int64
		switch d.Size {
		case 1:
			n = int64(int8(raw[0]))
		case 2:
			n = int64(int16(order.Uint16(raw)))
		case 4:
			n = int64(int32(order.Uint32(raw)))
		case 8:
			n = int64(order.Uint64(raw))
		}
		switch v.Kind() {
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
			if int(v.Type().Size()) != d.Size {
				return mismatch(d, v)
			}
			v.SetInt(n)
			return nil
		}
		return mismatch(d, v)

	case Uint:
		var n uint64
		switch d.Size {
		case 1:
			n = uint64(raw[0])
		case 2:
			n = uint64(order.Uint16(raw))
		case 4:
			n = uint64(order.Uint32(raw))
		case 8:
			n = order.Uint64(raw)
		}
		switch v.Kind() {
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
			if int(v.Type().Size()) != d.Size {
				return mismatch(d, v)
			}
			v.SetUint(n)
			return nil
		}
		return mismatch(d, v)

	case Float:
		switch d.Size {
		case 2:
			bits := order.Uint16(raw)
			if v.Type() == float16Type {
				v.SetUint(uint64(bits))
				return nil
			}
			if v.Kind() == reflect.Float32 {
				v.SetFloat(float64(float16.Frombits(bits).Float32()))
				return nil
			}
		case 4:
			if v.Kind() == reflect.Float32 {
				v.SetFloat(float64(math.Float32frombits(order.Uint32(raw))))
				return nil
			}
		case 8:
			if v.Kind() == reflect.Float64 {
				v.SetFloat(math.Float64frombits(order.Uint64(raw)))
				return nil
			}
		}
		return mismatch(d, v)

	case Complex:
		switch d.Size {
		case 8:
			if v.Kind() != reflect.Complex64 {
				return mismatch(d, v)
			}
			re := math.Float32frombits(order.Uint32(raw))
			im := math.Float32frombits(order.Uint32(raw[4:]))
			v.SetComplex(complex(float64(re), float64(im)))
			return nil
		case 16:
			if v.Kind() != reflect.Complex128 {
				return mismatch(d, v)
			}
			re := math.Float64frombits(order.Uint64(raw))
			im := math.Float64frombits(order.Uint64(raw[8:]))
			v.SetComplex(complex(re, im))
			return nil
		}
		return mismatch(d, v)

	case Bytes:
		trimmed := raw
		for len(trimmed) > 0 && trimmed[len(trimmed)-1] == 0 {
			trimmed = trimmed[:len(trimmed)-1]
		}
		switch {
		case v.Kind() == reflect.String:
			v.SetString(string(trimmed))
			return nil
		case v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8:
			b := make([]byte, len(trimmed))
			copy(b, trimmed)
			v.SetBytes(b)
			return nil
		}
		return mismatch(d, v)

	case Unicode:
		if v.Kind() != reflect.String {
			return mismatch(d, v)
		}
		runes := make([]rune, 0, d.Size/4)
		for off := 0; off < d.Size; off += 4 {
			runes = append(runes, rune(order.Uint32(raw[off:])))
		}
		// NUL padding trims from the right, as numpy does.
		for len(runes) > 0 && runes[len(runes)-1] == 0 {
			runes = runes[:len(runes)-1]
		}
		v.SetString(string(runes))
		return nil

	case Struct:
		return decodeStruct(d, raw, v)
	}
	return fmt.Errorf("unsupported kind %s: %w", d.Kind, ErrTypeMismatch)
}

func decodeStruct(d Dtype, raw []byte, v reflect.Value) error {
	if v.Kind() != reflect.Struct {
		return mismatch(d, v)
	}
	idx := exportedFieldIndices(v.Type())
	if len(idx) != len(d.Fields) {
		return fmt.Errorf("record has %d fields, struct %s has %d mappable fields: %w",
			len(d.Fields), v.Type(), len(idx), ErrTypeMismatch)
	}
	for i, f := range d.Fields {
		fv := v.Field(idx[i])
		if err := decodeField(f.Type, f.Shape, raw[f.Offset:f.Offset+f.byteSize()], fv); err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
	}
	return nil
}

// decodeField handles the optional fixed repeat shape of a record field,
// recursing one dimension at a time in row-major order.
func decodeField(ft Dtype, shape []int, raw []byte, v reflect.Value) error {
	if len(shape) == 0 {
		return decodeInto(ft, raw, v)
	}
	if v.Kind() != reflect.Array || v.Len() != shape[0] {
		return fmt.Errorf("expected [%d] array, got %s: %w", shape[0], v.Type(), ErrTypeMismatch)
	}
	stride := ft.Size
	for _, d := range shape[1:] {
		stride *= d
	}
	for i := 0; i < shape[0]; i++ {
		if err := decodeField(ft, shape[1:], raw[i*stride:(i+1)*stride], v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func mismatch(d Dtype, v reflect.Value) error {
	return fmt.Errorf("cannot decode %s of %d bytes into %s: %w", d.Kind, d.Size, v.Type(), ErrTypeMismatch)
}

// exportedFieldIndices lists the struct field indices participating in the
// record mapping: exported and not tagged `npy:"-"`, in declaration order.
func exportedFieldIndices(t reflect.Type) []int {
	idx := make([]int, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("npy") == "-" {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}
