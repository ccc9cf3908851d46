package dtype

import (
	"fmt"
	"reflect"
	"sync"
)

// FromGoType derives the descriptor for values of Go type t. Scalar kinds
// map directly; struct types map to packed records following the declared
// field order, so a record written through the derived descriptor has its
// fields on disk exactly where the Go declaration puts them.
//
// Struct fields may rename themselves with an `npy:"name"` tag and opt out
// with `npy:"-"`. Fixed-size Go arrays become fixed repeat shapes. A field
// whose type has no mapping fails the whole derivation; nothing is guessed.
//
// The derived record descriptor is structurally equal to one built by hand
// with the same field layout. That equality is the contract the rest of the
// codec relies on, and the test suite checks it.
func FromGoType(t reflect.Type) (Dtype, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if d, ok := derived.Load(t); ok {
		return d.(Dtype), nil
	}
	d, err := deriveType(t)
	if err != nil {
		return Dtype{}, err
	}
	derived.Store(t, d)
	return d, nil
}

// FromGoValue is FromGoType on v's dynamic type.
func FromGoValue(v any) (Dtype, error) {
	return FromGoType(reflect.TypeOf(v))
}

// derived caches derivations per Go type. Derivation is pure, so a cache
// hit and a fresh derivation are indistinguishable.
var derived sync.Map // reflect.Type -> Dtype

func deriveType(t reflect.Type) (Dtype, error) {
	switch t.Kind() {
	case reflect.Bool:
		return Dtype{Kind: Bool, Size: 1, Order: NoOrder}, nil
	case reflect.Int8:
		return Dtype{Kind: Int, Size: 1, Order: NoOrder}, nil
	case reflect.Int16:
		return Dtype{Kind: Int, Size: 2, Order: LittleEndian}, nil
	case reflect.Int32:
		return Dtype{Kind: Int, Size: 4, Order: LittleEndian}, nil
	case reflect.Int64, reflect.Int:
		return Dtype{Kind: Int, Size: 8, Order: LittleEndian}, nil
	case reflect.Uint8:
		return Dtype{Kind: Uint, Size: 1, Order: NoOrder}, nil
	case reflect.Uint16:
		if t == float16Type {
			return Dtype{Kind: Float, Size: 2, Order: LittleEndian}, nil
		}
		return Dtype{Kind: Uint, Size: 2, Order: LittleEndian}, nil
	case reflect.Uint32:
		return Dtype{Kind: Uint, Size: 4, Order: LittleEndian}, nil
	case reflect.Uint64, reflect.Uint:
		return Dtype{Kind: Uint, Size: 8, Order: LittleEndian}, nil
	case reflect.Float32:
		return Dtype{Kind: Float, Size: 4, Order: LittleEndian}, nil
	case reflect.Float64:
		return Dtype{Kind: Float, Size: 8, Order: LittleEndian}, nil
	case reflect.Complex64:
		return Dtype{Kind: Complex, Size: 8, Order: LittleEndian}, nil
	case reflect.Complex128:
		return Dtype{Kind: Complex, Size: 16, Order: LittleEndian}, nil
	case reflect.Struct:
		return deriveStruct(t)
	default:
		return Dtype{}, fmt.Errorf("go type %s has no element mapping: %w", t, ErrLayout)
	}
}

func deriveStruct(t reflect.Type) (Dtype, error) {
	var fields []Field
	offset := 0
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Tag.Get("npy") == "-" {
			continue
		}
		name := sf.Name
		if tag := sf.Tag.Get("npy"); tag != "" {
			name = tag
		}

		ft := sf.Type
		var shape []int
		for ft.Kind() == reflect.Array {
			shape = append(shape, ft.Len())
			ft = ft.Elem()
		}

		fd, err := deriveType(ft)
		if err != nil {
			return Dtype{}, fmt.Errorf("field %s.%s: %w", t.Name(), sf.Name, err)
		}

		f := Field{Name: name, Offset: offset, Type: fd, Shape: shape}
		fields = append(fields, f)
		offset += f.byteSize()
	}
	if len(fields) == 0 {
		return Dtype{}, fmt.Errorf("struct %s has no mappable fields: %w", t, ErrLayout)
	}
	return NewStruct(fields)
}
