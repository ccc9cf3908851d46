package dtype

import (
	"errors"
	"fmt"
)

// ErrLayout is returned for invalid descriptor construction: overlapping
// fields, offsets inconsistent with declared sizes, duplicate names, or
// unsupported primitive widths.
var ErrLayout = errors.New("invalid layout")

// Kind is the class of an element type.
type Kind uint8

const (
	Bool    Kind = iota // 1-byte boolean
	Int                 // signed integer, 1/2/4/8 bytes
	Uint                // unsigned integer, 1/2/4/8 bytes
	Float               // IEEE 754 float, 2/4/8 bytes
	Complex             // pair of floats, 8/16 bytes total
	Bytes               // fixed-length byte string (numpy 'S')
	Unicode             // fixed-length UCS-4 string (numpy 'U'), 4 bytes per code point
	Struct              // record of named fields at explicit offsets
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Uint:
		return "uint"
	case Float:
		return "float"
	case Complex:
		return "complex"
	case Bytes:
		return "bytes"
	case Unicode:
		return "unicode"
	case Struct:
		return "struct"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ByteOrder is the byte order of a primitive leaf. Order attaches to leaves
// rather than to a whole descriptor because fields of a record may differ.
type ByteOrder uint8

const (
	LittleEndian ByteOrder = iota // '<'
	BigEndian                     // '>'
	NativeOrder                   // '='
	NoOrder                       // '|' (single-byte and byte-string types)
)

func (o ByteOrder) String() string {
	switch o {
	case LittleEndian:
		return "little-endian"
	case BigEndian:
		return "big-endian"
	case NativeOrder:
		return "native"
	case NoOrder:
		return "none"
	default:
		return fmt.Sprintf("ByteOrder(%d)", o)
	}
}

// Dtype describes the byte layout of one array element. It is a tagged
// variant: Kind selects which of the remaining fields are meaningful.
// Dtype values are plain values; they own their field trees and are never
// shared or cyclic.
type Dtype struct {
	Kind  Kind
	Size  int       // total bytes of one element
	Order ByteOrder // primitive leaves only

	Fields []Field // Struct only, in offset order
}

// Field is one member of a record element type. A non-empty Shape makes the
// field a fixed-size inner array of Type.
type Field struct {
	Name   string
	Offset int
	Type   Dtype
	Shape  []int
}

// byteSize returns the total bytes the field occupies.
func (f Field) byteSize() int {
	n := f.Type.Size
	for _, d := range f.Shape {
		n *= d
	}
	return n
}

// New constructs a primitive descriptor, validating the width for the kind.
func New(kind Kind, size int, order ByteOrder) (Dtype, error) {
	switch kind {
	case Bool:
		if size != 1 {
			return Dtype{}, fmt.Errorf("bool must be 1 byte, got %d: %w", size, ErrLayout)
		}
	case Int, Uint:
		if size != 1 && size != 2 && size != 4 && size != 8 {
			return Dtype{}, fmt.Errorf("%s width must be 1, 2, 4 or 8 bytes, got %d: %w", kind, size, ErrLayout)
		}
	case Float:
		if size != 2 && size != 4 && size != 8 {
			return Dtype{}, fmt.Errorf("float width must be 2, 4 or 8 bytes, got %d: %w", size, ErrLayout)
		}
	case Complex:
		if size != 8 && size != 16 {
			return Dtype{}, fmt.Errorf("complex width must be 8 or 16 bytes, got %d: %w", size, ErrLayout)
		}
	case Bytes:
		if size < 0 {
			return Dtype{}, fmt.Errorf("byte-string length must be non-negative, got %d: %w", size, ErrLayout)
		}
	case Unicode:
		if size < 0 || size%4 != 0 {
			return Dtype{}, fmt.Errorf("unicode size must be a non-negative multiple of 4, got %d: %w", size, ErrLayout)
		}
	default:
		return Dtype{}, fmt.Errorf("kind %s is not primitive: %w", kind, ErrLayout)
	}
	return Dtype{Kind: kind, Size: size, Order: order}, nil
}

// MustNew is New for statically known-good arguments; it panics on error.
func MustNew(kind Kind, size int, order ByteOrder) Dtype {
	d, err := New(kind, size, order)
	if err != nil {
		panic(err)
	}
	return d
}

// NewStruct constructs a record descriptor from fields declared in offset
// order. The element size is the maximum offset+size over all fields.
// Overlapping byte ranges, offsets that run backwards relative to the
// declared order, duplicate names and negative shape dimensions all fail
// with ErrLayout.
func NewStruct(fields []Field) (Dtype, error) {
	if len(fields) == 0 {
		return Dtype{}, fmt.Errorf("record must have at least one field: %w", ErrLayout)
	}

	seen := make(map[string]bool, len(fields))
	end := 0
	size := 0
	for i, f := range fields {
		if f.Name == "" {
			return Dtype{}, fmt.Errorf("field %d has an empty name: %w", i, ErrLayout)
		}
		if seen[f.Name] {
			return Dtype{}, fmt.Errorf("duplicate field name %q: %w", f.Name, ErrLayout)
		}
		seen[f.Name] = true
		if f.Offset < 0 {
			return Dtype{}, fmt.Errorf("field %q has negative offset %d: %w", f.Name, f.Offset, ErrLayout)
		}
		for _, d := range f.Shape {
			if d < 0 {
				return Dtype{}, fmt.Errorf("field %q has negative dimension %d: %w", f.Name, d, ErrLayout)
			}
		}
		if f.Offset < end {
			return Dtype{}, fmt.Errorf("field %q at offset %d overlaps the previous field ending at %d: %w",
				f.Name, f.Offset, end, ErrLayout)
		}
		end = f.Offset + f.byteSize()
		if end > size {
			size = end
		}
	}

	out := make([]Field, len(fields))
	copy(out, fields)
	return Dtype{Kind: Struct, Size: size, Fields: out}, nil
}

// ItemSize returns the total byte size of one element.
func (d Dtype) ItemSize() int {
	return d.Size
}

// WithOrder returns a copy of d with every primitive leaf set to order.
// Single-byte kinds and byte strings are order-free and left untouched.
func (d Dtype) WithOrder(order ByteOrder) Dtype {
	switch d.Kind {
	case Struct:
		fields := make([]Field, len(d.Fields))
		copy(fields, d.Fields)
		for i := range fields {
			fields[i].Type = fields[i].Type.WithOrder(order)
		}
		d.Fields = fields
	case Bool, Bytes:
		// order-free
	default:
		if d.Size > 1 {
			d.Order = order
		}
	}
	return d
}

// effectiveOrder collapses order distinctions that do not affect byte
// layout: native order is host order (little-endian on all supported
// targets), and single-byte or byte-string types have no order at all.
func (d Dtype) effectiveOrder() ByteOrder {
	if d.Kind == Bool || d.Kind == Bytes || d.Size <= 1 {
		return NoOrder
	}
	if d.Order == NativeOrder {
		return LittleEndian
	}
	return d.Order
}

// Equal reports structural equality: two descriptors are equal when they
// describe the same byte layout, regardless of how they were constructed.
func (d Dtype) Equal(other Dtype) bool {
	if d.Kind != other.Kind || d.Size != other.Size {
		return false
	}
	if d.Kind != Struct {
		return d.effectiveOrder() == other.effectiveOrder()
	}
	if len(d.Fields) != len(other.Fields) {
		return false
	}
	for i, f := range d.Fields {
		g := other.Fields[i]
		if f.Name != g.Name || f.Offset != g.Offset {
			return false
		}
		if len(f.Shape) != len(g.Shape) {
			return false
		}
		for j := range f.Shape {
			if f.Shape[j] != g.Shape[j] {
				return false
			}
		}
		if !f.Type.Equal(g.Type) {
			return false
		}
	}
	return true
}

// String returns the descr rendering when one exists, else a debug form.
func (d Dtype) String() string {
	s, err := FormatDescr(d)
	if err != nil {
		return fmt.Sprintf("dtype{%s size=%d}", d.Kind, d.Size)
	}
	return s
}
