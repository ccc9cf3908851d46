package npy

import (
	"reflect"

	"github.com/robert-malhotra/go-npy/internal/dtype"
)

// The descriptor model lives in internal/dtype; these aliases are the
// public surface for constructing and inspecting element types.

// Dtype describes the byte layout of one array element.
type Dtype = dtype.Dtype

// Field is one member of a record element type.
type Field = dtype.Field

// Kind is the class of an element type.
type Kind = dtype.Kind

// ByteOrder is the byte order of a primitive leaf.
type ByteOrder = dtype.ByteOrder

// Element type kinds.
const (
	Bool    = dtype.Bool
	Int     = dtype.Int
	Uint    = dtype.Uint
	Float   = dtype.Float
	Complex = dtype.Complex
	Bytes   = dtype.Bytes
	Unicode = dtype.Unicode
	Struct  = dtype.Struct
)

// Byte orders.
const (
	LittleEndian = dtype.LittleEndian
	BigEndian    = dtype.BigEndian
	NativeOrder  = dtype.NativeOrder
	NoOrder      = dtype.NoOrder
)

// NewDtype constructs a primitive descriptor, validating the width.
func NewDtype(kind Kind, size int, order ByteOrder) (Dtype, error) {
	return dtype.New(kind, size, order)
}

// MustDtype is NewDtype for statically known-good arguments.
func MustDtype(kind Kind, size int, order ByteOrder) Dtype {
	return dtype.MustNew(kind, size, order)
}

// NewStruct constructs a record descriptor from fields in offset order.
func NewStruct(fields []Field) (Dtype, error) {
	return dtype.NewStruct(fields)
}

// ParseTypeString parses a primitive type string such as "<i4" or "|S3".
func ParseTypeString(s string) (Dtype, error) {
	return dtype.ParseTypeString(s)
}

// DescrString renders d the way it appears in a file header: a quoted
// type string for primitives, a field list for records.
func DescrString(d Dtype) (string, error) {
	return dtype.FormatDescr(d)
}

// DtypeOf derives the descriptor for v's type: scalar kinds map directly,
// struct types map to packed records following the declared field order.
// See the npy struct tag: `npy:"name"` renames a field, `npy:"-"` skips it.
func DtypeOf(v any) (Dtype, error) {
	return dtype.FromGoValue(v)
}

// DtypeOfType is DtypeOf for an already-reflected type.
func DtypeOfType(t reflect.Type) (Dtype, error) {
	return dtype.FromGoType(t)
}
