package dtype

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/robert-malhotra/go-npy/internal/pylit"
)

// ErrBadTypeString is returned for malformed type strings and malformed
// structured descr trees.
var ErrBadTypeString = errors.New("bad type string")

// ParseTypeString parses one primitive type string of the form
// {order}{kind}{width}, e.g. "<i4", ">f8", "|S3", "<U5". A missing order
// marker means native order. The width of a 'U' code is in code points; the
// stored element size is four bytes per code point.
func ParseTypeString(s string) (Dtype, error) {
	rest := s
	order := NativeOrder
	if len(rest) > 0 {
		switch rest[0] {
		case '<':
			order = LittleEndian
			rest = rest[1:]
		case '>':
			order = BigEndian
			rest = rest[1:]
		case '=':
			order = NativeOrder
			rest = rest[1:]
		case '|':
			order = NoOrder
			rest = rest[1:]
		}
	}
	if len(rest) < 2 {
		return Dtype{}, fmt.Errorf("type string %q too short: %w", s, ErrBadTypeString)
	}

	var kind Kind
	switch rest[0] {
	case 'b':
		kind = Bool
	case 'i':
		kind = Int
	case 'u':
		kind = Uint
	case 'f':
		kind = Float
	case 'c':
		kind = Complex
	case 'S', 'a':
		kind = Bytes
	case 'U':
		kind = Unicode
	default:
		return Dtype{}, fmt.Errorf("unknown kind code %q in type string %q: %w", rest[0], s, ErrBadTypeString)
	}

	width, err := strconv.Atoi(rest[1:])
	if err != nil || width < 0 {
		return Dtype{}, fmt.Errorf("bad width in type string %q: %w", s, ErrBadTypeString)
	}

	size := width
	if kind == Unicode {
		size = 4 * width
	}
	d, err := New(kind, size, order)
	if err != nil {
		// A width the data model rejects is a malformed type string here.
		return Dtype{}, fmt.Errorf("type string %q: %v: %w", s, err, ErrBadTypeString)
	}
	return d, nil
}

// TypeString renders a primitive descriptor to its type string. Struct
// descriptors have no single type string; render those with FormatDescr.
func (d Dtype) TypeString() (string, error) {
	if d.Kind == Struct {
		return "", fmt.Errorf("record type has no primitive type string: %w", ErrBadTypeString)
	}

	var marker byte
	switch d.effectiveOrder() {
	case NoOrder:
		marker = '|'
	case BigEndian:
		marker = '>'
	default:
		marker = '<'
	}

	var code byte
	width := d.Size
	switch d.Kind {
	case Bool:
		code = 'b'
	case Int:
		code = 'i'
	case Uint:
		code = 'u'
	case Float:
		code = 'f'
	case Complex:
		code = 'c'
	case Bytes:
		code = 'S'
	case Unicode:
		code = 'U'
		width = d.Size / 4
	}
	return fmt.Sprintf("%c%c%d", marker, code, width), nil
}

// ParseDescr reconstructs a descriptor from a parsed header 'descr' value:
// either a type string or a list of (name, descr[, shape]) tuples for
// records, with fields packed at consecutive offsets.
func ParseDescr(v pylit.Value) (Dtype, error) {
	switch v.Kind {
	case pylit.KindString:
		return ParseTypeString(v.Str)
	case pylit.KindList:
		return parseRecordDescr(v)
	default:
		return Dtype{}, fmt.Errorf("descr must be a string or a list, got %s: %w", v.Kind, ErrBadTypeString)
	}
}

func parseRecordDescr(v pylit.Value) (Dtype, error) {
	if len(v.Items) == 0 {
		return Dtype{}, fmt.Errorf("empty record descr: %w", ErrBadTypeString)
	}

	fields := make([]Field, 0, len(v.Items))
	offset := 0
	for i, item := range v.Items {
		if item.Kind != pylit.KindTuple || len(item.Items) < 2 || len(item.Items) > 3 {
			return Dtype{}, fmt.Errorf("record field %d must be a (name, type[, shape]) tuple: %w", i, ErrBadTypeString)
		}
		name := item.Items[0]
		if name.Kind != pylit.KindString {
			return Dtype{}, fmt.Errorf("record field %d: name must be a string: %w", i, ErrBadTypeString)
		}

		ft, err := ParseDescr(item.Items[1])
		if err != nil {
			return Dtype{}, fmt.Errorf("record field %q: %w", name.Str, err)
		}

		var shape []int
		if len(item.Items) == 3 {
			shape, err = parseShapeTuple(item.Items[2])
			if err != nil {
				return Dtype{}, fmt.Errorf("record field %q: %w", name.Str, err)
			}
		}

		f := Field{Name: name.Str, Offset: offset, Type: ft, Shape: shape}
		fields = append(fields, f)
		offset += f.byteSize()
	}

	d, err := NewStruct(fields)
	if err != nil {
		return Dtype{}, fmt.Errorf("record descr: %v: %w", err, ErrBadTypeString)
	}
	return d, nil
}

func parseShapeTuple(v pylit.Value) ([]int, error) {
	if v.Kind != pylit.KindTuple {
		return nil, fmt.Errorf("shape must be a tuple, got %s: %w", v.Kind, ErrBadTypeString)
	}
	shape := make([]int, len(v.Items))
	for i, item := range v.Items {
		if item.Kind != pylit.KindInt || item.Int < 0 {
			return nil, fmt.Errorf("shape dimension %d must be a non-negative integer: %w", i, ErrBadTypeString)
		}
		shape[i] = int(item.Int)
	}
	return shape, nil
}

// FormatDescr renders a descriptor to the literal placed under the header's
// 'descr' key: a quoted type string for primitives, a list of tuples for
// records. Records render only when their fields are packed at consecutive
// offsets; a record with interior padding has no list representation.
func FormatDescr(d Dtype) (string, error) {
	if d.Kind != Struct {
		ts, err := d.TypeString()
		if err != nil {
			return "", err
		}
		return "'" + ts + "'", nil
	}

	var b strings.Builder
	b.WriteByte('[')
	offset := 0
	for i, f := range d.Fields {
		if f.Offset != offset {
			return "", fmt.Errorf("field %q at offset %d is not packed (expected %d): %w",
				f.Name, f.Offset, offset, ErrBadTypeString)
		}
		offset += f.byteSize()

		if i > 0 {
			b.WriteString(", ")
		}
		inner, err := FormatDescr(f.Type)
		if err != nil {
			return "", fmt.Errorf("field %q: %w", f.Name, err)
		}
		b.WriteString("('")
		b.WriteString(f.Name)
		b.WriteString("', ")
		b.WriteString(inner)
		if len(f.Shape) > 0 {
			b.WriteString(", ")
			b.WriteString(FormatShape(f.Shape))
		}
		b.WriteByte(')')
	}
	b.WriteByte(']')
	return b.String(), nil
}

// FormatShape renders a shape tuple exactly as numpy does: "()" for
// scalars and a trailing comma for one dimension, "(5,)" not "(5)".
func FormatShape(shape []int) string {
	switch len(shape) {
	case 0:
		return "()"
	case 1:
		return fmt.Sprintf("(%d,)", shape[0])
	default:
		var b strings.Builder
		b.WriteByte('(')
		for i, d := range shape {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Itoa(d))
		}
		b.WriteByte(')')
		return b.String()
	}
}
