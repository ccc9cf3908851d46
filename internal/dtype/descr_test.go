package dtype

import (
	"errors"
	"testing"

	"github.com/robert-malhotra/go-npy/internal/pylit"
)

func TestTypeStringRoundTrip(t *testing.T) {
	tests := []string{
		"|b1", "|i1", "|u1",
		"<i2", "<i4", "<i8",
		">i2", ">i4", ">i8",
		"<u2", "<u4", "<u8",
		"<f2", "<f4", "<f8", ">f8",
		"<c8", "<c16",
		"|S3", "|S0", "<U5",
	}
	for _, s := range tests {
		d, err := ParseTypeString(s)
		if err != nil {
			t.Errorf("ParseTypeString(%q) failed: %v", s, err)
			continue
		}
		out, err := d.TypeString()
		if err != nil {
			t.Errorf("TypeString for %q failed: %v", s, err)
			continue
		}
		if out != s {
			t.Errorf("round trip %q -> %q", s, out)
		}
	}
}

func TestParseTypeStringNormalization(t *testing.T) {
	// Native order renders as little-endian, order on 1-byte codes is
	// insignificant, and 'a' is an alias for 'S'.
	tests := []struct{ in, out string }{
		{"=i4", "<i4"},
		{"i4", "<i4"},
		{"<i1", "|i1"},
		{">b1", "|b1"},
		{"|a3", "|S3"},
		{"=U2", "<U2"},
	}
	for _, tt := range tests {
		d, err := ParseTypeString(tt.in)
		if err != nil {
			t.Errorf("ParseTypeString(%q) failed: %v", tt.in, err)
			continue
		}
		out, err := d.TypeString()
		if err != nil {
			t.Errorf("TypeString for %q failed: %v", tt.in, err)
			continue
		}
		if out != tt.out {
			t.Errorf("ParseTypeString(%q) = %q, want %q", tt.in, out, tt.out)
		}
	}
}

func TestParseTypeStringErrors(t *testing.T) {
	bad := []string{
		"",
		"<",
		"<i",
		"<q4",
		"<i3",
		"<f16",
		"<c4",
		"<ix",
		"x",
		"<i-4",
	}
	for _, s := range bad {
		if _, err := ParseTypeString(s); !errors.Is(err, ErrBadTypeString) {
			t.Errorf("ParseTypeString(%q): expected ErrBadTypeString, got %v", s, err)
		}
	}
}

func TestUnicodeSizeIsFourBytesPerCodePoint(t *testing.T) {
	d, err := ParseTypeString("<U5")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if d.Size != 20 {
		t.Errorf("expected 20 bytes, got %d", d.Size)
	}
}

func TestFormatDescrRecord(t *testing.T) {
	f4 := MustNew(Float, 4, LittleEndian)
	d, err := NewStruct([]Field{
		{Name: "x", Offset: 0, Type: f4},
		{Name: "y", Offset: 4, Type: f4},
		{Name: "pos", Offset: 8, Type: MustNew(Float, 8, LittleEndian), Shape: []int{3}},
	})
	if err != nil {
		t.Fatalf("NewStruct failed: %v", err)
	}

	got, err := FormatDescr(d)
	if err != nil {
		t.Fatalf("FormatDescr failed: %v", err)
	}
	want := "[('x', '<f4'), ('y', '<f4'), ('pos', '<f8', (3,))]"
	if got != want {
		t.Errorf("FormatDescr = %q, want %q", got, want)
	}
}

func TestFormatDescrRejectsPaddedRecord(t *testing.T) {
	f4 := MustNew(Float, 4, LittleEndian)
	d, err := NewStruct([]Field{
		{Name: "x", Offset: 0, Type: f4},
		{Name: "y", Offset: 12, Type: f4},
	})
	if err != nil {
		t.Fatalf("NewStruct failed: %v", err)
	}
	if _, err := FormatDescr(d); err == nil {
		t.Error("expected an error rendering a padded record")
	}
}

func TestDescrRoundTripThroughLiteral(t *testing.T) {
	f4 := MustNew(Float, 4, LittleEndian)
	want, err := NewStruct([]Field{
		{Name: "x", Offset: 0, Type: f4},
		{Name: "tag", Offset: 4, Type: MustNew(Bytes, 3, NoOrder)},
		{Name: "vel", Offset: 7, Type: f4, Shape: []int{2, 2}},
	})
	if err != nil {
		t.Fatalf("NewStruct failed: %v", err)
	}

	text, err := FormatDescr(want)
	if err != nil {
		t.Fatalf("FormatDescr failed: %v", err)
	}
	tree, err := pylit.Parse(text)
	if err != nil {
		t.Fatalf("literal parse of %q failed: %v", text, err)
	}
	got, err := ParseDescr(tree)
	if err != nil {
		t.Fatalf("ParseDescr failed: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("round trip changed descriptor:\n in: %v\nout: %v", want, got)
	}
}

func TestParseDescrNestedRecord(t *testing.T) {
	tree, err := pylit.Parse("[('a', '<u2'), ('inner', [('b', '<f4'), ('c', '<f4')])]")
	if err != nil {
		t.Fatalf("literal parse failed: %v", err)
	}
	d, err := ParseDescr(tree)
	if err != nil {
		t.Fatalf("ParseDescr failed: %v", err)
	}
	if d.Size != 10 {
		t.Errorf("expected element size 10, got %d", d.Size)
	}
	inner := d.Fields[1].Type
	if inner.Kind != Struct || len(inner.Fields) != 2 || inner.Fields[1].Offset != 4 {
		t.Errorf("bad nested record: %+v", inner)
	}
}

func TestParseDescrErrors(t *testing.T) {
	bad := []string{
		"[]",
		"[('x',)]",
		"[('x', '<f4', (2,), 'extra')]",
		"[(1, '<f4')]",
		"[('x', '<f4'), ('x', '<f4')]",
		"[('x', '<f4', (-1,))]",
		"[('x', True)]",
	}
	for _, s := range bad {
		tree, err := pylit.Parse(s)
		if err != nil {
			t.Fatalf("literal parse of %q failed: %v", s, err)
		}
		if _, err := ParseDescr(tree); !errors.Is(err, ErrBadTypeString) {
			t.Errorf("ParseDescr(%q): expected ErrBadTypeString, got %v", s, err)
		}
	}
}

func TestFormatShape(t *testing.T) {
	tests := []struct {
		shape []int
		want  string
	}{
		{nil, "()"},
		{[]int{5}, "(5,)"},
		{[]int{2, 3}, "(2, 3)"},
		{[]int{0}, "(0,)"},
		{[]int{1, 2, 3}, "(1, 2, 3)"},
	}
	for _, tt := range tests {
		if got := FormatShape(tt.shape); got != tt.want {
			t.Errorf("FormatShape(%v) = %q, want %q", tt.shape, got, tt.want)
		}
	}
}
