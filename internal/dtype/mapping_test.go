package dtype

import (
	"errors"
	"reflect"
	"testing"

	"github.com/x448/float16"
)

func TestFromGoTypeScalars(t *testing.T) {
	tests := []struct {
		value any
		want  Dtype
	}{
		{bool(true), MustNew(Bool, 1, NoOrder)},
		{int8(0), MustNew(Int, 1, NoOrder)},
		{int16(0), MustNew(Int, 2, LittleEndian)},
		{int32(0), MustNew(Int, 4, LittleEndian)},
		{int64(0), MustNew(Int, 8, LittleEndian)},
		{int(0), MustNew(Int, 8, LittleEndian)},
		{uint8(0), MustNew(Uint, 1, NoOrder)},
		{uint64(0), MustNew(Uint, 8, LittleEndian)},
		{float16.Float16(0), MustNew(Float, 2, LittleEndian)},
		{float32(0), MustNew(Float, 4, LittleEndian)},
		{float64(0), MustNew(Float, 8, LittleEndian)},
		{complex64(0), MustNew(Complex, 8, LittleEndian)},
		{complex128(0), MustNew(Complex, 16, LittleEndian)},
	}
	for _, tt := range tests {
		got, err := FromGoValue(tt.value)
		if err != nil {
			t.Errorf("FromGoValue(%T) failed: %v", tt.value, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("FromGoValue(%T) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

// TestDerivedEqualsManual checks the core mapping contract: the descriptor
// derived from a struct declaration is structurally equal to one built by
// hand for the same layout.
func TestDerivedEqualsManual(t *testing.T) {
	type sample struct {
		X   float32
		Y   float32
		Vel [3]float64
		ID  int64 `npy:"id"`
	}

	auto, err := FromGoType(reflect.TypeOf(sample{}))
	if err != nil {
		t.Fatalf("FromGoType failed: %v", err)
	}

	f4 := MustNew(Float, 4, LittleEndian)
	manual, err := NewStruct([]Field{
		{Name: "X", Offset: 0, Type: f4},
		{Name: "Y", Offset: 4, Type: f4},
		{Name: "Vel", Offset: 8, Type: MustNew(Float, 8, LittleEndian), Shape: []int{3}},
		{Name: "id", Offset: 32, Type: MustNew(Int, 8, LittleEndian)},
	})
	if err != nil {
		t.Fatalf("NewStruct failed: %v", err)
	}

	if !auto.Equal(manual) {
		t.Errorf("derived and manual descriptors differ:\nderived: %v\n manual: %v", auto, manual)
	}
	if auto.Size != 40 {
		t.Errorf("expected packed size 40, got %d", auto.Size)
	}
}

func TestFromGoTypeNestedStruct(t *testing.T) {
	type inner struct {
		A uint16
		B uint16
	}
	type outer struct {
		Tag [2][2]int32
		In  inner
	}

	d, err := FromGoType(reflect.TypeOf(outer{}))
	if err != nil {
		t.Fatalf("FromGoType failed: %v", err)
	}
	if d.Size != 20 {
		t.Errorf("expected size 20, got %d", d.Size)
	}
	if got := d.Fields[0].Shape; !reflect.DeepEqual(got, []int{2, 2}) {
		t.Errorf("expected shape [2 2], got %v", got)
	}
	if d.Fields[1].Type.Kind != Struct || d.Fields[1].Offset != 16 {
		t.Errorf("bad nested field: %+v", d.Fields[1])
	}
}

func TestFromGoTypeSkipsAndRenames(t *testing.T) {
	type rec struct {
		Keep    int32
		hidden  int32
		Ignored int32 `npy:"-"`
		Renamed int32 `npy:"value"`
	}

	d, err := FromGoType(reflect.TypeOf(rec{}))
	if err != nil {
		t.Fatalf("FromGoType failed: %v", err)
	}
	if len(d.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(d.Fields))
	}
	if d.Fields[0].Name != "Keep" || d.Fields[1].Name != "value" {
		t.Errorf("bad field names: %q, %q", d.Fields[0].Name, d.Fields[1].Name)
	}
	if d.Fields[1].Offset != 4 {
		t.Errorf("skipped fields must not consume offsets, got %d", d.Fields[1].Offset)
	}
}

func TestFromGoTypeRejectsUnmappable(t *testing.T) {
	type bad struct {
		S string
	}
	if _, err := FromGoType(reflect.TypeOf(bad{})); !errors.Is(err, ErrLayout) {
		t.Errorf("expected ErrLayout for string field, got %v", err)
	}
	type empty struct{}
	if _, err := FromGoType(reflect.TypeOf(empty{})); !errors.Is(err, ErrLayout) {
		t.Errorf("expected ErrLayout for empty struct, got %v", err)
	}
	if _, err := FromGoValue(map[string]int{}); !errors.Is(err, ErrLayout) {
		t.Errorf("expected ErrLayout for map, got %v", err)
	}
}
