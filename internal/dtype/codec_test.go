package dtype

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/x448/float16"
)

func TestDecodeSliceLittleEndianInts(t *testing.T) {
	d := MustNew(Int, 4, LittleEndian)
	raw := []byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0}

	var got []int32
	if err := DecodeSlice(d, raw, 3, &got); err != nil {
		t.Fatalf("DecodeSlice failed: %v", err)
	}
	if !reflect.DeepEqual(got, []int32{1, 2, 3}) {
		t.Errorf("got %v", got)
	}
}

func TestDecodeSliceBigEndian(t *testing.T) {
	d := MustNew(Uint, 2, BigEndian)
	raw := []byte{0x01, 0x02, 0xff, 0xfe}

	var got []uint16
	if err := DecodeSlice(d, raw, 2, &got); err != nil {
		t.Fatalf("DecodeSlice failed: %v", err)
	}
	if got[0] != 0x0102 || got[1] != 0xfffe {
		t.Errorf("got %#v", got)
	}
}

func TestEncodeDecodeRoundTripScalars(t *testing.T) {
	run := func(name string, d Dtype, src any) {
		t.Helper()
		payload, err := EncodeSlice(d, src)
		if err != nil {
			t.Errorf("%s: encode failed: %v", name, err)
			return
		}
		srcVal := reflect.ValueOf(src)
		dst := reflect.New(srcVal.Type())
		if err := DecodeSlice(d, payload, srcVal.Len(), dst.Interface()); err != nil {
			t.Errorf("%s: decode failed: %v", name, err)
			return
		}
		if !reflect.DeepEqual(dst.Elem().Interface(), src) {
			t.Errorf("%s: round trip changed data: %v -> %v", name, src, dst.Elem())
		}
	}

	run("bool", MustNew(Bool, 1, NoOrder), []bool{true, false, true})
	run("int8", MustNew(Int, 1, NoOrder), []int8{-1, 0, 127})
	run("int16 be", MustNew(Int, 2, BigEndian), []int16{-300, 300})
	run("int64", MustNew(Int, 8, LittleEndian), []int64{math.MinInt64, math.MaxInt64})
	run("uint32", MustNew(Uint, 4, LittleEndian), []uint32{0, 1, math.MaxUint32})
	run("float32", MustNew(Float, 4, LittleEndian), []float32{1.5, -2.25, float32(math.Inf(1))})
	run("float64 be", MustNew(Float, 8, BigEndian), []float64{math.Pi, -0.0})
	run("float16", MustNew(Float, 2, LittleEndian), []float16.Float16{
		float16.Fromfloat32(1.0), float16.Fromfloat32(-0.5)})
	run("complex64", MustNew(Complex, 8, LittleEndian), []complex64{1 + 2i, -3 - 4i})
	run("complex128 be", MustNew(Complex, 16, BigEndian), []complex128{complex(math.E, -math.Pi)})
	run("bytes", MustNew(Bytes, 5, NoOrder), []string{"ab", "abcde", ""})
	run("unicode", MustNew(Unicode, 20, LittleEndian), []string{"héllo", "", "日本"})
}

func TestDecodeFloat16IntoFloat32(t *testing.T) {
	d := MustNew(Float, 2, LittleEndian)
	payload, err := EncodeSlice(d, []float32{0.5, -1.5})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	var got []float32
	if err := DecodeSlice(d, payload, 2, &got); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got[0] != 0.5 || got[1] != -1.5 {
		t.Errorf("got %v", got)
	}
}

func TestDecodeTruncated(t *testing.T) {
	d := MustNew(Int, 4, LittleEndian)
	var got []int32
	err := DecodeSlice(d, []byte{1, 2, 3}, 1, &got)
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
	var one int32
	if err := DecodeValue(d, []byte{1, 2}, &one); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}

	// A count whose byte size wraps an int must not pass the length check.
	err = DecodeSlice(d, []byte{1, 2, 3}, math.MaxInt/2, &got)
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated for overflowing count, got %v", err)
	}
}

func TestDecodeTypeMismatch(t *testing.T) {
	d := MustNew(Int, 4, LittleEndian)
	raw := []byte{0, 0, 0, 0, 0, 0, 0, 0}

	var wrongWidth []int16
	if err := DecodeSlice(d, raw, 2, &wrongWidth); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("int16 for <i4: expected ErrTypeMismatch, got %v", err)
	}
	var wrongSign []uint32
	if err := DecodeSlice(d, raw, 2, &wrongSign); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("uint32 for <i4: expected ErrTypeMismatch, got %v", err)
	}
	var notSlice int32
	if err := DecodeSlice(d, raw, 2, &notSlice); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("non-slice destination: expected ErrTypeMismatch, got %v", err)
	}
}

type particle struct {
	X   float32
	Y   float32
	Vel [3]float64
	ID  int64 `npy:"id"`
}

func particleDtype(t *testing.T) Dtype {
	t.Helper()
	f4 := MustNew(Float, 4, LittleEndian)
	d, err := NewStruct([]Field{
		{Name: "X", Offset: 0, Type: f4},
		{Name: "Y", Offset: 4, Type: f4},
		{Name: "Vel", Offset: 8, Type: MustNew(Float, 8, LittleEndian), Shape: []int{3}},
		{Name: "id", Offset: 32, Type: MustNew(Int, 8, LittleEndian)},
	})
	if err != nil {
		t.Fatalf("NewStruct failed: %v", err)
	}
	return d
}

func TestEncodeDecodeRecord(t *testing.T) {
	d := particleDtype(t)
	src := []particle{
		{X: 1, Y: 2, Vel: [3]float64{0.1, 0.2, 0.3}, ID: 7},
		{X: -1, Y: -2, Vel: [3]float64{-0.1, -0.2, -0.3}, ID: 8},
	}

	payload, err := EncodeSlice(d, src)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if len(payload) != 2*d.Size {
		t.Fatalf("payload is %d bytes, want %d", len(payload), 2*d.Size)
	}

	var got []particle
	if err := DecodeSlice(d, payload, 2, &got); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !reflect.DeepEqual(got, src) {
		t.Errorf("round trip changed data:\n in: %+v\nout: %+v", src, got)
	}
}

func TestDecodeRecordFieldCountMismatch(t *testing.T) {
	d := particleDtype(t)
	raw := make([]byte, d.Size)

	var wrong struct {
		X float32
		Y float32
	}
	if err := DecodeValue(d, raw, &wrong); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestEncodeRecordPaddingIsZeroed(t *testing.T) {
	f4 := MustNew(Float, 4, LittleEndian)
	d, err := NewStruct([]Field{
		{Name: "a", Offset: 0, Type: f4},
		{Name: "b", Offset: 8, Type: f4},
	})
	if err != nil {
		t.Fatalf("NewStruct failed: %v", err)
	}

	type rec struct{ A, B float32 }
	buf := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	if err := EncodeValue(d, buf, rec{A: 0, B: 0}); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d not zeroed: %#x", i, b)
		}
	}
}

func TestEncodeStringTooLong(t *testing.T) {
	d := MustNew(Bytes, 3, NoOrder)
	if _, err := EncodeSlice(d, []string{"abcd"}); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
	u := MustNew(Unicode, 8, LittleEndian)
	if _, err := EncodeSlice(u, []string{"abc"}); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestDirectCopyMatchesSlowPath(t *testing.T) {
	d := MustNew(Float, 8, LittleEndian)
	src := []float64{1, 2, 3, 4.5}
	payload, err := EncodeSlice(d, src)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	// The big-endian variant of the same values exercises the per-element
	// path; byte-reversing each word must agree with the fast path.
	be := MustNew(Float, 8, BigEndian)
	bePayload, err := EncodeSlice(be, src)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	for i := 0; i < len(src); i++ {
		for j := 0; j < 8; j++ {
			if payload[i*8+j] != bePayload[i*8+7-j] {
				t.Fatalf("element %d byte %d: little/big encodings disagree", i, j)
			}
		}
	}
}
