package header

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeReservedThenPatch(t *testing.T) {
	m := Meta{Dtype: i4(), Shape: []int{0}}
	hdr, err := EncodeReserved(m, MaxCountDigits)
	if err != nil {
		t.Fatalf("EncodeReserved failed: %v", err)
	}
	if len(hdr)%64 != 0 {
		t.Errorf("reserved header length %d not aligned", len(hdr))
	}

	got, _, err := Decode(bytes.NewReader(hdr))
	if err != nil {
		t.Fatalf("Decode of reserved header failed: %v", err)
	}
	if len(got.Shape) != 1 || got.Shape[0] != 0 {
		t.Errorf("placeholder shape mangled: %v", got.Shape)
	}

	m.Shape = []int{123456789}
	if err := PatchShape(hdr, m); err != nil {
		t.Fatalf("PatchShape failed: %v", err)
	}
	got, n, err := Decode(bytes.NewReader(hdr))
	if err != nil {
		t.Fatalf("Decode of patched header failed: %v", err)
	}
	if int(n) != len(hdr) {
		t.Errorf("patched header length changed: %d != %d", n, len(hdr))
	}
	if got.Shape[0] != 123456789 {
		t.Errorf("patched shape = %v", got.Shape)
	}
}

func TestPatchKeepsLengthAcrossDigitThresholds(t *testing.T) {
	// Counts crossing a power-of-ten boundary change the rendered digit
	// width; the committed header length must absorb that via padding.
	m := Meta{Dtype: i4(), Shape: []int{0}}
	hdr, err := EncodeReserved(m, MaxCountDigits)
	if err != nil {
		t.Fatalf("EncodeReserved failed: %v", err)
	}
	base := len(hdr)

	for _, count := range []int{0, 9, 10, 99, 100, 999, 1000, 9999999999} {
		m.Shape = []int{count}
		if err := PatchShape(hdr, m); err != nil {
			t.Fatalf("PatchShape(%d) failed: %v", count, err)
		}
		if len(hdr) != base {
			t.Fatalf("header length changed at count %d", count)
		}
		got, _, err := Decode(bytes.NewReader(hdr))
		if err != nil {
			t.Fatalf("Decode failed at count %d: %v", count, err)
		}
		if got.Shape[0] != count {
			t.Errorf("count %d decoded as %v", count, got.Shape)
		}
	}
}

func TestPatchHeaderGrew(t *testing.T) {
	// A deliberately tight reservation: two digits of room.
	m := Meta{Dtype: i4(), Shape: []int{0}}
	hdr, err := EncodeReserved(m, 2)
	if err != nil {
		t.Fatalf("EncodeReserved failed: %v", err)
	}

	// Small counts patch fine.
	m.Shape = []int{99}
	if err := PatchShape(hdr, m); err != nil {
		t.Fatalf("PatchShape(99) failed: %v", err)
	}

	// The 64-byte frame usually pads with some slack beyond the
	// reservation, so force the failure with a shape whose text cannot
	// fit one alignment block.
	before := bytes.Clone(hdr)
	grown := Meta{Dtype: i4(), Shape: make([]int, 40)}
	for i := range grown.Shape {
		grown.Shape[i] = 1000000000
	}
	if err := PatchShape(hdr, grown); !errors.Is(err, ErrHeaderGrew) {
		t.Fatalf("expected ErrHeaderGrew, got %v", err)
	}
	if !bytes.Equal(hdr, before) {
		t.Error("failed patch must leave the header unchanged")
	}
}

func TestEncodeReservedValidation(t *testing.T) {
	m := Meta{Dtype: i4(), Shape: nil}
	if _, err := EncodeReserved(m, MaxCountDigits); !errors.Is(err, ErrBadValue) {
		t.Errorf("scalar shape: expected ErrBadValue, got %v", err)
	}
	m.Shape = []int{0}
	if _, err := EncodeReserved(m, 0); !errors.Is(err, ErrBadValue) {
		t.Errorf("zero digits: expected ErrBadValue, got %v", err)
	}
}
