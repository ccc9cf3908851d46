package header

import (
	"errors"
	"fmt"
	"strings"
)

// ErrHeaderGrew is returned by PatchShape when the re-rendered dictionary
// no longer fits the committed header length. With the default reservation
// this cannot happen for any count a Go int can hold; it exists for the
// boundary where a caller reserved fewer digits than the final count needs.
var ErrHeaderGrew = errors.New("header length would change")

// MaxCountDigits is the reservation covering every representable element
// count (a uint64 has at most 20 decimal digits).
const MaxCountDigits = 20

// EncodeReserved renders the header for m with enough trailing pad space
// that the outermost dimension can later be rewritten, in place, with any
// value of up to digits decimal digits. The outer dimension of m.Shape is
// rendered as given (typically 0); the header length is chosen as if it
// held digits digits, so PatchShape never changes the total length as long
// as the final count fits. The framing rules (version selection, 64-byte
// alignment) are the same as Encode's.
func EncodeReserved(m Meta, digits int) ([]byte, error) {
	if len(m.Shape) == 0 {
		return nil, fmt.Errorf("streaming header needs at least one dimension: %w", ErrBadValue)
	}
	if digits < 1 {
		return nil, fmt.Errorf("reservation of %d digits: %w", digits, ErrBadValue)
	}

	// Size the frame for the widest outer dimension the reservation allows.
	widest := make([]int, len(m.Shape))
	copy(widest, m.Shape)
	widest[0] = widestValue(digits)
	wideDict, err := dictText(Meta{Dtype: m.Dtype, ColumnMajor: m.ColumnMajor, Shape: widest})
	if err != nil {
		return nil, err
	}
	v, err := pickVersion(wideDict)
	if err != nil {
		return nil, err
	}
	total := magicLen + v.lenFieldSize() + paddedTextLen(len(wideDict), v)

	dict, err := dictText(m)
	if err != nil {
		return nil, err
	}
	return frameAt(dict, v, total)
}

// PatchShape re-renders the header for m into hdr, keeping hdr's version
// and total length. It fails with ErrHeaderGrew when the new dictionary no
// longer fits, leaving hdr unchanged.
func PatchShape(hdr []byte, m Meta) error {
	if len(hdr) < magicLen || string(hdr[:len(Magic)]) != Magic {
		return fmt.Errorf("patch target is not a header: %w", ErrBadMagic)
	}
	v := Version{Major: hdr[6], Minor: hdr[7]}
	if !v.supported() {
		return fmt.Errorf("version %s: %w", v, ErrBadVersion)
	}

	dict, err := dictText(m)
	if err != nil {
		return err
	}
	out, err := frameAt(dict, v, len(hdr))
	if err != nil {
		return err
	}
	copy(hdr, out)
	return nil
}

// frameAt assembles a header of exactly total bytes, failing with
// ErrHeaderGrew when the dict and final newline cannot fit.
func frameAt(dict string, v Version, total int) ([]byte, error) {
	pre := magicLen + v.lenFieldSize()
	textLen := total - pre
	if len(dict)+1 > textLen {
		return nil, fmt.Errorf("dictionary of %d bytes exceeds committed text length %d: %w",
			len(dict), textLen, ErrHeaderGrew)
	}

	out, err := frame(dict+strings.Repeat(" ", textLen-len(dict)-1), v)
	if err != nil {
		return nil, err
	}
	if len(out) != total {
		// frame re-pads to the next multiple of 64; by construction the
		// committed total is already aligned, so the lengths agree.
		return nil, fmt.Errorf("framed %d bytes for a %d byte header: %w", len(out), total, ErrHeaderGrew)
	}
	return out, nil
}

// widestValue returns the largest value with the given number of decimal
// digits, capped at what an int can hold.
func widestValue(digits int) int {
	if digits >= MaxCountDigits {
		return int(^uint(0) >> 1)
	}
	n := 1
	for i := 0; i < digits; i++ {
		n *= 10
	}
	return n - 1
}
