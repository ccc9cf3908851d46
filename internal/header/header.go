// Package header encodes and decodes the NPY header block: the magic
// sequence, format version, length field and the Python-literal metadata
// dictionary, framed bit-exactly the way numpy writes it.
package header

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/robert-malhotra/go-npy/internal/dtype"
	"github.com/robert-malhotra/go-npy/internal/pylit"
)

// Magic is the six-byte sequence opening every NPY file.
const Magic = "\x93NUMPY"

// Framing errors.
var (
	ErrBadMagic   = errors.New("bad magic: not an NPY file")
	ErrBadVersion = errors.New("unsupported format version")
	ErrMissingKey = errors.New("missing header key")
	ErrBadValue   = errors.New("bad header value")
	ErrTooLong    = errors.New("header text too long")
)

// preamble sizes: magic + major + minor, then a version-dependent length
// field. The padded total of preamble, dict text and final newline is a
// multiple of 64.
const (
	magicLen  = len(Magic) + 2
	alignment = 64
)

// Version is an NPY format version. V1 carries a 2-byte length field;
// V2 and V3 carry 4 bytes. V3 additionally allows non-ASCII field names.
type Version struct {
	Major, Minor uint8
}

var (
	V1 = Version{1, 0}
	V2 = Version{2, 0}
	V3 = Version{3, 0}
)

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// lenFieldSize returns the byte width of the header length field.
func (v Version) lenFieldSize() int {
	if v.Major == 1 {
		return 2
	}
	return 4
}

func (v Version) supported() bool {
	return v.Major >= 1 && v.Major <= 3
}

// Meta is the array metadata carried by a header.
type Meta struct {
	Dtype       dtype.Dtype
	ColumnMajor bool  // fortran_order
	Shape       []int // empty for a 0-d scalar
}

// Len returns the total element count: the product of the dimensions,
// zero if any dimension is zero, one for a scalar shape. Decode rejects
// headers whose product overflows, so Len on decoded metadata is exact.
func (m Meta) Len() int {
	n := 1
	for _, d := range m.Shape {
		n *= d
	}
	return n
}

const maxInt = int(^uint(0) >> 1)

// checkPayloadSize rejects declared shapes whose element count, or payload
// byte size, cannot be represented. A header is untrusted input; without
// this the products wrap silently.
func checkPayloadSize(m Meta) error {
	n := 1
	for i, d := range m.Shape {
		if d != 0 && n > maxInt/d {
			return fmt.Errorf("'shape' dimension %d overflows the element count: %w", i, ErrBadValue)
		}
		n *= d
	}
	if size := m.Dtype.ItemSize(); size > 0 && n > maxInt/size {
		return fmt.Errorf("%d elements of %d bytes overflow the payload size: %w", n, size, ErrBadValue)
	}
	return nil
}

// dictText renders the header dictionary exactly as numpy does, including
// key order, spacing and the trailing comma-space before the brace.
func dictText(m Meta) (string, error) {
	descr, err := dtype.FormatDescr(m.Dtype)
	if err != nil {
		return "", err
	}
	order := "False"
	if m.ColumnMajor {
		order = "True"
	}
	return fmt.Sprintf("{'descr': %s, 'fortran_order': %s, 'shape': %s, }",
		descr, order, dtype.FormatShape(m.Shape)), nil
}

// pickVersion selects the smallest version whose length field can frame the
// padded text. The choice is a pure function of the rendered dictionary:
// non-ASCII text forces V3, a padded length at or below the 16-bit maximum
// uses V1, anything larger uses V2.
func pickVersion(dict string) (Version, error) {
	if !isASCII(dict) {
		return V3, nil
	}
	if padded := paddedTextLen(len(dict), V1); padded <= 0xFFFF {
		return V1, nil
	}
	if padded := paddedTextLen(len(dict), V2); padded <= 0xFFFFFFFF {
		return V2, nil
	}
	return Version{}, ErrTooLong
}

// paddedTextLen returns the length of the dict text once padded so that the
// whole header (preamble, length field, text, final newline) is a multiple
// of 64 bytes.
func paddedTextLen(dictLen int, v Version) int {
	pre := magicLen + v.lenFieldSize()
	total := pre + dictLen + 1 // room for the final newline
	if rem := total % alignment; rem != 0 {
		total += alignment - rem
	}
	return total - pre
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return false
		}
	}
	return true
}

// Encode renders the complete header block for m.
func Encode(m Meta) ([]byte, error) {
	dict, err := dictText(m)
	if err != nil {
		return nil, err
	}
	v, err := pickVersion(dict)
	if err != nil {
		return nil, err
	}
	return frame(dict, v)
}

// frame pads dict to the version's alignment and assembles the header.
func frame(dict string, v Version) ([]byte, error) {
	textLen := paddedTextLen(len(dict), v)
	if v.lenFieldSize() == 2 && textLen > 0xFFFF {
		return nil, fmt.Errorf("padded text of %d bytes exceeds the 2-byte length field: %w", textLen, ErrTooLong)
	}

	out := make([]byte, 0, magicLen+v.lenFieldSize()+textLen)
	out = append(out, Magic...)
	out = append(out, v.Major, v.Minor)
	switch v.lenFieldSize() {
	case 2:
		out = binary.LittleEndian.AppendUint16(out, uint16(textLen))
	case 4:
		out = binary.LittleEndian.AppendUint32(out, uint32(textLen))
	}
	out = append(out, dict...)
	out = append(out, strings.Repeat(" ", textLen-len(dict)-1)...)
	out = append(out, '\n')
	return out, nil
}

// Decode reads and validates a header from r, returning the metadata and
// the total number of header bytes consumed (the payload starts there).
func Decode(r io.Reader) (Meta, int64, error) {
	pre := make([]byte, magicLen)
	if _, err := io.ReadFull(r, pre); err != nil {
		return Meta{}, 0, fmt.Errorf("reading preamble: %w", wrapUnexpectedEOF(err, ErrBadMagic))
	}
	if string(pre[:len(Magic)]) != Magic {
		return Meta{}, 0, fmt.Errorf("got % x: %w", pre[:len(Magic)], ErrBadMagic)
	}
	v := Version{Major: pre[6], Minor: pre[7]}
	if !v.supported() {
		return Meta{}, 0, fmt.Errorf("version %s: %w", v, ErrBadVersion)
	}

	lenBuf := make([]byte, v.lenFieldSize())
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return Meta{}, 0, fmt.Errorf("reading header length: %w", err)
	}
	var textLen int
	if len(lenBuf) == 2 {
		textLen = int(binary.LittleEndian.Uint16(lenBuf))
	} else {
		textLen = int(binary.LittleEndian.Uint32(lenBuf))
	}

	text := make([]byte, textLen)
	if _, err := io.ReadFull(r, text); err != nil {
		return Meta{}, 0, fmt.Errorf("reading %d header bytes: %w", textLen, err)
	}

	m, err := parseDict(string(text))
	if err != nil {
		return Meta{}, 0, err
	}
	if err := checkPayloadSize(m); err != nil {
		return Meta{}, 0, err
	}
	return m, int64(magicLen + len(lenBuf) + textLen), nil
}

func wrapUnexpectedEOF(err, sentinel error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%v: %w", err, sentinel)
	}
	return err
}

// parseDict validates the three required keys and rebuilds the metadata.
// Unknown keys are ignored for forward compatibility.
func parseDict(text string) (Meta, error) {
	tree, err := pylit.Parse(text)
	if err != nil {
		return Meta{}, fmt.Errorf("header dictionary: %v: %w", err, ErrBadValue)
	}
	if tree.Kind != pylit.KindDict {
		return Meta{}, fmt.Errorf("header is %s, not a dict: %w", tree.Kind, ErrBadValue)
	}

	var m Meta

	descr, ok := tree.Get("descr")
	if !ok {
		return Meta{}, fmt.Errorf("'descr': %w", ErrMissingKey)
	}
	m.Dtype, err = dtype.ParseDescr(descr)
	if err != nil {
		return Meta{}, fmt.Errorf("'descr': %w", err)
	}

	order, ok := tree.Get("fortran_order")
	if !ok {
		return Meta{}, fmt.Errorf("'fortran_order': %w", ErrMissingKey)
	}
	if order.Kind != pylit.KindBool {
		return Meta{}, fmt.Errorf("'fortran_order' is %s, expected bool: %w", order.Kind, ErrBadValue)
	}
	m.ColumnMajor = order.Bool

	shape, ok := tree.Get("shape")
	if !ok {
		return Meta{}, fmt.Errorf("'shape': %w", ErrMissingKey)
	}
	if shape.Kind != pylit.KindTuple {
		return Meta{}, fmt.Errorf("'shape' is %s, expected tuple: %w", shape.Kind, ErrBadValue)
	}
	m.Shape = make([]int, len(shape.Items))
	for i, item := range shape.Items {
		if item.Kind != pylit.KindInt || item.Int < 0 {
			return Meta{}, fmt.Errorf("'shape' dimension %d: %w", i, ErrBadValue)
		}
		m.Shape[i] = int(item.Int)
	}
	return m, nil
}
