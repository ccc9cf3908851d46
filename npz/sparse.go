package npz

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/robert-malhotra/go-npy/npy"
)

// Sparse matrix containers in scipy's save_npz layout. Each format is an
// archive with a |S3 "format" scalar, a two-element "shape" member, a
// "data" member, and the format's index members. Index members are
// written as int32 when every value fits and int64 otherwise; loading
// accepts either width.

// ErrBadSparse reports a sparse archive whose members are missing,
// mislabeled, or mutually inconsistent.
var ErrBadSparse = errors.New("malformed sparse archive")

// Coo is a coordinate-format sparse matrix: entry k is Data[k] at
// (Row[k], Col[k]).
type Coo[T any] struct {
	Rows, Cols int64
	Data       []T
	Row, Col   []int64
}

// Csr is a compressed-sparse-row matrix: row i holds Data[Indptr[i]:
// Indptr[i+1]] in the columns Indices[Indptr[i]:Indptr[i+1]].
type Csr[T any] struct {
	Rows, Cols int64
	Data       []T
	Indices    []int64
	Indptr     []int64
}

// Csc is a compressed-sparse-column matrix, the transpose layout of Csr.
type Csc[T any] struct {
	Rows, Cols int64
	Data       []T
	Indices    []int64
	Indptr     []int64
}

// Dia is a diagonal-format matrix: Data is laid out (len(Offsets), Cols)
// row-major, one stored diagonal per row.
type Dia[T any] struct {
	Rows, Cols int64
	Offsets    []int64
	Data       []T
}

// Bsr is a block-sparse-row matrix: Data is laid out (blocks, BlockRows,
// BlockCols) row-major, with the block structure indexed like Csr.
type Bsr[T any] struct {
	Rows, Cols           int64
	BlockRows, BlockCols int
	Data                 []T
	Indices              []int64
	Indptr               []int64
}

var formatDtype = npy.MustDtype(npy.Bytes, 3, npy.NoOrder)

// FormatOf reads the "format" member of a sparse archive: "coo", "csr",
// "csc", "dia", or "bsr".
func FormatOf(a *Archive) (string, error) {
	var format string
	if err := a.ReadScalar("format", &format); err != nil {
		return "", fmt.Errorf("%v: %w", err, ErrBadSparse)
	}
	return format, nil
}

// SaveCoo writes m as a scipy-compatible NPZ archive on w.
func SaveCoo[T any](w io.Writer, m *Coo[T]) error {
	if len(m.Row) != len(m.Data) || len(m.Col) != len(m.Data) {
		return fmt.Errorf("%d values, %d rows, %d cols: %w",
			len(m.Data), len(m.Row), len(m.Col), ErrBadSparse)
	}
	zw := NewWriter(w)
	if err := writeCommon(zw, "coo", m.Rows, m.Cols, m.Data); err != nil {
		return err
	}
	if err := writeIndices(zw, "row", m.Row); err != nil {
		return err
	}
	if err := writeIndices(zw, "col", m.Col); err != nil {
		return err
	}
	return zw.Close()
}

// LoadCoo reads a coordinate-format matrix from a.
func LoadCoo[T any](a *Archive) (*Coo[T], error) {
	m := &Coo[T]{}
	var err error
	if m.Rows, m.Cols, m.Data, err = readCommon[T](a, "coo"); err != nil {
		return nil, err
	}
	if m.Row, err = readIndices(a, "row"); err != nil {
		return nil, err
	}
	if m.Col, err = readIndices(a, "col"); err != nil {
		return nil, err
	}
	if len(m.Row) != len(m.Data) || len(m.Col) != len(m.Data) {
		return nil, fmt.Errorf("%d values, %d rows, %d cols: %w",
			len(m.Data), len(m.Row), len(m.Col), ErrBadSparse)
	}
	return m, nil
}

// SaveCsr writes m as a scipy-compatible NPZ archive on w.
func SaveCsr[T any](w io.Writer, m *Csr[T]) error {
	if err := checkCompressed(int(m.Rows), m.Indices, m.Indptr, len(m.Data)); err != nil {
		return err
	}
	zw := NewWriter(w)
	if err := writeCommon(zw, "csr", m.Rows, m.Cols, m.Data); err != nil {
		return err
	}
	if err := writeCompressed(zw, m.Indices, m.Indptr); err != nil {
		return err
	}
	return zw.Close()
}

// LoadCsr reads a compressed-sparse-row matrix from a.
func LoadCsr[T any](a *Archive) (*Csr[T], error) {
	m := &Csr[T]{}
	var err error
	if m.Rows, m.Cols, m.Data, err = readCommon[T](a, "csr"); err != nil {
		return nil, err
	}
	if m.Indices, m.Indptr, err = readCompressed(a); err != nil {
		return nil, err
	}
	if err := checkCompressed(int(m.Rows), m.Indices, m.Indptr, len(m.Data)); err != nil {
		return nil, err
	}
	return m, nil
}

// SaveCsc writes m as a scipy-compatible NPZ archive on w.
func SaveCsc[T any](w io.Writer, m *Csc[T]) error {
	if err := checkCompressed(int(m.Cols), m.Indices, m.Indptr, len(m.Data)); err != nil {
		return err
	}
	zw := NewWriter(w)
	if err := writeCommon(zw, "csc", m.Rows, m.Cols, m.Data); err != nil {
		return err
	}
	if err := writeCompressed(zw, m.Indices, m.Indptr); err != nil {
		return err
	}
	return zw.Close()
}

// LoadCsc reads a compressed-sparse-column matrix from a.
func LoadCsc[T any](a *Archive) (*Csc[T], error) {
	m := &Csc[T]{}
	var err error
	if m.Rows, m.Cols, m.Data, err = readCommon[T](a, "csc"); err != nil {
		return nil, err
	}
	if m.Indices, m.Indptr, err = readCompressed(a); err != nil {
		return nil, err
	}
	if err := checkCompressed(int(m.Cols), m.Indices, m.Indptr, len(m.Data)); err != nil {
		return nil, err
	}
	return m, nil
}

// SaveDia writes m as a scipy-compatible NPZ archive on w.
func SaveDia[T any](w io.Writer, m *Dia[T]) error {
	cols := int(m.Cols)
	if cols > 0 && len(m.Data) != len(m.Offsets)*cols {
		return fmt.Errorf("%d data values for %d diagonals of %d columns: %w",
			len(m.Data), len(m.Offsets), cols, ErrBadSparse)
	}
	zw := NewWriter(w)
	if err := zw.WriteScalar("format", "dia", npy.WithDtype(formatDtype)); err != nil {
		return err
	}
	if err := zw.Write("shape", []int64{m.Rows, m.Cols}); err != nil {
		return err
	}
	if err := zw.Write("data", m.Data, npy.WithInnerDims(cols)); err != nil {
		return err
	}
	if err := writeIndices(zw, "offsets", m.Offsets); err != nil {
		return err
	}
	return zw.Close()
}

// LoadDia reads a diagonal-format matrix from a.
func LoadDia[T any](a *Archive) (*Dia[T], error) {
	m := &Dia[T]{}
	var err error
	if m.Rows, m.Cols, err = readHeaderMembers(a, "dia"); err != nil {
		return nil, err
	}
	member, err := a.Open("data")
	if err != nil {
		return nil, err
	}
	defer member.Close()
	shape := member.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("diagonal data has shape %v, want 2 dimensions: %w", shape, ErrBadSparse)
	}
	if err := member.Read(&m.Data); err != nil {
		return nil, fmt.Errorf("member %q: %w", "data", err)
	}
	if m.Offsets, err = readIndices(a, "offsets"); err != nil {
		return nil, err
	}
	if shape[0] != len(m.Offsets) {
		return nil, fmt.Errorf("%d stored diagonals but %d offsets: %w",
			shape[0], len(m.Offsets), ErrBadSparse)
	}
	return m, nil
}

// SaveBsr writes m as a scipy-compatible NPZ archive on w.
func SaveBsr[T any](w io.Writer, m *Bsr[T]) error {
	if m.BlockRows <= 0 || m.BlockCols <= 0 {
		return fmt.Errorf("block size %dx%d: %w", m.BlockRows, m.BlockCols, ErrBadSparse)
	}
	blockLen := m.BlockRows * m.BlockCols
	if len(m.Data)%blockLen != 0 {
		return fmt.Errorf("%d data values do not fill %dx%d blocks: %w",
			len(m.Data), m.BlockRows, m.BlockCols, ErrBadSparse)
	}
	blockRows := int(m.Rows) / m.BlockRows
	if err := checkCompressed(blockRows, m.Indices, m.Indptr, len(m.Data)/blockLen); err != nil {
		return err
	}
	zw := NewWriter(w)
	if err := writeCommon(zw, "bsr", m.Rows, m.Cols, m.Data,
		npy.WithInnerDims(m.BlockRows, m.BlockCols)); err != nil {
		return err
	}
	if err := writeCompressed(zw, m.Indices, m.Indptr); err != nil {
		return err
	}
	return zw.Close()
}

// LoadBsr reads a block-sparse-row matrix from a.
func LoadBsr[T any](a *Archive) (*Bsr[T], error) {
	m := &Bsr[T]{}
	var err error
	if m.Rows, m.Cols, err = readHeaderMembers(a, "bsr"); err != nil {
		return nil, err
	}
	member, err := a.Open("data")
	if err != nil {
		return nil, err
	}
	defer member.Close()
	shape := member.Shape()
	if len(shape) != 3 {
		return nil, fmt.Errorf("block data has shape %v, want 3 dimensions: %w", shape, ErrBadSparse)
	}
	m.BlockRows, m.BlockCols = shape[1], shape[2]
	if err := member.Read(&m.Data); err != nil {
		return nil, fmt.Errorf("member %q: %w", "data", err)
	}
	if m.Indices, m.Indptr, err = readCompressed(a); err != nil {
		return nil, err
	}
	if m.BlockRows <= 0 || m.BlockCols <= 0 || int(m.Rows)%m.BlockRows != 0 {
		return nil, fmt.Errorf("block size %dx%d against %d rows: %w",
			m.BlockRows, m.BlockCols, m.Rows, ErrBadSparse)
	}
	if err := checkCompressed(int(m.Rows)/m.BlockRows, m.Indices, m.Indptr, shape[0]); err != nil {
		return nil, err
	}
	return m, nil
}

func writeCommon[T any](zw *Writer, format string, rows, cols int64, data []T, opts ...npy.WriterOption) error {
	if err := zw.WriteScalar("format", format, npy.WithDtype(formatDtype)); err != nil {
		return err
	}
	if err := zw.Write("shape", []int64{rows, cols}); err != nil {
		return err
	}
	return zw.Write("data", data, opts...)
}

func writeCompressed(zw *Writer, indices, indptr []int64) error {
	if err := writeIndices(zw, "indices", indices); err != nil {
		return err
	}
	return writeIndices(zw, "indptr", indptr)
}

// writeIndices picks the narrowest index width the values allow.
func writeIndices(zw *Writer, name string, idx []int64) error {
	for _, v := range idx {
		if v > math.MaxInt32 || v < math.MinInt32 {
			return zw.Write(name, idx)
		}
	}
	narrow := make([]int32, len(idx))
	for i, v := range idx {
		narrow[i] = int32(v)
	}
	return zw.Write(name, narrow)
}

// readIndices accepts int32 or int64 members and widens to int64.
func readIndices(a *Archive, name string) ([]int64, error) {
	m, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	defer m.Close()
	dt := m.Dtype()
	switch {
	case dt.Kind == npy.Int && dt.Size == 8:
		var idx []int64
		if err := m.Read(&idx); err != nil {
			return nil, fmt.Errorf("member %q: %w", name, err)
		}
		return idx, nil
	case dt.Kind == npy.Int && dt.Size == 4:
		var narrow []int32
		if err := m.Read(&narrow); err != nil {
			return nil, fmt.Errorf("member %q: %w", name, err)
		}
		idx := make([]int64, len(narrow))
		for i, v := range narrow {
			idx[i] = int64(v)
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("member %q has index type %v: %w", name, dt, ErrBadSparse)
	}
}

// readHeaderMembers validates the format member and reads the shape.
func readHeaderMembers(a *Archive, format string) (rows, cols int64, err error) {
	got, err := FormatOf(a)
	if err != nil {
		return 0, 0, err
	}
	if got != format {
		return 0, 0, fmt.Errorf("archive holds a %q matrix, not %q: %w", got, format, ErrBadSparse)
	}
	shape, err := readIndices(a, "shape")
	if err != nil {
		return 0, 0, err
	}
	if len(shape) != 2 {
		return 0, 0, fmt.Errorf("shape member has %d values, want 2: %w", len(shape), ErrBadSparse)
	}
	return shape[0], shape[1], nil
}

func readCommon[T any](a *Archive, format string) (rows, cols int64, data []T, err error) {
	if rows, cols, err = readHeaderMembers(a, format); err != nil {
		return 0, 0, nil, err
	}
	if err = a.Read("data", &data); err != nil {
		return 0, 0, nil, err
	}
	return rows, cols, data, nil
}

func readCompressed(a *Archive) (indices, indptr []int64, err error) {
	if indices, err = readIndices(a, "indices"); err != nil {
		return nil, nil, err
	}
	if indptr, err = readIndices(a, "indptr"); err != nil {
		return nil, nil, err
	}
	return indices, indptr, nil
}

// checkCompressed validates a CSR-style index pair against n outer rows
// (or columns for CSC) and the stored value count.
func checkCompressed(n int, indices, indptr []int64, values int) error {
	if len(indptr) != n+1 {
		return fmt.Errorf("indptr has %d entries for %d rows: %w", len(indptr), n, ErrBadSparse)
	}
	if len(indices) != values {
		return fmt.Errorf("%d indices for %d values: %w", len(indices), values, ErrBadSparse)
	}
	prev := int64(0)
	for i, p := range indptr {
		if p < prev {
			return fmt.Errorf("indptr decreases at entry %d: %w", i, ErrBadSparse)
		}
		prev = p
	}
	if int64(values) != prev {
		return fmt.Errorf("indptr ends at %d but %d values stored: %w", prev, values, ErrBadSparse)
	}
	return nil
}
