package npz

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-npy/npy"
)

func buildArchive(t *testing.T, build func(*Writer)) *Archive {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	build(w)
	require.NoError(t, w.Close())

	a, err := NewArchive(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return a
}

func TestArchiveRoundTrip(t *testing.T) {
	a := buildArchive(t, func(w *Writer) {
		require.NoError(t, w.Write("weights", []float64{0.5, 1.5, 2.5}))
		require.NoError(t, w.Write("labels", []int32{7, 8, 9}))
		require.NoError(t, w.WriteScalar("bias", 0.25))
	})

	assert.Equal(t, []string{"bias", "labels", "weights"}, a.Keys())
	assert.True(t, a.Has("weights"))
	assert.False(t, a.Has("missing"))

	var weights []float64
	require.NoError(t, a.Read("weights", &weights))
	assert.Equal(t, []float64{0.5, 1.5, 2.5}, weights)

	var labels []int32
	require.NoError(t, a.Read("labels", &labels))
	assert.Equal(t, []int32{7, 8, 9}, labels)

	var bias float64
	require.NoError(t, a.ReadScalar("bias", &bias))
	assert.Equal(t, 0.25, bias)
}

func TestArchiveNotFound(t *testing.T) {
	a := buildArchive(t, func(w *Writer) {
		require.NoError(t, w.Write("x", []int32{1}))
	})

	_, err := a.Open("y")
	assert.ErrorIs(t, err, ErrNotFound)

	var out []int32
	assert.ErrorIs(t, a.Read("y", &out), ErrNotFound)
}

func TestArchiveSuffixHandling(t *testing.T) {
	a := buildArchive(t, func(w *Writer) {
		require.NoError(t, w.Write("explicit.npy", []int32{1}))
		require.NoError(t, w.Write("bare", []int32{2}))
	})

	assert.Equal(t, []string{"bare", "explicit"}, a.Keys())

	var out []int32
	require.NoError(t, a.Read("explicit", &out))
	assert.Equal(t, []int32{1}, out)
	require.NoError(t, a.Read("bare.npy", &out))
	assert.Equal(t, []int32{2}, out)
}

func TestArchiveIndependentOpens(t *testing.T) {
	a := buildArchive(t, func(w *Writer) {
		require.NoError(t, w.Write("x", []int16{1, 2, 3}))
	})

	first, err := a.Open("x")
	require.NoError(t, err)
	defer first.Close()
	second, err := a.Open("x")
	require.NoError(t, err)
	defer second.Close()

	var a0, b0 int16
	require.NoError(t, first.Next(&a0))
	require.NoError(t, second.Next(&b0))
	assert.Equal(t, int16(1), a0)
	assert.Equal(t, int16(1), b0, "opens share no stream position")
}

func TestStreamMember(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	sw, err := w.Stream("counts", npy.MustDtype(npy.Int, 8, npy.LittleEndian))
	require.NoError(t, err)
	for i := range 5 {
		require.NoError(t, sw.Push(int64(i*i)))
	}
	require.NoError(t, sw.Finalize())
	require.NoError(t, w.Close())

	a, err := NewArchive(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	var counts []int64
	require.NoError(t, a.Read("counts", &counts))
	assert.Equal(t, []int64{0, 1, 4, 9, 16}, counts)
}

func TestWriterStoreOption(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WithStore())
	require.NoError(t, w.Write("x", []int32{1, 2, 3}))
	require.NoError(t, w.Close())

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, uint16(zip.Store), zr.File[0].Method)
	assert.Equal(t, "x.npy", zr.File[0].Name)
}

func TestWriterClosed(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Close())

	assert.ErrorIs(t, w.Write("x", []int32{1}), ErrClosed)
	assert.ErrorIs(t, w.Close(), ErrClosed)
}
