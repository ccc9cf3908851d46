// Package dtype models NPY element types and converts elements between
// their on-disk bytes and Go values.
//
// A [Dtype] describes the byte layout of a single array element: a
// primitive kind with an explicit byte order, or a record of named fields
// at explicit offsets. Descriptors are plain values with structural
// equality, so a descriptor parsed back out of a header can be compared
// directly against the one that produced it.
//
// # Type strings
//
// The textual grammar is numpy's: an order marker ('<', '>', '=', '|'),
// a kind code ('b', 'i', 'u', 'f', 'c', 'S', 'U') and a width, e.g. "<i4"
// or ">f8". Records render as a list of (name, type[, shape]) tuples.
// [ParseTypeString], [ParseDescr] and [FormatDescr] implement both
// directions.
//
// # Element conversion
//
// [DecodeSlice], [DecodeValue], [EncodeSlice] and [EncodeValue] walk the
// descriptor tree with reflection, reinterpreting fixed-width leaves in the
// declared byte order and placing record fields at their declared offsets.
// When the source order matches the host and the Go representation is
// bit-identical, slices are copied directly instead of element by element.
//
// Half-precision floats ('f2') have no Go builtin; they convert through
// github.com/x448/float16, either as float16.Float16 values or widened to
// float32 on decode.
//
// # Mapping Go structs
//
// [FromGoType] derives a packed record descriptor from a Go struct's
// declared field order. The derived descriptor is structurally equal to a
// hand-built one for the same layout, which is what makes reading and
// writing Go struct slices through the codec sound.
package dtype
