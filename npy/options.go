package npy

// writerOptions collects the settings shared by Writer and the one-shot
// Write helpers.
type writerOptions struct {
	columnMajor bool
	inner       []int
	scalar      bool
	shape       []int
	dtype       *Dtype
}

func defaultWriterOptions() *writerOptions {
	return &writerOptions{}
}

// WriterOption configures a Writer or a one-shot Write.
type WriterOption func(*writerOptions)

// WithColumnMajor records the payload as Fortran-ordered. The caller is
// responsible for pushing elements in column-major order; the option only
// sets the header flag.
func WithColumnMajor() WriterOption {
	return func(o *writerOptions) {
		o.columnMajor = true
	}
}

// WithInnerDims fixes the trailing dimensions of the shape. Elements
// stream into the outer dimension: pushing 6 elements with inner dims
// (3,) yields shape (2, 3).
func WithInnerDims(dims ...int) WriterOption {
	return func(o *writerOptions) {
		o.inner = append([]int(nil), dims...)
	}
}

// WithScalar writes a zero-dimensional array. Exactly one element must be
// pushed before Finalize.
func WithScalar() WriterOption {
	return func(o *writerOptions) {
		o.scalar = true
	}
}

// WithDtype overrides descriptor derivation in one-shot Write. Go strings
// need it: their on-disk width ("|S8", "<U16") cannot be derived from the
// type alone.
func WithDtype(d Dtype) WriterOption {
	return func(o *writerOptions) {
		o.dtype = &d
	}
}

// WithShape fixes the complete shape up front. Only one-shot Write
// accepts it; a streaming Writer derives the outer dimension from the
// pushed count instead.
func WithShape(dims ...int) WriterOption {
	return func(o *writerOptions) {
		o.shape = append([]int(nil), dims...)
	}
}
