package npy

import (
	"errors"

	"github.com/robert-malhotra/go-npy/internal/dtype"
	"github.com/robert-malhotra/go-npy/internal/header"
)

// Errors surfaced while parsing the header framing or the descriptor
// grammar. The byte stream is untrustworthy past any of these; nothing is
// recovered locally.
var (
	ErrBadMagic      = header.ErrBadMagic
	ErrBadVersion    = header.ErrBadVersion
	ErrMissingKey    = header.ErrMissingKey
	ErrBadValue      = header.ErrBadValue
	ErrBadTypeString = dtype.ErrBadTypeString
)

// ErrLayout reports invalid descriptor construction, a programmer error.
var ErrLayout = dtype.ErrLayout

// Element decode errors. A decode failure poisons sequential streaming but
// not index-based access.
var (
	ErrTruncated    = dtype.ErrTruncated
	ErrTypeMismatch = dtype.ErrTypeMismatch
)

// Writer state errors. All of them are fatal to the Writer instance.
var (
	ErrHeaderGrew    = header.ErrHeaderGrew
	ErrFinalized     = errors.New("writer already finalized")
	ErrNotFinalized  = errors.New("writer closed without finalize")
	ErrCountMismatch = errors.New("element count does not fill the inner dimensions")
)

// ErrNotSeekable is returned for index-based access over a source that
// supports only sequential reads.
var ErrNotSeekable = errors.New("source does not support random access")
