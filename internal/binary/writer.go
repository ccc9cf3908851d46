package binary

import (
	"fmt"
	"io"
)

// Writer appends to an io.WriteSeeker while remembering where it started,
// so already-committed bytes can be rewritten in place without losing the
// append position. This is the primitive behind writing a header before
// the element count is known.
type Writer struct {
	ws   io.WriteSeeker
	base int64 // sink offset where this writer started
	end  int64 // bytes appended so far
}

// NewWriter creates a writer anchored at the sink's current position.
func NewWriter(ws io.WriteSeeker) (*Writer, error) {
	base, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("locating sink position: %w", err)
	}
	return &Writer{ws: ws, base: base}, nil
}

// Len returns the number of bytes appended so far.
func (w *Writer) Len() int64 {
	return w.end
}

// Append writes p at the current end.
func (w *Writer) Append(p []byte) error {
	n, err := w.ws.Write(p)
	w.end += int64(n)
	if err != nil {
		return fmt.Errorf("write of %d bytes at offset %d: %w", len(p), w.base+w.end, err)
	}
	return nil
}

// RewriteAt overwrites len(p) already-appended bytes starting at off
// (relative to the writer's base), then restores the append position.
// The rewritten range must be committed: rewriting past the end is a
// logic error surfaced as an error, not an extension of the stream.
func (w *Writer) RewriteAt(off int64, p []byte) error {
	if off < 0 || off+int64(len(p)) > w.end {
		return fmt.Errorf("rewrite of %d bytes at %d exceeds the %d bytes written", len(p), off, w.end)
	}
	if _, err := w.ws.Seek(w.base+off, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to offset %d: %w", off, err)
	}
	if _, err := w.ws.Write(p); err != nil {
		return fmt.Errorf("rewriting %d bytes at offset %d: %w", len(p), off, err)
	}
	if _, err := w.ws.Seek(w.base+w.end, io.SeekStart); err != nil {
		return fmt.Errorf("restoring append position: %w", err)
	}
	return nil
}
