package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/robert-malhotra/go-npy/npy"
	"github.com/robert-malhotra/go-npy/npz"
)

// openArray resolves path (and, for archives, the member name) to an NPY
// reader. The caller closes the returned closer when done.
func openArray(path, member string) (*npy.Reader, io.Closer, error) {
	if strings.HasSuffix(path, ".npz") || member != "" {
		a, err := npz.OpenFile(path)
		if err != nil {
			return nil, nil, err
		}
		if member == "" {
			a.Close()
			return nil, nil, fmt.Errorf("%s is an archive; pick a member with --member", path)
		}
		m, err := a.Open(member)
		if err != nil {
			a.Close()
			return nil, nil, err
		}
		return m.Reader, closers{m, a}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	rd, err := npy.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return rd, f, nil
}

type closers []io.Closer

func (c closers) Close() error {
	var first error
	for _, x := range c {
		if err := x.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
