// Package counter measures the size of a streamed HTTP body.
package counter

import (
	"errors"
	"io"
)

// OnClose is called once, when the body is closed.
// The err is the read error, if any, otherwise the close error.
type OnClose func(bytes int64, err error)

// ReadCloser wraps a request or response body and counts bytes read from it.
type ReadCloser struct {
	wrapped io.ReadCloser
	onClose OnClose
	bytes   int64
	readErr error
	closed  bool
}

func NewReadCloser(wrapped io.ReadCloser, onClose OnClose) *ReadCloser {
	return &ReadCloser{wrapped: wrapped, onClose: onClose}
}

// Bytes returns number of bytes read so far.
func (r *ReadCloser) Bytes() int64 {
	return r.bytes
}

// Err returns the last read error, io.EOF is not reported.
func (r *ReadCloser) Err() error {
	if errors.Is(r.readErr, io.EOF) {
		return nil
	}
	return r.readErr
}

func (r *ReadCloser) Read(b []byte) (int, error) {
	n, err := r.wrapped.Read(b)
	r.bytes += int64(n)
	if err != nil {
		r.readErr = err
	}
	return n, err
}

func (r *ReadCloser) Close() error {
	closeErr := r.wrapped.Close()
	if r.closed {
		return closeErr
	}
	r.closed = true
	if r.onClose != nil {
		err := r.Err()
		if err == nil {
			err = closeErr
		}
		r.onClose(r.bytes, err)
	}
	return closeErr
}
