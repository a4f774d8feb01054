// Package decode unwraps a response body compressed according to the Content-Encoding header.
package decode

import (
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// AcceptEncoding lists encodings supported by the Decode function.
const AcceptEncoding = "gzip, deflate, br"

// Decode returns a reader of the decoded body.
// The body is returned unchanged for an empty, "identity" or unknown encoding.
// Closing the returned reader closes also the original body.
func Decode(body io.ReadCloser, contentEncoding string) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "gzip", "x-gzip":
		r, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("cannot decode gzip: %w", err)
		}
		return &readCloser{Reader: r, closers: []io.Closer{r, body}}, nil
	case "deflate":
		r, err := zlib.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("cannot decode deflate: %w", err)
		}
		return &readCloser{Reader: r, closers: []io.Closer{r, body}}, nil
	case "br":
		return &readCloser{Reader: brotli.NewReader(body), closers: []io.Closer{body}}, nil
	default:
		return body, nil
	}
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
