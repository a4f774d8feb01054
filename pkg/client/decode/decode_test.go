package decode_test

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"io"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/criticaltool/emaildirect-go-client/pkg/client/decode"
)

const content = `{"AccountName":"Test","Permissions":["Database"]}`

func TestDecode(t *testing.T) {
	t.Parallel()

	cases := map[string]func(w io.Writer) io.WriteCloser{
		"gzip":    func(w io.Writer) io.WriteCloser { return gzip.NewWriter(w) },
		"GZIP":    func(w io.Writer) io.WriteCloser { return gzip.NewWriter(w) },
		"deflate": func(w io.Writer) io.WriteCloser { return zlib.NewWriter(w) },
		"br":      func(w io.Writer) io.WriteCloser { return brotli.NewWriter(w) },
	}

	for encoding, newWriter := range cases {
		var buf bytes.Buffer
		w := newWriter(&buf)
		_, err := w.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		body := &trackedBody{Reader: &buf}
		r, err := decode.Decode(body, encoding)
		require.NoError(t, err, encoding)
		out, err := io.ReadAll(r)
		require.NoError(t, err, encoding)
		assert.Equal(t, content, string(out), encoding)
		assert.NoError(t, r.Close())
		assert.True(t, body.closed, encoding)
	}
}

func TestDecode_Identity(t *testing.T) {
	t.Parallel()

	for _, encoding := range []string{"", "identity", "unknown"} {
		body := &trackedBody{Reader: bytes.NewReader([]byte(content))}
		r, err := decode.Decode(body, encoding)
		require.NoError(t, err)
		assert.Same(t, body, r)
	}
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()

	_, err := decode.Decode(io.NopCloser(bytes.NewReader([]byte("not gzip"))), "gzip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot decode gzip")
}

type trackedBody struct {
	io.Reader
	closed bool
}

func (b *trackedBody) Close() error {
	b.closed = true
	return nil
}
