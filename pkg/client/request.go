package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnsupportedMethod is returned by ParseMethod for an unknown HTTP verb.
var ErrUnsupportedMethod = errors.New("unsupported HTTP method")

// ParseMethod converts a case-insensitive verb to one of the supported HTTP methods.
func ParseMethod(verb string) (string, error) {
	switch method := strings.ToUpper(strings.TrimSpace(verb)); method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
		return method, nil
	default:
		return "", fmt.Errorf(`%w "%s", expected one of GET, POST, PUT, DELETE`, ErrUnsupportedMethod, verb)
	}
}

// Request is an immutable definition of a HTTP request.
// Each With* and And* method returns a modified clone.
type Request struct {
	method  string
	url     string
	header  http.Header
	body    []byte
	hasBody bool
}

// NewRequest creates a request definition, the url must be absolute.
func NewRequest(method, url string) Request {
	return Request{method: method, url: url, header: make(http.Header)}
}

func (r Request) Method() string {
	return r.method
}

func (r Request) URL() string {
	return r.url
}

// Header returns a copy of request headers.
func (r Request) Header() http.Header {
	return r.header.Clone()
}

// Body returns the request body, nil if there is no body.
func (r Request) Body() []byte {
	return r.body
}

// HasBody returns true if a body has been set, even an empty one.
func (r Request) HasBody() bool {
	return r.hasBody
}

// WithBody returns a clone of the request with the body set.
func (r Request) WithBody(body []byte) Request {
	r.body = append([]byte(nil), body...)
	r.hasBody = true
	return r
}

// WithStringBody returns a clone of the request with the body set.
func (r Request) WithStringBody(body string) Request {
	return r.WithBody([]byte(body))
}

// AndHeader returns a clone of the request with the header set.
// The key is sent exactly as given, it is not canonicalized, for example "ApiKey" stays "ApiKey".
// Request headers take precedence over the common headers of the Client.
func (r Request) AndHeader(key, value string) Request {
	r.header = r.header.Clone()
	if r.header == nil {
		r.header = make(http.Header)
	}
	setExactHeader(r.header, key, []string{value})
	return r
}

// setExactHeader replaces all values of the key, matched case-insensitively, and keeps the key spelling.
func setExactHeader(header http.Header, key string, values []string) {
	for k := range header {
		if strings.EqualFold(k, key) {
			delete(header, k)
		}
	}
	header[key] = append([]string(nil), values...)
}

// WithContentType returns a clone of the request with the Content-Type header set.
func (r Request) WithContentType(contentType string) Request {
	return r.AndHeader("Content-Type", contentType)
}
