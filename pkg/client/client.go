// Package client provides a minimal HTTP client for a REST API.
//
// Client is an immutable value, each With* method returns a modified clone.
// Requests are defined by the immutable Request type, see NewRequest function.
//
// Client.Send sends the request, reads and decodes the whole response body
// and returns it together with Metadata of the exchange.
// There is no retry and redirects are not followed, each request results in exactly one exchange.
// A 3xx response is returned to the caller as it is.
//
// Tracing hooks can be registered by the WithTrace and AndTrace methods, see the trace package.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"time"

	"github.com/criticaltool/emaildirect-go-client/pkg/client/counter"
	"github.com/criticaltool/emaildirect-go-client/pkg/client/decode"
	"github.com/criticaltool/emaildirect-go-client/pkg/client/trace"
)

// DefaultTimeout is the default limit of the whole request, reading of the body included.
const DefaultTimeout = 10 * time.Second

// DefaultUserAgent is sent if no other user agent is set.
const DefaultUserAgent = "emaildirect-go-client"

var (
	// ErrTimeout is wrapped by an error of a request exceeding the timeout.
	ErrTimeout = errors.New("timeout")
	// ErrCanceled is wrapped by an error of a request with a canceled context.
	ErrCanceled = errors.New("canceled")
)

// Sender represents an HTTP client, Client is the default implementation.
type Sender interface {
	Send(ctx context.Context, request Request) (*Response, error)
}

// Client is a default and configurable implementation of the Sender interface by Go native http.Client.
type Client struct {
	transport      http.RoundTripper
	header         http.Header
	timeout        time.Duration
	traceFactories []trace.Factory
}

// New creates new HTTP Client.
func New() Client {
	c := Client{transport: DefaultTransport(), header: make(http.Header), timeout: DefaultTimeout}
	c.header.Set("User-Agent", DefaultUserAgent)
	c.header.Set("Accept-Encoding", decode.AcceptEncoding)
	return c
}

// WithUserAgent returns a clone of the Client with user agent set.
func (c Client) WithUserAgent(v string) Client {
	return c.WithHeader("User-Agent", v)
}

// WithHeader returns a clone of the Client with common header set.
func (c Client) WithHeader(key, value string) Client {
	c.header = c.header.Clone()
	c.header.Set(key, value)
	return c
}

// WithHeaders returns a clone of the Client with common headers set.
func (c Client) WithHeaders(headers map[string]string) Client {
	c.header = c.header.Clone()
	for k, v := range headers {
		c.header.Set(k, v)
	}
	return c
}

// WithTransport returns a clone of the Client with a HTTP transport set.
func (c Client) WithTransport(transport http.RoundTripper) Client {
	if transport == nil {
		panic(fmt.Errorf("transport cannot be nil"))
	}
	c.transport = transport
	return c
}

// WithTimeout returns a clone of the Client with the request timeout set.
func (c Client) WithTimeout(timeout time.Duration) Client {
	if timeout <= 0 {
		panic(fmt.Errorf("timeout must be positive, found %s", timeout))
	}
	c.timeout = timeout
	return c
}

// Timeout returns the request timeout.
func (c Client) Timeout() time.Duration {
	return c.timeout
}

// WithTrace returns a clone of the Client with Trace hooks set.
// It replaces all previously registered hooks.
func (c Client) WithTrace(fn trace.Factory) Client {
	c.traceFactories = []trace.Factory{fn}
	return c
}

// AndTrace returns a clone of the Client with Trace hooks added.
// Hooks registered earlier are called first.
func (c Client) AndTrace(fn trace.Factory) Client {
	c.traceFactories = append(append([]trace.Factory{}, c.traceFactories...), fn)
	return c
}

// Send method sends HTTP request and returns the read response, it implements the Sender interface.
//
// Response with Metadata is returned even if an error occurred.
// HTTP error status codes are not errors, the caller decides how to handle them.
func (c Client) Send(ctx context.Context, reqDef Request) (*Response, error) {
	// Method cannot be called on an empty value
	if c.transport == nil {
		panic(fmt.Errorf("client value is not initialized"))
	}

	method := reqDef.Method()
	metadata := &Metadata{Method: method, URL: reqDef.URL(), RequestSize: int64(len(reqDef.Body()))}
	collector := newCollector(metadata)

	// Url must be absolute, relative urls are resolved by the caller
	reqURL, err := parseAbsURL(reqDef.URL())
	if err != nil {
		err = fmt.Errorf(`request %s "%s" failed: invalid url: %w`, method, reqDef.URL(), err)
		collector.done(0, err)
		return &Response{Metadata: collector.snapshot()}, err
	}
	metadata.URL = reqURL.String()

	// Limit whole request, including reading of the body
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// Init traces, the metadata collector is always the first
	traces := []*trace.ClientTrace{collector.trace()}
	for _, factory := range c.traceFactories {
		var t *trace.ClientTrace
		ctx, t = factory(ctx, method, reqURL)
		if t != nil {
			traces = append(traces, t)
		}
	}
	hooks := composeTraces(traces)
	for _, t := range traces {
		ctx = httptrace.WithClientTrace(ctx, &t.ClientTrace)
	}

	// Create request
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		err = fmt.Errorf(`request %s "%s" failed: %w`, method, reqURL.String(), err)
		collector.done(0, err)
		hooks.RequestProcessed(nil, nil, err)
		return &Response{Metadata: collector.snapshot()}, err
	}

	// Global headers
	for k, values := range c.header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	// Request headers replace global values, the key spelling is kept
	for k, values := range reqDef.header {
		setExactHeader(req.Header, k, values)
	}

	// Body, GetBody is used by tracers to dump the body
	if reqDef.HasBody() {
		body := reqDef.Body()
		req.GetBody = func() (io.ReadCloser, error) {
			if len(body) == 0 {
				return http.NoBody, nil
			}
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		req.Body, _ = req.GetBody()
		req.ContentLength = int64(len(body))
	}

	// Setup native client, timeout is handled by the context
	nativeClient := http.Client{
		Transport:     roundTripper{trace: hooks, wrapped: c.transport},
		CheckRedirect: noRedirect,
	}

	// Send request
	startedAt := time.Now()
	collector.start(startedAt)
	res, err := nativeClient.Do(req)
	if err != nil {
		err = handleSendError(startedAt, req, err)
		collector.done(0, err)
		hooks.RequestProcessed(nil, nil, err)
		return &Response{Metadata: collector.snapshot()}, err
	}

	// Read body
	body, size, err := readBody(res)
	if err != nil {
		err = handleSendError(startedAt, req, fmt.Errorf("cannot read response body: %w", err))
	}
	collector.done(size, err)
	hooks.RequestProcessed(res, body, err)
	return &Response{Body: body, Metadata: collector.snapshot()}, err
}

// noRedirect stops the native client after the first response, so the ApiKey header never leaves the requested host.
func noRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

func parseAbsURL(str string) (*url.URL, error) {
	reqURL, err := url.Parse(str)
	if err != nil {
		return nil, err
	}
	if !reqURL.IsAbs() || reqURL.Host == "" {
		return nil, fmt.Errorf(`url "%s" is not absolute`, reqURL.String())
	}
	return reqURL, nil
}

// readBody reads and decodes the whole body, size is the number of raw bytes received.
func readBody(res *http.Response) (body []byte, size int64, err error) {
	counted := counter.NewReadCloser(res.Body, nil)
	defer func() {
		size = counted.Bytes()
	}()

	decoded, err := decode.Decode(counted, res.Header.Get("Content-Encoding"))
	if err != nil {
		_ = counted.Close()
		return nil, 0, err
	}
	defer decoded.Close()

	body, err = io.ReadAll(decoded)
	if err != nil {
		return nil, 0, err
	}
	return body, 0, nil
}

// composeTraces combines the additional hooks of all traces, earlier traces are called first.
// The native httptrace hooks are registered to the context separately.
func composeTraces(traces []*trace.ClientTrace) *trace.ClientTrace {
	out := &trace.ClientTrace{
		HTTPRequestStart: func(*http.Request) {},
		HTTPRequestDone:  func(*http.Response, error) {},
		RequestProcessed: func(*http.Response, []byte, error) {},
	}
	for _, t := range traces {
		hooks := &trace.ClientTrace{
			HTTPRequestStart: t.HTTPRequestStart,
			HTTPRequestDone:  t.HTTPRequestDone,
			RequestProcessed: t.RequestProcessed,
		}
		hooks.Compose(out)
		out = hooks
	}
	return out
}

func handleSendError(startedAt time.Time, req *http.Request, err error) error {
	// Unwrap url error, method and url are added below
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	// Timeout
	var netErr net.Error
	if deadline, ok := req.Context().Deadline(); ok && errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s", ErrTimeout, deadline.Sub(startedAt).Round(time.Millisecond))
	} else if errors.Is(err, context.Canceled) {
		err = fmt.Errorf("%w after %s", ErrCanceled, time.Since(startedAt).Round(time.Millisecond))
	} else if errors.As(err, &netErr) && netErr.Timeout() {
		err = fmt.Errorf("%w after %s: %s", ErrTimeout, time.Since(startedAt).Round(time.Millisecond), netErr.Error())
	}

	return fmt.Errorf(`request %s "%s" failed: %w`, req.Method, req.URL.String(), err)
}

// roundTripper wraps a http.RoundTripper and adds trace functionality.
type roundTripper struct {
	trace   *trace.ClientTrace
	wrapped http.RoundTripper
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.trace.HTTPRequestStart(req)
	res, err := rt.wrapped.RoundTrip(req)
	rt.trace.HTTPRequestDone(res, err)
	return res, err
}
