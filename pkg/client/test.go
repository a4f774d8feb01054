package client

import (
	"context"
	"net/url"
	"os"

	"github.com/jarcoal/httpmock"

	"github.com/criticaltool/emaildirect-go-client/pkg/client/trace"
)

var testTransport = DefaultTransport() //nolint:gochecknoglobals

// NewTestClient creates the Client for tests.
//
// If the TEST_HTTP_CLIENT_VERBOSE environment variable is set to "true",
// then all HTTP requests and responses are dumped to stdout.
func NewTestClient() Client {
	c := New().WithTransport(testTransport)
	if os.Getenv("TEST_HTTP_CLIENT_VERBOSE") == "true" { //nolint:forbidigo
		c = c.WithTrace(trace.DumpTracer(os.Stdout))
	} else {
		c = c.WithTrace(func(ctx context.Context, _ string, _ *url.URL) (context.Context, *trace.ClientTrace) {
			return ctx, nil
		})
	}
	return c
}

// NewMockedClient creates the Client with mocked HTTP transport.
func NewMockedClient() (Client, *httpmock.MockTransport) {
	mockTransport := httpmock.NewMockTransport()
	return NewTestClient().WithTransport(mockTransport), mockTransport
}
