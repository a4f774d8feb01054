package trace_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/keboola/go-utils/pkg/wildcards"
	"github.com/stretchr/testify/assert"

	"github.com/criticaltool/emaildirect-go-client/pkg/client"
	"github.com/criticaltool/emaildirect-go-client/pkg/client/trace"
)

func TestLogTracer(t *testing.T) {
	t.Parallel()

	// Mocked response
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", `https://example.com`, httpmock.ResponderFromMultipleResponses([]*http.Response{
		httpmock.NewStringResponse(http.StatusOK, "OK1"),
		httpmock.NewStringResponse(http.StatusNotFound, "Not Found"),
	}))
	transport.RegisterResponder("POST", `https://example.com/fail`, httpmock.NewErrorResponder(errors.New("connection refused")))

	// Logs for trace testing
	var logs strings.Builder

	// Create client
	ctx := context.Background()
	c := client.New().
		WithTransport(transport).
		AndTrace(trace.LogTracer(&logs))

	// Expected trace
	expected := `
HTTP_REQUEST[0001] START GET "https://example.com"
HTTP_REQUEST[0001] DONE  GET "https://example.com" | 200 | %s
HTTP_REQUEST[0001] BODY  GET "https://example.com" | 3B | %s
HTTP_REQUEST[0002] START GET "https://example.com"
HTTP_REQUEST[0002] DONE  GET "https://example.com" | 404 | %s
HTTP_REQUEST[0002] BODY  GET "https://example.com" | 9B | %s
HTTP_REQUEST[0003] START POST "https://example.com/fail"
HTTP_REQUEST[0003] DONE  POST "https://example.com/fail" | 0 | %s | error=connection refused
HTTP_REQUEST[0003] BODY  POST "https://example.com/fail" | 0B | %s | error=request POST "https://example.com/fail" failed: connection refused
`

	// Test
	res, err := c.Send(ctx, client.NewRequest(http.MethodGet, "https://example.com"))
	assert.NoError(t, err)
	assert.Equal(t, "OK1", string(res.Body))
	res, err = c.Send(ctx, client.NewRequest(http.MethodGet, "https://example.com"))
	assert.NoError(t, err)
	assert.Equal(t, 404, res.StatusCode())
	_, err = c.Send(ctx, client.NewRequest(http.MethodPost, "https://example.com/fail").WithStringBody("x"))
	assert.Error(t, err)
	wildcards.Assert(t, strings.TrimLeft(expected, "\n"), logs.String())
}
