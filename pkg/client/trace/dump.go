package trace

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"
	"time"
)

const dumpTraceMaxLength = 2000

type dumpTrace struct {
	ClientTrace
	wr       io.Writer
	redacted []string
}

// DumpTracer dumps HTTP request and response to a writer.
// Values of the DefaultRedactedHeaders and of the redactedHeaders are masked.
// Output may still contain sensitive data in the body, do not use it in production!
func DumpTracer(wr io.Writer, redactedHeaders ...string) Factory {
	redacted := append(append([]string{}, DefaultRedactedHeaders...), redactedHeaders...)
	return func(ctx context.Context, _ string, _ *url.URL) (context.Context, *ClientTrace) {
		var requestMethod, requestURI string
		var responseStatusCode int
		var requestDump string
		var startTime, headersTime time.Time

		t := &dumpTrace{wr: wr, redacted: redacted}
		t.HTTPRequestStart = func(r *http.Request) {
			startTime = time.Now()
			requestMethod = r.Method
			requestURI = r.URL.RequestURI()
			requestDump = t.dumpRequest(r)
		}
		t.HTTPRequestDone = func(r *http.Response, err error) {
			headersTime = time.Now()
			if r != nil {
				responseStatusCode = r.StatusCode
			}

			// Dump request
			t.log()
			t.log(">>>>>> HTTP DUMP")
			t.dump(requestDump)

			// Dump response headers, body is dumped when it is processed
			t.log("------")
			if err != nil {
				t.log("ERROR: ", err)
			} else if r != nil {
				masked := *r
				masked.Header = maskHeader(r.Header, t.redacted)
				if v, err := httputil.DumpResponse(&masked, false); err == nil {
					t.dump(string(v))
				} else {
					t.log("cannot dump response headers: ", err)
				}
			}
			t.log("<<<<<< HTTP DUMP END")
		}
		t.RequestProcessed = func(_ *http.Response, body []byte, err error) {
			t.log()
			t.log(">>>>>> HTTP REQUEST PROCESSED", "| ", requestMethod, requestURI, responseStatusCode, "| ERROR:", err, "| HEADERS AT:", headersTime.Sub(startTime), "| DONE AT:", time.Since(startTime))
			if len(body) > 0 {
				t.dump(string(body))
				t.log("<<<<<< HTTP BODY END")
			}
		}
		return ctx, &t.ClientTrace
	}
}

// dumpRequest dumps a masked clone of the request, the original body is not consumed.
// The clone has an empty context, so the dump does not trigger trace hooks.
func (t *dumpTrace) dumpRequest(r *http.Request) string {
	clone := r.Clone(context.Background())
	clone.Header = maskHeader(r.Header, t.redacted)
	withBody := false
	clone.Body = nil
	if r.GetBody != nil {
		if body, err := r.GetBody(); err == nil {
			clone.Body = body
			withBody = true
		}
	}
	out, err := httputil.DumpRequestOut(clone, withBody)
	if err != nil {
		return fmt.Sprintf("cannot dump request: %s", err)
	}
	return string(out)
}

func (t *dumpTrace) dump(body string) {
	body = strings.TrimSpace(strings.ReplaceAll(body, "\r\n", "\n"))
	if len(body) > dumpTraceMaxLength && os.Getenv("HTTP_DUMP_TRACE_FULL") != "true" { //nolint:forbidigo
		t.log(body[:dumpTraceMaxLength])
		t.log("... (set env HTTP_DUMP_TRACE_FULL=true to see full output)")
	} else {
		t.log(body)
	}
}

func (t *dumpTrace) log(a ...any) {
	_, _ = fmt.Fprintln(t.wr, a...)
}
