// Package trace extends the httptrace.ClientTrace and adds hooks for the whole request lifecycle.
// A ClientTrace factory can be registered in the client.Client by the WithTrace or AndTrace method.
//
// Native httptrace hooks are registered to the request context separately for each ClientTrace,
// the Compose method combines only the additional hooks.
package trace

import (
	"context"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"reflect"
	"strings"
)

// Factory creates ClientTrace hooks for a request.
// The returned context is used for the request, a nil ClientTrace is ignored.
type Factory func(ctx context.Context, method string, url *url.URL) (context.Context, *ClientTrace)

// ClientTrace is a set of hooks to run at various stages of an outgoing request.
type ClientTrace struct {
	httptrace.ClientTrace // native, low level trace
	// HTTPRequestStart is called when the round trip begins.
	HTTPRequestStart func(request *http.Request)
	// HTTPRequestDone is called when the response headers are received or the round trip failed.
	HTTPRequestDone func(response *http.Response, err error)
	// RequestProcessed is called when the whole body is read and decoded, or when the request failed.
	// The response is nil, if no response has been received.
	RequestProcessed func(response *http.Response, body []byte, err error)
}

// Compose modifies t such that it respects the previously-registered hooks in old.
// Hooks from the old are called first.
func (t *ClientTrace) Compose(old *ClientTrace) {
	if old == nil {
		return
	}
	tv := reflect.ValueOf(t).Elem()
	ov := reflect.ValueOf(old).Elem()
	structType := tv.Type()
	for i := 0; i < structType.NumField(); i++ {
		tf := tv.Field(i)
		hookType := tf.Type()
		if hookType.Kind() != reflect.Func {
			continue
		}
		of := ov.Field(i)
		if of.IsNil() {
			continue
		}
		if tf.IsNil() {
			tf.Set(of)
			continue
		}

		// Make a copy of tf for tf to call. (Otherwise it
		// creates a recursive call cycle and stack overflows)
		tfCopy := reflect.ValueOf(tf.Interface())
		newFunc := reflect.MakeFunc(hookType, func(args []reflect.Value) []reflect.Value {
			of.Call(args)
			return tfCopy.Call(args)
		})
		tv.Field(i).Set(newFunc)
	}
}

// DefaultRedactedHeaders are masked in the DumpTracer output.
var DefaultRedactedHeaders = []string{"ApiKey", "Authorization", "Cookie", "Set-Cookie"} //nolint:gochecknoglobals

const maskedValue = "****"

func maskHeader(header http.Header, redacted []string) http.Header {
	out := header.Clone()
	for k := range out {
		for _, r := range redacted {
			if strings.EqualFold(k, r) {
				out[k] = []string{maskedValue}
			}
		}
	}
	return out
}
