package otel

import (
	"net/http"
	"net/url"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/semconv/v1.18.0/httpconv"
)

const (
	maskedAttrValue = "****"
)

type attributes struct {
	config config
	// definition attributes for span and metrics
	definition []attribute.KeyValue
	// httpRequest attributes for span and metrics
	httpRequest []attribute.KeyValue
	// httpRequestExtra attributes for span only
	httpRequestExtra []attribute.KeyValue
	// httpResponse attributes for span and metrics
	httpResponse []attribute.KeyValue
	// httpResponseExtra attributes for span only
	httpResponseExtra []attribute.KeyValue
}

func newAttributes(cfg config, method string, reqURL *url.URL) *attributes {
	out := &attributes{config: cfg}
	redacted := cfg.redactURL(reqURL)
	out.definition = []attribute.KeyValue{
		attribute.String("definition.method", method),
		attribute.String("definition.url.full", redacted.String()),
		attribute.String("definition.url.path", redacted.Path),
		attribute.String("definition.url.host", redacted.Host),
	}
	return out
}

func (v *attributes) SetFromRequest(req *http.Request) {
	if req == nil {
		v.httpRequest = nil
		v.httpRequestExtra = nil
		return
	}

	// Base, the url is redacted
	clone := req.Clone(req.Context())
	clone.URL = v.config.redactURL(req.URL)
	v.httpRequest = httpconv.ClientRequest(clone)

	// Extra
	v.httpRequestExtra = v.headerAttrs("http.header.", req.Header, "user-agent")
}

func (v *attributes) SetFromResponse(res *http.Response) {
	if res == nil {
		v.httpResponse = nil
		v.httpResponseExtra = nil
		return
	}
	v.httpResponse = httpconv.ClientResponse(res)
	v.httpResponseExtra = v.headerAttrs("http.response.header.", res.Header)
}

// headerAttrs converts headers to sorted attributes, values of the redacted headers are masked.
func (v *attributes) headerAttrs(prefix string, header http.Header, skip ...string) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for key, values := range header {
		key = strings.ToLower(key)
		if contains(skip, key) {
			continue
		}
		value := strings.Join(values, ";")
		if _, found := v.config.redactedHeaders[key]; found {
			value = maskedAttrValue
		}
		attrs = append(attrs, attribute.String(prefix+key, value))
	}
	sort.SliceStable(attrs, func(i, j int) bool {
		return attrs[i].Key < attrs[j].Key
	})
	return attrs
}

func contains(items []string, item string) bool {
	for _, v := range items {
		if v == item {
			return true
		}
	}
	return false
}
