package otel

import (
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/propagation"
)

type config struct {
	propagators         propagation.TextMapPropagator
	redactedQueryParams map[string]struct{}
	redactedHeaders     map[string]struct{}
}

type Option func(*config)

func WithPropagators(v propagation.TextMapPropagator) Option {
	return func(c *config) {
		c.propagators = v
	}
}

// WithRedactedQueryParam masks values of the query parameters in the url attributes.
func WithRedactedQueryParam(params ...string) Option {
	return func(c *config) {
		for _, p := range params {
			c.redactedQueryParams[strings.ToLower(p)] = struct{}{}
		}
	}
}

// WithRedactedHeaders masks values of the headers, in addition to the default list.
func WithRedactedHeaders(headers ...string) Option {
	return func(c *config) {
		for _, h := range headers {
			c.redactedHeaders[strings.ToLower(h)] = struct{}{}
		}
	}
}

func newConfig(opts []Option) config {
	cfg := config{
		redactedQueryParams: make(map[string]struct{}),
		// Same as in the otelhttptrace, plus the API key
		redactedHeaders: map[string]struct{}{
			"apikey":              {},
			"authorization":       {},
			"www-authenticate":    {},
			"proxy-authenticate":  {},
			"proxy-authorization": {},
			"cookie":              {},
			"set-cookie":          {},
		},
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// redactURL returns a copy of the url without user info and with masked query parameters.
func (c config) redactURL(in *url.URL) *url.URL {
	out := *in
	out.User = nil
	if len(c.redactedQueryParams) > 0 && out.RawQuery != "" {
		query := out.Query()
		for k := range query {
			if _, found := c.redactedQueryParams[strings.ToLower(k)]; found {
				query.Set(k, maskedAttrValue)
			}
		}
		out.RawQuery = query.Encode()
	}
	return &out
}
