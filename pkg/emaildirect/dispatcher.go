// Package emaildirect is a client of the EmailDirect REST API.
//
// Each call is translated to exactly one HTTP request, there is no retry.
// Request bodies are serialized to JSON or XML, see RequestFormat.
// Responses are returned decoded or raw, see ResponseFormat.
//
// Dispatcher is stateless, the Config is an argument of each call.
// API is a convenient facade, it holds the Config and caches the last exchange.
package emaildirect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/criticaltool/emaildirect-go-client/pkg/client"
)

// Dispatcher builds, sends and materializes requests. It is safe for concurrent use.
type Dispatcher struct {
	client client.Client
}

// NewDispatcher creates a Dispatcher which sends requests by the client.
// The timeout of the client is replaced by the timeout from the Config of each call.
func NewDispatcher(c client.Client) *Dispatcher {
	return &Dispatcher{client: c}
}

// Dispatch sends one request and returns the materialized exchange.
//
// The verb is one of GET, POST, PUT, DELETE, case-insensitive.
// The url is absolute, or a path appended to the base url.
// The body is required for POST, PUT and DELETE and it is ignored for GET.
//
// A *ConfigError is returned for invalid arguments, then no request is sent and the Exchange is empty.
// A *TransportError is returned if no complete response has been received, the Exchange contains the Metadata.
// HTTP error status codes are not errors, see Exchange.IsSuccess.
func (d *Dispatcher) Dispatch(ctx context.Context, cfg Config, verb, url, body string) (Exchange, error) {
	method, err := client.ParseMethod(verb)
	if err != nil {
		return Exchange{}, &ConfigError{Err: ErrInvalidMethod, Detail: err.Error()}
	}

	reqURL, err := cfg.resolveURL(url)
	if err != nil {
		return Exchange{}, err
	}

	if method != http.MethodGet && body == "" {
		return Exchange{}, &ConfigError{Err: ErrMissingBody, Detail: method + ` request "` + reqURL + `" requires a body`}
	}

	// Headers
	req := client.NewRequest(method, reqURL).
		AndHeader("Content-Type", cfg.ContentType()).
		AndHeader("Accept", cfg.ContentType())
	if cfg.APIKey() != "" {
		req = req.AndHeader("ApiKey", cfg.APIKey())
	}

	// Body is attached to all methods except GET, DELETE included
	if method != http.MethodGet {
		req = req.WithStringBody(body)
	}

	// Send
	res, err := d.client.WithTimeout(cfg.Timeout()).Send(ctx, req)
	exchange := Exchange{Result: Result{Format: cfg.ResponseFormat()}}
	if res != nil {
		exchange.Metadata = res.Metadata
	}
	if err != nil {
		return exchange, &TransportError{
			Method:  method,
			URL:     reqURL,
			Timeout: errors.Is(err, client.ErrTimeout),
			Err:     err,
		}
	}

	// Materialize
	exchange.Result.Raw = string(res.Body)
	if cfg.ResponseFormat() == ResponseStructured && strings.TrimSpace(exchange.Result.Raw) != "" {
		var data any
		if err := json.Unmarshal(res.Body, &data); err != nil {
			decodeErr := &DecodeError{URL: exchange.Metadata.URL, Err: err}
			if cfg.DecodePolicy() == DecodeStrict {
				return exchange, decodeErr
			}
			exchange.Result.DecodeErr = decodeErr
		} else {
			exchange.Result.Data = data
		}
	}

	return exchange, nil
}
