package emaildirect

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrInvalidMethod = errors.New("invalid method")
	ErrInvalidURL    = errors.New("invalid url")
	ErrMissingBody   = errors.New("missing body")
)

// ConfigError is returned for an invalid config or for invalid arguments of a call.
// No request is sent if a ConfigError occurs.
// It wraps one of the ErrInvalidConfig, ErrInvalidMethod, ErrInvalidURL, ErrMissingBody sentinels.
type ConfigError struct {
	Err    error
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, e.Detail)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// TransportError is returned if the request failed and no complete response has been received.
type TransportError struct {
	Method string
	URL    string
	// Timeout is true if the request exceeded the timeout.
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError is returned in the strict decode mode, if the response body is not valid JSON.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf(`cannot decode JSON response of "%s": %s`, e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
