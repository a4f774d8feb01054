package emaildirect

import (
	"github.com/criticaltool/emaildirect-go-client/pkg/client"
)

// Result is a materialized response body.
type Result struct {
	// Format is the response format in force when the request was sent.
	Format ResponseFormat
	// Raw is the body as delivered.
	Raw string
	// Data is the decoded JSON body in the structured mode.
	// It is nil in the raw mode, for an empty body and if the body cannot be decoded.
	Data any
	// DecodeErr is the decode error ignored by the lenient decode policy.
	DecodeErr error
}

// Value returns Data in the structured mode, otherwise Raw.
func (r Result) Value() any {
	if r.Format == ResponseStructured {
		return r.Data
	}
	return r.Raw
}

// Exchange is the result of a request and diagnostics of the transport.
type Exchange struct {
	Result   Result
	Metadata client.Metadata
}

// StatusCode returns 0, if no response has been received.
func (e Exchange) StatusCode() int {
	return e.Metadata.StatusCode
}

// IsSuccess returns true for 2xx status codes.
func (e Exchange) IsSuccess() bool {
	return e.Metadata.StatusCode >= 200 && e.Metadata.StatusCode < 300
}
