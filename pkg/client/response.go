package client

// Response is a fully read and decoded HTTP response.
type Response struct {
	// Body is decoded according to the Content-Encoding header.
	Body     []byte
	Metadata Metadata
}

// StatusCode returns 0, if no response has been received.
func (r *Response) StatusCode() int {
	if r == nil {
		return 0
	}
	return r.Metadata.StatusCode
}

// IsSuccess returns true for 2xx status codes.
func (r *Response) IsSuccess() bool {
	code := r.StatusCode()
	return code >= 200 && code < 300
}

// IsError returns true for 4xx and 5xx status codes.
func (r *Response) IsError() bool {
	return r.StatusCode() >= 400
}
