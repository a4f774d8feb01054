package emaildirect

import (
	"fmt"
	"strings"
)

// RequestFormat selects serialization of request bodies and the Content-Type and Accept headers.
type RequestFormat string

// ResponseFormat selects whether the response body is decoded before it is returned.
type ResponseFormat string

// DecodePolicy selects how a response body that is not valid JSON is handled in the structured mode.
type DecodePolicy string

const (
	FormatJSON = RequestFormat("json")
	FormatXML  = RequestFormat("xml")

	// ResponseStructured decodes the JSON body into a generic value.
	ResponseStructured = ResponseFormat("structured")
	// ResponseRaw returns the body as delivered.
	ResponseRaw = ResponseFormat("raw")

	// DecodeLenient records the decode error in the Result, no error is returned.
	DecodeLenient = DecodePolicy("lenient")
	// DecodeStrict returns a *DecodeError.
	DecodeStrict = DecodePolicy("strict")
)

const (
	MIMEJSON = "application/json"
	MIMEXML  = "application/xml"
)

// MIME returns the media type used in the Content-Type and Accept headers.
func (f RequestFormat) MIME() string {
	if f == FormatXML {
		return MIMEXML
	}
	return MIMEJSON
}

func (f RequestFormat) valid() bool {
	return f == FormatJSON || f == FormatXML
}

func (f ResponseFormat) valid() bool {
	return f == ResponseStructured || f == ResponseRaw
}

func (p DecodePolicy) valid() bool {
	return p == DecodeLenient || p == DecodeStrict
}

// ParseRequestFormat parses "json" or "xml", case-insensitive.
// A MIME type is accepted too.
func ParseRequestFormat(v string) (RequestFormat, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "json", MIMEJSON:
		return FormatJSON, nil
	case "xml", MIMEXML:
		return FormatXML, nil
	default:
		return "", &ConfigError{Err: ErrInvalidConfig, Detail: fmt.Sprintf(`request format "%s" is not supported, expected "json" or "xml"`, v)}
	}
}

// ParseResponseFormat parses "structured" or "raw", case-insensitive.
// The "array" alias means "structured".
func ParseResponseFormat(v string) (ResponseFormat, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "structured", "array":
		return ResponseStructured, nil
	case "raw":
		return ResponseRaw, nil
	default:
		return "", &ConfigError{Err: ErrInvalidConfig, Detail: fmt.Sprintf(`response format "%s" is not supported, expected "structured" or "raw"`, v)}
	}
}

// ParseDecodePolicy parses "lenient" or "strict", case-insensitive.
func ParseDecodePolicy(v string) (DecodePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "lenient":
		return DecodeLenient, nil
	case "strict":
		return DecodeStrict, nil
	default:
		return "", &ConfigError{Err: ErrInvalidConfig, Detail: fmt.Sprintf(`decode policy "%s" is not supported, expected "lenient" or "strict"`, v)}
	}
}
