package emaildirect

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/net/http/httpguts"
)

const (
	DefaultBaseURL = "https://rest.emaildirect.com/v1"
	DefaultTimeout = 10 * time.Second
)

// Config is an immutable configuration of the API, see NewConfig and Config.With.
//
// Formats are always consistent:
//   - ResponseStructured implies FormatJSON.
//   - FormatXML implies ResponseRaw.
//
// Options are applied in order, so the later selection wins.
type Config struct {
	apiKey         string
	requestFormat  RequestFormat
	responseFormat ResponseFormat
	baseURL        string
	decodePolicy   DecodePolicy
	timeout        time.Duration
}

type Option func(c *Config)

// WithAPIKey sets the key sent in the "ApiKey" header. An empty key means no header.
func WithAPIKey(apiKey string) Option {
	return func(c *Config) {
		c.apiKey = apiKey
	}
}

// WithRequestFormat sets the request format, FormatXML forces ResponseRaw.
func WithRequestFormat(f RequestFormat) Option {
	return func(c *Config) {
		c.requestFormat = f
		if f == FormatXML {
			c.responseFormat = ResponseRaw
		}
	}
}

// WithResponseFormat sets the response format, ResponseStructured forces FormatJSON.
func WithResponseFormat(f ResponseFormat) Option {
	return func(c *Config) {
		c.responseFormat = f
		if f == ResponseStructured {
			c.requestFormat = FormatJSON
		}
	}
}

// WithBaseURL sets the root of the API, relative urls are appended to it.
func WithBaseURL(baseURL string) Option {
	return func(c *Config) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithDecodePolicy(p DecodePolicy) Option {
	return func(c *Config) {
		c.decodePolicy = p
	}
}

// WithTimeout sets the limit of the whole request, reading of the body included.
func WithTimeout(v time.Duration) Option {
	return func(c *Config) {
		c.timeout = v
	}
}

// NewConfig creates a validated Config. Defaults are JSON requests with structured responses,
// the DefaultBaseURL, the lenient decode policy and the DefaultTimeout.
func NewConfig(opts ...Option) (Config, error) {
	c := Config{
		requestFormat:  FormatJSON,
		responseFormat: ResponseStructured,
		baseURL:        DefaultBaseURL,
		decodePolicy:   DecodeLenient,
		timeout:        DefaultTimeout,
	}
	return c.With(opts...)
}

// With returns a validated copy of the config with the options applied.
// The original config is not modified.
func (c Config) With(opts ...Option) (Config, error) {
	for _, o := range opts {
		o(&c)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) APIKey() string {
	return c.apiKey
}

func (c Config) RequestFormat() RequestFormat {
	return c.requestFormat
}

func (c Config) ResponseFormat() ResponseFormat {
	return c.responseFormat
}

func (c Config) BaseURL() string {
	return c.baseURL
}

func (c Config) DecodePolicy() DecodePolicy {
	return c.decodePolicy
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

// ContentType returns MIME type of the request format.
func (c Config) ContentType() string {
	return c.requestFormat.MIME()
}

func (c Config) validate() error {
	var err error
	invalid := func(format string, a ...any) {
		err = multierror.Append(err, &ConfigError{Err: ErrInvalidConfig, Detail: fmt.Sprintf(format, a...)})
	}

	if !httpguts.ValidHeaderFieldValue(c.apiKey) {
		invalid(`API key contains characters not allowed in a header value`)
	}
	if !c.requestFormat.valid() {
		invalid(`request format "%s" is not supported, expected "json" or "xml"`, c.requestFormat)
	}
	if !c.responseFormat.valid() {
		invalid(`response format "%s" is not supported, expected "structured" or "raw"`, c.responseFormat)
	}
	if c.responseFormat == ResponseStructured && c.requestFormat == FormatXML {
		invalid(`structured response format requires the json request format`)
	}
	if !c.decodePolicy.valid() {
		invalid(`decode policy "%s" is not supported, expected "lenient" or "strict"`, c.decodePolicy)
	}
	if u, e := url.Parse(c.baseURL); e != nil {
		invalid(`base url "%s" is not valid: %s`, c.baseURL, e)
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		invalid(`base url "%s" must be an absolute http or https url`, c.baseURL)
	}
	if c.timeout <= 0 {
		invalid(`timeout must be positive, found "%s"`, c.timeout)
	}
	return err
}

// resolveURL returns the url, if it is absolute, otherwise the url is appended to the base url.
func (c Config) resolveURL(str string) (string, error) {
	if strings.TrimSpace(str) == "" {
		return "", &ConfigError{Err: ErrInvalidURL, Detail: "url is empty"}
	}

	u, err := url.Parse(str)
	if err == nil && u.IsAbs() {
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return "", &ConfigError{Err: ErrInvalidURL, Detail: fmt.Sprintf(`url "%s" must be an absolute http or https url`, str)}
		}
		return u.String(), nil
	}

	// Relative url
	full := c.baseURL + "/" + strings.TrimLeft(str, "/")
	if u, err = url.Parse(full); err != nil {
		return "", &ConfigError{Err: ErrInvalidURL, Detail: fmt.Sprintf(`url "%s" is not valid: %s`, full, err)}
	}
	return u.String(), nil
}
