package emaildirect

import (
	"context"
	"errors"
	"sync"

	"github.com/criticaltool/emaildirect-go-client/pkg/client"
	"github.com/criticaltool/emaildirect-go-client/pkg/client/trace"
)

// API holds a Config and caches the last exchange.
//
// Methods are safe for concurrent use. The request is sent outside the lock with a snapshot of the config,
// so concurrent calls are not serialized and the last finished call wins the cache.
type API struct {
	lock       sync.Mutex
	dispatcher *Dispatcher
	config     Config
	last       Exchange
	hasLast    bool
}

type apiConfig struct {
	client *client.Client
	traces []trace.Factory
}

type APIOption func(c *apiConfig)

// WithClient sets the HTTP client, for example with a mocked transport.
func WithClient(cl *client.Client) APIOption {
	return func(c *apiConfig) {
		c.client = cl
	}
}

// WithTrace adds trace hooks to the HTTP client, for example trace.LogTracer.
func WithTrace(fn trace.Factory) APIOption {
	return func(c *apiConfig) {
		c.traces = append(c.traces, fn)
	}
}

// New creates the API from a validated config, see NewConfig.
func New(cfg Config, opts ...APIOption) *API {
	config := apiConfig{}
	for _, opt := range opts {
		opt(&config)
	}
	var c client.Client
	if config.client != nil {
		c = *config.client
	} else {
		c = client.New()
	}
	for _, fn := range config.traces {
		c = c.AndTrace(fn)
	}
	return &API{dispatcher: NewDispatcher(c), config: cfg}
}

// NewFromOptions creates the API from config options, see NewConfig.
func NewFromOptions(opts ...Option) (*API, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

// Execute sends one request, see Dispatcher.Dispatch.
// The exchange is cached, if a request has been sent, even a failed one.
// The returned Result is equal to the LastBody.
func (a *API) Execute(ctx context.Context, verb, url, body string) (Result, error) {
	return a.execute(ctx, a.Config(), verb, url, body)
}

func (a *API) execute(ctx context.Context, cfg Config, verb, url, body string) (Result, error) {
	exchange, err := a.dispatcher.Dispatch(ctx, cfg, verb, url, body)
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		// Nothing has been sent
		return exchange.Result, err
	}

	a.lock.Lock()
	defer a.lock.Unlock()
	a.last = exchange
	a.hasLast = true
	return exchange.Result, err
}

// LastBody returns Result of the last exchange.
func (a *API) LastBody() Result {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.last.Result
}

// LastMetadata returns transport diagnostics of the last exchange.
func (a *API) LastMetadata() client.Metadata {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.last.Metadata
}

// LastExchange returns the last exchange and false, if no request has been sent yet.
func (a *API) LastExchange() (Exchange, bool) {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.last, a.hasLast
}

// Config returns a snapshot of the current config.
func (a *API) Config() Config {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.config
}

// Configure applies the options, the config is not modified if the result is not valid.
func (a *API) Configure(opts ...Option) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	cfg, err := a.config.With(opts...)
	if err != nil {
		return err
	}
	a.config = cfg
	return nil
}

func (a *API) SetAPIKey(apiKey string) error {
	return a.Configure(WithAPIKey(apiKey))
}

// SetRequestFormat sets the request format, FormatXML forces ResponseRaw.
func (a *API) SetRequestFormat(f RequestFormat) error {
	return a.Configure(WithRequestFormat(f))
}

// SetResponseFormat sets the response format, ResponseStructured forces FormatJSON.
func (a *API) SetResponseFormat(f ResponseFormat) error {
	return a.Configure(WithResponseFormat(f))
}

func (a *API) SetDecodePolicy(p DecodePolicy) error {
	return a.Configure(WithDecodePolicy(p))
}

func (a *API) APIKey() string {
	return a.Config().APIKey()
}

func (a *API) RequestFormat() RequestFormat {
	return a.Config().RequestFormat()
}

func (a *API) ResponseFormat() ResponseFormat {
	return a.Config().ResponseFormat()
}

// ContentType returns MIME type of the request format.
func (a *API) ContentType() string {
	return a.Config().ContentType()
}
