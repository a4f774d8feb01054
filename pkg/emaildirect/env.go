package emaildirect

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/kelseyhightower/envconfig"
)

// DefaultEnvPrefix is the usual prefix of the environment variables, see ConfigFromEnv.
const DefaultEnvPrefix = "EMAILDIRECT"

// envConfig represents configuration options loaded from environment variables.
// Empty values mean the default.
type envConfig struct {
	APIKey         string        `envconfig:"API_KEY"`
	RequestFormat  string        `envconfig:"REQUEST_FORMAT"`
	ResponseFormat string        `envconfig:"RESPONSE_FORMAT"`
	BaseURL        string        `envconfig:"BASE_URL"`
	DecodePolicy   string        `envconfig:"DECODE_POLICY"`
	Timeout        time.Duration `envconfig:"TIMEOUT"`
}

// ConfigFromEnv creates a Config from environment variables:
// <PREFIX>_API_KEY, <PREFIX>_REQUEST_FORMAT, <PREFIX>_RESPONSE_FORMAT,
// <PREFIX>_BASE_URL, <PREFIX>_DECODE_POLICY and <PREFIX>_TIMEOUT (for example "30s").
//
// The request format is applied before the response format, the opts are applied last.
func ConfigFromEnv(prefix string, opts ...Option) (Config, error) {
	env := envConfig{}
	if err := envconfig.Process(prefix, &env); err != nil {
		return Config{}, fmt.Errorf("cannot load config from environment: %w", err)
	}

	var errs error
	var envOpts []Option
	if env.APIKey != "" {
		envOpts = append(envOpts, WithAPIKey(env.APIKey))
	}
	if env.RequestFormat != "" {
		if f, err := ParseRequestFormat(env.RequestFormat); err == nil {
			envOpts = append(envOpts, WithRequestFormat(f))
		} else {
			errs = multierror.Append(errs, err)
		}
	}
	if env.ResponseFormat != "" {
		if f, err := ParseResponseFormat(env.ResponseFormat); err == nil {
			envOpts = append(envOpts, WithResponseFormat(f))
		} else {
			errs = multierror.Append(errs, err)
		}
	}
	if env.BaseURL != "" {
		envOpts = append(envOpts, WithBaseURL(env.BaseURL))
	}
	if env.DecodePolicy != "" {
		if p, err := ParseDecodePolicy(env.DecodePolicy); err == nil {
			envOpts = append(envOpts, WithDecodePolicy(p))
		} else {
			errs = multierror.Append(errs, err)
		}
	}
	if env.Timeout != 0 {
		envOpts = append(envOpts, WithTimeout(env.Timeout))
	}
	if errs != nil {
		return Config{}, errs
	}

	return NewConfig(append(envOpts, opts...)...)
}
