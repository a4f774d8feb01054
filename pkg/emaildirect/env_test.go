package emaildirect_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/criticaltool/emaildirect-go-client/pkg/emaildirect"
)

// Tests modify the environment, so they cannot run in parallel.

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("EMAILDIRECT_API_KEY", "my-key")
	t.Setenv("EMAILDIRECT_REQUEST_FORMAT", "xml")
	t.Setenv("EMAILDIRECT_BASE_URL", "http://localhost:1234/v1/")
	t.Setenv("EMAILDIRECT_DECODE_POLICY", "strict")
	t.Setenv("EMAILDIRECT_TIMEOUT", "30s")

	cfg, err := ConfigFromEnv(DefaultEnvPrefix)
	require.NoError(t, err)
	assert.Equal(t, "my-key", cfg.APIKey())
	assert.Equal(t, FormatXML, cfg.RequestFormat())
	assert.Equal(t, ResponseRaw, cfg.ResponseFormat())
	assert.Equal(t, "http://localhost:1234/v1", cfg.BaseURL())
	assert.Equal(t, DecodeStrict, cfg.DecodePolicy())
	assert.Equal(t, 30*time.Second, cfg.Timeout())
}

func TestConfigFromEnv_ResponseFormatWins(t *testing.T) {
	t.Setenv("EMAILDIRECT_REQUEST_FORMAT", "xml")
	t.Setenv("EMAILDIRECT_RESPONSE_FORMAT", "structured")

	cfg, err := ConfigFromEnv(DefaultEnvPrefix)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, cfg.RequestFormat())
	assert.Equal(t, ResponseStructured, cfg.ResponseFormat())
}

func TestConfigFromEnv_OptionsWin(t *testing.T) {
	t.Setenv("MY_API_KEY", "env-key")

	cfg, err := ConfigFromEnv("MY", WithAPIKey("option-key"))
	require.NoError(t, err)
	assert.Equal(t, "option-key", cfg.APIKey())
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL())
}

func TestConfigFromEnv_Invalid(t *testing.T) {
	t.Setenv("EMAILDIRECT_REQUEST_FORMAT", "csv")
	t.Setenv("EMAILDIRECT_DECODE_POLICY", "never")

	_, err := ConfigFromEnv(DefaultEnvPrefix)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), `request format "csv" is not supported`)
	assert.Contains(t, err.Error(), `decode policy "never" is not supported`)

	t.Setenv("EMAILDIRECT_REQUEST_FORMAT", "")
	t.Setenv("EMAILDIRECT_DECODE_POLICY", "")
	t.Setenv("EMAILDIRECT_TIMEOUT", "soon")
	_, err = ConfigFromEnv(DefaultEnvPrefix)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot load config from environment")
}
