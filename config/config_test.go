package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opa-project/opa/common"
	"github.com/opa-project/opa/exchange/accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600), "WriteFile must not error")
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err, "Load must not error with defaults")
	assert.Equal(t, DefaultAPIURL, c.Kraken.APIURL)
	assert.Equal(t, DefaultTimeout, c.Kraken.Timeout)
	assert.Equal(t, DefaultRateLimit, c.Kraken.RateLimit)
	assert.Equal(t, DefaultRateBurst, c.Kraken.RateBurst)
	assert.Equal(t, CredentialsFile, c.Kraken.Credentials.Source)
	assert.Equal(t, DefaultCredentialsFile, c.Kraken.Credentials.File)
	assert.Equal(t, accounts.DefaultKeyEnv, c.Kraken.Credentials.KeyEnv)
	assert.Equal(t, DefaultInterval, c.Market.Interval)
	assert.Equal(t, DefaultLookback, c.Market.Lookback)
	assert.Equal(t, []string{"XBTUSD"}, c.Market.Pairs)
	assert.Equal(t, DefaultSentimentURL, c.Sentiment.URL)
	assert.Equal(t, DriverSQLite, c.Database.Driver)
	assert.False(t, c.Database.Enabled)
	assert.Equal(t, DefaultLogLevel, c.Logging.Level)
	assert.Equal(t, DefaultUserAgent, c.Kraken.UserAgent)
	assert.Empty(t, c.Logging.DisabledSubsystems)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, "opa.yaml", `
kraken:
  api_url: http://localhost:8080
  timeout: 3s
  rate_limit: 0.5
  rate_burst: 2
  user_agent: opa-test/2.0
  credentials:
    source: env
market:
  pairs: [XBTUSD, ETHUSD]
  interval: 60
  lookback: 24h
database:
  enabled: true
  driver: postgres
  dsn: postgres://opa@localhost/opa?sslmode=disable
logging:
  level: debug
  json: true
  disabled_subsystems: [FEED, DATABASE]
`)
	c, err := Load(path)
	require.NoError(t, err, "Load must not error for a valid file")
	assert.Equal(t, "http://localhost:8080", c.Kraken.APIURL)
	assert.Equal(t, 3*time.Second, c.Kraken.Timeout)
	assert.Equal(t, 0.5, c.Kraken.RateLimit)
	assert.Equal(t, 2, c.Kraken.RateBurst)
	assert.Equal(t, CredentialsEnv, c.Kraken.Credentials.Source)
	assert.Equal(t, []string{"XBTUSD", "ETHUSD"}, c.Market.Pairs)
	assert.Equal(t, 60, c.Market.Interval)
	assert.Equal(t, 24*time.Hour, c.Market.Lookback)
	assert.True(t, c.Database.Enabled)
	assert.Equal(t, DriverPostgres, c.Database.Driver)
	assert.True(t, c.Logging.JSON)
	assert.Equal(t, "opa-test/2.0", c.Kraken.UserAgent)
	assert.Equal(t, []string{"FEED", "DATABASE"}, c.Logging.DisabledSubsystems)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "Load should error for a missing file")
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("OPA_KRAKEN_API_URL", "https://example.com")
	t.Setenv("OPA_KRAKEN_TIMEOUT", "30s")
	t.Setenv("OPA_MARKET_INTERVAL", "240")
	t.Setenv("OPA_KRAKEN_CREDENTIALS_SOURCE", "prompt")

	path := writeConfig(t, "opa.json", `{"kraken":{"api_url":"http://file.example"}}`)
	c, err := Load(path)
	require.NoError(t, err, "Load must not error")
	assert.Equal(t, "https://example.com", c.Kraken.APIURL, "Environment should override the file")
	assert.Equal(t, 30*time.Second, c.Kraken.Timeout)
	assert.Equal(t, 240, c.Market.Interval)
	assert.Equal(t, CredentialsPrompt, c.Kraken.Credentials.Source)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, (*Config)(nil).Validate(), common.ErrNilPointer)

	c := &Config{
		Kraken: KrakenConfig{
			APIURL:      "ftp://nope",
			RateLimit:   1,
			Credentials: CredentialsConfig{Source: "vault"},
		},
		Sentiment: SentimentConfig{URL: "https://api.senticrypt.com/v2/all.json"},
		Database:  DatabaseConfig{Enabled: true, Driver: "mysql"},
	}
	err := c.Validate()
	require.Error(t, err, "Validate must error")
	for _, e := range []error{errInvalidURL, errInvalidTimeout, errInvalidRateBurst, errUnknownCredentialSource, errInvalidInterval, errUnknownDatabaseDriver, errEmptyDSN} {
		assert.ErrorIs(t, err, e, "Validate should report every problem")
	}
}

func TestCredentialSource(t *testing.T) {
	t.Parallel()
	testCases := map[string]struct {
		cfg      CredentialsConfig
		expected accounts.Source
	}{
		"file":   {cfg: CredentialsConfig{Source: CredentialsFile, File: "keys.txt"}, expected: accounts.FileSource{Path: "keys.txt"}},
		"env":    {cfg: CredentialsConfig{Source: CredentialsEnv, KeyEnv: "K", SecretEnv: "S"}, expected: accounts.EnvSource{KeyVar: "K", SecretVar: "S"}},
		"prompt": {cfg: CredentialsConfig{Source: CredentialsPrompt}, expected: accounts.PromptSource{}},
	}
	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			src, err := tc.cfg.CredentialSource()
			require.NoError(t, err)
			assert.Equal(t, tc.expected, src)
		})
	}

	_, err := (&CredentialsConfig{Source: "vault"}).CredentialSource()
	assert.ErrorIs(t, err, accounts.ErrConfiguration)
}
