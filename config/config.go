// Package config loads toolkit settings from an optional file and OPA_
// prefixed environment variables
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/opa-project/opa/common"
	"github.com/opa-project/opa/exchange/accounts"
	"github.com/opa-project/opa/log"
	"github.com/spf13/viper"
)

var (
	errUnknownCredentialSource = errors.New("unknown credential source")
	errUnknownDatabaseDriver   = errors.New("unknown database driver")
	errInvalidURL              = errors.New("invalid URL")
	errInvalidTimeout          = errors.New("timeout must be greater than zero")
	errInvalidRateBurst        = errors.New("rate burst must be at least one when rate limiting is enabled")
	errInvalidInterval         = errors.New("interval must be greater than zero")
	errEmptyDSN                = errors.New("database dsn must be set when the database is enabled")
)

// Load reads configuration from path, which may be empty, then applies
// environment overrides such as OPA_KRAKEN_API_URL. Unset keys take their
// defaults.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		log.Infof(log.ConfigSys, "Using config file %s", v.ConfigFileUsed())
	} else {
		log.Debugf(log.ConfigSys, "No config file given, using defaults and environment")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("kraken.api_url", DefaultAPIURL)
	v.SetDefault("kraken.timeout", DefaultTimeout)
	v.SetDefault("kraken.rate_limit", DefaultRateLimit)
	v.SetDefault("kraken.rate_burst", DefaultRateBurst)
	v.SetDefault("kraken.verbose", false)
	v.SetDefault("kraken.user_agent", DefaultUserAgent)
	v.SetDefault("kraken.credentials.source", DefaultCredentialsSource)
	v.SetDefault("kraken.credentials.file", DefaultCredentialsFile)
	v.SetDefault("kraken.credentials.key_env", accounts.DefaultKeyEnv)
	v.SetDefault("kraken.credentials.secret_env", accounts.DefaultSecretEnv)
	v.SetDefault("kraken.credentials.otp_secret_env", accounts.DefaultOTPSecretEnv)
	v.SetDefault("market.pairs", []string{"XBTUSD"})
	v.SetDefault("market.interval", DefaultInterval)
	v.SetDefault("market.lookback", DefaultLookback)
	v.SetDefault("sentiment.url", DefaultSentimentURL)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.driver", DefaultDatabaseDriver)
	v.SetDefault("database.dsn", DefaultDatabaseDSN)
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.json", false)
	v.SetDefault("logging.disabled_subsystems", []string{})
	return v
}

// Validate checks the config for invalid values, returning every problem found
func (c *Config) Validate() error {
	if c == nil {
		return common.ErrNilPointer
	}
	var errs error
	if err := validateURL(c.Kraken.APIURL); err != nil {
		errs = common.AppendError(errs, fmt.Errorf("kraken.api_url: %w", err))
	}
	if c.Kraken.Timeout <= 0 {
		errs = common.AppendError(errs, errInvalidTimeout)
	}
	if c.Kraken.RateLimit > 0 && c.Kraken.RateBurst < 1 {
		errs = common.AppendError(errs, errInvalidRateBurst)
	}
	switch c.Kraken.Credentials.Source {
	case CredentialsFile, CredentialsEnv, CredentialsPrompt:
	default:
		errs = common.AppendError(errs, fmt.Errorf("%w: %q", errUnknownCredentialSource, c.Kraken.Credentials.Source))
	}
	if c.Market.Interval <= 0 {
		errs = common.AppendError(errs, errInvalidInterval)
	}
	if err := validateURL(c.Sentiment.URL); err != nil {
		errs = common.AppendError(errs, fmt.Errorf("sentiment.url: %w", err))
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = common.AppendError(errs, fmt.Errorf("%w: %q", errUnknownDatabaseDriver, c.Database.Driver))
	}
	if c.Database.Enabled && c.Database.DSN == "" {
		errs = common.AppendError(errs, errEmptyDSN)
	}
	return errs
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: %q", errInvalidURL, s)
	}
	return nil
}

// CredentialSource returns the accounts.Source described by the config
func (c *CredentialsConfig) CredentialSource() (accounts.Source, error) {
	switch c.Source {
	case CredentialsFile:
		return accounts.FileSource{Path: c.File}, nil
	case CredentialsEnv:
		return accounts.EnvSource{KeyVar: c.KeyEnv, SecretVar: c.SecretEnv, OTPSecretVar: c.OTPSecretEnv}, nil
	case CredentialsPrompt:
		return accounts.PromptSource{}, nil
	}
	return nil, fmt.Errorf("%w: %w: %q", accounts.ErrConfiguration, errUnknownCredentialSource, c.Source)
}
