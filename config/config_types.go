package config

import "time"

// Constants declared here are default values used when a key is absent from
// both the config file and the environment
const (
	EnvPrefix = "OPA"

	DefaultAPIURL            = "https://api.kraken.com"
	DefaultTimeout           = 15 * time.Second
	DefaultRateLimit         = 1.0
	DefaultRateBurst         = 15
	DefaultCredentialsSource = CredentialsFile
	DefaultCredentialsFile   = "keys.txt"
	DefaultInterval          = 1440
	DefaultLookback          = 7 * 24 * time.Hour
	DefaultSentimentURL      = "https://api.senticrypt.com/v2/all.json"
	DefaultDatabaseDriver    = DriverSQLite
	DefaultDatabaseDSN       = "opa.db"
	DefaultLogLevel          = "info"
	DefaultUserAgent         = "opa-krakenctl"
)

// Credential source names
const (
	CredentialsFile   = "file"
	CredentialsEnv    = "env"
	CredentialsPrompt = "prompt"
)

// Database driver names
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config is the overarching object that holds all the information for the
// toolkit
type Config struct {
	Kraken    KrakenConfig    `mapstructure:"kraken"`
	Market    MarketConfig    `mapstructure:"market"`
	Sentiment SentimentConfig `mapstructure:"sentiment"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// KrakenConfig holds the REST connection settings
type KrakenConfig struct {
	APIURL      string            `mapstructure:"api_url"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	RateLimit   float64           `mapstructure:"rate_limit"`
	RateBurst   int               `mapstructure:"rate_burst"`
	Verbose     bool              `mapstructure:"verbose"`
	UserAgent   string            `mapstructure:"user_agent"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
}

// CredentialsConfig selects where API credentials are loaded from
type CredentialsConfig struct {
	Source       string `mapstructure:"source"`
	File         string `mapstructure:"file"`
	KeyEnv       string `mapstructure:"key_env"`
	SecretEnv    string `mapstructure:"secret_env"`
	OTPSecretEnv string `mapstructure:"otp_secret_env"`
}

// MarketConfig holds market data query defaults
type MarketConfig struct {
	Pairs    []string      `mapstructure:"pairs"`
	Interval int           `mapstructure:"interval"`
	Lookback time.Duration `mapstructure:"lookback"`
}

// SentimentConfig holds the public sentiment feed location
type SentimentConfig struct {
	URL string `mapstructure:"url"`
}

// DatabaseConfig holds the candle store connection
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Driver  string `mapstructure:"driver"`
	DSN     string `mapstructure:"dsn"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
	// DisabledSubsystems silences the named log sub-systems, e.g. "FEED"
	DisabledSubsystems []string `mapstructure:"disabled_subsystems"`
}
