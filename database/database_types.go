package database

import (
	"database/sql"
	"errors"
	"sync"
)

// Supported database drivers
const (
	DBSQLite3  = "sqlite3"
	DBPostgres = "postgres"
)

// Public database errors
var (
	ErrNilInstance          = errors.New("database instance is nil")
	ErrNilConfig            = errors.New("received nil database config")
	ErrDatabaseNotConnected = errors.New("database is not connected")
	ErrNoDatabaseProvided   = errors.New("no database provided")
	ErrUnsupportedDriver    = errors.New("unsupported database driver")
)

var errNilSQL = errors.New("database SQL connection is nil")

// Config holds the candle store connection settings. DSN is a file path for
// SQLite and a connection string for Postgres.
type Config struct {
	Enabled bool
	Verbose bool
	Driver  string
	DSN     string
}

// Instance holds a database connection and its configuration
type Instance struct {
	SQL       *sql.DB
	config    *Config
	connected bool
	m         sync.RWMutex
}
