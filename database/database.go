// Package database opens the candle store connection
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/opa-project/opa/log"

	// Registers the postgres driver
	_ "github.com/lib/pq"
	// Registers the sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

// Connect opens and pings the database described by cfg
func Connect(ctx context.Context, cfg *Config) (*Instance, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if cfg.DSN == "" {
		return nil, ErrNoDatabaseProvided
	}
	inst := &Instance{}
	if err := inst.SetConfig(cfg); err != nil {
		return nil, err
	}

	con, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	switch cfg.Driver {
	case DBSQLite3:
		err = inst.SetSQLiteConnection(con)
	case DBPostgres:
		err = inst.SetPostgresConnection(con)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
	if err != nil {
		_ = con.Close()
		return nil, err
	}
	if err := con.PingContext(ctx); err != nil {
		_ = con.Close()
		return nil, fmt.Errorf("%s ping: %w", cfg.Driver, err)
	}
	inst.SetConnected(true)
	if cfg.Verbose {
		log.Infof(log.DatabaseSys, "Connected to %s database", cfg.Driver)
	}
	return inst, nil
}

// SetConfig safely sets the instance config
func (i *Instance) SetConfig(cfg *Config) error {
	if i == nil {
		return ErrNilInstance
	}
	if cfg == nil {
		return ErrNilConfig
	}
	i.m.Lock()
	i.config = cfg
	i.m.Unlock()
	return nil
}

// SetSQLiteConnection sets a SQLite connection, limited to a single open
// connection so writers do not lock each other out of the file
func (i *Instance) SetSQLiteConnection(con *sql.DB) error {
	if i == nil {
		return ErrNilInstance
	}
	if con == nil {
		return errNilSQL
	}
	i.m.Lock()
	defer i.m.Unlock()
	i.SQL = con
	i.SQL.SetMaxOpenConns(1)
	return nil
}

// SetPostgresConnection sets a Postgres connection
func (i *Instance) SetPostgresConnection(con *sql.DB) error {
	if i == nil {
		return ErrNilInstance
	}
	if con == nil {
		return errNilSQL
	}
	i.m.Lock()
	defer i.m.Unlock()
	i.SQL = con
	i.SQL.SetMaxOpenConns(2)
	i.SQL.SetMaxIdleConns(1)
	return nil
}

// SetConnected safely sets the connected status
func (i *Instance) SetConnected(v bool) {
	if i == nil {
		return
	}
	i.m.Lock()
	i.connected = v
	i.m.Unlock()
}

// CloseConnection closes the underlying connection
func (i *Instance) CloseConnection() error {
	if i == nil {
		return ErrNilInstance
	}
	i.m.Lock()
	defer i.m.Unlock()
	if i.SQL == nil {
		return errNilSQL
	}
	i.connected = false
	return i.SQL.Close()
}

// IsConnected safely checks the SQL connection status
func (i *Instance) IsConnected() bool {
	if i == nil {
		return false
	}
	i.m.RLock()
	defer i.m.RUnlock()
	return i.connected
}

// GetConfig safely returns a copy of the config
func (i *Instance) GetConfig() *Config {
	if i == nil {
		return nil
	}
	i.m.RLock()
	defer i.m.RUnlock()
	if i.config == nil {
		return nil
	}
	cpy := *i.config
	return &cpy
}

// Driver returns the configured driver name
func (i *Instance) Driver() string {
	cfg := i.GetConfig()
	if cfg == nil {
		return ""
	}
	return cfg.Driver
}

// Ping pings the database
func (i *Instance) Ping() error {
	if i == nil {
		return ErrNilInstance
	}
	if !i.IsConnected() {
		return ErrDatabaseNotConnected
	}
	i.m.RLock()
	defer i.m.RUnlock()
	if i.SQL == nil {
		return errNilSQL
	}
	return i.SQL.Ping()
}

// GetSQL returns the sql connection
func (i *Instance) GetSQL() (*sql.DB, error) {
	if i == nil {
		return nil, ErrNilInstance
	}
	i.m.RLock()
	defer i.m.RUnlock()
	if i.SQL == nil {
		return nil, errNilSQL
	}
	return i.SQL, nil
}

// Rebind converts ? placeholders to the positional $n form Postgres expects.
// Queries for other drivers are returned unchanged.
func Rebind(driver, query string) string {
	if driver != DBPostgres {
		return query
	}
	var (
		sb strings.Builder
		n  int
	)
	sb.Grow(len(query) + 8)
	for _, r := range query {
		if r != '?' {
			sb.WriteRune(r)
			continue
		}
		n++
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String()
}
