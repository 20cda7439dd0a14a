// Package testhelpers provides database connections for repository tests.
// SQLite runs in a temp dir; Postgres runs only when OPA_TEST_POSTGRES_DSN is
// set.
package testhelpers

import (
	"context"
	"os"

	"github.com/opa-project/opa/database"
)

// PostgresDSNEnv names the variable holding a Postgres connection string for
// tests
const PostgresDSNEnv = "OPA_TEST_POSTGRES_DSN"

var (
	// TempDir holds SQLite test databases
	TempDir string
	// PostgresTestDatabase is the Postgres test config, empty when not set up
	PostgresTestDatabase *database.Config
)

// GetConnectionDetails returns the Postgres test config from the environment
func GetConnectionDetails() *database.Config {
	return &database.Config{
		Enabled: true,
		Driver:  database.DBPostgres,
		DSN:     os.Getenv(PostgresDSNEnv),
	}
}

// ConnectToDatabase opens the database described by conn
func ConnectToDatabase(ctx context.Context, conn *database.Config) (*database.Instance, error) {
	return database.Connect(ctx, conn)
}

// CloseDatabase closes the database connection
func CloseDatabase(inst *database.Instance) error {
	if inst == nil {
		return nil
	}
	return inst.CloseConnection()
}

// CheckValidConfig reports whether cfg can be connected to. SQLite configs
// always can; Postgres needs a DSN.
func CheckValidConfig(cfg *database.Config) bool {
	if cfg == nil {
		return false
	}
	if cfg.Driver == database.DBSQLite3 {
		return true
	}
	return cfg.DSN != ""
}
