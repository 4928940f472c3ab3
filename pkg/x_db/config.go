// file: jsbridge/pkg/x_db/config.go
package x_db

import (
	"errors"
	"fmt"
	"strings"
)

//---------------------
// Database Config
//---------------------

type DbType string

const (
	DbSqlite   DbType = "sqlite"
	DbPostgres DbType = "postgres"
)

var ErrUnsupportedDialect = errors.New("x_db: unsupported dialect")

// Config selects the driver and connection string.
type Config struct {
	Type     DbType `json:"type" mapstructure:"type"`           // sqlite or postgres
	DSN      string `json:"dsn" mapstructure:"dsn"`             // file path or postgres URL
	LogLevel string `json:"log_level" mapstructure:"log_level"` // silent, error, warn, info
}

var defaultCfg = Config{
	Type:     DbSqlite,
	DSN:      "jsbridge.db",
	LogLevel: "warn",
}

// DefaultConfig returns the built-in sqlite settings.
func DefaultConfig() Config {
	return defaultCfg
}

// Validate checks the dialect and DSN.
func (c Config) Validate() error {
	switch DbType(strings.ToLower(string(c.Type))) {
	case DbSqlite, DbPostgres:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDialect, c.Type)
	}
	if strings.TrimSpace(c.DSN) == "" {
		return errors.New("x_db: dsn is required")
	}
	return nil
}
