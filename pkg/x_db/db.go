// file: jsbridge/pkg/x_db/db.go
package x_db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rskv-p/jsbridge/pkg/x_log"
)

//---------------------
// Database Initialization
//---------------------

// Open connects to the database described by cfg and logs through x_log.
func Open(cfg Config) (*gorm.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch DbType(strings.ToLower(string(cfg.Type))) {
	case DbPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		dialector = sqlite.Open(cfg.DSN)
	}

	zl := x_log.New("x_db")
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogAdapter(zl, parseLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("x_db: open %s: %w", cfg.Type, err)
	}

	zl.Debug().Str("driver", string(cfg.Type)).Msg("database opened")
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func parseLogLevel(s string) logger.LogLevel {
	switch strings.ToLower(s) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

