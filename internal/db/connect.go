package db

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/diewo77/go-quotes/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// Dialector returns the gorm dialector for the configured driver.
func Dialector(cfg config.DatabaseConfig) gorm.Dialector {
	dsn := cfg.ConnString()
	switch cfg.Driver {
	case "mysql":
		return mysql.Open(dsn)
	case "sqlite":
		return sqlite.Open(dsn)
	default:
		return postgres.Open(dsn)
	}
}

// Connect opens the store, retrying a few times so a database container has time to start.
func Connect(cfg config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	log.Info("connecting to database",
		"driver", cfg.Driver, "host", cfg.Host, "port", cfg.Port, "dbname", cfg.DBName, "user", cfg.User)

	var conn *gorm.DB
	var err error
	for i := 1; i <= connectAttempts; i++ {
		conn, err = gorm.Open(Dialector(cfg), gcfg)
		if err == nil {
			break
		}
		log.Warn("database connection failed", "attempt", i, "of", connectAttempts, "err", err)
		if i < connectAttempts {
			time.Sleep(connectBackoff)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Driver, err)
	}

	if err := conn.Exec("SELECT 1").Error; err != nil {
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	return conn, nil
}
