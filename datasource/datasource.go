// Package datasource opens a *sql.DB for one of the drivers registered
// below and wraps it as an ogam.DataSource, pulling pool settings
// (MaxIdleConns/MaxOpenConns/ConnMaxLifetime/ConnMaxIdleTime) out of a
// config.DataSourceConfig's Property map.
package datasource

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	_ "github.com/glebarez/go-sqlite"  // driver name "sqlite"
	_ "github.com/go-sql-driver/mysql" // driver name "mysql"
	_ "github.com/microsoft/go-mssqldb" // driver name "sqlserver"

	"github.com/cockroachdb/errors"
	"github.com/forbearing/ogam"
	"github.com/forbearing/ogam/config"
	"github.com/forbearing/ogam/logger"
)

// Open builds a *sql.DB for cfg.Driver/cfg.DSN, applies pool settings
// from cfg.Property, verifies connectivity with Ping, and wraps the
// result as an ogam.DataSource.
//
// Recognized Property keys (all optional): "maxIdleConns",
// "maxOpenConns", "connMaxLifetime" and "connMaxIdleTime" (duration
// strings parsed by time.ParseDuration, e.g. "5m").
func Open(ctx context.Context, cfg config.DataSourceConfig) (ogam.DataSource, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s data source", cfg.Driver)
	}
	applyPoolSettings(db, cfg.Property)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close() //nolint:errcheck
		return nil, errors.Wrapf(err, "ping %s data source", cfg.Driver)
	}
	logger.Executor.Infow("data source opened", "driver", cfg.Driver)
	return ogam.NewDataSource(db), nil
}

func applyPoolSettings(db *sql.DB, props map[string]string) {
	if n, ok := intProperty(props, "maxIdleConns"); ok {
		db.SetMaxIdleConns(n)
	}
	if n, ok := intProperty(props, "maxOpenConns"); ok {
		db.SetMaxOpenConns(n)
	}
	if d, ok := durationProperty(props, "connMaxLifetime"); ok {
		db.SetConnMaxLifetime(d)
	}
	if d, ok := durationProperty(props, "connMaxIdleTime"); ok {
		db.SetConnMaxIdleTime(d)
	}
}

func intProperty(props map[string]string, key string) (int, bool) {
	s, ok := props[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		logger.Executor.Warnf("datasource: property %s=%q is not an integer", key, s)
		return 0, false
	}
	return n, true
}

func durationProperty(props map[string]string, key string) (time.Duration, bool) {
	s, ok := props[key]
	if !ok {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		logger.Executor.Warnf("datasource: property %s=%q is not a duration", key, s)
		return 0, false
	}
	return d, true
}
