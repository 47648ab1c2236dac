package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/franchisehub/backoffice/pkg/config"
	"github.com/franchisehub/backoffice/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	errMissingDSN        = errors.New("database DSN is required")
	errMissingSQLitePath = errors.New("sqlite path is required")
)

// Client owns the process-wide GORM handle.
type Client struct {
	conn    *gorm.DB
	dialect string
}

// Pinger is the readiness check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New connects to Postgres, or to the SQLite file at cfg.SQLitePath when
// useSQLite is set, and tunes the pool from cfg.
func New(ctx context.Context, cfg config.DBConfig, useSQLite bool, logg *logger.Logger) (*Client, error) {
	dialector, dialect, err := dialectorFor(cfg, useSQLite)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newQueryLogger(logg, cfg),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	tunePool(sqlDB, cfg, dialect)

	if logg != nil {
		logg.Info(logg.WithField(ctx, "dialect", dialect), "db.connected")
	}
	return &Client{conn: conn, dialect: dialect}, nil
}

func dialectorFor(cfg config.DBConfig, useSQLite bool) (gorm.Dialector, string, error) {
	if useSQLite {
		if cfg.SQLitePath == "" {
			return nil, "", errMissingSQLitePath
		}
		return sqlite.Open(sqliteDSN(cfg.SQLitePath)), DialectSQLite, nil
	}
	if cfg.DSN == "" {
		return nil, "", errMissingDSN
	}
	return postgres.New(postgres.Config{DSN: cfg.DSN, PreferSimpleProtocol: true}), DialectPostgres, nil
}

// sqliteDSN turns on foreign keys and a busy timeout unless the path
// already carries query options.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_foreign_keys=1&_busy_timeout=5000"
}

func tunePool(sqlDB *sql.DB, cfg config.DBConfig, dialect string) {
	maxOpen := cfg.MaxOpenConns
	if dialect == DialectSQLite {
		// one writer at a time
		maxOpen = 1
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(min(cfg.MaxIdleConns, max(maxOpen, 1)))
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

// NewFromConn wraps an open handle. Tests use it with dbtest.
func NewFromConn(conn *gorm.DB, dialect string) *Client {
	return &Client{conn: conn, dialect: dialect}
}

// Dialect selects the migration set. An unset dialect means Postgres.
func (c *Client) Dialect() string {
	if c.dialect == "" {
		return DialectPostgres
	}
	return c.dialect
}

func (c *Client) DB() *gorm.DB {
	return c.conn
}

// SQL exposes the pooled database/sql handle for goose.
func (c *Client) SQL() (*sql.DB, error) {
	return c.conn.DB()
}

func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.SQL()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *Client) Close() error {
	sqlDB, err := c.SQL()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTx runs fn in a transaction. The transaction commits when fn returns
// nil and rolls back on an error or a panic.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return c.conn.WithContext(ctx).Transaction(fn)
}
