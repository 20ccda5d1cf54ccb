package store

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"saber/config"
	"saber/internal/pkg/model"
)

// ErrDuplicateEntry reports that an identical (filename, checksum) ledger
// entry already exists. Expected under concurrent ingestion of the same file;
// the losing caller discards its in-flight results.
var ErrDuplicateEntry = errors.New("duplicate processed-file entry")

// Client wraps a GORM DB connection for the accounting store.
type Client struct {
	DB     *gorm.DB
	logger *slog.Logger
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// New creates a GORM Client configured from config.Store and migrates the
// accounting schema. Driver "mysql" targets a shared instance, "sqlite" a
// local file (or ":memory:" in tests).
func New(cfg config.Store, logger *slog.Logger) (*Client, error) {
	var dial gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dsn, err := buildDSN(cfg)
		if err != nil {
			return nil, err
		}
		logger.Debug("build dsn", "dsn", dsn)
		dial = mysql.Open(dsn)
	case "sqlite":
		dial = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}

	gcfg := &gorm.Config{
		Logger:         glogger.Default.LogMode(glogger.Warn),
		TranslateError: true,
	}

	db, err := gorm.Open(dial, gcfg)
	if err != nil {
		return nil, err
	}

	// Tune the underlying connection pool
	if sqlDB, err := db.DB(); err == nil {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if d := parseDuration(cfg.ConnMaxLifetime); d > 0 {
			sqlDB.SetConnMaxLifetime(d)
		}
		_ = sqlDB.Ping()
	}

	if err := db.AutoMigrate(
		&model.Job{},
		&model.ProcessedFile{},
		&model.Wallet{},
		&model.MappingEdge{},
		&model.Quota{},
		&model.IngestionRun{},
	); err != nil {
		return nil, fmt.Errorf("migrate accounting schema: %w", err)
	}

	return &Client{DB: db, logger: logger}, nil
}

// Transaction runs fn inside one store transaction. The Client handed to fn
// shares the transaction handle; any error rolls the whole unit of work back.
func (c *Client) Transaction(fn func(tx *Client) error) error {
	return c.DB.Transaction(func(tx *gorm.DB) error {
		return fn(&Client{DB: tx, logger: c.logger})
	})
}

// buildDSN constructs a MySQL DSN string.
// Format: user:pass@tcp(host:port)/dbname?param=value
func buildDSN(cfg config.Store) (string, error) {
	creds := cfg.User
	if cfg.Password != "" {
		creds = fmt.Sprintf("%s:%s", cfg.User, cfg.Password)
	}

	addr := fmt.Sprintf("tcp(%s:%d)", cfg.Host, cfg.Port)
	dbname := cfg.Database

	params := make([]string, 0, 4)
	if cfg.Charset != "" {
		params = append(params, fmt.Sprintf("charset=%s", cfg.Charset))
	}
	if cfg.ParseTime {
		params = append(params, "parseTime=true")
	} else {
		params = append(params, "parseTime=false")
	}
	if cfg.Loc != "" {
		params = append(params, fmt.Sprintf("loc=%s", url.QueryEscape(cfg.Loc)))
	}
	if cfg.TLS != "" {
		params = append(params, fmt.Sprintf("tls=%s", cfg.TLS))
	}

	dsn := fmt.Sprintf("%s@%s/%s", creds, addr, dbname)
	if len(params) > 0 {
		dsn = dsn + "?" + joinParams(params)
	}
	return dsn, nil
}

// parseDuration returns 0 on empty or invalid duration strings.
func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// joinParams joins DSN parameters with '&'.
func joinParams(params []string) string {
	if len(params) == 0 {
		return ""
	}
	out := params[0]
	for i := 1; i < len(params); i++ {
		out += "&" + params[i]
	}
	return out
}

// Package-level default client for convenience wiring.
var defaultClient *Client

// SetDefault sets the package-level default store client.
func SetDefault(c *Client) { defaultClient = c }

// Default returns the package-level default store client.
func Default() *Client { return defaultClient }
