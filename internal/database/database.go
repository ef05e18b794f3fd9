package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"calmnest-api/internal/config"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// NewConnection opens the database selected by cfg.Driver. An empty driver
// means Postgres.
func NewConnection(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case DriverPostgres, "":
		return NewPostgresConnection(cfg)
	case DriverSQLite:
		return NewSQLiteConnection(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewPostgresConnection uses the simple query protocol so pooled
// connections never collide on server-side prepared statement names.
func NewPostgresConnection(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s prefer_simple_protocol=true",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	return open(postgres.Open(dsn), "postgres "+cfg.Host, func(pool *sql.DB) {
		pool.SetMaxOpenConns(cfg.MaxOpenConns)
		pool.SetMaxIdleConns(cfg.MaxIdleConns)
		pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	})
}

// NewSQLiteConnection opens a single-process SQLite database at path. One
// open connection serializes writers, WAL keeps readers unblocked and
// busy_timeout absorbs short lock waits.
func NewSQLiteConnection(path string) (*gorm.DB, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

	return open(sqlite.Open(dsn), "sqlite "+path, func(pool *sql.DB) {
		pool.SetMaxOpenConns(1)
	})
}

func open(dialector gorm.Dialector, target string, tune func(*sql.DB)) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", target, err)
	}

	pool, err := db.DB()
	if err != nil {
		return nil, err
	}
	tune(pool)

	if err := pool.Ping(); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping %s: %w", target, err)
	}
	return db, nil
}

// HealthCheck pings the pool behind db.
func HealthCheck(db *gorm.DB) error {
	if db == nil {
		return errors.New("no database configured")
	}
	pool, err := db.DB()
	if err != nil {
		return err
	}
	return pool.Ping()
}

func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	pool, err := db.DB()
	if err != nil {
		return err
	}
	return pool.Close()
}
