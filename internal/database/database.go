package database

import (
	"database/sql"
	"fmt"
	"net/url"

	"kiosk_pos_backend/internal/config"
	"kiosk_pos_backend/pkg/utils"

	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open opens and pings the configured store.
//
// SQLite is limited to a single open connection: the kiosk is one logical
// writer and a single connection turns SQLite's file lock into plain queuing.
// Code holding a *sql.Tx must therefore never query through the *sql.DB.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.Driver {
	case DriverSQLite:
		db, err = sql.Open(DriverSQLite, sqliteDSN(cfg.Path))
		if err != nil {
			return nil, fmt.Errorf("error opening sqlite database %s: %w", cfg.Path, err)
		}
		db.SetMaxOpenConns(1)
	case DriverPostgres:
		connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
		db, err = sql.Open(DriverPostgres, connStr)
		if err != nil {
			return nil, fmt.Errorf("error opening postgres database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	utils.LogInfo("Successfully connected to the database", map[string]interface{}{"driver": cfg.Driver})
	return db, nil
}

func sqliteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	return "file:" + path + "?" + q.Encode()
}
