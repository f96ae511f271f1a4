package database

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"kiosk_pos_backend/pkg/utils"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_postgres.sql
var postgresSchema string

// ApplySchema creates every table idempotently for the given driver.
func ApplySchema(db *sql.DB, driver string) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = sqliteSchema
	case DriverPostgres:
		schema = postgresSchema
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	// One statement per Exec keeps both drivers happy.
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("could not execute schema statement %q: %w", firstLine(stmt), err)
		}
	}
	utils.LogInfo("Database schema applied", map[string]interface{}{"driver": driver})
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
