package database

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Dialect names one of the supported SQL backends and carries the few places
// where their SQL differs.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// ParseDialect accepts the DB_DRIVER values understood by Connect.
func ParseDialect(driver string) (Dialect, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case Postgres:
		return "pgx"
	case MySQL:
		return "mysql"
	default:
		return "sqlite"
	}
}

// TxOptions is the isolation used for every unit of work. SQLite runs on a
// single connection, so its writers are already serialized.
func (d Dialect) TxOptions() *sql.TxOptions {
	if d == SQLite {
		return nil
	}
	return &sql.TxOptions{Isolation: sql.LevelSerializable}
}

// ForUpdate is appended to SELECTs that read rows about to be mutated.
func (d Dialect) ForUpdate() string {
	if d == SQLite {
		return ""
	}
	return " FOR UPDATE"
}

// Returning reports whether inserted ids come back through RETURNING rather
// than LastInsertId.
func (d Dialect) Returning() bool {
	return d == Postgres
}

// PrimaryKey is the column definition of an auto-incrementing id.
func (d Dialect) PrimaryKey() string {
	switch d {
	case Postgres:
		return "BIGSERIAL PRIMARY KEY"
	case MySQL:
		return "BIGINT AUTO_INCREMENT PRIMARY KEY"
	default:
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
}

// Timestamp is the column type used for created_at style columns.
func (d Dialect) Timestamp() string {
	if d == MySQL {
		return "DATETIME(6)"
	}
	return "TIMESTAMP"
}

// Connect opens the database for the dialect and verifies it answers.
func Connect(d Dialect, dsn string, maxOpenConns int) (*sqlx.DB, error) {
	db, err := sqlx.Connect(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if d == SQLite {
		db.SetMaxOpenConns(1)
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
		return db, nil
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)
	return db, nil
}
