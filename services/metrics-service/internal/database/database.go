// Package database provides read-only aggregate queries for the metrics service.
package database

import (
	"database/sql"
	"log/slog"

	"github.com/afikmenashe/fleet-platform/pkg/shared"
)

// DB wraps a database connection and provides read-only metrics queries.
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection using the provided DSN.
func NewDB(dsn string) (*DB, error) {
	conn, err := shared.OpenPostgres(dsn)
	if err != nil {
		return nil, err
	}
	slog.Info("Successfully connected to PostgreSQL database")
	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		slog.Info("Closing database connection")
		return db.conn.Close()
	}
	return nil
}
