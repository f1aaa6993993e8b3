// Package database records emergency handling in PostgreSQL.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/afikmenashe/fleet-platform/pkg/shared"
)

// ErrEmergencyNotFound is returned when no emergency_signals row matches the id.
var ErrEmergencyNotFound = errors.New("emergency not found")

// DB wraps the emergency_signals table.
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

// MarkActive flags the emergency as open.
func (db *DB) MarkActive(ctx context.Context, emergencyID string) error {
	query := `
		UPDATE emergency_signals
		SET is_resolved = false, resolved_at = NULL
		WHERE emergency_id = $1
	`
	return db.execOne(ctx, "mark emergency active", query, emergencyID)
}

// RecordResponse stores how long the dispatch took and whether it missed the SLA.
func (db *DB) RecordResponse(ctx context.Context, emergencyID string, elapsedMs int64, breached bool) error {
	query := `
		UPDATE emergency_signals
		SET response_time_ms = $2, sla_breached = $3
		WHERE emergency_id = $1
	`
	return db.execOne(ctx, "record emergency response", query, emergencyID, elapsedMs, breached)
}

func (db *DB) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %v", ErrEmergencyNotFound, args[0])
	}
	return nil
}
