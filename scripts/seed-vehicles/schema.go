package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/afikmenashe/fleet-platform/pkg/fleet"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS vehicles (
		vehicle_id    TEXT PRIMARY KEY,
		license_plate TEXT NOT NULL UNIQUE,
		vehicle_type  INTEGER NOT NULL,
		owner_id      TEXT,
		owner_phone   TEXT,
		model         TEXT,
		brand         TEXT,
		year          INTEGER,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS vehicle_telemetry (
		telemetry_id      TEXT PRIMARY KEY,
		vehicle_id        TEXT NOT NULL REFERENCES vehicles (vehicle_id),
		vehicle_type      INTEGER NOT NULL,
		latitude          DOUBLE PRECISION NOT NULL,
		longitude         DOUBLE PRECISION NOT NULL,
		speed             DOUBLE PRECISION NOT NULL,
		direction         DOUBLE PRECISION NOT NULL,
		is_moving         BOOLEAN NOT NULL,
		engine_on         BOOLEAN NOT NULL,
		fuel_level        DOUBLE PRECISION NOT NULL,
		cargo_temperature DOUBLE PRECISION,
		cargo_status      TEXT,
		is_planned_stop   BOOLEAN,
		timestamp         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vehicle_telemetry_vehicle_ts ON vehicle_telemetry (vehicle_id, timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS emergency_signals (
		emergency_id     TEXT PRIMARY KEY,
		vehicle_id       TEXT NOT NULL REFERENCES vehicles (vehicle_id),
		emergency_type   INTEGER NOT NULL,
		source           TEXT,
		latitude         DOUBLE PRECISION NOT NULL,
		longitude        DOUBLE PRECISION NOT NULL,
		description      TEXT,
		additional_data  TEXT,
		is_resolved      BOOLEAN NOT NULL DEFAULT FALSE,
		resolved_at      TIMESTAMPTZ,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		response_time_ms BIGINT,
		sla_breached     BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_emergency_signals_open ON emergency_signals (is_resolved, created_at)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		notification_id TEXT PRIMARY KEY,
		vehicle_id      TEXT,
		rule_id         TEXT,
		action_id       TEXT,
		type            TEXT NOT NULL,
		channel         TEXT NOT NULL,
		recipient       TEXT NOT NULL,
		subject         TEXT,
		message         TEXT NOT NULL,
		severity        TEXT,
		is_sent         BOOLEAN NOT NULL DEFAULT FALSE,
		error_message   TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		sent_at         TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications (created_at)`,
}

// applySchema creates any missing tables and indexes.
func applySchema(ctx context.Context, db execer) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// cleanDatabase removes all rows, children first to respect foreign keys.
func cleanDatabase(ctx context.Context, db execer) error {
	queries := []string{
		"DELETE FROM notifications",
		"DELETE FROM emergency_signals",
		"DELETE FROM vehicle_telemetry",
		"DELETE FROM vehicles",
	}
	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// upsertVehicle inserts v or refreshes its registry fields and reactivates it.
func upsertVehicle(ctx context.Context, db execer, v fleet.Vehicle) error {
	query := `
		INSERT INTO vehicles (vehicle_id, license_plate, vehicle_type, owner_id, owner_phone, model, brand, year, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
		ON CONFLICT (vehicle_id) DO UPDATE SET
			license_plate = EXCLUDED.license_plate,
			vehicle_type  = EXCLUDED.vehicle_type,
			owner_id      = EXCLUDED.owner_id,
			owner_phone   = EXCLUDED.owner_phone,
			model         = EXCLUDED.model,
			brand         = EXCLUDED.brand,
			year          = EXCLUDED.year,
			is_active     = TRUE
	`
	_, err := db.ExecContext(ctx, query,
		v.ID, v.LicensePlate, int(v.Type), v.OwnerID, v.OwnerPhone, v.Model, v.Brand, v.Year,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert vehicle %s: %w", v.ID, err)
	}
	return nil
}

// seedVehicles upserts the roster inside one transaction.
func seedVehicles(ctx context.Context, db *sql.DB, vehicles []fleet.Vehicle) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, v := range vehicles {
		if err := upsertVehicle(ctx, tx, v); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit vehicles: %w", err)
	}
	return nil
}
