// Package database stores accepted telemetry readings and emergency signals in PostgreSQL.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/afikmenashe/fleet-platform/pkg/events"
	"github.com/afikmenashe/fleet-platform/pkg/shared"
	"github.com/lib/pq"
)

// ErrVehicleNotFound is returned when a reading or signal references an unregistered vehicle.
var ErrVehicleNotFound = errors.New("vehicle not found")

// foreignKeyViolation is the Postgres error code raised when the vehicle row is missing.
const foreignKeyViolation = "23503"

// DB wraps the vehicles, vehicle_telemetry and emergency_signals tables.
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

// VehicleExists reports whether the vehicle is registered and active.
func (db *DB) VehicleExists(ctx context.Context, vehicleID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM vehicles WHERE vehicle_id = $1 AND is_active)`
	var exists bool
	if err := db.conn.QueryRowContext(ctx, query, vehicleID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to look up vehicle: %w", err)
	}
	return exists, nil
}

// InsertTelemetry stores one reading.
func (db *DB) InsertTelemetry(ctx context.Context, t events.VehicleTelemetry) error {
	query := `
		INSERT INTO vehicle_telemetry (
			telemetry_id, vehicle_id, vehicle_type, latitude, longitude, speed, direction,
			is_moving, engine_on, fuel_level, cargo_temperature, cargo_status, is_planned_stop, timestamp
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := db.conn.ExecContext(ctx, query,
		t.TelemetryID, t.VehicleID, int(t.VehicleType), t.Latitude, t.Longitude, t.Speed, t.Direction,
		t.IsMoving, t.EngineOn, t.FuelLevel, t.CargoTemperature, t.CargoStatus, t.IsPlannedStop, t.Timestamp,
	)
	if err != nil {
		return wrapInsertError("telemetry", t.VehicleID, err)
	}
	return nil
}

// InsertEmergency stores a new, unresolved emergency signal.
func (db *DB) InsertEmergency(ctx context.Context, e events.EmergencySignal) error {
	query := `
		INSERT INTO emergency_signals (
			emergency_id, vehicle_id, emergency_type, source, latitude, longitude,
			description, additional_data, is_resolved, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, $9)
	`
	_, err := db.conn.ExecContext(ctx, query,
		e.EmergencyID, e.VehicleID, int(e.EmergencyType), e.Source, e.Latitude, e.Longitude,
		e.Description, e.AdditionalData, e.CreatedAt,
	)
	if err != nil {
		return wrapInsertError("emergency", e.VehicleID, err)
	}
	return nil
}

func wrapInsertError(what, vehicleID string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == foreignKeyViolation {
		return fmt.Errorf("%w: %s", ErrVehicleNotFound, vehicleID)
	}
	return fmt.Errorf("failed to insert %s: %w", what, err)
}
