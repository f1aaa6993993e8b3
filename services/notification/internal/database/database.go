// Package database provides vehicle lookups and notification bookkeeping.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/afikmenashe/fleet-platform/pkg/shared"
)

// ErrVehicleNotFound is returned when no vehicles row matches the id.
var ErrVehicleNotFound = errors.New("vehicle not found")

// Vehicle is the subset of the vehicles table notifications need.
type Vehicle struct {
	VehicleID    string
	LicensePlate string
	VehicleType  int
	OwnerID      string
	OwnerPhone   string
	Brand        string
	Model        string
}

// Channels a notification can be delivered on.
const (
	ChannelEmail   = "email"
	ChannelSMS     = "sms"
	ChannelSlack   = "slack"
	ChannelWebhook = "webhook"
)

// Notification represents a notifications row.
type Notification struct {
	NotificationID string
	VehicleID      string
	RuleID         string
	ActionID       string
	Type           string // emergency or alert
	Channel        string
	Recipient      string
	Subject        string
	Message        string
	Severity       string
	IsSent         bool
	ErrorMessage   *string
	CreatedAt      time.Time
	SentAt         *time.Time
}

// DB wraps a database connection and provides vehicle and notification operations.
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

// GetVehicle looks up an active or inactive vehicle by id.
func (db *DB) GetVehicle(ctx context.Context, vehicleID string) (*Vehicle, error) {
	query := `
		SELECT vehicle_id, license_plate, vehicle_type, COALESCE(owner_id, ''), COALESCE(owner_phone, ''),
		       COALESCE(brand, ''), COALESCE(model, '')
		FROM vehicles
		WHERE vehicle_id = $1
	`
	var v Vehicle
	err := db.conn.QueryRowContext(ctx, query, vehicleID).Scan(
		&v.VehicleID,
		&v.LicensePlate,
		&v.VehicleType,
		&v.OwnerID,
		&v.OwnerPhone,
		&v.Brand,
		&v.Model,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrVehicleNotFound, vehicleID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return &v, nil
}

// CreateNotification inserts n as unsent. CreatedAt is set by the database.
func (db *DB) CreateNotification(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (notification_id, vehicle_id, rule_id, action_id, type, channel, recipient, subject, message, severity, is_sent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, false)
		RETURNING created_at
	`
	err := db.conn.QueryRowContext(ctx, query,
		n.NotificationID,
		n.VehicleID,
		n.RuleID,
		n.ActionID,
		n.Type,
		n.Channel,
		n.Recipient,
		n.Subject,
		n.Message,
		n.Severity,
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	n.IsSent = false
	return nil
}

// MarkSent records a successful delivery.
func (db *DB) MarkSent(ctx context.Context, notificationID string) error {
	query := `
		UPDATE notifications
		SET is_sent = true, sent_at = NOW(), error_message = NULL
		WHERE notification_id = $1
	`
	return db.updateOne(ctx, query, notificationID)
}

// MarkFailed records a failed delivery with its error.
func (db *DB) MarkFailed(ctx context.Context, notificationID string, reason string) error {
	query := `
		UPDATE notifications
		SET is_sent = false, error_message = $2
		WHERE notification_id = $1
	`
	return db.updateOne(ctx, query, notificationID, reason)
}

func (db *DB) updateOne(ctx context.Context, query, notificationID string, args ...any) error {
	result, err := db.conn.ExecContext(ctx, query, append([]any{notificationID}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("notification not found: %s", notificationID)
	}

	slog.Debug("Updated notification", "notification_id", notificationID)
	return nil
}
