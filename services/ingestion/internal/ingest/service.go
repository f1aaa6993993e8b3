// Package ingest validates, stores and publishes vehicle readings and emergency signals.
// HTTP handlers and the MQTT bridge both feed it.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/afikmenashe/fleet-platform/pkg/events"
	"github.com/afikmenashe/fleet-platform/services/ingestion/internal/database"
	"github.com/google/uuid"
)

var (
	// ErrVehicleNotFound is returned when the vehicle is not registered.
	ErrVehicleNotFound = database.ErrVehicleNotFound
	// ErrInvalidRequest is returned for payloads that cannot be accepted.
	ErrInvalidRequest = errors.New("invalid request")
)

// Store persists accepted events.
type Store interface {
	VehicleExists(ctx context.Context, vehicleID string) (bool, error)
	InsertTelemetry(ctx context.Context, t events.VehicleTelemetry) error
	InsertEmergency(ctx context.Context, e events.EmergencySignal) error
}

// Publisher forwards accepted events to Kafka.
type Publisher interface {
	PublishTelemetry(ctx context.Context, t events.VehicleTelemetry) error
	PublishEmergency(ctx context.Context, e events.EmergencySignal) error
}

// MetricsRecorder counts accepted and rejected events.
type MetricsRecorder interface {
	RecordPublished()
	IncrementCustom(name string)
}

// NoOpMetrics discards every measurement.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordPublished()       {}
func (NoOpMetrics) IncrementCustom(string) {}

// Service is the single entry point for accepted data.
type Service struct {
	store     Store
	publisher Publisher
	metrics   MetricsRecorder
	newID     func() string
	now       func() time.Time
}

// NewService creates an ingest service.
func NewService(store Store, publisher Publisher) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		metrics:   NoOpMetrics{},
		newID:     uuid.NewString,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetMetrics installs a metrics recorder. A nil recorder is ignored.
func (s *Service) SetMetrics(m MetricsRecorder) {
	if m != nil {
		s.metrics = m
	}
}

// IngestTelemetry assigns a telemetry id, stores the reading and publishes it.
// A reading without a timestamp is stamped with the receive time.
func (s *Service) IngestTelemetry(ctx context.Context, t events.VehicleTelemetry) (events.VehicleTelemetry, error) {
	if t.VehicleID == "" {
		return t, fmt.Errorf("%w: %w", ErrInvalidRequest, events.ErrMissingVehicleID)
	}
	if err := s.requireVehicle(ctx, t.VehicleID); err != nil {
		s.metrics.IncrementCustom("telemetry_rejected")
		return t, err
	}

	t.TelemetryID = s.newID()
	if t.Timestamp.IsZero() {
		t.Timestamp = s.now()
	}

	if err := s.store.InsertTelemetry(ctx, t); err != nil {
		return t, fmt.Errorf("failed to store telemetry: %w", err)
	}
	if err := s.publisher.PublishTelemetry(ctx, t); err != nil {
		s.metrics.IncrementCustom("telemetry_publish_failed")
		return t, err
	}

	s.metrics.RecordPublished()
	s.metrics.IncrementCustom("telemetry_accepted")
	slog.Info("Telemetry received", "vehicle_id", t.VehicleID, "telemetry_id", t.TelemetryID)
	return t, nil
}

// IngestEmergency assigns an emergency id, stores the unresolved signal and publishes
// it with high priority.
func (s *Service) IngestEmergency(ctx context.Context, e events.EmergencySignal) (events.EmergencySignal, error) {
	slog.Warn("EMERGENCY signal received",
		"vehicle_id", e.VehicleID,
		"emergency_type", e.EmergencyType.String(),
	)
	if e.VehicleID == "" {
		return e, fmt.Errorf("%w: %w", ErrInvalidRequest, events.ErrMissingVehicleID)
	}
	if err := s.requireVehicle(ctx, e.VehicleID); err != nil {
		slog.Error("Emergency vehicle not found", "vehicle_id", e.VehicleID, "error", err)
		s.metrics.IncrementCustom("emergency_rejected")
		return e, err
	}

	e.EmergencyID = s.newID()
	e.CreatedAt = s.now()
	e.Priority = events.PriorityHigh

	if err := s.store.InsertEmergency(ctx, e); err != nil {
		return e, fmt.Errorf("failed to store emergency: %w", err)
	}
	if err := s.publisher.PublishEmergency(ctx, e); err != nil {
		s.metrics.IncrementCustom("emergency_publish_failed")
		return e, err
	}

	s.metrics.RecordPublished()
	s.metrics.IncrementCustom("emergency_accepted")
	slog.Warn("Emergency processed successfully",
		"emergency_id", e.EmergencyID,
		"vehicle_id", e.VehicleID,
	)
	return e, nil
}

func (s *Service) requireVehicle(ctx context.Context, vehicleID string) error {
	exists, err := s.store.VehicleExists(ctx, vehicleID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrVehicleNotFound, vehicleID)
	}
	return nil
}
