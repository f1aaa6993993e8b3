package producer

import (
	"context"
	"log/slog"

	"github.com/afikmenashe/fleet-platform/pkg/events"
)

// MockProducer logs events instead of publishing them. Useful without a Kafka instance.
type MockProducer struct{}

var _ EventPublisher = (*MockProducer)(nil)

// NewMock creates a producer that only logs.
func NewMock() *MockProducer {
	slog.Info("Using mock producer (no Kafka connection)")
	return &MockProducer{}
}

func (MockProducer) PublishTelemetry(_ context.Context, t events.VehicleTelemetry) error {
	slog.Debug("Mock publish telemetry",
		"vehicle_id", t.VehicleID,
		"speed", t.Speed,
		"is_moving", t.IsMoving,
		"cargo_temperature", t.CargoTemperature,
	)
	return nil
}

func (MockProducer) PublishEmergency(_ context.Context, e events.EmergencySignal) error {
	slog.Info("Mock publish emergency",
		"emergency_id", e.EmergencyID,
		"vehicle_id", e.VehicleID,
		"emergency_type", e.EmergencyType.String(),
	)
	return nil
}

func (MockProducer) Close() error { return nil }
