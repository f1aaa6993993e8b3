// Package vehiclestate keeps the latest reading and position of every vehicle in Redis.
package vehiclestate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/afikmenashe/fleet-platform/pkg/events"
)

const (
	// PositionsKey is the geo set holding every vehicle's last position.
	PositionsKey = "vehicles:positions"
	// StateTTL expires the hash of a vehicle that stopped reporting.
	StateTTL = 24 * time.Hour
)

// StateKey returns the hash key holding a vehicle's latest reading.
func StateKey(vehicleID string) string {
	return "vehicle:" + vehicleID
}

// Store writes live state with one pipelined round trip per reading.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Name identifies the sink in logs and metrics.
func (s *Store) Name() string { return "vehicle_state" }

// Store updates the state hash and the geo set for t.
func (s *Store) Store(ctx context.Context, t events.VehicleTelemetry) error {
	key := StateKey(t.VehicleID)

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, StateFields(t))
	pipe.Expire(ctx, key, StateTTL)
	pipe.GeoAdd(ctx, PositionsKey, &redis.GeoLocation{
		Name:      t.VehicleID,
		Longitude: t.Longitude,
		Latitude:  t.Latitude,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

// StateFields flattens a reading into hash fields. Missing optional values are stored as "".
func StateFields(t events.VehicleTelemetry) map[string]interface{} {
	fields := map[string]interface{}{
		"telemetry_id":      t.TelemetryID,
		"vehicle_type":      int(t.VehicleType),
		"lat":               t.Latitude,
		"lng":               t.Longitude,
		"speed":             t.Speed,
		"direction":         t.Direction,
		"fuel_level":        t.FuelLevel,
		"is_moving":         t.IsMoving,
		"engine_on":         t.EngineOn,
		"cargo_temperature": "",
		"cargo_status":      "",
		"timestamp":         t.Timestamp.Unix(),
	}
	if t.CargoTemperature != nil {
		fields["cargo_temperature"] = *t.CargoTemperature
	}
	if t.CargoStatus != nil {
		fields["cargo_status"] = *t.CargoStatus
	}
	return fields
}
