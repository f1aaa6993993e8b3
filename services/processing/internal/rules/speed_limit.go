package rules

import (
	"context"
	"fmt"

	"github.com/afikmenashe/fleet-platform/pkg/events"
)

// SpeedLimitID identifies the speed limit rule.
const SpeedLimitID = "SPEED_LIMIT_001"

// DefaultSpeedLimits are the per-class limits in km/h.
var DefaultSpeedLimits = map[events.VehicleType]float64{
	events.VehicleTypeTruck:      80,
	events.VehicleTypeCar:        100,
	events.VehicleTypeMotorcycle: 60,
	events.VehicleTypeTaxi:       60,
	events.VehicleTypeBus:        80,
}

// SpeedLimit matches a reading faster than the limit for its vehicle class.
// Classes without a limit never match.
type SpeedLimit struct {
	limits map[events.VehicleType]float64
}

// NewSpeedLimit returns the rule with DefaultSpeedLimits.
func NewSpeedLimit() *SpeedLimit {
	limits := make(map[events.VehicleType]float64, len(DefaultSpeedLimits))
	for k, v := range DefaultSpeedLimits {
		limits[k] = v
	}
	return &SpeedLimit{limits: limits}
}

func (r *SpeedLimit) ID() string    { return SpeedLimitID }
func (r *SpeedLimit) Name() string  { return "Speed Limit" }
func (r *SpeedLimit) Priority() int { return 1 }

// Limit returns the limit for a vehicle class.
func (r *SpeedLimit) Limit(v events.VehicleType) (float64, bool) {
	limit, ok := r.limits[v]
	return limit, ok
}

func (r *SpeedLimit) Evaluate(t events.VehicleTelemetry) (bool, error) {
	limit, ok := r.Limit(t.VehicleType)
	if !ok {
		return false, nil
	}
	return t.Speed > limit, nil
}

func (r *SpeedLimit) ExecuteActions(ctx context.Context, t events.VehicleTelemetry, env Env) error {
	limit, ok := r.Limit(t.VehicleType)
	if !ok {
		return fmt.Errorf("no speed limit for vehicle type %v", t.VehicleType)
	}

	env.logger().Warn("Speed limit exceeded",
		"vehicle_id", t.VehicleID,
		"speed", t.Speed,
		"limit", limit,
	)

	alert := &events.SpeedLimitAlert{
		Alert: env.newAlert(r, t, events.AlertTypeSpeedLimitExceeded, events.SeverityHigh,
			fmt.Sprintf("Vehicle %s exceeded speed limit: %.1f km/h (limit %.1f km/h)", t.VehicleID, t.Speed, limit)),
		Speed: t.Speed,
		Limit: limit,
	}
	if err := env.Publisher.PublishAlert(ctx, alert); err != nil {
		return fmt.Errorf("failed to publish speed limit alert: %w", err)
	}
	return nil
}
