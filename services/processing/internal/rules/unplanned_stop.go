package rules

import (
	"context"
	"fmt"

	"github.com/afikmenashe/fleet-platform/pkg/events"
)

// UnplannedStopID identifies the unplanned stop rule.
const UnplannedStopID = "UNPLANNED_STOP_001"

// UnplannedStop matches a vehicle that is stationary with its engine running
// outside a planned stop. An unknown planned-stop flag counts as not planned.
type UnplannedStop struct{}

func NewUnplannedStop() *UnplannedStop { return &UnplannedStop{} }

func (r *UnplannedStop) ID() string    { return UnplannedStopID }
func (r *UnplannedStop) Name() string  { return "Unplanned Stop" }
func (r *UnplannedStop) Priority() int { return 1 }

func (r *UnplannedStop) Evaluate(t events.VehicleTelemetry) (bool, error) {
	return !t.IsMoving && t.EngineOn && !t.PlannedStop(), nil
}

func (r *UnplannedStop) ExecuteActions(ctx context.Context, t events.VehicleTelemetry, env Env) error {
	env.logger().Warn("Unplanned stop detected",
		"vehicle_id", t.VehicleID,
		"latitude", t.Latitude,
		"longitude", t.Longitude,
	)

	alert := &events.UnplannedStopAlert{
		Alert: env.newAlert(r, t, events.AlertTypeUnplannedStop, events.SeverityWarning,
			fmt.Sprintf("Vehicle %s stopped unexpectedly with engine on at %.6f, %.6f", t.VehicleID, t.Latitude, t.Longitude)),
		EngineOn: t.EngineOn,
	}
	if err := env.Publisher.PublishAlert(ctx, alert); err != nil {
		return fmt.Errorf("failed to publish unplanned stop alert: %w", err)
	}
	return nil
}
