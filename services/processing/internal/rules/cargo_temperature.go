package rules

import (
	"context"
	"errors"
	"fmt"

	"github.com/afikmenashe/fleet-platform/pkg/events"
)

// CargoTemperatureID identifies the cargo temperature rule.
const CargoTemperatureID = "CARGO_TEMPERATURE_001"

// Safe cargo band in °C. Both bounds are safe.
const (
	CargoMinTemperature = 15.0
	CargoMaxTemperature = 25.0
)

var errNoCargoTemperature = errors.New("reading has no cargo temperature")

// CargoTemperature matches trucks whose cargo temperature is outside the safe band.
type CargoTemperature struct {
	min, max float64
}

func NewCargoTemperature() *CargoTemperature {
	return &CargoTemperature{min: CargoMinTemperature, max: CargoMaxTemperature}
}

func (r *CargoTemperature) ID() string    { return CargoTemperatureID }
func (r *CargoTemperature) Name() string  { return "Cargo Temperature" }
func (r *CargoTemperature) Priority() int { return 1 }

func (r *CargoTemperature) Evaluate(t events.VehicleTelemetry) (bool, error) {
	if t.VehicleType != events.VehicleTypeTruck || t.CargoTemperature == nil {
		return false, nil
	}
	temp := *t.CargoTemperature
	return temp < r.min || temp > r.max, nil
}

// status reports LOW or HIGH for an out-of-band temperature.
func (r *CargoTemperature) status(temp float64) string {
	if temp < r.min {
		return "LOW"
	}
	return "HIGH"
}

func (r *CargoTemperature) ExecuteActions(ctx context.Context, t events.VehicleTelemetry, env Env) error {
	if t.CargoTemperature == nil {
		return errNoCargoTemperature
	}
	temp := *t.CargoTemperature
	status := r.status(temp)

	env.logger().Warn("Cargo temperature out of range",
		"vehicle_id", t.VehicleID,
		"temperature", temp,
		"status", status,
	)

	alert := &events.CargoTemperatureAlert{
		Alert: env.newAlert(r, t, events.AlertTypeCargoTemperature, events.SeverityMedium,
			fmt.Sprintf("Cargo temperature %s on vehicle %s: %.1f°C", status, t.VehicleID, temp)),
		Temperature: temp,
		Status:      status,
		Limits:      events.TemperatureLimits{Min: r.min, Max: r.max},
	}
	if err := env.Publisher.PublishAlert(ctx, alert); err != nil {
		return fmt.Errorf("failed to publish cargo temperature alert: %w", err)
	}
	return nil
}
