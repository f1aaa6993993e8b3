// Package events defines the JSON payloads carried on the telemetry, emergency and alerts topics.
// Keys are camelCase on the wire; decoding is case-insensitive so PascalCase producers interoperate.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMissingVehicleID is returned when a payload does not identify a vehicle.
var ErrMissingVehicleID = errors.New("vehicleId is required")

// VehicleType is the vehicle class reported with each reading.
type VehicleType int

const (
	VehicleTypeUnknown    VehicleType = 0
	VehicleTypeTruck      VehicleType = 1
	VehicleTypeCar        VehicleType = 2
	VehicleTypeMotorcycle VehicleType = 3
	VehicleTypeTaxi       VehicleType = 4
	VehicleTypeBus        VehicleType = 5
)

var vehicleTypeNames = map[VehicleType]string{
	VehicleTypeTruck:      "Truck",
	VehicleTypeCar:        "Car",
	VehicleTypeMotorcycle: "Motorcycle",
	VehicleTypeTaxi:       "Taxi",
	VehicleTypeBus:        "Bus",
}

func (v VehicleType) String() string {
	if name, ok := vehicleTypeNames[v]; ok {
		return name
	}
	return fmt.Sprintf("VehicleType(%d)", int(v))
}

// Valid reports whether v is one of the known vehicle classes.
func (v VehicleType) Valid() bool {
	_, ok := vehicleTypeNames[v]
	return ok
}

// VehicleTelemetry is one reading from a vehicle. It is treated as immutable once decoded.
type VehicleTelemetry struct {
	TelemetryID      string      `json:"telemetryId"`
	VehicleID        string      `json:"vehicleId"`
	VehicleType      VehicleType `json:"vehicleType"`
	Latitude         float64     `json:"latitude"`
	Longitude        float64     `json:"longitude"`
	Speed            float64     `json:"speed"`
	Direction        float64     `json:"direction"`
	IsMoving         bool        `json:"isMoving"`
	EngineOn         bool        `json:"engineOn"`
	FuelLevel        float64     `json:"fuelLevel"`
	CargoTemperature *float64    `json:"cargoTemperature"`
	CargoStatus      *string     `json:"cargoStatus"`
	IsPlannedStop    *bool       `json:"isPlannedStop"`
	Timestamp        time.Time   `json:"timestamp"`
}

// Location returns the reading's position.
func (t VehicleTelemetry) Location() Location {
	return Location{Latitude: t.Latitude, Longitude: t.Longitude}
}

// PlannedStop collapses the tri-state flag: unknown counts as not planned.
func (t VehicleTelemetry) PlannedStop() bool {
	return t.IsPlannedStop != nil && *t.IsPlannedStop
}

// DecodeTelemetry parses a telemetry topic message.
func DecodeTelemetry(data []byte) (VehicleTelemetry, error) {
	var t VehicleTelemetry
	if err := json.Unmarshal(data, &t); err != nil {
		return VehicleTelemetry{}, fmt.Errorf("failed to unmarshal telemetry: %w", err)
	}
	if t.VehicleID == "" {
		return VehicleTelemetry{}, fmt.Errorf("invalid telemetry: %w", ErrMissingVehicleID)
	}
	return t, nil
}
