package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Severity tags carried on alerts.
const (
	SeverityWarning = "Warning"
	SeverityMedium  = "Medium"
	SeverityHigh    = "High"
)

// Alert types published by the rules.
const (
	AlertTypeUnplannedStop      = "UnplannedStop"
	AlertTypeSpeedLimitExceeded = "SpeedLimitExceeded"
	AlertTypeCargoTemperature   = "CargoTemperature"
)

// Location is a WGS84 position.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Alert holds the fields common to every alerts topic message.
// Rule-specific payloads embed it so their extra fields sit at the top level of the JSON object.
type Alert struct {
	AlertID   string    `json:"alertId"`
	RuleID    string    `json:"ruleId"`
	RuleName  string    `json:"ruleName,omitempty"`
	VehicleID string    `json:"vehicleId"`
	AlertType string    `json:"alertType"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Location  Location  `json:"location"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertHeader returns the common fields.
func (a *Alert) AlertHeader() *Alert { return a }

// AlertMessage is any alert payload that can be published.
type AlertMessage interface {
	AlertHeader() *Alert
}

// UnplannedStopAlert is published when a running vehicle stops outside a planned stop.
type UnplannedStopAlert struct {
	Alert
	EngineOn bool `json:"engineOn"`
}

// SpeedLimitAlert is published when a vehicle exceeds the limit for its class.
type SpeedLimitAlert struct {
	Alert
	Speed float64 `json:"speed"`
	Limit float64 `json:"limit"`
}

// TemperatureLimits is the closed safe band for cargo temperature.
type TemperatureLimits struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// CargoTemperatureAlert is published when a truck's cargo leaves the safe band.
type CargoTemperatureAlert struct {
	Alert
	Temperature float64           `json:"temperature"`
	Status      string            `json:"status"` // LOW or HIGH
	Limits      TemperatureLimits `json:"limits"`
}

// DecodeAlert parses the common fields of an alerts topic message.
// Rule-specific fields are ignored; keep the raw payload to forward them.
func DecodeAlert(data []byte) (Alert, error) {
	var a Alert
	if err := json.Unmarshal(data, &a); err != nil {
		return Alert{}, fmt.Errorf("failed to unmarshal alert: %w", err)
	}
	if a.VehicleID == "" {
		return Alert{}, fmt.Errorf("invalid alert: %w", ErrMissingVehicleID)
	}
	return a, nil
}
