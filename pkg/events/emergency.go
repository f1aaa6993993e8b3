package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Header keys set on emergency topic messages.
const (
	HeaderPriority      = "priority"
	HeaderEmergencyType = "emergency_type"
)

// PriorityHigh is the only priority emergencies are published with.
const PriorityHigh = "HIGH"

// PriorityHeaderHigh is the single-byte value of the priority header for PriorityHigh.
const PriorityHeaderHigh byte = 0x01

// EmergencyType is the kind of emergency a vehicle signalled.
type EmergencyType int

const (
	EmergencyNone          EmergencyType = 0
	EmergencyPanicButton   EmergencyType = 1
	EmergencyMechanical    EmergencyType = 2
	EmergencySecurity      EmergencyType = 3
	EmergencyAccident      EmergencyType = 4
	EmergencyUnplannedStop EmergencyType = 5
	EmergencyTheft         EmergencyType = 6
)

var emergencyTypeNames = map[EmergencyType]string{
	EmergencyNone:          "None",
	EmergencyPanicButton:   "PanicButton",
	EmergencyMechanical:    "Mechanical",
	EmergencySecurity:      "Security",
	EmergencyAccident:      "Accident",
	EmergencyUnplannedStop: "UnplannedStop",
	EmergencyTheft:         "Theft",
}

// String returns the enum name, which is also the emergency_type header value.
func (e EmergencyType) String() string {
	if name, ok := emergencyTypeNames[e]; ok {
		return name
	}
	return fmt.Sprintf("EmergencyType(%d)", int(e))
}

// DisplayName is the upper-case label used in operator notifications.
func (e EmergencyType) DisplayName() string {
	switch e {
	case EmergencyPanicButton:
		return "PANIC BUTTON"
	case EmergencyMechanical:
		return "MECHANICAL ISSUE"
	case EmergencySecurity:
		return "SECURITY THREAT"
	case EmergencyAccident:
		return "ACCIDENT"
	case EmergencyUnplannedStop:
		return "UNPLANNED STOP"
	case EmergencyTheft:
		return "THEFT"
	default:
		return "UNKNOWN EMERGENCY"
	}
}

// Valid reports whether e is a signalable emergency (None is not).
func (e EmergencyType) Valid() bool {
	return e >= EmergencyPanicButton && e <= EmergencyTheft
}

// EmergencySignal is an emergency raised by or for a vehicle.
type EmergencySignal struct {
	EmergencyID    string        `json:"emergencyId"`
	VehicleID      string        `json:"vehicleId"`
	EmergencyType  EmergencyType `json:"emergencyType"`
	Source         string        `json:"source"`
	Latitude       float64       `json:"latitude"`
	Longitude      float64       `json:"longitude"`
	Description    string        `json:"description"`
	AdditionalData *string       `json:"additionalData"`
	CreatedAt      time.Time     `json:"createdAt"`
	Priority       string        `json:"priority"`
}

// Location returns where the emergency was raised.
func (e EmergencySignal) Location() Location {
	return Location{Latitude: e.Latitude, Longitude: e.Longitude}
}

// DecodeEmergency parses an emergency topic message.
func DecodeEmergency(data []byte) (EmergencySignal, error) {
	var e EmergencySignal
	if err := json.Unmarshal(data, &e); err != nil {
		return EmergencySignal{}, fmt.Errorf("failed to unmarshal emergency: %w", err)
	}
	if e.VehicleID == "" {
		return EmergencySignal{}, fmt.Errorf("invalid emergency: %w", ErrMissingVehicleID)
	}
	return e, nil
}
