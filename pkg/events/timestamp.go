package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// zonelessLayout matches timestamps serialized without an offset, e.g. "2024-05-01T10:00:00.1234567".
// Any fractional-second length is accepted when parsing.
const zonelessLayout = "2006-01-02T15:04:05"

// Timestamp decodes RFC3339 times and, failing that, zoneless ISO-8601 times read as UTC.
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses s the way Timestamp decodes it.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(zonelessLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	ts.Time = t
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return ts.Time.MarshalJSON()
}

type telemetryFields VehicleTelemetry

// UnmarshalJSON accepts zoneless timestamps in addition to RFC3339.
func (t *VehicleTelemetry) UnmarshalJSON(data []byte) error {
	aux := struct {
		*telemetryFields
		Timestamp Timestamp `json:"timestamp"`
	}{telemetryFields: (*telemetryFields)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.Timestamp = aux.Timestamp.Time
	return nil
}

type emergencyFields EmergencySignal

// UnmarshalJSON accepts zoneless createdAt values in addition to RFC3339.
func (e *EmergencySignal) UnmarshalJSON(data []byte) error {
	aux := struct {
		*emergencyFields
		CreatedAt Timestamp `json:"createdAt"`
	}{emergencyFields: (*emergencyFields)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.CreatedAt = aux.CreatedAt.Time
	return nil
}
