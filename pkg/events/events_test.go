package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDecodeTelemetry(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantErr     error
		wantPlanned bool
		wantCargo   bool
	}{
		{
			name:    "camelCase with nulls",
			payload: `{"telemetryId":"t-1","vehicleId":"TRUCK001","vehicleType":1,"speed":90,"isMoving":true,"engineOn":true,"cargoTemperature":null,"cargoStatus":null,"isPlannedStop":null,"timestamp":"2024-05-01T10:00:00Z"}`,
		},
		{
			name:        "PascalCase producer",
			payload:     `{"TelemetryId":"t-2","VehicleId":"TRUCK002","VehicleType":1,"CargoTemperature":27.5,"IsPlannedStop":true,"Timestamp":"2024-05-01T10:00:00Z"}`,
			wantPlanned: true,
			wantCargo:   true,
		},
		{
			name:    "missing vehicle",
			payload: `{"telemetryId":"t-3","vehicleType":2}`,
			wantErr: ErrMissingVehicleID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeTelemetry([]byte(tt.payload))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DecodeTelemetry() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.PlannedStop() != tt.wantPlanned {
				t.Errorf("PlannedStop() = %v, want %v", got.PlannedStop(), tt.wantPlanned)
			}
			if (got.CargoTemperature != nil) != tt.wantCargo {
				t.Errorf("CargoTemperature present = %v, want %v", got.CargoTemperature != nil, tt.wantCargo)
			}
		})
	}
}

func TestDecodeTelemetry_Malformed(t *testing.T) {
	if _, err := DecodeTelemetry([]byte(`{not json`)); err == nil {
		t.Error("DecodeTelemetry() error = nil, want error")
	}
}

func TestDecodeEmergency(t *testing.T) {
	payload := `{"emergencyId":"e-1","vehicleId":"CAR001","emergencyType":4,"source":"sensor","latitude":4.6,"longitude":-74.08,"description":"crash","additionalData":null,"createdAt":"2024-05-01T10:00:00Z","priority":"HIGH"}`

	got, err := DecodeEmergency([]byte(payload))
	if err != nil {
		t.Fatalf("DecodeEmergency() error = %v", err)
	}
	if got.EmergencyType != EmergencyAccident {
		t.Errorf("EmergencyType = %v, want Accident", got.EmergencyType)
	}
	if got.AdditionalData != nil {
		t.Errorf("AdditionalData = %v, want nil", *got.AdditionalData)
	}
	if want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC); !got.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want)
	}
}

func TestEmergencyType_Names(t *testing.T) {
	tests := []struct {
		typ         EmergencyType
		name        string
		displayName string
		valid       bool
	}{
		{EmergencyPanicButton, "PanicButton", "PANIC BUTTON", true},
		{EmergencyMechanical, "Mechanical", "MECHANICAL ISSUE", true},
		{EmergencySecurity, "Security", "SECURITY THREAT", true},
		{EmergencyAccident, "Accident", "ACCIDENT", true},
		{EmergencyTheft, "Theft", "THEFT", true},
		{EmergencyNone, "None", "UNKNOWN EMERGENCY", false},
		{EmergencyType(42), "EmergencyType(42)", "UNKNOWN EMERGENCY", false},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if got := tt.typ.DisplayName(); got != tt.displayName {
			t.Errorf("DisplayName() = %q, want %q", got, tt.displayName)
		}
		if got := tt.typ.Valid(); got != tt.valid {
			t.Errorf("%v.Valid() = %v, want %v", tt.typ, got, tt.valid)
		}
	}
}

func TestSpeedLimitAlert_FlattensFields(t *testing.T) {
	alert := &SpeedLimitAlert{
		Alert: Alert{
			AlertID:   "a-1",
			RuleID:    "SPEED_LIMIT_001",
			VehicleID: "TRUCK001",
			AlertType: AlertTypeSpeedLimitExceeded,
			Severity:  SeverityHigh,
			Location:  Location{Latitude: 4.6, Longitude: -74.08},
		},
		Speed: 90,
		Limit: 80,
	}

	data, err := json.Marshal(alert)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if obj["limit"] != 80.0 || obj["speed"] != 90.0 {
		t.Errorf("speed/limit = %v/%v, want 90/80 at top level", obj["speed"], obj["limit"])
	}
	if _, nested := obj["Alert"]; nested {
		t.Errorf("common fields nested under Alert, want flattened: %s", data)
	}

	header, err := DecodeAlert(data)
	if err != nil {
		t.Fatalf("DecodeAlert() error = %v", err)
	}
	if header.AlertType != AlertTypeSpeedLimitExceeded || header.VehicleID != "TRUCK001" {
		t.Errorf("DecodeAlert() = %+v, want SpeedLimitExceeded for TRUCK001", header)
	}
}

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{name: "zoned", raw: `"2024-05-01T10:00:00Z"`, want: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{name: "offset", raw: `"2024-05-01T05:00:00-05:00"`, want: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{name: "zoneless read as UTC", raw: `"2024-05-01T10:00:00"`, want: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{name: "seven digit fraction", raw: `"2024-05-01T10:00:00.1234567"`, want: time.Date(2024, 5, 1, 10, 0, 0, 123456700, time.UTC)},
		{name: "seven digit fraction zoned", raw: `"2024-05-01T10:00:00.1234567Z"`, want: time.Date(2024, 5, 1, 10, 0, 0, 123456700, time.UTC)},
		{name: "null", raw: `null`},
		{name: "garbage", raw: `"yesterday"`, wantErr: true},
		{name: "number", raw: `1714557600`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			err := json.Unmarshal([]byte(tt.raw), &ts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && !ts.Equal(tt.want) {
				t.Errorf("Unmarshal() = %v, want %v", ts.Time, tt.want)
			}
		})
	}
}

func TestDecode_ZonelessTimestamps(t *testing.T) {
	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tel, err := DecodeTelemetry([]byte(`{"VehicleId":"TRUCK001","VehicleType":1,"Speed":90,"Timestamp":"2024-05-01T10:00:00"}`))
	if err != nil {
		t.Fatalf("DecodeTelemetry() error = %v", err)
	}
	if !tel.Timestamp.Equal(want) || tel.Speed != 90 || tel.VehicleType != VehicleTypeTruck {
		t.Errorf("DecodeTelemetry() = %+v, want speed 90 truck at %v", tel, want)
	}

	em, err := DecodeEmergency([]byte(`{"vehicleId":"CAR001","emergencyType":4,"createdAt":"2024-05-01T10:00:00"}`))
	if err != nil {
		t.Fatalf("DecodeEmergency() error = %v", err)
	}
	if !em.CreatedAt.Equal(want) || em.EmergencyType != EmergencyAccident {
		t.Errorf("DecodeEmergency() = %+v, want accident at %v", em, want)
	}

	out, err := json.Marshal(tel)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var back VehicleTelemetry
	if err := json.Unmarshal(out, &back); err != nil || !back.Timestamp.Equal(want) {
		t.Errorf("re-decoded timestamp = %v (err %v), want %v", back.Timestamp, err, want)
	}
}
