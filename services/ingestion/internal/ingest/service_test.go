package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/afikmenashe/fleet-platform/pkg/events"
)

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestService(store *FakeStore, pub *FakePublisher) (*Service, *FakeMetrics) {
	s := NewService(store, pub)
	s.newID = func() string { return "id-1" }
	s.now = func() time.Time { return fixedNow }
	m := &FakeMetrics{}
	s.SetMetrics(m)
	return s, m
}

func knownFleet() *FakeStore {
	return &FakeStore{Vehicles: map[string]bool{"TRUCK001": true}}
}

func TestIngestTelemetry(t *testing.T) {
	stamped := time.Date(2024, 4, 30, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		name          string
		reading       events.VehicleTelemetry
		store         *FakeStore
		pubErr        error
		wantErr       error
		wantAnyErr    bool
		wantStored    int
		wantPublished int
		wantTimestamp time.Time
	}{
		{
			name:          "accepted with receive time",
			reading:       events.VehicleTelemetry{VehicleID: "TRUCK001", Speed: 80},
			store:         knownFleet(),
			wantStored:    1,
			wantPublished: 1,
			wantTimestamp: fixedNow,
		},
		{
			name:          "keeps vehicle timestamp",
			reading:       events.VehicleTelemetry{VehicleID: "TRUCK001", Timestamp: stamped},
			store:         knownFleet(),
			wantStored:    1,
			wantPublished: 1,
			wantTimestamp: stamped,
		},
		{
			name:    "missing vehicle id",
			reading: events.VehicleTelemetry{Speed: 80},
			store:   knownFleet(),
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "unknown vehicle",
			reading: events.VehicleTelemetry{VehicleID: "GHOST"},
			store:   knownFleet(),
			wantErr: ErrVehicleNotFound,
		},
		{
			name:       "lookup failure",
			reading:    events.VehicleTelemetry{VehicleID: "TRUCK001"},
			store:      &FakeStore{LookupErr: errors.New("db down")},
			wantAnyErr: true,
		},
		{
			name:       "publish failure after store",
			reading:    events.VehicleTelemetry{VehicleID: "TRUCK001"},
			store:      knownFleet(),
			pubErr:     errors.New("broker down"),
			wantAnyErr: true,
			wantStored: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &FakePublisher{Err: tt.pubErr}
			s, _ := newTestService(tt.store, pub)

			got, err := s.IngestTelemetry(context.Background(), tt.reading)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("IngestTelemetry() error = %v, want %v", err, tt.wantErr)
				}
			case tt.wantAnyErr:
				if err == nil {
					t.Fatal("IngestTelemetry() error = nil, want error")
				}
			default:
				if err != nil {
					t.Fatalf("IngestTelemetry() error = %v", err)
				}
				if got.TelemetryID != "id-1" {
					t.Errorf("TelemetryID = %s, want id-1", got.TelemetryID)
				}
				if !got.Timestamp.Equal(tt.wantTimestamp) {
					t.Errorf("Timestamp = %v, want %v", got.Timestamp, tt.wantTimestamp)
				}
			}
			if len(tt.store.Telemetry) != tt.wantStored {
				t.Errorf("stored = %d, want %d", len(tt.store.Telemetry), tt.wantStored)
			}
			if len(pub.Telemetry) != tt.wantPublished {
				t.Errorf("published = %d, want %d", len(pub.Telemetry), tt.wantPublished)
			}
		})
	}
}

func TestIngestEmergency(t *testing.T) {
	store := knownFleet()
	pub := &FakePublisher{}
	s, m := newTestService(store, pub)

	in := events.EmergencySignal{
		VehicleID:     "TRUCK001",
		EmergencyType: events.EmergencyAccident,
		Source:        "driver",
		Description:   "collision",
		CreatedAt:     time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	got, err := s.IngestEmergency(context.Background(), in)
	if err != nil {
		t.Fatalf("IngestEmergency() error = %v", err)
	}

	if got.EmergencyID != "id-1" {
		t.Errorf("EmergencyID = %s, want id-1", got.EmergencyID)
	}
	if !got.CreatedAt.Equal(fixedNow) {
		t.Errorf("CreatedAt = %v, want server time %v", got.CreatedAt, fixedNow)
	}
	if got.Priority != events.PriorityHigh {
		t.Errorf("Priority = %s, want %s", got.Priority, events.PriorityHigh)
	}
	if len(store.Emergencies) != 1 || len(pub.Emergencies) != 1 {
		t.Fatalf("stored/published = %d/%d, want 1/1", len(store.Emergencies), len(pub.Emergencies))
	}
	if pub.Emergencies[0].EmergencyID != store.Emergencies[0].EmergencyID {
		t.Error("published emergency id differs from stored id")
	}
	if m.Published != 1 || m.Custom["emergency_accepted"] != 1 {
		t.Errorf("published/emergency_accepted = %d/%d, want 1/1", m.Published, m.Custom["emergency_accepted"])
	}
}

func TestIngestEmergency_UnknownVehicle(t *testing.T) {
	pub := &FakePublisher{}
	s, m := newTestService(knownFleet(), pub)

	_, err := s.IngestEmergency(context.Background(), events.EmergencySignal{VehicleID: "GHOST", EmergencyType: events.EmergencyTheft})
	if !errors.Is(err, ErrVehicleNotFound) {
		t.Fatalf("IngestEmergency() error = %v, want ErrVehicleNotFound", err)
	}
	if len(pub.Emergencies) != 0 {
		t.Errorf("published = %d, want 0", len(pub.Emergencies))
	}
	if m.Custom["emergency_rejected"] != 1 {
		t.Errorf("emergency_rejected = %d, want 1", m.Custom["emergency_rejected"])
	}
}

func TestIngestEmergency_StoreFailureSkipsPublish(t *testing.T) {
	store := knownFleet()
	store.InsertErr = errors.New("disk full")
	pub := &FakePublisher{}
	s, _ := newTestService(store, pub)

	if _, err := s.IngestEmergency(context.Background(), events.EmergencySignal{VehicleID: "TRUCK001"}); err == nil {
		t.Fatal("IngestEmergency() error = nil, want error")
	}
	if len(pub.Emergencies) != 0 {
		t.Errorf("published = %d, want 0", len(pub.Emergencies))
	}
}
