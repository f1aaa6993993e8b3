package ingest

import (
	"context"
	"sync"

	"github.com/afikmenashe/fleet-platform/pkg/events"
)

// FakeStore knows the vehicles in Vehicles and records inserts.
type FakeStore struct {
	mu          sync.Mutex
	Vehicles    map[string]bool
	LookupErr   error
	InsertErr   error
	Telemetry   []events.VehicleTelemetry
	Emergencies []events.EmergencySignal
}

func (f *FakeStore) VehicleExists(_ context.Context, vehicleID string) (bool, error) {
	if f.LookupErr != nil {
		return false, f.LookupErr
	}
	return f.Vehicles[vehicleID], nil
}

func (f *FakeStore) InsertTelemetry(_ context.Context, t events.VehicleTelemetry) error {
	if f.InsertErr != nil {
		return f.InsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Telemetry = append(f.Telemetry, t)
	return nil
}

func (f *FakeStore) InsertEmergency(_ context.Context, e events.EmergencySignal) error {
	if f.InsertErr != nil {
		return f.InsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Emergencies = append(f.Emergencies, e)
	return nil
}

// FakePublisher records published events.
type FakePublisher struct {
	Err         error
	Telemetry   []events.VehicleTelemetry
	Emergencies []events.EmergencySignal
}

func (f *FakePublisher) PublishTelemetry(_ context.Context, t events.VehicleTelemetry) error {
	if f.Err != nil {
		return f.Err
	}
	f.Telemetry = append(f.Telemetry, t)
	return nil
}

func (f *FakePublisher) PublishEmergency(_ context.Context, e events.EmergencySignal) error {
	if f.Err != nil {
		return f.Err
	}
	f.Emergencies = append(f.Emergencies, e)
	return nil
}

// FakeMetrics counts calls.
type FakeMetrics struct {
	Published int
	Custom    map[string]int
}

func (f *FakeMetrics) RecordPublished() { f.Published++ }
func (f *FakeMetrics) IncrementCustom(name string) {
	if f.Custom == nil {
		f.Custom = map[string]int{}
	}
	f.Custom[name]++
}
