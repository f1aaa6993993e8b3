package processor

import (
	"context"
	"sync"
	"time"

	"github.com/afikmenashe/fleet-platform/pkg/events"
	"github.com/afikmenashe/fleet-platform/services/simulator/internal/generator"
)

// FakeSource cycles through Events.
type FakeSource struct {
	Events []generator.Event
	calls  int
}

func (f *FakeSource) Next() generator.Event {
	ev := f.Events[f.calls%len(f.Events)]
	f.calls++
	return ev
}

// FakePublisher records published events. FailAfter > 0 fails every telemetry write past that count.
type FakePublisher struct {
	mu          sync.Mutex
	Telemetry   []events.VehicleTelemetry
	Emergencies []events.EmergencySignal
	FailAfter   int
	Err         error
}

func (f *FakePublisher) PublishTelemetry(_ context.Context, t events.VehicleTelemetry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil && len(f.Telemetry) >= f.FailAfter {
		return f.Err
	}
	f.Telemetry = append(f.Telemetry, t)
	return nil
}

func (f *FakePublisher) PublishEmergency(_ context.Context, e events.EmergencySignal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Emergencies = append(f.Emergencies, e)
	return nil
}

func (f *FakePublisher) Close() error { return nil }

func (f *FakePublisher) telemetryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Telemetry)
}

// FakeMetrics tracks calls.
type FakeMetrics struct {
	ErrorCount     int
	ProcessedCount int
	PublishedCount int
	Custom         map[string]int
}

func NewFakeMetrics() *FakeMetrics {
	return &FakeMetrics{Custom: make(map[string]int)}
}

func (f *FakeMetrics) RecordError()                  { f.ErrorCount++ }
func (f *FakeMetrics) RecordProcessed(time.Duration) { f.ProcessedCount++ }
func (f *FakeMetrics) RecordPublished()              { f.PublishedCount++ }
func (f *FakeMetrics) IncrementCustom(name string)   { f.Custom[name]++ }
