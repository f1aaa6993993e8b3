package processor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/afikmenashe/fleet-platform/pkg/events"
	"github.com/afikmenashe/fleet-platform/services/emergency/internal/dispatch"
	"github.com/segmentio/kafka-go"
)

// FakeReader serves Messages in order, then cancels the loop via OnDrained.
type FakeReader struct {
	Messages  []kafka.Message
	FetchErrs []error
	CommitErr error
	OnDrained func()

	index     int
	Committed []kafka.Message
}

func (f *FakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.FetchErrs) > 0 {
		err := f.FetchErrs[0]
		f.FetchErrs = f.FetchErrs[1:]
		return kafka.Message{}, err
	}
	if f.index >= len(f.Messages) {
		if f.OnDrained != nil {
			f.OnDrained()
		}
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := f.Messages[f.index]
	f.index++
	return msg, nil
}

func (f *FakeReader) CommitMessage(ctx context.Context, msg kafka.Message) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if f.CommitErr != nil {
		return f.CommitErr
	}
	f.Committed = append(f.Committed, msg)
	return nil
}

// FakeDispatcher records every signal and returns Outcomes/Err.
type FakeDispatcher struct {
	Seen     []events.EmergencySignal
	Outcomes []dispatch.Outcome
	Err      error
}

func (f *FakeDispatcher) Dispatch(_ context.Context, e events.EmergencySignal) ([]dispatch.Outcome, error) {
	f.Seen = append(f.Seen, e)
	return f.Outcomes, f.Err
}

// FakeStore records store calls.
type FakeStore struct {
	Active    []string
	Responses map[string]bool
	Err       error
}

func (f *FakeStore) MarkActive(_ context.Context, id string) error {
	f.Active = append(f.Active, id)
	return f.Err
}

func (f *FakeStore) RecordResponse(_ context.Context, id string, _ int64, breached bool) error {
	if f.Responses == nil {
		f.Responses = make(map[string]bool)
	}
	f.Responses[id] = breached
	return f.Err
}

// FakeMetrics is a test fake for MetricsRecorder that tracks calls.
type FakeMetrics struct {
	mu             sync.Mutex
	ReceivedCount  int
	ProcessedCount int
	ErrorCount     int
	Custom         map[string]uint64
}

func NewFakeMetrics() *FakeMetrics {
	return &FakeMetrics{Custom: make(map[string]uint64)}
}

func (f *FakeMetrics) RecordReceived()               { f.mu.Lock(); f.ReceivedCount++; f.mu.Unlock() }
func (f *FakeMetrics) RecordProcessed(time.Duration) { f.mu.Lock(); f.ProcessedCount++; f.mu.Unlock() }
func (f *FakeMetrics) RecordError()                  { f.mu.Lock(); f.ErrorCount++; f.mu.Unlock() }
func (f *FakeMetrics) IncrementCustom(name string) {
	f.mu.Lock()
	f.Custom[name]++
	f.mu.Unlock()
}

// stepClock advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		t := now
		now = now.Add(step)
		return t
	}
}

var errBroker = errors.New("broker unavailable")
