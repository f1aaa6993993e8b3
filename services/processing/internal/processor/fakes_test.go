package processor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/afikmenashe/fleet-platform/pkg/events"
	"github.com/afikmenashe/fleet-platform/services/processing/internal/engine"
	"github.com/segmentio/kafka-go"
)

// FakeReader serves Messages in order, then cancels the loop via OnDrained.
type FakeReader struct {
	Messages  []kafka.Message
	FetchErrs []error // returned before the messages, one per call
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

// FakeEngine records every reading it is handed.
type FakeEngine struct {
	Seen   []events.VehicleTelemetry
	Result engine.Result
	// OnProcess runs inside Process, e.g. to cancel the loop mid-message.
	OnProcess func(ctx context.Context)
	CtxErr    error
}

func (f *FakeEngine) Process(ctx context.Context, t events.VehicleTelemetry) engine.Result {
	if f.OnProcess != nil {
		f.OnProcess(ctx)
	}
	f.CtxErr = ctx.Err()
	f.Seen = append(f.Seen, t)
	return f.Result
}

// FakeSink records stored readings.
type FakeSink struct {
	Stored []events.VehicleTelemetry
	Err    error
}

func (f *FakeSink) Name() string { return "fake" }

func (f *FakeSink) Store(_ context.Context, t events.VehicleTelemetry) error {
	if f.Err != nil {
		return f.Err
	}
	f.Stored = append(f.Stored, t)
	return nil
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
func (f *FakeMetrics) IncrementCustom(name string)   { f.AddCustom(name, 1) }
func (f *FakeMetrics) AddCustom(name string, v uint64) {
	f.mu.Lock()
	f.Custom[name] += v
	f.mu.Unlock()
}

var errBroker = errors.New("broker unavailable")
