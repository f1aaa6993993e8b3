package processor

import (
	"context"
	"time"

	"github.com/afikmenashe/fleet-platform/pkg/events"
	"github.com/afikmenashe/fleet-platform/services/processing/internal/engine"
	"github.com/segmentio/kafka-go"
)

// MessageReader fetches raw messages and commits their offsets.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessage(ctx context.Context, msg kafka.Message) error
}

// RulesEngine evaluates the rule set for one reading.
type RulesEngine interface {
	Process(ctx context.Context, t events.VehicleTelemetry) engine.Result
}

// Sink receives every successfully decoded reading after rule evaluation.
type Sink interface {
	Name() string
	Store(ctx context.Context, t events.VehicleTelemetry) error
}

// MetricsRecorder defines the metrics operations needed by the processor.
// *metrics.Collector satisfies it.
type MetricsRecorder interface {
	RecordReceived()
	RecordProcessed(latency time.Duration)
	RecordError()
	IncrementCustom(name string)
	AddCustom(name string, value uint64)
}

// NoOpMetrics is a null-object implementation of MetricsRecorder.
type NoOpMetrics struct{}

var _ MetricsRecorder = (*NoOpMetrics)(nil)

func (n *NoOpMetrics) RecordReceived()                 {}
func (n *NoOpMetrics) RecordProcessed(_ time.Duration) {}
func (n *NoOpMetrics) RecordError()                    {}
func (n *NoOpMetrics) IncrementCustom(_ string)        {}
func (n *NoOpMetrics) AddCustom(_ string, _ uint64)    {}
