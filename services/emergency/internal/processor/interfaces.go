package processor

import (
	"context"
	"time"

	"github.com/afikmenashe/fleet-platform/pkg/events"
	"github.com/afikmenashe/fleet-platform/services/emergency/internal/dispatch"
	"github.com/segmentio/kafka-go"
)

// MessageReader fetches raw messages and commits their offsets.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessage(ctx context.Context, msg kafka.Message) error
}

// Dispatcher runs the response actions for one emergency.
type Dispatcher interface {
	Dispatch(ctx context.Context, e events.EmergencySignal) ([]dispatch.Outcome, error)
}

// EmergencyStore persists emergency state. *database.DB satisfies it.
type EmergencyStore interface {
	MarkActive(ctx context.Context, emergencyID string) error
	RecordResponse(ctx context.Context, emergencyID string, elapsedMs int64, breached bool) error
}

// MetricsRecorder defines the metrics operations needed by the processor.
type MetricsRecorder interface {
	RecordReceived()
	RecordProcessed(latency time.Duration)
	RecordError()
	IncrementCustom(name string)
}

// NoOpMetrics is a null-object implementation of MetricsRecorder.
type NoOpMetrics struct{}

var _ MetricsRecorder = (*NoOpMetrics)(nil)

func (n *NoOpMetrics) RecordReceived()                 {}
func (n *NoOpMetrics) RecordProcessed(_ time.Duration) {}
func (n *NoOpMetrics) RecordError()                    {}
func (n *NoOpMetrics) IncrementCustom(_ string)        {}
