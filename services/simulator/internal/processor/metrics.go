package processor

import "time"

// MetricsRecorder defines the interface for recording simulator metrics.
type MetricsRecorder interface {
	RecordError()
	RecordProcessed(duration time.Duration)
	RecordPublished()
	IncrementCustom(name string)
}

// NoOpMetrics is used when metrics collection is disabled.
type NoOpMetrics struct{}

var _ MetricsRecorder = NoOpMetrics{}

func (NoOpMetrics) RecordError()                  {}
func (NoOpMetrics) RecordProcessed(time.Duration) {}
func (NoOpMetrics) RecordPublished()              {}
func (NoOpMetrics) IncrementCustom(string)        {}
