// Package metrics records notification outcomes.
package metrics

import (
	"time"

	"github.com/afikmenashe/fleet-platform/pkg/metrics"
)

// Recorder is what the notifier reports into. Delivery outcomes are keyed by
// channel so the dashboard can tell SMS failures apart from email failures.
type Recorder interface {
	RecordReceived()
	RecordProcessed(latency time.Duration)
	RecordError()
	// RecordDelivery counts one notification on channel, delivered or not.
	RecordDelivery(channel string, delivered bool)
	// RecordSkipped counts a message that produced no notification.
	RecordSkipped()
}

// NoOp discards everything.
type NoOp struct{}

func NewNoOp() *NoOp { return &NoOp{} }

func (NoOp) RecordReceived()               {}
func (NoOp) RecordProcessed(time.Duration) {}
func (NoOp) RecordError()                  {}
func (NoOp) RecordDelivery(string, bool)   {}
func (NoOp) RecordSkipped()                {}

// CollectorAdapter forwards to a shared Collector.
type CollectorAdapter struct {
	c *metrics.Collector
}

func NewCollectorAdapter(c *metrics.Collector) *CollectorAdapter {
	return &CollectorAdapter{c: c}
}

func (a *CollectorAdapter) RecordReceived()                   { a.c.RecordReceived() }
func (a *CollectorAdapter) RecordProcessed(lat time.Duration) { a.c.RecordProcessed(lat) }
func (a *CollectorAdapter) RecordError()                      { a.c.RecordError() }
func (a *CollectorAdapter) RecordSkipped()                    { a.c.IncrementCustom("notifications_skipped") }

func (a *CollectorAdapter) RecordDelivery(channel string, delivered bool) {
	outcome := "failed"
	if delivered {
		outcome = "sent"
		a.c.RecordPublished()
	}
	a.c.IncrementCustom("notifications_" + outcome)
	if channel != "" {
		a.c.IncrementCustom(channel + "_" + outcome)
	}
}

var (
	_ Recorder = NoOp{}
	_ Recorder = (*CollectorAdapter)(nil)
)
