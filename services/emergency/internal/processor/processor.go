// Package processor runs the emergency fast path: dispatch every signal and
// measure the handling time against the response SLA.
package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/afikmenashe/fleet-platform/pkg/events"
	kafkautil "github.com/afikmenashe/fleet-platform/pkg/kafka"
	"github.com/segmentio/kafka-go"
)

const (
	// SLA is the maximum handling time for one emergency, from receipt to all actions done.
	SLA = 2 * time.Second

	// storeTimeout bounds each database call; persistence is best-effort on this path.
	storeTimeout = 300 * time.Millisecond
)

// Result is the SLA classification of one handled emergency.
type Result struct {
	EmergencyID string
	Elapsed     time.Duration
	Breached    bool
	Failed      int
}

// Processor consumes emergency signals one at a time.
type Processor struct {
	reader     MessageReader
	dispatcher Dispatcher
	store      EmergencyStore
	metrics    MetricsRecorder
	now        func() time.Time
}

// NewProcessor creates a processor. store may be nil, in which case nothing is persisted.
func NewProcessor(reader MessageReader, dispatcher Dispatcher, store EmergencyStore) *Processor {
	return &Processor{
		reader:     reader,
		dispatcher: dispatcher,
		store:      store,
		metrics:    &NoOpMetrics{},
		now:        time.Now,
	}
}

// SetMetrics installs a metrics recorder. A nil recorder is ignored.
func (p *Processor) SetMetrics(m MetricsRecorder) {
	if m != nil {
		p.metrics = m
	}
}

// ProcessEmergencies runs until ctx is cancelled. Every fetched message is committed once
// handled, whether or not its dispatch succeeded.
func (p *Processor) ProcessEmergencies(ctx context.Context) error {
	slog.Info("Starting emergency processing loop", "sla", SLA)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Emergency processing loop stopped")
			return nil
		default:
			msg, err := p.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					slog.Info("Emergency processing loop stopped")
					return nil
				}
				slog.Error("Failed to fetch emergency", "error", err)
				p.metrics.RecordError()
				continue
			}

			p.metrics.RecordReceived()

			inflight := context.WithoutCancel(ctx)
			p.handle(inflight, msg)

			if err := p.reader.CommitMessage(inflight, msg); err != nil {
				slog.Error("Failed to commit offset",
					"topic", msg.Topic,
					"partition", msg.Partition,
					"offset", msg.Offset,
					"error", err,
				)
				p.metrics.IncrementCustom("commit_failed")
			}
		}
	}
}

func (p *Processor) handle(ctx context.Context, msg kafka.Message) {
	e, err := events.DecodeEmergency(msg.Value)
	if err != nil {
		slog.Error("Failed to decode emergency, skipping message",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"payload", string(msg.Value),
			"error", err,
		)
		p.metrics.IncrementCustom("emergency_decode_failed")
		p.metrics.RecordError()
		return
	}

	slog.Warn("Emergency received",
		"emergency_id", e.EmergencyID,
		"vehicle_id", e.VehicleID,
		"emergency_type", e.EmergencyType.String(),
		"priority", priorityLabel(kafkautil.HeaderValue(msg, events.HeaderPriority)),
	)

	res := p.Handle(ctx, e)
	p.metrics.RecordProcessed(res.Elapsed)
}

// Handle marks the emergency active, dispatches its actions and classifies the elapsed time.
func (p *Processor) Handle(ctx context.Context, e events.EmergencySignal) Result {
	start := p.now()

	if p.store != nil {
		storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
		if err := p.store.MarkActive(storeCtx, e.EmergencyID); err != nil {
			slog.Warn("Failed to mark emergency active",
				"emergency_id", e.EmergencyID,
				"error", err,
			)
			p.metrics.IncrementCustom("emergency_store_failed")
		}
		cancel()
	}

	if !e.EmergencyType.Valid() {
		slog.Warn("Unknown emergency type, no actions dispatched",
			"emergency_id", e.EmergencyID,
			"emergency_type", int(e.EmergencyType),
		)
	}

	outcomes, err := p.dispatcher.Dispatch(ctx, e)
	res := Result{EmergencyID: e.EmergencyID, Elapsed: p.now().Sub(start)}
	if err != nil {
		for _, o := range outcomes {
			if o.Err != nil {
				res.Failed++
			}
		}
		slog.Error("Emergency actions failed",
			"emergency_id", e.EmergencyID,
			"failed", res.Failed,
			"error", err,
		)
		p.metrics.IncrementCustom("emergency_actions_failed")
	}

	res.Breached = res.Elapsed >= SLA
	attrs := []any{
		"emergency_id", e.EmergencyID,
		"vehicle_id", e.VehicleID,
		"emergency_type", e.EmergencyType.String(),
		"actions", len(outcomes),
		"elapsed_ms", res.Elapsed.Milliseconds(),
		"sla_ms", SLA.Milliseconds(),
	}
	if !e.CreatedAt.IsZero() {
		attrs = append(attrs, "end_to_end_ms", p.now().Sub(e.CreatedAt).Milliseconds())
	}
	if res.Breached {
		slog.Error("Emergency SLA breached", attrs...)
		p.metrics.IncrementCustom("sla_breaches")
	} else {
		slog.Info("Emergency handled within SLA", attrs...)
		p.metrics.IncrementCustom("sla_compliant")
	}

	if p.store != nil {
		storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
		if err := p.store.RecordResponse(storeCtx, e.EmergencyID, res.Elapsed.Milliseconds(), res.Breached); err != nil {
			slog.Warn("Failed to record emergency response",
				"emergency_id", e.EmergencyID,
				"error", err,
			)
			p.metrics.IncrementCustom("emergency_store_failed")
		}
		cancel()
	}

	return res
}

// priorityLabel renders the priority header for logs.
func priorityLabel(v []byte) string {
	switch {
	case len(v) == 0:
		return "none"
	case len(v) == 1 && v[0] == events.PriorityHeaderHigh:
		return events.PriorityHigh
	default:
		return string(v)
	}
}
