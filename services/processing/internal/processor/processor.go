// Package processor runs the telemetry consume-evaluate-commit loop.
package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/afikmenashe/fleet-platform/pkg/events"
	"github.com/segmentio/kafka-go"
)

// sinkTimeout bounds each sink write so a slow store cannot stall the partition.
const sinkTimeout = 2 * time.Second

// Processor consumes telemetry one message at a time. The offset is committed once
// the engine returns, including for readings that could not be decoded.
type Processor struct {
	reader  MessageReader
	engine  RulesEngine
	sinks   []Sink
	metrics MetricsRecorder
}

// NewProcessor creates a processor with no-op metrics. Sinks are optional.
func NewProcessor(reader MessageReader, eng RulesEngine, sinks ...Sink) *Processor {
	return &Processor{
		reader:  reader,
		engine:  eng,
		sinks:   sinks,
		metrics: &NoOpMetrics{},
	}
}

// SetMetrics installs a metrics recorder. A nil recorder is ignored.
func (p *Processor) SetMetrics(m MetricsRecorder) {
	if m != nil {
		p.metrics = m
	}
}

// ProcessTelemetry runs until ctx is cancelled. Transport faults are logged and the loop
// continues; a message already fetched when ctx is cancelled is still evaluated and committed.
func (p *Processor) ProcessTelemetry(ctx context.Context) error {
	slog.Info("Starting telemetry processing loop")

	for {
		select {
		case <-ctx.Done():
			slog.Info("Telemetry processing loop stopped")
			return nil
		default:
			msg, err := p.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					slog.Info("Telemetry processing loop stopped")
					return nil
				}
				slog.Error("Failed to fetch telemetry", "error", err)
				p.metrics.RecordError()
				continue
			}

			p.metrics.RecordReceived()

			// Detached so shutdown does not abort a reading halfway through its rules.
			inflight := context.WithoutCancel(ctx)
			p.processMessage(inflight, msg)

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

// processMessage decodes and evaluates one message. It never fails: every outcome
// is logged and counted, and the caller always commits.
func (p *Processor) processMessage(ctx context.Context, msg kafka.Message) {
	start := time.Now()

	t, err := events.DecodeTelemetry(msg.Value)
	if err != nil {
		slog.Error("Failed to decode telemetry, skipping message",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"payload", string(msg.Value),
			"error", err,
		)
		p.metrics.IncrementCustom("telemetry_decode_failed")
		p.metrics.RecordError()
		return
	}

	slog.Debug("Received telemetry",
		"telemetry_id", t.TelemetryID,
		"vehicle_id", t.VehicleID,
		"vehicle_type", t.VehicleType.String(),
	)

	res := p.engine.Process(ctx, t)
	p.metrics.AddCustom("rules_triggered", uint64(len(res.Triggered)))
	if n := len(res.Failed); n > 0 {
		p.metrics.AddCustom("rule_faults", uint64(n))
	}

	p.storeSinks(ctx, t)

	p.metrics.RecordProcessed(time.Since(start))
}

func (p *Processor) storeSinks(ctx context.Context, t events.VehicleTelemetry) {
	for _, sink := range p.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, sinkTimeout)
		err := sink.Store(sinkCtx, t)
		cancel()
		if err != nil {
			slog.Warn("Telemetry sink failed",
				"sink", sink.Name(),
				"vehicle_id", t.VehicleID,
				"error", err,
			)
			p.metrics.IncrementCustom(sink.Name() + "_failed")
		}
	}
}
