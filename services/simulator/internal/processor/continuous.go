package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// runContinuous publishes readings at a fixed rate until the duration elapses.
func (p *Processor) runContinuous(ctx context.Context, rps float64, duration time.Duration) error {
	slog.Info("Starting continuous mode",
		"target_rps", rps,
		"duration", duration,
	)

	ticker := time.NewTicker(time.Duration(float64(time.Second) / rps))
	defer ticker.Stop()

	startTime := time.Now()
	deadline := startTime.Add(duration)
	lastLog := startTime

	for {
		select {
		case <-ctx.Done():
			slog.Warn("Continuous mode cancelled",
				"sent", p.stats.Readings,
				"duration_requested", duration,
			)
			return ctx.Err()
		case now := <-ticker.C:
			if now.After(deadline) {
				p.logSummary("Duration reached", time.Since(startTime))
				return nil
			}

			if err := p.publish(ctx, p.source.Next()); err != nil {
				return err
			}

			if time.Since(lastLog) >= progressLogInterval {
				slog.Info("Progress update",
					"sent", p.stats.Readings,
					"target_rps", rps,
					"actual_rps", fmt.Sprintf("%.2f", calculateRate(p.stats.Readings, time.Since(startTime))),
				)
				lastLog = time.Now()
			}
		}
	}
}
