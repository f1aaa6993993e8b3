package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// runBurst publishes n readings as fast as the producer accepts them.
func (p *Processor) runBurst(ctx context.Context, n int) error {
	slog.Info("Starting burst mode", "total_readings", n)

	startTime := time.Now()
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			slog.Warn("Burst mode cancelled", "sent", i, "requested", n)
			return ctx.Err()
		default:
		}

		if err := p.publish(ctx, p.source.Next()); err != nil {
			return err
		}

		if (i+1)%burstProgressInterval == 0 {
			slog.Info("Burst progress",
				"sent", i+1,
				"total", n,
				"rate_per_sec", fmt.Sprintf("%.2f", calculateRate(i+1, time.Since(startTime))),
			)
		}
	}

	p.logSummary("Burst mode completed", time.Since(startTime))
	return nil
}
