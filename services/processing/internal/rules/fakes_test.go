package rules

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/afikmenashe/fleet-platform/pkg/events"
)

// FakePublisher records published alerts.
type FakePublisher struct {
	Published  []events.AlertMessage
	PublishErr error
}

func (f *FakePublisher) PublishAlert(ctx context.Context, alert events.AlertMessage) error {
	if f.PublishErr != nil {
		return f.PublishErr
	}
	f.Published = append(f.Published, alert)
	return nil
}

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func testEnv(p *FakePublisher) Env {
	return Env{
		Publisher: p,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:       func() time.Time { return fixedNow },
		NewID:     func() string { return "alert-1" },
	}
}

func ptr[T any](v T) *T { return &v }
