package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/afikmenashe/fleet-platform/pkg/events"
)

// Outcome is the result of one action.
type Outcome struct {
	Action Action
	Err    error
}

// Dispatcher fans the planned actions out to a responder.
type Dispatcher struct {
	responder Responder
	timeout   time.Duration
}

func NewDispatcher(r Responder) *Dispatcher {
	return &Dispatcher{responder: r}
}

// SetTimeout bounds every dispatch. Zero means unbounded.
func (d *Dispatcher) SetTimeout(timeout time.Duration) {
	d.timeout = timeout
}

// Dispatch runs every planned action concurrently and waits for all of them.
// A failing action does not cancel the others. The returned error joins all failures.
func (d *Dispatcher) Dispatch(ctx context.Context, e events.EmergencySignal) ([]Outcome, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	plan := Plan(e.EmergencyType)
	outcomes := make([]Outcome, len(plan))

	var g errgroup.Group
	for i, action := range plan {
		i, action := i, action
		outcomes[i].Action = action
		g.Go(func() error {
			if err := d.responder.Respond(ctx, action, e); err != nil {
				outcomes[i].Err = fmt.Errorf("%s: %w", action, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return outcomes, errors.Join(errs...)
}
