package notifier

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/afikmenashe/fleet-platform/services/notification/internal/database"
	"github.com/segmentio/kafka-go"
)

// FakeReader serves Messages in order, then cancels the loop via OnDrained.
type FakeReader struct {
	Messages  []kafka.Message
	OnDrained func()

	index     int
	Committed []kafka.Message
}

func (f *FakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if f.index >= len(f.Messages) {
		if f.OnDrained != nil {
			f.OnDrained()
		}
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := f.Messages[f.index]
	f.index++
	return msg, nil
}

func (f *FakeReader) CommitMessage(_ context.Context, msg kafka.Message) error {
	f.Committed = append(f.Committed, msg)
	return nil
}

// FakeStore keeps notifications in memory.
type FakeStore struct {
	mu        sync.Mutex
	Vehicles  map[string]*database.Vehicle
	LookupErr error
	CreateErr error

	Created []*database.Notification
	Sent    []string
	Failed  map[string]string
}

func NewFakeStore(vehicles ...*database.Vehicle) *FakeStore {
	s := &FakeStore{Vehicles: make(map[string]*database.Vehicle), Failed: make(map[string]string)}
	for _, v := range vehicles {
		s.Vehicles[v.VehicleID] = v
	}
	return s
}

func (f *FakeStore) GetVehicle(_ context.Context, id string) (*database.Vehicle, error) {
	if f.LookupErr != nil {
		return nil, f.LookupErr
	}
	v, ok := f.Vehicles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", database.ErrVehicleNotFound, id)
	}
	return v, nil
}

func (f *FakeStore) CreateNotification(_ context.Context, n *database.Notification) error {
	if f.CreateErr != nil {
		return f.CreateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Created = append(f.Created, n)
	return nil
}

func (f *FakeStore) MarkSent(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent = append(f.Sent, id)
	return nil
}

func (f *FakeStore) MarkFailed(_ context.Context, id, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Failed[id] = reason
	return nil
}

// FakeDeliverer records deliveries; recipients in FailFor fail.
type FakeDeliverer struct {
	mu        sync.Mutex
	Delivered []*database.Notification
	FailFor   map[string]error
	Delay     time.Duration
}

func (f *FakeDeliverer) Deliver(_ context.Context, n *database.Notification) error {
	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}
	if err := f.FailFor[n.Recipient]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Delivered = append(f.Delivered, n)
	return nil
}

// Recipients returns the delivered recipients, sorted.
func (f *FakeDeliverer) Recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.Delivered))
	for _, n := range f.Delivered {
		out = append(out, n.Recipient)
	}
	sort.Strings(out)
	return out
}

// FakeMetrics is a goroutine-safe Recorder.
type FakeMetrics struct {
	mu                          sync.Mutex
	Received, Processed, Errors int
	Sent, Failed, Skipped       int
}

func (f *FakeMetrics) RecordReceived()               { f.mu.Lock(); f.Received++; f.mu.Unlock() }
func (f *FakeMetrics) RecordProcessed(time.Duration) { f.mu.Lock(); f.Processed++; f.mu.Unlock() }
func (f *FakeMetrics) RecordError()                  { f.mu.Lock(); f.Errors++; f.mu.Unlock() }
func (f *FakeMetrics) RecordDelivery(_ string, delivered bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if delivered {
		f.Sent++
	} else {
		f.Failed++
	}
}
func (f *FakeMetrics) RecordSkipped()                { f.mu.Lock(); f.Skipped++; f.mu.Unlock() }
