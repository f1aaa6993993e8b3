package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/afikmenashe/fleet-platform/pkg/events"
)

type recordingResponder struct {
	mu      sync.Mutex
	actions []Action
	fail    map[Action]error
	delay   time.Duration
}

func (r *recordingResponder) Respond(_ context.Context, a Action, _ events.EmergencySignal) error {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	r.actions = append(r.actions, a)
	r.mu.Unlock()
	return r.fail[a]
}

func TestPlan(t *testing.T) {
	tests := []struct {
		typ  events.EmergencyType
		want []Action
	}{
		{events.EmergencyPanicButton, []Action{ActionNotifyAuthorities, ActionNotifyOwner}},
		{events.EmergencyMechanical, []Action{ActionDispatchAssistance}},
		{events.EmergencySecurity, []Action{ActionAlertSecurity}},
		{events.EmergencyAccident, []Action{ActionDispatchEmergencyServices}},
		{events.EmergencyTheft, []Action{ActionNotifyAuthorities, ActionAlertSecurity, ActionNotifyOwner}},
		{events.EmergencyUnplannedStop, []Action{ActionNotifyOwner}},
		{events.EmergencyNone, nil},
		{events.EmergencyType(99), nil},
	}

	for _, tt := range tests {
		if got := Plan(tt.typ); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Plan(%v) = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestDispatch_RunsActionsInParallel(t *testing.T) {
	r := &recordingResponder{delay: 100 * time.Millisecond}
	d := NewDispatcher(r)

	start := time.Now()
	outcomes, err := d.Dispatch(context.Background(), events.EmergencySignal{EmergencyType: events.EmergencyTheft})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(outcomes) != 3 || len(r.actions) != 3 {
		t.Fatalf("dispatched %d actions, want 3", len(r.actions))
	}
	if elapsed >= 250*time.Millisecond {
		t.Errorf("Dispatch() took %v, want parallel execution (< 250ms)", elapsed)
	}
}

func TestDispatch_FailureDoesNotCancelOthers(t *testing.T) {
	boom := errors.New("authorities unreachable")
	r := &recordingResponder{fail: map[Action]error{ActionNotifyAuthorities: boom}}

	outcomes, err := NewDispatcher(r).Dispatch(context.Background(), events.EmergencySignal{EmergencyType: events.EmergencyPanicButton})
	if !errors.Is(err, boom) {
		t.Errorf("Dispatch() error = %v, want %v", err, boom)
	}

	got := make([]int, 0, len(r.actions))
	for _, a := range r.actions {
		got = append(got, int(a))
	}
	sort.Ints(got)
	if want := []int{int(ActionNotifyOwner), int(ActionNotifyAuthorities)}; !reflect.DeepEqual(got, want) {
		t.Errorf("dispatched %v, want both actions", got)
	}
	if outcomes[0].Err == nil || outcomes[1].Err != nil {
		t.Errorf("outcomes = %+v, want only notify_authorities failed", outcomes)
	}
}

func TestDispatch_UnknownTypeHasNoActions(t *testing.T) {
	r := &recordingResponder{}
	outcomes, err := NewDispatcher(r).Dispatch(context.Background(), events.EmergencySignal{EmergencyType: events.EmergencyNone})
	if err != nil || len(outcomes) != 0 || len(r.actions) != 0 {
		t.Errorf("Dispatch() = %v, %v, want no actions and no error", outcomes, err)
	}
}

func TestSimulatedResponder(t *testing.T) {
	s := NewSimulatedResponder(map[Action]time.Duration{ActionNotifyOwner: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Respond(ctx, ActionNotifyOwner, events.EmergencySignal{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Respond() error = %v, want deadline exceeded", err)
	}

	if err := s.Respond(context.Background(), ActionAlertSecurity, events.EmergencySignal{}); err != nil {
		t.Errorf("Respond() with zero latency error = %v, want nil", err)
	}
}

func TestWebhookResponder(t *testing.T) {
	var calls atomic.Int32
	var got WebhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.Header.Get("X-Emergency-Id") != "e-1" {
			t.Errorf("X-Emergency-Id = %q, want e-1", r.Header.Get("X-Emergency-Id"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	w := NewWebhookResponder(server.URL, time.Second)
	err := w.Respond(context.Background(), ActionDispatchEmergencyServices, events.EmergencySignal{
		EmergencyID:   "e-1",
		VehicleID:     "CAR001",
		EmergencyType: events.EmergencyAccident,
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("endpoint called %d times, want 2 (one retry after 503)", calls.Load())
	}
	if got.Action != "dispatch_emergency_services" || got.EmergencyType != "Accident" {
		t.Errorf("payload = %+v, want dispatch_emergency_services for Accident", got)
	}
}

func TestWebhookResponder_PermanentFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	err := NewWebhookResponder(server.URL, time.Second).Respond(context.Background(), ActionNotifyOwner, events.EmergencySignal{})
	if err == nil {
		t.Error("Respond() error = nil, want error for 400")
	}
}

func TestDispatch_Timeout(t *testing.T) {
	d := NewDispatcher(NewSimulatedResponder(map[Action]time.Duration{ActionDispatchEmergencyServices: time.Second}))
	d.SetTimeout(20 * time.Millisecond)

	start := time.Now()
	_, err := d.Dispatch(context.Background(), events.EmergencySignal{EmergencyType: events.EmergencyAccident})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Dispatch() error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("Dispatch() ignored the timeout")
	}
}
