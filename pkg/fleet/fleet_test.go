package fleet

import (
	"regexp"
	"testing"

	"github.com/afikmenashe/fleet-platform/pkg/events"
)

func TestRoster(t *testing.T) {
	vehicles := Roster(20)
	if len(vehicles) != 20 {
		t.Fatalf("Roster(20) returned %d vehicles, want 20", len(vehicles))
	}
	if vehicles[0].ID != "TRUCK001" || vehicles[0].Type != events.VehicleTypeTruck {
		t.Errorf("first vehicle = %s/%v, want TRUCK001/Truck", vehicles[0].ID, vehicles[0].Type)
	}
	if vehicles[1].ID != "TRUCK002" || vehicles[2].ID != "CAR001" {
		t.Errorf("ids = %s,%s, want TRUCK002,CAR001", vehicles[1].ID, vehicles[2].ID)
	}

	e164 := regexp.MustCompile(`^\+[1-9]\d{7,14}$`)
	seen := make(map[string]bool)
	for _, v := range vehicles {
		if seen[v.ID] {
			t.Errorf("duplicate vehicle id %s", v.ID)
		}
		seen[v.ID] = true
		if !v.Type.Valid() {
			t.Errorf("%s has invalid type %v", v.ID, v.Type)
		}
		if !e164.MatchString(v.OwnerPhone) {
			t.Errorf("%s owner phone %q is not E.164", v.ID, v.OwnerPhone)
		}
	}
}

func TestRoster_Stable(t *testing.T) {
	a, b := Roster(8), Roster(12)
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("Roster(8)[%d] = %+v, Roster(12)[%d] = %+v, want equal", i, a[i], i, b[i])
		}
	}
}
