// Package generator produces vehicle telemetry for a simulated fleet with configurable
// anomaly injection. A non-zero seed makes the whole event stream reproducible, ids included.
package generator

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/afikmenashe/fleet-platform/pkg/events"
	"github.com/afikmenashe/fleet-platform/pkg/fleet"
	"github.com/google/uuid"
)

// Anomaly names the condition injected into a reading.
type Anomaly string

const (
	AnomalyNone          Anomaly = ""
	AnomalySpeeding      Anomaly = "speeding"
	AnomalyCargoHigh     Anomaly = "cargo_high"
	AnomalyCargoLow      Anomaly = "cargo_low"
	AnomalyUnplannedStop Anomaly = "unplanned_stop"
)

// Probabilities controls anomaly injection per reading.
type Probabilities struct {
	Speeding       float64
	CargoExcursion float64
	UnplannedStop  float64
	Emergency      float64
}

// Event is one simulated reading, optionally accompanied by an emergency from the same vehicle.
type Event struct {
	Telemetry events.VehicleTelemetry
	Anomaly   Anomaly
	Emergency *events.EmergencySignal
}

// SimulatorSource is the source recorded on simulated emergencies.
const SimulatorSource = "SIMULATOR"

// step is the simulated time between two readings of the same vehicle.
const step = 5 * time.Second

const kmPerDegree = 111.0

// cruise is the normal speed band per class in km/h. Speeding readings are drawn above
// the band's upper bound by at least speedingMargin, which clears every class limit.
var cruise = map[events.VehicleType][2]float64{
	events.VehicleTypeTruck:      {50, 75},
	events.VehicleTypeCar:        {60, 95},
	events.VehicleTypeMotorcycle: {35, 55},
	events.VehicleTypeTaxi:       {35, 55},
	events.VehicleTypeBus:        {45, 70},
}

const speedingMargin = 15.0

// Cargo bands in °C.
const (
	cargoNominalMin = 16.0
	cargoNominalMax = 24.0
	cargoHighMin    = 26.0
	cargoLowMax     = 13.0
	cargoSpread     = 5.0
)

const cargoStatusLoaded = "LOADED"

var emergencyDescriptions = map[events.EmergencyType]string{
	events.EmergencyPanicButton:   "Driver pressed the panic button",
	events.EmergencyMechanical:    "Engine failure reported by onboard diagnostics",
	events.EmergencySecurity:      "Cargo door opened outside a planned stop",
	events.EmergencyAccident:      "Collision detected by impact sensor",
	events.EmergencyUnplannedStop: "Vehicle stopped on the shoulder",
	events.EmergencyTheft:         "Vehicle moved without an authorised driver",
}

type vehicleState struct {
	fleet.Vehicle
	lat, lon  float64
	heading   float64
	fuel      float64
	cargoTemp float64
}

// Generator walks the fleet round-robin, advancing each vehicle along a random route.
type Generator struct {
	rng      *rand.Rand
	probs    Probabilities
	vehicles []*vehicleState
	next     int
	now      func() time.Time
}

// New creates a generator over the given fleet. A zero seed uses the clock.
func New(vehicles []fleet.Vehicle, probs Probabilities, seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := &Generator{
		rng:   rand.New(rand.NewSource(seed)),
		probs: probs,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, v := range vehicles {
		g.vehicles = append(g.vehicles, &vehicleState{
			Vehicle:   v,
			lat:       fleet.Home.Latitude + (g.rng.Float64()-0.5)*0.2,
			lon:       fleet.Home.Longitude + (g.rng.Float64()-0.5)*0.2,
			heading:   g.rng.Float64() * 360,
			fuel:      60 + g.rng.Float64()*40,
			cargoTemp: cargoNominalMin + g.rng.Float64()*(cargoNominalMax-cargoNominalMin),
		})
	}
	return g
}

// Size returns the number of simulated vehicles.
func (g *Generator) Size() int {
	return len(g.vehicles)
}

// Next produces the next reading. It panics on an empty fleet.
func (g *Generator) Next() Event {
	v := g.vehicles[g.next]
	g.next = (g.next + 1) % len(g.vehicles)

	ts := g.now()
	anomaly := g.pickAnomaly(v.Type)
	t := g.advance(v, anomaly)
	t.TelemetryID = g.newID()
	t.Timestamp = ts

	ev := Event{Telemetry: t, Anomaly: anomaly}
	if g.rng.Float64() < g.probs.Emergency {
		ev.Emergency = g.emergency(v, ts)
	}
	return ev
}

// pickAnomaly rolls once against the cumulative probabilities. Cargo excursions only
// apply to trucks; the roll is wasted for other classes.
func (g *Generator) pickAnomaly(vt events.VehicleType) Anomaly {
	r := g.rng.Float64()
	if r < g.probs.Speeding {
		return AnomalySpeeding
	}
	r -= g.probs.Speeding
	if r < g.probs.CargoExcursion {
		if vt != events.VehicleTypeTruck {
			return AnomalyNone
		}
		if g.rng.Intn(2) == 0 {
			return AnomalyCargoLow
		}
		return AnomalyCargoHigh
	}
	r -= g.probs.CargoExcursion
	if r < g.probs.UnplannedStop {
		return AnomalyUnplannedStop
	}
	return AnomalyNone
}

func (g *Generator) advance(v *vehicleState, anomaly Anomaly) events.VehicleTelemetry {
	band := cruise[v.Type]
	speed := band[0] + g.rng.Float64()*(band[1]-band[0])
	if anomaly == AnomalySpeeding {
		speed = band[1] + speedingMargin + g.rng.Float64()*30
	}
	moving := true
	planned := false
	if anomaly == AnomalyUnplannedStop {
		speed = 0
		moving = false
	}

	v.heading = math.Mod(v.heading+(g.rng.Float64()-0.5)*30+360, 360)
	dist := speed * step.Hours() / kmPerDegree
	rad := v.heading * math.Pi / 180
	v.lat += dist * math.Cos(rad)
	v.lon += dist * math.Sin(rad)

	v.fuel -= 0.05 + g.rng.Float64()*0.05
	if v.fuel < 10 {
		v.fuel = 100
	}

	t := events.VehicleTelemetry{
		VehicleID:     v.ID,
		VehicleType:   v.Type,
		Latitude:      round6(v.lat),
		Longitude:     round6(v.lon),
		Speed:         math.Round(speed*10) / 10,
		Direction:     math.Round(v.heading),
		IsMoving:      moving,
		EngineOn:      true,
		FuelLevel:     math.Round(v.fuel*10) / 10,
		IsPlannedStop: &planned,
	}

	if v.Type == events.VehicleTypeTruck {
		v.cargoTemp = clamp(v.cargoTemp+(g.rng.Float64()-0.5), cargoNominalMin, cargoNominalMax)
		temp := v.cargoTemp
		switch anomaly {
		case AnomalyCargoHigh:
			temp = cargoHighMin + g.rng.Float64()*cargoSpread
		case AnomalyCargoLow:
			temp = cargoLowMax - g.rng.Float64()*cargoSpread
		}
		temp = math.Round(temp*10) / 10
		status := cargoStatusLoaded
		t.CargoTemperature = &temp
		t.CargoStatus = &status
	}
	return t
}

func (g *Generator) emergency(v *vehicleState, ts time.Time) *events.EmergencySignal {
	et := events.EmergencyType(g.rng.Intn(int(events.EmergencyTheft)) + 1)
	extra := fmt.Sprintf(`{"simulated":true,"licensePlate":%q}`, v.LicensePlate)
	return &events.EmergencySignal{
		EmergencyID:    g.newID(),
		VehicleID:      v.ID,
		EmergencyType:  et,
		Source:         SimulatorSource,
		Latitude:       round6(v.lat),
		Longitude:      round6(v.lon),
		Description:    emergencyDescriptions[et],
		AdditionalData: &extra,
		CreatedAt:      ts,
		Priority:       events.PriorityHigh,
	}
}

// newID draws a v4 UUID from the seeded source.
func (g *Generator) newID() string {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}

func clamp(f, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, f))
}
