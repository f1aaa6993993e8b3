// Package fleet describes the demo fleet shared by the vehicle seed script and the simulator.
// Both derive the same roster from a vehicle count, so simulated traffic always refers to
// registered vehicles.
package fleet

import (
	"fmt"

	"github.com/afikmenashe/fleet-platform/pkg/events"
)

// Vehicle is one registry entry.
type Vehicle struct {
	ID           string
	Type         events.VehicleType
	LicensePlate string
	OwnerID      string
	OwnerPhone   string
	Brand        string
	Model        string
	Year         int
}

// Home is the depot every simulated route starts near (Bogota).
var Home = events.Location{Latitude: 4.7110, Longitude: -74.0721}

// typeCycle sets the fleet mix; trucks dominate so cargo rules see traffic.
var typeCycle = []events.VehicleType{
	events.VehicleTypeTruck,
	events.VehicleTypeTruck,
	events.VehicleTypeCar,
	events.VehicleTypeBus,
	events.VehicleTypeTruck,
	events.VehicleTypeTaxi,
	events.VehicleTypeMotorcycle,
}

var idPrefix = map[events.VehicleType]string{
	events.VehicleTypeTruck:      "TRUCK",
	events.VehicleTypeCar:        "CAR",
	events.VehicleTypeMotorcycle: "MOTO",
	events.VehicleTypeTaxi:       "TAXI",
	events.VehicleTypeBus:        "BUS",
}

var makes = map[events.VehicleType][2]string{
	events.VehicleTypeTruck:      {"Volvo", "FH16"},
	events.VehicleTypeCar:        {"Toyota", "Corolla"},
	events.VehicleTypeMotorcycle: {"Yamaha", "MT-07"},
	events.VehicleTypeTaxi:       {"Hyundai", "Accent"},
	events.VehicleTypeBus:        {"Mercedes-Benz", "Citaro"},
}

// Roster returns n vehicles. IDs are numbered per class, so the first vehicle is TRUCK001.
func Roster(n int) []Vehicle {
	vehicles := make([]Vehicle, 0, n)
	counts := make(map[events.VehicleType]int)
	for i := 0; i < n; i++ {
		vt := typeCycle[i%len(typeCycle)]
		counts[vt]++
		seq := counts[vt]
		brand := makes[vt]
		vehicles = append(vehicles, Vehicle{
			ID:           fmt.Sprintf("%s%03d", idPrefix[vt], seq),
			Type:         vt,
			LicensePlate: fmt.Sprintf("%s-%03d", idPrefix[vt][:3], i+1),
			OwnerID:      fmt.Sprintf("owner-%03d", i%10+1),
			OwnerPhone:   fmt.Sprintf("+5730000%05d", i+1),
			Brand:        brand[0],
			Model:        brand[1],
			Year:         2018 + i%7,
		})
	}
	return vehicles
}
