package routing

import (
	"math"
	"sort"
)

type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Locations are the ambulance base and the hospitals it can be sent to.
var Locations = []Location{
	{Name: "Ambulance", Lat: 12.9616, Lon: 77.5946},
	{Name: "General Hospital", Lat: 12.9716, Lon: 77.5946},
	{Name: "Heart Care Center", Lat: 12.9260, Lon: 77.6762},
	{Name: "Neurology Specialty", Lat: 12.9367, Lon: 77.5992},
}

// DestinationTypes maps the hospital type a user asks for to the location
// that serves it.
var DestinationTypes = map[string]string{
	"General Hospital": "General Hospital",
	"Cardiology":       "Heart Care Center",
	"Neurology":        "Neurology Specialty",
}

func LocationByName(name string) (Location, bool) {
	for _, l := range Locations {
		if l.Name == name {
			return l, true
		}
	}
	return Location{}, false
}

// DestinationTypeNames lists the accepted destination types in a stable order.
func DestinationTypeNames() []string {
	names := make([]string, 0, len(DestinationTypes))
	for k := range DestinationTypes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

const earthRadiusKm = 6371.0088

// Distance is the great-circle distance in kilometres on the mean Earth
// sphere.
func Distance(a, b Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}
