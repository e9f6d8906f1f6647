package pricing

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	earthRadiusKm    = 6371.0
	economyRatePerKm = 0.15
	fareVariance     = 0.25
)

var classRateFactor = map[CabinClass]float64{
	Economy:  1.0,
	Business: 3.5,
	First:    5.5,
}

// Short flights still carry fixed overhead.
var minimumFare = map[CabinClass]float64{
	Economy:  50,
	Business: 200,
	First:    400,
}

// Estimate is a fare band around an average price.
type Estimate struct {
	DistanceKm int `json:"distanceKm"`
	Min        int `json:"min"`
	Max        int `json:"max"`
	Average    int `json:"average"`
}

// HaversineKm is the great-circle distance between two points.
func HaversineKm(a, b Coordinates) float64 {
	rad := math.Pi / 180
	dLat := (b.Lat - a.Lat) * rad
	dLon := (b.Lon - a.Lon) * rad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*rad)*math.Cos(b.Lat*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// SeasonalMultiplier: peak Jun-Aug and December, shoulder Apr-May and
// Sep-Oct, low otherwise.
func SeasonalMultiplier(month time.Month) float64 {
	switch month {
	case time.June, time.July, time.August:
		return 1.3
	case time.December:
		return 1.4
	case time.April, time.May, time.September, time.October:
		return 1.1
	default:
		return 0.9
	}
}

// EstimateFlightPrice estimates a per-person one-way fare from distance,
// cabin class and departure month.
func EstimateFlightPrice(from, to Coordinates, class CabinClass, departure time.Time) Estimate {
	factor, ok := classRateFactor[class]
	if !ok {
		class = Economy
		factor = 1.0
	}

	km := HaversineKm(from, to)
	base := math.Max(km*economyRatePerKm*factor, minimumFare[class])
	base *= SeasonalMultiplier(departure.Month())

	return Estimate{
		DistanceKm: Round(km),
		Min:        Round(base * (1 - fareVariance)),
		Max:        Round(base * (1 + fareVariance)),
		Average:    Round(base),
	}
}

// FlightPricer prices one flight leg per person.
type FlightPricer interface {
	PricePerPerson(origin, destination string, class CabinClass, departure time.Time) int
}

// FixedFlightPricer ignores the route and uses the cabin-class step fares.
type FixedFlightPricer struct{}

func (FixedFlightPricer) PricePerPerson(_, _ string, class CabinClass, _ time.Time) int {
	return FixedFare(class)
}

// DistanceFlightPricer uses the average of EstimateFlightPrice between the
// two cities' coordinates.
type DistanceFlightPricer struct {
	Cities *Table
}

func (p DistanceFlightPricer) PricePerPerson(origin, destination string, class CabinClass, departure time.Time) int {
	t := p.Cities
	if t == nil {
		t = defaultTable
	}
	return EstimateFlightPrice(t.Coordinates(origin), t.Coordinates(destination), class, departure).Average
}

// NewFlightPricer selects a strategy by name: "fixed" (default) or "distance".
// cities may be nil; the planner then binds its own table.
func NewFlightPricer(strategy string, cities *Table) (FlightPricer, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", "fixed":
		return FixedFlightPricer{}, nil
	case "distance":
		return DistanceFlightPricer{Cities: cities}, nil
	}
	return nil, fmt.Errorf("unknown flight pricing strategy %q", strategy)
}
