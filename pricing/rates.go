package pricing

import (
	"fmt"
	"strings"
)

// CabinClass is the flight cabin requested for a trip.
type CabinClass string

const (
	Economy  CabinClass = "economy"
	Business CabinClass = "business"
	First    CabinClass = "first"
)

// ParseCabinClass accepts the three known classes case-insensitively.
// An empty string means economy.
func ParseCabinClass(s string) (CabinClass, error) {
	switch CabinClass(strings.ToLower(strings.TrimSpace(s))) {
	case "", Economy:
		return Economy, nil
	case Business:
		return Business, nil
	case First:
		return First, nil
	}
	return "", fmt.Errorf("unknown cabin class %q", s)
}

// Meal is one of the three daily meals.
type Meal string

const (
	Breakfast Meal = "breakfast"
	Lunch     Meal = "lunch"
	Dinner    Meal = "dinner"
)

// Base prices at the baseline city, per person.
var mealBase = map[Meal]float64{
	Breakfast: 15,
	Lunch:     25,
	Dinner:    40,
}

const (
	hotelBasePerNight = 120.0
	carBasePerDay     = 50.0
)

var fixedFlightFares = map[CabinClass]int{
	Economy:  320,
	Business: 650,
	First:    1200,
}

// MealPrice is the per-person price of a meal scaled by the city multiplier.
func MealPrice(meal Meal, multiplier float64) int {
	return Round(mealBase[meal] * multiplier)
}

func HotelNightlyRate(multiplier float64) int {
	return Round(hotelBasePerNight * multiplier)
}

func CarDailyRate(multiplier float64) int {
	return Round(carBasePerDay * multiplier)
}

// FixedFare is the step-function per-person fare for a cabin class.
func FixedFare(class CabinClass) int {
	if f, ok := fixedFlightFares[class]; ok {
		return f
	}
	return fixedFlightFares[Economy]
}
