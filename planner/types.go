package planner

import (
	"context"
	"errors"

	"tripplanner/pricing"
)

var (
	ErrMissingDestination = errors.New("destination city is required")
	ErrInvalidDates       = errors.New("return date must not be before departure date")
	ErrInvalidDate        = errors.New("dates must be formatted as YYYY-MM-DD")
	ErrInvalidPassengers  = errors.New("passenger counts must not be negative")
	ErrInvalidCabinClass  = errors.New("cabin class must be economy, business or first")
	ErrItemNotFound       = errors.New("item not found in plan")
	ErrNegativeCost       = errors.New("plan contains a negative cost")
	ErrCostMismatch       = errors.New("plan cost does not match its unit price")
	ErrTripTooLong        = errors.New("trip is too long")
)

// ─── Input ────────────────────────────────────────────────────────────────────

type Passengers struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

// Paying is the number of seats priced per person. Infants travel on a lap
// and are never charged; a party with nobody counted is one adult.
func (p Passengers) Paying() int {
	n := p.Adults + p.Children
	if n <= 0 {
		return 1
	}
	return n
}

// TripDetails is the immutable input of a synthesis run.
type TripDetails struct {
	DepartureCity    string     `json:"departureCity"`
	DestinationCity  string     `json:"destinationCity" binding:"required"`
	DepartureCode    string     `json:"departureCode,omitempty"`
	DestinationCode  string     `json:"destinationCode,omitempty"`
	DepartureDate    string     `json:"departureDate"`
	ReturnDate       string     `json:"returnDate"`
	Passengers       Passengers `json:"passengers"`
	CabinClass       string     `json:"flightClass"`
	IncludeHotel     bool       `json:"includeHotel"`
	IncludeCarRental bool       `json:"includeCarRental"`
}

// ─── Output ───────────────────────────────────────────────────────────────────

const (
	SourceLive      = "live"
	SourceEstimated = "estimated"
)

type ItemType string

const (
	ItemTransport  ItemType = "transport"
	ItemMeal       ItemType = "meal"
	ItemAttraction ItemType = "attraction"
)

type Flight struct {
	ID              string             `json:"id"`
	Airline         string             `json:"airline"`
	FlightNumber    string             `json:"flightNumber"`
	Origin          string             `json:"origin"`
	OriginCode      string             `json:"originCode"`
	Destination     string             `json:"destination"`
	DestinationCode string             `json:"destinationCode"`
	Date            string             `json:"date"`
	DepartureTime   string             `json:"departureTime"`
	ArrivalTime     string             `json:"arrivalTime"`
	Duration        string             `json:"duration"`
	Class           pricing.CabinClass `json:"class"`
	PricePerPerson  int                `json:"pricePerPerson"`
	Cost            int                `json:"cost"`
	Included        bool               `json:"included"`
}

type Hotel struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Rating        float64  `json:"rating"`
	Address       string   `json:"address"`
	PricePerNight int      `json:"pricePerNight"`
	Nights        int      `json:"nights"`
	TotalPrice    int      `json:"totalPrice"`
	Amenities     []string `json:"amenities"`
	Included      bool     `json:"included"`
}

type CarRental struct {
	ID              string `json:"id"`
	Company         string `json:"company"`
	VehicleType     string `json:"vehicleType"`
	VehicleName     string `json:"vehicleName"`
	PickupLocation  string `json:"pickupLocation"`
	DropoffLocation string `json:"dropoffLocation"`
	PickupDate      string `json:"pickupDate"`
	DropoffDate     string `json:"dropoffDate"`
	PricePerDay     int    `json:"pricePerDay"`
	Days            int    `json:"days"`
	TotalPrice      int    `json:"totalPrice"`
	Included        bool   `json:"included"`
}

type ItineraryItem struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Time          string   `json:"time"`
	Type          ItemType `json:"type"`
	Category      string   `json:"category,omitempty"`
	Cost          int      `json:"cost"`
	CostPerPerson int      `json:"costPerPerson"`
	Included      bool     `json:"included"`
	ImageURL      string   `json:"imageUrl,omitempty"`
	MapURL        string   `json:"mapUrl,omitempty"`
	BookingURL    string   `json:"bookingUrl,omitempty"`
}

type DayPlan struct {
	Day   int             `json:"day"`
	Date  string          `json:"date"`
	Label string          `json:"label"`
	Items []ItineraryItem `json:"items"`
}

// TripPlan is built once per synthesis. TotalCost is derived; call
// Recalculate after changing any Included flag.
type TripPlan struct {
	OutboundFlight *Flight    `json:"outboundFlight,omitempty"`
	ReturnFlight   *Flight    `json:"returnFlight,omitempty"`
	Hotel          *Hotel     `json:"hotel,omitempty"`
	CarRental      *CarRental `json:"carRental,omitempty"`
	Itinerary      []DayPlan  `json:"itinerary"`
	TripDays       int        `json:"tripDays"`
	Passengers     int        `json:"passengers"`
	Currency       string     `json:"currency"`
	Source         string     `json:"source"` // "live" or "estimated"
	TotalCost      int        `json:"totalCost"`
}

// ─── Collaborators ────────────────────────────────────────────────────────────

type Attraction struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Rating      float64 `json:"rating"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

type AttractionQuery struct {
	City         string
	Lat          float64
	Lon          float64
	Limit        int
	RadiusMeters int
}

// AttractionProvider looks up points of interest around a city. It may
// return an empty list.
type AttractionProvider interface {
	Attractions(ctx context.Context, q AttractionQuery) ([]Attraction, error)
}

// PhotoProvider returns an image URL for a subject, or "" when none exists.
type PhotoProvider interface {
	Photo(ctx context.Context, subject, city string) (string, error)
}
