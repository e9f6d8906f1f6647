package planner

import (
	"encoding/json"
)

// Line item kinds as stored alongside a saved trip.
const (
	LineFlight   = "flight"
	LineHotel    = "hotel"
	LineCar      = "car"
	LineActivity = "activity"
)

// LineItem is one bookable element of a plan, flattened for storage.
type LineItem struct {
	ItemType     string          `json:"itemType"`
	ItemRef      string          `json:"itemRef"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Cost         int             `json:"cost"`
	Included     bool            `json:"included"`
	DayNumber    int             `json:"dayNumber,omitempty"`
	ImageURL     string          `json:"imageUrl,omitempty"`
	BookingURL   string          `json:"bookingUrl,omitempty"`
	ProviderData json.RawMessage `json:"providerData,omitempty"`
}

// LineItems flattens a plan in display order: flights, stay, rental, then
// each day's items. Excluded items are kept with Included false.
func LineItems(plan *TripPlan) []LineItem {
	var out []LineItem

	for _, f := range []*Flight{plan.OutboundFlight, plan.ReturnFlight} {
		if f == nil {
			continue
		}
		out = append(out, LineItem{
			ItemType:     LineFlight,
			ItemRef:      f.ID,
			Name:         f.Airline + " " + f.FlightNumber,
			Description:  f.Origin + " (" + f.OriginCode + ") → " + f.Destination + " (" + f.DestinationCode + ")",
			Cost:         f.Cost,
			Included:     f.Included,
			ProviderData: rawJSON(f),
		})
	}

	if h := plan.Hotel; h != nil {
		out = append(out, LineItem{
			ItemType:     LineHotel,
			ItemRef:      h.ID,
			Name:         h.Name,
			Description:  h.Address,
			Cost:         h.TotalPrice,
			Included:     h.Included,
			ProviderData: rawJSON(h),
		})
	}

	if c := plan.CarRental; c != nil {
		out = append(out, LineItem{
			ItemType:     LineCar,
			ItemRef:      c.ID,
			Name:         c.Company + " " + c.VehicleName,
			Description:  c.PickupLocation,
			Cost:         c.TotalPrice,
			Included:     c.Included,
			ProviderData: rawJSON(c),
		})
	}

	for _, day := range plan.Itinerary {
		for _, item := range day.Items {
			out = append(out, LineItem{
				ItemType:     LineActivity,
				ItemRef:      item.ID,
				Name:         item.Title,
				Description:  item.Description,
				Cost:         item.Cost,
				Included:     item.Included,
				DayNumber:    day.Day,
				ImageURL:     item.ImageURL,
				BookingURL:   item.BookingURL,
				ProviderData: rawJSON(item),
			})
		}
	}
	return out
}

func rawJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
