package planner

import (
	"encoding/json"
	"fmt"
)

// Recalculate sets TotalCost to the sum of every included flight, stay,
// rental and itinerary item, and returns it.
func (p *TripPlan) Recalculate() int {
	total := 0
	if f := p.OutboundFlight; f != nil && f.Included {
		total += f.Cost
	}
	if f := p.ReturnFlight; f != nil && f.Included {
		total += f.Cost
	}
	if h := p.Hotel; h != nil && h.Included {
		total += h.TotalPrice
	}
	if c := p.CarRental; c != nil && c.Included {
		total += c.TotalPrice
	}
	for _, day := range p.Itinerary {
		for _, item := range day.Items {
			if item.Included {
				total += item.Cost
			}
		}
	}
	p.TotalCost = total
	return total
}

// SetIncluded flips the inclusion flag of the item with the given id and
// returns the recalculated total.
func (p *TripPlan) SetIncluded(id string, included bool) (int, error) {
	switch {
	case p.OutboundFlight != nil && p.OutboundFlight.ID == id:
		p.OutboundFlight.Included = included
	case p.ReturnFlight != nil && p.ReturnFlight.ID == id:
		p.ReturnFlight.Included = included
	case p.Hotel != nil && p.Hotel.ID == id:
		p.Hotel.Included = included
	case p.CarRental != nil && p.CarRental.ID == id:
		p.CarRental.Included = included
	default:
		item := p.findItem(id)
		if item == nil {
			return p.TotalCost, fmt.Errorf("%w: %q", ErrItemNotFound, id)
		}
		item.Included = included
	}
	return p.Recalculate(), nil
}

func (p *TripPlan) findItem(id string) *ItineraryItem {
	for d := range p.Itinerary {
		for i := range p.Itinerary[d].Items {
			if p.Itinerary[d].Items[i].ID == id {
				return &p.Itinerary[d].Items[i]
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the plan.
func (p *TripPlan) Clone() *TripPlan {
	c := *p
	if p.OutboundFlight != nil {
		f := *p.OutboundFlight
		c.OutboundFlight = &f
	}
	if p.ReturnFlight != nil {
		f := *p.ReturnFlight
		c.ReturnFlight = &f
	}
	if p.Hotel != nil {
		h := *p.Hotel
		h.Amenities = append([]string(nil), p.Hotel.Amenities...)
		c.Hotel = &h
	}
	if p.CarRental != nil {
		r := *p.CarRental
		c.CarRental = &r
	}
	c.Itinerary = make([]DayPlan, len(p.Itinerary))
	for i, day := range p.Itinerary {
		day.Items = append([]ItineraryItem(nil), day.Items...)
		c.Itinerary[i] = day
	}
	return &c
}

// Validate checks the money invariants of a plan received from a client:
// no negative amounts, every cost equal to its unit price multiplied out,
// and no more days than a synthesized plan can have.
func (p *TripPlan) Validate() error {
	if p.Passengers < 1 {
		return fmt.Errorf("%w: plan has %d passengers", ErrInvalidPassengers, p.Passengers)
	}
	if len(p.Itinerary) > maxTripDays {
		return fmt.Errorf("%w: %d days (max %d)", ErrTripTooLong, len(p.Itinerary), maxTripDays)
	}

	check := func(id string, total, unit, qty int) error {
		if total < 0 || unit < 0 || qty < 0 {
			return fmt.Errorf("%w: %s", ErrNegativeCost, id)
		}
		if total != unit*qty {
			return fmt.Errorf("%w: %s costs %d, want %d x %d", ErrCostMismatch, id, total, unit, qty)
		}
		return nil
	}

	for _, f := range []*Flight{p.OutboundFlight, p.ReturnFlight} {
		if f == nil {
			continue
		}
		if err := check(f.ID, f.Cost, f.PricePerPerson, p.Passengers); err != nil {
			return err
		}
	}
	if h := p.Hotel; h != nil {
		if err := check(h.ID, h.TotalPrice, h.PricePerNight, h.Nights); err != nil {
			return err
		}
	}
	if c := p.CarRental; c != nil {
		if err := check(c.ID, c.TotalPrice, c.PricePerDay, c.Days); err != nil {
			return err
		}
	}
	for _, day := range p.Itinerary {
		for _, item := range day.Items {
			if err := check(item.ID, item.Cost, item.CostPerPerson, p.Passengers); err != nil {
				return err
			}
		}
	}
	return nil
}

// DecodePlan parses a plan previously produced by this package, validates
// it and recomputes its total.
func DecodePlan(raw []byte) (*TripPlan, error) {
	var p TripPlan
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.Recalculate()
	return &p, nil
}
