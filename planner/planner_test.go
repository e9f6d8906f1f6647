package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"tripplanner/pricing"
)

type stubAttractions struct {
	list  []Attraction
	err   error
	calls int32
	last  AttractionQuery
}

func (s *stubAttractions) Attractions(_ context.Context, q AttractionQuery) ([]Attraction, error) {
	atomic.AddInt32(&s.calls, 1)
	s.last = q
	return s.list, s.err
}

type stubPhotos struct {
	url   string
	block bool
	calls int32
}

func (s *stubPhotos) Photo(ctx context.Context, _, _ string) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.url, nil
}

func fixedClock() time.Time {
	return time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC)
}

func newTestSynth(a AttractionProvider, p PhotoProvider, opts ...Option) *Synthesizer {
	base := []Option{WithSeed(1), WithClock(fixedClock)}
	return New(a, p, append(base, opts...)...)
}

func lisbonTrip() TripDetails {
	return TripDetails{
		DepartureCity:   "London",
		DestinationCity: "Lisbon",
		DepartureDate:   "2026-03-10",
		ReturnDate:      "2026-03-12",
		Passengers:      Passengers{Adults: 2},
	}
}

func liveAttractions(n int) []Attraction {
	cats := []string{"museums", "historic_architecture", "natural,gardens", "amusements", "cultural", "shops"}
	out := make([]Attraction, n)
	for i := range out {
		out[i] = Attraction{
			Name:     fmt.Sprintf("Place %d", i),
			Category: cats[i%len(cats)],
			Rating:   float64(i % 10),
		}
	}
	return out
}

func TestSynthesizeDayCount(t *testing.T) {
	s := newTestSynth(&stubAttractions{list: liveAttractions(20)}, nil)

	cases := []struct {
		dep, ret string
		want     int
	}{
		{"2026-03-10", "2026-03-10", 1},
		{"2026-03-10", "2026-03-12", 3},
		{"2026-03-28", "2026-04-03", 7},
		{"2026-05-01", "2026-05-15", 15},
	}
	for _, tc := range cases {
		d := lisbonTrip()
		d.DepartureDate, d.ReturnDate = tc.dep, tc.ret

		plan, err := s.Synthesize(context.Background(), d)
		if err != nil {
			t.Fatalf("%s..%s: unexpected error: %v", tc.dep, tc.ret, err)
		}
		if plan.TripDays != tc.want || len(plan.Itinerary) != tc.want {
			t.Fatalf("%s..%s: days = %d/%d, want %d", tc.dep, tc.ret, plan.TripDays, len(plan.Itinerary), tc.want)
		}
		for i, day := range plan.Itinerary {
			if day.Day != i+1 {
				t.Fatalf("day %d numbered %d", i+1, day.Day)
			}
		}
	}
}

func TestSynthesizeItemsAreTimeOrdered(t *testing.T) {
	s := newTestSynth(&stubAttractions{list: liveAttractions(12)}, nil)
	plan, err := s.Synthesize(context.Background(), lisbonTrip())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, day := range plan.Itinerary {
		for i := 1; i < len(day.Items); i++ {
			if minutes(day.Items[i-1].Time) > minutes(day.Items[i].Time) {
				t.Fatalf("day %d: %s (%s) before %s (%s)", day.Day,
					day.Items[i-1].ID, day.Items[i-1].Time, day.Items[i].ID, day.Items[i].Time)
			}
		}
	}

	first := plan.Itinerary[0].Items
	if first[0].Time != "08:00" || first[0].Type != ItemMeal {
		t.Fatalf("day 1 should open with breakfast, got %+v", first[0])
	}
	last := plan.Itinerary[len(plan.Itinerary)-1].Items
	if !strings.HasSuffix(last[len(last)-2].ID, "-departure") {
		t.Fatalf("last day should end with departure then dinner, got %s", last[len(last)-2].ID)
	}
}

func TestSynthesizeCostIsPerPersonTimesPassengers(t *testing.T) {
	s := newTestSynth(&stubAttractions{list: liveAttractions(20)}, nil)
	d := lisbonTrip()
	d.DestinationCity = "Zurich"
	d.Passengers = Passengers{Adults: 2, Children: 1, Infants: 1}
	d.IncludeHotel = true
	d.IncludeCarRental = true

	plan, err := s.Synthesize(context.Background(), d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Passengers != 3 {
		t.Fatalf("passengers = %d, want 3 (infants ride free)", plan.Passengers)
	}

	for _, day := range plan.Itinerary {
		for _, item := range day.Items {
			if item.Cost != item.CostPerPerson*plan.Passengers {
				t.Fatalf("%s: cost %d != %d × %d", item.ID, item.Cost, item.CostPerPerson, plan.Passengers)
			}
			if item.Cost < 0 {
				t.Fatalf("%s: negative cost", item.ID)
			}
		}
	}
	if f := plan.OutboundFlight; f.Cost != f.PricePerPerson*3 || f.PricePerPerson != 320 {
		t.Fatalf("outbound flight = %+v", f)
	}
	if plan.Hotel == nil || plan.Hotel.Nights != 2 || plan.Hotel.TotalPrice != plan.Hotel.PricePerNight*2 {
		t.Fatalf("hotel = %+v", plan.Hotel)
	}
	if plan.CarRental == nil || plan.CarRental.TotalPrice != plan.CarRental.PricePerDay*2 {
		t.Fatalf("car = %+v", plan.CarRental)
	}
	if err := plan.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestSynthesizeAttractionPricesStayInBands(t *testing.T) {
	attrs := liveAttractions(20)
	s := newTestSynth(&stubAttractions{list: attrs}, nil)
	d := lisbonTrip()
	d.ReturnDate = "2026-03-16"

	plan, err := s.Synthesize(context.Background(), d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byName := map[string]Attraction{}
	for _, a := range attrs {
		byName[a.Name] = a
	}
	for _, day := range plan.Itinerary {
		for _, item := range day.Items {
			if item.Type != ItemAttraction {
				continue
			}
			a := byName[item.Title]
			band := pricing.AttractionBand(a.Category, a.Rating)
			if !band.Contains(item.CostPerPerson) {
				t.Fatalf("%s (%s, %.0f) = %d outside %+v", item.Title, a.Category, a.Rating, item.CostPerPerson, band)
			}
		}
	}
}

func TestTotalsAndToggling(t *testing.T) {
	s := newTestSynth(&stubAttractions{list: liveAttractions(9)}, nil)
	d := lisbonTrip()
	d.IncludeHotel = true

	plan, err := s.Synthesize(context.Background(), d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := plan.OutboundFlight.Cost + plan.ReturnFlight.Cost + plan.Hotel.TotalPrice
	for _, day := range plan.Itinerary {
		for _, item := range day.Items {
			sum += item.Cost
		}
	}
	if plan.TotalCost != sum {
		t.Fatalf("TotalCost = %d, want %d", plan.TotalCost, sum)
	}

	before := plan.TotalCost
	item := plan.Itinerary[1].Items[1]
	total, err := plan.SetIncluded(item.ID, false)
	if err != nil {
		t.Fatalf("SetIncluded: %v", err)
	}
	if total != before-item.Cost {
		t.Fatalf("after exclude total = %d, want %d", total, before-item.Cost)
	}
	if total, _ = plan.SetIncluded(item.ID, true); total != before {
		t.Fatalf("after re-include total = %d, want %d", total, before)
	}

	if total, _ = plan.SetIncluded("hotel-1", false); total != before-plan.Hotel.TotalPrice {
		t.Fatalf("hotel toggle total = %d", total)
	}

	if _, err := plan.SetIncluded("day99-nothing", false); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("err = %v, want ErrItemNotFound", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := newTestSynth(nil, nil)
	d := lisbonTrip()
	d.IncludeHotel = true
	plan, err := s.Synthesize(context.Background(), d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := plan.Clone()
	id := c.Itinerary[0].Items[0].ID
	if _, err := c.SetIncluded(id, false); err != nil {
		t.Fatalf("SetIncluded: %v", err)
	}
	c.Hotel.Amenities[0] = "changed"
	c.OutboundFlight.Included = false

	if !plan.Itinerary[0].Items[0].Included || !plan.OutboundFlight.Included {
		t.Fatalf("clone shares state with original")
	}
	if plan.Hotel.Amenities[0] == "changed" {
		t.Fatalf("clone shares amenities with original")
	}
}

func TestSynthesizeFallsBackWhenLookupIsEmpty(t *testing.T) {
	for name, provider := range map[string]AttractionProvider{
		"empty": &stubAttractions{},
		"error": &stubAttractions{err: errors.New("boom")},
		"nil":   nil,
	} {
		s := newTestSynth(provider, nil)
		d := lisbonTrip()
		d.ReturnDate = "2026-03-20"

		plan, err := s.Synthesize(context.Background(), d)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if plan.Source != SourceEstimated {
			t.Fatalf("%s: source = %q", name, plan.Source)
		}

		seen := map[string]bool{}
		for _, day := range plan.Itinerary {
			n := 0
			for _, item := range day.Items {
				if item.Type == ItemAttraction {
					n++
					seen[item.Title] = true
					if item.ImageURL == "" {
						t.Fatalf("%s: %s has no image", name, item.ID)
					}
				}
			}
			if n == 0 || n > attractionsPerDay {
				t.Fatalf("%s: day %d has %d attractions", name, day.Day, n)
			}
		}
		if len(seen) < attractionsPerDay*2 {
			t.Fatalf("%s: fallback days repeat each other (%d distinct)", name, len(seen))
		}
	}
}

func TestSynthesizeBreakfastExample(t *testing.T) {
	s := newTestSynth(&stubAttractions{list: liveAttractions(9)}, nil)
	plan, err := s.Synthesize(context.Background(), lisbonTrip())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.TripDays != 3 {
		t.Fatalf("tripDays = %d, want 3", plan.TripDays)
	}
	for _, day := range plan.Itinerary {
		var found bool
		for _, item := range day.Items {
			if item.ID == fmt.Sprintf("day%d-breakfast", day.Day) {
				found = true
				if item.Cost != 30 {
					t.Fatalf("day %d breakfast = %d, want 30", day.Day, item.Cost)
				}
			}
		}
		if !found {
			t.Fatalf("day %d has no breakfast", day.Day)
		}
	}
}

func TestSynthesizeQueriesAttractionsOnce(t *testing.T) {
	a := &stubAttractions{list: liveAttractions(40)}
	s := newTestSynth(a, nil)
	d := lisbonTrip()
	d.ReturnDate = "2026-03-30"

	if _, err := s.Synthesize(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.calls != 1 {
		t.Fatalf("attraction calls = %d, want 1", a.calls)
	}
	if a.last.Limit != maxAttractions || a.last.RadiusMeters != searchRadiusMeters {
		t.Fatalf("query = %+v", a.last)
	}
	lisbon := pricing.CityCoordinates("Lisbon")
	if a.last.Lat != lisbon.Lat || a.last.Lon != lisbon.Lon {
		t.Fatalf("query coordinates = %v,%v", a.last.Lat, a.last.Lon)
	}
}

func TestSynthesizePhotoTimeoutIsTreatedAsEmpty(t *testing.T) {
	photos := &stubPhotos{block: true}
	s := newTestSynth(&stubAttractions{list: liveAttractions(9)}, photos,
		WithCallTimeout(20*time.Millisecond), WithPhotoConcurrency(9))

	start := time.Now()
	plan, err := s.Synthesize(context.Background(), lisbonTrip())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("synthesis took %s", elapsed)
	}
	if photos.calls != 9 {
		t.Fatalf("photo calls = %d, want 9", photos.calls)
	}
	for _, day := range plan.Itinerary {
		for _, item := range day.Items {
			if item.Type == ItemAttraction && item.ImageURL == "" {
				t.Fatalf("%s has no fallback image", item.ID)
			}
		}
	}
}

func TestSynthesizeUsesPhotoResults(t *testing.T) {
	photos := &stubPhotos{url: "https://img.example/x.jpg"}
	s := newTestSynth(&stubAttractions{list: liveAttractions(3)}, photos)
	d := lisbonTrip()
	d.ReturnDate = d.DepartureDate

	plan, err := s.Synthesize(context.Background(), d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, item := range plan.Itinerary[0].Items {
		if item.Type == ItemAttraction && item.ImageURL != photos.url {
			t.Fatalf("%s image = %q", item.ID, item.ImageURL)
		}
	}
}

func TestSynthesizeIsDeterministicForASeed(t *testing.T) {
	a := &stubAttractions{list: liveAttractions(9)}
	p1, _ := newTestSynth(a, nil).Synthesize(context.Background(), lisbonTrip())
	p2, _ := newTestSynth(a, nil).Synthesize(context.Background(), lisbonTrip())
	if p1.TotalCost != p2.TotalCost {
		t.Fatalf("same seed gave %d and %d", p1.TotalCost, p2.TotalCost)
	}
}

func TestSynthesizeInputNormalisation(t *testing.T) {
	s := newTestSynth(nil, nil)

	plan, err := s.Synthesize(context.Background(), TripDetails{DestinationCity: "Rome, Italy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.TripDays != defaultTripLength+1 {
		t.Fatalf("default trip days = %d", plan.TripDays)
	}
	if plan.Itinerary[0].Date != "2026-03-01" {
		t.Fatalf("default departure = %s, want clock date", plan.Itinerary[0].Date)
	}
	if plan.Passengers != 1 {
		t.Fatalf("default passengers = %d", plan.Passengers)
	}
	if plan.OutboundFlight.DestinationCode != "FCO" || plan.OutboundFlight.OriginCode != pricing.UnknownAirportCode {
		t.Fatalf("codes = %s -> %s", plan.OutboundFlight.OriginCode, plan.OutboundFlight.DestinationCode)
	}

	plan, err = s.Synthesize(context.Background(), TripDetails{
		DestinationCity: "Lisbon",
		DepartureDate:   "2026-03-10T22:00:00Z",
		ReturnDate:      "2026-03-11",
	})
	if err != nil || plan.TripDays != 2 {
		t.Fatalf("RFC 3339 date: plan=%v err=%v", plan, err)
	}

	bad := []struct {
		d    TripDetails
		want error
	}{
		{TripDetails{DestinationCity: "  "}, ErrMissingDestination},
		{TripDetails{DestinationCity: "Lisbon", DepartureDate: "2026-03-12", ReturnDate: "2026-03-10"}, ErrInvalidDates},
		{TripDetails{DestinationCity: "Lisbon", DepartureDate: "12/03/2026"}, ErrInvalidDate},
		{TripDetails{DestinationCity: "Lisbon", CabinClass: "premium"}, ErrInvalidCabinClass},
		{TripDetails{DestinationCity: "Lisbon", Passengers: Passengers{Adults: -1}}, ErrInvalidPassengers},
	}
	for _, tc := range bad {
		if _, err := s.Synthesize(context.Background(), tc.d); !errors.Is(err, tc.want) {
			t.Fatalf("%+v: err = %v, want %v", tc.d, err, tc.want)
		}
	}
}

func TestLineItemsKeepExcluded(t *testing.T) {
	s := newTestSynth(nil, nil)
	d := lisbonTrip()
	d.IncludeHotel = true
	d.IncludeCarRental = true
	plan, err := s.Synthesize(context.Background(), d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := plan.SetIncluded("car-1", false); err != nil {
		t.Fatalf("SetIncluded: %v", err)
	}

	items := LineItems(plan)
	want := 4
	for _, day := range plan.Itinerary {
		want += len(day.Items)
	}
	if len(items) != want {
		t.Fatalf("line items = %d, want %d", len(items), want)
	}

	var car *LineItem
	for i := range items {
		if items[i].ItemRef == "car-1" {
			car = &items[i]
		}
	}
	if car == nil || car.Included || car.ItemType != LineCar {
		t.Fatalf("car line item = %+v", car)
	}
	if items[len(items)-1].DayNumber != plan.TripDays {
		t.Fatalf("last item day = %d", items[len(items)-1].DayNumber)
	}
}

func TestDecodePlanRejectsNegativeCosts(t *testing.T) {
	raw := []byte(`{"passengers":1,"itinerary":[{"day":1,"items":[{"id":"day1-x","cost":-5,"included":true}]}]}`)
	if _, err := DecodePlan(raw); !errors.Is(err, ErrNegativeCost) {
		t.Fatalf("err = %v, want ErrNegativeCost", err)
	}

	raw = []byte(`{"passengers":1,"totalCost":1,"itinerary":[{"day":1,"items":[{"id":"a","cost":20,"costPerPerson":20,"included":true},{"id":"b","cost":7,"costPerPerson":7,"included":false}]}]}`)
	p, err := DecodePlan(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.TotalCost != 20 {
		t.Fatalf("total = %d, want 20", p.TotalCost)
	}
}

func TestSynthesizeRejectsOverlongTrips(t *testing.T) {
	s := newTestSynth(nil, nil)

	plan, err := s.Synthesize(context.Background(), TripDetails{
		DestinationCity: "Lisbon", DepartureDate: "2026-03-01", ReturnDate: "2026-03-30",
	})
	if err != nil || plan.TripDays != maxTripDays {
		t.Fatalf("longest trip: plan=%v err=%v", plan, err)
	}

	for _, ret := range []string{"2026-03-31", "2076-01-01", "9999-12-31"} {
		_, err := s.Synthesize(context.Background(), TripDetails{
			DestinationCity: "Lisbon", DepartureDate: "2026-03-01", ReturnDate: ret,
		})
		if !errors.Is(err, ErrTripTooLong) {
			t.Fatalf("return %s: err = %v, want ErrTripTooLong", ret, err)
		}
	}
}

func TestValidateRejectsCostMismatch(t *testing.T) {
	d := lisbonTrip()
	d.IncludeHotel = true
	d.IncludeCarRental = true
	base, err := newTestSynth(nil, nil).Synthesize(context.Background(), d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("synthesized plan: %v", err)
	}

	cases := map[string]func(p *TripPlan){
		"item":   func(p *TripPlan) { p.Itinerary[0].Items[1].Cost = 1 },
		"flight": func(p *TripPlan) { p.ReturnFlight.Cost = p.ReturnFlight.PricePerPerson },
		"hotel":  func(p *TripPlan) { p.Hotel.TotalPrice = 1 },
		"car":    func(p *TripPlan) { p.CarRental.Days++ },
	}
	for name, mutate := range cases {
		p := base.Clone()
		mutate(p)
		if err := p.Validate(); !errors.Is(err, ErrCostMismatch) {
			t.Fatalf("%s: err = %v, want ErrCostMismatch", name, err)
		}
	}

	p := base.Clone()
	p.Passengers = 0
	if err := p.Validate(); !errors.Is(err, ErrInvalidPassengers) {
		t.Fatalf("zero passengers: err = %v", err)
	}

	p = base.Clone()
	for len(p.Itinerary) <= maxTripDays {
		p.Itinerary = append(p.Itinerary, DayPlan{Day: len(p.Itinerary) + 1})
	}
	if err := p.Validate(); !errors.Is(err, ErrTripTooLong) {
		t.Fatalf("long itinerary: err = %v", err)
	}
}

func TestMealsLinkToRestaurants(t *testing.T) {
	plan, err := newTestSynth(nil, nil).Synthesize(context.Background(), lisbonTrip())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	meals := 0
	for _, day := range plan.Itinerary {
		for _, item := range day.Items {
			if item.Type != ItemMeal {
				continue
			}
			meals++
			if !strings.Contains(item.MapURL, "restaurants+in+Lisbon") {
				t.Fatalf("%s: map url = %q", item.ID, item.MapURL)
			}
		}
	}
	if meals != 3*plan.TripDays {
		t.Fatalf("meals = %d", meals)
	}
}

func TestSynthesizeBindsDistancePricerToCityTable(t *testing.T) {
	csv := "city,country,iata,lat,lon,cost_index\n" +
		"Paris,France,CDG,48.8566,2.3522,62\n" +
		"Atlantis,Nowhere,ATL,10.0,-30.0,50\n"
	table, err := pricing.LoadTable(strings.NewReader(csv), "Paris")
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}

	s := newTestSynth(nil, nil, WithCityTable(table), WithFlightPricer(pricing.DistanceFlightPricer{}))
	d := lisbonTrip()
	d.DepartureCity = "Paris"
	d.DestinationCity = "Atlantis"
	plan, err := s.Synthesize(context.Background(), d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dep := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	want := pricing.EstimateFlightPrice(table.Coordinates("Paris"), table.Coordinates("Atlantis"), pricing.Economy, dep).Average
	if got := plan.OutboundFlight.PricePerPerson; got != want {
		t.Fatalf("outbound price = %d, want %d", got, want)
	}
	if plan.OutboundFlight.DestinationCode != "ATL" {
		t.Fatalf("destination code = %s", plan.OutboundFlight.DestinationCode)
	}
}
