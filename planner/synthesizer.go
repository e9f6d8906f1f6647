package planner

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"tripplanner/pricing"
)

const (
	dateLayout          = "2006-01-02"
	defaultTripLength   = 5
	maxTripDays         = 30
	attractionsPerDay   = 3
	maxAttractions      = 20
	searchRadiusMeters  = 5000
	defaultCallTimeout  = 8 * time.Second
	defaultPhotoWorkers = 4
	currency            = "EUR"
)

// Synthesizer builds priced trip plans. It holds no per-request state and
// is safe for concurrent use.
type Synthesizer struct {
	attractions AttractionProvider
	photos      PhotoProvider
	cities      *pricing.Table
	flights     pricing.FlightPricer
	newRand     func() pricing.Rand
	now         func() time.Time
	timeout     time.Duration
	workers     int
}

type Option func(*Synthesizer)

// WithRand sets the random source factory. It is called once per
// Synthesize call.
func WithRand(f func() pricing.Rand) Option {
	return func(s *Synthesizer) { s.newRand = f }
}

func WithSeed(seed int64) Option {
	return WithRand(func() pricing.Rand { return pricing.NewRand(seed) })
}

func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) { s.now = now }
}

func WithFlightPricer(p pricing.FlightPricer) Option {
	return func(s *Synthesizer) { s.flights = p }
}

func WithCityTable(t *pricing.Table) Option {
	return func(s *Synthesizer) { s.cities = t }
}

// WithCallTimeout bounds every single enrichment call. A call that times
// out is treated like an empty answer.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Synthesizer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithPhotoConcurrency bounds the number of photo lookups in flight.
func WithPhotoConcurrency(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.workers = n
		}
	}
}

// New returns a Synthesizer. Either provider may be nil, in which case
// fallback content is used for that concern.
func New(attractions AttractionProvider, photos PhotoProvider, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		attractions: attractions,
		photos:      photos,
		cities:      pricing.Default(),
		flights:     pricing.FixedFlightPricer{},
		newRand: func() pricing.Rand {
			return pricing.NewRand(time.Now().UnixNano())
		},
		now:     time.Now,
		timeout: defaultCallTimeout,
		workers: defaultPhotoWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	// an unbound distance pricer uses the synthesizer's city table
	if dp, ok := s.flights.(pricing.DistanceFlightPricer); ok && dp.Cities == nil {
		dp.Cities = s.cities
		s.flights = dp
	}
	return s
}

// trip is TripDetails after defaults and validation.
type trip struct {
	origin      string
	destination string
	originCode  string
	destCode    string
	departure   time.Time
	ret         time.Time
	days        int
	nights      int
	class       pricing.CabinClass
	paying      int
	multiplier  float64
	coords      pricing.Coordinates
}

// Synthesize fabricates a complete priced plan. It returns an error only
// for unusable input; enrichment failures are replaced by fallback content.
func (s *Synthesizer) Synthesize(ctx context.Context, details TripDetails) (*TripPlan, error) {
	t, err := s.resolve(details)
	if err != nil {
		return nil, err
	}
	rng := s.newRand()

	attractions, source := s.fetchAttractions(ctx, t)
	s.attachPhotos(ctx, t, attractions)

	plan := &TripPlan{
		TripDays:   t.days,
		Passengers: t.paying,
		Currency:   currency,
		Source:     source,
		Itinerary:  make([]DayPlan, 0, t.days),
	}

	plan.OutboundFlight = s.flight(t, "outbound-1", "SW 1247", t.origin, t.originCode, t.destination, t.destCode, t.departure, "09:15", "12:45")
	plan.ReturnFlight = s.flight(t, "return-1", "SW 1248", t.destination, t.destCode, t.origin, t.originCode, t.ret, "18:30", "22:00")
	if details.IncludeHotel {
		plan.Hotel = hotel(t)
	}
	if details.IncludeCarRental {
		plan.CarRental = carRental(t)
	}

	for day := 1; day <= t.days; day++ {
		plan.Itinerary = append(plan.Itinerary, s.dayPlan(t, rng, day, attractions))
	}

	plan.Recalculate()
	return plan, nil
}

// ─── Input resolution ─────────────────────────────────────────────────────────

func (s *Synthesizer) resolve(d TripDetails) (*trip, error) {
	destination := pricing.CityName(d.DestinationCity)
	if destination == "" {
		return nil, ErrMissingDestination
	}
	origin := pricing.CityName(d.DepartureCity)
	if origin == "" {
		origin = "Home"
	}

	p := d.Passengers
	if p.Adults < 0 || p.Children < 0 || p.Infants < 0 {
		return nil, ErrInvalidPassengers
	}

	class, err := pricing.ParseCabinClass(d.CabinClass)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCabinClass, err)
	}

	today := s.now().UTC()
	departure := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if d.DepartureDate != "" {
		if departure, err = parseDate(d.DepartureDate); err != nil {
			return nil, err
		}
	}
	ret := departure.AddDate(0, 0, defaultTripLength)
	if d.ReturnDate != "" {
		if ret, err = parseDate(d.ReturnDate); err != nil {
			return nil, err
		}
	}
	if ret.Before(departure) {
		return nil, ErrInvalidDates
	}

	days := int(ret.Sub(departure).Hours()/24) + 1
	if days > maxTripDays {
		return nil, fmt.Errorf("%w: %d days (max %d)", ErrTripTooLong, days, maxTripDays)
	}

	originCode := strings.ToUpper(strings.TrimSpace(d.DepartureCode))
	if originCode == "" {
		originCode = s.cities.AirportCode(origin)
	}
	destCode := strings.ToUpper(strings.TrimSpace(d.DestinationCode))
	if destCode == "" {
		destCode = s.cities.AirportCode(destination)
	}

	return &trip{
		origin:      origin,
		destination: destination,
		originCode:  originCode,
		destCode:    destCode,
		departure:   departure,
		ret:         ret,
		days:        days,
		nights:      days - 1,
		class:       class,
		paying:      p.Paying(),
		multiplier:  s.cities.CostMultiplier(destination),
		coords:      s.cities.Coordinates(destination),
	}, nil
}

// parseDate accepts YYYY-MM-DD or an RFC 3339 timestamp (as sent by
// browsers serialising a Date); only the calendar date is kept.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// ─── Enrichment ───────────────────────────────────────────────────────────────

func (s *Synthesizer) fetchAttractions(ctx context.Context, t *trip) ([]Attraction, string) {
	limit := t.days * attractionsPerDay
	if limit > maxAttractions {
		limit = maxAttractions
	}

	if s.attractions != nil {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		list, err := s.attractions.Attractions(callCtx, AttractionQuery{
			City:         t.destination,
			Lat:          t.coords.Lat,
			Lon:          t.coords.Lon,
			Limit:        limit,
			RadiusMeters: searchRadiusMeters,
		})
		cancel()

		switch {
		case err != nil:
			log.Printf("⚠️  Attraction lookup for %s failed: %v — using fallback", t.destination, err)
		case len(list) == 0:
			log.Printf("⚠️  Attraction lookup returned 0 results for %s — using fallback", t.destination)
		default:
			if len(list) > limit {
				list = list[:limit]
			}
			out := make([]Attraction, len(list))
			copy(out, list)
			return out, SourceLive
		}
	}

	return fallbackAttractions(t.destination, 0, limit), SourceEstimated
}

// attachPhotos looks up a photo for every attraction concurrently. Misses
// keep the attraction's own image or get a category stock image.
func (s *Synthesizer) attachPhotos(ctx context.Context, t *trip, list []Attraction) {
	fill := func(i int) {
		if list[i].ImageURL == "" {
			list[i].ImageURL = categoryImage(list[i].Category, i)
		}
	}

	if s.photos == nil {
		for i := range list {
			fill(i)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range list {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			img, err := s.photos.Photo(callCtx, list[i].Name, t.destination)
			if err != nil {
				log.Printf("⚠️  Photo lookup for %q failed: %v", list[i].Name, err)
			}
			if err == nil && img != "" {
				list[i].ImageURL = img
			}
			fill(i)
			return nil
		})
	}
	_ = g.Wait()
}

// ─── Assembly ─────────────────────────────────────────────────────────────────

func (s *Synthesizer) dayPlan(t *trip, rng pricing.Rand, day int, attractions []Attraction) DayPlan {
	date := t.departure.AddDate(0, 0, day-1)
	items := make([]ItineraryItem, 0, 8)

	if day == 1 {
		items = append(items, ItineraryItem{
			ID:          fmt.Sprintf("day%d-arrival", day),
			Title:       fmt.Sprintf("Arrival at %s Airport", t.destination),
			Description: fmt.Sprintf("Welcome to %s! Collect your luggage and proceed to your accommodation.", t.destination),
			Time:        "12:45",
			Type:        ItemTransport,
			Included:    true,
			ImageURL:    airportImage,
		})
	}

	items = append(items, s.meal(t, day, pricing.Breakfast, "08:00", "Start your day with a delicious local breakfast"))

	start := (day - 1) * attractionsPerDay
	todays := sliceAttractions(attractions, start, attractionsPerDay)
	if len(todays) == 0 {
		todays = fallbackAttractions(t.destination, start, attractionsPerDay)
	}
	for idx, a := range todays {
		items = append(items, s.attraction(t, rng, day, idx, a))
	}

	items = append(items, s.meal(t, day, pricing.Lunch, "12:00", "Enjoy a memorable dining experience"))
	items = append(items, s.meal(t, day, pricing.Dinner, "19:00", "Savor authentic local flavors"))

	if day == t.days {
		items = append(items, ItineraryItem{
			ID:          fmt.Sprintf("day%d-departure", day),
			Title:       fmt.Sprintf("Return to %s Airport", t.destination),
			Description: "Check out and head to the airport for your return flight.",
			Time:        "16:00",
			Type:        ItemTransport,
			Included:    true,
			ImageURL:    airportImage,
		})
	}

	SortByTime(items)

	return DayPlan{
		Day:   day,
		Date:  date.Format(dateLayout),
		Label: date.Format("Mon, Jan 2"),
		Items: items,
	}
}

func sliceAttractions(list []Attraction, start, n int) []Attraction {
	if start >= len(list) {
		return nil
	}
	end := start + n
	if end > len(list) {
		end = len(list)
	}
	return list[start:end]
}

func (s *Synthesizer) meal(t *trip, day int, meal pricing.Meal, at, description string) ItineraryItem {
	perPerson := pricing.MealPrice(meal, t.multiplier)
	title := strings.ToUpper(string(meal[:1])) + string(meal[1:])
	return ItineraryItem{
		ID:            fmt.Sprintf("day%d-%s", day, meal),
		Title:         fmt.Sprintf("%s in %s", title, t.destination),
		Description:   description,
		Time:          at,
		Type:          ItemMeal,
		CostPerPerson: perPerson,
		Cost:          perPerson * t.paying,
		Included:      true,
		ImageURL:      mealImage(day - 1),
		MapURL:        mapsSearchURL(fmt.Sprintf("%s restaurants in %s", meal, t.destination)),
	}
}

func (s *Synthesizer) attraction(t *trip, rng pricing.Rand, day, idx int, a Attraction) ItineraryItem {
	perPerson := pricing.AttractionPrice(rng, a.Category, a.Rating)
	category := strings.ReplaceAll(a.Category, "_", " ")

	description := a.Description
	if description == "" {
		description = fmt.Sprintf("Explore this %s in %s", category, t.destination)
	}

	return ItineraryItem{
		ID:            fmt.Sprintf("day%d-attraction%d", day, idx),
		Title:         a.Name,
		Description:   description,
		Time:          fmt.Sprintf("%02d:00", 10+idx*3),
		Type:          ItemAttraction,
		Category:      category,
		CostPerPerson: perPerson,
		Cost:          perPerson * t.paying,
		Included:      true,
		ImageURL:      a.ImageURL,
		MapURL:        mapsSearchURL(a.Name + ", " + t.destination),
	}
}

func mapsSearchURL(query string) string {
	return "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(query)
}

func (s *Synthesizer) flight(t *trip, id, number, from, fromCode, to, toCode string, date time.Time, dep, arr string) *Flight {
	perPerson := s.flights.PricePerPerson(from, to, t.class, date)
	if perPerson < 0 {
		perPerson = 0
	}
	return &Flight{
		ID:              id,
		Airline:         "SkyWings Airlines",
		FlightNumber:    number,
		Origin:          from,
		OriginCode:      fromCode,
		Destination:     to,
		DestinationCode: toCode,
		Date:            date.Format(dateLayout),
		DepartureTime:   dep,
		ArrivalTime:     arr,
		Duration:        "3h 30m",
		Class:           t.class,
		PricePerPerson:  perPerson,
		Cost:            perPerson * t.paying,
		Included:        true,
	}
}

func hotel(t *trip) *Hotel {
	rate := pricing.HotelNightlyRate(t.multiplier)
	return &Hotel{
		ID:            "hotel-1",
		Name:          fmt.Sprintf("Grand %s Palace Hotel", t.destination),
		Rating:        4.5,
		Address:       fmt.Sprintf("123 Central Avenue, %s", t.destination),
		PricePerNight: rate,
		Nights:        t.nights,
		TotalPrice:    rate * t.nights,
		Amenities:     []string{"Free WiFi", "Pool", "Gym", "Restaurant"},
		Included:      true,
	}
}

func carRental(t *trip) *CarRental {
	rate := pricing.CarDailyRate(t.multiplier)
	return &CarRental{
		ID:              "car-1",
		Company:         "EuroMobility",
		VehicleType:     "Compact",
		VehicleName:     "Volkswagen Tiguan or similar",
		PickupLocation:  fmt.Sprintf("%s Airport", t.destination),
		DropoffLocation: fmt.Sprintf("%s Airport", t.destination),
		PickupDate:      t.departure.Format(dateLayout),
		DropoffDate:     t.ret.Format(dateLayout),
		PricePerDay:     rate,
		Days:            t.nights,
		TotalPrice:      rate * t.nights,
		Included:        true,
	}
}

// ─── Ordering ─────────────────────────────────────────────────────────────────

// SortByTime orders items by time of day, keeping insertion order for ties.
func SortByTime(items []ItineraryItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return minutes(items[i].Time) < minutes(items[j].Time)
	})
}

// minutes converts "HH:MM" to minutes since midnight. Unparseable times
// sort last.
func minutes(hhmm string) int {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return 24 * 60
	}
	return h*60 + m
}
