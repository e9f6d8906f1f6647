package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"tripplanner/planner"
)

// Runs against a real Postgres only when TEST_DATABASE_URL is set.
func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(db)
}

func samplePlan(t *testing.T) (planner.TripDetails, *planner.TripPlan) {
	t.Helper()
	details := planner.TripDetails{
		DepartureCity:   "London",
		DestinationCity: "Lisbon",
		DepartureDate:   "2026-03-10",
		ReturnDate:      "2026-03-12",
		Passengers:      planner.Passengers{Adults: 2, Infants: 1},
		CabinClass:      "business",
		IncludeHotel:    true,
	}
	plan, err := planner.New(nil, nil, planner.WithSeed(11)).Synthesize(context.Background(), details)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	return details, plan
}

func TestSaveAndGetTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	details, plan := samplePlan(t)

	if _, err := plan.SetIncluded("hotel-1", false); err != nil {
		t.Fatalf("SetIncluded: %v", err)
	}
	id, err := store.SaveTrip(ctx, details, plan)
	if err != nil {
		t.Fatalf("SaveTrip: %v", err)
	}

	got, err := store.GetTrip(ctx, id)
	if err != nil {
		t.Fatalf("GetTrip: %v", err)
	}
	if got.Details != details {
		t.Fatalf("details = %+v, want %+v", got.Details, details)
	}
	if got.TotalCost != plan.TotalCost || got.Plan.TotalCost != plan.TotalCost {
		t.Fatalf("total = %d/%d, want %d", got.TotalCost, got.Plan.TotalCost, plan.TotalCost)
	}
	if len(got.Items) != len(planner.LineItems(plan)) {
		t.Fatalf("items = %d, want %d", len(got.Items), len(planner.LineItems(plan)))
	}

	var hotel *planner.LineItem
	for i := range got.Items {
		if got.Items[i].ItemRef == "hotel-1" {
			hotel = &got.Items[i]
		}
	}
	if hotel == nil || hotel.Included {
		t.Fatalf("excluded hotel not stored as excluded: %+v", hotel)
	}
}

func TestSetItemIncluded(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	details, plan := samplePlan(t)

	id, err := store.SaveTrip(ctx, details, plan)
	if err != nil {
		t.Fatalf("SaveTrip: %v", err)
	}

	total, err := store.SetItemIncluded(ctx, id, "outbound-1", false)
	if err != nil {
		t.Fatalf("SetItemIncluded: %v", err)
	}
	if want := plan.TotalCost - plan.OutboundFlight.Cost; total != want {
		t.Fatalf("total = %d, want %d", total, want)
	}

	got, err := store.GetTrip(ctx, id)
	if err != nil {
		t.Fatalf("GetTrip: %v", err)
	}
	if got.TotalCost != total || got.Plan.OutboundFlight.Included {
		t.Fatalf("stored trip not updated: total=%d included=%v", got.TotalCost, got.Plan.OutboundFlight.Included)
	}

	if _, err := store.SetItemIncluded(ctx, id, "nope", true); !errors.Is(err, planner.ErrItemNotFound) {
		t.Fatalf("err = %v, want ErrItemNotFound", err)
	}
	if _, err := store.SetItemIncluded(ctx, uuid.NewString(), "outbound-1", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetTripRejectsUnknownIDs(t *testing.T) {
	var s Store
	if _, err := s.GetTrip(context.Background(), "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.SetItemIncluded(context.Background(), "x", "hotel-1", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
