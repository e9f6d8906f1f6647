package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"tripplanner/planner"
)

var ErrNotFound = errors.New("trip not found")

// ─── Models ──────────────────────────────────────────────────────────────────

// Trip is a saved plan together with the details it was built from.
type Trip struct {
	ID        string              `json:"id"`
	Details   planner.TripDetails `json:"details"`
	Plan      *planner.TripPlan   `json:"plan"`
	Items     []planner.LineItem  `json:"items"`
	TotalCost int                 `json:"totalCost"`
	CreatedAt time.Time           `json:"createdAt"`
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ─── Init ─────────────────────────────────────────────────────────────────────

// Open connects to Postgres, waiting for the server to come up.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		dsn = buildDSN()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	const attempts = 10
	for i := 0; i < attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		log.Printf("⏳ Waiting for database... attempt %d/%d: %v", i+1, attempts, err)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database after retries: %w", err)
	}
	return db, nil
}

func buildDSN() string {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	pass := getEnv("DB_PASSWORD", "postgres")
	name := getEnv("DB_NAME", "tripplanner")
	sslmode := getEnv("DB_SSLMODE", "disable")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, pass, name, sslmode)
}

// ─── Migrations ───────────────────────────────────────────────────────────────

func Migrate(ctx context.Context, db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS trips (
			id                    UUID PRIMARY KEY,
			origin_city           TEXT NOT NULL DEFAULT '',
			destination_city      TEXT NOT NULL,
			departure_date        TEXT NOT NULL DEFAULT '',
			return_date           TEXT NOT NULL DEFAULT '',
			adults                INTEGER NOT NULL DEFAULT 1,
			children              INTEGER NOT NULL DEFAULT 0,
			infants               INTEGER NOT NULL DEFAULT 0,
			cabin_class           TEXT NOT NULL DEFAULT 'economy',
			include_hotel         BOOLEAN NOT NULL DEFAULT FALSE,
			include_car           BOOLEAN NOT NULL DEFAULT FALSE,
			origin_iata_code      TEXT,
			destination_iata_code TEXT,
			total_cost            INTEGER NOT NULL DEFAULT 0,
			plan_json             JSONB NOT NULL,
			created_at            TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS trip_items (
			id            UUID PRIMARY KEY,
			trip_id       UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
			item_ref      TEXT NOT NULL,
			item_type     TEXT NOT NULL,
			name          TEXT NOT NULL,
			description   TEXT,
			cost          INTEGER NOT NULL DEFAULT 0 CHECK (cost >= 0),
			included      BOOLEAN NOT NULL DEFAULT TRUE,
			day_number    INTEGER,
			image_url     TEXT,
			booking_url   TEXT,
			provider_data JSONB,
			created_at    TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE (trip_id, item_ref)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_trip_items_trip_id
			ON trip_items(trip_id)`,

		`CREATE INDEX IF NOT EXISTS idx_trips_created_at
			ON trips(created_at DESC)`,
	}

	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Trips ────────────────────────────────────────────────────────────────────

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveTrip stores the details, the plan and its flattened line items in one
// transaction and returns the new trip id. The stored total is recomputed.
func (s *Store) SaveTrip(ctx context.Context, details planner.TripDetails, plan *planner.TripPlan) (string, error) {
	plan = plan.Clone()
	plan.Recalculate()

	planJSON, err := json.Marshal(plan)
	if err != nil {
		return "", fmt.Errorf("encode plan: %w", err)
	}

	var originCode, destCode sql.NullString
	if f := plan.OutboundFlight; f != nil {
		originCode = nullString(f.OriginCode)
		destCode = nullString(f.DestinationCode)
	}

	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO trips (id, origin_city, destination_city, departure_date, return_date,
			adults, children, infants, cabin_class, include_hotel, include_car,
			origin_iata_code, destination_iata_code, total_cost, plan_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		id, details.DepartureCity, details.DestinationCity, details.DepartureDate, details.ReturnDate,
		details.Passengers.Adults, details.Passengers.Children, details.Passengers.Infants,
		details.CabinClass, details.IncludeHotel, details.IncludeCarRental,
		originCode, destCode, plan.TotalCost, string(planJSON))
	if err != nil {
		return "", fmt.Errorf("insert trip: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trip_items (id, trip_id, item_ref, item_type, name, description, cost,
			included, day_number, image_url, booking_url, provider_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, it := range planner.LineItems(plan) {
		_, err := stmt.ExecContext(ctx,
			uuid.NewString(), id, it.ItemRef, it.ItemType, it.Name, it.Description, it.Cost,
			it.Included, nullInt(it.DayNumber), nullString(it.ImageURL), nullString(it.BookingURL),
			nullJSON(it.ProviderData))
		if err != nil {
			return "", fmt.Errorf("insert item %s: %w", it.ItemRef, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetTrip(ctx context.Context, id string) (*Trip, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	t := &Trip{ID: id}
	var planJSON []byte
	var cabin string
	err := s.db.QueryRowContext(ctx, `
		SELECT origin_city, destination_city, departure_date, return_date,
			adults, children, infants, cabin_class, include_hotel, include_car,
			total_cost, plan_json, created_at
		FROM trips WHERE id = $1`, id).
		Scan(&t.Details.DepartureCity, &t.Details.DestinationCity, &t.Details.DepartureDate, &t.Details.ReturnDate,
			&t.Details.Passengers.Adults, &t.Details.Passengers.Children, &t.Details.Passengers.Infants,
			&cabin, &t.Details.IncludeHotel, &t.Details.IncludeCarRental,
			&t.TotalCost, &planJSON, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.Details.CabinClass = cabin

	t.Plan = &planner.TripPlan{}
	if err := json.Unmarshal(planJSON, t.Plan); err != nil {
		return nil, fmt.Errorf("decode plan %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_ref, item_type, name, COALESCE(description, ''), cost, included,
			COALESCE(day_number, 0), COALESCE(image_url, ''), COALESCE(booking_url, ''), provider_data
		FROM trip_items WHERE trip_id = $1
		ORDER BY COALESCE(day_number, 0), created_at, item_ref`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it planner.LineItem
		var provider []byte
		if err := rows.Scan(&it.ItemRef, &it.ItemType, &it.Name, &it.Description, &it.Cost, &it.Included,
			&it.DayNumber, &it.ImageURL, &it.BookingURL, &provider); err != nil {
			return nil, err
		}
		it.ProviderData = provider
		t.Items = append(t.Items, it)
	}
	return t, rows.Err()
}

// SetItemIncluded toggles one item of a saved trip and returns the new
// total. The item row, the stored plan and the total change together.
func (s *Store) SetItemIncluded(ctx context.Context, tripID, itemRef string, included bool) (int, error) {
	if _, err := uuid.Parse(tripID); err != nil {
		return 0, ErrNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var planJSON []byte
	err = tx.QueryRowContext(ctx, `SELECT plan_json FROM trips WHERE id = $1 FOR UPDATE`, tripID).Scan(&planJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	var plan planner.TripPlan
	if err := json.Unmarshal(planJSON, &plan); err != nil {
		return 0, fmt.Errorf("decode plan %s: %w", tripID, err)
	}
	total, err := plan.SetIncluded(itemRef, included)
	if err != nil {
		return 0, err
	}
	if planJSON, err = json.Marshal(&plan); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE trip_items SET included = $1 WHERE trip_id = $2 AND item_ref = $3`,
		included, tripID, itemRef); err != nil {
		return 0, fmt.Errorf("update item: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE trips SET plan_json = $1, total_cost = $2 WHERE id = $3`,
		string(planJSON), total, tripID); err != nil {
		return 0, fmt.Errorf("update trip: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}

// lib/pq sends []byte as bytea, so JSONB values go over the wire as text.
func nullJSON(b []byte) sql.NullString {
	return sql.NullString{String: string(b), Valid: len(b) > 0}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
