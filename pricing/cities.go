package pricing

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
)

// BaselineCostIndex is the cost-of-living index of a mid-range city.
// A city at the baseline has a multiplier of exactly 1.0.
const BaselineCostIndex = 50.0

// UnknownAirportCode is returned when a city has no known airport.
const UnknownAirportCode = "XXX"

//go:embed data/cities.csv
var citiesCSV []byte

// Coordinates are a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// City is one row of the static city table.
type City struct {
	Name      string  `csv:"city" json:"city"`
	Country   string  `csv:"country" json:"country"`
	IATA      string  `csv:"iata" json:"iataCode"`
	Lat       float64 `csv:"lat" json:"lat"`
	Lon       float64 `csv:"lon" json:"lon"`
	CostIndex float64 `csv:"cost_index" json:"costIndex"`
}

func (c City) Coordinates() Coordinates {
	return Coordinates{Lat: c.Lat, Lon: c.Lon}
}

// Multiplier normalises the cost index against the baseline city.
func (c City) Multiplier() float64 {
	if c.CostIndex <= 0 {
		return 1.0
	}
	return c.CostIndex / BaselineCostIndex
}

// Table is an immutable city lookup table.
type Table struct {
	byName  map[string]City
	byLower map[string]City
	ref     City
}

// LoadTable decodes a city CSV. The reference city (used when a lookup
// misses) is the row named refCity.
func LoadTable(r io.Reader, refCity string) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read city table: %w", err)
	}

	var rows []City
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode city table: %w", err)
	}

	t := &Table{
		byName:  make(map[string]City, len(rows)),
		byLower: make(map[string]City, len(rows)),
	}
	for _, c := range rows {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		c.IATA = strings.ToUpper(strings.TrimSpace(c.IATA))
		t.byName[c.Name] = c
		t.byLower[strings.ToLower(c.Name)] = c
	}

	ref, ok := t.byName[refCity]
	if !ok {
		return nil, fmt.Errorf("city table: reference city %q missing", refCity)
	}
	t.ref = ref

	return t, nil
}

// CityName strips a trailing ", country" suffix and surrounding spaces.
func CityName(input string) string {
	if i := strings.Index(input, ","); i >= 0 {
		input = input[:i]
	}
	return strings.TrimSpace(input)
}

// Lookup resolves a city by exact name, then case-insensitively.
func (t *Table) Lookup(city string) (City, bool) {
	name := CityName(city)
	if c, ok := t.byName[name]; ok {
		return c, true
	}
	if c, ok := t.byLower[strings.ToLower(name)]; ok {
		return c, true
	}
	return City{}, false
}

func (t *Table) CostMultiplier(city string) float64 {
	if c, ok := t.Lookup(city); ok {
		return c.Multiplier()
	}
	return 1.0
}

func (t *Table) AirportCode(city string) string {
	if c, ok := t.Lookup(city); ok && c.IATA != "" {
		return c.IATA
	}
	return UnknownAirportCode
}

// Coordinates falls back to the reference city when the lookup misses.
func (t *Table) Coordinates(city string) Coordinates {
	if c, ok := t.Lookup(city); ok {
		return c.Coordinates()
	}
	return t.ref.Coordinates()
}

// Len reports the number of cities in the table.
func (t *Table) Len() int { return len(t.byName) }

var defaultTable = mustLoadDefault()

func mustLoadDefault() *Table {
	t, err := LoadTable(bytes.NewReader(citiesCSV), "Paris")
	if err != nil {
		panic(err)
	}
	return t
}

// Default returns the table loaded from the embedded city data.
func Default() *Table { return defaultTable }

func Lookup(city string) (City, bool) { return defaultTable.Lookup(city) }

func CostMultiplier(city string) float64 { return defaultTable.CostMultiplier(city) }

func AirportCode(city string) string { return defaultTable.AirportCode(city) }

func CityCoordinates(city string) Coordinates { return defaultTable.Coordinates(city) }
