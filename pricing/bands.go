package pricing

import (
	"math"
	"math/rand"
	"strings"
)

// Rand is the random source used for price-within-band draws.
type Rand interface {
	Intn(n int) int
}

// NewRand returns a seeded source. Not safe for concurrent use.
func NewRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}

// Band is an inclusive per-person price range.
type Band struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (b Band) Contains(price int) bool {
	return price >= b.Min && price <= b.Max
}

// Draw returns a uniformly distributed integer in [Min, Max].
func (b Band) Draw(rng Rand) int {
	if b.Max <= b.Min {
		return b.Min
	}
	return b.Min + rng.Intn(b.Max-b.Min+1)
}

type categoryBand struct {
	keywords []string
	band     Band
}

// Order matters: the first band whose keyword appears in the category wins.
var categoryBands = []categoryBand{
	{[]string{"museum"}, Band{15, 30}},
	{[]string{"historic", "architecture", "monument"}, Band{10, 25}},
	{[]string{"religion", "church", "temple"}, Band{0, 15}},
	{[]string{"natural", "park", "garden"}, Band{5, 20}},
	{[]string{"entertainment", "theatre", "sport"}, Band{20, 50}},
	{[]string{"cultural"}, Band{10, 35}},
}

// CategoryBand reports the band for a category, if one matches.
func CategoryBand(category string) (Band, bool) {
	c := strings.ToLower(category)
	if c == "" {
		return Band{}, false
	}
	for _, cb := range categoryBands {
		for _, kw := range cb.keywords {
			if strings.Contains(c, kw) {
				return cb.band, true
			}
		}
	}
	return Band{}, false
}

// RatingBand is used when the category matches nothing: more popular
// places cost more.
func RatingBand(rating float64) Band {
	switch {
	case rating >= 7:
		return Band{20, 45}
	case rating >= 5:
		return Band{12, 30}
	case rating >= 3:
		return Band{8, 20}
	default:
		return Band{0, 15}
	}
}

func AttractionBand(category string, rating float64) Band {
	if b, ok := CategoryBand(category); ok {
		return b
	}
	return RatingBand(rating)
}

// AttractionPrice draws a per-person entry price for an attraction.
func AttractionPrice(rng Rand, category string, rating float64) int {
	return AttractionBand(category, rating).Draw(rng)
}

// Round rounds to the nearest whole currency unit, half away from zero.
func Round(v float64) int {
	return int(math.Round(v))
}
