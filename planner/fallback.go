package planner

import (
	"fmt"
	"strings"
)

// ─── Fallback content (used when enrichment services are unavailable) ────────

const pexelsPhoto = "https://images.pexels.com/photos/%d/pexels-photo-%d.jpeg?auto=compress&cs=tinysrgb&w=800"

func photoURL(id int) string {
	return fmt.Sprintf(pexelsPhoto, id, id)
}

var airportImage = photoURL(3207517)

type placeType struct {
	category     string
	names        []string
	descriptions []string
	images       []int
}

// Rotating catalog of generic place types. Every city has some of each.
var fallbackCatalog = []placeType{
	{
		category:     "museum",
		names:        []string{"City Museum", "National Museum", "Art Gallery", "History Museum", "Modern Art Museum"},
		descriptions: []string{"Explore the rich history and culture", "Discover fascinating exhibits", "Admire world-class art collections"},
		images:       []int{3807517, 3807516, 3807515},
	},
	{
		category:     "historic_site",
		names:        []string{"Old Town Square", "Historic District", "City Center", "Heritage Site", "Ancient Quarter"},
		descriptions: []string{"Walk through centuries of history", "Experience the city's heritage", "Discover architectural wonders"},
		images:       []int{3707517, 3707516, 3707515},
	},
	{
		category:     "park",
		names:        []string{"Central Park", "City Park", "Botanical Garden", "Riverside Park", "Public Garden"},
		descriptions: []string{"Relax in beautiful green spaces", "Enjoy nature in the heart of the city", "Perfect spot for a leisurely stroll"},
		images:       []int{3607517, 3607516, 3607515},
	},
	{
		category:     "shopping",
		names:        []string{"Shopping District", "Local Market", "Artisan Quarter", "Fashion Street", "Souvenir Market"},
		descriptions: []string{"Browse local shops and boutiques", "Find unique souvenirs and gifts", "Experience local shopping culture"},
		images:       []int{3507517, 3507516, 3507515},
	},
	{
		category:     "restaurant",
		names:        []string{"Local Restaurant", "Traditional Cuisine", "Rooftop Dining", "Waterfront Restaurant", "Gourmet Experience"},
		descriptions: []string{"Savor authentic local flavors", "Enjoy a memorable dining experience", "Taste the best of local cuisine"},
		images:       []int{3407517, 3407516, 3407515},
	},
	{
		category:     "cultural",
		names:        []string{"Cultural Center", "Theater District", "Music Hall", "Performance Venue", "Arts Quarter"},
		descriptions: []string{"Immerse yourself in local culture", "Experience performing arts", "Discover cultural traditions"},
		images:       []int{3307517, 3307516, 3307515},
	},
}

// fallbackAttractions generates count attractions starting at position
// offset in the rotation, so consecutive calls with increasing offsets
// do not repeat each other until the catalog wraps.
func fallbackAttractions(city string, offset, count int) []Attraction {
	out := make([]Attraction, 0, count)
	for i := offset; i < offset+count; i++ {
		t := fallbackCatalog[i%len(fallbackCatalog)]
		name := t.names[(i/len(fallbackCatalog))%len(t.names)]
		out = append(out, Attraction{
			Name:        fmt.Sprintf("%s of %s", name, city),
			Category:    t.category,
			Description: t.descriptions[i%len(t.descriptions)],
			Rating:      float64(6 + i%3),
			ImageURL:    photoURL(t.images[i%len(t.images)]),
		})
	}
	return out
}

type imageSet struct {
	keywords []string
	images   []int
}

var categoryImages = []imageSet{
	{[]string{"museum"}, []int{3807517, 3807516, 3807515}},
	{[]string{"historic", "architecture", "monument"}, []int{3707517, 3707516, 3707515}},
	{[]string{"religion", "church", "temple"}, []int{3607517, 3607516, 3607515}},
	{[]string{"natural", "park", "garden"}, []int{3507517, 3507516, 3507515}},
	{[]string{"entertainment", "theatre", "cultural"}, []int{3407517, 3407516, 3407515}},
}

var defaultImages = []int{3307517, 3307516, 3307515, 3307514, 3307513, 3307512}

// categoryImage picks a stock image for an attraction whose photo lookup
// came back empty.
func categoryImage(category string, index int) string {
	c := strings.ToLower(category)
	for _, set := range categoryImages {
		for _, kw := range set.keywords {
			if strings.Contains(c, kw) {
				return photoURL(set.images[index%len(set.images)])
			}
		}
	}
	return photoURL(defaultImages[index%len(defaultImages)])
}

var mealImages = []int{3407517, 3407516, 3407515, 3407514, 3407513, 3407512}

func mealImage(dayIndex int) string {
	return photoURL(mealImages[dayIndex%len(mealImages)])
}
