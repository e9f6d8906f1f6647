package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tripplanner/planner"
)

const openTripMapBaseURL = "https://api.opentripmap.com"

// ─── OpenTripMap Client ───────────────────────────────────────────────────────

// OpenTripMapClient looks up points of interest around a coordinate.
type OpenTripMapClient struct {
	apiKey  string
	BaseURL string
	client  *retryingClient
}

func NewOpenTripMapClient(apiKey string) *OpenTripMapClient {
	return &OpenTripMapClient{
		apiKey:  apiKey,
		BaseURL: openTripMapBaseURL,
		client:  newRetryingClient(10 * time.Second),
	}
}

type otmPlace struct {
	XID   string `json:"xid"`
	Name  string `json:"name"`
	Rate  int    `json:"rate"`
	Kinds string `json:"kinds"`
	Point struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"point"`
}

// Attractions implements planner.AttractionProvider.
func (c *OpenTripMapClient) Attractions(ctx context.Context, q planner.AttractionQuery) (places []planner.Attraction, err error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("opentripmap not configured")
	}
	defer timeOp("opentripmap.radius")(&err)

	params := url.Values{}
	params.Set("radius", strconv.Itoa(q.RadiusMeters))
	params.Set("lon", strconv.FormatFloat(q.Lon, 'f', 6, 64))
	params.Set("lat", strconv.FormatFloat(q.Lat, 'f', 6, 64))
	params.Set("kinds", "interesting_places")
	params.Set("rate", "2")
	params.Set("format", "json")
	// Unnamed places are dropped below; over-fetch so the limit still fills.
	params.Set("limit", strconv.Itoa(q.Limit*2))
	params.Set("apikey", c.apiKey)
	endpoint := c.BaseURL + "/0.1/en/places/radius?" + params.Encode()

	body, err := c.client.doWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("attraction search failed: %w", err)
	}

	return parsePlaces(body, q.Limit)
}

func parsePlaces(data []byte, limit int) ([]planner.Attraction, error) {
	var raw []otmPlace
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse places: %w", err)
	}

	out := make([]planner.Attraction, 0, limit)
	seen := make(map[string]bool, len(raw))
	for _, p := range raw {
		name := strings.TrimSpace(p.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		out = append(out, planner.Attraction{
			Name:     name,
			Category: primaryKind(p.Kinds),
			Rating:   rateToRating(p.Rate),
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// primaryKind picks the most specific kind from a comma separated list.
func primaryKind(kinds string) string {
	for _, k := range strings.Split(kinds, ",") {
		k = strings.TrimSpace(k)
		switch k {
		case "", "interesting_places", "other", "tourist_object":
			continue
		}
		return k
	}
	return "interesting_places"
}

// rateToRating maps the 1..3 popularity scale (plus 4 for a heritage
// marker, so 7 is "3h") onto 0..10.
func rateToRating(rate int) float64 {
	heritage := false
	if rate > 3 {
		heritage = true
		rate -= 4
	}
	r := float64(rate) * 3
	if heritage {
		r++
	}
	switch {
	case r < 0:
		return 0
	case r > 10:
		return 10
	}
	return r
}
