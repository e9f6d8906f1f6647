package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const pexelsBaseURL = "https://api.pexels.com"

// ─── Pexels Client ────────────────────────────────────────────────────────────

// PexelsClient finds a stock photo for a place. Outbound calls share one
// limiter so a large itinerary cannot burst through the API quota.
type PexelsClient struct {
	apiKey  string
	BaseURL string
	client  *retryingClient
	limiter *rate.Limiter
}

func NewPexelsClient(apiKey string, perSecond float64, burst int) *PexelsClient {
	if perSecond <= 0 {
		perSecond = 5
	}
	if burst <= 0 {
		burst = 5
	}
	return &PexelsClient{
		apiKey:  apiKey,
		BaseURL: pexelsBaseURL,
		client:  newRetryingClient(8 * time.Second),
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

type pexelsSearchResponse struct {
	Photos []struct {
		Photographer string `json:"photographer"`
		Src          struct {
			Medium string `json:"medium"`
			Large  string `json:"large"`
		} `json:"src"`
	} `json:"photos"`
}

// Photo implements planner.PhotoProvider. It returns "" when the search
// has no results.
func (c *PexelsClient) Photo(ctx context.Context, subject, city string) (img string, err error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("pexels not configured")
	}
	query := strings.TrimSpace(subject + " " + city)
	if query == "" {
		return "", nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("pexels throttled: %w", err)
	}
	defer timeOp("pexels.search")(&err)

	endpoint := fmt.Sprintf("%s/v1/search?query=%s&per_page=5&page=1", c.BaseURL, url.QueryEscape(query))
	body, err := c.client.doWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", c.apiKey)
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("photo search failed: %w", err)
	}

	var resp pexelsSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse photo search: %w", err)
	}
	if len(resp.Photos) == 0 {
		return "", nil
	}
	p := resp.Photos[0]
	if p.Src.Medium != "" {
		return p.Src.Medium, nil
	}
	return p.Src.Large, nil
}
