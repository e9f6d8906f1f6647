package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tripplanner/database"
	"tripplanner/planner"
	"tripplanner/services"
)

type Synthesizer interface {
	Synthesize(ctx context.Context, details planner.TripDetails) (*planner.TripPlan, error)
}

type TripStore interface {
	SaveTrip(ctx context.Context, details planner.TripDetails, plan *planner.TripPlan) (string, error)
	GetTrip(ctx context.Context, id string) (*database.Trip, error)
	SetItemIncluded(ctx context.Context, tripID, itemRef string, included bool) (int, error)
	Ping(ctx context.Context) error
}

type Mailer interface {
	Send(ctx context.Context, e services.Email) (string, error)
}

// API holds the collaborators shared by every handler. Store, Mailer and
// RedisPing may be nil when the backing service is not configured.
type API struct {
	Planner       Synthesizer
	Store         TripStore
	Mailer        Mailer
	RedisPing     func(ctx context.Context) error
	PublicBaseURL string
	Limiter       *RateLimiter
}

// Register mounts every route on the given group (normally /api).
func (h *API) Register(api *gin.RouterGroup) {
	limited := func(c *gin.Context) { c.Next() }
	if h.Limiter != nil {
		limited = h.Limiter.Middleware()
	}

	api.GET("/health", h.HealthHandler)
	api.GET("/cities/:name", h.CityHandler)
	api.POST("/estimates/flight", h.FlightEstimateHandler)

	api.POST("/plans", limited, h.PlanHandler)
	api.POST("/plans/email", limited, h.EmailHandler)
	api.POST("/plans/pdf", limited, h.PlanPDFHandler)

	api.POST("/trips", h.SaveTripHandler)
	api.GET("/trips/:id", h.GetTripHandler)
	api.PATCH("/trips/:id/items/:itemId", h.ToggleItemHandler)
	api.GET("/trips/:id/pdf", h.TripPDFHandler)
}

func (h *API) tripLink(id string) string {
	if h.PublicBaseURL == "" || id == "" {
		return ""
	}
	return strings.TrimRight(h.PublicBaseURL, "/") + "/trips/" + id
}

func (h *API) HealthHandler(c *gin.Context) {
	ctx := c.Request.Context()

	dbStatus := "not configured"
	if h.Store != nil {
		dbStatus = "ok"
		if err := h.Store.Ping(ctx); err != nil {
			dbStatus = "error: " + err.Error()
		}
	}

	redisStatus := "not configured"
	if h.RedisPing != nil {
		redisStatus = "ok"
		if err := h.RedisPing(ctx); err != nil {
			redisStatus = "error: " + err.Error()
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"service":  "Trip Planner API",
		"database": dbStatus,
		"redis":    redisStatus,
	})
}
