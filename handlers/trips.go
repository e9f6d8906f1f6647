package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"tripplanner/database"
	"tripplanner/planner"
)

type ToggleRequest struct {
	Included *bool `json:"included" binding:"required"`
}

func (h *API) requireStore(c *gin.Context) bool {
	if h.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Trip storage is not configured"})
		return false
	}
	return true
}

func (h *API) SaveTripHandler(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if req.Details.DestinationCity == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": planner.ErrMissingDestination.Error()})
		return
	}

	plan, ok := h.resolvePlan(c, req.Details, req.Plan)
	if !ok {
		return
	}

	id, err := h.Store.SaveTrip(c.Request.Context(), req.Details, plan)
	if err != nil {
		log.Printf("❌ Failed to save trip: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save trip"})
		return
	}

	log.Printf("✅ Trip %s saved (total %d)", id, plan.TotalCost)
	c.JSON(http.StatusCreated, gin.H{"id": id, "totalCost": plan.TotalCost, "url": h.tripLink(id)})
}

func (h *API) GetTripHandler(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	trip, ok := h.loadTrip(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, trip)
}

func (h *API) loadTrip(c *gin.Context) (*database.Trip, bool) {
	trip, err := h.Store.GetTrip(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
		return nil, false
	}
	if err != nil {
		log.Printf("❌ Failed to load trip %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load trip"})
		return nil, false
	}
	return trip, true
}

func (h *API) ToggleItemHandler(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	total, err := h.Store.SetItemIncluded(c.Request.Context(), c.Param("id"), c.Param("itemId"), *req.Included)
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
	case errors.Is(err, planner.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
	case err != nil:
		log.Printf("❌ Failed to toggle %s on trip %s: %v", c.Param("itemId"), c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update trip"})
	default:
		c.JSON(http.StatusOK, gin.H{"totalCost": total})
	}
}

func (h *API) TripPDFHandler(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	trip, ok := h.loadTrip(c)
	if !ok {
		return
	}
	h.writePDF(c, trip.Plan, trip.Details, trip.ID)
}
