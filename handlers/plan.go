package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"tripplanner/planner"
	"tripplanner/services"
)

// PlanRequest carries trip details and, optionally, a plan the client has
// already edited. Without a plan one is synthesized from the details.
type PlanRequest struct {
	Details planner.TripDetails `json:"details"`
	Plan    *planner.TripPlan   `json:"plan"`
}

type EmailRequest struct {
	To      string              `json:"to" binding:"required,email"`
	Subject string              `json:"subject"`
	Details planner.TripDetails `json:"details"`
	Plan    *planner.TripPlan   `json:"plan"`
	TripID  string              `json:"tripId"`
}

// PlanHandler synthesizes a plan from bare TripDetails.
func (h *API) PlanHandler(c *gin.Context) {
	var details planner.TripDetails
	if err := c.ShouldBindJSON(&details); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	plan, err := h.Planner.Synthesize(c.Request.Context(), details)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log.Printf("✅ Plan for %s: %d days, total %d %s (%s)",
		details.DestinationCity, plan.TripDays, plan.TotalCost, plan.Currency, plan.Source)
	c.JSON(http.StatusOK, plan)
}

// resolvePlan returns the client's plan after validation, or a fresh one.
func (h *API) resolvePlan(c *gin.Context, details planner.TripDetails, plan *planner.TripPlan) (*planner.TripPlan, bool) {
	if plan != nil {
		if err := plan.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, false
		}
		plan.Recalculate()
		return plan, true
	}

	plan, err := h.Planner.Synthesize(c.Request.Context(), details)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return plan, true
}

func (h *API) EmailHandler(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if h.Mailer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Email delivery is not configured"})
		return
	}

	plan, ok := h.resolvePlan(c, req.Details, req.Plan)
	if !ok {
		return
	}

	subject := req.Subject
	if subject == "" {
		subject = fmt.Sprintf("Your trip to %s", req.Details.DestinationCity)
	}

	html, err := services.RenderItineraryHTML(plan, req.Details, h.tripLink(req.TripID))
	if err != nil {
		log.Printf("❌ Email render failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render email"})
		return
	}

	id, err := h.Mailer.Send(c.Request.Context(), services.Email{To: req.To, Subject: subject, HTML: html})
	if err != nil {
		log.Printf("❌ Email send failed: %v", err)
		if errors.Is(err, services.ErrEmailNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Email delivery is not configured"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send email"})
		return
	}

	log.Printf("✅ Itinerary e-mailed (%s)", id)
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// PlanPDFHandler renders a PDF without saving anything.
func (h *API) PlanPDFHandler(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	plan, ok := h.resolvePlan(c, req.Details, req.Plan)
	if !ok {
		return
	}
	h.writePDF(c, plan, req.Details, "")
}

func (h *API) writePDF(c *gin.Context, plan *planner.TripPlan, details planner.TripDetails, id string) {
	pdfBytes, err := services.GeneratePlanPDF(plan, details, h.tripLink(id))
	if err != nil {
		log.Printf("❌ PDF generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=trip-itinerary.pdf")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
