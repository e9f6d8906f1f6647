package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tripplanner/pricing"
)

type FlightEstimateRequest struct {
	From          string `json:"from" binding:"required"`
	To            string `json:"to" binding:"required"`
	FlightClass   string `json:"flightClass"`
	DepartureDate string `json:"departureDate"`
}

func (h *API) CityHandler(c *gin.Context) {
	name := pricing.CityName(c.Param("name"))
	city, known := pricing.Lookup(name)

	resp := gin.H{
		"city":        name,
		"known":       known,
		"multiplier":  pricing.CostMultiplier(name),
		"airportCode": pricing.AirportCode(name),
		"coordinates": pricing.CityCoordinates(name),
	}
	if known {
		resp["city"] = city.Name
		resp["country"] = city.Country
	}
	c.JSON(http.StatusOK, resp)
}

func (h *API) FlightEstimateHandler(c *gin.Context) {
	var req FlightEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	class, err := pricing.ParseCabinClass(req.FlightClass)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	departure := time.Now()
	if req.DepartureDate != "" {
		if departure, err = time.Parse("2006-01-02", req.DepartureDate); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "departureDate must be YYYY-MM-DD"})
			return
		}
	}

	est := pricing.EstimateFlightPrice(pricing.CityCoordinates(req.From), pricing.CityCoordinates(req.To), class, departure)
	c.JSON(http.StatusOK, gin.H{
		"from":        pricing.AirportCode(req.From),
		"to":          pricing.AirportCode(req.To),
		"flightClass": class,
		"estimate":    est,
	})
}
