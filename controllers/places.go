package controllers

import (
	"log"
	"net/http"

	"teamup/services/places"

	"github.com/gin-gonic/gin"
)

// @Summary Place autocomplete
// @Description Proxies a text search to the places provider. Empty input returns an empty prediction list.
// @Tags places
// @Produce json
// @Param input query string false "Partial place text"
// @Success 200 {object} object{predictions=array}
// @Failure 500 {object} object{error=string}
// @Router /places/autocomplete [get]
func PlacesAutocomplete(client *places.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		input := c.Query("input")
		if input == "" {
			c.JSON(http.StatusOK, gin.H{"predictions": []places.Prediction{}})
			return
		}

		predictions, err := client.Autocomplete(c.Request.Context(), input)
		if err != nil {
			log.Printf("Error fetching places: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch places"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"predictions": predictions})
	}
}

// @Summary Place details
// @Description Resolves a place id into name, address and coordinates
// @Tags places
// @Produce json
// @Param placeId query string true "Place id from autocomplete"
// @Success 200 {object} object{name=string,formatted_address=string}
// @Failure 400 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /places/details [get]
func PlaceDetails(client *places.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		placeID := c.Query("placeId")
		if placeID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Place ID is required"})
			return
		}

		details, err := client.PlaceDetails(c.Request.Context(), placeID)
		if err != nil {
			log.Printf("Error fetching place details: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch place details"})
			return
		}
		c.JSON(http.StatusOK, details)
	}
}
