package handlers

import (
	"net/http"

	"warrantly/internal/services"

	"github.com/gin-gonic/gin"
)

// ValidateStore validates a Google Place ID and returns standardized
// location data for a product's purchase location
func ValidateStore(c *gin.Context) {
	placeID := c.Query("place_id")
	if placeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "place_id parameter is required"})
		return
	}

	location, err := services.ValidateStore(placeID)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to validate store", err)
		return
	}

	c.JSON(http.StatusOK, location)
}

// SearchStores looks up retailer or service-center locations by name
func SearchStores(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q parameter is required"})
		return
	}

	locations, err := services.SearchStores(query)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to search stores", err)
		return
	}

	c.JSON(http.StatusOK, locations)
}
