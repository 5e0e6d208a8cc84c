package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/team-avesta/Eventure-sub001/internal/geometry"
	"github.com/team-avesta/Eventure-sub001/internal/models"
)

// regionRequest is the flat region body. The id comes from the path.
type regionRequest struct {
	Coordinates geometry.Rect    `json:"coordinates"`
	EventType   models.EventType `json:"eventType"   binding:"required"`
	Name        string           `json:"name"`
	Category    string           `json:"category"`
	Action      string           `json:"action"`
	Value       string           `json:"value"`
	Dimensions  []string         `json:"dimensions"  binding:"omitempty,unique,dive,required"`
	Description string           `json:"description"`
}

// UpsertRegion creates or replaces one region on a screenshot.
func UpsertRegion(c *gin.Context) {
	var req regionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	region, err := models.Record{
		ID:          c.Param("eventId"),
		Coordinates: req.Coordinates,
		EventType:   req.EventType,
		Name:        req.Name,
		Category:    req.Category,
		Action:      req.Action,
		Value:       req.Value,
		Dimensions:  req.Dimensions,
		Description: req.Description,
	}.Region()
	if err != nil {
		respondError(c, err)
		return
	}

	saved, err := docStore.UpsertRegion(c.Request.Context(), c.Param("id"), region)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": saved})
}

// DeleteRegion removes a region. Deleting an unknown region succeeds.
func DeleteRegion(c *gin.Context) {
	if err := docStore.DeleteRegion(c.Request.Context(), c.Param("id"), c.Param("eventId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
