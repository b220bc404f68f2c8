package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/duty-roster-go/pkg/database"
)

const usageDays = 30

// GetMyUsage returns usage stats for the authenticated API key
func (h *Handler) GetMyUsage(c *gin.Context) {
	raw, exists := c.Get(apiKeyContextKey)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API Key context missing"})
		return
	}
	apiKey := raw.(*database.APIKey)

	usage, err := h.Repo.UsageHistory(c.Request.Context(), apiKey.ID, usageDays)
	if err != nil {
		h.abortInternal(c, "could not fetch usage details", err)
		return
	}

	var totalRequests, totalShifts, totalPersons int64
	for _, u := range usage {
		totalRequests += int64(u.RequestCount)
		totalShifts += int64(u.TotalShifts)
		totalPersons += int64(u.TotalPersons)
	}

	c.JSON(http.StatusOK, gin.H{
		"key_name":      apiKey.Name,
		"rate_limit":    apiKey.RateLimit,
		"usage_history": usage,
		"totals": gin.H{
			"requests": totalRequests,
			"shifts":   totalShifts,
			"persons":  totalPersons,
		},
	})
}
