package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/duty-roster-go/pkg/models"
	"github.com/arnavshah/duty-roster-go/pkg/validator"
)

// ValidateInput checks a posted schedule and returns one finding per rule
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.ValidateRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	persons := h.roster(input.Persons)
	if h.validate(c, input.Schedule, persons) {
		h.RecordUsage(c, len(input.Schedule.Shifts), len(persons))
	}
}

// validate writes the findings or a 422 for a schedule that cannot be checked
func (h *Handler) validate(c *gin.Context, schedule models.Schedule, persons []models.Person) bool {
	findings, err := validator.Validate(schedule, persons)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return false
	}

	valid := true
	for _, f := range findings {
		if !f.Passed() {
			valid = false
			break
		}
	}
	c.JSON(http.StatusOK, models.ValidateResponse{Valid: valid, Findings: findings})
	return true
}
