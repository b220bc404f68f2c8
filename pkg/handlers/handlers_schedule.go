package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/duty-roster-go/pkg/database"
	"github.com/arnavshah/duty-roster-go/pkg/export"
	"github.com/arnavshah/duty-roster-go/pkg/models"
	"github.com/arnavshah/duty-roster-go/pkg/scheduler"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// roster returns the request's persons, or the configured roster when none were sent
func (h *Handler) roster(persons []models.Person) []models.Person {
	if len(persons) == 0 {
		return h.Persons
	}
	return persons
}

// generate binds a ScheduleRequest and runs the engine. It replies on failure
// and reports whether the caller should continue.
func (h *Handler) generate(c *gin.Context) (scheduler.Result, []models.Person, bool) {
	var req models.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return scheduler.Result{}, nil, false
	}
	if req.Year == 0 {
		req.Year = h.DefaultYear
	}
	persons := h.roster(req.Persons)

	res, err := scheduler.GenerateSchedule(req.Year, persons, scheduler.WithLogger(h.Logger))
	if err != nil {
		h.fail(c, err)
		return scheduler.Result{}, nil, false
	}
	if len(res.Conflicts) > 0 {
		h.Logger.Info("schedule has under-filled shifts",
			zap.Int("year", req.Year),
			zap.Int("conflicts", len(res.Conflicts)),
		)
	}

	h.RecordUsage(c, len(res.Schedule.Shifts), len(persons))
	return res, persons, true
}

func response(runID string, schedule models.Schedule, conflicts []models.ConflictReason, persons []models.Person) models.ScheduleResponse {
	stats := scheduler.Stats(schedule, persons)
	return models.ScheduleResponse{
		RunID:         runID,
		Schedule:      schedule,
		Conflicts:     conflicts,
		Stats:         stats,
		FairnessScore: scheduler.FairnessScore(stats),
	}
}

// ScheduleJSON generates a year's schedule and returns it with stats
func (h *Handler) ScheduleJSON(c *gin.Context) {
	res, persons, ok := h.generate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, response("", res.Schedule, res.Conflicts, persons))
}

func attachment(c *gin.Context, year int, ext string) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="duty-roster-%d.%s"`, year, ext))
}

// ScheduleCSV generates a schedule and returns it as a CSV file
func (h *Handler) ScheduleCSV(c *gin.Context) {
	res, persons, ok := h.generate(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.CSV(&buf, res.Schedule, persons); err != nil {
		h.abortInternal(c, "render csv", err)
		return
	}
	attachment(c, res.Schedule.Year, "csv")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ScheduleXLSX generates a schedule and returns it as a workbook, one sheet per month
func (h *Handler) ScheduleXLSX(c *gin.Context) {
	res, persons, ok := h.generate(c)
	if !ok {
		return
	}

	buf, err := export.XLSX(res.Schedule, persons)
	if err != nil {
		h.abortInternal(c, "render xlsx", err)
		return
	}
	attachment(c, res.Schedule.Year, "xlsx")
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ScheduleICS generates a schedule and returns it as an iCalendar feed
func (h *Handler) ScheduleICS(c *gin.Context) {
	res, persons, ok := h.generate(c)
	if !ok {
		return
	}

	attachment(c, res.Schedule.Year, "ics")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(export.ICS(res.Schedule, persons, h.now())))
}

// CreateRun generates a schedule and stores it
func (h *Handler) CreateRun(c *gin.Context) {
	res, persons, ok := h.generate(c)
	if !ok {
		return
	}

	run := database.NewRun(res.Schedule, persons, c.GetString(userIDContextKey))
	if err := h.Repo.SaveRun(c.Request.Context(), run); err != nil {
		h.abortInternal(c, "save run", err)
		return
	}
	h.Logger.Info("schedule run stored", zap.String("run_id", run.ID), zap.Int("year", run.Year))

	c.JSON(http.StatusCreated, response(run.ID, res.Schedule, res.Conflicts, persons))
}

// GetRun returns a stored schedule with recomputed stats
func (h *Handler) GetRun(c *gin.Context) {
	run, err := h.Repo.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response(run.ID, run.Schedule(), nil, run.Persons))
}

// ValidateRun checks a stored schedule against the roster it was generated for
func (h *Handler) ValidateRun(c *gin.Context) {
	run, err := h.Repo.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.validate(c, run.Schedule(), run.Persons)
}

// Roster returns the configured default roster
func (h *Handler) Roster(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"persons": h.Persons})
}
