package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/duty-roster-go/pkg/models"
	"github.com/arnavshah/duty-roster-go/pkg/roster"
)

func TestStats(t *testing.T) {
	schedule := models.Schedule{Year: 2026, Shifts: []models.Shift{
		{ID: "s1", Date: models.Date(2026, time.March, 1), Kind: models.Morning, Assigned: []string{"a", "b"}},
		{ID: "s2", Date: models.Date(2026, time.April, 1), Kind: models.Night, Assigned: []string{"a", "ghost"}},
	}}

	stats := Stats(schedule, people("a", "b", "c"))
	require.Len(t, stats, 3)
	assert.Equal(t, "a", stats[0].PersonID)
	assert.Equal(t, 2, stats[0].Total)
	assert.Equal(t, map[string]int{"2026-03": 1, "2026-04": 1}, stats[0].ByMonth)
	assert.Equal(t, 1, stats[1].Total)
	assert.Equal(t, 0, stats[2].Total)
	assert.Empty(t, stats[2].ByMonth)
}

func TestFairnessScore(t *testing.T) {
	assert.Equal(t, 100.0, FairnessScore(nil))
	assert.Equal(t, 100.0, FairnessScore([]models.PersonStats{{Total: 0}, {Total: 0}}))
	assert.Equal(t, 100.0, FairnessScore([]models.PersonStats{{Total: 4}, {Total: 4}}))
	// mean 2, deviation 2
	assert.Equal(t, 0.0, FairnessScore([]models.PersonStats{{Total: 4}, {Total: 0}}))
	// mean 4, deviation 1
	assert.InDelta(t, 75.0, FairnessScore([]models.PersonStats{{Total: 5}, {Total: 3}}), 1e-9)
}

func TestStats_DefaultRosterIsReasonablyFair(t *testing.T) {
	res, err := GenerateSchedule(2026, roster.Default())
	require.NoError(t, err)

	stats := Stats(res.Schedule, roster.Default())
	total := 0
	for _, s := range stats {
		total += s.Total
	}
	assert.Equal(t, 3*(len(res.Schedule.Shifts)-1), total)
	assert.Greater(t, FairnessScore(stats), 50.0)
}
