package scheduler

import (
	"math"

	"github.com/arnavshah/duty-roster-go/pkg/models"
)

// Stats counts each person's shifts overall and per month, in roster order.
// Ids absent from persons are ignored.
func Stats(schedule models.Schedule, persons []models.Person) []models.PersonStats {
	index := make(map[string]int, len(persons))
	out := make([]models.PersonStats, len(persons))
	for i, p := range persons {
		index[p.ID] = i
		out[i] = models.PersonStats{PersonID: p.ID, Name: p.Name, ByMonth: make(map[string]int)}
	}

	for _, sh := range schedule.Shifts {
		month := models.MonthKey(sh.Date)
		for _, id := range sh.Assigned {
			i, ok := index[id]
			if !ok {
				continue
			}
			out[i].Total++
			out[i].ByMonth[month]++
		}
	}
	return out
}

// FairnessScore returns a percentage (0-100) representing how evenly
// shifts are distributed. 100% is perfectly fair (Standard Deviation = 0).
func FairnessScore(stats []models.PersonStats) float64 {
	if len(stats) == 0 {
		return 100.0
	}

	var sum float64
	for _, s := range stats {
		sum += float64(s.Total)
	}
	if sum == 0 {
		return 100.0
	}

	mean := sum / float64(len(stats))

	var varianceSum float64
	for _, s := range stats {
		diff := float64(s.Total) - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / float64(len(stats)))

	// 0% once the deviation reaches the mean.
	score := (1.0 - (stdDev / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}
