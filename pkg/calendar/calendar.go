// Package calendar derives the shift skeleton of a planning year.
package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/arnavshah/duty-roster-go/pkg/models"
)

const (
	MinYear = 1900
	MaxYear = 9999
)

// ErrInvalidYear is returned for a target year outside [MinYear, MaxYear]
var ErrInvalidYear = errors.New("invalid planning year")

// Exception replaces the weekday rules of one date with a single shift
type Exception struct {
	Month time.Month       `json:"month"`
	Day   int              `json:"day"`
	Kind  models.ShiftKind `json:"kind"`
}

// Matches reports whether t falls on the exception's month and day
func (e Exception) Matches(t time.Time) bool {
	return t.Month() == e.Month && t.Day() == e.Day
}

// SpecialObservance is the one fixed exception of the yearly calendar
var SpecialObservance = Exception{Month: time.June, Day: 7, Kind: models.SpecialObservance}

// Generator builds schedule skeletons from weekday rules and exceptions
type Generator struct {
	Exceptions []Exception
}

// New creates a generator with the given exceptions
func New(exceptions ...Exception) *Generator {
	return &Generator{Exceptions: exceptions}
}

// Default returns the generator with the June 7 special observance
func Default() *Generator {
	return New(SpecialObservance)
}

// ValidateYear checks that year is inside the supported range
func ValidateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("%w: %d (expected %d-%d)", ErrInvalidYear, year, MinYear, MaxYear)
	}
	return nil
}

// Horizon returns the first and last planning day of year
func Horizon(year int) (time.Time, time.Time) {
	return models.Date(year, time.March, 1), models.Date(year, time.December, 31)
}

// KindsFor returns the kinds generated for date, in generation order
func (g *Generator) KindsFor(date time.Time) []models.ShiftKind {
	for _, ex := range g.Exceptions {
		if ex.Matches(date) {
			return []models.ShiftKind{ex.Kind}
		}
	}

	switch date.Weekday() {
	case time.Sunday:
		return []models.ShiftKind{models.Morning, models.Night}
	case time.Wednesday:
		return []models.ShiftKind{models.Night}
	case time.Saturday:
		// First Saturday of the month has the afternoon rehearsal.
		if date.Day() <= 7 {
			return []models.ShiftKind{models.Afternoon, models.Night}
		}
		return []models.ShiftKind{models.Night}
	}
	return nil
}

// Generate produces every shift of year with an empty roster
func (g *Generator) Generate(year int) (models.Schedule, error) {
	if err := ValidateYear(year); err != nil {
		return models.Schedule{}, err
	}

	start, end := Horizon(year)
	schedule := models.Schedule{Year: year}
	counter := 1
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		for _, kind := range g.KindsFor(day) {
			schedule.Shifts = append(schedule.Shifts, models.Shift{
				ID:       fmt.Sprintf("shift-%d", counter),
				Date:     day,
				Kind:     kind,
				Assigned: []string{},
			})
			counter++
		}
	}
	return schedule, nil
}

// Upcoming returns the first shift dated on or after now
func Upcoming(schedule models.Schedule, now time.Time) (models.Shift, bool) {
	today := models.Date(now.Year(), now.Month(), now.Day())
	for _, sh := range schedule.Shifts {
		if !sh.Date.Before(today) {
			return sh, true
		}
	}
	return models.Shift{}, false
}
