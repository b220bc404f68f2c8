package scheduler

import (
	"time"

	"github.com/arnavshah/duty-roster-go/pkg/models"
)

// Ledger accumulates per-person counters while a run fills shifts in order.
// A fresh Ledger is created for every Assign call.
type Ledger struct {
	total   map[string]int
	monthly map[string]map[string]int
	last    map[string]time.Time
	onDay   map[string]map[string]bool
}

// NewLedger returns an empty ledger
func NewLedger() *Ledger {
	return &Ledger{
		total:   make(map[string]int),
		monthly: make(map[string]map[string]int),
		last:    make(map[string]time.Time),
		onDay:   make(map[string]map[string]bool),
	}
}

// Record books personID on sh
func (l *Ledger) Record(personID string, sh models.Shift) {
	l.total[personID]++

	month := models.MonthKey(sh.Date)
	if l.monthly[personID] == nil {
		l.monthly[personID] = make(map[string]int)
	}
	l.monthly[personID][month]++

	if last, ok := l.last[personID]; !ok || sh.Date.After(last) {
		l.last[personID] = sh.Date
	}

	day := models.DateKey(sh.Date)
	if l.onDay[day] == nil {
		l.onDay[day] = make(map[string]bool)
	}
	l.onDay[day][personID] = true
}

// Total returns how many shifts personID holds so far
func (l *Ledger) Total(personID string) int {
	return l.total[personID]
}

// MonthCount returns personID's shifts in the month of date
func (l *Ledger) MonthCount(personID string, date time.Time) int {
	return l.monthly[personID][models.MonthKey(date)]
}

// OnDuty reports whether personID already holds a shift on date
func (l *Ledger) OnDuty(personID string, date time.Time) bool {
	return l.onDay[models.DateKey(date)][personID]
}

// LastAssigned returns the most recent date personID was booked
func (l *Ledger) LastAssigned(personID string) (time.Time, bool) {
	t, ok := l.last[personID]
	return t, ok
}

// DaysSinceLast returns whole days between personID's last shift and date.
// noHistory is returned for a person never booked, 0 when the last shift is not before date.
func (l *Ledger) DaysSinceLast(personID string, date time.Time, noHistory int) int {
	last, ok := l.last[personID]
	if !ok {
		return noHistory
	}
	if !last.Before(date) {
		return 0
	}
	return int(date.Sub(last).Hours() / 24)
}
