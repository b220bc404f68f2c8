package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	// ErrUnknownShiftKind is returned when a shift kind is outside the closed set
	ErrUnknownShiftKind = errors.New("unknown shift kind")
	// ErrDuplicatePerson is returned when two persons in a roster share an id
	ErrDuplicatePerson = errors.New("duplicate person id")
	// ErrInvalidPerson is returned for a profile the scheduler cannot plan with
	ErrInvalidPerson = errors.New("invalid person")
)

// DefaultRosterSize is the number of persons a staffed shift holds
const DefaultRosterSize = 3

// ShiftKind is the duty period of a shift
type ShiftKind string

const (
	Morning           ShiftKind = "MORNING"
	Afternoon         ShiftKind = "AFTERNOON"
	Night             ShiftKind = "NIGHT"
	SpecialObservance ShiftKind = "SPECIAL_OBSERVANCE"
)

// ShiftKinds lists every kind in declaration order
var ShiftKinds = []ShiftKind{Morning, Afternoon, Night, SpecialObservance}

// ParseShiftKind accepts a kind name in any letter case
func ParseShiftKind(s string) (ShiftKind, error) {
	k := ShiftKind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownShiftKind, s)
	}
	return k, nil
}

// Valid reports whether k is one of the known kinds
func (k ShiftKind) Valid() bool {
	return slices.Contains(ShiftKinds, k)
}

// UnmarshalJSON accepts kind names in any letter case. Unknown names are kept
// so validation can report them.
func (k *ShiftKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*k = ShiftKind(strings.ToUpper(strings.TrimSpace(s)))
	return nil
}

// Staffed reports whether shifts of this kind take assignments
func (k ShiftKind) Staffed() bool {
	return k != SpecialObservance
}

// Constraints is a person's eligibility profile. A nil field is unrestricted.
type Constraints struct {
	FixedPerMonth *int           `json:"fixed_per_month,omitempty"`
	DaysAllowed   []time.Weekday `json:"days_allowed,omitempty"`
	ShiftsAllowed []ShiftKind    `json:"shifts_allowed,omitempty"`
	ForbiddenDays []time.Weekday `json:"forbidden_days,omitempty"`
}

// HasQuota reports whether the person must serve an exact number of shifts per month.
// A quota of 0 is still a quota: the person is never assigned and 0 is expected.
func (c Constraints) HasQuota() bool {
	return c.FixedPerMonth != nil
}

// Quota returns the exact monthly quota, or 0 when there is none
func (c Constraints) Quota() int {
	if c.FixedPerMonth == nil {
		return 0
	}
	return *c.FixedPerMonth
}

// ForbidsDay reports whether d is one of the forbidden weekdays
func (c Constraints) ForbidsDay(d time.Weekday) bool {
	return slices.Contains(c.ForbiddenDays, d)
}

// AllowsDay reports whether d passes the allowed-weekdays restriction
func (c Constraints) AllowsDay(d time.Weekday) bool {
	return c.DaysAllowed == nil || slices.Contains(c.DaysAllowed, d)
}

// AllowsKind reports whether k passes the allowed-shift-kinds restriction
func (c Constraints) AllowsKind(k ShiftKind) bool {
	return c.ShiftsAllowed == nil || slices.Contains(c.ShiftsAllowed, k)
}

// Fixed reports whether the profile carries a quota or a weekday/kind whitelist
func (c Constraints) Fixed() bool {
	return c.HasQuota() || c.DaysAllowed != nil || c.ShiftsAllowed != nil
}

// Person represents a volunteer available for duty
type Person struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Constraints Constraints `json:"constraints"`
}

// Validate checks the profile: an id, a non-negative quota, weekdays in
// Sunday..Saturday and known shift kinds
func (p Person) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: person %q has no id", ErrInvalidPerson, p.Name)
	}
	c := p.Constraints
	if c.HasQuota() && c.Quota() < 0 {
		return fmt.Errorf("%w: %s has a negative monthly quota", ErrInvalidPerson, p.ID)
	}
	for _, days := range [][]time.Weekday{c.DaysAllowed, c.ForbiddenDays} {
		for _, d := range days {
			if d < time.Sunday || d > time.Saturday {
				return fmt.Errorf("%w: %s: weekday %d out of range", ErrInvalidPerson, p.ID, int(d))
			}
		}
	}
	for _, k := range c.ShiftsAllowed {
		if !k.Valid() {
			return fmt.Errorf("%w: %s: %w: %q", ErrInvalidPerson, p.ID, ErrUnknownShiftKind, k)
		}
	}
	return nil
}

// IndexPersons validates each profile and maps persons by id, rejecting duplicates
func IndexPersons(persons []Person) (map[string]Person, error) {
	index := make(map[string]Person, len(persons))
	for _, p := range persons {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := index[p.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePerson, p.ID)
		}
		index[p.ID] = p
	}
	return index, nil
}

// Shift represents one staffing slot on a calendar date
type Shift struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Kind     ShiftKind `json:"kind"`
	Assigned []string  `json:"assigned"`
}

// Has reports whether personID is on the shift's roster
func (s Shift) Has(personID string) bool {
	return slices.Contains(s.Assigned, personID)
}

// Schedule is the ordered set of shifts for one planning year
type Schedule struct {
	Year   int     `json:"year"`
	Shifts []Shift `json:"shifts"`
}

// Months returns the distinct months present in the schedule, chronologically
func (s Schedule) Months() []string {
	seen := make(map[string]bool)
	var months []string
	for _, sh := range s.Shifts {
		m := MonthKey(sh.Date)
		if !seen[m] {
			seen[m] = true
			months = append(months, m)
		}
	}
	slices.Sort(months)
	return months
}

// Clone returns a deep copy so callers can mutate rosters independently
func (s Schedule) Clone() Schedule {
	out := Schedule{Year: s.Year, Shifts: make([]Shift, len(s.Shifts))}
	for i, sh := range s.Shifts {
		sh.Assigned = append([]string{}, sh.Assigned...)
		out.Shifts[i] = sh
	}
	return out
}

// Status is the outcome of one validation rule
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// Violation is one concrete breach of a rule
type Violation struct {
	Message  string    `json:"message"`
	PersonID string    `json:"person_id,omitempty"`
	Date     string    `json:"date,omitempty"`
	Kind     ShiftKind `json:"kind,omitempty"`
	Month    string    `json:"month,omitempty"`
	Actual   *int      `json:"actual,omitempty"`
	Expected *int      `json:"expected,omitempty"`
}

// Finding is the result of evaluating one rule
type Finding struct {
	Rule       string      `json:"rule"`
	Status     Status      `json:"status"`
	Summary    string      `json:"summary"`
	Violations []Violation `json:"violations"`
}

// Passed reports whether the rule holds
func (f Finding) Passed() bool {
	return f.Status == StatusPass
}

// ConflictReason represents why a shift could not be filled
type ConflictReason struct {
	ShiftID string    `json:"shift_id"`
	Date    string    `json:"date"`
	Kind    ShiftKind `json:"kind"`
	Missing int       `json:"missing"`
	Reasons []string  `json:"reasons"`
}

// PersonStats holds how many shifts a person received, overall and per month
type PersonStats struct {
	PersonID string         `json:"person_id"`
	Name     string         `json:"name"`
	Total    int            `json:"total"`
	ByMonth  map[string]int `json:"by_month"`
}

// Date returns the civil date y-m-d as UTC midnight
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats t as YYYY-MM-DD
func DateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// MonthKey formats t as YYYY-MM
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// IntPtr is a convenience for building quota constraints
func IntPtr(v int) *int {
	return &v
}

// ScheduleRequest is the body of the scheduling endpoints
type ScheduleRequest struct {
	Year    int      `json:"year"`
	Persons []Person `json:"persons,omitempty"`
}

// ScheduleResponse is the data structure for the scheduling result
type ScheduleResponse struct {
	RunID         string           `json:"run_id,omitempty"`
	Schedule      Schedule         `json:"schedule"`
	Conflicts     []ConflictReason `json:"conflicts,omitempty"`
	Stats         []PersonStats    `json:"stats"`
	FairnessScore float64          `json:"fairness_score"`
}

// ValidateRequest is the body of the validation endpoint
type ValidateRequest struct {
	Schedule Schedule `json:"schedule"`
	Persons  []Person `json:"persons,omitempty"`
}

// ValidateResponse wraps the ordered findings
type ValidateResponse struct {
	Valid    bool      `json:"valid"`
	Findings []Finding `json:"findings"`
}
