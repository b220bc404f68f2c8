// Package validator re-checks a schedule against the roster rules and the
// calendar it should cover. Rule breaches are reported as findings; only
// structurally malformed input is returned as an error.
package validator

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/arnavshah/duty-roster-go/pkg/calendar"
	"github.com/arnavshah/duty-roster-go/pkg/models"
)

var (
	// ErrUnknownPerson is returned when a roster entry names an id absent from the persons list
	ErrUnknownPerson = errors.New("unknown person id")
	// ErrMalformedShift is returned for a roster no schedule could legally hold
	ErrMalformedShift = errors.New("malformed shift")
)

const (
	RuleForbiddenDays = "Forbidden weekdays"
	RuleNoDoubleBook  = "No double booking"
	RuleCalendar      = "Calendar completeness"
)

// Validator evaluates a schedule against a fixed roster
type Validator struct {
	calendar       *calendar.Generator
	rosterSize     int
	forbiddenGroup []string
	groupSet       bool
}

// Option configures a Validator
type Option func(*Validator)

// WithCalendar sets the generator used to rebuild the expected skeleton
func WithCalendar(g *calendar.Generator) Option {
	return func(v *Validator) { v.calendar = g }
}

// WithRosterSize sets the most persons a staffed shift may hold
func WithRosterSize(n int) Option {
	return func(v *Validator) { v.rosterSize = n }
}

// WithForbiddenGroup limits the forbidden-weekday check to the given person ids
func WithForbiddenGroup(ids ...string) Option {
	return func(v *Validator) {
		v.forbiddenGroup = ids
		v.groupSet = true
	}
}

// New creates a validator
func New(opts ...Option) *Validator {
	v := &Validator{calendar: calendar.Default(), rosterSize: models.DefaultRosterSize}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs every rule with default options
func Validate(schedule models.Schedule, persons []models.Person, opts ...Option) ([]models.Finding, error) {
	return New(opts...).Validate(schedule, persons)
}

// Validate returns one finding per rule, in a fixed order. No rule suppresses another.
func (v *Validator) Validate(schedule models.Schedule, persons []models.Person) ([]models.Finding, error) {
	index, err := models.IndexPersons(persons)
	if err != nil {
		return nil, err
	}
	if err := v.checkStructure(schedule, index); err != nil {
		return nil, err
	}
	for _, id := range v.forbiddenGroup {
		if _, ok := index[id]; !ok {
			return nil, fmt.Errorf("%w: %q in forbidden-weekday group", ErrUnknownPerson, id)
		}
	}

	var findings []models.Finding
	for _, p := range persons {
		if p.Constraints.Fixed() {
			findings = append(findings, fixedRules(schedule, p))
		}
	}
	findings = append(findings, v.forbiddenDays(schedule, persons, index))
	findings = append(findings, noDoubleBooking(schedule, index))

	completeness, err := v.completeness(schedule)
	if err != nil {
		return nil, err
	}
	findings = append(findings, completeness)
	return findings, nil
}

func (v *Validator) checkStructure(schedule models.Schedule, index map[string]models.Person) error {
	if err := calendar.ValidateYear(schedule.Year); err != nil {
		return err
	}
	for _, sh := range schedule.Shifts {
		if !sh.Kind.Valid() {
			return fmt.Errorf("shift %s: %w: %q", sh.ID, models.ErrUnknownShiftKind, sh.Kind)
		}
		if !sh.Kind.Staffed() && len(sh.Assigned) > 0 {
			return fmt.Errorf("shift %s: %w: %s takes no assignments", sh.ID, ErrMalformedShift, sh.Kind)
		}
		if len(sh.Assigned) > v.rosterSize {
			return fmt.Errorf("shift %s: %w: %d persons (at most %d)", sh.ID, ErrMalformedShift, len(sh.Assigned), v.rosterSize)
		}
		seen := make(map[string]bool, len(sh.Assigned))
		for _, id := range sh.Assigned {
			if _, ok := index[id]; !ok {
				return fmt.Errorf("shift %s: %w: %q", sh.ID, ErrUnknownPerson, id)
			}
			if seen[id] {
				return fmt.Errorf("shift %s: %w: %q listed twice", sh.ID, ErrMalformedShift, id)
			}
			seen[id] = true
		}
	}
	return nil
}

func finding(rule string, violations []models.Violation) models.Finding {
	f := models.Finding{Rule: rule, Violations: violations}
	if f.Violations == nil {
		f.Violations = []models.Violation{}
	}
	if len(violations) == 0 {
		f.Status = models.StatusPass
		f.Summary = "OK"
	} else {
		f.Status = models.StatusFail
		f.Summary = fmt.Sprintf("%d violation(s)", len(violations))
	}
	return f
}

func assignmentsOf(schedule models.Schedule, personID string) []models.Shift {
	var out []models.Shift
	for _, sh := range schedule.Shifts {
		if sh.Has(personID) {
			out = append(out, sh)
		}
	}
	return out
}

func fixedRules(schedule models.Schedule, p models.Person) models.Finding {
	c := p.Constraints
	assigned := assignmentsOf(schedule, p.ID)

	var violations []models.Violation
	for _, sh := range assigned {
		day := sh.Date.Weekday()
		if c.ForbidsDay(day) || !c.AllowsDay(day) || !c.AllowsKind(sh.Kind) {
			date := models.DateKey(sh.Date)
			violations = append(violations, models.Violation{
				Message:  fmt.Sprintf("%s on a disallowed day/shift: %s (%s)", p.Name, date, sh.Kind),
				PersonID: p.ID,
				Date:     date,
				Kind:     sh.Kind,
			})
		}
	}

	if c.HasQuota() {
		byMonth := make(map[string]int)
		for _, sh := range assigned {
			byMonth[models.MonthKey(sh.Date)]++
		}
		for _, month := range schedule.Months() {
			count := byMonth[month]
			if count != c.Quota() {
				violations = append(violations, models.Violation{
					Message:  fmt.Sprintf("%s in %s: %d shifts (expected %d)", p.Name, month, count, c.Quota()),
					PersonID: p.ID,
					Month:    month,
					Actual:   models.IntPtr(count),
					Expected: models.IntPtr(c.Quota()),
				})
			}
		}
	}

	return finding(fmt.Sprintf("Fixed rules: %s (%s)", p.Name, Describe(c)), violations)
}

func (v *Validator) forbiddenDays(schedule models.Schedule, persons []models.Person, index map[string]models.Person) models.Finding {
	group := v.forbiddenGroup
	if !v.groupSet {
		for _, p := range persons {
			if len(p.Constraints.ForbiddenDays) > 0 {
				group = append(group, p.ID)
			}
		}
	}

	var names []string
	var violations []models.Violation
	for _, id := range group {
		p := index[id]
		names = append(names, p.Name)
		for _, sh := range assignmentsOf(schedule, id) {
			if p.Constraints.ForbidsDay(sh.Date.Weekday()) {
				date := models.DateKey(sh.Date)
				violations = append(violations, models.Violation{
					Message:  fmt.Sprintf("%s on a %s: %s", p.Name, sh.Date.Weekday(), date),
					PersonID: id,
					Date:     date,
					Kind:     sh.Kind,
				})
			}
		}
	}

	rule := RuleForbiddenDays
	if len(names) > 0 {
		rule = fmt.Sprintf("%s (%s)", rule, strings.Join(names, ", "))
	}
	return finding(rule, violations)
}

func noDoubleBooking(schedule models.Schedule, index map[string]models.Person) models.Finding {
	byDay := make(map[string][]models.Shift)
	var days []string
	for _, sh := range schedule.Shifts {
		key := models.DateKey(sh.Date)
		if _, ok := byDay[key]; !ok {
			days = append(days, key)
		}
		byDay[key] = append(byDay[key], sh)
	}
	slices.Sort(days)

	var violations []models.Violation
	for _, day := range days {
		seen := make(map[string]bool)
		for _, sh := range byDay[day] {
			for _, id := range sh.Assigned {
				if seen[id] {
					violations = append(violations, models.Violation{
						Message:  fmt.Sprintf("%s booked more than once on %s", index[id].Name, day),
						PersonID: id,
						Date:     day,
						Kind:     sh.Kind,
					})
				}
				seen[id] = true
			}
		}
	}
	return finding(RuleNoDoubleBook, violations)
}

func (v *Validator) completeness(schedule models.Schedule) (models.Finding, error) {
	expected, err := v.calendar.Generate(schedule.Year)
	if err != nil {
		return models.Finding{}, err
	}

	var violations []models.Violation
	if len(schedule.Shifts) != len(expected.Shifts) {
		violations = append(violations, models.Violation{
			Message:  fmt.Sprintf("wrong total of shifts: %d (expected %d)", len(schedule.Shifts), len(expected.Shifts)),
			Actual:   models.IntPtr(len(schedule.Shifts)),
			Expected: models.IntPtr(len(expected.Shifts)),
		})
	}

	present := make(map[string]bool, len(schedule.Shifts))
	for _, sh := range schedule.Shifts {
		present[models.DateKey(sh.Date)] = true
	}
	reported := make(map[string]bool)
	for _, sh := range expected.Shifts {
		date := models.DateKey(sh.Date)
		if present[date] || reported[date] {
			continue
		}
		reported[date] = true
		violations = append(violations, models.Violation{
			Message: fmt.Sprintf("missing date: %s", date),
			Date:    date,
		})
	}
	return finding(RuleCalendar, violations), nil
}

// Describe renders a constraint profile for rule names, e.g. "2x/month, Wednesday, NIGHT"
func Describe(c models.Constraints) string {
	var parts []string
	if c.HasQuota() {
		parts = append(parts, fmt.Sprintf("%dx/month", c.Quota()))
	}
	if c.DaysAllowed != nil {
		parts = append(parts, weekdays(c.DaysAllowed))
	}
	if c.ShiftsAllowed != nil {
		kinds := make([]string, len(c.ShiftsAllowed))
		for i, k := range c.ShiftsAllowed {
			kinds[i] = string(k)
		}
		parts = append(parts, strings.Join(kinds, "/"))
	}
	if len(c.ForbiddenDays) > 0 {
		parts = append(parts, "not "+weekdays(c.ForbiddenDays))
	}
	if len(parts) == 0 {
		return "unrestricted"
	}
	return strings.Join(parts, ", ")
}

func weekdays(days []time.Weekday) string {
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()
	}
	return strings.Join(names, "/")
}
