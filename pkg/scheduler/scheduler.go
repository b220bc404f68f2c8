package scheduler

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/arnavshah/duty-roster-go/pkg/calendar"
	"github.com/arnavshah/duty-roster-go/pkg/models"
)

// Tuning holds the empirical weights of the fairness score
type Tuning struct {
	RosterSize     int `json:"roster_size"`
	SpacingWeight  int `json:"spacing_weight"`
	BalancePenalty int `json:"balance_penalty"`
	QuotaBonus     int `json:"quota_bonus"`
	NoHistoryDays  int `json:"no_history_days"`
}

// DefaultTuning returns the weights the roster has always been planned with
func DefaultTuning() Tuning {
	return Tuning{
		RosterSize:     models.DefaultRosterSize,
		SpacingWeight:  2,
		BalancePenalty: 10,
		QuotaBonus:     50,
		NoHistoryDays:  100,
	}
}

// Scheduler handles the logic of assigning persons to shifts
type Scheduler struct {
	Persons   []models.Person
	Tuning    Tuning
	Conflicts []models.ConflictReason

	logger *zap.Logger
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithTuning overrides the default scoring weights
func WithTuning(t Tuning) Option {
	return func(s *Scheduler) { s.Tuning = t }
}

// WithLogger attaches a logger for under-filled shift reports
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScheduler creates a new scheduler instance over an ordered roster
func NewScheduler(persons []models.Person, opts ...Option) (*Scheduler, error) {
	if _, err := models.IndexPersons(persons); err != nil {
		return nil, err
	}

	s := &Scheduler{
		Persons: persons,
		Tuning:  DefaultTuning(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type rejection int

const (
	eligible rejection = iota
	onDutyThatDay
	forbiddenDay
	dayNotAllowed
	kindNotAllowed
	quotaReached
)

// check runs the eligibility rules in order and reports the first one that fails
func (s *Scheduler) check(p models.Person, sh models.Shift, l *Ledger) rejection {
	c := p.Constraints
	day := sh.Date.Weekday()

	if l.OnDuty(p.ID, sh.Date) {
		return onDutyThatDay
	}
	if c.ForbidsDay(day) {
		return forbiddenDay
	}
	if !c.AllowsDay(day) {
		return dayNotAllowed
	}
	if !c.AllowsKind(sh.Kind) {
		return kindNotAllowed
	}
	// A zero quota rejects every shift.
	if c.HasQuota() && l.MonthCount(p.ID, sh.Date) >= c.Quota() {
		return quotaReached
	}
	return eligible
}

// CanTake checks if a person may be added to the shift given the assignments so far
func (s *Scheduler) CanTake(p models.Person, sh models.Shift, l *Ledger) bool {
	return s.check(p, sh, l) == eligible
}

// Score ranks a candidate for the shift. Higher is preferred.
func (s *Scheduler) Score(p models.Person, sh models.Shift, l *Ledger) int {
	t := s.Tuning
	score := t.SpacingWeight*l.DaysSinceLast(p.ID, sh.Date, t.NoHistoryDays) - t.BalancePenalty*l.Total(p.ID)
	if p.Constraints.HasQuota() {
		score += t.QuotaBonus
	}
	return score
}

// Assign fills every staffed shift in schedule order and returns the run's ledger
func (s *Scheduler) Assign(schedule *models.Schedule) *Ledger {
	l := NewLedger()
	s.Conflicts = nil

	type candidate struct {
		person models.Person
		score  int
	}

	for i := range schedule.Shifts {
		shift := &schedule.Shifts[i]
		if !shift.Kind.Staffed() {
			continue
		}

		counts := make(map[rejection]int)
		var candidates []candidate
		for _, p := range s.Persons {
			if shift.Has(p.ID) {
				continue
			}
			if r := s.check(p, *shift, l); r != eligible {
				counts[r]++
				continue
			}
			candidates = append(candidates, candidate{person: p, score: s.Score(p, *shift, l)})
		}

		// Stable so that ties keep roster order between runs.
		sort.SliceStable(candidates, func(a, b int) bool {
			return candidates[a].score > candidates[b].score
		})

		needed := s.Tuning.RosterSize - len(shift.Assigned)
		for _, cand := range candidates {
			if needed <= 0 {
				break
			}
			shift.Assigned = append(shift.Assigned, cand.person.ID)
			l.Record(cand.person.ID, *shift)
			needed--
		}

		if needed > 0 {
			s.recordConflict(*shift, needed, counts)
		}
	}
	return l
}

func (s *Scheduler) recordConflict(sh models.Shift, missing int, counts map[rejection]int) {
	var reasons []string
	if n := counts[onDutyThatDay]; n > 0 {
		reasons = append(reasons, fmt.Sprintf("%d persons were already on duty that day", n))
	}
	if n := counts[forbiddenDay]; n > 0 {
		reasons = append(reasons, fmt.Sprintf("%d persons have %s forbidden", n, sh.Date.Weekday()))
	}
	if n := counts[dayNotAllowed]; n > 0 {
		reasons = append(reasons, fmt.Sprintf("%d persons are restricted to other weekdays", n))
	}
	if n := counts[kindNotAllowed]; n > 0 {
		reasons = append(reasons, fmt.Sprintf("%d persons are restricted to other shift kinds", n))
	}
	if n := counts[quotaReached]; n > 0 {
		reasons = append(reasons, fmt.Sprintf("%d persons reached their monthly quota", n))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "not enough persons in the roster")
	}

	conflict := models.ConflictReason{
		ShiftID: sh.ID,
		Date:    models.DateKey(sh.Date),
		Kind:    sh.Kind,
		Missing: missing,
		Reasons: reasons,
	}
	s.Conflicts = append(s.Conflicts, conflict)
	s.logger.Debug("shift under-filled",
		zap.String("shift_id", sh.ID),
		zap.String("date", conflict.Date),
		zap.String("kind", string(sh.Kind)),
		zap.Int("missing", missing),
		zap.Strings("reasons", reasons),
	)
}

// Result is a fully assigned schedule together with the run's bookkeeping
type Result struct {
	Schedule  models.Schedule
	Conflicts []models.ConflictReason
	Ledger    *Ledger
}

// GenerateSchedule builds the default calendar for year and assigns persons to it
func GenerateSchedule(year int, persons []models.Person, opts ...Option) (Result, error) {
	return GenerateWith(calendar.Default(), year, persons, opts...)
}

// GenerateWith is GenerateSchedule over a caller-supplied calendar
func GenerateWith(g *calendar.Generator, year int, persons []models.Person, opts ...Option) (Result, error) {
	schedule, err := g.Generate(year)
	if err != nil {
		return Result{}, err
	}
	s, err := NewScheduler(persons, opts...)
	if err != nil {
		return Result{}, err
	}
	ledger := s.Assign(&schedule)
	return Result{Schedule: schedule, Conflicts: s.Conflicts, Ledger: ledger}, nil
}
