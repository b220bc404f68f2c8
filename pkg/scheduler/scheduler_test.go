package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/arnavshah/duty-roster-go/pkg/calendar"
	"github.com/arnavshah/duty-roster-go/pkg/models"
	"github.com/arnavshah/duty-roster-go/pkg/roster"
)

func people(ids ...string) []models.Person {
	out := make([]models.Person, len(ids))
	for i, id := range ids {
		out[i] = models.Person{ID: id, Name: id}
	}
	return out
}

func shiftOn(id string, date time.Time, kind models.ShiftKind) models.Shift {
	return models.Shift{ID: id, Date: date, Kind: kind, Assigned: []string{}}
}

func TestAssign_FirstShifts(t *testing.T) {
	res, err := GenerateSchedule(2026, people("a", "b", "c", "d"))
	require.NoError(t, err)

	got := make([][]string, 6)
	for i := range got {
		got[i] = res.Schedule.Shifts[i].Assigned
	}
	assert.Equal(t, [][]string{
		{"a", "b", "c"}, // Sun 1 MORNING
		{"d"},           // Sun 1 NIGHT, everyone else already on duty
		{"a", "b", "c"}, // Wed 4, all tied on score
		{"d", "a", "b"}, // Sat 7 AFTERNOON, d rested longest
		{"c"},           // Sat 7 NIGHT
		{"d", "a", "b"}, // Sun 8 MORNING
	}, got)
}

func TestAssign_Deterministic(t *testing.T) {
	a, err := GenerateSchedule(2026, roster.Default())
	require.NoError(t, err)
	b, err := GenerateSchedule(2026, roster.Default())
	require.NoError(t, err)
	assert.Equal(t, a.Schedule, b.Schedule)
}

func TestAssign_NoDoubleBookingAndRosterSize(t *testing.T) {
	for year := 2024; year <= 2030; year++ {
		res, err := GenerateSchedule(year, roster.Default())
		require.NoError(t, err)

		byDay := make(map[string]map[string]bool)
		for _, sh := range res.Schedule.Shifts {
			if sh.Kind == models.SpecialObservance {
				assert.Empty(t, sh.Assigned)
				continue
			}
			assert.LessOrEqual(t, len(sh.Assigned), 3)

			day := models.DateKey(sh.Date)
			if byDay[day] == nil {
				byDay[day] = make(map[string]bool)
			}
			for _, id := range sh.Assigned {
				assert.False(t, byDay[day][id], "%s double booked on %s", id, day)
				byDay[day][id] = true
			}
		}
	}
}

func TestAssign_SpecialObservanceStaysEmpty(t *testing.T) {
	res, err := GenerateSchedule(2026, roster.Default())
	require.NoError(t, err)

	var special []models.Shift
	for _, sh := range res.Schedule.Shifts {
		if models.DateKey(sh.Date) == "2026-06-07" {
			special = append(special, sh)
		}
	}
	require.Len(t, special, 1)
	assert.Equal(t, models.SpecialObservance, special[0].Kind)
	assert.Empty(t, special[0].Assigned)
}

func TestAssign_QuotaHolderGetsExactQuota(t *testing.T) {
	persons := append(people("p1", "p2", "p3", "p4", "p5", "p6"),
		models.Person{ID: "q", Name: "Quota", Constraints: models.Constraints{FixedPerMonth: models.IntPtr(2)}})

	res, err := GenerateSchedule(2026, persons)
	require.NoError(t, err)
	assert.Empty(t, res.Conflicts)

	for _, month := range res.Schedule.Months() {
		count := 0
		for _, sh := range res.Schedule.Shifts {
			if models.MonthKey(sh.Date) == month && sh.Has("q") {
				count++
			}
		}
		assert.Equal(t, 2, count, "month %s", month)
	}
}

func TestAssign_ZeroQuotaNeverAssigned(t *testing.T) {
	// fixed_per_month: 0 is a quota of zero, not an absent quota.
	zero := models.Person{ID: "z", Name: "Zero", Constraints: models.Constraints{FixedPerMonth: models.IntPtr(0)}}
	persons := append(people("p1", "p2", "p3", "p4", "p5", "p6"), zero)

	res, err := GenerateSchedule(2026, persons)
	require.NoError(t, err)
	assert.Empty(t, res.Conflicts)
	for _, sh := range res.Schedule.Shifts {
		assert.False(t, sh.Has("z"), sh.ID)
	}
}

func TestAssign_WednesdayNightOnly(t *testing.T) {
	persons := append(people("p1", "p2", "p3", "p4", "p5", "p6"), models.Person{
		ID:   "w",
		Name: "Wed",
		Constraints: models.Constraints{
			DaysAllowed:   []time.Weekday{time.Wednesday},
			ShiftsAllowed: []models.ShiftKind{models.Night},
		},
	})

	res, err := GenerateSchedule(2026, persons)
	require.NoError(t, err)

	taken := 0
	for _, sh := range res.Schedule.Shifts {
		if sh.Has("w") {
			taken++
			assert.Equal(t, time.Wednesday, sh.Date.Weekday())
			assert.Equal(t, models.Night, sh.Kind)
		}
	}
	assert.Positive(t, taken)
}

func TestAssign_ForbiddenWednesday(t *testing.T) {
	res, err := GenerateSchedule(2026, roster.Default())
	require.NoError(t, err)

	for _, sh := range res.Schedule.Shifts {
		if sh.Date.Weekday() != time.Wednesday {
			continue
		}
		for _, id := range []string{"carlos_henrique", "eduardo", "elson"} {
			assert.False(t, sh.Has(id), "%s on Wednesday %s", id, models.DateKey(sh.Date))
		}
	}
}

func TestAssign_ShortageIsRecordedNotRaised(t *testing.T) {
	res, err := GenerateSchedule(2026, people("a", "b"), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	// Every staffed shift misses at least one seat.
	assert.Len(t, res.Conflicts, len(res.Schedule.Shifts)-1)

	night := res.Schedule.Shifts[1]
	assert.Empty(t, night.Assigned)
	require.Equal(t, night.ID, res.Conflicts[1].ShiftID)
	assert.Equal(t, 3, res.Conflicts[1].Missing)
	assert.Equal(t, []string{"2 persons were already on duty that day"}, res.Conflicts[1].Reasons)

	assert.Equal(t, 1, res.Conflicts[0].Missing)
	assert.Equal(t, []string{"not enough persons in the roster"}, res.Conflicts[0].Reasons)
}

func TestAssign_EmptyRoster(t *testing.T) {
	res, err := GenerateSchedule(2026, nil)
	require.NoError(t, err)
	for _, sh := range res.Schedule.Shifts {
		assert.Empty(t, sh.Assigned)
	}
}

func TestGenerateSchedule_Errors(t *testing.T) {
	_, err := GenerateSchedule(0, people("a"))
	assert.ErrorIs(t, err, calendar.ErrInvalidYear)

	_, err = GenerateSchedule(2026, people("a", "b", "a"))
	assert.ErrorIs(t, err, models.ErrDuplicatePerson)
}

func TestCanTake(t *testing.T) {
	s, err := NewScheduler(nil)
	require.NoError(t, err)

	sunday := models.Date(2026, time.March, 1)
	wednesday := models.Date(2026, time.March, 4)
	l := NewLedger()
	l.Record("busy", shiftOn("shift-1", sunday, models.Morning))
	l.Record("quota", shiftOn("shift-1", sunday, models.Morning))

	night := shiftOn("shift-2", sunday, models.Night)
	wedNight := shiftOn("shift-3", wednesday, models.Night)

	cases := []struct {
		name   string
		person models.Person
		shift  models.Shift
		want   bool
	}{
		{"unrestricted", models.Person{ID: "free"}, night, true},
		{"same day", models.Person{ID: "busy"}, night, false},
		{"busy on another day", models.Person{ID: "busy"}, wedNight, true},
		{"forbidden day", models.Person{ID: "x", Constraints: models.Constraints{ForbiddenDays: []time.Weekday{time.Wednesday}}}, wedNight, false},
		{"allowed day", models.Person{ID: "x", Constraints: models.Constraints{DaysAllowed: []time.Weekday{time.Wednesday}}}, wedNight, true},
		{"day not allowed", models.Person{ID: "x", Constraints: models.Constraints{DaysAllowed: []time.Weekday{time.Wednesday}}}, night, false},
		{"kind not allowed", models.Person{ID: "x", Constraints: models.Constraints{ShiftsAllowed: []models.ShiftKind{models.Morning}}}, night, false},
		{"quota reached", models.Person{ID: "quota", Constraints: models.Constraints{FixedPerMonth: models.IntPtr(1)}}, wedNight, false},
		{"quota open", models.Person{ID: "quota", Constraints: models.Constraints{FixedPerMonth: models.IntPtr(2)}}, wedNight, true},
		{"zero quota", models.Person{ID: "none", Constraints: models.Constraints{FixedPerMonth: models.IntPtr(0)}}, wedNight, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.CanTake(tc.person, tc.shift, l))
		})
	}
}

func TestScore(t *testing.T) {
	s, err := NewScheduler(nil)
	require.NoError(t, err)

	sunday := models.Date(2026, time.March, 1)
	wednesday := models.Date(2026, time.March, 4)
	wedNight := shiftOn("shift-3", wednesday, models.Night)

	l := NewLedger()
	free := models.Person{ID: "free"}
	quota := models.Person{ID: "quota", Constraints: models.Constraints{FixedPerMonth: models.IntPtr(2)}}

	assert.Equal(t, 200, s.Score(free, wedNight, l))
	assert.Equal(t, 250, s.Score(quota, wedNight, l))

	l.Record("free", shiftOn("shift-1", sunday, models.Morning))
	assert.Equal(t, 2*3-10, s.Score(free, wedNight, l))

	// A last assignment on or after the shift date counts as zero days.
	l.Record("free", shiftOn("shift-9", models.Date(2026, time.March, 10), models.Night))
	assert.Equal(t, -20, s.Score(free, wedNight, l))
}

func TestWithTuning(t *testing.T) {
	tuning := DefaultTuning()
	tuning.RosterSize = 1
	res, err := GenerateSchedule(2026, people("a", "b", "c"), WithTuning(tuning))
	require.NoError(t, err)

	for _, sh := range res.Schedule.Shifts {
		if sh.Kind.Staffed() {
			assert.Len(t, sh.Assigned, 1)
		}
	}
	assert.Empty(t, res.Conflicts)
}

func TestLedger(t *testing.T) {
	l := NewLedger()
	march := models.Date(2026, time.March, 1)
	april := models.Date(2026, time.April, 1)

	l.Record("a", shiftOn("s1", march, models.Morning))
	l.Record("a", shiftOn("s2", april, models.Night))

	assert.Equal(t, 2, l.Total("a"))
	assert.Equal(t, 1, l.MonthCount("a", march.AddDate(0, 0, 5)))
	assert.True(t, l.OnDuty("a", april))
	assert.False(t, l.OnDuty("b", april))

	last, ok := l.LastAssigned("a")
	require.True(t, ok)
	assert.Equal(t, april, last)
	assert.Equal(t, 100, l.DaysSinceLast("b", april, 100))
	assert.Equal(t, 9, l.DaysSinceLast("a", april.AddDate(0, 0, 9), 100))
}
