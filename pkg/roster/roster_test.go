package roster

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/duty-roster-go/pkg/models"
)

func TestDefault(t *testing.T) {
	persons := Default()
	require.Len(t, persons, 16)

	assert.Equal(t, "adilson", persons[0].ID)
	assert.Equal(t, []time.Weekday{time.Sunday}, persons[0].Constraints.DaysAllowed)
	assert.Equal(t, []models.ShiftKind{models.Night}, persons[0].Constraints.ShiftsAllowed)

	thiago := persons[13]
	assert.Equal(t, "thiago", thiago.ID)
	assert.Equal(t, 2, thiago.Constraints.Quota())
	assert.Equal(t, []time.Weekday{time.Wednesday}, thiago.Constraints.DaysAllowed)

	williams := persons[15]
	assert.Equal(t, 3, williams.Constraints.Quota())
	assert.Nil(t, williams.Constraints.DaysAllowed)
	assert.Nil(t, williams.Constraints.ShiftsAllowed)

	assert.Equal(t, "Luíz Cezar", persons[11].Name)
	assert.False(t, persons[2].Constraints.Fixed())
}

func TestDefault_ReturnsFreshCopies(t *testing.T) {
	a := Default()
	a[0].Name = "changed"
	*a[13].Constraints.FixedPerMonth = 9

	b := Default()
	assert.Equal(t, "Adilson", b[0].Name)
	assert.Equal(t, 2, b[13].Constraints.Quota())
}

func TestLoad_YAMLWeekdayForms(t *testing.T) {
	doc := `
persons:
  - id: a
    name: A
    constraints:
      days_allowed: [0, Wed, saturday]
      forbidden_days: ["5"]
      shifts_allowed: [night, Morning]
  - id: b
`
	persons, err := Load(strings.NewReader(doc), YAML)
	require.NoError(t, err)
	require.Len(t, persons, 2)

	c := persons[0].Constraints
	assert.Equal(t, []time.Weekday{time.Sunday, time.Wednesday, time.Saturday}, c.DaysAllowed)
	assert.Equal(t, []time.Weekday{time.Friday}, c.ForbiddenDays)
	assert.Equal(t, []models.ShiftKind{models.Night, models.Morning}, c.ShiftsAllowed)

	assert.Equal(t, "b", persons[1].Name)
	assert.False(t, persons[1].Constraints.Fixed())
}

func TestLoad_JSON(t *testing.T) {
	doc := `{"persons":[{"id":"t","name":"T","constraints":{"fixed_per_month":2,"days_allowed":[3,"sunday"],"shifts_allowed":["NIGHT"]}}]}`
	persons, err := Load(strings.NewReader(doc), JSON)
	require.NoError(t, err)
	require.Len(t, persons, 1)
	assert.Equal(t, 2, persons[0].Constraints.Quota())
	assert.Equal(t, []time.Weekday{time.Wednesday, time.Sunday}, persons[0].Constraints.DaysAllowed)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":         "persons: []",
		"no id":         "persons:\n  - name: X\n",
		"duplicate":     "persons:\n  - id: a\n  - id: a\n",
		"bad weekday":   "persons:\n  - id: a\n    constraints:\n      days_allowed: [funday]\n",
		"weekday range": "persons:\n  - id: a\n    constraints:\n      days_allowed: [7]\n",
		"bad kind":      "persons:\n  - id: a\n    constraints:\n      shifts_allowed: [EVENING]\n",
		"negative":      "persons:\n  - id: a\n    constraints:\n      fixed_per_month: -1\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(doc), YAML)
			assert.ErrorIs(t, err, ErrInvalidRoster)
		})
	}

	_, err := Load(strings.NewReader("{}"), Format("toml"))
	assert.ErrorIs(t, err, ErrInvalidRoster)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roster.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"persons":[{"id":"x","name":"X"}]}`), 0o644))

	persons, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []models.Person{{ID: "x", Name: "X"}}, persons)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
	_, err = FromPath(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "missing.yaml")

	persons, err = FromPath("")
	require.NoError(t, err)
	assert.Len(t, persons, 16)

	assert.Equal(t, YAML, FormatFor("roster.yml"))
	assert.Equal(t, JSON, FormatFor("ROSTER.JSON"))
}
