// Package roster loads the ordered list of persons the scheduler plans for.
package roster

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arnavshah/duty-roster-go/pkg/models"
)

//go:embed default.yaml
var defaultRoster []byte

// ErrInvalidRoster is returned for roster documents that cannot be planned with
var ErrInvalidRoster = errors.New("invalid roster")

// Format is the encoding of a roster document
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// FormatFor picks the format from a file extension, defaulting to YAML
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSON
	}
	return YAML
}

type document struct {
	Persons []personDoc `yaml:"persons" json:"persons"`
}

type personDoc struct {
	ID          string         `yaml:"id" json:"id"`
	Name        string         `yaml:"name" json:"name"`
	Constraints constraintsDoc `yaml:"constraints" json:"constraints"`
}

type constraintsDoc struct {
	FixedPerMonth *int      `yaml:"fixed_per_month" json:"fixed_per_month"`
	DaysAllowed   []weekday `yaml:"days_allowed" json:"days_allowed"`
	ShiftsAllowed []string  `yaml:"shifts_allowed" json:"shifts_allowed"`
	ForbiddenDays []weekday `yaml:"forbidden_days" json:"forbidden_days"`
}

// weekday decodes either a number (0 = Sunday) or an English day name
type weekday time.Weekday

func parseWeekday(s string) (weekday, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("%w: weekday %d out of range", ErrInvalidRoster, n)
		}
		return weekday(n), nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := d.String()
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return weekday(d), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidRoster, s)
}

func (w *weekday) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: weekday must be a scalar (line %d)", ErrInvalidRoster, node.Line)
	}
	d, err := parseWeekday(node.Value)
	if err != nil {
		return err
	}
	*w = d
	return nil
}

func (w *weekday) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	d, err := parseWeekday(s)
	if err != nil {
		return err
	}
	*w = d
	return nil
}

func toWeekdays(in []weekday) []time.Weekday {
	if in == nil {
		return nil
	}
	out := make([]time.Weekday, len(in))
	for i, d := range in {
		out[i] = time.Weekday(d)
	}
	return out
}

// Load decodes a roster document and returns its persons in document order
func Load(r io.Reader, format Format) ([]models.Person, error) {
	var doc document
	switch format {
	case JSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode roster: %w", err)
		}
	case YAML, "":
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode roster: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidRoster, format)
	}
	return fromDocument(doc)
}

// LoadFile reads a roster from disk, choosing the format by extension
func LoadFile(path string) ([]models.Person, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f, FormatFor(path))
}

// Default returns a fresh copy of the built-in roster
func Default() []models.Person {
	persons, err := Load(bytes.NewReader(defaultRoster), YAML)
	if err != nil {
		panic(fmt.Sprintf("embedded roster: %v", err))
	}
	return persons
}

// FromPath loads the roster at path, or returns Default when path is empty
func FromPath(path string) ([]models.Person, error) {
	if path == "" {
		return Default(), nil
	}
	persons, err := LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load roster %s: %w", path, err)
	}
	return persons, nil
}

func fromDocument(doc document) ([]models.Person, error) {
	if len(doc.Persons) == 0 {
		return nil, fmt.Errorf("%w: no persons", ErrInvalidRoster)
	}

	persons := make([]models.Person, 0, len(doc.Persons))
	for i, pd := range doc.Persons {
		id := strings.TrimSpace(pd.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: person %d has no id", ErrInvalidRoster, i+1)
		}
		name := strings.TrimSpace(pd.Name)
		if name == "" {
			name = id
		}
		if q := pd.Constraints.FixedPerMonth; q != nil && *q < 0 {
			return nil, fmt.Errorf("%w: %s has a negative monthly quota", ErrInvalidRoster, id)
		}

		var kinds []models.ShiftKind
		if pd.Constraints.ShiftsAllowed != nil {
			kinds = make([]models.ShiftKind, 0, len(pd.Constraints.ShiftsAllowed))
			for _, s := range pd.Constraints.ShiftsAllowed {
				k, err := models.ParseShiftKind(s)
				if err != nil {
					return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRoster, id, err)
				}
				kinds = append(kinds, k)
			}
		}

		persons = append(persons, models.Person{
			ID:   id,
			Name: name,
			Constraints: models.Constraints{
				FixedPerMonth: pd.Constraints.FixedPerMonth,
				DaysAllowed:   toWeekdays(pd.Constraints.DaysAllowed),
				ShiftsAllowed: kinds,
				ForbiddenDays: toWeekdays(pd.Constraints.ForbiddenDays),
			},
		})
	}

	if _, err := models.IndexPersons(persons); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoster, err)
	}
	return persons, nil
}
