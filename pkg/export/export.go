// Package export renders a schedule for spreadsheets and calendar apps.
package export

import (
	"strings"

	"github.com/arnavshah/duty-roster-go/pkg/models"
)

// SpecialLabel replaces the person list of a special observance row
const SpecialLabel = "SPECIAL OBSERVANCE"

// names resolves person ids to display names, falling back to the id
type names map[string]string

func newNames(persons []models.Person) names {
	n := make(names, len(persons))
	for _, p := range persons {
		n[p.ID] = p.Name
	}
	return n
}

func (n names) of(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		if name, ok := n[id]; ok {
			out[i] = name
		} else {
			out[i] = id
		}
	}
	return out
}

func (n names) cell(sh models.Shift) string {
	if !sh.Kind.Staffed() {
		return SpecialLabel
	}
	return strings.Join(n.of(sh.Assigned), ", ")
}
