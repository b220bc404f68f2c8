package export

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/arnavshah/duty-roster-go/pkg/models"
)

const uidDomain = "duty-roster"

// ICS renders every shift as an all-day event. stamp is used as DTSTAMP so
// repeated exports of the same schedule are identical.
func ICS(schedule models.Schedule, persons []models.Person, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//duty-roster-go//schedule//EN")
	cal.SetXWRCalName(fmt.Sprintf("Duty roster %d", schedule.Year))

	n := newNames(persons)
	for _, sh := range schedule.Shifts {
		ev := cal.AddEvent(fmt.Sprintf("%s@%s", sh.ID, uidDomain))
		ev.SetDtStampTime(stamp.UTC())
		ev.SetAllDayStartAt(sh.Date)
		ev.SetAllDayEndAt(sh.Date.AddDate(0, 0, 1))
		ev.SetSummary(summary(sh.Kind))
		ev.SetDescription(n.cell(sh))
	}
	return cal.Serialize()
}

func summary(k models.ShiftKind) string {
	if !k.Staffed() {
		return SpecialLabel
	}
	return strings.ToUpper(string(k)) + " duty"
}
