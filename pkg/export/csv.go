package export

import (
	"encoding/csv"
	"io"

	"github.com/arnavshah/duty-roster-go/pkg/models"
)

const (
	csvDateLayout = "02/01/2006"
	bom           = "\ufeff"
)

// CSVHeader is the first record of every CSV export
var CSVHeader = []string{"Date", "Weekday", "Shift", "Persons"}

// CSV writes one record per shift, prefixed with a UTF-8 BOM for Excel
func CSV(w io.Writer, schedule models.Schedule, persons []models.Person) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return err
	}

	n := newNames(persons)
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return err
	}
	for _, sh := range schedule.Shifts {
		if err := writer.Write([]string{
			sh.Date.Format(csvDateLayout),
			sh.Date.Weekday().String(),
			string(sh.Kind),
			n.cell(sh),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
