package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/arnavshah/duty-roster-go/pkg/models"
)

// XLSX builds a workbook with one sheet per month present in the schedule
func XLSX(schedule models.Schedule, persons []models.Person) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	byMonth := make(map[string][]models.Shift)
	for _, sh := range schedule.Shifts {
		m := models.MonthKey(sh.Date)
		byMonth[m] = append(byMonth[m], sh)
	}

	n := newNames(persons)
	months := schedule.Months()
	for _, month := range months {
		if _, err := f.NewSheet(month); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", month, err)
		}
		if err := f.SetSheetRow(month, "A1", &CSVHeader); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(month, "A1", "D1", headerStyle); err != nil {
			return nil, err
		}
		_ = f.SetColWidth(month, "A", "A", 12)
		_ = f.SetColWidth(month, "B", "B", 12)
		_ = f.SetColWidth(month, "C", "C", 22)
		_ = f.SetColWidth(month, "D", "D", 48)

		for i, sh := range byMonth[month] {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return nil, err
			}
			row := []interface{}{
				sh.Date.Format(time.DateOnly),
				sh.Date.Weekday().String(),
				string(sh.Kind),
				n.cell(sh),
			}
			if err := f.SetSheetRow(month, cell, &row); err != nil {
				return nil, err
			}
		}
	}

	if len(months) > 0 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, err
		}
		f.SetActiveSheet(0)
	}

	return f.WriteToBuffer()
}
