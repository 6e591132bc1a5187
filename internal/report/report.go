package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"parking-gate-backend/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

// BuildDailyReport renders a day's entry log as an XLSX workbook. The caller
// owns closing the returned file.
func BuildDailyReport(rec *model.DailyRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{
		"ref",
		"user_id",
		"permit_id",
		"user_name",
		"entry_time",
		"exit_time",
		"status",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write report header: %w", err)
	}

	for i, e := range rec.Entries {
		exitTime := ""
		if e.ExitTime != nil {
			exitTime = e.ExitTime.Format(timeLayout)
		}
		row := []interface{}{
			e.Ref,
			e.UserID,
			e.PermitID,
			e.UserName,
			e.EntryTime.Format(timeLayout),
			exitTime,
			string(e.Status),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write report row %d: %w", i+2, err)
		}
	}

	counts := rec.Counts()
	summary := []interface{}{
		fmt.Sprintf("date: %s", rec.Date.Format("2006-01-02")),
		fmt.Sprintf("total slots: %d", counts.TotalSlots),
		fmt.Sprintf("entries: %d", counts.TotalEntriesToday),
		fmt.Sprintf("inside: %d", counts.CurrentlyInside),
		fmt.Sprintf("exited: %d", counts.ExitedToday),
	}
	cell, err := excelize.CoordinatesToCellName(1, len(rec.Entries)+3)
	if err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, cell, &summary); err != nil {
		return nil, fmt.Errorf("failed to write report summary: %w", err)
	}

	return f, nil
}
