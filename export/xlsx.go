/*
Package export renders persisted weekly timesheets as xlsx workbooks for
the back office.

One sheet per workbook: a header block identifying the jobseeker, position
and week, seven day rows, and a totals block with the regular/overtime
split and the derived pay and bill figures.
*/
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/crewdesk/staffing-engine/reconcile"
)

const sheetName = "Timesheet"

// WeekWorkbook builds an xlsx workbook for one persisted week.
// The caller owns writing and closing the returned file.
func WeekWorkbook(rec reconcile.Record) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetName)

	header := [][]any{
		{"Invoice", rec.InvoiceNumber},
		{"Position", string(rec.PositionID)},
		{"Jobseeker", string(rec.JobseekerUserID)},
		{"Week", rec.WeekStart.String() + " - " + rec.WeekEnd.String()},
	}
	row := 1
	for _, h := range header {
		if err := setRow(f, row, h); err != nil {
			return nil, err
		}
		row++
	}

	row++
	if err := setRow(f, row, []any{"Date", "Hours"}); err != nil {
		return nil, err
	}
	row++
	for _, d := range rec.DailyHours {
		if err := setRow(f, row, []any{d.Date.String(), d.Hours.InexactFloat64()}); err != nil {
			return nil, err
		}
		row++
	}

	row++
	totals := [][]any{
		{"Regular hours", rec.TotalRegularHours.InexactFloat64()},
		{"Overtime hours", rec.TotalOvertimeHours.InexactFloat64()},
		{"Bonus", rec.BonusAmount.InexactFloat64()},
		{"Deduction", rec.DeductionAmount.InexactFloat64()},
		{"Jobseeker pay", rec.TotalJobseekerPay.InexactFloat64()},
		{"Client bill", rec.TotalClientBill.InexactFloat64()},
	}
	for _, t := range totals {
		if err := setRow(f, row, t); err != nil {
			return nil, err
		}
		row++
	}

	if err := f.SetColWidth(sheetName, "A", "A", 18); err != nil {
		return nil, err
	}
	return f, nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx cell for row %d: %w", row, err)
	}
	return f.SetSheetRow(sheetName, cell, &values)
}
