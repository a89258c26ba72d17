package insights

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"salon/internal/model"
)

const (
	historySheet = "History"
	summarySheet = "Summary"
)

// WriteWorkbook renders records plus their totals as an XLSX workbook.
func WriteWorkbook(w io.Writer, records []model.AttendanceRecord, sum Summary, breakdown []ServiceTotal, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := setRow(f, historySheet, 1, []any{"Date", "Customer", "Service", "Amount", "Status"}); err != nil {
		return err
	}
	for i, rec := range records {
		row := []any{
			rec.Date.In(loc).Format("2006-01-02 15:04"),
			rec.Customer,
			rec.Service,
			rec.Amount.InexactFloat64(),
			rec.Status,
		}
		if err := setRow(f, historySheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}
	rows := [][]any{
		{"Total Earnings", sum.TotalEarnings.InexactFloat64()},
		{"Total Attendance", sum.TotalAttendance},
		{"Service", "Earnings", "Visits"},
	}
	for _, st := range breakdown {
		rows = append(rows, []any{st.Service, st.Earnings.InexactFloat64(), st.Visits})
	}
	for i, row := range rows {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
