// Package report renders analytics and time logs as XLSX workbooks.
package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"opsdesk/internal/model"
	"opsdesk/internal/revenue"
)

// ContentType is the MIME type of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	sheetSummary  = "Summary"
	sheetMonthly  = "Monthly"
	sheetTimeLogs = "Time logs"

	moneyFmt = 4 // #,##0.00
)

type styles struct {
	header int
	money  int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error
	s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DCE6F1"}},
	})
	if err != nil {
		return s, err
	}
	s.money, err = f.NewStyle(&excelize.Style{NumFmt: moneyFmt})
	return s, err
}

// table writes a header row plus rows starting at A1, freezes the header and styles money columns.
func table(f *excelize.File, st styles, sheet string, header []any, rows [][]any, moneyCols ...int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, st.header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		for _, col := range moneyCols {
			top, _ := excelize.CoordinatesToCellName(col, 2)
			bottom, _ := excelize.CoordinatesToCellName(col, len(rows)+1)
			if err := f.SetCellStyle(sheet, top, bottom, st.money); err != nil {
				return err
			}
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

// RevenueWorkbook renders a revenue summary and a month-by-month breakdown on two sheets.
func RevenueWorkbook(summary revenue.Summary, monthly []revenue.MonthTotal) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	st, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("create styles: %w", err)
	}
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(summary.ByProject)+1)
	for _, p := range summary.ByProject {
		rows = append(rows, []any{p.Name, p.Client, p.Billing, p.Hours, p.Revenue})
	}
	rows = append(rows, []any{"Total", "", "", summary.Hours, summary.Total})
	if err := table(f, st, sheetSummary,
		[]any{"Project", "Client", "Billing", "Hours", "Revenue"}, rows, 5); err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}

	if _, err := f.NewSheet(sheetMonthly); err != nil {
		return nil, err
	}
	mrows := make([][]any, 0, len(monthly))
	for _, m := range monthly {
		mrows = append(mrows, []any{time.Month(m.Month).String(), m.Hours, m.Revenue})
	}
	if err := table(f, st, sheetMonthly, []any{"Month", "Hours", "Revenue"}, mrows, 3); err != nil {
		return nil, fmt.Errorf("write monthly: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// TimeLogWorkbook renders logs one per row. names resolves user and project IDs to display names;
// unknown IDs are written as-is.
func TimeLogWorkbook(logs []model.TimeLog, names map[string]string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	st, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("create styles: %w", err)
	}
	if err := f.SetSheetName("Sheet1", sheetTimeLogs); err != nil {
		return nil, err
	}

	name := func(id string) string {
		if n, ok := names[id]; ok && n != "" {
			return n
		}
		return id
	}

	var total float64
	rows := make([][]any, 0, len(logs)+1)
	for _, l := range logs {
		rows = append(rows, []any{
			l.Date.Format(model.DateLayout),
			name(l.UserID),
			name(l.ProjectID),
			string(l.WorkType),
			l.Hours,
			l.Description,
		})
		total += l.Hours
	}
	rows = append(rows, []any{"Total", "", "", "", total, ""})
	if err := table(f, st, sheetTimeLogs,
		[]any{"Date", "User", "Project", "Work type", "Hours", "Description"}, rows); err != nil {
		return nil, fmt.Errorf("write time logs: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	return buf.Bytes(), nil
}
